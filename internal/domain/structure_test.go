package domain

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func chapterNumbers(b *QuizBook) []int {
	out := make([]int, 0, len(b.Chapters))
	for _, c := range b.Chapters {
		out = append(out, c.ChapterNumber)
	}
	return out
}

func TestAddChapter(t *testing.T) {
	b := NewQuizBook("book-1", "", "", testNow)
	c1 := b.AddChapter("ch-1", "  ")
	c2 := b.AddChapter("ch-2", "Routing")

	assert.Equal(t, 1, c1.ChapterNumber)
	assert.Equal(t, UntitledChapter, c1.Title)
	assert.Equal(t, 2, c2.ChapterNumber)
	assert.Equal(t, "Routing", c2.Title)
	assert.Nil(t, c2.Layout)
}

func TestChapterNumbering_StaysContiguous(t *testing.T) {
	b := newFlatBook(t, 1, 1, 1, 1, 1)

	assert.True(t, b.DeleteChapter("ch-2"))
	assert.Equal(t, []int{1, 2, 3, 4}, chapterNumbers(b))
	assert.Equal(t, "ch-3", b.Chapters[1].ID)

	assert.False(t, b.DeleteChapter("ch-2"))

	b.AddChapter("ch-6", "")
	assert.True(t, b.DeleteChapter("ch-1"))
	assert.True(t, b.DeleteChapter("ch-6"))
	assert.Equal(t, []int{1, 2, 3}, chapterNumbers(b))
	assert.Equal(t, []string{"ch-3", "ch-4", "ch-5"}, []string{b.Chapters[0].ID, b.Chapters[1].ID, b.Chapters[2].ID})
}

func TestDeleteChapter_RefreshesBookRate(t *testing.T) {
	b := newFlatBook(t, 1, 1)
	_, err := b.RecordAttempt(ref("ch-1", 1), ResultPass, testNow)
	require.NoError(t, err)
	assert.Equal(t, 50, b.CorrectRate)

	require.True(t, b.DeleteChapter("ch-2"))
	assert.Equal(t, 100, b.CorrectRate)
}

func TestRenameChapter(t *testing.T) {
	b := newFlatBook(t, 1)
	assert.ErrorIs(t, b.RenameChapter("ch-1", " "), ErrValidation)
	assert.ErrorIs(t, b.RenameChapter("nope", "x"), ErrNotFound)
	require.NoError(t, b.RenameChapter("ch-1", "OSPF"))
	assert.Equal(t, "OSPF", b.Chapters[0].Title)
}

func newSectionedBook(t *testing.T, sections int) *QuizBook {
	t.Helper()
	b := NewQuizBook("book-1", "Security+", "", testNow)
	require.NoError(t, b.SetSectionMode(SectionModeSectioned))
	b.AddChapter("ch-1", "")
	for i := 1; i <= sections; i++ {
		_, err := b.AddSection("ch-1", fmt.Sprintf("sec-%d", i), "", 3)
		require.NoError(t, err)
	}
	return b
}

func TestSections_AddDeleteRenumber(t *testing.T) {
	b := newSectionedBook(t, 4)
	l := b.Chapters[0].Sectioned()
	require.NotNil(t, l)
	assert.Equal(t, UntitledSection, l.Sections[0].Title)

	assert.True(t, b.DeleteSection("ch-1", "sec-2"))
	assert.False(t, b.DeleteSection("ch-1", "sec-2"))
	assert.False(t, b.DeleteSection("missing", "sec-1"))

	got := []string{}
	for _, s := range l.Sections {
		got = append(got, fmt.Sprintf("%s:%d", s.ID, s.SectionNumber))
	}
	assert.Equal(t, []string{"sec-1:1", "sec-3:2", "sec-4:3"}, got)

	s, err := b.AddSection("ch-1", "sec-5", "Wireless", 2)
	require.NoError(t, err)
	assert.Equal(t, 4, s.SectionNumber)
	assert.Equal(t, 11, ChapterTotalQuestions(b.Chapters[0]))

	require.NoError(t, b.RenameSection("ch-1", "sec-5", "Wi-Fi"))
	assert.Equal(t, "Wi-Fi", s.Title)
	assert.ErrorIs(t, b.RenameSection("ch-1", "sec-2", "x"), ErrNotFound)
}

func TestAddSection_Validation(t *testing.T) {
	b := newSectionedBook(t, 0)
	_, err := b.AddSection("ch-1", "sec-1", "x", 0)
	assert.ErrorIs(t, err, ErrValidation)

	_, err = b.AddSection("missing", "sec-1", "x", 1)
	assert.ErrorIs(t, err, ErrNotFound)

	flat := newFlatBook(t, 1)
	_, err = flat.AddSection("ch-1", "sec-1", "x", 1)
	assert.ErrorIs(t, err, ErrInvalidStateTransition)
}

func TestDeleteQuestion_ShiftsHistories(t *testing.T) {
	b := newFlatBook(t, 5)
	for n := 1; n <= 5; n++ {
		_, err := b.SetMemo(ref("ch-1", n), fmt.Sprintf("memo %d", n))
		require.NoError(t, err)
	}
	_, err := b.RecordAttempt(ref("ch-1", 4), ResultPass, testNow)
	require.NoError(t, err)

	require.NoError(t, b.DeleteQuestion(ref("ch-1", 3)))

	qs := &b.Chapters[0].Flat().Questions
	assert.Equal(t, 4, qs.Count)
	memos := map[int]string{}
	for _, a := range qs.Answers {
		memos[a.QuestionNumber] = a.Memo
	}
	assert.Equal(t, map[int]string{1: "memo 1", 2: "memo 2", 3: "memo 4", 4: "memo 5"}, memos)
	assert.True(t, qs.Answer(3).Answered())
	assert.Equal(t, 25, b.CorrectRate)
}

func TestDeleteQuestion_Scenario(t *testing.T) {
	b := newFlatBook(t, 3)
	_, err := b.RecordAttempt(ref("ch-1", 3), ResultFail, testNow)
	require.NoError(t, err)

	require.NoError(t, b.DeleteQuestion(ref("ch-1", 2)))

	qs := &b.Chapters[0].Flat().Questions
	assert.Equal(t, 2, qs.Count)
	require.NotNil(t, qs.Answer(2))
	assert.Equal(t, ResultFail, qs.Answer(2).Last().Result)
	assert.Nil(t, qs.Answer(3))
}

func TestDeleteQuestion_Errors(t *testing.T) {
	b := newFlatBook(t, 1)
	assert.ErrorIs(t, b.DeleteQuestion(ref("ch-1", 2)), ErrNotFound)
	require.NoError(t, b.DeleteQuestion(ref("ch-1", 1)))
	assert.Equal(t, 0, b.Chapters[0].Flat().Questions.Count)

	s := newSectionedBook(t, 1)
	err := s.DeleteQuestion(QuestionRef{ChapterID: "ch-1", SectionID: "sec-1", Number: 1})
	require.NoError(t, err)
	require.NoError(t, s.DeleteQuestion(QuestionRef{ChapterID: "ch-1", SectionID: "sec-1", Number: 1}))
	err = s.DeleteQuestion(QuestionRef{ChapterID: "ch-1", SectionID: "sec-1", Number: 1})
	assert.ErrorIs(t, err, ErrValidation)
}

func TestAddQuestion(t *testing.T) {
	b := newFlatBook(t, 2)
	_, err := b.RecordAttempt(ref("ch-1", 1), ResultPass, testNow)
	require.NoError(t, err)
	assert.Equal(t, 50, b.CorrectRate)

	n, err := b.AddQuestion("ch-1", "")
	require.NoError(t, err)
	assert.Equal(t, 3, n)
	assert.Equal(t, 33, b.CorrectRate)

	_, err = b.AddQuestion("ch-1", "sec-1")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestSetQuestionCount(t *testing.T) {
	b := newFlatBook(t, 5)
	_, err := b.RecordAttempt(ref("ch-1", 4), ResultPass, testNow)
	require.NoError(t, err)

	assert.ErrorIs(t, b.SetQuestionCount("ch-1", "", 0), ErrValidation)
	assert.ErrorIs(t, b.SetQuestionCount("ch-1", "", 3), ErrInvalidStateTransition)
	require.NoError(t, b.SetQuestionCount("ch-1", "", 4))
	assert.Equal(t, 25, b.CorrectRate)
}

func TestSetSectionMode(t *testing.T) {
	t.Run("undecided chapters take the new layout", func(t *testing.T) {
		b := NewQuizBook("book-1", "", "", testNow)
		b.AddChapter("ch-1", "")
		require.NoError(t, b.SetSectionMode(SectionModeSectioned))
		assert.NotNil(t, b.Chapters[0].Sectioned())
	})

	t.Run("empty layouts may switch", func(t *testing.T) {
		b := newSectionedBook(t, 0)
		require.NoError(t, b.SetSectionMode(SectionModeFlat))
		assert.NotNil(t, b.Chapters[0].Flat())
	})

	t.Run("conflicting data is rejected untouched", func(t *testing.T) {
		b := newFlatBook(t, 2)
		b.AddChapter("ch-2", "")
		err := b.SetSectionMode(SectionModeSectioned)
		assert.ErrorIs(t, err, ErrInvalidStateTransition)
		assert.Equal(t, SectionModeFlat, b.SectionMode)
		assert.NotNil(t, b.Chapters[0].Flat())
		assert.NotNil(t, b.Chapters[1].Flat())
	})

	t.Run("same mode is a no-op", func(t *testing.T) {
		b := newFlatBook(t, 2)
		require.NoError(t, b.SetSectionMode(SectionModeFlat))
		assert.Equal(t, 2, b.Chapters[0].Flat().Questions.Count)
	})
}

func TestRenameBook(t *testing.T) {
	b := NewQuizBook("book-1", "", "", testNow)
	assert.ErrorIs(t, b.Rename(""), ErrValidation)
	require.NoError(t, b.Rename(" AWS SAA "))
	assert.Equal(t, "AWS SAA", b.Title)

	assert.Equal(t, DefaultCategory, b.CategoryName())
	b.SetCategory("AWS")
	assert.Equal(t, "AWS", b.CategoryName())
	assert.Equal(t, 1, b.CompleteRound())
}
