package domain

import (
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testNow = time.Date(2026, 10, 1, 9, 0, 0, 0, time.UTC)

// newFlatBook builds a flat-mode book with one chapter per question count.
func newFlatBook(t *testing.T, counts ...int) *QuizBook {
	t.Helper()
	b := NewQuizBook("book-1", "Networking", "CCNA", testNow)
	require.NoError(t, b.SetSectionMode(SectionModeFlat))
	for i, n := range counts {
		c := b.AddChapter(fmt.Sprintf("ch-%d", i+1), "")
		require.NoError(t, b.SetQuestionCount(c.ID, "", n))
	}
	return b
}

func ref(chapterID string, n int) QuestionRef {
	return QuestionRef{ChapterID: chapterID, Number: n}
}

func TestQuestionAnswerRecord_RecordAttempt(t *testing.T) {
	t.Run("first attempt starts round one unlocked", func(t *testing.T) {
		r := &QuestionAnswerRecord{QuestionNumber: 1}
		require.NoError(t, r.RecordAttempt(ResultPass, testNow))
		require.Len(t, r.Attempts, 1)
		assert.Equal(t, Attempt{Round: 1, Result: ResultPass, AnsweredAt: testNow}, r.Attempts[0])
	})

	t.Run("locked last attempt appends next round", func(t *testing.T) {
		r := &QuestionAnswerRecord{Attempts: []Attempt{{Round: 1, Result: ResultFail, Locked: true}}}
		require.NoError(t, r.RecordAttempt(ResultPass, testNow))
		require.Len(t, r.Attempts, 2)
		assert.Equal(t, 2, r.Attempts[1].Round)
		assert.False(t, r.Attempts[1].Locked)
		assert.Equal(t, ResultFail, r.Attempts[0].Result)
	})

	t.Run("unlocked last attempt is overwritten", func(t *testing.T) {
		r := &QuestionAnswerRecord{Attempts: []Attempt{{Round: 1, Result: ResultPass}}}
		later := testNow.Add(time.Minute)
		require.NoError(t, r.RecordAttempt(ResultFail, later))
		require.Len(t, r.Attempts, 1)
		assert.Equal(t, ResultFail, r.Attempts[0].Result)
		assert.Equal(t, later, r.Attempts[0].AnsweredAt)
	})

	t.Run("unknown result is rejected", func(t *testing.T) {
		r := &QuestionAnswerRecord{}
		err := r.RecordAttempt(Result(0), testNow)
		assert.ErrorIs(t, err, ErrValidation)
		assert.Empty(t, r.Attempts)
	})
}

func TestQuestionAnswerRecord_ToggleCycle(t *testing.T) {
	r := &QuestionAnswerRecord{QuestionNumber: 1}
	require.NoError(t, r.RecordAttempt(ResultPass, testNow))

	require.NoError(t, r.ToggleLastResult(testNow))
	require.Len(t, r.Attempts, 1)
	assert.Equal(t, ResultFail, r.Last().Result)

	require.NoError(t, r.ToggleLastResult(testNow))
	assert.Empty(t, r.Attempts)
	assert.False(t, r.Answered())

	// the fourth step of the cycle reproduces the pass state
	require.NoError(t, r.Advance(testNow))
	require.Len(t, r.Attempts, 1)
	assert.Equal(t, ResultPass, r.Last().Result)
	assert.Equal(t, 1, r.Last().Round)
}

func TestQuestionAnswerRecord_ToggleLastResultErrors(t *testing.T) {
	tests := []struct {
		name     string
		attempts []Attempt
	}{
		{"no attempts", nil},
		{"locked last attempt", []Attempt{{Round: 1, Result: ResultPass, Locked: true}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := &QuestionAnswerRecord{Attempts: tt.attempts}
			err := r.ToggleLastResult(testNow)
			assert.ErrorIs(t, err, ErrInvalidStateTransition)
			assert.Equal(t, tt.attempts, r.Attempts)
		})
	}
}

func TestQuestionAnswerRecord_ToggleLock(t *testing.T) {
	r := &QuestionAnswerRecord{}
	assert.ErrorIs(t, r.ToggleLock(), ErrInvalidStateTransition)

	require.NoError(t, r.RecordAttempt(ResultPass, testNow))
	require.NoError(t, r.ToggleLock())
	assert.True(t, r.Last().Locked)
	assert.Equal(t, 2, r.PendingRound())

	require.NoError(t, r.ToggleLock())
	assert.False(t, r.Last().Locked)
	assert.Equal(t, 1, r.PendingRound())
}

func TestQuestionAnswerRecord_LockedAttemptIsImmutable(t *testing.T) {
	r := &QuestionAnswerRecord{}
	require.NoError(t, r.RecordAttempt(ResultFail, testNow))
	require.NoError(t, r.ToggleLock())
	locked := r.Attempts[0]

	assert.ErrorIs(t, r.ToggleLastResult(testNow), ErrInvalidStateTransition)
	assert.ErrorIs(t, r.DeleteLastAttempt(), ErrInvalidStateTransition)
	require.NoError(t, r.RecordAttempt(ResultPass, testNow.Add(time.Hour)))
	require.NoError(t, r.Advance(testNow.Add(2*time.Hour)))

	assert.Equal(t, locked, r.Attempts[0])
}

func TestQuestionAnswerRecord_Advance(t *testing.T) {
	tests := []struct {
		name       string
		attempts   []Attempt
		wantLen    int
		wantResult Result
	}{
		{"unanswered records pass", nil, 1, ResultPass},
		{"locked round appends pass", []Attempt{{Round: 1, Result: ResultFail, Locked: true}}, 2, ResultPass},
		{"unlocked pass flips to fail", []Attempt{{Round: 1, Result: ResultPass}}, 1, ResultFail},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := &QuestionAnswerRecord{Attempts: tt.attempts}
			require.NoError(t, r.Advance(testNow))
			require.Len(t, r.Attempts, tt.wantLen)
			assert.Equal(t, tt.wantResult, r.Last().Result)
		})
	}

	t.Run("unlocked fail clears the round", func(t *testing.T) {
		r := &QuestionAnswerRecord{Attempts: []Attempt{
			{Round: 1, Result: ResultPass, Locked: true},
			{Round: 2, Result: ResultFail},
		}}
		require.NoError(t, r.Advance(testNow))
		require.Len(t, r.Attempts, 1)
		assert.True(t, r.Last().Locked)
	})
}

func TestQuizBook_AttemptOperations(t *testing.T) {
	b := newFlatBook(t, 3)
	q1, q2 := ref("ch-1", 1), ref("ch-1", 2)

	_, err := b.RecordAttempt(q1, ResultPass, testNow)
	require.NoError(t, err)
	_, err = b.ToggleLock(q1)
	require.NoError(t, err)
	_, err = b.RecordAttempt(q2, ResultFail, testNow)
	require.NoError(t, err)
	assert.Equal(t, 33, b.CorrectRate)
	assert.Equal(t, 33, b.Chapters[0].ChapterRate)

	rec, err := b.ToggleLastResult(q2, testNow)
	require.NoError(t, err)
	assert.Empty(t, rec.Attempts)
	assert.Equal(t, 33, b.CorrectRate)

	_, err = b.ToggleLock(ref("ch-1", 3))
	assert.ErrorIs(t, err, ErrInvalidStateTransition)

	_, err = b.RecordAttempt(ref("ch-1", 4), ResultPass, testNow)
	assert.ErrorIs(t, err, ErrNotFound)

	_, err = b.RecordAttempt(ref("missing", 1), ResultPass, testNow)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestQuizBook_SetMemoCreatesEmptyRecord(t *testing.T) {
	b := newFlatBook(t, 2)
	rec, err := b.SetMemo(ref("ch-1", 2), "review subnetting")
	require.NoError(t, err)
	assert.Equal(t, "review subnetting", rec.Memo)
	assert.Empty(t, rec.Attempts)

	got, err := b.Answer(ref("ch-1", 2))
	require.NoError(t, err)
	assert.Same(t, rec, got)
	assert.Equal(t, 0, b.CorrectRate)
}

func TestQuizBook_QuestionsUndecidedLayout(t *testing.T) {
	b := NewQuizBook("book-1", "", "", testNow)
	c := b.AddChapter("ch-1", "Basics")
	assert.Nil(t, c.Layout)

	_, err := b.RecordAttempt(ref("ch-1", 1), ResultPass, testNow)
	assert.ErrorIs(t, err, ErrInvalidStateTransition)
}
