package domain

import (
	"strings"
)

// Rename changes the book title. Titles may only be empty on a freshly created book.
func (b *QuizBook) Rename(title string) error {
	title = strings.TrimSpace(title)
	if title == "" {
		return NewValidationError("title is required")
	}
	b.Title = title
	return nil
}

// SetCategory moves the book to another category; empty means the default bucket.
func (b *QuizBook) SetCategory(category string) {
	b.Category = strings.TrimSpace(category)
}

func (b *QuizBook) newLayout() ChapterLayout {
	switch b.SectionMode {
	case SectionModeFlat:
		return &FlatLayout{}
	case SectionModeSectioned:
		return &SectionedLayout{Sections: []*Section{}}
	default:
		return nil
	}
}

// SetSectionMode decides how chapters hold questions. Chapters that already
// hold data in the other shape make the switch fail; nothing is converted.
func (b *QuizBook) SetSectionMode(mode SectionMode) error {
	if mode == b.SectionMode {
		return nil
	}
	for _, c := range b.Chapters {
		if c.Layout == nil || c.Layout.empty() {
			continue
		}
		return NewInvalidStateTransitionError("chapter already holds data in another section mode").
			WithContext("chapter_id", c.ID).
			WithContext("current_mode", b.SectionMode.String()).
			WithContext("requested_mode", mode.String())
	}
	b.SectionMode = mode
	for _, c := range b.Chapters {
		c.Layout = b.newLayout()
	}
	b.RefreshRates()
	return nil
}

// AddChapter appends a chapter numbered after the current last one.
func (b *QuizBook) AddChapter(id, title string) *Chapter {
	title = strings.TrimSpace(title)
	if title == "" {
		title = UntitledChapter
	}
	max := 0
	for _, c := range b.Chapters {
		if c.ChapterNumber > max {
			max = c.ChapterNumber
		}
	}
	c := &Chapter{
		ID:            id,
		ChapterNumber: max + 1,
		Title:         title,
		Layout:        b.newLayout(),
	}
	b.Chapters = append(b.Chapters, c)
	return c
}

// RenameChapter sets a chapter title
func (b *QuizBook) RenameChapter(chapterID, title string) error {
	title = strings.TrimSpace(title)
	if title == "" {
		return NewValidationError("title is required")
	}
	c := b.Chapter(chapterID)
	if c == nil {
		return NewNotFoundError("chapter", chapterID)
	}
	c.Title = title
	return nil
}

// DeleteChapter removes a chapter with its sections and answer records and
// renumbers the remaining chapters 1..N. It reports whether anything was removed.
func (b *QuizBook) DeleteChapter(chapterID string) bool {
	kept := b.Chapters[:0]
	removed := false
	for _, c := range b.Chapters {
		if c.ID == chapterID {
			removed = true
			continue
		}
		kept = append(kept, c)
	}
	if !removed {
		return false
	}
	b.Chapters = kept
	for i, c := range b.Chapters {
		c.ChapterNumber = i + 1
	}
	b.RefreshRates()
	return true
}

// AddSection appends a section to a sectioned chapter.
func (b *QuizBook) AddSection(chapterID, id, title string, questionCount int) (*Section, error) {
	if questionCount < 1 {
		return nil, NewValidationError("question count must be positive").
			WithContext("question_count", questionCount)
	}
	c := b.Chapter(chapterID)
	if c == nil {
		return nil, NewNotFoundError("chapter", chapterID)
	}
	l := c.Sectioned()
	if l == nil {
		return nil, NewInvalidStateTransitionError("chapter is not sectioned").
			WithContext("chapter_id", chapterID).
			WithContext("section_mode", b.SectionMode.String())
	}
	title = strings.TrimSpace(title)
	if title == "" {
		title = UntitledSection
	}
	max := 0
	for _, s := range l.Sections {
		if s.SectionNumber > max {
			max = s.SectionNumber
		}
	}
	s := &Section{
		ID:            id,
		SectionNumber: max + 1,
		Title:         title,
		Questions:     QuestionSet{Count: questionCount},
	}
	l.Sections = append(l.Sections, s)
	b.RefreshRates()
	return s, nil
}

// RenameSection sets a section title
func (b *QuizBook) RenameSection(chapterID, sectionID, title string) error {
	title = strings.TrimSpace(title)
	if title == "" {
		return NewValidationError("title is required")
	}
	c := b.Chapter(chapterID)
	if c == nil {
		return NewNotFoundError("chapter", chapterID)
	}
	s := c.Section(sectionID)
	if s == nil {
		return NewNotFoundError("section", sectionID)
	}
	s.Title = title
	return nil
}

// DeleteSection removes a section with its answer records and renumbers its
// siblings. It reports whether anything was removed.
func (b *QuizBook) DeleteSection(chapterID, sectionID string) bool {
	c := b.Chapter(chapterID)
	if c == nil {
		return false
	}
	l := c.Sectioned()
	if l == nil {
		return false
	}
	kept := l.Sections[:0]
	removed := false
	for _, s := range l.Sections {
		if s.ID == sectionID {
			removed = true
			continue
		}
		kept = append(kept, s)
	}
	if !removed {
		return false
	}
	l.Sections = kept
	for i, s := range l.Sections {
		s.SectionNumber = i + 1
	}
	b.RefreshRates()
	return true
}

// AddQuestion appends one question to a flat chapter or section and returns the new count.
func (b *QuizBook) AddQuestion(chapterID, sectionID string) (int, error) {
	qs, err := b.Questions(chapterID, sectionID)
	if err != nil {
		return 0, err
	}
	qs.Count++
	b.RefreshRates()
	return qs.Count, nil
}

// DeleteQuestion removes question n, discarding its history and shifting the
// records of later questions down by one.
func (b *QuizBook) DeleteQuestion(ref QuestionRef) error {
	qs, err := b.question(ref)
	if err != nil {
		return err
	}
	if ref.SectionID != "" && qs.Count == 1 {
		return NewValidationError("a section must keep at least one question").
			WithContext("section_id", ref.SectionID)
	}
	kept := qs.Answers[:0]
	for _, a := range qs.Answers {
		switch {
		case a.QuestionNumber == ref.Number:
			continue
		case a.QuestionNumber > ref.Number:
			a.QuestionNumber--
		}
		kept = append(kept, a)
	}
	qs.Answers = kept
	qs.Count--
	b.RefreshRates()
	return nil
}

// SetQuestionCount resizes a question set. Shrinking below an answered question is rejected.
func (b *QuizBook) SetQuestionCount(chapterID, sectionID string, count int) error {
	if count < 1 {
		return NewValidationError("question count must be positive").
			WithContext("question_count", count)
	}
	qs, err := b.Questions(chapterID, sectionID)
	if err != nil {
		return err
	}
	for _, a := range qs.Answers {
		if a.QuestionNumber > count && (len(a.Attempts) > 0 || a.Memo != "") {
			return NewInvalidStateTransitionError("questions beyond the new count have answers").
				WithContext("question_number", a.QuestionNumber)
		}
	}
	kept := qs.Answers[:0]
	for _, a := range qs.Answers {
		if a.QuestionNumber <= count {
			kept = append(kept, a)
		}
	}
	qs.Answers = kept
	qs.Count = count
	b.RefreshRates()
	return nil
}

// CompleteRound advances the stored round counter.
func (b *QuizBook) CompleteRound() int {
	b.CurrentRound++
	return b.CurrentRound
}
