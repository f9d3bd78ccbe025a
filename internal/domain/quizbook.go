package domain

import (
	"strings"
	"time"
)

const (
	// DefaultCategory is the rollup bucket for books without a category
	DefaultCategory = "uncategorized"

	UntitledChapter = "Untitled chapter"
	UntitledSection = "Untitled section"
)

// SectionMode decides whether a book's chapters hold questions directly or through sections
type SectionMode int

const (
	// SectionModeUndecided means the user is asked on first chapter open
	SectionModeUndecided SectionMode = iota
	SectionModeFlat
	SectionModeSectioned
)

func (m SectionMode) String() string {
	switch m {
	case SectionModeFlat:
		return "flat"
	case SectionModeSectioned:
		return "sectioned"
	default:
		return "undecided"
	}
}

// ParseSectionMode converts the API representation to a SectionMode
func ParseSectionMode(s string) (SectionMode, bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "flat":
		return SectionModeFlat, true
	case "sectioned":
		return SectionModeSectioned, true
	case "undecided", "":
		return SectionModeUndecided, true
	default:
		return SectionModeUndecided, false
	}
}

// QuizBook is a study material tracked as chapters of questions
type QuizBook struct {
	ID          string
	Title       string
	Category    string
	SectionMode SectionMode
	Chapters    []*Chapter
	// CurrentRound is advanced explicitly by the user. It is advisory and
	// not guaranteed to match MaxAttemptRound.
	CurrentRound int
	// CorrectRate is refreshed after every mutation, 0-100.
	CorrectRate int
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// NewQuizBook creates an empty book. An empty title is allowed until the user edits it.
func NewQuizBook(id, title, category string, now time.Time) *QuizBook {
	return &QuizBook{
		ID:        id,
		Title:     strings.TrimSpace(title),
		Category:  strings.TrimSpace(category),
		Chapters:  []*Chapter{},
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// CategoryName returns the rollup bucket the book belongs to
func (b *QuizBook) CategoryName() string {
	if b.Category == "" {
		return DefaultCategory
	}
	return b.Category
}

// Chapter returns the chapter with the given id, or nil
func (b *QuizBook) Chapter(chapterID string) *Chapter {
	for _, c := range b.Chapters {
		if c.ID == chapterID {
			return c
		}
	}
	return nil
}

// Chapter is a numbered part of a book
type Chapter struct {
	ID            string
	ChapterNumber int
	Title         string
	ChapterRate   int
	// Layout is nil while the book's section mode is undecided.
	Layout ChapterLayout
}

// Flat returns the chapter's flat layout, or nil if it is not flat
func (c *Chapter) Flat() *FlatLayout {
	if l, ok := c.Layout.(*FlatLayout); ok {
		return l
	}
	return nil
}

// Sectioned returns the chapter's sectioned layout, or nil if it is not sectioned
func (c *Chapter) Sectioned() *SectionedLayout {
	if l, ok := c.Layout.(*SectionedLayout); ok {
		return l
	}
	return nil
}

// Section returns the section with the given id, or nil
func (c *Chapter) Section(sectionID string) *Section {
	if l := c.Sectioned(); l != nil {
		for _, s := range l.Sections {
			if s.ID == sectionID {
				return s
			}
		}
	}
	return nil
}

// ChapterLayout is either *FlatLayout or *SectionedLayout.
type ChapterLayout interface {
	isChapterLayout()
	empty() bool
}

// FlatLayout holds questions directly on the chapter
type FlatLayout struct {
	Questions QuestionSet
}

func (*FlatLayout) isChapterLayout() {}

func (l *FlatLayout) empty() bool {
	return l.Questions.Count == 0 && len(l.Questions.Answers) == 0
}

// SectionedLayout splits the chapter into numbered sections
type SectionedLayout struct {
	Sections []*Section
}

func (*SectionedLayout) isChapterLayout() {}

func (l *SectionedLayout) empty() bool {
	return len(l.Sections) == 0
}

// Section is a numbered part of a sectioned chapter
type Section struct {
	ID            string
	SectionNumber int
	Title         string
	Questions     QuestionSet
}

// QuestionSet is the numbered question range owned by a flat chapter or a section
type QuestionSet struct {
	Count   int
	Answers []*QuestionAnswerRecord
}

// Answer returns the record for question number n, or nil if it was never touched
func (qs *QuestionSet) Answer(n int) *QuestionAnswerRecord {
	for _, a := range qs.Answers {
		if a.QuestionNumber == n {
			return a
		}
	}
	return nil
}

func (qs *QuestionSet) ensureAnswer(n int) *QuestionAnswerRecord {
	if a := qs.Answer(n); a != nil {
		return a
	}
	a := &QuestionAnswerRecord{QuestionNumber: n, Attempts: []Attempt{}}
	qs.Answers = append(qs.Answers, a)
	return a
}

// QuestionRef addresses one question. SectionID is empty for flat chapters.
type QuestionRef struct {
	ChapterID string
	SectionID string
	Number    int
}

// Result is the binary outcome of an attempt
type Result int

const (
	ResultPass Result = iota + 1
	ResultFail
)

// Persisted symbols for results
const (
	ResultPassSymbol = "○"
	ResultFailSymbol = "×"
)

func (r Result) String() string {
	switch r {
	case ResultPass:
		return "pass"
	case ResultFail:
		return "fail"
	default:
		return "unknown"
	}
}

// Symbol returns the persisted representation
func (r Result) Symbol() string {
	if r == ResultPass {
		return ResultPassSymbol
	}
	return ResultFailSymbol
}

// ParseResult accepts "pass"/"fail" as well as the persisted symbols
func ParseResult(s string) (Result, bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "pass", ResultPassSymbol, "o":
		return ResultPass, true
	case "fail", ResultFailSymbol, "x":
		return ResultFail, true
	default:
		return 0, false
	}
}

// Attempt is one round of answering a question
type Attempt struct {
	Round  int
	Result Result
	// Locked mirrors resultConfirmFlg: the user confirmed the result and the
	// next interaction starts a new round.
	Locked     bool
	AnsweredAt time.Time
}

// QuestionAnswerRecord is the memo and attempt history for one question.
// Attempts read left to right are rounds 1..N; only the last may be unlocked.
type QuestionAnswerRecord struct {
	QuestionNumber int
	Memo           string
	Attempts       []Attempt
}

// Last returns the newest attempt, or nil
func (r *QuestionAnswerRecord) Last() *Attempt {
	if r == nil || len(r.Attempts) == 0 {
		return nil
	}
	return &r.Attempts[len(r.Attempts)-1]
}

// Answered reports whether the question has at least one attempt
func (r *QuestionAnswerRecord) Answered() bool {
	return r != nil && len(r.Attempts) > 0
}
