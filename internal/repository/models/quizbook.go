package models

import "time"

// QuizBook is the persisted JSON shape of a book inside the collection blob.
// UseSections is nil while the section mode is undecided.
type QuizBook struct {
	ID           string    `json:"id"`
	Title        string    `json:"title"`
	Category     string    `json:"category,omitempty"`
	UseSections  *bool     `json:"useSections,omitempty"`
	ChapterCount int       `json:"chapterCount"`
	Chapters     []Chapter `json:"chapters"`
	CurrentRound int       `json:"currentRound"`
	CorrectRate  int       `json:"correctRate"`
	// CurrentRate is the legacy name of CorrectRate, read but never written.
	CurrentRate *int      `json:"currentRate,omitempty"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

type Chapter struct {
	ID              string           `json:"id"`
	Title           string           `json:"title"`
	ChapterNumber   int              `json:"chapterNumber"`
	ChapterRate     int              `json:"chapterRate"`
	QuestionCount   *int             `json:"questionCount,omitempty"`
	Sections        []Section        `json:"sections,omitempty"`
	QuestionAnswers []QuestionAnswer `json:"questionAnswers,omitempty"`
}

type Section struct {
	ID              string           `json:"id"`
	Title           string           `json:"title"`
	SectionNumber   int              `json:"sectionNumber"`
	QuestionCount   int              `json:"questionCount"`
	QuestionAnswers []QuestionAnswer `json:"questionAnswers,omitempty"`
}

type QuestionAnswer struct {
	QuestionNumber int       `json:"questionNumber"`
	Memo           string    `json:"memo,omitempty"`
	Attempts       []Attempt `json:"attempts"`
}

// Attempt stores the result as "○" or "×".
type Attempt struct {
	Round            int       `json:"round"`
	Result           string    `json:"result"`
	ResultConfirmFlg bool      `json:"resultConfirmFlg"`
	AnsweredAt       time.Time `json:"answeredAt"`
}
