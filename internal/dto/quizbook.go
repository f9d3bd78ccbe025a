package dto

import "time"

// CreateBookRequest represents a new quiz book
// @Description Request body for creating a quiz book
type CreateBookRequest struct {
	Title    string `json:"title"`
	Category string `json:"category"`
}

// UpdateBookRequest changes the title and/or category of a book. Omitted fields are left unchanged.
// @Description Request body for updating a quiz book
type UpdateBookRequest struct {
	Title    *string `json:"title,omitempty"`
	Category *string `json:"category,omitempty"`
}

// SetSectionModeRequest decides how chapters hold questions
// @Description mode is one of flat, sectioned
type SetSectionModeRequest struct {
	Mode string `json:"mode"`
}

// TitleRequest carries a chapter or section title
type TitleRequest struct {
	Title string `json:"title"`
}

// AddSectionRequest represents a new section of a sectioned chapter
type AddSectionRequest struct {
	Title         string `json:"title"`
	QuestionCount int    `json:"question_count"`
}

// SetQuestionCountRequest resizes a flat chapter or section
type SetQuestionCountRequest struct {
	Count int `json:"count"`
}

// RecordAttemptRequest records a result for a question
// @Description result is pass or fail (the symbols ○ and × are accepted too)
type RecordAttemptRequest struct {
	Result string `json:"result"`
}

// SetMemoRequest sets the free-text memo of a question
type SetMemoRequest struct {
	Memo string `json:"memo"`
}

// QuizBookSummary is the list view of a book
// @Description Quiz book with derived statistics
type QuizBookSummary struct {
	ID              string    `json:"id"`
	Title           string    `json:"title"`
	Category        string    `json:"category"`
	SectionMode     string    `json:"section_mode"`
	ChapterCount    int       `json:"chapter_count"`
	TotalQuestions  int       `json:"total_questions"`
	CorrectRate     int       `json:"correct_rate"`
	Band            string    `json:"band"`
	CurrentRound    int       `json:"current_round"`
	MaxAttemptRound int       `json:"max_attempt_round"`
	CreatedAt       time.Time `json:"created_at"`
	UpdatedAt       time.Time `json:"updated_at"`
}

// QuizBookResponse is a book with its chapters
type QuizBookResponse struct {
	QuizBookSummary
	Chapters []ChapterResponse `json:"chapters"`
}

// ChapterResponse describes one chapter. QuestionCount is set for flat chapters,
// Sections for sectioned ones; neither while the book's mode is undecided.
type ChapterResponse struct {
	ID             string            `json:"id"`
	ChapterNumber  int               `json:"chapter_number"`
	Title          string            `json:"title"`
	ChapterRate    int               `json:"chapter_rate"`
	Band           string            `json:"band"`
	TotalQuestions int               `json:"total_questions"`
	QuestionCount  *int              `json:"question_count,omitempty"`
	Sections       []SectionResponse `json:"sections,omitempty"`
}

type SectionResponse struct {
	ID            string `json:"id"`
	SectionNumber int    `json:"section_number"`
	Title         string `json:"title"`
	QuestionCount int    `json:"question_count"`
	Rate          int    `json:"rate"`
	Band          string `json:"band"`
}

// ScopeResponse is a flat chapter or a section with every question's history
// @Description Question scope resolved from an opaque scope id
type ScopeResponse struct {
	ScopeID       string             `json:"scope_id"`
	BookID        string             `json:"book_id"`
	BookTitle     string             `json:"book_title"`
	ChapterID     string             `json:"chapter_id"`
	ChapterNumber int                `json:"chapter_number"`
	ChapterTitle  string             `json:"chapter_title"`
	SectionID     string             `json:"section_id,omitempty"`
	SectionNumber int                `json:"section_number,omitempty"`
	SectionTitle  string             `json:"section_title,omitempty"`
	QuestionCount int                `json:"question_count"`
	Rate          int                `json:"rate"`
	Band          string             `json:"band"`
	Questions     []QuestionResponse `json:"questions"`
}

// QuestionResponse is one question's memo and attempt history.
// PendingRound is the round the next interaction records into.
type QuestionResponse struct {
	Number       int               `json:"number"`
	Memo         string            `json:"memo,omitempty"`
	Answered     bool              `json:"answered"`
	LastResult   string            `json:"last_result,omitempty"`
	Locked       bool              `json:"locked"`
	PendingRound int               `json:"pending_round"`
	Attempts     []AttemptResponse `json:"attempts"`
}

type AttemptResponse struct {
	Round      int       `json:"round"`
	Result     string    `json:"result"`
	Symbol     string    `json:"symbol"`
	Locked     bool      `json:"locked"`
	AnsweredAt time.Time `json:"answered_at"`
}

// BookRateResponse is a book reference inside a category rollup
type BookRateResponse struct {
	ID           string `json:"id"`
	Title        string `json:"title"`
	CorrectRate  int    `json:"correct_rate"`
	CurrentRound int    `json:"current_round"`
}

// CategoryRollupResponse aggregates the books of one category
// @Description Category rollup with strong (>= 80) and weak (< 60) books
type CategoryRollupResponse struct {
	Category    string             `json:"category"`
	AverageRate int                `json:"average_rate"`
	Band        string             `json:"band"`
	TotalRounds int                `json:"total_rounds"`
	Books       []BookRateResponse `json:"books"`
	StrongBooks []BookRateResponse `json:"strong_books"`
	WeakBooks   []BookRateResponse `json:"weak_books"`
}

// CountResponse reports a question count after a mutation
type CountResponse struct {
	Count int `json:"count"`
}

// DeleteResponse reports whether anything was removed
type DeleteResponse struct {
	Deleted bool `json:"deleted"`
}

// RoundResponse reports the stored round counter
type RoundResponse struct {
	CurrentRound int `json:"current_round"`
}
