package repository

import (
	"encoding/json"
	"errors"
	"fmt"
	"sort"

	"quizbook/internal/domain"
	"quizbook/internal/logger"
	"quizbook/internal/repository/models"

	"go.uber.org/zap"
)

// ErrCorruptPayload is returned when a stored collection cannot be decoded.
var ErrCorruptPayload = errors.New("corrupt quizbook payload")

// EncodeBooks serializes the collection to the persisted JSON array.
func EncodeBooks(books []*domain.QuizBook) ([]byte, error) {
	out := make([]models.QuizBook, 0, len(books))
	for _, b := range books {
		out = append(out, toModelBook(b))
	}
	data, err := json.Marshal(out)
	if err != nil {
		return nil, fmt.Errorf("failed to encode books: %w", err)
	}
	return data, nil
}

// DecodeBooks parses the persisted JSON array. An empty payload is an empty collection.
func DecodeBooks(data []byte) ([]*domain.QuizBook, error) {
	if len(data) == 0 || string(data) == "null" {
		return []*domain.QuizBook{}, nil
	}
	var in []models.QuizBook
	if err := json.Unmarshal(data, &in); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCorruptPayload, err)
	}
	books := make([]*domain.QuizBook, 0, len(in))
	for i := range in {
		b, err := toDomainBook(&in[i])
		if err != nil {
			return nil, err
		}
		books = append(books, b)
	}
	return books, nil
}

func toModelBook(b *domain.QuizBook) models.QuizBook {
	m := models.QuizBook{
		ID:           b.ID,
		Title:        b.Title,
		Category:     b.Category,
		ChapterCount: len(b.Chapters),
		Chapters:     make([]models.Chapter, 0, len(b.Chapters)),
		CurrentRound: b.CurrentRound,
		CorrectRate:  b.CorrectRate,
		CreatedAt:    b.CreatedAt,
		UpdatedAt:    b.UpdatedAt,
	}
	switch b.SectionMode {
	case domain.SectionModeFlat:
		f := false
		m.UseSections = &f
	case domain.SectionModeSectioned:
		t := true
		m.UseSections = &t
	}
	for _, c := range b.Chapters {
		m.Chapters = append(m.Chapters, toModelChapter(c))
	}
	return m
}

func toModelChapter(c *domain.Chapter) models.Chapter {
	m := models.Chapter{
		ID:            c.ID,
		Title:         c.Title,
		ChapterNumber: c.ChapterNumber,
		ChapterRate:   c.ChapterRate,
	}
	switch l := c.Layout.(type) {
	case *domain.FlatLayout:
		count := l.Questions.Count
		m.QuestionCount = &count
		m.QuestionAnswers = toModelAnswers(l.Questions.Answers)
	case *domain.SectionedLayout:
		m.Sections = make([]models.Section, 0, len(l.Sections))
		for _, s := range l.Sections {
			m.Sections = append(m.Sections, models.Section{
				ID:              s.ID,
				Title:           s.Title,
				SectionNumber:   s.SectionNumber,
				QuestionCount:   s.Questions.Count,
				QuestionAnswers: toModelAnswers(s.Questions.Answers),
			})
		}
	}
	return m
}

func toModelAnswers(records []*domain.QuestionAnswerRecord) []models.QuestionAnswer {
	if len(records) == 0 {
		return nil
	}
	out := make([]models.QuestionAnswer, 0, len(records))
	for _, r := range records {
		qa := models.QuestionAnswer{
			QuestionNumber: r.QuestionNumber,
			Memo:           r.Memo,
			Attempts:       make([]models.Attempt, 0, len(r.Attempts)),
		}
		for _, a := range r.Attempts {
			qa.Attempts = append(qa.Attempts, models.Attempt{
				Round:            a.Round,
				Result:           a.Result.Symbol(),
				ResultConfirmFlg: a.Locked,
				AnsweredAt:       a.AnsweredAt,
			})
		}
		out = append(out, qa)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].QuestionNumber < out[j].QuestionNumber })
	return out
}

// sectionModeOf resolves the book mode. Chapters holding sections win over
// the stored flag, since the flag could be flipped after chapters existed.
// Records written before the flag existed infer it from the chapter shapes.
func sectionModeOf(m *models.QuizBook) domain.SectionMode {
	for _, c := range m.Chapters {
		if len(c.Sections) > 0 {
			return domain.SectionModeSectioned
		}
	}
	if m.UseSections != nil {
		if *m.UseSections {
			return domain.SectionModeSectioned
		}
		return domain.SectionModeFlat
	}
	for _, c := range m.Chapters {
		if hasFlatQuestions(&c) {
			return domain.SectionModeFlat
		}
	}
	return domain.SectionModeUndecided
}

func hasFlatQuestions(c *models.Chapter) bool {
	return (c.QuestionCount != nil && *c.QuestionCount > 0) || len(c.QuestionAnswers) > 0
}

func toDomainBook(m *models.QuizBook) (*domain.QuizBook, error) {
	b := &domain.QuizBook{
		ID:           m.ID,
		Title:        m.Title,
		Category:     m.Category,
		SectionMode:  sectionModeOf(m),
		Chapters:     make([]*domain.Chapter, 0, len(m.Chapters)),
		CurrentRound: m.CurrentRound,
		CorrectRate:  m.CorrectRate,
		CreatedAt:    m.CreatedAt,
		UpdatedAt:    m.UpdatedAt,
	}
	if b.ID == "" {
		return nil, fmt.Errorf("%w: book without id", ErrCorruptPayload)
	}
	if m.CorrectRate == 0 && m.CurrentRate != nil {
		b.CorrectRate = *m.CurrentRate
	}

	chapters := append([]models.Chapter(nil), m.Chapters...)
	sort.SliceStable(chapters, func(i, j int) bool { return chapters[i].ChapterNumber < chapters[j].ChapterNumber })
	for i := range chapters {
		c, err := toDomainChapter(b, &chapters[i])
		if err != nil {
			return nil, err
		}
		c.ChapterNumber = i + 1
		b.Chapters = append(b.Chapters, c)
	}
	return b, nil
}

func toDomainChapter(b *domain.QuizBook, m *models.Chapter) (*domain.Chapter, error) {
	c := &domain.Chapter{
		ID:          m.ID,
		Title:       m.Title,
		ChapterRate: m.ChapterRate,
	}
	corrupt := func(reason string) error {
		return fmt.Errorf("%w: book %s chapter %s %s", ErrCorruptPayload, b.ID, m.ID, reason)
	}
	flat, err := flatQuestionsOf(m)
	if err != nil {
		return nil, corrupt(err.Error())
	}

	switch b.SectionMode {
	case domain.SectionModeFlat:
		c.Layout = &domain.FlatLayout{Questions: flat}
	case domain.SectionModeSectioned:
		sections := append([]models.Section(nil), m.Sections...)
		sort.SliceStable(sections, func(i, j int) bool { return sections[i].SectionNumber < sections[j].SectionNumber })
		l := &domain.SectionedLayout{Sections: make([]*domain.Section, 0, len(sections)+1)}
		for _, s := range sections {
			answers, err := toDomainAnswers(s.QuestionAnswers)
			if err != nil {
				return nil, corrupt(err.Error())
			}
			l.Sections = append(l.Sections, &domain.Section{
				ID:        s.ID,
				Title:     s.Title,
				Questions: domain.QuestionSet{Count: s.QuestionCount, Answers: answers},
			})
		}
		// Flat questions left in a sectioned chapter become a trailing section
		// when they carry answers or are all the chapter has. A bare count
		// next to real sections is stale and dropped.
		if hasFlatQuestions(m) {
			if len(sections) == 0 || holdsAnswers(flat) {
				l.Sections = append(l.Sections, flatSection(m, flat))
			} else {
				logger.Get().Warn("dropping stale question count of sectioned chapter",
					zap.String("book_id", b.ID),
					zap.String("chapter_id", m.ID),
					zap.Int("question_count", flat.Count))
			}
		}
		for i, sec := range l.Sections {
			sec.SectionNumber = i + 1
		}
		c.Layout = l
	}
	return c, nil
}

// flatQuestionsOf reads a chapter's flat questions, widening the count to
// cover every stored answer.
func flatQuestionsOf(m *models.Chapter) (domain.QuestionSet, error) {
	answers, err := toDomainAnswers(m.QuestionAnswers)
	if err != nil {
		return domain.QuestionSet{}, err
	}
	qs := domain.QuestionSet{Answers: answers}
	if m.QuestionCount != nil {
		qs.Count = *m.QuestionCount
	}
	for _, a := range answers {
		if a.QuestionNumber > qs.Count {
			qs.Count = a.QuestionNumber
		}
	}
	return qs, nil
}

func holdsAnswers(qs domain.QuestionSet) bool {
	for _, a := range qs.Answers {
		if len(a.Attempts) > 0 || a.Memo != "" {
			return true
		}
	}
	return false
}

func flatSection(m *models.Chapter, qs domain.QuestionSet) *domain.Section {
	title := m.Title
	if title == "" {
		title = domain.UntitledSection
	}
	if qs.Count < 1 {
		qs.Count = 1
	}
	return &domain.Section{ID: m.ID + "-flat", Title: title, Questions: qs}
}

func toDomainAnswers(in []models.QuestionAnswer) ([]*domain.QuestionAnswerRecord, error) {
	if len(in) == 0 {
		return nil, nil
	}
	out := make([]*domain.QuestionAnswerRecord, 0, len(in))
	for _, qa := range in {
		r := &domain.QuestionAnswerRecord{
			QuestionNumber: qa.QuestionNumber,
			Memo:           qa.Memo,
			Attempts:       make([]domain.Attempt, 0, len(qa.Attempts)),
		}
		last := len(qa.Attempts) - 1
		for i, a := range qa.Attempts {
			result, ok := domain.ParseResult(a.Result)
			if !ok {
				return nil, fmt.Errorf("question %d has unknown result %q", qa.QuestionNumber, a.Result)
			}
			// only the newest attempt may still be open
			r.Attempts = append(r.Attempts, domain.Attempt{
				Round:      i + 1,
				Result:     result,
				Locked:     a.ResultConfirmFlg || i < last,
				AnsweredAt: a.AnsweredAt,
			})
		}
		out = append(out, r)
	}
	return out, nil
}
