package service

import (
	"quizbook/internal/domain"
	"quizbook/internal/dto"
)

func toBookSummary(b *domain.QuizBook) dto.QuizBookSummary {
	return dto.QuizBookSummary{
		ID:              b.ID,
		Title:           b.Title,
		Category:        b.CategoryName(),
		SectionMode:     b.SectionMode.String(),
		ChapterCount:    len(b.Chapters),
		TotalQuestions:  domain.BookTotalQuestions(b),
		CorrectRate:     b.CorrectRate,
		Band:            string(domain.BandFor(b.CorrectRate)),
		CurrentRound:    b.CurrentRound,
		MaxAttemptRound: domain.MaxAttemptRound(b),
		CreatedAt:       b.CreatedAt,
		UpdatedAt:       b.UpdatedAt,
	}
}

func toBookResponse(b *domain.QuizBook) *dto.QuizBookResponse {
	resp := &dto.QuizBookResponse{
		QuizBookSummary: toBookSummary(b),
		Chapters:        make([]dto.ChapterResponse, 0, len(b.Chapters)),
	}
	for _, c := range b.Chapters {
		resp.Chapters = append(resp.Chapters, toChapterResponse(c))
	}
	return resp
}

func toChapterResponse(c *domain.Chapter) dto.ChapterResponse {
	resp := dto.ChapterResponse{
		ID:             c.ID,
		ChapterNumber:  c.ChapterNumber,
		Title:          c.Title,
		ChapterRate:    c.ChapterRate,
		Band:           string(domain.BandFor(c.ChapterRate)),
		TotalQuestions: domain.ChapterTotalQuestions(c),
	}
	switch l := c.Layout.(type) {
	case *domain.FlatLayout:
		count := l.Questions.Count
		resp.QuestionCount = &count
	case *domain.SectionedLayout:
		resp.Sections = make([]dto.SectionResponse, 0, len(l.Sections))
		for _, s := range l.Sections {
			resp.Sections = append(resp.Sections, toSectionResponse(s))
		}
	}
	return resp
}

func toSectionResponse(s *domain.Section) dto.SectionResponse {
	rate := domain.QuestionSetRate(&s.Questions)
	return dto.SectionResponse{
		ID:            s.ID,
		SectionNumber: s.SectionNumber,
		Title:         s.Title,
		QuestionCount: s.Questions.Count,
		Rate:          rate,
		Band:          string(domain.BandFor(rate)),
	}
}

func toQuestionResponse(number int, rec *domain.QuestionAnswerRecord) *dto.QuestionResponse {
	resp := &dto.QuestionResponse{
		Number:       number,
		PendingRound: 1,
		Attempts:     []dto.AttemptResponse{},
	}
	if rec == nil {
		return resp
	}
	resp.Memo = rec.Memo
	resp.Answered = rec.Answered()
	resp.PendingRound = rec.PendingRound()
	for _, a := range rec.Attempts {
		resp.Attempts = append(resp.Attempts, dto.AttemptResponse{
			Round:      a.Round,
			Result:     a.Result.String(),
			Symbol:     a.Result.Symbol(),
			Locked:     a.Locked,
			AnsweredAt: a.AnsweredAt,
		})
	}
	if last := rec.Last(); last != nil {
		resp.LastResult = last.Result.String()
		resp.Locked = last.Locked
	}
	return resp
}

func toScopeResponse(b *domain.QuizBook, sc bookScope, qs *domain.QuestionSet) *dto.ScopeResponse {
	rate := domain.QuestionSetRate(qs)
	resp := &dto.ScopeResponse{
		ScopeID:       sc.id(),
		BookID:        b.ID,
		BookTitle:     b.Title,
		ChapterID:     sc.chapter.ID,
		ChapterNumber: sc.chapter.ChapterNumber,
		ChapterTitle:  sc.chapter.Title,
		QuestionCount: qs.Count,
		Rate:          rate,
		Band:          string(domain.BandFor(rate)),
		Questions:     make([]dto.QuestionResponse, 0, qs.Count),
	}
	if sc.section != nil {
		resp.SectionID = sc.section.ID
		resp.SectionNumber = sc.section.SectionNumber
		resp.SectionTitle = sc.section.Title
	}
	for n := 1; n <= qs.Count; n++ {
		resp.Questions = append(resp.Questions, *toQuestionResponse(n, qs.Answer(n)))
	}
	return resp
}

func toBookRates(books []*domain.QuizBook) []dto.BookRateResponse {
	out := make([]dto.BookRateResponse, 0, len(books))
	for _, b := range books {
		out = append(out, dto.BookRateResponse{
			ID:           b.ID,
			Title:        b.Title,
			CorrectRate:  b.CorrectRate,
			CurrentRound: b.CurrentRound,
		})
	}
	return out
}

func toRollupResponse(r *domain.CategoryRollup) dto.CategoryRollupResponse {
	return dto.CategoryRollupResponse{
		Category:    r.Category,
		AverageRate: r.AverageRate,
		Band:        string(domain.BandFor(r.AverageRate)),
		TotalRounds: r.TotalRounds,
		Books:       toBookRates(r.Books),
		StrongBooks: toBookRates(r.StrongBooks),
		WeakBooks:   toBookRates(r.WeakBooks),
	}
}
