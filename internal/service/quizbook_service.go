package service

import (
	"context"
	"errors"
	"sync"
	"time"

	"quizbook/internal/domain"
	"quizbook/internal/dto"
	"quizbook/internal/logger"
	"quizbook/internal/util"

	"go.uber.org/zap"
)

// QuizBookService is the only mutation surface of the quiz book collection.
type QuizBookService interface {
	ListBooks(ctx context.Context) ([]dto.QuizBookSummary, error)
	GetBook(ctx context.Context, bookID string) (*dto.QuizBookResponse, error)
	CreateBook(ctx context.Context, title, category string) (*dto.QuizBookResponse, error)
	UpdateBook(ctx context.Context, bookID string, req *dto.UpdateBookRequest) (*dto.QuizBookResponse, error)
	DeleteBook(ctx context.Context, bookID string) (bool, error)
	SetSectionMode(ctx context.Context, bookID string, mode domain.SectionMode) (*dto.QuizBookResponse, error)
	CompleteRound(ctx context.Context, bookID string) (int, error)

	AddChapter(ctx context.Context, bookID, title string) (*dto.ChapterResponse, error)
	RenameChapter(ctx context.Context, bookID, chapterID, title string) (*dto.ChapterResponse, error)
	DeleteChapter(ctx context.Context, bookID, chapterID string) (bool, error)
	AddSection(ctx context.Context, bookID, chapterID, title string, questionCount int) (*dto.SectionResponse, error)
	RenameSection(ctx context.Context, bookID, chapterID, sectionID, title string) (*dto.SectionResponse, error)
	DeleteSection(ctx context.Context, bookID, chapterID, sectionID string) (bool, error)

	ResolveScope(ctx context.Context, scopeID string) (*dto.ScopeResponse, error)
	AddQuestion(ctx context.Context, scopeID string) (int, error)
	DeleteQuestion(ctx context.Context, scopeID string, number int) (bool, error)
	SetQuestionCount(ctx context.Context, scopeID string, count int) (int, error)

	GetQuestionHistory(ctx context.Context, scopeID string, number int) (*dto.QuestionResponse, error)
	RecordAttempt(ctx context.Context, scopeID string, number int, result domain.Result) (*dto.QuestionResponse, error)
	ToggleLastResult(ctx context.Context, scopeID string, number int) (*dto.QuestionResponse, error)
	ToggleLock(ctx context.Context, scopeID string, number int) (*dto.QuestionResponse, error)
	DeleteLastAttempt(ctx context.Context, scopeID string, number int) (*dto.QuestionResponse, error)
	Advance(ctx context.Context, scopeID string, number int) (*dto.QuestionResponse, error)
	SetMemo(ctx context.Context, scopeID string, number int, memo string) (*dto.QuestionResponse, error)

	CategoryRollups(ctx context.Context) ([]dto.CategoryRollupResponse, error)
	CategoryRollup(ctx context.Context, category string) (*dto.CategoryRollupResponse, error)

	Export(ctx context.Context) ([]*domain.QuizBook, error)
	Import(ctx context.Context, books []*domain.QuizBook) error
	Clear(ctx context.Context) error

	// Close stops the mutation queue after the accepted mutations finish.
	Close()
}

// errUnchanged aborts a mutation without writing anything.
var errUnchanged = errors.New("unchanged")

const defaultQueueSize = 64

// Option configures a quizBookService
type Option func(*quizBookService)

// WithClock overrides the clock used for attempt and update timestamps.
func WithClock(now func() time.Time) Option {
	return func(s *quizBookService) { s.now = now }
}

// WithIDGenerator overrides the id generator for books, chapters and sections.
func WithIDGenerator(newID func() string) Option {
	return func(s *quizBookService) { s.newID = newID }
}

// quizBookService implements QuizBookService. Mutations run one at a time on
// the queue as read-modify-write against the store; readers see the last
// collection a mutation published.
type quizBookService struct {
	store domain.BookStore
	queue *mutationQueue
	now   func() time.Time
	newID func() string

	mu    sync.RWMutex
	books []*domain.QuizBook
	fresh bool
}

// NewQuizBookService creates a new instance of quizBookService
func NewQuizBookService(store domain.BookStore, opts ...Option) QuizBookService {
	s := &quizBookService{
		store: store,
		queue: newMutationQueue(defaultQueueSize),
		now:   func() time.Time { return time.Now().UTC() },
		newID: util.NewULID,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *quizBookService) Close() {
	s.queue.Close()
}

// snapshot returns the published collection, reloading it from the store
// when a failed write left it untrusted. Callers must not modify it.
func (s *quizBookService) snapshot(ctx context.Context) ([]*domain.QuizBook, error) {
	s.mu.RLock()
	if s.fresh {
		books := s.books
		s.mu.RUnlock()
		return books, nil
	}
	s.mu.RUnlock()

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.fresh {
		return s.books, nil
	}
	books, err := s.store.GetAll(ctx)
	if err != nil {
		logger.Get().Error("failed to load quiz books", zap.Error(err))
		return nil, err
	}
	s.books = books
	s.fresh = true
	return books, nil
}

func (s *quizBookService) publish(books []*domain.QuizBook) {
	s.mu.Lock()
	s.books = books
	s.fresh = true
	s.mu.Unlock()
}

func (s *quizBookService) markStale() {
	s.mu.Lock()
	s.fresh = false
	s.books = nil
	s.mu.Unlock()
}

// mutate runs fn on a freshly loaded collection inside the queue and persists
// the collection fn returns. A nil collection means nothing to write.
func (s *quizBookService) mutate(ctx context.Context, op string, fn func(books []*domain.QuizBook) ([]*domain.QuizBook, error)) error {
	return s.queue.Submit(ctx, func(ctx context.Context) error {
		books, err := s.store.GetAll(ctx)
		if err != nil {
			s.markStale()
			logger.Get().Error("failed to load quiz books", zap.String("operation", op), zap.Error(err))
			return err
		}
		next, err := fn(books)
		if err != nil {
			return err
		}
		if next == nil {
			return nil
		}
		if err := s.store.PutAll(ctx, next); err != nil {
			s.markStale()
			logger.Get().Error("failed to save quiz books", zap.String("operation", op), zap.Error(err))
			return err
		}
		s.publish(next)
		return nil
	})
}

// updateBook applies fn to one book, refreshes its derived rates and stamps it.
// fn returning errUnchanged skips the write and still returns the book.
func (s *quizBookService) updateBook(ctx context.Context, op, bookID string, fn func(b *domain.QuizBook) error) (*domain.QuizBook, error) {
	var updated *domain.QuizBook
	err := s.mutate(ctx, op, func(books []*domain.QuizBook) ([]*domain.QuizBook, error) {
		b := findBook(books, bookID)
		if b == nil {
			return nil, domain.NewNotFoundError("quiz book", bookID)
		}
		updated = b
		if err := fn(b); err != nil {
			if errors.Is(err, errUnchanged) {
				return nil, nil
			}
			return nil, err
		}
		b.RefreshRates()
		b.UpdatedAt = s.now()
		return books, nil
	})
	if err != nil {
		return nil, err
	}
	logger.Get().Debug("quiz book updated", zap.String("operation", op), zap.String("book_id", bookID))
	return updated, nil
}

// updateScope is updateBook addressed by a scope id instead of a book id.
func (s *quizBookService) updateScope(ctx context.Context, op, scopeID string, fn func(b *domain.QuizBook, sc bookScope) error) (bookScope, error) {
	var found bookScope
	err := s.mutate(ctx, op, func(books []*domain.QuizBook) ([]*domain.QuizBook, error) {
		sc, ok := findScope(books, scopeID)
		if !ok {
			return nil, domain.NewNotFoundError("scope", scopeID)
		}
		found = sc
		if err := fn(sc.book, sc); err != nil {
			if errors.Is(err, errUnchanged) {
				return nil, nil
			}
			return nil, err
		}
		sc.book.RefreshRates()
		sc.book.UpdatedAt = s.now()
		return books, nil
	})
	if err != nil {
		return bookScope{}, err
	}
	logger.Get().Debug("question scope updated",
		zap.String("operation", op),
		zap.String("book_id", found.book.ID),
		zap.String("scope_id", scopeID))
	return found, nil
}

// deleted turns a not-found failure of a delete into a logged no-op.
func deleted(op, id string, removed bool, err error) (bool, error) {
	if errors.Is(err, domain.ErrNotFound) {
		logger.Get().Warn("nothing to delete", zap.String("operation", op), zap.String("id", id), zap.Error(err))
		return false, nil
	}
	if err != nil {
		return false, err
	}
	if !removed {
		logger.Get().Warn("nothing to delete", zap.String("operation", op), zap.String("id", id))
	}
	return removed, nil
}

func findBook(books []*domain.QuizBook, bookID string) *domain.QuizBook {
	for _, b := range books {
		if b.ID == bookID {
			return b
		}
	}
	return nil
}

// bookScope is a flat chapter or a section located across all books.
type bookScope struct {
	book    *domain.QuizBook
	chapter *domain.Chapter
	section *domain.Section
}

func (sc bookScope) id() string {
	if sc.section != nil {
		return sc.section.ID
	}
	return sc.chapter.ID
}

func (sc bookScope) sectionID() string {
	if sc.section != nil {
		return sc.section.ID
	}
	return ""
}

func (sc bookScope) ref(number int) domain.QuestionRef {
	return domain.QuestionRef{ChapterID: sc.chapter.ID, SectionID: sc.sectionID(), Number: number}
}

func (sc bookScope) questions() (*domain.QuestionSet, error) {
	return sc.book.Questions(sc.chapter.ID, sc.sectionID())
}

// findScope resolves a scope id. A chapter id resolves to the chapter itself;
// questions() then reports whether it holds questions directly.
func findScope(books []*domain.QuizBook, scopeID string) (bookScope, bool) {
	for _, b := range books {
		for _, c := range b.Chapters {
			if c.ID == scopeID {
				return bookScope{book: b, chapter: c}, true
			}
			if s := c.Section(scopeID); s != nil {
				return bookScope{book: b, chapter: c, section: s}, true
			}
		}
	}
	return bookScope{}, false
}

func (s *quizBookService) ListBooks(ctx context.Context) ([]dto.QuizBookSummary, error) {
	books, err := s.snapshot(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]dto.QuizBookSummary, 0, len(books))
	for _, b := range books {
		out = append(out, toBookSummary(b))
	}
	return out, nil
}

func (s *quizBookService) GetBook(ctx context.Context, bookID string) (*dto.QuizBookResponse, error) {
	books, err := s.snapshot(ctx)
	if err != nil {
		return nil, err
	}
	b := findBook(books, bookID)
	if b == nil {
		return nil, domain.NewNotFoundError("quiz book", bookID)
	}
	return toBookResponse(b), nil
}

func (s *quizBookService) CreateBook(ctx context.Context, title, category string) (*dto.QuizBookResponse, error) {
	b := domain.NewQuizBook(s.newID(), title, category, s.now())
	err := s.mutate(ctx, "create_book", func(books []*domain.QuizBook) ([]*domain.QuizBook, error) {
		return append(books, b), nil
	})
	if err != nil {
		return nil, err
	}
	logger.Get().Info("quiz book created", zap.String("book_id", b.ID), zap.String("category", b.CategoryName()))
	return toBookResponse(b), nil
}

func (s *quizBookService) UpdateBook(ctx context.Context, bookID string, req *dto.UpdateBookRequest) (*dto.QuizBookResponse, error) {
	b, err := s.updateBook(ctx, "update_book", bookID, func(b *domain.QuizBook) error {
		if req.Title != nil {
			if err := b.Rename(*req.Title); err != nil {
				return err
			}
		}
		if req.Category != nil {
			b.SetCategory(*req.Category)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return toBookResponse(b), nil
}

func (s *quizBookService) DeleteBook(ctx context.Context, bookID string) (bool, error) {
	removed := false
	err := s.mutate(ctx, "delete_book", func(books []*domain.QuizBook) ([]*domain.QuizBook, error) {
		kept := make([]*domain.QuizBook, 0, len(books))
		for _, b := range books {
			if b.ID == bookID {
				removed = true
				continue
			}
			kept = append(kept, b)
		}
		if !removed {
			return nil, nil
		}
		return kept, nil
	})
	return deleted("delete_book", bookID, removed, err)
}

func (s *quizBookService) SetSectionMode(ctx context.Context, bookID string, mode domain.SectionMode) (*dto.QuizBookResponse, error) {
	if mode == domain.SectionModeUndecided {
		return nil, domain.NewValidationError("section mode must be flat or sectioned")
	}
	b, err := s.updateBook(ctx, "set_section_mode", bookID, func(b *domain.QuizBook) error {
		return b.SetSectionMode(mode)
	})
	if err != nil {
		return nil, err
	}
	return toBookResponse(b), nil
}

func (s *quizBookService) CompleteRound(ctx context.Context, bookID string) (int, error) {
	round := 0
	_, err := s.updateBook(ctx, "complete_round", bookID, func(b *domain.QuizBook) error {
		round = b.CompleteRound()
		return nil
	})
	if err != nil {
		return 0, err
	}
	return round, nil
}

func (s *quizBookService) AddChapter(ctx context.Context, bookID, title string) (*dto.ChapterResponse, error) {
	var c *domain.Chapter
	_, err := s.updateBook(ctx, "add_chapter", bookID, func(b *domain.QuizBook) error {
		c = b.AddChapter(s.newID(), title)
		return nil
	})
	if err != nil {
		return nil, err
	}
	resp := toChapterResponse(c)
	return &resp, nil
}

func (s *quizBookService) RenameChapter(ctx context.Context, bookID, chapterID, title string) (*dto.ChapterResponse, error) {
	b, err := s.updateBook(ctx, "rename_chapter", bookID, func(b *domain.QuizBook) error {
		return b.RenameChapter(chapterID, title)
	})
	if err != nil {
		return nil, err
	}
	resp := toChapterResponse(b.Chapter(chapterID))
	return &resp, nil
}

func (s *quizBookService) DeleteChapter(ctx context.Context, bookID, chapterID string) (bool, error) {
	removed := false
	_, err := s.updateBook(ctx, "delete_chapter", bookID, func(b *domain.QuizBook) error {
		if removed = b.DeleteChapter(chapterID); !removed {
			return errUnchanged
		}
		return nil
	})
	return deleted("delete_chapter", chapterID, removed, err)
}

func (s *quizBookService) AddSection(ctx context.Context, bookID, chapterID, title string, questionCount int) (*dto.SectionResponse, error) {
	var sec *domain.Section
	_, err := s.updateBook(ctx, "add_section", bookID, func(b *domain.QuizBook) error {
		var err error
		sec, err = b.AddSection(chapterID, s.newID(), title, questionCount)
		return err
	})
	if err != nil {
		return nil, err
	}
	resp := toSectionResponse(sec)
	return &resp, nil
}

func (s *quizBookService) RenameSection(ctx context.Context, bookID, chapterID, sectionID, title string) (*dto.SectionResponse, error) {
	b, err := s.updateBook(ctx, "rename_section", bookID, func(b *domain.QuizBook) error {
		return b.RenameSection(chapterID, sectionID, title)
	})
	if err != nil {
		return nil, err
	}
	resp := toSectionResponse(b.Chapter(chapterID).Section(sectionID))
	return &resp, nil
}

func (s *quizBookService) DeleteSection(ctx context.Context, bookID, chapterID, sectionID string) (bool, error) {
	removed := false
	_, err := s.updateBook(ctx, "delete_section", bookID, func(b *domain.QuizBook) error {
		if removed = b.DeleteSection(chapterID, sectionID); !removed {
			return errUnchanged
		}
		return nil
	})
	return deleted("delete_section", sectionID, removed, err)
}

func (s *quizBookService) ResolveScope(ctx context.Context, scopeID string) (*dto.ScopeResponse, error) {
	books, err := s.snapshot(ctx)
	if err != nil {
		return nil, err
	}
	sc, ok := findScope(books, scopeID)
	if !ok {
		return nil, domain.NewNotFoundError("scope", scopeID)
	}
	qs, err := sc.questions()
	if err != nil {
		return nil, err
	}
	return toScopeResponse(sc.book, sc, qs), nil
}

func (s *quizBookService) AddQuestion(ctx context.Context, scopeID string) (int, error) {
	count := 0
	_, err := s.updateScope(ctx, "add_question", scopeID, func(b *domain.QuizBook, sc bookScope) error {
		var err error
		count, err = b.AddQuestion(sc.chapter.ID, sc.sectionID())
		return err
	})
	if err != nil {
		return 0, err
	}
	return count, nil
}

func (s *quizBookService) DeleteQuestion(ctx context.Context, scopeID string, number int) (bool, error) {
	_, err := s.updateScope(ctx, "delete_question", scopeID, func(b *domain.QuizBook, sc bookScope) error {
		return b.DeleteQuestion(sc.ref(number))
	})
	return deleted("delete_question", scopeID, err == nil, err)
}

func (s *quizBookService) SetQuestionCount(ctx context.Context, scopeID string, count int) (int, error) {
	_, err := s.updateScope(ctx, "set_question_count", scopeID, func(b *domain.QuizBook, sc bookScope) error {
		return b.SetQuestionCount(sc.chapter.ID, sc.sectionID(), count)
	})
	if err != nil {
		return 0, err
	}
	return count, nil
}

func (s *quizBookService) GetQuestionHistory(ctx context.Context, scopeID string, number int) (*dto.QuestionResponse, error) {
	books, err := s.snapshot(ctx)
	if err != nil {
		return nil, err
	}
	sc, ok := findScope(books, scopeID)
	if !ok {
		return nil, domain.NewNotFoundError("scope", scopeID)
	}
	rec, err := sc.book.Answer(sc.ref(number))
	if err != nil {
		return nil, err
	}
	return toQuestionResponse(number, rec), nil
}

// answerOp runs one attempt-history operation on a question.
func (s *quizBookService) answerOp(ctx context.Context, op, scopeID string, number int, fn func(b *domain.QuizBook, ref domain.QuestionRef) (*domain.QuestionAnswerRecord, error)) (*dto.QuestionResponse, error) {
	var rec *domain.QuestionAnswerRecord
	_, err := s.updateScope(ctx, op, scopeID, func(b *domain.QuizBook, sc bookScope) error {
		var err error
		rec, err = fn(b, sc.ref(number))
		return err
	})
	if err != nil {
		return nil, err
	}
	logger.Get().Debug("question answer updated",
		zap.String("operation", op),
		zap.String("scope_id", scopeID),
		zap.Int("question_number", number))
	return toQuestionResponse(number, rec), nil
}

func (s *quizBookService) RecordAttempt(ctx context.Context, scopeID string, number int, result domain.Result) (*dto.QuestionResponse, error) {
	return s.answerOp(ctx, "record_attempt", scopeID, number, func(b *domain.QuizBook, ref domain.QuestionRef) (*domain.QuestionAnswerRecord, error) {
		return b.RecordAttempt(ref, result, s.now())
	})
}

func (s *quizBookService) ToggleLastResult(ctx context.Context, scopeID string, number int) (*dto.QuestionResponse, error) {
	return s.answerOp(ctx, "toggle_last_result", scopeID, number, func(b *domain.QuizBook, ref domain.QuestionRef) (*domain.QuestionAnswerRecord, error) {
		return b.ToggleLastResult(ref, s.now())
	})
}

func (s *quizBookService) ToggleLock(ctx context.Context, scopeID string, number int) (*dto.QuestionResponse, error) {
	return s.answerOp(ctx, "toggle_lock", scopeID, number, func(b *domain.QuizBook, ref domain.QuestionRef) (*domain.QuestionAnswerRecord, error) {
		return b.ToggleLock(ref)
	})
}

func (s *quizBookService) DeleteLastAttempt(ctx context.Context, scopeID string, number int) (*dto.QuestionResponse, error) {
	return s.answerOp(ctx, "delete_last_attempt", scopeID, number, func(b *domain.QuizBook, ref domain.QuestionRef) (*domain.QuestionAnswerRecord, error) {
		return b.DeleteLastAttempt(ref)
	})
}

func (s *quizBookService) Advance(ctx context.Context, scopeID string, number int) (*dto.QuestionResponse, error) {
	return s.answerOp(ctx, "advance", scopeID, number, func(b *domain.QuizBook, ref domain.QuestionRef) (*domain.QuestionAnswerRecord, error) {
		return b.Advance(ref, s.now())
	})
}

func (s *quizBookService) SetMemo(ctx context.Context, scopeID string, number int, memo string) (*dto.QuestionResponse, error) {
	return s.answerOp(ctx, "set_memo", scopeID, number, func(b *domain.QuizBook, ref domain.QuestionRef) (*domain.QuestionAnswerRecord, error) {
		return b.SetMemo(ref, memo)
	})
}

func (s *quizBookService) CategoryRollups(ctx context.Context) ([]dto.CategoryRollupResponse, error) {
	books, err := s.snapshot(ctx)
	if err != nil {
		return nil, err
	}
	rollups := domain.RollupCategories(books)
	out := make([]dto.CategoryRollupResponse, 0, len(rollups))
	for _, r := range rollups {
		out = append(out, toRollupResponse(r))
	}
	return out, nil
}

func (s *quizBookService) CategoryRollup(ctx context.Context, category string) (*dto.CategoryRollupResponse, error) {
	books, err := s.snapshot(ctx)
	if err != nil {
		return nil, err
	}
	for _, r := range domain.RollupCategories(books) {
		if r.Category == category {
			resp := toRollupResponse(r)
			return &resp, nil
		}
	}
	return nil, domain.NewNotFoundError("category", category)
}

// Export returns the stored collection as a copy the caller may keep.
func (s *quizBookService) Export(ctx context.Context) ([]*domain.QuizBook, error) {
	return s.store.GetAll(ctx)
}

// Import replaces the whole collection. Book ids must be present and unique.
func (s *quizBookService) Import(ctx context.Context, books []*domain.QuizBook) error {
	seen := make(map[string]struct{}, len(books))
	for _, b := range books {
		if b == nil || b.ID == "" {
			return domain.NewValidationError("imported book without id")
		}
		if _, dup := seen[b.ID]; dup {
			return domain.NewValidationError("duplicate book id").WithContext("book_id", b.ID)
		}
		seen[b.ID] = struct{}{}
		b.RefreshRates()
	}

	err := s.queue.Submit(ctx, func(ctx context.Context) error {
		if err := s.store.PutAll(ctx, books); err != nil {
			logger.Get().Error("failed to import quiz books", zap.Error(err))
			return err
		}
		// reload on next read so readers never share the caller's books
		s.markStale()
		return nil
	})
	if err != nil {
		s.markStale()
		return err
	}
	logger.Get().Info("quiz books imported", zap.Int("books", len(books)))
	return nil
}

// Clear removes the stored collection.
func (s *quizBookService) Clear(ctx context.Context) error {
	err := s.queue.Submit(ctx, func(ctx context.Context) error {
		if err := s.store.Clear(ctx); err != nil {
			s.markStale()
			logger.Get().Error("failed to clear quiz books", zap.Error(err))
			return err
		}
		s.publish([]*domain.QuizBook{})
		return nil
	})
	if err != nil {
		return err
	}
	logger.Get().Warn("quiz book collection cleared")
	return nil
}
