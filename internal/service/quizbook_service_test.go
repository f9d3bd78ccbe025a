package service

import (
	"context"
	"errors"
	"fmt"
	"os"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"quizbook/internal/config"
	"quizbook/internal/domain"
	"quizbook/internal/dto"
	"quizbook/internal/logger"
	"quizbook/internal/repository"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

// TestMain initializes the logger for all tests in this package
func TestMain(m *testing.M) {
	if err := logger.Initialize(config.LoggerConfig{Level: "error", Env: "test"}); err != nil {
		panic("Failed to initialize logger for tests: " + err.Error())
	}
	exitVal := m.Run()
	_ = logger.Sync()
	os.Exit(exitVal)
}

var serviceNow = time.Date(2026, 10, 2, 8, 0, 0, 0, time.UTC)

func sequentialIDs() func() string {
	var n int64
	return func() string {
		return fmt.Sprintf("id-%d", atomic.AddInt64(&n, 1))
	}
}

func newTestService(t *testing.T, store domain.BookStore) QuizBookService {
	t.Helper()
	svc := NewQuizBookService(store,
		WithClock(func() time.Time { return serviceNow }),
		WithIDGenerator(sequentialIDs()))
	t.Cleanup(svc.Close)
	return svc
}

// newFlatScope creates a flat book with one chapter of n questions and
// returns the book id and the chapter id, which is the question scope.
func newFlatScope(t *testing.T, svc QuizBookService, category string, n int) (string, string) {
	t.Helper()
	ctx := context.Background()
	book, err := svc.CreateBook(ctx, "Book", category)
	require.NoError(t, err)
	_, err = svc.SetSectionMode(ctx, book.ID, domain.SectionModeFlat)
	require.NoError(t, err)
	chapter, err := svc.AddChapter(ctx, book.ID, "Chapter")
	require.NoError(t, err)
	_, err = svc.SetQuestionCount(ctx, chapter.ID, n)
	require.NoError(t, err)
	return book.ID, chapter.ID
}

// ratedBook builds a flat book of ten questions with the first passed ones answered.
func ratedBook(t *testing.T, id, category string, passed int) *domain.QuizBook {
	t.Helper()
	b := domain.NewQuizBook(id, id, category, serviceNow)
	require.NoError(t, b.SetSectionMode(domain.SectionModeFlat))
	b.AddChapter(id+"-ch", "")
	require.NoError(t, b.SetQuestionCount(id+"-ch", "", 10))
	for n := 1; n <= passed; n++ {
		_, err := b.RecordAttempt(domain.QuestionRef{ChapterID: id + "-ch", Number: n}, domain.ResultPass, serviceNow)
		require.NoError(t, err)
	}
	return b
}

func TestQuizBookService_ProgressScenario(t *testing.T) {
	ctx := context.Background()
	svc := newTestService(t, repository.NewMemoryBookStore())
	bookID, scope := newFlatScope(t, svc, "Networking", 3)

	book, err := svc.GetBook(ctx, bookID)
	require.NoError(t, err)
	assert.Equal(t, 0, book.CorrectRate)
	assert.Equal(t, 0, book.MaxAttemptRound)
	assert.Equal(t, 0, book.CurrentRound)
	assert.Equal(t, 3, book.TotalQuestions)

	// question 1 passed and locked, question 2 failed
	_, err = svc.RecordAttempt(ctx, scope, 1, domain.ResultPass)
	require.NoError(t, err)
	q1, err := svc.ToggleLock(ctx, scope, 1)
	require.NoError(t, err)
	assert.True(t, q1.Locked)
	assert.Equal(t, 2, q1.PendingRound)
	_, err = svc.RecordAttempt(ctx, scope, 2, domain.ResultFail)
	require.NoError(t, err)

	book, err = svc.GetBook(ctx, bookID)
	require.NoError(t, err)
	assert.Equal(t, 33, book.CorrectRate)
	assert.Equal(t, 1, book.MaxAttemptRound)

	// fail toggles back to unanswered
	q2, err := svc.ToggleLastResult(ctx, scope, 2)
	require.NoError(t, err)
	assert.Empty(t, q2.Attempts)
	assert.False(t, q2.Answered)
	book, err = svc.GetBook(ctx, bookID)
	require.NoError(t, err)
	assert.Equal(t, 33, book.CorrectRate)

	// deleting question 2 moves question 3's history down
	_, err = svc.RecordAttempt(ctx, scope, 3, domain.ResultFail)
	require.NoError(t, err)
	removed, err := svc.DeleteQuestion(ctx, scope, 2)
	require.NoError(t, err)
	assert.True(t, removed)

	view, err := svc.ResolveScope(ctx, scope)
	require.NoError(t, err)
	assert.Equal(t, bookID, view.BookID)
	assert.Equal(t, 2, view.QuestionCount)
	require.Len(t, view.Questions, 2)
	require.Len(t, view.Questions[1].Attempts, 1)
	assert.Equal(t, "fail", view.Questions[1].Attempts[0].Result)
	assert.Equal(t, domain.ResultFailSymbol, view.Questions[1].Attempts[0].Symbol)
	assert.Equal(t, 50, view.Rate)

	history, err := svc.GetQuestionHistory(ctx, scope, 1)
	require.NoError(t, err)
	assert.Equal(t, "pass", history.LastResult)
	assert.True(t, history.Locked)
}

func TestQuizBookService_AttemptCycle(t *testing.T) {
	ctx := context.Background()
	svc := newTestService(t, repository.NewMemoryBookStore())
	_, scope := newFlatScope(t, svc, "", 1)

	q, err := svc.Advance(ctx, scope, 1)
	require.NoError(t, err)
	assert.Equal(t, "pass", q.LastResult)

	q, err = svc.Advance(ctx, scope, 1)
	require.NoError(t, err)
	assert.Equal(t, "fail", q.LastResult)

	q, err = svc.Advance(ctx, scope, 1)
	require.NoError(t, err)
	assert.Empty(t, q.Attempts)

	q, err = svc.Advance(ctx, scope, 1)
	require.NoError(t, err)
	assert.Equal(t, "pass", q.LastResult)

	_, err = svc.ToggleLock(ctx, scope, 1)
	require.NoError(t, err)
	_, err = svc.DeleteLastAttempt(ctx, scope, 1)
	assert.ErrorIs(t, err, domain.ErrInvalidStateTransition)

	q, err = svc.Advance(ctx, scope, 1)
	require.NoError(t, err)
	require.Len(t, q.Attempts, 2)
	assert.Equal(t, 2, q.Attempts[1].Round)
	assert.True(t, q.Attempts[0].Locked)

	q, err = svc.DeleteLastAttempt(ctx, scope, 1)
	require.NoError(t, err)
	assert.Len(t, q.Attempts, 1)

	q, err = svc.SetMemo(ctx, scope, 1, "subnetting")
	require.NoError(t, err)
	assert.Equal(t, "subnetting", q.Memo)
}

func TestQuizBookService_AttemptErrors(t *testing.T) {
	ctx := context.Background()
	svc := newTestService(t, repository.NewMemoryBookStore())
	_, scope := newFlatScope(t, svc, "", 2)

	_, err := svc.ToggleLock(ctx, scope, 1)
	assert.ErrorIs(t, err, domain.ErrInvalidStateTransition)

	_, err = svc.ToggleLastResult(ctx, scope, 1)
	assert.ErrorIs(t, err, domain.ErrInvalidStateTransition)

	_, err = svc.RecordAttempt(ctx, scope, 3, domain.ResultPass)
	assert.ErrorIs(t, err, domain.ErrNotFound)

	_, err = svc.RecordAttempt(ctx, "missing-scope", 1, domain.ResultPass)
	assert.ErrorIs(t, err, domain.ErrNotFound)

	_, err = svc.GetQuestionHistory(ctx, "missing-scope", 1)
	assert.ErrorIs(t, err, domain.ErrNotFound)

	q, err := svc.GetQuestionHistory(ctx, scope, 2)
	require.NoError(t, err)
	assert.False(t, q.Answered)
	assert.Equal(t, 1, q.PendingRound)
}

func TestQuizBookService_Structure(t *testing.T) {
	ctx := context.Background()
	svc := newTestService(t, repository.NewMemoryBookStore())

	book, err := svc.CreateBook(ctx, "  Security+  ", "")
	require.NoError(t, err)
	assert.Equal(t, "Security+", book.Title)
	assert.Equal(t, domain.DefaultCategory, book.Category)
	assert.Equal(t, "undecided", book.SectionMode)

	chapter, err := svc.AddChapter(ctx, book.ID, "")
	require.NoError(t, err)
	assert.Equal(t, domain.UntitledChapter, chapter.Title)
	assert.Nil(t, chapter.QuestionCount)

	_, err = svc.ResolveScope(ctx, chapter.ID)
	assert.ErrorIs(t, err, domain.ErrInvalidStateTransition)

	_, err = svc.SetSectionMode(ctx, book.ID, domain.SectionModeUndecided)
	assert.ErrorIs(t, err, domain.ErrValidation)

	_, err = svc.SetSectionMode(ctx, book.ID, domain.SectionModeSectioned)
	require.NoError(t, err)

	malware, err := svc.AddSection(ctx, book.ID, chapter.ID, "Malware", 2)
	require.NoError(t, err)
	crypto, err := svc.AddSection(ctx, book.ID, chapter.ID, "Crypto", 4)
	require.NoError(t, err)
	assert.Equal(t, 2, crypto.SectionNumber)

	_, err = svc.ResolveScope(ctx, chapter.ID)
	assert.ErrorIs(t, err, domain.ErrValidation)

	_, err = svc.RecordAttempt(ctx, malware.ID, 1, domain.ResultPass)
	require.NoError(t, err)

	_, err = svc.SetSectionMode(ctx, book.ID, domain.SectionModeFlat)
	assert.ErrorIs(t, err, domain.ErrInvalidStateTransition)

	renamed, err := svc.RenameSection(ctx, book.ID, chapter.ID, crypto.ID, "Cryptography")
	require.NoError(t, err)
	assert.Equal(t, "Cryptography", renamed.Title)

	count, err := svc.AddQuestion(ctx, crypto.ID)
	require.NoError(t, err)
	assert.Equal(t, 5, count)

	removed, err := svc.DeleteSection(ctx, book.ID, chapter.ID, malware.ID)
	require.NoError(t, err)
	assert.True(t, removed)

	view, err := svc.ResolveScope(ctx, crypto.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, view.SectionNumber)
	assert.Equal(t, chapter.ID, view.ChapterID)

	got, err := svc.GetBook(ctx, book.ID)
	require.NoError(t, err)
	require.Len(t, got.Chapters, 1)
	assert.Equal(t, 5, got.Chapters[0].TotalQuestions)
	assert.Equal(t, 0, got.CorrectRate)

	ch, err := svc.RenameChapter(ctx, book.ID, chapter.ID, "Threats")
	require.NoError(t, err)
	assert.Equal(t, "Threats", ch.Title)

	_, err = svc.RenameChapter(ctx, book.ID, chapter.ID, " ")
	assert.ErrorIs(t, err, domain.ErrValidation)

	title := "Security+ SY0-701"
	category := "CompTIA"
	updated, err := svc.UpdateBook(ctx, book.ID, &dto.UpdateBookRequest{Title: &title, Category: &category})
	require.NoError(t, err)
	assert.Equal(t, title, updated.Title)
	assert.Equal(t, category, updated.Category)

	round, err := svc.CompleteRound(ctx, book.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, round)
}

func TestQuizBookService_ChapterNumbering(t *testing.T) {
	ctx := context.Background()
	svc := newTestService(t, repository.NewMemoryBookStore())
	book, err := svc.CreateBook(ctx, "AWS", "")
	require.NoError(t, err)

	var ids []string
	for i := 0; i < 4; i++ {
		c, err := svc.AddChapter(ctx, book.ID, "")
		require.NoError(t, err)
		ids = append(ids, c.ID)
	}
	removed, err := svc.DeleteChapter(ctx, book.ID, ids[1])
	require.NoError(t, err)
	assert.True(t, removed)

	got, err := svc.GetBook(ctx, book.ID)
	require.NoError(t, err)
	require.Len(t, got.Chapters, 3)
	for i, c := range got.Chapters {
		assert.Equal(t, i+1, c.ChapterNumber)
	}
	assert.Equal(t, ids[2], got.Chapters[1].ID)
}

func TestQuizBookService_DeleteMissingIsNoop(t *testing.T) {
	ctx := context.Background()
	store := repository.NewMemoryBookStore()
	svc := newTestService(t, store)
	bookID, scope := newFlatScope(t, svc, "", 2)

	tests := []struct {
		name string
		del  func() (bool, error)
	}{
		{"book", func() (bool, error) { return svc.DeleteBook(ctx, "missing") }},
		{"chapter of missing book", func() (bool, error) { return svc.DeleteChapter(ctx, "missing", "c") }},
		{"chapter", func() (bool, error) { return svc.DeleteChapter(ctx, bookID, "missing") }},
		{"section", func() (bool, error) { return svc.DeleteSection(ctx, bookID, scope, "missing") }},
		{"question out of range", func() (bool, error) { return svc.DeleteQuestion(ctx, scope, 9) }},
		{"question of missing scope", func() (bool, error) { return svc.DeleteQuestion(ctx, "missing", 1) }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			removed, err := tt.del()
			require.NoError(t, err)
			assert.False(t, removed)
		})
	}

	removed, err := svc.DeleteBook(ctx, bookID)
	require.NoError(t, err)
	assert.True(t, removed)
	books, err := store.GetAll(ctx)
	require.NoError(t, err)
	assert.Empty(t, books)
}

func TestQuizBookService_SetQuestionCount(t *testing.T) {
	ctx := context.Background()
	svc := newTestService(t, repository.NewMemoryBookStore())
	_, scope := newFlatScope(t, svc, "", 5)

	_, err := svc.SetMemo(ctx, scope, 4, "tricky")
	require.NoError(t, err)

	_, err = svc.SetQuestionCount(ctx, scope, 3)
	assert.ErrorIs(t, err, domain.ErrInvalidStateTransition)

	_, err = svc.SetQuestionCount(ctx, scope, 0)
	assert.ErrorIs(t, err, domain.ErrValidation)

	count, err := svc.SetQuestionCount(ctx, scope, 4)
	require.NoError(t, err)
	assert.Equal(t, 4, count)
}

func TestQuizBookService_CategoryRollups(t *testing.T) {
	ctx := context.Background()
	svc := newTestService(t, repository.NewMemoryBookStore())
	require.NoError(t, svc.Import(ctx, []*domain.QuizBook{
		ratedBook(t, "b-weak", "B", 5),
		ratedBook(t, "a-mid", "A", 7),
		ratedBook(t, "a-strong", "A", 9),
	}))

	rollups, err := svc.CategoryRollups(ctx)
	require.NoError(t, err)
	require.Len(t, rollups, 2)

	assert.Equal(t, "A", rollups[0].Category)
	assert.Equal(t, 80, rollups[0].AverageRate)
	require.Len(t, rollups[0].StrongBooks, 1)
	assert.Equal(t, "a-strong", rollups[0].StrongBooks[0].ID)
	assert.Empty(t, rollups[0].WeakBooks)

	assert.Equal(t, "B", rollups[1].Category)
	assert.Equal(t, 50, rollups[1].AverageRate)
	require.Len(t, rollups[1].WeakBooks, 1)
	assert.Equal(t, "b-weak", rollups[1].WeakBooks[0].ID)

	one, err := svc.CategoryRollup(ctx, "B")
	require.NoError(t, err)
	assert.Equal(t, 50, one.AverageRate)

	_, err = svc.CategoryRollup(ctx, "C")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestQuizBookService_ImportExportClear(t *testing.T) {
	ctx := context.Background()
	source := newTestService(t, repository.NewMemoryBookStore())
	_, scope := newFlatScope(t, source, "Cloud", 2)
	_, err := source.RecordAttempt(ctx, scope, 1, domain.ResultPass)
	require.NoError(t, err)

	exported, err := source.Export(ctx)
	require.NoError(t, err)
	require.Len(t, exported, 1)

	target := newTestService(t, repository.NewMemoryBookStore())
	require.NoError(t, target.Import(ctx, exported))
	books, err := target.ListBooks(ctx)
	require.NoError(t, err)
	require.Len(t, books, 1)
	assert.Equal(t, 50, books[0].CorrectRate)

	dup := []*domain.QuizBook{ratedBook(t, "x", "", 0), ratedBook(t, "x", "", 1)}
	assert.ErrorIs(t, target.Import(ctx, dup), domain.ErrValidation)

	require.NoError(t, target.Clear(ctx))
	books, err = target.ListBooks(ctx)
	require.NoError(t, err)
	assert.Empty(t, books)
}

func TestQuizBookService_StorageFailureResyncs(t *testing.T) {
	ctx := context.Background()
	store := new(MockBookStore)
	svc := newTestService(t, store)
	writeErr := domain.NewStorageError("put_all", errors.New("disk full"))

	store.On("GetAll", mock.Anything).Return([]*domain.QuizBook{ratedBook(t, "b1", "", 5)}, nil).Once()
	books, err := svc.ListBooks(ctx)
	require.NoError(t, err)
	require.Len(t, books, 1)

	// the mutation loads, applies and fails to write
	store.On("GetAll", mock.Anything).Return([]*domain.QuizBook{ratedBook(t, "b1", "", 5)}, nil).Once()
	store.On("PutAll", mock.Anything, mock.Anything).Return(writeErr).Once()
	_, err = svc.RecordAttempt(ctx, "b1-ch", 6, domain.ResultPass)
	assert.ErrorIs(t, err, domain.ErrStorage)

	// the next read goes back to the store instead of trusting memory
	store.On("GetAll", mock.Anything).Return([]*domain.QuizBook{ratedBook(t, "b1", "", 5)}, nil).Once()
	books, err = svc.ListBooks(ctx)
	require.NoError(t, err)
	assert.Equal(t, 50, books[0].CorrectRate)

	// and later reads are served from memory again
	_, err = svc.GetBook(ctx, "b1")
	require.NoError(t, err)
	store.AssertExpectations(t)
}

func TestQuizBookService_LoadFailure(t *testing.T) {
	ctx := context.Background()
	store := new(MockBookStore)
	svc := newTestService(t, store)
	loadErr := domain.NewStorageError("get_all", errors.New("connection refused"))

	store.On("GetAll", mock.Anything).Return(nil, loadErr)

	_, err := svc.ListBooks(ctx)
	assert.ErrorIs(t, err, domain.ErrStorage)
	_, err = svc.CreateBook(ctx, "x", "")
	assert.ErrorIs(t, err, domain.ErrStorage)
	store.AssertNotCalled(t, "PutAll", mock.Anything, mock.Anything)
}

func TestQuizBookService_ConcurrentMutationsKeepEveryUpdate(t *testing.T) {
	ctx := context.Background()
	svc := newTestService(t, repository.NewMemoryBookStore())
	const questions = 40
	bookID, scope := newFlatScope(t, svc, "", questions)

	var wg sync.WaitGroup
	errs := make(chan error, questions)
	for n := 1; n <= questions; n++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			_, err := svc.RecordAttempt(ctx, scope, n, domain.ResultPass)
			errs <- err
		}(n)
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		require.NoError(t, err)
	}

	book, err := svc.GetBook(ctx, bookID)
	require.NoError(t, err)
	assert.Equal(t, 100, book.CorrectRate)
}

func TestQuizBookService_CancelledAndClosed(t *testing.T) {
	store := repository.NewMemoryBookStore()
	svc := NewQuizBookService(store, WithIDGenerator(sequentialIDs()))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := svc.CreateBook(ctx, "x", "")
	assert.ErrorIs(t, err, context.Canceled)

	svc.Close()
	_, err = svc.CreateBook(context.Background(), "x", "")
	assert.ErrorIs(t, err, ErrQueueClosed)

	books, err := store.GetAll(context.Background())
	require.NoError(t, err)
	assert.Empty(t, books)
}
