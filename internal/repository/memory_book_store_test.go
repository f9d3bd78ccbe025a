package repository

import (
	"context"
	"testing"

	"quizbook/internal/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryBookStore(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryBookStore()

	got, err := store.GetAll(ctx)
	require.NoError(t, err)
	assert.Empty(t, got)

	books := sampleBooks(t)
	require.NoError(t, store.PutAll(ctx, books))

	got, err = store.GetAll(ctx)
	require.NoError(t, err)
	assert.Equal(t, books, got)

	// stored state is isolated from the caller's pointers
	got[0].Chapters = nil
	books[1].Title = "mutated"
	again, err := store.GetAll(ctx)
	require.NoError(t, err)
	assert.Len(t, again[0].Chapters, 1)
	assert.Equal(t, "Security+", again[1].Title)

	require.NoError(t, store.Clear(ctx))
	got, err = store.GetAll(ctx)
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestMemoryBookStore_CanceledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	store := NewMemoryBookStore()

	_, err := store.GetAll(ctx)
	assert.ErrorIs(t, err, domain.ErrStorage)
	assert.ErrorIs(t, store.PutAll(ctx, nil), context.Canceled)
	assert.ErrorIs(t, store.Clear(ctx), domain.ErrStorage)
}

func TestMemoryBookStore_CorruptPayloadIsStorageError(t *testing.T) {
	store := NewMemoryBookStore()
	store.payload = []byte(`[{"title":"no id"}]`)

	_, err := store.GetAll(context.Background())
	assert.ErrorIs(t, err, domain.ErrStorage)
	assert.ErrorIs(t, err, ErrCorruptPayload)
}

func TestMemoryBookStore_MixedShapeBookDoesNotBlockOthers(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryBookStore()
	store.payload = []byte(`[
		{"id":"a","title":"clean","useSections":false,"chapters":[{"id":"c1","chapterNumber":1,"questionCount":2}]},
		{"id":"b","title":"flipped","useSections":true,"chapters":[
			{"id":"c2","chapterNumber":1,"questionCount":5,"sections":[{"id":"s1","sectionNumber":1,"questionCount":3}]}
		]}
	]`)

	books, err := store.GetAll(ctx)
	require.NoError(t, err)
	require.Len(t, books, 2)
	assert.Equal(t, 2, domain.ChapterTotalQuestions(books[0].Chapters[0]))

	books = append(books, domain.NewQuizBook("c", "new", "", codecNow))
	require.NoError(t, store.PutAll(ctx, books))

	again, err := store.GetAll(ctx)
	require.NoError(t, err)
	require.Len(t, again, 3)
	sections := again[1].Chapters[0].Sectioned().Sections
	require.Len(t, sections, 1)
	assert.Equal(t, "s1", sections[0].ID)
}
