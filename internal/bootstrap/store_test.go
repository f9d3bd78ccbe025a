package bootstrap

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"quizbook/internal/config"
	"quizbook/internal/domain"
	"quizbook/internal/repository"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOpenBookStore(t *testing.T) {
	t.Run("memory", func(t *testing.T) {
		cfg := &config.Config{Storage: config.StorageConfig{Driver: config.DriverMemory, Key: "k"}}
		store, closeFn, err := OpenBookStore(cfg)
		require.NoError(t, err)
		defer closeFn()
		assert.IsType(t, &repository.MemoryBookStore{}, store)
	})

	t.Run("sqlite is migrated and usable", func(t *testing.T) {
		dsn := filepath.Join(t.TempDir(), "books.db")
		cfg := &config.Config{Storage: config.StorageConfig{Driver: config.DriverSQLite, DSN: dsn, Key: "k"}}
		store, closeFn, err := OpenBookStore(cfg)
		require.NoError(t, err)
		defer closeFn()

		ctx := context.Background()
		book := domain.NewQuizBook("b1", "AWS", "", time.Date(2026, 10, 3, 0, 0, 0, 0, time.UTC))
		require.NoError(t, store.PutAll(ctx, []*domain.QuizBook{book}))
		got, err := store.GetAll(ctx)
		require.NoError(t, err)
		require.Len(t, got, 1)
		assert.Equal(t, "AWS", got[0].Title)
	})

	t.Run("unsupported driver", func(t *testing.T) {
		cfg := &config.Config{Storage: config.StorageConfig{Driver: "mongo", Key: "k"}}
		_, _, err := OpenBookStore(cfg)
		assert.Error(t, err)
	})
}
