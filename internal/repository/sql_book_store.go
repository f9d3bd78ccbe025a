package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"quizbook/internal/domain"
	"quizbook/internal/logger"
	"quizbook/internal/repository/models"

	"github.com/jmoiron/sqlx"
	"go.uber.org/zap"
)

const (
	selectSnapshotQuery = `SELECT
		store_key "store_key",
		payload "payload",
		updated_at "updated_at"
	FROM quizbook_snapshots
	WHERE store_key = ?`
	deleteSnapshotQuery = `DELETE FROM quizbook_snapshots WHERE store_key = ?`
	insertSnapshotQuery = `INSERT INTO quizbook_snapshots (store_key, payload, updated_at) VALUES (?, ?, ?)`
)

// SQLBookStore keeps the collection blob as one row of quizbook_snapshots.
type SQLBookStore struct {
	db  *sqlx.DB
	tx  domain.TransactionManager
	key string
	now func() time.Time
}

// NewSQLBookStore creates a BookStore over db storing the blob under key.
func NewSQLBookStore(db *sqlx.DB, key string) domain.BookStore {
	return &SQLBookStore{
		db:  db,
		tx:  newTxManager(db),
		key: key,
		now: time.Now,
	}
}

// GetAll implements domain.BookStore
func (s *SQLBookStore) GetAll(ctx context.Context) ([]*domain.QuizBook, error) {
	var row models.Snapshot
	exec := executor(ctx, s.db)
	err := exec.GetContext(ctx, &row, exec.Rebind(selectSnapshotQuery), s.key)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return []*domain.QuizBook{}, nil
		}
		return nil, domain.NewStorageError("get_all", err)
	}
	books, err := DecodeBooks([]byte(row.Payload))
	if err != nil {
		return nil, domain.NewStorageError("get_all", err)
	}
	return books, nil
}

// PutAll implements domain.BookStore. The row is replaced inside one transaction.
func (s *SQLBookStore) PutAll(ctx context.Context, books []*domain.QuizBook) error {
	payload, err := EncodeBooks(books)
	if err != nil {
		return domain.NewStorageError("put_all", err)
	}
	err = s.tx.WithTransaction(ctx, func(txCtx context.Context) error {
		exec := executor(txCtx, s.db)
		if _, err := exec.ExecContext(txCtx, exec.Rebind(deleteSnapshotQuery), s.key); err != nil {
			return err
		}
		_, err := exec.ExecContext(txCtx, exec.Rebind(insertSnapshotQuery), s.key, string(payload), s.now().UTC())
		return err
	})
	if err != nil {
		return domain.NewStorageError("put_all", err)
	}
	logger.Get().Debug("stored quizbook snapshot",
		zap.String("store_key", s.key),
		zap.Int("books", len(books)),
		zap.Int("bytes", len(payload)))
	return nil
}

// Clear implements domain.BookStore
func (s *SQLBookStore) Clear(ctx context.Context) error {
	exec := executor(ctx, s.db)
	if _, err := exec.ExecContext(ctx, exec.Rebind(deleteSnapshotQuery), s.key); err != nil {
		return domain.NewStorageError("clear", err)
	}
	return nil
}
