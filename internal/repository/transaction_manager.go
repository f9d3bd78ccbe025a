package repository

import (
	"context"
	"fmt"

	"quizbook/internal/domain"
	"quizbook/internal/logger"

	"github.com/jmoiron/sqlx"
	"go.uber.org/zap"
)

type snapshotTxKey struct{}

// executor picks the snapshot transaction opened by txManager, falling back to db.
func executor(ctx context.Context, db DBTX) DBTX {
	if tx, ok := ctx.Value(snapshotTxKey{}).(*sqlx.Tx); ok {
		return tx
	}
	return db
}

// txManager scopes a snapshot replacement to one sqlx transaction.
type txManager struct {
	db *sqlx.DB
}

func newTxManager(db *sqlx.DB) domain.TransactionManager {
	return &txManager{db: db}
}

// WithTransaction commits when fn succeeds. An error or panic from fn rolls back.
func (m *txManager) WithTransaction(ctx context.Context, fn func(ctx context.Context) error) (err error) {
	tx, err := m.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin snapshot tx: %w", err)
	}

	committed := false
	defer func() {
		p := recover()
		if p == nil && (committed || err == nil) {
			return
		}
		if !committed {
			if rbErr := tx.Rollback(); rbErr != nil {
				logger.Get().Error("snapshot rollback failed", zap.Error(rbErr))
			}
		}
		if p != nil {
			panic(p)
		}
	}()

	if err = fn(context.WithValue(ctx, snapshotTxKey{}, tx)); err != nil {
		return err
	}
	committed = true
	if err = tx.Commit(); err != nil {
		return fmt.Errorf("commit snapshot tx: %w", err)
	}
	return nil
}
