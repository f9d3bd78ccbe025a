package database

import (
	"fmt"

	"quizbook/internal/logger"

	"github.com/jmoiron/sqlx"
	"go.uber.org/zap"
)

// NewSQLXDB opens and pings a connection for one of the registered drivers.
func NewSQLXDB(driver, dsn string) (*sqlx.DB, error) {
	if !IsSQLite(driver) && !IsOracle(driver) {
		return nil, fmt.Errorf("unsupported sql driver %q", driver)
	}

	db, err := sqlx.Connect(driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to %s database: %w", driver, err)
	}

	if IsSQLite(driver) {
		// a single writer avoids SQLITE_BUSY on the snapshot row
		db.SetMaxOpenConns(1)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping %s database: %w", driver, err)
	}

	logger.Get().Info("connected to database", zap.String("driver", driver))
	return db, nil
}
