package bootstrap

import (
	"fmt"

	"quizbook/internal/adapter"
	"quizbook/internal/cache"
	"quizbook/internal/config"
	"quizbook/internal/database"
	"quizbook/internal/domain"
	"quizbook/internal/logger"
	"quizbook/internal/repository"

	"go.uber.org/zap"
)

// OpenBookStore builds the persistence gateway selected by storage.driver.
// SQL stores are migrated up before use. The returned func releases the
// underlying connection.
func OpenBookStore(cfg *config.Config) (domain.BookStore, func() error, error) {
	log := logger.Get()

	switch {
	case cfg.Storage.Driver == config.DriverMemory:
		log.Warn("Using in-memory storage, data is lost on exit")
		return repository.NewMemoryBookStore(), func() error { return nil }, nil

	case cfg.Storage.Driver == config.DriverRedis:
		client, err := cache.NewRedisClient(cfg.Redis)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to connect to redis: %w", err)
		}
		log.Info("Using redis storage",
			zap.String("address", cfg.Redis.Address),
			zap.String("key", cfg.Storage.Key))
		store := repository.NewKVBookStore(adapter.NewRedisKVAdapter(client), cfg.Storage.Key)
		return store, client.Close, nil

	case cfg.Storage.IsSQL():
		db, err := database.NewSQLXDB(cfg.Storage.Driver, cfg.Storage.DSN)
		if err != nil {
			return nil, nil, err
		}
		if err := database.RunMigrations(db, cfg.Storage.Driver, database.Up); err != nil {
			db.Close()
			return nil, nil, err
		}
		log.Info("Using sql storage",
			zap.String("driver", cfg.Storage.Driver),
			zap.String("key", cfg.Storage.Key))
		return repository.NewSQLBookStore(db, cfg.Storage.Key), db.Close, nil

	default:
		return nil, nil, fmt.Errorf("unsupported storage driver %q", cfg.Storage.Driver)
	}
}
