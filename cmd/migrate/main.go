package main

import (
	"flag"
	"log"

	"quizbook/internal/config"
	"quizbook/internal/database"
	"quizbook/internal/logger"

	"go.uber.org/zap"
)

func main() {
	down := flag.Bool("down", false, "roll back every migration instead of applying them")
	flag.Parse()

	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	if err := logger.Initialize(cfg.LoggerConfig); err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	l := logger.Get()
	defer logger.Sync()

	if !cfg.Storage.IsSQL() {
		l.Fatal("Migrations need a SQL storage driver", zap.String("driver", cfg.Storage.Driver))
	}

	db, err := database.NewSQLXDB(cfg.Storage.Driver, cfg.Storage.DSN)
	if err != nil {
		l.Fatal("Failed to connect to database", zap.Error(err))
	}
	defer db.Close()

	dir := database.Up
	if *down {
		dir = database.Down
	}
	if err := database.RunMigrations(db, cfg.Storage.Driver, dir); err != nil {
		l.Fatal("Failed to run migrations", zap.String("direction", string(dir)), zap.Error(err))
	}
}
