package main

import (
	"context"
	"fmt"
	"os"

	"quizbook/internal/bootstrap"
	"quizbook/internal/cli"
	"quizbook/internal/config"
	"quizbook/internal/logger"
	"quizbook/internal/service"
)

func openService(ctx context.Context) (service.QuizBookService, func(), error) {
	cfg, err := config.LoadConfig()
	if err != nil {
		return nil, nil, err
	}
	// keep stdout clean for command output
	cfg.LoggerConfig.Level = "error"
	if err := logger.Initialize(cfg.LoggerConfig); err != nil {
		return nil, nil, err
	}

	store, closeStore, err := bootstrap.OpenBookStore(cfg)
	if err != nil {
		return nil, nil, err
	}
	svc := service.NewQuizBookService(store)
	return svc, func() {
		svc.Close()
		closeStore()
		logger.Sync()
	}, nil
}

func main() {
	if err := cli.NewRootCmd(openService).Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
