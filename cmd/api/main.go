package main

import (
	"context"
	"log"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"github.com/newsline/accounts-service/internal/infra/app"
	"github.com/newsline/accounts-service/internal/infra/config"
	"github.com/newsline/accounts-service/internal/infra/logger"
)

func main() {
	// Missing .env is fine; real deployments set the environment directly.
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("load config: %v", err)
	}

	lg, err := logger.New(cfg.App.Env)
	if err != nil {
		log.Fatalf("init logger: %v", err)
	}
	defer func() { _ = lg.Sync() }()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	application, err := app.New(ctx, cfg, lg)
	if err != nil {
		lg.Fatal("bootstrap failed", zap.Error(err))
	}

	if err := application.Run(ctx); err != nil {
		lg.Fatal("server stopped with error", zap.Error(err))
	}
}
