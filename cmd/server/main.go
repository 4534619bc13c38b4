package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/hibiken/asynq"
	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"github.com/tunedrop/tunedrop/internal/api"
	"github.com/tunedrop/tunedrop/internal/config"
	"github.com/tunedrop/tunedrop/internal/database"
	"github.com/tunedrop/tunedrop/internal/logger"
	"github.com/tunedrop/tunedrop/internal/queue"
	"github.com/tunedrop/tunedrop/internal/repository"
)

func main() {
	_ = godotenv.Load()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("load config: %v", err)
	}
	zl, err := logger.New(cfg.LogLevel, cfg.LogDev)
	if err != nil {
		log.Fatalf("init logger: %v", err)
	}
	defer func() { _ = zl.Sync() }()

	pool, err := database.Connect(ctx, cfg.DatabaseURL)
	if err != nil {
		zl.Fatal("connect database", zap.Error(err))
	}
	defer pool.Close()
	if err := database.EnsureSchema(ctx, pool); err != nil {
		zl.Fatal("ensure schema", zap.Error(err))
	}
	repo := repository.NewJobRepository(pool)

	client := asynq.NewClient(asynq.RedisClientOpt{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
		DB:       cfg.RedisDB,
	})
	defer client.Close()

	srv := api.New(cfg, repo, queue.NewClient(client), zl)
	if err := srv.Run(ctx); err != nil {
		zl.Error("server stopped", zap.Error(err))
		os.Exit(1)
	}
}
