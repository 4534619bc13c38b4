package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/hibiken/asynq"
	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"github.com/tunedrop/tunedrop/internal/config"
	"github.com/tunedrop/tunedrop/internal/database"
	"github.com/tunedrop/tunedrop/internal/deliver"
	"github.com/tunedrop/tunedrop/internal/logger"
	"github.com/tunedrop/tunedrop/internal/notify"
	"github.com/tunedrop/tunedrop/internal/pipeline"
	"github.com/tunedrop/tunedrop/internal/remote"
	"github.com/tunedrop/tunedrop/internal/repository"
	"github.com/tunedrop/tunedrop/internal/runner"
	"github.com/tunedrop/tunedrop/internal/tags"
	"github.com/tunedrop/tunedrop/internal/worker"
	"github.com/tunedrop/tunedrop/internal/workspace"
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

	var syncer remote.Syncer
	if strings.EqualFold(cfg.Transport, "remote") {
		store, err := remote.New(cfg, zl)
		if err != nil {
			zl.Fatal("init remote storage", zap.Error(err))
		}
		if err := store.EnsureBucket(ctx); err != nil {
			zl.Fatal("ensure bucket", zap.Error(err))
		}
		syncer = store
	}

	ws := workspace.NewManager(cfg, zl)
	messenger := notify.NewLogMessenger(zl)
	router := deliver.NewRouter(cfg, ws, messenger, syncer, zl)
	pipe := pipeline.New(cfg, ws, runner.New(cfg, zl), tags.NewExtractor(cfg, zl), router, zl)

	server := asynq.NewServer(asynq.RedisClientOpt{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
		DB:       cfg.RedisDB,
	}, asynq.Config{
		Concurrency: cfg.Workers,
	})
	processor := worker.NewProcessor(repo, pipe, zl)

	go func() {
		<-ctx.Done()
		server.Shutdown()
	}()

	zl.Info("worker running",
		zap.Int("concurrency", cfg.Workers),
		zap.String("transport", cfg.Transport))
	if err := server.Run(processor.Handler()); err != nil {
		zl.Error("worker stopped", zap.Error(err))
		os.Exit(1)
	}
}
