// Package main is the entrypoint for the Docsight analysis worker.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/hibiken/asynq"
	"github.com/joho/godotenv"

	"github.com/docsight-ai/docsight/internal/ai"
	"github.com/docsight-ai/docsight/internal/cache"
	"github.com/docsight-ai/docsight/internal/config"
	"github.com/docsight-ai/docsight/internal/document"
	"github.com/docsight-ai/docsight/internal/jobs"
	"github.com/docsight-ai/docsight/internal/store"
	"github.com/docsight-ai/docsight/internal/taskq"
)

func main() {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))
	slog.SetDefault(logger)

	if err := run(); err != nil {
		slog.Error("worker failed", "error", err)
		os.Exit(1)
	}
}

func run() error {
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	slog.Info("config loaded", "ai_provider", cfg.AI.Provider, "concurrency", cfg.Queue.Concurrency)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	pool, err := store.Connect(ctx, cfg.Database)
	if err != nil {
		return fmt.Errorf("connect database: %w", err)
	}
	defer pool.Close()
	slog.Info("database connected")

	redisCache, err := cache.NewRedisCache(cfg.Redis.URL)
	if err != nil {
		return fmt.Errorf("create redis cache: %w", err)
	}
	defer redisCache.Close()

	provider, err := ai.NewProvider(cfg.AI)
	if err != nil {
		return fmt.Errorf("create AI provider: %w", err)
	}
	slog.Info("AI provider initialized", "provider", provider.Name())

	staging, err := document.NewStaging(cfg.Upload.Dir, cfg.Upload.MaxBytes, cfg.Upload.AcceptedMIMEs)
	if err != nil {
		return fmt.Errorf("create staging dir: %w", err)
	}

	worker := jobs.NewWorker(
		store.NewPostgresStore(pool),
		staging,
		document.NewPDFExtractor(),
		provider,
		redisCache,
		cfg.AI.InferenceTimeout,
	)

	srv, err := taskq.NewServer(cfg.Redis.URL, cfg.Queue)
	if err != nil {
		return fmt.Errorf("create task server: %w", err)
	}

	mux := asynq.NewServeMux()
	mux.HandleFunc(taskq.TypeAnalyzeDocument, worker.HandleAnalyzeDocument)

	if err := srv.Start(mux); err != nil {
		return fmt.Errorf("start task server: %w", err)
	}
	slog.Info("worker listening", "queue", cfg.Queue.Name)

	<-ctx.Done()
	slog.Info("shutdown signal received, draining in-flight tasks...")

	// Shutdown cancels in-flight handler contexts; each handler's deferred
	// cleanup runs before the executor exits.
	srv.Shutdown()
	slog.Info("worker stopped gracefully")
	return nil
}
