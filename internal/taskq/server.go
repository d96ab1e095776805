package taskq

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/hibiken/asynq"

	"github.com/docsight-ai/docsight/internal/config"
)

// NewServer builds the asynq consumer for the worker tier. Concurrency bounds
// parallelism across job ids; a single task is delivered to at most one
// active executor at a time.
func NewServer(redisURL string, cfg config.QueueConfig) (*asynq.Server, error) {
	opt, err := asynq.ParseRedisURI(redisURL)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}
	srv := asynq.NewServer(opt, asynq.Config{
		Concurrency: cfg.Concurrency,
		Queues: map[string]int{
			cfg.Name: 1,
		},
		ErrorHandler: asynq.ErrorHandlerFunc(func(ctx context.Context, task *asynq.Task, err error) {
			slog.Error("task handler error", "type", task.Type(), "error", err)
		}),
	})
	return srv, nil
}
