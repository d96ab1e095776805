// Package taskq wraps the asynq task backend behind the two operations the
// rest of the system consumes: enqueue by job id and best-effort state lookup.
package taskq

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/hibiken/asynq"

	"github.com/docsight-ai/docsight/internal/config"
)

// TypeAnalyzeDocument is the single registered task type. The worker binds it
// to its handler at startup; no other routing exists.
const TypeAnalyzeDocument = "document:analyze"

// AnalyzePayload is the task body for an analysis job. The asynq task id is
// the job id itself, so the store and the backend share one id namespace.
type AnalyzePayload struct {
	JobID    string `json:"job_id"`
	Query    string `json:"query"`
	FileName string `json:"file_name"`
	FilePath string `json:"file_path"`
}

// TaskState is the backend's view of a task, normalized across asynq's
// internal states.
type TaskState int

const (
	StateUnknown TaskState = iota // id never seen, or result already reaped
	StatePending
	StateActive
	StateRetry
	StateSucceeded
	StateFailed
)

func (s TaskState) String() string {
	switch s {
	case StatePending:
		return "pending"
	case StateActive:
		return "active"
	case StateRetry:
		return "retry"
	case StateSucceeded:
		return "succeeded"
	case StateFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// Backend is the task-backend capability: fire-and-forget enqueue keyed by a
// caller-supplied id, plus per-id state lookup.
type Backend interface {
	Enqueue(ctx context.Context, p AnalyzePayload) error
	StateOf(ctx context.Context, jobID string) (TaskState, error)
}

// AsynqBackend implements Backend over a Redis-backed asynq instance.
type AsynqBackend struct {
	client    *asynq.Client
	inspector *asynq.Inspector
	cfg       config.QueueConfig
}

// NewAsynqBackend builds the client and inspector used by the API tier.
func NewAsynqBackend(redisURL string, cfg config.QueueConfig) (*AsynqBackend, error) {
	opt, err := asynq.ParseRedisURI(redisURL)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}
	return &AsynqBackend{
		client:    asynq.NewClient(opt),
		inspector: asynq.NewInspector(opt),
		cfg:       cfg,
	}, nil
}

func (b *AsynqBackend) Close() error {
	if err := b.client.Close(); err != nil {
		return err
	}
	return b.inspector.Close()
}

func (b *AsynqBackend) Enqueue(ctx context.Context, p AnalyzePayload) error {
	if p.JobID == "" {
		return fmt.Errorf("payload job id is required")
	}
	body, err := json.Marshal(p)
	if err != nil {
		return fmt.Errorf("marshal payload: %w", err)
	}

	task := asynq.NewTask(TypeAnalyzeDocument, body)
	_, err = b.client.EnqueueContext(ctx, task,
		asynq.TaskID(p.JobID),
		asynq.Queue(b.cfg.Name),
		asynq.MaxRetry(b.cfg.MaxRetry),
		asynq.Timeout(b.cfg.TaskTimeout),
		// Retain finished tasks so StateOf can still answer after success.
		asynq.Retention(b.cfg.Retention),
	)
	if err != nil {
		if errors.Is(err, asynq.ErrTaskIDConflict) {
			return fmt.Errorf("task id %s already enqueued: %w", p.JobID, err)
		}
		return fmt.Errorf("enqueue task: %w", err)
	}
	return nil
}

func (b *AsynqBackend) StateOf(ctx context.Context, jobID string) (TaskState, error) {
	info, err := b.inspector.GetTaskInfo(b.cfg.Name, jobID)
	if err != nil {
		if errors.Is(err, asynq.ErrTaskNotFound) || errors.Is(err, asynq.ErrQueueNotFound) {
			return StateUnknown, nil
		}
		return StateUnknown, fmt.Errorf("get task info: %w", err)
	}

	switch info.State {
	case asynq.TaskStateActive:
		return StateActive, nil
	case asynq.TaskStateRetry:
		return StateRetry, nil
	case asynq.TaskStateCompleted:
		return StateSucceeded, nil
	case asynq.TaskStateArchived:
		return StateFailed, nil
	case asynq.TaskStatePending, asynq.TaskStateScheduled, asynq.TaskStateAggregating:
		return StatePending, nil
	default:
		return StateUnknown, nil
	}
}
