package jobs

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/hibiken/asynq"

	"github.com/docsight-ai/docsight/internal/cache"
	"github.com/docsight-ai/docsight/internal/document"
	"github.com/docsight-ai/docsight/internal/store"
	"github.com/docsight-ai/docsight/internal/taskq"
	"github.com/docsight-ai/docsight/pkg/models"
)

// terminalWriteTimeout bounds the detached context used for terminal
// persistence so a worker shutdown cannot drop an outcome that was already
// computed.
const terminalWriteTimeout = 10 * time.Second

// Worker processes one analysis task per invocation. All of its transitions
// are idempotent by job id, so at-least-once redelivery from the backend is
// safe: re-entering processing is a no-op and a terminal job is left
// untouched.
type Worker struct {
	store     store.Store
	staging   *document.Staging
	extractor document.Extractor
	provider  models.AIProvider
	cache     cache.Cache
	timeout   time.Duration
}

func NewWorker(st store.Store, staging *document.Staging, extractor document.Extractor,
	provider models.AIProvider, ca cache.Cache, timeout time.Duration) *Worker {
	return &Worker{
		store:     st,
		staging:   staging,
		extractor: extractor,
		provider:  provider,
		cache:     ca,
		timeout:   timeout,
	}
}

// HandleAnalyzeDocument is the handler registered for
// taskq.TypeAnalyzeDocument. Returning a plain error requests redelivery;
// errors wrapped with asynq.SkipRetry are final and already recorded on the
// job row.
func (w *Worker) HandleAnalyzeDocument(ctx context.Context, task *asynq.Task) error {
	var p taskq.AnalyzePayload
	if err := json.Unmarshal(task.Payload(), &p); err != nil {
		return fmt.Errorf("unmarshal payload: %v: %w", err, asynq.SkipRetry)
	}
	jobID, err := uuid.Parse(p.JobID)
	if err != nil {
		return fmt.Errorf("parse job id %q: %v: %w", p.JobID, err, asynq.SkipRetry)
	}

	status, err := w.store.MarkJobProcessing(ctx, jobID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return fmt.Errorf("job %s not found: %w", jobID, asynq.SkipRetry)
		}
		return fmt.Errorf("mark processing: %w", err)
	}
	if status.IsTerminal() {
		// Redelivery after a finished run; client-visible state must not move.
		slog.Info("skipping redelivered task for finished job", "job_id", jobID, "status", status)
		return nil
	}
	_ = w.cache.SetJobStatus(ctx, jobID, models.JobStatusProcessing, statusCacheTTL)

	// The artifact is removed exactly once per job, whether analysis
	// succeeds, fails, or is cancelled mid-flight.
	defer func() {
		if err := w.staging.Remove(p.FilePath); err != nil {
			slog.Error("failed to remove staged artifact", "job_id", jobID, "path", p.FilePath, "error", err)
		}
	}()

	if !w.staging.Exists(p.FilePath) {
		return w.fail(jobID, fmt.Sprintf("%v: %s", ErrMissingArtifact, p.FilePath))
	}

	text, err := w.extractor.Extract(ctx, p.FilePath)
	if err != nil {
		if ctx.Err() != nil {
			return ctx.Err() // shutdown, not a job failure; backend redelivers
		}
		return w.fail(jobID, "reading document: "+err.Error())
	}

	analysisCtx, cancel := context.WithTimeout(ctx, w.timeout)
	defer cancel()

	result, err := w.provider.Analyze(analysisCtx, models.AnalysisRequest{
		Query:        p.Query,
		DocumentText: text,
		FileName:     p.FileName,
	})
	if err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		return w.fail(jobID, err.Error())
	}

	// Terminal writes use a detached context: the outcome exists, losing it
	// to a shutdown signal would only force a pointless re-run.
	persistCtx, cancelPersist := context.WithTimeout(context.Background(), terminalWriteTimeout)
	defer cancelPersist()

	if _, err := w.store.CompleteJob(persistCtx, jobID, result); err != nil {
		return fmt.Errorf("persist result: %w", err)
	}
	_ = w.cache.SetJobStatus(persistCtx, jobID, models.JobStatusCompleted, statusCacheTTL)

	slog.Info("job completed", "job_id", jobID, "provider", w.provider.Name())
	return nil
}

// fail records the terminal failure on the job row. Worker-side errors are
// never thrown back to a caller; they become visible through the status
// endpoint only.
func (w *Worker) fail(jobID uuid.UUID, message string) error {
	ctx, cancel := context.WithTimeout(context.Background(), terminalWriteTimeout)
	defer cancel()

	if _, err := w.store.FailJob(ctx, jobID, message); err != nil {
		return fmt.Errorf("persist failure: %w", err)
	}
	_ = w.cache.SetJobStatus(ctx, jobID, models.JobStatusFailed, statusCacheTTL)

	slog.Warn("job failed", "job_id", jobID, "error", message)
	return fmt.Errorf("%s: %w", message, asynq.SkipRetry)
}
