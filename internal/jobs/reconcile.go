package jobs

import (
	"context"
	"log/slog"

	"github.com/google/uuid"

	"github.com/docsight-ai/docsight/internal/cache"
	"github.com/docsight-ai/docsight/internal/store"
	"github.com/docsight-ai/docsight/internal/taskq"
	"github.com/docsight-ai/docsight/pkg/models"
)

// Reconciler merges the durable job record with the task backend's live
// state into one client-visible answer. The record is authoritative the
// moment it turns terminal; until then the backend can only nudge the view
// forward, never write a result.
type Reconciler struct {
	store   store.Store
	backend taskq.Backend
	cache   cache.Cache
}

func NewReconciler(st store.Store, backend taskq.Backend, ca cache.Cache) *Reconciler {
	return &Reconciler{store: st, backend: backend, cache: ca}
}

// Status resolves the current view of a job. Rules, in order:
//   - record terminal: returned verbatim, backend never consulted;
//   - record queued, backend active/retry: promoted to processing via the
//     store's CAS (which cannot overwrite a terminal status written
//     concurrently by the worker);
//   - record queued, backend already finished: reported as processing; the
//     backend's outcome is not authoritative until the worker's own write
//     lands;
//   - unknown id: store.ErrNotFound.
func (r *Reconciler) Status(ctx context.Context, id uuid.UUID) (*models.Job, error) {
	job, err := r.store.GetJob(ctx, id)
	if err != nil {
		return nil, err
	}
	if job.Status.IsTerminal() {
		return job, nil
	}
	if job.Status != models.JobStatusQueued {
		return job, nil
	}

	// A promotion observed by an earlier poll saves the backend round-trip.
	if cached, ok, _ := r.cache.GetJobStatus(ctx, id); ok && cached == models.JobStatusProcessing {
		return r.promote(ctx, id, job)
	}

	state, err := r.backend.StateOf(ctx, id.String())
	if err != nil {
		// The lookup is advisory; the record still answers.
		slog.Warn("task backend state lookup failed", "job_id", id, "error", err)
		return job, nil
	}

	switch state {
	case taskq.StateActive, taskq.StateRetry:
		return r.promote(ctx, id, job)
	case taskq.StateSucceeded, taskq.StateFailed:
		// Worker finished but its terminal write has not landed yet. Show
		// progress without trusting the backend's result.
		job.Status = models.JobStatusProcessing
		return job, nil
	default:
		return job, nil
	}
}

// promote persists the queued -> processing transition so subsequent readers
// skip the same check. If the worker won the race with a terminal write, the
// CAS is a no-op and the fresh record is returned instead.
func (r *Reconciler) promote(ctx context.Context, id uuid.UUID, job *models.Job) (*models.Job, error) {
	status, err := r.store.MarkJobProcessing(ctx, id)
	if err != nil {
		// Read-time promotion only; the client still sees progress.
		slog.Warn("failed to persist status promotion", "job_id", id, "error", err)
		job.Status = models.JobStatusProcessing
		return job, nil
	}
	if status.IsTerminal() {
		return r.store.GetJob(ctx, id)
	}
	_ = r.cache.SetJobStatus(ctx, id, status, statusCacheTTL)
	job.Status = status
	return job, nil
}
