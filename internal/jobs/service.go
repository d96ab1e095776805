// Package jobs implements the asynchronous analysis pipeline: submission,
// worker-side processing, and status reconciliation against the task backend.
package jobs

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/docsight-ai/docsight/internal/cache"
	"github.com/docsight-ai/docsight/internal/document"
	"github.com/docsight-ai/docsight/internal/store"
	"github.com/docsight-ai/docsight/internal/taskq"
	"github.com/docsight-ai/docsight/pkg/models"
)

// DefaultQuery is used when the submission carries no query text.
const DefaultQuery = "Analyze this financial document for investment insights"

// statusCacheTTL bounds how long a cached job status may outlive its last
// transition.
const statusCacheTTL = 30 * time.Minute

// SubmitParams is one submission request as received by the API layer.
type SubmitParams struct {
	FileName   string
	File       io.Reader
	Query      string
	OwnerName  string
	OwnerEmail string
}

// Service is the submission side of the pipeline. It runs on the
// request-serving path and shares no mutable state across calls beyond the
// store.
type Service struct {
	store   store.Store
	backend taskq.Backend
	staging *document.Staging
	cache   cache.Cache
}

func NewService(st store.Store, backend taskq.Backend, staging *document.Staging, ca cache.Cache) *Service {
	return &Service{
		store:   st,
		backend: backend,
		staging: staging,
		cache:   ca,
	}
}

// Submit validates and stages the document, persists the job in queued state,
// and hands the task to the backend under the same id. The job row commits
// before the enqueue is attempted; an enqueue failure runs the compensating
// transition (mark failed, delete artifact) so no orphaned task survives.
func (s *Service) Submit(ctx context.Context, p SubmitParams) (*models.Job, error) {
	if strings.TrimSpace(p.FileName) == "" {
		return nil, fmt.Errorf("%w: file name is required", ErrInvalidInput)
	}
	if p.File == nil {
		return nil, fmt.Errorf("%w: document payload is required", ErrInvalidInput)
	}

	name := normalizeOptional(p.OwnerName)
	email := normalizeEmail(p.OwnerEmail)
	if p.OwnerEmail != "" && email == nil {
		return nil, fmt.Errorf("%w: malformed owner email", ErrInvalidInput)
	}

	jobID := uuid.New()

	path, err := s.staging.Stage(jobID, p.FileName, p.File)
	if err != nil {
		if errors.Is(err, document.ErrEmptyDocument) ||
			errors.Is(err, document.ErrUnacceptedFormat) ||
			errors.Is(err, document.ErrTooLarge) {
			return nil, fmt.Errorf("%w: %v", ErrInvalidInput, err)
		}
		return nil, fmt.Errorf("staging document: %w", err)
	}

	var ownerID *uuid.UUID
	if name != nil || email != nil {
		owner, err := s.store.UpsertOwner(ctx, name, email)
		if err != nil {
			_ = s.staging.Remove(path)
			return nil, fmt.Errorf("resolving owner: %w", err)
		}
		ownerID = &owner.ID
	}

	now := time.Now().UTC()
	job := &models.Job{
		ID:        jobID,
		OwnerID:   ownerID,
		Query:     resolveQuery(p.Query),
		FileName:  p.FileName,
		FilePath:  path,
		Status:    models.JobStatusQueued,
		CreatedAt: now,
		UpdatedAt: now,
	}

	if err := s.store.CreateJob(ctx, job); err != nil {
		_ = s.staging.Remove(path)
		return nil, fmt.Errorf("creating job: %w", err)
	}
	_ = s.cache.SetJobStatus(ctx, jobID, models.JobStatusQueued, statusCacheTTL)

	if err := s.backend.Enqueue(ctx, taskq.AnalyzePayload{
		JobID:    jobID.String(),
		Query:    job.Query,
		FileName: job.FileName,
		FilePath: path,
	}); err != nil {
		// Compensating transition: the committed row flips to failed and the
		// artifact goes away, leaving no dangling task.
		if _, ferr := s.store.FailJob(ctx, jobID, "queue error: "+err.Error()); ferr != nil {
			slog.Error("failed to mark job after enqueue error", "job_id", jobID, "error", ferr)
		}
		_ = s.cache.SetJobStatus(ctx, jobID, models.JobStatusFailed, statusCacheTTL)
		_ = s.staging.Remove(path)
		return nil, fmt.Errorf("%w: %v", ErrEnqueueFailed, err)
	}

	return job, nil
}

// OwnerJobs returns the owner record and their jobs, newest first.
func (s *Service) OwnerJobs(ctx context.Context, ownerID uuid.UUID) (*models.User, []*models.Job, error) {
	owner, err := s.store.GetOwner(ctx, ownerID)
	if err != nil {
		return nil, nil, err
	}
	listed, err := s.store.ListJobsByOwner(ctx, ownerID)
	if err != nil {
		return nil, nil, fmt.Errorf("listing owner jobs: %w", err)
	}
	return owner, listed, nil
}

func resolveQuery(query string) string {
	if q := strings.TrimSpace(query); q != "" {
		return q
	}
	return DefaultQuery
}

func normalizeOptional(v string) *string {
	if v = strings.TrimSpace(v); v == "" {
		return nil
	}
	return &v
}

func normalizeEmail(email string) *string {
	e := strings.ToLower(strings.TrimSpace(email))
	if e == "" || !strings.Contains(e, "@") {
		return nil
	}
	return &e
}
