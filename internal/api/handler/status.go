package handler

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/docsight-ai/docsight/internal/api/response"
	"github.com/docsight-ai/docsight/internal/store"
	"github.com/docsight-ai/docsight/pkg/models"
)

// StatusResolver defines the reconciliation interface the handler depends on.
type StatusResolver interface {
	Status(ctx context.Context, id uuid.UUID) (*models.Job, error)
}

// NewJobStatusHandler returns an http.HandlerFunc for GET /api/v1/jobs/{jobID}.
func NewJobStatusHandler(rec StatusResolver) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		jobID, err := uuid.Parse(chi.URLParam(r, "jobID"))
		if err != nil {
			response.Error(w, http.StatusBadRequest, "INVALID_INPUT",
				"Job id must be a valid UUID", nil)
			return
		}

		job, err := rec.Status(r.Context(), jobID)
		if err != nil {
			if errors.Is(err, store.ErrNotFound) {
				response.Error(w, http.StatusNotFound, "JOB_NOT_FOUND", "Job not found", nil)
				return
			}
			response.Error(w, http.StatusInternalServerError, "INTERNAL_ERROR",
				"An unexpected error occurred", nil)
			return
		}

		response.JSON(w, statusResponse(job))
	}
}

func statusResponse(job *models.Job) jobStatusResponse {
	resp := jobStatusResponse{
		JobID:  job.ID.String(),
		Status: string(job.Status),
	}
	if job.CompletedAt != nil {
		t := job.CompletedAt.UTC().Format(time.RFC3339)
		resp.CompletedAt = &t
	}

	switch job.Status {
	case models.JobStatusCompleted:
		resp.Result = &analysisResult{
			Status:        "success",
			Query:         job.Query,
			Analysis:      deref(job.ResultText),
			FileProcessed: job.FileName,
			OwnerID:       job.OwnerID,
		}
	case models.JobStatusFailed:
		resp.Error = deref(job.ErrorMessage)
		resp.OwnerID = job.OwnerID
	}
	return resp
}

type jobStatusResponse struct {
	JobID       string          `json:"job_id"`
	Status      string          `json:"status"`
	Result      *analysisResult `json:"result,omitempty"`
	Error       string          `json:"error,omitempty"`
	OwnerID     *uuid.UUID      `json:"owner_id,omitempty"`
	CompletedAt *string         `json:"completed_at,omitempty"`
}

type analysisResult struct {
	Status        string     `json:"status"`
	Query         string     `json:"query"`
	Analysis      string     `json:"analysis"`
	FileProcessed string     `json:"file_processed"`
	OwnerID       *uuid.UUID `json:"owner_id,omitempty"`
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
