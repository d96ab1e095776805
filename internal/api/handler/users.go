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

// OwnerLister defines the owner-listing interface the handler depends on.
type OwnerLister interface {
	OwnerJobs(ctx context.Context, ownerID uuid.UUID) (*models.User, []*models.Job, error)
}

// NewOwnerJobsHandler returns an http.HandlerFunc for
// GET /api/v1/users/{userID}/jobs. Jobs are ordered newest first.
func NewOwnerJobsHandler(svc OwnerLister) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, err := uuid.Parse(chi.URLParam(r, "userID"))
		if err != nil {
			response.Error(w, http.StatusBadRequest, "INVALID_INPUT",
				"User id must be a valid UUID", nil)
			return
		}

		owner, ownerJobs, err := svc.OwnerJobs(r.Context(), userID)
		if err != nil {
			if errors.Is(err, store.ErrNotFound) {
				response.Error(w, http.StatusNotFound, "USER_NOT_FOUND", "User not found", nil)
				return
			}
			response.Error(w, http.StatusInternalServerError, "INTERNAL_ERROR",
				"An unexpected error occurred", nil)
			return
		}

		items := make([]ownerJobItem, 0, len(ownerJobs))
		for _, job := range ownerJobs {
			item := ownerJobItem{
				JobID:     job.ID.String(),
				Status:    string(job.Status),
				Query:     job.Query,
				FileName:  job.FileName,
				CreatedAt: job.CreatedAt.UTC().Format(time.RFC3339),
			}
			if job.CompletedAt != nil {
				t := job.CompletedAt.UTC().Format(time.RFC3339)
				item.CompletedAt = &t
			}
			items = append(items, item)
		}

		response.JSON(w, ownerJobsResponse{
			User: ownerInfo{
				ID:    owner.ID.String(),
				Name:  owner.Name,
				Email: owner.Email,
			},
			Jobs: items,
		})
	}
}

type ownerJobsResponse struct {
	User ownerInfo      `json:"user"`
	Jobs []ownerJobItem `json:"jobs"`
}

type ownerInfo struct {
	ID    string  `json:"id"`
	Name  *string `json:"name,omitempty"`
	Email *string `json:"email,omitempty"`
}

type ownerJobItem struct {
	JobID       string  `json:"job_id"`
	Status      string  `json:"status"`
	Query       string  `json:"query"`
	FileName    string  `json:"file_name"`
	CreatedAt   string  `json:"created_at"`
	CompletedAt *string `json:"completed_at,omitempty"`
}
