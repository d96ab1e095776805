package handler

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/docsight-ai/docsight/internal/api/response"
	"github.com/docsight-ai/docsight/internal/jobs"
	"github.com/docsight-ai/docsight/pkg/models"
)

// maxMultipartMemory bounds how much of an upload is buffered in memory
// before spilling to disk. Uploads themselves are capped by the staging
// layer.
const maxMultipartMemory = 8 << 20

// Submitter defines the submission interface the handler depends on.
type Submitter interface {
	Submit(ctx context.Context, p jobs.SubmitParams) (*models.Job, error)
}

// NewAnalyzeHandler returns an http.HandlerFunc for POST /api/v1/analyze.
// Accepted submissions return 202 with the job id and a polling URL.
func NewAnalyzeHandler(svc Submitter) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := r.ParseMultipartForm(maxMultipartMemory); err != nil {
			response.Error(w, http.StatusBadRequest, "INVALID_INPUT",
				"Request must be multipart/form-data with a file field", nil)
			return
		}
		defer func() {
			if r.MultipartForm != nil {
				_ = r.MultipartForm.RemoveAll()
			}
		}()

		file, header, err := r.FormFile("file")
		if err != nil {
			response.Error(w, http.StatusBadRequest, "INVALID_INPUT",
				"A document file is required", nil)
			return
		}
		defer file.Close()

		job, err := svc.Submit(r.Context(), jobs.SubmitParams{
			FileName:   header.Filename,
			File:       file,
			Query:      r.FormValue("query"),
			OwnerName:  r.FormValue("user_name"),
			OwnerEmail: r.FormValue("user_email"),
		})
		if err != nil {
			switch {
			case errors.Is(err, jobs.ErrInvalidInput):
				response.Error(w, http.StatusBadRequest, "INVALID_INPUT", err.Error(), nil)
			case errors.Is(err, jobs.ErrEnqueueFailed):
				response.Error(w, http.StatusInternalServerError, "ENQUEUE_FAILED",
					"Could not queue the analysis job", nil)
			default:
				response.Error(w, http.StatusInternalServerError, "INTERNAL_ERROR",
					"An unexpected error occurred", nil)
			}
			return
		}

		response.Accepted(w, submitResponse{
			JobID:     job.ID.String(),
			Status:    string(job.Status),
			StatusURL: fmt.Sprintf("/api/v1/jobs/%s", job.ID),
		})
	}
}

type submitResponse struct {
	JobID     string `json:"job_id"`
	Status    string `json:"status"`
	StatusURL string `json:"status_url"`
}
