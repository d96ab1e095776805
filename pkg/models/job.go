package models

import (
	"time"

	"github.com/google/uuid"
)

// JobStatus is the lifecycle state of an analysis job. Transitions are
// monotonic: queued -> processing -> completed|failed. A terminal status is
// never overwritten.
type JobStatus string

const (
	JobStatusQueued     JobStatus = "queued"
	JobStatusProcessing JobStatus = "processing"
	JobStatusCompleted  JobStatus = "completed"
	JobStatusFailed     JobStatus = "failed"
)

// IsTerminal reports whether no further transitions are permitted.
func (s JobStatus) IsTerminal() bool {
	return s == JobStatusCompleted || s == JobStatusFailed
}

// Job is the durable record of one document-analysis request and its outcome.
// The API returns a job_id on POST /api/v1/analyze; the client polls
// GET /api/v1/jobs/{job_id} until status is completed or failed.
type Job struct {
	ID           uuid.UUID  `db:"id"            json:"job_id"`
	OwnerID      *uuid.UUID `db:"owner_id"      json:"owner_id,omitempty"`
	Query        string     `db:"query"         json:"query"`
	FileName     string     `db:"file_name"     json:"file_name"`
	FilePath     string     `db:"file_path"     json:"-"`
	Status       JobStatus  `db:"status"        json:"status"`
	ResultText   *string    `db:"result_text"   json:"result_text,omitempty"`
	ErrorMessage *string    `db:"error_message" json:"error_message,omitempty"`
	CreatedAt    time.Time  `db:"created_at"    json:"created_at"`
	UpdatedAt    time.Time  `db:"updated_at"    json:"updated_at"`
	CompletedAt  *time.Time `db:"completed_at"  json:"completed_at,omitempty"`
}
