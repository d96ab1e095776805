package store

import (
	"context"
	"errors"

	"github.com/google/uuid"

	"github.com/docsight-ai/docsight/pkg/models"
)

var ErrNotFound = errors.New("resource not found")
var ErrDuplicateKey = errors.New("duplicate key violation")

// Store is the data access interface. All database operations go through here.
// The job row is the only shared mutable resource in the system; every status
// update is a compare-and-set that cannot regress a terminal status, so
// re-invocations of the same transition are safe.
type Store interface {
	Ping(ctx context.Context) error

	CreateJob(ctx context.Context, job *models.Job) error
	GetJob(ctx context.Context, id uuid.UUID) (*models.Job, error)
	ListJobsByOwner(ctx context.Context, ownerID uuid.UUID) ([]*models.Job, error)

	// MarkJobProcessing promotes queued -> processing and returns the status
	// the row holds afterwards. Calling it on a job that is already
	// processing or terminal is a no-op, not an error.
	MarkJobProcessing(ctx context.Context, id uuid.UUID) (models.JobStatus, error)

	// CompleteJob and FailJob finish a non-terminal job, recording the result
	// text or error message and stamping completed_at. On a job that is
	// already terminal they change nothing and return the frozen status.
	CompleteJob(ctx context.Context, id uuid.UUID, resultText string) (models.JobStatus, error)
	FailJob(ctx context.Context, id uuid.UUID, errorMessage string) (models.JobStatus, error)

	// UpsertOwner resolves name/email to a user row. Same normalized email
	// maps to the same user; a name fills in only if previously absent.
	// With no email it always inserts a fresh row.
	UpsertOwner(ctx context.Context, name, email *string) (*models.User, error)
	GetOwner(ctx context.Context, id uuid.UUID) (*models.User, error)
}
