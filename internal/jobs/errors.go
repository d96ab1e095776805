package jobs

import "errors"

var (
	// ErrInvalidInput marks client-caused submission failures; surfaced
	// synchronously, never retried.
	ErrInvalidInput = errors.New("invalid input")

	// ErrEnqueueFailed marks a submission that persisted its job row but
	// could not hand the task to the backend. The job is already marked
	// failed and the artifact removed by the time this is returned.
	ErrEnqueueFailed = errors.New("task enqueue failed")

	// ErrMissingArtifact means the staged document no longer exists when the
	// worker picks up the task. Artifacts are single-use, so this is
	// non-retryable.
	ErrMissingArtifact = errors.New("staged artifact missing")
)
