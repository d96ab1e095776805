package jobs_test

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/docsight-ai/docsight/internal/store"
	"github.com/docsight-ai/docsight/internal/taskq"
	"github.com/docsight-ai/docsight/pkg/models"
)

// memStore is an in-memory store.Store with the same compare-and-set
// semantics as the Postgres implementation.
type memStore struct {
	mu    sync.Mutex
	jobs  map[uuid.UUID]*models.Job
	users map[uuid.UUID]*models.User

	createJobErr error
	completeErr  error
	markErr      error
}

func newMemStore() *memStore {
	return &memStore{
		jobs:  make(map[uuid.UUID]*models.Job),
		users: make(map[uuid.UUID]*models.User),
	}
}

func (s *memStore) Ping(context.Context) error { return nil }

func (s *memStore) CreateJob(_ context.Context, job *models.Job) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.createJobErr != nil {
		return s.createJobErr
	}
	if _, ok := s.jobs[job.ID]; ok {
		return store.ErrDuplicateKey
	}
	cp := *job
	s.jobs[job.ID] = &cp
	return nil
}

func (s *memStore) GetJob(_ context.Context, id uuid.UUID) (*models.Job, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	job, ok := s.jobs[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	cp := *job
	return &cp, nil
}

func (s *memStore) ListJobsByOwner(_ context.Context, ownerID uuid.UUID) ([]*models.Job, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []*models.Job
	for _, job := range s.jobs {
		if job.OwnerID != nil && *job.OwnerID == ownerID {
			cp := *job
			out = append(out, &cp)
		}
	}
	// Newest first, as the SQL implementation orders.
	for i := 0; i < len(out); i++ {
		for j := i + 1; j < len(out); j++ {
			if out[j].CreatedAt.After(out[i].CreatedAt) {
				out[i], out[j] = out[j], out[i]
			}
		}
	}
	return out, nil
}

func (s *memStore) MarkJobProcessing(_ context.Context, id uuid.UUID) (models.JobStatus, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.markErr != nil {
		return "", s.markErr
	}
	job, ok := s.jobs[id]
	if !ok {
		return "", store.ErrNotFound
	}
	if job.Status == models.JobStatusQueued {
		job.Status = models.JobStatusProcessing
		job.UpdatedAt = time.Now().UTC()
	}
	return job.Status, nil
}

func (s *memStore) CompleteJob(_ context.Context, id uuid.UUID, resultText string) (models.JobStatus, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.completeErr != nil {
		return "", s.completeErr
	}
	job, ok := s.jobs[id]
	if !ok {
		return "", store.ErrNotFound
	}
	if job.Status.IsTerminal() {
		return job.Status, nil
	}
	now := time.Now().UTC()
	job.Status = models.JobStatusCompleted
	job.ResultText = &resultText
	job.ErrorMessage = nil
	job.CompletedAt = &now
	job.UpdatedAt = now
	return job.Status, nil
}

func (s *memStore) FailJob(_ context.Context, id uuid.UUID, errorMessage string) (models.JobStatus, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	job, ok := s.jobs[id]
	if !ok {
		return "", store.ErrNotFound
	}
	if job.Status.IsTerminal() {
		return job.Status, nil
	}
	now := time.Now().UTC()
	job.Status = models.JobStatusFailed
	job.ErrorMessage = &errorMessage
	job.ResultText = nil
	job.CompletedAt = &now
	job.UpdatedAt = now
	return job.Status, nil
}

func (s *memStore) UpsertOwner(_ context.Context, name, email *string) (*models.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if email != nil {
		for _, u := range s.users {
			if u.Email != nil && *u.Email == *email {
				if u.Name == nil && name != nil {
					u.Name = name
				}
				cp := *u
				return &cp, nil
			}
		}
	}
	u := &models.User{ID: uuid.New(), Name: name, Email: email, CreatedAt: time.Now().UTC()}
	s.users[u.ID] = u
	cp := *u
	return &cp, nil
}

func (s *memStore) GetOwner(_ context.Context, id uuid.UUID) (*models.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.users[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	cp := *u
	return &cp, nil
}

var _ store.Store = (*memStore)(nil)

// memBackend is an in-memory taskq.Backend recording enqueues and serving
// canned states.
type memBackend struct {
	mu         sync.Mutex
	enqueued   []taskq.AnalyzePayload
	states     map[string]taskq.TaskState
	enqueueErr error
	stateErr   error
}

func newMemBackend() *memBackend {
	return &memBackend{states: make(map[string]taskq.TaskState)}
}

func (b *memBackend) Enqueue(_ context.Context, p taskq.AnalyzePayload) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.enqueueErr != nil {
		return b.enqueueErr
	}
	for _, q := range b.enqueued {
		if q.JobID == p.JobID {
			return fmt.Errorf("task id %s already enqueued", p.JobID)
		}
	}
	b.enqueued = append(b.enqueued, p)
	b.states[p.JobID] = taskq.StatePending
	return nil
}

func (b *memBackend) StateOf(_ context.Context, jobID string) (taskq.TaskState, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.stateErr != nil {
		return taskq.StateUnknown, b.stateErr
	}
	return b.states[jobID], nil
}

func (b *memBackend) setState(jobID string, state taskq.TaskState) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.states[jobID] = state
}

func (b *memBackend) tasks() []taskq.AnalyzePayload {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]taskq.AnalyzePayload(nil), b.enqueued...)
}

var _ taskq.Backend = (*memBackend)(nil)

// memCache is an in-memory cache.Cache.
type memCache struct {
	mu       sync.Mutex
	statuses map[uuid.UUID]models.JobStatus
	counters map[string]int64
}

func newMemCache() *memCache {
	return &memCache{
		statuses: make(map[uuid.UUID]models.JobStatus),
		counters: make(map[string]int64),
	}
}

func (c *memCache) Ping(context.Context) error { return nil }
func (c *memCache) Close() error               { return nil }

func (c *memCache) SetJobStatus(_ context.Context, jobID uuid.UUID, status models.JobStatus, _ time.Duration) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.statuses[jobID] = status
	return nil
}

func (c *memCache) GetJobStatus(_ context.Context, jobID uuid.UUID) (models.JobStatus, bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	status, ok := c.statuses[jobID]
	return status, ok, nil
}

func (c *memCache) IncrWithExpiry(_ context.Context, key string, _ time.Duration) (int64, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.counters[key]++
	return c.counters[key], nil
}
