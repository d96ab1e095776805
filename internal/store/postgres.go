package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/docsight-ai/docsight/pkg/models"
)

// PostgresStore implements the Store interface using pgx/v5.
type PostgresStore struct {
	pool *pgxpool.Pool
}

// NewPostgresStore creates a new PostgresStore.
func NewPostgresStore(pool *pgxpool.Pool) *PostgresStore {
	return &PostgresStore{pool: pool}
}

// Ping checks database connectivity.
func (s *PostgresStore) Ping(ctx context.Context) error {
	return s.pool.Ping(ctx)
}

// --- Jobs ---

func (s *PostgresStore) CreateJob(ctx context.Context, job *models.Job) error {
	_, err := s.pool.Exec(ctx,
		`INSERT INTO jobs (id, owner_id, query, file_name, file_path, status, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		job.ID, job.OwnerID, job.Query, job.FileName, job.FilePath, job.Status, job.CreatedAt, job.UpdatedAt)
	if err != nil {
		if isDuplicateKeyError(err) {
			return ErrDuplicateKey
		}
		return fmt.Errorf("create job: %w", err)
	}
	return nil
}

func (s *PostgresStore) GetJob(ctx context.Context, id uuid.UUID) (*models.Job, error) {
	var j models.Job
	err := s.pool.QueryRow(ctx,
		`SELECT id, owner_id, query, file_name, file_path, status, result_text, error_message, created_at, updated_at, completed_at
		 FROM jobs WHERE id = $1`, id,
	).Scan(&j.ID, &j.OwnerID, &j.Query, &j.FileName, &j.FilePath, &j.Status,
		&j.ResultText, &j.ErrorMessage, &j.CreatedAt, &j.UpdatedAt, &j.CompletedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get job: %w", err)
	}
	return &j, nil
}

func (s *PostgresStore) ListJobsByOwner(ctx context.Context, ownerID uuid.UUID) ([]*models.Job, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT id, owner_id, query, file_name, file_path, status, result_text, error_message, created_at, updated_at, completed_at
		 FROM jobs WHERE owner_id = $1 ORDER BY created_at DESC`, ownerID)
	if err != nil {
		return nil, fmt.Errorf("list jobs by owner: %w", err)
	}
	defer rows.Close()

	var jobs []*models.Job
	for rows.Next() {
		var j models.Job
		if err := rows.Scan(&j.ID, &j.OwnerID, &j.Query, &j.FileName, &j.FilePath, &j.Status,
			&j.ResultText, &j.ErrorMessage, &j.CreatedAt, &j.UpdatedAt, &j.CompletedAt); err != nil {
			return nil, fmt.Errorf("scan job: %w", err)
		}
		jobs = append(jobs, &j)
	}
	return jobs, rows.Err()
}

func (s *PostgresStore) MarkJobProcessing(ctx context.Context, id uuid.UUID) (models.JobStatus, error) {
	// Single-statement CAS: only a queued row moves. A row that is already
	// processing or terminal is left untouched and its status returned.
	tag, err := s.pool.Exec(ctx,
		`UPDATE jobs SET status = $2, updated_at = $3 WHERE id = $1 AND status = $4`,
		id, models.JobStatusProcessing, time.Now().UTC(), models.JobStatusQueued)
	if err != nil {
		return "", fmt.Errorf("mark job processing: %w", err)
	}
	if tag.RowsAffected() == 1 {
		return models.JobStatusProcessing, nil
	}
	return s.currentStatus(ctx, id)
}

func (s *PostgresStore) CompleteJob(ctx context.Context, id uuid.UUID, resultText string) (models.JobStatus, error) {
	now := time.Now().UTC()
	tag, err := s.pool.Exec(ctx,
		`UPDATE jobs SET status = $2, result_text = $3, error_message = NULL, completed_at = $4, updated_at = $4
		 WHERE id = $1 AND status IN ($5, $6)`,
		id, models.JobStatusCompleted, resultText, now,
		models.JobStatusQueued, models.JobStatusProcessing)
	if err != nil {
		return "", fmt.Errorf("complete job: %w", err)
	}
	if tag.RowsAffected() == 1 {
		return models.JobStatusCompleted, nil
	}
	return s.currentStatus(ctx, id)
}

func (s *PostgresStore) FailJob(ctx context.Context, id uuid.UUID, errorMessage string) (models.JobStatus, error) {
	now := time.Now().UTC()
	tag, err := s.pool.Exec(ctx,
		`UPDATE jobs SET status = $2, error_message = $3, result_text = NULL, completed_at = $4, updated_at = $4
		 WHERE id = $1 AND status IN ($5, $6)`,
		id, models.JobStatusFailed, errorMessage, now,
		models.JobStatusQueued, models.JobStatusProcessing)
	if err != nil {
		return "", fmt.Errorf("fail job: %w", err)
	}
	if tag.RowsAffected() == 1 {
		return models.JobStatusFailed, nil
	}
	return s.currentStatus(ctx, id)
}

func (s *PostgresStore) currentStatus(ctx context.Context, id uuid.UUID) (models.JobStatus, error) {
	var status models.JobStatus
	err := s.pool.QueryRow(ctx, `SELECT status FROM jobs WHERE id = $1`, id).Scan(&status)
	if errors.Is(err, pgx.ErrNoRows) {
		return "", ErrNotFound
	}
	if err != nil {
		return "", fmt.Errorf("get job status: %w", err)
	}
	return status, nil
}

// --- Owners ---

func (s *PostgresStore) UpsertOwner(ctx context.Context, name, email *string) (*models.User, error) {
	now := time.Now().UTC()

	// Without an email there is nothing to conflict on; every such
	// submission gets its own row, matching multiple-NULL-email semantics.
	if email == nil {
		u := models.User{ID: uuid.New(), Name: name, CreatedAt: now}
		_, err := s.pool.Exec(ctx,
			`INSERT INTO users (id, name, email, created_at) VALUES ($1, $2, NULL, $3)`,
			u.ID, u.Name, u.CreatedAt)
		if err != nil {
			return nil, fmt.Errorf("create owner: %w", err)
		}
		return &u, nil
	}

	// COALESCE keeps the first non-empty name regardless of which concurrent
	// submission wins the insert.
	var u models.User
	err := s.pool.QueryRow(ctx,
		`INSERT INTO users (id, name, email, created_at)
		 VALUES ($1, $2, $3, $4)
		 ON CONFLICT (email) DO UPDATE SET name = COALESCE(users.name, EXCLUDED.name)
		 RETURNING id, name, email, created_at`,
		uuid.New(), name, *email, now,
	).Scan(&u.ID, &u.Name, &u.Email, &u.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("upsert owner: %w", err)
	}
	return &u, nil
}

func (s *PostgresStore) GetOwner(ctx context.Context, id uuid.UUID) (*models.User, error) {
	var u models.User
	err := s.pool.QueryRow(ctx,
		`SELECT id, name, email, created_at FROM users WHERE id = $1`, id,
	).Scan(&u.ID, &u.Name, &u.Email, &u.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get owner: %w", err)
	}
	return &u, nil
}

// isDuplicateKeyError checks if a pgx error is a unique constraint violation.
func isDuplicateKeyError(err error) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == "23505" // unique_violation
	}
	return false
}
