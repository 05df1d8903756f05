package postgres

import (
	"context"

	"pogopipe/internal/store"

	"github.com/google/uuid"
)

// CreateJob inserts a new job row in the queued state.
func (s *Store) CreateJob(ctx context.Context, tx store.DBTransaction, job *store.Job) error {
	query := `
		INSERT INTO jobs (id, artifact_id, session_id, tenant_id, queue, kind, capture_type, priority, status, retried_from, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
	`

	executor := s.getExecutor(tx)

	var artifactID interface{}
	if job.ArtifactID != uuid.Nil {
		artifactID = job.ArtifactID
	}

	_, err := executor.ExecContext(ctx, query,
		job.ID,
		artifactID,
		job.SessionID,
		job.TenantID,
		job.Queue,
		job.Kind,
		job.CaptureType,
		job.Priority,
		job.Status,
		job.RetriedFrom,
		job.CreatedAt,
	)
	return err
}

// GetJobByID returns a job by its ID.
func (s *Store) GetJobByID(ctx context.Context, id uuid.UUID) (*store.Job, error) {
	query := `
		SELECT id, artifact_id, session_id, tenant_id, queue, kind, capture_type,
		       priority, status, attempt, retried_from, error_message,
		       created_at, started_at, finished_at
		FROM jobs WHERE id = $1
	`

	var job store.Job
	var artifactID, retriedFrom uuid.NullUUID

	err := s.db.QueryRowContext(ctx, query, id).Scan(
		&job.ID, &artifactID, &job.SessionID, &job.TenantID,
		&job.Queue, &job.Kind, &job.CaptureType,
		&job.Priority, &job.Status, &job.Attempt, &retriedFrom, &job.ErrorMessage,
		&job.CreatedAt, &job.StartedAt, &job.FinishedAt,
	)
	if err != nil {
		return nil, err
	}

	if artifactID.Valid {
		job.ArtifactID = artifactID.UUID
	}
	if retriedFrom.Valid {
		id := retriedFrom.UUID
		job.RetriedFrom = &id
	}

	return &job, nil
}
