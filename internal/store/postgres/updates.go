package postgres

import (
	"context"
	"fmt"

	"pogopipe/internal/store"

	"github.com/google/uuid"
)

// AppendUpdate inserts one ProcessingUpdate record. The log is
// append-only: attempts are never edited in place, each one adds a
// new row.
func (s *Store) AppendUpdate(ctx context.Context, update *store.ProcessingUpdate) error {
	query := `
		INSERT INTO processing_updates (id, artifact_id, session_id, status, content, error_message, processor, job_id, priority, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
	`

	var jobID interface{}
	if update.JobID != uuid.Nil {
		jobID = update.JobID
	}

	_, err := s.db.ExecContext(ctx, query,
		update.ID,
		update.ArtifactID,
		update.SessionID,
		update.Status,
		update.Content,
		update.ErrorMessage,
		update.Processor,
		jobID,
		update.Priority,
		update.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to append processing update for artifact %s: %w", update.ArtifactID, err)
	}
	return nil
}

// LatestUpdate returns the most recent update for the artifact,
// optionally filtered by status. Returns sql.ErrNoRows when none match.
func (s *Store) LatestUpdate(ctx context.Context, artifactID uuid.UUID, status *store.UpdateStatus) (*store.ProcessingUpdate, error) {
	query := `
		SELECT id, artifact_id, session_id, status, content, error_message, processor, job_id, priority, created_at
		FROM processing_updates
		WHERE artifact_id = $1
	`
	args := []interface{}{artifactID}

	if status != nil {
		query += " AND status = $2"
		args = append(args, *status)
	}
	query += " ORDER BY created_at DESC LIMIT 1"

	var update store.ProcessingUpdate
	var jobID uuid.NullUUID

	err := s.db.QueryRowContext(ctx, query, args...).Scan(
		&update.ID, &update.ArtifactID, &update.SessionID,
		&update.Status, &update.Content, &update.ErrorMessage,
		&update.Processor, &jobID, &update.Priority, &update.CreatedAt,
	)
	if err != nil {
		return nil, err
	}

	if jobID.Valid {
		update.JobID = jobID.UUID
	}

	return &update, nil
}

// HasProcessed reports whether at least one "processed" update exists
// for the artifact. Prior failed or in-flight attempts do not count;
// this existence check is what makes duplicate enqueues safe.
func (s *Store) HasProcessed(ctx context.Context, artifactID uuid.UUID) (bool, error) {
	query := `
		SELECT EXISTS (
			SELECT 1 FROM processing_updates
			WHERE artifact_id = $1 AND status = $2
		)
	`

	var exists bool
	err := s.db.QueryRowContext(ctx, query, artifactID, store.UpdateProcessed).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("processed check failed for artifact %s: %w", artifactID, err)
	}
	return exists, nil
}
