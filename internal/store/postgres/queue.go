package postgres

import (
	"context"
	"fmt"
	"time"

	"pogopipe/internal/store"

	"github.com/google/uuid"
	"github.com/lib/pq"
)

// VisibilityTimeout is how long a claimed job stays invisible to other
// workers before it is assumed lost and becomes claimable again.
const VisibilityTimeout = 5 * time.Minute

// Enqueue adds a job to the job_queue. The queue entry copies the
// job's routing fields so the claim query never joins for them.
func (s *Store) Enqueue(ctx context.Context, tx store.DBTransaction, jobID uuid.UUID, visibleAfter time.Time) (int64, error) {
	if visibleAfter.IsZero() {
		visibleAfter = time.Now()
	}

	query := `
		INSERT INTO job_queue (job_id, tenant_id, queue, priority, visible_after)
		SELECT id, tenant_id, queue,
			CASE priority WHEN 'high' THEN 0 WHEN 'medium' THEN 1 ELSE 2 END,
			$2
		FROM jobs
		WHERE id = $1
		RETURNING id
	`

	executor := s.getExecutor(tx)

	var id int64
	err := executor.QueryRowContext(ctx, query, jobID, visibleAfter).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("failed to enqueue job %s: %w", jobID, err)
	}

	return id, nil
}

// DequeueBatch claims up to 'limit' available jobs atomically using
// SELECT ... FOR UPDATE SKIP LOCKED. Claims are ordered by priority
// rank then FIFO, restricted to the given named queues, and a tenant
// at its tier's concurrent-job cap is skipped entirely.
// Returns nil slice if no jobs are available.
func (s *Store) DequeueBatch(ctx context.Context, queues []string, limit int) ([]store.QueueItem, error) {
	if limit <= 0 {
		limit = 1
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	args := []interface{}{limit}
	whereClause := "WHERE q.visible_after <= NOW()"

	if len(queues) > 0 {
		whereClause += " AND q.queue = ANY($2)"
		args = append(args, pq.Array(queues))
	}

	// Tier enforcement lives here, not in the orchestrator: a tenant
	// already running its limit of jobs keeps its entries queued.
	selectQuery := fmt.Sprintf(`
		SELECT q.id, j.id, j.artifact_id, j.session_id, j.tenant_id,
		       j.queue, j.kind, j.capture_type, j.priority, j.attempt
		FROM job_queue q
		JOIN jobs j ON j.id = q.job_id
		JOIN tenants t ON t.id = q.tenant_id
		%s
		AND (
			SELECT COUNT(*) FROM jobs r
			WHERE r.tenant_id = q.tenant_id AND r.status = 'running'
		) < CASE t.tier WHEN 'pro' THEN 10 ELSE 2 END
		ORDER BY q.priority ASC, q.created_at ASC
		FOR UPDATE OF q SKIP LOCKED
		LIMIT $1
	`, whereClause)

	rows, err := tx.QueryContext(ctx, selectQuery, args...)
	if err != nil {
		return nil, fmt.Errorf("batch dequeue query failed: %w", err)
	}
	defer rows.Close()

	var items []store.QueueItem
	var queueIDs []int64
	var jobIDs []uuid.UUID

	for rows.Next() {
		var queueID int64
		var job store.Job
		var artifactID uuid.NullUUID
		if err := rows.Scan(
			&queueID, &job.ID, &artifactID, &job.SessionID, &job.TenantID,
			&job.Queue, &job.Kind, &job.CaptureType, &job.Priority, &job.Attempt,
		); err != nil {
			return nil, fmt.Errorf("batch dequeue scan failed: %w", err)
		}
		if artifactID.Valid {
			job.ArtifactID = artifactID.UUID
		}
		items = append(items, store.QueueItem{JobID: job.ID, Job: &job})
		queueIDs = append(queueIDs, queueID)
		jobIDs = append(jobIDs, job.ID)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("batch dequeue rows error: %w", err)
	}

	// Empty queue
	if len(items) == 0 {
		return nil, nil
	}

	// Bulk update visibility timeout for all claimed jobs
	_, err = tx.ExecContext(ctx, `
		UPDATE job_queue
		SET visible_after = NOW() + ($1 * INTERVAL '1 second')
		WHERE id = ANY($2)
	`, VisibilityTimeout.Seconds(), pq.Array(queueIDs))
	if err != nil {
		return nil, fmt.Errorf("batch visibility update failed: %w", err)
	}

	// Bulk update job status to running
	_, err = tx.ExecContext(ctx, `
		UPDATE jobs
		SET status = $1, started_at = COALESCE(started_at, NOW()), attempt = attempt + 1
		WHERE id = ANY($2)
	`, store.JobRunning, pq.Array(jobIDs))
	if err != nil {
		return nil, fmt.Errorf("batch status update failed: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, err
	}

	return items, nil
}

// Complete marks a job succeeded and removes its queue entry.
func (s *Store) Complete(ctx context.Context, tx store.DBTransaction, jobID uuid.UUID) error {
	executor := s.getExecutor(tx)

	_, err := executor.ExecContext(ctx, "DELETE FROM job_queue WHERE job_id = $1", jobID)
	if err != nil {
		return err
	}

	_, err = executor.ExecContext(ctx, `
		UPDATE jobs
		SET status = $1, finished_at = NOW()
		WHERE id = $2
	`, store.JobSucceeded, jobID)

	return err
}

// Fail marks a job failed and removes its queue entry. There is no
// automatic resubmission: repeated retries against a paid inference
// API would be costly, so retries are explicit user-triggered actions
// that create a brand-new job.
func (s *Store) Fail(ctx context.Context, tx store.DBTransaction, jobID uuid.UUID, errMsg string) error {
	executor := s.getExecutor(tx)

	_, err := executor.ExecContext(ctx, "DELETE FROM job_queue WHERE job_id = $1", jobID)
	if err != nil {
		return fmt.Errorf("failed to delete failed job from queue: %w", err)
	}

	_, err = executor.ExecContext(ctx, `
		UPDATE jobs
		SET status = $1, error_message = $2, finished_at = NOW()
		WHERE id = $3
	`, store.JobFailed, errMsg, jobID)
	return err
}

// SetVisibleAfter extends the heartbeat.
func (s *Store) SetVisibleAfter(ctx context.Context, tx store.DBTransaction, jobID uuid.UUID, visibleAfter time.Time) error {
	executor := s.getExecutor(tx)
	_, err := executor.ExecContext(ctx, `
		UPDATE job_queue
		SET visible_after = $1
		WHERE job_id = $2
	`, visibleAfter, jobID)
	return err
}

// Count returns the number of queued entries across all named queues.
func (s *Store) Count(ctx context.Context) (int64, error) {
	var count int64
	err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM job_queue").Scan(&count)
	if err != nil {
		return 0, err
	}
	return count, nil
}

// CountRunningJobs returns the number of jobs currently running for a
// given tenant. The readout is advisory; the claim query in
// DequeueBatch enforces the tier cap itself.
func (s *Store) CountRunningJobs(ctx context.Context, tenantID uuid.UUID) (int64, error) {
	var count int64
	err := s.db.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM jobs WHERE tenant_id = $1 AND status = $2",
		tenantID, store.JobRunning,
	).Scan(&count)
	if err != nil {
		return 0, err
	}
	return count, nil
}
