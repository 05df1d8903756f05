package pipeline

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"pogopipe/internal/store"
)

// ServiceStore is the storage surface the submission service needs.
// *postgres.Store satisfies it.
type ServiceStore interface {
	BeginTx(ctx context.Context) (store.Tx, error)
	store.ArtifactStore
	store.SessionStore
	store.UpdateLog
	store.JobStore
	store.Queue
}

// Service owns the write paths of the pipeline API: submitting
// artifacts and sessions for processing, retrying failures and reading
// back status from the update log.
type Service struct {
	store  ServiceStore
	logger *slog.Logger
}

func NewService(st ServiceStore, logger *slog.Logger) *Service {
	return &Service{store: st, logger: logger}
}

// SubmitArtifact resolves the artifact, validates it and enqueues a
// processing job at the given priority. A "processing" update carrying
// the job ID is appended so Status can report the artifact as queued
// before a worker picks the job up.
func (s *Service) SubmitArtifact(ctx context.Context, artifactID uuid.UUID, priority store.Priority) (*store.Job, error) {
	if !priority.Valid() {
		return nil, fmt.Errorf("%w: %s", ErrInvalidPriority, priority)
	}

	artifact, err := s.store.FindArtifact(ctx, artifactID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrArtifactNotFound
		}
		return nil, fmt.Errorf("find artifact: %w", err)
	}

	return s.SubmitJob(ctx, artifact, priority)
}

// SubmitJob creates and enqueues an artifact job for an already
// resolved artifact. Unsupported capture types are rejected before any
// queue interaction.
func (s *Service) SubmitJob(ctx context.Context, artifact *store.Artifact, priority store.Priority) (*store.Job, error) {
	return s.submitArtifactJob(ctx, artifact, priority, nil)
}

func (s *Service) submitArtifactJob(ctx context.Context, artifact *store.Artifact, priority store.Priority, retriedFrom *uuid.UUID) (*store.Job, error) {
	if !artifact.CaptureType.Supported() {
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedType, artifact.CaptureType)
	}

	job := &store.Job{
		ID:          uuid.New(),
		ArtifactID:  artifact.ID,
		SessionID:   artifact.SessionID,
		TenantID:    artifact.TenantID,
		Queue:       artifact.CaptureType.Queue(),
		Kind:        store.JobKindArtifact,
		CaptureType: artifact.CaptureType,
		Priority:    priority,
		Status:      store.JobQueued,
		RetriedFrom: retriedFrom,
		CreatedAt:   time.Now().UTC(),
	}

	if err := s.enqueue(ctx, job); err != nil {
		return nil, err
	}

	// Recorded outside the enqueue transaction: a stray "processing"
	// marker without a job is harmless, a committed job without its
	// marker would make Status lie until the worker appends one.
	update := &store.ProcessingUpdate{
		ID:         uuid.New(),
		ArtifactID: artifact.ID,
		SessionID:  artifact.SessionID,
		Status:     store.UpdateProcessing,
		JobID:      job.ID,
		Priority:   priority,
		CreatedAt:  time.Now().UTC(),
	}
	if err := s.store.AppendUpdate(ctx, update); err != nil {
		s.logger.Warn("failed to append submission update",
			slog.String("artifact_id", artifact.ID.String()),
			slog.String("job_id", job.ID.String()),
			slog.String("error", err.Error()),
		)
	}

	s.logger.Info("artifact job enqueued",
		slog.String("artifact_id", artifact.ID.String()),
		slog.String("job_id", job.ID.String()),
		slog.String("queue", job.Queue),
		slog.String("priority", string(priority)),
	)

	return job, nil
}

// SubmitSessionJob enqueues a single session batch job on the session
// queue. The fan-out into per-artifact jobs happens on the worker.
func (s *Service) SubmitSessionJob(ctx context.Context, sessionID uuid.UUID) (*store.Job, error) {
	sess, err := s.store.GetSession(ctx, sessionID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrSessionNotFound
		}
		return nil, fmt.Errorf("find session: %w", err)
	}

	job := &store.Job{
		ID:        uuid.New(),
		SessionID: sess.ID,
		TenantID:  sess.TenantID,
		Queue:     store.QueueSession,
		Kind:      store.JobKindSession,
		Priority:  store.PriorityMedium,
		Status:    store.JobQueued,
		CreatedAt: time.Now().UTC(),
	}

	if err := s.enqueue(ctx, job); err != nil {
		return nil, err
	}

	s.logger.Info("session job enqueued",
		slog.String("session_id", sess.ID.String()),
		slog.String("job_id", job.ID.String()),
	)

	return job, nil
}

// Retry resubmits an artifact after a failure, reusing the priority of
// the failed attempt. Artifacts without a failed update on record are
// rejected with ErrNoFailureFound.
func (s *Service) Retry(ctx context.Context, artifactID uuid.UUID) (*store.Job, error) {
	failed := store.UpdateFailed
	update, err := s.store.LatestUpdate(ctx, artifactID, &failed)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNoFailureFound
		}
		return nil, fmt.Errorf("find failed update: %w", err)
	}

	priority := update.Priority
	if !priority.Valid() {
		priority = store.PriorityMedium
	}

	artifact, err := s.store.FindArtifact(ctx, artifactID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrArtifactNotFound
		}
		return nil, fmt.Errorf("find artifact: %w", err)
	}

	var retriedFrom *uuid.UUID
	if update.JobID != uuid.Nil {
		id := update.JobID
		retriedFrom = &id
	}

	job, err := s.submitArtifactJob(ctx, artifact, priority, retriedFrom)
	if err != nil {
		return nil, err
	}

	s.logger.Info("artifact retry enqueued",
		slog.String("artifact_id", artifactID.String()),
		slog.String("job_id", job.ID.String()),
		slog.String("failed_update_id", update.ID.String()),
	)

	return job, nil
}

// Status reports the latest processing state of an artifact by reading
// the most recent update and, when it links a job, the job record.
func (s *Service) Status(ctx context.Context, artifactID uuid.UUID) (*StatusResult, error) {
	update, err := s.store.LatestUpdate(ctx, artifactID, nil)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNoTaskFound
		}
		return nil, fmt.Errorf("find latest update: %w", err)
	}

	result := &StatusResult{
		ArtifactID:   artifactID,
		Status:       update.Status,
		Priority:     update.Priority,
		ErrorMessage: update.ErrorMessage,
	}

	if update.JobID != uuid.Nil {
		job, err := s.store.GetJobByID(ctx, update.JobID)
		switch {
		case err == nil:
			result.JobID = job.ID
			result.JobStatus = job.Status
			result.Attempt = job.Attempt
			result.StartedAt = job.StartedAt
			result.FinishedAt = job.FinishedAt
		case errors.Is(err, sql.ErrNoRows):
			// Update predates the job table or the job was purged.
		default:
			return nil, fmt.Errorf("find job: %w", err)
		}
	}

	return result, nil
}

// LatestProcessedContent returns the content of the most recent
// successful processing attempt, or empty when none exists.
func (s *Service) LatestProcessedContent(ctx context.Context, artifactID uuid.UUID) (string, error) {
	processed := store.UpdateProcessed
	update, err := s.store.LatestUpdate(ctx, artifactID, &processed)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return "", nil
		}
		return "", fmt.Errorf("find processed update: %w", err)
	}
	return update.Content, nil
}

func (s *Service) enqueue(ctx context.Context, job *store.Job) error {
	tx, err := s.store.BeginTx(ctx)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback()

	if err := s.store.CreateJob(ctx, tx, job); err != nil {
		return fmt.Errorf("create job: %w", err)
	}
	if _, err := s.store.Enqueue(ctx, tx, job.ID, time.Now().UTC()); err != nil {
		return fmt.Errorf("enqueue job: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}
	return nil
}
