package pipeline

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"pogopipe/internal/store"
)

// JobSubmitter creates and enqueues a processing job for an already
// resolved artifact. Implemented by Service.
type JobSubmitter interface {
	SubmitJob(ctx context.Context, artifact *store.Artifact, priority store.Priority) (*store.Job, error)
}

// Coordinator fans one session out into per-artifact jobs. Artifacts
// with an unsupported capture type or no stored data are skipped
// silently so a single bad artifact never blocks the rest of the batch.
type Coordinator struct {
	artifacts store.ArtifactStore
	submitter JobSubmitter
	logger    *slog.Logger
}

func NewCoordinator(artifacts store.ArtifactStore, submitter JobSubmitter, logger *slog.Logger) *Coordinator {
	return &Coordinator{
		artifacts: artifacts,
		submitter: submitter,
		logger:    logger,
	}
}

// ProcessSession enqueues one medium-priority job per processable
// artifact in the session. Submission failures are logged and counted
// against Queued, never returned, so partial fan-out is possible.
func (c *Coordinator) ProcessSession(ctx context.Context, sessionID uuid.UUID) (*BatchResult, error) {
	artifacts, err := c.artifacts.ListSessionArtifacts(ctx, sessionID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrSessionNotFound
		}
		return nil, fmt.Errorf("list session artifacts: %w", err)
	}

	result := &BatchResult{
		SessionID: sessionID,
		Total:     len(artifacts),
	}

	for i := range artifacts {
		artifact := &artifacts[i]
		log := c.logger.With(
			slog.String("session_id", sessionID.String()),
			slog.String("artifact_id", artifact.ID.String()),
		)

		if !artifact.CaptureType.Supported() {
			log.Warn("skipping artifact with unsupported capture type",
				slog.String("capture_type", string(artifact.CaptureType)))
			continue
		}
		if artifact.URL == "" {
			log.Warn("skipping artifact without stored data")
			continue
		}

		job, err := c.submitter.SubmitJob(ctx, artifact, store.PriorityMedium)
		if err != nil {
			log.Error("failed to enqueue artifact job", slog.String("error", err.Error()))
			continue
		}

		result.Queued++
		result.Jobs = append(result.Jobs, QueuedJob{
			JobID:       job.ID,
			ArtifactID:  artifact.ID,
			CaptureType: artifact.CaptureType,
		})
	}

	return result, nil
}
