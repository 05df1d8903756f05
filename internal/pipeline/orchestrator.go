package pipeline

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"pogopipe/internal/analyzer"
	"pogopipe/internal/storage"
	"pogopipe/internal/store"
)

// Indexer pushes processed content into the vector store. Indexing is
// best effort: failures never fail the processing attempt.
type Indexer interface {
	Index(ctx context.Context, content string, artifactID, sessionID uuid.UUID, metadata map[string]string) error
}

// Orchestrator runs a single artifact through its full processing
// attempt: lookup, idempotency check, analyzer dispatch, result append
// and vector indexing. Every attempt appends at most two updates, one
// "processing" marker before the inference call and one terminal
// "processed" or "failed" record after it.
type Orchestrator struct {
	artifacts store.ArtifactStore
	updates   store.UpdateLog
	blobs     storage.BlobReader
	analyzers map[store.CaptureType]analyzer.Analyzer
	indexer   Indexer
	logger    *slog.Logger
}

func NewOrchestrator(
	artifacts store.ArtifactStore,
	updates store.UpdateLog,
	blobs storage.BlobReader,
	analyzers map[store.CaptureType]analyzer.Analyzer,
	indexer Indexer,
	logger *slog.Logger,
) *Orchestrator {
	return &Orchestrator{
		artifacts: artifacts,
		updates:   updates,
		blobs:     blobs,
		analyzers: analyzers,
		indexer:   indexer,
		logger:    logger,
	}
}

// Process executes one processing attempt. A non-nil error means the
// attempt could not run at all (unknown artifact, unsupported type,
// store failure); analyzer and blob failures are recorded as a failed
// update and reported through the result instead.
func (o *Orchestrator) Process(ctx context.Context, req ProcessRequest) (*ProcessResult, error) {
	log := o.logger.With(
		slog.String("artifact_id", req.ArtifactID.String()),
		slog.String("job_id", req.JobID.String()),
	)

	artifact, err := o.artifacts.FindArtifact(ctx, req.ArtifactID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrArtifactNotFound
		}
		return nil, fmt.Errorf("find artifact: %w", err)
	}

	done, err := o.updates.HasProcessed(ctx, artifact.ID)
	if err != nil {
		return nil, fmt.Errorf("idempotency check: %w", err)
	}
	if done {
		log.Info("artifact already processed, skipping")
		return &ProcessResult{
			Outcome:    OutcomeAlreadyProcessed,
			ArtifactID: artifact.ID,
		}, nil
	}

	an, ok := o.analyzers[artifact.CaptureType]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedType, artifact.CaptureType)
	}

	if err := o.appendUpdate(ctx, artifact, req, an.Name(), store.UpdateProcessing, "", ""); err != nil {
		return nil, fmt.Errorf("append processing update: %w", err)
	}

	data, err := o.blobs.Read(ctx, artifact.URL)
	if err != nil {
		return o.fail(ctx, artifact, req, an.Name(), fmt.Sprintf("read artifact data: %v", err), log)
	}

	meta := analyzer.Metadata{
		ArtifactID:  artifact.ID,
		SessionID:   artifact.SessionID,
		Priority:    req.Priority,
		CaptureType: artifact.CaptureType,
		CaptureName: artifact.CaptureName,
	}

	started := time.Now()
	content, err := an.Analyze(ctx, data, meta)
	if err != nil {
		return o.fail(ctx, artifact, req, an.Name(), fmt.Sprintf("analyze %s: %v", artifact.CaptureType, err), log)
	}

	if err := o.appendUpdate(ctx, artifact, req, an.Name(), store.UpdateProcessed, content, ""); err != nil {
		return nil, fmt.Errorf("append processed update: %w", err)
	}

	log.Info("artifact processed",
		slog.String("processor", an.Name()),
		slog.Duration("duration", time.Since(started)),
	)

	if o.indexer != nil && content != "" {
		indexMeta := map[string]string{
			"processor":    an.Name(),
			"capture_type": string(artifact.CaptureType),
			"capture_name": artifact.CaptureName,
		}
		if err := o.indexer.Index(ctx, content, artifact.ID, artifact.SessionID, indexMeta); err != nil {
			log.Warn("vector indexing failed", slog.String("error", err.Error()))
		}
	}

	return &ProcessResult{
		Outcome:    OutcomeProcessed,
		ArtifactID: artifact.ID,
		Processor:  an.Name(),
		Content:    content,
	}, nil
}

func (o *Orchestrator) fail(ctx context.Context, artifact *store.Artifact, req ProcessRequest, processor, msg string, log *slog.Logger) (*ProcessResult, error) {
	log.Error("processing failed", slog.String("error", msg))

	if err := o.appendUpdate(ctx, artifact, req, processor, store.UpdateFailed, "", msg); err != nil {
		return nil, fmt.Errorf("append failed update: %w", err)
	}

	return &ProcessResult{
		Outcome:      OutcomeFailed,
		ArtifactID:   artifact.ID,
		Processor:    processor,
		ErrorMessage: msg,
	}, nil
}

func (o *Orchestrator) appendUpdate(ctx context.Context, artifact *store.Artifact, req ProcessRequest, processor string, status store.UpdateStatus, content, errMsg string) error {
	return o.updates.AppendUpdate(ctx, &store.ProcessingUpdate{
		ID:           uuid.New(),
		ArtifactID:   artifact.ID,
		SessionID:    artifact.SessionID,
		Status:       status,
		Content:      content,
		ErrorMessage: errMsg,
		Processor:    processor,
		JobID:        req.JobID,
		Priority:     req.Priority,
		CreatedAt:    time.Now().UTC(),
	})
}
