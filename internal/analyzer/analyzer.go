// Package analyzer turns raw artifact content into text via external
// AI inference. Analyzers are stateless; one is constructed per
// capture type at startup and injected into the orchestrator.
package analyzer

import (
	"context"

	"pogopipe/internal/store"

	"github.com/google/uuid"
)

// Metadata identifies the artifact an analysis call belongs to.
type Metadata struct {
	ArtifactID  uuid.UUID
	SessionID   uuid.UUID
	Priority    store.Priority
	CaptureType store.CaptureType
	CaptureName string
}

// Analyzer converts raw artifact bytes into analysis text.
type Analyzer interface {
	// Analyze runs the type-specific inference call and returns the
	// resulting text. The call blocks for the full duration of the
	// inference request.
	Analyze(ctx context.Context, data []byte, meta Metadata) (string, error)

	// Name tags ProcessingUpdate records produced from this analyzer.
	Name() string
}
