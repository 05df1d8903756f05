// Package handlers contains HTTP handlers for the controller API.
package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/google/uuid"

	"pogopipe/internal/pipeline"
	"pogopipe/internal/store"
	"pogopipe/pkg/api"
)

// StoreFactory combines the store interfaces the controller needs.
type StoreFactory interface {
	Ping(ctx context.Context) error
	store.TenantStore
	store.ArtifactStore
	store.SessionStore

	// CountRunningJobs returns how many jobs the tenant is currently
	// running, for the usage readout against its tier cap.
	CountRunningJobs(ctx context.Context, tenantID uuid.UUID) (int64, error)
}

// PipelineService is the submission and status surface of the pipeline.
// Implemented by pipeline.Service.
type PipelineService interface {
	SubmitArtifact(ctx context.Context, artifactID uuid.UUID, priority store.Priority) (*store.Job, error)
	SubmitSessionJob(ctx context.Context, sessionID uuid.UUID) (*store.Job, error)
	Retry(ctx context.Context, artifactID uuid.UUID) (*store.Job, error)
	Status(ctx context.Context, artifactID uuid.UUID) (*pipeline.StatusResult, error)
	LatestProcessedContent(ctx context.Context, artifactID uuid.UUID) (string, error)
}

// SessionCoordinator fans a session out into artifact jobs synchronously.
type SessionCoordinator interface {
	ProcessSession(ctx context.Context, sessionID uuid.UUID) (*pipeline.BatchResult, error)
}

// Handlers holds all HTTP handlers and their dependencies.
type Handlers struct {
	store    StoreFactory
	pipeline PipelineService
	sessions SessionCoordinator
}

// New creates a new Handlers instance with the given dependencies.
func New(s StoreFactory, p PipelineService, c SessionCoordinator) *Handlers {
	return &Handlers{store: s, pipeline: p, sessions: c}
}

// A helper function to write standard JSON responses.
func (h *Handlers) respondJson(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if payload != nil {
		json.NewEncoder(w).Encode(payload)
	}
}

// A helper function to return consistent error messages.
func (h *Handlers) httpError(w http.ResponseWriter, message string, code int) {
	h.respondJson(w, code, api.ErrorResponse{
		Error: message,
		Code:  strconv.Itoa(code),
	})
}
