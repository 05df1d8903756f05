package handlers

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/google/uuid"

	"pogopipe/internal/controller/middleware"
	"pogopipe/internal/pipeline"
	"pogopipe/internal/store"
	"pogopipe/pkg/api"
)

// artifactForTenant parses the path ID and resolves the artifact,
// enforcing that it belongs to the authenticated tenant. Artifacts of
// other tenants are reported as not found, never as forbidden.
func (h *Handlers) artifactForTenant(w http.ResponseWriter, r *http.Request) (*store.Artifact, bool) {
	artifactID, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		h.httpError(w, "Invalid artifact id", http.StatusBadRequest)
		return nil, false
	}

	tenant, ok := middleware.TenantFromContext(r.Context())
	if !ok {
		h.httpError(w, "Unauthorized", http.StatusUnauthorized)
		return nil, false
	}

	artifact, err := h.store.FindArtifact(r.Context(), artifactID)
	if err != nil || artifact.TenantID != tenant.ID {
		h.httpError(w, "Artifact not found", http.StatusNotFound)
		return nil, false
	}

	return artifact, true
}

// ProcessArtifact handles POST /artifacts/{id}/process.
// Queues a single artifact for processing. Manual submissions default
// to high priority so they jump ahead of batch work.
func (h *Handlers) ProcessArtifact(w http.ResponseWriter, r *http.Request) {
	artifact, ok := h.artifactForTenant(w, r)
	if !ok {
		return
	}

	priority := store.PriorityHigh
	var req api.ProcessArtifactRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil && err != io.EOF {
		h.httpError(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	if req.Priority != "" {
		priority = store.Priority(req.Priority)
	}

	job, err := h.pipeline.SubmitArtifact(r.Context(), artifact.ID, priority)
	if err != nil {
		switch {
		case errors.Is(err, pipeline.ErrInvalidPriority):
			h.httpError(w, "Invalid priority", http.StatusBadRequest)
		case errors.Is(err, pipeline.ErrUnsupportedType):
			h.httpError(w, "Unsupported capture type", http.StatusBadRequest)
		case errors.Is(err, pipeline.ErrArtifactNotFound):
			h.httpError(w, "Artifact not found", http.StatusNotFound)
		default:
			h.httpError(w, "Failed to queue artifact", http.StatusInternalServerError)
		}
		return
	}

	resp := api.ProcessArtifactResponse{
		ArtifactID: artifact.ID.String(),
		JobID:      job.ID.String(),
		Status:     string(job.Status),
		Priority:   string(job.Priority),
	}
	h.respondJson(w, http.StatusAccepted, resp)
}

// TaskStatus handles GET /artifacts/{id}/task-status.
// Reports the state of the most recent processing attempt.
func (h *Handlers) TaskStatus(w http.ResponseWriter, r *http.Request) {
	artifact, ok := h.artifactForTenant(w, r)
	if !ok {
		return
	}

	status, err := h.pipeline.Status(r.Context(), artifact.ID)
	if err != nil {
		if errors.Is(err, pipeline.ErrNoTaskFound) {
			h.httpError(w, "No processing task found", http.StatusNotFound)
			return
		}
		h.httpError(w, "Failed to read status", http.StatusInternalServerError)
		return
	}

	resp := api.TaskStatusResponse{
		ArtifactID: artifact.ID.String(),
		Status:     string(status.Status),
		Priority:   string(status.Priority),
		Error:      status.ErrorMessage,
		Attempt:    status.Attempt,
		StartedAt:  status.StartedAt,
		FinishedAt: status.FinishedAt,
	}
	if status.JobID != uuid.Nil {
		resp.JobID = status.JobID.String()
		resp.JobStatus = string(status.JobStatus)
	}
	h.respondJson(w, http.StatusOK, resp)
}

// RetryArtifact handles POST /artifacts/{id}/retry.
// Resubmits a failed artifact at the priority of the failed attempt.
func (h *Handlers) RetryArtifact(w http.ResponseWriter, r *http.Request) {
	artifact, ok := h.artifactForTenant(w, r)
	if !ok {
		return
	}

	job, err := h.pipeline.Retry(r.Context(), artifact.ID)
	if err != nil {
		switch {
		case errors.Is(err, pipeline.ErrNoFailureFound):
			h.httpError(w, "No failed processing attempt to retry", http.StatusBadRequest)
		case errors.Is(err, pipeline.ErrArtifactNotFound):
			h.httpError(w, "Artifact not found", http.StatusNotFound)
		default:
			h.httpError(w, "Failed to retry artifact", http.StatusInternalServerError)
		}
		return
	}

	resp := api.RetryResponse{
		ArtifactID: artifact.ID.String(),
		JobID:      job.ID.String(),
		Priority:   string(job.Priority),
	}
	h.respondJson(w, http.StatusAccepted, resp)
}

// LatestContent handles GET /artifacts/{id}/updates/latest.
// Returns the content of the most recent successful processing attempt.
func (h *Handlers) LatestContent(w http.ResponseWriter, r *http.Request) {
	artifact, ok := h.artifactForTenant(w, r)
	if !ok {
		return
	}

	content, err := h.pipeline.LatestProcessedContent(r.Context(), artifact.ID)
	if err != nil {
		h.httpError(w, "Failed to read content", http.StatusInternalServerError)
		return
	}

	resp := api.LatestContentResponse{
		ArtifactID: artifact.ID.String(),
		Content:    content,
	}
	h.respondJson(w, http.StatusOK, resp)
}
