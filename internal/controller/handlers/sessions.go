package handlers

import (
	"encoding/json"
	"io"
	"net/http"

	"github.com/google/uuid"

	"pogopipe/internal/controller/middleware"
	"pogopipe/pkg/api"
)

// ProcessSession handles POST /sessions/{id}/process.
// By default the fan-out runs inline and the response lists every
// queued job. With async=true a single session job is enqueued instead
// and the fan-out happens on a worker.
func (h *Handlers) ProcessSession(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	sessionID, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		h.httpError(w, "Invalid session id", http.StatusBadRequest)
		return
	}

	tenant, ok := middleware.TenantFromContext(ctx)
	if !ok {
		h.httpError(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	sess, err := h.store.GetSession(ctx, sessionID)
	if err != nil || sess.TenantID != tenant.ID {
		h.httpError(w, "Session not found", http.StatusNotFound)
		return
	}

	var req api.ProcessSessionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil && err != io.EOF {
		h.httpError(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	if req.Async {
		job, err := h.pipeline.SubmitSessionJob(ctx, sessionID)
		if err != nil {
			h.httpError(w, "Failed to queue session", http.StatusInternalServerError)
			return
		}
		h.respondJson(w, http.StatusAccepted, api.ProcessSessionResponse{
			SessionID: sessionID.String(),
			JobID:     job.ID.String(),
		})
		return
	}

	result, err := h.sessions.ProcessSession(ctx, sessionID)
	if err != nil {
		h.httpError(w, "Failed to process session", http.StatusInternalServerError)
		return
	}

	resp := api.ProcessSessionResponse{
		SessionID: sessionID.String(),
		Queued:    result.Queued,
		Total:     result.Total,
	}
	for _, job := range result.Jobs {
		resp.Jobs = append(resp.Jobs, api.QueuedJob{
			ArtifactID:  job.ArtifactID.String(),
			JobID:       job.JobID.String(),
			CaptureType: string(job.CaptureType),
		})
	}
	h.respondJson(w, http.StatusAccepted, resp)
}
