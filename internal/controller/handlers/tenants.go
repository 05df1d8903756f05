package handlers

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/google/uuid"

	"pogopipe/internal/auth"
	"pogopipe/internal/controller/middleware"
	"pogopipe/internal/store"
	"pogopipe/pkg/api"
)

// CreateTenant handles POST /tenants (Admin Only).
// It generates a new API Key, hashes it for storage, and returns the raw key ONCE.
func (h *Handlers) CreateTenant(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req api.CreateTenantRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.httpError(w, "Invalid JSON", http.StatusBadRequest)
		return
	}

	if req.Name == "" {
		h.httpError(w, "Name is required", http.StatusBadRequest)
		return
	}

	tier := store.TierFree
	switch req.Tier {
	case "", string(store.TierFree):
	case string(store.TierPro):
		tier = store.TierPro
	default:
		h.httpError(w, "Unknown tier", http.StatusBadRequest)
		return
	}

	apiKey, err := auth.GenerateKey()
	if err != nil {
		h.httpError(w, "Entropy failure", http.StatusInternalServerError)
		return
	}

	tenant := &store.Tenant{
		ID:        uuid.New(),
		Name:      req.Name,
		Tier:      tier,
		CreatedAt: time.Now(),
	}

	if err := h.store.CreateTenant(ctx, tenant, auth.HashKey(apiKey)); err != nil {
		h.httpError(w, "Failed to create tenant", http.StatusInternalServerError)
		return
	}

	// Return the Raw Key (This is the only time the user sees it)
	resp := api.CreateTenantResponse{
		ID:     tenant.ID.String(),
		Name:   tenant.Name,
		Tier:   string(tenant.Tier),
		ApiKey: apiKey,
	}
	h.respondJson(w, http.StatusCreated, resp)
}

// TenantUsage handles GET /tenants/usage. It reports how many jobs the
// calling tenant is running against its tier's concurrency cap.
func (h *Handlers) TenantUsage(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	tenant, ok := middleware.TenantFromContext(ctx)
	if !ok {
		h.httpError(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	running, err := h.store.CountRunningJobs(ctx, tenant.ID)
	if err != nil {
		h.httpError(w, "Failed to count running jobs", http.StatusInternalServerError)
		return
	}

	h.respondJson(w, http.StatusOK, api.TenantUsageResponse{
		TenantID:      tenant.ID.String(),
		Tier:          string(tenant.Tier),
		RunningJobs:   running,
		ConcurrentMax: tenant.Tier.ConcurrencyLimit(),
	})
}
