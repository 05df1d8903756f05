package handlers

import (
	"bytes"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/google/uuid"

	"pogopipe/internal/auth"
	"pogopipe/internal/store"
	"pogopipe/pkg/api"
)

func TestCreateTenant_Success(t *testing.T) {
	ms := &mockStore{}
	h := New(ms, &mockPipeline{}, &mockCoordinator{})

	body, _ := json.Marshal(api.CreateTenantRequest{Name: "acme", Tier: "pro"})
	req := httptest.NewRequest(http.MethodPost, "/tenants", bytes.NewReader(body))
	rr := httptest.NewRecorder()

	h.CreateTenant(rr, req)

	if rr.Code != http.StatusCreated {
		t.Fatalf("got status %d, want %d: %s", rr.Code, http.StatusCreated, rr.Body.String())
	}

	var resp api.CreateTenantResponse
	if err := json.NewDecoder(rr.Body).Decode(&resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if resp.Name != "acme" {
		t.Errorf("got name %s, want acme", resp.Name)
	}
	if resp.Tier != "pro" {
		t.Errorf("got tier %s, want pro", resp.Tier)
	}
	if !strings.HasPrefix(resp.ApiKey, auth.KeyPrefix) {
		t.Errorf("api key %q missing prefix %q", resp.ApiKey, auth.KeyPrefix)
	}

	// Only the hash is persisted.
	if ms.createdKeyHash != auth.HashKey(resp.ApiKey) {
		t.Error("stored hash does not match returned key")
	}
	if ms.createdTenant.Tier != store.TierPro {
		t.Errorf("got stored tier %s, want pro", ms.createdTenant.Tier)
	}
}

func TestCreateTenant_DefaultsToFreeTier(t *testing.T) {
	ms := &mockStore{}
	h := New(ms, &mockPipeline{}, &mockCoordinator{})

	body, _ := json.Marshal(api.CreateTenantRequest{Name: "acme"})
	req := httptest.NewRequest(http.MethodPost, "/tenants", bytes.NewReader(body))
	rr := httptest.NewRecorder()

	h.CreateTenant(rr, req)

	if rr.Code != http.StatusCreated {
		t.Fatalf("got status %d, want %d", rr.Code, http.StatusCreated)
	}
	if ms.createdTenant.Tier != store.TierFree {
		t.Errorf("got tier %s, want free", ms.createdTenant.Tier)
	}
}

func TestCreateTenant_UnknownTier(t *testing.T) {
	h := New(&mockStore{}, &mockPipeline{}, &mockCoordinator{})

	body, _ := json.Marshal(api.CreateTenantRequest{Name: "acme", Tier: "platinum"})
	req := httptest.NewRequest(http.MethodPost, "/tenants", bytes.NewReader(body))
	rr := httptest.NewRecorder()

	h.CreateTenant(rr, req)

	if rr.Code != http.StatusBadRequest {
		t.Errorf("got status %d, want %d", rr.Code, http.StatusBadRequest)
	}
}

func TestCreateTenant_MissingName(t *testing.T) {
	h := New(&mockStore{}, &mockPipeline{}, &mockCoordinator{})

	req := httptest.NewRequest(http.MethodPost, "/tenants", bytes.NewReader([]byte(`{}`)))
	rr := httptest.NewRecorder()

	h.CreateTenant(rr, req)

	if rr.Code != http.StatusBadRequest {
		t.Errorf("got status %d, want %d", rr.Code, http.StatusBadRequest)
	}
}

func TestTenantUsage_Success(t *testing.T) {
	tenant := &store.Tenant{ID: uuid.New(), Name: "acme", Tier: store.TierPro}
	ms := &mockStore{runningJobsResp: 3}
	h := New(ms, &mockPipeline{}, &mockCoordinator{})

	req := httptest.NewRequest(http.MethodGet, "/tenants/usage", nil)
	req = withTenant(req, tenant)
	rr := httptest.NewRecorder()

	h.TenantUsage(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("got status %d, want %d: %s", rr.Code, http.StatusOK, rr.Body.String())
	}

	var resp api.TenantUsageResponse
	if err := json.NewDecoder(rr.Body).Decode(&resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if resp.TenantID != tenant.ID.String() {
		t.Errorf("got tenant id %s, want %s", resp.TenantID, tenant.ID)
	}
	if resp.Tier != "pro" {
		t.Errorf("got tier %s, want pro", resp.Tier)
	}
	if resp.RunningJobs != 3 {
		t.Errorf("got running jobs %d, want 3", resp.RunningJobs)
	}
	if resp.ConcurrentMax != store.TierPro.ConcurrencyLimit() {
		t.Errorf("got concurrent max %d, want %d", resp.ConcurrentMax, store.TierPro.ConcurrencyLimit())
	}
}

func TestTenantUsage_NoTenant(t *testing.T) {
	h := New(&mockStore{}, &mockPipeline{}, &mockCoordinator{})

	req := httptest.NewRequest(http.MethodGet, "/tenants/usage", nil)
	rr := httptest.NewRecorder()

	h.TenantUsage(rr, req)

	if rr.Code != http.StatusUnauthorized {
		t.Errorf("got status %d, want %d", rr.Code, http.StatusUnauthorized)
	}
}

func TestTenantUsage_StoreError(t *testing.T) {
	tenant := &store.Tenant{ID: uuid.New(), Name: "acme", Tier: store.TierFree}
	h := New(&mockStore{runningJobsErr: errors.New("db down")}, &mockPipeline{}, &mockCoordinator{})

	req := httptest.NewRequest(http.MethodGet, "/tenants/usage", nil)
	req = withTenant(req, tenant)
	rr := httptest.NewRecorder()

	h.TenantUsage(rr, req)

	if rr.Code != http.StatusInternalServerError {
		t.Errorf("got status %d, want %d", rr.Code, http.StatusInternalServerError)
	}
}

func TestCreateTenant_StoreError(t *testing.T) {
	h := New(&mockStore{createTenantErr: errors.New("db down")}, &mockPipeline{}, &mockCoordinator{})

	body, _ := json.Marshal(api.CreateTenantRequest{Name: "acme"})
	req := httptest.NewRequest(http.MethodPost, "/tenants", bytes.NewReader(body))
	rr := httptest.NewRecorder()

	h.CreateTenant(rr, req)

	if rr.Code != http.StatusInternalServerError {
		t.Errorf("got status %d, want %d", rr.Code, http.StatusInternalServerError)
	}
}
