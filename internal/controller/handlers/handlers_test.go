package handlers

import (
	"context"
	"database/sql"
	"net/http"
	"net/http/httptest"

	"github.com/google/uuid"

	"pogopipe/internal/controller/middleware"
	"pogopipe/internal/pipeline"
	"pogopipe/internal/store"
)

// Mock Store
type mockStore struct {
	// Tenant Hooks
	createTenantErr  error
	createdTenant    *store.Tenant
	createdKeyHash   string
	tenantByHashResp *store.Tenant

	// Artifact Hooks
	findArtifactResp *store.Artifact
	findArtifactErr  error
	listResp         []store.Artifact
	listErr          error

	// Session Hooks
	getSessionResp *store.Session
	getSessionErr  error

	runningJobsResp int64
	runningJobsErr  error

	pingErr error
}

func (m *mockStore) Ping(ctx context.Context) error { return m.pingErr }

func (m *mockStore) CreateTenant(ctx context.Context, tenant *store.Tenant, hashedKey string) error {
	if m.createTenantErr != nil {
		return m.createTenantErr
	}
	m.createdTenant = tenant
	m.createdKeyHash = hashedKey
	return nil
}

func (m *mockStore) GetTenantByID(ctx context.Context, id uuid.UUID) (*store.Tenant, error) {
	return nil, sql.ErrNoRows
}

func (m *mockStore) GetTenantByAPIKeyHash(ctx context.Context, hash string) (*store.Tenant, error) {
	if m.tenantByHashResp == nil {
		return nil, sql.ErrNoRows
	}
	return m.tenantByHashResp, nil
}

func (m *mockStore) FindArtifact(ctx context.Context, id uuid.UUID) (*store.Artifact, error) {
	if m.findArtifactErr != nil {
		return nil, m.findArtifactErr
	}
	if m.findArtifactResp == nil {
		return nil, sql.ErrNoRows
	}
	return m.findArtifactResp, nil
}

func (m *mockStore) ListSessionArtifacts(ctx context.Context, sessionID uuid.UUID) ([]store.Artifact, error) {
	return m.listResp, m.listErr
}

func (m *mockStore) CountRunningJobs(ctx context.Context, tenantID uuid.UUID) (int64, error) {
	return m.runningJobsResp, m.runningJobsErr
}

func (m *mockStore) GetSession(ctx context.Context, id uuid.UUID) (*store.Session, error) {
	if m.getSessionErr != nil {
		return nil, m.getSessionErr
	}
	if m.getSessionResp == nil {
		return nil, sql.ErrNoRows
	}
	return m.getSessionResp, nil
}

// Mock pipeline service
type mockPipeline struct {
	submitResp *store.Job
	submitErr  error

	sessionJobResp *store.Job
	sessionJobErr  error

	retryResp *store.Job
	retryErr  error

	statusResp *pipeline.StatusResult
	statusErr  error

	contentResp string
	contentErr  error

	capturedArtifactID uuid.UUID
	capturedPriority   store.Priority
}

func (m *mockPipeline) SubmitArtifact(ctx context.Context, artifactID uuid.UUID, priority store.Priority) (*store.Job, error) {
	m.capturedArtifactID = artifactID
	m.capturedPriority = priority
	return m.submitResp, m.submitErr
}

func (m *mockPipeline) SubmitSessionJob(ctx context.Context, sessionID uuid.UUID) (*store.Job, error) {
	return m.sessionJobResp, m.sessionJobErr
}

func (m *mockPipeline) Retry(ctx context.Context, artifactID uuid.UUID) (*store.Job, error) {
	return m.retryResp, m.retryErr
}

func (m *mockPipeline) Status(ctx context.Context, artifactID uuid.UUID) (*pipeline.StatusResult, error) {
	return m.statusResp, m.statusErr
}

func (m *mockPipeline) LatestProcessedContent(ctx context.Context, artifactID uuid.UUID) (string, error) {
	return m.contentResp, m.contentErr
}

// Mock coordinator
type mockCoordinator struct {
	result *pipeline.BatchResult
	err    error
}

func (m *mockCoordinator) ProcessSession(ctx context.Context, sessionID uuid.UUID) (*pipeline.BatchResult, error) {
	return m.result, m.err
}

// withTenant resolves the tenant onto the request context the same way
// the auth middleware would.
func withTenant(req *http.Request, tenant *store.Tenant) *http.Request {
	handler := middleware.AuthMiddleware(&staticTenantStore{tenant: tenant})
	// Resolve through the real middleware so the context key matches.
	var out *http.Request
	h := handler(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		out = r
	}))
	req.Header.Set("Authorization", "Bearer test-key")
	h.ServeHTTP(httptest.NewRecorder(), req)
	return out
}

type staticTenantStore struct {
	tenant *store.Tenant
}

func (s *staticTenantStore) CreateTenant(ctx context.Context, tenant *store.Tenant, hashedKey string) error {
	return nil
}

func (s *staticTenantStore) GetTenantByID(ctx context.Context, id uuid.UUID) (*store.Tenant, error) {
	return s.tenant, nil
}

func (s *staticTenantStore) GetTenantByAPIKeyHash(ctx context.Context, hash string) (*store.Tenant, error) {
	return s.tenant, nil
}
