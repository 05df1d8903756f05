package store

import (
	"context"
	"database/sql"
	"time"

	"github.com/google/uuid"
)

// DBTransaction defines the methods shared by *sql.DB and *sql.Tx.
// This allows us to pass either a connection pool or an active transaction to the repository methods.
type DBTransaction interface {
	ExecContext(ctx context.Context, query string, args ...interface{}) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...interface{}) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...interface{}) *sql.Row
}

type Tx interface {
	DBTransaction
	Commit() error
	Rollback() error
}

// TenantStore handles tenant records used for authentication and
// tier-based concurrency limits.
type TenantStore interface {
	// CreateTenant inserts a new tenant to the database.
	CreateTenant(ctx context.Context, tenant *Tenant, hashedKey string) error

	// GetTenantByID returns a tenant by its ID.
	GetTenantByID(ctx context.Context, id uuid.UUID) (*Tenant, error)

	// GetTenantByAPIKeyHash returns a tenant by its API key hash.
	GetTenantByAPIKeyHash(ctx context.Context, hash string) (*Tenant, error)
}

// ArtifactStore resolves artifacts from either backing representation.
// Some sessions embed artifacts as a JSON array on the session row
// (legacy shape), others reference rows in the artifacts table; both
// lookups go through this one interface so pipeline logic never
// branches on storage shape.
type ArtifactStore interface {
	// FindArtifact resolves an artifact by ID, trying the flat
	// artifacts table first and falling back to the embedded array on
	// the owning session row. Returns sql.ErrNoRows if neither holds it.
	FindArtifact(ctx context.Context, id uuid.UUID) (*Artifact, error)

	// ListSessionArtifacts enumerates all artifacts of a session using
	// the same two-tier lookup.
	ListSessionArtifacts(ctx context.Context, sessionID uuid.UUID) ([]Artifact, error)
}

// SessionStore resolves session records.
type SessionStore interface {
	// GetSession returns a session by its ID.
	GetSession(ctx context.Context, id uuid.UUID) (*Session, error)
}

// UpdateLog is the append-only log of processing attempts per artifact.
// Entries are never edited in place.
type UpdateLog interface {
	// AppendUpdate inserts one ProcessingUpdate record.
	AppendUpdate(ctx context.Context, update *ProcessingUpdate) error

	// LatestUpdate returns the most recent update for the artifact,
	// optionally filtered by status. Returns sql.ErrNoRows when none
	// match.
	LatestUpdate(ctx context.Context, artifactID uuid.UUID, status *UpdateStatus) (*ProcessingUpdate, error)

	// HasProcessed reports whether at least one update with status
	// "processed" exists for the artifact. This is the idempotency
	// check: prior failures do not count.
	HasProcessed(ctx context.Context, artifactID uuid.UUID) (bool, error)
}

// JobStore handles the persistence of Job bookkeeping rows.
type JobStore interface {
	// CreateJob inserts a new job row in the queued state.
	CreateJob(ctx context.Context, tx DBTransaction, job *Job) error

	// GetJobByID returns a job by its ID.
	GetJobByID(ctx context.Context, id uuid.UUID) (*Job, error)
}

// Queue defines the interface for processing-queue operations.
// Implementations must use SELECT ... FOR UPDATE SKIP LOCKED semantics.
type Queue interface {
	// Enqueue adds a job to the queue, visible from visibleAfter.
	Enqueue(ctx context.Context, tx DBTransaction, jobID uuid.UUID, visibleAfter time.Time) (int64, error)

	// DequeueBatch claims up to 'limit' available jobs from the named
	// queues atomically, honoring per-tenant tier concurrency caps.
	// Returns nil slice if nothing is claimable.
	DequeueBatch(ctx context.Context, queues []string, limit int) ([]QueueItem, error)

	// Complete marks the job succeeded and removes its queue entry.
	Complete(ctx context.Context, tx DBTransaction, jobID uuid.UUID) error

	// Fail marks the job failed and removes its queue entry. Artifact
	// processing is never retried automatically; retries are explicit
	// user-triggered resubmissions of a new job.
	Fail(ctx context.Context, tx DBTransaction, jobID uuid.UUID, errMsg string) error

	// SetVisibleAfter extends the visibility timeout (heartbeat).
	SetVisibleAfter(ctx context.Context, tx DBTransaction, jobID uuid.UUID, visibleAfter time.Time) error

	// Count tracks count of items in the queue.
	Count(ctx context.Context) (int64, error)
}

// VectorStore persists embedded content for semantic retrieval.
type VectorStore interface {
	// UpsertVector replaces any existing entries for the artifact with
	// the given one.
	UpsertVector(ctx context.Context, entry *VectorEntry) error
}

// QueueItem represents a dequeued job claim.
type QueueItem struct {
	JobID uuid.UUID
	Job   *Job
}
