// Package store contains the database layer for pogopipe.
package store

import (
	"time"

	"github.com/google/uuid"
)

// Tenant represents a tenant in the multi-tenant system.
// All operations must be scoped by TenantID.
type Tenant struct {
	ID        uuid.UUID
	Name      string
	Tier      Tier
	CreatedAt time.Time
}

// Tier determines how many artifact jobs a tenant may run concurrently.
type Tier string

const (
	TierFree Tier = "free"
	TierPro  Tier = "pro"
)

// ConcurrencyLimit returns the maximum number of concurrently running
// artifact jobs allowed for the tier.
func (t Tier) ConcurrencyLimit() int {
	if t == TierPro {
		return 10
	}
	return 2
}

// CaptureType classifies what kind of content an artifact holds.
type CaptureType string

const (
	CaptureAudio      CaptureType = "audio"
	CaptureImage      CaptureType = "image"
	CaptureScreenshot CaptureType = "screenshot"
	CaptureDocument   CaptureType = "document"
)

// Supported reports whether the pipeline has an analyzer for this type.
func (c CaptureType) Supported() bool {
	switch c {
	case CaptureAudio, CaptureImage, CaptureScreenshot:
		return true
	}
	return false
}

// Queue returns the named queue processing jobs for this capture type
// are routed to. Routing is fixed so a surge of one artifact type
// cannot starve the others.
func (c CaptureType) Queue() string {
	switch c {
	case CaptureAudio:
		return QueueAudio
	case CaptureImage, CaptureScreenshot:
		return QueueImage
	}
	return QueueDefault
}

// Named queues. Each capture type maps to a fixed queue; session batch
// jobs and document exports get their own lanes.
const (
	QueueAudio   = "audio"
	QueueImage   = "image"
	QueueSession = "session"
	QueueExport  = "export"
	QueueDefault = "default"
)

// Priority orders jobs within a queue.
type Priority string

const (
	PriorityHigh   Priority = "high"   // manual single-artifact processing
	PriorityMedium Priority = "medium" // session batch processing
	PriorityLow    Priority = "low"    // background automated processing
)

// Rank returns the numeric rank used for queue ordering; lower runs first.
func (p Priority) Rank() int {
	switch p {
	case PriorityHigh:
		return 0
	case PriorityMedium:
		return 1
	default:
		return 2
	}
}

// Valid reports whether p is one of the three defined levels.
func (p Priority) Valid() bool {
	switch p {
	case PriorityHigh, PriorityMedium, PriorityLow:
		return true
	}
	return false
}

// Session holds a capture session. Legacy sessions embed their
// artifacts as a JSON array on the session row; newer ones reference
// rows in the artifacts table. Both shapes must stay readable.
type Session struct {
	ID        uuid.UUID
	TenantID  uuid.UUID
	Name      string
	CreatedAt time.Time
}

// Artifact is a single captured item belonging to a session.
// Immutable after upload; processing only appends ProcessingUpdate
// records, it never mutates the artifact itself.
type Artifact struct {
	ID          uuid.UUID
	SessionID   uuid.UUID
	TenantID    uuid.UUID
	CaptureType CaptureType
	CaptureName string
	URL         string
	CaptureDate time.Time
	CreatedAt   time.Time
}

// UpdateStatus is the state recorded by one processing attempt.
type UpdateStatus string

const (
	UpdateProcessing UpdateStatus = "processing"
	UpdateProcessed  UpdateStatus = "processed"
	UpdateFailed     UpdateStatus = "failed"
)

// ProcessingUpdate is one entry in the append-only per-artifact log.
// An artifact counts as processed when at least one update with status
// "processed" exists, regardless of earlier failures.
type ProcessingUpdate struct {
	ID           uuid.UUID
	ArtifactID   uuid.UUID
	SessionID    uuid.UUID
	Status       UpdateStatus
	Content      string
	ErrorMessage string
	Processor    string
	JobID        uuid.UUID
	Priority     Priority
	CreatedAt    time.Time
}

// JobKind distinguishes single-artifact jobs from session batch jobs.
type JobKind string

const (
	JobKindArtifact JobKind = "artifact"
	JobKindSession  JobKind = "session"
)

// JobStatus is the queue-side state of a job.
type JobStatus string

const (
	JobQueued    JobStatus = "queued"
	JobRunning   JobStatus = "running"
	JobSucceeded JobStatus = "succeeded"
	JobFailed    JobStatus = "failed"
)

// Job is one unit of work submitted to the processing queue. A failed
// job is never resumed; a retry submits a brand-new Job linked back
// through RetriedFrom.
type Job struct {
	ID           uuid.UUID
	ArtifactID   uuid.UUID
	SessionID    uuid.UUID
	TenantID     uuid.UUID
	Queue        string
	Kind         JobKind
	CaptureType  CaptureType
	Priority     Priority
	Status       JobStatus
	Attempt      int
	RetriedFrom  *uuid.UUID
	ErrorMessage *string
	CreatedAt    time.Time
	StartedAt    *time.Time
	FinishedAt   *time.Time
}

// VectorEntry is one embedded chunk of processed content, keyed by
// (artifact id, session id) for semantic retrieval.
type VectorEntry struct {
	ID         uuid.UUID
	ArtifactID uuid.UUID
	SessionID  uuid.UUID
	Content    string
	Embedding  []float64
	Metadata   map[string]string
	CreatedAt  time.Time
}
