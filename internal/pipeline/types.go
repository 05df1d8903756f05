package pipeline

import (
	"time"

	"github.com/google/uuid"

	"pogopipe/internal/store"
)

// Outcome classifies the end state of a single processing invocation.
type Outcome string

const (
	// OutcomeProcessed means the analyzer produced content and a
	// processed update was appended.
	OutcomeProcessed Outcome = "processed"

	// OutcomeFailed means the attempt failed and a failed update was
	// appended.
	OutcomeFailed Outcome = "failed"

	// OutcomeAlreadyProcessed means a prior attempt had already
	// succeeded and the invocation was a no-op.
	OutcomeAlreadyProcessed Outcome = "already_processed"
)

// ProcessRequest carries everything the orchestrator needs for one
// processing attempt of one artifact.
type ProcessRequest struct {
	ArtifactID uuid.UUID
	SessionID  uuid.UUID
	JobID      uuid.UUID
	Priority   store.Priority
}

// ProcessResult is the outcome of one orchestrator invocation.
type ProcessResult struct {
	Outcome      Outcome
	ArtifactID   uuid.UUID
	Processor    string
	Content      string
	ErrorMessage string
}

// QueuedJob describes one job fanned out by a session batch.
type QueuedJob struct {
	JobID       uuid.UUID
	ArtifactID  uuid.UUID
	CaptureType store.CaptureType
}

// BatchResult summarizes a session fan-out. Total counts every artifact
// in the session, Queued only those that produced a job.
type BatchResult struct {
	SessionID uuid.UUID
	Total     int
	Queued    int
	Jobs      []QueuedJob
}

// StatusResult is the merged view of the latest processing update and,
// when one is linked, the job that produced it.
type StatusResult struct {
	ArtifactID   uuid.UUID
	Status       store.UpdateStatus
	Priority     store.Priority
	ErrorMessage string
	JobID        uuid.UUID
	JobStatus    store.JobStatus
	Attempt      int
	StartedAt    *time.Time
	FinishedAt   *time.Time
}
