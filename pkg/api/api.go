// Package api contains shared JSON request/response structs.
// This package is shared between the CLI and Controller.
package api

import "time"

// CreateTenantRequest is the request body for creating a new tenant.
type CreateTenantRequest struct {
	Name string `json:"name"`
	Tier string `json:"tier,omitempty"`
}

// CreateTenantResponse is the response body after creating a tenant.
type CreateTenantResponse struct {
	ID     string `json:"tenant_id"`
	Name   string `json:"name"`
	Tier   string `json:"tier"`
	ApiKey string `json:"api_key"`
}

// TenantUsageResponse reports a tenant's running jobs against its
// tier's concurrency cap.
type TenantUsageResponse struct {
	TenantID      string `json:"tenant_id"`
	Tier          string `json:"tier"`
	RunningJobs   int64  `json:"running_jobs"`
	ConcurrentMax int    `json:"concurrent_max"`
}

// ProcessArtifactRequest is the request body for submitting one
// artifact for processing.
type ProcessArtifactRequest struct {
	Priority string `json:"priority,omitempty"`
}

// ProcessArtifactResponse is the response body after queuing an artifact.
type ProcessArtifactResponse struct {
	ArtifactID string `json:"artifact_id"`
	JobID      string `json:"job_id"`
	Status     string `json:"status"`
	Priority   string `json:"priority"`
}

// ProcessSessionRequest is the request body for batch-processing a session.
type ProcessSessionRequest struct {
	Async bool `json:"async,omitempty"`
}

// QueuedJob pairs an artifact with the job queued for it.
type QueuedJob struct {
	ArtifactID  string `json:"artifact_id"`
	JobID       string `json:"job_id"`
	CaptureType string `json:"capture_type"`
}

// ProcessSessionResponse is the response body after a session batch submit.
type ProcessSessionResponse struct {
	SessionID string      `json:"session_id"`
	Queued    int         `json:"queued"`
	Total     int         `json:"total"`
	Jobs      []QueuedJob `json:"jobs,omitempty"`
	// JobID is set instead of Jobs when the batch itself was enqueued
	// asynchronously.
	JobID string `json:"job_id,omitempty"`
}

// TaskStatusResponse is the response body for artifact status queries.
type TaskStatusResponse struct {
	ArtifactID string     `json:"artifact_id"`
	JobID      string     `json:"job_id,omitempty"`
	Status     string     `json:"status"`
	JobStatus  string     `json:"job_status,omitempty"`
	Priority   string     `json:"priority"`
	Error      string     `json:"error,omitempty"`
	Attempt    int        `json:"attempt,omitempty"`
	StartedAt  *time.Time `json:"started_at,omitempty"`
	FinishedAt *time.Time `json:"finished_at,omitempty"`
}

// RetryResponse is the response body after retrying a failed artifact.
type RetryResponse struct {
	ArtifactID string `json:"artifact_id"`
	JobID      string `json:"job_id"`
	Priority   string `json:"priority"`
}

// LatestContentResponse carries the most recent processed content for
// an artifact; Content is empty when nothing has been processed yet.
type LatestContentResponse struct {
	ArtifactID string `json:"artifact_id"`
	Content    string `json:"content"`
}

// ErrorResponse is the standard error response format.
type ErrorResponse struct {
	Error   string `json:"error"`
	Code    string `json:"code,omitempty"`
	Details string `json:"details,omitempty"`
}
