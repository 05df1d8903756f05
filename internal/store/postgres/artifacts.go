package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"pogopipe/internal/store"

	"github.com/google/uuid"
)

// embeddedArtifact is the legacy JSON shape stored in the sessions
// artifacts array. Field names predate the artifacts table migration.
type embeddedArtifact struct {
	ID          uuid.UUID `json:"id"`
	CaptureType string    `json:"captureType"`
	CaptureName string    `json:"captureName"`
	URL         string    `json:"url"`
	CaptureDate string    `json:"captureDate"`
}

func (e embeddedArtifact) toArtifact(sessionID, tenantID uuid.UUID) store.Artifact {
	a := store.Artifact{
		ID:          e.ID,
		SessionID:   sessionID,
		TenantID:    tenantID,
		CaptureType: store.CaptureType(e.CaptureType),
		CaptureName: e.CaptureName,
		URL:         e.URL,
	}
	if t, err := time.Parse(time.RFC3339, e.CaptureDate); err == nil {
		a.CaptureDate = t
	}
	return a
}

// FindArtifact resolves an artifact by ID. It tries the flat artifacts
// table first and falls back to the embedded array on the owning
// session row; artifacts may live in either place depending on how
// they were created. Returns sql.ErrNoRows if neither holds the ID.
func (s *Store) FindArtifact(ctx context.Context, id uuid.UUID) (*store.Artifact, error) {
	query := `
		SELECT id, session_id, tenant_id, capture_type, capture_name, url, capture_date, created_at
		FROM artifacts WHERE id = $1
	`

	var artifact store.Artifact
	var captureDate sql.NullTime

	err := s.db.QueryRowContext(ctx, query, id).Scan(
		&artifact.ID, &artifact.SessionID, &artifact.TenantID,
		&artifact.CaptureType, &artifact.CaptureName, &artifact.URL,
		&captureDate, &artifact.CreatedAt,
	)
	if err == nil {
		if captureDate.Valid {
			artifact.CaptureDate = captureDate.Time
		}
		return &artifact, nil
	}
	if err != sql.ErrNoRows {
		return nil, fmt.Errorf("artifact lookup failed: %w", err)
	}

	return s.findEmbeddedArtifact(ctx, id)
}

// findEmbeddedArtifact searches the legacy embedded arrays.
func (s *Store) findEmbeddedArtifact(ctx context.Context, id uuid.UUID) (*store.Artifact, error) {
	query := `
		SELECT s.id, s.tenant_id, elem
		FROM sessions s, jsonb_array_elements(s.artifacts) elem
		WHERE elem->>'id' = $1
		LIMIT 1
	`

	var sessionID, tenantID uuid.UUID
	var raw []byte

	err := s.db.QueryRowContext(ctx, query, id.String()).Scan(&sessionID, &tenantID, &raw)
	if err != nil {
		return nil, err
	}

	var embedded embeddedArtifact
	if err := json.Unmarshal(raw, &embedded); err != nil {
		return nil, fmt.Errorf("failed to decode embedded artifact %s: %w", id, err)
	}

	artifact := embedded.toArtifact(sessionID, tenantID)
	return &artifact, nil
}

// ListSessionArtifacts enumerates all artifacts of a session, flat
// table first, falling back to the session row's embedded array.
func (s *Store) ListSessionArtifacts(ctx context.Context, sessionID uuid.UUID) ([]store.Artifact, error) {
	query := `
		SELECT id, session_id, tenant_id, capture_type, capture_name, url, capture_date, created_at
		FROM artifacts
		WHERE session_id = $1
		ORDER BY created_at ASC
	`

	rows, err := s.db.QueryContext(ctx, query, sessionID)
	if err != nil {
		return nil, fmt.Errorf("session artifact query failed: %w", err)
	}
	defer rows.Close()

	var artifacts []store.Artifact
	for rows.Next() {
		var artifact store.Artifact
		var captureDate sql.NullTime
		if err := rows.Scan(
			&artifact.ID, &artifact.SessionID, &artifact.TenantID,
			&artifact.CaptureType, &artifact.CaptureName, &artifact.URL,
			&captureDate, &artifact.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("session artifact scan failed: %w", err)
		}
		if captureDate.Valid {
			artifact.CaptureDate = captureDate.Time
		}
		artifacts = append(artifacts, artifact)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	if len(artifacts) > 0 {
		return artifacts, nil
	}

	return s.listEmbeddedArtifacts(ctx, sessionID)
}

func (s *Store) listEmbeddedArtifacts(ctx context.Context, sessionID uuid.UUID) ([]store.Artifact, error) {
	var tenantID uuid.UUID
	var raw []byte

	err := s.db.QueryRowContext(ctx,
		"SELECT tenant_id, artifacts FROM sessions WHERE id = $1", sessionID,
	).Scan(&tenantID, &raw)
	if err != nil {
		return nil, err
	}

	var embedded []embeddedArtifact
	if err := json.Unmarshal(raw, &embedded); err != nil {
		return nil, fmt.Errorf("failed to decode embedded artifacts for session %s: %w", sessionID, err)
	}

	artifacts := make([]store.Artifact, 0, len(embedded))
	for _, e := range embedded {
		artifacts = append(artifacts, e.toArtifact(sessionID, tenantID))
	}
	return artifacts, nil
}
