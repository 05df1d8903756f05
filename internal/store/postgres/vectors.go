package postgres

import (
	"context"
	"encoding/json"
	"fmt"

	"pogopipe/internal/store"
)

// UpsertVector replaces any existing vector entries for the artifact
// with the given one. Delete-then-insert keeps re-indexing after a
// content update from accumulating stale chunks.
func (s *Store) UpsertVector(ctx context.Context, entry *store.VectorEntry) error {
	embedding, err := json.Marshal(entry.Embedding)
	if err != nil {
		return fmt.Errorf("failed to encode embedding: %w", err)
	}

	metadata, err := json.Marshal(entry.Metadata)
	if err != nil {
		return fmt.Errorf("failed to encode vector metadata: %w", err)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx,
		"DELETE FROM artifact_vectors WHERE artifact_id = $1", entry.ArtifactID,
	); err != nil {
		return fmt.Errorf("failed to clear vectors for artifact %s: %w", entry.ArtifactID, err)
	}

	if _, err := tx.ExecContext(ctx, `
		INSERT INTO artifact_vectors (id, artifact_id, session_id, content, embedding, metadata, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`, entry.ID, entry.ArtifactID, entry.SessionID, entry.Content, embedding, metadata, entry.CreatedAt); err != nil {
		return fmt.Errorf("failed to insert vector for artifact %s: %w", entry.ArtifactID, err)
	}

	return tx.Commit()
}
