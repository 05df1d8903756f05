// Package vector embeds processed artifact content and upserts it into
// the vector index used for semantic retrieval.
package vector

import (
	"context"
	"fmt"
	"time"

	"pogopipe/internal/store"

	"github.com/google/uuid"
)

// Embedder produces an embedding vector for a piece of text.
type Embedder interface {
	Embed(ctx context.Context, model, input string) ([]float64, error)
}

// Indexer embeds content and writes it into the vector store. It is
// consumed fire-and-forget by the pipeline: an indexing failure never
// rolls back or degrades a successful processing result.
type Indexer struct {
	embedder Embedder
	vectors  store.VectorStore
	model    string
}

// New creates an Indexer. An empty model selects the caller's default
// embedding model.
func New(embedder Embedder, vectors store.VectorStore, model string) *Indexer {
	return &Indexer{embedder: embedder, vectors: vectors, model: model}
}

// Index embeds the content and upserts it keyed by (artifact, session).
func (i *Indexer) Index(ctx context.Context, content string, artifactID, sessionID uuid.UUID, metadata map[string]string) error {
	embedding, err := i.embedder.Embed(ctx, i.model, content)
	if err != nil {
		return fmt.Errorf("failed to embed content for artifact %s: %w", artifactID, err)
	}

	entry := &store.VectorEntry{
		ID:         uuid.New(),
		ArtifactID: artifactID,
		SessionID:  sessionID,
		Content:    content,
		Embedding:  embedding,
		Metadata:   metadata,
		CreatedAt:  time.Now().UTC(),
	}

	if err := i.vectors.UpsertVector(ctx, entry); err != nil {
		return fmt.Errorf("failed to upsert vector for artifact %s: %w", artifactID, err)
	}

	return nil
}
