package postgres

import (
	"context"

	"github.com/google/uuid"

	"pogopipe/internal/store"
)

func (s *Store) GetSession(ctx context.Context, id uuid.UUID) (*store.Session, error) {
	query := `
		SELECT id, tenant_id, name, created_at
		FROM sessions
		WHERE id = $1
	`

	var sess store.Session
	err := s.db.QueryRowContext(ctx, query, id).Scan(
		&sess.ID,
		&sess.TenantID,
		&sess.Name,
		&sess.CreatedAt,
	)
	if err != nil {
		return nil, err
	}

	return &sess, nil
}
