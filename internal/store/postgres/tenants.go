package postgres

import (
	"context"

	"pogopipe/internal/store"

	"github.com/google/uuid"
)

// CreateTenant inserts a new tenant with its hashed API key.
func (s *Store) CreateTenant(ctx context.Context, tenant *store.Tenant, hashedKey string) error {
	query := `
		INSERT INTO tenants (id, name, tier, api_key_hash, created_at)
		VALUES ($1, $2, $3, $4, $5)
	`

	_, err := s.db.ExecContext(ctx, query,
		tenant.ID,
		tenant.Name,
		tenant.Tier,
		hashedKey,
		tenant.CreatedAt,
	)
	return err
}

// GetTenantByID returns a tenant by its ID.
func (s *Store) GetTenantByID(ctx context.Context, id uuid.UUID) (*store.Tenant, error) {
	query := "SELECT id, name, tier, created_at FROM tenants WHERE id = $1"

	var tenant store.Tenant
	err := s.db.QueryRowContext(ctx, query, id).Scan(
		&tenant.ID, &tenant.Name, &tenant.Tier, &tenant.CreatedAt,
	)
	if err != nil {
		return nil, err
	}

	return &tenant, nil
}

// GetTenantByAPIKeyHash returns a tenant by its API key hash.
func (s *Store) GetTenantByAPIKeyHash(ctx context.Context, hash string) (*store.Tenant, error) {
	query := "SELECT id, name, tier, created_at FROM tenants WHERE api_key_hash = $1"

	var tenant store.Tenant
	err := s.db.QueryRowContext(ctx, query, hash).Scan(
		&tenant.ID, &tenant.Name, &tenant.Tier, &tenant.CreatedAt,
	)
	if err != nil {
		return nil, err
	}

	return &tenant, nil
}
