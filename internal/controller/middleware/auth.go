// Package middleware contains HTTP middleware for the controller.
package middleware

import (
	"context"
	"net/http"
	"strings"

	"pogopipe/internal/auth"
	"pogopipe/internal/store"
)

// tenantKey is the context key for the authenticated tenant.
type tenantKey struct{}

// AuthMiddleware resolves the Bearer API key to a tenant and stores it
// on the request context. Every operation downstream is scoped by that
// tenant.
func AuthMiddleware(tenants store.TenantStore) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			authHeader := r.Header.Get("Authorization")
			if authHeader == "" {
				http.Error(w, "Missing authorization header", http.StatusUnauthorized)
				return
			}

			parts := strings.Split(authHeader, " ")
			if len(parts) != 2 || parts[0] != "Bearer" {
				http.Error(w, "Invalid authorization header", http.StatusUnauthorized)
				return
			}

			tenant, err := tenants.GetTenantByAPIKeyHash(r.Context(), auth.HashKey(parts[1]))
			if err != nil || tenant == nil {
				http.Error(w, "Invalid API key", http.StatusUnauthorized)
				return
			}

			ctx := context.WithValue(r.Context(), tenantKey{}, tenant)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// TenantFromContext extracts the authenticated tenant from the context.
func TenantFromContext(ctx context.Context) (*store.Tenant, bool) {
	tenant, ok := ctx.Value(tenantKey{}).(*store.Tenant)
	return tenant, ok
}
