package middleware

import (
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"golang.org/x/time/rate"

	"pogopipe/internal/store"
	"pogopipe/pkg/api"
)

// Per-tier request rates. Pro tenants get a higher sustained rate and
// burst than free ones.
const (
	freeRate  = rate.Limit(10)
	freeBurst = 20
	proRate   = rate.Limit(50)
	proBurst  = 100

	limiterTTL = 5 * time.Minute
)

// RateLimitMiddleware applies a per-tenant token bucket sized by the
// tenant's tier. Requires AuthMiddleware to have run first.
func RateLimitMiddleware() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		limiters := sync.Map{} // tenantID -> *cachedLimiter

		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			tenant, ok := TenantFromContext(r.Context())
			if !ok {
				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(http.StatusUnauthorized)
				json.NewEncoder(w).Encode(api.ErrorResponse{
					Error: "Unauthorized",
					Code:  "401",
				})
				return
			}

			limiter := getOrCreateLimiter(&limiters, tenant, limiterTTL)
			if !limiter.Allow() {
				w.Header().Set("Retry-After", "1")
				http.Error(w, "Too Many Requests", http.StatusTooManyRequests)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

type cachedLimiter struct {
	limiter   *rate.Limiter
	expiresAt time.Time
}

func getOrCreateLimiter(limiters *sync.Map, tenant *store.Tenant, ttl time.Duration) *rate.Limiter {
	if limiter, ok := limiters.Load(tenant.ID); ok {
		cached := limiter.(*cachedLimiter)
		if time.Now().Before(cached.expiresAt) {
			return cached.limiter
		}
		// expired, need to create new
	}

	tierRate, burst := freeRate, freeBurst
	if tenant.Tier == store.TierPro {
		tierRate, burst = proRate, proBurst
	}

	limiter := rate.NewLimiter(tierRate, burst)
	limiters.Store(tenant.ID, &cachedLimiter{
		limiter:   limiter,
		expiresAt: time.Now().Add(ttl),
	})
	return limiter
}
