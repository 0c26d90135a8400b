package ratelimit

import (
	"encoding/json"
	"net"
	"net/http"

	"github.com/healthbridge/healthbridge/internal/identity"
	"github.com/healthbridge/healthbridge/pkg/interfaces"
	"github.com/healthbridge/healthbridge/pkg/logger"
	"github.com/healthbridge/healthbridge/pkg/types"
)

// Passthrough is the middleware used when rate limiting is disabled
func Passthrough(next http.Handler) http.Handler {
	return next
}

// Middleware applies a rate limiter keyed on the authenticated principal,
// falling back to the client address for unauthenticated requests. On
// authenticated routes it must be installed after the auth middleware, or
// every principal behind one address shares a bucket.
type Middleware struct {
	limiter interfaces.RateLimiter
	logger  *logger.Logger
}

// NewMiddleware creates new rate limit middleware
func NewMiddleware(limiter interfaces.RateLimiter, log *logger.Logger) *Middleware {
	return &Middleware{
		limiter: limiter,
		logger:  log,
	}
}

// Limit wraps a handler with the rate limit check
func (m *Middleware) Limit(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		key := m.requestKey(r)

		allowed, err := m.limiter.Allow(key)
		if err != nil {
			m.logger.WithError(err).Error("Rate limiter failure")
			next.ServeHTTP(w, r)
			return
		}

		if !allowed {
			m.logger.Security("rate_limit_exceeded", key, map[string]interface{}{
				"path": r.URL.Path,
			})
			m.writeRateLimited(w)
			return
		}

		next.ServeHTTP(w, r)
	})
}

func (m *Middleware) requestKey(r *http.Request) string {
	if claims, ok := identity.ClaimsFromContext(r.Context()); ok {
		return claims.UserID
	}

	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}

func (m *Middleware) writeRateLimited(w http.ResponseWriter) {
	hbErr := types.NewRateLimitError("too many requests")

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(hbErr.HTTPStatus())

	if err := json.NewEncoder(w).Encode(map[string]interface{}{
		"error":  hbErr.Message,
		"status": hbErr.HTTPStatus(),
	}); err != nil {
		m.logger.WithError(err).Error("Failed to encode JSON response")
	}
}
