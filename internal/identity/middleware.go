package identity

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"

	"github.com/healthbridge/healthbridge/pkg/interfaces"
	"github.com/healthbridge/healthbridge/pkg/logger"
	"github.com/healthbridge/healthbridge/pkg/types"
)

type contextKey string

const claimsContextKey contextKey = "user_claims"

// ClaimsFromContext returns the authenticated principal attached to the request
func ClaimsFromContext(ctx context.Context) (*types.UserClaims, bool) {
	claims, ok := ctx.Value(claimsContextKey).(*types.UserClaims)
	return claims, ok
}

// ContextWithClaims attaches principal claims to a context. Exposed for tests.
func ContextWithClaims(ctx context.Context, claims *types.UserClaims) context.Context {
	return context.WithValue(ctx, claimsContextKey, claims)
}

// AuthMiddleware validates bearer tokens and attaches claims to the request context
type AuthMiddleware struct {
	tokens interfaces.TokenManager
	logger *logger.Logger
}

// NewAuthMiddleware creates a new auth middleware
func NewAuthMiddleware(tokens interfaces.TokenManager, log *logger.Logger) *AuthMiddleware {
	return &AuthMiddleware{
		tokens: tokens,
		logger: log,
	}
}

// RequireAuth rejects requests without a valid bearer token
func (m *AuthMiddleware) RequireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		authHeader := r.Header.Get("Authorization")
		if authHeader == "" {
			writeAuthError(w, types.NewAuthenticationError(types.ErrCodeUnauthorized, "missing authorization header"))
			return
		}

		parts := strings.SplitN(authHeader, " ", 2)
		if len(parts) != 2 || parts[0] != "Bearer" {
			writeAuthError(w, types.NewAuthenticationError(types.ErrCodeUnauthorized, "invalid authorization header format"))
			return
		}

		claims, err := m.tokens.Validate(parts[1])
		if err != nil {
			m.logger.WithError(err).Warn("Token validation failed")
			if hbErr, ok := types.AsHealthBridgeError(err); ok {
				writeAuthError(w, hbErr)
			} else {
				writeAuthError(w, types.NewAuthenticationError(types.ErrCodeUnauthorized, "invalid token"))
			}
			return
		}

		next.ServeHTTP(w, r.WithContext(ContextWithClaims(r.Context(), claims)))
	})
}

// RequireRole rejects authenticated requests whose principal holds a different role.
// It must run after RequireAuth.
func (m *AuthMiddleware) RequireRole(role types.UserRole) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			claims, ok := ClaimsFromContext(r.Context())
			if !ok {
				writeAuthError(w, types.NewAuthenticationError(types.ErrCodeUnauthorized, "missing credentials"))
				return
			}

			if claims.Role != role {
				m.logger.Security("role_denied", claims.UserID, map[string]interface{}{
					"required": role,
					"actual":   claims.Role,
				})
				writeAuthError(w, types.NewAuthorizationError(types.ErrCodeForbidden, "insufficient role"))
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

func writeAuthError(w http.ResponseWriter, err *types.HealthBridgeError) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(err.HTTPStatus())

	json.NewEncoder(w).Encode(map[string]interface{}{
		"error":  err.Message,
		"status": err.HTTPStatus(),
	})
}
