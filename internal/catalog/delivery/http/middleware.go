package http

import (
	"context"
	"net/http"
	"strings"

	"github.com/tair/product-catalog/pkg/auth"
	"github.com/tair/product-catalog/pkg/authz"
	"github.com/tair/product-catalog/pkg/logger"
)

type contextKey string

const (
	UserIDKey    contextKey = "user_id"
	UsernameKey  contextKey = "username"
	PrincipalKey contextKey = "principal"
)

// PrincipalFromContext returns the caller stored by AuthMiddleware
func PrincipalFromContext(ctx context.Context) (authz.Principal, bool) {
	p, ok := ctx.Value(PrincipalKey).(authz.Principal)
	return p, ok
}

// AuthMiddleware validates the bearer token and stores the caller in the request context
func AuthMiddleware(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		authHeader := r.Header.Get("Authorization")
		if authHeader == "" {
			logger.Warn(r.Context()).Msg("Missing authorization header")
			respondError(w, http.StatusUnauthorized, "Authorization header required")
			return
		}

		// Extract token from "Bearer <token>"
		parts := strings.Split(authHeader, " ")
		if len(parts) != 2 || parts[0] != "Bearer" {
			logger.Warn(r.Context()).Msg("Invalid authorization header format")
			respondError(w, http.StatusUnauthorized, "Invalid authorization header format")
			return
		}

		claims, err := auth.ValidateToken(parts[1])
		if err != nil {
			logger.Warn(r.Context()).Err(err).Msg("Invalid token")
			respondError(w, http.StatusUnauthorized, "Invalid token")
			return
		}

		logger.Debug(r.Context()).
			Str("user_id", claims.UserID).
			Strs("roles", claims.AllRoles()).
			Msg("User authenticated")

		ctx := context.WithValue(r.Context(), UserIDKey, claims.UserID)
		ctx = context.WithValue(ctx, UsernameKey, claims.Username)
		ctx = context.WithValue(ctx, PrincipalKey, authz.Principal{
			Roles:       claims.AllRoles(),
			Permissions: claims.Permissions,
		})

		next.ServeHTTP(w, r.WithContext(ctx))
	}
}

// Guard authenticates callers, applies the optional rate limit and checks permissions
type Guard struct {
	evaluator *authz.Evaluator
	limiter   *RateLimiter
}

// NewGuard creates a guard. limiter may be nil.
func NewGuard(evaluator *authz.Evaluator, limiter *RateLimiter) *Guard {
	return &Guard{evaluator: evaluator, limiter: limiter}
}

// Require wraps next so that only callers holding perm reach it
func (g *Guard) Require(perm authz.Permission, next http.HandlerFunc) http.HandlerFunc {
	checked := func(w http.ResponseWriter, r *http.Request) {
		principal, ok := PrincipalFromContext(r.Context())
		if !ok {
			respondError(w, http.StatusUnauthorized, "Authentication required")
			return
		}

		if !g.evaluator.Allowed(principal, perm) {
			logger.Warn(r.Context()).
				Interface("user_id", r.Context().Value(UserIDKey)).
				Strs("roles", principal.Roles).
				Str("permission", string(perm)).
				Msg("Permission denied")
			respondError(w, http.StatusForbidden, "Permission "+string(perm)+" required")
			return
		}

		next.ServeHTTP(w, r)
	}

	if g.limiter != nil {
		return AuthMiddleware(g.limiter.Wrap(checked))
	}
	return AuthMiddleware(checked)
}
