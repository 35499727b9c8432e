package http

import (
	"context"
	"net/http"
	"strings"

	"github.com/tair/liquidation-ledger/pkg/auth"
	"github.com/tair/liquidation-ledger/pkg/logger"
)

type contextKey string

const (
	UserIDKey contextKey = "user_id"
	NameKey   contextKey = "name"
	RoleKey   contextKey = "role"
)

// AuthMiddleware validates the bearer token and, when roles are given,
// requires the token's role to be one of them. Admin passes every check.
func AuthMiddleware(issuer *auth.Issuer, roles ...auth.Role) func(http.HandlerFunc) http.HandlerFunc {
	return func(next http.HandlerFunc) http.HandlerFunc {
		return func(w http.ResponseWriter, r *http.Request) {
			authHeader := r.Header.Get("Authorization")
			if authHeader == "" {
				logger.Warn(r.Context()).Msg("Missing authorization header")
				respondStatus(w, http.StatusUnauthorized, "Authorization header required")
				return
			}

			// Extract token from "Bearer <token>"
			parts := strings.Split(authHeader, " ")
			if len(parts) != 2 || parts[0] != "Bearer" {
				logger.Warn(r.Context()).Msg("Invalid authorization header format")
				respondStatus(w, http.StatusUnauthorized, "Invalid authorization header format")
				return
			}

			claims, err := issuer.ValidateToken(parts[1])
			if err != nil {
				logger.Warn(r.Context()).Err(err).Msg("Invalid token")
				respondStatus(w, http.StatusUnauthorized, "Invalid token")
				return
			}

			if len(roles) > 0 && !claims.Role.Allows(roles...) {
				logger.Warn(r.Context()).
					Str("user_id", claims.UserID).
					Str("role", string(claims.Role)).
					Str("path", r.URL.Path).
					Msg("Access denied")
				respondStatus(w, http.StatusForbidden, "Insufficient role")
				return
			}

			ctx := context.WithValue(r.Context(), UserIDKey, claims.UserID)
			ctx = context.WithValue(ctx, NameKey, claims.Name)
			ctx = context.WithValue(ctx, RoleKey, claims.Role)

			next.ServeHTTP(w, r.WithContext(ctx))
		}
	}
}

func respondStatus(w http.ResponseWriter, status int, message string) {
	respondJSON(w, status, Response{
		Success: false,
		Error:   message,
	})
}
