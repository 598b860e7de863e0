// Package middleware provides HTTP middleware shared by the API server
// and the SSE endpoint.
package middleware

import (
	"context"
	"log/slog"
	"net/http"
	"strings"

	"github.com/stackedapp/stacked-server/internal/auth"
	"github.com/stackedapp/stacked-server/internal/http/response"
)

// contextKey is a custom type for context keys to avoid collisions.
type contextKey string

const (
	contextKeyUserID   contextKey = "user_id"
	contextKeyUsername contextKey = "username"
	contextKeyTokenID  contextKey = "token_id"
)

// RequireAuth validates the bearer token and attaches user identity to
// the request context. Requests without a valid token get a 401.
func RequireAuth(tokens *auth.TokenService, logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			authHeader := r.Header.Get("Authorization")
			if authHeader == "" {
				response.Unauthorized(w, "missing authorization header", logger)
				return
			}

			parts := strings.SplitN(authHeader, " ", 2)
			if len(parts) != 2 || parts[0] != "Bearer" {
				response.Unauthorized(w, "invalid authorization header format", logger)
				return
			}

			claims, err := tokens.VerifyAccessToken(parts[1])
			if err != nil {
				response.Unauthorized(w, "invalid or expired token", logger)
				return
			}

			ctx := context.WithValue(r.Context(), contextKeyUserID, claims.UserID)
			ctx = context.WithValue(ctx, contextKeyUsername, claims.Username)
			ctx = context.WithValue(ctx, contextKeyTokenID, claims.TokenID)

			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// UserIDFromContext extracts the authenticated user ID from the context.
func UserIDFromContext(ctx context.Context) (string, bool) {
	userID, ok := ctx.Value(contextKeyUserID).(string)
	return userID, ok && userID != ""
}

// UsernameFromContext extracts the authenticated username from the context.
func UsernameFromContext(ctx context.Context) (string, bool) {
	username, ok := ctx.Value(contextKeyUsername).(string)
	return username, ok && username != ""
}

// TokenIDFromContext extracts the token ID from the context.
// Returns empty string if not available.
func TokenIDFromContext(ctx context.Context) string {
	if tokenID, ok := ctx.Value(contextKeyTokenID).(string); ok {
		return tokenID
	}
	return ""
}

// WithUserID returns a context carrying the given user ID. Used by
// tests to exercise authenticated handlers without minting tokens.
func WithUserID(ctx context.Context, userID string) context.Context {
	return context.WithValue(ctx, contextKeyUserID, userID)
}
