package api

import (
	"context"
	"net/http"
	"strconv"

	"github.com/stackedapp/stacked-server/internal/http/middleware"
	"github.com/stackedapp/stacked-server/internal/store"
)

// getUserID returns the authenticated user ID from the request context,
// or the empty string when the request is unauthenticated.
func getUserID(ctx context.Context) string {
	userID, _ := middleware.UserIDFromContext(ctx)
	return userID
}

// parsePaginationParams extracts limit and cursor from the query string.
// Invalid limits fall back to the store defaults.
func parsePaginationParams(r *http.Request) store.PaginationParams {
	params := store.PaginationParams{
		Cursor: r.URL.Query().Get("cursor"),
	}
	if raw := r.URL.Query().Get("limit"); raw != "" {
		if limit, err := strconv.Atoi(raw); err == nil && limit > 0 {
			params.Limit = limit
		}
	}
	return params
}
