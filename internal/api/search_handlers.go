package api

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/stackedapp/stacked-server/internal/domain"
	"github.com/stackedapp/stacked-server/internal/http/response"
	"github.com/stackedapp/stacked-server/internal/search"
)

// handleListCategories returns the known stack categories in display order.
func (s *Server) handleListCategories(w http.ResponseWriter, _ *http.Request) {
	response.Success(w, domain.Categories, s.logger)
}

// handleSearch runs a full text search over atoms, stacks and users.
// Supported query params: q, type (comma separated), category, limit, offset, sort.
func (s *Server) handleSearch(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	q := r.URL.Query()

	params := search.DefaultSearchParams()
	params.Query = q.Get("q")

	if types := q.Get("type"); types != "" {
		params.Types = strings.Split(types, ",")
	}
	if category := q.Get("category"); category != "" {
		params.Categories = []string{category}
	}
	if raw := q.Get("limit"); raw != "" {
		if limit, err := strconv.Atoi(raw); err == nil && limit > 0 {
			params.Limit = limit
		}
	}
	if raw := q.Get("offset"); raw != "" {
		if offset, err := strconv.Atoi(raw); err == nil && offset >= 0 {
			params.Offset = offset
		}
	}
	if sortBy := q.Get("sort"); sortBy != "" {
		params.SortBy = sortBy
	}

	result, err := s.services.Search.Search(ctx, params)
	if err != nil {
		response.HandleError(w, err, s.logger)
		return
	}

	response.Success(w, result, s.logger)
}
