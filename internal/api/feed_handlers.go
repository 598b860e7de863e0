package api

import (
	"net/http"
	"strconv"

	"github.com/stackedapp/stacked-server/internal/domain"
	"github.com/stackedapp/stacked-server/internal/dto"
	"github.com/stackedapp/stacked-server/internal/http/response"
)

// FeedResponse is one page of the composed feed.
type FeedResponse struct {
	Items      []dto.FeedItem    `json:"items"`
	NextCursor string            `json:"next_cursor,omitempty"`
	Filter     domain.FeedFilter `json:"filter"`
}

// handleGetFeed returns one page of the feed for a filter.
func (s *Server) handleGetFeed(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	filter := domain.FeedFilter(r.URL.Query().Get("filter"))
	cursor := r.URL.Query().Get("cursor")

	pageSize := 0
	if raw := r.URL.Query().Get("page_size"); raw != "" {
		if n, err := strconv.Atoi(raw); err == nil {
			pageSize = n
		}
	}

	page, err := s.services.Feed.GetFeed(ctx, filter, cursor, pageSize)
	if err != nil {
		response.HandleError(w, err, s.logger)
		return
	}

	items, err := s.enricher.EnrichFeed(ctx, page.Items)
	if err != nil {
		response.HandleError(w, err, s.logger)
		return
	}

	response.Success(w, FeedResponse{
		Items:      items,
		NextCursor: page.NextCursor,
		Filter:     page.Filter,
	}, s.logger)
}
