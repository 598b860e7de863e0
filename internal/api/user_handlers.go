package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/stackedapp/stacked-server/internal/domain"
	"github.com/stackedapp/stacked-server/internal/dto"
	"github.com/stackedapp/stacked-server/internal/http/response"
)

// ProfileResponse is a user together with their stacks.
type ProfileResponse struct {
	User   *domain.User `json:"user"`
	Stacks []*dto.Stack `json:"stacks"`
}

// handleGetProfile returns a user's public profile and their stacks.
func (s *Server) handleGetProfile(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	id := chi.URLParam(r, "id")

	profile, err := s.services.Profiles.GetProfile(ctx, id)
	if err != nil {
		response.HandleError(w, err, s.logger)
		return
	}

	stacks, err := s.enricher.EnrichStacks(ctx, profile.Stacks)
	if err != nil {
		response.HandleError(w, err, s.logger)
		return
	}

	response.Success(w, ProfileResponse{User: dto.PublicUser(profile.User), Stacks: stacks}, s.logger)
}

// handleFollow makes the authenticated user follow the target user.
// Returns the follower's updated record.
func (s *Server) handleFollow(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	follower, err := s.services.Profiles.Follow(ctx, getUserID(ctx), chi.URLParam(r, "id"))
	if err != nil {
		response.HandleError(w, err, s.logger)
		return
	}

	response.Success(w, dto.PublicUser(follower), s.logger)
}

// handleUnfollow removes a follow edge. Unfollowing someone you don't
// follow is a no-op and still succeeds.
func (s *Server) handleUnfollow(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	follower, err := s.services.Profiles.Unfollow(ctx, getUserID(ctx), chi.URLParam(r, "id"))
	if err != nil {
		response.HandleError(w, err, s.logger)
		return
	}

	response.Success(w, dto.PublicUser(follower), s.logger)
}

// handleGetAlignment compares the staking profiles of two users.
func (s *Server) handleGetAlignment(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	userA := r.URL.Query().Get("user_a")
	userB := r.URL.Query().Get("user_b")
	if userA == "" {
		userA = getUserID(ctx)
	}

	alignment, err := s.services.Profiles.GetAlignment(ctx, userA, userB)
	if err != nil {
		response.HandleError(w, err, s.logger)
		return
	}

	response.Success(w, alignment, s.logger)
}
