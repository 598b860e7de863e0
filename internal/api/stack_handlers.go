package api

import (
	"encoding/json/v2"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/stackedapp/stacked-server/internal/domain"
	"github.com/stackedapp/stacked-server/internal/http/response"
	"github.com/stackedapp/stacked-server/internal/service"
)

// StackItemRequest describes one ranked entry of a new stack. Either an
// existing atom ID or a label for atom resolution must be given.
type StackItemRequest struct {
	AtomID      string `json:"atom_id"`
	Label       string `json:"label"`
	Type        string `json:"type"`
	Description string `json:"description"`
}

// CreateStackRequest is the request body for creating a stack.
type CreateStackRequest struct {
	Title       string             `json:"title" validate:"required,max=120"`
	Description string             `json:"description" validate:"max=2000"`
	Image       string             `json:"image"`
	Category    string             `json:"category" validate:"required"`
	Items       []StackItemRequest `json:"items" validate:"required,min=2"`
}

// ReorderStackRequest is the request body for a manual reorder. ItemIDs
// must be a permutation of the stack's current items.
type ReorderStackRequest struct {
	ItemIDs []string `json:"item_ids" validate:"required,min=1"`
}

func itemParams(items []StackItemRequest) []service.NewItemParams {
	params := make([]service.NewItemParams, 0, len(items))
	for _, item := range items {
		params = append(params, service.NewItemParams{
			AtomID:      item.AtomID,
			Label:       item.Label,
			Type:        domain.AtomType(item.Type),
			Description: item.Description,
		})
	}
	return params
}

// handleCreateStack creates a stack with items ranked in request order.
func (s *Server) handleCreateStack(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req CreateStackRequest
	if err := json.UnmarshalRead(r.Body, &req); err != nil {
		response.BadRequest(w, "Invalid request body", s.logger)
		return
	}
	if err := s.validator.Validate(req); err != nil {
		response.HandleError(w, err, s.logger)
		return
	}

	stack, err := s.services.Stacks.CreateStack(ctx, getUserID(ctx), service.CreateStackParams{
		Title:       req.Title,
		Description: req.Description,
		Image:       req.Image,
		Category:    domain.Category(req.Category),
		Items:       itemParams(req.Items),
	})
	if err != nil {
		response.HandleError(w, err, s.logger)
		return
	}

	s.respondStack(w, r, stack, http.StatusCreated)
}

// handleListStacks returns all stacks, newest first.
func (s *Server) handleListStacks(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	stacks, err := s.services.Stacks.ListStacks(ctx)
	if err != nil {
		response.HandleError(w, err, s.logger)
		return
	}

	enriched, err := s.enricher.EnrichStacks(ctx, stacks)
	if err != nil {
		response.HandleError(w, err, s.logger)
		return
	}

	response.Success(w, enriched, s.logger)
}

// handleGetStack returns a single stack with enriched items.
func (s *Server) handleGetStack(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	stack, err := s.services.Stacks.GetStack(ctx, chi.URLParam(r, "id"))
	if err != nil {
		response.HandleError(w, err, s.logger)
		return
	}

	s.respondStack(w, r, stack, http.StatusOK)
}

// handleDeleteStack deletes a stack. Only the creator may delete it.
func (s *Server) handleDeleteStack(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	if err := s.services.Stacks.DeleteStack(ctx, getUserID(ctx), chi.URLParam(r, "id")); err != nil {
		response.HandleError(w, err, s.logger)
		return
	}

	response.NoContent(w)
}

// handleForkStack copies a stack into the caller's profile with zeroed
// stakes.
func (s *Server) handleForkStack(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	fork, err := s.services.Stacks.ForkStack(ctx, chi.URLParam(r, "id"), getUserID(ctx))
	if err != nil {
		response.HandleError(w, err, s.logger)
		return
	}

	s.respondStack(w, r, fork, http.StatusCreated)
}

// handleReorderStack applies a manual ordering chosen by the creator.
func (s *Server) handleReorderStack(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req ReorderStackRequest
	if err := json.UnmarshalRead(r.Body, &req); err != nil {
		response.BadRequest(w, "Invalid request body", s.logger)
		return
	}
	if err := s.validator.Validate(req); err != nil {
		response.HandleError(w, err, s.logger)
		return
	}

	stack, err := s.services.Stacks.ReorderItems(ctx, getUserID(ctx), chi.URLParam(r, "id"), req.ItemIDs)
	if err != nil {
		response.HandleError(w, err, s.logger)
		return
	}

	s.respondStack(w, r, stack, http.StatusOK)
}

// handleResortStack switches the stack to automatic stake-weight order.
func (s *Server) handleResortStack(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	stack, err := s.services.Stacks.ResortStack(ctx, getUserID(ctx), chi.URLParam(r, "id"))
	if err != nil {
		response.HandleError(w, err, s.logger)
		return
	}

	s.respondStack(w, r, stack, http.StatusOK)
}

// handleRemoveStackItem removes one item and closes the rank gap.
func (s *Server) handleRemoveStackItem(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	stack, err := s.services.Stacks.RemoveItem(ctx, getUserID(ctx), chi.URLParam(r, "id"), chi.URLParam(r, "itemID"))
	if err != nil {
		response.HandleError(w, err, s.logger)
		return
	}

	s.respondStack(w, r, stack, http.StatusOK)
}

// handleLikeStack records a like engagement event for the stack.
func (s *Server) handleLikeStack(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	stack, err := s.services.Stacks.LikeStack(ctx, getUserID(ctx), chi.URLParam(r, "id"))
	if err != nil {
		response.HandleError(w, err, s.logger)
		return
	}

	s.respondStack(w, r, stack, http.StatusOK)
}

// respondStack writes a single enriched stack with the given status.
func (s *Server) respondStack(w http.ResponseWriter, r *http.Request, stack *domain.Stack, status int) {
	enriched, err := s.enricher.EnrichStack(r.Context(), stack)
	if err != nil {
		response.HandleError(w, err, s.logger)
		return
	}
	response.JSON(w, status, enriched, s.logger)
}
