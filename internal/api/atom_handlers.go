package api

import (
	"encoding/json/v2"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/stackedapp/stacked-server/internal/domain"
	"github.com/stackedapp/stacked-server/internal/dto"
	"github.com/stackedapp/stacked-server/internal/http/response"
	"github.com/stackedapp/stacked-server/internal/service"
)

// CreateAtomRequest is the request body for creating an atom.
type CreateAtomRequest struct {
	Label       string `json:"label" validate:"required,max=200"`
	Type        string `json:"type"`
	Description string `json:"description" validate:"max=2000"`
	Image       string `json:"image"`
}

// AtomResponse is an atom plus the stacks that rank it.
type AtomResponse struct {
	Atom          *domain.Atom `json:"atom"`
	RelatedStacks []*dto.Stack `json:"related_stacks"`
}

// handleCreateAtom creates a knowledge graph atom. Atoms are append-only;
// recreating an existing label is a conflict.
func (s *Server) handleCreateAtom(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req CreateAtomRequest
	if err := json.UnmarshalRead(r.Body, &req); err != nil {
		response.BadRequest(w, "Invalid request body", s.logger)
		return
	}
	if err := s.validator.Validate(req); err != nil {
		response.HandleError(w, err, s.logger)
		return
	}

	atom, err := s.services.Atoms.CreateAtom(ctx, service.CreateAtomParams{
		Label:       req.Label,
		Type:        domain.AtomType(req.Type),
		Description: req.Description,
		Image:       req.Image,
	})
	if err != nil {
		response.HandleError(w, err, s.logger)
		return
	}

	response.Created(w, atom, s.logger)
}

// handleGetAtom returns an atom together with the stacks ranking it.
func (s *Server) handleGetAtom(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	id := chi.URLParam(r, "id")

	atom, err := s.services.Atoms.GetAtom(ctx, id)
	if err != nil {
		response.HandleError(w, err, s.logger)
		return
	}

	related, err := s.services.Atoms.RelatedStacks(ctx, id)
	if err != nil {
		response.HandleError(w, err, s.logger)
		return
	}

	stacks, err := s.enricher.EnrichStacks(ctx, related)
	if err != nil {
		response.HandleError(w, err, s.logger)
		return
	}

	response.Success(w, AtomResponse{Atom: atom, RelatedStacks: stacks}, s.logger)
}

// handleAtomStacks returns only the stacks that contain the atom.
func (s *Server) handleAtomStacks(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	related, err := s.services.Atoms.RelatedStacks(ctx, chi.URLParam(r, "id"))
	if err != nil {
		response.HandleError(w, err, s.logger)
		return
	}

	stacks, err := s.enricher.EnrichStacks(ctx, related)
	if err != nil {
		response.HandleError(w, err, s.logger)
		return
	}

	response.Success(w, stacks, s.logger)
}

// handleAtomTriples returns the triples whose subject or object is the atom.
func (s *Server) handleAtomTriples(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	triples, err := s.services.Triples.TriplesForAtom(ctx, chi.URLParam(r, "id"))
	if err != nil {
		response.HandleError(w, err, s.logger)
		return
	}

	enriched, err := s.enricher.EnrichTriples(ctx, triples)
	if err != nil {
		response.HandleError(w, err, s.logger)
		return
	}

	response.Success(w, enriched, s.logger)
}
