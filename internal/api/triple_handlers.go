package api

import (
	"encoding/json/v2"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/stackedapp/stacked-server/internal/domain"
	"github.com/stackedapp/stacked-server/internal/http/response"
	"github.com/stackedapp/stacked-server/internal/service"
)

// TripleTermRequest names one term of a statement, either by atom ID or
// by label for resolution.
type TripleTermRequest struct {
	AtomID string `json:"atom_id"`
	Label  string `json:"label"`
	Type   string `json:"type"`
}

// CreateTripleRequest is the request body for asserting a statement.
type CreateTripleRequest struct {
	Subject   TripleTermRequest `json:"subject" validate:"required"`
	Predicate TripleTermRequest `json:"predicate" validate:"required"`
	Object    TripleTermRequest `json:"object" validate:"required"`
}

func termParams(term TripleTermRequest) service.NewItemParams {
	return service.NewItemParams{
		AtomID: term.AtomID,
		Label:  term.Label,
		Type:   domain.AtomType(term.Type),
	}
}

// handleCreateTriple asserts a subject-predicate-object statement.
func (s *Server) handleCreateTriple(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req CreateTripleRequest
	if err := json.UnmarshalRead(r.Body, &req); err != nil {
		response.BadRequest(w, "Invalid request body", s.logger)
		return
	}
	if err := s.validator.Validate(req); err != nil {
		response.HandleError(w, err, s.logger)
		return
	}

	triple, err := s.services.Triples.CreateTriple(ctx, getUserID(ctx), service.CreateTripleParams{
		Subject:   termParams(req.Subject),
		Predicate: termParams(req.Predicate),
		Object:    termParams(req.Object),
	})
	if err != nil {
		response.HandleError(w, err, s.logger)
		return
	}

	enriched, err := s.enricher.EnrichTriple(ctx, triple)
	if err != nil {
		response.HandleError(w, err, s.logger)
		return
	}

	response.Created(w, enriched, s.logger)
}

// handleGetTriple returns a single statement with resolved term labels.
func (s *Server) handleGetTriple(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	triple, err := s.services.Triples.GetTriple(ctx, chi.URLParam(r, "id"))
	if err != nil {
		response.HandleError(w, err, s.logger)
		return
	}

	enriched, err := s.enricher.EnrichTriple(ctx, triple)
	if err != nil {
		response.HandleError(w, err, s.logger)
		return
	}

	response.Success(w, enriched, s.logger)
}
