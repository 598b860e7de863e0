package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/stackedapp/stacked-server/internal/domain"
	domainerrors "github.com/stackedapp/stacked-server/internal/errors"
	"github.com/stackedapp/stacked-server/internal/id"
	"github.com/stackedapp/stacked-server/internal/sse"
	"github.com/stackedapp/stacked-server/internal/store"
)

// TripleService manages (subject, predicate, object) claims. Triples are
// created once per statement and then only move through stake events.
type TripleService struct {
	store  *store.Store
	atoms  *AtomService
	events *sse.Manager
	logger *slog.Logger
}

// NewTripleService creates a new triple service.
func NewTripleService(s *store.Store, atoms *AtomService, events *sse.Manager, logger *slog.Logger) *TripleService {
	return &TripleService{
		store:  s,
		atoms:  atoms,
		events: events,
		logger: logger,
	}
}

// CreateTripleParams describes a new triple. Each position resolves like a
// stack item: existing atom by ID, or label resolved/created on first
// reference.
type CreateTripleParams struct {
	Subject   NewItemParams
	Predicate NewItemParams
	Object    NewItemParams
}

// CreateTriple creates a triple. The same statement may exist only once;
// re-asserting it is an ALREADY_EXISTS error pointing at the original.
func (s *TripleService) CreateTriple(ctx context.Context, creatorID string, params CreateTripleParams) (*domain.Triple, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	subject, err := s.atoms.Resolve(ctx, params.Subject)
	if err != nil {
		return nil, fmt.Errorf("resolve subject: %w", err)
	}
	predicate, err := s.atoms.Resolve(ctx, params.Predicate)
	if err != nil {
		return nil, fmt.Errorf("resolve predicate: %w", err)
	}
	object, err := s.atoms.Resolve(ctx, params.Object)
	if err != nil {
		return nil, fmt.Errorf("resolve object: %w", err)
	}

	if existing, err := s.store.TripleByStatement(ctx, subject.ID, predicate.ID, object.ID); err == nil {
		return nil, domainerrors.AlreadyExists(
			fmt.Sprintf("statement already exists as %s", existing.ID))
	} else if !errors.Is(err, store.ErrNotFound) {
		return nil, fmt.Errorf("check statement: %w", err)
	}

	tripleID, err := id.Generate(id.PrefixTriple)
	if err != nil {
		return nil, fmt.Errorf("generate triple ID: %w", err)
	}

	triple := &domain.Triple{
		ID:          tripleID,
		SubjectID:   subject.ID,
		PredicateID: predicate.ID,
		ObjectID:    object.ID,
		CreatorID:   creatorID,
		CreatedAt:   time.Now(),
	}

	if err := s.store.Triples.Create(ctx, tripleID, triple); err != nil {
		return nil, err
	}

	if s.events != nil {
		s.events.Emit(sse.NewEvent(sse.EventTripleCreated, sse.TripleEventData{Triple: triple}))
	}

	s.logger.Info("triple created",
		"triple_id", tripleID,
		"subject", subject.Label,
		"predicate", predicate.Label,
		"object", object.Label,
	)
	return triple, nil
}

// GetTriple retrieves a triple by ID.
func (s *TripleService) GetTriple(ctx context.Context, tripleID string) (*domain.Triple, error) {
	return s.store.Triples.Get(ctx, tripleID)
}

// TriplesForAtom returns the triples referencing an atom in any position.
func (s *TripleService) TriplesForAtom(ctx context.Context, atomID string) ([]*domain.Triple, error) {
	return s.store.TriplesByAtom(ctx, atomID)
}
