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

// AtomService manages atom identity. Atoms are append-only: created on
// first reference, never deleted, so triples and stack items can hold atom
// IDs forever.
type AtomService struct {
	store  *store.Store
	events *sse.Manager
	logger *slog.Logger
}

// NewAtomService creates a new atom service.
func NewAtomService(s *store.Store, events *sse.Manager, logger *slog.Logger) *AtomService {
	return &AtomService{
		store:  s,
		events: events,
		logger: logger,
	}
}

// CreateAtomParams describes a new atom.
type CreateAtomParams struct {
	Label       string
	Type        domain.AtomType
	Description string
	Image       string
}

// CreateAtom creates an atom. Labels are unique modulo case and
// whitespace; a duplicate label is an ALREADY_EXISTS error.
func (s *AtomService) CreateAtom(ctx context.Context, params CreateAtomParams) (*domain.Atom, error) {
	if params.Label == "" {
		return nil, domainerrors.Validation("label is required")
	}
	atomType := params.Type
	if atomType == "" {
		atomType = domain.AtomConcept
	}
	if !atomType.Valid() {
		return nil, domainerrors.Validationf("unknown atom type %q", params.Type)
	}

	atomID, err := id.Generate(id.PrefixAtom)
	if err != nil {
		return nil, fmt.Errorf("generate atom ID: %w", err)
	}

	atom := &domain.Atom{
		ID:          atomID,
		Label:       params.Label,
		Type:        atomType,
		Description: params.Description,
		Image:       params.Image,
		CreatedAt:   time.Now(),
	}

	if err := s.store.Atoms.Create(ctx, atomID, atom); err != nil {
		return nil, err
	}
	s.store.IndexAtom(atom)

	if s.events != nil {
		s.events.Emit(sse.NewEvent(sse.EventAtomCreated, sse.AtomEventData{Atom: atom}))
	}

	s.logger.Info("atom created", "atom_id", atomID, "label", params.Label, "type", atomType)
	return atom, nil
}

// Resolve returns the atom an item parameter refers to: by ID when given,
// otherwise by label lookup, creating the atom on first reference.
func (s *AtomService) Resolve(ctx context.Context, params NewItemParams) (*domain.Atom, error) {
	if params.AtomID != "" {
		atom, err := s.store.Atoms.Get(ctx, params.AtomID)
		if err != nil {
			return nil, domainerrors.InvalidTargetf("atom %s does not exist", params.AtomID)
		}
		return atom, nil
	}

	if params.Label == "" {
		return nil, domainerrors.Validation("item needs an atom_id or a label")
	}

	atom, err := s.store.Atoms.GetByIndex(ctx, "label", params.Label)
	if err == nil {
		return atom, nil
	}
	if !errors.Is(err, store.ErrNotFound) {
		return nil, fmt.Errorf("lookup atom by label: %w", err)
	}

	return s.CreateAtom(ctx, CreateAtomParams{
		Label:       params.Label,
		Type:        params.Type,
		Description: params.Description,
	})
}

// GetAtom retrieves an atom by ID.
func (s *AtomService) GetAtom(ctx context.Context, atomID string) (*domain.Atom, error) {
	return s.store.Atoms.Get(ctx, atomID)
}

// RelatedStacks returns the stacks that rank the given atom.
func (s *AtomService) RelatedStacks(ctx context.Context, atomID string) ([]*domain.Stack, error) {
	var out []*domain.Stack
	for stack, err := range s.store.Stacks.List(ctx) {
		if err != nil {
			return nil, err
		}
		if stack.ContainsAtom(atomID) {
			out = append(out, stack)
		}
	}
	return out, nil
}
