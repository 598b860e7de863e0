package dto

import (
	"context"
	"fmt"

	"github.com/stackedapp/stacked-server/internal/domain"
)

// Store defines the interface for fetching related entities during enrichment.
// This allows Enricher to remain testable and independent of concrete store implementation.
type Store interface {
	AtomsByIDs(ctx context.Context, ids []string) ([]*domain.Atom, error)
	UsersByIDs(ctx context.Context, ids []string) ([]*domain.User, error)
	GetStack(ctx context.Context, id string) (*domain.Stack, error)
}

// Enricher denormalizes domain models for client consumption.
//
// Batch fetching: one query per entity type, not per stack. Missing
// references degrade to empty strings rather than errors, so a stack
// whose creator was deleted still renders.
type Enricher struct {
	store Store
}

// NewEnricher creates a new enricher.
func NewEnricher(store Store) *Enricher {
	return &Enricher{store: store}
}

// EnrichStack denormalizes a single stack for client consumption.
func (e *Enricher) EnrichStack(ctx context.Context, stack *domain.Stack) (*Stack, error) {
	enriched, err := e.EnrichStacks(ctx, []*domain.Stack{stack})
	if err != nil {
		return nil, err
	}
	return enriched[0], nil
}

// EnrichStacks denormalizes multiple stacks using batch fetching.
//
// Collects all atom and creator IDs across all stacks, fetches each
// entity type once, and reuses the lookup maps for every stack. Use
// this for feed pages; EnrichStack delegates here for single cards.
func (e *Enricher) EnrichStacks(ctx context.Context, stacks []*domain.Stack) ([]*Stack, error) {
	if len(stacks) == 0 {
		return []*Stack{}, nil
	}

	atomIDSet := make(map[string]bool)
	userIDSet := make(map[string]bool)
	for _, stack := range stacks {
		userIDSet[stack.CreatorID] = true
		for _, item := range stack.Items {
			atomIDSet[item.AtomID] = true
		}
	}

	atomMap, err := e.atomMap(ctx, atomIDSet)
	if err != nil {
		return nil, err
	}
	userMap, err := e.userMap(ctx, userIDSet)
	if err != nil {
		return nil, err
	}

	enriched := make([]*Stack, len(stacks))
	for i, stack := range stacks {
		dto := &Stack{Stack: stack}

		dto.Items = make([]StackItem, len(stack.Items))
		for j, item := range stack.Items {
			dtoItem := StackItem{
				ID:          item.ID,
				AtomID:      item.AtomID,
				Rank:        item.Rank,
				StakeAmount: item.StakeAmount,
				StakerCount: item.StakerCount,
			}
			if atom, ok := atomMap[item.AtomID]; ok {
				dtoItem.Label = atom.Label
				dtoItem.AtomType = atom.Type
				dtoItem.Image = atom.Image
			}
			dto.Items[j] = dtoItem
		}

		if creator, ok := userMap[stack.CreatorID]; ok {
			dto.CreatorName = creator.Username
			dto.CreatorAvatar = creator.Avatar
		}

		if stack.ForkedFrom != "" {
			// Source lookup failure is non-fatal, the fork still renders.
			if source, err := e.store.GetStack(ctx, stack.ForkedFrom); err == nil {
				dto.ForkedFromTitle = source.Title
			}
		}

		enriched[i] = dto
	}

	return enriched, nil
}

// EnrichTriple denormalizes a triple, resolving the three atom labels.
func (e *Enricher) EnrichTriple(ctx context.Context, triple *domain.Triple) (*Triple, error) {
	enriched, err := e.EnrichTriples(ctx, []*domain.Triple{triple})
	if err != nil {
		return nil, err
	}
	return enriched[0], nil
}

// EnrichTriples denormalizes multiple triples using batch fetching.
func (e *Enricher) EnrichTriples(ctx context.Context, triples []*domain.Triple) ([]*Triple, error) {
	if len(triples) == 0 {
		return []*Triple{}, nil
	}

	atomIDSet := make(map[string]bool)
	userIDSet := make(map[string]bool)
	for _, triple := range triples {
		atomIDSet[triple.SubjectID] = true
		atomIDSet[triple.PredicateID] = true
		atomIDSet[triple.ObjectID] = true
		userIDSet[triple.CreatorID] = true
	}

	atomMap, err := e.atomMap(ctx, atomIDSet)
	if err != nil {
		return nil, err
	}
	userMap, err := e.userMap(ctx, userIDSet)
	if err != nil {
		return nil, err
	}

	label := func(atomID string) string {
		if atom, ok := atomMap[atomID]; ok {
			return atom.Label
		}
		return ""
	}

	enriched := make([]*Triple, len(triples))
	for i, triple := range triples {
		dto := &Triple{
			Triple:         triple,
			SubjectLabel:   label(triple.SubjectID),
			PredicateLabel: label(triple.PredicateID),
			ObjectLabel:    label(triple.ObjectID),
		}
		if creator, ok := userMap[triple.CreatorID]; ok {
			dto.CreatorName = creator.Username
		}
		enriched[i] = dto
	}

	return enriched, nil
}

// EnrichActivity denormalizes an atom activity card.
func (e *Enricher) EnrichActivity(ctx context.Context, activity *domain.AtomActivity) (*AtomActivity, error) {
	dto := &AtomActivity{AtomActivity: activity}

	atoms, err := e.store.AtomsByIDs(ctx, []string{activity.AtomID})
	if err != nil {
		return nil, fmt.Errorf("fetch atom: %w", err)
	}
	if len(atoms) > 0 {
		dto.AtomLabel = atoms[0].Label
		dto.AtomType = atoms[0].Type
		dto.AtomImage = atoms[0].Image
	}

	return dto, nil
}

// EnrichFeed denormalizes a composed feed page.
func (e *Enricher) EnrichFeed(ctx context.Context, items []domain.FeedItem) ([]FeedItem, error) {
	stacks := make([]*domain.Stack, 0, len(items))
	for _, item := range items {
		if item.Type == domain.FeedStack {
			stacks = append(stacks, item.Stack)
		}
	}

	enrichedStacks, err := e.EnrichStacks(ctx, stacks)
	if err != nil {
		return nil, fmt.Errorf("enrich feed stacks: %w", err)
	}

	stackByID := make(map[string]*Stack, len(enrichedStacks))
	for _, stack := range enrichedStacks {
		stackByID[stack.ID] = stack
	}

	enriched := make([]FeedItem, 0, len(items))
	for _, item := range items {
		switch item.Type {
		case domain.FeedStack:
			enriched = append(enriched, FeedItem{
				Type:  domain.FeedStack,
				Stack: stackByID[item.Stack.ID],
			})
		case domain.FeedAtomActivity:
			activity, err := e.EnrichActivity(ctx, item.Activity)
			if err != nil {
				return nil, fmt.Errorf("enrich feed activity: %w", err)
			}
			enriched = append(enriched, FeedItem{
				Type:     domain.FeedAtomActivity,
				Activity: activity,
			})
		}
	}

	return enriched, nil
}

func (e *Enricher) atomMap(ctx context.Context, idSet map[string]bool) (map[string]*domain.Atom, error) {
	if len(idSet) == 0 {
		return nil, nil
	}
	ids := make([]string, 0, len(idSet))
	for atomID := range idSet {
		ids = append(ids, atomID)
	}
	atoms, err := e.store.AtomsByIDs(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("fetch atoms: %w", err)
	}
	m := make(map[string]*domain.Atom, len(atoms))
	for _, atom := range atoms {
		m[atom.ID] = atom
	}
	return m, nil
}

func (e *Enricher) userMap(ctx context.Context, idSet map[string]bool) (map[string]*domain.User, error) {
	if len(idSet) == 0 {
		return nil, nil
	}
	ids := make([]string, 0, len(idSet))
	for userID := range idSet {
		ids = append(ids, userID)
	}
	users, err := e.store.UsersByIDs(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("fetch users: %w", err)
	}
	m := make(map[string]*domain.User, len(users))
	for _, user := range users {
		m[user.ID] = user
	}
	return m, nil
}
