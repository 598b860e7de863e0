package service

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/stackedapp/stacked-server/internal/domain"
	domainerrors "github.com/stackedapp/stacked-server/internal/errors"
	"github.com/stackedapp/stacked-server/internal/id"
	"github.com/stackedapp/stacked-server/internal/signals"
	"github.com/stackedapp/stacked-server/internal/sse"
	"github.com/stackedapp/stacked-server/internal/store"
	"github.com/stackedapp/stacked-server/internal/store/ledger"
)

// minStackItems is the smallest stack that still expresses a ranking.
const minStackItems = 2

// StackService orchestrates stack curation: creation, forking, manual
// reordering and automatic resort. All mutations are creator-only.
type StackService struct {
	store         *store.Store
	ledger        *ledger.Store
	atoms         *AtomService
	signals       *SignalService
	notifications *NotificationService
	events        *sse.Manager
	logger        *slog.Logger
}

// NewStackService creates a new stack service.
func NewStackService(
	s *store.Store,
	l *ledger.Store,
	atoms *AtomService,
	signalSvc *SignalService,
	notifications *NotificationService,
	events *sse.Manager,
	logger *slog.Logger,
) *StackService {
	return &StackService{
		store:         s,
		ledger:        l,
		atoms:         atoms,
		signals:       signalSvc,
		notifications: notifications,
		events:        events,
		logger:        logger,
	}
}

// NewItemParams describes one item of a new stack. Either AtomID names an
// existing atom, or Label (plus optional Type/Description) resolves to an
// existing atom by label or creates one on first reference.
type NewItemParams struct {
	AtomID      string
	Label       string
	Type        domain.AtomType
	Description string
}

// CreateStackParams describes a new stack.
type CreateStackParams struct {
	Title       string
	Description string
	Image       string
	Category    domain.Category
	Items       []NewItemParams
}

// CreateStack creates a stack with items ranked 1..N in the given order.
func (s *StackService) CreateStack(ctx context.Context, creatorID string, params CreateStackParams) (*domain.Stack, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	if params.Title == "" {
		return nil, domainerrors.Validation("title is required")
	}
	if len(params.Items) < minStackItems {
		return nil, domainerrors.Validationf("a stack needs at least %d items", minStackItems)
	}
	if !params.Category.Valid() {
		return nil, domainerrors.Validationf("unknown category %q", params.Category)
	}

	now := time.Now()
	items := make([]domain.StackItem, 0, len(params.Items))
	seen := make(map[string]bool, len(params.Items))
	for i, itemParams := range params.Items {
		atom, err := s.atoms.Resolve(ctx, itemParams)
		if err != nil {
			return nil, fmt.Errorf("resolve item %d: %w", i+1, err)
		}
		if seen[atom.ID] {
			return nil, domainerrors.Validationf("atom %s appears more than once", atom.Label)
		}
		seen[atom.ID] = true

		itemID, err := id.Generate(id.PrefixItem)
		if err != nil {
			return nil, fmt.Errorf("generate item ID: %w", err)
		}
		items = append(items, domain.StackItem{
			ID:      itemID,
			AtomID:  atom.ID,
			Rank:    i + 1,
			AddedAt: now,
		})
	}

	stackID, err := id.Generate(id.PrefixStack)
	if err != nil {
		return nil, fmt.Errorf("generate stack ID: %w", err)
	}

	stack := &domain.Stack{
		ID:          stackID,
		CreatorID:   creatorID,
		Title:       params.Title,
		Description: params.Description,
		Image:       params.Image,
		Category:    params.Category,
		Items:       items,
		OrderMode:   domain.OrderManual,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	if err := s.store.Stacks.Create(ctx, stackID, stack); err != nil {
		return nil, fmt.Errorf("create stack: %w", err)
	}
	s.store.IndexStack(stack)

	if s.events != nil {
		s.events.Emit(sse.NewStackEvent(sse.EventStackCreated, stack))
	}

	s.logger.Info("stack created",
		"stack_id", stackID, "creator_id", creatorID, "items", len(items))
	return stack, nil
}

// GetStack retrieves a stack by ID.
func (s *StackService) GetStack(ctx context.Context, stackID string) (*domain.Stack, error) {
	return s.store.Stacks.Get(ctx, stackID)
}

// StacksByCreator returns all stacks created by a user, newest first.
func (s *StackService) StacksByCreator(ctx context.Context, userID string) ([]*domain.Stack, error) {
	return s.store.StacksByCreator(ctx, userID)
}

// ListStacks returns every stack.
func (s *StackService) ListStacks(ctx context.Context) ([]*domain.Stack, error) {
	return s.store.Stacks.ListAll(ctx)
}

// ForkStack deep-copies a stack for a new creator. Items keep their atom
// references and ranks but get fresh IDs and zeroed stake fields, so later
// stakes on either stack never bleed into the other.
func (s *StackService) ForkStack(ctx context.Context, sourceID, creatorID string) (*domain.Stack, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	source, err := s.store.Stacks.Get(ctx, sourceID)
	if err != nil {
		return nil, err
	}

	forkID, err := id.Generate(id.PrefixStack)
	if err != nil {
		return nil, fmt.Errorf("generate stack ID: %w", err)
	}

	now := time.Now()
	items := make([]domain.StackItem, len(source.Items))
	for i, item := range source.Items {
		itemID, err := id.Generate(id.PrefixItem)
		if err != nil {
			return nil, fmt.Errorf("generate item ID: %w", err)
		}
		items[i] = domain.StackItem{
			ID:      itemID,
			AtomID:  item.AtomID,
			Rank:    item.Rank,
			AddedAt: now,
		}
	}

	fork := &domain.Stack{
		ID:          forkID,
		CreatorID:   creatorID,
		Title:       source.Title,
		Description: source.Description,
		Image:       source.Image,
		Category:    source.Category,
		Items:       items,
		ForkedFrom:  sourceID,
		OrderMode:   domain.OrderManual,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	if err := s.store.Stacks.Create(ctx, forkID, fork); err != nil {
		return nil, fmt.Errorf("create fork: %w", err)
	}
	s.store.IndexStack(fork)

	if _, err := s.store.Stacks.Mutate(ctx, sourceID, func(st *domain.Stack) error {
		st.ForkCount++
		return nil
	}); err != nil {
		s.logger.Warn("failed to bump fork count", "stack_id", sourceID, "error", err)
	}

	// A fork is engagement with the source: it feeds the source's heartbeat.
	if err := s.ledger.RecordEvent(ctx, domain.TargetStack, sourceID, creatorID,
		signals.EventFork, 0, now); err != nil {
		s.logger.Warn("failed to record fork event", "stack_id", sourceID, "error", err)
	}
	if s.signals != nil {
		if _, err := s.signals.RecomputeTarget(ctx, domain.TargetStack, sourceID); err != nil {
			s.logger.Warn("failed to recompute signals", "stack_id", sourceID, "error", err)
		}
	}

	if s.events != nil {
		forker, _ := s.store.Users.Get(ctx, creatorID)
		forkerName := ""
		if forker != nil {
			forkerName = forker.Username
		}
		s.events.Emit(sse.NewEvent(sse.EventStackForked, sse.StackForkedEventData{
			Fork:         fork,
			SourceID:     sourceID,
			ForkedByID:   creatorID,
			ForkedByName: forkerName,
		}))
	}

	if s.notifications != nil {
		if err := s.notifications.Notify(ctx, NotifyParams{
			UserID:     source.CreatorID,
			ActorID:    creatorID,
			Type:       domain.NotificationFork,
			Title:      "Stack forked",
			Body:       fmt.Sprintf("Your stack %q was forked", source.Title),
			TargetType: domain.TargetStack,
			TargetID:   sourceID,
		}); err != nil {
			s.logger.Warn("failed to notify fork", "creator_id", source.CreatorID, "error", err)
		}
	}

	s.logger.Info("stack forked", "source_id", sourceID, "fork_id", forkID, "creator_id", creatorID)
	return fork, nil
}

// ReorderItems applies a manual order to a stack. The ID multiset must
// exactly match the current items; anything else is a RANK_MISMATCH.
func (s *StackService) ReorderItems(ctx context.Context, userID, stackID string, orderedItemIDs []string) (*domain.Stack, error) {
	stack, err := s.mutateOwned(ctx, userID, stackID, func(st *domain.Stack) error {
		if err := st.Reorder(orderedItemIDs); err != nil {
			return domainerrors.RankMismatch(err.Error())
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.emitStackUpdated(stack)
	return stack, nil
}

// RemoveItem deletes one item and closes up the ranks. A stack may not
// shrink below the minimum item count.
func (s *StackService) RemoveItem(ctx context.Context, userID, stackID, itemID string) (*domain.Stack, error) {
	stack, err := s.mutateOwned(ctx, userID, stackID, func(st *domain.Stack) error {
		if len(st.Items) <= minStackItems {
			return domainerrors.Validationf("a stack needs at least %d items", minStackItems)
		}
		if !st.RemoveItem(itemID) {
			return domainerrors.NotFoundf("item %s not found", itemID)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.emitStackUpdated(stack)
	return stack, nil
}

// ResortStack applies the canonical automatic order: stake desc, earliest
// AddedAt, atom ID. Idempotent on an already-sorted stack.
func (s *StackService) ResortStack(ctx context.Context, userID, stackID string) (*domain.Stack, error) {
	stack, err := s.mutateOwned(ctx, userID, stackID, func(st *domain.Stack) error {
		st.Resort()
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.emitStackUpdated(stack)
	return stack, nil
}

// DeleteStack removes a stack and its search document. Atoms referenced by
// the stack remain: atom identity is append-only.
func (s *StackService) DeleteStack(ctx context.Context, userID, stackID string) error {
	stack, err := s.store.Stacks.Get(ctx, stackID)
	if err != nil {
		return err
	}
	if stack.CreatorID != userID {
		return domainerrors.Unauthorized("only the creator may delete a stack")
	}

	if err := s.store.Stacks.Delete(ctx, stackID); err != nil {
		return fmt.Errorf("delete stack: %w", err)
	}
	s.store.DeindexStack(stackID)

	if s.events != nil {
		s.events.Emit(sse.NewStackDeletedEvent(stackID))
	}

	s.logger.Info("stack deleted", "stack_id", stackID, "creator_id", userID)
	return nil
}

// LikeStack records a like as an engagement event. Likes only move the
// heartbeat signal; they never touch stake aggregates.
func (s *StackService) LikeStack(ctx context.Context, userID, stackID string) (*domain.Stack, error) {
	stack, err := s.store.Stacks.Get(ctx, stackID)
	if err != nil {
		return nil, err
	}

	if err := s.ledger.RecordEvent(ctx, domain.TargetStack, stackID, userID,
		signals.EventLike, 0, time.Now()); err != nil {
		return nil, fmt.Errorf("record like: %w", err)
	}

	if s.signals != nil {
		if _, err := s.signals.RecomputeTarget(ctx, domain.TargetStack, stackID); err != nil {
			s.logger.Warn("failed to recompute signals", "stack_id", stackID, "error", err)
		}
	}

	// Return the refreshed stack so clients see the new heartbeat.
	return s.store.Stacks.Get(ctx, stack.ID)
}

// mutateOwned applies a creator-only mutation to a stack.
func (s *StackService) mutateOwned(ctx context.Context, userID, stackID string, apply func(*domain.Stack) error) (*domain.Stack, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return s.store.Stacks.Mutate(ctx, stackID, func(st *domain.Stack) error {
		if st.CreatorID != userID {
			return domainerrors.Unauthorized("only the creator may modify a stack")
		}
		return apply(st)
	})
}

func (s *StackService) emitStackUpdated(stack *domain.Stack) {
	s.store.IndexStack(stack)
	if s.events != nil {
		s.events.Emit(sse.NewStackEvent(sse.EventStackUpdated, stack))
	}
}
