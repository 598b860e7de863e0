package service

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/stackedapp/stacked-server/internal/domain"
	domainerrors "github.com/stackedapp/stacked-server/internal/errors"
	"github.com/stackedapp/stacked-server/internal/id"
	"github.com/stackedapp/stacked-server/internal/ratelimit"
	"github.com/stackedapp/stacked-server/internal/signals"
	"github.com/stackedapp/stacked-server/internal/sse"
	"github.com/stackedapp/stacked-server/internal/store"
	"github.com/stackedapp/stacked-server/internal/store/ledger"
)

// LedgerService owns stake recording: every stake becomes an immutable
// position row, and target aggregates are derived from those rows.
// Positions are never edited; a reversal is a new offsetting position.
type LedgerService struct {
	store         *store.Store
	ledger        *ledger.Store
	limiter       *ratelimit.KeyedRateLimiter
	signals       *SignalService
	notifications *NotificationService
	events        *sse.Manager
	logger        *slog.Logger
}

// NewLedgerService creates a new ledger service.
func NewLedgerService(
	s *store.Store,
	l *ledger.Store,
	limiter *ratelimit.KeyedRateLimiter,
	signalSvc *SignalService,
	notifications *NotificationService,
	events *sse.Manager,
	logger *slog.Logger,
) *LedgerService {
	return &LedgerService{
		store:         s,
		ledger:        l,
		limiter:       limiter,
		signals:       signalSvc,
		notifications: notifications,
		events:        events,
		logger:        logger,
	}
}

// StakeParams describes one stake submission.
type StakeParams struct {
	TargetType domain.TargetType
	TargetID   string
	// ItemID optionally attributes a stack stake to one ranked item.
	ItemID    string
	Amount    int64
	Direction domain.Direction
}

// RecordStake validates and appends a stake position, then folds it into
// the target's aggregates. A repeat stake by the same user on the same
// target is an amount top-up: totalStaked rises, stakerCount does not.
func (s *LedgerService) RecordStake(ctx context.Context, userID string, params StakeParams) (*domain.StakePosition, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	if params.Amount <= 0 {
		return nil, domainerrors.Validation("stake amount must be positive")
	}
	if !params.TargetType.Valid() {
		return nil, domainerrors.Validationf("unknown target type %q", params.TargetType)
	}
	if params.Direction == "" {
		params.Direction = domain.DirectionFor
	}
	if !params.Direction.Valid() {
		return nil, domainerrors.Validationf("unknown direction %q", params.Direction)
	}
	if params.Direction == domain.DirectionAgainst && params.TargetType != domain.TargetTriple {
		return nil, domainerrors.Validation("only triples accept against stakes")
	}
	if params.ItemID != "" && params.TargetType != domain.TargetStack {
		return nil, domainerrors.Validation("item attribution requires a stack target")
	}

	if s.limiter != nil && !s.limiter.Allow(userID) {
		return nil, domainerrors.RateLimited("too many stakes, slow down")
	}

	if err := s.verifyTarget(ctx, params); err != nil {
		return nil, err
	}

	// The staker-count policy needs to know whether this user already
	// holds a position before the new row lands.
	hasPrior, err := s.ledger.HasPosition(ctx, userID, params.TargetType, params.TargetID)
	if err != nil {
		return nil, fmt.Errorf("check prior position: %w", err)
	}
	firstPosition := !hasPrior

	posID, err := id.Generate(id.PrefixPosition)
	if err != nil {
		return nil, fmt.Errorf("generate position ID: %w", err)
	}

	position := &domain.StakePosition{
		ID:         posID,
		UserID:     userID,
		TargetType: params.TargetType,
		TargetID:   params.TargetID,
		ItemID:     params.ItemID,
		Amount:     params.Amount,
		Direction:  params.Direction,
		CreatedAt:  time.Now(),
	}

	if err := s.ledger.AppendPosition(ctx, position); err != nil {
		return nil, fmt.Errorf("append position: %w", err)
	}

	creatorID, err := s.applyToTarget(ctx, position, firstPosition)
	if err != nil {
		// Unwind the row so the ledger never holds a position the
		// target's aggregates don't reflect.
		if delErr := s.ledger.DeletePosition(ctx, posID); delErr != nil {
			s.logger.Error("failed to unwind position after aggregate failure",
				"position_id", posID, "error", delErr)
		}
		return nil, err
	}

	// Staker's own running total.
	if _, err := s.store.Users.Mutate(ctx, userID, func(u *domain.User) error {
		u.TotalStaked += params.Amount
		return nil
	}); err != nil {
		s.logger.Warn("failed to update staker total", "user_id", userID, "error", err)
	}

	if err := s.ledger.RecordEvent(ctx, params.TargetType, params.TargetID, userID,
		signals.EventStake, params.Amount, position.CreatedAt); err != nil {
		s.logger.Warn("failed to record stake event", "position_id", posID, "error", err)
	}
	if s.signals != nil {
		if _, err := s.signals.RecomputeTarget(ctx, params.TargetType, params.TargetID); err != nil {
			s.logger.Warn("failed to recompute signals", "target_id", params.TargetID, "error", err)
		}
	}

	if s.events != nil {
		totals, err := s.ledger.TotalsForTarget(ctx, params.TargetType, params.TargetID)
		if err == nil {
			s.events.Emit(sse.NewStakeEvent(position, totals.Total, totals.StakerCount))
		}
	}

	if s.notifications != nil && creatorID != "" {
		if err := s.notifications.Notify(ctx, NotifyParams{
			UserID:     creatorID,
			ActorID:    userID,
			Type:       domain.NotificationStake,
			Title:      "New stake",
			Body:       fmt.Sprintf("Someone staked %d on your %s", params.Amount, params.TargetType),
			TargetType: params.TargetType,
			TargetID:   params.TargetID,
		}); err != nil {
			s.logger.Warn("failed to notify creator", "creator_id", creatorID, "error", err)
		}
	}

	s.logger.Info("stake recorded",
		"position_id", posID,
		"user_id", userID,
		"target_type", params.TargetType,
		"target_id", params.TargetID,
		"amount", params.Amount,
		"direction", params.Direction,
		"first_position", firstPosition,
	)

	return position, nil
}

// verifyTarget ensures the stake target exists. Missing targets are a 404
// INVALID_TARGET, not a validation error: the shape of the request is
// fine, the referenced entity is not there.
func (s *LedgerService) verifyTarget(ctx context.Context, params StakeParams) error {
	var err error
	switch params.TargetType {
	case domain.TargetAtom:
		_, err = s.store.Atoms.Get(ctx, params.TargetID)
	case domain.TargetTriple:
		_, err = s.store.Triples.Get(ctx, params.TargetID)
	case domain.TargetStack:
		var stack *domain.Stack
		stack, err = s.store.Stacks.Get(ctx, params.TargetID)
		if err == nil && params.ItemID != "" && stack.Item(params.ItemID) == nil {
			return domainerrors.InvalidTargetf("stack %s has no item %s", params.TargetID, params.ItemID)
		}
	}
	if err != nil {
		return domainerrors.InvalidTargetf("%s %s does not exist", params.TargetType, params.TargetID)
	}
	return nil
}

// applyToTarget folds the position into the target's aggregates and
// returns the target's creator for notification purposes.
func (s *LedgerService) applyToTarget(ctx context.Context, position *domain.StakePosition, firstPosition bool) (string, error) {
	switch position.TargetType {
	case domain.TargetAtom:
		_, err := s.store.Atoms.Mutate(ctx, position.TargetID, func(a *domain.Atom) error {
			a.ApplyStake(position.Amount, firstPosition)
			return nil
		})
		if err != nil {
			return "", fmt.Errorf("apply stake to atom: %w", err)
		}
		return "", nil

	case domain.TargetTriple:
		triple, err := s.store.Triples.Mutate(ctx, position.TargetID, func(t *domain.Triple) error {
			t.ApplyStake(position.Amount, position.Direction, firstPosition)
			return nil
		})
		if err != nil {
			return "", fmt.Errorf("apply stake to triple: %w", err)
		}
		return triple.CreatorID, nil

	case domain.TargetStack:
		stack, err := s.store.Stacks.Mutate(ctx, position.TargetID, func(st *domain.Stack) error {
			st.ApplyStake(position.Amount, firstPosition, position.ItemID)
			return nil
		})
		if err != nil {
			return "", fmt.Errorf("apply stake to stack: %w", err)
		}
		return stack.CreatorID, nil
	}
	return "", fmt.Errorf("unknown target type %q", position.TargetType)
}

// StakesForUser returns the user's positions, newest first.
func (s *LedgerService) StakesForUser(ctx context.Context, userID string) ([]*domain.StakePosition, error) {
	return s.ledger.PositionsForUser(ctx, userID)
}

// PositionsForTarget returns every position on a target, newest first.
func (s *LedgerService) PositionsForTarget(ctx context.Context, targetType domain.TargetType, targetID string) ([]*domain.StakePosition, error) {
	return s.ledger.PositionsForTarget(ctx, targetType, targetID)
}

// TotalsForTarget returns ledger-derived aggregates for a target.
func (s *LedgerService) TotalsForTarget(ctx context.Context, targetType domain.TargetType, targetID string) (*ledger.TargetTotals, error) {
	return s.ledger.TotalsForTarget(ctx, targetType, targetID)
}
