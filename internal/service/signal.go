package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/stackedapp/stacked-server/internal/config"
	"github.com/stackedapp/stacked-server/internal/domain"
	"github.com/stackedapp/stacked-server/internal/signals"
	"github.com/stackedapp/stacked-server/internal/sse"
	"github.com/stackedapp/stacked-server/internal/store"
	"github.com/stackedapp/stacked-server/internal/store/ledger"
)

// SignalService recomputes heat, heartbeat and momentum for targets from
// the ledger's engagement events. Recompute runs synchronously after each
// recorded event and periodically in a background sweep so decayed scores
// drift down even on quiet targets.
type SignalService struct {
	store  *store.Store
	ledger *ledger.Store
	calc   *signals.Calculator
	window time.Duration
	sweep  time.Duration
	events *sse.Manager
	logger *slog.Logger

	done chan struct{}
}

// NewSignalService creates a new signal service.
func NewSignalService(s *store.Store, l *ledger.Store, cfg config.SignalsConfig, events *sse.Manager, logger *slog.Logger) *SignalService {
	calcCfg := signals.DefaultConfig()
	if cfg.Window > 0 {
		calcCfg.Window = cfg.Window
	}
	if cfg.HeatHalfLife > 0 {
		calcCfg.HeatHalfLife = cfg.HeatHalfLife
	}
	if cfg.HeartbeatHalfLife > 0 {
		calcCfg.HeartbeatHalfLife = cfg.HeartbeatHalfLife
	}
	sweep := cfg.SweepInterval
	if sweep <= 0 {
		sweep = 5 * time.Minute
	}

	return &SignalService{
		store:  s,
		ledger: l,
		calc:   signals.NewCalculator(calcCfg),
		window: calcCfg.Window,
		sweep:  sweep,
		events: events,
		logger: logger,
		done:   make(chan struct{}),
	}
}

// RecomputeTarget recalculates signals for one target and stores them on
// the entity. Momentum compares the current window against the prior one,
// so events are fetched back two windows.
func (s *SignalService) RecomputeTarget(ctx context.Context, targetType domain.TargetType, targetID string) (domain.Signals, error) {
	now := time.Now()
	events, err := s.ledger.EventsForTarget(ctx, targetType, targetID, now.Add(-2*s.window))
	if err != nil {
		return domain.Signals{}, fmt.Errorf("fetch events: %w", err)
	}

	sig := s.calc.Compute(now, events)

	if err := s.storeSignals(ctx, targetType, targetID, sig); err != nil {
		return domain.Signals{}, err
	}

	if s.events != nil {
		s.events.Emit(sse.NewSignalsEvent(targetType, targetID, sig))
	}
	return sig, nil
}

// storeSignals writes the computed scores onto the target entity.
func (s *SignalService) storeSignals(ctx context.Context, targetType domain.TargetType, targetID string, sig domain.Signals) error {
	var err error
	switch targetType {
	case domain.TargetAtom:
		_, err = s.store.Atoms.Mutate(ctx, targetID, func(a *domain.Atom) error {
			a.Signals = sig
			return nil
		})
	case domain.TargetTriple:
		_, err = s.store.Triples.Mutate(ctx, targetID, func(t *domain.Triple) error {
			t.Signals = sig
			return nil
		})
	case domain.TargetStack:
		_, err = s.store.Stacks.Mutate(ctx, targetID, func(st *domain.Stack) error {
			st.Signals = sig
			return nil
		})
	default:
		return fmt.Errorf("unknown target type %q", targetType)
	}
	if err != nil {
		return fmt.Errorf("store signals for %s %s: %w", targetType, targetID, err)
	}
	return nil
}

// Sweep recomputes every target with events in the lookback window and
// prunes events too old to influence any score.
func (s *SignalService) Sweep(ctx context.Context) error {
	now := time.Now()
	targets, err := s.ledger.ActiveTargets(ctx, now.Add(-2*s.window))
	if err != nil {
		return fmt.Errorf("list active targets: %w", err)
	}

	recomputed := 0
	for targetType, ids := range targets {
		for _, targetID := range ids {
			if _, err := s.RecomputeTarget(ctx, targetType, targetID); err != nil {
				// A deleted stack still has events in the ledger. Skip it.
				if errors.Is(err, store.ErrNotFound) {
					continue
				}
				s.logger.Warn("signal recompute failed",
					"target_type", targetType, "target_id", targetID, "error", err)
				continue
			}
			recomputed++
		}
	}

	pruned, err := s.ledger.PruneEvents(ctx, now.Add(-2*s.window))
	if err != nil {
		return fmt.Errorf("prune events: %w", err)
	}

	if recomputed > 0 || pruned > 0 {
		s.logger.Debug("signal sweep complete", "recomputed", recomputed, "pruned", pruned)
	}
	return nil
}

// Run executes periodic sweeps until ctx is canceled or Stop is called.
// Intended to run as a background goroutine owned by the DI container.
func (s *SignalService) Run(ctx context.Context) {
	ticker := time.NewTicker(s.sweep)
	defer ticker.Stop()

	s.logger.Info("signal sweep started", "interval", s.sweep)
	for {
		select {
		case <-ctx.Done():
			return
		case <-s.done:
			return
		case <-ticker.C:
			if err := s.Sweep(ctx); err != nil {
				s.logger.Error("signal sweep failed", "error", err)
			}
		}
	}
}

// Stop terminates the background sweep loop.
func (s *SignalService) Stop() {
	select {
	case <-s.done:
	default:
		close(s.done)
	}
}
