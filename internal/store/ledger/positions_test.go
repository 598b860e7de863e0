package ledger

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stackedapp/stacked-server/internal/domain"
	"github.com/stackedapp/stacked-server/internal/signals"
	"github.com/stackedapp/stacked-server/internal/store"
)

func TestAppendAndGetPosition(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	now := time.Now().UTC()
	p := &domain.StakePosition{
		ID:         "pos-1",
		UserID:     "user-1",
		TargetType: domain.TargetStack,
		TargetID:   "stack-1",
		ItemID:     "item-1",
		Amount:     250,
		Direction:  domain.DirectionFor,
		CreatedAt:  now,
	}

	if err := s.AppendPosition(ctx, p); err != nil {
		t.Fatalf("AppendPosition: %v", err)
	}

	got, err := s.GetPosition(ctx, "pos-1")
	if err != nil {
		t.Fatalf("GetPosition: %v", err)
	}
	if got.UserID != p.UserID {
		t.Errorf("UserID: got %q, want %q", got.UserID, p.UserID)
	}
	if got.TargetType != p.TargetType {
		t.Errorf("TargetType: got %q, want %q", got.TargetType, p.TargetType)
	}
	if got.ItemID != p.ItemID {
		t.Errorf("ItemID: got %q, want %q", got.ItemID, p.ItemID)
	}
	if got.Amount != p.Amount {
		t.Errorf("Amount: got %d, want %d", got.Amount, p.Amount)
	}
	if got.Direction != p.Direction {
		t.Errorf("Direction: got %q, want %q", got.Direction, p.Direction)
	}
	if !got.CreatedAt.Equal(now) {
		t.Errorf("CreatedAt: got %v, want %v", got.CreatedAt, now)
	}

	// Duplicate ID rejected.
	if err := s.AppendPosition(ctx, p); !errors.Is(err, store.ErrAlreadyExists) {
		t.Errorf("duplicate append: got %v, want ErrAlreadyExists", err)
	}
}

func TestDeletePosition_UnwindsRow(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	now := time.Now().UTC()
	if err := s.AppendPosition(ctx, &domain.StakePosition{
		ID: "pos-1", UserID: "user-1", TargetType: domain.TargetAtom, TargetID: "atom-1",
		Amount: 100, Direction: domain.DirectionFor, CreatedAt: now,
	}); err != nil {
		t.Fatalf("AppendPosition: %v", err)
	}

	if err := s.DeletePosition(ctx, "pos-1"); err != nil {
		t.Fatalf("DeletePosition: %v", err)
	}

	if _, err := s.GetPosition(ctx, "pos-1"); !errors.Is(err, store.ErrNotFound) {
		t.Errorf("got %v, want ErrNotFound", err)
	}

	ok, err := s.HasPosition(ctx, "user-1", domain.TargetAtom, "atom-1")
	if err != nil {
		t.Fatalf("HasPosition: %v", err)
	}
	if ok {
		t.Error("unwound position still counts as a prior stake")
	}

	totals, err := s.TotalsForTarget(ctx, domain.TargetAtom, "atom-1")
	if err != nil {
		t.Fatalf("TotalsForTarget: %v", err)
	}
	if totals.Total != 0 || totals.StakerCount != 0 {
		t.Errorf("totals after unwind: got %+v, want zero", totals)
	}
}

func TestGetPosition_NotFound(t *testing.T) {
	s := newTestStore(t)

	_, err := s.GetPosition(context.Background(), "missing")
	if !errors.Is(err, store.ErrNotFound) {
		t.Errorf("got %v, want ErrNotFound", err)
	}
}

func TestTotalsForTarget(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	now := time.Now().UTC()
	positions := []*domain.StakePosition{
		{ID: "pos-1", UserID: "user-1", TargetType: domain.TargetTriple, TargetID: "triple-1", Amount: 100, Direction: domain.DirectionFor, CreatedAt: now},
		{ID: "pos-2", UserID: "user-2", TargetType: domain.TargetTriple, TargetID: "triple-1", Amount: 60, Direction: domain.DirectionAgainst, CreatedAt: now},
		{ID: "pos-3", UserID: "user-1", TargetType: domain.TargetTriple, TargetID: "triple-1", Amount: 40, Direction: domain.DirectionFor, CreatedAt: now},
		// Different target, must not count.
		{ID: "pos-4", UserID: "user-3", TargetType: domain.TargetTriple, TargetID: "triple-2", Amount: 999, Direction: domain.DirectionFor, CreatedAt: now},
	}
	for _, p := range positions {
		if err := s.AppendPosition(ctx, p); err != nil {
			t.Fatalf("AppendPosition %s: %v", p.ID, err)
		}
	}

	totals, err := s.TotalsForTarget(ctx, domain.TargetTriple, "triple-1")
	if err != nil {
		t.Fatalf("TotalsForTarget: %v", err)
	}
	if totals.ForTotal != 140 {
		t.Errorf("ForTotal: got %d, want 140", totals.ForTotal)
	}
	if totals.AgainstTotal != 60 {
		t.Errorf("AgainstTotal: got %d, want 60", totals.AgainstTotal)
	}
	if totals.Total != totals.ForTotal+totals.AgainstTotal {
		t.Errorf("Total %d != ForTotal+AgainstTotal %d", totals.Total, totals.ForTotal+totals.AgainstTotal)
	}
	// user-1 staked twice but counts once.
	if totals.StakerCount != 2 {
		t.Errorf("StakerCount: got %d, want 2", totals.StakerCount)
	}
}

func TestHasPositionAndUserStake(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	now := time.Now().UTC()
	if err := s.AppendPosition(ctx, &domain.StakePosition{
		ID: "pos-1", UserID: "user-1", TargetType: domain.TargetAtom, TargetID: "atom-1",
		Amount: 50, Direction: domain.DirectionFor, CreatedAt: now,
	}); err != nil {
		t.Fatalf("AppendPosition: %v", err)
	}

	ok, err := s.HasPosition(ctx, "user-1", domain.TargetAtom, "atom-1")
	if err != nil {
		t.Fatalf("HasPosition: %v", err)
	}
	if !ok {
		t.Error("expected position for user-1")
	}

	ok, err = s.HasPosition(ctx, "user-2", domain.TargetAtom, "atom-1")
	if err != nil {
		t.Fatalf("HasPosition: %v", err)
	}
	if ok {
		t.Error("expected no position for user-2")
	}

	if err := s.AppendPosition(ctx, &domain.StakePosition{
		ID: "pos-2", UserID: "user-1", TargetType: domain.TargetAtom, TargetID: "atom-1",
		Amount: 30, Direction: domain.DirectionFor, CreatedAt: now,
	}); err != nil {
		t.Fatalf("AppendPosition: %v", err)
	}

	total, err := s.UserStakeOnTarget(ctx, "user-1", domain.TargetAtom, "atom-1")
	if err != nil {
		t.Fatalf("UserStakeOnTarget: %v", err)
	}
	if total != 80 {
		t.Errorf("UserStakeOnTarget: got %d, want 80", total)
	}
}

func TestPositionsForUser_NewestFirst(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	base := time.Now().UTC().Add(-time.Hour)
	for i, id := range []string{"pos-a", "pos-b", "pos-c"} {
		p := &domain.StakePosition{
			ID: id, UserID: "user-1", TargetType: domain.TargetStack, TargetID: "stack-1",
			Amount: 10, Direction: domain.DirectionFor,
			CreatedAt: base.Add(time.Duration(i) * time.Minute),
		}
		if err := s.AppendPosition(ctx, p); err != nil {
			t.Fatalf("AppendPosition %s: %v", id, err)
		}
	}

	got, err := s.PositionsForUser(ctx, "user-1")
	if err != nil {
		t.Fatalf("PositionsForUser: %v", err)
	}
	if len(got) != 3 {
		t.Fatalf("got %d positions, want 3", len(got))
	}
	if got[0].ID != "pos-c" || got[2].ID != "pos-a" {
		t.Errorf("wrong order: got %s..%s, want pos-c..pos-a", got[0].ID, got[2].ID)
	}
}

func TestEngagementEvents_WindowAndPrune(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	now := time.Now().UTC()
	old := now.Add(-10 * 24 * time.Hour)
	recent := now.Add(-time.Hour)

	if err := s.RecordEvent(ctx, domain.TargetStack, "stack-1", "user-1", signals.EventStake, 100, old); err != nil {
		t.Fatalf("RecordEvent: %v", err)
	}
	if err := s.RecordEvent(ctx, domain.TargetStack, "stack-1", "user-2", signals.EventLike, 0, recent); err != nil {
		t.Fatalf("RecordEvent: %v", err)
	}

	// Window query excludes the old event.
	events, err := s.EventsForTarget(ctx, domain.TargetStack, "stack-1", now.Add(-7*24*time.Hour))
	if err != nil {
		t.Fatalf("EventsForTarget: %v", err)
	}
	if len(events) != 1 {
		t.Fatalf("got %d events, want 1", len(events))
	}
	if events[0].Kind != signals.EventLike {
		t.Errorf("Kind: got %q, want like", events[0].Kind)
	}

	// Active targets since the cutoff.
	targets, err := s.ActiveTargets(ctx, now.Add(-7*24*time.Hour))
	if err != nil {
		t.Fatalf("ActiveTargets: %v", err)
	}
	if len(targets[domain.TargetStack]) != 1 || targets[domain.TargetStack][0] != "stack-1" {
		t.Errorf("ActiveTargets: got %v", targets)
	}

	// Prune removes only the old event.
	removed, err := s.PruneEvents(ctx, now.Add(-7*24*time.Hour))
	if err != nil {
		t.Fatalf("PruneEvents: %v", err)
	}
	if removed != 1 {
		t.Errorf("pruned %d rows, want 1", removed)
	}
}
