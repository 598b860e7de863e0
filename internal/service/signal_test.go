package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/stackedapp/stacked-server/internal/domain"
	"github.com/stackedapp/stacked-server/internal/signals"
)

func TestStakeMovesSignals(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	user := env.createUser(t, "alice")
	atom := env.createAtom(t, "Bitcoin")

	_, err := env.stakes.RecordStake(ctx, user.ID, StakeParams{
		TargetType: domain.TargetAtom, TargetID: atom.ID, Amount: 500,
	})
	require.NoError(t, err)

	updated, err := env.atoms.GetAtom(ctx, atom.ID)
	require.NoError(t, err)
	assert.Positive(t, updated.Signals.Heat, "fresh stake volume heats the atom")
	assert.LessOrEqual(t, updated.Signals.Heat, 100.0)
}

func TestSweepRecomputesAndPrunes(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	user := env.createUser(t, "alice")
	atom := env.createAtom(t, "Bitcoin")

	// One fresh event and one long past any window.
	require.NoError(t, env.ledger.RecordEvent(ctx, domain.TargetAtom, atom.ID, user.ID,
		signals.EventStake, 100, time.Now()))
	require.NoError(t, env.ledger.RecordEvent(ctx, domain.TargetAtom, atom.ID, user.ID,
		signals.EventStake, 100, time.Now().Add(-30*24*time.Hour)))

	require.NoError(t, env.signals.Sweep(ctx))

	updated, err := env.atoms.GetAtom(ctx, atom.ID)
	require.NoError(t, err)
	assert.Positive(t, updated.Signals.Heat)

	// The stale event is gone; the fresh one survived the prune.
	events, err := env.ledger.EventsForTarget(ctx, domain.TargetAtom, atom.ID,
		time.Now().Add(-60*24*time.Hour))
	require.NoError(t, err)
	assert.Len(t, events, 1)
}

func TestSweepSkipsDeletedTargets(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	alice := env.createUser(t, "alice")
	stack := env.createStack(t, alice.ID, "Money", "Bitcoin", "Gold")

	require.NoError(t, env.ledger.RecordEvent(ctx, domain.TargetStack, stack.ID, alice.ID,
		signals.EventLike, 0, time.Now()))
	require.NoError(t, env.stacks.DeleteStack(ctx, alice.ID, stack.ID))

	// Events for a deleted stack must not fail the sweep.
	require.NoError(t, env.signals.Sweep(ctx))
}
