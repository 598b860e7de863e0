package service

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/stackedapp/stacked-server/internal/domain"
	domainerrors "github.com/stackedapp/stacked-server/internal/errors"
	"github.com/stackedapp/stacked-server/internal/ratelimit"
)

func TestRecordStakeOnAtom(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	user := env.createUser(t, "alice")
	atom := env.createAtom(t, "Bitcoin")

	position, err := env.stakes.RecordStake(ctx, user.ID, StakeParams{
		TargetType: domain.TargetAtom,
		TargetID:   atom.ID,
		Amount:     100,
	})
	require.NoError(t, err)
	assert.Equal(t, domain.DirectionFor, position.Direction)

	updated, err := env.atoms.GetAtom(ctx, atom.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(100), updated.TotalStaked)
	assert.Equal(t, 1, updated.StakerCount)

	// The position is in the ledger and the staker's total moved.
	positions, err := env.stakes.StakesForUser(ctx, user.ID)
	require.NoError(t, err)
	require.Len(t, positions, 1)

	staker, err := env.profiles.GetUser(ctx, user.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(100), staker.TotalStaked)
}

func TestRecordStakeTopUpPolicy(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	user := env.createUser(t, "alice")
	atom := env.createAtom(t, "Ethereum")

	_, err := env.stakes.RecordStake(ctx, user.ID, StakeParams{
		TargetType: domain.TargetAtom, TargetID: atom.ID, Amount: 100,
	})
	require.NoError(t, err)
	_, err = env.stakes.RecordStake(ctx, user.ID, StakeParams{
		TargetType: domain.TargetAtom, TargetID: atom.ID, Amount: 50,
	})
	require.NoError(t, err)

	updated, err := env.atoms.GetAtom(ctx, atom.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(150), updated.TotalStaked, "amount tops up")
	assert.Equal(t, 1, updated.StakerCount, "repeat staker is counted once")

	// A second distinct staker does bump the count.
	bob := env.createUser(t, "bob")
	_, err = env.stakes.RecordStake(ctx, bob.ID, StakeParams{
		TargetType: domain.TargetAtom, TargetID: atom.ID, Amount: 10,
	})
	require.NoError(t, err)

	updated, err = env.atoms.GetAtom(ctx, atom.ID)
	require.NoError(t, err)
	assert.Equal(t, 2, updated.StakerCount)
}

func TestRecordStakeOnTripleDirections(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	alice := env.createUser(t, "alice")
	bob := env.createUser(t, "bob")

	triple, err := env.triples.CreateTriple(ctx, alice.ID, CreateTripleParams{
		Subject:   NewItemParams{Label: "Bitcoin"},
		Predicate: NewItemParams{Label: "is"},
		Object:    NewItemParams{Label: "sound money"},
	})
	require.NoError(t, err)

	_, err = env.stakes.RecordStake(ctx, alice.ID, StakeParams{
		TargetType: domain.TargetTriple, TargetID: triple.ID,
		Amount: 140, Direction: domain.DirectionFor,
	})
	require.NoError(t, err)
	_, err = env.stakes.RecordStake(ctx, bob.ID, StakeParams{
		TargetType: domain.TargetTriple, TargetID: triple.ID,
		Amount: 60, Direction: domain.DirectionAgainst,
	})
	require.NoError(t, err)

	updated, err := env.triples.GetTriple(ctx, triple.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(140), updated.ForStaked)
	assert.Equal(t, int64(60), updated.AgainstStaked)
	assert.Equal(t, updated.ForStaked+updated.AgainstStaked, updated.TotalStaked)
	assert.Equal(t, 2, updated.StakerCount)
}

func TestRecordStakeValidation(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	user := env.createUser(t, "alice")
	atom := env.createAtom(t, "Bitcoin")

	tests := []struct {
		name   string
		params StakeParams
		code   domainerrors.Code
	}{
		{
			name:   "zero amount",
			params: StakeParams{TargetType: domain.TargetAtom, TargetID: atom.ID, Amount: 0},
			code:   domainerrors.CodeValidation,
		},
		{
			name:   "negative amount",
			params: StakeParams{TargetType: domain.TargetAtom, TargetID: atom.ID, Amount: -5},
			code:   domainerrors.CodeValidation,
		},
		{
			name:   "unknown target type",
			params: StakeParams{TargetType: "book", TargetID: atom.ID, Amount: 10},
			code:   domainerrors.CodeValidation,
		},
		{
			name:   "missing target",
			params: StakeParams{TargetType: domain.TargetAtom, TargetID: "atom-missing", Amount: 10},
			code:   domainerrors.CodeInvalidTarget,
		},
		{
			name:   "against on an atom",
			params: StakeParams{TargetType: domain.TargetAtom, TargetID: atom.ID, Amount: 10, Direction: domain.DirectionAgainst},
			code:   domainerrors.CodeValidation,
		},
		{
			name:   "item attribution on an atom",
			params: StakeParams{TargetType: domain.TargetAtom, TargetID: atom.ID, Amount: 10, ItemID: "item-x"},
			code:   domainerrors.CodeValidation,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := env.stakes.RecordStake(ctx, user.ID, tt.params)
			require.Error(t, err)
			var domainErr *domainerrors.Error
			require.ErrorAs(t, err, &domainErr)
			assert.Equal(t, tt.code, domainErr.Code)
		})
	}
}

func TestRecordStakeOnStackItem(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	creator := env.createUser(t, "alice")
	staker := env.createUser(t, "bob")
	stack := env.createStack(t, creator.ID, "Sound Money", "Bitcoin", "Gold")

	itemID := stack.Items[1].ID
	_, err := env.stakes.RecordStake(ctx, staker.ID, StakeParams{
		TargetType: domain.TargetStack,
		TargetID:   stack.ID,
		ItemID:     itemID,
		Amount:     75,
	})
	require.NoError(t, err)

	updated, err := env.stacks.GetStack(ctx, stack.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(75), updated.TotalStaked)
	assert.Equal(t, 1, updated.StakerCount)
	assert.Equal(t, int64(75), updated.Item(itemID).StakeAmount)

	// Unknown item is rejected before anything is written.
	_, err = env.stakes.RecordStake(ctx, staker.ID, StakeParams{
		TargetType: domain.TargetStack,
		TargetID:   stack.ID,
		ItemID:     "item-missing",
		Amount:     10,
	})
	var domainErr *domainerrors.Error
	require.ErrorAs(t, err, &domainErr)
	assert.Equal(t, domainerrors.CodeInvalidTarget, domainErr.Code)
}

func TestRecordStakeConcurrent(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	atom := env.createAtom(t, "Bitcoin")

	const stakers = 8
	users := make([]*domain.User, stakers)
	for i := range users {
		users[i] = env.createUser(t, "staker"+string(rune('a'+i)))
	}

	var wg sync.WaitGroup
	errs := make(chan error, stakers)
	for _, user := range users {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := env.stakes.RecordStake(ctx, user.ID, StakeParams{
				TargetType: domain.TargetAtom, TargetID: atom.ID, Amount: 10,
			})
			errs <- err
		}()
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		require.NoError(t, err)
	}

	updated, err := env.atoms.GetAtom(ctx, atom.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(10*stakers), updated.TotalStaked, "every concurrent stake lands")
	assert.Equal(t, stakers, updated.StakerCount)

	totals, err := env.stakes.TotalsForTarget(ctx, domain.TargetAtom, atom.ID)
	require.NoError(t, err)
	assert.Equal(t, updated.TotalStaked, totals.Total, "ledger and aggregate agree")
}

func TestRecordStakeRateLimited(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	user := env.createUser(t, "alice")
	atom := env.createAtom(t, "Bitcoin")

	limiter := ratelimit.New(1, 2)
	defer limiter.Stop()
	env.stakes.limiter = limiter

	for range 2 {
		_, err := env.stakes.RecordStake(ctx, user.ID, StakeParams{
			TargetType: domain.TargetAtom, TargetID: atom.ID, Amount: 1,
		})
		require.NoError(t, err)
	}

	_, err := env.stakes.RecordStake(ctx, user.ID, StakeParams{
		TargetType: domain.TargetAtom, TargetID: atom.ID, Amount: 1,
	})
	var domainErr *domainerrors.Error
	require.ErrorAs(t, err, &domainErr)
	assert.Equal(t, domainerrors.CodeRateLimited, domainErr.Code)
}

func TestRecordStakeNotifiesCreator(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	creator := env.createUser(t, "alice")
	staker := env.createUser(t, "bob")
	stack := env.createStack(t, creator.ID, "Sound Money", "Bitcoin", "Gold")

	_, err := env.stakes.RecordStake(ctx, staker.ID, StakeParams{
		TargetType: domain.TargetStack, TargetID: stack.ID, Amount: 20,
	})
	require.NoError(t, err)

	unread, err := env.notifications.UnreadCount(ctx, creator.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, unread)

	// Staking on your own stack stays silent.
	_, err = env.stakes.RecordStake(ctx, creator.ID, StakeParams{
		TargetType: domain.TargetStack, TargetID: stack.ID, Amount: 20,
	})
	require.NoError(t, err)
	unread, err = env.notifications.UnreadCount(ctx, creator.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, unread)
}
