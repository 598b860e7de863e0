package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testStack() *Stack {
	base := time.Date(2025, 1, 10, 12, 0, 0, 0, time.UTC)
	return &Stack{
		ID:        "stack-1",
		CreatorID: "user-1",
		Title:     "L2 Rankings",
		Category:  CategoryBlockchain,
		OrderMode: OrderManual,
		Items: []StackItem{
			{ID: "item-1", AtomID: "atom-a", Rank: 1, StakeAmount: 300, AddedAt: base},
			{ID: "item-2", AtomID: "atom-b", Rank: 2, StakeAmount: 500, AddedAt: base.Add(time.Minute)},
			{ID: "item-3", AtomID: "atom-c", Rank: 3, StakeAmount: 500, AddedAt: base.Add(2 * time.Minute)},
			{ID: "item-4", AtomID: "atom-d", Rank: 4, StakeAmount: 100, AddedAt: base.Add(3 * time.Minute)},
		},
	}
}

func TestStack_Reorder_ReassignsContiguousRanks(t *testing.T) {
	stack := testStack()

	err := stack.Reorder([]string{"item-3", "item-1", "item-4", "item-2"})
	require.NoError(t, err)

	assert.Equal(t, []string{"item-3", "item-1", "item-4", "item-2"}, stack.ItemIDs())
	assert.True(t, stack.RanksContiguous())
	assert.Equal(t, OrderManual, stack.OrderMode)
}

func TestStack_Reorder_RejectsMissingItem(t *testing.T) {
	stack := testStack()

	err := stack.Reorder([]string{"item-1", "item-2", "item-3", "item-x"})
	assert.Error(t, err)
	// Order unchanged on error.
	assert.Equal(t, []string{"item-1", "item-2", "item-3", "item-4"}, stack.ItemIDs())
}

func TestStack_Reorder_RejectsDuplicateIDs(t *testing.T) {
	stack := testStack()

	err := stack.Reorder([]string{"item-1", "item-2", "item-3", "item-3"})
	assert.Error(t, err)
}

func TestStack_Reorder_RejectsWrongLength(t *testing.T) {
	stack := testStack()

	err := stack.Reorder([]string{"item-1", "item-2"})
	assert.Error(t, err)
}

func TestStack_RemoveItem_ClosesRankGap(t *testing.T) {
	stack := testStack()

	removed := stack.RemoveItem("item-2")

	assert.True(t, removed)
	assert.Equal(t, []string{"item-1", "item-3", "item-4"}, stack.ItemIDs())
	assert.True(t, stack.RanksContiguous())
}

func TestStack_RemoveItem_AbsentItem(t *testing.T) {
	stack := testStack()

	assert.False(t, stack.RemoveItem("item-x"))
	assert.Len(t, stack.Items, 4)
}

func TestStack_Resort_OrdersByStakeThenAddedAtThenAtomID(t *testing.T) {
	stack := testStack()

	changed := stack.Resort()

	assert.True(t, changed)
	// item-2 and item-3 both have 500 staked; item-2 was added first.
	assert.Equal(t, []string{"item-2", "item-3", "item-1", "item-4"}, stack.ItemIDs())
	assert.True(t, stack.RanksContiguous())
	assert.Equal(t, OrderAuto, stack.OrderMode)
}

func TestStack_Resort_AtomIDBreaksFullTies(t *testing.T) {
	added := time.Date(2025, 1, 10, 12, 0, 0, 0, time.UTC)
	stack := &Stack{
		Items: []StackItem{
			{ID: "item-1", AtomID: "atom-z", Rank: 1, StakeAmount: 100, AddedAt: added},
			{ID: "item-2", AtomID: "atom-a", Rank: 2, StakeAmount: 100, AddedAt: added},
		},
	}

	stack.Resort()

	assert.Equal(t, []string{"item-2", "item-1"}, stack.ItemIDs())
}

func TestStack_Resort_IdempotentWhenAlreadySorted(t *testing.T) {
	stack := testStack()
	require.True(t, stack.Resort())

	updatedAt := stack.UpdatedAt
	changed := stack.Resort()

	assert.False(t, changed)
	assert.Equal(t, updatedAt, stack.UpdatedAt)
	assert.Equal(t, OrderAuto, stack.OrderMode)
}

func TestStack_ApplyStake_TopUpDoesNotBumpStakerCount(t *testing.T) {
	stack := testStack()

	stack.ApplyStake(100, true, "")
	stack.ApplyStake(50, false, "")

	assert.Equal(t, int64(150), stack.TotalStaked)
	assert.Equal(t, 1, stack.StakerCount)
}

func TestStack_ApplyStake_AttributesToItem(t *testing.T) {
	stack := testStack()

	stack.ApplyStake(200, true, "item-4")

	assert.Equal(t, int64(200), stack.TotalStaked)
	assert.Equal(t, int64(300), stack.Item("item-4").StakeAmount)
	assert.Equal(t, 1, stack.Item("item-4").StakerCount)
}

func TestStack_AtomRank(t *testing.T) {
	stack := testStack()

	assert.Equal(t, 2, stack.AtomRank("atom-b"))
	assert.Equal(t, 0, stack.AtomRank("atom-x"))
}

func TestTriple_ApplyStake_SplitsDirections(t *testing.T) {
	triple := &Triple{ID: "triple-1"}

	triple.ApplyStake(300, DirectionFor, true)
	triple.ApplyStake(100, DirectionAgainst, true)
	triple.ApplyStake(50, DirectionFor, false)

	assert.Equal(t, int64(450), triple.TotalStaked)
	assert.Equal(t, int64(350), triple.ForStaked)
	assert.Equal(t, int64(100), triple.AgainstStaked)
	assert.Equal(t, triple.TotalStaked, triple.ForStaked+triple.AgainstStaked)
	assert.Equal(t, 2, triple.StakerCount)
}

func TestUser_FollowUnfollow(t *testing.T) {
	user := &User{ID: "user-1"}

	assert.True(t, user.Follow("user-2"))
	assert.False(t, user.Follow("user-2"), "double follow is a no-op")
	assert.False(t, user.Follow("user-1"), "self follow is a no-op")
	assert.Equal(t, 1, user.Following)

	assert.True(t, user.Unfollow("user-2"))
	assert.False(t, user.Unfollow("user-2"))
	assert.Equal(t, 0, user.Following)
}

func TestSignals_Clamped(t *testing.T) {
	signals := Signals{Heat: 250, Heartbeat: -10, Momentum: 60}

	clamped := signals.Clamped()

	assert.Equal(t, Signals{Heat: 100, Heartbeat: 0, Momentum: 60}, clamped)
	assert.True(t, clamped.InBounds())
}
