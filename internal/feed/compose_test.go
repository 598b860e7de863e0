package feed

import (
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/stackedapp/stacked-server/internal/domain"
)

func makeStacks(n int) []*domain.Stack {
	base := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	stacks := make([]*domain.Stack, n)
	for i := range stacks {
		stacks[i] = &domain.Stack{
			ID:          fmt.Sprintf("stack-%02d", i+1),
			Title:       fmt.Sprintf("Stack %d", i+1),
			CreatedAt:   base.Add(time.Duration(i) * time.Hour),
			TotalStaked: int64((i + 1) * 100),
			Signals: domain.Signals{
				Heat:      float64(50 + i*5),
				Heartbeat: float64(40 + i*5),
				Momentum:  float64(30 + i*5),
			},
		}
	}
	return stacks
}

func makeActivities(n int) []*domain.AtomActivity {
	activities := make([]*domain.AtomActivity, n)
	for i := range activities {
		activities[i] = &domain.AtomActivity{ID: fmt.Sprintf("aa-%d", i+1)}
	}
	return activities
}

func TestCompose_All_InterleavesEveryThirdStack(t *testing.T) {
	stacks := makeStacks(10)
	activities := makeActivities(5)

	items := Compose(domain.FilterAll, stacks, activities)

	// 10 stacks + 5 activities = 15 entries total.
	require.Len(t, items, 15)

	// Entries 4 and 8 (1-based) follow the 3rd and 6th stacks.
	assert.Equal(t, domain.FeedAtomActivity, items[3].Type)
	assert.Equal(t, "aa-1", items[3].Activity.ID)
	assert.Equal(t, domain.FeedAtomActivity, items[7].Type)
	assert.Equal(t, "aa-2", items[7].Activity.ID)

	// After the 9th stack the 3rd activity is spliced, then the 10th stack,
	// then the trailing flush of aa-4 and aa-5.
	assert.Equal(t, domain.FeedAtomActivity, items[11].Type)
	assert.Equal(t, "aa-3", items[11].Activity.ID)
	assert.Equal(t, domain.FeedStack, items[12].Type)
	assert.Equal(t, "aa-4", items[13].Activity.ID)
	assert.Equal(t, "aa-5", items[14].Activity.ID)
}

func TestCompose_ActivitiesNeverDuplicated(t *testing.T) {
	items := Compose(domain.FilterAll, makeStacks(10), makeActivities(5))

	seen := make(map[string]bool)
	for _, item := range items {
		if item.Type == domain.FeedAtomActivity {
			assert.False(t, seen[item.Activity.ID], "duplicate activity %s", item.Activity.ID)
			seen[item.Activity.ID] = true
		}
	}
	assert.Len(t, seen, 5)
}

func TestCompose_TopSkipsActivities(t *testing.T) {
	items := Compose(domain.FilterTop, makeStacks(6), makeActivities(3))

	require.Len(t, items, 6)
	for _, item := range items {
		assert.Equal(t, domain.FeedStack, item.Type)
	}
}

func TestCompose_Deterministic(t *testing.T) {
	stacks := makeStacks(10)
	activities := makeActivities(5)

	first := Compose(domain.FilterTrending, stacks, activities)
	second := Compose(domain.FilterTrending, stacks, activities)

	require.Equal(t, len(first), len(second))
	for i := range first {
		assert.Equal(t, first[i].Type, second[i].Type, "entry %d", i)
		if first[i].Type == domain.FeedStack {
			assert.Equal(t, first[i].Stack.ID, second[i].Stack.ID)
		}
	}
}

func TestFilterStacks_TopSortsByTotalStakedDescending(t *testing.T) {
	filtered := FilterStacks(domain.FilterTop, makeStacks(10))

	require.Len(t, filtered, 10)
	for i := 1; i < len(filtered); i++ {
		assert.GreaterOrEqual(t, filtered[i-1].TotalStaked, filtered[i].TotalStaked)
	}
}

func TestFilterStacks_TopTiesBrokenByID(t *testing.T) {
	stacks := []*domain.Stack{
		{ID: "stack-b", TotalStaked: 500},
		{ID: "stack-a", TotalStaked: 500},
		{ID: "stack-c", TotalStaked: 500},
	}

	filtered := FilterStacks(domain.FilterTop, stacks)

	assert.Equal(t, "stack-a", filtered[0].ID)
	assert.Equal(t, "stack-b", filtered[1].ID)
	assert.Equal(t, "stack-c", filtered[2].ID)
}

func TestFilterStacks_TrendingThreshold(t *testing.T) {
	filtered := FilterStacks(domain.FilterTrending, makeStacks(10))

	for _, stack := range filtered {
		assert.GreaterOrEqual(t, stack.Signals.Heat, float64(SignalThreshold))
	}
	for i := 1; i < len(filtered); i++ {
		assert.GreaterOrEqual(t, filtered[i-1].Signals.Heat, filtered[i].Signals.Heat)
	}
}

func TestFilterStacks_FreshAndCommunityThresholds(t *testing.T) {
	stacks := makeStacks(10)

	for _, stack := range FilterStacks(domain.FilterFresh, stacks) {
		assert.GreaterOrEqual(t, stack.Signals.Momentum, float64(SignalThreshold))
	}
	for _, stack := range FilterStacks(domain.FilterCommunity, stacks) {
		assert.GreaterOrEqual(t, stack.Signals.Heartbeat, float64(SignalThreshold))
	}
}

func TestFilterStacks_DoesNotMutateInput(t *testing.T) {
	stacks := makeStacks(5)
	originalOrder := []string{stacks[0].ID, stacks[1].ID, stacks[2].ID, stacks[3].ID, stacks[4].ID}

	FilterStacks(domain.FilterTop, stacks)

	for i, stack := range stacks {
		assert.Equal(t, originalOrder[i], stack.ID)
	}
}

func TestPage_ConcatenationEqualsFullSequence(t *testing.T) {
	items := Compose(domain.FilterAll, makeStacks(10), makeActivities(5))

	var collected []domain.FeedItem
	cursor := ""
	for {
		decoded, err := DecodeCursor(cursor)
		require.NoError(t, err)

		page, next := Page(domain.FilterAll, items, decoded.Offset, 4)
		collected = append(collected, page...)
		if next == "" {
			break
		}
		cursor = next
	}

	require.Equal(t, len(items), len(collected))
	for i := range items {
		assert.Equal(t, items[i].Type, collected[i].Type, "entry %d", i)
	}
}

func TestPage_EmptyCursorIsFirstPage(t *testing.T) {
	decoded, err := DecodeCursor("")
	require.NoError(t, err)
	assert.Equal(t, 0, decoded.Offset)
}

func TestDecodeCursor_RejectsGarbage(t *testing.T) {
	_, err := DecodeCursor("not base64 at all!!!")
	assert.Error(t, err)
}

func TestDecodeCursor_RoundTrip(t *testing.T) {
	original := Cursor{Filter: domain.FilterTrending, Offset: 40}

	decoded, err := DecodeCursor(original.Encode())
	require.NoError(t, err)
	assert.Equal(t, original, decoded)
}

func TestClampPageSize(t *testing.T) {
	assert.Equal(t, DefaultPageSize, ClampPageSize(0))
	assert.Equal(t, DefaultPageSize, ClampPageSize(-5))
	assert.Equal(t, 50, ClampPageSize(50))
	assert.Equal(t, MaxPageSize, ClampPageSize(5000))
}
