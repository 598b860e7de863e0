package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func rankedStack(id string, atomIDs ...string) *Stack {
	stack := &Stack{ID: id, Category: CategoryBlockchain}
	for i, atomID := range atomIDs {
		stack.Items = append(stack.Items, StackItem{
			ID:     id + "-item-" + atomID,
			AtomID: atomID,
			Rank:   i + 1,
		})
	}
	return stack
}

func TestComputeAlignment_IdenticalRankings(t *testing.T) {
	a := []*Stack{rankedStack("stack-a", "atom-1", "atom-2", "atom-3", "atom-4")}
	b := []*Stack{rankedStack("stack-b", "atom-1", "atom-2", "atom-3", "atom-4")}

	data := ComputeAlignment(a, b)

	assert.Equal(t, float64(100), data.OverallAlignment)
	require.Len(t, data.Comparisons, 1)
	assert.Equal(t, 4, data.Comparisons[0].SharedAtoms)
	assert.Empty(t, data.Divergences)
}

func TestComputeAlignment_ReversedRankings(t *testing.T) {
	a := []*Stack{rankedStack("stack-a", "atom-1", "atom-2", "atom-3", "atom-4")}
	b := []*Stack{rankedStack("stack-b", "atom-4", "atom-3", "atom-2", "atom-1")}

	data := ComputeAlignment(a, b)

	assert.Equal(t, float64(0), data.OverallAlignment)
	assert.NotEmpty(t, data.Divergences)
}

func TestComputeAlignment_NoSharedAtomsIsNeutral(t *testing.T) {
	a := []*Stack{rankedStack("stack-a", "atom-1", "atom-2")}
	b := []*Stack{rankedStack("stack-b", "atom-3", "atom-4")}

	data := ComputeAlignment(a, b)

	assert.Equal(t, float64(50), data.OverallAlignment)
	assert.Empty(t, data.Comparisons)
}

func TestComputeAlignment_SymmetricInUsers(t *testing.T) {
	a := []*Stack{rankedStack("stack-a", "atom-1", "atom-2", "atom-3", "atom-4", "atom-5")}
	b := []*Stack{rankedStack("stack-b", "atom-2", "atom-1", "atom-5", "atom-3", "atom-4")}

	ab := ComputeAlignment(a, b)
	ba := ComputeAlignment(b, a)

	assert.InDelta(t, ab.OverallAlignment, ba.OverallAlignment, 0.001)
}

func TestComputeAlignment_SymmetricWithUnevenStackCounts(t *testing.T) {
	// Two of one user's stacks best-match the same stack of the other, so
	// the two matching directions see different pair sets.
	a := []*Stack{
		rankedStack("stack-a1", "atom-1", "atom-2", "atom-3", "atom-4"),
		rankedStack("stack-a2", "atom-2", "atom-1", "atom-5", "atom-6"),
	}
	b := []*Stack{rankedStack("stack-b", "atom-4", "atom-3", "atom-2", "atom-1", "atom-5")}

	ab := ComputeAlignment(a, b)
	ba := ComputeAlignment(b, a)

	assert.InDelta(t, ab.OverallAlignment, ba.OverallAlignment, 0.001)
	assert.Len(t, ab.Comparisons, 2, "both of A's stacks pair with B's stack")
	assert.Len(t, ba.Comparisons, 2, "reverse matching finds the same pairs")
}

func TestComputeAlignment_Bounded(t *testing.T) {
	a := []*Stack{
		rankedStack("stack-a1", "atom-1", "atom-2", "atom-3"),
		rankedStack("stack-a2", "atom-4", "atom-5", "atom-6"),
	}
	b := []*Stack{
		rankedStack("stack-b1", "atom-3", "atom-1", "atom-2"),
		rankedStack("stack-b2", "atom-6", "atom-5", "atom-4"),
	}

	data := ComputeAlignment(a, b)

	assert.GreaterOrEqual(t, data.OverallAlignment, float64(0))
	assert.LessOrEqual(t, data.OverallAlignment, float64(100))
	for _, comparison := range data.Comparisons {
		assert.GreaterOrEqual(t, comparison.Alignment, float64(0))
		assert.LessOrEqual(t, comparison.Alignment, float64(100))
	}
}

func TestComputeAlignment_SingleSharedAtomIgnored(t *testing.T) {
	// One shared atom carries no ordering information.
	a := []*Stack{rankedStack("stack-a", "atom-1", "atom-2")}
	b := []*Stack{rankedStack("stack-b", "atom-1", "atom-9")}

	data := ComputeAlignment(a, b)

	assert.Empty(t, data.Comparisons)
	assert.Equal(t, float64(50), data.OverallAlignment)
}

func TestComputeAlignment_DivergenceSeverity(t *testing.T) {
	a := []*Stack{rankedStack("stack-a", "atom-1", "atom-2", "atom-3", "atom-4")}
	b := []*Stack{rankedStack("stack-b", "atom-4", "atom-2", "atom-3", "atom-1")}

	data := ComputeAlignment(a, b)

	require.NotEmpty(t, data.Divergences)
	for _, divergence := range data.Divergences {
		// atom-1 and atom-4 swap between first and last place.
		assert.Contains(t, []string{"atom-1", "atom-4"}, divergence.AtomID)
		assert.Equal(t, SeverityHigh, divergence.Severity)
	}
}
