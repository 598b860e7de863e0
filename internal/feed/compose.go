// Package feed composes the home feed: filtered, deterministically ordered
// stacks interleaved with atom activity cards. Composition is a pure function
// of (filter, stack set, activity set), with no randomness and no hidden state,
// so a cursor can re-derive the exact same sequence on every page fetch.
package feed

import (
	"sort"

	"github.com/stackedapp/stacked-server/internal/domain"
)

// SignalThreshold is the minimum signal score for the trending, fresh and
// community filters.
const SignalThreshold = 70

// interleaveEvery inserts one activity card after this many stack cards.
const interleaveEvery = 3

// FilterStacks selects and orders stacks for a feed filter. Inputs are never
// mutated. Every ordering breaks ties by stack ID so repeated calls on
// unchanged data return identical sequences.
func FilterStacks(filter domain.FeedFilter, stacks []*domain.Stack) []*domain.Stack {
	switch filter {
	case domain.FilterTop:
		return sortedBy(stacks, nil, func(s *domain.Stack) float64 {
			return float64(s.TotalStaked)
		})
	case domain.FilterTrending:
		return sortedBy(stacks, aboveThreshold(func(s *domain.Stack) float64 { return s.Signals.Heat }),
			func(s *domain.Stack) float64 { return s.Signals.Heat })
	case domain.FilterFresh:
		return sortedBy(stacks, aboveThreshold(func(s *domain.Stack) float64 { return s.Signals.Momentum }),
			func(s *domain.Stack) float64 { return s.Signals.Momentum })
	case domain.FilterCommunity:
		return sortedBy(stacks, aboveThreshold(func(s *domain.Stack) float64 { return s.Signals.Heartbeat }),
			func(s *domain.Stack) float64 { return s.Signals.Heartbeat })
	default: // FilterAll
		out := append([]*domain.Stack(nil), stacks...)
		sort.SliceStable(out, func(i, j int) bool {
			if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
				return out[i].CreatedAt.Before(out[j].CreatedAt)
			}
			return out[i].ID < out[j].ID
		})
		return out
	}
}

// Compose builds the full feed sequence for a filter. Activity cards are
// mixed in only for the all and trending feeds: after every 3rd stack the
// next unused activity is spliced in, and once stacks run out the remaining
// activities are appended in order. Activities never repeat and their
// relative order is preserved.
func Compose(filter domain.FeedFilter, stacks []*domain.Stack, activities []*domain.AtomActivity) []domain.FeedItem {
	filtered := FilterStacks(filter, stacks)

	items := make([]domain.FeedItem, 0, len(filtered)+len(activities))
	if filter != domain.FilterAll && filter != domain.FilterTrending {
		for _, stack := range filtered {
			items = append(items, domain.FeedItem{Type: domain.FeedStack, Stack: stack})
		}
		return items
	}

	next := 0
	for i, stack := range filtered {
		items = append(items, domain.FeedItem{Type: domain.FeedStack, Stack: stack})
		if (i+1)%interleaveEvery == 0 && next < len(activities) {
			items = append(items, domain.FeedItem{Type: domain.FeedAtomActivity, Activity: activities[next]})
			next++
		}
	}
	// Trailing flush: leftover activities keep their order.
	for ; next < len(activities); next++ {
		items = append(items, domain.FeedItem{Type: domain.FeedAtomActivity, Activity: activities[next]})
	}

	return items
}

// aboveThreshold builds a predicate keeping stacks whose score meets the
// signal threshold.
func aboveThreshold(score func(*domain.Stack) float64) func(*domain.Stack) bool {
	return func(s *domain.Stack) bool {
		return score(s) >= SignalThreshold
	}
}

// sortedBy filters (keep may be nil) and sorts descending by score with
// stack ID as the deterministic tie-break.
func sortedBy(stacks []*domain.Stack, keep func(*domain.Stack) bool, score func(*domain.Stack) float64) []*domain.Stack {
	out := make([]*domain.Stack, 0, len(stacks))
	for _, stack := range stacks {
		if keep == nil || keep(stack) {
			out = append(out, stack)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		if score(out[i]) != score(out[j]) {
			return score(out[i]) > score(out[j])
		}
		return out[i].ID < out[j].ID
	})
	return out
}
