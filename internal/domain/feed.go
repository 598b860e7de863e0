package domain

import "time"

// FeedFilter selects and orders the stacks that back a feed.
type FeedFilter string

// Feed filters. Top/trending/fresh/community are threshold filters over
// signals; all is the unfiltered sequence.
const (
	FilterAll       FeedFilter = "all"
	FilterTop       FeedFilter = "top"
	FilterTrending  FeedFilter = "trending"
	FilterFresh     FeedFilter = "fresh"
	FilterCommunity FeedFilter = "community"
)

// Valid reports whether f is a known feed filter.
func (f FeedFilter) Valid() bool {
	switch f {
	case FilterAll, FilterTop, FilterTrending, FilterFresh, FilterCommunity:
		return true
	}
	return false
}

// FeedItemType tags a feed entry as a stack card or an atom activity card.
type FeedItemType string

// Feed item types.
const (
	FeedStack        FeedItemType = "stack"
	FeedAtomActivity FeedItemType = "atom_activity"
)

// FeedItem is one entry in a composed feed: either a stack or an atom
// activity card. Exactly one of Stack/Activity is set, matching Type.
type FeedItem struct {
	Type     FeedItemType  `json:"type"`
	Stack    *Stack        `json:"stack,omitempty"`
	Activity *AtomActivity `json:"activity,omitempty"`
}

// ActivityType describes what kind of burst an atom activity card reports.
type ActivityType string

// Activity types.
const (
	ActivityAddedToStacks ActivityType = "added_to_stacks"
	ActivityStakeSurge    ActivityType = "stake_surge"
	ActivityNewStakers    ActivityType = "new_stakers"
	ActivityTrendingTopic ActivityType = "trending_topic"
)

// AtomActivity is a derived feed card reporting a burst of activity around a
// single atom (stake surges, add-to-stack waves). Activities are derived from
// the ledger's recent events, pre-ordered by recency before composition.
type AtomActivity struct {
	CreatedAt       time.Time    `json:"created_at"`
	ID              string       `json:"id"`
	AtomID          string       `json:"atom_id"`
	Type            ActivityType `json:"type"`
	Headline        string       `json:"headline"`
	Description     string       `json:"description"`
	Metric          int64        `json:"metric"`
	MetricLabel     string       `json:"metric_label"`
	Timeframe       string       `json:"timeframe"`
	RelatedStackIDs []string     `json:"related_stack_ids"`
	Signals         Signals      `json:"signals"`
}
