package domain

import (
	"fmt"
	"slices"
	"sort"
	"time"
)

// OrderMode records how a stack's current item order was produced.
// Manual curation (drag-to-reorder) overrides automatic order until the next
// explicit re-sort request, so the mode must be tracked to make a resort
// idempotent and explainable.
type OrderMode string

// Order modes.
const (
	OrderManual OrderMode = "manual"
	OrderAuto   OrderMode = "auto"
)

// StackItem is one (atom, rank) pairing inside a stack. Rank is 1-based;
// rank 1 is the top-ranked, most-convicted item. StakeAmount and StakerCount
// are the stake contributed toward this atom's position within this stack,
// distinct from the atom's global totals. Items are owned exclusively by
// their parent stack.
type StackItem struct {
	AddedAt     time.Time `json:"added_at"`
	ID          string    `json:"id"`
	AtomID      string    `json:"atom_id"`
	Rank        int       `json:"rank"`
	StakeAmount int64     `json:"stake_amount"`
	StakerCount int       `json:"staker_count"`
}

// Stack is a user-curated ranked list of atoms with aggregate stake and fork
// lineage. Item ranks always form a contiguous 1..N sequence with no gaps or
// duplicates; every mutator reassigns ranks atomically.
type Stack struct {
	CreatedAt   time.Time   `json:"created_at"`
	UpdatedAt   time.Time   `json:"updated_at"`
	ID          string      `json:"id"`
	CreatorID   string      `json:"creator_id"`
	Title       string      `json:"title"`
	Description string      `json:"description"`
	Image       string      `json:"image,omitempty"`
	Category    Category    `json:"category"`
	Items       []StackItem `json:"items"`
	TotalStaked int64       `json:"total_staked"`
	StakerCount int         `json:"staker_count"`
	ForkCount   int         `json:"fork_count"`
	Signals     Signals     `json:"signals"`
	ForkedFrom  string      `json:"forked_from,omitempty"`
	OrderMode   OrderMode   `json:"order_mode"`
}

// ItemIDs returns the item IDs in current rank order.
func (s *Stack) ItemIDs() []string {
	ids := make([]string, len(s.Items))
	for i, item := range s.Items {
		ids[i] = item.ID
	}
	return ids
}

// Item returns the item with the given ID, or nil.
func (s *Stack) Item(itemID string) *StackItem {
	for i := range s.Items {
		if s.Items[i].ID == itemID {
			return &s.Items[i]
		}
	}
	return nil
}

// ContainsAtom reports whether any item references the given atom.
func (s *Stack) ContainsAtom(atomID string) bool {
	for _, item := range s.Items {
		if item.AtomID == atomID {
			return true
		}
	}
	return false
}

// AtomRank returns the rank of the given atom in this stack, or 0 if absent.
func (s *Stack) AtomRank(atomID string) int {
	for _, item := range s.Items {
		if item.AtomID == atomID {
			return item.Rank
		}
	}
	return 0
}

// normalizeRanks reassigns ranks as the contiguous sequence 1..N in slice
// order. Called by every mutator so the rank invariant can never be observed
// broken.
func (s *Stack) normalizeRanks() {
	for i := range s.Items {
		s.Items[i].Rank = i + 1
	}
}

// Reorder rearranges items to match the given ID sequence and reassigns
// ranks 1..N. The ID set must exactly match the current items: this call
// cannot add or remove items. On success the order mode becomes manual.
func (s *Stack) Reorder(orderedItemIDs []string) error {
	if len(orderedItemIDs) != len(s.Items) {
		return fmt.Errorf("reorder has %d ids, stack has %d items", len(orderedItemIDs), len(s.Items))
	}

	byID := make(map[string]StackItem, len(s.Items))
	for _, item := range s.Items {
		byID[item.ID] = item
	}

	reordered := make([]StackItem, 0, len(orderedItemIDs))
	for _, itemID := range orderedItemIDs {
		item, ok := byID[itemID]
		if !ok {
			return fmt.Errorf("unknown or duplicate item id %s", itemID)
		}
		delete(byID, itemID)
		reordered = append(reordered, item)
	}

	s.Items = reordered
	s.normalizeRanks()
	s.OrderMode = OrderManual
	s.UpdatedAt = time.Now()
	return nil
}

// RemoveItem deletes the item and closes up ranks to a contiguous 1..N.
// Returns false if the item was not present.
func (s *Stack) RemoveItem(itemID string) bool {
	for i, item := range s.Items {
		if item.ID == itemID {
			s.Items = slices.Delete(s.Items, i, i+1)
			s.normalizeRanks()
			s.UpdatedAt = time.Now()
			return true
		}
	}
	return false
}

// Resort applies the canonical automatic order: descending by item stake,
// ties broken by earliest AddedAt (first staked wins), then by atom ID for
// full determinism. Returns true if the order changed. A resort of an
// already-sorted stack still flips the order mode to auto but writes nothing
// else, so repeated resorts are idempotent.
func (s *Stack) Resort() bool {
	before := s.ItemIDs()

	sort.SliceStable(s.Items, func(i, j int) bool {
		a, b := s.Items[i], s.Items[j]
		if a.StakeAmount != b.StakeAmount {
			return a.StakeAmount > b.StakeAmount
		}
		if !a.AddedAt.Equal(b.AddedAt) {
			return a.AddedAt.Before(b.AddedAt)
		}
		return a.AtomID < b.AtomID
	})
	s.normalizeRanks()
	s.OrderMode = OrderAuto

	if slices.Equal(before, s.ItemIDs()) {
		return false
	}
	s.UpdatedAt = time.Now()
	return true
}

// RanksContiguous reports whether item ranks form the sequence 1..N.
func (s *Stack) RanksContiguous() bool {
	for i, item := range s.Items {
		if item.Rank != i+1 {
			return false
		}
	}
	return true
}

// ApplyStake folds a recorded stake position into the stack's aggregates.
// When itemID names one of the stack's items, the amount is also attributed
// to that item's position stake (which drives automatic ordering).
func (s *Stack) ApplyStake(amount int64, firstPosition bool, itemID string) {
	s.TotalStaked += amount
	if firstPosition {
		s.StakerCount++
	}
	if itemID != "" {
		if item := s.Item(itemID); item != nil {
			item.StakeAmount += amount
			if firstPosition {
				item.StakerCount++
			}
		}
	}
}
