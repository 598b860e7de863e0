package domain

import "time"

// Triple is a claim of the form (subject, predicate, object), each an atom
// reference. A triple carries its own stake ledger split into for/against
// sides. Triples are created by a user action, mutated only by stake events,
// and never deleted.
type Triple struct {
	CreatedAt     time.Time `json:"created_at"`
	ID            string    `json:"id"`
	SubjectID     string    `json:"subject_id"`
	PredicateID   string    `json:"predicate_id"`
	ObjectID      string    `json:"object_id"`
	CreatorID     string    `json:"creator_id"`
	TotalStaked   int64     `json:"total_staked"`
	ForStaked     int64     `json:"for_staked"`
	AgainstStaked int64     `json:"against_staked"`
	StakerCount   int       `json:"staker_count"`
	Signals       Signals   `json:"signals"`
}

// ApplyStake folds a recorded stake position into the triple's aggregates,
// crediting the for or against side by direction. The invariant
// TotalStaked == ForStaked + AgainstStaked holds after every application.
func (t *Triple) ApplyStake(amount int64, direction Direction, firstPosition bool) {
	t.TotalStaked += amount
	if direction == DirectionAgainst {
		t.AgainstStaked += amount
	} else {
		t.ForStaked += amount
	}
	if firstPosition {
		t.StakerCount++
	}
}
