package domain

import "time"

// TargetType identifies what kind of entity a stake position is on.
type TargetType string

// Stake target types.
const (
	TargetAtom   TargetType = "atom"
	TargetTriple TargetType = "triple"
	TargetStack  TargetType = "stack"
)

// Valid reports whether t is a known target type.
func (t TargetType) Valid() bool {
	switch t {
	case TargetAtom, TargetTriple, TargetStack:
		return true
	}
	return false
}

// Direction is the side of a stake: for or against.
type Direction string

// Stake directions.
const (
	DirectionFor     Direction = "for"
	DirectionAgainst Direction = "against"
)

// Valid reports whether d is a known direction.
func (d Direction) Valid() bool {
	return d == DirectionFor || d == DirectionAgainst
}

// StakePosition is one immutable ledger entry: a user staking an amount in a
// direction on a target. Positions are append-only and never mutated or
// deleted; a reversal is a new offsetting position, not an edit. All aggregate
// numbers on atoms, triples and stacks are sums over positions.
type StakePosition struct {
	CreatedAt  time.Time  `json:"created_at"`
	ID         string     `json:"id"`
	UserID     string     `json:"user_id"`
	TargetType TargetType `json:"target_type"`
	TargetID   string     `json:"target_id"`
	// ItemID optionally attributes a stack stake to one item in the stack.
	ItemID    string    `json:"item_id,omitempty"`
	Amount    int64     `json:"amount"`
	Direction Direction `json:"direction"`
}
