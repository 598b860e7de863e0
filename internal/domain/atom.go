package domain

import "time"

// AtomType tags what kind of thing an atom refers to.
type AtomType string

// Known atom types.
const (
	AtomPerson       AtomType = "person"
	AtomConcept      AtomType = "concept"
	AtomProject      AtomType = "project"
	AtomOrganization AtomType = "organization"
	AtomTopic        AtomType = "topic"
)

// Valid reports whether t is a known atom type.
func (t AtomType) Valid() bool {
	switch t {
	case AtomPerson, AtomConcept, AtomProject, AtomOrganization, AtomTopic:
		return true
	}
	return false
}

// Atom is an addressable entity (person, concept, project, org, topic) that
// can be staked on directly, referenced by triples, and ranked inside stacks.
// Identity is immutable and append-only: atoms are created on first reference
// and never deleted, so triples and stack items can hold atom IDs forever.
// Only the aggregate stake fields mutate, and only through recorded positions.
type Atom struct {
	CreatedAt   time.Time `json:"created_at"`
	ID          string    `json:"id"`
	Label       string    `json:"label"`
	Description string    `json:"description"`
	Image       string    `json:"image,omitempty"`
	Type        AtomType  `json:"type"`
	TotalStaked int64     `json:"total_staked"`
	StakerCount int       `json:"staker_count"`
	Signals     Signals   `json:"signals"`
}

// ApplyStake folds a recorded stake position into the atom's aggregates.
// firstPosition is true when the staking user had no prior position on this
// atom; repeated stakes by the same user are amount top-ups and do not
// increment the staker count.
func (a *Atom) ApplyStake(amount int64, firstPosition bool) {
	a.TotalStaked += amount
	if firstPosition {
		a.StakerCount++
	}
}
