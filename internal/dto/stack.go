// Package dto provides Data Transfer Objects for API responses and SSE events.
//
// DTOs contain denormalized fields for immediate client rendering while
// preserving normalized IDs for relationships. A stack card must render
// without a follow-up fetch per atom, so item labels and creator names
// travel with the payload.
package dto

import "github.com/stackedapp/stacked-server/internal/domain"

// StackItem is the client-facing representation of one ranked item.
// Includes the denormalized atom fields for immediate rendering.
type StackItem struct {
	ID          string          `json:"id"`
	AtomID      string          `json:"atom_id"`
	Label       string          `json:"label"` // Denormalized from Atom entity
	AtomType    domain.AtomType `json:"atom_type,omitempty"`
	Image       string          `json:"image,omitempty"`
	Rank        int             `json:"rank"`
	StakeAmount int64           `json:"stake_amount"`
	StakerCount int             `json:"staker_count"`
}

// Stack is the client-facing representation of a stack.
type Stack struct {
	*domain.Stack // Embeds all stored fields

	// Override Items with the denormalized version.
	Items []StackItem `json:"items"`

	// Denormalized creator fields, populated by Enricher.
	CreatorName   string `json:"creator_name,omitempty"`
	CreatorAvatar string `json:"creator_avatar,omitempty"`

	// ForkedFromTitle names the source stack when this is a fork.
	ForkedFromTitle string `json:"forked_from_title,omitempty"`
}

// Triple is the client-facing representation of a triple with the three
// atom labels resolved so clients can render the statement as text.
type Triple struct {
	*domain.Triple

	SubjectLabel   string `json:"subject_label"`
	PredicateLabel string `json:"predicate_label"`
	ObjectLabel    string `json:"object_label"`
	CreatorName    string `json:"creator_name,omitempty"`
}

// AtomActivity is the client-facing representation of an activity card.
type AtomActivity struct {
	*domain.AtomActivity

	AtomLabel string          `json:"atom_label"`
	AtomType  domain.AtomType `json:"atom_type,omitempty"`
	AtomImage string          `json:"atom_image,omitempty"`
}

// FeedItem is one entry in a composed feed response. Exactly one of
// Stack/Activity is set, matching Type.
type FeedItem struct {
	Type     domain.FeedItemType `json:"type"`
	Stack    *Stack              `json:"stack,omitempty"`
	Activity *AtomActivity       `json:"activity,omitempty"`
}
