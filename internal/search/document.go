// Package search provides full-text search functionality using Bleve.
// It enables federated search across atoms, stacks, and users with
// category filtering, fuzzy matching, and stake-weighted sorting.
package search

import (
	"github.com/stackedapp/stacked-server/internal/domain"
)

// DocType represents the type of document in the unified index.
type DocType string

// Document types for the search index.
const (
	DocTypeAtom  DocType = "atom"
	DocTypeStack DocType = "stack"
	DocTypeUser  DocType = "user"
)

// SearchDocument is the unified document structure for the Bleve index.
// All searchable entities are indexed as SearchDocuments with type discrimination.
//
// Stake totals are denormalized into the index so results can be sorted by
// conviction without a second store lookup per hit.
type SearchDocument struct {
	// Identity
	ID   string  `json:"id"`   // Original entity ID (atom-xxx, stack-xxx, user-xxx)
	Type DocType `json:"type"` // Discriminator for result grouping

	// Primary searchable text (different meaning per type)
	// Atom: label, Stack: title, User: username
	Name string `json:"name"`

	// Secondary searchable text
	Description string `json:"description,omitempty"`

	// Stack-specific fields (empty for other types)
	Category  string `json:"category,omitempty"`
	CreatorID string `json:"creator_id,omitempty"`

	// Atom-specific fields
	AtomType string `json:"atom_type,omitempty"`

	// Numeric fields for range queries and sorting
	TotalStaked int64 `json:"total_staked,omitempty"`
	StakerCount int   `json:"staker_count,omitempty"`
	ItemCount   int   `json:"item_count,omitempty"` // Stacks only

	// Timestamps for sorting
	CreatedAt int64 `json:"created_at"` // Unix millis
	UpdatedAt int64 `json:"updated_at"` // Unix millis
}

// ToMap converts the document to a map with lowercase field names.
// This ensures field names match the Bleve index mapping.
// Bleve by default uses Go struct field names (capitalized), but our
// mapping uses lowercase names, so we convert explicitly.
func (d *SearchDocument) ToMap() map[string]interface{} {
	m := map[string]interface{}{
		"id":         d.ID,
		"type":       string(d.Type),
		"name":       d.Name,
		"created_at": d.CreatedAt,
		"updated_at": d.UpdatedAt,
	}

	// Optional fields - only add if non-empty
	if d.Description != "" {
		m["description"] = d.Description
	}
	if d.Category != "" {
		m["category"] = d.Category
	}
	if d.CreatorID != "" {
		m["creator_id"] = d.CreatorID
	}
	if d.AtomType != "" {
		m["atom_type"] = d.AtomType
	}
	if d.TotalStaked > 0 {
		m["total_staked"] = d.TotalStaked
	}
	if d.StakerCount > 0 {
		m["staker_count"] = d.StakerCount
	}
	if d.ItemCount > 0 {
		m["item_count"] = d.ItemCount
	}

	return m
}

// DocumentFromAtom converts an atom to a search document.
func DocumentFromAtom(atom *domain.Atom) *SearchDocument {
	return &SearchDocument{
		ID:          atom.ID,
		Type:        DocTypeAtom,
		Name:        atom.Label,
		Description: atom.Description,
		AtomType:    string(atom.Type),
		TotalStaked: atom.TotalStaked,
		StakerCount: atom.StakerCount,
		CreatedAt:   atom.CreatedAt.UnixMilli(),
		UpdatedAt:   atom.CreatedAt.UnixMilli(),
	}
}

// DocumentFromStack converts a stack to a search document.
func DocumentFromStack(stack *domain.Stack) *SearchDocument {
	return &SearchDocument{
		ID:          stack.ID,
		Type:        DocTypeStack,
		Name:        stack.Title,
		Description: stack.Description,
		Category:    string(stack.Category),
		CreatorID:   stack.CreatorID,
		TotalStaked: stack.TotalStaked,
		StakerCount: stack.StakerCount,
		ItemCount:   len(stack.Items),
		CreatedAt:   stack.CreatedAt.UnixMilli(),
		UpdatedAt:   stack.UpdatedAt.UnixMilli(),
	}
}

// DocumentFromUser converts a user to a search document.
func DocumentFromUser(user *domain.User) *SearchDocument {
	return &SearchDocument{
		ID:          user.ID,
		Type:        DocTypeUser,
		Name:        user.Username,
		Description: user.Bio,
		CreatedAt:   user.CreatedAt.UnixMilli(),
		UpdatedAt:   user.CreatedAt.UnixMilli(),
	}
}
