package store

import (
	"encoding/base64"
	"fmt"
)

// PaginationParams contains pagination request paramters
type PaginationParams struct {
	Limit  int    // The number of items per page (defaults to 50 with a maximum of 200)
	Cursor string // Opaque cusor for next page (empty for first page)
}

// PaginatedResult contains paginated data and metadata
type PaginatedResult[T any] struct {
	Items      []T    `json:"items"`
	NextCursor string `json:"next_cursor,omitempty"` // Empty if no more pages
	HasMore    bool   `json:"has_more"`
	Total      int    `json:"total,omitempty"` // Optional: total count (expensive to compute)
}

// DefaultPaginationParms returns sensible defaults
func DefaultPaginationParms() PaginationParams {
	return PaginationParams{
		Limit:  50,
		Cursor: "",
	}
}

// Validate checks and corrects pagination paramters
func (p *PaginationParams) Validate() {
	if p.Limit <= 0 {
		p.Limit = 50
	}

	if p.Limit > 200 {
		p.Limit = 200
	}
}

// EncodeCursor creates an opaque cusor from a key
// for BadgerDB, we use the last item's key as the cursor
func EncodeCursor(key string) string {
	if key == "" {
		return ""
	}
	return base64.URLEncoding.EncodeToString([]byte(key))
}

// DecodeCursor decodes a cursor back to a key
func DecodeCursor(cursor string) (string, error) {
	if cursor == "" {
		return "", nil
	}

	decoded, err := base64.URLEncoding.DecodeString(cursor)
	if err != nil {
		return "", fmt.Errorf("invalid cursor: %w", err)
	}

	return string(decoded), nil
}
