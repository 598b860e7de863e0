package feed

import (
	"encoding/base64"
	"fmt"
	"strconv"
	"strings"

	"github.com/stackedapp/stacked-server/internal/domain"
)

// Page size bounds.
const (
	DefaultPageSize = 20
	MaxPageSize     = 100
)

// Cursor is the decoded form of an opaque feed cursor. The cursor carries
// the filter it was issued for so a client cannot resume one filter's
// pagination inside another's sequence.
type Cursor struct {
	Filter domain.FeedFilter
	Offset int
}

// Encode produces the opaque wire form.
func (c Cursor) Encode() string {
	raw := fmt.Sprintf("%s:%d", c.Filter, c.Offset)
	return base64.URLEncoding.EncodeToString([]byte(raw))
}

// DecodeCursor parses an opaque cursor. An empty cursor means the first page.
func DecodeCursor(cursor string) (Cursor, error) {
	if cursor == "" {
		return Cursor{}, nil
	}

	decoded, err := base64.URLEncoding.DecodeString(cursor)
	if err != nil {
		return Cursor{}, fmt.Errorf("invalid cursor: %w", err)
	}

	filter, offsetStr, ok := strings.Cut(string(decoded), ":")
	if !ok {
		return Cursor{}, fmt.Errorf("invalid cursor: missing offset")
	}
	offset, err := strconv.Atoi(offsetStr)
	if err != nil || offset < 0 {
		return Cursor{}, fmt.Errorf("invalid cursor offset %q", offsetStr)
	}

	return Cursor{Filter: domain.FeedFilter(filter), Offset: offset}, nil
}

// ClampPageSize applies the default and maximum page sizes.
func ClampPageSize(pageSize int) int {
	if pageSize <= 0 {
		return DefaultPageSize
	}
	if pageSize > MaxPageSize {
		return MaxPageSize
	}
	return pageSize
}

// Page slices one page out of a composed sequence and returns the cursor for
// the next page, or an empty cursor on the last page.
func Page(filter domain.FeedFilter, items []domain.FeedItem, offset, pageSize int) ([]domain.FeedItem, string) {
	pageSize = ClampPageSize(pageSize)

	if offset >= len(items) {
		return []domain.FeedItem{}, ""
	}

	end := offset + pageSize
	if end >= len(items) {
		return items[offset:], ""
	}
	return items[offset:end], Cursor{Filter: filter, Offset: end}.Encode()
}
