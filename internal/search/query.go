package search

import (
	"context"
	"fmt"
	"math"
	"strings"

	"github.com/blevesearch/bleve/v2"
	"github.com/blevesearch/bleve/v2/search/query"
)

// SearchParams configures a search query.
type SearchParams struct {
	Query string   // User's search query
	Types []string // Document types to include (empty = all)

	// Filters
	Categories []string // Filter by exact stack categories
	MinStaked  int64    // Minimum total staked
	MaxStaked  int64    // Maximum total staked

	// Pagination
	Limit  int
	Offset int

	// Sorting
	SortBy    string // "relevance", "name", "staked", "recent"
	SortOrder string // "asc", "desc"

	// Options
	IncludeFacets bool     // Include facet counts in results
	FacetFields   []string // Which fields to facet on
	Highlight     bool     // Include match highlighting
}

// DefaultSearchParams returns sensible defaults.
func DefaultSearchParams() SearchParams {
	return SearchParams{
		Limit:         20,
		Offset:        0,
		SortBy:        "relevance",
		SortOrder:     "desc",
		IncludeFacets: true,
		FacetFields:   []string{"type", "category"},
		Highlight:     true,
	}
}

// SearchResult represents the search results.
type SearchResult struct {
	Query  string       `json:"query"`
	Total  uint64       `json:"total"`
	TookMs int64        `json:"took_ms"`
	Hits   []SearchHit  `json:"hits"`
	Facets SearchFacets `json:"facets,omitempty"`
}

// SearchHit represents a single search result.
type SearchHit struct {
	ID          string            `json:"id"`
	Type        DocType           `json:"type"`
	Score       float64           `json:"score"`
	Name        string            `json:"name"`
	Category    string            `json:"category,omitempty"`
	AtomType    string            `json:"atom_type,omitempty"`
	TotalStaked int64             `json:"total_staked,omitempty"`
	StakerCount int               `json:"staker_count,omitempty"`
	ItemCount   int               `json:"item_count,omitempty"`
	Highlights  map[string]string `json:"highlights,omitempty"`
}

// SearchFacets contains facet counts.
type SearchFacets struct {
	Types      []FacetCount `json:"types,omitempty"`
	Categories []FacetCount `json:"categories,omitempty"`
}

// FacetCount represents a facet value and its count.
type FacetCount struct {
	Value string `json:"value"`
	Count int    `json:"count"`
}

// Search executes a search query.
func (s *SearchIndex) Search(ctx context.Context, params SearchParams) (*SearchResult, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	// Build the query
	searchQuery := buildSearchQuery(params)

	// Create search request
	searchRequest := bleve.NewSearchRequestOptions(searchQuery, params.Limit, params.Offset, false)

	// Add sorting
	addSorting(searchRequest, params)

	// Add facets
	if params.IncludeFacets {
		addFacets(searchRequest, params)
	}

	// Add highlighting
	if params.Highlight {
		searchRequest.Highlight = bleve.NewHighlight()
		searchRequest.Highlight.AddField("name")
	}

	// Request stored fields
	searchRequest.Fields = []string{
		"id", "type", "name", "category", "atom_type",
		"total_staked", "staker_count", "item_count",
	}

	// Execute search
	searchResult, err := s.index.SearchInContext(ctx, searchRequest)
	if err != nil {
		return nil, fmt.Errorf("execute search: %w", err)
	}

	// Convert results
	result := &SearchResult{
		Query:  params.Query,
		Total:  searchResult.Total,
		TookMs: searchResult.Took.Milliseconds(),
		Hits:   make([]SearchHit, 0, len(searchResult.Hits)),
	}

	for _, hit := range searchResult.Hits {
		searchHit := SearchHit{
			ID:    hit.ID,
			Score: hit.Score,
		}

		// Extract stored fields
		if t, ok := hit.Fields["type"].(string); ok {
			searchHit.Type = DocType(t)
		}
		if n, ok := hit.Fields["name"].(string); ok {
			searchHit.Name = n
		}
		if c, ok := hit.Fields["category"].(string); ok {
			searchHit.Category = c
		}
		if at, ok := hit.Fields["atom_type"].(string); ok {
			searchHit.AtomType = at
		}
		if ts, ok := hit.Fields["total_staked"].(float64); ok {
			searchHit.TotalStaked = int64(ts)
		}
		if sc, ok := hit.Fields["staker_count"].(float64); ok {
			searchHit.StakerCount = int(sc)
		}
		if ic, ok := hit.Fields["item_count"].(float64); ok {
			searchHit.ItemCount = int(ic)
		}

		// Extract highlights
		if len(hit.Fragments) > 0 {
			searchHit.Highlights = make(map[string]string)
			for field, fragments := range hit.Fragments {
				if len(fragments) > 0 {
					searchHit.Highlights[field] = fragments[0]
				}
			}
		}

		result.Hits = append(result.Hits, searchHit)
	}

	// Extract facets
	if params.IncludeFacets {
		result.Facets = extractFacets(searchResult)
	}

	return result, nil
}

// buildSearchQuery constructs the Bleve query from params.
func buildSearchQuery(params SearchParams) query.Query {
	var queries []query.Query

	// Main text query: match on name with fuzzy and prefix fallbacks.
	// Descriptions are searched too but with lower weight, so an exact label
	// match always outranks a passing mention.
	if params.Query != "" {
		textQueries := []query.Query{}

		// Name/label match with highest boost
		nameMatch := bleve.NewMatchQuery(params.Query)
		nameMatch.SetField("name")
		nameMatch.SetBoost(3.0)
		textQueries = append(textQueries, nameMatch)

		// Description match
		descMatch := bleve.NewMatchQuery(params.Query)
		descMatch.SetField("description")
		descMatch.SetBoost(1.0)
		textQueries = append(textQueries, descMatch)

		// Add fuzzy matching for typo tolerance on name
		fuzzyQuery := bleve.NewFuzzyQuery(params.Query)
		fuzzyQuery.SetFuzziness(1)
		fuzzyQuery.SetField("name")
		fuzzyQuery.SetBoost(0.8)
		textQueries = append(textQueries, fuzzyQuery)

		// Prefix query for autocomplete (minimum 2 chars)
		if len(params.Query) >= 2 {
			prefixQuery := bleve.NewPrefixQuery(strings.ToLower(params.Query))
			prefixQuery.SetField("name")
			prefixQuery.SetBoost(0.5)
			textQueries = append(textQueries, prefixQuery)
		}

		// Combine with OR (match any field)
		queries = append(queries, bleve.NewDisjunctionQuery(textQueries...))
	}

	// Type filter
	if len(params.Types) > 0 {
		typeQueries := make([]query.Query, len(params.Types))
		for i, t := range params.Types {
			tq := bleve.NewTermQuery(t)
			tq.SetField("type")
			typeQueries[i] = tq
		}
		queries = append(queries, bleve.NewDisjunctionQuery(typeQueries...))
	}

	// Category filter (exact match, OR across categories)
	if len(params.Categories) > 0 {
		categoryQueries := make([]query.Query, len(params.Categories))
		for i, category := range params.Categories {
			cq := bleve.NewTermQuery(category)
			cq.SetField("category")
			categoryQueries[i] = cq
		}
		queries = append(queries, bleve.NewDisjunctionQuery(categoryQueries...))
	}

	// Staked range filter
	if params.MinStaked > 0 || params.MaxStaked > 0 {
		min := float64(params.MinStaked)
		max := float64(params.MaxStaked)
		if params.MaxStaked == 0 {
			max = math.MaxFloat64
		}
		rangeQuery := bleve.NewNumericRangeQuery(&min, &max)
		rangeQuery.SetField("total_staked")
		queries = append(queries, rangeQuery)
	}

	// Combine all queries with AND
	if len(queries) == 0 {
		return bleve.NewMatchAllQuery()
	}
	if len(queries) == 1 {
		return queries[0]
	}
	return bleve.NewConjunctionQuery(queries...)
}

// addSorting configures sort order.
func addSorting(req *bleve.SearchRequest, params SearchParams) {
	switch params.SortBy {
	case "name":
		if params.SortOrder == "desc" {
			req.SortBy([]string{"-name"})
		} else {
			req.SortBy([]string{"name"})
		}
	case "staked":
		if params.SortOrder == "asc" {
			req.SortBy([]string{"total_staked"})
		} else {
			req.SortBy([]string{"-total_staked"})
		}
	case "recent":
		if params.SortOrder == "asc" {
			req.SortBy([]string{"created_at"})
		} else {
			req.SortBy([]string{"-created_at"})
		}
	default:
		// Relevance (score) is default - Bleve handles this
		req.SortBy([]string{"-_score"})
	}
}

// addFacets configures facet requests.
func addFacets(req *bleve.SearchRequest, params SearchParams) {
	for _, field := range params.FacetFields {
		facetReq := bleve.NewFacetRequest(field, 20) // Top 20 values
		req.AddFacet(field, facetReq)
	}
}

// extractFacets converts Bleve facets to our format.
func extractFacets(result *bleve.SearchResult) SearchFacets {
	facets := SearchFacets{}

	if typeFacet, ok := result.Facets["type"]; ok {
		for _, term := range typeFacet.Terms.Terms() {
			facets.Types = append(facets.Types, FacetCount{
				Value: term.Term,
				Count: term.Count,
			})
		}
	}

	if categoryFacet, ok := result.Facets["category"]; ok {
		for _, term := range categoryFacet.Terms.Terms() {
			facets.Categories = append(facets.Categories, FacetCount{
				Value: term.Term,
				Count: term.Count,
			})
		}
	}

	return facets
}
