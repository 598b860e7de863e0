package search

import (
	"github.com/blevesearch/bleve/v2"
	"github.com/blevesearch/bleve/v2/analysis/analyzer/keyword"
	"github.com/blevesearch/bleve/v2/analysis/lang/en"
	"github.com/blevesearch/bleve/v2/mapping"
)

// buildIndexMapping creates the Bleve index mapping for search documents.
//
// The mapping is designed with these priorities:
//  1. Fast full-text search on labels/titles with English stemming
//  2. Exact keyword matching for type and category filters
//  3. Numeric range queries and sorting on stake totals
//  4. Term vectors enabled on name for highlighting
func buildIndexMapping() mapping.IndexMapping {
	// Create the index mapping
	indexMapping := bleve.NewIndexMapping()

	// Use English analyzer as default for text fields
	indexMapping.DefaultAnalyzer = en.AnalyzerName

	// Create document mapping
	docMapping := bleve.NewDocumentMapping()

	// --- Text fields (full-text searchable) ---

	// Name field - primary search target
	nameFieldMapping := bleve.NewTextFieldMapping()
	nameFieldMapping.Analyzer = en.AnalyzerName
	nameFieldMapping.Store = true
	nameFieldMapping.IncludeTermVectors = true // For highlighting
	docMapping.AddFieldMappingsAt("name", nameFieldMapping)

	// Description - searchable but not stored (can be long)
	descFieldMapping := bleve.NewTextFieldMapping()
	descFieldMapping.Analyzer = en.AnalyzerName
	descFieldMapping.Store = false
	docMapping.AddFieldMappingsAt("description", descFieldMapping)

	// --- Keyword fields (exact match, facetable) ---

	// Type - for filtering by document type
	typeFieldMapping := bleve.NewTextFieldMapping()
	typeFieldMapping.Analyzer = keyword.Name
	docMapping.AddFieldMappingsAt("type", typeFieldMapping)

	// ID - stored but not analyzed
	idFieldMapping := bleve.NewTextFieldMapping()
	idFieldMapping.Analyzer = keyword.Name
	docMapping.AddFieldMappingsAt("id", idFieldMapping)

	// Category - exact filtering and faceting
	categoryFieldMapping := bleve.NewTextFieldMapping()
	categoryFieldMapping.Analyzer = keyword.Name
	categoryFieldMapping.Store = true
	categoryFieldMapping.IncludeTermVectors = true // For faceting
	docMapping.AddFieldMappingsAt("category", categoryFieldMapping)

	// Atom type - exact filtering
	atomTypeFieldMapping := bleve.NewTextFieldMapping()
	atomTypeFieldMapping.Analyzer = keyword.Name
	atomTypeFieldMapping.Store = true
	docMapping.AddFieldMappingsAt("atom_type", atomTypeFieldMapping)

	// Creator - exact filtering by stack author
	creatorFieldMapping := bleve.NewTextFieldMapping()
	creatorFieldMapping.Analyzer = keyword.Name
	docMapping.AddFieldMappingsAt("creator_id", creatorFieldMapping)

	// --- Numeric fields (range queries, sorting) ---

	// Total staked - for conviction-weighted sorting and range filters
	stakedFieldMapping := bleve.NewNumericFieldMapping()
	stakedFieldMapping.Store = true
	docMapping.AddFieldMappingsAt("total_staked", stakedFieldMapping)

	// Staker count - for sorting by breadth of support
	stakerCountFieldMapping := bleve.NewNumericFieldMapping()
	stakerCountFieldMapping.Store = true
	docMapping.AddFieldMappingsAt("staker_count", stakerCountFieldMapping)

	// Item count - for stack size display
	itemCountFieldMapping := bleve.NewNumericFieldMapping()
	itemCountFieldMapping.Store = true
	docMapping.AddFieldMappingsAt("item_count", itemCountFieldMapping)

	// Timestamps - for sorting by recency
	createdAtFieldMapping := bleve.NewNumericFieldMapping()
	createdAtFieldMapping.Store = true
	docMapping.AddFieldMappingsAt("created_at", createdAtFieldMapping)

	updatedAtFieldMapping := bleve.NewNumericFieldMapping()
	updatedAtFieldMapping.Store = true
	docMapping.AddFieldMappingsAt("updated_at", updatedAtFieldMapping)

	// Register the document mapping
	indexMapping.AddDocumentMapping("_default", docMapping)

	return indexMapping
}
