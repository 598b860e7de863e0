package service

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/stackedapp/stacked-server/internal/domain"
	"github.com/stackedapp/stacked-server/internal/search"
	"github.com/stackedapp/stacked-server/internal/store"
)

// SearchService keeps the bleve index in sync with the store and serves
// federated search over atoms, stacks and users. It implements
// store.SearchIndexer so entity writes flow into the index.
type SearchService struct {
	index  *search.SearchIndex
	logger *slog.Logger
}

// NewSearchService creates a new search service.
func NewSearchService(index *search.SearchIndex, logger *slog.Logger) *SearchService {
	return &SearchService{
		index:  index,
		logger: logger,
	}
}

// Search runs a query against the index.
func (s *SearchService) Search(ctx context.Context, params search.SearchParams) (*search.SearchResult, error) {
	return s.index.Search(ctx, params)
}

// IndexAtom implements store.SearchIndexer.
func (s *SearchService) IndexAtom(_ context.Context, atom *domain.Atom) error {
	return s.index.IndexDocument(search.DocumentFromAtom(atom))
}

// DeleteAtom implements store.SearchIndexer.
func (s *SearchService) DeleteAtom(_ context.Context, atomID string) error {
	return s.index.DeleteDocument(atomID)
}

// IndexStack implements store.SearchIndexer.
func (s *SearchService) IndexStack(_ context.Context, stack *domain.Stack) error {
	return s.index.IndexDocument(search.DocumentFromStack(stack))
}

// DeleteStack implements store.SearchIndexer.
func (s *SearchService) DeleteStack(_ context.Context, stackID string) error {
	return s.index.DeleteDocument(stackID)
}

// ReindexAll rebuilds the index from the store. Called at startup when
// the index was rebuilt after a mapping change or corruption.
func (s *SearchService) ReindexAll(ctx context.Context, st *store.Store) error {
	var docs []*search.SearchDocument

	for atom, err := range st.Atoms.List(ctx) {
		if err != nil {
			return fmt.Errorf("list atoms: %w", err)
		}
		docs = append(docs, search.DocumentFromAtom(atom))
	}
	for stack, err := range st.Stacks.List(ctx) {
		if err != nil {
			return fmt.Errorf("list stacks: %w", err)
		}
		docs = append(docs, search.DocumentFromStack(stack))
	}
	for user, err := range st.Users.List(ctx) {
		if err != nil {
			return fmt.Errorf("list users: %w", err)
		}
		docs = append(docs, search.DocumentFromUser(user))
	}

	if err := s.index.IndexDocuments(docs); err != nil {
		return fmt.Errorf("index documents: %w", err)
	}

	s.logger.Info("search reindex complete", "documents", len(docs))
	return nil
}
