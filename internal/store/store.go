package store

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/dgraph-io/badger/v4"

	"github.com/stackedapp/stacked-server/internal/domain"
)

// EventEmitter is the interface for emitting SSE events.
// Store uses this to broadcast changes without depending on SSE implementation details.
type EventEmitter interface {
	Emit(event any)
}

// NoopEmitter is a no-op implementation of EventEmitter for testing.
type NoopEmitter struct{}

// Emit implements EventEmitter.Emit as a no-op.
func (NoopEmitter) Emit(_ any) {}

// NewNoopEmitter creates a new no-op emitter for testing.
func NewNoopEmitter() EventEmitter {
	return NoopEmitter{}
}

// SearchIndexer is the interface for updating the search index.
// Store uses this to keep search in sync without depending on search implementation.
type SearchIndexer interface {
	IndexAtom(ctx context.Context, atom *domain.Atom) error
	DeleteAtom(ctx context.Context, atomID string) error
	IndexStack(ctx context.Context, stack *domain.Stack) error
	DeleteStack(ctx context.Context, stackID string) error
}

// NoopSearchIndexer is a no-op implementation for testing.
type NoopSearchIndexer struct{}

// IndexAtom is a no-op.
func (NoopSearchIndexer) IndexAtom(context.Context, *domain.Atom) error { return nil }

// DeleteAtom is a no-op.
func (NoopSearchIndexer) DeleteAtom(context.Context, string) error { return nil }

// IndexStack is a no-op.
func (NoopSearchIndexer) IndexStack(context.Context, *domain.Stack) error { return nil }

// DeleteStack is a no-op.
func (NoopSearchIndexer) DeleteStack(context.Context, string) error { return nil }

// NewNoopSearchIndexer creates a new no-op search indexer for testing.
func NewNoopSearchIndexer() SearchIndexer {
	return NoopSearchIndexer{}
}

// Store wraps a Badger database instance.
type Store struct {
	db     *badger.DB
	logger *slog.Logger

	// SSE event emitter for broadcasting changes.
	eventEmitter EventEmitter

	// Search indexer for keeping search in sync with store changes.
	// Set via SetSearchIndexer after store creation to avoid circular dependencies.
	searchIndexer SearchIndexer

	// Generic entities
	Users         *Entity[domain.User]
	Atoms         *Entity[domain.Atom]
	Triples       *Entity[domain.Triple]
	Stacks        *Entity[domain.Stack]
	Notifications *Entity[domain.Notification]
	Threads       *Entity[domain.InboxThread]
	Messages      *Entity[domain.Message]
}

// New creates a new Store instance with the given database path and event emitter.
// The emitter is required and used to broadcast store changes via SSE.
func New(path string, logger *slog.Logger, emitter EventEmitter) (*Store, error) {
	opts := badger.DefaultOptions(path)
	opts.Logger = nil            // Disable Badger's internal logging
	opts.SyncWrites = true       // Ensure writes are synced to disk to prevent corruption on crashes
	opts.CompactL0OnClose = true // Compact L0 tables on close for faster startup

	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("failed to open badger db: %w", err)
	}

	store := &Store{
		db:           db,
		logger:       logger,
		eventEmitter: emitter,
	}

	// Initialize generic entities
	store.initUsers()
	store.initAtoms()
	store.initTriples()
	store.initStacks()
	store.initNotifications()
	store.initInbox()

	if logger != nil {
		logger.Info("Badger database opened successfully", "path", path)
	}

	return store, nil
}

// Close gracefully closes the database connection.
func (s *Store) Close() error {
	if s.logger != nil {
		s.logger.Info("Closing database connection")
	}
	return s.db.Close()
}

// SetSearchIndexer sets the search indexer for keeping search in sync.
// This is set after store creation to avoid circular dependencies
// (store needs to exist before search service can be created).
func (s *Store) SetSearchIndexer(indexer SearchIndexer) {
	s.searchIndexer = indexer
}

// Emit broadcasts an event via the configured emitter.
func (s *Store) Emit(event any) {
	if s.eventEmitter != nil {
		s.eventEmitter.Emit(event)
	}
}

// IndexAtom updates the atom's search document. Index failures are logged,
// not returned: search lags behind the store rather than failing writes.
func (s *Store) IndexAtom(atom *domain.Atom) {
	if s.searchIndexer == nil {
		return
	}
	if err := s.searchIndexer.IndexAtom(context.Background(), atom); err != nil && s.logger != nil {
		s.logger.Warn("failed to index atom", "atom_id", atom.ID, "error", err)
	}
}

// IndexStack updates the stack's search document.
func (s *Store) IndexStack(stack *domain.Stack) {
	if s.searchIndexer == nil {
		return
	}
	if err := s.searchIndexer.IndexStack(context.Background(), stack); err != nil && s.logger != nil {
		s.logger.Warn("failed to index stack", "stack_id", stack.ID, "error", err)
	}
}

// DeindexStack removes the stack's search document.
func (s *Store) DeindexStack(stackID string) {
	if s.searchIndexer == nil {
		return
	}
	if err := s.searchIndexer.DeleteStack(context.Background(), stackID); err != nil && s.logger != nil {
		s.logger.Warn("failed to deindex stack", "stack_id", stackID, "error", err)
	}
}

// initUsers initializes the Users entity on the store.
// Email and username lookups are case-insensitive via index transforms.
func (s *Store) initUsers() {
	s.Users = NewEntity[domain.User](s, "user:").
		WithIndexTransform("email",
			func(u *domain.User) []string {
				return []string{normalizeEmail(u.Email)}
			},
			normalizeEmail,
		).
		WithIndexTransform("username",
			func(u *domain.User) []string {
				return []string{strings.ToLower(u.Username)}
			},
			strings.ToLower,
		)
}

// initAtoms initializes the Atoms entity on the store.
// Labels are unique case-insensitively so the same claim cannot exist twice.
func (s *Store) initAtoms() {
	s.Atoms = NewEntity[domain.Atom](s, "atom:").
		WithIndexTransform("label",
			func(a *domain.Atom) []string {
				return []string{normalizeLabel(a.Label)}
			},
			normalizeLabel,
		)
}

// initTriples initializes the Triples entity on the store.
// Indexed by the full subject/predicate/object statement so duplicate
// statements are rejected at the storage layer.
func (s *Store) initTriples() {
	s.Triples = NewEntity[domain.Triple](s, "triple:").
		WithIndex("statement", func(t *domain.Triple) []string {
			return []string{t.SubjectID + "|" + t.PredicateID + "|" + t.ObjectID}
		})
}

// initStacks initializes the Stacks entity on the store.
func (s *Store) initStacks() {
	s.Stacks = NewEntity[domain.Stack](s, "stack:")
}

// initNotifications initializes the Notifications entity on the store.
func (s *Store) initNotifications() {
	s.Notifications = NewEntity[domain.Notification](s, "notif:")
}

// initInbox initializes the Threads and Messages entities on the store.
// Threads are indexed by their canonical participant pair so there is at
// most one thread per pair of users.
func (s *Store) initInbox() {
	s.Threads = NewEntity[domain.InboxThread](s, "thread:").
		WithIndex("participants", func(t *domain.InboxThread) []string {
			return []string{participantsKey(t.ParticipantIDs)}
		})
	s.Messages = NewEntity[domain.Message](s, "msg:")
}

// normalizeEmail lowercases and trims an email address for indexing.
func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// normalizeLabel lowercases and collapses whitespace in an atom label.
func normalizeLabel(label string) string {
	return strings.ToLower(strings.Join(strings.Fields(label), " "))
}

// participantsKey builds the canonical index key for a participant pair.
// Order-independent: [a,b] and [b,a] map to the same key.
func participantsKey(ids []string) string {
	sorted := make([]string, len(ids))
	copy(sorted, ids)
	for i := 1; i < len(sorted); i++ {
		for j := i; j > 0 && sorted[j] < sorted[j-1]; j-- {
			sorted[j], sorted[j-1] = sorted[j-1], sorted[j]
		}
	}
	return strings.Join(sorted, "|")
}
