package store

import (
	"context"
	"errors"
	"sort"

	"github.com/stackedapp/stacked-server/internal/domain"
)

// Filtered list helpers over the generic entities. These scan the entity
// prefix and filter in memory; the working sets here (one user's stacks,
// one user's notifications, one thread's messages) stay small.

// StacksByCreator returns all stacks created by the given user,
// newest first.
func (s *Store) StacksByCreator(ctx context.Context, userID string) ([]*domain.Stack, error) {
	var out []*domain.Stack
	for stack, err := range s.Stacks.List(ctx) {
		if err != nil {
			return nil, err
		}
		if stack.CreatorID == userID {
			out = append(out, stack)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	return out, nil
}

// TriplesByAtom returns all triples whose subject or object is the given atom.
func (s *Store) TriplesByAtom(ctx context.Context, atomID string) ([]*domain.Triple, error) {
	var out []*domain.Triple
	for triple, err := range s.Triples.List(ctx) {
		if err != nil {
			return nil, err
		}
		if triple.SubjectID == atomID || triple.ObjectID == atomID {
			out = append(out, triple)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	return out, nil
}

// TripleByStatement looks up a triple by its exact subject/predicate/object.
// Returns ErrNotFound if no such statement exists.
func (s *Store) TripleByStatement(ctx context.Context, subjectID, predicateID, objectID string) (*domain.Triple, error) {
	return s.Triples.GetByIndex(ctx, "statement", subjectID+"|"+predicateID+"|"+objectID)
}

// NotificationsForUser returns one page of a user's notifications, newest
// first. The cursor is the ID of the last notification on the previous page.
func (s *Store) NotificationsForUser(ctx context.Context, userID string, params PaginationParams) (*PaginatedResult[*domain.Notification], error) {
	params.Validate()

	afterID, err := DecodeCursor(params.Cursor)
	if err != nil {
		return nil, ErrInvalidInput.WithCause(err)
	}

	var all []*domain.Notification
	for notif, err := range s.Notifications.List(ctx) {
		if err != nil {
			return nil, err
		}
		if notif.UserID == userID {
			all = append(all, notif)
		}
	}
	sort.Slice(all, func(i, j int) bool {
		if all[i].CreatedAt.Equal(all[j].CreatedAt) {
			return all[i].ID < all[j].ID
		}
		return all[i].CreatedAt.After(all[j].CreatedAt)
	})

	start := 0
	if afterID != "" {
		for i, notif := range all {
			if notif.ID == afterID {
				start = i + 1
				break
			}
		}
	}

	end := min(start+params.Limit, len(all))
	page := all[start:end]

	result := &PaginatedResult[*domain.Notification]{
		Items:   page,
		HasMore: end < len(all),
		Total:   len(all),
	}
	if result.HasMore && len(page) > 0 {
		result.NextCursor = EncodeCursor(page[len(page)-1].ID)
	}
	return result, nil
}

// UnreadNotificationCount returns the number of unread notifications for a user.
func (s *Store) UnreadNotificationCount(ctx context.Context, userID string) (int, error) {
	count := 0
	for notif, err := range s.Notifications.List(ctx) {
		if err != nil {
			return 0, err
		}
		if notif.UserID == userID && !notif.Read {
			count++
		}
	}
	return count, nil
}

// ThreadByParticipants looks up the thread between exactly the given users.
// Returns ErrNotFound if they have never exchanged messages.
func (s *Store) ThreadByParticipants(ctx context.Context, userIDs ...string) (*domain.InboxThread, error) {
	return s.Threads.GetByIndex(ctx, "participants", participantsKey(userIDs))
}

// ThreadsForUser returns all threads the user participates in, most recently
// active first.
func (s *Store) ThreadsForUser(ctx context.Context, userID string) ([]*domain.InboxThread, error) {
	var out []*domain.InboxThread
	for thread, err := range s.Threads.List(ctx) {
		if err != nil {
			return nil, err
		}
		if thread.HasParticipant(userID) {
			out = append(out, thread)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].UpdatedAt.After(out[j].UpdatedAt)
	})
	return out, nil
}

// MessagesForThread returns all messages in a thread, oldest first.
func (s *Store) MessagesForThread(ctx context.Context, threadID string) ([]*domain.Message, error) {
	var out []*domain.Message
	for msg, err := range s.Messages.List(ctx) {
		if err != nil {
			return nil, err
		}
		if msg.ThreadID == threadID {
			out = append(out, msg)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].ID < out[j].ID
		}
		return out[i].CreatedAt.Before(out[j].CreatedAt)
	})
	return out, nil
}

// AtomsByIDs fetches a batch of atoms by ID. Unknown IDs are skipped,
// so the result may be shorter than the input.
func (s *Store) AtomsByIDs(ctx context.Context, ids []string) ([]*domain.Atom, error) {
	out := make([]*domain.Atom, 0, len(ids))
	for _, atomID := range ids {
		atom, err := s.Atoms.Get(ctx, atomID)
		if err != nil {
			if errors.Is(err, ErrNotFound) {
				continue
			}
			return nil, err
		}
		out = append(out, atom)
	}
	return out, nil
}

// UsersByIDs fetches a batch of users by ID. Unknown IDs are skipped.
func (s *Store) UsersByIDs(ctx context.Context, ids []string) ([]*domain.User, error) {
	out := make([]*domain.User, 0, len(ids))
	for _, userID := range ids {
		user, err := s.Users.Get(ctx, userID)
		if err != nil {
			if errors.Is(err, ErrNotFound) {
				continue
			}
			return nil, err
		}
		out = append(out, user)
	}
	return out, nil
}

// GetStack fetches a single stack by ID.
func (s *Store) GetStack(ctx context.Context, id string) (*domain.Stack, error) {
	return s.Stacks.Get(ctx, id)
}
