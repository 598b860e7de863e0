package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"time"

	"github.com/stackedapp/stacked-server/internal/domain"
	domainerrors "github.com/stackedapp/stacked-server/internal/errors"
	"github.com/stackedapp/stacked-server/internal/id"
	"github.com/stackedapp/stacked-server/internal/sse"
	"github.com/stackedapp/stacked-server/internal/store"
)

// InboxService manages direct message threads. A pair of users shares at
// most one thread; sending to a user without a thread creates it.
type InboxService struct {
	store         *store.Store
	notifications *NotificationService
	events        *sse.Manager
	logger        *slog.Logger
}

// NewInboxService creates a new inbox service.
func NewInboxService(s *store.Store, notifications *NotificationService, events *sse.Manager, logger *slog.Logger) *InboxService {
	return &InboxService{
		store:         s,
		notifications: notifications,
		events:        events,
		logger:        logger,
	}
}

// ListThreads returns the user's threads, most recently active first.
func (s *InboxService) ListThreads(ctx context.Context, userID string) ([]*domain.InboxThread, error) {
	return s.store.ThreadsForUser(ctx, userID)
}

// Messages returns a thread's messages oldest first and clears the
// reader's unread counter. Only participants may read a thread.
func (s *InboxService) Messages(ctx context.Context, userID, threadID string) ([]*domain.Message, error) {
	thread, err := s.store.Threads.Get(ctx, threadID)
	if err != nil {
		return nil, err
	}
	if !thread.HasParticipant(userID) {
		return nil, domainerrors.Forbidden("not a participant of this thread")
	}

	messages, err := s.store.MessagesForThread(ctx, threadID)
	if err != nil {
		return nil, fmt.Errorf("list messages: %w", err)
	}

	if thread.UnreadCounts[userID] > 0 {
		if _, err := s.store.Threads.Mutate(ctx, threadID, func(t *domain.InboxThread) error {
			t.MarkRead(userID)
			return nil
		}); err != nil {
			s.logger.Warn("failed to clear unread count", "thread_id", threadID, "error", err)
		}
	}

	return messages, nil
}

// SendMessage appends a message to a thread the sender participates in.
func (s *InboxService) SendMessage(ctx context.Context, senderID, threadID, content string) (*domain.Message, error) {
	if content == "" {
		return nil, domainerrors.Validation("message content is required")
	}

	thread, err := s.store.Threads.Get(ctx, threadID)
	if err != nil {
		return nil, err
	}
	if !thread.HasParticipant(senderID) {
		return nil, domainerrors.Forbidden("not a participant of this thread")
	}

	msgID, err := id.Generate(id.PrefixMessage)
	if err != nil {
		return nil, fmt.Errorf("generate message ID: %w", err)
	}

	message := &domain.Message{
		ID:        msgID,
		ThreadID:  threadID,
		SenderID:  senderID,
		Content:   content,
		CreatedAt: time.Now(),
	}

	if err := s.store.Messages.Create(ctx, msgID, message); err != nil {
		return nil, fmt.Errorf("create message: %w", err)
	}

	if _, err := s.store.Threads.Mutate(ctx, threadID, func(t *domain.InboxThread) error {
		t.RecordMessage(message)
		return nil
	}); err != nil {
		return nil, fmt.Errorf("update thread: %w", err)
	}

	for _, participant := range thread.ParticipantIDs {
		if participant == senderID {
			continue
		}
		if s.events != nil {
			s.events.EmitToUser(participant, sse.NewEvent(sse.EventMessageCreated, sse.MessageEventData{
				Message:  message,
				ThreadID: threadID,
			}))
		}
	}

	s.logger.Debug("message sent", "thread_id", threadID, "sender_id", senderID)
	return message, nil
}

// EnsureThread returns the thread between the given participants,
// creating it on first contact. Participant order does not matter.
func (s *InboxService) EnsureThread(ctx context.Context, participantIDs ...string) (*domain.InboxThread, error) {
	if len(participantIDs) < 2 {
		return nil, domainerrors.Validation("a thread needs at least two participants")
	}
	for _, participant := range participantIDs {
		if _, err := s.store.Users.Get(ctx, participant); err != nil {
			if errors.Is(err, store.ErrNotFound) {
				return nil, domainerrors.NotFoundf("user %s not found", participant)
			}
			return nil, err
		}
	}

	thread, err := s.store.ThreadByParticipants(ctx, participantIDs...)
	if err == nil {
		return thread, nil
	}
	if !errors.Is(err, store.ErrNotFound) {
		return nil, fmt.Errorf("lookup thread: %w", err)
	}

	threadID, err := id.Generate(id.PrefixThread)
	if err != nil {
		return nil, fmt.Errorf("generate thread ID: %w", err)
	}

	now := time.Now()
	sorted := append([]string(nil), participantIDs...)
	sort.Strings(sorted)
	thread = &domain.InboxThread{
		ID:             threadID,
		ParticipantIDs: sorted,
		UnreadCounts:   make(map[string]int),
		CreatedAt:      now,
		UpdatedAt:      now,
	}

	if err := s.store.Threads.Create(ctx, threadID, thread); err != nil {
		// Lost a race to another first contact. Use theirs.
		if errors.Is(err, store.ErrAlreadyExists) {
			return s.store.ThreadByParticipants(ctx, participantIDs...)
		}
		return nil, fmt.Errorf("create thread: %w", err)
	}

	return thread, nil
}

// UnreadTotal sums unread messages across all of the user's threads.
func (s *InboxService) UnreadTotal(ctx context.Context, userID string) (int, error) {
	threads, err := s.store.ThreadsForUser(ctx, userID)
	if err != nil {
		return 0, err
	}
	total := 0
	for _, thread := range threads {
		total += thread.UnreadCounts[userID]
	}
	return total, nil
}
