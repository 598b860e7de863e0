// Package service provides the business logic layer: the stake ledger,
// stack curation, feed composition, signals, and the social graph.
package service

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/stackedapp/stacked-server/internal/domain"
	domainerrors "github.com/stackedapp/stacked-server/internal/errors"
	"github.com/stackedapp/stacked-server/internal/id"
	"github.com/stackedapp/stacked-server/internal/sse"
	"github.com/stackedapp/stacked-server/internal/store"
)

// NotificationService materializes notifications from stake, fork and
// follow events and serves them to clients. Notifications are derived
// records; the ledger stays the source of truth.
type NotificationService struct {
	store  *store.Store
	events *sse.Manager
	logger *slog.Logger
}

// NewNotificationService creates a new notification service.
func NewNotificationService(s *store.Store, events *sse.Manager, logger *slog.Logger) *NotificationService {
	return &NotificationService{
		store:  s,
		events: events,
		logger: logger,
	}
}

// NotifyParams describes one notification to deliver.
type NotifyParams struct {
	UserID     string
	ActorID    string
	Type       domain.NotificationType
	Title      string
	Body       string
	TargetType domain.TargetType
	TargetID   string
}

// Notify persists a notification and pushes it to the recipient's open
// connections. Self-notifications are silently skipped so a user staking
// on their own stack does not notify themselves.
func (s *NotificationService) Notify(ctx context.Context, params NotifyParams) error {
	if params.UserID == "" || params.UserID == params.ActorID {
		return nil
	}

	notifID, err := id.Generate(id.PrefixNotification)
	if err != nil {
		return fmt.Errorf("generate notification ID: %w", err)
	}

	notification := &domain.Notification{
		ID:         notifID,
		UserID:     params.UserID,
		ActorID:    params.ActorID,
		Type:       params.Type,
		Title:      params.Title,
		Body:       params.Body,
		TargetType: params.TargetType,
		TargetID:   params.TargetID,
		CreatedAt:  time.Now(),
	}

	if err := s.store.Notifications.Create(ctx, notifID, notification); err != nil {
		return fmt.Errorf("create notification: %w", err)
	}

	if s.events != nil {
		unread, err := s.store.UnreadNotificationCount(ctx, params.UserID)
		if err != nil {
			unread = 0
		}
		s.events.EmitToUser(params.UserID, sse.NewEvent(sse.EventNotificationCreated, sse.NotificationEventData{
			Notification: notification,
			UnreadCount:  unread,
		}))
	}

	return nil
}

// List returns the user's notifications, newest first.
func (s *NotificationService) List(ctx context.Context, userID string, params store.PaginationParams) (*store.PaginatedResult[*domain.Notification], error) {
	return s.store.NotificationsForUser(ctx, userID, params)
}

// UnreadCount returns the number of unread notifications for the user.
func (s *NotificationService) UnreadCount(ctx context.Context, userID string) (int, error) {
	return s.store.UnreadNotificationCount(ctx, userID)
}

// MarkRead marks one notification as read. Only the recipient may mark
// their own notifications.
func (s *NotificationService) MarkRead(ctx context.Context, userID, notificationID string) (*domain.Notification, error) {
	notification, err := s.store.Notifications.Mutate(ctx, notificationID, func(n *domain.Notification) error {
		if n.UserID != userID {
			return domainerrors.Forbidden("notification belongs to another user")
		}
		n.MarkRead()
		return nil
	})
	if err != nil {
		return nil, err
	}
	return notification, nil
}

// MarkAllRead marks every unread notification for the user as read and
// returns how many were flipped.
func (s *NotificationService) MarkAllRead(ctx context.Context, userID string) (int, error) {
	marked := 0
	for notification, err := range s.store.Notifications.List(ctx) {
		if err != nil {
			return marked, err
		}
		if notification.UserID != userID || notification.Read {
			continue
		}
		if _, err := s.store.Notifications.Mutate(ctx, notification.ID, func(n *domain.Notification) error {
			n.MarkRead()
			return nil
		}); err != nil {
			return marked, fmt.Errorf("mark notification %s: %w", notification.ID, err)
		}
		marked++
	}

	s.logger.Debug("notifications marked read", "user_id", userID, "count", marked)
	return marked, nil
}
