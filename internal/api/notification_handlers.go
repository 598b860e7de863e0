package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/stackedapp/stacked-server/internal/domain"
	"github.com/stackedapp/stacked-server/internal/http/response"
)

// NotificationListResponse is one page of notifications plus the unread count.
type NotificationListResponse struct {
	Notifications []*domain.Notification `json:"notifications"`
	NextCursor    string                 `json:"next_cursor,omitempty"`
	UnreadCount   int                    `json:"unread_count"`
}

// handleListNotifications returns the caller's notifications, newest first.
func (s *Server) handleListNotifications(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	userID := getUserID(ctx)

	result, err := s.services.Notifications.List(ctx, userID, parsePaginationParams(r))
	if err != nil {
		response.HandleError(w, err, s.logger)
		return
	}

	unread, err := s.services.Notifications.UnreadCount(ctx, userID)
	if err != nil {
		response.HandleError(w, err, s.logger)
		return
	}

	response.Success(w, NotificationListResponse{
		Notifications: result.Items,
		NextCursor:    result.NextCursor,
		UnreadCount:   unread,
	}, s.logger)
}

// handleMarkNotificationRead marks one notification as read and returns it.
func (s *Server) handleMarkNotificationRead(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	notification, err := s.services.Notifications.MarkRead(ctx, getUserID(ctx), chi.URLParam(r, "id"))
	if err != nil {
		response.HandleError(w, err, s.logger)
		return
	}

	response.Success(w, notification, s.logger)
}

// handleMarkAllNotificationsRead marks every unread notification as read.
func (s *Server) handleMarkAllNotificationsRead(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	count, err := s.services.Notifications.MarkAllRead(ctx, getUserID(ctx))
	if err != nil {
		response.HandleError(w, err, s.logger)
		return
	}

	response.Success(w, map[string]int{"marked_read": count}, s.logger)
}
