package api

import (
	"encoding/json/v2"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/stackedapp/stacked-server/internal/domain"
	"github.com/stackedapp/stacked-server/internal/http/response"
)

// EnsureThreadRequest opens (or returns) the thread between the caller
// and another participant.
type EnsureThreadRequest struct {
	ParticipantID string `json:"participant_id" validate:"required"`
}

// SendMessageRequest is the request body for posting to a thread.
type SendMessageRequest struct {
	Content string `json:"content" validate:"required,max=4000"`
}

// InboxResponse is the caller's threads plus their total unread count.
type InboxResponse struct {
	Threads     []*domain.InboxThread `json:"threads"`
	UnreadTotal int                   `json:"unread_total"`
}

// handleListThreads returns the caller's inbox threads, most recent first.
func (s *Server) handleListThreads(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	userID := getUserID(ctx)

	threads, err := s.services.Inbox.ListThreads(ctx, userID)
	if err != nil {
		response.HandleError(w, err, s.logger)
		return
	}

	unread, err := s.services.Inbox.UnreadTotal(ctx, userID)
	if err != nil {
		response.HandleError(w, err, s.logger)
		return
	}

	response.Success(w, InboxResponse{Threads: threads, UnreadTotal: unread}, s.logger)
}

// handleEnsureThread finds or creates the thread with another user.
func (s *Server) handleEnsureThread(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req EnsureThreadRequest
	if err := json.UnmarshalRead(r.Body, &req); err != nil {
		response.BadRequest(w, "Invalid request body", s.logger)
		return
	}
	if err := s.validator.Validate(req); err != nil {
		response.HandleError(w, err, s.logger)
		return
	}

	thread, err := s.services.Inbox.EnsureThread(ctx, getUserID(ctx), req.ParticipantID)
	if err != nil {
		response.HandleError(w, err, s.logger)
		return
	}

	response.Success(w, thread, s.logger)
}

// handleListMessages returns a thread's messages, oldest first, and
// clears the caller's unread counter.
func (s *Server) handleListMessages(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	messages, err := s.services.Inbox.Messages(ctx, getUserID(ctx), chi.URLParam(r, "threadID"))
	if err != nil {
		response.HandleError(w, err, s.logger)
		return
	}

	response.Success(w, messages, s.logger)
}

// handleSendMessage posts a message to a thread the caller belongs to.
func (s *Server) handleSendMessage(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req SendMessageRequest
	if err := json.UnmarshalRead(r.Body, &req); err != nil {
		response.BadRequest(w, "Invalid request body", s.logger)
		return
	}
	if err := s.validator.Validate(req); err != nil {
		response.HandleError(w, err, s.logger)
		return
	}

	message, err := s.services.Inbox.SendMessage(ctx, getUserID(ctx), chi.URLParam(r, "threadID"), req.Content)
	if err != nil {
		response.HandleError(w, err, s.logger)
		return
	}

	response.Created(w, message, s.logger)
}
