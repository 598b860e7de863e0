package sse

import (
	"encoding/json/v2"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/stackedapp/stacked-server/internal/http/middleware"
)

const (
	// writeTimeout bounds each event write so a stalled client
	// cannot wedge the handler goroutine.
	writeTimeout = 60 * time.Second
	// clientHeartbeatInterval is the per-connection keepalive, independent
	// of the manager's broadcast heartbeat.
	clientHeartbeatInterval = 30 * time.Second
)

// Handler streams events to a single authenticated client connection.
type Handler struct {
	manager *Manager
	logger  *slog.Logger
}

// NewHandler creates a new SSE handler.
func NewHandler(manager *Manager, log *slog.Logger) *Handler {
	return &Handler{
		manager: manager,
		logger:  log.With("component", "sse_handler"),
	}
}

// ServeHTTP handles SSE connection requests.
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	userID, ok := middleware.UserIDFromContext(r.Context())
	if !ok {
		http.Error(w, "unauthorized", http.StatusUnauthorized)
		return
	}

	rc := http.NewResponseController(w)

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("X-Accel-Buffering", "no") // Disable nginx buffering

	client := h.manager.Connect(userID)
	defer h.manager.Disconnect(client.ID)

	// Confirm the stream before any domain events arrive.
	if err := h.sendEvent(w, rc, NewEvent("connected", map[string]string{"client_id": client.ID})); err != nil {
		h.logger.Debug("failed to send initial event", "client_id", client.ID, "error", err)
		return
	}

	heartbeat := time.NewTicker(clientHeartbeatInterval)
	defer heartbeat.Stop()

	ctx := r.Context()
	for {
		select {
		case <-ctx.Done():
			return
		case <-client.Done:
			return
		case event := <-client.EventChan:
			if err := h.sendEvent(w, rc, event); err != nil {
				h.logger.Debug("failed to send event, closing connection",
					"client_id", client.ID, "type", event.Type, "error", err)
				return
			}
		case <-heartbeat.C:
			if err := h.sendEvent(w, rc, NewHeartbeatEvent()); err != nil {
				return
			}
		}
	}
}

// sendEvent writes a single event in SSE wire format and flushes it.
func (h *Handler) sendEvent(w http.ResponseWriter, rc *http.ResponseController, event Event) error {
	data, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("marshal event: %w", err)
	}

	if err := rc.SetWriteDeadline(time.Now().Add(writeTimeout)); err != nil {
		return fmt.Errorf("set write deadline: %w", err)
	}

	if _, err := fmt.Fprintf(w, "event: %s\ndata: %s\n\n", event.Type, data); err != nil {
		return fmt.Errorf("write event: %w", err)
	}

	return rc.Flush()
}
