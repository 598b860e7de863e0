package sse

import (
	"context"
	"iter"
	"log/slog"
	"os"
	"sync"
	"time"

	"github.com/stackedapp/stacked-server/internal/id"
)

const (
	// eventBufferSize is the size of the main event channel buffer
	eventBufferSize = 1000
	// clientBufferSize is the size of each client's event channel buffer
	clientBufferSize = 100
	// heartbeatInterval is how often heartbeat events are sent
	heartbeatInterval = 30 * time.Second
)

// Client represents a connected SSE client.
type Client struct {
	ID        string
	UserID    string
	EventChan chan Event
	Done      chan struct{}
	closeOnce sync.Once
}

// Close signals the client's handler to stop. Safe to call more than once.
func (c *Client) Close() {
	c.closeOnce.Do(func() {
		close(c.Done)
	})
}

// Manager manages SSE client connections and event broadcasting.
type Manager struct {
	clients map[string]*Client
	events  chan Event
	logger  *slog.Logger
	mu      sync.RWMutex
	wg      sync.WaitGroup
	done    chan struct{}
}

// NewManager creates a new SSE manager.
func NewManager(log *slog.Logger) *Manager {
	if log == nil {
		log = slog.New(slog.NewTextHandler(os.Stderr, nil))
	}
	return &Manager{
		clients: make(map[string]*Client),
		events:  make(chan Event, eventBufferSize),
		logger:  log.With("component", "sse"),
		done:    make(chan struct{}),
	}
}

// Start begins the event broadcasting loop. Blocks until ctx is
// canceled, then drains any queued events before returning.
func (m *Manager) Start(ctx context.Context) {
	m.wg.Add(1)
	defer m.wg.Done()

	heartbeat := time.NewTicker(heartbeatInterval)
	defer heartbeat.Stop()

	m.logger.Info("sse manager started")

	for {
		select {
		case <-ctx.Done():
			m.logger.Info("sse manager stopping", "reason", ctx.Err())
			m.drain()
			return
		case <-m.done:
			m.drain()
			return
		case event := <-m.events:
			m.broadcast(event)
		case <-heartbeat.C:
			m.broadcast(NewHeartbeatEvent())
		}
	}
}

// Shutdown stops the manager and disconnects all clients. Waits for the
// broadcast loop to exit or ctx to expire.
func (m *Manager) Shutdown(ctx context.Context) error {
	select {
	case <-m.done:
		// already shut down
	default:
		close(m.done)
	}

	finished := make(chan struct{})
	go func() {
		m.wg.Wait()
		close(finished)
	}()

	select {
	case <-finished:
	case <-ctx.Done():
		return ctx.Err()
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	for _, client := range m.clients {
		client.Close()
	}
	clear(m.clients)

	m.logger.Info("sse manager shut down")
	return nil
}

// drain delivers events still queued at shutdown so late stake
// confirmations are not silently dropped.
func (m *Manager) drain() {
	for {
		select {
		case event := <-m.events:
			m.broadcast(event)
		default:
			return
		}
	}
}

// Connect registers a new client for the given user and returns it.
// The caller owns the client and must call Disconnect when done.
func (m *Manager) Connect(userID string) *Client {
	client := &Client{
		ID:        id.MustGenerate("sse"),
		UserID:    userID,
		EventChan: make(chan Event, clientBufferSize),
		Done:      make(chan struct{}),
	}

	m.mu.Lock()
	m.clients[client.ID] = client
	total := len(m.clients)
	m.mu.Unlock()

	m.logger.Debug("sse client connected", "client_id", client.ID, "user_id", userID, "total_clients", total)
	return client
}

// Disconnect removes a client and closes its done channel.
func (m *Manager) Disconnect(clientID string) {
	m.mu.Lock()
	client, ok := m.clients[clientID]
	if ok {
		delete(m.clients, clientID)
	}
	total := len(m.clients)
	m.mu.Unlock()

	if !ok {
		return
	}
	client.Close()
	m.logger.Debug("sse client disconnected", "client_id", clientID, "total_clients", total)
}

// Emit queues an event for broadcast to all connected clients.
// Implements store.EventEmitter. Non-blocking: drops the event if the
// queue is full.
func (m *Manager) Emit(event any) {
	evt, ok := event.(Event)
	if !ok {
		m.logger.Error("invalid event type emitted")
		return
	}
	select {
	case m.events <- evt:
	default:
		m.logger.Warn("sse event queue full, dropping event", "type", evt.Type)
	}
}

// EmitToUser queues an event addressed to a single user's connections.
func (m *Manager) EmitToUser(userID string, event Event) {
	event.UserID = userID
	m.Emit(event)
}

// broadcast delivers an event to every eligible client. Slow clients
// with a full buffer are skipped rather than blocking the loop.
func (m *Manager) broadcast(event Event) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	for _, client := range m.clients {
		if event.UserID != "" && event.UserID != client.UserID {
			continue
		}
		select {
		case client.EventChan <- event:
		default:
			if event.Type != EventHeartbeat {
				m.logger.Warn("sse client buffer full, skipping event",
					"client_id", client.ID, "type", event.Type)
			}
		}
	}
}

// Clients iterates over a snapshot of connected clients.
func (m *Manager) Clients() iter.Seq[*Client] {
	m.mu.RLock()
	snapshot := make([]*Client, 0, len(m.clients))
	for _, client := range m.clients {
		snapshot = append(snapshot, client)
	}
	m.mu.RUnlock()

	return func(yield func(*Client) bool) {
		for _, client := range snapshot {
			if !yield(client) {
				return
			}
		}
	}
}

// ClientCount returns the number of connected clients.
func (m *Manager) ClientCount() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.clients)
}
