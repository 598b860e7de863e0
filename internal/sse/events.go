// Package sse implements Server-Sent Events for real-time feed and ledger updates.
package sse

import (
	"time"

	"github.com/stackedapp/stacked-server/internal/domain"
)

// EventType represents the type of SSE Event.
type EventType string

const (
	// EventStakePlaced represents a new ledger position being written.
	EventStakePlaced EventType = "stake.placed"

	// EventStackCreated represents a stack creation event.
	EventStackCreated EventType = "stack.created"
	// EventStackUpdated represents a stack update (reorder, item change, restake).
	EventStackUpdated EventType = "stack.updated"
	// EventStackDeleted represents a stack deletion event.
	EventStackDeleted EventType = "stack.deleted"
	// EventStackForked represents a stack being forked by another user.
	EventStackForked EventType = "stack.forked"

	// EventAtomCreated represents an atom creation event.
	EventAtomCreated EventType = "atom.created"
	// EventTripleCreated represents a triple creation event.
	EventTripleCreated EventType = "triple.created"

	// EventSignalsUpdated represents recomputed engagement signals for a target.
	EventSignalsUpdated EventType = "signals.updated"

	// EventUserFollowed represents a follow edge being added.
	EventUserFollowed EventType = "user.followed"

	// EventNotificationCreated represents a new notification for a user.
	// Always user-targeted.
	EventNotificationCreated EventType = "notification.created"
	// EventMessageCreated represents a new inbox message.
	// Always user-targeted.
	EventMessageCreated EventType = "message.created"

	// EventHeartbeat represents a connection keepalive event.
	EventHeartbeat EventType = "heartbeat"
)

// Event represents an SSE event to be sent to clients.
// The Data field contains the event payload as a JSON object for direct deserialization.
type Event struct {
	Timestamp time.Time `json:"timestamp"`
	Data      any       `json:"data"` // Event-specific data as JSON object
	Type      EventType `json:"type"`

	// UserID filters delivery to a specific user when set.
	// Empty string means "broadcast to all" (not sent to clients).
	UserID string `json:"-"`
}

// StakeEventData is the data payload for stake events.
type StakeEventData struct {
	Position *domain.StakePosition `json:"position"`
	// Totals after the stake was applied, so clients can render
	// without a follow-up fetch.
	TotalStaked int64 `json:"total_staked"`
	StakerCount int   `json:"staker_count"`
}

// StackEventData is the data payload for stack events.
type StackEventData struct {
	Stack *domain.Stack `json:"stack"`
}

// StackDeletedEventData is the data payload for stack delete events.
type StackDeletedEventData struct {
	DeletedAt time.Time `json:"deleted_at"`
	StackID   string    `json:"stack_id"`
}

// StackForkedEventData is the data payload for fork events.
type StackForkedEventData struct {
	Fork         *domain.Stack `json:"fork"`
	SourceID     string        `json:"source_id"`
	ForkedByID   string        `json:"forked_by_id"`
	ForkedByName string        `json:"forked_by_name"`
}

// AtomEventData is the data payload for atom events.
type AtomEventData struct {
	Atom *domain.Atom `json:"atom"`
}

// TripleEventData is the data payload for triple events.
type TripleEventData struct {
	Triple *domain.Triple `json:"triple"`
}

// SignalsEventData is the data payload for signal recompute events.
type SignalsEventData struct {
	TargetType domain.TargetType `json:"target_type"`
	TargetID   string            `json:"target_id"`
	Signals    domain.Signals    `json:"signals"`
}

// FollowEventData is the data payload for follow events.
type FollowEventData struct {
	FollowerID string `json:"follower_id"`
	FollowedID string `json:"followed_id"`
}

// NotificationEventData is the data payload for notification events.
type NotificationEventData struct {
	Notification *domain.Notification `json:"notification"`
	UnreadCount  int                  `json:"unread_count"`
}

// MessageEventData is the data payload for inbox message events.
type MessageEventData struct {
	Message  *domain.Message `json:"message"`
	ThreadID string          `json:"thread_id"`
}

// HeartbeatEventData is the data payload for heartbeat events.
type HeartbeatEventData struct {
	ServerTime time.Time `json:"server_time"`
}

// NewEvent creates an event with the current timestamp.
func NewEvent(eventType EventType, data any) Event {
	return Event{
		Timestamp: time.Now(),
		Type:      eventType,
		Data:      data,
	}
}

// NewHeartbeatEvent creates a heartbeat event.
func NewHeartbeatEvent() Event {
	now := time.Now()
	return Event{
		Timestamp: now,
		Type:      EventHeartbeat,
		Data:      HeartbeatEventData{ServerTime: now},
	}
}

// NewStakeEvent creates a stake placed event.
func NewStakeEvent(position *domain.StakePosition, totalStaked int64, stakerCount int) Event {
	return NewEvent(EventStakePlaced, StakeEventData{
		Position:    position,
		TotalStaked: totalStaked,
		StakerCount: stakerCount,
	})
}

// NewStackEvent creates a stack created/updated event.
func NewStackEvent(eventType EventType, stack *domain.Stack) Event {
	return NewEvent(eventType, StackEventData{Stack: stack})
}

// NewStackDeletedEvent creates a stack deleted event.
func NewStackDeletedEvent(stackID string) Event {
	now := time.Now()
	return Event{
		Timestamp: now,
		Type:      EventStackDeleted,
		Data:      StackDeletedEventData{DeletedAt: now, StackID: stackID},
	}
}

// NewSignalsEvent creates a signals updated event.
func NewSignalsEvent(targetType domain.TargetType, targetID string, sig domain.Signals) Event {
	return NewEvent(EventSignalsUpdated, SignalsEventData{
		TargetType: targetType,
		TargetID:   targetID,
		Signals:    sig,
	})
}
