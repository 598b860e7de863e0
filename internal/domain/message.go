package domain

import (
	"slices"
	"time"
)

// Message is one message inside an inbox thread.
type Message struct {
	CreatedAt time.Time `json:"created_at"`
	ID        string    `json:"id"`
	ThreadID  string    `json:"thread_id"`
	SenderID  string    `json:"sender_id"`
	Content   string    `json:"content"`
	Read      bool      `json:"read"`
}

// InboxThread is a conversation between two or more users. The thread keeps
// per-participant unread counters so inbox badges don't need a message scan.
type InboxThread struct {
	CreatedAt      time.Time      `json:"created_at"`
	UpdatedAt      time.Time      `json:"updated_at"`
	ID             string         `json:"id"`
	ParticipantIDs []string       `json:"participant_ids"`
	LastMessageID  string         `json:"last_message_id,omitempty"`
	UnreadCounts   map[string]int `json:"unread_counts"`
}

// HasParticipant reports whether the user is part of this thread.
func (t *InboxThread) HasParticipant(userID string) bool {
	return slices.Contains(t.ParticipantIDs, userID)
}

// RecordMessage updates the thread for a newly sent message: bumps unread
// counters for everyone except the sender and moves the thread to the top of
// the inbox via UpdatedAt.
func (t *InboxThread) RecordMessage(msg *Message) {
	t.LastMessageID = msg.ID
	t.UpdatedAt = msg.CreatedAt
	if t.UnreadCounts == nil {
		t.UnreadCounts = make(map[string]int)
	}
	for _, participant := range t.ParticipantIDs {
		if participant != msg.SenderID {
			t.UnreadCounts[participant]++
		}
	}
}

// MarkRead clears the unread counter for the given participant.
func (t *InboxThread) MarkRead(userID string) {
	if t.UnreadCounts != nil {
		t.UnreadCounts[userID] = 0
	}
}
