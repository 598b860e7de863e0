package domain

import "time"

// NotificationType classifies what ledger or social event produced a
// notification.
type NotificationType string

// Notification types.
const (
	NotificationStake   NotificationType = "stake"
	NotificationFork    NotificationType = "fork"
	NotificationFollow  NotificationType = "follow"
	NotificationMention NotificationType = "mention"
	NotificationMessage NotificationType = "message"
)

// Notification is a derived record of a stake/fork/follow event addressed to
// one user. Notifications are consumers of ledger events, never sources of
// truth.
type Notification struct {
	CreatedAt  time.Time        `json:"created_at"`
	ID         string           `json:"id"`
	UserID     string           `json:"user_id"`
	Type       NotificationType `json:"type"`
	Title      string           `json:"title"`
	Body       string           `json:"body"`
	ActorID    string           `json:"actor_id"`
	TargetType TargetType       `json:"target_type,omitempty"`
	TargetID   string           `json:"target_id,omitempty"`
	Read       bool             `json:"read"`
}

// MarkRead flags the notification as read. Returns false if already read.
func (n *Notification) MarkRead() bool {
	if n.Read {
		return false
	}
	n.Read = true
	return true
}
