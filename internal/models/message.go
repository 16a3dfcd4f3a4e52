package models

import (
	"time"

	"github.com/lib/pq"
)

// MessagePriority ranks admin messages.
type MessagePriority string

const (
	PriorityLow    MessagePriority = "low"
	PriorityNormal MessagePriority = "normal"
	PriorityHigh   MessagePriority = "high"
	PriorityUrgent MessagePriority = "urgent"
)

// NotificationType distinguishes direct messages from broadcasts.
type NotificationType string

const (
	NotificationAdminMessage     NotificationType = "admin_message"
	NotificationBroadcastMessage NotificationType = "broadcast_message"
)

// Message is an admin-authored note addressed to technicians.
type Message struct {
	ID          string          `db:"id" json:"id"`
	Sender      string          `db:"sender" json:"from"`
	Recipients  pq.StringArray  `db:"recipients" json:"recipients"`
	Subject     string          `db:"subject" json:"subject"`
	Body        string          `db:"body" json:"message"`
	Priority    MessagePriority `db:"priority" json:"priority"`
	IsBroadcast bool            `db:"is_broadcast" json:"is_broadcast"`
	Read        bool            `db:"read" json:"read"`
	ReadAt      *time.Time      `db:"read_at" json:"read_at,omitempty"`
	CreatedAt   time.Time       `db:"created_at" json:"timestamp"`
}

// Notification is the per-recipient delivery record of a message.
type Notification struct {
	ID          string           `db:"id" json:"id"`
	MessageID   string           `db:"message_id" json:"message_id"`
	RecipientID string           `db:"recipient_id" json:"recipient_id"`
	Type        NotificationType `db:"type" json:"type"`
	Title       string           `db:"title" json:"title"`
	Body        string           `db:"body" json:"message"`
	Read        bool             `db:"read" json:"read"`
	ReadAt      *time.Time       `db:"read_at" json:"read_at,omitempty"`
	CreatedAt   time.Time        `db:"created_at" json:"timestamp"`
}

// MessageFilter captures listMessages criteria.
type MessageFilter struct {
	Priority *MessagePriority
	Read     *bool
	Page     int
	Limit    int
}

// NotificationFilter captures listNotifications criteria.
type NotificationFilter struct {
	Read  *bool
	Page  int
	Limit int
}

// SendMessageRequest addresses a message to specific technicians by id or
// username.
type SendMessageRequest struct {
	Recipients []string        `json:"recipients"`
	Subject    string          `json:"subject" validate:"max=200"`
	Message    string          `json:"message" validate:"max=5000"`
	Priority   MessagePriority `json:"priority" validate:"omitempty,oneof=low normal high urgent"`
}

// BroadcastRequest addresses a message to every technician.
type BroadcastRequest struct {
	Subject  string          `json:"subject" validate:"max=200"`
	Message  string          `json:"message" validate:"max=5000"`
	Priority MessagePriority `json:"priority" validate:"omitempty,oneof=low normal high urgent"`
}

// SendResult reports a stored message.
type SendResult struct {
	Message         string `json:"message"`
	MessageID       string `json:"message_id"`
	RecipientsCount int    `json:"recipients_count"`
}

// UnreadCount summarises unread messaging state.
type UnreadCount struct {
	UnreadMessages      int `db:"unread_messages" json:"unread_messages"`
	UnreadNotifications int `db:"unread_notifications" json:"unread_notifications"`
	Total               int `db:"-" json:"total"`
}
