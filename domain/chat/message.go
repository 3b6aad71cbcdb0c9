// Package chat contains the core concepts of direct messaging.
// Messages are immutable once persisted, except for the read flag.
package chat

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

// UserID is an opaque, stable user identity. The real-time core only
// references it, it never mutates anything owned by the user.
type UserID string

func (u UserID) String() string { return string(u) }

// Message is a direct message between two users.
type Message struct {
	ID          uuid.UUID `json:"id"`
	SenderID    UserID    `json:"senderId"`
	RecipientID UserID    `json:"recipientId"`
	Content     string    `json:"content"`
	CreatedAt   time.Time `json:"createdAt"`
	Read        bool      `json:"read"`
}

// NewMessage builds an unsaved message. ID and CreatedAt are assigned by the store.
func NewMessage(sender, recipient UserID, content string) Message {
	return Message{
		SenderID:    sender,
		RecipientID: recipient,
		Content:     content,
	}
}

// HasContent reports whether the message carries non blank content.
func (m Message) HasContent() bool {
	return strings.TrimSpace(m.Content) != ""
}

// Involves reports whether the message was exchanged between a and b, in either direction.
func (m Message) Involves(a, b UserID) bool {
	return (m.SenderID == a && m.RecipientID == b) || (m.SenderID == b && m.RecipientID == a)
}
