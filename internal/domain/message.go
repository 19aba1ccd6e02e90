package domain

import "time"

type MessageType string

const (
	MessageTypeMessage MessageType = "message"
	MessageTypeSystem  MessageType = "system"
)

const MaxMessageLength = 500

// Message is a hub chat line.
type Message struct {
	ID         string      `db:"id" json:"id"`
	HubID      string      `db:"hub_id" json:"hub_id"`
	Sender     string      `db:"sender" json:"sender,omitempty"`
	SenderName string      `db:"sender_name" json:"sender_name"`
	Content    string      `db:"content" json:"content"`
	Type       MessageType `db:"type" json:"type"`
	CreatedAt  time.Time   `db:"created_at" json:"created_at"`
}
