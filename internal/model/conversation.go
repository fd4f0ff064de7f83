package model

import "time"

// Message positions. The user's messages are rendered on the right.
const (
	PositionRight = "right"
	PositionLeft  = "left"
)

// MessageTypeText is the only message type that contributes to transcripts.
const MessageTypeText = "text"

// Conversation is the owning chat a set of messages belongs to.
type Conversation struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Workspace string    `json:"workspace,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

// Message is a single conversation message.
type Message struct {
	ID             string    `json:"id"`
	ConversationID string    `json:"conversation_id"`
	Position       string    `json:"position"`
	Type           string    `json:"type"`
	Content        string    `json:"content"`
	CreatedAt      time.Time `json:"created_at"`
}
