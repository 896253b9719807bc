package model

import "time"

const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// Message is one entry in a conversation. While a response is streaming the
// assistant message is a mutable placeholder: Content grows by appending
// deltas in arrival order and IsStreaming stays true until the stream ends.
type Message struct {
	ID          string              `json:"id"`
	Role        string              `json:"role"`
	Content     string              `json:"content"`
	Timestamp   time.Time           `json:"timestamp"`
	IsStreaming bool                `json:"is_streaming"`
	Documents   []DocumentReference `json:"documents,omitempty"`
	Forms       []DynamicForm       `json:"forms,omitempty"`
}

// DocumentReference points at a document mentioned by an assistant message.
type DocumentReference struct {
	ID   string `json:"id"`
	Name string `json:"name,omitempty"`
	URL  string `json:"url,omitempty"`
}

// Conversation groups messages. Messages belong to exactly one conversation.
type Conversation struct {
	ID          string    `json:"id"`
	Title       string    `json:"title"`
	CreatedAt   time.Time `json:"created_at"`
	LastMessage string    `json:"last_message,omitempty"`
}
