package model

import "time"

const (
	DocumentPermanent = "permanent"
	DocumentTemporary = "temporary"
)

// Document is an uploaded file. Temporary documents are owned by exactly one
// conversation (ConversationID set) and are deleted together with it.
type Document struct {
	ID             string    `json:"id"`
	Name           string    `json:"name"`
	Type           string    `json:"type"`
	Size           int64     `json:"size"`
	UploadedAt     time.Time `json:"uploaded_at"`
	URL            string    `json:"url,omitempty"`
	ConversationID string    `json:"conversation_id,omitempty"`
}
