package dto

import (
	"time"

	"sapid/internal/model"
)

type FileRefDTO struct {
	Type           string `json:"type" validate:"required,oneof=image document"`
	TransferMethod string `json:"transfer_method" validate:"required,oneof=remote_url local_file"`
	URL            string `json:"url,omitempty"`
	UploadFileID   string `json:"upload_file_id,omitempty"`
}

type ChatRequestDTO struct {
	Inputs         map[string]interface{} `json:"inputs"`
	Query          string                 `json:"query" validate:"required"`
	ResponseMode   string                 `json:"response_mode" validate:"omitempty,oneof=streaming blocking"`
	ConversationID string                 `json:"conversation_id,omitempty"`
	User           string                 `json:"user" validate:"required"`
	Files          []FileRefDTO           `json:"files,omitempty" validate:"omitempty,dive"`
}

// ToModel converts the DTO into the upstream request shape. The relay only
// serves the streaming pipeline, so the response mode is pinned.
func (d *ChatRequestDTO) ToModel() *model.ChatRequest {
	inputs := d.Inputs
	if inputs == nil {
		inputs = map[string]interface{}{}
	}

	files := make([]model.FileRef, len(d.Files))
	for i, f := range d.Files {
		files[i] = model.FileRef{
			Type:           f.Type,
			TransferMethod: f.TransferMethod,
			URL:            f.URL,
			UploadFileID:   f.UploadFileID,
		}
	}
	if len(files) == 0 {
		files = nil
	}

	return &model.ChatRequest{
		Inputs:         inputs,
		Query:          d.Query,
		ResponseMode:   model.ResponseModeStreaming,
		ConversationID: d.ConversationID,
		User:           d.User,
		Files:          files,
	}
}

type ErrorResponse struct {
	Error string `json:"error"`
}

type HealthResponse struct {
	Status        string    `json:"status"`
	Timestamp     time.Time `json:"timestamp"`
	Version       string    `json:"version,omitempty"`
	DifyConnected bool      `json:"dify_connected,omitempty"`
	Error         string    `json:"error,omitempty"`
}
