package model

// ChatRequest is the wire shape accepted by the chat relay and forwarded to
// the Dify chat-messages API.
type ChatRequest struct {
	Inputs         map[string]interface{} `json:"inputs"`
	Query          string                 `json:"query"`
	ResponseMode   string                 `json:"response_mode"`
	ConversationID string                 `json:"conversation_id,omitempty"`
	User           string                 `json:"user"`
	Files          []FileRef              `json:"files,omitempty"`
}

// FileRef attaches an uploaded or remote file to a chat request.
type FileRef struct {
	Type           string `json:"type"`
	TransferMethod string `json:"transfer_method"`
	URL            string `json:"url,omitempty"`
	UploadFileID   string `json:"upload_file_id,omitempty"`
}

const (
	ResponseModeStreaming = "streaming"
	ResponseModeBlocking  = "blocking"
)
