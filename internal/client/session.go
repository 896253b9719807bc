package client

import (
	"time"

	"github.com/google/uuid"
)

// Session identifies one end user to the relay for the lifetime of the app.
// It is an explicit value threaded through calls, never ambient state.
type Session struct {
	ID        string
	CreatedAt time.Time
}

func NewSession() *Session {
	return &Session{
		ID:        "session_" + uuid.NewString(),
		CreatedAt: time.Now().UTC(),
	}
}
