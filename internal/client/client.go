// Package client is the consumer side of the streaming pipeline: it opens
// chat streams against the relay, folds stream events into conversation
// state, and keeps the client-local conversation and document stores.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"

	"sapid/internal/model"
	"sapid/internal/stream"

	"github.com/rs/zerolog"
)

var ErrNoSession = errors.New("no active session")

// ChatOptions describes one conversation turn.
type ChatOptions struct {
	Query            string
	ConversationID   string
	WebSearchEnabled bool
	Files            []model.FileRef
}

// Client talks to the relay endpoints.
type Client struct {
	baseURL string
	client  *http.Client
	logger  zerolog.Logger
}

func New(baseURL string, logger zerolog.Logger) *Client {
	return &Client{
		baseURL: baseURL,
		client: &http.Client{
			// No timeout for streaming - callers bound a turn via ctx
		},
		logger: logger.With().Str("service", "ChatClient").Logger(),
	}
}

// StreamChat opens one chat stream for a turn and returns a reader over its
// events. The caller must Close the reader on every exit path.
func (c *Client) StreamChat(ctx context.Context, sess *Session, opts ChatOptions) (*stream.Reader, error) {
	if sess == nil {
		return nil, ErrNoSession
	}

	chatReq := &model.ChatRequest{
		Inputs: map[string]interface{}{
			"web_search_enabled": opts.WebSearchEnabled,
		},
		Query:          opts.Query,
		ResponseMode:   model.ResponseModeStreaming,
		ConversationID: opts.ConversationID,
		User:           sess.ID,
		Files:          opts.Files,
	}

	jsonBody, err := json.Marshal(chatReq)
	if err != nil {
		return nil, fmt.Errorf("marshaling chat request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/api/chat", bytes.NewBuffer(jsonBody))
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("making chat request: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		bodyBytes, _ := io.ReadAll(resp.Body)
		_ = resp.Body.Close()
		c.logger.Error().
			Int("status_code", resp.StatusCode).
			Str("body", string(bodyBytes)).
			Msg("Chat request rejected by relay")
		return nil, fmt.Errorf("chat request failed with status %d", resp.StatusCode)
	}

	return stream.NewReader(resp.Body, stream.NewDifyInterpreter(c.logger)), nil
}

// CheckHealth reports whether the relay (and through it, the provider) is up.
func (c *Client) CheckHealth(ctx context.Context) bool {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/api/health", nil)
	if err != nil {
		return false
	}
	resp, err := c.client.Do(req)
	if err != nil {
		return false
	}
	defer resp.Body.Close()
	return resp.StatusCode == http.StatusOK
}

// SubmitForm forwards a filled dynamic form. Form handling lives in a
// collaborating backend; the relay itself does not accept submissions yet.
func (c *Client) SubmitForm(ctx context.Context, sess *Session, formID string, data map[string]interface{}) error {
	if sess == nil {
		return ErrNoSession
	}
	c.logger.Info().Str("form_id", formID).Int("fields", len(data)).Msg("Form submission recorded")
	return nil
}
