package upstream

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"sapid/internal/model"

	"github.com/rs/zerolog"
)

// StatusError reports a non-success response from the Dify API. The upstream
// error body is logged where the error is created and never carried in the
// message, so it cannot leak to clients.
type StatusError struct {
	Code int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("dify api returned status %d", e.Code)
}

// Client talks to the Dify API. Implementations must not buffer streaming
// response bodies.
type Client interface {
	// StreamChatMessage opens a streaming chat-messages request and returns
	// the raw SSE body. The caller owns the ReadCloser.
	StreamChatMessage(ctx context.Context, req *model.ChatRequest) (io.ReadCloser, error)
	// Ping performs a lightweight probe against the API.
	Ping(ctx context.Context) error
}

type difyClient struct {
	baseURL string
	apiKey  string
	client  *http.Client
	logger  zerolog.Logger
}

func NewDifyClient(baseURL, apiKey string, logger zerolog.Logger) Client {
	return &difyClient{
		baseURL: baseURL,
		apiKey:  apiKey,
		client: &http.Client{
			// No timeout for streaming - rely on context cancellation instead
		},
		logger: logger.With().Str("service", "DifyClient").Logger(),
	}
}

func (c *difyClient) StreamChatMessage(ctx context.Context, chatReq *model.ChatRequest) (io.ReadCloser, error) {
	jsonBody, err := json.Marshal(chatReq)
	if err != nil {
		return nil, fmt.Errorf("marshaling request body: %w", err)
	}

	url := fmt.Sprintf("%s/chat-messages", c.baseURL)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewBuffer(jsonBody))
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}

	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("making request to Dify API: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		bodyBytes, readErr := io.ReadAll(resp.Body)
		_ = resp.Body.Close()

		if readErr != nil {
			c.logger.Warn().Err(readErr).Int("status_code", resp.StatusCode).Msg("Failed to read error body from Dify API")
		} else {
			c.logger.Error().
				Int("status_code", resp.StatusCode).
				Str("error_body", string(bodyBytes)).
				Msg("Dify API returned error")
		}

		return nil, &StatusError{Code: resp.StatusCode}
	}

	return resp.Body, nil
}

func (c *difyClient) Ping(ctx context.Context) error {
	url := fmt.Sprintf("%s/parameters", c.baseURL)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("making request to Dify API: %w", err)
	}
	defer func() {
		if closeErr := resp.Body.Close(); closeErr != nil {
			c.logger.Warn().Err(closeErr).Msg("Failed to close response body")
		}
	}()

	if resp.StatusCode != http.StatusOK {
		return &StatusError{Code: resp.StatusCode}
	}
	return nil
}
