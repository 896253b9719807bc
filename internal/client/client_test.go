package client_test

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"sapid/internal/client"
	"sapid/internal/model"
	"sapid/internal/stream"
)

func TestClient_StreamChat(t *testing.T) {
	var gotReq model.ChatRequest

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/api/chat", r.URL.Path)
		require.NoError(t, json.NewDecoder(r.Body).Decode(&gotReq))

		w.Header().Set("Content-Type", "text/event-stream")
		_, _ = w.Write([]byte("data: {\"event\":\"message\",\"answer\":\"Hi \"}\n\n"))
		_, _ = w.Write([]byte("data: {\"event\":\"message\",\"answer\":\"there\"}\n\n"))
		_, _ = w.Write([]byte("data: [DONE]\n\n"))
	}))
	defer srv.Close()

	c := client.New(srv.URL, zerolog.Nop())
	sess := client.NewSession()

	reader, err := c.StreamChat(context.Background(), sess, client.ChatOptions{
		Query:            "hello",
		ConversationID:   "conv1",
		WebSearchEnabled: true,
	})
	require.NoError(t, err)
	defer reader.Close()

	var content string
	for {
		ev, err := reader.Next()
		if err == io.EOF {
			break
		}
		require.NoError(t, err)
		if d, ok := ev.(stream.ContentDelta); ok {
			content += d.Text
		}
	}
	assert.Equal(t, "Hi there", content)

	// The wire request carries the session as user and the web-search flag
	// inside the inputs bag.
	assert.Equal(t, "hello", gotReq.Query)
	assert.Equal(t, sess.ID, gotReq.User)
	assert.Equal(t, "conv1", gotReq.ConversationID)
	assert.Equal(t, model.ResponseModeStreaming, gotReq.ResponseMode)
	assert.Equal(t, true, gotReq.Inputs["web_search_enabled"])
}

func TestClient_StreamChatRequiresSession(t *testing.T) {
	c := client.New("http://localhost:9999", zerolog.Nop())
	_, err := c.StreamChat(context.Background(), nil, client.ChatOptions{Query: "q"})
	assert.ErrorIs(t, err, client.ErrNoSession)
}

func TestClient_StreamChatRelayError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"error":"Failed to communicate with Dify API"}`, http.StatusBadGateway)
	}))
	defer srv.Close()

	c := client.New(srv.URL, zerolog.Nop())
	_, err := c.StreamChat(context.Background(), client.NewSession(), client.ChatOptions{Query: "q"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "502")
}

func TestClient_CheckHealth(t *testing.T) {
	t.Run("healthy", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			require.Equal(t, "/api/health", r.URL.Path)
			w.WriteHeader(http.StatusOK)
		}))
		defer srv.Close()
		assert.True(t, client.New(srv.URL, zerolog.Nop()).CheckHealth(context.Background()))
	})

	t.Run("unhealthy", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusServiceUnavailable)
		}))
		defer srv.Close()
		assert.False(t, client.New(srv.URL, zerolog.Nop()).CheckHealth(context.Background()))
	})

	t.Run("unreachable", func(t *testing.T) {
		assert.False(t, client.New("http://127.0.0.1:1", zerolog.Nop()).CheckHealth(context.Background()))
	})
}

func TestNewSession(t *testing.T) {
	a, b := client.NewSession(), client.NewSession()
	assert.NotEmpty(t, a.ID)
	assert.NotEqual(t, a.ID, b.ID)
	assert.False(t, a.CreatedAt.IsZero())
}
