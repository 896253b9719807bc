package client_test

import (
	"context"
	"errors"
	"io"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"sapid/internal/client"
	"sapid/internal/model"
	"sapid/internal/stream"
)

const apology = "Sorry, I encountered an error. Please try again."

// scriptedBody replays fixed chunks, then EOF or a scripted error.
type scriptedBody struct {
	chunks [][]byte
	err    error
	i      int
	closed bool
}

func (b *scriptedBody) Read(p []byte) (int, error) {
	if b.i < len(b.chunks) {
		n := copy(p, b.chunks[b.i])
		b.i++
		return n, nil
	}
	if b.err != nil {
		return 0, b.err
	}
	return 0, io.EOF
}

func (b *scriptedBody) Close() error {
	b.closed = true
	return nil
}

// scriptedStreamer hands out readers over scripted SSE bytes.
type scriptedStreamer struct {
	chunks  []string
	readErr error
	openErr error
	body    *scriptedBody
	opens   int
}

func (s *scriptedStreamer) StreamChat(ctx context.Context, sess *client.Session, opts client.ChatOptions) (*stream.Reader, error) {
	s.opens++
	if s.openErr != nil {
		return nil, s.openErr
	}
	s.body = &scriptedBody{err: s.readErr}
	for _, c := range s.chunks {
		s.body.chunks = append(s.body.chunks, []byte(c))
	}
	return stream.NewReader(s.body, stream.NewDifyInterpreter(zerolog.Nop())), nil
}

func setup(streamer client.ChatStreamer) (*client.Accumulator, *client.Store, *model.Conversation, *client.Session) {
	store := client.NewStore()
	conv := store.CreateConversation("Test")
	acc := client.NewAccumulator(store, streamer, zerolog.Nop())
	return acc, store, conv, client.NewSession()
}

func TestAccumulator_SuccessfulTurn(t *testing.T) {
	streamer := &scriptedStreamer{chunks: []string{
		"data: {\"event\":\"message\",\"answer\":\"I'll prepare \"}\n\n",
		"data: {\"event\":\"form\",\"form_data\":{\"id\":\"f1\",\"title\":\"Purchase\",\"fields\":[{\"name\":\"item\",\"type\":\"text\",\"label\":\"Item\"}]}}\n\n",
		"data: {\"event\":\"agent_message\",\"answer\":\"a form for you.\"}\n\n",
		"data: {\"event\":\"document_reference\",\"document_id\":\"doc1\"}\n\n",
		"data: [DONE]\n\n",
	}}
	acc, store, conv, sess := setup(streamer)

	final, err := acc.SendMessage(context.Background(), sess, conv.ID, "make a form", client.SendOptions{})
	require.NoError(t, err)
	require.NotNil(t, final)

	assert.Equal(t, "I'll prepare a form for you.", final.Content)
	assert.False(t, final.IsStreaming)
	require.Len(t, final.Forms, 1)
	assert.Equal(t, "f1", final.Forms[0].ID)
	require.Len(t, final.Documents, 1)
	assert.Equal(t, "doc1", final.Documents[0].ID)

	msgs, err := store.Messages(conv.ID)
	require.NoError(t, err)
	require.Len(t, msgs, 2)
	assert.Equal(t, model.RoleUser, msgs[0].Role)
	assert.Equal(t, "make a form", msgs[0].Content)
	assert.False(t, msgs[0].IsStreaming)
	assert.Equal(t, model.RoleAssistant, msgs[1].Role)

	assert.Equal(t, 1, streamer.opens, "exactly one stream per turn")
	assert.True(t, streamer.body.closed, "reader must be closed")
	assert.False(t, acc.IsStreaming(conv.ID))
}

func TestAccumulator_MidStreamFailureReplacesContent(t *testing.T) {
	streamer := &scriptedStreamer{
		chunks: []string{
			"data: {\"event\":\"message\",\"answer\":\"partial \"}\n\n",
			"data: {\"event\":\"message\",\"answer\":\"answer\"}\n\n",
		},
		readErr: errors.New("connection reset"),
	}
	acc, store, conv, sess := setup(streamer)

	final, err := acc.SendMessage(context.Background(), sess, conv.ID, "hello", client.SendOptions{})
	require.Error(t, err)
	require.NotNil(t, final)

	// Partial deltas are replaced wholesale, never left behind.
	assert.Equal(t, apology, final.Content)
	assert.False(t, final.IsStreaming)

	msgs, storeErr := store.Messages(conv.ID)
	require.NoError(t, storeErr)
	require.Len(t, msgs, 2)
	assert.Equal(t, apology, msgs[1].Content)
	assert.False(t, msgs[1].IsStreaming, "a message is never left streaming")
	assert.True(t, streamer.body.closed)
}

func TestAccumulator_OpenFailure(t *testing.T) {
	streamer := &scriptedStreamer{openErr: errors.New("relay returned status 500")}
	acc, _, conv, sess := setup(streamer)

	final, err := acc.SendMessage(context.Background(), sess, conv.ID, "hello", client.SendOptions{})
	require.Error(t, err)
	require.NotNil(t, final)
	assert.Equal(t, apology, final.Content)
	assert.False(t, final.IsStreaming)
}

func TestAccumulator_UnknownConversation(t *testing.T) {
	acc, _, _, sess := setup(&scriptedStreamer{})
	_, err := acc.SendMessage(context.Background(), sess, "missing", "hello", client.SendOptions{})
	assert.ErrorIs(t, err, client.ErrConversationNotFound)
}

// blockingStreamer holds the turn open until released.
type blockingStreamer struct {
	started chan struct{}
	release chan struct{}
}

func (s *blockingStreamer) StreamChat(ctx context.Context, sess *client.Session, opts client.ChatOptions) (*stream.Reader, error) {
	close(s.started)
	<-s.release
	return nil, errors.New("aborted")
}

func TestAccumulator_RejectsReentrantTurn(t *testing.T) {
	streamer := &blockingStreamer{started: make(chan struct{}), release: make(chan struct{})}
	acc, _, conv, sess := setup(streamer)

	done := make(chan struct{})
	go func() {
		defer close(done)
		_, _ = acc.SendMessage(context.Background(), sess, conv.ID, "first", client.SendOptions{})
	}()

	<-streamer.started
	assert.True(t, acc.IsStreaming(conv.ID))

	_, err := acc.SendMessage(context.Background(), sess, conv.ID, "second", client.SendOptions{})
	assert.ErrorIs(t, err, client.ErrTurnInFlight)

	close(streamer.release)
	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("first turn never finished")
	}
	assert.False(t, acc.IsStreaming(conv.ID))
}

func TestAccumulator_ReplayProducesIdenticalContent(t *testing.T) {
	chunks := []string{
		"data: {\"event\":\"message\",\"answer\":\"a\"}\n\n",
		"data: {\"event\":\"message\",\"answer\":\"b\"}\n\n",
		"data: {\"event\":\"message\",\"answer\":\"c\"}\n\n",
		"data: [DONE]\n\n",
	}

	run := func() string {
		acc, _, conv, sess := setup(&scriptedStreamer{chunks: chunks})
		final, err := acc.SendMessage(context.Background(), sess, conv.ID, "q", client.SendOptions{})
		require.NoError(t, err)
		return final.Content
	}

	first := run()
	assert.Equal(t, "abc", first)
	assert.Equal(t, first, run())
}
