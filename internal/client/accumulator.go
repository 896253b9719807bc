package client

import (
	"context"
	"errors"
	"io"
	"sync"
	"time"

	"sapid/internal/model"
	"sapid/internal/stream"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// apologyMessage replaces partial assistant content when a stream fails.
const apologyMessage = "Sorry, I encountered an error. Please try again."

var ErrTurnInFlight = errors.New("a stream is already open for this conversation")

// ChatStreamer opens exactly one event stream per conversation turn.
type ChatStreamer interface {
	StreamChat(ctx context.Context, sess *Session, opts ChatOptions) (*stream.Reader, error)
}

// Accumulator folds stream events into conversation state. For each turn it
// appends the finalized user message and a streaming assistant placeholder,
// then applies events in arrival order: content deltas append to the
// placeholder, forms and document references accumulate, Done finalizes. On
// any failure the placeholder content is replaced with a fixed apology and
// the streaming flag cleared - a message is never left streaming.
type Accumulator struct {
	store    *Store
	streamer ChatStreamer
	logger   zerolog.Logger

	mu       sync.Mutex
	inflight map[string]bool
}

func NewAccumulator(store *Store, streamer ChatStreamer, logger zerolog.Logger) *Accumulator {
	return &Accumulator{
		store:    store,
		streamer: streamer,
		logger:   logger.With().Str("service", "Accumulator").Logger(),
		inflight: make(map[string]bool),
	}
}

// SendOptions tunes one turn.
type SendOptions struct {
	WebSearchEnabled bool
	Files            []model.FileRef
}

// SendMessage runs one conversation turn to completion and returns the final
// assistant message. A non-nil error reports why the turn failed; the
// returned message is already finalized either way.
func (a *Accumulator) SendMessage(ctx context.Context, sess *Session, convID, content string, opts SendOptions) (*model.Message, error) {
	if err := a.beginTurn(convID); err != nil {
		return nil, err
	}
	defer a.endTurn(convID)

	userMsg := &model.Message{
		ID:        uuid.NewString(),
		Role:      model.RoleUser,
		Content:   content,
		Timestamp: time.Now().UTC(),
	}
	if err := a.store.appendMessage(convID, userMsg); err != nil {
		return nil, err
	}

	placeholder := &model.Message{
		ID:          uuid.NewString(),
		Role:        model.RoleAssistant,
		Content:     "",
		Timestamp:   time.Now().UTC(),
		IsStreaming: true,
	}
	if err := a.store.appendMessage(convID, placeholder); err != nil {
		return nil, err
	}

	reader, err := a.streamer.StreamChat(ctx, sess, ChatOptions{
		Query:            content,
		ConversationID:   convID,
		WebSearchEnabled: opts.WebSearchEnabled,
		Files:            opts.Files,
	})
	if err != nil {
		a.fail(convID, placeholder.ID, err)
		return a.finalMessage(convID, placeholder.ID), err
	}
	defer func() {
		if closeErr := reader.Close(); closeErr != nil {
			a.logger.Warn().Err(closeErr).Msg("Failed to close stream reader")
		}
	}()

	var (
		forms []model.DynamicForm
		docs  []model.DocumentReference
	)

	for {
		ev, err := reader.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			a.fail(convID, placeholder.ID, err)
			return a.finalMessage(convID, placeholder.ID), err
		}

		switch e := ev.(type) {
		case stream.ContentDelta:
			_ = a.store.updateMessage(convID, placeholder.ID, func(m *model.Message) {
				m.Content += e.Text
			})
		case stream.FormDelta:
			forms = append(forms, e.Form)
		case stream.DocumentReference:
			docs = append(docs, model.DocumentReference{ID: e.DocumentID})
		case stream.Done:
			// Next returns io.EOF on the following call; nothing to do here.
		}
	}

	_ = a.store.updateMessage(convID, placeholder.ID, func(m *model.Message) {
		m.IsStreaming = false
		m.Forms = forms
		m.Documents = docs
	})
	return a.finalMessage(convID, placeholder.ID), nil
}

// IsStreaming reports whether a turn is open for the conversation, for
// callers that gate reentrant submission.
func (a *Accumulator) IsStreaming(convID string) bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.inflight[convID]
}

func (a *Accumulator) beginTurn(convID string) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.inflight[convID] {
		return ErrTurnInFlight
	}
	a.inflight[convID] = true
	return nil
}

func (a *Accumulator) endTurn(convID string) {
	a.mu.Lock()
	defer a.mu.Unlock()
	delete(a.inflight, convID)
}

func (a *Accumulator) fail(convID, msgID string, cause error) {
	a.logger.Error().Err(cause).Str("conversation_id", convID).Msg("Chat stream failed")
	_ = a.store.updateMessage(convID, msgID, func(m *model.Message) {
		m.Content = apologyMessage
		m.IsStreaming = false
	})
}

func (a *Accumulator) finalMessage(convID, msgID string) *model.Message {
	msgs, err := a.store.Messages(convID)
	if err != nil {
		return nil
	}
	for i := range msgs {
		if msgs[i].ID == msgID {
			return &msgs[i]
		}
	}
	return nil
}
