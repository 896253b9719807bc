package stream

import (
	"encoding/json"

	"sapid/internal/model"

	"github.com/rs/zerolog"
)

// DoneSentinel is the reserved non-JSON payload that ends a stream.
const DoneSentinel = "[DONE]"

// Interpreter maps one decoded frame onto an Event. It never fails: a frame
// that carries nothing for the consumer reports ok=false and is dropped.
// Supporting another upstream provider means supplying another Interpreter;
// the decoder and the accumulator stay unchanged.
type Interpreter interface {
	Interpret(frame string) (ev Event, ok bool)
}

// difyFrame is the provider payload shape. The event field discriminates.
type difyFrame struct {
	Event      string             `json:"event"`
	Answer     string             `json:"answer"`
	FormData   *model.DynamicForm `json:"form_data"`
	DocumentID string             `json:"document_id"`
}

// DifyInterpreter implements the Dify chat-messages vocabulary.
type DifyInterpreter struct {
	logger zerolog.Logger
}

func NewDifyInterpreter(logger zerolog.Logger) *DifyInterpreter {
	return &DifyInterpreter{logger: logger.With().Str("service", "DifyInterpreter").Logger()}
}

func (in *DifyInterpreter) Interpret(frame string) (Event, bool) {
	if frame == DoneSentinel {
		return Done{}, true
	}

	var payload difyFrame
	if err := json.Unmarshal([]byte(frame), &payload); err != nil {
		in.logger.Warn().Str("frame", frame).Msg("Dropping unparseable SSE frame")
		return nil, false
	}

	switch payload.Event {
	case "message", "agent_message":
		if payload.Answer == "" {
			return nil, false
		}
		return ContentDelta{Text: payload.Answer}, true
	case "form":
		if payload.FormData == nil {
			return nil, false
		}
		if err := payload.FormData.Validate(); err != nil {
			in.logger.Warn().Err(err).Str("form_id", payload.FormData.ID).Msg("Dropping invalid form event")
			return nil, false
		}
		return FormDelta{Form: *payload.FormData}, true
	case "document_reference":
		if payload.DocumentID == "" {
			return nil, false
		}
		return DocumentReference{DocumentID: payload.DocumentID}, true
	case "message_end":
		return Done{}, true
	default:
		return nil, false
	}
}
