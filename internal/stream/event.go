// Package stream decodes an SSE chat stream into semantic events and applies
// a provider-specific vocabulary to each frame.
package stream

import "sapid/internal/model"

// Event is one semantic occurrence in a chat stream. Exactly one of the
// concrete types below is produced per interpreted frame.
type Event interface {
	event()
}

// ContentDelta carries an incremental piece of assistant text. Deltas are
// applied in arrival order by appending; they are never reordered.
type ContentDelta struct {
	Text string
}

// FormDelta carries a dynamic form the assistant wants the user to fill in.
type FormDelta struct {
	Form model.DynamicForm
}

// DocumentReference points at a document the assistant referenced.
type DocumentReference struct {
	DocumentID string
}

// Done marks successful completion. No events follow it.
type Done struct{}

func (ContentDelta) event()      {}
func (FormDelta) event()         {}
func (DocumentReference) event() {}
func (Done) event()              {}
