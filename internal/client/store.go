package client

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"sapid/internal/model"

	"github.com/google/uuid"
)

var (
	ErrConversationNotFound = errors.New("conversation not found")
	ErrMessageNotFound      = errors.New("message not found")
	ErrDocumentNotFound     = errors.New("document not found")
)

// Store holds the client-local conversation, message and document state. The
// accumulator is the only writer of message content; views read snapshots.
type Store struct {
	mu            sync.Mutex
	conversations map[string]*model.Conversation
	convOrder     []string
	messages      map[string][]*model.Message
	documents     map[string]*model.Document
	docOrder      []string
}

func NewStore() *Store {
	return &Store{
		conversations: make(map[string]*model.Conversation),
		messages:      make(map[string][]*model.Message),
		documents:     make(map[string]*model.Document),
	}
}

func (s *Store) CreateConversation(title string) *model.Conversation {
	s.mu.Lock()
	defer s.mu.Unlock()

	conv := &model.Conversation{
		ID:        "conv_" + uuid.NewString(),
		Title:     title,
		CreatedAt: time.Now().UTC(),
	}
	s.conversations[conv.ID] = conv
	s.convOrder = append(s.convOrder, conv.ID)
	return conv
}

func (s *Store) Conversations() []model.Conversation {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]model.Conversation, 0, len(s.convOrder))
	for _, id := range s.convOrder {
		out = append(out, *s.conversations[id])
	}
	return out
}

// DeleteConversation removes a conversation, its messages, and every
// temporary document it owns.
func (s *Store) DeleteConversation(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.conversations[id]; !ok {
		return ErrConversationNotFound
	}
	delete(s.conversations, id)
	delete(s.messages, id)
	for i, cid := range s.convOrder {
		if cid == id {
			s.convOrder = append(s.convOrder[:i], s.convOrder[i+1:]...)
			break
		}
	}

	kept := s.docOrder[:0]
	for _, docID := range s.docOrder {
		doc := s.documents[docID]
		if doc.Type == model.DocumentTemporary && doc.ConversationID == id {
			delete(s.documents, docID)
			continue
		}
		kept = append(kept, docID)
	}
	s.docOrder = kept
	return nil
}

// Messages returns a snapshot of a conversation's messages in order.
func (s *Store) Messages(convID string) ([]model.Message, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.conversations[convID]; !ok {
		return nil, ErrConversationNotFound
	}
	msgs := s.messages[convID]
	out := make([]model.Message, len(msgs))
	for i, m := range msgs {
		out[i] = *m
	}
	return out, nil
}

func (s *Store) appendMessage(convID string, msg *model.Message) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	conv, ok := s.conversations[convID]
	if !ok {
		return ErrConversationNotFound
	}
	s.messages[convID] = append(s.messages[convID], msg)
	conv.LastMessage = msg.Content
	return nil
}

// updateMessage applies fn to one message under the store lock.
func (s *Store) updateMessage(convID, msgID string, fn func(*model.Message)) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	conv, ok := s.conversations[convID]
	if !ok {
		return ErrConversationNotFound
	}
	for _, m := range s.messages[convID] {
		if m.ID == msgID {
			fn(m)
			conv.LastMessage = m.Content
			return nil
		}
	}
	return ErrMessageNotFound
}

// UploadDocument records an uploaded document. Temporary documents must name
// the conversation that owns them.
func (s *Store) UploadDocument(name string, size int64, docType, conversationID string) (*model.Document, error) {
	if docType != model.DocumentPermanent && docType != model.DocumentTemporary {
		return nil, fmt.Errorf("unknown document type %q", docType)
	}
	if docType == model.DocumentTemporary && conversationID == "" {
		return nil, errors.New("temporary document requires a conversation")
	}
	if docType == model.DocumentPermanent {
		conversationID = ""
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	doc := &model.Document{
		ID:             "doc_" + uuid.NewString(),
		Name:           name,
		Type:           docType,
		Size:           size,
		UploadedAt:     time.Now().UTC(),
		ConversationID: conversationID,
	}
	s.documents[doc.ID] = doc
	s.docOrder = append(s.docOrder, doc.ID)
	return doc, nil
}

func (s *Store) Documents() []model.Document {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]model.Document, 0, len(s.docOrder))
	for _, id := range s.docOrder {
		out = append(out, *s.documents[id])
	}
	return out
}

func (s *Store) DeleteDocument(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.documents[id]; !ok {
		return ErrDocumentNotFound
	}
	delete(s.documents, id)
	for i, docID := range s.docOrder {
		if docID == id {
			s.docOrder = append(s.docOrder[:i], s.docOrder[i+1:]...)
			break
		}
	}
	return nil
}
