package entities

import (
	"time"

	"github.com/juancgarza/memex/domain/core/valueobjects"
	"github.com/juancgarza/memex/domain/events"
	pkgerrors "github.com/juancgarza/memex/pkg/errors"
)

// MessageRole identifies who produced a conversation message
type MessageRole string

const (
	RoleUser      MessageRole = "user"
	RoleAssistant MessageRole = "assistant"
)

// Message is a single turn inside a conversation. Messages are immutable
// after creation: there is no update path, only append and delete-by-cascade.
type Message struct {
	id             valueobjects.EntityID
	conversationID valueobjects.EntityID
	ownerID        string
	role           MessageRole
	text           string
	embedding      valueobjects.Embedding
	createdAt      time.Time

	events []events.DomainEvent
}

// NewMessage creates a message inside an existing conversation
func NewMessage(conversationID valueobjects.EntityID, ownerID string, role MessageRole, text string) (*Message, error) {
	if conversationID.IsZero() {
		return nil, pkgerrors.NewValidationError("conversationID cannot be empty")
	}
	if ownerID == "" {
		return nil, pkgerrors.NewValidationError("ownerID cannot be empty")
	}
	if role != RoleUser && role != RoleAssistant {
		return nil, pkgerrors.NewValidationError("role must be user or assistant")
	}
	if text == "" {
		return nil, pkgerrors.NewValidationError("text cannot be empty")
	}

	now := time.Now()
	msg := &Message{
		id:             valueobjects.NewEntityID(),
		conversationID: conversationID,
		ownerID:        ownerID,
		role:           role,
		text:           text,
		createdAt:      now,
		events:         []events.DomainEvent{},
	}

	msg.addEvent(events.NewMessageAppended(msg.id, conversationID.String(), string(role), now))

	return msg, nil
}

// ReconstructMessage rebuilds a message from repository data. No events are raised.
func ReconstructMessage(
	id, conversationID valueobjects.EntityID,
	ownerID string,
	role MessageRole,
	text string,
	embedding valueobjects.Embedding,
	createdAt time.Time,
) (*Message, error) {
	if ownerID == "" {
		return nil, pkgerrors.NewValidationError("ownerID cannot be empty")
	}
	if text == "" {
		return nil, pkgerrors.NewValidationError("text cannot be empty")
	}

	return &Message{
		id:             id,
		conversationID: conversationID,
		ownerID:        ownerID,
		role:           role,
		text:           text,
		embedding:      embedding,
		createdAt:      createdAt,
		events:         []events.DomainEvent{},
	}, nil
}

func (m *Message) ID() valueobjects.EntityID             { return m.id }
func (m *Message) ConversationID() valueobjects.EntityID { return m.conversationID }
func (m *Message) OwnerID() string                       { return m.ownerID }
func (m *Message) Role() MessageRole                     { return m.role }
func (m *Message) Text() string                          { return m.text }
func (m *Message) CreatedAt() time.Time                  { return m.createdAt }

// Embedding returns the last persisted vector for this message
func (m *Message) Embedding() valueobjects.Embedding {
	return m.embedding
}

// SetEmbedding records a freshly computed vector. Last write wins.
func (m *Message) SetEmbedding(embedding valueobjects.Embedding) {
	m.embedding = embedding
}

// GetUncommittedEvents returns all uncommitted domain events
func (m *Message) GetUncommittedEvents() []events.DomainEvent {
	return m.events
}

// MarkEventsAsCommitted clears the uncommitted events
func (m *Message) MarkEventsAsCommitted() {
	m.events = []events.DomainEvent{}
}

func (m *Message) addEvent(event events.DomainEvent) {
	m.events = append(m.events, event)
}
