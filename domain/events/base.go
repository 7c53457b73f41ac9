package events

import (
	"time"

	"github.com/juancgarza/memex/domain/core/valueobjects"
)

// SourceMemex is the event source identifier used on the bus
const SourceMemex = "memex.backend"

// DomainEvent is the base interface for all domain events.
// Events represent something that has happened in the past.
type DomainEvent interface {
	GetAggregateID() string
	GetEventType() string
	GetTimestamp() time.Time
	GetVersion() int
}

// BaseEvent provides common event fields
type BaseEvent struct {
	AggregateID string    `json:"aggregate_id"`
	EventType   string    `json:"event_type"`
	Timestamp   time.Time `json:"timestamp"`
	Version     int       `json:"version"`
}

func (e BaseEvent) GetAggregateID() string  { return e.AggregateID }
func (e BaseEvent) GetEventType() string    { return e.EventType }
func (e BaseEvent) GetTimestamp() time.Time { return e.Timestamp }
func (e BaseEvent) GetVersion() int         { return e.Version }

// Note events

// NoteCreated is raised when a new note is created
type NoteCreated struct {
	BaseEvent
	NoteID     valueobjects.EntityID `json:"note_id"`
	OwnerID    string                `json:"owner_id"`
	Title      string                `json:"title"`
	SourceKind string                `json:"source_kind"`
	LinkTitles []string              `json:"link_titles,omitempty"`
}

// NewNoteCreated creates a NoteCreated event
func NewNoteCreated(noteID valueobjects.EntityID, ownerID, title, sourceKind string, linkTitles []string, timestamp time.Time) NoteCreated {
	return NoteCreated{
		BaseEvent: BaseEvent{
			AggregateID: noteID.String(),
			EventType:   "note.created",
			Timestamp:   timestamp,
			Version:     1,
		},
		NoteID:     noteID,
		OwnerID:    ownerID,
		Title:      title,
		SourceKind: sourceKind,
		LinkTitles: linkTitles,
	}
}

// NoteContentUpdated is raised when note content changes.
// The embedding pipeline listens for this to schedule a refresh.
type NoteContentUpdated struct {
	BaseEvent
	NoteID     valueobjects.EntityID `json:"note_id"`
	OwnerID    string                `json:"owner_id"`
	LinkTitles []string              `json:"link_titles,omitempty"`
}

// NewNoteContentUpdated creates a NoteContentUpdated event
func NewNoteContentUpdated(noteID valueobjects.EntityID, ownerID string, linkTitles []string, timestamp time.Time) NoteContentUpdated {
	return NoteContentUpdated{
		BaseEvent: BaseEvent{
			AggregateID: noteID.String(),
			EventType:   "note.content_updated",
			Timestamp:   timestamp,
			Version:     1,
		},
		NoteID:     noteID,
		OwnerID:    ownerID,
		LinkTitles: linkTitles,
	}
}

// NoteMoved is raised when a note changes position on the canvas
type NoteMoved struct {
	BaseEvent
	NoteID valueobjects.EntityID `json:"note_id"`
}

// NewNoteMoved creates a NoteMoved event
func NewNoteMoved(noteID valueobjects.EntityID, timestamp time.Time) NoteMoved {
	return NoteMoved{
		BaseEvent: BaseEvent{
			AggregateID: noteID.String(),
			EventType:   "note.moved",
			Timestamp:   timestamp,
			Version:     1,
		},
		NoteID: noteID,
	}
}

// NoteDeleted is raised when a note is deleted; edge cleanup cascades from it
type NoteDeleted struct {
	BaseEvent
	NoteID  valueobjects.EntityID `json:"note_id"`
	OwnerID string                `json:"owner_id"`
}

// NewNoteDeleted creates a NoteDeleted event
func NewNoteDeleted(noteID valueobjects.EntityID, ownerID string, timestamp time.Time) NoteDeleted {
	return NoteDeleted{
		BaseEvent: BaseEvent{
			AggregateID: noteID.String(),
			EventType:   "note.deleted",
			Timestamp:   timestamp,
			Version:     1,
		},
		NoteID:  noteID,
		OwnerID: ownerID,
	}
}

// Message events

// MessageAppended is raised when a message is added to a conversation
type MessageAppended struct {
	BaseEvent
	MessageID      valueobjects.EntityID `json:"message_id"`
	ConversationID string                `json:"conversation_id"`
	Role           string                `json:"role"`
}

// NewMessageAppended creates a MessageAppended event
func NewMessageAppended(messageID valueobjects.EntityID, conversationID, role string, timestamp time.Time) MessageAppended {
	return MessageAppended{
		BaseEvent: BaseEvent{
			AggregateID: messageID.String(),
			EventType:   "message.appended",
			Timestamp:   timestamp,
			Version:     1,
		},
		MessageID:      messageID,
		ConversationID: conversationID,
		Role:           role,
	}
}

// Edge events

// EdgeCreated is raised when an edge is persisted
type EdgeCreated struct {
	BaseEvent
	EdgeID   string `json:"edge_id"`
	OwnerID  string `json:"owner_id"`
	SourceID string `json:"source_id"`
	TargetID string `json:"target_id"`
	Label    string `json:"label,omitempty"`
}

// NewEdgeCreated creates an EdgeCreated event
func NewEdgeCreated(edgeID, ownerID, sourceID, targetID, label string, timestamp time.Time) EdgeCreated {
	return EdgeCreated{
		BaseEvent: BaseEvent{
			AggregateID: edgeID,
			EventType:   "edge.created",
			Timestamp:   timestamp,
			Version:     1,
		},
		EdgeID:   edgeID,
		OwnerID:  ownerID,
		SourceID: sourceID,
		TargetID: targetID,
		Label:    label,
	}
}

// EdgesMaterialized is raised after a relatedness result is turned into edges
type EdgesMaterialized struct {
	BaseEvent
	SourceID  string   `json:"source_id"`
	OwnerID   string   `json:"owner_id"`
	EdgeIDs   []string `json:"edge_ids"`
	QueryText string   `json:"query_text,omitempty"`
}

// NewEdgesMaterialized creates an EdgesMaterialized event
func NewEdgesMaterialized(sourceID, ownerID string, edgeIDs []string, timestamp time.Time) EdgesMaterialized {
	return EdgesMaterialized{
		BaseEvent: BaseEvent{
			AggregateID: sourceID,
			EventType:   "edges.materialized",
			Timestamp:   timestamp,
			Version:     1,
		},
		SourceID: sourceID,
		OwnerID:  ownerID,
		EdgeIDs:  edgeIDs,
	}
}

// Embedding pipeline events

// EmbeddingStored is raised when a fresh vector lands for an entity
type EmbeddingStored struct {
	BaseEvent
	EntityID   valueobjects.EntityID `json:"entity_id"`
	Collection string                `json:"collection"`
}

// NewEmbeddingStored creates an EmbeddingStored event
func NewEmbeddingStored(entityID valueobjects.EntityID, collection string, timestamp time.Time) EmbeddingStored {
	return EmbeddingStored{
		BaseEvent: BaseEvent{
			AggregateID: entityID.String(),
			EventType:   "embedding.stored",
			Timestamp:   timestamp,
			Version:     1,
		},
		EntityID:   entityID,
		Collection: collection,
	}
}
