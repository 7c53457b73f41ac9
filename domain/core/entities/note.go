package entities

import (
	"time"

	"github.com/juancgarza/memex/domain/core/valueobjects"
	"github.com/juancgarza/memex/domain/events"
	"github.com/juancgarza/memex/domain/wikilink"
	pkgerrors "github.com/juancgarza/memex/pkg/errors"
)

// SourceKind records how a note's content entered the system
type SourceKind string

const (
	SourceManual      SourceKind = "manual"
	SourceVoice       SourceKind = "voice"
	SourceChat        SourceKind = "chat"
	SourceAIExtracted SourceKind = "ai-extracted"
	SourceWeb         SourceKind = "web"
	SourceYouTube     SourceKind = "youtube"
	SourceReadwise    SourceKind = "readwise"
)

// Provenance captures the optional origin of a note
type Provenance struct {
	Kind      SourceKind
	SourceRef string
	ParentID  valueobjects.EntityID
}

// Note is the main entity representing a canvas knowledge unit.
// This is a rich domain model with encapsulated business logic.
type Note struct {
	// Private fields ensure encapsulation
	id         valueobjects.EntityID
	ownerID    string
	content    valueobjects.NoteContent
	position   valueobjects.Position
	provenance Provenance
	linkTitles []string
	embedding  valueobjects.Embedding
	createdAt  time.Time
	updatedAt  time.Time
	version    int

	// Domain events that occurred during this aggregate's lifetime
	events []events.DomainEvent
}

// NewNote creates a new note with full business rule validation
func NewNote(ownerID string, content valueobjects.NoteContent, position valueobjects.Position, provenance Provenance) (*Note, error) {
	if ownerID == "" {
		return nil, pkgerrors.NewValidationError("ownerID cannot be empty")
	}
	if content.IsEmpty() {
		return nil, pkgerrors.NewValidationError("content cannot be empty")
	}
	if provenance.Kind == "" {
		provenance.Kind = SourceManual
	}
	if !isValidSourceKind(provenance.Kind) {
		return nil, pkgerrors.NewValidationError("invalid source kind")
	}

	now := time.Now()
	note := &Note{
		id:         valueobjects.NewEntityID(),
		ownerID:    ownerID,
		content:    content,
		position:   position,
		provenance: provenance,
		linkTitles: wikilink.Titles(content.Body()),
		createdAt:  now,
		updatedAt:  now,
		version:    1,
		events:     []events.DomainEvent{},
	}

	note.addEvent(events.NewNoteCreated(
		note.id,
		ownerID,
		content.Title(),
		string(provenance.Kind),
		note.LinkTitles(),
		now,
	))

	return note, nil
}

// ReconstructNote rebuilds a note from repository data with preserved timestamps.
// No events are raised.
func ReconstructNote(
	id valueobjects.EntityID,
	ownerID string,
	content valueobjects.NoteContent,
	position valueobjects.Position,
	provenance Provenance,
	embedding valueobjects.Embedding,
	createdAt, updatedAt time.Time,
	version int,
) (*Note, error) {
	if ownerID == "" {
		return nil, pkgerrors.NewValidationError("ownerID cannot be empty")
	}
	if content.IsEmpty() {
		return nil, pkgerrors.NewValidationError("content cannot be empty")
	}
	if version < 1 {
		version = 1
	}

	return &Note{
		id:         id,
		ownerID:    ownerID,
		content:    content,
		position:   position,
		provenance: provenance,
		linkTitles: wikilink.Titles(content.Body()),
		embedding:  embedding,
		createdAt:  createdAt,
		updatedAt:  updatedAt,
		version:    version,
		events:     []events.DomainEvent{},
	}, nil
}

// ID returns the note's unique identifier
func (n *Note) ID() valueobjects.EntityID {
	return n.id
}

// OwnerID returns the owner's ID
func (n *Note) OwnerID() string {
	return n.ownerID
}

// Content returns the note's content
func (n *Note) Content() valueobjects.NoteContent {
	return n.content
}

// Position returns the note's canvas placement
func (n *Note) Position() valueobjects.Position {
	return n.position
}

// Provenance returns how the note's content entered the system
func (n *Note) Provenance() Provenance {
	return n.provenance
}

// Embedding returns the last persisted vector for this note.
// The embedding may lag the content: a mutation only schedules a refresh.
func (n *Note) Embedding() valueobjects.Embedding {
	return n.embedding
}

// Version returns the note's version, bumped on every content change
func (n *Note) Version() int {
	return n.version
}

// LinkTitles returns the outgoing wiki-link targets found in the body
func (n *Note) LinkTitles() []string {
	titles := make([]string, len(n.linkTitles))
	copy(titles, n.linkTitles)
	return titles
}

// UpdateContent updates the note's content with validation.
// The persisted embedding becomes stale until the refresh job lands.
func (n *Note) UpdateContent(content valueobjects.NoteContent) error {
	if content.IsEmpty() {
		return pkgerrors.NewValidationError("content cannot be empty")
	}

	if content.Equals(n.content) {
		return nil // No change needed
	}

	n.content = content
	n.linkTitles = wikilink.Titles(content.Body())
	n.updatedAt = time.Now()
	n.version++

	n.addEvent(events.NewNoteContentUpdated(n.id, n.ownerID, n.LinkTitles(), n.updatedAt))

	return nil
}

// MoveTo moves the note to a new canvas position
func (n *Note) MoveTo(position valueobjects.Position) error {
	if position.Equals(n.position) {
		return nil // No movement needed
	}

	n.position = position
	n.updatedAt = time.Now()

	n.addEvent(events.NewNoteMoved(n.id, n.updatedAt))

	return nil
}

// SetEmbedding records a freshly computed vector. Last write wins.
func (n *Note) SetEmbedding(embedding valueobjects.Embedding) {
	n.embedding = embedding
}

// CreatedAt returns when the note was created
func (n *Note) CreatedAt() time.Time {
	return n.createdAt
}

// UpdatedAt returns when the note was last updated
func (n *Note) UpdatedAt() time.Time {
	return n.updatedAt
}

// GetUncommittedEvents returns all uncommitted domain events
func (n *Note) GetUncommittedEvents() []events.DomainEvent {
	return n.events
}

// MarkEventsAsCommitted clears the uncommitted events
func (n *Note) MarkEventsAsCommitted() {
	n.events = []events.DomainEvent{}
}

func (n *Note) addEvent(event events.DomainEvent) {
	n.events = append(n.events, event)
}

func isValidSourceKind(kind SourceKind) bool {
	switch kind {
	case SourceManual, SourceVoice, SourceChat, SourceAIExtracted, SourceWeb, SourceYouTube, SourceReadwise:
		return true
	default:
		return false
	}
}
