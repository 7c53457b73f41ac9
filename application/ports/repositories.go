package ports

import (
	"context"
	"time"

	"github.com/juancgarza/memex/domain/core/aggregates"
	"github.com/juancgarza/memex/domain/core/entities"
	"github.com/juancgarza/memex/domain/core/valueobjects"
	"github.com/juancgarza/memex/domain/events"
)

// NoteRepository defines the interface for note persistence.
// This is a port in hexagonal architecture - the domain doesn't know about the implementation.
//
// Owner-checked lookups return not-found both when the note does not exist
// and when it belongs to a different owner; callers cannot tell the two apart.
type NoteRepository interface {
	// Save persists a note (create or update)
	Save(ctx context.Context, note *entities.Note) error

	// GetByID retrieves a note owned by the given user
	GetByID(ctx context.Context, ownerID string, id valueobjects.EntityID) (*entities.Note, error)

	// GetByOwnerID retrieves all notes for an owner
	GetByOwnerID(ctx context.Context, ownerID string) ([]*entities.Note, error)

	// FindByTitle retrieves notes whose title matches exactly, case-insensitively
	FindByTitle(ctx context.Context, ownerID, title string) ([]*entities.Note, error)

	// FindByTitleContains retrieves notes whose title contains the fragment,
	// case-insensitively, up to limit, in creation order
	FindByTitleContains(ctx context.Context, ownerID, fragment string, limit int) ([]*entities.Note, error)

	// Delete removes a note owned by the given user
	Delete(ctx context.Context, ownerID string, id valueobjects.EntityID) error
}

// MessageRepository defines the interface for message persistence
type MessageRepository interface {
	// Save persists a message
	Save(ctx context.Context, message *entities.Message) error

	// GetByID retrieves a message owned by the given user
	GetByID(ctx context.Context, ownerID string, id valueobjects.EntityID) (*entities.Message, error)

	// GetByConversationID retrieves all messages of a conversation in append order
	GetByConversationID(ctx context.Context, ownerID string, conversationID valueobjects.EntityID) ([]*entities.Message, error)

	// DeleteByConversationID removes all messages of a conversation
	DeleteByConversationID(ctx context.Context, ownerID string, conversationID valueobjects.EntityID) error
}

// ConversationRepository defines the interface for conversation persistence
type ConversationRepository interface {
	// Save persists a conversation (create or update)
	Save(ctx context.Context, conversation *aggregates.Conversation) error

	// GetByID retrieves a conversation owned by the given user
	GetByID(ctx context.Context, ownerID string, id valueobjects.EntityID) (*aggregates.Conversation, error)

	// GetByOwnerID retrieves all conversations for an owner
	GetByOwnerID(ctx context.Context, ownerID string) ([]*aggregates.Conversation, error)

	// Delete removes a conversation; messages cascade separately
	Delete(ctx context.Context, ownerID string, id valueobjects.EntityID) error
}

// EdgeRepository defines the interface for edge persistence.
// Edges are append-style records: duplicates between the same pair are
// allowed and each carries its own identity.
type EdgeRepository interface {
	// Save persists an edge
	Save(ctx context.Context, edge *aggregates.Edge) error

	// SaveBatch persists multiple edges
	SaveBatch(ctx context.Context, edges []*aggregates.Edge) error

	// GetByID retrieves an edge owned by the given user
	GetByID(ctx context.Context, ownerID string, id valueobjects.EntityID) (*aggregates.Edge, error)

	// GetByOwnerID retrieves all edges for an owner
	GetByOwnerID(ctx context.Context, ownerID string) ([]*aggregates.Edge, error)

	// GetByEntityID retrieves all edges touching the entity on either end
	GetByEntityID(ctx context.Context, ownerID string, entityID valueobjects.EntityID) ([]*aggregates.Edge, error)

	// GetByTargetID retrieves all edges pointing at the entity
	GetByTargetID(ctx context.Context, ownerID string, targetID valueobjects.EntityID) ([]*aggregates.Edge, error)

	// Delete removes an edge owned by the given user
	Delete(ctx context.Context, ownerID string, id valueobjects.EntityID) error

	// DeleteByEntityID removes every edge touching the entity on either end.
	// Called when a note or message is deleted.
	DeleteByEntityID(ctx context.Context, ownerID string, entityID valueobjects.EntityID) (int, error)
}

// EmbeddingJobStatus tracks the lifecycle of a queued embedding refresh
type EmbeddingJobStatus string

const (
	EmbeddingJobPending   EmbeddingJobStatus = "PENDING"
	EmbeddingJobDone      EmbeddingJobStatus = "DONE"
	EmbeddingJobFailed    EmbeddingJobStatus = "FAILED"
	EmbeddingJobSkipped   EmbeddingJobStatus = "SKIPPED"
	EmbeddingJobExhausted EmbeddingJobStatus = "EXHAUSTED"
)

// EmbeddingJob is one queued embedding refresh for an entity. Jobs are
// processed at least once; the vector write is idempotent so replays are
// harmless.
type EmbeddingJob struct {
	JobID      string
	OwnerID    string
	EntityID   string
	Collection string
	Attempts   int
	Status     EmbeddingJobStatus
	LastError  string
	EnqueuedAt time.Time
	UpdatedAt  time.Time
}

// EmbeddingJobStore is the outbox for deferred embedding refreshes
type EmbeddingJobStore interface {
	// Enqueue records a pending refresh for an entity
	Enqueue(ctx context.Context, job *EmbeddingJob) error

	// GetPending returns up to limit pending jobs, oldest first
	GetPending(ctx context.Context, limit int) ([]*EmbeddingJob, error)

	// MarkDone marks a job completed
	MarkDone(ctx context.Context, jobID string) error

	// MarkSkipped marks a job whose entity vanished before processing
	MarkSkipped(ctx context.Context, jobID string) error

	// MarkFailed records a failed attempt; the job stays pending until
	// attempts reach the configured maximum, then becomes exhausted
	MarkFailed(ctx context.Context, jobID string, attempts int, lastError string, exhausted bool) error
}

// EventPublisher defines the interface for publishing domain events
type EventPublisher interface {
	// Publish sends a single event
	Publish(ctx context.Context, event events.DomainEvent) error

	// PublishBatch sends multiple events
	PublishBatch(ctx context.Context, events []events.DomainEvent) error
}

// EventHandler defines the interface for handling domain events
type EventHandler interface {
	// Handle processes an event
	Handle(ctx context.Context, event events.DomainEvent) error

	// CanHandle checks if this handler can process the event
	CanHandle(eventType string) bool
}

// EventBus defines the interface for publishing and subscribing to domain events
type EventBus interface {
	EventPublisher

	// Subscribe registers a handler for an event type
	Subscribe(eventType string, handler EventHandler) error

	// Unsubscribe removes a handler
	Unsubscribe(eventType string, handler EventHandler) error
}

// Cache defines the interface for caching
type Cache interface {
	// Get retrieves a value from cache
	Get(ctx context.Context, key string) (interface{}, bool)

	// Set stores a value in cache with TTL in seconds
	Set(ctx context.Context, key string, value interface{}, ttl int) error

	// Delete removes a value from cache
	Delete(ctx context.Context, key string) error

	// Clear removes all values from cache
	Clear(ctx context.Context) error
}
