// Package memory provides in-memory repository implementations backing unit
// tests and local development. Semantics mirror the DynamoDB repositories,
// including the owner-scoped not-found behavior.
package memory

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/juancgarza/memex/application/ports"
	"github.com/juancgarza/memex/domain/core/aggregates"
	"github.com/juancgarza/memex/domain/core/entities"
	"github.com/juancgarza/memex/domain/core/valueobjects"
	pkgerrors "github.com/juancgarza/memex/pkg/errors"
)

// NoteRepository is an in-memory ports.NoteRepository
type NoteRepository struct {
	mu    sync.RWMutex
	notes map[string]*entities.Note // keyed by note id
	order []string                  // creation order
}

// NewNoteRepository creates an empty in-memory note repository
func NewNoteRepository() *NoteRepository {
	return &NoteRepository{notes: make(map[string]*entities.Note)}
}

// Save persists a note, create or update
func (r *NoteRepository) Save(ctx context.Context, note *entities.Note) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	key := note.ID().String()
	if _, exists := r.notes[key]; !exists {
		r.order = append(r.order, key)
	}
	r.notes[key] = note
	return nil
}

// GetByID retrieves a note owned by the given user
func (r *NoteRepository) GetByID(ctx context.Context, ownerID string, id valueobjects.EntityID) (*entities.Note, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	note, exists := r.notes[id.String()]
	if !exists || note.OwnerID() != ownerID {
		return nil, pkgerrors.NewNotFoundError("note")
	}
	return note, nil
}

// GetByOwnerID retrieves all notes for an owner in creation order
func (r *NoteRepository) GetByOwnerID(ctx context.Context, ownerID string) ([]*entities.Note, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	notes := []*entities.Note{}
	for _, key := range r.order {
		note, exists := r.notes[key]
		if exists && note.OwnerID() == ownerID {
			notes = append(notes, note)
		}
	}
	return notes, nil
}

// FindByTitle retrieves notes with an exact case-insensitive title match
func (r *NoteRepository) FindByTitle(ctx context.Context, ownerID, title string) ([]*entities.Note, error) {
	notes, _ := r.GetByOwnerID(ctx, ownerID)
	matches := []*entities.Note{}
	for _, note := range notes {
		if strings.EqualFold(note.Content().Title(), title) {
			matches = append(matches, note)
		}
	}
	return matches, nil
}

// FindByTitleContains retrieves notes whose title contains the fragment,
// case-insensitively, up to limit, in creation order
func (r *NoteRepository) FindByTitleContains(ctx context.Context, ownerID, fragment string, limit int) ([]*entities.Note, error) {
	notes, _ := r.GetByOwnerID(ctx, ownerID)
	needle := strings.ToLower(fragment)
	matches := []*entities.Note{}
	for _, note := range notes {
		if strings.Contains(strings.ToLower(note.Content().Title()), needle) {
			matches = append(matches, note)
			if limit > 0 && len(matches) >= limit {
				break
			}
		}
	}
	return matches, nil
}

// Delete removes a note owned by the given user
func (r *NoteRepository) Delete(ctx context.Context, ownerID string, id valueobjects.EntityID) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	key := id.String()
	note, exists := r.notes[key]
	if !exists || note.OwnerID() != ownerID {
		return pkgerrors.NewNotFoundError("note")
	}
	delete(r.notes, key)
	for i, k := range r.order {
		if k == key {
			r.order = append(r.order[:i], r.order[i+1:]...)
			break
		}
	}
	return nil
}

// MessageRepository is an in-memory ports.MessageRepository
type MessageRepository struct {
	mu       sync.RWMutex
	messages map[string]*entities.Message
	order    []string
}

// NewMessageRepository creates an empty in-memory message repository
func NewMessageRepository() *MessageRepository {
	return &MessageRepository{messages: make(map[string]*entities.Message)}
}

// Save persists a message
func (r *MessageRepository) Save(ctx context.Context, message *entities.Message) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	key := message.ID().String()
	if _, exists := r.messages[key]; !exists {
		r.order = append(r.order, key)
	}
	r.messages[key] = message
	return nil
}

// GetByID retrieves a message owned by the given user
func (r *MessageRepository) GetByID(ctx context.Context, ownerID string, id valueobjects.EntityID) (*entities.Message, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	message, exists := r.messages[id.String()]
	if !exists || message.OwnerID() != ownerID {
		return nil, pkgerrors.NewNotFoundError("message")
	}
	return message, nil
}

// GetByConversationID retrieves a conversation's messages in append order
func (r *MessageRepository) GetByConversationID(ctx context.Context, ownerID string, conversationID valueobjects.EntityID) ([]*entities.Message, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	messages := []*entities.Message{}
	for _, key := range r.order {
		message, exists := r.messages[key]
		if exists && message.OwnerID() == ownerID && message.ConversationID().Equals(conversationID) {
			messages = append(messages, message)
		}
	}
	return messages, nil
}

// DeleteByConversationID removes all messages of a conversation
func (r *MessageRepository) DeleteByConversationID(ctx context.Context, ownerID string, conversationID valueobjects.EntityID) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	kept := r.order[:0]
	for _, key := range r.order {
		message := r.messages[key]
		if message != nil && message.OwnerID() == ownerID && message.ConversationID().Equals(conversationID) {
			delete(r.messages, key)
			continue
		}
		kept = append(kept, key)
	}
	r.order = kept
	return nil
}

// ConversationRepository is an in-memory ports.ConversationRepository
type ConversationRepository struct {
	mu            sync.RWMutex
	conversations map[string]*aggregates.Conversation
}

// NewConversationRepository creates an empty in-memory conversation repository
func NewConversationRepository() *ConversationRepository {
	return &ConversationRepository{conversations: make(map[string]*aggregates.Conversation)}
}

// Save persists a conversation
func (r *ConversationRepository) Save(ctx context.Context, conversation *aggregates.Conversation) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.conversations[conversation.ID().String()] = conversation
	return nil
}

// GetByID retrieves a conversation owned by the given user
func (r *ConversationRepository) GetByID(ctx context.Context, ownerID string, id valueobjects.EntityID) (*aggregates.Conversation, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	conversation, exists := r.conversations[id.String()]
	if !exists || conversation.OwnerID() != ownerID {
		return nil, pkgerrors.NewNotFoundError("conversation")
	}
	return conversation, nil
}

// GetByOwnerID retrieves all conversations for an owner, most recent first
func (r *ConversationRepository) GetByOwnerID(ctx context.Context, ownerID string) ([]*aggregates.Conversation, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	conversations := []*aggregates.Conversation{}
	for _, conversation := range r.conversations {
		if conversation.OwnerID() == ownerID {
			conversations = append(conversations, conversation)
		}
	}
	sort.SliceStable(conversations, func(i, j int) bool {
		return conversations[i].UpdatedAt().After(conversations[j].UpdatedAt())
	})
	return conversations, nil
}

// Delete removes a conversation owned by the given user
func (r *ConversationRepository) Delete(ctx context.Context, ownerID string, id valueobjects.EntityID) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	conversation, exists := r.conversations[id.String()]
	if !exists || conversation.OwnerID() != ownerID {
		return pkgerrors.NewNotFoundError("conversation")
	}
	delete(r.conversations, id.String())
	return nil
}

// EdgeRepository is an in-memory ports.EdgeRepository
type EdgeRepository struct {
	mu    sync.RWMutex
	edges map[string]*aggregates.Edge
	order []string
}

// NewEdgeRepository creates an empty in-memory edge repository
func NewEdgeRepository() *EdgeRepository {
	return &EdgeRepository{edges: make(map[string]*aggregates.Edge)}
}

// Save persists an edge
func (r *EdgeRepository) Save(ctx context.Context, edge *aggregates.Edge) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	key := edge.ID().String()
	if _, exists := r.edges[key]; !exists {
		r.order = append(r.order, key)
	}
	r.edges[key] = edge
	return nil
}

// SaveBatch persists multiple edges
func (r *EdgeRepository) SaveBatch(ctx context.Context, edges []*aggregates.Edge) error {
	for _, edge := range edges {
		if err := r.Save(ctx, edge); err != nil {
			return err
		}
	}
	return nil
}

// GetByID retrieves an edge owned by the given user
func (r *EdgeRepository) GetByID(ctx context.Context, ownerID string, id valueobjects.EntityID) (*aggregates.Edge, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	edge, exists := r.edges[id.String()]
	if !exists || edge.OwnerID() != ownerID {
		return nil, pkgerrors.NewNotFoundError("edge")
	}
	return edge, nil
}

// GetByOwnerID retrieves all edges for an owner
func (r *EdgeRepository) GetByOwnerID(ctx context.Context, ownerID string) ([]*aggregates.Edge, error) {
	return r.filter(func(edge *aggregates.Edge) bool {
		return edge.OwnerID() == ownerID
	}), nil
}

// GetByEntityID retrieves all edges touching the entity on either end
func (r *EdgeRepository) GetByEntityID(ctx context.Context, ownerID string, entityID valueobjects.EntityID) ([]*aggregates.Edge, error) {
	return r.filter(func(edge *aggregates.Edge) bool {
		return edge.OwnerID() == ownerID && edge.Touches(entityID)
	}), nil
}

// GetByTargetID retrieves all edges pointing at the entity
func (r *EdgeRepository) GetByTargetID(ctx context.Context, ownerID string, targetID valueobjects.EntityID) ([]*aggregates.Edge, error) {
	return r.filter(func(edge *aggregates.Edge) bool {
		return edge.OwnerID() == ownerID && edge.TargetID().Equals(targetID)
	}), nil
}

// Delete removes an edge owned by the given user
func (r *EdgeRepository) Delete(ctx context.Context, ownerID string, id valueobjects.EntityID) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	key := id.String()
	edge, exists := r.edges[key]
	if !exists || edge.OwnerID() != ownerID {
		return pkgerrors.NewNotFoundError("edge")
	}
	delete(r.edges, key)
	for i, k := range r.order {
		if k == key {
			r.order = append(r.order[:i], r.order[i+1:]...)
			break
		}
	}
	return nil
}

// DeleteByEntityID removes every edge touching the entity on either end
func (r *EdgeRepository) DeleteByEntityID(ctx context.Context, ownerID string, entityID valueobjects.EntityID) (int, error) {
	edges, _ := r.GetByEntityID(ctx, ownerID, entityID)
	for _, edge := range edges {
		if err := r.Delete(ctx, ownerID, edge.ID()); err != nil {
			return 0, err
		}
	}
	return len(edges), nil
}

func (r *EdgeRepository) filter(keep func(*aggregates.Edge) bool) []*aggregates.Edge {
	r.mu.RLock()
	defer r.mu.RUnlock()

	edges := []*aggregates.Edge{}
	for _, key := range r.order {
		edge, exists := r.edges[key]
		if exists && keep(edge) {
			edges = append(edges, edge)
		}
	}
	return edges
}

// EmbeddingJobStore is an in-memory ports.EmbeddingJobStore
type EmbeddingJobStore struct {
	mu   sync.Mutex
	jobs map[string]*ports.EmbeddingJob
}

// NewEmbeddingJobStore creates an empty in-memory job store
func NewEmbeddingJobStore() *EmbeddingJobStore {
	return &EmbeddingJobStore{jobs: make(map[string]*ports.EmbeddingJob)}
}

// Enqueue records a pending refresh for an entity
func (s *EmbeddingJobStore) Enqueue(ctx context.Context, job *ports.EmbeddingJob) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := time.Now()
	if job.EnqueuedAt.IsZero() {
		job.EnqueuedAt = now
	}
	job.UpdatedAt = now
	if job.Status == "" {
		job.Status = ports.EmbeddingJobPending
	}
	copied := *job
	s.jobs[job.JobID] = &copied
	return nil
}

// GetPending returns up to limit pending jobs, oldest first
func (s *EmbeddingJobStore) GetPending(ctx context.Context, limit int) ([]*ports.EmbeddingJob, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	pending := []*ports.EmbeddingJob{}
	for _, job := range s.jobs {
		if job.Status == ports.EmbeddingJobPending {
			copied := *job
			pending = append(pending, &copied)
		}
	}
	sort.SliceStable(pending, func(i, j int) bool {
		return pending[i].EnqueuedAt.Before(pending[j].EnqueuedAt)
	})
	if limit > 0 && len(pending) > limit {
		pending = pending[:limit]
	}
	return pending, nil
}

// MarkDone marks a job completed
func (s *EmbeddingJobStore) MarkDone(ctx context.Context, jobID string) error {
	return s.setStatus(jobID, ports.EmbeddingJobDone, 0, "")
}

// MarkSkipped marks a job whose entity vanished before processing
func (s *EmbeddingJobStore) MarkSkipped(ctx context.Context, jobID string) error {
	return s.setStatus(jobID, ports.EmbeddingJobSkipped, 0, "")
}

// MarkFailed records a failed attempt
func (s *EmbeddingJobStore) MarkFailed(ctx context.Context, jobID string, attempts int, lastError string, exhausted bool) error {
	status := ports.EmbeddingJobPending
	if exhausted {
		status = ports.EmbeddingJobExhausted
	}
	return s.setStatus(jobID, status, attempts, lastError)
}

// Get returns a job by id, for test assertions
func (s *EmbeddingJobStore) Get(jobID string) (*ports.EmbeddingJob, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	job, ok := s.jobs[jobID]
	if !ok {
		return nil, false
	}
	copied := *job
	return &copied, true
}

func (s *EmbeddingJobStore) setStatus(jobID string, status ports.EmbeddingJobStatus, attempts int, lastError string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	job, exists := s.jobs[jobID]
	if !exists {
		return pkgerrors.NewNotFoundError("embedding job")
	}
	job.Status = status
	job.Attempts = attempts
	job.LastError = lastError
	job.UpdatedAt = time.Now()
	return nil
}
