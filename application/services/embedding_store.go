package services

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/juancgarza/memex/application/ports"
	"github.com/juancgarza/memex/domain/config"
	"github.com/juancgarza/memex/domain/core/valueobjects"
	"github.com/juancgarza/memex/domain/events"
	pkgerrors "github.com/juancgarza/memex/pkg/errors"
)

// EntityRef addresses a note or message by collection + id
type EntityRef struct {
	OwnerID    string
	Collection string
	EntityID   valueobjects.EntityID
}

// EmbeddingStore persists vectors on their entities and keeps the vector
// index in sync. The persisted row is the durable copy; the index is a
// push-upserted projection of it.
type EmbeddingStore struct {
	noteRepo    ports.NoteRepository
	messageRepo ports.MessageRepository
	index       ports.VectorIndex
	eventBus    ports.EventPublisher
	cfg         *config.DomainConfig
	logger      *zap.Logger
}

// NewEmbeddingStore creates a new embedding store
func NewEmbeddingStore(
	noteRepo ports.NoteRepository,
	messageRepo ports.MessageRepository,
	index ports.VectorIndex,
	eventBus ports.EventPublisher,
	cfg *config.DomainConfig,
	logger *zap.Logger,
) *EmbeddingStore {
	if cfg == nil {
		cfg = config.DefaultDomainConfig()
	}
	return &EmbeddingStore{
		noteRepo:    noteRepo,
		messageRepo: messageRepo,
		index:       index,
		eventBus:    eventBus,
		cfg:         cfg,
		logger:      logger,
	}
}

// SetEmbedding overwrites the persisted vector for the entity, last write
// wins, and push-upserts into the entity's collection in the index.
//
// If the entity was deleted between enqueue and processing, the write is
// silently dropped: the refresh raced a delete and there is nothing to embed.
func (s *EmbeddingStore) SetEmbedding(ctx context.Context, ref EntityRef, vector []float32) error {
	embedding, err := valueobjects.NewEmbedding(vector, s.cfg.EmbeddingDimension)
	if err != nil {
		return pkgerrors.NewValidationError(err.Error())
	}

	switch ref.Collection {
	case ports.CollectionNotes:
		note, err := s.noteRepo.GetByID(ctx, ref.OwnerID, ref.EntityID)
		if err != nil {
			if pkgerrors.IsNotFound(err) {
				s.logger.Debug("Dropping embedding for deleted note",
					zap.String("entityID", ref.EntityID.String()))
				return nil
			}
			return err
		}
		note.SetEmbedding(embedding)
		if err := s.noteRepo.Save(ctx, note); err != nil {
			return err
		}
	case ports.CollectionMessages:
		message, err := s.messageRepo.GetByID(ctx, ref.OwnerID, ref.EntityID)
		if err != nil {
			if pkgerrors.IsNotFound(err) {
				s.logger.Debug("Dropping embedding for deleted message",
					zap.String("entityID", ref.EntityID.String()))
				return nil
			}
			return err
		}
		message.SetEmbedding(embedding)
		if err := s.messageRepo.Save(ctx, message); err != nil {
			return err
		}
	default:
		return pkgerrors.NewValidationError("unknown collection: " + ref.Collection)
	}

	if err := s.index.Upsert(ctx, ref.Collection, s.indexKey(ref), vector); err != nil {
		return err
	}

	if s.eventBus != nil {
		event := events.NewEmbeddingStored(ref.EntityID, ref.Collection, time.Now())
		if err := s.eventBus.Publish(ctx, event); err != nil {
			s.logger.Warn("Failed to publish embedding event", zap.Error(err))
		}
	}

	return nil
}

// GetEmbedding returns the persisted vector, or nil when the entity has never
// been embedded or a refresh is still in flight. Absence is not an error.
func (s *EmbeddingStore) GetEmbedding(ctx context.Context, ref EntityRef) ([]float32, error) {
	switch ref.Collection {
	case ports.CollectionNotes:
		note, err := s.noteRepo.GetByID(ctx, ref.OwnerID, ref.EntityID)
		if err != nil {
			return nil, err
		}
		if note.Embedding().IsAbsent() {
			return nil, nil
		}
		return note.Embedding().Vector(), nil
	case ports.CollectionMessages:
		message, err := s.messageRepo.GetByID(ctx, ref.OwnerID, ref.EntityID)
		if err != nil {
			return nil, err
		}
		if message.Embedding().IsAbsent() {
			return nil, nil
		}
		return message.Embedding().Vector(), nil
	default:
		return nil, pkgerrors.NewValidationError("unknown collection: " + ref.Collection)
	}
}

// RemoveFromIndex drops the entity's vector from its collection. Missing
// entries are a no-op, so this is safe to call on every delete.
func (s *EmbeddingStore) RemoveFromIndex(ctx context.Context, ref EntityRef) error {
	return s.index.Delete(ctx, ref.Collection, s.indexKey(ref))
}

// indexKey scopes index entries per owner so search never crosses tenants.
// The owner-checked resolution during FindRelated is still the authority.
func (s *EmbeddingStore) indexKey(ref EntityRef) string {
	return ref.OwnerID + "/" + ref.EntityID.String()
}
