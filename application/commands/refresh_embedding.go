package commands

import (
	"context"

	"go.uber.org/zap"

	"github.com/juancgarza/memex/application/ports"
	"github.com/juancgarza/memex/application/services"
	"github.com/juancgarza/memex/domain/core/valueobjects"
	pkgerrors "github.com/juancgarza/memex/pkg/errors"
	"github.com/juancgarza/memex/pkg/utils"
)

// RefreshEmbeddingCommand recomputes and stores the vector for one entity.
// The background worker sends this for every pending job; it reads whatever
// content is current at process time, so replays are harmless.
type RefreshEmbeddingCommand struct {
	OwnerID    string `json:"owner_id" validate:"required"`
	EntityID   string `json:"entity_id" validate:"required,uuid"`
	Collection string `json:"collection" validate:"required,oneof=notes messages"`
}

// Validate implements bus.Command
func (c RefreshEmbeddingCommand) Validate() error {
	return utils.ValidateStruct(c)
}

// ErrEntityGone signals the worker to skip instead of retry
var ErrEntityGone = pkgerrors.NewNotFoundError("entity")

// RefreshEmbeddingHandler handles the RefreshEmbeddingCommand
type RefreshEmbeddingHandler struct {
	noteRepo       ports.NoteRepository
	messageRepo    ports.MessageRepository
	embedder       ports.Embedder
	embeddingStore *services.EmbeddingStore
	logger         *zap.Logger
}

// NewRefreshEmbeddingHandler creates a new handler instance
func NewRefreshEmbeddingHandler(
	noteRepo ports.NoteRepository,
	messageRepo ports.MessageRepository,
	embedder ports.Embedder,
	embeddingStore *services.EmbeddingStore,
	logger *zap.Logger,
) *RefreshEmbeddingHandler {
	return &RefreshEmbeddingHandler{
		noteRepo:       noteRepo,
		messageRepo:    messageRepo,
		embedder:       embedder,
		embeddingStore: embeddingStore,
		logger:         logger,
	}
}

// Handle reads the entity's current text, embeds it, and stores the vector.
// A missing entity returns ErrEntityGone; provider failures propagate so
// the worker can count the attempt.
func (h *RefreshEmbeddingHandler) Handle(ctx context.Context, cmd RefreshEmbeddingCommand) error {
	entityID, err := valueobjects.NewEntityIDFromString(cmd.EntityID)
	if err != nil {
		return err
	}

	var text string
	switch cmd.Collection {
	case ports.CollectionNotes:
		note, err := h.noteRepo.GetByID(ctx, cmd.OwnerID, entityID)
		if err != nil {
			if pkgerrors.IsNotFound(err) {
				return ErrEntityGone
			}
			return err
		}
		text = note.Content().Text()
	case ports.CollectionMessages:
		message, err := h.messageRepo.GetByID(ctx, cmd.OwnerID, entityID)
		if err != nil {
			if pkgerrors.IsNotFound(err) {
				return ErrEntityGone
			}
			return err
		}
		text = message.Text()
	default:
		return pkgerrors.NewValidationError("unknown collection: " + cmd.Collection)
	}

	vector, err := h.embedder.Embed(ctx, text)
	if err != nil {
		return err
	}

	ref := services.EntityRef{OwnerID: cmd.OwnerID, Collection: cmd.Collection, EntityID: entityID}
	return h.embeddingStore.SetEmbedding(ctx, ref, vector)
}
