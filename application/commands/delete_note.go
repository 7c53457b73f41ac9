package commands

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/juancgarza/memex/application/ports"
	"github.com/juancgarza/memex/application/services"
	"github.com/juancgarza/memex/domain/core/valueobjects"
	"github.com/juancgarza/memex/domain/events"
	"github.com/juancgarza/memex/pkg/utils"
)

// DeleteNoteCommand represents the command to delete a note
type DeleteNoteCommand struct {
	OwnerID string `json:"owner_id" validate:"required"`
	NoteID  string `json:"note_id" validate:"required,uuid"`
}

// Validate implements bus.Command
func (c DeleteNoteCommand) Validate() error {
	return utils.ValidateStruct(c)
}

// DeleteNoteHandler handles note deletion and its cascades
type DeleteNoteHandler struct {
	noteRepo       ports.NoteRepository
	edgeRepo       ports.EdgeRepository
	embeddingStore *services.EmbeddingStore
	eventBus       ports.EventPublisher
	logger         *zap.Logger
}

// NewDeleteNoteHandler creates a new delete note handler
func NewDeleteNoteHandler(
	noteRepo ports.NoteRepository,
	edgeRepo ports.EdgeRepository,
	embeddingStore *services.EmbeddingStore,
	eventBus ports.EventPublisher,
	logger *zap.Logger,
) *DeleteNoteHandler {
	return &DeleteNoteHandler{
		noteRepo:       noteRepo,
		edgeRepo:       edgeRepo,
		embeddingStore: embeddingStore,
		eventBus:       eventBus,
		logger:         logger,
	}
}

// Handle executes the delete note command. Every edge touching the note,
// as source or as target, is deleted with it; backlinks to the note are
// gone immediately afterwards.
func (h *DeleteNoteHandler) Handle(ctx context.Context, cmd DeleteNoteCommand) error {
	noteID, err := valueobjects.NewEntityIDFromString(cmd.NoteID)
	if err != nil {
		return err
	}

	// Owner check before any cascade work
	note, err := h.noteRepo.GetByID(ctx, cmd.OwnerID, noteID)
	if err != nil {
		return err
	}

	removed, err := h.edgeRepo.DeleteByEntityID(ctx, cmd.OwnerID, noteID)
	if err != nil {
		h.logger.Error("Failed to cascade edges for note",
			zap.String("noteID", cmd.NoteID), zap.Error(err))
		return err
	}

	if err := h.noteRepo.Delete(ctx, cmd.OwnerID, noteID); err != nil {
		return err
	}

	ref := services.EntityRef{OwnerID: cmd.OwnerID, Collection: ports.CollectionNotes, EntityID: noteID}
	if err := h.embeddingStore.RemoveFromIndex(ctx, ref); err != nil {
		h.logger.Warn("Failed to drop note vector from index",
			zap.String("noteID", cmd.NoteID), zap.Error(err))
	}

	event := events.NewNoteDeleted(noteID, cmd.OwnerID, time.Now())
	if err := h.eventBus.Publish(ctx, event); err != nil {
		h.logger.Warn("Failed to publish deletion event", zap.Error(err))
	}

	h.logger.Info("Note deleted",
		zap.String("noteID", cmd.NoteID),
		zap.String("ownerID", cmd.OwnerID),
		zap.String("title", note.Content().Title()),
		zap.Int("edgesRemoved", removed),
	)

	return nil
}
