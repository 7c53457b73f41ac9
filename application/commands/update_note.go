package commands

import (
	"context"

	"go.uber.org/zap"

	"github.com/juancgarza/memex/application/ports"
	"github.com/juancgarza/memex/domain/core/entities"
	"github.com/juancgarza/memex/domain/core/valueobjects"
	"github.com/juancgarza/memex/pkg/utils"
)

// UpdateNoteCommand represents the command to update a note's content
// or position. Nil position fields leave the placement unchanged.
type UpdateNoteCommand struct {
	OwnerID string   `json:"owner_id" validate:"required"`
	NoteID  string   `json:"note_id" validate:"required,uuid"`
	Title   string   `json:"title" validate:"required,min=1,max=200"`
	Body    string   `json:"body" validate:"max=50000"`
	Format  string   `json:"format" validate:"omitempty,oneof=text markdown"`
	X       *float64 `json:"x"`
	Y       *float64 `json:"y"`
}

// Validate implements bus.Command
func (c UpdateNoteCommand) Validate() error {
	return utils.ValidateStruct(c)
}

// UpdateNoteHandler handles the UpdateNoteCommand
type UpdateNoteHandler struct {
	noteRepo ports.NoteRepository
	jobStore ports.EmbeddingJobStore
	eventBus ports.EventPublisher
	logger   *zap.Logger
}

// NewUpdateNoteHandler creates a new handler instance
func NewUpdateNoteHandler(
	noteRepo ports.NoteRepository,
	jobStore ports.EmbeddingJobStore,
	eventBus ports.EventPublisher,
	logger *zap.Logger,
) *UpdateNoteHandler {
	return &UpdateNoteHandler{
		noteRepo: noteRepo,
		jobStore: jobStore,
		eventBus: eventBus,
		logger:   logger,
	}
}

// Handle executes the update note command. A content change leaves the
// persisted embedding stale and enqueues a refresh; the stale vector keeps
// serving searches until the new one lands.
func (h *UpdateNoteHandler) Handle(ctx context.Context, cmd UpdateNoteCommand) (*entities.Note, error) {
	noteID, err := valueobjects.NewEntityIDFromString(cmd.NoteID)
	if err != nil {
		return nil, err
	}

	note, err := h.noteRepo.GetByID(ctx, cmd.OwnerID, noteID)
	if err != nil {
		return nil, err
	}

	format := valueobjects.ContentFormat(cmd.Format)
	if cmd.Format == "" {
		format = note.Content().Format()
	}
	content, err := valueobjects.NewNoteContent(cmd.Title, cmd.Body, format)
	if err != nil {
		return nil, err
	}

	contentChanged := !content.Equals(note.Content())
	if err := note.UpdateContent(content); err != nil {
		return nil, err
	}

	if cmd.X != nil && cmd.Y != nil {
		pos := note.Position()
		if err := note.MoveTo(valueobjects.NewPositionWithSize(*cmd.X, *cmd.Y, pos.Width(), pos.Height())); err != nil {
			return nil, err
		}
	}

	if err := h.noteRepo.Save(ctx, note); err != nil {
		return nil, err
	}

	if contentChanged {
		job := &ports.EmbeddingJob{
			JobID:      valueobjects.NewEntityID().String(),
			OwnerID:    cmd.OwnerID,
			EntityID:   note.ID().String(),
			Collection: ports.CollectionNotes,
			Status:     ports.EmbeddingJobPending,
		}
		if err := h.jobStore.Enqueue(ctx, job); err != nil {
			h.logger.Warn("Failed to enqueue embedding job",
				zap.String("noteID", note.ID().String()), zap.Error(err))
		}
	}

	if err := h.eventBus.PublishBatch(ctx, note.GetUncommittedEvents()); err != nil {
		h.logger.Warn("Failed to publish note events", zap.Error(err))
	}
	note.MarkEventsAsCommitted()

	return note, nil
}
