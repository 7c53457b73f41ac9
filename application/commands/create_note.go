package commands

import (
	"context"

	"go.uber.org/zap"

	"github.com/juancgarza/memex/application/ports"
	"github.com/juancgarza/memex/domain/core/entities"
	"github.com/juancgarza/memex/domain/core/valueobjects"
	"github.com/juancgarza/memex/pkg/utils"
)

// CreateNoteCommand represents the command to create a new note
type CreateNoteCommand struct {
	OwnerID    string  `json:"owner_id" validate:"required"`
	Title      string  `json:"title" validate:"required,min=1,max=200"`
	Body       string  `json:"body" validate:"max=50000"`
	Format     string  `json:"format" validate:"omitempty,oneof=text markdown"`
	X          float64 `json:"x"`
	Y          float64 `json:"y"`
	SourceKind string  `json:"source_kind" validate:"omitempty,oneof=manual voice chat ai-extracted web youtube readwise"`
	SourceRef  string  `json:"source_ref"`
	ParentID   string  `json:"parent_id" validate:"omitempty,uuid"`
}

// Validate implements bus.Command
func (c CreateNoteCommand) Validate() error {
	return utils.ValidateStruct(c)
}

// CreateNoteHandler handles the CreateNoteCommand
type CreateNoteHandler struct {
	noteRepo ports.NoteRepository
	jobStore ports.EmbeddingJobStore
	eventBus ports.EventPublisher
	logger   *zap.Logger
}

// NewCreateNoteHandler creates a new handler instance
func NewCreateNoteHandler(
	noteRepo ports.NoteRepository,
	jobStore ports.EmbeddingJobStore,
	eventBus ports.EventPublisher,
	logger *zap.Logger,
) *CreateNoteHandler {
	return &CreateNoteHandler{
		noteRepo: noteRepo,
		jobStore: jobStore,
		eventBus: eventBus,
		logger:   logger,
	}
}

// Handle executes the create note command
func (h *CreateNoteHandler) Handle(ctx context.Context, cmd CreateNoteCommand) (*entities.Note, error) {
	format := valueobjects.ContentFormat(cmd.Format)
	if cmd.Format == "" {
		format = valueobjects.FormatMarkdown
	}

	content, err := valueobjects.NewNoteContent(cmd.Title, cmd.Body, format)
	if err != nil {
		return nil, err
	}

	provenance := entities.Provenance{
		Kind:      entities.SourceKind(cmd.SourceKind),
		SourceRef: cmd.SourceRef,
	}
	if cmd.ParentID != "" {
		parentID, err := valueobjects.NewEntityIDFromString(cmd.ParentID)
		if err != nil {
			return nil, err
		}
		provenance.ParentID = parentID
	}

	note, err := entities.NewNote(cmd.OwnerID, content, valueobjects.NewPosition(cmd.X, cmd.Y), provenance)
	if err != nil {
		return nil, err
	}

	if err := h.noteRepo.Save(ctx, note); err != nil {
		return nil, err
	}

	// Embedding is refreshed out of band; the note is searchable once the
	// job lands
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

	if err := h.eventBus.PublishBatch(ctx, note.GetUncommittedEvents()); err != nil {
		h.logger.Warn("Failed to publish note events", zap.Error(err))
	}
	note.MarkEventsAsCommitted()

	h.logger.Info("Note created",
		zap.String("noteID", note.ID().String()),
		zap.String("ownerID", cmd.OwnerID),
		zap.String("sourceKind", string(note.Provenance().Kind)),
	)

	return note, nil
}
