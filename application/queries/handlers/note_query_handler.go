package handlers

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/juancgarza/memex/application/ports"
	"github.com/juancgarza/memex/application/queries"
	"github.com/juancgarza/memex/domain/core/entities"
	"github.com/juancgarza/memex/domain/core/valueobjects"
)

// NoteQueryHandler serves single-note and listing reads
type NoteQueryHandler struct {
	noteRepo ports.NoteRepository
	logger   *zap.Logger
}

// NewNoteQueryHandler creates a new note query handler
func NewNoteQueryHandler(noteRepo ports.NoteRepository, logger *zap.Logger) *NoteQueryHandler {
	return &NoteQueryHandler{
		noteRepo: noteRepo,
		logger:   logger,
	}
}

// HandleGetNote returns one owned note
func (h *NoteQueryHandler) HandleGetNote(ctx context.Context, query queries.GetNoteQuery) (*queries.NoteResult, error) {
	if err := query.Validate(); err != nil {
		return nil, err
	}

	noteID, err := valueobjects.NewEntityIDFromString(query.NoteID)
	if err != nil {
		return nil, err
	}

	note, err := h.noteRepo.GetByID(ctx, query.OwnerID, noteID)
	if err != nil {
		return nil, err
	}

	result := toNoteResult(note)
	return &result, nil
}

// HandleListNotes returns all of the owner's notes
func (h *NoteQueryHandler) HandleListNotes(ctx context.Context, query queries.ListNotesQuery) (*queries.ListNotesResult, error) {
	if err := query.Validate(); err != nil {
		return nil, err
	}

	notes, err := h.noteRepo.GetByOwnerID(ctx, query.OwnerID)
	if err != nil {
		return nil, err
	}

	results := make([]queries.NoteResult, 0, len(notes))
	for _, note := range notes {
		results = append(results, toNoteResult(note))
	}

	return &queries.ListNotesResult{
		Notes: results,
		Total: len(results),
	}, nil
}

func toNoteResult(note *entities.Note) queries.NoteResult {
	content := note.Content()
	pos := note.Position()
	return queries.NoteResult{
		ID:      note.ID().String(),
		OwnerID: note.OwnerID(),
		Title:   content.Title(),
		Body:    content.Body(),
		Format:  string(content.Format()),
		Position: queries.Position{
			X:      pos.X(),
			Y:      pos.Y(),
			Width:  pos.Width(),
			Height: pos.Height(),
		},
		SourceKind:   string(note.Provenance().Kind),
		SourceRef:    note.Provenance().SourceRef,
		LinkTitles:   note.LinkTitles(),
		HasEmbedding: !note.Embedding().IsAbsent(),
		Version:      note.Version(),
		CreatedAt:    note.CreatedAt().Format(time.RFC3339),
		UpdatedAt:    note.UpdatedAt().Format(time.RFC3339),
	}
}
