package services

import (
	"context"
	"strings"

	"go.uber.org/zap"

	"github.com/juancgarza/memex/application/ports"
	"github.com/juancgarza/memex/domain/config"
	"github.com/juancgarza/memex/domain/core/entities"
	"github.com/juancgarza/memex/domain/core/valueobjects"
	pkgerrors "github.com/juancgarza/memex/pkg/errors"
)

// Resolution is the outcome of resolving a wiki-link to a note. Created is
// true when no note matched and a placeholder was created for the title.
type Resolution struct {
	Note    *entities.Note
	Created bool
}

// WikiLinkResolver resolves [[Title]] targets to notes and suggests titles
// while typing. Fully deterministic, no embedding involved.
type WikiLinkResolver struct {
	noteRepo ports.NoteRepository
	jobStore ports.EmbeddingJobStore
	cfg      *config.DomainConfig
	logger   *zap.Logger
}

// NewWikiLinkResolver creates a new wiki-link resolver
func NewWikiLinkResolver(
	noteRepo ports.NoteRepository,
	jobStore ports.EmbeddingJobStore,
	cfg *config.DomainConfig,
	logger *zap.Logger,
) *WikiLinkResolver {
	return &WikiLinkResolver{
		noteRepo: noteRepo,
		jobStore: jobStore,
		cfg:      cfg,
		logger:   logger,
	}
}

// SuggestTitles returns the owner's note titles containing the fragment,
// case-insensitively, capped at the configured maximum, in creation order.
// Debouncing is the caller's job.
func (r *WikiLinkResolver) SuggestTitles(ctx context.Context, ownerID, fragment string) ([]string, error) {
	if ownerID == "" {
		return nil, pkgerrors.NewValidationError("ownerID cannot be empty")
	}
	fragment = strings.TrimSpace(fragment)
	if fragment == "" {
		return []string{}, nil
	}

	notes, err := r.noteRepo.FindByTitleContains(ctx, ownerID, fragment, r.cfg.MaxTitleSuggestions)
	if err != nil {
		return nil, err
	}

	titles := make([]string, 0, len(notes))
	for _, note := range notes {
		titles = append(titles, note.Content().Title())
	}
	return titles, nil
}

// ResolveWikiLink maps a link title to the owner's note with that exact
// title, compared case-insensitively. When no note matches, a new note is
// created with the link text as its title and an empty body placeholder,
// and the resolution reports Created=true.
func (r *WikiLinkResolver) ResolveWikiLink(ctx context.Context, ownerID, title string) (*Resolution, error) {
	if ownerID == "" {
		return nil, pkgerrors.NewValidationError("ownerID cannot be empty")
	}
	title = strings.TrimSpace(title)
	if title == "" {
		return nil, pkgerrors.NewValidationError("title cannot be empty")
	}

	existing, err := r.noteRepo.FindByTitle(ctx, ownerID, title)
	if err != nil {
		return nil, err
	}
	if len(existing) > 0 {
		// Duplicate titles resolve to the oldest note
		return &Resolution{Note: existing[0], Created: false}, nil
	}

	content, err := valueobjects.NewNoteContent(title, "", valueobjects.FormatMarkdown)
	if err != nil {
		return nil, err
	}
	note, err := entities.NewNote(ownerID, content, valueobjects.NewPosition(0, 0), entities.Provenance{Kind: entities.SourceManual})
	if err != nil {
		return nil, err
	}
	if err := r.noteRepo.Save(ctx, note); err != nil {
		return nil, err
	}
	note.MarkEventsAsCommitted()

	if r.jobStore != nil {
		job := &ports.EmbeddingJob{
			JobID:      valueobjects.NewEntityID().String(),
			OwnerID:    ownerID,
			EntityID:   note.ID().String(),
			Collection: ports.CollectionNotes,
			Status:     ports.EmbeddingJobPending,
		}
		if err := r.jobStore.Enqueue(ctx, job); err != nil {
			r.logger.Warn("Failed to enqueue embedding for created note",
				zap.String("noteID", note.ID().String()), zap.Error(err))
		}
	}

	r.logger.Info("Created note for unresolved wiki-link",
		zap.String("ownerID", ownerID),
		zap.String("title", title),
		zap.String("noteID", note.ID().String()),
	)

	return &Resolution{Note: note, Created: true}, nil
}
