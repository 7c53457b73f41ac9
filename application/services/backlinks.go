package services

import (
	"context"
	"strings"

	"go.uber.org/zap"

	"github.com/juancgarza/memex/application/ports"
	"github.com/juancgarza/memex/domain/core/entities"
	"github.com/juancgarza/memex/domain/core/valueobjects"
	"github.com/juancgarza/memex/domain/wikilink"
	pkgerrors "github.com/juancgarza/memex/pkg/errors"
)

// DirectBacklink is an edge-based backlink: the source entity of an edge
// pointing at the queried entity, with the edge label attached.
type DirectBacklink struct {
	EdgeID   valueobjects.EntityID
	SourceID valueobjects.EntityID
	Label    string
}

// BacklinkResolver answers "what points here" two separate ways: the edge
// table for explicit and materialized links, and a text scan for wiki-links.
// The text scan is the source of truth for wiki-links; the two mechanisms
// are never merged into one answer.
type BacklinkResolver struct {
	noteRepo ports.NoteRepository
	edgeRepo ports.EdgeRepository
	logger   *zap.Logger
}

// NewBacklinkResolver creates a new backlink resolver
func NewBacklinkResolver(noteRepo ports.NoteRepository, edgeRepo ports.EdgeRepository, logger *zap.Logger) *BacklinkResolver {
	return &BacklinkResolver{
		noteRepo: noteRepo,
		edgeRepo: edgeRepo,
		logger:   logger,
	}
}

// DirectBacklinks returns the sources of edges targeting entityID, owner
// filtered, with their labels. Pure read.
func (r *BacklinkResolver) DirectBacklinks(ctx context.Context, ownerID string, entityID valueobjects.EntityID) ([]DirectBacklink, error) {
	if ownerID == "" {
		return nil, pkgerrors.NewValidationError("ownerID cannot be empty")
	}
	if entityID.IsZero() {
		return nil, pkgerrors.NewValidationError("entityID cannot be empty")
	}

	edges, err := r.edgeRepo.GetByTargetID(ctx, ownerID, entityID)
	if err != nil {
		return nil, err
	}

	backlinks := make([]DirectBacklink, 0, len(edges))
	for _, edge := range edges {
		backlinks = append(backlinks, DirectBacklink{
			EdgeID:   edge.ID(),
			SourceID: edge.SourceID(),
			Label:    edge.Label(),
		})
	}
	return backlinks, nil
}

// WikiLinkBacklinks scans the owner's notes for a [[Title]] reference
// matching title case-insensitively. The note whose own title equals the
// queried title is excluded; a note does not backlink itself. Pure read.
func (r *BacklinkResolver) WikiLinkBacklinks(ctx context.Context, ownerID, title string) ([]*entities.Note, error) {
	if ownerID == "" {
		return nil, pkgerrors.NewValidationError("ownerID cannot be empty")
	}
	title = strings.TrimSpace(title)
	if title == "" {
		return nil, pkgerrors.NewValidationError("title cannot be empty")
	}

	notes, err := r.noteRepo.GetByOwnerID(ctx, ownerID)
	if err != nil {
		return nil, err
	}

	matches := []*entities.Note{}
	for _, note := range notes {
		if strings.EqualFold(note.Content().Title(), title) {
			continue
		}
		if wikilink.References(note.Content().Body(), title) {
			matches = append(matches, note)
		}
	}
	return matches, nil
}
