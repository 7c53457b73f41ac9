package handlers

import (
	"context"

	"go.uber.org/zap"

	"github.com/juancgarza/memex/application/queries"
	"github.com/juancgarza/memex/application/services"
	"github.com/juancgarza/memex/domain/core/valueobjects"
)

// RelatedQueryHandler serves the relatedness, backlink and wiki-link reads
type RelatedQueryHandler struct {
	engine    *services.RelatednessEngine
	backlinks *services.BacklinkResolver
	wikilinks *services.WikiLinkResolver
	logger    *zap.Logger
}

// NewRelatedQueryHandler creates a new related query handler
func NewRelatedQueryHandler(
	engine *services.RelatednessEngine,
	backlinks *services.BacklinkResolver,
	wikilinks *services.WikiLinkResolver,
	logger *zap.Logger,
) *RelatedQueryHandler {
	return &RelatedQueryHandler{
		engine:    engine,
		backlinks: backlinks,
		wikilinks: wikilinks,
		logger:    logger,
	}
}

// HandleFindRelated embeds the query text and returns per-collection hits
func (h *RelatedQueryHandler) HandleFindRelated(ctx context.Context, query queries.FindRelatedQuery) (*queries.FindRelatedResult, error) {
	if err := query.Validate(); err != nil {
		return nil, err
	}

	related, err := h.engine.FindRelated(ctx, query.OwnerID, query.QueryText, query.Limit)
	if err != nil {
		return nil, err
	}

	result := &queries.FindRelatedResult{
		Notes:    make([]queries.RelatedHit, 0, len(related.Notes)),
		Messages: make([]queries.RelatedHit, 0, len(related.Messages)),
	}
	for _, rn := range related.Notes {
		result.Notes = append(result.Notes, queries.RelatedHit{
			ID:    rn.Note.ID().String(),
			Title: rn.Note.Content().Title(),
			Score: rn.Score,
		})
	}
	for _, rm := range related.Messages {
		result.Messages = append(result.Messages, queries.RelatedHit{
			ID:    rm.Message.ID().String(),
			Text:  rm.Message.Text(),
			Score: rm.Score,
		})
	}
	return result, nil
}

// HandleGetBacklinks returns the edge-based backlinks of an entity
func (h *RelatedQueryHandler) HandleGetBacklinks(ctx context.Context, query queries.GetBacklinksQuery) ([]queries.BacklinkResult, error) {
	if err := query.Validate(); err != nil {
		return nil, err
	}

	entityID, err := valueobjects.NewEntityIDFromString(query.EntityID)
	if err != nil {
		return nil, err
	}

	links, err := h.backlinks.DirectBacklinks(ctx, query.OwnerID, entityID)
	if err != nil {
		return nil, err
	}

	results := make([]queries.BacklinkResult, 0, len(links))
	for _, link := range links {
		results = append(results, queries.BacklinkResult{
			EdgeID:   link.EdgeID.String(),
			SourceID: link.SourceID.String(),
			Label:    link.Label,
		})
	}
	return results, nil
}

// HandleGetWikiLinkBacklinks returns the notes whose body references the title
func (h *RelatedQueryHandler) HandleGetWikiLinkBacklinks(ctx context.Context, query queries.GetWikiLinkBacklinksQuery) ([]queries.NoteResult, error) {
	if err := query.Validate(); err != nil {
		return nil, err
	}

	notes, err := h.backlinks.WikiLinkBacklinks(ctx, query.OwnerID, query.Title)
	if err != nil {
		return nil, err
	}

	results := make([]queries.NoteResult, 0, len(notes))
	for _, note := range notes {
		results = append(results, toNoteResult(note))
	}
	return results, nil
}

// HandleSuggestTitles returns matching note titles for typeahead
func (h *RelatedQueryHandler) HandleSuggestTitles(ctx context.Context, query queries.SuggestTitlesQuery) ([]string, error) {
	if err := query.Validate(); err != nil {
		return nil, err
	}
	return h.wikilinks.SuggestTitles(ctx, query.OwnerID, query.Fragment)
}
