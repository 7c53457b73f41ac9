package queries

import (
	"errors"
	"strings"
)

// FindRelatedQuery asks for the entities most related to a free-text query
type FindRelatedQuery struct {
	OwnerID   string
	QueryText string
	Limit     int
}

// Validate validates the FindRelatedQuery
func (q FindRelatedQuery) Validate() error {
	if q.OwnerID == "" {
		return errors.New("owner ID is required")
	}
	if strings.TrimSpace(q.QueryText) == "" {
		return errors.New("query text is required")
	}
	if q.Limit < 0 {
		return errors.New("limit cannot be negative")
	}
	return nil
}

// RelatedHit is one scored hit in a relatedness result
type RelatedHit struct {
	ID    string  `json:"id"`
	Title string  `json:"title,omitempty"`
	Text  string  `json:"text,omitempty"`
	Score float32 `json:"score"`
}

// FindRelatedResult holds per-collection hits, each sorted by score
// descending. The caller merges across collections if it wants one list.
type FindRelatedResult struct {
	Notes    []RelatedHit `json:"notes"`
	Messages []RelatedHit `json:"messages"`
}

// GetBacklinksQuery asks for edge-based backlinks of an entity
type GetBacklinksQuery struct {
	OwnerID  string
	EntityID string
}

// Validate validates the GetBacklinksQuery
func (q GetBacklinksQuery) Validate() error {
	if q.OwnerID == "" {
		return errors.New("owner ID is required")
	}
	if q.EntityID == "" {
		return errors.New("entity ID is required")
	}
	return nil
}

// BacklinkResult is one edge-based backlink
type BacklinkResult struct {
	EdgeID   string `json:"edgeId"`
	SourceID string `json:"sourceId"`
	Label    string `json:"label,omitempty"`
}

// GetWikiLinkBacklinksQuery asks which notes reference a title via [[...]]
type GetWikiLinkBacklinksQuery struct {
	OwnerID string
	Title   string
}

// Validate validates the GetWikiLinkBacklinksQuery
func (q GetWikiLinkBacklinksQuery) Validate() error {
	if q.OwnerID == "" {
		return errors.New("owner ID is required")
	}
	if strings.TrimSpace(q.Title) == "" {
		return errors.New("title is required")
	}
	return nil
}

// SuggestTitlesQuery asks for note titles matching a typed fragment
type SuggestTitlesQuery struct {
	OwnerID  string
	Fragment string
}

// Validate validates the SuggestTitlesQuery
func (q SuggestTitlesQuery) Validate() error {
	if q.OwnerID == "" {
		return errors.New("owner ID is required")
	}
	return nil
}
