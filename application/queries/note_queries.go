package queries

import "errors"

// GetNoteQuery represents a query to get a single note
type GetNoteQuery struct {
	OwnerID string
	NoteID  string
}

// Validate validates the GetNoteQuery
func (q GetNoteQuery) Validate() error {
	if q.OwnerID == "" {
		return errors.New("owner ID is required")
	}
	if q.NoteID == "" {
		return errors.New("note ID is required")
	}
	return nil
}

// ListNotesQuery represents a query to list all of an owner's notes
type ListNotesQuery struct {
	OwnerID string
}

// Validate validates the ListNotesQuery
func (q ListNotesQuery) Validate() error {
	if q.OwnerID == "" {
		return errors.New("owner ID is required")
	}
	return nil
}

// Position represents canvas coordinates
type Position struct {
	X      float64 `json:"x"`
	Y      float64 `json:"y"`
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

// NoteResult is the read model for a single note
type NoteResult struct {
	ID           string   `json:"id"`
	OwnerID      string   `json:"ownerId"`
	Title        string   `json:"title"`
	Body         string   `json:"body"`
	Format       string   `json:"format"`
	Position     Position `json:"position"`
	SourceKind   string   `json:"sourceKind"`
	SourceRef    string   `json:"sourceRef,omitempty"`
	LinkTitles   []string `json:"linkTitles,omitempty"`
	HasEmbedding bool     `json:"hasEmbedding"`
	Version      int      `json:"version"`
	CreatedAt    string   `json:"createdAt"`
	UpdatedAt    string   `json:"updatedAt"`
}

// ListNotesResult is the read model for a note listing
type ListNotesResult struct {
	Notes []NoteResult `json:"notes"`
	Total int          `json:"total"`
}
