package ports

import "context"

// Collection names for the vector index. Notes and messages are indexed
// separately and queried per collection.
const (
	CollectionNotes    = "notes"
	CollectionMessages = "messages"
)

// Embedder turns text into a fixed-dimension vector
type Embedder interface {
	// Embed computes the vector for a single text
	Embed(ctx context.Context, text string) ([]float32, error)
}

// Match is a single vector search hit. Score is cosine similarity in [0, 1]
// where higher means more related.
type Match struct {
	ID    string
	Score float32
}

// VectorIndex is the per-collection nearest-neighbour index.
// Upsert with an existing ID replaces the stored vector.
type VectorIndex interface {
	// Upsert inserts or replaces the vector stored under id
	Upsert(ctx context.Context, collection, id string, vector []float32) error

	// Search returns up to k matches sorted by score descending
	Search(ctx context.Context, collection string, vector []float32, k int) ([]Match, error)

	// Delete removes the vector stored under id; missing ids are a no-op
	Delete(ctx context.Context, collection, id string) error
}
