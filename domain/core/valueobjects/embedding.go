package valueobjects

import (
	"fmt"
)

// EmbeddingDimension is the default vector size; deployments may configure a
// different one through the domain config
const EmbeddingDimension = 1536

// Embedding is a fixed-length vector computed from entity content.
// A zero-value Embedding means "never embedded or refresh in flight";
// callers must treat that as excluded-from-search rather than an error.
type Embedding struct {
	vector []float32
}

// NewEmbedding creates an embedding, validating against the configured
// dimension
func NewEmbedding(vector []float32, dimension int) (Embedding, error) {
	if len(vector) == 0 {
		return Embedding{}, nil
	}
	if len(vector) != dimension {
		return Embedding{}, fmt.Errorf("embedding dimension mismatch: expected %d, got %d", dimension, len(vector))
	}
	v := make([]float32, len(vector))
	copy(v, vector)
	return Embedding{vector: v}, nil
}

// EmbeddingFromStored wraps a persisted vector without revalidating it.
// Rows were validated on write; after a dimension change stale vectors
// surface here and get rejected by the index until re-embedded.
func EmbeddingFromStored(vector []float32) Embedding {
	if len(vector) == 0 {
		return Embedding{}
	}
	v := make([]float32, len(vector))
	copy(v, vector)
	return Embedding{vector: v}
}

// Vector returns a copy of the underlying vector, or nil when absent
func (e Embedding) Vector() []float32 {
	if len(e.vector) == 0 {
		return nil
	}
	v := make([]float32, len(e.vector))
	copy(v, e.vector)
	return v
}

// IsAbsent reports whether no embedding has been computed
func (e Embedding) IsAbsent() bool {
	return len(e.vector) == 0
}
