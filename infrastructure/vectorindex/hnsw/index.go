// Package hnsw provides the in-process vector index: one cosine HNSW graph
// per collection with a string-id mapping layered on top.
//
// The underlying graph is append-only, so replacement and deletion are done
// with tombstones: the old internal key is abandoned and filtered out of
// search results. Vectors are rebuilt from the entity store on startup, so
// tombstone buildup lasts at most one process lifetime.
package hnsw

import (
	"context"
	"fmt"
	"sync"

	"github.com/chewxy/math32"
	"github.com/fogfish/hnsw"
	"github.com/fogfish/hnsw/vector"
	kvector "github.com/kshard/vector"

	"github.com/juancgarza/memex/application/ports"
	pkgerrors "github.com/juancgarza/memex/pkg/errors"
)

// Index implements ports.VectorIndex
type Index struct {
	mu          sync.RWMutex
	dimension   int
	collections map[string]*collection
}

type collection struct {
	graph   *hnsw.HNSW[vector.VF32]
	byID    map[string]uint32    // external id -> live internal key
	byKey   map[uint32]string    // live internal key -> external id
	vectors map[string][]float32 // external id -> current vector
	nextKey uint32
}

// New creates an empty index for vectors of the given dimension. The cosine
// kernel consumes vectors in lanes of four floats, so the dimension must be a
// positive multiple of 4; anything else is rejected here rather than
// panicking on first insert.
func New(dimension int) (*Index, error) {
	if dimension <= 0 || dimension%4 != 0 {
		return nil, pkgerrors.NewValidationError(
			fmt.Sprintf("vector dimension must be a positive multiple of 4, got %d", dimension))
	}
	return &Index{
		dimension:   dimension,
		collections: make(map[string]*collection),
	}, nil
}

// Upsert inserts or replaces the vector stored under id. Replacement
// tombstones the previous internal key.
func (i *Index) Upsert(ctx context.Context, collectionName, id string, vec []float32) error {
	if len(vec) != i.dimension {
		return pkgerrors.NewValidationError("vector dimension mismatch")
	}

	i.mu.Lock()
	defer i.mu.Unlock()

	c := i.collection(collectionName)

	if oldKey, exists := c.byID[id]; exists {
		delete(c.byKey, oldKey)
	}

	key := c.nextKey
	c.nextKey++
	c.byID[id] = key
	c.byKey[key] = id

	stored := make([]float32, len(vec))
	copy(stored, vec)
	c.vectors[id] = stored

	c.graph.Insert(vector.VF32{Key: key, Vec: stored})
	return nil
}

// Search returns up to k live matches sorted by cosine similarity descending.
// Tombstoned keys are filtered out, so the graph is queried with headroom.
func (i *Index) Search(ctx context.Context, collectionName string, vec []float32, k int) ([]ports.Match, error) {
	if len(vec) != i.dimension {
		return nil, pkgerrors.NewValidationError("vector dimension mismatch")
	}
	if k < 1 {
		return []ports.Match{}, nil
	}

	i.mu.RLock()
	defer i.mu.RUnlock()

	c, exists := i.collections[collectionName]
	if !exists || c.graph.Size() == 0 {
		return []ports.Match{}, nil
	}

	// Oversample to cover tombstones; ef follows the usual k*2 floor-100 rule
	fetch := k * 2
	ef := fetch * 2
	if ef < 100 {
		ef = 100
	}

	results := c.graph.Search(vector.VF32{Vec: vec}, fetch, ef)

	matches := make([]ports.Match, 0, k)
	for _, r := range results {
		id, live := c.byKey[r.Key]
		if !live {
			continue
		}
		matches = append(matches, ports.Match{
			ID:    id,
			Score: cosineSimilarity(vec, c.vectors[id]),
		})
		if len(matches) == k {
			break
		}
	}
	return matches, nil
}

// Delete removes the vector stored under id; missing ids are a no-op
func (i *Index) Delete(ctx context.Context, collectionName, id string) error {
	i.mu.Lock()
	defer i.mu.Unlock()

	c, exists := i.collections[collectionName]
	if !exists {
		return nil
	}

	if key, live := c.byID[id]; live {
		delete(c.byKey, key)
		delete(c.byID, id)
		delete(c.vectors, id)
	}
	return nil
}

// Size returns the number of live entries in a collection
func (i *Index) Size(collectionName string) int {
	i.mu.RLock()
	defer i.mu.RUnlock()

	c, exists := i.collections[collectionName]
	if !exists {
		return 0
	}
	return len(c.byID)
}

func (i *Index) collection(name string) *collection {
	c, exists := i.collections[name]
	if !exists {
		c = &collection{
			graph:   hnsw.New[vector.VF32](vector.SurfaceVF32(kvector.Cosine())),
			byID:    make(map[string]uint32),
			byKey:   make(map[uint32]string),
			vectors: make(map[string][]float32),
			nextKey: 1,
		}
		i.collections[name] = c
	}
	return c
}

// cosineSimilarity is the ranking score surfaced to callers, clamped to
// [0, 1]. The graph's own cosine surface orders traversal; this recomputes
// the similarity for the final hits.
func cosineSimilarity(a, b []float32) float32 {
	if len(a) != len(b) || len(a) == 0 {
		return 0
	}

	var dot, normA, normB float32
	for n := range a {
		dot += a[n] * b[n]
		normA += a[n] * a[n]
		normB += b[n] * b[n]
	}
	if normA == 0 || normB == 0 {
		return 0
	}

	score := dot / (math32.Sqrt(normA) * math32.Sqrt(normB))
	if score < 0 {
		return 0
	}
	if score > 1 {
		return 1
	}
	return score
}
