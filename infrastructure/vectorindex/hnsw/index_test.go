package hnsw

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// The cosine kernel works in lanes of four floats, so tests use dimension 4
func newTestIndex(t *testing.T) *Index {
	t.Helper()
	index, err := New(4)
	require.NoError(t, err)
	return index
}

func TestNewRejectsUnalignedDimension(t *testing.T) {
	for _, dimension := range []int{-1, 0, 3, 1537} {
		_, err := New(dimension)
		assert.Error(t, err, "dimension %d", dimension)
	}

	index, err := New(8)
	require.NoError(t, err)
	require.NoError(t, index.Upsert(context.Background(), "notes", "a", make([]float32, 8)))
}

func TestUpsertAndSearch(t *testing.T) {
	ctx := context.Background()
	index := newTestIndex(t)

	require.NoError(t, index.Upsert(ctx, "notes", "a", []float32{1, 0, 0, 0}))
	require.NoError(t, index.Upsert(ctx, "notes", "b", []float32{0, 1, 0, 0}))
	require.NoError(t, index.Upsert(ctx, "notes", "c", []float32{0.9, 0.1, 0, 0}))

	matches, err := index.Search(ctx, "notes", []float32{1, 0, 0, 0}, 2)
	require.NoError(t, err)

	require.Len(t, matches, 2)
	assert.Equal(t, "a", matches[0].ID)
	assert.InDelta(t, 1.0, matches[0].Score, 0.001)
	assert.Equal(t, "c", matches[1].ID)
	assert.Greater(t, matches[0].Score, matches[1].Score)
}

func TestUpsertReplacesVector(t *testing.T) {
	ctx := context.Background()
	index := newTestIndex(t)

	require.NoError(t, index.Upsert(ctx, "notes", "a", []float32{1, 0, 0, 0}))
	require.NoError(t, index.Upsert(ctx, "notes", "a", []float32{0, 1, 0, 0}))

	assert.Equal(t, 1, index.Size("notes"))

	matches, err := index.Search(ctx, "notes", []float32{0, 1, 0, 0}, 5)
	require.NoError(t, err)

	// The old vector is tombstoned; only the replacement is live
	require.Len(t, matches, 1)
	assert.Equal(t, "a", matches[0].ID)
	assert.InDelta(t, 1.0, matches[0].Score, 0.001)
}

func TestDelete(t *testing.T) {
	ctx := context.Background()
	index := newTestIndex(t)

	require.NoError(t, index.Upsert(ctx, "notes", "a", []float32{1, 0, 0, 0}))
	require.NoError(t, index.Upsert(ctx, "notes", "b", []float32{0.8, 0.2, 0, 0}))

	require.NoError(t, index.Delete(ctx, "notes", "a"))
	assert.Equal(t, 1, index.Size("notes"))

	matches, err := index.Search(ctx, "notes", []float32{1, 0, 0, 0}, 5)
	require.NoError(t, err)
	require.Len(t, matches, 1)
	assert.Equal(t, "b", matches[0].ID)

	// Deleting again and deleting from an unknown collection are no-ops
	require.NoError(t, index.Delete(ctx, "notes", "a"))
	require.NoError(t, index.Delete(ctx, "messages", "a"))
}

func TestCollectionsAreIsolated(t *testing.T) {
	ctx := context.Background()
	index := newTestIndex(t)

	require.NoError(t, index.Upsert(ctx, "notes", "n", []float32{1, 0, 0, 0}))
	require.NoError(t, index.Upsert(ctx, "messages", "m", []float32{1, 0, 0, 0}))

	matches, err := index.Search(ctx, "notes", []float32{1, 0, 0, 0}, 5)
	require.NoError(t, err)
	require.Len(t, matches, 1)
	assert.Equal(t, "n", matches[0].ID)
}

func TestSearchEmptyCollection(t *testing.T) {
	index := newTestIndex(t)

	matches, err := index.Search(context.Background(), "notes", []float32{1, 0, 0, 0}, 5)
	require.NoError(t, err)
	assert.Empty(t, matches)
}

func TestDimensionMismatch(t *testing.T) {
	ctx := context.Background()
	index := newTestIndex(t)

	assert.Error(t, index.Upsert(ctx, "notes", "a", []float32{1, 0}))

	_, err := index.Search(ctx, "notes", []float32{1, 0}, 5)
	assert.Error(t, err)
}
