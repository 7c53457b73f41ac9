package di

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInMemoryCacheSetGet(t *testing.T) {
	ctx := context.Background()
	cache := NewInMemoryCache()
	defer cache.Close()

	require.NoError(t, cache.Set(ctx, "k", "v", 60))

	got, ok := cache.Get(ctx, "k")
	require.True(t, ok)
	assert.Equal(t, "v", got)

	_, ok = cache.Get(ctx, "missing")
	assert.False(t, ok)
}

func TestInMemoryCacheExpiredEntryIsEvicted(t *testing.T) {
	ctx := context.Background()
	cache := NewInMemoryCache()
	defer cache.Close()

	require.NoError(t, cache.Set(ctx, "k", "v", 0))
	time.Sleep(5 * time.Millisecond)

	_, ok := cache.Get(ctx, "k")
	assert.False(t, ok)

	cache.mu.RLock()
	_, stillThere := cache.items["k"]
	cache.mu.RUnlock()
	assert.False(t, stillThere)
}

func TestInMemoryCacheDeleteAndClear(t *testing.T) {
	ctx := context.Background()
	cache := NewInMemoryCache()
	defer cache.Close()

	require.NoError(t, cache.Set(ctx, "a", 1, 60))
	require.NoError(t, cache.Set(ctx, "b", 2, 60))

	require.NoError(t, cache.Delete(ctx, "a"))
	_, ok := cache.Get(ctx, "a")
	assert.False(t, ok)

	require.NoError(t, cache.Clear(ctx))
	_, ok = cache.Get(ctx, "b")
	assert.False(t, ok)
}

func TestInMemoryCacheCloseIsIdempotent(t *testing.T) {
	cache := NewInMemoryCache()
	cache.Close()
	cache.Close()
}
