package bus

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type testQuery struct {
	OwnerID string
}

func (q testQuery) Validate() error {
	if q.OwnerID == "" {
		return errors.New("owner ID is required")
	}
	return nil
}

func TestAskDispatchesToHandler(t *testing.T) {
	b := NewQueryBus()

	require.NoError(t, b.Register(testQuery{}, QueryHandlerFunc(func(ctx context.Context, query Query) (interface{}, error) {
		return query.(testQuery).OwnerID + "-result", nil
	})))

	result, err := b.Ask(context.Background(), testQuery{OwnerID: "alice"})
	require.NoError(t, err)
	assert.Equal(t, "alice-result", result)
}

func TestAskValidatesFirst(t *testing.T) {
	b := NewQueryBus()

	called := false
	require.NoError(t, b.Register(testQuery{}, QueryHandlerFunc(func(ctx context.Context, query Query) (interface{}, error) {
		called = true
		return nil, nil
	})))

	_, err := b.Ask(context.Background(), testQuery{})
	assert.Error(t, err)
	assert.False(t, called)
}

func TestAskUnregisteredQuery(t *testing.T) {
	b := NewQueryBus()
	_, err := b.Ask(context.Background(), testQuery{OwnerID: "alice"})
	assert.Error(t, err)
}

type mapCache struct {
	mu      sync.Mutex
	entries map[string]interface{}
}

func (c *mapCache) Get(ctx context.Context, key string) (interface{}, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	v, ok := c.entries[key]
	return v, ok
}

func (c *mapCache) Set(ctx context.Context, key string, value interface{}, ttl int) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.entries == nil {
		c.entries = make(map[string]interface{})
	}
	c.entries[key] = value
	return nil
}

func TestCachingMiddleware(t *testing.T) {
	calls := 0
	handler := QueryHandlerFunc(func(ctx context.Context, query Query) (interface{}, error) {
		calls++
		return []string{"Project Alpha"}, nil
	})

	cached := NewCachingMiddleware(&mapCache{}, 10).Wrap(handler)

	first, err := cached.Handle(context.Background(), testQuery{OwnerID: "alice"})
	require.NoError(t, err)
	second, err := cached.Handle(context.Background(), testQuery{OwnerID: "alice"})
	require.NoError(t, err)

	assert.Equal(t, first, second)
	assert.Equal(t, 1, calls)

	// A different query misses the cache
	_, err = cached.Handle(context.Background(), testQuery{OwnerID: "bob"})
	require.NoError(t, err)
	assert.Equal(t, 2, calls)
}

func TestCachingMiddlewareSkipsErrors(t *testing.T) {
	cache := &mapCache{}
	handler := QueryHandlerFunc(func(ctx context.Context, query Query) (interface{}, error) {
		return nil, errors.New("boom")
	})

	cached := NewCachingMiddleware(cache, 10).Wrap(handler)
	_, err := cached.Handle(context.Background(), testQuery{OwnerID: "alice"})
	assert.Error(t, err)
	assert.Empty(t, cache.entries)
}
