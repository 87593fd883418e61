package news

import (
	"context"
	"encoding/json"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"equitydesk/internal/domain/news"
)

type memoryCache struct {
	data    map[string][]byte
	failGet bool
}

func newMemoryCache() *memoryCache {
	return &memoryCache{data: map[string][]byte{}}
}

func (c *memoryCache) GetJSON(_ context.Context, key string, dest interface{}) (bool, error) {
	if c.failGet {
		return false, fmt.Errorf("connection refused")
	}
	raw, ok := c.data[key]
	if !ok {
		return false, nil
	}
	return true, json.Unmarshal(raw, dest)
}

func (c *memoryCache) SetJSON(_ context.Context, key string, value interface{}, _ time.Duration) error {
	raw, err := json.Marshal(value)
	if err != nil {
		return err
	}
	c.data[key] = raw
	return nil
}

func TestCachedBackendServesRepeatsFromCache(t *testing.T) {
	backend := new(MockBackend)
	backend.On("Search", mock.Anything, mock.Anything).Return(articles("reuters", 2), nil).Once()

	cached := NewCachedBackend(backend, newMemoryCache(), time.Minute)
	q := news.NewsQuery{Text: "Apple (AAPL)", Symbol: "AAPL", Domains: news.PriorityDomains(news.MarketGlobal), LookbackDays: 30}

	first, err := cached.Search(context.Background(), q)
	require.NoError(t, err)
	second, err := cached.Search(context.Background(), q)
	require.NoError(t, err)

	assert.Equal(t, first, second)
	backend.AssertNumberOfCalls(t, "Search", 1)
	assert.Equal(t, "mock", cached.Name())
}

func TestCachedBackendSeparatesScopes(t *testing.T) {
	backend := new(MockBackend)
	backend.On("Search", mock.Anything, priorityScope).Return(articles("reuters", 1), nil).Once()
	backend.On("Search", mock.Anything, broadScope).Return(articles("blog", 3), nil).Once()

	cached := NewCachedBackend(backend, newMemoryCache(), time.Minute)
	q := news.NewsQuery{Text: "Apple (AAPL)", Symbol: "AAPL", Domains: news.PriorityDomains(news.MarketGlobal), LookbackDays: 30}

	priority, err := cached.Search(context.Background(), q)
	require.NoError(t, err)
	q.Domains = nil
	broad, err := cached.Search(context.Background(), q)
	require.NoError(t, err)

	assert.Len(t, priority, 1)
	assert.Len(t, broad, 3)
}

func TestCachedBackendDoesNotCacheFailures(t *testing.T) {
	backend := new(MockBackend)
	backend.On("Search", mock.Anything, mock.Anything).Return(nil, fmt.Errorf("down")).Once()
	backend.On("Search", mock.Anything, mock.Anything).Return(articles("reuters", 1), nil).Once()

	cache := newMemoryCache()
	cached := NewCachedBackend(backend, cache, time.Minute)
	q := news.NewsQuery{Text: "q", Symbol: "MS", LookbackDays: 7}

	_, err := cached.Search(context.Background(), q)
	require.Error(t, err)
	assert.Empty(t, cache.data)

	items, err := cached.Search(context.Background(), q)
	require.NoError(t, err)
	assert.Len(t, items, 1)
}

func TestCachedBackendFallsThroughOnCacheError(t *testing.T) {
	backend := new(MockBackend)
	backend.On("Search", mock.Anything, mock.Anything).Return(articles("reuters", 1), nil)

	cache := newMemoryCache()
	cache.failGet = true
	items, err := NewCachedBackend(backend, cache, time.Minute).Search(context.Background(), news.NewsQuery{Text: "q", Symbol: "MS", LookbackDays: 7})
	require.NoError(t, err)
	assert.Len(t, items, 1)
}
