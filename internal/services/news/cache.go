package news

import (
	"context"
	"crypto/sha1"
	"encoding/hex"
	"fmt"
	"strings"
	"time"

	"equitydesk/internal/domain/news"
	"equitydesk/internal/metrics"
	"equitydesk/pkg/logger"
)

// Cache is the subset of the Redis adapter the cached backend needs
type Cache interface {
	GetJSON(ctx context.Context, key string, dest interface{}) (bool, error)
	SetJSON(ctx context.Context, key string, value interface{}, ttl time.Duration) error
}

// CachedBackend serves repeated searches from the cache. Failures are never
// cached, and cache errors fall through to the wrapped backend.
type CachedBackend struct {
	next  news.SearchBackend
	cache Cache
	ttl   time.Duration
	log   *logger.Logger
	now   func() time.Time
}

// NewCachedBackend wraps next with a cache
func NewCachedBackend(next news.SearchBackend, cache Cache, ttl time.Duration) *CachedBackend {
	return &CachedBackend{
		next:  next,
		cache: cache,
		ttl:   ttl,
		log:   logger.Get().Named("news_cache"),
		now:   time.Now,
	}
}

func (c *CachedBackend) Name() string { return c.next.Name() }

// Search implements news.SearchBackend
func (c *CachedBackend) Search(ctx context.Context, q news.NewsQuery) ([]news.Article, error) {
	key := c.key(q)

	var cached []news.Article
	found, err := c.cache.GetJSON(ctx, key, &cached)
	switch {
	case err != nil:
		metrics.RecordCacheLookup("news", "error")
		c.log.Warnw("news cache read failed", "key", key, "error", err)
	case found:
		metrics.RecordCacheLookup("news", "hit")
		return cached, nil
	default:
		metrics.RecordCacheLookup("news", "miss")
	}

	items, err := c.next.Search(ctx, q)
	if err != nil {
		return nil, err
	}
	if err := c.cache.SetJSON(ctx, key, items, c.ttl); err != nil {
		c.log.Warnw("news cache write failed", "key", key, "error", err)
	}
	return items, nil
}

// key includes the window start date so cached entries roll over with the calendar
func (c *CachedBackend) key(q news.NewsQuery) string {
	raw := strings.Join([]string{
		c.next.Name(),
		q.Text,
		strings.Join(q.Domains, ","),
		q.StartDate(c.now()),
	}, "|")
	sum := sha1.Sum([]byte(raw))
	return fmt.Sprintf("news:%s:%s", strings.ToLower(q.Symbol), hex.EncodeToString(sum[:8]))
}
