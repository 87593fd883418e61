package fundamentals

import (
	"context"
	"fmt"
	"strings"
	"time"

	"equitydesk/internal/domain/fundamentals"
	"equitydesk/internal/metrics"
	"equitydesk/pkg/logger"
)

// Cache is the subset of the Redis adapter the cached backend needs
type Cache interface {
	GetJSON(ctx context.Context, key string, dest interface{}) (bool, error)
	SetJSON(ctx context.Context, key string, value interface{}, ttl time.Duration) error
}

// CachedBackend caches provider summaries and histories per symbol
type CachedBackend struct {
	next  fundamentals.Backend
	cache Cache
	ttl   time.Duration
	log   *logger.Logger
}

// NewCachedBackend wraps next with a cache
func NewCachedBackend(next fundamentals.Backend, cache Cache, ttl time.Duration) *CachedBackend {
	return &CachedBackend{
		next:  next,
		cache: cache,
		ttl:   ttl,
		log:   logger.Get().Named("fundamentals_cache"),
	}
}

func (c *CachedBackend) Name() string { return c.next.Name() }

// Summary implements fundamentals.Backend
func (c *CachedBackend) Summary(ctx context.Context, symbol string) (*fundamentals.Summary, error) {
	key := fmt.Sprintf("fundamentals:summary:%s", strings.ToLower(symbol))

	var cached fundamentals.Summary
	if c.lookup(ctx, key, &cached) {
		return &cached, nil
	}

	summary, err := c.next.Summary(ctx, symbol)
	if err != nil {
		return nil, err
	}
	c.store(ctx, key, summary)
	return summary, nil
}

// History implements fundamentals.Backend
func (c *CachedBackend) History(ctx context.Context, symbol, rng string) (*fundamentals.PriceHistory, error) {
	key := fmt.Sprintf("fundamentals:history:%s:%s", strings.ToLower(symbol), rng)

	var cached fundamentals.PriceHistory
	if c.lookup(ctx, key, &cached) {
		return &cached, nil
	}

	history, err := c.next.History(ctx, symbol, rng)
	if err != nil {
		return nil, err
	}
	c.store(ctx, key, history)
	return history, nil
}

func (c *CachedBackend) lookup(ctx context.Context, key string, dest interface{}) bool {
	found, err := c.cache.GetJSON(ctx, key, dest)
	switch {
	case err != nil:
		metrics.RecordCacheLookup("fundamentals", "error")
		c.log.Warnw("fundamentals cache read failed", "key", key, "error", err)
		return false
	case found:
		metrics.RecordCacheLookup("fundamentals", "hit")
		return true
	default:
		metrics.RecordCacheLookup("fundamentals", "miss")
		return false
	}
}

func (c *CachedBackend) store(ctx context.Context, key string, value interface{}) {
	if err := c.cache.SetJSON(ctx, key, value, c.ttl); err != nil {
		c.log.Warnw("fundamentals cache write failed", "key", key, "error", err)
	}
}
