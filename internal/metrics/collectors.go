package metrics

import (
	"context"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/redis/go-redis/v9"

	"equitydesk/pkg/logger"
)

// CustomCollector collects run history and cache gauges at scrape time.
// Either store may be nil when it is not configured.
type CustomCollector struct {
	log      *logger.Logger
	postgres *sqlx.DB
	redis    *redis.Client

	// Descriptors
	totalRuns    *prometheus.Desc
	recentRuns   *prometheus.Desc
	cacheEntries *prometheus.Desc
}

// Cache key prefixes counted by the collector
var cachePrefixes = map[string]string{
	"news":         "news:*",
	"fundamentals": "fundamentals:*",
}

// NewCustomCollector creates a new custom metrics collector
func NewCustomCollector(log *logger.Logger, postgres *sqlx.DB, redis *redis.Client) *CustomCollector {
	return &CustomCollector{
		log:      log,
		postgres: postgres,
		redis:    redis,

		totalRuns: prometheus.NewDesc(
			"equitydesk_research_runs_stored",
			"Stored research runs by status",
			[]string{"status"}, nil,
		),
		recentRuns: prometheus.NewDesc(
			"equitydesk_research_runs_24h",
			"Research runs started in the last 24h by status",
			[]string{"status"}, nil,
		),
		cacheEntries: prometheus.NewDesc(
			"equitydesk_cache_entries",
			"Cached entries by cache",
			[]string{"cache"}, nil,
		),
	}
}

// Describe implements prometheus.Collector
func (c *CustomCollector) Describe(ch chan<- *prometheus.Desc) {
	ch <- c.totalRuns
	ch <- c.recentRuns
	ch <- c.cacheEntries
}

// Collect implements prometheus.Collector
func (c *CustomCollector) Collect(ch chan<- prometheus.Metric) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if c.postgres != nil {
		c.collectRunStats(ctx, ch, c.totalRuns, `
			SELECT status, COUNT(*) AS count
			FROM research_runs
			GROUP BY status
		`)
		c.collectRunStats(ctx, ch, c.recentRuns, `
			SELECT status, COUNT(*) AS count
			FROM research_runs
			WHERE started_at > NOW() - INTERVAL '24 hours'
			GROUP BY status
		`)
	}

	if c.redis != nil {
		c.collectCacheEntries(ctx, ch)
	}
}

func (c *CustomCollector) collectRunStats(ctx context.Context, ch chan<- prometheus.Metric, desc *prometheus.Desc, query string) {
	type RunStat struct {
		Status string `db:"status"`
		Count  int    `db:"count"`
	}

	var stats []RunStat
	if err := c.postgres.SelectContext(ctx, &stats, query); err != nil {
		c.log.Warnw("Failed to collect run stats", "error", err)
		return
	}

	for _, stat := range stats {
		ch <- prometheus.MustNewConstMetric(desc, prometheus.GaugeValue, float64(stat.Count), stat.Status)
	}
}

func (c *CustomCollector) collectCacheEntries(ctx context.Context, ch chan<- prometheus.Metric) {
	for cache, pattern := range cachePrefixes {
		var count int
		iter := c.redis.Scan(ctx, 0, pattern, 500).Iterator()
		for iter.Next(ctx) {
			count++
		}
		if err := iter.Err(); err != nil {
			c.log.Warnw("Failed to count cache entries", "cache", cache, "error", err)
			continue
		}
		ch <- prometheus.MustNewConstMetric(c.cacheEntries, prometheus.GaugeValue, float64(count), cache)
	}
}

// RegisterCustomCollector registers the custom collector
func RegisterCustomCollector(collector *CustomCollector) {
	prometheus.MustRegister(collector)
}
