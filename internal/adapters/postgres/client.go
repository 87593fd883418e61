package postgres

import (
	"context"
	"time"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq" // PostgreSQL driver

	"equitydesk/internal/adapters/config"
	"equitydesk/internal/metrics"
	"equitydesk/pkg/errors"
)

const connectTimeout = 10 * time.Second

// Client owns the run-history connection pool
type Client struct {
	db *sqlx.DB
}

// NewClient opens the pool and pings it. An unreachable server is reported as
// ErrUnavailable so startup can tell it apart from a bad DSN.
func NewClient(cfg config.PostgresConfig) (*Client, error) {
	db, err := sqlx.Open("postgres", cfg.DSN())
	if err != nil {
		return nil, errors.Wrap(err, "open postgres")
	}

	// One run writes two rows; a small pool is plenty
	maxConns := cfg.MaxConns
	if maxConns < 1 {
		maxConns = 4
	}
	db.SetMaxOpenConns(maxConns)
	db.SetMaxIdleConns((maxConns + 1) / 2)
	db.SetConnMaxLifetime(time.Hour)
	db.SetConnMaxIdleTime(15 * time.Minute)

	ctx, cancel := context.WithTimeout(context.Background(), connectTimeout)
	defer cancel()
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, errors.Wrapf(errors.ErrUnavailable, "postgres %s:%d/%s: %v", cfg.Host, cfg.Port, cfg.Database, err)
	}

	return &Client{db: db}, nil
}

// DB returns the underlying pool
func (c *Client) DB() *sqlx.DB {
	return c.db
}

// Close closes the pool
func (c *Client) Close() error {
	return c.db.Close()
}

// Health pings the database; used by the readiness probe
func (c *Client) Health(ctx context.Context) error {
	start := time.Now()
	err := c.db.PingContext(ctx)
	metrics.RecordDBQuery("postgres", "ping", time.Since(start), err)
	return err
}
