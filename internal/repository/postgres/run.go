package postgres

import (
	"context"
	"database/sql"
	"time"

	"github.com/google/uuid"

	"equitydesk/internal/domain/run"
	"equitydesk/internal/metrics"
	"equitydesk/pkg/errors"
)

// Compile-time check
var _ run.Repository = (*RunRepository)(nil)

// RunRepository implements run.Repository using sqlx
type RunRepository struct {
	db DBTX
}

// NewRunRepository creates a new run repository over a *sqlx.DB or *sqlx.Tx
func NewRunRepository(db DBTX) *RunRepository {
	return &RunRepository{db: db}
}

// Create inserts a new run
func (r *RunRepository) Create(ctx context.Context, entry *run.Run) error {
	start := time.Now()
	query := `
		INSERT INTO research_runs (
			id, ticker, company_name, market, exchange_preference,
			investor_profile, horizon_days, trigger, status, model,
			sections, report, error, started_at, finished_at
		) VALUES (
			:id, :ticker, :company_name, :market, :exchange_preference,
			:investor_profile, :horizon_days, :trigger, :status, :model,
			:sections, :report, :error, :started_at, :finished_at
		)`

	_, err := r.db.NamedExecContext(ctx, query, withSections(entry))
	metrics.RecordDBQuery("postgres", "run_create", time.Since(start), err)
	return errors.Wrap(err, "insert research run")
}

// Update stores the outcome fields of a run
func (r *RunRepository) Update(ctx context.Context, entry *run.Run) error {
	start := time.Now()
	query := `
		UPDATE research_runs SET
			status = :status,
			model = :model,
			sections = :sections,
			report = :report,
			error = :error,
			finished_at = :finished_at
		WHERE id = :id`

	res, err := r.db.NamedExecContext(ctx, query, withSections(entry))
	metrics.RecordDBQuery("postgres", "run_update", time.Since(start), err)
	if err != nil {
		return errors.Wrap(err, "update research run")
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return errors.Wrapf(errors.ErrNotFound, "research run %s", entry.ID)
	}
	return nil
}

// GetByID retrieves a run by ID
func (r *RunRepository) GetByID(ctx context.Context, id uuid.UUID) (*run.Run, error) {
	start := time.Now()
	var entry run.Run

	query := `SELECT * FROM research_runs WHERE id = $1`

	err := r.db.GetContext(ctx, &entry, query, id)
	metrics.RecordDBQuery("postgres", "run_get", time.Since(start), err)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, errors.Wrapf(errors.ErrNotFound, "research run %s", id)
	}
	if err != nil {
		return nil, errors.Wrap(err, "get research run")
	}

	return &entry, nil
}

// ListRecent returns the latest runs, newest first. An empty ticker lists all tickers.
func (r *RunRepository) ListRecent(ctx context.Context, ticker string, limit int) ([]run.Run, error) {
	start := time.Now()
	if limit <= 0 {
		limit = 20
	}
	var entries []run.Run

	query := `
		SELECT * FROM research_runs
		WHERE ($1 = '' OR ticker = $1)
		ORDER BY started_at DESC
		LIMIT $2`

	err := r.db.SelectContext(ctx, &entries, query, ticker, limit)
	metrics.RecordDBQuery("postgres", "run_list", time.Since(start), err)
	if err != nil {
		return nil, errors.Wrap(err, "list research runs")
	}

	return entries, nil
}

// withSections defaults empty sections to a JSON object for the NOT NULL column
func withSections(entry *run.Run) *run.Run {
	if len(entry.Sections) > 0 {
		return entry
	}
	copied := *entry
	copied.Sections = []byte("{}")
	return &copied
}
