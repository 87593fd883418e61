package testsupport

import (
	"context"
	"testing"

	"github.com/jmoiron/sqlx"

	"equitydesk/internal/adapters/config"
	"equitydesk/internal/adapters/postgres"
)

// TestDB is a migrated run-history schema inside a transaction that is
// rolled back when the test ends, so tests never see each other's rows
type TestDB struct {
	client   *postgres.Client
	tx       *sqlx.Tx
	finished bool
}

// OpenTestDB connects with cfg and begins the test transaction. The schema is
// not applied; use NewTestPostgres for that.
func OpenTestDB(t *testing.T, cfg config.PostgresConfig) *TestDB {
	t.Helper()

	client, err := postgres.NewClient(cfg)
	if err != nil {
		t.Fatalf("postgres unavailable: %v", err)
	}

	tx, err := client.DB().BeginTxx(context.Background(), nil)
	if err != nil {
		_ = client.Close()
		t.Fatalf("begin test transaction: %v", err)
	}

	db := &TestDB{client: client, tx: tx}
	t.Cleanup(func() {
		db.Rollback()
		_ = client.Close()
	})
	return db
}

// NewTestPostgres opens a TestDB from the environment and applies the
// embedded migrations inside its transaction
func NewTestPostgres(t *testing.T) *TestDB {
	t.Helper()

	db := OpenTestDB(t, PostgresFromEnv(t))
	if err := postgres.Migrate(context.Background(), db.Tx()); err != nil {
		t.Fatalf("apply migrations: %v", err)
	}
	return db
}

// Tx is the handle repositories under test should use
func (db *TestDB) Tx() *sqlx.Tx {
	return db.tx
}

// DB bypasses the transaction; only rolled-back state is visible through it
func (db *TestDB) DB() *sqlx.DB {
	return db.client.DB()
}

// CountRows counts rows of table inside the test transaction
func (db *TestDB) CountRows(t *testing.T, table string) int {
	t.Helper()

	var n int
	if err := db.tx.QueryRowx("SELECT COUNT(*) FROM " + table).Scan(&n); err != nil {
		t.Fatalf("count %s: %v", table, err)
	}
	return n
}

// Rollback ends the transaction; later calls are no-ops
func (db *TestDB) Rollback() {
	if db.finished {
		return
	}
	_ = db.tx.Rollback()
	db.finished = true
}

// Close rolls back early, for tests that defer it explicitly
func (db *TestDB) Close() {
	db.Rollback()
}
