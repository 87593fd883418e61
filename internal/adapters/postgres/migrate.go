package postgres

import (
	"context"
	"database/sql"
	"embed"
	"io/fs"
	"sort"

	"equitydesk/pkg/errors"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

// Execer is satisfied by *sqlx.DB and *sqlx.Tx
type Execer interface {
	ExecContext(ctx context.Context, query string, args ...interface{}) (sql.Result, error)
}

// Migrate applies every embedded migration in file name order.
// Migrations are idempotent, so running them on every start is safe.
func Migrate(ctx context.Context, db Execer) error {
	names, err := fs.Glob(migrationsFS, "migrations/*.sql")
	if err != nil {
		return errors.Wrap(err, "list migrations")
	}
	sort.Strings(names)

	for _, name := range names {
		body, err := migrationsFS.ReadFile(name)
		if err != nil {
			return errors.Wrapf(err, "read migration %s", name)
		}
		if _, err := db.ExecContext(ctx, string(body)); err != nil {
			return errors.Wrapf(err, "apply migration %s", name)
		}
	}
	return nil
}

// Migrate applies embedded migrations on this client's connection
func (c *Client) Migrate(ctx context.Context) error {
	return Migrate(ctx, c.db)
}
