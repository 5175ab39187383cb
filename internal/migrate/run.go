// Package migrate applies the storefront schema: accounts, the role and
// permission tables behind access control, and remember-token storage. The
// .sql files are embedded so a deployed binary migrates itself on start.
package migrate

import (
	"context"
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"strings"
)

//go:embed migrations/*.sql
var schemaFS embed.FS

// migration is one embedded .sql file; version is the filename without its
// extension and orders application lexically.
type migration struct {
	version string
	file    string
}

// Run brings the schema up to date. Applied versions are tracked in
// schema_migrations, so calling Run repeatedly is harmless.
func Run(ctx context.Context, db *sql.DB) error {
	if _, err := db.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS schema_migrations (
			version TEXT PRIMARY KEY,
			applied_at TIMESTAMPTZ NOT NULL DEFAULT now()
		)`); err != nil {
		return fmt.Errorf("create schema_migrations table: %w", err)
	}

	ms, err := loadMigrations()
	if err != nil {
		return err
	}
	for _, m := range ms {
		applied, err := alreadyApplied(ctx, db, m)
		if err != nil {
			return err
		}
		if applied {
			continue
		}
		if err := apply(ctx, db, m); err != nil {
			return err
		}
	}
	return nil
}

func loadMigrations() ([]migration, error) {
	entries, err := schemaFS.ReadDir("migrations")
	if err != nil {
		return nil, fmt.Errorf("read embedded migrations: %w", err)
	}

	var ms []migration
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), ".sql") {
			continue
		}
		ms = append(ms, migration{
			version: strings.TrimSuffix(e.Name(), ".sql"),
			file:    e.Name(),
		})
	}
	sort.Slice(ms, func(i, j int) bool { return ms[i].version < ms[j].version })
	return ms, nil
}

func alreadyApplied(ctx context.Context, db *sql.DB, m migration) (bool, error) {
	var exists bool
	err := db.QueryRowContext(ctx,
		`SELECT EXISTS(SELECT 1 FROM schema_migrations WHERE version = $1)`,
		m.version).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("check migration %s: %w", m.file, err)
	}
	return exists, nil
}

// apply runs the migration DDL and records its version in one transaction,
// so a failed migration leaves no partial schema behind.
func apply(ctx context.Context, db *sql.DB, m migration) error {
	ddl, err := schemaFS.ReadFile("migrations/" + m.file)
	if err != nil {
		return fmt.Errorf("read migration %s: %w", m.file, err)
	}

	logger := slog.Default().With("component", "migrations")
	logger.InfoContext(ctx, "applying migration", "version", m.version)

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer func() {
		if rbErr := tx.Rollback(); rbErr != nil && !errors.Is(rbErr, sql.ErrTxDone) {
			logger.ErrorContext(ctx, "migration rollback failed", "error", rbErr, "file", m.file)
		}
	}()

	if _, err := tx.ExecContext(ctx, string(ddl)); err != nil {
		return fmt.Errorf("exec migration %s: %w", m.file, err)
	}
	if _, err := tx.ExecContext(ctx,
		`INSERT INTO schema_migrations (version) VALUES ($1)`, m.version); err != nil {
		return fmt.Errorf("record migration %s: %w", m.file, err)
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit migration %s: %w", m.file, err)
	}
	return nil
}
