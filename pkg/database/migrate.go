package database

import (
	"context"
	"embed"
	"fmt"
	"io/fs"
	"path"
	"sort"
	"strings"

	"github.com/jmoiron/sqlx"
	"go.uber.org/zap"
)

//go:embed migrations/*.sql
var migrationFS embed.FS

const migrationDir = "migrations"

// Migrate applies every embedded migration not yet recorded in
// schema_migrations. Each file runs in its own transaction together with its
// version row, so a failed migration leaves no partial record.
func Migrate(ctx context.Context, db *sqlx.DB, logger *zap.Logger) ([]string, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	if _, err := db.ExecContext(ctx, `CREATE TABLE IF NOT EXISTS schema_migrations (
		version TEXT PRIMARY KEY,
		applied_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	)`); err != nil {
		return nil, fmt.Errorf("ensure schema_migrations: %w", err)
	}

	versions, err := Versions()
	if err != nil {
		return nil, err
	}

	applied := make([]string, 0, len(versions))
	for _, version := range versions {
		var count int
		if err := db.GetContext(ctx, &count, `SELECT COUNT(1) FROM schema_migrations WHERE version = $1`, version); err != nil {
			return applied, fmt.Errorf("check migration %s: %w", version, err)
		}
		if count > 0 {
			continue
		}

		body, err := fs.ReadFile(migrationFS, path.Join(migrationDir, version+".sql"))
		if err != nil {
			return applied, fmt.Errorf("read migration %s: %w", version, err)
		}

		tx, err := db.BeginTxx(ctx, nil)
		if err != nil {
			return applied, fmt.Errorf("begin migration %s: %w", version, err)
		}
		if _, err := tx.ExecContext(ctx, string(body)); err != nil {
			_ = tx.Rollback()
			return applied, fmt.Errorf("exec migration %s: %w", version, err)
		}
		if _, err := tx.ExecContext(ctx, `INSERT INTO schema_migrations (version) VALUES ($1)`, version); err != nil {
			_ = tx.Rollback()
			return applied, fmt.Errorf("record migration %s: %w", version, err)
		}
		if err := tx.Commit(); err != nil {
			return applied, fmt.Errorf("commit migration %s: %w", version, err)
		}

		logger.Info("migration applied", zap.String("version", version))
		applied = append(applied, version)
	}

	return applied, nil
}

// Versions lists the embedded migration versions in apply order.
func Versions() ([]string, error) {
	entries, err := fs.ReadDir(migrationFS, migrationDir)
	if err != nil {
		return nil, fmt.Errorf("read migrations dir: %w", err)
	}

	versions := make([]string, 0, len(entries))
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(strings.ToLower(e.Name()), ".sql") {
			continue
		}
		versions = append(versions, strings.TrimSuffix(e.Name(), path.Ext(e.Name())))
	}
	sort.Strings(versions)
	return versions, nil
}
