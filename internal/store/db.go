package store

import (
	"context"
	"database/sql"
	"fmt"

	_ "modernc.org/sqlite" // pure-Go sqlite driver, no cgo
)

// openDB opens a SQLite database at path and enforces production-safe
// defaults: WAL journal mode and a busy timeout, then verifies the
// connection with a ping, matching the teacher's openDB idiom.
func openDB(ctx context.Context, path string) (*sql.DB, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite %s: %w", path, err)
	}

	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping sqlite %s: %w", path, err)
	}

	for _, pragma := range []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout=5000",
		"PRAGMA foreign_keys=ON",
	} {
		if _, err := db.ExecContext(ctx, pragma); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("set pragma %q on %s: %w", pragma, path, err)
		}
	}

	return db, nil
}

// migrate applies schemaDDL then any pending migrations, gated by
// schema_meta.version. Startup aborts (returns an error) if the database's
// recorded version is higher than this binary's schemaVersion.
func migrate(ctx context.Context, db *sql.DB) error {
	if _, err := db.ExecContext(ctx, schemaDDL); err != nil {
		return fmt.Errorf("apply base schema: %w", err)
	}

	var current int
	row := db.QueryRowContext(ctx, "SELECT version FROM schema_meta WHERE id = 1")
	if err := row.Scan(&current); err != nil {
		return fmt.Errorf("read schema version: %w", err)
	}

	if current > schemaVersion {
		return fmt.Errorf("database schema version %d is newer than this binary supports (%d)", current, schemaVersion)
	}

	for _, m := range migrations {
		if m.Version <= current {
			continue
		}
		if _, err := db.ExecContext(ctx, m.DDL); err != nil {
			return fmt.Errorf("apply migration %d: %w", m.Version, err)
		}
		if _, err := db.ExecContext(ctx, "UPDATE schema_meta SET version = ? WHERE id = 1", m.Version); err != nil {
			return fmt.Errorf("record migration %d: %w", m.Version, err)
		}
		current = m.Version
	}

	return nil
}
