// Package store implements the durable, transactional Store (component C):
// tasks, dependencies, assignments, messages, agent state, and the two
// append-only logs (activity, injection), backed by SQLite via
// modernc.org/sqlite. Every public operation is atomic; the Store owns the
// trigger-like invariants (timestamp maintenance, activity appends) so they
// are unskippable from call sites.
package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"math/rand"
	"strings"
	"time"

	"github.com/beehive-swarm/beehive/internal/beename"
)

// maxRetries bounds the exponential backoff applied to StoreTransient
// faults, per spec §5/§7.
const maxRetries = 5

// Store is the durable state backing every other component. It is safe for
// concurrent use; SQLite's own transaction manager serializes writers to a
// single row, and WAL mode lets readers see a consistent snapshot.
type Store struct {
	db *sql.DB
}

// Open opens (or creates) the database at path, applies the schema and any
// pending migrations, and seeds one AgentState row per known bee if the
// table was just created.
func Open(ctx context.Context, path string) (*Store, error) {
	db, err := openDB(ctx, path)
	if err != nil {
		return nil, err
	}

	if err := migrate(ctx, db); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}

	s := &Store{db: db}
	if err := s.seedAgents(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("seed agents: %w", err)
	}
	return s, nil
}

// Close releases the underlying database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) seedAgents(ctx context.Context) error {
	for _, bee := range beename.Bees {
		_, err := s.db.ExecContext(ctx,
			`INSERT OR IGNORE INTO agent_state (bee_name, status) VALUES (?, 'idle')`,
			string(bee))
		if err != nil {
			return err
		}
	}
	return nil
}

// withRetry runs fn inside a transaction, making at most maxRetries attempts
// with exponential backoff while the failure is SQLITE_BUSY/LOCKED. A
// constraint violation is returned as IntegrityError, busy failures on every
// attempt as UnavailableError, and any other error unwrapped.
func (s *Store) withRetry(ctx context.Context, op string, fn func(tx *sql.Tx) error) error {
	var lastErr error
	for attempt := 0; attempt < maxRetries; attempt++ {
		if attempt > 0 {
			backoff := time.Duration(1<<uint(attempt-1)) * 20 * time.Millisecond
			backoff += time.Duration(rand.Intn(10)) * time.Millisecond
			select {
			case <-time.After(backoff):
			case <-ctx.Done():
				return ctx.Err()
			}
		}

		err := s.runTx(ctx, fn)
		if err == nil {
			return nil
		}
		if isIntegrityViolation(err) {
			return &IntegrityError{Op: op, Cause: err}
		}
		if !isTransient(err) {
			return err
		}
		lastErr = err
	}
	return &UnavailableError{Op: op, Attempts: maxRetries, Cause: lastErr}
}

func (s *Store) runTx(ctx context.Context, fn func(tx *sql.Tx) error) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	if err := fn(tx); err != nil {
		_ = tx.Rollback()
		return err
	}
	return tx.Commit()
}

func isTransient(err error) bool {
	msg := err.Error()
	return strings.Contains(msg, "database is locked") || strings.Contains(msg, "SQLITE_BUSY") || strings.Contains(msg, "busy")
}

func isIntegrityViolation(err error) bool {
	msg := err.Error()
	return strings.Contains(msg, "CHECK constraint") ||
		strings.Contains(msg, "FOREIGN KEY constraint") ||
		strings.Contains(msg, "UNIQUE constraint") ||
		strings.Contains(msg, "NOT NULL constraint")
}

// now returns the current time formatted the way the schema's default
// timestamps are written, so application-set timestamps sort correctly
// alongside SQLite's own strftime defaults.
func now() string {
	return time.Now().UTC().Format("2006-01-02T15:04:05.000Z")
}

// parseTime parses a timestamp written by now() or by SQLite's
// strftime('%Y-%m-%dT%H:%M:%fZ','now') default, falling back to RFC3339 for
// rows written by other tools, matching the teacher's two-step parse idiom.
func parseTime(s string) (time.Time, error) {
	if s == "" {
		return time.Time{}, nil
	}
	if t, err := time.Parse("2006-01-02T15:04:05.000Z", s); err == nil {
		return t, nil
	}
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t, nil
	}
	return time.Time{}, fmt.Errorf("parse timestamp %q", s)
}

// nullableString returns nil for an empty string, else s, so optional TEXT
// columns are stored as NULL rather than "".
func nullableString(s string) interface{} {
	if s == "" {
		return nil
	}
	return s
}

var errNoRows = sql.ErrNoRows

// IsNotFound reports whether err represents a missing row.
func IsNotFound(err error) bool {
	var nfe *NotFoundError
	return errors.As(err, &nfe) || errors.Is(err, errNoRows)
}
