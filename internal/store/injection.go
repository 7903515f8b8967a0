package store

import (
	"context"
	"database/sql"

	"github.com/beehive-swarm/beehive/internal/inject"
)

// AppendInjection persists one InjectionLogEntry. It implements
// inject.Logger so the Injector can log every delivery attempt without
// internal/inject depending on internal/store. Never mutated or deleted
// after insert.
func (s *Store) AppendInjection(ctx context.Context, e inject.Entry) error {
	return s.withRetry(ctx, "AppendInjection", func(tx *sql.Tx) error {
		_, err := tx.ExecContext(ctx, `
			INSERT INTO injection_log (session, pane, payload_hash, type, sender, metadata, dry_run, outcome, created_at)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			e.Session, string(e.Pane), e.PayloadHash, nullableString(e.Type),
			nullableString(string(e.Sender)), nullableString(e.Metadata),
			boolToInt(e.DryRun), string(e.Outcome), now())
		return err
	})
}

// InjectionLogEntryRow is one row of the injection_log table, as read back
// by tests and the "logs" CLI surface.
type InjectionLogEntryRow struct {
	ID          int64
	Session     string
	Pane        string
	PayloadHash string
	Type        string
	Sender      string
	Metadata    string
	DryRun      bool
	Outcome     string
	CreatedAt   string
}

// InjectionLog returns every injection_log row, oldest first. Intended for
// tests and the beekeeper-facing "logs" surface; the live pane output itself
// is delegated to the multiplexer, not replayed from this log.
func (s *Store) InjectionLog(ctx context.Context) ([]InjectionLogEntryRow, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, session, pane, payload_hash, COALESCE(type,''), COALESCE(sender,''),
		       COALESCE(metadata,''), dry_run, outcome, created_at
		FROM injection_log ORDER BY id ASC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []InjectionLogEntryRow
	for rows.Next() {
		var r InjectionLogEntryRow
		var dryRunInt int
		if err := rows.Scan(&r.ID, &r.Session, &r.Pane, &r.PayloadHash, &r.Type, &r.Sender,
			&r.Metadata, &dryRunInt, &r.Outcome, &r.CreatedAt); err != nil {
			return nil, err
		}
		r.DryRun = dryRunInt != 0
		out = append(out, r)
	}
	return out, rows.Err()
}
