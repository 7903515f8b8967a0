package store

import (
	"context"
	"database/sql"
)

// RecordViolationAlert tries to claim the (fromBee, windowStart) pair in
// protocol_violation_alerts. It returns true when the row was newly
// inserted — the caller should emit exactly one alert in that case — and
// false when the pair was already claimed this window, enforcing the
// per-sender-per-window rate limit from spec §4.D/§9.
func (s *Store) RecordViolationAlert(ctx context.Context, fromBee, windowStart string) (bool, error) {
	var claimed bool
	err := s.withRetry(ctx, "RecordViolationAlert", func(tx *sql.Tx) error {
		res, err := tx.ExecContext(ctx, `
			INSERT OR IGNORE INTO protocol_violation_alerts (from_bee, window_start) VALUES (?, ?)`,
			fromBee, windowStart)
		if err != nil {
			return err
		}
		n, err := res.RowsAffected()
		if err != nil {
			return err
		}
		claimed = n > 0
		return nil
	})
	return claimed, err
}
