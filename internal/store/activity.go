package store

import (
	"context"
	"database/sql"
)

// appendActivity inserts an ActivityEntry within an open transaction. It is
// the single call site every task-mutating operation routes through, so the
// append-only invariant is unskippable.
func appendActivity(ctx context.Context, tx *sql.Tx, e ActivityEntry) error {
	_, err := tx.ExecContext(ctx, `
		INSERT INTO activity (task_id, bee_name, activity_type, description, old_value, new_value, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		nullableString(e.TaskID), e.BeeName, e.ActivityType, e.Description,
		nullableString(e.OldValue), nullableString(e.NewValue), now())
	return err
}

// AppendActivity inserts an explicit ActivityEntry outside of a task
// mutation (e.g. a note added by a human). Never mutates or deletes an
// existing row.
func (s *Store) AppendActivity(ctx context.Context, e ActivityEntry) error {
	return s.withRetry(ctx, "AppendActivity", func(tx *sql.Tx) error {
		return appendActivity(ctx, tx, e)
	})
}

// TaskActivity returns the activity log for taskID, oldest first.
func (s *Store) TaskActivity(ctx context.Context, taskID string) ([]ActivityEntry, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, COALESCE(task_id,''), bee_name, activity_type, description,
		       COALESCE(old_value,''), COALESCE(new_value,''), created_at
		FROM activity WHERE task_id = ? ORDER BY id ASC`, taskID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []ActivityEntry
	for rows.Next() {
		var e ActivityEntry
		var createdAt string
		if err := rows.Scan(&e.ID, &e.TaskID, &e.BeeName, &e.ActivityType, &e.Description,
			&e.OldValue, &e.NewValue, &createdAt); err != nil {
			return nil, err
		}
		if e.CreatedAt, err = parseTime(createdAt); err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

// ActivityCount returns the total number of activity rows, used by tests
// asserting the append-only invariant never decreases.
func (s *Store) ActivityCount(ctx context.Context) (int, error) {
	var n int
	err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM activity`).Scan(&n)
	return n, err
}
