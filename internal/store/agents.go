package store

import (
	"context"
	"database/sql"
	"encoding/json"
)

// UpsertStateParams holds the fields to merge into an AgentState row. Empty
// string / nil fields leave the existing column untouched, except
// LastActivity and LastHeartbeat which are set explicitly via their own
// helper methods below (heartbeats and activity pings are high-frequency
// and benefit from a dedicated fast path).
type UpsertStateParams struct {
	Status           AgentStatus
	CurrentTaskID    *string // pointer so "" (clear) is distinguishable from unset
	WorkloadScore    *float64
	PerformanceScore *float64
	Capabilities     []string
}

// UpsertState merges the given fields into bee's AgentState row.
func (s *Store) UpsertState(ctx context.Context, bee string, p UpsertStateParams) error {
	return s.withRetry(ctx, "UpsertState", func(tx *sql.Tx) error {
		sets := []string{}
		args := []interface{}{}

		if p.Status != "" {
			sets = append(sets, "status = ?")
			args = append(args, string(p.Status))
		}
		if p.CurrentTaskID != nil {
			sets = append(sets, "current_task_id = ?")
			args = append(args, nullableString(*p.CurrentTaskID))
		}
		if p.WorkloadScore != nil {
			sets = append(sets, "workload_score = ?")
			args = append(args, *p.WorkloadScore)
		}
		if p.PerformanceScore != nil {
			sets = append(sets, "performance_score = ?")
			args = append(args, *p.PerformanceScore)
		}
		if p.Capabilities != nil {
			b, err := json.Marshal(p.Capabilities)
			if err != nil {
				return err
			}
			sets = append(sets, "capabilities = ?")
			args = append(args, string(b))
		}
		if len(sets) == 0 {
			return nil
		}

		q := "UPDATE agent_state SET " + joinComma(sets) + " WHERE bee_name = ?"
		args = append(args, bee)
		_, err := tx.ExecContext(ctx, q, args...)
		return err
	})
}

func joinComma(parts []string) string {
	out := ""
	for i, p := range parts {
		if i > 0 {
			out += ", "
		}
		out += p
	}
	return out
}

// Touch updates last_activity (always) and, if heartbeat is true,
// last_heartbeat as well — called on any inbound/outbound traffic for a bee.
func (s *Store) Touch(ctx context.Context, bee string, heartbeat bool) error {
	return s.withRetry(ctx, "Touch", func(tx *sql.Tx) error {
		ts := now()
		if heartbeat {
			_, err := tx.ExecContext(ctx, `UPDATE agent_state SET last_activity = ?, last_heartbeat = ? WHERE bee_name = ?`, ts, ts, bee)
			return err
		}
		_, err := tx.ExecContext(ctx, `UPDATE agent_state SET last_activity = ? WHERE bee_name = ?`, ts, bee)
		return err
	})
}

// GetState returns bee's AgentState, or *NotFoundError if the row is
// missing (should not happen after seeding at install time).
func (s *Store) GetState(ctx context.Context, bee string) (*AgentState, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT bee_name, status, COALESCE(current_task_id,''), last_activity, last_heartbeat,
		       workload_score, performance_score, capabilities
		FROM agent_state WHERE bee_name = ?`, bee)
	st, err := scanAgentState(row)
	if err == sql.ErrNoRows {
		return nil, &NotFoundError{Kind: "agent", ID: bee}
	}
	return st, err
}

func scanAgentState(row *sql.Row) (*AgentState, error) {
	var (
		a                              AgentState
		status                         string
		lastActivity, lastHeartbeat    string
		capabilitiesJSON               string
	)
	if err := row.Scan(&a.BeeName, &status, &a.CurrentTaskID, &lastActivity, &lastHeartbeat,
		&a.WorkloadScore, &a.PerformanceScore, &capabilitiesJSON); err != nil {
		return nil, err
	}
	a.Status = AgentStatus(status)

	var err error
	if a.LastActivity, err = parseTime(lastActivity); err != nil {
		return nil, err
	}
	if a.LastHeartbeat, err = parseTime(lastHeartbeat); err != nil {
		return nil, err
	}
	if capabilitiesJSON != "" {
		_ = json.Unmarshal([]byte(capabilitiesJSON), &a.Capabilities)
	}
	return &a, nil
}

// ListStates returns every bee's AgentState, ordered by bee name.
func (s *Store) ListStates(ctx context.Context) ([]*AgentState, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT bee_name, status, COALESCE(current_task_id,''), last_activity, last_heartbeat,
		       workload_score, performance_score, capabilities
		FROM agent_state ORDER BY bee_name`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*AgentState
	for rows.Next() {
		var (
			a                            AgentState
			status                       string
			lastActivity, lastHeartbeat  string
			capabilitiesJSON             string
		)
		if err := rows.Scan(&a.BeeName, &status, &a.CurrentTaskID, &lastActivity, &lastHeartbeat,
			&a.WorkloadScore, &a.PerformanceScore, &capabilitiesJSON); err != nil {
			return nil, err
		}
		a.Status = AgentStatus(status)
		if a.LastActivity, err = parseTime(lastActivity); err != nil {
			return nil, err
		}
		if a.LastHeartbeat, err = parseTime(lastHeartbeat); err != nil {
			return nil, err
		}
		if capabilitiesJSON != "" {
			_ = json.Unmarshal([]byte(capabilitiesJSON), &a.Capabilities)
		}
		out = append(out, &a)
	}
	return out, rows.Err()
}
