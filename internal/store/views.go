package store

import "context"

// ActiveTasks reads the active_tasks view: tasks in {pending, in_progress}
// with their dependency and child counts.
func (s *Store) ActiveTasks(ctx context.Context) ([]ActiveTaskRow, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT task_id, title, status, priority, COALESCE(assigned_to,''), dependency_count, child_count
		FROM active_tasks ORDER BY task_id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []ActiveTaskRow
	for rows.Next() {
		var r ActiveTaskRow
		var status, priority string
		if err := rows.Scan(&r.TaskID, &r.Title, &status, &priority, &r.AssignedTo, &r.DependencyCount, &r.ChildCount); err != nil {
			return nil, err
		}
		r.Status = TaskStatus(status)
		r.Priority = Priority(priority)
		out = append(out, r)
	}
	return out, rows.Err()
}

// PendingMessages reads the pending_messages view: unprocessed, unexpired
// messages ordered by (priority desc, created_at asc).
func (s *Store) PendingMessages(ctx context.Context) ([]*Message, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT message_id, from_bee, to_bee, type, COALESCE(subject,''), content,
		       COALESCE(task_id,''), priority, processed, COALESCE(processed_at,''),
		       created_at, COALESCE(expires_at,''), COALESCE(reply_to,0), sender_cli_used,
		       COALESCE(conversation_id,'')
		FROM pending_messages`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*Message
	for rows.Next() {
		m, err := scanMessageRow(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, m)
	}
	return out, rows.Err()
}

// AgentWorkload reads the agent_workload view: per-bee open task count and
// active assignment count.
func (s *Store) AgentWorkload(ctx context.Context) ([]AgentWorkloadRow, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT bee_name, open_task_count, active_assignment_count
		FROM agent_workload ORDER BY bee_name`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []AgentWorkloadRow
	for rows.Next() {
		var r AgentWorkloadRow
		if err := rows.Scan(&r.BeeName, &r.OpenTaskCount, &r.ActiveAssignmentCount); err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, rows.Err()
}
