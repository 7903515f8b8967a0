package store

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/google/uuid"
)

// CreateTaskParams holds the fields needed to create a task row. TaskID is
// assigned by CreateTask if empty.
type CreateTaskParams struct {
	TaskID       string
	Title        string
	Description  string
	Status       TaskStatus
	Priority     Priority
	AssignedTo   string
	CreatedBy    string
	ParentTaskID string
	Metadata     string
}

// CreateTask inserts a new task row, validating non-empty title/description
// and an acyclic parent chain, and appends a "created" ActivityEntry. The
// Task Engine layers assignment and dependency insertion atop this.
func (s *Store) CreateTask(ctx context.Context, p CreateTaskParams) (string, error) {
	if p.Title == "" || p.Description == "" {
		return "", &IntegrityError{Op: "CreateTask", Cause: fmt.Errorf("title and description must be non-empty")}
	}
	if p.TaskID == "" {
		p.TaskID = uuid.NewString()
	}
	if p.Status == "" {
		p.Status = StatusPending
	}
	if p.Priority == "" {
		p.Priority = PriorityMedium
	}
	if p.Metadata == "" {
		p.Metadata = "{}"
	}

	err := s.withRetry(ctx, "CreateTask", func(tx *sql.Tx) error {
		if p.ParentTaskID != "" {
			cyclic, err := parentChainCyclic(ctx, tx, p.TaskID, p.ParentTaskID)
			if err != nil {
				return err
			}
			if cyclic {
				return &IntegrityError{Op: "CreateTask", Cause: fmt.Errorf("parent chain would be cyclic")}
			}
		}

		ts := now()
		_, err := tx.ExecContext(ctx, `
			INSERT INTO tasks (task_id, title, description, status, priority, assigned_to,
			                   created_at, updated_at, created_by, parent_task_id, metadata)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			p.TaskID, p.Title, p.Description, string(p.Status), string(p.Priority),
			nullableString(p.AssignedTo), ts, ts, p.CreatedBy, nullableString(p.ParentTaskID), p.Metadata,
		)
		if err != nil {
			return err
		}

		return appendActivity(ctx, tx, ActivityEntry{
			TaskID:       p.TaskID,
			BeeName:      p.CreatedBy,
			ActivityType: "created",
			Description:  fmt.Sprintf("task %q created", p.Title),
		})
	})
	if err != nil {
		return "", err
	}
	return p.TaskID, nil
}

// parentChainCyclic walks ancestor pointers from parentID looking for
// childID, bounding the walk to the affected subgraph rather than the whole
// table.
func parentChainCyclic(ctx context.Context, tx *sql.Tx, childID, parentID string) (bool, error) {
	current := parentID
	for i := 0; i < 10000; i++ {
		if current == childID {
			return true, nil
		}
		var next sql.NullString
		row := tx.QueryRowContext(ctx, `SELECT parent_task_id FROM tasks WHERE task_id = ?`, current)
		if err := row.Scan(&next); err != nil {
			if err == sql.ErrNoRows {
				return false, nil
			}
			return false, err
		}
		if !next.Valid || next.String == "" {
			return false, nil
		}
		current = next.String
	}
	return true, nil
}

// GetTask fetches a single task by id, or *NotFoundError.
func (s *Store) GetTask(ctx context.Context, taskID string) (*Task, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT task_id, title, description, status, priority, COALESCE(assigned_to,''),
		       created_at, updated_at, COALESCE(started_at,''), COALESCE(completed_at,''),
		       created_by, COALESCE(parent_task_id,''), metadata
		FROM tasks WHERE task_id = ?`, taskID)
	t, err := scanTask(row)
	if err == sql.ErrNoRows {
		return nil, &NotFoundError{Kind: "task", ID: taskID}
	}
	if err != nil {
		return nil, err
	}
	return t, nil
}

func scanTask(row *sql.Row) (*Task, error) {
	var (
		t                                     Task
		status, priority                      string
		createdAt, updatedAt, startedAt, compl string
	)
	if err := row.Scan(&t.TaskID, &t.Title, &t.Description, &status, &priority, &t.AssignedTo,
		&createdAt, &updatedAt, &startedAt, &compl, &t.CreatedBy, &t.ParentTaskID, &t.Metadata); err != nil {
		return nil, err
	}
	t.Status = TaskStatus(status)
	t.Priority = Priority(priority)

	var err error
	if t.CreatedAt, err = parseTime(createdAt); err != nil {
		return nil, err
	}
	if t.UpdatedAt, err = parseTime(updatedAt); err != nil {
		return nil, err
	}
	if startedAt != "" {
		tm, err := parseTime(startedAt)
		if err != nil {
			return nil, err
		}
		t.StartedAt = &tm
	}
	if compl != "" {
		tm, err := parseTime(compl)
		if err != nil {
			return nil, err
		}
		t.CompletedAt = &tm
	}
	return &t, nil
}

// ListTasksFilter narrows ListTasks results; zero-value fields are
// unfiltered.
type ListTasksFilter struct {
	Status     TaskStatus
	AssignedTo string
	ParentID   string
}

// ListTasks returns tasks matching filter, newest created_at first.
func (s *Store) ListTasks(ctx context.Context, filter ListTasksFilter) ([]*Task, error) {
	q := `SELECT task_id, title, description, status, priority, COALESCE(assigned_to,''),
	             created_at, updated_at, COALESCE(started_at,''), COALESCE(completed_at,''),
	             created_by, COALESCE(parent_task_id,''), metadata
	      FROM tasks WHERE 1=1`
	var args []interface{}
	if filter.Status != "" {
		q += " AND status = ?"
		args = append(args, string(filter.Status))
	}
	if filter.AssignedTo != "" {
		q += " AND assigned_to = ?"
		args = append(args, filter.AssignedTo)
	}
	if filter.ParentID != "" {
		q += " AND parent_task_id = ?"
		args = append(args, filter.ParentID)
	}
	q += " ORDER BY created_at DESC"

	rows, err := s.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*Task
	for rows.Next() {
		var (
			t                                     Task
			status, priority                      string
			createdAt, updatedAt, startedAt, compl string
		)
		if err := rows.Scan(&t.TaskID, &t.Title, &t.Description, &status, &priority, &t.AssignedTo,
			&createdAt, &updatedAt, &startedAt, &compl, &t.CreatedBy, &t.ParentTaskID, &t.Metadata); err != nil {
			return nil, err
		}
		t.Status = TaskStatus(status)
		t.Priority = Priority(priority)
		if t.CreatedAt, err = parseTime(createdAt); err != nil {
			return nil, err
		}
		if t.UpdatedAt, err = parseTime(updatedAt); err != nil {
			return nil, err
		}
		if startedAt != "" {
			tm, err := parseTime(startedAt)
			if err != nil {
				return nil, err
			}
			t.StartedAt = &tm
		}
		if compl != "" {
			tm, err := parseTime(compl)
			if err != nil {
				return nil, err
			}
			t.CompletedAt = &tm
		}
		out = append(out, &t)
	}
	return out, rows.Err()
}

// SetStatus updates a task's status, maintaining started_at/completed_at
// per the schema's invariants and appending a status_change ActivityEntry.
// It does not enforce the transition table; the Task Engine does.
func (s *Store) SetStatus(ctx context.Context, taskID string, newStatus TaskStatus, actor, note string) error {
	return s.withRetry(ctx, "SetStatus", func(tx *sql.Tx) error {
		var oldStatus string
		if err := tx.QueryRowContext(ctx, `SELECT status FROM tasks WHERE task_id = ?`, taskID).Scan(&oldStatus); err != nil {
			if err == sql.ErrNoRows {
				return &NotFoundError{Kind: "task", ID: taskID}
			}
			return err
		}

		ts := now()
		set := `status = ?, updated_at = ?`
		args := []interface{}{string(newStatus), ts}
		if newStatus == StatusInProgress {
			set += `, started_at = ?`
			args = append(args, ts)
		}
		if newStatus.Terminal() || newStatus == StatusFailed {
			set += `, completed_at = ?`
			args = append(args, ts)
		}
		args = append(args, taskID)

		if _, err := tx.ExecContext(ctx, `UPDATE tasks SET `+set+` WHERE task_id = ?`, args...); err != nil {
			return err
		}

		desc := fmt.Sprintf("status %s -> %s", oldStatus, newStatus)
		if note != "" {
			desc += ": " + note
		}
		return appendActivity(ctx, tx, ActivityEntry{
			TaskID: taskID, BeeName: actor, ActivityType: "status_change",
			Description: desc, OldValue: oldStatus, NewValue: string(newStatus),
		})
	})
}

// CompareAndSetStatus behaves like SetStatus but only applies when the
// row's current status still equals expectedOld, reported via the returned
// bool. A false return with a nil error means a concurrent writer already
// changed the status; the Task Engine surfaces this as ConflictingTransition
// rather than retrying (spec §4.E "the loser receives ConflictingTransition
// and must re-read and decide").
func (s *Store) CompareAndSetStatus(ctx context.Context, taskID string, expectedOld, newStatus TaskStatus, actor, note string) (bool, error) {
	var applied bool
	err := s.withRetry(ctx, "CompareAndSetStatus", func(tx *sql.Tx) error {
		var oldStatus string
		if err := tx.QueryRowContext(ctx, `SELECT status FROM tasks WHERE task_id = ?`, taskID).Scan(&oldStatus); err != nil {
			if err == sql.ErrNoRows {
				return &NotFoundError{Kind: "task", ID: taskID}
			}
			return err
		}
		if oldStatus != string(expectedOld) {
			applied = false
			return nil
		}

		ts := now()
		set := `status = ?, updated_at = ?`
		args := []interface{}{string(newStatus), ts}
		if newStatus == StatusInProgress {
			set += `, started_at = ?`
			args = append(args, ts)
		}
		if newStatus.Terminal() || newStatus == StatusFailed {
			set += `, completed_at = ?`
			args = append(args, ts)
		}
		args = append(args, taskID)

		res, err := tx.ExecContext(ctx, `UPDATE tasks SET `+set+` WHERE task_id = ? AND status = ?`,
			append(args, string(expectedOld))...)
		if err != nil {
			return err
		}
		n, err := res.RowsAffected()
		if err != nil {
			return err
		}
		if n == 0 {
			applied = false
			return nil
		}
		applied = true

		desc := fmt.Sprintf("status %s -> %s", oldStatus, newStatus)
		if note != "" {
			desc += ": " + note
		}
		return appendActivity(ctx, tx, ActivityEntry{
			TaskID: taskID, BeeName: actor, ActivityType: "status_change",
			Description: desc, OldValue: oldStatus, NewValue: string(newStatus),
		})
	})
	return applied, err
}

// AssignTaskParams holds the arguments to AssignTaskTx.
type AssignTaskParams struct {
	Assignee string
	Assigner string
	Role     AssignmentRole
	Note     string
}

// AssignTaskTx performs one assign() call atomically per spec.md §4.E
// ("in a single transaction: updates tasks.assigned_to, inserts an
// Assignment row, appends assignment_change activity"): the existence
// check, the role=primary conflict check, the assigned_to update, the
// Assignment insert, and the activity append all happen inside one
// withRetry transaction. That closes two gaps a pair of independent
// transactions would leave open: a crash between steps can no longer
// strand assigned_to without a matching Assignment row, and two concurrent
// role=primary assigns can no longer both observe no-current-primary and
// both win, since the read and the write share one transaction under
// SQLite's single-writer model.
//
// When role=primary and an active primary other than Assignee already
// holds the task, conflict is that bee's name and the transaction performs
// no write; the caller surfaces AlreadyAssigned. assignmentID is the new
// Assignment row's id.
func (s *Store) AssignTaskTx(ctx context.Context, taskID string, p AssignTaskParams) (conflict string, assignmentID int64, err error) {
	err = s.withRetry(ctx, "AssignTaskTx", func(tx *sql.Tx) error {
		conflict = ""

		var oldAssignee sql.NullString
		if scanErr := tx.QueryRowContext(ctx, `SELECT assigned_to FROM tasks WHERE task_id = ?`, taskID).Scan(&oldAssignee); scanErr != nil {
			if scanErr == sql.ErrNoRows {
				return &NotFoundError{Kind: "task", ID: taskID}
			}
			return scanErr
		}

		if p.Role == RolePrimary {
			var current string
			row := tx.QueryRowContext(ctx, `
				SELECT assignee FROM assignments
				WHERE task_id = ? AND role = 'primary' AND status = 'active'
				ORDER BY assigned_at DESC LIMIT 1`, taskID)
			scanErr := row.Scan(&current)
			if scanErr != nil && scanErr != sql.ErrNoRows {
				return scanErr
			}
			if current != "" && current != p.Assignee {
				conflict = current
				return nil
			}

			ts := now()
			if _, execErr := tx.ExecContext(ctx, `UPDATE tasks SET assigned_to = ?, updated_at = ? WHERE task_id = ?`,
				nullableString(p.Assignee), ts, taskID); execErr != nil {
				return execErr
			}
		}

		desc := fmt.Sprintf("assigned_to %s -> %s", oldAssignee.String, p.Assignee)
		if p.Note != "" {
			desc += ": " + p.Note
		}
		if actErr := appendActivity(ctx, tx, ActivityEntry{
			TaskID: taskID, BeeName: p.Assigner, ActivityType: "assignment_change",
			Description: desc, OldValue: oldAssignee.String, NewValue: p.Assignee,
		}); actErr != nil {
			return actErr
		}

		res, execErr := tx.ExecContext(ctx, `
			INSERT INTO assignments (task_id, assignee, assigner, role, status, assigned_at)
			VALUES (?, ?, ?, ?, 'active', ?)`,
			taskID, p.Assignee, p.Assigner, string(p.Role), now())
		if execErr != nil {
			return execErr
		}
		assignmentID, err = res.LastInsertId()
		return err
	})
	return conflict, assignmentID, err
}

// SetAssignee updates a task's assigned_to and appends an
// assignment_change ActivityEntry. Exposed as a standalone primitive for
// direct Store callers/tests; the Task Engine's Assign operation goes
// through AssignTaskTx instead, which composes this update with the
// Assignment insert in one transaction.
func (s *Store) SetAssignee(ctx context.Context, taskID, bee, actor, note string) error {
	return s.withRetry(ctx, "SetAssignee", func(tx *sql.Tx) error {
		var oldAssignee sql.NullString
		if err := tx.QueryRowContext(ctx, `SELECT assigned_to FROM tasks WHERE task_id = ?`, taskID).Scan(&oldAssignee); err != nil {
			if err == sql.ErrNoRows {
				return &NotFoundError{Kind: "task", ID: taskID}
			}
			return err
		}

		ts := now()
		if _, err := tx.ExecContext(ctx, `UPDATE tasks SET assigned_to = ?, updated_at = ? WHERE task_id = ?`,
			nullableString(bee), ts, taskID); err != nil {
			return err
		}

		desc := fmt.Sprintf("assigned_to %s -> %s", oldAssignee.String, bee)
		if note != "" {
			desc += ": " + note
		}
		return appendActivity(ctx, tx, ActivityEntry{
			TaskID: taskID, BeeName: actor, ActivityType: "assignment_change",
			Description: desc, OldValue: oldAssignee.String, NewValue: bee,
		})
	})
}

// InsertAssignment records an auxiliary Assignment row in its own
// transaction. The Task Engine's Assign goes through AssignTaskTx instead.
func (s *Store) InsertAssignment(ctx context.Context, a Assignment) (int64, error) {
	var id int64
	err := s.withRetry(ctx, "InsertAssignment", func(tx *sql.Tx) error {
		res, err := tx.ExecContext(ctx, `
			INSERT INTO assignments (task_id, assignee, assigner, role, status, assigned_at)
			VALUES (?, ?, ?, ?, 'active', ?)`,
			a.TaskID, a.Assignee, a.Assigner, string(a.Role), now())
		if err != nil {
			return err
		}
		id, err = res.LastInsertId()
		return err
	})
	return id, err
}

// PrimaryAssignee returns the current primary assignee for taskID, or ""
// if none. The Task Engine's AlreadyAssigned check runs inside
// AssignTaskTx, not through this method.
func (s *Store) PrimaryAssignee(ctx context.Context, taskID string) (string, error) {
	var assignee string
	row := s.db.QueryRowContext(ctx, `
		SELECT assignee FROM assignments
		WHERE task_id = ? AND role = 'primary' AND status = 'active'
		ORDER BY assigned_at DESC LIMIT 1`, taskID)
	err := row.Scan(&assignee)
	if err == sql.ErrNoRows {
		return "", nil
	}
	return assignee, err
}

// DeactivateAssignment marks an existing active assignment as superseded.
// The Task Engine's Assign does not call it.
func (s *Store) DeactivateAssignment(ctx context.Context, taskID, assignee string, role AssignmentRole) error {
	return s.withRetry(ctx, "DeactivateAssignment", func(tx *sql.Tx) error {
		_, err := tx.ExecContext(ctx, `
			UPDATE assignments SET status = 'superseded', completed_at = ?
			WHERE task_id = ? AND assignee = ? AND role = ? AND status = 'active'`,
			now(), taskID, assignee, string(role))
		return err
	})
}

// InsertDependency records a (task_id, depends_on_task_id) edge after
// checking both tasks exist and that the edge would not create a cycle.
func (s *Store) InsertDependency(ctx context.Context, d TaskDependency) error {
	return s.withRetry(ctx, "InsertDependency", func(tx *sql.Tx) error {
		for _, id := range []string{d.TaskID, d.DependsOnTaskID} {
			var exists int
			if err := tx.QueryRowContext(ctx, `SELECT 1 FROM tasks WHERE task_id = ?`, id).Scan(&exists); err != nil {
				if err == sql.ErrNoRows {
					return &NotFoundError{Kind: "task", ID: id}
				}
				return err
			}
		}

		cyclic, err := dependencyChainCyclic(ctx, tx, d.TaskID, d.DependsOnTaskID)
		if err != nil {
			return err
		}
		if cyclic {
			return &IntegrityError{Op: "InsertDependency", Cause: fmt.Errorf("cyclic dependency")}
		}

		_, err = tx.ExecContext(ctx, `
			INSERT INTO task_dependencies (task_id, depends_on_task_id, type, created_at)
			VALUES (?, ?, ?, ?)`, d.TaskID, d.DependsOnTaskID, string(d.Type), now())
		return err
	})
}

// dependencyChainCyclic reports whether adding an edge task->dependsOn
// would create a cycle, by walking forward from dependsOn looking for task.
func dependencyChainCyclic(ctx context.Context, tx *sql.Tx, taskID, dependsOnID string) (bool, error) {
	if taskID == dependsOnID {
		return true, nil
	}
	visited := map[string]bool{dependsOnID: true}
	frontier := []string{dependsOnID}

	for len(frontier) > 0 {
		next := []string{}
		for _, n := range frontier {
			rows, err := tx.QueryContext(ctx, `SELECT depends_on_task_id FROM task_dependencies WHERE task_id = ?`, n)
			if err != nil {
				return false, err
			}
			for rows.Next() {
				var dep string
				if err := rows.Scan(&dep); err != nil {
					rows.Close()
					return false, err
				}
				if dep == taskID {
					rows.Close()
					return true, nil
				}
				if !visited[dep] {
					visited[dep] = true
					next = append(next, dep)
				}
			}
			rows.Close()
			if err := rows.Err(); err != nil {
				return false, err
			}
		}
		frontier = next
	}
	return false, nil
}

// UnresolvedBlockers returns the depends_on_task_id values for every
// 'blocks' dependency of taskID whose target task is not yet completed.
func (s *Store) UnresolvedBlockers(ctx context.Context, taskID string) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT d.depends_on_task_id
		FROM task_dependencies d
		JOIN tasks t ON t.task_id = d.depends_on_task_id
		WHERE d.task_id = ? AND d.type = 'blocks' AND t.status != 'completed'`, taskID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		out = append(out, id)
	}
	return out, rows.Err()
}

// Descendants returns every task transitively parented by taskID.
func (s *Store) Descendants(ctx context.Context, taskID string) ([]string, error) {
	var out []string
	frontier := []string{taskID}
	for len(frontier) > 0 {
		var next []string
		for _, id := range frontier {
			rows, err := s.db.QueryContext(ctx, `SELECT task_id FROM tasks WHERE parent_task_id = ?`, id)
			if err != nil {
				return nil, err
			}
			for rows.Next() {
				var childID string
				if err := rows.Scan(&childID); err != nil {
					rows.Close()
					return nil, err
				}
				out = append(out, childID)
				next = append(next, childID)
			}
			rows.Close()
			if err := rows.Err(); err != nil {
				return nil, err
			}
		}
		frontier = next
	}
	return out, nil
}
