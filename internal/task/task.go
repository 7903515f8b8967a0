// Package task implements the Task Engine (component E): task lifecycle,
// assignment, dependency handling, and the status transition machine, atop
// the Store. Every operation persists through a single Store transaction.
package task

import (
	"context"
	"fmt"

	"github.com/beehive-swarm/beehive/internal/beename"
	"github.com/beehive-swarm/beehive/internal/store"
)

// Store is the subset of *store.Store the Task Engine depends on.
type Store interface {
	CreateTask(ctx context.Context, p store.CreateTaskParams) (string, error)
	GetTask(ctx context.Context, taskID string) (*store.Task, error)
	ListTasks(ctx context.Context, filter store.ListTasksFilter) ([]*store.Task, error)
	CompareAndSetStatus(ctx context.Context, taskID string, expectedOld, newStatus store.TaskStatus, actor, note string) (bool, error)
	AssignTaskTx(ctx context.Context, taskID string, p store.AssignTaskParams) (conflict string, assignmentID int64, err error)
	DeactivateAssignment(ctx context.Context, taskID, assignee string, role store.AssignmentRole) error
	InsertDependency(ctx context.Context, d store.TaskDependency) error
	UnresolvedBlockers(ctx context.Context, taskID string) ([]string, error)
	Descendants(ctx context.Context, taskID string) ([]string, error)
	TaskActivity(ctx context.Context, taskID string) ([]store.ActivityEntry, error)
}

// Notifier sends the task_update/alert notifications the Engine emits on
// completion and failure. internal/bus.Bus implements this via its Notify
// method, which wraps Bus.Send.
type Notifier interface {
	Notify(ctx context.Context, from, to beename.Name, msgType, content, taskID string, priority store.MessagePriority) error
}

// Engine is the Task Engine: task lifecycle, assignment, and dependency
// management atop a Store, with optional Bus-backed completion/failure
// notifications.
type Engine struct {
	store    Store
	notifier Notifier // may be nil; notifications are then skipped
}

// New constructs an Engine. notifier may be nil if the caller does not want
// automatic completion/failure notifications (e.g. in tests).
func New(st Store, notifier Notifier) *Engine {
	return &Engine{store: st, notifier: notifier}
}

// transitions is the status transition table from spec.md §4.E. A missing
// entry means the transition is forbidden.
var transitions = map[store.TaskStatus]map[store.TaskStatus]bool{
	store.StatusPending:    {store.StatusInProgress: true, store.StatusFailed: true, store.StatusCancelled: true},
	store.StatusInProgress: {store.StatusPending: true, store.StatusCompleted: true, store.StatusFailed: true, store.StatusCancelled: true},
	store.StatusFailed:     {store.StatusPending: true, store.StatusCancelled: true},
	store.StatusCompleted:  {},
	store.StatusCancelled:  {},
}

// CreateParams holds the arguments to CreateTask.
type CreateParams struct {
	Title        string
	Description  string
	Priority     store.Priority
	Assignee     beename.Name
	ParentTaskID string
	Dependencies []store.TaskDependency
	Metadata     string
	CreatedBy    beename.Name
}

// CreateTask validates non-empty title/description, creates the row in
// pending, inserts dependency rows, appends a "created" activity entry, and
// if Assignee is set, performs an initial Assign.
func (e *Engine) CreateTask(ctx context.Context, p CreateParams) (string, error) {
	if p.Title == "" || p.Description == "" {
		return "", fmt.Errorf("task: title and description must be non-empty")
	}
	if p.Assignee != "" {
		if err := beename.ValidateAssignee(p.Assignee); err != nil {
			return "", &InvalidAssigneeError{Assignee: string(p.Assignee), Why: err.Error()}
		}
	}

	taskID, err := e.store.CreateTask(ctx, store.CreateTaskParams{
		Title:        p.Title,
		Description:  p.Description,
		Priority:     p.Priority,
		CreatedBy:    string(p.CreatedBy),
		ParentTaskID: p.ParentTaskID,
		Metadata:     p.Metadata,
	})
	if err != nil {
		return "", err
	}

	for _, d := range p.Dependencies {
		d.TaskID = taskID
		if err := e.store.InsertDependency(ctx, d); err != nil {
			if isIntegrityErr(err) {
				return taskID, &CyclicDependencyError{TaskID: taskID, DependsOnTaskID: d.DependsOnTaskID}
			}
			return taskID, err
		}
	}

	if p.Assignee != "" {
		if err := e.Assign(ctx, taskID, p.Assignee, AssignParams{Assigner: p.CreatedBy, Role: store.RolePrimary}); err != nil {
			return taskID, err
		}
	}

	return taskID, nil
}

// AssignParams holds the optional fields for Assign.
type AssignParams struct {
	Assigner beename.Name
	Role     store.AssignmentRole
	Note     string
}

// Assign updates the task's assigned_to (for role=primary), inserts an
// Assignment row, and appends an assignment_change activity entry, all
// within a single Store transaction (AssignTaskTx) so no partial state is
// ever left behind. A role=primary assign over an existing active primary
// without first deactivating it fails with AlreadyAssignedError; since the
// conflict check and the write share that one transaction, two concurrent
// role=primary assigns can never both succeed.
func (e *Engine) Assign(ctx context.Context, taskID string, assignee beename.Name, p AssignParams) error {
	if err := beename.ValidateAssignee(assignee); err != nil {
		return &InvalidAssigneeError{Assignee: string(assignee), Why: err.Error()}
	}
	if p.Assigner == "" {
		p.Assigner = beename.System
	}
	if p.Role == "" {
		p.Role = store.RolePrimary
	}

	conflict, _, err := e.store.AssignTaskTx(ctx, taskID, store.AssignTaskParams{
		Assignee: string(assignee),
		Assigner: string(p.Assigner),
		Role:     p.Role,
		Note:     p.Note,
	})
	if err != nil {
		if store.IsNotFound(err) {
			return &NotFoundError{TaskID: taskID}
		}
		return err
	}
	if conflict != "" {
		return &AlreadyAssignedError{TaskID: taskID, Current: conflict, Proposed: string(assignee)}
	}
	return nil
}

// TransitionParams holds the optional fields for Transition.
type TransitionParams struct {
	Actor beename.Name
	Note  string
}

// Transition moves task_id to newStatus per the transition table, enforcing
// dependency gating on pending -> in_progress and emitting completion/
// failure notifications. It never leaves partial state: every check and
// write composes onto the Store's own atomic operations.
func (e *Engine) Transition(ctx context.Context, taskID string, newStatus store.TaskStatus, p TransitionParams) error {
	t, err := e.store.GetTask(ctx, taskID)
	if err != nil {
		if store.IsNotFound(err) {
			return &NotFoundError{TaskID: taskID}
		}
		return err
	}

	if t.Status == newStatus {
		return &NoOpTransitionError{TaskID: taskID, Status: newStatus}
	}
	if !transitions[t.Status][newStatus] {
		return &InvalidTransitionError{TaskID: taskID, From: t.Status, To: newStatus}
	}

	if newStatus == store.StatusInProgress {
		blockers, err := e.store.UnresolvedBlockers(ctx, taskID)
		if err != nil {
			return err
		}
		if len(blockers) > 0 {
			return &DependencyUnmetError{TaskID: taskID, Blockers: blockers}
		}
	}

	applied, err := e.store.CompareAndSetStatus(ctx, taskID, t.Status, newStatus, string(p.Actor), p.Note)
	if err != nil {
		return err
	}
	if !applied {
		after, err := e.store.GetTask(ctx, taskID)
		if err != nil {
			return err
		}
		return &ConflictingTransitionError{TaskID: taskID, Expected: t.Status, Actual: after.Status}
	}

	e.notify(ctx, taskID, newStatus)
	return nil
}

func (e *Engine) notify(ctx context.Context, taskID string, newStatus store.TaskStatus) {
	if e.notifier == nil {
		return
	}
	switch newStatus {
	case store.StatusCompleted:
		_ = e.notifier.Notify(ctx, beename.System, beename.Queen, "task_update",
			fmt.Sprintf("task %s completed", taskID), taskID, store.MsgNormal)
	case store.StatusFailed:
		_ = e.notifier.Notify(ctx, beename.System, beename.Queen, "alert",
			fmt.Sprintf("task %s failed", taskID), taskID, store.MsgHigh)
	}
}

// Cancel is shorthand for Transition(task_id, cancelled, ...), and also
// cancels every descendant subtask transitively.
func (e *Engine) Cancel(ctx context.Context, taskID string, actor beename.Name, reason string) error {
	if err := e.Transition(ctx, taskID, store.StatusCancelled, TransitionParams{Actor: actor, Note: reason}); err != nil {
		return err
	}

	descendants, err := e.store.Descendants(ctx, taskID)
	if err != nil {
		return err
	}
	for _, childID := range descendants {
		child, err := e.store.GetTask(ctx, childID)
		if err != nil {
			return err
		}
		if child.Status.Terminal() {
			continue
		}
		if err := e.Transition(ctx, childID, store.StatusCancelled, TransitionParams{Actor: actor, Note: "parent cancelled: " + reason}); err != nil {
			if _, noop := err.(*NoOpTransitionError); noop {
				continue
			}
			return err
		}
	}
	return nil
}

// Progress describes one task's status, assignee, and recent activity.
type Progress struct {
	Task     *store.Task
	Activity []store.ActivityEntry
}

// ProgressSummary aggregates counts per status and per assignee across the
// whole task set.
type ProgressSummary struct {
	ByStatus   map[store.TaskStatus]int
	ByAssignee map[string]int
}

// GetProgress returns a single task's Progress when taskID is non-empty, or
// a ProgressSummary aggregated across every task otherwise.
func (e *Engine) GetProgress(ctx context.Context, taskID string) (*Progress, *ProgressSummary, error) {
	if taskID != "" {
		t, err := e.store.GetTask(ctx, taskID)
		if err != nil {
			if store.IsNotFound(err) {
				return nil, nil, &NotFoundError{TaskID: taskID}
			}
			return nil, nil, err
		}
		activity, err := e.store.TaskActivity(ctx, taskID)
		if err != nil {
			return nil, nil, err
		}
		return &Progress{Task: t, Activity: activity}, nil, nil
	}

	tasks, err := e.store.ListTasks(ctx, store.ListTasksFilter{})
	if err != nil {
		return nil, nil, err
	}
	summary := &ProgressSummary{ByStatus: map[store.TaskStatus]int{}, ByAssignee: map[string]int{}}
	for _, t := range tasks {
		summary.ByStatus[t.Status]++
		if t.AssignedTo != "" {
			summary.ByAssignee[t.AssignedTo]++
		}
	}
	return nil, summary, nil
}

func isIntegrityErr(err error) bool {
	_, ok := err.(*store.IntegrityError)
	return ok
}
