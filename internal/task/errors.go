package task

import (
	"fmt"

	"github.com/beehive-swarm/beehive/internal/store"
)

// NotFoundError reports a task_id with no matching row.
type NotFoundError struct {
	TaskID string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("task: %q not found", e.TaskID)
}

// InvalidAssigneeError reports an assignee outside the closed set of real
// bees (or one of the forbidden synthetic names).
type InvalidAssigneeError struct {
	Assignee string
	Why      string
}

func (e *InvalidAssigneeError) Error() string {
	return fmt.Sprintf("task: invalid assignee %q: %s", e.Assignee, e.Why)
}

// AlreadyAssignedError reports that a task already has an active primary
// assignee when assign() was called with role=primary.
type AlreadyAssignedError struct {
	TaskID   string
	Current  string
	Proposed string
}

func (e *AlreadyAssignedError) Error() string {
	return fmt.Sprintf("task: %q already has primary assignee %q (proposed %q)", e.TaskID, e.Current, e.Proposed)
}

// DependencyUnmetError reports that one or more 'blocks' dependencies are
// not yet completed, blocking a transition to in_progress.
type DependencyUnmetError struct {
	TaskID   string
	Blockers []string
}

func (e *DependencyUnmetError) Error() string {
	return fmt.Sprintf("task: %q has unresolved blockers: %v", e.TaskID, e.Blockers)
}

// NoOpTransitionError reports an idempotent self-transition (e.g.
// pending -> pending), which the Engine rejects rather than silently
// accepting.
type NoOpTransitionError struct {
	TaskID string
	Status store.TaskStatus
}

func (e *NoOpTransitionError) Error() string {
	return fmt.Sprintf("task: %q is already %s", e.TaskID, e.Status)
}

// InvalidTransitionError reports a transition the status table forbids.
type InvalidTransitionError struct {
	TaskID string
	From   store.TaskStatus
	To     store.TaskStatus
}

func (e *InvalidTransitionError) Error() string {
	return fmt.Sprintf("task: %q cannot transition %s -> %s", e.TaskID, e.From, e.To)
}

// ConflictingTransitionError reports that a concurrent writer changed the
// task's status between read and write; the caller should re-read and
// retry its own logic if desired.
type ConflictingTransitionError struct {
	TaskID   string
	Expected store.TaskStatus
	Actual   store.TaskStatus
}

func (e *ConflictingTransitionError) Error() string {
	return fmt.Sprintf("task: %q expected status %s but observed %s", e.TaskID, e.Expected, e.Actual)
}

// CyclicDependencyError reports that inserting an edge would create a
// dependency cycle.
type CyclicDependencyError struct {
	TaskID          string
	DependsOnTaskID string
}

func (e *CyclicDependencyError) Error() string {
	return fmt.Sprintf("task: dependency %s -> %s would create a cycle", e.TaskID, e.DependsOnTaskID)
}
