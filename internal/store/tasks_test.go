package store_test

import (
	"context"
	"errors"
	"testing"

	"github.com/beehive-swarm/beehive/internal/store"
)

func TestCreateTaskRejectsEmptyTitleOrDescription(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	_, err := s.CreateTask(ctx, store.CreateTaskParams{Title: "", Description: "x", CreatedBy: "queen"})
	var integrity *store.IntegrityError
	if !errors.As(err, &integrity) {
		t.Errorf("expected IntegrityError, got %T: %v", err, err)
	}
}

func TestCreateTaskDefaultsStatusAndPriority(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	id, err := s.CreateTask(ctx, store.CreateTaskParams{Title: "t1", Description: "d1", CreatedBy: "queen"})
	if err != nil {
		t.Fatalf("CreateTask: %v", err)
	}

	task, err := s.GetTask(ctx, id)
	if err != nil {
		t.Fatalf("GetTask: %v", err)
	}
	if task.Status != store.StatusPending {
		t.Errorf("expected default status pending, got %s", task.Status)
	}
	if task.Priority != store.PriorityMedium {
		t.Errorf("expected default priority medium, got %s", task.Priority)
	}
}

func TestCreateTaskRejectsCyclicParentChain(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	parent, err := s.CreateTask(ctx, store.CreateTaskParams{TaskID: "p1", Title: "parent", Description: "d", CreatedBy: "queen"})
	if err != nil {
		t.Fatalf("CreateTask parent: %v", err)
	}
	child, err := s.CreateTask(ctx, store.CreateTaskParams{TaskID: "c1", Title: "child", Description: "d", CreatedBy: "queen", ParentTaskID: parent})
	if err != nil {
		t.Fatalf("CreateTask child: %v", err)
	}

	_, err = s.CreateTask(ctx, store.CreateTaskParams{TaskID: parent, Title: "parent2", Description: "d", CreatedBy: "queen", ParentTaskID: child})
	if err == nil {
		t.Fatal("expected cyclic parent chain to be rejected")
	}
}

func TestGetTaskNotFound(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	_, err := s.GetTask(ctx, "does-not-exist")
	if err == nil {
		t.Fatal("expected NotFoundError")
	}
	if !store.IsNotFound(err) {
		t.Errorf("expected IsNotFound(err) true, got %T: %v", err, err)
	}
}

func TestListTasksFiltersByStatusAndAssignee(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	id1, err := s.CreateTask(ctx, store.CreateTaskParams{Title: "t1", Description: "d", CreatedBy: "queen", AssignedTo: "developer"})
	if err != nil {
		t.Fatalf("CreateTask: %v", err)
	}
	if _, err := s.CreateTask(ctx, store.CreateTaskParams{Title: "t2", Description: "d", CreatedBy: "queen", AssignedTo: "qa"}); err != nil {
		t.Fatalf("CreateTask: %v", err)
	}

	tasks, err := s.ListTasks(ctx, store.ListTasksFilter{AssignedTo: "developer"})
	if err != nil {
		t.Fatalf("ListTasks: %v", err)
	}
	if len(tasks) != 1 || tasks[0].TaskID != id1 {
		t.Fatalf("expected exactly task %s assigned to developer, got %v", id1, tasks)
	}

	tasks, err = s.ListTasks(ctx, store.ListTasksFilter{Status: store.StatusCompleted})
	if err != nil {
		t.Fatalf("ListTasks: %v", err)
	}
	if len(tasks) != 0 {
		t.Fatalf("expected no completed tasks, got %d", len(tasks))
	}
}

func TestCompareAndSetStatusDetectsConflict(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	id, err := s.CreateTask(ctx, store.CreateTaskParams{Title: "t", Description: "d", CreatedBy: "queen"})
	if err != nil {
		t.Fatalf("CreateTask: %v", err)
	}

	ok, err := s.CompareAndSetStatus(ctx, id, store.StatusPending, store.StatusInProgress, "developer", "starting")
	if err != nil {
		t.Fatalf("CompareAndSetStatus: %v", err)
	}
	if !ok {
		t.Fatal("expected first CAS to succeed")
	}

	ok, err = s.CompareAndSetStatus(ctx, id, store.StatusPending, store.StatusInProgress, "qa", "starting again")
	if err != nil {
		t.Fatalf("CompareAndSetStatus: %v", err)
	}
	if ok {
		t.Fatal("expected second CAS against stale expected status to report conflict")
	}
}

func TestInsertDependencyRejectsCycle(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	a, err := s.CreateTask(ctx, store.CreateTaskParams{TaskID: "a", Title: "a", Description: "d", CreatedBy: "queen"})
	if err != nil {
		t.Fatalf("CreateTask a: %v", err)
	}
	b, err := s.CreateTask(ctx, store.CreateTaskParams{TaskID: "b", Title: "b", Description: "d", CreatedBy: "queen"})
	if err != nil {
		t.Fatalf("CreateTask b: %v", err)
	}

	if err := s.InsertDependency(ctx, store.TaskDependency{TaskID: b, DependsOnTaskID: a, Type: store.DepBlocks}); err != nil {
		t.Fatalf("InsertDependency b->a: %v", err)
	}

	err = s.InsertDependency(ctx, store.TaskDependency{TaskID: a, DependsOnTaskID: b, Type: store.DepBlocks})
	if err == nil {
		t.Fatal("expected cyclic dependency to be rejected")
	}
}

func TestUnresolvedBlockers(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	blocker, err := s.CreateTask(ctx, store.CreateTaskParams{TaskID: "blocker", Title: "blocker", Description: "d", CreatedBy: "queen"})
	if err != nil {
		t.Fatalf("CreateTask: %v", err)
	}
	blocked, err := s.CreateTask(ctx, store.CreateTaskParams{TaskID: "blocked", Title: "blocked", Description: "d", CreatedBy: "queen"})
	if err != nil {
		t.Fatalf("CreateTask: %v", err)
	}
	if err := s.InsertDependency(ctx, store.TaskDependency{TaskID: blocked, DependsOnTaskID: blocker, Type: store.DepBlocks}); err != nil {
		t.Fatalf("InsertDependency: %v", err)
	}

	unresolved, err := s.UnresolvedBlockers(ctx, blocked)
	if err != nil {
		t.Fatalf("UnresolvedBlockers: %v", err)
	}
	if len(unresolved) != 1 || unresolved[0] != blocker {
		t.Fatalf("expected [%s], got %v", blocker, unresolved)
	}

	ok, err := s.CompareAndSetStatus(ctx, blocker, store.StatusPending, store.StatusCompleted, "developer", "done")
	if err != nil || !ok {
		t.Fatalf("CompareAndSetStatus blocker -> completed: ok=%v err=%v", ok, err)
	}

	unresolved, err = s.UnresolvedBlockers(ctx, blocked)
	if err != nil {
		t.Fatalf("UnresolvedBlockers after completion: %v", err)
	}
	if len(unresolved) != 0 {
		t.Fatalf("expected no unresolved blockers once blocker is completed, got %v", unresolved)
	}
}

func TestDescendants(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	root, err := s.CreateTask(ctx, store.CreateTaskParams{TaskID: "root", Title: "root", Description: "d", CreatedBy: "queen"})
	if err != nil {
		t.Fatalf("CreateTask root: %v", err)
	}
	child, err := s.CreateTask(ctx, store.CreateTaskParams{TaskID: "child", Title: "child", Description: "d", CreatedBy: "queen", ParentTaskID: root})
	if err != nil {
		t.Fatalf("CreateTask child: %v", err)
	}
	grandchild, err := s.CreateTask(ctx, store.CreateTaskParams{TaskID: "grandchild", Title: "grandchild", Description: "d", CreatedBy: "queen", ParentTaskID: child})
	if err != nil {
		t.Fatalf("CreateTask grandchild: %v", err)
	}

	descendants, err := s.Descendants(ctx, root)
	if err != nil {
		t.Fatalf("Descendants: %v", err)
	}
	if len(descendants) != 2 {
		t.Fatalf("expected 2 descendants, got %v", descendants)
	}
	seen := map[string]bool{}
	for _, id := range descendants {
		seen[id] = true
	}
	if !seen[child] || !seen[grandchild] {
		t.Fatalf("expected descendants to include child and grandchild, got %v", descendants)
	}
}

func TestInsertAssignmentAndPrimaryAssignee(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	id, err := s.CreateTask(ctx, store.CreateTaskParams{Title: "t", Description: "d", CreatedBy: "queen"})
	if err != nil {
		t.Fatalf("CreateTask: %v", err)
	}

	if _, err := s.InsertAssignment(ctx, store.Assignment{
		TaskID: id, Assignee: "developer", Assigner: "queen", Role: store.RolePrimary, Status: "active",
	}); err != nil {
		t.Fatalf("InsertAssignment: %v", err)
	}

	assignee, err := s.PrimaryAssignee(ctx, id)
	if err != nil {
		t.Fatalf("PrimaryAssignee: %v", err)
	}
	if assignee != "developer" {
		t.Errorf("expected developer, got %s", assignee)
	}
}

func TestAssignTaskTxUpdatesAssigneeInsertsAssignmentAndActivity(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	id, err := s.CreateTask(ctx, store.CreateTaskParams{Title: "t", Description: "d", CreatedBy: "queen"})
	if err != nil {
		t.Fatalf("CreateTask: %v", err)
	}
	before, err := s.ActivityCount(ctx)
	if err != nil {
		t.Fatalf("ActivityCount: %v", err)
	}

	conflict, assignmentID, err := s.AssignTaskTx(ctx, id, store.AssignTaskParams{
		Assignee: "developer", Assigner: "queen", Role: store.RolePrimary,
	})
	if err != nil {
		t.Fatalf("AssignTaskTx: %v", err)
	}
	if conflict != "" {
		t.Fatalf("expected no conflict, got %q", conflict)
	}
	if assignmentID == 0 {
		t.Fatal("expected a non-zero assignment id")
	}

	task, err := s.GetTask(ctx, id)
	if err != nil {
		t.Fatalf("GetTask: %v", err)
	}
	if task.AssignedTo != "developer" {
		t.Fatalf("expected assigned_to developer, got %q", task.AssignedTo)
	}

	after, err := s.ActivityCount(ctx)
	if err != nil {
		t.Fatalf("ActivityCount: %v", err)
	}
	if after <= before {
		t.Fatalf("expected AssignTaskTx to append an assignment_change activity row, before=%d after=%d", before, after)
	}
}

// TestAssignTaskTxRejectsConflictingPrimaryWithoutPartialWrite is the
// atomicity regression the review flagged: two role=primary assigns for
// different assignees must not both succeed, and the losing call must
// leave tasks.assigned_to, the assignments table, and the activity log
// completely untouched — not just the conflict error, but zero side
// effects from the rejected call.
func TestAssignTaskTxRejectsConflictingPrimaryWithoutPartialWrite(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	id, err := s.CreateTask(ctx, store.CreateTaskParams{Title: "t", Description: "d", CreatedBy: "queen"})
	if err != nil {
		t.Fatalf("CreateTask: %v", err)
	}

	conflict, _, err := s.AssignTaskTx(ctx, id, store.AssignTaskParams{
		Assignee: "developer", Assigner: "queen", Role: store.RolePrimary,
	})
	if err != nil || conflict != "" {
		t.Fatalf("first assign: conflict=%q err=%v", conflict, err)
	}

	activityBefore, err := s.ActivityCount(ctx)
	if err != nil {
		t.Fatalf("ActivityCount: %v", err)
	}

	conflict, assignmentID, err := s.AssignTaskTx(ctx, id, store.AssignTaskParams{
		Assignee: "qa", Assigner: "queen", Role: store.RolePrimary,
	})
	if err != nil {
		t.Fatalf("second assign: %v", err)
	}
	if conflict != "developer" {
		t.Fatalf("expected conflict to report the existing primary developer, got %q", conflict)
	}
	if assignmentID != 0 {
		t.Fatalf("expected no assignment row inserted on conflict, got id %d", assignmentID)
	}

	task, err := s.GetTask(ctx, id)
	if err != nil {
		t.Fatalf("GetTask: %v", err)
	}
	if task.AssignedTo != "developer" {
		t.Fatalf("expected assigned_to to remain developer, got %q", task.AssignedTo)
	}

	activityAfter, err := s.ActivityCount(ctx)
	if err != nil {
		t.Fatalf("ActivityCount: %v", err)
	}
	if activityAfter != activityBefore {
		t.Fatalf("expected the rejected conflicting assign to append no activity row, before=%d after=%d", activityBefore, activityAfter)
	}

	assignee, err := s.PrimaryAssignee(ctx, id)
	if err != nil {
		t.Fatalf("PrimaryAssignee: %v", err)
	}
	if assignee != "developer" {
		t.Fatalf("expected primary assignee to remain developer, got %q", assignee)
	}
}

func TestAssignTaskTxNotFound(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	_, _, err := s.AssignTaskTx(ctx, "does-not-exist", store.AssignTaskParams{Assignee: "developer", Role: store.RolePrimary})
	if !store.IsNotFound(err) {
		t.Fatalf("expected NotFoundError, got %T: %v", err, err)
	}
}
