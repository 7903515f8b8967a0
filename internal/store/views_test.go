package store_test

import (
	"context"
	"testing"

	"github.com/beehive-swarm/beehive/internal/store"
)

func TestActiveTasksExcludesTerminalStatuses(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	open, err := s.CreateTask(ctx, store.CreateTaskParams{Title: "open", Description: "d", CreatedBy: "queen", AssignedTo: "developer"})
	if err != nil {
		t.Fatalf("CreateTask: %v", err)
	}
	done, err := s.CreateTask(ctx, store.CreateTaskParams{Title: "done", Description: "d", CreatedBy: "queen"})
	if err != nil {
		t.Fatalf("CreateTask: %v", err)
	}
	if ok, err := s.CompareAndSetStatus(ctx, done, store.StatusPending, store.StatusCompleted, "developer", "done"); err != nil || !ok {
		t.Fatalf("CompareAndSetStatus: ok=%v err=%v", ok, err)
	}

	rows, err := s.ActiveTasks(ctx)
	if err != nil {
		t.Fatalf("ActiveTasks: %v", err)
	}
	var sawOpen, sawDone bool
	for _, r := range rows {
		if r.TaskID == open {
			sawOpen = true
			if r.AssignedTo != "developer" {
				t.Errorf("expected assigned_to developer, got %q", r.AssignedTo)
			}
		}
		if r.TaskID == done {
			sawDone = true
		}
	}
	if !sawOpen {
		t.Error("expected the pending task to appear in active_tasks")
	}
	if sawDone {
		t.Error("expected the completed task to be excluded from active_tasks")
	}
}

func TestPendingMessagesExcludesProcessed(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	id, err := s.Enqueue(ctx, store.EnqueueParams{FromBee: "queen", ToBee: "developer", Type: "instruction", Content: "x", Priority: store.MsgNormal})
	if err != nil {
		t.Fatalf("Enqueue: %v", err)
	}

	pending, err := s.PendingMessages(ctx)
	if err != nil {
		t.Fatalf("PendingMessages: %v", err)
	}
	if len(pending) != 1 || pending[0].MessageID != id {
		t.Fatalf("expected exactly message %d pending, got %v", id, pending)
	}

	if err := s.MarkProcessed(ctx, id); err != nil {
		t.Fatalf("MarkProcessed: %v", err)
	}

	pending, err = s.PendingMessages(ctx)
	if err != nil {
		t.Fatalf("PendingMessages: %v", err)
	}
	if len(pending) != 0 {
		t.Fatalf("expected no pending messages after processing, got %v", pending)
	}
}

func TestAgentWorkloadCountsOpenTasksAndAssignments(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	id, err := s.CreateTask(ctx, store.CreateTaskParams{Title: "t", Description: "d", CreatedBy: "queen", AssignedTo: "developer"})
	if err != nil {
		t.Fatalf("CreateTask: %v", err)
	}
	if _, err := s.InsertAssignment(ctx, store.Assignment{
		TaskID: id, Assignee: "developer", Assigner: "queen", Role: store.RolePrimary, Status: "active",
	}); err != nil {
		t.Fatalf("InsertAssignment: %v", err)
	}

	rows, err := s.AgentWorkload(ctx)
	if err != nil {
		t.Fatalf("AgentWorkload: %v", err)
	}
	var found *store.AgentWorkloadRow
	for i := range rows {
		if rows[i].BeeName == "developer" {
			found = &rows[i]
		}
	}
	if found == nil {
		t.Fatal("expected a workload row for developer")
	}
	if found.OpenTaskCount != 1 {
		t.Errorf("expected open_task_count 1, got %d", found.OpenTaskCount)
	}
	if found.ActiveAssignmentCount != 1 {
		t.Errorf("expected active_assignment_count 1, got %d", found.ActiveAssignmentCount)
	}
}
