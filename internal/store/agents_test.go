package store_test

import (
	"context"
	"testing"
	"time"

	"github.com/beehive-swarm/beehive/internal/store"
)

func TestUpsertStateMergesOnlyGivenFields(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	taskID, err := s.CreateTask(ctx, store.CreateTaskParams{TaskID: "t1", Title: "t", Description: "d", CreatedBy: "queen"})
	if err != nil {
		t.Fatalf("CreateTask: %v", err)
	}
	score := 0.5
	if err := s.UpsertState(ctx, "developer", store.UpsertStateParams{
		Status: store.AgentBusy, CurrentTaskID: &taskID, WorkloadScore: &score,
	}); err != nil {
		t.Fatalf("UpsertState: %v", err)
	}

	st, err := s.GetState(ctx, "developer")
	if err != nil {
		t.Fatalf("GetState: %v", err)
	}
	if st.Status != store.AgentBusy || st.CurrentTaskID != taskID || st.WorkloadScore != score {
		t.Fatalf("unexpected state after first upsert: %+v", st)
	}

	// Upserting only Status must not clobber CurrentTaskID.
	if err := s.UpsertState(ctx, "developer", store.UpsertStateParams{Status: store.AgentWaiting}); err != nil {
		t.Fatalf("UpsertState: %v", err)
	}
	st, err = s.GetState(ctx, "developer")
	if err != nil {
		t.Fatalf("GetState: %v", err)
	}
	if st.Status != store.AgentWaiting {
		t.Errorf("expected status waiting, got %s", st.Status)
	}
	if st.CurrentTaskID != taskID {
		t.Errorf("expected current_task_id to survive untouched, got %q", st.CurrentTaskID)
	}
}

func TestTouchUpdatesHeartbeatOnlyWhenRequested(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	before, err := s.GetState(ctx, "developer")
	if err != nil {
		t.Fatalf("GetState: %v", err)
	}

	time.Sleep(5 * time.Millisecond)
	if err := s.Touch(ctx, "developer", false); err != nil {
		t.Fatalf("Touch (activity only): %v", err)
	}
	afterActivity, err := s.GetState(ctx, "developer")
	if err != nil {
		t.Fatalf("GetState: %v", err)
	}
	if !afterActivity.LastActivity.After(before.LastActivity) {
		t.Error("expected last_activity to advance")
	}
	if !afterActivity.LastHeartbeat.Equal(before.LastHeartbeat) {
		t.Error("expected last_heartbeat to stay untouched by a non-heartbeat touch")
	}

	time.Sleep(5 * time.Millisecond)
	if err := s.Touch(ctx, "developer", true); err != nil {
		t.Fatalf("Touch (heartbeat): %v", err)
	}
	afterHeartbeat, err := s.GetState(ctx, "developer")
	if err != nil {
		t.Fatalf("GetState: %v", err)
	}
	if !afterHeartbeat.LastHeartbeat.After(before.LastHeartbeat) {
		t.Error("expected last_heartbeat to advance on a heartbeat touch")
	}
}

func TestGetStateNotFound(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	_, err := s.GetState(ctx, "not-a-bee")
	if !store.IsNotFound(err) {
		t.Fatalf("expected NotFoundError, got %T: %v", err, err)
	}
}
