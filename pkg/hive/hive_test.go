package hive

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/beehive-swarm/beehive/internal/beename"
	"github.com/beehive-swarm/beehive/internal/config"
	"github.com/beehive-swarm/beehive/internal/inject"
	"github.com/beehive-swarm/beehive/internal/task"
)

func testConfig() *config.Config {
	cfg := config.Default()
	cfg.PaneMapping = map[string]string{
		"queen":     "beehive:queen",
		"developer": "beehive:developer",
		"qa":        "beehive:qa",
		"analyst":   "beehive:analyst",
	}
	return cfg
}

func TestOpenWiresEveryComponent(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "beehive.db")
	h, err := Open(context.Background(), testConfig(), dbPath, Options{Runner: inject.NewFakeRunner()})
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer h.Close()

	if h.Store == nil || h.Panes == nil || h.Inject == nil || h.Bus == nil || h.Tasks == nil {
		t.Fatalf("expected every component wired, got %+v", h)
	}
	if h.Supervisor() != nil {
		t.Fatalf("expected nil Supervisor when RolePrompts was not supplied")
	}
}

func TestOpenEndToEndCreateAndTransitionTask(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "beehive.db")
	h, err := Open(context.Background(), testConfig(), dbPath, Options{Runner: inject.NewFakeRunner()})
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer h.Close()

	taskID, err := h.Tasks.CreateTask(context.Background(), task.CreateParams{
		Title:       "ship it",
		Description: "ship the feature",
		CreatedBy:   beename.Queen,
		Assignee:    beename.Developer,
	})
	if err != nil {
		t.Fatalf("CreateTask: %v", err)
	}

	if err := h.Tasks.Transition(context.Background(), taskID, "in_progress", task.TransitionParams{Actor: beename.Developer}); err != nil {
		t.Fatalf("Transition: %v", err)
	}

	progress, _, err := h.Tasks.GetProgress(context.Background(), taskID)
	if err != nil {
		t.Fatalf("GetProgress: %v", err)
	}
	if progress.Task.Status != "in_progress" {
		t.Fatalf("expected in_progress, got %s", progress.Task.Status)
	}
}

func TestOpenWithRolePromptsWiresSupervisor(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "beehive.db")
	h, err := Open(context.Background(), testConfig(), dbPath, Options{
		Runner:      inject.NewFakeRunner(),
		RolePrompts: staticPrompts{},
	})
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer h.Close()

	if h.Supervisor() == nil {
		t.Fatalf("expected Supervisor to be wired when RolePrompts was supplied")
	}
}

type staticPrompts struct{}

func (staticPrompts) Prompt(bee beename.Name) (string, error) { return "you are " + string(bee), nil }
