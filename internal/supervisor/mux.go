package supervisor

import (
	"context"
	"fmt"
	"strings"

	"github.com/beehive-swarm/beehive/internal/pane"
)

// CommandRunner abstracts command execution so Mux can be tested without a
// real tmux binary, matching internal/inject.CommandRunner's shape so both
// can share a production ExecRunner.
type CommandRunner interface {
	Run(ctx context.Context, name string, args ...string) (stdout string, err error)
}

// Mux is the multiplexer service Supervisor duty #6/#7 delegates to:
// session create/destroy, pane spawn, and pane-output capture for
// acknowledgement polling. It wraps tmux the way the teacher's TmuxSession
// does, generalized from a fixed architect/manager pair to an arbitrary
// pane_mapping.
type Mux struct {
	Runner CommandRunner
}

// NewMux constructs a Mux bound to runner.
func NewMux(runner CommandRunner) *Mux {
	return &Mux{Runner: runner}
}

// SessionExists reports whether session is a live tmux session.
func (m *Mux) SessionExists(ctx context.Context, session string) bool {
	_, err := m.Runner.Run(ctx, "tmux", "has-session", "-t", session)
	return err == nil
}

// CreateSession creates a new detached tmux session named session with no
// windows beyond tmux's default; SpawnBee adds one window per bee.
func (m *Mux) CreateSession(ctx context.Context, session string) error {
	if m.SessionExists(ctx, session) {
		return nil
	}
	if _, err := m.Runner.Run(ctx, "tmux", "new-session", "-d", "-s", session); err != nil {
		return fmt.Errorf("mux: create session %q: %w", session, err)
	}
	return nil
}

// SpawnBee creates (or reuses) a window named windowName running cmd,
// replacing the shell via exec so the hosted process is the pane's initial
// process.
func (m *Mux) SpawnBee(ctx context.Context, session, windowName, cmd string) error {
	target := session + ":" + windowName
	if _, err := m.Runner.Run(ctx, "tmux", "display-message", "-p", "-t", target, "#{pane_id}"); err == nil {
		return nil
	}
	if _, err := m.Runner.Run(ctx, "tmux", "new-window", "-t", session, "-n", windowName, cmd); err != nil {
		return fmt.Errorf("mux: spawn bee in window %q: %w", windowName, err)
	}
	return nil
}

// CapturePane returns the visible text currently in p's scrollback, used by
// Init to poll for an acknowledgement pattern.
func (m *Mux) CapturePane(ctx context.Context, session string, p pane.ID) (string, error) {
	target := session + ":" + string(p)
	out, err := m.Runner.Run(ctx, "tmux", "capture-pane", "-p", "-t", target)
	if err != nil {
		return "", fmt.Errorf("mux: capture pane %q: %w", p, err)
	}
	return out, nil
}

// KillSession tears down session. Best-effort: an already-missing session
// is not an error (spec §6 "best-effort if the multiplexer is unreachable").
func (m *Mux) KillSession(ctx context.Context, session string) error {
	if _, err := m.Runner.Run(ctx, "tmux", "kill-session", "-t", session); err != nil {
		if strings.Contains(err.Error(), "session not found") || strings.Contains(err.Error(), "no such") {
			return nil
		}
		return fmt.Errorf("mux: kill session %q: %w", session, err)
	}
	return nil
}
