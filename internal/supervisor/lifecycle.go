package supervisor

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/beehive-swarm/beehive/internal/beename"
	"github.com/beehive-swarm/beehive/internal/inject"
	"github.com/beehive-swarm/beehive/internal/store"
)

// SessionConfig describes how Init should spawn each bee's pane.
type SessionConfig struct {
	// Windows maps each bee to the tmux window name Mux.SpawnBee creates,
	// and the command line that replaces the window's shell.
	Windows map[beename.Name]WindowSpec
}

// WindowSpec is one bee's window name and launch command.
type WindowSpec struct {
	Window  string
	Command string
}

// AckTimeoutError reports that a bee did not produce the expected
// acknowledgement pattern within AckTimeout.
type AckTimeoutError struct {
	Bee beename.Name
}

func (e *AckTimeoutError) Error() string {
	return fmt.Sprintf("supervisor: bee %q did not acknowledge role injection within timeout", e.Bee)
}

// Init is duty #6: create the multiplexer session, spawn one interactive
// process per pane, inject each bee's role document, and await an
// acknowledgement pattern per bee. A bee that times out is marked "error"
// rather than aborting Init for the others.
func (s *Supervisor) Init(ctx context.Context, cfg SessionConfig) error {
	if err := s.mux.CreateSession(ctx, s.session); err != nil {
		return fmt.Errorf("supervisor init: %w", err)
	}

	for _, bee := range beename.Bees {
		spec, ok := cfg.Windows[bee]
		if !ok {
			continue
		}
		if err := s.mux.SpawnBee(ctx, s.session, spec.Window, spec.Command); err != nil {
			s.log.Error("spawn bee failed", "bee", bee, "error", err)
			continue
		}
		if err := s.injectRoleAndAwaitAck(ctx, bee); err != nil {
			s.log.Error("role injection ack failed", "bee", bee, "error", err)
			errStatus := store.AgentError
			_ = s.store.UpsertState(ctx, string(bee), store.UpsertStateParams{Status: errStatus})
		}
	}
	return nil
}

func (s *Supervisor) injectRoleAndAwaitAck(ctx context.Context, bee beename.Name) error {
	prompt, err := s.prompts.Prompt(bee)
	if err != nil {
		return fmt.Errorf("load role prompt for %s: %w", bee, err)
	}

	target, err := s.panes.Resolve(bee)
	if err != nil {
		return fmt.Errorf("resolve pane for %s: %w", bee, err)
	}

	if _, err := s.injector.Send(ctx, target, prompt, inject.Options{Type: "role_injection", Sender: beename.System}); err != nil {
		return fmt.Errorf("inject role prompt for %s: %w", bee, err)
	}

	deadline := time.Now().Add(s.cfg.AckTimeout)
	for time.Now().Before(deadline) {
		out, err := s.mux.CapturePane(ctx, s.session, target)
		if err == nil && strings.Contains(out, s.cfg.AckPattern) {
			return nil
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(500 * time.Millisecond):
		}
	}
	return &AckTimeoutError{Bee: bee}
}

// InjectRoles reinjects the role prompt for one bee (or every bee, when
// bees is empty), without the startup session-create step. Used by the
// "inject-roles" CLI surface.
func (s *Supervisor) InjectRoles(ctx context.Context, bees []beename.Name) error {
	if len(bees) == 0 {
		bees = beename.Bees
	}
	var firstErr error
	for _, bee := range bees {
		prompt, err := s.prompts.Prompt(bee)
		if err != nil {
			if firstErr == nil {
				firstErr = err
			}
			continue
		}
		target, err := s.panes.Resolve(bee)
		if err != nil {
			if firstErr == nil {
				firstErr = err
			}
			continue
		}
		if _, err := s.injector.Send(ctx, target, prompt, inject.Options{Type: "role_injection", Sender: beename.System}); err != nil {
			if firstErr == nil {
				firstErr = err
			}
		}
	}
	return firstErr
}

// Stop is duty #7: send a graceful termination sentinel to every bee, then
// instruct the multiplexer to tear down the session. Best-effort: an
// unreachable multiplexer does not prevent returning (spec §6).
func (s *Supervisor) Stop(ctx context.Context) error {
	for _, bee := range beename.Bees {
		target, err := s.panes.Resolve(bee)
		if err != nil {
			continue
		}
		_, _ = s.injector.Send(ctx, target, shutdownSentinel, inject.Options{Type: "notification", Sender: beename.System})
	}
	return s.mux.KillSession(ctx, s.session)
}

const shutdownSentinel = "## BEEHIVE SHUTDOWN\nThe orchestrator is shutting down this session.\n"
