// Package hive is beehive's stable, embeddable API surface: it wires the
// Store, Injector, Message Bus, Task Engine, and Supervisor behind a single
// Hive value, the way the teacher's pkg/ops and pkg/worker packages expose a
// stable surface atop its own internal daemon machinery for the dashboard
// and CLI to share.
package hive

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/beehive-swarm/beehive/internal/beename"
	"github.com/beehive-swarm/beehive/internal/bus"
	"github.com/beehive-swarm/beehive/internal/config"
	"github.com/beehive-swarm/beehive/internal/inject"
	"github.com/beehive-swarm/beehive/internal/pane"
	"github.com/beehive-swarm/beehive/internal/store"
	"github.com/beehive-swarm/beehive/internal/supervisor"
	"github.com/beehive-swarm/beehive/internal/task"
)

// Hive bundles every component needed to operate one beehive session:
// Store, Injector, Bus, Task Engine, and (optionally, for long-running
// processes) Supervisor.
type Hive struct {
	Config *config.Config
	Store  *store.Store
	Panes  *pane.Table
	Inject *inject.Injector
	Bus    *bus.Bus
	Tasks  *task.Engine
	Log    *slog.Logger

	mux        *supervisor.Mux
	supervisor *supervisor.Supervisor
}

// Options configures Open.
type Options struct {
	Runner       inject.CommandRunner // nil means inject.ExecRunner{}; tests pass a FakeRunner
	MuxRunner    supervisor.CommandRunner
	RolePrompts  supervisor.RolePrompts
	Log          *slog.Logger
}

// Open wires a Hive from cfg and a database at dbPath. Runner/MuxRunner
// default to an ExecRunner (real tmux) when nil.
func Open(ctx context.Context, cfg *config.Config, dbPath string, opts Options) (*Hive, error) {
	if opts.Log == nil {
		opts.Log = slog.Default()
	}
	if opts.Runner == nil {
		opts.Runner = inject.ExecRunner{}
	}
	if opts.MuxRunner == nil {
		opts.MuxRunner = &execRunnerAdapter{opts.Runner}
	}

	st, err := store.Open(ctx, dbPath)
	if err != nil {
		return nil, fmt.Errorf("hive: open store: %w", err)
	}

	panes, err := cfg.PaneTable()
	if err != nil {
		_ = st.Close()
		return nil, fmt.Errorf("hive: build pane table: %w", err)
	}

	injr := inject.New(cfg.Session, opts.Runner, st, cfg.InjectorConcurrency)
	b := bus.New(st, panes, injr)
	tasks := task.New(st, b)

	h := &Hive{
		Config: cfg,
		Store:  st,
		Panes:  panes,
		Inject: injr,
		Bus:    b,
		Tasks:  tasks,
		Log:    opts.Log,
		mux:    supervisor.NewMux(opts.MuxRunner),
	}

	if opts.RolePrompts != nil {
		h.supervisor = supervisor.New(cfg.Session, supervisorConfig(cfg), st, b, injr, panes, h.mux, opts.RolePrompts, opts.Log)
	}
	return h, nil
}

// Supervisor returns the wired Supervisor, or nil if Open was not given
// RolePrompts (the CLI's one-shot commands don't need one; beehive-dashd
// does).
func (h *Hive) Supervisor() *supervisor.Supervisor { return h.supervisor }

// Mux returns the multiplexer handle, always present, for commands (like
// logs) that need to read pane output without a full Supervisor.
func (h *Hive) Mux() *supervisor.Mux { return h.mux }

// Close releases the Hive's Store connection.
func (h *Hive) Close() error {
	return h.Store.Close()
}

func supervisorConfig(cfg *config.Config) supervisor.Config {
	return supervisor.Config{
		TickInterval:    cfg.TickInterval(),
		TIdle:           cfg.TIdle(),
		TSilent:         cfg.TSilent(),
		RemindInterval:  cfg.RemindInterval(),
		RemindCron:      cfg.RemindCron,
		ViolationWindow: cfg.ViolationWindow(),
		ObserverBee:     cfg.ObserverBee,
		AckPattern:      cfg.AckPattern,
		AckTimeout:      cfg.AckTimeout(),
	}
}

// execRunnerAdapter adapts inject.CommandRunner to supervisor.CommandRunner;
// both are structurally identical (Run(ctx, name, args...) (string, error))
// but declared as separate named interfaces so each package stays
// independently testable.
type execRunnerAdapter struct {
	runner inject.CommandRunner
}

func (a *execRunnerAdapter) Run(ctx context.Context, name string, args ...string) (string, error) {
	return a.runner.Run(ctx, name, args...)
}

// ValidBees returns the closed set of real bee identities, re-exported for
// CLI flag validation without importing internal/beename directly.
func ValidBees() []beename.Name { return beename.Bees }
