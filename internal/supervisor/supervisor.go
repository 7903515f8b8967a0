// Package supervisor implements the Supervisor (component F): a
// long-running tick loop that classifies bee liveness, sends periodic role
// reminders, detects protocol violations, reaps expired messages, accepts
// heartbeats, and owns startup (session create + role injection) and
// shutdown.
package supervisor

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/beehive-swarm/beehive/internal/beename"
	"github.com/beehive-swarm/beehive/internal/bus"
	"github.com/beehive-swarm/beehive/internal/inject"
	"github.com/beehive-swarm/beehive/internal/pane"
	"github.com/beehive-swarm/beehive/internal/store"
)

// Store is the subset of *store.Store the Supervisor depends on.
type Store interface {
	ListStates(ctx context.Context) ([]*store.AgentState, error)
	GetState(ctx context.Context, bee string) (*store.AgentState, error)
	UpsertState(ctx context.Context, bee string, p store.UpsertStateParams) error
	Touch(ctx context.Context, bee string, heartbeat bool) error
	MessagesSince(ctx context.Context, sinceID int64) ([]*store.Message, error)
	MaxMessageID(ctx context.Context) (int64, error)
	ReapExpired(ctx context.Context) (int, error)
	RecordViolationAlert(ctx context.Context, fromBee, windowStart string) (bool, error)
}

// Bus is the subset of *bus.Bus the Supervisor depends on for reminders
// and alerts.
type Bus interface {
	Send(ctx context.Context, from, to beename.Name, msgType, content string, p bus.SendParams) ([]bus.Delivery, error)
}

// Injector delivers role-injection and shutdown-sentinel payloads directly
// (not through the Bus, since those are not inter-bee messages).
type Injector interface {
	Send(ctx context.Context, p pane.ID, payload string, opts inject.Options) (int64, error)
}

// Panes resolves bee names to panes.
type Panes interface {
	Resolve(bee beename.Name) (pane.ID, error)
}

// RolePrompts supplies the opaque role-prompt document text for a bee,
// injected verbatim on startup and on "inject-roles" (spec treats role
// prompts as opaque templated text blobs the core never interprets).
type RolePrompts interface {
	Prompt(bee beename.Name) (string, error)
}

// Supervisor runs the tick loop and owns session lifecycle.
type Supervisor struct {
	cfg      Config
	session  string
	store    Store
	bus      Bus
	injector Injector
	panes    Panes
	mux      *Mux
	prompts  RolePrompts
	log      *slog.Logger

	lastViolationScan int64

	remindSchedule cron.Schedule
}

// New constructs a Supervisor bound to session (the multiplexer session
// name) and its dependencies. A malformed cfg.RemindCron is logged and
// falls back to the fixed cfg.RemindInterval rather than failing
// construction.
func New(session string, cfg Config, st Store, b Bus, injector Injector, panes Panes, mux *Mux, prompts RolePrompts, log *slog.Logger) *Supervisor {
	if log == nil {
		log = slog.Default()
	}
	s := &Supervisor{cfg: cfg, session: session, store: st, bus: b, injector: injector, panes: panes, mux: mux, prompts: prompts, log: log}
	if cfg.RemindCron != "" {
		sched, err := cron.ParseStandard(cfg.RemindCron)
		if err != nil {
			log.Error("invalid remind_cron, falling back to remind_interval_seconds", "remind_cron", cfg.RemindCron, "error", err)
		} else {
			s.remindSchedule = sched
		}
	}
	return s
}

// Run drives the tick loop until ctx is cancelled, finishing its current
// duty sweep before returning (spec §5 "the Supervisor tick is itself
// cancellable; on shutdown it finishes its current duty sweep and exits
// cleanly").
func (s *Supervisor) Run(ctx context.Context) {
	ticker := time.NewTicker(s.cfg.TickInterval)
	defer ticker.Stop()

	lastRemind := time.Time{}
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.Tick(ctx, &lastRemind)
		}
	}
}

// Tick runs one sweep of the periodic duties (#1, #3, #4, and #2 when
// remindDue reports it due). Each duty's failure is logged and does not
// abort the others (spec §4.F "each duty is independent").
func (s *Supervisor) Tick(ctx context.Context, lastRemind *time.Time) {
	s.runDuty(ctx, "liveness_classification", s.classifyLiveness)

	if s.remindDue(*lastRemind) {
		s.runDuty(ctx, "role_reminders", s.sendRoleReminders)
		*lastRemind = time.Now()
	}

	s.runDuty(ctx, "protocol_violation_detection", s.detectProtocolViolations)
	s.runDuty(ctx, "expired_message_reaping", s.reapExpiredMessages)
}

// remindDue reports whether duty #2 should run now, per cfg.RemindCron
// when set, otherwise per the fixed cfg.RemindInterval.
func (s *Supervisor) remindDue(lastRemind time.Time) bool {
	if lastRemind.IsZero() {
		return true
	}
	if s.remindSchedule != nil {
		return !time.Now().Before(s.remindSchedule.Next(lastRemind))
	}
	return time.Since(lastRemind) >= s.cfg.RemindInterval
}

func (s *Supervisor) runDuty(ctx context.Context, name string, fn func(context.Context) error) {
	if err := fn(ctx); err != nil {
		s.log.Error("supervisor duty failed", "duty", name, "error", err)
	}
}

// classifyLiveness is duty #1: compute minutes_since_heartbeat per bee and
// degrade status to offline past TSilent, alerting cfg.ObserverBee.
func (s *Supervisor) classifyLiveness(ctx context.Context) error {
	states, err := s.store.ListStates(ctx)
	if err != nil {
		return fmt.Errorf("list agent states: %w", err)
	}

	now := time.Now()
	for _, st := range states {
		age := now.Sub(st.LastHeartbeat)
		switch {
		case age < s.cfg.TIdle:
			// retain status
		case age < s.cfg.TSilent:
			// record only; no state change
		default:
			if st.Status == store.AgentOffline {
				continue
			}
			if err := s.store.UpsertState(ctx, st.BeeName, store.UpsertStateParams{Status: store.AgentOffline}); err != nil {
				return fmt.Errorf("mark %s offline: %w", st.BeeName, err)
			}
			if s.bus != nil {
				content := fmt.Sprintf("bee %s has not sent a heartbeat in over %s and is now offline", st.BeeName, s.cfg.TSilent)
				if _, err := s.bus.Send(ctx, beename.System, beename.Name(s.cfg.ObserverBee), "alert", content, bus.SendParams{Priority: store.MsgHigh}); err != nil {
					s.log.Warn("failed to alert observer of offline bee", "bee", st.BeeName, "error", err)
				}
			}
		}
	}
	return nil
}

// sendRoleReminders is duty #2: remind each bee of its identity and current
// task every RemindInterval.
func (s *Supervisor) sendRoleReminders(ctx context.Context) error {
	if s.bus == nil {
		return nil
	}
	for _, bee := range beename.Bees {
		st, err := s.store.GetState(ctx, string(bee))
		if err != nil {
			return fmt.Errorf("get state for %s: %w", bee, err)
		}
		taskRef := st.CurrentTaskID
		if taskRef == "" {
			taskRef = "none"
		}
		content := fmt.Sprintf("Reminder: you are %s. Current task: %s.", bee, taskRef)
		if _, err := s.bus.Send(ctx, beename.System, bee, "role_injection", content, bus.SendParams{}); err != nil {
			s.log.Warn("role reminder delivery failed", "bee", bee, "error", err)
		}
	}
	return nil
}

// RemindBee immediately sends duty #2's reminder to a single bee, used by
// the "remind --bee X" CLI surface.
func (s *Supervisor) RemindBee(ctx context.Context, bee beename.Name) error {
	st, err := s.store.GetState(ctx, string(bee))
	if err != nil {
		return err
	}
	taskRef := st.CurrentTaskID
	if taskRef == "" {
		taskRef = "none"
	}
	content := fmt.Sprintf("Reminder: you are %s. Current task: %s.", bee, taskRef)
	_, err = s.bus.Send(ctx, beename.System, bee, "role_injection", content, bus.SendParams{})
	return err
}

// detectProtocolViolations is duty #3: scan messages inserted since the
// last tick for sender_cli_used=false from a real bee, and alert the
// observer at most once per offending sender per window.
func (s *Supervisor) detectProtocolViolations(ctx context.Context) error {
	msgs, err := s.store.MessagesSince(ctx, s.lastViolationScan)
	if err != nil {
		return fmt.Errorf("scan messages since %d: %w", s.lastViolationScan, err)
	}

	maxID, err := s.store.MaxMessageID(ctx)
	if err != nil {
		return fmt.Errorf("read max message id: %w", err)
	}
	s.lastViolationScan = maxID

	for _, m := range msgs {
		if m.SenderCLIUsed || !beename.IsBee(beename.Name(m.FromBee)) {
			continue
		}
		windowStart := time.Now().UTC().Truncate(s.cfg.ViolationWindow).Format(time.RFC3339)
		claimed, err := s.store.RecordViolationAlert(ctx, m.FromBee, windowStart)
		if err != nil {
			return fmt.Errorf("record violation alert for %s: %w", m.FromBee, err)
		}
		if !claimed {
			continue
		}
		if s.bus == nil {
			continue
		}
		content := fmt.Sprintf("protocol violation: message %d from %s bypassed the sanctioned Injector path", m.MessageID, m.FromBee)
		if _, err := s.bus.Send(ctx, beename.System, beename.Name(s.cfg.ObserverBee), "alert", content, bus.SendParams{Priority: store.MsgHigh}); err != nil {
			s.log.Warn("failed to emit protocol-violation alert", "from", m.FromBee, "error", err)
		}
	}
	return nil
}

// reapExpiredMessages is duty #4.
func (s *Supervisor) reapExpiredMessages(ctx context.Context) error {
	n, err := s.store.ReapExpired(ctx)
	if err != nil {
		return fmt.Errorf("reap expired messages: %w", err)
	}
	if n > 0 {
		s.log.Info("reaped expired messages", "count", n)
	}
	return nil
}

// SessionExists reports whether this Supervisor's multiplexer session is
// already live, used by `beehive init` to refuse a second init without
// --force.
func (s *Supervisor) SessionExists(ctx context.Context) bool {
	return s.mux.SessionExists(ctx, s.session)
}

// Heartbeat is duty #5: accept a liveness signal from bee, updating
// last_heartbeat and implicitly transitioning status from offline.
func (s *Supervisor) Heartbeat(ctx context.Context, bee beename.Name) error {
	if err := s.store.Touch(ctx, string(bee), true); err != nil {
		return err
	}

	st, err := s.store.GetState(ctx, string(bee))
	if err != nil {
		return err
	}
	if st.Status != store.AgentOffline {
		return nil
	}
	newStatus := store.AgentIdle
	if st.CurrentTaskID != "" {
		newStatus = store.AgentBusy
	}
	return s.store.UpsertState(ctx, string(bee), store.UpsertStateParams{Status: newStatus})
}
