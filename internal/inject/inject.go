// Package inject implements the Injector (component B): delivery of a
// textual payload into a named multiplexer pane, with durable logging of
// every attempt. The multiplexer primitive itself is tmux, reached through a
// CommandRunner so tests never shell out.
package inject

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"golang.org/x/sync/semaphore"

	"github.com/beehive-swarm/beehive/internal/beename"
	"github.com/beehive-swarm/beehive/internal/pane"
)

// Outcome classifies how a send attempt concluded.
type Outcome string

const (
	OutcomeDelivered        Outcome = "delivered"
	OutcomeDryRun           Outcome = "dry_run"
	OutcomePaneNotFound     Outcome = "pane_not_found"
	OutcomeSessionNotFound  Outcome = "session_not_found"
	OutcomeTransportError   Outcome = "transport_error"
)

// pasteThresholdBytes is the payload size above which the Injector uses
// tmux's set-buffer/paste-buffer path instead of send-keys -l, so a large
// role-prompt payload still arrives as one unified input.
const pasteThresholdBytes = 2000

// sendKeysDebounce is the pause between pasting text and pressing Enter,
// giving the hosted interactive process's render loop time to ingest the
// paste before the terminating newline lands.
const sendKeysDebounce = 200 * time.Millisecond

// CommandRunner abstracts command execution so the Injector can be tested
// without a real tmux binary.
type CommandRunner interface {
	Run(ctx context.Context, name string, args ...string) (stdout string, err error)
}

// Entry is a single durable record of one Injector call, destined for the
// append-only injection log (component C).
type Entry struct {
	Session     string
	Pane        pane.ID
	PayloadHash string
	Type        string
	Sender      beename.Name
	Metadata    string
	DryRun      bool
	Outcome     Outcome
	CreatedAt   time.Time
}

// Logger persists InjectionLogEntry rows. internal/store implements this.
type Logger interface {
	AppendInjection(ctx context.Context, e Entry) error
}

// Options configures a single Send call.
type Options struct {
	Type     string
	Sender   beename.Name
	Metadata string
	DryRun   bool
}

// TransportError reports a multiplexer-level failure classified by Outcome.
type TransportError struct {
	Pane    pane.ID
	Outcome Outcome
	Cause   error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("inject: pane %q: %s: %v", e.Pane, e.Outcome, e.Cause)
}

func (e *TransportError) Unwrap() error { return e.Cause }

// Injector delivers payloads into multiplexer panes. It is safe for
// concurrent use: a per-pane mutex serializes writers to the same pane,
// while a bounded semaphore caps total concurrent multiplexer calls.
type Injector struct {
	Session string
	Runner  CommandRunner
	Log     Logger

	concurrency *semaphore.Weighted

	mu        sync.Mutex
	paneLocks map[pane.ID]*sync.Mutex

	nextID   int64
	idMu     sync.Mutex
}

// New constructs an Injector bound to a multiplexer session, with at most
// maxConcurrent simultaneous in-flight multiplexer calls (spec default 4).
func New(session string, runner CommandRunner, log Logger, maxConcurrent int) *Injector {
	if maxConcurrent <= 0 {
		maxConcurrent = 4
	}
	return &Injector{
		Session:     session,
		Runner:      runner,
		Log:         log,
		concurrency: semaphore.NewWeighted(int64(maxConcurrent)),
		paneLocks:   make(map[pane.ID]*sync.Mutex),
	}
}

func (in *Injector) lockFor(p pane.ID) *sync.Mutex {
	in.mu.Lock()
	defer in.mu.Unlock()
	l, ok := in.paneLocks[p]
	if !ok {
		l = &sync.Mutex{}
		in.paneLocks[p] = l
	}
	return l
}

// Send delivers payload into p, logging the attempt's observed outcome.
// It returns an assigned message_id on delivered/dry_run, or a
// *TransportError / context error otherwise. Send never retries; retry is
// the caller's policy.
func (in *Injector) Send(ctx context.Context, p pane.ID, payload string, opts Options) (int64, error) {
	if p == "" {
		return 0, fmt.Errorf("inject: empty pane")
	}

	if opts.DryRun {
		id := in.assignID()
		in.append(ctx, p, payload, opts, OutcomeDryRun)
		return id, nil
	}

	if err := in.concurrency.Acquire(ctx, 1); err != nil {
		return 0, err
	}
	defer in.concurrency.Release(1)

	lock := in.lockFor(p)
	lock.Lock()
	defer lock.Unlock()

	outcome, err := in.deliver(ctx, p, payload)
	id := in.assignID()
	in.append(ctx, p, payload, opts, outcome)

	if err != nil {
		return 0, &TransportError{Pane: p, Outcome: outcome, Cause: err}
	}
	return id, nil
}

func (in *Injector) assignID() int64 {
	in.idMu.Lock()
	defer in.idMu.Unlock()
	in.nextID++
	return in.nextID
}

func (in *Injector) append(ctx context.Context, p pane.ID, payload string, opts Options, outcome Outcome) {
	if in.Log == nil {
		return
	}
	entry := Entry{
		Session:     in.Session,
		Pane:        p,
		PayloadHash: hashPayload(payload),
		Type:        opts.Type,
		Sender:      opts.Sender,
		Metadata:    opts.Metadata,
		DryRun:      opts.DryRun,
		Outcome:     outcome,
	}
	_ = in.Log.AppendInjection(ctx, entry)
}

// deliver invokes the tmux primitive and classifies the result. Payloads
// under pasteThresholdBytes use send-keys -l; larger payloads use
// set-buffer/paste-buffer so the hosted process sees one unified input.
func (in *Injector) deliver(ctx context.Context, p pane.ID, payload string) (Outcome, error) {
	target := in.Session + ":" + string(p)

	if _, err := in.Runner.Run(ctx, "tmux", "has-session", "-t", in.Session); err != nil {
		return OutcomeSessionNotFound, err
	}

	if _, err := in.Runner.Run(ctx, "tmux", "display-message", "-p", "-t", target, "#{pane_id}"); err != nil {
		return OutcomePaneNotFound, err
	}

	var deliverErr error
	if len(payload) > pasteThresholdBytes {
		if _, err := in.Runner.Run(ctx, "tmux", "set-buffer", "-b", "beehive", payload); err != nil {
			deliverErr = err
		} else if _, err := in.Runner.Run(ctx, "tmux", "paste-buffer", "-b", "beehive", "-t", target); err != nil {
			deliverErr = err
		}
	} else {
		if _, err := in.Runner.Run(ctx, "tmux", "send-keys", "-t", target, "-l", payload); err != nil {
			deliverErr = err
		}
	}
	if deliverErr != nil {
		return OutcomeTransportError, deliverErr
	}

	select {
	case <-time.After(sendKeysDebounce):
	case <-ctx.Done():
		return OutcomeTransportError, ctx.Err()
	}

	if _, err := in.Runner.Run(ctx, "tmux", "send-keys", "-t", target, "Enter"); err != nil {
		return OutcomeTransportError, err
	}

	return OutcomeDelivered, nil
}

func hashPayload(payload string) string {
	// A short, non-cryptographic fingerprint is sufficient here: the log
	// exists to correlate attempts, not to verify payload integrity.
	var sum uint64 = 1469598103934665603
	const prime uint64 = 1099511628211
	for i := 0; i < len(payload); i++ {
		sum ^= uint64(payload[i])
		sum *= prime
	}
	return fmt.Sprintf("%016x:%d", sum, len(payload))
}

// SplitLines is a small helper used by callers composing multi-line wire
// payloads to count how many terminal lines a payload will occupy, useful
// for capping Metadata summaries written to the injection log.
func SplitLines(payload string) []string {
	return strings.Split(payload, "\n")
}
