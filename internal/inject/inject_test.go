package inject_test

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/beehive-swarm/beehive/internal/beename"
	"github.com/beehive-swarm/beehive/internal/inject"
	"github.com/beehive-swarm/beehive/internal/pane"
)

type fakeLog struct {
	mu      chan struct{}
	entries []inject.Entry
}

func newFakeLog() *fakeLog { return &fakeLog{mu: make(chan struct{}, 1)} }

func (f *fakeLog) AppendInjection(_ context.Context, e inject.Entry) error {
	f.entries = append(f.entries, e)
	return nil
}

func TestSendDeliveredLogsOutcome(t *testing.T) {
	t.Parallel()

	runner := inject.NewFakeRunner()
	log := newFakeLog()
	in := inject.New("beehive", runner, log, 4)

	id, err := in.Send(context.Background(), pane.ID("developer"), "hello\n", inject.Options{Type: "instruction", Sender: beename.Queen})
	if err != nil {
		t.Fatalf("Send: %v", err)
	}
	if id == 0 {
		t.Fatal("expected non-zero message id")
	}
	if len(log.entries) != 1 {
		t.Fatalf("expected 1 log entry, got %d", len(log.entries))
	}
	if log.entries[0].Outcome != inject.OutcomeDelivered {
		t.Fatalf("got outcome %v", log.entries[0].Outcome)
	}
}

func TestSendDryRunSkipsMultiplexer(t *testing.T) {
	t.Parallel()

	runner := inject.NewFakeRunner()
	log := newFakeLog()
	in := inject.New("beehive", runner, log, 4)

	_, err := in.Send(context.Background(), pane.ID("developer"), "hello", inject.Options{DryRun: true})
	if err != nil {
		t.Fatalf("Send: %v", err)
	}
	if runner.CallCount() != 0 {
		t.Fatalf("expected no multiplexer calls on dry_run, got %d", runner.CallCount())
	}
	if log.entries[0].Outcome != inject.OutcomeDryRun {
		t.Fatalf("got outcome %v", log.entries[0].Outcome)
	}
}

func TestSendPaneNotFound(t *testing.T) {
	t.Parallel()

	runner := inject.NewFakeRunner()
	runner.Failures["tmux display-message"] = errors.New("can't find pane")
	log := newFakeLog()
	in := inject.New("beehive", runner, log, 4)

	_, err := in.Send(context.Background(), pane.ID("developer"), "hello", inject.Options{})
	var te *inject.TransportError
	if !errors.As(err, &te) {
		t.Fatalf("expected TransportError, got %v", err)
	}
	if te.Outcome != inject.OutcomePaneNotFound {
		t.Fatalf("got outcome %v", te.Outcome)
	}
	if log.entries[0].Outcome != inject.OutcomePaneNotFound {
		t.Fatalf("log outcome = %v", log.entries[0].Outcome)
	}
}

func TestSendSessionNotFound(t *testing.T) {
	t.Parallel()

	runner := inject.NewFakeRunner()
	runner.Failures["tmux has-session"] = errors.New("no such session")
	in := inject.New("beehive", runner, newFakeLog(), 4)

	_, err := in.Send(context.Background(), pane.ID("developer"), "hello", inject.Options{})
	var te *inject.TransportError
	if !errors.As(err, &te) || te.Outcome != inject.OutcomeSessionNotFound {
		t.Fatalf("got %v", err)
	}
}

func TestSendLargePayloadUsesPasteBuffer(t *testing.T) {
	t.Parallel()

	runner := inject.NewFakeRunner()
	in := inject.New("beehive", runner, newFakeLog(), 4)

	big := strings.Repeat("x", 3000)
	if _, err := in.Send(context.Background(), pane.ID("queen"), big, inject.Options{}); err != nil {
		t.Fatalf("Send: %v", err)
	}

	var sawSetBuffer bool
	for _, c := range runner.Calls {
		if c.Name == "tmux" && len(c.Args) > 0 && c.Args[0] == "set-buffer" {
			sawSetBuffer = true
		}
	}
	if !sawSetBuffer {
		t.Fatal("expected set-buffer call for large payload")
	}
}

func TestSendNeverRetries(t *testing.T) {
	t.Parallel()

	runner := inject.NewFakeRunner()
	runner.Failures["tmux display-message"] = errors.New("gone")
	in := inject.New("beehive", runner, newFakeLog(), 4)

	_, err := in.Send(context.Background(), pane.ID("developer"), "hi", inject.Options{})
	if err == nil {
		t.Fatal("expected error")
	}
	// has-session + display-message = 2 calls, no retry attempts beyond that.
	if runner.CallCount() != 2 {
		t.Fatalf("expected exactly 2 calls (no retry), got %d", runner.CallCount())
	}
}
