package store_test

import (
	"context"
	"testing"

	"github.com/beehive-swarm/beehive/internal/beename"
	"github.com/beehive-swarm/beehive/internal/inject"
	"github.com/beehive-swarm/beehive/internal/pane"
)

func TestAppendInjectionAndInjectionLog(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	if err := s.AppendInjection(ctx, inject.Entry{
		Session:     "beehive",
		Pane:        pane.ID("beehive:0.1"),
		PayloadHash: "deadbeef",
		Type:        "instruction",
		Sender:      beename.Name("queen"),
		DryRun:      false,
		Outcome:     inject.OutcomeDelivered,
	}); err != nil {
		t.Fatalf("AppendInjection: %v", err)
	}
	if err := s.AppendInjection(ctx, inject.Entry{
		Session:     "beehive",
		Pane:        pane.ID("beehive:0.2"),
		PayloadHash: "cafef00d",
		Outcome:     inject.OutcomeDryRun,
		DryRun:      true,
	}); err != nil {
		t.Fatalf("AppendInjection: %v", err)
	}

	log, err := s.InjectionLog(ctx)
	if err != nil {
		t.Fatalf("InjectionLog: %v", err)
	}
	if len(log) != 2 {
		t.Fatalf("expected 2 injection log rows, got %d", len(log))
	}
	if log[0].PayloadHash != "deadbeef" || log[0].Outcome != string(inject.OutcomeDelivered) {
		t.Errorf("unexpected first row: %+v", log[0])
	}
	if !log[1].DryRun || log[1].Outcome != string(inject.OutcomeDryRun) {
		t.Errorf("unexpected second row: %+v", log[1])
	}
}
