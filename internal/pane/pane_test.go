package pane_test

import (
	"errors"
	"testing"

	"github.com/beehive-swarm/beehive/internal/beename"
	"github.com/beehive-swarm/beehive/internal/pane"
)

func validTable(t *testing.T) *pane.Table {
	t.Helper()
	tbl, err := pane.New(map[beename.Name]pane.ID{
		beename.Queen:     "beehive:queen",
		beename.Developer: "beehive:developer",
		beename.QA:        "beehive:qa",
		beename.Analyst:   "beehive:analyst",
	})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return tbl
}

func TestResolveKnownBee(t *testing.T) {
	t.Parallel()
	tbl := validTable(t)

	id, err := tbl.Resolve(beename.Queen)
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if id != "beehive:queen" {
		t.Fatalf("got pane %q", id)
	}
}

func TestResolveUnknownBee(t *testing.T) {
	t.Parallel()
	tbl, err := pane.New(map[beename.Name]pane.ID{beename.Queen: "beehive:queen"})
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	_, err = tbl.Resolve(beename.Developer)
	var nfe *pane.NotFoundError
	if !errors.As(err, &nfe) {
		t.Fatalf("expected NotFoundError, got %v", err)
	}
}

func TestNewRejectsDuplicatePane(t *testing.T) {
	t.Parallel()
	_, err := pane.New(map[beename.Name]pane.ID{
		beename.Queen:     "shared",
		beename.Developer: "shared",
	})
	if err == nil {
		t.Fatal("expected error for duplicate pane binding")
	}
}

func TestNewRejectsNonBeeKey(t *testing.T) {
	t.Parallel()
	_, err := pane.New(map[beename.Name]pane.ID{beename.All: "x"})
	if err == nil {
		t.Fatal("expected error for 'all' as a mapping key")
	}
}

func TestResolveAllStableOrder(t *testing.T) {
	t.Parallel()
	tbl := validTable(t)
	got := tbl.ResolveAll()
	want := []pane.ID{"beehive:queen", "beehive:developer", "beehive:qa", "beehive:analyst"}
	if len(got) != len(want) {
		t.Fatalf("got %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("got %v, want %v", got, want)
		}
	}
}
