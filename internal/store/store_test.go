package store_test

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/beehive-swarm/beehive/internal/store"
)

// openTestStore opens a fresh SQLite-backed Store in a temp directory,
// the same database path shape production uses (no :memory:, so WAL mode
// and migration behavior match reality).
func openTestStore(t *testing.T) *store.Store {
	t.Helper()
	dbPath := filepath.Join(t.TempDir(), "beehive.db")
	s, err := store.Open(context.Background(), dbPath)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func TestOpenSeedsEveryBeeAsIdle(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	states, err := s.ListStates(ctx)
	if err != nil {
		t.Fatalf("ListStates: %v", err)
	}
	if len(states) != 4 {
		t.Fatalf("expected 4 seeded bees (queen, developer, qa, analyst), got %d", len(states))
	}
	for _, st := range states {
		if st.Status != store.AgentIdle {
			t.Errorf("bee %s: expected seeded status idle, got %s", st.BeeName, st.Status)
		}
	}
}
