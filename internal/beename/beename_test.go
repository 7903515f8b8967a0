package beename_test

import (
	"testing"

	"github.com/beehive-swarm/beehive/internal/beename"
)

func TestValidateAssignee(t *testing.T) {
	t.Parallel()

	if err := beename.ValidateAssignee(beename.Developer); err != nil {
		t.Fatalf("developer should be a valid assignee: %v", err)
	}

	for _, bad := range []beename.Name{beename.All, beename.System, beename.Beekeeper, "nope"} {
		if err := beename.ValidateAssignee(bad); err == nil {
			t.Fatalf("expected error validating assignee %q", bad)
		}
	}
}

func TestExpandBroadcastExcludesSender(t *testing.T) {
	t.Parallel()

	got := beename.Expand(beename.All, beename.Developer)
	if len(got) != len(beename.Bees)-1 {
		t.Fatalf("expected %d recipients, got %d (%v)", len(beename.Bees)-1, len(got), got)
	}
	for _, n := range got {
		if n == beename.Developer {
			t.Fatalf("broadcast expansion included sender: %v", got)
		}
	}
}

func TestExpandBroadcastFromSystemIncludesAllBees(t *testing.T) {
	t.Parallel()

	got := beename.Expand(beename.All, beename.System)
	if len(got) != len(beename.Bees) {
		t.Fatalf("expected %d recipients from system sender, got %d", len(beename.Bees), len(got))
	}
}

func TestExpandNonBroadcast(t *testing.T) {
	t.Parallel()

	got := beename.Expand(beename.Queen, beename.Developer)
	if len(got) != 1 || got[0] != beename.Queen {
		t.Fatalf("expected [queen], got %v", got)
	}
}

func TestIsRecipient(t *testing.T) {
	t.Parallel()

	cases := map[beename.Name]bool{
		beename.Queen:     true,
		beename.All:       true,
		beename.System:    false,
		beename.Beekeeper: false,
	}
	for n, want := range cases {
		if got := beename.IsRecipient(n); got != want {
			t.Errorf("IsRecipient(%q) = %v, want %v", n, got, want)
		}
	}
}
