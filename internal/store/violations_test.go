package store_test

import (
	"context"
	"testing"
)

func TestRecordViolationAlertClaimsOncePerWindow(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	claimed, err := s.RecordViolationAlert(ctx, "developer", "2026-08-04T10:00:00Z")
	if err != nil {
		t.Fatalf("RecordViolationAlert: %v", err)
	}
	if !claimed {
		t.Fatal("expected the first claim in a window to succeed")
	}

	claimed, err = s.RecordViolationAlert(ctx, "developer", "2026-08-04T10:00:00Z")
	if err != nil {
		t.Fatalf("RecordViolationAlert: %v", err)
	}
	if claimed {
		t.Fatal("expected a second claim of the same window to be rejected")
	}

	claimed, err = s.RecordViolationAlert(ctx, "developer", "2026-08-04T10:05:00Z")
	if err != nil {
		t.Fatalf("RecordViolationAlert: %v", err)
	}
	if !claimed {
		t.Fatal("expected a claim in a different window to succeed")
	}

	claimed, err = s.RecordViolationAlert(ctx, "qa", "2026-08-04T10:00:00Z")
	if err != nil {
		t.Fatalf("RecordViolationAlert: %v", err)
	}
	if !claimed {
		t.Fatal("expected a claim from a different sender in the same window to succeed")
	}
}
