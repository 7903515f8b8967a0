package store_test

import (
	"context"
	"testing"
	"time"

	"github.com/beehive-swarm/beehive/internal/store"
)

func TestEnqueueAndDequeue(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	id, err := s.Enqueue(ctx, store.EnqueueParams{
		FromBee: "queen", ToBee: "developer", Type: "instruction", Content: "build it", Priority: store.MsgNormal,
	})
	if err != nil {
		t.Fatalf("Enqueue: %v", err)
	}
	if id == 0 {
		t.Fatal("expected a non-zero message ID")
	}

	msgs, err := s.Dequeue(ctx, "developer", false)
	if err != nil {
		t.Fatalf("Dequeue: %v", err)
	}
	if len(msgs) != 1 || msgs[0].MessageID != id {
		t.Fatalf("expected exactly message %d for developer, got %v", id, msgs)
	}

	if err := s.MarkProcessed(ctx, id); err != nil {
		t.Fatalf("MarkProcessed: %v", err)
	}

	msgs, err = s.Dequeue(ctx, "developer", false)
	if err != nil {
		t.Fatalf("Dequeue after processed: %v", err)
	}
	if len(msgs) != 0 {
		t.Fatalf("expected no unprocessed messages left, got %v", msgs)
	}

	msgs, err = s.Dequeue(ctx, "developer", true)
	if err != nil {
		t.Fatalf("Dequeue including processed: %v", err)
	}
	if len(msgs) != 1 {
		t.Fatalf("expected the processed message to still show up with includeProcessed, got %v", msgs)
	}
}

func TestReapExpired(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	past := time.Now().Add(-time.Hour).UTC().Format("2006-01-02T15:04:05.000Z")
	if _, err := s.Enqueue(ctx, store.EnqueueParams{
		FromBee: "queen", ToBee: "developer", Type: "instruction", Content: "expired", Priority: store.MsgNormal, ExpiresAt: past,
	}); err != nil {
		t.Fatalf("Enqueue: %v", err)
	}
	if _, err := s.Enqueue(ctx, store.EnqueueParams{
		FromBee: "queen", ToBee: "developer", Type: "instruction", Content: "fresh", Priority: store.MsgNormal,
	}); err != nil {
		t.Fatalf("Enqueue: %v", err)
	}

	n, err := s.ReapExpired(ctx)
	if err != nil {
		t.Fatalf("ReapExpired: %v", err)
	}
	if n != 1 {
		t.Fatalf("expected exactly 1 expired message reaped, got %d", n)
	}

	msgs, err := s.Dequeue(ctx, "developer", false)
	if err != nil {
		t.Fatalf("Dequeue: %v", err)
	}
	if len(msgs) != 1 || msgs[0].Content != "fresh" {
		t.Fatalf("expected only the fresh message to remain, got %v", msgs)
	}
}

func TestMessagesSinceAndMaxMessageID(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	id1, err := s.Enqueue(ctx, store.EnqueueParams{FromBee: "queen", ToBee: "developer", Type: "instruction", Content: "one", Priority: store.MsgNormal})
	if err != nil {
		t.Fatalf("Enqueue: %v", err)
	}
	id2, err := s.Enqueue(ctx, store.EnqueueParams{FromBee: "queen", ToBee: "qa", Type: "instruction", Content: "two", Priority: store.MsgNormal})
	if err != nil {
		t.Fatalf("Enqueue: %v", err)
	}

	maxID, err := s.MaxMessageID(ctx)
	if err != nil {
		t.Fatalf("MaxMessageID: %v", err)
	}
	if maxID != id2 {
		t.Fatalf("expected max message ID %d, got %d", id2, maxID)
	}

	since, err := s.MessagesSince(ctx, id1)
	if err != nil {
		t.Fatalf("MessagesSince: %v", err)
	}
	if len(since) != 1 || since[0].MessageID != id2 {
		t.Fatalf("expected exactly message %d after %d, got %v", id2, id1, since)
	}
}
