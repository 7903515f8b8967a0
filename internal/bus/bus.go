// Package bus implements the Message Bus (component D): the
// protocol-level contract that every inter-bee exchange goes through,
// built atop the Store (persistence) and the Injector (delivery).
package bus

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/beehive-swarm/beehive/internal/beename"
	"github.com/beehive-swarm/beehive/internal/inject"
	"github.com/beehive-swarm/beehive/internal/pane"
	"github.com/beehive-swarm/beehive/internal/store"
)

// Store is the subset of *store.Store the Bus depends on.
type Store interface {
	Enqueue(ctx context.Context, p store.EnqueueParams) (int64, error)
	Dequeue(ctx context.Context, bee string, includeProcessed bool) ([]*store.Message, error)
	MarkProcessed(ctx context.Context, messageID int64) error
	Touch(ctx context.Context, bee string, heartbeat bool) error
}

// Panes resolves a bee to its pane. internal/pane.Table implements this.
type Panes interface {
	Resolve(bee beename.Name) (pane.ID, error)
	ResolveAll() []pane.ID
}

// Injector delivers a payload into a pane. internal/inject.Injector
// implements this.
type Injector interface {
	Send(ctx context.Context, p pane.ID, payload string, opts inject.Options) (int64, error)
}

// Bus is the Message Bus: it persists every Message through Store and
// delivers the composed wire payload through Injector.
type Bus struct {
	store    Store
	panes    Panes
	injector Injector
}

// New constructs a Bus bound to the given Store, Panes table, and Injector.
func New(st Store, panes Panes, injector Injector) *Bus {
	return &Bus{store: st, panes: panes, injector: injector}
}

// SendParams holds the optional fields for Send beyond from/to/type/content.
type SendParams struct {
	Subject        string
	TaskID         string
	Priority       store.MessagePriority
	ReplyTo        int64
	ExpiresAt      string
	ConversationID string
	DryRun         bool
}

// Delivery reports the outcome of delivering one message to one recipient,
// returned per-recipient so broadcast partial failures are observable.
type Delivery struct {
	Recipient beename.Name
	MessageID int64
	Err       error
}

// Send validates from/to, persists one Message per expanded recipient
// (sharing a conversation_id on broadcast), composes the wire payload, and
// delivers it through the Injector. It returns one Delivery per recipient;
// a recipient's Err does not stop delivery to the others (spec §4.D
// broadcast semantics: at-least-once per recipient, partial failure
// allowed).
func (b *Bus) Send(ctx context.Context, from, to beename.Name, msgType, content string, p SendParams) ([]Delivery, error) {
	if err := beename.Validate(from); err != nil {
		return nil, err
	}
	if !beename.IsRecipient(to) {
		return nil, &beename.InvalidNameError{Name: to, Why: "not a valid message recipient"}
	}
	if content == "" {
		return nil, fmt.Errorf("bus: Send: content must be non-empty")
	}
	if p.Priority == "" {
		p.Priority = store.MsgNormal
	}

	recipients := beename.Expand(to, from)
	conversationID := p.ConversationID
	if conversationID == "" && len(recipients) > 1 {
		conversationID = uuid.NewString()
	}

	deliveries := make([]Delivery, 0, len(recipients))
	for _, recipient := range recipients {
		d := b.sendOne(ctx, from, recipient, msgType, content, p, conversationID)
		deliveries = append(deliveries, d)
	}
	return deliveries, nil
}

func (b *Bus) sendOne(ctx context.Context, from, to beename.Name, msgType, content string, p SendParams, conversationID string) Delivery {
	id, err := b.store.Enqueue(ctx, store.EnqueueParams{
		FromBee:        string(from),
		ToBee:          string(to),
		Type:           msgType,
		Subject:        p.Subject,
		Content:        content,
		TaskID:         p.TaskID,
		Priority:       p.Priority,
		ExpiresAt:      p.ExpiresAt,
		ReplyTo:        p.ReplyTo,
		SenderCLIUsed:  true,
		ConversationID: conversationID,
	})
	if err != nil {
		return Delivery{Recipient: to, Err: fmt.Errorf("enqueue: %w", err)}
	}

	if beename.IsBee(from) {
		_ = b.store.Touch(ctx, string(from), false)
	}
	if beename.IsBee(to) {
		_ = b.store.Touch(ctx, string(to), false)
	}

	payload := FormatWireBlock(WireMessage{
		From:      from,
		Type:      msgType,
		Subject:   p.Subject,
		TaskID:    p.TaskID,
		Content:   content,
		MessageID: id,
	})

	target, err := b.panes.Resolve(to)
	if err != nil {
		return Delivery{Recipient: to, MessageID: id, Err: fmt.Errorf("resolve pane: %w", err)}
	}

	if _, err := b.injector.Send(ctx, target, payload, inject.Options{
		Type:   msgType,
		Sender: from,
		DryRun: p.DryRun,
	}); err != nil {
		return Delivery{Recipient: to, MessageID: id, Err: fmt.Errorf("inject: %w", err)}
	}

	return Delivery{Recipient: to, MessageID: id}
}

// ReceiveOptions narrows Receive's result set.
type ReceiveOptions struct {
	IncludeProcessed bool
	Max              int
}

// Receive returns bee's dequeued-but-not-necessarily-consumed messages. The
// caller is responsible for calling Ack on each message it consumes.
func (b *Bus) Receive(ctx context.Context, bee beename.Name, opts ReceiveOptions) ([]*store.Message, error) {
	if err := beename.Validate(bee); err != nil {
		return nil, err
	}
	msgs, err := b.store.Dequeue(ctx, string(bee), opts.IncludeProcessed)
	if err != nil {
		return nil, err
	}
	if opts.Max > 0 && len(msgs) > opts.Max {
		msgs = msgs[:opts.Max]
	}
	return msgs, nil
}

// Ack marks messageID processed. Idempotent: a second call is a no-op.
func (b *Bus) Ack(ctx context.Context, messageID int64) error {
	return b.store.MarkProcessed(ctx, messageID)
}

// Notify adapts Send to the positional-argument shape internal/task.Notifier
// expects for its automatic completion/failure notifications, so the Task
// Engine does not need to depend on bus.SendParams directly.
func (b *Bus) Notify(ctx context.Context, from, to beename.Name, msgType, content, taskID string, priority store.MessagePriority) error {
	deliveries, err := b.Send(ctx, from, to, msgType, content, SendParams{TaskID: taskID, Priority: priority})
	if err != nil {
		return err
	}
	for _, d := range deliveries {
		if d.Err != nil {
			return d.Err
		}
	}
	return nil
}
