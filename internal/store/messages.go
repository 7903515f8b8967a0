package store

import (
	"context"
	"database/sql"
	"errors"
)

// EnqueueParams holds the fields needed to persist a new Message.
type EnqueueParams struct {
	FromBee        string
	ToBee          string
	Type           string
	Subject        string
	Content        string
	TaskID         string
	Priority       MessagePriority
	ExpiresAt      string // RFC3339/now()-layout; empty means no expiry
	ReplyTo        int64
	SenderCLIUsed  bool
	ConversationID string
}

// Enqueue persists a new Message and returns its assigned message_id.
func (s *Store) Enqueue(ctx context.Context, p EnqueueParams) (int64, error) {
	if p.Content == "" {
		return 0, &IntegrityError{Op: "Enqueue", Cause: errEmptyContent}
	}
	if p.Priority == "" {
		p.Priority = MsgNormal
	}

	var id int64
	err := s.withRetry(ctx, "Enqueue", func(tx *sql.Tx) error {
		var replyTo interface{}
		if p.ReplyTo != 0 {
			replyTo = p.ReplyTo
		}
		res, err := tx.ExecContext(ctx, `
			INSERT INTO messages (from_bee, to_bee, type, subject, content, task_id, priority,
			                       created_at, expires_at, reply_to, sender_cli_used, conversation_id)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			p.FromBee, p.ToBee, p.Type, nullableString(p.Subject), p.Content,
			nullableString(p.TaskID), string(p.Priority), now(), nullableString(p.ExpiresAt),
			replyTo, boolToInt(p.SenderCLIUsed), nullableString(p.ConversationID),
		)
		if err != nil {
			return err
		}
		id, err = res.LastInsertId()
		return err
	})
	return id, err
}

var errEmptyContent = errors.New("message content must be non-empty")

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

// Dequeue returns messages addressed to bee, honoring expiry, ordered by
// (priority desc, created_at asc) per the pending_messages view. When
// includeProcessed is false (the default), only unprocessed messages are
// returned.
func (s *Store) Dequeue(ctx context.Context, bee string, includeProcessed bool) ([]*Message, error) {
	q := `
		SELECT message_id, from_bee, to_bee, type, COALESCE(subject,''), content,
		       COALESCE(task_id,''), priority, processed, COALESCE(processed_at,''),
		       created_at, COALESCE(expires_at,''), COALESCE(reply_to,0), sender_cli_used,
		       COALESCE(conversation_id,'')
		FROM messages
		WHERE to_bee = ?`
	args := []interface{}{bee}
	if !includeProcessed {
		q += ` AND processed = 0 AND (expires_at IS NULL OR expires_at >= ?)`
		args = append(args, now())
	}
	q += ` ORDER BY CASE priority WHEN 'urgent' THEN 0 WHEN 'high' THEN 1 WHEN 'normal' THEN 2 ELSE 3 END, created_at ASC`

	rows, err := s.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*Message
	for rows.Next() {
		m, err := scanMessageRow(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, m)
	}
	return out, rows.Err()
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanMessageRow(rows rowScanner) (*Message, error) {
	var (
		m                         Message
		priority                  string
		processedInt              int
		senderCLIUsedInt          int
		createdAt, processedAt    string
		expiresAt                 string
	)
	if err := rows.Scan(&m.MessageID, &m.FromBee, &m.ToBee, &m.Type, &m.Subject, &m.Content,
		&m.TaskID, &priority, &processedInt, &processedAt, &createdAt, &expiresAt,
		&m.ReplyTo, &senderCLIUsedInt, &m.ConversationID); err != nil {
		return nil, err
	}
	m.Priority = MessagePriority(priority)
	m.Processed = processedInt != 0
	m.SenderCLIUsed = senderCLIUsedInt != 0

	var err error
	if m.CreatedAt, err = parseTime(createdAt); err != nil {
		return nil, err
	}
	if processedAt != "" {
		tm, err := parseTime(processedAt)
		if err != nil {
			return nil, err
		}
		m.ProcessedAt = &tm
	}
	if expiresAt != "" {
		tm, err := parseTime(expiresAt)
		if err != nil {
			return nil, err
		}
		m.ExpiresAt = &tm
	}
	return &m, nil
}

// MarkProcessed marks a message processed. Idempotent: calling it twice has
// the same effect as calling it once.
func (s *Store) MarkProcessed(ctx context.Context, messageID int64) error {
	return s.withRetry(ctx, "MarkProcessed", func(tx *sql.Tx) error {
		_, err := tx.ExecContext(ctx, `
			UPDATE messages SET processed = 1, processed_at = ?
			WHERE message_id = ? AND processed = 0`, now(), messageID)
		return err
	})
}

// ReapExpired marks every unprocessed, expired message as processed with a
// synthetic note, preventing their future delivery (Supervisor duty #4).
// Returns the number of rows reaped.
func (s *Store) ReapExpired(ctx context.Context) (int, error) {
	var n int64
	err := s.withRetry(ctx, "ReapExpired", func(tx *sql.Tx) error {
		res, err := tx.ExecContext(ctx, `
			UPDATE messages SET processed = 1, processed_at = ?
			WHERE processed = 0 AND expires_at IS NOT NULL AND expires_at < ?`, now(), now())
		if err != nil {
			return err
		}
		n, err = res.RowsAffected()
		return err
	})
	return int(n), err
}

// MessagesSince returns messages inserted with message_id greater than
// sinceID, used by the Supervisor's protocol-violation scan.
func (s *Store) MessagesSince(ctx context.Context, sinceID int64) ([]*Message, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT message_id, from_bee, to_bee, type, COALESCE(subject,''), content,
		       COALESCE(task_id,''), priority, processed, COALESCE(processed_at,''),
		       created_at, COALESCE(expires_at,''), COALESCE(reply_to,0), sender_cli_used,
		       COALESCE(conversation_id,'')
		FROM messages WHERE message_id > ? ORDER BY message_id ASC`, sinceID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*Message
	for rows.Next() {
		m, err := scanMessageRow(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, m)
	}
	return out, rows.Err()
}

// MaxMessageID returns the highest message_id currently in the store (0 if
// empty), used by the Supervisor to bound its next violation scan.
func (s *Store) MaxMessageID(ctx context.Context) (int64, error) {
	var id sql.NullInt64
	if err := s.db.QueryRowContext(ctx, `SELECT MAX(message_id) FROM messages`).Scan(&id); err != nil {
		return 0, err
	}
	return id.Int64, nil
}

// InsertRawMessage inserts a Message bypassing the sanctioned Bus.send
// path, with sender_cli_used explicitly settable. It exists only to let
// tests and the teacher's own bee-CLI-bypass scenarios (spec S4) construct a
// protocol violation; production code must always go through the Bus.
func (s *Store) InsertRawMessage(ctx context.Context, p EnqueueParams) (int64, error) {
	return s.Enqueue(ctx, p)
}
