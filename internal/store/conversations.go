package store

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/vetdesk/vetdesk/pkg/chat"
)

// Conversations is the durable message log. It implements
// chat.ConversationStore.
type Conversations struct {
	store *Store
}

// Conversations returns the conversation repository.
func (s *Store) Conversations() *Conversations {
	return &Conversations{store: s}
}

// pairKey derives the unordered participant pair key. Both orderings of the
// same two identities map to the same conversation.
func pairKey(a, b string) string {
	if strings.Compare(a, b) > 0 {
		a, b = b, a
	}
	return a + ":" + b
}

// Append persists one message.
func (c *Conversations) Append(ctx context.Context, msg chat.Message) error {
	_, err := c.store.db.ExecContext(ctx,
		`INSERT INTO messages (pair, from_id, to_id, content, date) VALUES (?, ?, ?, ?, ?)`,
		pairKey(msg.From, msg.To),
		msg.From,
		msg.To,
		msg.Content,
		formatTime(msg.Date),
	)
	if err != nil {
		return fmt.Errorf("failed to append message: %w", err)
	}
	return nil
}

// Conversation returns all messages between two identities in ascending date
// order. No history yields an empty slice.
func (c *Conversations) Conversation(ctx context.Context, a, b string) ([]chat.Message, error) {
	rows, err := c.store.db.QueryContext(ctx,
		`SELECT from_id, to_id, content, date FROM messages WHERE pair = ? ORDER BY date ASC, id ASC`,
		pairKey(a, b),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to query conversation: %w", err)
	}
	defer rows.Close()

	messages := make([]chat.Message, 0)
	for rows.Next() {
		var msg chat.Message
		var date string
		if err := rows.Scan(&msg.From, &msg.To, &msg.Content, &date); err != nil {
			return nil, fmt.Errorf("failed to scan message: %w", err)
		}
		msg.Date, err = parseTime(date)
		if err != nil {
			return nil, fmt.Errorf("failed to parse message date: %w", err)
		}
		messages = append(messages, msg)
	}
	return messages, rows.Err()
}

// PurgeOlderThan deletes messages persisted before the cutoff. Used by the
// retention maintenance job; returns the number of messages removed.
func (c *Conversations) PurgeOlderThan(ctx context.Context, cutoff time.Time) (int64, error) {
	res, err := c.store.db.ExecContext(ctx,
		`DELETE FROM messages WHERE date < ?`,
		formatTime(cutoff),
	)
	if err != nil {
		return 0, fmt.Errorf("failed to purge messages: %w", err)
	}
	return res.RowsAffected()
}
