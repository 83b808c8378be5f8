package chat

import "context"

// ConversationStore is the durable append-only log of private messages.
// Implementations must order Conversation results by ascending date and treat
// the participant pair as unordered: Conversation(a, b) == Conversation(b, a).
type ConversationStore interface {
	// Append persists one message. It is called off the delivery path and
	// must not assume the recipient is online.
	Append(ctx context.Context, msg Message) error

	// Conversation returns every message exchanged between two identities,
	// oldest first. No history is an empty slice, not an error.
	Conversation(ctx context.Context, a, b string) ([]Message, error)
}
