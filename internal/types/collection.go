package types

import "time"

// Collection is the keyspace a query is scoped to: its own chunk store,
// its own lexical index, and (implicitly) its own conversation sessions.
// A request names exactly one collection; nothing in this repository
// joins across collections.
type Collection struct {
	Name      string    `json:"name"`
	CreatedAt time.Time `json:"created_at"`
}

// ConversationTurn is one exchange in a session's history, kept by the
// HistoryStore capability and consulted by the router, rewriter, and
// intent handlers for conversational context.
type ConversationTurn struct {
	Role      string    `json:"role"` // "user" or "assistant"
	Content   string    `json:"content"`
	Timestamp time.Time `json:"timestamp"`
	Sources   []Source  `json:"sources,omitempty"`
}
