package container

import (
	"context"

	"github.com/wekai-labs/ragqa/internal/capability"
)

// historyChecker adapts capability.HistoryStore to intent.HistoryChecker
// so the classifier's conversation-dependent override has something
// concrete to call without the intent package importing the store
// package directly.
type historyChecker struct {
	store capability.HistoryStore
}

func newHistoryChecker(store capability.HistoryStore) *historyChecker {
	return &historyChecker{store: store}
}

// HasPriorTurns reports whether sessionID has at least one turn on
// record. A store error is treated as "no prior turns" — the
// classifier falls back to treating the query as a fresh one rather
// than failing the whole request over a transient history-store blip.
func (h *historyChecker) HasPriorTurns(ctx context.Context, sessionID string) bool {
	turns, err := h.store.Get(ctx, sessionID, 1)
	if err != nil {
		return false
	}
	return len(turns) > 0
}
