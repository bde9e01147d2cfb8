package memory

import (
	"context"
	"sync"
)

// HistoryStore keeps per-user seen-question sets in memory.
type HistoryStore struct {
	mu   sync.RWMutex
	seen map[string]map[string]struct{}
}

func NewHistoryStore() *HistoryStore {
	return &HistoryStore{seen: make(map[string]map[string]struct{})}
}

func (h *HistoryStore) Seen(_ context.Context, userID string) ([]string, error) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	ids := make([]string, 0, len(h.seen[userID]))
	for id := range h.seen[userID] {
		ids = append(ids, id)
	}
	return ids, nil
}

func (h *HistoryStore) MarkSeen(_ context.Context, userID string, questionIDs []string) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	set, ok := h.seen[userID]
	if !ok {
		set = make(map[string]struct{})
		h.seen[userID] = set
	}
	for _, id := range questionIDs {
		set[id] = struct{}{}
	}
	return nil
}

func (h *HistoryStore) Reset(_ context.Context, userID string) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	delete(h.seen, userID)
	return nil
}
