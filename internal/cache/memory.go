package cache

import (
	"context"
	"sync"
)

// MemoryTier is the in-process tier. Cleared on restart; always consulted
// before the persisted tier.
type MemoryTier struct {
	mu      sync.RWMutex
	entries map[string]Entry
}

// NewMemoryTier creates an empty in-process tier.
func NewMemoryTier() *MemoryTier {
	return &MemoryTier{entries: make(map[string]Entry)}
}

// Get returns the entry for key, or ErrEntryNotFound.
func (t *MemoryTier) Get(ctx context.Context, key string) (*Entry, error) {
	t.mu.RLock()
	defer t.mu.RUnlock()

	e, ok := t.entries[key]
	if !ok {
		return nil, ErrEntryNotFound
	}
	return &e, nil
}

// Set stores an entry. Last writer wins.
func (t *MemoryTier) Set(ctx context.Context, key string, entry Entry) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.entries[key] = entry
	return nil
}
