package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"
)

// RedisTier persists entries in Redis under a namespaced key. Entries are
// stored without a server-side TTL: freshness is decided by cache policy,
// and stale entries must remain available as a fetch-failure fallback.
type RedisTier struct {
	client *redis.Client
	prefix string
}

// NewRedisTier creates a Redis-backed persisted tier.
func NewRedisTier(addr, prefix string) *RedisTier {
	return &RedisTier{
		client: redis.NewClient(&redis.Options{Addr: addr}),
		prefix: prefix,
	}
}

// Get reads the entry for key, or returns ErrEntryNotFound.
func (t *RedisTier) Get(ctx context.Context, key string) (*Entry, error) {
	data, err := t.client.Get(ctx, t.prefix+key).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, ErrEntryNotFound
		}
		return nil, fmt.Errorf("failed to read cache key: %w", err)
	}

	var e Entry
	if err := json.Unmarshal(data, &e); err != nil {
		return nil, ErrEntryNotFound
	}
	return &e, nil
}

// Set writes the entry for key. Last writer wins.
func (t *RedisTier) Set(ctx context.Context, key string, entry Entry) error {
	data, err := json.Marshal(entry)
	if err != nil {
		return fmt.Errorf("failed to marshal cache entry: %w", err)
	}

	if err := t.client.Set(ctx, t.prefix+key, data, 0).Err(); err != nil {
		return fmt.Errorf("failed to write cache key: %w", err)
	}
	return nil
}
