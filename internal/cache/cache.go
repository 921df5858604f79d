// Package cache implements the two-tier, TTL-based, stale-tolerant read
// cache that fronts all catalog/content fetches. Policy lives here; the
// storage tiers are pluggable so the persistence mechanism can change
// without touching policy.
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"time"

	"github.com/pvandermeer/luma/internal/telemetry"
)

// ErrEntryNotFound is returned by a Tier when it holds no entry for a key.
var ErrEntryNotFound = errors.New("cache: entry not found")

// DefaultTTL is the freshness window for cached entries.
const DefaultTTL = 5 * time.Minute

// Entry is one cached payload with the time it was fetched.
// An entry is fresh while now - Timestamp < TTL; stale entries are kept
// because staleness is preferred over unavailability.
type Entry struct {
	Payload   json.RawMessage `json:"payload"`
	Timestamp time.Time       `json:"timestamp"`
}

// Tier is one storage layer of the cache. Both tiers share one key space.
type Tier interface {
	// Get returns the entry for key, or ErrEntryNotFound.
	Get(ctx context.Context, key string) (*Entry, error)

	// Set stores an entry, replacing any previous one for the key.
	Set(ctx context.Context, key string, entry Entry) error
}

// FetchFunc retrieves a payload from the remote data store on a miss.
type FetchFunc func(ctx context.Context) (json.RawMessage, error)

// Cache composes the in-process tier with an optional persisted tier.
type Cache struct {
	memory    Tier
	persisted Tier // nil when no persisted tier is configured
	ttl       time.Duration
	logger    *slog.Logger
	metrics   *telemetry.Metrics
	now       func() time.Time
}

// New creates a cache over an in-process memory tier plus the given
// persisted tier. persisted may be nil.
func New(persisted Tier, ttl time.Duration, logger *slog.Logger, metrics *telemetry.Metrics) *Cache {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &Cache{
		memory:    NewMemoryTier(),
		persisted: persisted,
		ttl:       ttl,
		logger:    logger,
		metrics:   metrics,
		now:       time.Now,
	}
}

// Get returns the cached payload for key, fetching through fetch on a miss.
//
// Lookup order: fresh memory entry, fresh persisted entry (promoted into
// memory), then fetch. A successful fetch is written to both tiers; the
// persisted write is best-effort. If the fetch fails and either tier holds
// any entry for the key - fresh or stale - that entry is returned instead
// of the error; only with no entry at all does the original fetch error
// propagate unchanged.
func (c *Cache) Get(ctx context.Context, key string, fetch FetchFunc) (json.RawMessage, error) {
	now := c.now()

	memEntry, err := c.memory.Get(ctx, key)
	if err == nil && c.fresh(memEntry, now) {
		c.metrics.CacheHit("memory")
		return memEntry.Payload, nil
	}

	var persistedEntry *Entry
	if c.persisted != nil {
		persistedEntry, err = c.persisted.Get(ctx, key)
		if err != nil {
			if !errors.Is(err, ErrEntryNotFound) {
				c.logger.Warn("persisted cache read failed",
					slog.String("key", key), slog.String("error", err.Error()))
			}
			persistedEntry = nil
		} else if c.fresh(persistedEntry, now) {
			if serr := c.memory.Set(ctx, key, *persistedEntry); serr != nil {
				c.logger.Warn("memory cache promote failed",
					slog.String("key", key), slog.String("error", serr.Error()))
			}
			c.metrics.CacheHit("persisted")
			return persistedEntry.Payload, nil
		}
	}

	c.metrics.CacheMiss()
	payload, fetchErr := fetch(ctx)
	if fetchErr == nil {
		entry := Entry{Payload: payload, Timestamp: now}
		if serr := c.memory.Set(ctx, key, entry); serr != nil {
			c.logger.Warn("memory cache write failed",
				slog.String("key", key), slog.String("error", serr.Error()))
		}
		if c.persisted != nil {
			// Best-effort: a full or broken persisted tier must never
			// surface to the caller.
			if serr := c.persisted.Set(ctx, key, entry); serr != nil {
				c.logger.Warn("persisted cache write failed",
					slog.String("key", key), slog.String("error", serr.Error()))
			}
		}
		return payload, nil
	}

	// Stale fallback: memory preferred over persisted.
	if memEntry != nil {
		c.metrics.CacheStaleFallback()
		c.logger.Warn("serving stale cache entry after fetch failure",
			slog.String("key", key), slog.String("error", fetchErr.Error()))
		return memEntry.Payload, nil
	}
	if persistedEntry != nil {
		c.metrics.CacheStaleFallback()
		c.logger.Warn("serving stale persisted cache entry after fetch failure",
			slog.String("key", key), slog.String("error", fetchErr.Error()))
		if serr := c.memory.Set(ctx, key, *persistedEntry); serr != nil {
			c.logger.Warn("memory cache promote failed",
				slog.String("key", key), slog.String("error", serr.Error()))
		}
		return persistedEntry.Payload, nil
	}

	return nil, fetchErr
}

func (c *Cache) fresh(e *Entry, now time.Time) bool {
	return e != nil && now.Sub(e.Timestamp) < c.ttl
}
