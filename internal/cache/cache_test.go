package cache

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// countingFetch returns a FetchFunc that counts invocations and returns the
// configured payload or error.
type countingFetch struct {
	payload json.RawMessage
	err     error
	calls   int
}

func (f *countingFetch) fn(ctx context.Context) (json.RawMessage, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	return f.payload, nil
}

// failingTier always errors on writes and reports not-found on reads.
type failingTier struct{}

func (failingTier) Get(ctx context.Context, key string) (*Entry, error) {
	return nil, ErrEntryNotFound
}

func (failingTier) Set(ctx context.Context, key string, entry Entry) error {
	return errors.New("quota exceeded")
}

func newTestCache(t *testing.T, persisted Tier) *Cache {
	t.Helper()
	return New(persisted, DefaultTTL, testLogger(), nil)
}

func TestGet_FreshEntrySkipsFetch(t *testing.T) {
	c := newTestCache(t, nil)
	fetch := &countingFetch{payload: json.RawMessage(`{"a":1}`)}

	first, err := c.Get(context.Background(), "courses", fetch.fn)
	if err != nil {
		t.Fatalf("Expected success, got error: %v", err)
	}

	second, err := c.Get(context.Background(), "courses", fetch.fn)
	if err != nil {
		t.Fatalf("Expected success, got error: %v", err)
	}

	if fetch.calls != 1 {
		t.Errorf("Expected 1 fetch within TTL, got: %d", fetch.calls)
	}
	if string(first) != string(second) {
		t.Error("Expected identical payload from cache")
	}
}

func TestGet_ExpiredEntryRefetches(t *testing.T) {
	c := newTestCache(t, nil)
	fetch := &countingFetch{payload: json.RawMessage(`{"a":1}`)}

	if _, err := c.Get(context.Background(), "courses", fetch.fn); err != nil {
		t.Fatalf("Expected success, got error: %v", err)
	}

	// Move the clock past the TTL; the stale entry must be superseded by a
	// successful refetch.
	c.now = func() time.Time { return time.Now().Add(DefaultTTL + time.Second) }
	fetch.payload = json.RawMessage(`{"a":2}`)

	payload, err := c.Get(context.Background(), "courses", fetch.fn)
	if err != nil {
		t.Fatalf("Expected success, got error: %v", err)
	}
	if fetch.calls != 2 {
		t.Errorf("Expected refetch after TTL, got %d calls", fetch.calls)
	}
	if string(payload) != `{"a":2}` {
		t.Errorf("Expected refetched payload, got: %s", payload)
	}
}

func TestGet_StaleFallbackOnFetchFailure(t *testing.T) {
	c := newTestCache(t, nil)
	fetch := &countingFetch{payload: json.RawMessage(`{"a":1}`)}

	if _, err := c.Get(context.Background(), "courses", fetch.fn); err != nil {
		t.Fatalf("Expected success, got error: %v", err)
	}

	c.now = func() time.Time { return time.Now().Add(time.Hour) }
	fetch.err = errors.New("network down")

	payload, err := c.Get(context.Background(), "courses", fetch.fn)
	if err != nil {
		t.Fatalf("Expected stale fallback, got error: %v", err)
	}
	if string(payload) != `{"a":1}` {
		t.Errorf("Expected stale payload, got: %s", payload)
	}
}

func TestGet_ColdFailurePropagatesOriginalError(t *testing.T) {
	c := newTestCache(t, nil)
	fetchErr := errors.New("connection refused")
	fetch := &countingFetch{err: fetchErr}

	_, err := c.Get(context.Background(), "courses", fetch.fn)
	if !errors.Is(err, fetchErr) {
		t.Errorf("Expected original fetch error unchanged, got: %v", err)
	}
}

func TestGet_PersistedTierPromotedToMemory(t *testing.T) {
	persisted := NewMemoryTier()
	entry := Entry{Payload: json.RawMessage(`{"a":1}`), Timestamp: time.Now()}
	if err := persisted.Set(context.Background(), "courses", entry); err != nil {
		t.Fatalf("seed persisted tier: %v", err)
	}

	c := newTestCache(t, persisted)
	fetch := &countingFetch{payload: json.RawMessage(`{"wrong":true}`)}

	payload, err := c.Get(context.Background(), "courses", fetch.fn)
	if err != nil {
		t.Fatalf("Expected success, got error: %v", err)
	}
	if fetch.calls != 0 {
		t.Errorf("Expected persisted hit without fetch, got %d calls", fetch.calls)
	}
	if string(payload) != `{"a":1}` {
		t.Errorf("Expected persisted payload, got: %s", payload)
	}

	// The promoted entry must now serve from memory.
	if e, err := c.memory.Get(context.Background(), "courses"); err != nil || string(e.Payload) != `{"a":1}` {
		t.Errorf("Expected entry promoted into memory tier, got: %v, %v", e, err)
	}
}

func TestGet_StalePersistedFallback(t *testing.T) {
	persisted := NewMemoryTier()
	stale := Entry{Payload: json.RawMessage(`{"old":true}`), Timestamp: time.Now().Add(-time.Hour)}
	if err := persisted.Set(context.Background(), "pricing", stale); err != nil {
		t.Fatalf("seed persisted tier: %v", err)
	}

	c := newTestCache(t, persisted)
	fetch := &countingFetch{err: errors.New("backend down")}

	payload, err := c.Get(context.Background(), "pricing", fetch.fn)
	if err != nil {
		t.Fatalf("Expected stale persisted fallback, got error: %v", err)
	}
	if string(payload) != `{"old":true}` {
		t.Errorf("Expected stale persisted payload, got: %s", payload)
	}
}

func TestGet_PersistedWriteFailureIsSwallowed(t *testing.T) {
	c := newTestCache(t, failingTier{})
	fetch := &countingFetch{payload: json.RawMessage(`{"a":1}`)}

	payload, err := c.Get(context.Background(), "courses", fetch.fn)
	if err != nil {
		t.Fatalf("Persisted write failure must not surface, got: %v", err)
	}
	if string(payload) != `{"a":1}` {
		t.Errorf("Unexpected payload: %s", payload)
	}
}

func TestFileTier_RoundTrip(t *testing.T) {
	tier, err := NewFileTier(t.TempDir(), "luma_cache_")
	if err != nil {
		t.Fatalf("NewFileTier: %v", err)
	}

	ctx := context.Background()
	if _, err := tier.Get(ctx, "courses"); !errors.Is(err, ErrEntryNotFound) {
		t.Errorf("Expected ErrEntryNotFound on empty tier, got: %v", err)
	}

	want := Entry{Payload: json.RawMessage(`[1,2,3]`), Timestamp: time.Now().UTC().Truncate(time.Second)}
	if err := tier.Set(ctx, "courses", want); err != nil {
		t.Fatalf("Set: %v", err)
	}

	got, err := tier.Get(ctx, "courses")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if string(got.Payload) != string(want.Payload) {
		t.Errorf("Payload mismatch: got %s", got.Payload)
	}
	if !got.Timestamp.Equal(want.Timestamp) {
		t.Errorf("Timestamp mismatch: got %v want %v", got.Timestamp, want.Timestamp)
	}
}

func TestFileTier_KeyCannotEscapeDirectory(t *testing.T) {
	dir := t.TempDir()
	tier, err := NewFileTier(dir, "luma_cache_")
	if err != nil {
		t.Fatalf("NewFileTier: %v", err)
	}

	ctx := context.Background()
	entry := Entry{Payload: json.RawMessage(`{}`), Timestamp: time.Now()}
	if err := tier.Set(ctx, "../escape", entry); err != nil {
		t.Fatalf("Set: %v", err)
	}

	if _, err := tier.Get(ctx, "../escape"); err != nil {
		t.Errorf("Expected flattened key to round-trip, got: %v", err)
	}
}
