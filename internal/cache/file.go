package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// FileTier persists entries as one JSON file per key under a namespaced
// directory, so cached catalog data survives a restart. The prefix keeps
// the files from colliding with anything else sharing the directory.
type FileTier struct {
	dir    string
	prefix string
}

// NewFileTier creates a file-backed tier rooted at dir (created if absent).
func NewFileTier(dir, prefix string) (*FileTier, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create cache directory: %w", err)
	}

	return &FileTier{dir: dir, prefix: prefix}, nil
}

// Get reads the entry for key, or returns ErrEntryNotFound.
func (t *FileTier) Get(ctx context.Context, key string) (*Entry, error) {
	data, err := os.ReadFile(t.path(key))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, ErrEntryNotFound
		}
		return nil, fmt.Errorf("failed to read cache file: %w", err)
	}

	var e Entry
	if err := json.Unmarshal(data, &e); err != nil {
		// A corrupt file is treated as absent; the next successful fetch
		// overwrites it.
		return nil, ErrEntryNotFound
	}
	return &e, nil
}

// Set writes the entry for key, replacing any previous file.
func (t *FileTier) Set(ctx context.Context, key string, entry Entry) error {
	data, err := json.Marshal(entry)
	if err != nil {
		return fmt.Errorf("failed to marshal cache entry: %w", err)
	}

	if err := os.WriteFile(t.path(key), data, 0644); err != nil {
		return fmt.Errorf("failed to write cache file: %w", err)
	}
	return nil
}

func (t *FileTier) path(key string) string {
	// Logical resource names are short identifiers; anything path-like is
	// flattened so a key can never escape the cache directory.
	safe := strings.NewReplacer("/", "_", "\\", "_", "..", "_").Replace(key)
	return filepath.Join(t.dir, t.prefix+safe+".json")
}
