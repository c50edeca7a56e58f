/*
Package store persists the built search index between process launches.

The index is encoded as JSON in a single file, written via a temp file
and rename so readers never observe a partial index, with a companion
lock file guarding concurrent writers. The on-disk format is our own
Index value: the ranking backend rebuilds whatever query-time structures
it needs from it at load.
*/
package store

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/gofrs/flock"

	"github.com/searchdock/searchdock/internal/chunker"
	"github.com/searchdock/searchdock/internal/search"
)

// ErrNotFound is returned by Load when no index has been persisted yet.
var ErrNotFound = errors.New("no persisted index found")

// Load reads a persisted index from path.
func Load(path string) (*search.Index, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to read index: %w", err)
	}

	var idx search.Index
	if err := json.Unmarshal(data, &idx); err != nil {
		return nil, fmt.Errorf("failed to parse index: %w", err)
	}
	return &idx, nil
}

// Save writes the index to path atomically. A sibling .lock file guards
// against two processes writing at once.
func Save(idx *search.Index, path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create index directory: %w", err)
	}

	lock := flock.New(path + ".lock")
	if err := lock.Lock(); err != nil {
		return fmt.Errorf("failed to lock index file: %w", err)
	}
	defer lock.Unlock()

	data, err := json.Marshal(idx)
	if err != nil {
		return fmt.Errorf("failed to marshal index: %w", err)
	}

	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0644); err != nil {
		return fmt.Errorf("failed to write index: %w", err)
	}
	if err := os.Rename(tmp, path); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("failed to replace index: %w", err)
	}
	return nil
}

// IsStale reports whether the persisted index at path no longer matches
// the current document set fingerprint or chunking parameters. A
// parameter change invalidates (doc_id, chunk_id) identities, so it
// forces a rebuild the same way a document change does. A missing or
// unreadable index is stale.
func IsStale(path, fingerprint string, params chunker.Params) bool {
	idx, err := Load(path)
	if err != nil {
		return true
	}
	return idx.Fingerprint != fingerprint ||
		idx.TargetSize != params.TargetSize ||
		idx.Overlap != params.Overlap
}
