package search

import (
	"fmt"

	"log/slog"
)

// Backend names for ranker selection.
const (
	BackendBleve  = "bleve"
	BackendNative = "native"
)

// Ranker scores query terms against an immutable Index snapshot. Both
// variants are pure over their snapshot and safe for concurrent use.
type Ranker interface {
	// Rank returns at most topK hits ordered by descending score, ties
	// by ascending (doc_id, chunk_id). Chunks matching no query term
	// are excluded, never returned with score zero.
	Rank(terms []string, topK int) ([]Hit, error)

	// Name identifies the backend variant.
	Name() string
}

// NewRanker creates a ranker for the given backend.
//
// backend options:
//   - "bleve" (default): bleve v2 in-memory index, BM25 scoring
//   - "native": hand-rolled BM25 over the index's term statistics
//
// A bleve build failure falls back to the native ranker rather than
// failing: the variant in use is an implementation detail invisible to
// callers, which only see the monotonicity contract.
func NewRanker(idx *Index, backend string) (Ranker, error) {
	switch backend {
	case BackendBleve, "":
		r, err := newBleveRanker(idx)
		if err != nil {
			slog.Warn("bleve ranker unavailable, falling back to native BM25", "error", err)
			return newNativeRanker(idx), nil
		}
		return r, nil

	case BackendNative:
		return newNativeRanker(idx), nil

	default:
		return nil, fmt.Errorf("unknown ranker backend: %s (valid options: bleve, native)", backend)
	}
}

// AdvancedRanking reports whether a ranker is the library-backed
// variant, surfaced as the capability flag in status responses.
func AdvancedRanking(r Ranker) bool {
	_, ok := r.(*bleveRanker)
	return ok
}
