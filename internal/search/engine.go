package search

import (
	"errors"
	"fmt"
	"strconv"
	"sync/atomic"

	lru "github.com/hashicorp/golang-lru/v2"
)

// ErrIndexUnavailable is returned when a query arrives before any index
// build or load has succeeded. It is surfaced to the caller as a
// structured error, never a crash.
var ErrIndexUnavailable = errors.New("no search index is loaded")

// queryCacheSize bounds the per-index LRU of shaped results.
const queryCacheSize = 128

// Engine orchestrates ranking and snippet generation over the currently
// loaded index. The active index is the only mutable shared state in
// the process: Swap installs a fully built replacement behind an atomic
// pointer, so in-flight queries always observe one complete, consistent
// snapshot and never block on a rebuild.
type Engine struct {
	state atomic.Pointer[engineState]

	defaultTopK int
	maxTopK     int
	backend     string
	snippetLen  int
}

// engineState bundles everything derived from one Index value. The
// query cache lives here so a swap implicitly invalidates it.
type engineState struct {
	index  *Index
	ranker Ranker
	cache  *lru.Cache[string, []Match]
}

// NewEngine creates an engine with no index loaded. Queries fail with
// ErrIndexUnavailable until the first Swap.
func NewEngine(backend string, defaultTopK, maxTopK int) *Engine {
	if defaultTopK <= 0 {
		defaultTopK = 5
	}
	if maxTopK <= 0 {
		maxTopK = 50
	}
	return &Engine{
		defaultTopK: defaultTopK,
		maxTopK:     maxTopK,
		backend:     backend,
		snippetLen:  DefaultSnippetLength,
	}
}

// Swap builds a ranker for the new index and atomically installs it as
// the serving snapshot. On error the previous snapshot keeps serving.
func (e *Engine) Swap(idx *Index) error {
	ranker, err := NewRanker(idx, e.backend)
	if err != nil {
		return fmt.Errorf("failed to create ranker: %w", err)
	}

	cache, err := lru.New[string, []Match](queryCacheSize)
	if err != nil {
		return fmt.Errorf("failed to create query cache: %w", err)
	}

	e.state.Store(&engineState{
		index:  idx,
		ranker: ranker,
		cache:  cache,
	})
	return nil
}

// Search answers a top-K query against the current index snapshot.
//
// topK <= 0 uses the default; values above the server maximum are
// clamped. A query that normalizes to zero terms returns an empty match
// list, not an error: an empty result is a valid, well-formed answer.
func (e *Engine) Search(query string, topK int) (*Result, error) {
	state := e.state.Load()
	if state == nil {
		return nil, ErrIndexUnavailable
	}

	if topK <= 0 {
		topK = e.defaultTopK
	}
	if topK > e.maxTopK {
		topK = e.maxTopK
	}

	result := &Result{Query: query, TopK: topK, Matches: []Match{}}

	terms := Tokenize(query)
	if len(terms) == 0 {
		return result, nil
	}

	cacheKey := strconv.Itoa(topK) + "\x00" + joinTerms(terms)
	if matches, ok := state.cache.Get(cacheKey); ok {
		result.Matches = matches
		return result, nil
	}

	hits, err := state.ranker.Rank(terms, topK)
	if err != nil {
		return nil, fmt.Errorf("ranking failed: %w", err)
	}

	for _, hit := range hits {
		chunk := state.index.Chunks[hit.ChunkIdx]

		matched := make([]string, 0, len(terms))
		for _, t := range terms {
			if chunk.TermCounts[t] > 0 {
				matched = append(matched, t)
			}
		}

		snippet, _ := Snippet(chunk.Text, matched, e.snippetLen)
		result.Matches = append(result.Matches, Match{
			DocID:   chunk.DocID,
			Title:   state.index.titleOf(chunk.DocID),
			ChunkID: chunk.ChunkID,
			Score:   hit.Score,
			Snippet: snippet,
			Text:    chunk.Text,
		})
	}

	state.cache.Add(cacheKey, result.Matches)
	return result, nil
}

// Status reports whether a usable index is loaded and which ranking
// backend variant is live.
func (e *Engine) Status() Status {
	state := e.state.Load()
	if state == nil {
		return Status{}
	}
	return Status{
		IndexLoaded:     true,
		Documents:       len(state.index.Documents),
		Chunks:          len(state.index.Chunks),
		Ranker:          state.ranker.Name(),
		AdvancedRanking: AdvancedRanking(state.ranker),
	}
}

// Index returns the currently serving index, or nil before the first
// successful Swap.
func (e *Engine) Index() *Index {
	state := e.state.Load()
	if state == nil {
		return nil
	}
	return state.index
}
