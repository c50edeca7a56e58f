package search

import (
	"math"
	"sort"
)

// BM25 parameters. k1 controls term-frequency saturation, b the degree
// of chunk-length normalization.
const (
	bm25K1 = 1.2
	bm25B  = 0.75
)

// nativeRanker is the hand-rolled BM25 ranker, used when the bleve
// backend is disabled or fails to build. It scores directly off the
// Index's term statistics.
type nativeRanker struct {
	idx    *Index
	avgLen float64
}

func newNativeRanker(idx *Index) *nativeRanker {
	return &nativeRanker{idx: idx, avgLen: idx.avgChunkLength()}
}

func (r *nativeRanker) Name() string { return "native-bm25" }

// Rank scores each chunk as the sum of per-term BM25 contributions.
// Chunks containing none of the query terms are excluded entirely.
// Ordering is descending by score with ties broken by ascending
// (doc_id, chunk_id) for determinism.
func (r *nativeRanker) Rank(terms []string, topK int) ([]Hit, error) {
	n := float64(len(r.idx.Chunks))
	if n == 0 {
		return nil, nil
	}

	var hits []Hit
	for i, chunk := range r.idx.Chunks {
		score := 0.0
		matched := false
		for _, term := range terms {
			tf := float64(chunk.TermCounts[term])
			if tf == 0 {
				continue
			}
			matched = true
			df := float64(r.idx.DocFreq[term])
			idf := math.Log(1 + (n-df+0.5)/(df+0.5))
			norm := 1 - bm25B + bm25B*float64(chunk.Length)/r.avgLen
			score += idf * (tf * (bm25K1 + 1)) / (tf + bm25K1*norm)
		}
		if matched {
			hits = append(hits, Hit{ChunkIdx: i, Score: score})
		}
	}

	sortHits(hits, r.idx)
	if len(hits) > topK {
		hits = hits[:topK]
	}
	return hits, nil
}

// sortHits orders hits by descending score, ties by ascending
// (doc_id, chunk_id).
func sortHits(hits []Hit, idx *Index) {
	sort.Slice(hits, func(i, j int) bool {
		if hits[i].Score != hits[j].Score {
			return hits[i].Score > hits[j].Score
		}
		a, b := idx.Chunks[hits[i].ChunkIdx], idx.Chunks[hits[j].ChunkIdx]
		if a.DocID != b.DocID {
			return a.DocID < b.DocID
		}
		return a.ChunkID < b.ChunkID
	})
}
