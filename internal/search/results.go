/*
Package search implements the document indexing and ranked-search engine.

It builds an immutable index over document chunks, ranks query terms
against it with one of two interchangeable BM25-family backends (bleve
or a hand-rolled scorer), and renders bounded snippets with highlighted
matches.
*/
package search

// Match is a single ranked search hit.
type Match struct {
	DocID   string  `json:"doc_id"`
	Title   string  `json:"title"`
	ChunkID int     `json:"chunk_id"`
	Score   float64 `json:"score"`
	Snippet string  `json:"snippet"`
	Text    string  `json:"text"`
}

// Result is the response payload for one search request. It is built
// per request and never persisted.
type Result struct {
	Query   string  `json:"query"`
	TopK    int     `json:"top_k"`
	Matches []Match `json:"matches"`
}

// Status reports whether a usable index is serving and which ranking
// backend is live.
type Status struct {
	IndexLoaded bool   `json:"indexLoaded"`
	Documents   int    `json:"documents"`
	Chunks      int    `json:"chunks"`
	Ranker      string `json:"ranker"`
	// AdvancedRanking is true when the library-backed backend is in use.
	AdvancedRanking bool `json:"advancedRanking"`
}

// Hit is a ranker-internal result: a chunk position in the index plus
// its relevance score.
type Hit struct {
	ChunkIdx int
	Score    float64
}
