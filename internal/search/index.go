package search

import (
	"runtime"
	"sort"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/searchdock/searchdock/internal/chunker"
	"github.com/searchdock/searchdock/internal/ingest"
)

// DocInfo is the indexed metadata for one document.
type DocInfo struct {
	DocID      string    `json:"doc_id"`
	Title      string    `json:"title"`
	SourcePath string    `json:"source_path"`
	ModifiedAt time.Time `json:"modified_at"`
}

// IndexedChunk is a chunk plus its term statistics.
type IndexedChunk struct {
	chunker.Chunk

	// TermCounts maps each normalized term to its occurrence count.
	TermCounts map[string]int `json:"term_counts"`

	// Length is the chunk's token count, used for length normalization.
	Length int `json:"length"`
}

// Index is the immutable aggregate of all documents, chunks, and derived
// term statistics. It is versioned by a fingerprint of the document set
// and is never mutated after Build returns: rebuilds construct a fresh
// Index and the engine swaps it in atomically.
type Index struct {
	// Fingerprint identifies the document set this index was built from.
	Fingerprint string `json:"fingerprint"`

	// BuiltAt is when the build completed.
	BuiltAt time.Time `json:"built_at"`

	// TargetSize and Overlap record the chunking parameters, so a
	// parameter change invalidates persisted chunk identities.
	TargetSize int     `json:"target_size"`
	Overlap    float64 `json:"overlap"`

	// Documents is ordered by DocID.
	Documents []DocInfo `json:"documents"`

	// Chunks is ordered by (DocID, ChunkID).
	Chunks []IndexedChunk `json:"chunks"`

	// DocFreq maps each term to the number of chunks containing it.
	DocFreq map[string]int `json:"doc_freq"`
}

// Build constructs an Index from a document collection. Chunking and
// term counting run in parallel per document; assembly is ordered by
// DocID so repeated builds over an unchanged collection are identical.
func Build(docs []ingest.Document, fingerprint string, params chunker.Params) (*Index, error) {
	type docResult struct {
		info   DocInfo
		chunks []IndexedChunk
	}

	results := make([]docResult, len(docs))

	var g errgroup.Group
	g.SetLimit(runtime.NumCPU())
	for i, doc := range docs {
		g.Go(func() error {
			chunks := chunker.Split(doc.Text, doc.DocID, params)
			indexed := make([]IndexedChunk, 0, len(chunks))
			for _, c := range chunks {
				terms := Tokenize(c.Text)
				counts := make(map[string]int, len(terms))
				for _, t := range terms {
					counts[t]++
				}
				indexed = append(indexed, IndexedChunk{
					Chunk:      c,
					TermCounts: counts,
					Length:     len(terms),
				})
			}
			results[i] = docResult{
				info: DocInfo{
					DocID:      doc.DocID,
					Title:      doc.Title,
					SourcePath: doc.SourcePath,
					ModifiedAt: doc.ModifiedAt,
				},
				chunks: indexed,
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	sort.Slice(results, func(i, j int) bool { return results[i].info.DocID < results[j].info.DocID })

	idx := &Index{
		Fingerprint: fingerprint,
		BuiltAt:     time.Now().UTC(),
		TargetSize:  params.TargetSize,
		Overlap:     params.Overlap,
		DocFreq:     make(map[string]int),
	}
	for _, r := range results {
		idx.Documents = append(idx.Documents, r.info)
		for _, c := range r.chunks {
			idx.Chunks = append(idx.Chunks, c)
			for term := range c.TermCounts {
				idx.DocFreq[term]++
			}
		}
	}
	return idx, nil
}

// avgChunkLength returns the mean token count across all chunks.
func (idx *Index) avgChunkLength() float64 {
	if len(idx.Chunks) == 0 {
		return 0
	}
	total := 0
	for _, c := range idx.Chunks {
		total += c.Length
	}
	return float64(total) / float64(len(idx.Chunks))
}

// titleOf returns the title for a document id, or the id itself when
// the document is unknown.
func (idx *Index) titleOf(docID string) string {
	i := sort.Search(len(idx.Documents), func(i int) bool { return idx.Documents[i].DocID >= docID })
	if i < len(idx.Documents) && idx.Documents[i].DocID == docID {
		return idx.Documents[i].Title
	}
	return docID
}
