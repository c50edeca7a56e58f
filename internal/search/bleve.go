package search

import (
	"fmt"

	"github.com/blevesearch/bleve/v2"
	"github.com/blevesearch/bleve/v2/analysis/analyzer/custom"
	"github.com/blevesearch/bleve/v2/analysis/token/lowercase"
	"github.com/blevesearch/bleve/v2/analysis/tokenizer/unicode"
	"github.com/blevesearch/bleve/v2/mapping"
)

// chunkAnalyzer is the custom bleve analyzer aligned with Tokenize:
// unicode word segmentation (letters and digits) plus lowercasing, no
// stemming, no stopword removal.
const chunkAnalyzer = "chunk_terms"

// bleveRanker ranks chunks with an in-memory bleve index rebuilt from
// the Index value at load time. The persisted index format stays ours;
// bleve is purely a query-time structure, so compatibility with its
// on-disk format is never a concern.
type bleveRanker struct {
	idx        *Index
	bleveIndex bleve.Index
	// chunkByID maps bleve document IDs back to chunk positions.
	chunkByID map[string]int
}

// newBleveRanker builds the in-memory bleve index over all chunk texts.
func newBleveRanker(idx *Index) (*bleveRanker, error) {
	indexMapping, err := buildIndexMapping()
	if err != nil {
		return nil, err
	}

	bleveIndex, err := bleve.NewMemOnly(indexMapping)
	if err != nil {
		return nil, fmt.Errorf("failed to create bleve index: %w", err)
	}

	r := &bleveRanker{
		idx:        idx,
		bleveIndex: bleveIndex,
		chunkByID:  make(map[string]int, len(idx.Chunks)),
	}

	batch := bleveIndex.NewBatch()
	for i, chunk := range idx.Chunks {
		docID := fmt.Sprintf("%s\x00%08d", chunk.DocID, chunk.ChunkID)
		r.chunkByID[docID] = i

		doc := map[string]interface{}{
			"text": chunk.Text,
		}
		if err := batch.Index(docID, doc); err != nil {
			return nil, fmt.Errorf("failed to index chunk %s: %w", docID, err)
		}
	}
	if err := bleveIndex.Batch(batch); err != nil {
		return nil, fmt.Errorf("failed to batch index chunks: %w", err)
	}

	return r, nil
}

// buildIndexMapping creates the bleve index mapping with the shared
// analyzer registered. The unicode tokenizer keeps digit runs, so a
// term indexed by Tokenize is findable by bleve and vice versa, and
// the two backends agree on term identity.
func buildIndexMapping() (mapping.IndexMapping, error) {
	indexMapping := bleve.NewIndexMapping()
	if err := indexMapping.AddCustomAnalyzer(chunkAnalyzer, map[string]interface{}{
		"type":          custom.Name,
		"tokenizer":     unicode.Name,
		"token_filters": []string{lowercase.Name},
	}); err != nil {
		return nil, fmt.Errorf("failed to register analyzer: %w", err)
	}

	chunkMapping := bleve.NewDocumentMapping()

	textFieldMapping := bleve.NewTextFieldMapping()
	textFieldMapping.Analyzer = chunkAnalyzer
	chunkMapping.AddFieldMappingsAt("text", textFieldMapping)

	indexMapping.DefaultAnalyzer = chunkAnalyzer
	indexMapping.AddDocumentMapping("_default", chunkMapping)

	return indexMapping, nil
}

func (r *bleveRanker) Name() string { return "bleve-bm25" }

// Rank executes a disjunctive match query so partial term matches rank
// lower rather than being excluded, then re-sorts for the deterministic
// (doc_id, chunk_id) tie-break.
func (r *bleveRanker) Rank(terms []string, topK int) ([]Hit, error) {
	if len(terms) == 0 {
		return nil, nil
	}

	matchQuery := bleve.NewMatchQuery(joinTerms(terms))
	matchQuery.Analyzer = chunkAnalyzer

	searchRequest := bleve.NewSearchRequestOptions(matchQuery, topK, 0, false)
	results, err := r.bleveIndex.Search(searchRequest)
	if err != nil {
		return nil, fmt.Errorf("bleve search failed: %w", err)
	}

	hits := make([]Hit, 0, len(results.Hits))
	for _, hit := range results.Hits {
		chunkIdx, ok := r.chunkByID[hit.ID]
		if !ok {
			continue
		}
		hits = append(hits, Hit{ChunkIdx: chunkIdx, Score: hit.Score})
	}

	sortHits(hits, r.idx)
	return hits, nil
}

// Close releases the in-memory bleve index.
func (r *bleveRanker) Close() error {
	return r.bleveIndex.Close()
}

func joinTerms(terms []string) string {
	joined := ""
	for i, t := range terms {
		if i > 0 {
			joined += " "
		}
		joined += t
	}
	return joined
}
