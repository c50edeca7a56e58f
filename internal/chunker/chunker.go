/*
Package chunker splits document text into overlapping, bounded-size
passages for indexing.

Documents are split on block boundaries (paragraphs and markdown
sections) first. Blocks are packed greedily into chunks up to the target
size; a single block larger than the target falls back to a fixed-size
sliding window with fractional overlap, so a phrase spanning a
mid-document boundary is still captured whole in at least one chunk.

Chunk numbering is sequential from 0 and deterministic for identical
input and parameters, so (doc_id, chunk_id) stays valid across rebuilds
that do not change chunking parameters.
*/
package chunker

import (
	"strings"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/text"
)

// Chunk is a bounded passage of a document, the unit of indexing and of
// result granularity.
type Chunk struct {
	// DocID back-references the parent document.
	DocID string `json:"doc_id"`

	// ChunkID is the 0-based sequence number within the document.
	ChunkID int `json:"chunk_id"`

	// Text is the passage text.
	Text string `json:"text"`

	// StartOffset and EndOffset locate the passage in the parent
	// document's full text (byte offsets, half-open).
	StartOffset int `json:"start_offset"`
	EndOffset   int `json:"end_offset"`
}

// Params controls chunk size and overlap.
type Params struct {
	// TargetSize is the chunk size target in bytes.
	TargetSize int

	// Overlap is the fractional overlap between sliding-window chunks.
	Overlap float64
}

// DefaultParams returns the chunking defaults (1200 bytes, 15% overlap).
func DefaultParams() Params {
	return Params{TargetSize: 1200, Overlap: 0.15}
}

var markdown = goldmark.New()

// Split chunks a document's full text. An empty document yields no
// chunks; a document no larger than the target yields exactly one chunk
// equal to the whole document.
func Split(docText, docID string, p Params) []Chunk {
	if p.TargetSize <= 0 {
		p.TargetSize = DefaultParams().TargetSize
	}
	if p.Overlap < 0 || p.Overlap >= 1 {
		p.Overlap = DefaultParams().Overlap
	}

	if strings.TrimSpace(docText) == "" {
		return nil
	}

	if len(docText) <= p.TargetSize {
		return []Chunk{{
			DocID:     docID,
			ChunkID:   0,
			Text:      docText,
			EndOffset: len(docText),
		}}
	}

	blocks := blockSpans([]byte(docText))
	regions := packBlocks(blocks, p.TargetSize)

	var chunks []Chunk
	for _, r := range regions {
		if r.end-r.start <= p.TargetSize {
			chunks = appendChunk(chunks, docText, docID, r.start, r.end)
			continue
		}
		// Oversized block: sliding window with overlap.
		for _, w := range slideWindows(r, docText, p) {
			chunks = appendChunk(chunks, docText, docID, w.start, w.end)
		}
	}
	return chunks
}

// span is a half-open byte range into the document text.
type span struct {
	start, end int
}

// blockSpans parses the text as markdown (plain text degrades to a
// sequence of paragraphs) and returns the byte span of each top-level
// block, with headings starting a fresh block.
func blockSpans(src []byte) []span {
	reader := text.NewReader(src)
	doc := markdown.Parser().Parse(reader)

	var spans []span
	for n := doc.FirstChild(); n != nil; n = n.NextSibling() {
		s, ok := nodeSpan(n, src)
		if !ok {
			continue
		}
		spans = append(spans, s)
	}
	if len(spans) == 0 {
		spans = []span{{0, len(src)}}
	}
	return spans
}

// nodeSpan computes the byte span covered by a block node, descending
// into containers (lists, quotes) whose own line info is empty.
func nodeSpan(n ast.Node, src []byte) (span, bool) {
	start, stop := -1, -1

	var walk func(node ast.Node)
	walk = func(node ast.Node) {
		if node.Type() == ast.TypeBlock {
			lines := node.Lines()
			for i := 0; i < lines.Len(); i++ {
				seg := lines.At(i)
				if start == -1 || seg.Start < start {
					start = seg.Start
				}
				if seg.Stop > stop {
					stop = seg.Stop
				}
			}
		}
		for c := node.FirstChild(); c != nil; c = c.NextSibling() {
			walk(c)
		}
	}
	walk(n)

	if start == -1 || stop <= start {
		return span{}, false
	}
	// ATX headings keep their marker characters, which sit before the
	// line segment goldmark reports. Setext headings have no prefix
	// marker, so the bytes are checked before widening.
	if h, ok := n.(*ast.Heading); ok {
		if m := start - h.Level - 1; m >= 0 && isATXMarker(src[m:start], h.Level) {
			start = m
		}
	}
	return span{start, stop}, true
}

// isATXMarker reports whether b is exactly level '#' runes followed by
// one space.
func isATXMarker(b []byte, level int) bool {
	if len(b) != level+1 || b[len(b)-1] != ' ' {
		return false
	}
	for _, c := range b[:level] {
		if c != '#' {
			return false
		}
	}
	return true
}

// packBlocks greedily merges adjacent block spans into regions of at
// most targetSize bytes. A block larger than targetSize becomes its own
// region and is windowed by the caller.
func packBlocks(blocks []span, targetSize int) []span {
	var regions []span
	cur := span{start: -1}

	for _, b := range blocks {
		if cur.start == -1 {
			cur = b
			continue
		}
		if b.end-cur.start <= targetSize {
			cur.end = b.end
			continue
		}
		regions = append(regions, cur)
		cur = b
	}
	if cur.start != -1 {
		regions = append(regions, cur)
	}
	return regions
}

// slideWindows cuts a region into fixed-size windows with fractional
// overlap, snapping window ends back to a space where possible so terms
// are not split mid-word.
func slideWindows(r span, docText string, p Params) []span {
	overlap := int(float64(p.TargetSize) * p.Overlap)
	if overlap >= p.TargetSize/2 {
		overlap = p.TargetSize / 2
	}

	var windows []span
	start := r.start
	for start < r.end {
		end := start + p.TargetSize
		if end >= r.end {
			windows = append(windows, span{start, r.end})
			break
		}
		// Snap the cut back to the last space in the window's tail half.
		cut := end
		for cut > start+p.TargetSize/2 && !isSpace(docText[cut]) {
			cut--
		}
		if cut > start+p.TargetSize/2 {
			end = cut
		}
		windows = append(windows, span{start, end})
		start = end - overlap
	}
	return windows
}

// appendChunk trims a raw span to its non-whitespace extent and appends
// it with the next sequential chunk id.
func appendChunk(chunks []Chunk, docText, docID string, start, end int) []Chunk {
	for start < end && isSpace(docText[start]) {
		start++
	}
	for end > start && isSpace(docText[end-1]) {
		end--
	}
	if start >= end {
		return chunks
	}
	return append(chunks, Chunk{
		DocID:       docID,
		ChunkID:     len(chunks),
		Text:        docText[start:end],
		StartOffset: start,
		EndOffset:   end,
	})
}

func isSpace(b byte) bool {
	return b == ' ' || b == '\t' || b == '\n' || b == '\r'
}
