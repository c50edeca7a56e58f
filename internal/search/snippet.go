package search

import (
	"sort"
	"strings"
	"unicode"
	"unicode/utf8"
)

// DefaultSnippetLength bounds snippet text in bytes before markers.
const DefaultSnippetLength = 200

// Span is a matched-term occurrence in the chunk text (byte offsets,
// half-open). Spans never overlap: adjacent and overlapping matches are
// merged into one span.
type Span struct {
	Start int `json:"start"`
	End   int `json:"end"`
}

// Snippet extracts a bounded excerpt of chunkText containing the
// highest density of matched terms, with every match inside the window
// wrapped in bracket delimiters. A window that does not start at the
// beginning or end at the end of the chunk gets a leading/trailing
// ellipsis marker. The returned spans are offsets into chunkText so a
// caller can re-render emphasis its own way.
//
// The window policy is highest match density: among all windows of at
// most maxLen bytes, the one covering the most term occurrences wins,
// earliest such window on ties.
func Snippet(chunkText string, terms []string, maxLen int) (string, []Span) {
	if maxLen <= 0 {
		maxLen = DefaultSnippetLength
	}

	spans := matchSpans(chunkText, terms)

	start, end := selectWindow(chunkText, spans, maxLen)

	// Keep only spans fully inside the window.
	var visible []Span
	for _, s := range spans {
		if s.Start >= start && s.End <= end {
			visible = append(visible, s)
		}
	}

	var b strings.Builder
	if start > 0 {
		b.WriteString("...")
	}
	pos := start
	for _, s := range visible {
		b.WriteString(chunkText[pos:s.Start])
		b.WriteString("[")
		b.WriteString(chunkText[s.Start:s.End])
		b.WriteString("]")
		pos = s.End
	}
	b.WriteString(chunkText[pos:end])
	if end < len(chunkText) {
		b.WriteString("...")
	}

	return b.String(), visible
}

// matchSpans finds every case-insensitive occurrence of each term and
// merges overlapping or adjacent occurrences into single spans, so
// markers never nest or duplicate. Matching folds rune by rune over the
// original text, never a lowered copy: case folding can change byte
// length (U+0130 lowers to two runes), which would shift every span
// after it.
func matchSpans(chunkText string, terms []string) []Span {
	if len(terms) == 0 || len(chunkText) == 0 {
		return nil
	}

	var raw []Span
	for _, term := range terms {
		if term == "" {
			continue
		}
		for from := 0; from < len(chunkText); {
			if n := foldMatch(chunkText[from:], term); n > 0 {
				raw = append(raw, Span{Start: from, End: from + n})
				from += n
				continue
			}
			_, size := utf8.DecodeRuneInString(chunkText[from:])
			if size == 0 {
				break
			}
			from += size
		}
	}
	if len(raw) == 0 {
		return nil
	}

	sort.Slice(raw, func(i, j int) bool {
		if raw[i].Start != raw[j].Start {
			return raw[i].Start < raw[j].Start
		}
		return raw[i].End > raw[j].End
	})

	merged := raw[:1]
	for _, s := range raw[1:] {
		last := &merged[len(merged)-1]
		if s.Start <= last.End {
			if s.End > last.End {
				last.End = s.End
			}
			continue
		}
		merged = append(merged, s)
	}
	return merged
}

// selectWindow picks the maxLen-byte window holding the most match
// spans (sliding-window maximization over hit positions). A chunk
// shorter than maxLen is returned whole; a chunk with no matches is
// truncated from the front.
func selectWindow(chunkText string, spans []Span, maxLen int) (int, int) {
	if len(chunkText) <= maxLen {
		return 0, len(chunkText)
	}
	if len(spans) == 0 {
		return 0, snapRune(chunkText, maxLen)
	}

	bestI, bestCount := 0, 1
	for i, j := 0, 0; i < len(spans); i++ {
		if j < i {
			j = i
		}
		for j+1 < len(spans) && spans[j+1].End-spans[i].Start <= maxLen {
			j++
		}
		if count := j - i + 1; count > bestCount {
			bestI, bestCount = i, count
		}
	}

	first := spans[bestI]
	last := spans[bestI+bestCount-1]

	// Center the slack around the covered matches.
	slack := maxLen - (last.End - first.Start)
	start := first.Start - slack/2
	if start < 0 {
		start = 0
	}
	end := start + maxLen
	if end > len(chunkText) {
		end = len(chunkText)
		start = end - maxLen
	}

	start = snapRune(chunkText, start)
	if end > start+maxLen {
		end = start + maxLen
	}
	return start, snapRune(chunkText, end)
}

// foldMatch reports the byte length of the prefix of s that matches
// term case-insensitively, or 0 when s does not start with term.
func foldMatch(s, term string) int {
	n := 0
	for _, tr := range term {
		r, size := utf8.DecodeRuneInString(s[n:])
		if size == 0 {
			return 0
		}
		if unicode.ToLower(r) != unicode.ToLower(tr) {
			return 0
		}
		n += size
	}
	return n
}

// snapRune moves a byte offset back to the nearest rune boundary.
func snapRune(s string, i int) int {
	for i > 0 && i < len(s) && !utf8.RuneStart(s[i]) {
		i--
	}
	return i
}
