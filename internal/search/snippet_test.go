package search

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSnippetShortChunkReturnedWhole(t *testing.T) {
	text := "Insulin regulates blood sugar levels."

	snippet, spans := Snippet(text, []string{"insulin"}, 200)

	assert.Equal(t, "[Insulin] regulates blood sugar levels.", snippet)
	require.Len(t, spans, 1)
	assert.Equal(t, Span{Start: 0, End: 7}, spans[0])
}

func TestSnippetMarksAllTermsCaseInsensitive(t *testing.T) {
	text := "Diabetes treatment: modern DIABETES care."

	snippet, spans := Snippet(text, []string{"diabetes", "treatment"}, 200)

	assert.Equal(t, "[Diabetes] [treatment]: modern [DIABETES] care.", snippet)
	assert.Len(t, spans, 3)
}

func TestSnippetMergesOverlappingMatches(t *testing.T) {
	// "sugar" and "sugarcane" overlap; the merged span covers both
	// without nested markers.
	text := "refined sugarcane products"

	snippet, spans := Snippet(text, []string{"sugar", "sugarcane"}, 200)

	assert.Equal(t, "refined [sugarcane] products", snippet)
	require.Len(t, spans, 1)
	assert.Equal(t, "sugarcane", text[spans[0].Start:spans[0].End])
}

func TestSnippetEllipsisOnTruncation(t *testing.T) {
	text := strings.Repeat("filler words before the target appears here ", 10) +
		"needle in the middle " +
		strings.Repeat("and plenty of filler words after the target too ", 10)

	snippet, spans := Snippet(text, []string{"needle"}, 80)

	assert.True(t, strings.HasPrefix(snippet, "..."))
	assert.True(t, strings.HasSuffix(snippet, "..."))
	assert.Contains(t, snippet, "[needle]")
	require.Len(t, spans, 1)
	assert.Equal(t, "needle", text[spans[0].Start:spans[0].End])
}

func TestSnippetWindowLengthBounded(t *testing.T) {
	text := strings.Repeat("word ", 200)

	snippet, _ := Snippet(text, []string{"word"}, 100)

	// Window text stays within maxLen; markers and ellipses come on top
	// of the budget.
	stripped := strings.NewReplacer("[", "", "]", "", "...", "").Replace(snippet)
	assert.LessOrEqual(t, len(stripped), 100)
}

func TestSnippetNoMatchesTruncatesFront(t *testing.T) {
	text := strings.Repeat("plain text without the query terms ", 20)

	snippet, spans := Snippet(text, []string{"zeppelin"}, 50)

	assert.Empty(t, spans)
	assert.True(t, strings.HasSuffix(snippet, "..."))
	assert.True(t, strings.HasPrefix(text, strings.TrimSuffix(snippet, "...")))
}

func TestSnippetPrefersDensestWindow(t *testing.T) {
	text := "alpha " + strings.Repeat("x ", 150) +
		"alpha alpha alpha together " + strings.Repeat("y ", 150)

	snippet, spans := Snippet(text, []string{"alpha"}, 60)

	// The window with three clustered matches wins over the lone early one.
	assert.GreaterOrEqual(t, len(spans), 3)
	assert.Contains(t, snippet, "[alpha] [alpha] [alpha]")
}

func TestSnippetOffsetsSurviveMultibyteCaseFolding(t *testing.T) {
	// U+0130 lowers to two runes, so a lowered copy of the text is
	// longer than the original; spans must still index the original.
	text := "İ İ İ İ İ İ İ İ İ İ treatment plan"

	snippet, spans := Snippet(text, []string{"treatment"}, 200)

	assert.Equal(t, "İ İ İ İ İ İ İ İ İ İ [treatment] plan", snippet)
	require.Len(t, spans, 1)
	assert.Equal(t, "treatment", text[spans[0].Start:spans[0].End])
}

func TestSnippetMatchesFoldedUppercaseRunes(t *testing.T) {
	text := "The İSTANBUL office report"

	snippet, spans := Snippet(text, []string{"report"}, 200)

	assert.Equal(t, "The İSTANBUL office [report]", snippet)
	require.Len(t, spans, 1)
	assert.Equal(t, "report", text[spans[0].Start:spans[0].End])
}

func TestSnippetSpansIndexChunkText(t *testing.T) {
	text := strings.Repeat("padding before ", 30) + "the keyword sits here" + strings.Repeat(" padding after", 30)

	_, spans := Snippet(text, []string{"keyword"}, 100)

	require.Len(t, spans, 1)
	assert.Equal(t, "keyword", text[spans[0].Start:spans[0].End])
}
