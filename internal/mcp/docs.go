package mcp

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/searchdock/searchdock/internal/history"
	"github.com/searchdock/searchdock/internal/search"
)

// DocsToolset exposes the document search engine as doc_search and
// doc_status tools.
type DocsToolset struct {
	engine  *search.Engine
	history history.Store
}

// NewDocsToolset wires the toolset to a live engine. The history store
// may be nil when analytics are disabled.
func NewDocsToolset(engine *search.Engine, hist history.Store) *DocsToolset {
	return &DocsToolset{engine: engine, history: hist}
}

// Name implements Toolset.
func (t *DocsToolset) Name() string {
	return "searchdock-docs"
}

// Capabilities reports whether the library-backed ranking variant is
// live, so clients can tell the two builds apart.
func (t *DocsToolset) Capabilities() map[string]interface{} {
	return map[string]interface{}{
		"advancedRanking": t.engine.Status().AdvancedRanking,
	}
}

// Tools implements Toolset.
func (t *DocsToolset) Tools() []Tool {
	return []Tool{
		{
			Name: "doc_search",
			Description: `Search the indexed document collection and return ranked matches.

Each match carries the document id, title, chunk id, relevance score,
and a snippet with [matched terms] marked in brackets.`,
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"query": map[string]interface{}{
						"type":        "string",
						"description": "Free-text search query",
					},
					"top_k": map[string]interface{}{
						"type":        "integer",
						"description": "Maximum number of matches to return (default 5, max 50)",
					},
				},
				"required": []string{"query"},
			},
		},
		{
			Name: "doc_status",
			Description: `Report index health: whether an index is loaded, document and
chunk counts, and which ranking backend is serving queries.`,
			InputSchema: map[string]interface{}{
				"type":       "object",
				"properties": map[string]interface{}{},
			},
		},
	}
}

// Call implements Toolset.
func (t *DocsToolset) Call(name string, args map[string]interface{}) (*ToolResult, error) {
	switch name {
	case "doc_search":
		return t.execSearch(args)
	case "doc_status":
		return t.execStatus()
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnknownTool, name)
	}
}

// execSearch runs one ranked query.
func (t *DocsToolset) execSearch(args map[string]interface{}) (*ToolResult, error) {
	query, _ := args["query"].(string)
	if strings.TrimSpace(query) == "" {
		return &ToolResult{
			Text:    "query must be a non-empty string",
			IsError: true,
		}, nil
	}

	topK := 0
	if v, ok := args["top_k"].(float64); ok {
		topK = int(v)
	}

	result, err := t.engine.Search(query, topK)
	if err != nil {
		if errors.Is(err, search.ErrIndexUnavailable) {
			return &ToolResult{
				Text:    "no search index is loaded; index the document directory first",
				IsError: true,
			}, nil
		}
		return nil, err
	}

	t.recordSearch(query, len(result.Matches))

	return &ToolResult{
		Text:       formatMatches(result),
		Structured: result,
	}, nil
}

// execStatus reports engine health.
func (t *DocsToolset) execStatus() (*ToolResult, error) {
	status := t.engine.Status()

	var text string
	if !status.IndexLoaded {
		text = "No index loaded."
	} else {
		text = fmt.Sprintf("Index loaded: %d documents, %d chunks, ranker %s.",
			status.Documents, status.Chunks, status.Ranker)
	}

	return &ToolResult{
		Text:       text,
		Structured: status,
	}, nil
}

// recordSearch logs the query for analytics, best effort.
func (t *DocsToolset) recordSearch(query string, results int) {
	if t.history == nil {
		return
	}
	t.history.RecordSearch(history.SearchRecord{
		SearchID:     uuid.NewString(),
		QueryHash:    history.HashQuery(query),
		Timestamp:    time.Now(),
		ResultsCount: results,
	})
}

// formatMatches renders a result list for the text content block.
func formatMatches(result *search.Result) string {
	if len(result.Matches) == 0 {
		return fmt.Sprintf("No matches for %q.", result.Query)
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Top %d matches for %q:\n", len(result.Matches), result.Query)
	for i, m := range result.Matches {
		fmt.Fprintf(&b, "%d. %s (doc %s, chunk %d, score %.4f)\n   %s\n",
			i+1, m.Title, m.DocID, m.ChunkID, m.Score, m.Snippet)
	}
	return b.String()
}
