package mcp

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/searchdock/searchdock/internal/hrdb"
)

// HRToolset exposes the read-only HR database as four tools.
type HRToolset struct {
	db *hrdb.DB
}

// NewHRToolset wires the toolset to a loaded database.
func NewHRToolset(db *hrdb.DB) *HRToolset {
	return &HRToolset{db: db}
}

// Name implements Toolset.
func (t *HRToolset) Name() string {
	return "searchdock-db"
}

// Tools implements Toolset.
func (t *HRToolset) Tools() []Tool {
	return []Tool{
		{
			Name:        "hr_metadata",
			Description: "Return the dataset metadata parsed from the CSV header comments.",
			InputSchema: map[string]interface{}{
				"type":       "object",
				"properties": map[string]interface{}{},
			},
		},
		{
			Name:        "hr_schema",
			Description: "Describe the employees table: column names and inferred SQLite types.",
			InputSchema: map[string]interface{}{
				"type":       "object",
				"properties": map[string]interface{}{},
			},
		},
		{
			Name: "hr_query",
			Description: `Run a read-only SQL query against the employees table.

Only a single SELECT or WITH statement is accepted; semicolons and any
write/DDL keywords are rejected.`,
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"sql": map[string]interface{}{
						"type":        "string",
						"description": "A single SELECT/WITH statement",
					},
					"limit": map[string]interface{}{
						"type":        "integer",
						"description": "Optional row cap applied by wrapping the query",
					},
				},
				"required": []string{"sql"},
			},
		},
		{
			Name: "hr_find_people",
			Description: `Find employees with structured filters instead of raw SQL.

All filters are optional and combined with AND. Results are ordered by
last name then first name.`,
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"name_contains": map[string]interface{}{
						"type":        "string",
						"description": "Case-insensitive substring of first or last name",
					},
					"department": map[string]interface{}{"type": "string"},
					"title":      map[string]interface{}{"type": "string"},
					"location":   map[string]interface{}{"type": "string"},
					"min_salary": map[string]interface{}{"type": "number"},
					"max_salary": map[string]interface{}{"type": "number"},
					"hired_after": map[string]interface{}{
						"type":        "string",
						"description": "ISO date lower bound on hire_date",
					},
					"hired_before": map[string]interface{}{
						"type":        "string",
						"description": "ISO date upper bound on hire_date",
					},
					"limit": map[string]interface{}{
						"type":        "integer",
						"description": "Maximum rows to return (default 25)",
					},
				},
			},
		},
	}
}

// Call implements Toolset.
func (t *HRToolset) Call(name string, args map[string]interface{}) (*ToolResult, error) {
	switch name {
	case "hr_metadata":
		return t.execMetadata()
	case "hr_schema":
		return t.execSchema()
	case "hr_query":
		return t.execQuery(args)
	case "hr_find_people":
		return t.execFindPeople(args)
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnknownTool, name)
	}
}

func (t *HRToolset) execMetadata() (*ToolResult, error) {
	meta := t.db.Meta()

	var b strings.Builder
	if len(meta) == 0 {
		b.WriteString("No dataset metadata present.")
	} else {
		b.WriteString("Dataset metadata:\n")
		for k, v := range meta {
			fmt.Fprintf(&b, "  %s: %s\n", k, v)
		}
	}

	return &ToolResult{Text: b.String(), Structured: meta}, nil
}

func (t *HRToolset) execSchema() (*ToolResult, error) {
	schema, err := t.db.Schema()
	if err != nil {
		return nil, err
	}
	return &ToolResult{Text: renderJSON(schema), Structured: schema}, nil
}

func (t *HRToolset) execQuery(args map[string]interface{}) (*ToolResult, error) {
	sqlText, _ := args["sql"].(string)
	if strings.TrimSpace(sqlText) == "" {
		return &ToolResult{Text: "sql must be a non-empty string", IsError: true}, nil
	}

	var limit *int
	if v, ok := args["limit"].(float64); ok {
		n := int(v)
		limit = &n
	}

	result, err := t.db.SafeSelect(sqlText, limit)
	if err != nil {
		if errors.Is(err, hrdb.ErrUnsafeQuery) {
			return &ToolResult{Text: err.Error(), IsError: true}, nil
		}
		// SQL syntax errors are the caller's to fix, not server faults.
		return &ToolResult{Text: fmt.Sprintf("query failed: %v", err), IsError: true}, nil
	}

	return &ToolResult{Text: renderJSON(result), Structured: result}, nil
}

func (t *HRToolset) execFindPeople(args map[string]interface{}) (*ToolResult, error) {
	var filters hrdb.FindPeopleFilters

	// Round-trip through JSON so the optional-pointer fields come out
	// nil when absent.
	raw, err := json.Marshal(args)
	if err != nil {
		return nil, fmt.Errorf("failed to encode filters: %w", err)
	}
	if err := json.Unmarshal(raw, &filters); err != nil {
		return &ToolResult{Text: fmt.Sprintf("invalid filters: %v", err), IsError: true}, nil
	}

	result, err := t.db.FindPeople(filters)
	if err != nil {
		return nil, err
	}

	return &ToolResult{Text: renderJSON(result), Structured: result}, nil
}

// renderJSON pretty-prints a structured result for the text block.
func renderJSON(v interface{}) string {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Sprintf("%v", v)
	}
	return string(data)
}
