/*
Package hrdb loads an HR "people" CSV into an in-memory SQLite database
and exposes read-only query helpers over it.

The CSV may start with up to 3 metadata comment lines:

	# dataset: HR People
	# description: ...
	# primary_key: employee_id
	col1,col2,...

Metadata lines are parsed into key/value pairs; the remainder is a
regular CSV with a header row.
*/
package hrdb

import (
	"bufio"
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"regexp"
	"strconv"
	"strings"
)

// metaLinePattern splits "key: value" metadata lines.
var metaLinePattern = regexp.MustCompile(`^\s*([^:]+?)\s*:\s*(.+?)\s*$`)

// csvContents is the parsed CSV: metadata header, column names, and all
// data rows keyed by column.
type csvContents struct {
	meta       map[string]string
	fieldNames []string
	rows       []map[string]string
}

// parseCSV reads a CSV file with an optional 3-line metadata header.
func parseCSV(path string) (*csvContents, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open csv: %w", err)
	}
	defer f.Close()

	reader := bufio.NewReader(f)
	meta := make(map[string]string)

	// Up to 3 leading '#' lines are metadata.
	var headerLine string
	for i := 0; i < 3; i++ {
		line, err := reader.ReadString('\n')
		if err != nil && err != io.EOF {
			return nil, fmt.Errorf("failed to read csv header: %w", err)
		}
		trimmed := strings.TrimSpace(line)
		if strings.HasPrefix(strings.TrimLeft(trimmed, " \t"), "#") {
			raw := strings.TrimSpace(strings.TrimLeft(trimmed, "#"))
			if m := metaLinePattern.FindStringSubmatch(raw); m != nil {
				meta[strings.TrimSpace(m[1])] = strings.TrimSpace(m[2])
			} else if raw != "" {
				meta[fmt.Sprintf("meta_line_%d", i+1)] = raw
			}
			if err == io.EOF {
				break
			}
			continue
		}
		headerLine = line
		break
	}

	if headerLine == "" {
		line, err := reader.ReadString('\n')
		if line == "" && err != nil {
			return nil, fmt.Errorf("csv file is empty or missing a header row")
		}
		headerLine = line
	}

	csvReader := csv.NewReader(io.MultiReader(strings.NewReader(headerLine), reader))
	csvReader.FieldsPerRecord = -1

	records, err := csvReader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("failed to parse csv: %w", err)
	}
	if len(records) == 0 {
		return nil, fmt.Errorf("could not parse csv header")
	}

	fieldNames := make([]string, len(records[0]))
	for i, fn := range records[0] {
		fieldNames[i] = strings.TrimSpace(fn)
	}

	rows := make([]map[string]string, 0, len(records)-1)
	for _, record := range records[1:] {
		row := make(map[string]string, len(fieldNames))
		for i, fn := range fieldNames {
			if i < len(record) {
				row[fn] = strings.TrimSpace(record[i])
			} else {
				row[fn] = ""
			}
		}
		rows = append(rows, row)
	}

	return &csvContents{meta: meta, fieldNames: fieldNames, rows: rows}, nil
}

// inferColumnTypes picks an SQLite type per column from a sample of
// rows: INTEGER if every non-empty value parses as int, REAL if every
// non-empty value parses as float, TEXT otherwise.
func inferColumnTypes(sample []map[string]string, fieldNames []string) map[string]string {
	isInt := func(s string) bool {
		_, err := strconv.ParseInt(s, 10, 64)
		return err == nil
	}
	isFloat := func(s string) bool {
		_, err := strconv.ParseFloat(s, 64)
		return err == nil
	}

	types := make(map[string]string, len(fieldNames))
	for _, fn := range fieldNames {
		var nonEmpty []string
		for _, r := range sample {
			if v := r[fn]; v != "" {
				nonEmpty = append(nonEmpty, v)
			}
		}

		switch {
		case len(nonEmpty) > 0 && allMatch(nonEmpty, isInt):
			types[fn] = "INTEGER"
		case len(nonEmpty) > 0 && allMatch(nonEmpty, isFloat):
			types[fn] = "REAL"
		default:
			types[fn] = "TEXT"
		}
	}
	return types
}

func allMatch(values []string, pred func(string) bool) bool {
	for _, v := range values {
		if !pred(v) {
			return false
		}
	}
	return true
}
