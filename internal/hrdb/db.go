package hrdb

import (
	"database/sql"
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	_ "modernc.org/sqlite"
)

// ErrUnsafeQuery is returned when a submitted SQL statement is not a
// single read-only SELECT/WITH query.
var ErrUnsafeQuery = errors.New("only read-only SELECT/WITH queries are allowed")

// typeSampleSize is how many rows feed column type inference.
const typeSampleSize = 100

var (
	readOnlyPrefix = regexp.MustCompile(`(?i)^(select|with)\b`)
	writeKeywords  = regexp.MustCompile(`(?i)\b(insert|update|delete|drop|create|alter|attach|detach|pragma|vacuum|reindex|replace)\b`)
)

// DB is the in-memory HR database built from a CSV file. It is
// read-only after construction.
type DB struct {
	db         *sql.DB
	csvPath    string
	meta       map[string]string
	fieldNames []string
}

// FromCSV loads the CSV at path into a fresh in-memory SQLite database
// with an "employees" table.
func FromCSV(path string) (*DB, error) {
	contents, err := parseCSV(path)
	if err != nil {
		return nil, err
	}

	db, err := sql.Open("sqlite", ":memory:")
	if err != nil {
		return nil, fmt.Errorf("failed to open in-memory database: %w", err)
	}

	sample := contents.rows
	if len(sample) > typeSampleSize {
		sample = sample[:typeSampleSize]
	}
	types := inferColumnTypes(sample, contents.fieldNames)

	colDefs := make([]string, len(contents.fieldNames))
	quotedCols := make([]string, len(contents.fieldNames))
	placeholders := make([]string, len(contents.fieldNames))
	for i, fn := range contents.fieldNames {
		colDefs[i] = fmt.Sprintf("%q %s", fn, types[fn])
		quotedCols[i] = fmt.Sprintf("%q", fn)
		placeholders[i] = "?"
	}

	if _, err := db.Exec(fmt.Sprintf("CREATE TABLE employees (%s)", strings.Join(colDefs, ", "))); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create employees table: %w", err)
	}

	insertSQL := fmt.Sprintf(
		"INSERT INTO employees (%s) VALUES (%s)",
		strings.Join(quotedCols, ", "), strings.Join(placeholders, ", "),
	)

	tx, err := db.Begin()
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to begin insert transaction: %w", err)
	}
	stmt, err := tx.Prepare(insertSQL)
	if err != nil {
		tx.Rollback()
		db.Close()
		return nil, fmt.Errorf("failed to prepare insert: %w", err)
	}
	for _, row := range contents.rows {
		args := make([]interface{}, len(contents.fieldNames))
		for i, fn := range contents.fieldNames {
			args[i] = coerce(row[fn], types[fn])
		}
		if _, err := stmt.Exec(args...); err != nil {
			stmt.Close()
			tx.Rollback()
			db.Close()
			return nil, fmt.Errorf("failed to insert row: %w", err)
		}
	}
	stmt.Close()
	if err := tx.Commit(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to commit rows: %w", err)
	}

	// Helpful indexes for typical queries.
	for _, idxCol := range []string{"employee_id", "department", "location", "manager_id"} {
		if contains(contents.fieldNames, idxCol) {
			db.Exec(fmt.Sprintf("CREATE INDEX idx_employees_%s ON employees(%q)", idxCol, idxCol))
		}
	}

	return &DB{
		db:         db,
		csvPath:    path,
		meta:       contents.meta,
		fieldNames: contents.fieldNames,
	}, nil
}

// coerce converts a CSV cell to the column's inferred type. Empty cells
// become NULL; a cell that fails to parse as the inferred type is kept
// as text and SQLite's type affinity takes over.
func coerce(v, colType string) interface{} {
	if v == "" {
		return nil
	}
	switch colType {
	case "INTEGER":
		if n, err := strconv.ParseInt(v, 10, 64); err == nil {
			return n
		}
	case "REAL":
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
	}
	return v
}

func contains(names []string, name string) bool {
	for _, n := range names {
		if n == name {
			return true
		}
	}
	return false
}

// Meta returns the parsed metadata header lines as key/value pairs.
func (d *DB) Meta() map[string]string {
	return d.meta
}

// Schema returns column information for the employees table.
func (d *DB) Schema() (map[string]interface{}, error) {
	rows, err := d.db.Query("PRAGMA table_info(employees)")
	if err != nil {
		return nil, fmt.Errorf("failed to read schema: %w", err)
	}
	defer rows.Close()

	var cols []map[string]interface{}
	for rows.Next() {
		var cid int
		var name, colType string
		var notNull int
		var dfltValue sql.NullString
		var pk int
		if err := rows.Scan(&cid, &name, &colType, &notNull, &dfltValue, &pk); err != nil {
			return nil, fmt.Errorf("failed to scan schema row: %w", err)
		}
		cols = append(cols, map[string]interface{}{
			"name":    name,
			"type":    colType,
			"notnull": notNull != 0,
		})
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	return map[string]interface{}{"table": "employees", "columns": cols}, nil
}

// SafeSelect executes a validated read-only query. Only a single
// SELECT/WITH statement is allowed: semicolons and write/DDL keywords
// are rejected. A non-nil limit wraps the query rather than rewriting
// any user-provided LIMIT/OFFSET.
func (d *DB) SafeSelect(sqlText string, limit *int) (map[string]interface{}, error) {
	clean := strings.TrimSpace(sqlText)
	if !readOnlyPrefix.MatchString(clean) {
		return nil, fmt.Errorf("%w: statement must start with SELECT or WITH", ErrUnsafeQuery)
	}
	if strings.Contains(clean, ";") {
		return nil, fmt.Errorf("%w: semicolons are not allowed (single statement only)", ErrUnsafeQuery)
	}
	if writeKeywords.MatchString(clean) {
		return nil, fmt.Errorf("%w: write/DDL keywords are not allowed", ErrUnsafeQuery)
	}

	finalSQL := clean
	var args []interface{}
	if limit != nil {
		finalSQL = fmt.Sprintf("SELECT * FROM (%s) LIMIT ?", clean)
		args = append(args, *limit)
	}

	return d.queryRows(finalSQL, args...)
}

// FindPeopleFilters are the structured filters for FindPeople. Nil
// pointer fields are not applied.
type FindPeopleFilters struct {
	NameContains *string  `json:"name_contains"`
	Department   *string  `json:"department"`
	Title        *string  `json:"title"`
	Location     *string  `json:"location"`
	MinSalary    *float64 `json:"min_salary"`
	MaxSalary    *float64 `json:"max_salary"`
	HiredAfter   *string  `json:"hired_after"`
	HiredBefore  *string  `json:"hired_before"`
	Limit        int      `json:"limit"`
}

// FindPeople runs a structured employees query without requiring the
// caller to write SQL. Results are ordered by last then first name.
func (d *DB) FindPeople(f FindPeopleFilters) (map[string]interface{}, error) {
	var where []string
	var args []interface{}

	if f.NameContains != nil && *f.NameContains != "" {
		where = append(where, "(lower(first_name) LIKE ? OR lower(last_name) LIKE ?)")
		pattern := "%" + strings.ToLower(*f.NameContains) + "%"
		args = append(args, pattern, pattern)
	}
	if f.Department != nil && *f.Department != "" {
		where = append(where, "department = ?")
		args = append(args, *f.Department)
	}
	if f.Title != nil && *f.Title != "" {
		where = append(where, "title = ?")
		args = append(args, *f.Title)
	}
	if f.Location != nil && *f.Location != "" {
		where = append(where, "location = ?")
		args = append(args, *f.Location)
	}
	if f.MinSalary != nil {
		where = append(where, "salary >= ?")
		args = append(args, *f.MinSalary)
	}
	if f.MaxSalary != nil {
		where = append(where, "salary <= ?")
		args = append(args, *f.MaxSalary)
	}
	if f.HiredAfter != nil && *f.HiredAfter != "" {
		where = append(where, "hire_date >= ?")
		args = append(args, *f.HiredAfter)
	}
	if f.HiredBefore != nil && *f.HiredBefore != "" {
		where = append(where, "hire_date <= ?")
		args = append(args, *f.HiredBefore)
	}

	limit := f.Limit
	if limit <= 0 {
		limit = 25
	}

	query := "SELECT * FROM employees"
	if len(where) > 0 {
		query += " WHERE " + strings.Join(where, " AND ")
	}
	query += " ORDER BY last_name, first_name LIMIT ?"
	args = append(args, limit)

	result, err := d.queryRows(query, args...)
	if err != nil {
		return nil, err
	}
	result["appliedFilters"] = f
	return result, nil
}

// queryRows executes a query and shapes the rows as generic maps.
func (d *DB) queryRows(query string, args ...interface{}) (map[string]interface{}, error) {
	rows, err := d.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("query failed: %w", err)
	}
	defer rows.Close()

	cols, err := rows.Columns()
	if err != nil {
		return nil, fmt.Errorf("failed to read columns: %w", err)
	}

	outRows := []map[string]interface{}{}
	for rows.Next() {
		values := make([]interface{}, len(cols))
		pointers := make([]interface{}, len(cols))
		for i := range values {
			pointers[i] = &values[i]
		}
		if err := rows.Scan(pointers...); err != nil {
			return nil, fmt.Errorf("failed to scan row: %w", err)
		}

		row := make(map[string]interface{}, len(cols))
		for i, col := range cols {
			v := values[i]
			if b, ok := v.([]byte); ok {
				v = string(b)
			}
			row[col] = v
		}
		outRows = append(outRows, row)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	return map[string]interface{}{
		"rowCount": len(outRows),
		"rows":     outRows,
	}, nil
}

// Close releases the underlying database.
func (d *DB) Close() error {
	return d.db.Close()
}
