package hrdb

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testCSV = `# dataset: HR People
# description: Test employee roster
# primary_key: employee_id
employee_id,first_name,last_name,department,title,location,salary,hire_date,manager_id
1,Ada,Lovelace,Engineering,Principal Engineer,London,185000,2015-03-02,
2,Grace,Hopper,Engineering,Staff Engineer,New York,165000.50,2017-06-15,1
3,Jean,Bartik,Support,Support Lead,Remote,95000,2019-11-01,1
4,Katherine,Johnson,Finance,Analyst,Houston,105000,2020-01-20,1
5,Annie,Easley,Engineering,Engineer,Cleveland,,2021-08-09,2
`

func writeTestCSV(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "people.csv")
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func openTestDB(t *testing.T) *DB {
	t.Helper()
	db, err := FromCSV(writeTestCSV(t, testCSV))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return db
}

func TestParseCSVMetadata(t *testing.T) {
	contents, err := parseCSV(writeTestCSV(t, testCSV))
	require.NoError(t, err)

	assert.Equal(t, "HR People", contents.meta["dataset"])
	assert.Equal(t, "Test employee roster", contents.meta["description"])
	assert.Equal(t, "employee_id", contents.meta["primary_key"])
	assert.Equal(t, []string{
		"employee_id", "first_name", "last_name", "department", "title",
		"location", "salary", "hire_date", "manager_id",
	}, contents.fieldNames)
	assert.Len(t, contents.rows, 5)
}

func TestParseCSVWithoutMetadata(t *testing.T) {
	contents, err := parseCSV(writeTestCSV(t, "id,name\n1,Ada\n"))
	require.NoError(t, err)

	assert.Empty(t, contents.meta)
	assert.Equal(t, []string{"id", "name"}, contents.fieldNames)
	require.Len(t, contents.rows, 1)
	assert.Equal(t, "Ada", contents.rows[0]["name"])
}

func TestInferColumnTypes(t *testing.T) {
	sample := []map[string]string{
		{"id": "1", "salary": "100.5", "name": "Ada", "manager": ""},
		{"id": "2", "salary": "90", "name": "Grace", "manager": ""},
	}

	types := inferColumnTypes(sample, []string{"id", "salary", "name", "manager"})

	assert.Equal(t, "INTEGER", types["id"])
	assert.Equal(t, "REAL", types["salary"])
	assert.Equal(t, "TEXT", types["name"])
	// A column with no non-empty samples stays TEXT.
	assert.Equal(t, "TEXT", types["manager"])
}

func TestCoerceFollowsColumnType(t *testing.T) {
	assert.Equal(t, int64(185000), coerce("185000", "INTEGER"))
	assert.Equal(t, 165000.50, coerce("165000.50", "REAL"))
	assert.Equal(t, "Ada", coerce("Ada", "TEXT"))
	// Empty cells are NULL regardless of column type.
	assert.Nil(t, coerce("", "INTEGER"))
	assert.Nil(t, coerce("", "TEXT"))
	// Unparseable values fall back to the raw text.
	assert.Equal(t, "n/a", coerce("n/a", "INTEGER"))
	assert.Equal(t, "n/a", coerce("n/a", "REAL"))
}

func TestStoredValuesCarryNumericTypes(t *testing.T) {
	db := openTestDB(t)

	result, err := db.SafeSelect(
		"SELECT typeof(employee_id) AS id_t, typeof(salary) AS sal_t FROM employees WHERE employee_id = 1", nil)
	require.NoError(t, err)

	rows := result["rows"].([]map[string]interface{})
	require.Len(t, rows, 1)
	assert.Equal(t, "integer", rows[0]["id_t"])
	assert.Equal(t, "real", rows[0]["sal_t"])
}

func TestSchemaReflectsInferredTypes(t *testing.T) {
	db := openTestDB(t)

	schema, err := db.Schema()
	require.NoError(t, err)

	cols := schema["columns"].([]map[string]interface{})
	byName := make(map[string]string)
	for _, c := range cols {
		byName[c["name"].(string)] = c["type"].(string)
	}

	assert.Equal(t, "INTEGER", byName["employee_id"])
	assert.Equal(t, "REAL", byName["salary"])
	assert.Equal(t, "TEXT", byName["first_name"])
}

func TestMeta(t *testing.T) {
	db := openTestDB(t)
	assert.Equal(t, "HR People", db.Meta()["dataset"])
}

func TestSafeSelect(t *testing.T) {
	db := openTestDB(t)

	result, err := db.SafeSelect("SELECT first_name FROM employees WHERE department = 'Engineering' ORDER BY employee_id", nil)
	require.NoError(t, err)

	rows := result["rows"].([]map[string]interface{})
	require.Len(t, rows, 3)
	assert.Equal(t, "Ada", rows[0]["first_name"])
	assert.Equal(t, 3, result["rowCount"])
}

func TestSafeSelectWithLimit(t *testing.T) {
	db := openTestDB(t)

	limit := 2
	result, err := db.SafeSelect("SELECT * FROM employees ORDER BY employee_id", &limit)
	require.NoError(t, err)

	assert.Equal(t, 2, result["rowCount"])
}

func TestSafeSelectWithCTE(t *testing.T) {
	db := openTestDB(t)

	result, err := db.SafeSelect("WITH eng AS (SELECT * FROM employees WHERE department = 'Engineering') SELECT count(*) AS n FROM eng", nil)
	require.NoError(t, err)
	assert.Equal(t, 1, result["rowCount"])
}

func TestSafeSelectRejectsUnsafeSQL(t *testing.T) {
	db := openTestDB(t)

	cases := []string{
		"DELETE FROM employees",
		"DROP TABLE employees",
		"SELECT 1; DROP TABLE employees",
		"SELECT * FROM employees WHERE id IN (SELECT 1); PRAGMA foo",
		"INSERT INTO employees VALUES (9)",
		"UPDATE employees SET salary = 0",
		"VACUUM",
		"PRAGMA table_info(employees)",
	}
	for _, sql := range cases {
		_, err := db.SafeSelect(sql, nil)
		assert.ErrorIs(t, err, ErrUnsafeQuery, "expected rejection for %q", sql)
	}
}

func TestSafeSelectEmptyCellsAreNull(t *testing.T) {
	db := openTestDB(t)

	result, err := db.SafeSelect("SELECT count(*) AS n FROM employees WHERE salary IS NULL", nil)
	require.NoError(t, err)

	rows := result["rows"].([]map[string]interface{})
	require.Len(t, rows, 1)
	assert.EqualValues(t, 1, rows[0]["n"])
}

func TestFindPeopleByDepartment(t *testing.T) {
	db := openTestDB(t)

	dept := "Engineering"
	result, err := db.FindPeople(FindPeopleFilters{Department: &dept})
	require.NoError(t, err)

	rows := result["rows"].([]map[string]interface{})
	require.Len(t, rows, 3)
	// Ordered by last name then first name.
	assert.Equal(t, "Easley", rows[0]["last_name"])
	assert.Equal(t, "Hopper", rows[1]["last_name"])
	assert.Equal(t, "Lovelace", rows[2]["last_name"])
}

func TestFindPeopleCombinedFilters(t *testing.T) {
	db := openTestDB(t)

	dept := "Engineering"
	minSalary := 160000.0
	result, err := db.FindPeople(FindPeopleFilters{Department: &dept, MinSalary: &minSalary})
	require.NoError(t, err)

	rows := result["rows"].([]map[string]interface{})
	require.Len(t, rows, 2)
}

func TestFindPeopleNameContains(t *testing.T) {
	db := openTestDB(t)

	name := "love"
	result, err := db.FindPeople(FindPeopleFilters{NameContains: &name})
	require.NoError(t, err)

	rows := result["rows"].([]map[string]interface{})
	require.Len(t, rows, 1)
	assert.Equal(t, "Lovelace", rows[0]["last_name"])
}

func TestFindPeopleLimit(t *testing.T) {
	db := openTestDB(t)

	result, err := db.FindPeople(FindPeopleFilters{Limit: 2})
	require.NoError(t, err)
	assert.Equal(t, 2, result["rowCount"])
}
