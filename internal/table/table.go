// Package table provides the in-memory tabular model for records fetched from
// a NocoDB table. A Table is immutable once built: every narrowing or renaming
// operation returns a new Table and leaves the receiver untouched, so a cached
// Table can be shared freely between the fetch layer and any number of views.
package table

import (
	"fmt"
	"regexp"
	"sort"
	"strconv"
	"strings"
)

// Record is one row of the remote table: field name to scalar value.
// Values are whatever encoding/json produced for the API response
// (string, float64, bool, nil).
type Record map[string]any

// Table is an ordered sequence of Records plus the union of column names seen
// across all of them, in insertion order of first occurrence.
type Table struct {
	columns []string
	rows    []Record
}

// genericFieldPattern matches auto-generated column headers like "Field 2".
var genericFieldPattern = regexp.MustCompile(`^Field\s*\d+$`)

// New returns an empty Table.
func New() *Table {
	return &Table{}
}

// FromRecords builds a Table from records in fetch order. The column list is
// the union of keys across all records, ordered by first occurrence.
func FromRecords(records []Record) *Table {
	t := &Table{rows: make([]Record, 0, len(records))}
	seen := make(map[string]bool)
	for _, rec := range records {
		for _, key := range sortedKeys(rec) {
			if !seen[key] {
				seen[key] = true
				t.columns = append(t.columns, key)
			}
		}
		t.rows = append(t.rows, rec)
	}
	return t
}

// sortedKeys returns a record's keys in a stable order. Go map iteration is
// randomized, so without this the column order of a Table would differ between
// runs for keys first seen in the same record.
func sortedKeys(rec Record) []string {
	keys := make([]string, 0, len(rec))
	for k := range rec {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// WithRows returns a Table carrying the given rows but keeping the receiver's
// column list and order. Used when a filter narrows the rows: dropping a row
// must never drop a column from the view.
func (t *Table) WithRows(rows []Record) *Table {
	cols := make([]string, len(t.columns))
	copy(cols, t.columns)
	out := make([]Record, len(rows))
	copy(out, rows)
	return &Table{columns: cols, rows: out}
}

// Len returns the number of rows.
func (t *Table) Len() int {
	return len(t.rows)
}

// Empty reports whether the table has no rows.
func (t *Table) Empty() bool {
	return len(t.rows) == 0
}

// Columns returns a copy of the column names in display order.
func (t *Table) Columns() []string {
	cols := make([]string, len(t.columns))
	copy(cols, t.columns)
	return cols
}

// Rows returns a copy of the row slice. The Record maps themselves are shared
// and must not be mutated by callers.
func (t *Table) Rows() []Record {
	rows := make([]Record, len(t.rows))
	copy(rows, t.rows)
	return rows
}

// Row returns the record at index i.
func (t *Table) Row(i int) Record {
	return t.rows[i]
}

// Value returns the cell value for a row index and column name, or nil when
// the record does not carry the key.
func (t *Table) Value(i int, col string) any {
	return t.rows[i][col]
}

// subset returns a new Table sharing the receiver's rows at the given indices.
func (t *Table) subset(idx []int) *Table {
	rows := make([]Record, 0, len(idx))
	for _, i := range idx {
		rows = append(rows, t.rows[i])
	}
	cols := make([]string, len(t.columns))
	copy(cols, t.columns)
	return &Table{columns: cols, rows: rows}
}

// Search returns the rows whose concatenated cell values contain query,
// case-insensitively. An empty query returns a full copy.
func (t *Table) Search(query string) *Table {
	query = strings.ToLower(strings.TrimSpace(query))
	if query == "" {
		return t.subsetAll()
	}
	var keep []int
	for i, row := range t.rows {
		var sb strings.Builder
		for _, col := range t.columns {
			if v, ok := row[col]; ok && v != nil {
				sb.WriteString(CellString(v))
				sb.WriteByte(' ')
			}
		}
		if strings.Contains(strings.ToLower(sb.String()), query) {
			keep = append(keep, i)
		}
	}
	return t.subset(keep)
}

// WhereEqual returns the rows whose cell in col, rendered as a string, equals
// value exactly. Used by the column selectbox filters.
func (t *Table) WhereEqual(col, value string) *Table {
	var keep []int
	for i, row := range t.rows {
		if v, ok := row[col]; ok && v != nil && CellString(v) == value {
			keep = append(keep, i)
		}
	}
	return t.subset(keep)
}

// DistinctValues returns the sorted distinct non-empty string renderings of a
// column. The UI only offers a selectbox when the count is small.
func (t *Table) DistinctValues(col string) []string {
	set := make(map[string]bool)
	for _, row := range t.rows {
		if v, ok := row[col]; ok && v != nil {
			s := CellString(v)
			if s != "" {
				set[s] = true
			}
		}
	}
	values := make([]string, 0, len(set))
	for v := range set {
		values = append(values, v)
	}
	sort.Strings(values)
	return values
}

func (t *Table) subsetAll() *Table {
	idx := make([]int, len(t.rows))
	for i := range idx {
		idx[i] = i
	}
	return t.subset(idx)
}

// CellString renders a cell value for display and comparison. JSON numbers
// arrive as float64; integral values are rendered without a decimal point.
func CellString(v any) string {
	switch x := v.(type) {
	case nil:
		return ""
	case string:
		return x
	case float64:
		if x == float64(int64(x)) {
			return strconv.FormatInt(int64(x), 10)
		}
		return strconv.FormatFloat(x, 'g', -1, 64)
	case bool:
		return strconv.FormatBool(x)
	default:
		return fmt.Sprintf("%v", x)
	}
}

// CountMessage formats the record-count status line shown above the table.
func CountMessage(shown, total int) string {
	return fmt.Sprintf("Showing %d of %d records", shown, total)
}
