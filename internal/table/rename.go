package table

import "strings"

// RenameColumn returns a Table with col renamed to newName in both the column
// list and every row. Rows are copied, never mutated in place, so any other
// view sharing the original rows is unaffected. Renaming a missing column or
// passing an empty new name returns the receiver unchanged.
func (t *Table) RenameColumn(col, newName string) *Table {
	newName = strings.TrimSpace(newName)
	if newName == "" || newName == col {
		return t
	}
	pos := -1
	for i, c := range t.columns {
		if c == col {
			pos = i
			break
		}
	}
	if pos == -1 {
		return t
	}

	cols := make([]string, len(t.columns))
	copy(cols, t.columns)
	cols[pos] = newName

	rows := make([]Record, len(t.rows))
	for i, row := range t.rows {
		next := make(Record, len(row))
		for k, v := range row {
			if k == col {
				next[newName] = v
			} else {
				next[k] = v
			}
		}
		rows[i] = next
	}
	return &Table{columns: cols, rows: rows}
}

// HeuristicRenameColumns replaces generic auto-generated headers ("Field 2")
// with the first non-empty string value found in that column. NocoDB emits
// these placeholder headers for imports whose real header row landed in the
// data, which is exactly the case the first data row recovers.
func (t *Table) HeuristicRenameColumns() *Table {
	result := t
	for _, col := range t.columns {
		if !genericFieldPattern.MatchString(col) {
			continue
		}
		for _, row := range t.rows {
			v, ok := row[col]
			if !ok || v == nil {
				continue
			}
			if s, isStr := v.(string); isStr && strings.TrimSpace(s) != "" {
				result = result.RenameColumn(col, strings.TrimSpace(s))
			}
			break
		}
	}
	return result
}
