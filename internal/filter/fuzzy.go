package filter

import (
	"strings"

	fuzzywuzzy "github.com/paul-mannino/go-fuzzywuzzy"

	"nocoview/internal/table"
)

// PartialRatio scores how well target matches anywhere inside the cell value,
// case-insensitively, on a 0-100 scale. Nil and empty cells score 0.
func PartialRatio(cell any, target string) int {
	s := strings.ToLower(strings.TrimSpace(table.CellString(cell)))
	target = strings.ToLower(strings.TrimSpace(target))
	if s == "" || target == "" {
		return 0
	}
	return fuzzywuzzy.PartialRatio(target, s)
}
