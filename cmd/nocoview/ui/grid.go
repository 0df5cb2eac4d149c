package ui

import (
	"strings"

	"github.com/charmbracelet/lipgloss"

	"nocoview/internal/table"
)

// Grid renders a Table as an aligned text grid with a header row. Cells are
// truncated to keep every column within maxColWidth so wide datasets stay
// readable in a terminal.
type Grid struct {
	Headers     []string
	Rows        [][]string
	MaxColWidth int
	MaxRows     int
	Selected    int // highlighted row index, -1 for none
}

const (
	defaultMaxColWidth = 32
	defaultMaxRows     = 500
)

// NewGrid builds a Grid from a Table, rendering every cell with the shared
// display formatting.
func NewGrid(t *table.Table) Grid {
	cols := t.Columns()
	rows := make([][]string, 0, t.Len())
	for i := 0; i < t.Len(); i++ {
		cells := make([]string, len(cols))
		for j, col := range cols {
			cells[j] = table.CellString(t.Value(i, col))
		}
		rows = append(rows, cells)
	}
	return Grid{
		Headers:     cols,
		Rows:        rows,
		MaxColWidth: defaultMaxColWidth,
		MaxRows:     defaultMaxRows,
		Selected:    -1,
	}
}

// View renders the grid with the given styles.
func (g Grid) View(styles Styles) string {
	if len(g.Headers) == 0 {
		return styles.Muted.Render("(no data)")
	}

	maxCol := g.MaxColWidth
	if maxCol <= 0 {
		maxCol = defaultMaxColWidth
	}
	maxRows := g.MaxRows
	if maxRows <= 0 {
		maxRows = defaultMaxRows
	}

	rows := g.Rows
	clipped := 0
	if len(rows) > maxRows {
		clipped = len(rows) - maxRows
		rows = rows[:maxRows]
	}

	// Column widths from header and cell content, capped.
	widths := make([]int, len(g.Headers))
	for i, h := range g.Headers {
		widths[i] = min(lipgloss.Width(h), maxCol)
	}
	for _, row := range rows {
		for i, cell := range row {
			if i >= len(widths) {
				break
			}
			if w := lipgloss.Width(cell); w > widths[i] {
				widths[i] = min(w, maxCol)
			}
		}
	}

	var b strings.Builder

	headerCells := make([]string, len(g.Headers))
	for i, h := range g.Headers {
		headerCells[i] = pad(truncate(h, widths[i]), widths[i])
	}
	b.WriteString(styles.Bold.Render(strings.Join(headerCells, "  ")))
	b.WriteString("\n")

	sepCells := make([]string, len(g.Headers))
	for i := range g.Headers {
		sepCells[i] = strings.Repeat("─", widths[i])
	}
	b.WriteString(styles.Divider.Render(strings.Join(sepCells, "  ")))
	b.WriteString("\n")

	for r, row := range rows {
		cells := make([]string, len(widths))
		for i := range widths {
			cell := ""
			if i < len(row) {
				cell = row[i]
			}
			cells[i] = pad(truncate(cell, widths[i]), widths[i])
		}
		line := strings.Join(cells, "  ")
		if r == g.Selected {
			b.WriteString(styles.SelectedRow.Render(line))
		} else {
			b.WriteString(styles.Body.Render(line))
		}
		b.WriteString("\n")
	}

	if clipped > 0 {
		b.WriteString(styles.Muted.Render(table.CountMessage(maxRows, len(g.Rows))))
		b.WriteString("\n")
	}

	return b.String()
}

func truncate(s string, width int) string {
	if lipgloss.Width(s) <= width {
		return s
	}
	if width <= 1 {
		return "…"
	}
	runes := []rune(s)
	// Trim runes until the rendered width fits, leaving room for the ellipsis.
	for len(runes) > 0 && lipgloss.Width(string(runes)) > width-1 {
		runes = runes[:len(runes)-1]
	}
	return string(runes) + "…"
}

func pad(s string, width int) string {
	if gap := width - lipgloss.Width(s); gap > 0 {
		return s + strings.Repeat(" ", gap)
	}
	return s
}

func min(a, b int) int {
	if a < b {
		return a
	}
	return b
}
