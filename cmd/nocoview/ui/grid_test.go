package ui

import (
	"strings"
	"testing"

	"nocoview/internal/table"
)

func TestNewGridRendersCells(t *testing.T) {
	tbl := table.FromRecords([]table.Record{
		{"Name": "Alice", "Amount": float64(600)},
		{"Name": "Bob", "Amount": 2.5},
	})
	grid := NewGrid(tbl)

	if len(grid.Headers) != 2 {
		t.Fatalf("headers = %v", grid.Headers)
	}
	if len(grid.Rows) != 2 {
		t.Fatalf("rows = %d, want 2", len(grid.Rows))
	}

	out := grid.View(NewStyles(LightTheme()))
	for _, want := range []string{"Name", "Amount", "Alice", "600", "2.5"} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}
}

func TestGridEmptyTable(t *testing.T) {
	out := NewGrid(table.New()).View(NewStyles(LightTheme()))
	if !strings.Contains(out, "no data") {
		t.Errorf("empty table output = %q", out)
	}
}

func TestGridTruncatesWideCells(t *testing.T) {
	long := strings.Repeat("x", 100)
	tbl := table.FromRecords([]table.Record{{"col": long}})
	grid := NewGrid(tbl)
	grid.MaxColWidth = 10

	out := grid.View(NewStyles(LightTheme()))
	if strings.Contains(out, long) {
		t.Error("wide cell was not truncated")
	}
	if !strings.Contains(out, "…") {
		t.Error("truncation marker missing")
	}
}

func TestGridClipsRowCount(t *testing.T) {
	records := make([]table.Record, 10)
	for i := range records {
		records[i] = table.Record{"n": float64(i)}
	}
	grid := NewGrid(table.FromRecords(records))
	grid.MaxRows = 3

	out := grid.View(NewStyles(LightTheme()))
	if !strings.Contains(out, "Showing 3 of 10 records") {
		t.Errorf("clip notice missing:\n%s", out)
	}
}

func TestThemeByName(t *testing.T) {
	if !ThemeByName("dark").IsDark {
		t.Error("dark theme not dark")
	}
	if ThemeByName("light").IsDark {
		t.Error("light theme reported dark")
	}
}
