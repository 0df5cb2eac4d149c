package viewer

import (
	"testing"

	"nocoview/internal/table"
	"nocoview/internal/translate"
)

func directiveTable() *table.Table {
	return table.FromRecords([]table.Record{
		{"state": "CA", "amt": float64(600)},
		{"state": "NY", "amt": float64(100)},
	})
}

func TestApplyDirectiveFiltersRows(t *testing.T) {
	d := &translate.Directive{
		ID:         "t1",
		FilterCode: `number("amt") > 500`,
	}
	got, err := applyDirective(directiveTable(), d, 70)
	if err != nil {
		t.Fatalf("applyDirective: %v", err)
	}
	if got.Len() != 1 {
		t.Fatalf("kept %d rows, want 1", got.Len())
	}
	if got.Value(0, "state") != "CA" {
		t.Errorf("wrong row: %v", got.Row(0))
	}
}

func TestApplyDirectiveSubstitutesThreshold(t *testing.T) {
	d := &translate.Directive{
		ID:         "t2",
		FilterCode: `fuzzy("state", "ca") >= {{THRESHOLD}}`,
		Fuzzy:      true,
	}
	got, err := applyDirective(directiveTable(), d, 90)
	if err != nil {
		t.Fatalf("applyDirective: %v", err)
	}
	if got.Len() != 1 {
		t.Errorf("kept %d rows, want 1", got.Len())
	}
}

func TestApplyDirectiveFailureKeepsTable(t *testing.T) {
	d := &translate.Directive{
		ID:         "t3",
		FilterCode: `number("amt" >`,
	}
	tbl := directiveTable()
	got, err := applyDirective(tbl, d, 70)
	if err == nil {
		t.Fatal("expected an error")
	}
	if got.Len() != tbl.Len() {
		t.Errorf("fallback lost rows: %d of %d", got.Len(), tbl.Len())
	}
}

func TestRecomputeOrdering(t *testing.T) {
	m := Model{
		full: table.FromRecords([]table.Record{
			{"state": "CA", "name": "alpha"},
			{"state": "CA", "name": "beta"},
			{"state": "NY", "name": "alpha two"},
		}),
		columnFilters: map[string]string{"state": "CA"},
		searchQuery:   "alpha",
		threshold:     70,
	}
	m.recompute()
	if m.view.Len() != 1 {
		t.Fatalf("view has %d rows, want 1", m.view.Len())
	}
	if m.view.Value(0, "name") != "alpha" {
		t.Errorf("wrong row: %v", m.view.Row(0))
	}
}
