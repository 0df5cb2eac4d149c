// Package filter evaluates model-generated filter expressions against a Table
// in a restricted environment. The expression language is a closed grammar:
// boolean combinations of comparisons over four whitelisted pure functions
// (text, number, contains, fuzzy). Nothing in the environment can reach the
// filesystem, network, or process, and a single expression always terminates.
package filter

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/expr-lang/expr"
	"github.com/expr-lang/expr/vm"

	"nocoview/internal/logging"
	"nocoview/internal/table"
)

// ThresholdPlaceholder is the token the translator asks the model to leave in
// fuzzy expressions; Apply substitutes the caller-chosen value before
// compiling.
const ThresholdPlaceholder = "{{THRESHOLD}}"

// SubstituteThreshold replaces every threshold placeholder with n.
func SubstituteThreshold(code string, n int) string {
	return strings.ReplaceAll(code, ThresholdPlaceholder, strconv.Itoa(n))
}

// Apply evaluates a filter expression against every row of t and returns the
// matching subset in row order. The input table is never mutated.
//
// If the expression fails to compile (truncated model output is the usual
// culprit), one repair pass balances the expression's brackets and compiles
// again. If that also fails, or if evaluation errors on every row, the
// original table is returned together with the error so the caller can show
// the full dataset and a message instead of crashing.
func Apply(t *table.Table, code string, threshold int) (*table.Table, error) {
	code = strings.TrimSpace(SubstituteThreshold(code, threshold))
	if code == "" {
		return t, fmt.Errorf("empty filter expression")
	}

	program, err := compile(code)
	if err != nil {
		repaired := BalanceBrackets(code)
		if repaired == code {
			logging.FilterError("compile failed with nothing to repair: %v", err)
			return t, fmt.Errorf("could not apply filter: %w", err)
		}
		logging.Filter("compile failed, retrying with balanced brackets")
		program, err = compile(repaired)
		if err != nil {
			logging.FilterError("compile failed after balancing: %v", err)
			return t, fmt.Errorf("could not apply filter after balancing: %w", err)
		}
	}

	var keep []table.Record
	evalErrs := 0
	var lastErr error
	for _, row := range t.Rows() {
		match, err := evalRow(program, row)
		if err != nil {
			evalErrs++
			lastErr = err
			continue
		}
		if match {
			keep = append(keep, row)
		}
	}

	if evalErrs == t.Len() && t.Len() > 0 {
		logging.FilterError("expression failed on all %d rows: %v", t.Len(), lastErr)
		return t, fmt.Errorf("could not apply filter: %w", lastErr)
	}

	logging.FilterDebug("expression kept %d of %d rows", len(keep), t.Len())
	return t.WithRows(keep), nil
}

// compile builds the program against an empty map environment; the real
// bindings are supplied per row at run time.
func compile(code string) (*vm.Program, error) {
	return expr.Compile(code,
		expr.Env(map[string]any{}),
		expr.AllowUndefinedVariables(),
		expr.AsBool(),
	)
}

// evalRow runs the program with the whitelisted functions bound to one row.
func evalRow(program *vm.Program, row table.Record) (bool, error) {
	env := map[string]any{
		// text returns the lowercase string rendering of a cell.
		"text": func(col string) string {
			return strings.ToLower(table.CellString(row[col]))
		},
		// number returns the cell as a float64; non-numeric cells become NaN
		// so every comparison against them is false.
		"number": func(col string) float64 {
			return cellNumber(row[col])
		},
		// contains reports a case-insensitive substring match.
		"contains": func(col, s string) bool {
			return strings.Contains(
				strings.ToLower(table.CellString(row[col])),
				strings.ToLower(s),
			)
		},
		// fuzzy scores a case-insensitive partial-ratio match, 0-100.
		"fuzzy": func(col, target string) int {
			return PartialRatio(row[col], target)
		},
	}
	out, err := expr.Run(program, env)
	if err != nil {
		return false, err
	}
	match, ok := out.(bool)
	if !ok {
		return false, fmt.Errorf("filter expression returned %T, want bool", out)
	}
	return match, nil
}

func cellNumber(v any) float64 {
	switch x := v.(type) {
	case float64:
		return x
	case int:
		return float64(x)
	case string:
		if f, err := strconv.ParseFloat(strings.TrimSpace(x), 64); err == nil {
			return f
		}
	}
	return math.NaN()
}
