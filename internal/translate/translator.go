// Package translate converts a plain-English query into an executable filter
// directive by prompting an LLM with the table's column vocabulary and a
// closed expression grammar, then parsing the structured response. All
// external-service failures are converted into a nil directive plus an error
// for the caller to surface; nothing escapes this boundary as a panic.
package translate

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"nocoview/internal/logging"
)

// Directive is the structured output of one translation: a filter expression
// written against the closed grammar in internal/filter, plus the model's
// explanation of how it was constructed. A directive is created per query and
// discarded when the next query is submitted; directives are never combined.
type Directive struct {
	ID         string // correlation id for logs
	Query      string // the original natural language query
	FilterCode string // expression, with {{THRESHOLD}} unresolved in fuzzy mode
	Reasoning  string // model-provided explanation
	Fuzzy      bool   // whether the expression uses fuzzy matching
}

// Translator turns natural language queries into Directives.
type Translator struct {
	client LLMClient
	fuzzy  bool
}

// New creates a Translator. With fuzzy enabled the model is instructed to emit
// partial-ratio conditions carrying the threshold placeholder; otherwise it
// emits direct comparison expressions.
func New(client LLMClient, fuzzy bool) *Translator {
	return &Translator{client: client, fuzzy: fuzzy}
}

// rawDirective mirrors the JSON object the model is asked to return.
type rawDirective struct {
	FilterCode string `json:"filter_code"`
	Reasoning  string `json:"reasoning"`
}

// Translate converts queryText into a Directive using the given column names.
// An empty or whitespace-only query is a no-op and returns (nil, nil). Any
// model failure, unparseable response, or missing field returns (nil, err).
func (t *Translator) Translate(ctx context.Context, queryText string, columns []string) (*Directive, error) {
	if strings.TrimSpace(queryText) == "" {
		return nil, nil
	}

	id := uuid.NewString()
	prompt := t.buildPrompt(queryText, columns)
	logging.Translate("[%s] translating query (%d chars, %d columns, fuzzy=%t)", id, len(queryText), len(columns), t.fuzzy)

	response, err := t.client.CompleteWithSystem(ctx, defaultSystemPrompt, prompt)
	if err != nil {
		logging.TranslateError("[%s] completion failed: %v", id, err)
		return nil, fmt.Errorf("error processing query: %w", err)
	}

	jsonStr := extractLastJSON(response)
	if jsonStr == "" {
		logging.TranslateWarn("[%s] no JSON object in response (%d chars)", id, len(response))
		return nil, fmt.Errorf("no filter was generated for this query")
	}

	var raw rawDirective
	if err := json.Unmarshal([]byte(jsonStr), &raw); err != nil {
		logging.TranslateWarn("[%s] response parse failed: %v", id, err)
		return nil, fmt.Errorf("error processing query: %w", err)
	}
	if strings.TrimSpace(raw.FilterCode) == "" || strings.TrimSpace(raw.Reasoning) == "" {
		logging.TranslateWarn("[%s] response missing filter_code or reasoning", id)
		return nil, fmt.Errorf("no filter was generated for this query")
	}

	logging.TranslateDebug("[%s] filter_code=%s", id, raw.FilterCode)
	return &Directive{
		ID:         id,
		Query:      queryText,
		FilterCode: strings.TrimSpace(raw.FilterCode),
		Reasoning:  strings.TrimSpace(raw.Reasoning),
		Fuzzy:      t.fuzzy,
	}, nil
}

func (t *Translator) buildPrompt(queryText string, columns []string) string {
	if t.fuzzy {
		return buildFuzzyPrompt(queryText, columns)
	}
	return buildPlainPrompt(queryText, columns)
}

// grammarDescription is shared by both prompt variants. The expression
// operates on a single row; only these functions exist, so the model cannot
// emit anything the evaluator would refuse.
const grammarDescription = `The filter expression operates on one row at a time and must evaluate to a boolean.
Only the following functions are available:
  text("column")            -> the cell value as a lowercase string
  number("column")          -> the cell value as a number
  contains("column", "s")   -> true if the cell contains "s" (case-insensitive)
  fuzzy("column", "s")      -> similarity score 0-100 of "s" against the cell (case-insensitive)
Conditions are combined with && (AND), || (OR), ! (NOT) and parentheses.
Comparison operators: ==, !=, >, >=, <, <=.
Column names must be quoted strings taken verbatim from the column list.`

func buildFuzzyPrompt(queryText string, columns []string) string {
	return fmt.Sprintf(`Given the natural language query below and the list of dataset columns,
determine which columns should be filtered and what values to search for in each.
Then produce a JSON object with two keys:

"filter_code": A filter expression that matches rows using fuzzy matching. For each relevant
column, require a fuzzy similarity score of at least {{THRESHOLD}} (keep the literal
placeholder {{THRESHOLD}}; do not replace it with a number). Combine the per-column
conditions with the && operator.

"reasoning": A detailed explanation including which columns were selected and what values
were extracted for each, how fuzzy matching is applied (with the threshold placeholder
{{THRESHOLD}} and case-insensitive), and why an AND condition is used (all conditions
must be met).

%s

Natural language query: %q
Dataset columns: %s

For example, if the query is "find record types for start position of 24", a correct output would be:
{
  "filter_code": "fuzzy(\"record type\", \"record type\") >= {{THRESHOLD}} && fuzzy(\"Position Start\", \"24\") >= {{THRESHOLD}}",
  "reasoning": "The query indicates that both the 'record type' and 'Position Start' columns are important. It searches for a fuzzy match to 'record type' in the 'record type' column and for '24' in the 'Position Start' column. Both conditions must be met, so they are combined with an AND operator."
}

Return only the JSON object.`, grammarDescription, queryText, formatColumns(columns))
}

func buildPlainPrompt(queryText string, columns []string) string {
	return fmt.Sprintf(`Convert the following natural language query into a structured row filter
and produce a JSON object with two keys:

"filter_code": A boolean filter expression selecting the matching rows.

"reasoning": A short explanation of which columns were selected and why.

%s

Natural language query: %q
Dataset columns: %s

Example conversions:
- "Show all orders above $500"            -> number("order_amount") > 500
- "Find customers from California"        -> text("state") == "california"
- "List employees who joined after 2022"  -> text("join_date") > "2022-01-01"

Return only the JSON object.`, grammarDescription, queryText, formatColumns(columns))
}

func formatColumns(columns []string) string {
	quoted := make([]string, len(columns))
	for i, c := range columns {
		quoted[i] = fmt.Sprintf("%q", c)
	}
	return "[" + strings.Join(quoted, ", ") + "]"
}
