package translate

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// stubLLM returns a canned response and records the prompts it saw.
type stubLLM struct {
	response string
	err      error

	lastSystem string
	lastUser   string
}

func (s *stubLLM) Complete(ctx context.Context, prompt string) (string, error) {
	return s.CompleteWithSystem(ctx, "", prompt)
}

func (s *stubLLM) CompleteWithSystem(ctx context.Context, systemPrompt, userPrompt string) (string, error) {
	s.lastSystem = systemPrompt
	s.lastUser = userPrompt
	return s.response, s.err
}

func TestTranslateEmptyQueryIsNoop(t *testing.T) {
	stub := &stubLLM{response: `{"filter_code": "x", "reasoning": "y"}`}
	tr := New(stub, true)

	d, err := tr.Translate(context.Background(), "   ", []string{"a"})
	require.NoError(t, err)
	assert.Nil(t, d)
	// The model must not be called at all.
	assert.Empty(t, stub.lastUser)
}

func TestTranslateParsesDirective(t *testing.T) {
	stub := &stubLLM{response: `{
		"filter_code": "fuzzy(\"record type\", \"mrna\") >= {{THRESHOLD}}",
		"reasoning": "Matched the record type column."
	}`}
	tr := New(stub, true)

	d, err := tr.Translate(context.Background(), "find mrna records", []string{"record type", "Position Start"})
	require.NoError(t, err)
	require.NotNil(t, d)

	assert.Equal(t, "find mrna records", d.Query)
	assert.Contains(t, d.FilterCode, "{{THRESHOLD}}")
	assert.Equal(t, "Matched the record type column.", d.Reasoning)
	assert.True(t, d.Fuzzy)
	assert.NotEmpty(t, d.ID)

	// The prompt carries the column vocabulary and the placeholder contract.
	assert.Contains(t, stub.lastUser, `"record type"`)
	assert.Contains(t, stub.lastUser, `"Position Start"`)
	assert.Contains(t, stub.lastUser, "{{THRESHOLD}}")
}

func TestTranslateHandlesCodeFences(t *testing.T) {
	stub := &stubLLM{response: "Here you go:\n```json\n{\"filter_code\": \"text(\\\"state\\\") == \\\"ca\\\"\", \"reasoning\": \"State filter.\"}\n```"}
	tr := New(stub, false)

	d, err := tr.Translate(context.Background(), "california rows", []string{"state"})
	require.NoError(t, err)
	require.NotNil(t, d)
	assert.Equal(t, `text("state") == "ca"`, d.FilterCode)
	assert.False(t, d.Fuzzy)
}

func TestTranslateMissingFields(t *testing.T) {
	cases := []string{
		`{"filter_code": "", "reasoning": "r"}`,
		`{"filter_code": "x", "reasoning": ""}`,
		`{"reasoning": "r"}`,
		`{}`,
		`not json at all`,
		``,
	}
	for _, response := range cases {
		stub := &stubLLM{response: response}
		tr := New(stub, true)
		d, err := tr.Translate(context.Background(), "query", []string{"a"})
		if err == nil {
			t.Errorf("response %q: expected an error", response)
		}
		if d != nil {
			t.Errorf("response %q: expected nil directive, got %+v", response, d)
		}
	}
}

func TestTranslateClientError(t *testing.T) {
	stub := &stubLLM{err: errors.New("model unavailable")}
	tr := New(stub, true)

	d, err := tr.Translate(context.Background(), "query", []string{"a"})
	require.Error(t, err)
	assert.Nil(t, d)
	assert.Contains(t, err.Error(), "error processing query")
}

func TestPlainPromptOmitsThreshold(t *testing.T) {
	stub := &stubLLM{response: `{"filter_code": "number(\"amt\") > 500", "reasoning": "Amount filter."}`}
	tr := New(stub, false)

	_, err := tr.Translate(context.Background(), "orders above 500", []string{"amt"})
	require.NoError(t, err)
	assert.NotContains(t, stub.lastUser, "{{THRESHOLD}}")
}

func TestDirectiveIDsAreUnique(t *testing.T) {
	stub := &stubLLM{response: `{"filter_code": "x", "reasoning": "y"}`}
	tr := New(stub, true)

	seen := map[string]bool{}
	for i := 0; i < 5; i++ {
		d, err := tr.Translate(context.Background(), fmt.Sprintf("query %d", i), nil)
		require.NoError(t, err)
		if seen[d.ID] {
			t.Fatalf("duplicate directive id %s", d.ID)
		}
		seen[d.ID] = true
	}
}

func TestExtractLastJSON(t *testing.T) {
	cases := []struct {
		name string
		in   string
		want string
	}{
		{"bare object", `{"a": 1}`, `{"a": 1}`},
		{"prose prefix", `sure, here: {"a": 1}`, `{"a": 1}`},
		{"fenced", "```json\n{\"a\": 1}\n```", `{"a": 1}`},
		{"nested", `{"a": {"b": 2}}`, `{"a": {"b": 2}}`},
		{"no object", "nothing here", ""},
		{"unbalanced", `{"a": 1`, ""},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := extractLastJSON(tc.in); got != tc.want {
				t.Errorf("extractLastJSON(%q) = %q, want %q", tc.in, got, tc.want)
			}
		})
	}
}

func TestStripMarkdownCodeFences(t *testing.T) {
	in := "```json\n{\"x\": 1}\n```"
	if got := stripMarkdownCodeFences(in); got != `{"x": 1}` {
		t.Errorf("got %q", got)
	}
	if got := stripMarkdownCodeFences("plain"); got != "plain" {
		t.Errorf("got %q", got)
	}
	if !strings.HasPrefix(stripMarkdownCodeFences("```\nabc\n```"), "abc") {
		t.Error("bare fence not stripped")
	}
}
