package filter

import "strings"

// BalanceBrackets appends missing closing delimiters when an expression has
// more opening than closing parentheses or square brackets. Model-generated
// filter expressions are occasionally truncated mid-way; topping up the
// closers is enough to recover most of them. Applying it twice yields the
// same result as applying it once.
func BalanceBrackets(s string) string {
	openParens := strings.Count(s, "(")
	closeParens := strings.Count(s, ")")
	openSquare := strings.Count(s, "[")
	closeSquare := strings.Count(s, "]")

	if openSquare > closeSquare {
		s += strings.Repeat("]", openSquare-closeSquare)
	}
	if openParens > closeParens {
		s += strings.Repeat(")", openParens-closeParens)
	}
	return s
}
