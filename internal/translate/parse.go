package translate

import (
	"encoding/json"
	"strings"
)

// extractLastJSON finds the last valid JSON object in a string.
// It handles cases where the LLM wraps JSON in markdown code fences or
// prefixes it with prose.
func extractLastJSON(s string) string {
	cleaned := stripMarkdownCodeFences(s)

	end := strings.LastIndex(cleaned, "}")
	if end == -1 {
		return ""
	}

	// Scan backwards to find the matching opening brace.
	balance := 0
	for i := end; i >= 0; i-- {
		switch cleaned[i] {
		case '}':
			balance++
		case '{':
			balance--
		}

		if balance == 0 && cleaned[i] == '{' {
			candidate := cleaned[i : end+1]
			if json.Valid([]byte(candidate)) {
				return candidate
			}
			// The outermost object ending at 'end' is malformed, so no
			// valid JSON ends there.
			return ""
		}
	}
	return ""
}

// stripMarkdownCodeFences removes markdown code fence wrapping from a string.
// Handles ```json, ```, and variations with language specifiers.
func stripMarkdownCodeFences(s string) string {
	trimmed := strings.TrimSpace(s)
	if !strings.HasPrefix(trimmed, "```") {
		return trimmed
	}

	firstNewline := strings.Index(trimmed, "\n")
	if firstNewline == -1 {
		return trimmed
	}
	body := trimmed[firstNewline+1:]

	lastFence := strings.LastIndex(body, "```")
	if lastFence == -1 {
		return strings.TrimSpace(body)
	}
	return strings.TrimSpace(body[:lastFence])
}
