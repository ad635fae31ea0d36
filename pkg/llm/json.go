package llm

import "strings"

// ExtractJSON pulls the JSON object out of a completion that may wrap it in
// markdown fences or surrounding prose. Tried in order: fenced code block,
// outermost brace span, the raw text. Returns "" only for empty input.
func ExtractJSON(response string) string {
	s := strings.TrimSpace(response)

	if strings.HasPrefix(s, "```") {
		s = strings.TrimPrefix(s, "```json")
		s = strings.TrimPrefix(s, "```")
		if idx := strings.LastIndex(s, "```"); idx >= 0 {
			s = s[:idx]
		}
		s = strings.TrimSpace(s)
	}

	if idx := strings.Index(s, "{"); idx >= 0 {
		if end := strings.LastIndex(s, "}"); end > idx {
			return s[idx : end+1]
		}
	}

	return s
}
