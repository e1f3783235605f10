package llm

import (
	"fmt"
	"strings"
)

// ExtractJSONObject pulls the first balanced {...} region out of a model
// response, tolerating markdown code fences and surrounding prose.
func ExtractJSONObject(response string) (string, error) {
	return extractBalanced(stripFences(response), '{', '}')
}

// ExtractJSONArray pulls the first balanced [...] region out of a model
// response.
func ExtractJSONArray(response string) (string, error) {
	return extractBalanced(stripFences(response), '[', ']')
}

// stripFences removes ```json / ``` markers so fenced responses parse the
// same as bare ones.
func stripFences(s string) string {
	s = strings.ReplaceAll(s, "```json", "")
	s = strings.ReplaceAll(s, "```", "")
	return strings.TrimSpace(s)
}

func extractBalanced(s string, open, close byte) (string, error) {
	start := strings.IndexByte(s, open)
	if start < 0 {
		return "", fmt.Errorf("no %q found in response", string(open))
	}

	depth := 0
	inString := false
	escaped := false
	for i := start; i < len(s); i++ {
		c := s[i]

		if inString {
			switch {
			case escaped:
				escaped = false
			case c == '\\':
				escaped = true
			case c == '"':
				inString = false
			}
			continue
		}

		switch c {
		case '"':
			inString = true
		case open:
			depth++
		case close:
			depth--
			if depth == 0 {
				return s[start : i+1], nil
			}
		}
	}

	return "", fmt.Errorf("unbalanced %q in response", string(open))
}
