package llm

import (
	"encoding/json"
	"fmt"
	"regexp"
	"strings"
)

// thinkTagPattern matches <think>...</think> tags that may appear at the
// start of responses from reasoning-tuned models.
var thinkTagPattern = regexp.MustCompile(`(?s)^[\s]*<think>.*?</think>[\s]*`)

// fencePattern matches a markdown code fence opener with an optional
// language tag, e.g. ```python or ```json.
var fencePattern = regexp.MustCompile("^```[a-zA-Z0-9]*\\s*")

// StripNoise removes known wrapping noise from a model response:
// think tags, markdown code fences, and surrounding whitespace.
// The content itself is returned untouched.
func StripNoise(response string) string {
	cleaned := thinkTagPattern.ReplaceAllString(response, "")
	cleaned = strings.TrimSpace(cleaned)

	if strings.HasPrefix(cleaned, "```") {
		cleaned = fencePattern.ReplaceAllString(cleaned, "")
		if idx := strings.LastIndex(cleaned, "```"); idx >= 0 {
			cleaned = cleaned[:idx]
		}
		cleaned = strings.TrimSpace(cleaned)
	}

	return cleaned
}

// ExtractBracketed finds the first balanced structure in s delimited by
// openChar/closeChar, skipping delimiters inside quoted strings (single
// or double quotes, with backslash escapes).
func ExtractBracketed(s string, openChar, closeChar byte) (string, bool) {
	start := strings.IndexByte(s, openChar)
	if start == -1 {
		return "", false
	}

	depth := 0
	var quote byte
	escaped := false

	for i := start; i < len(s); i++ {
		c := s[i]

		if escaped {
			escaped = false
			continue
		}

		if c == '\\' && quote != 0 {
			escaped = true
			continue
		}

		if quote != 0 {
			if c == quote {
				quote = 0
			}
			continue
		}

		if c == '"' || c == '\'' {
			quote = c
			continue
		}

		if c == openChar {
			depth++
		} else if c == closeChar {
			depth--
			if depth == 0 {
				return s[start : i+1], true
			}
		}
	}

	return "", false
}

// ExtractJSON extracts JSON content from a response that may contain
// think tags, markdown code fences, or surrounding prose.
func ExtractJSON(response string) (string, error) {
	cleaned := StripNoise(response)

	objStart := strings.IndexByte(cleaned, '{')
	arrStart := strings.IndexByte(cleaned, '[')

	if objStart >= 0 && (arrStart < 0 || objStart < arrStart) {
		if jsonStr, ok := ExtractBracketed(cleaned, '{', '}'); ok {
			if json.Valid([]byte(jsonStr)) {
				return jsonStr, nil
			}
		}
	}

	if arrStart >= 0 {
		if jsonStr, ok := ExtractBracketed(cleaned, '[', ']'); ok {
			if json.Valid([]byte(jsonStr)) {
				return jsonStr, nil
			}
		}
	}

	trimmed := strings.TrimSpace(cleaned)
	if json.Valid([]byte(trimmed)) {
		return trimmed, nil
	}

	return "", fmt.Errorf("no valid JSON found in response")
}

// ParseJSONResponse extracts JSON from a response and unmarshals it into
// the target type.
func ParseJSONResponse[T any](response string) (T, error) {
	var result T

	jsonStr, err := ExtractJSON(response)
	if err != nil {
		return result, err
	}

	if err := json.Unmarshal([]byte(jsonStr), &result); err != nil {
		return result, fmt.Errorf("unmarshal JSON: %w", err)
	}

	return result, nil
}
