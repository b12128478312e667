package llm

import (
	"encoding/json"
	"regexp"
	"strings"
)

// Pre-compiled patterns for JSON extraction from model replies.
var (
	// jsonBlockPattern matches content inside markdown code fences: ```json { ... } ```
	jsonBlockPattern = regexp.MustCompile("```(?:json)?\\s*\\n?([\\s\\S]*?)\\n?```")
	// trailingCommaPattern matches trailing commas before ] or }.
	trailingCommaPattern = regexp.MustCompile(`,\s*([}\]])`)
)

// ExtractJSON extracts the first JSON object from a model reply that may wrap
// it in markdown fences or surrounding prose. The object boundary is found
// with json.Decoder rather than a brace regex, so braces inside string values
// don't break the scan. Returns "" when no parseable object is present.
func ExtractJSON(content string) string {
	if matches := jsonBlockPattern.FindStringSubmatch(content); len(matches) > 1 {
		content = matches[1]
	}

	start := strings.Index(content, "{")
	if start == -1 {
		return ""
	}
	content = content[start:]

	if raw, ok := decodeObject(content); ok {
		return raw
	}

	// Trailing commas are the most common invalid-JSON artifact in model
	// output; strip them and try once more.
	cleaned := trailingCommaPattern.ReplaceAllString(content, "$1")
	if raw, ok := decodeObject(cleaned); ok {
		return raw
	}

	return ""
}

// decodeObject reads one JSON value off the front of s, ignoring anything
// after it.
func decodeObject(s string) (string, bool) {
	decoder := json.NewDecoder(strings.NewReader(s))
	var raw json.RawMessage
	if err := decoder.Decode(&raw); err != nil {
		return "", false
	}
	return strings.TrimSpace(string(raw)), true
}
