package profile

import (
	"errors"
	"strings"
)

var errNoJSON = errors.New("no JSON found in model response")

// ExtractJSONObject returns the first-"{" to last-"}" span of text, or ""
// when no object can be located. Model responses routinely wrap JSON in
// prose or markdown fences, so brace matching beats strict decoding here.
func ExtractJSONObject(text string) string {
	start := strings.Index(text, "{")
	end := strings.LastIndex(text, "}")
	if start < 0 || end <= start {
		return ""
	}
	return text[start : end+1]
}

// ExtractJSONArray returns the first-"[" to last-"]" span of text, or ""
// when no array can be located.
func ExtractJSONArray(text string) string {
	start := strings.Index(text, "[")
	end := strings.LastIndex(text, "]")
	if start < 0 || end <= start {
		return ""
	}
	return text[start : end+1]
}
