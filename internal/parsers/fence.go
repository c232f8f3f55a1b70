// Package parsers extracts machine-readable payloads from language-model
// text output.
package parsers

import "strings"

// StripCodeFence removes a markdown code fence wrapping from model output.
// When the trimmed text starts with a fence marker, the first fenced segment
// is returned with an optional leading language tag (e.g. "json") dropped;
// otherwise the trimmed text is returned unchanged. Models are instructed to
// emit bare JSON but routinely wrap it anyway.
func StripCodeFence(text string) string {
	text = strings.TrimSpace(text)
	if !strings.HasPrefix(text, "```") {
		return text
	}
	parts := strings.Split(text, "```")
	if len(parts) < 2 {
		return text
	}
	inner := parts[1]
	if strings.HasPrefix(inner, "json") {
		inner = inner[len("json"):]
	}
	return strings.TrimSpace(inner)
}
