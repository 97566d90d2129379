package llm

import "strings"

const fence = "```"

// Sanitize strips a fenced code block around the reply. For fenced text it keeps the
// span from the first '{' to the last '}' inclusive; anything else is returned trimmed
// and otherwise untouched so the parser can report what it actually received.
func Sanitize(raw string) string {
	text := strings.TrimSpace(raw)
	if !strings.HasPrefix(text, fence) {
		return text
	}
	start := strings.IndexByte(text, '{')
	end := strings.LastIndexByte(text, '}')
	if start > -1 && end > start {
		return text[start : end+1]
	}
	return text
}
