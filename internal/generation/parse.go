package generation

import (
	"strings"
)

const (
	subjectMarker = "---SUBJECT---"
	letterMarker  = "---LETTER---"
)

// Parsed holds the fields found in a combined reply. Empty means missing.
type Parsed struct {
	Subject string
	Letter  string
}

// ParseCombined splits a combined reply into subject and letter. Each field
// is looked up on its own, so a reply may carry one without the other.
func ParseCombined(text string) Parsed {
	var parsed Parsed

	if start := strings.Index(text, subjectMarker); start != -1 {
		rest := text[start+len(subjectMarker):]
		if end := strings.Index(rest, letterMarker); end != -1 {
			parsed.Subject = foldLines(rest[:end])
		}
	}

	if start := strings.Index(text, letterMarker); start != -1 {
		parsed.Letter = strings.TrimSpace(text[start+len(letterMarker):])
	}

	return parsed
}

// foldLines trims s and joins its non-empty lines with a space. A mail
// header cannot carry line breaks.
func foldLines(s string) string {
	lines := strings.Split(strings.TrimSpace(s), "\n")
	out := make([]string, 0, len(lines))
	for _, line := range lines {
		if line = strings.TrimSpace(line); line != "" {
			out = append(out, line)
		}
	}
	return strings.Join(out, " ")
}
