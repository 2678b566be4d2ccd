package utils

import "strings"

// TruncateForLog trims s and shortens it to limit runes, appending an ellipsis when it was cut.
func TruncateForLog(s string, limit int) string {
	if limit <= 0 {
		return ""
	}
	s = strings.TrimSpace(s)
	clipped := ClipRunes(s, limit)
	if clipped == s {
		return s
	}
	return clipped + "..."
}

// ClipRunes returns at most the first limit runes of s.
func ClipRunes(s string, limit int) string {
	if limit <= 0 {
		return ""
	}
	runes := []rune(s)
	if len(runes) <= limit {
		return s
	}
	return string(runes[:limit])
}
