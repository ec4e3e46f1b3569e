package helpers

import (
	"strconv"
	"strings"
)

// ClampLimit bounds a requested list size to (0, max], using def for non-positive values
func ClampLimit(limit, def, max int) int {
	if limit <= 0 {
		limit = def
	}
	if limit > max {
		limit = max
	}
	return limit
}

// ParseLimit reads a limit query value, falling back to def
func ParseLimit(raw string, def, max int) int {
	n, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil {
		n = def
	}
	return ClampLimit(n, def, max)
}

// ParseMediaList splits a media field on newlines and commas, dropping blanks
func ParseMediaList(raw string) []string {
	parts := strings.FieldsFunc(raw, func(r rune) bool {
		return r == '\n' || r == '\r' || r == ','
	})
	urls := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			urls = append(urls, p)
		}
	}
	return urls
}

// AbsoluteURL prefixes site-relative /uploads/ paths with base; other URLs pass through
func AbsoluteURL(base, raw string) string {
	if base == "" || !strings.HasPrefix(raw, "/uploads/") {
		return raw
	}
	return strings.TrimRight(base, "/") + raw
}
