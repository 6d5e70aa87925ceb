package sanitize

import (
	"regexp"
	"strings"
)

var (
	// separatorReplacer maps common word separators onto hyphens
	separatorReplacer = strings.NewReplacer(
		" ", "-",
		".", "-",
		"/", "-",
		":", "-",
	)

	// invalidIDChars matches anything outside the session id alphabet
	invalidIDChars = regexp.MustCompile(`[^a-zA-Z0-9_-]+`)

	// multiDashRegex matches multiple consecutive dashes
	multiDashRegex = regexp.MustCompile(`-+`)
)

// maxSlugLength bounds slugs so the resulting directory names stay readable.
const maxSlugLength = 40

// ForSessionID turns an arbitrary display label into a string that only uses
// the session id alphabet [A-Za-z0-9_-]. It returns "" if nothing usable remains.
func ForSessionID(s string) string {
	if s == "" {
		return ""
	}

	s = strings.ToLower(s)

	// Replace common separators with hyphens
	s = separatorReplacer.Replace(s)

	// Remove any remaining characters that are not valid in an id
	s = invalidIDChars.ReplaceAllString(s, "-")

	// Collapse multiple hyphens
	s = multiDashRegex.ReplaceAllString(s, "-")

	s = strings.Trim(s, "-_")

	if len(s) > maxSlugLength {
		s = strings.TrimRight(s[:maxSlugLength], "-_")
	}

	return s
}
