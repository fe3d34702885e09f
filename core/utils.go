package core

import "strings"

// CleanString trims all leading and trailing whitespace in `s` and optionally lowers it.
func CleanString(s string, lower ...bool) string {
	s = strings.TrimSpace(s)
	if len(lower) > 0 && lower[0] {
		return strings.ToLower(s)
	}
	return s
}

// CountWords counts the non-empty whitespace-separated tokens in `s`.
func CountWords(s string) int {
	return len(strings.Fields(s))
}
