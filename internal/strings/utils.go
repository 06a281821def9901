// Package strings provides common string utilities.
package strings

import (
	"strings"
	"unicode/utf8"
)

// Truncate shortens a string to n bytes with ellipsis, never splitting a rune.
// If n < 4, uses n = 4 to ensure room for "...".
func Truncate(s string, n int) string {
	if n < 4 {
		n = 4
	}
	if len(s) <= n {
		return s
	}
	cut := n - 3
	for cut > 0 && !utf8.RuneStart(s[cut]) {
		cut--
	}
	return s[:cut] + "..."
}

// TruncateRunes truncates by rune count, not byte count.
// Safer for unicode strings.
func TruncateRunes(s string, n int) string {
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	if n < 4 {
		n = 4
	}
	runes := []rune(s)
	return string(runes[:n-3]) + "..."
}

// FirstLine returns the first non-blank line of s, trimmed.
func FirstLine(s string) string {
	for _, line := range strings.Split(s, "\n") {
		if t := strings.TrimSpace(line); t != "" {
			return t
		}
	}
	return ""
}

// Squash collapses all whitespace runs (including newlines) into single spaces.
func Squash(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
