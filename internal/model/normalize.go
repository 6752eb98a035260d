package model

import (
	"strings"

	"golang.org/x/text/unicode/norm"
)

// NormalizeText trims surrounding whitespace and applies Unicode NFC so that
// canonically equivalent spellings of a tag (precomposed "é" vs "e" plus a
// combining accent) map to the same stored row and the same search term.
func NormalizeText(s string) string {
	return ComposeText(strings.TrimSpace(s))
}

// ComposeText applies Unicode NFC and nothing else. Stored summaries and
// descriptions go through it so they compare equal to normalized search
// terms.
func ComposeText(s string) string {
	return norm.NFC.String(s)
}
