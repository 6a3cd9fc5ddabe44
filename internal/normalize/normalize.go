// Package normalize provides canonical forms for user-supplied text.
package normalize

import (
	"regexp"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
	"golang.org/x/text/unicode/norm"
)

// Collapses runs of whitespace inside a keyword.
var innerWhitespace = regexp.MustCompile(`\s+`)

// Keyword returns the canonical form of a keyword: trimmed, NFC-composed,
// inner whitespace collapsed to a single space and lower-cased.
// "  Machine   Learning " -> "machine learning".
// "CAFÉ" -> "café".
// Returns "" when nothing is left.
func Keyword(input string) string {
	s := strings.TrimSpace(input)
	if s == "" {
		return ""
	}

	// Compose first so that "e" + combining accent and "é" collapse to one key.
	s = norm.NFC.String(s)
	s = innerWhitespace.ReplaceAllString(s, " ")

	// A Caser keeps internal state, so one is built per call.
	return cases.Lower(language.Und).String(s)
}

// Text trims surrounding whitespace and NFC-composes free text such as titles.
// Case is preserved.
func Text(input string) string {
	s := strings.TrimSpace(input)
	if s == "" {
		return ""
	}
	return norm.NFC.String(s)
}
