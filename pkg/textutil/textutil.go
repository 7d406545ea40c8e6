package textutil

import (
	"strings"
	"unicode"
)

// NormalizeName lowercases s and drops every whitespace rune, so markers
// survive reflowed or re-cased portal markup.
func NormalizeName(s string) string {
	return strings.Map(func(r rune) rune {
		if unicode.IsSpace(r) {
			return -1
		}
		return unicode.ToLower(r)
	}, s)
}

// Matcher decides if a piece of text carries some marker.
type Matcher func(text string) bool

// Contains matches text that contains any of the given substrings verbatim.
func Contains(markers ...string) Matcher {
	return func(text string) bool {
		for _, m := range markers {
			if m != "" && strings.Contains(text, m) {
				return true
			}
		}
		return false
	}
}

// ContainsFold matches text that contains any of the given substrings,
// ignoring case and whitespace.
func ContainsFold(markers ...string) Matcher {
	normalized := make([]string, 0, len(markers))
	for _, m := range markers {
		m = NormalizeName(m)
		if m != "" {
			normalized = append(normalized, m)
		}
	}
	return func(text string) bool {
		text = NormalizeName(text)
		for _, m := range normalized {
			if strings.Contains(text, m) {
				return true
			}
		}
		return false
	}
}
