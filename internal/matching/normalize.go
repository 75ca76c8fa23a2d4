package matching

import (
	"regexp"
	"strings"
	"unicode"
)

// qualifiers are lineup notation tokens that do not belong to an artist's name.
var qualifiers = map[string]struct{}{
	"dj":        {},
	"djs":       {},
	"live":      {},
	"b2b":       {},
	"feat":      {},
	"featuring": {},
	"ft":        {},
	"set":       {},
	"band":      {},
	"presents":  {},
	"pres":      {},
}

// segmentSeparators split a lineup title into individual acts.
var segmentSeparators = regexp.MustCompile(`(?i)\s*(?:,|&|\+|/|\||;|\s(?:b2b|vs\.?|x|feat\.?|ft\.?|featuring|with|og|and|med)\s)\s*`)

// Normalize lowercases, replaces punctuation with spaces and collapses whitespace.
// Letters and digits of any script are kept.
func Normalize(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	lastSpace := true
	for _, r := range strings.ToLower(s) {
		switch {
		case unicode.IsLetter(r) || unicode.IsDigit(r):
			b.WriteRune(r)
			lastSpace = false
		case r == '\'' || r == '’':
			// Apostrophes join words ("guns n' roses" -> "guns n roses").
		default:
			if !lastSpace {
				b.WriteByte(' ')
				lastSpace = true
			}
		}
	}
	return strings.TrimSpace(b.String())
}

// StripQualifiers removes lineup qualifiers such as DJ, Live or B2B from a normalized name.
// A name made only of qualifiers is returned unchanged.
func StripQualifiers(normalized string) string {
	tokens := strings.Fields(normalized)
	kept := tokens[:0:0]
	for _, tok := range tokens {
		if _, drop := qualifiers[tok]; !drop {
			kept = append(kept, tok)
		}
	}
	if len(kept) == 0 {
		return normalized
	}
	return strings.Join(kept, " ")
}

// SplitSegments splits a lineup string into normalized act names.
func SplitSegments(text string) []string {
	var segments []string
	for _, part := range segmentSeparators.Split(text, -1) {
		if n := Normalize(stripBrackets(part)); n != "" {
			segments = append(segments, n)
		}
	}
	return segments
}

// stripBrackets drops parenthesised or bracketed asides like "(DK)" or "[live]".
func stripBrackets(s string) string {
	var out strings.Builder
	depth := 0
	for _, r := range s {
		switch r {
		case '(', '[':
			depth++
		case ')', ']':
			if depth > 0 {
				depth--
			}
		default:
			if depth == 0 {
				out.WriteRune(r)
			}
		}
	}
	return out.String()
}

// containsWord reports whether needle appears in haystack on word boundaries.
// Both arguments must already be normalized.
func containsWord(haystack, needle string) bool {
	if needle == "" {
		return false
	}
	return strings.Contains(" "+haystack+" ", " "+needle+" ")
}
