package match

import (
	"strings"
	"unicode"

	"golang.org/x/text/cases"
	"golang.org/x/text/unicode/norm"
)

// Normalize folds case, applies NFKC and collapses runs of whitespace.
func Normalize(s string) string {
	s = norm.NFKC.String(s)
	s = cases.Fold().String(s)
	return strings.Join(strings.Fields(s), " ")
}

type token struct {
	text       string
	start, end int
}

// text is a normalized working string split into word tokens.
type text struct {
	raw    string
	tokens []token
}

func newText(s string) text {
	raw := Normalize(s)
	return text{raw: raw, tokens: tokenize(raw)}
}

// tokenize splits s into maximal runs of letters and digits with byte offsets.
func tokenize(s string) []token {
	var out []token
	start := -1
	for i, r := range s {
		word := unicode.IsLetter(r) || unicode.IsDigit(r)
		switch {
		case word && start < 0:
			start = i
		case !word && start >= 0:
			out = append(out, token{text: s[start:i], start: start, end: i})
			start = -1
		}
	}
	if start >= 0 {
		out = append(out, token{text: s[start:], start: start, end: len(s)})
	}
	return out
}

// Words returns the normalized word tokens of s.
func Words(s string) []string {
	toks := tokenize(Normalize(s))
	out := make([]string, len(toks))
	for i, t := range toks {
		out[i] = t.text
	}
	return out
}

// Excise removes the byte range [start, end) from s and collapses whitespace.
func Excise(s string, start, end int) string {
	if start < 0 || end > len(s) || start >= end {
		return strings.Join(strings.Fields(s), " ")
	}
	return strings.Join(strings.Fields(s[:start]+" "+s[end:]), " ")
}
