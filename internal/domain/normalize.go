package domain

import (
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// NormalizeKey produces the canonical lookup key used to join all sources:
//   - trims leading/trailing whitespace and compresses inner runs of spaces
//   - decomposes to NFD and drops every nonspacing mark (all diacritics)
//   - converts to lowercase
//
// NormalizeKey is idempotent: NormalizeKey(NormalizeKey(s)) == NormalizeKey(s).
func NormalizeKey(text string) string {
	text = strings.Join(strings.Fields(text), " ")
	if text == "" {
		return ""
	}

	// A chain carries state, so each call builds its own.
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)))
	stripped, _, err := transform.String(t, text)
	if err != nil {
		stripped = text
	}
	return strings.ToLower(stripped)
}

// Tokenize splits free text into lowercase word tokens. Letters and
// apostrophes form tokens; apostrophes at either end of a token are trimmed,
// so elisions such as "dov'è" stay whole. Accents are preserved.
func Tokenize(text string) []string {
	var tokens []string
	var b strings.Builder

	flush := func() {
		if b.Len() == 0 {
			return
		}
		tok := strings.Trim(strings.ToLower(b.String()), "'")
		if tok != "" {
			tokens = append(tokens, tok)
		}
		b.Reset()
	}

	for _, r := range text {
		if unicode.IsLetter(r) || r == '\'' {
			b.WriteRune(r)
			continue
		}
		flush()
	}
	flush()

	return tokens
}
