// Package slug turns free text into lowercase, dash-joined ASCII tokens that
// are safe to use as file names and identifier fragments.
package slug

import (
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// Letters that NFKD leaves intact but that have an obvious ASCII spelling.
var foldedLetters = map[rune]string{
	'ß': "ss",
	'æ': "ae",
	'Æ': "ae",
	'ø': "o",
	'Ø': "o",
	'œ': "oe",
	'Œ': "oe",
	'ł': "l",
	'Ł': "l",
	'đ': "d",
	'Đ': "d",
	'þ': "th",
	'Þ': "th",
	'ı': "i",
}

// Make returns the slug of text. Empty and punctuation-only input yields "".
//
//	Make("Where Good Ideas Come From") == "where-good-ideas-come-from"
//	Make("Stanisław Lem")              == "stanislaw-lem"
func Make(text string) string {
	stripper := transform.Chain(norm.NFKD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	plain, _, err := transform.String(stripper, text)
	if err != nil {
		plain = text
	}

	var b strings.Builder
	b.Grow(len(plain))
	pendingDash := false
	for _, r := range plain {
		if r == '\'' || r == '’' {
			// Apostrophes join words: "don't" -> "dont".
			continue
		}
		if folded, ok := foldedLetters[r]; ok {
			writeToken(&b, folded, &pendingDash)
			continue
		}
		r = unicode.ToLower(r)
		if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') {
			writeToken(&b, string(r), &pendingDash)
			continue
		}
		pendingDash = true
	}
	return b.String()
}

func writeToken(b *strings.Builder, s string, pendingDash *bool) {
	if *pendingDash && b.Len() > 0 {
		b.WriteByte('-')
	}
	*pendingDash = false
	b.WriteString(s)
}

// Words splits a slug into its dash-separated words.
func Words(s string) []string {
	if s == "" {
		return nil
	}
	return strings.Split(s, "-")
}
