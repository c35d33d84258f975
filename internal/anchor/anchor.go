// Package anchor finds where an annotation sits in a book's plain text.
//
// Annotation text rarely matches the converted book verbatim (ligatures,
// hyphenation, curly quotes), so the anchor is the longest run of
// characters the two share, taken from the book text.
package anchor

import (
	"context"
	"strings"
)

// checkEvery is how many haystack runes FindContext scans between
// cancellation checks.
const checkEvery = 4096

// Match is a longest common substring located in the haystack.
// Start and End are rune offsets, End exclusive.
type Match struct {
	Start int
	End   int
	Text  string
}

// Find returns the anchor for needle in haystack: the longest contiguous run
// of characters common to both, copied from haystack with surrounding
// whitespace trimmed. When several runs are equally long the one starting
// earliest in haystack wins. An empty haystack or needle, or a match made only
// of whitespace, yields ("", false).
//
// Runs are compared before trimming, so the anchor can be shorter than a
// later run of the same raw length: Find(" abXabc", " abc") is "ab", not
// "abc".
func Find(haystack, needle string) (string, bool) {
	m, _ := longest(context.Background(), []rune(haystack), []rune(needle))
	return trimmed(m)
}

// FindContext is Find with cancellation, for callers that put a time budget
// on very large texts.
func FindContext(ctx context.Context, haystack, needle string) (string, bool, error) {
	return NewText(haystack).FindContext(ctx, needle)
}

// Text is a haystack decoded once, for looking up many needles in the same
// book.
type Text struct {
	runes []rune
}

func NewText(haystack string) *Text {
	return &Text{runes: []rune(haystack)}
}

// Len returns the haystack length in runes.
func (t *Text) Len() int {
	return len(t.runes)
}

// FindContext is the package-level FindContext over the prepared haystack.
// A Text is safe for concurrent use.
func (t *Text) FindContext(ctx context.Context, needle string) (string, bool, error) {
	m, err := longest(ctx, t.runes, []rune(needle))
	if err != nil {
		return "", false, err
	}
	text, ok := trimmed(m)
	return text, ok, nil
}

// Longest returns the untrimmed longest common run with its rune offsets.
func Longest(haystack, needle string) (Match, bool) {
	m, _ := longest(context.Background(), []rune(haystack), []rune(needle))
	return m, m.End > m.Start
}

func trimmed(m Match) (string, bool) {
	text := strings.TrimSpace(m.Text)
	if text == "" {
		return "", false
	}
	return text, true
}

// longest runs the classic dynamic programme over two rolling rows:
// cur[j+1] is the length of the common run ending at h[i] and n[j]. Rows
// advance through the haystack, so the first row to reach a new maximum is
// the leftmost match of that length.
func longest(ctx context.Context, h, n []rune) (Match, error) {
	if len(h) == 0 || len(n) == 0 {
		return Match{}, nil
	}

	prev := make([]int, len(n)+1)
	cur := make([]int, len(n)+1)
	best, bestEnd := 0, 0

	for i, hr := range h {
		if i%checkEvery == 0 {
			if err := ctx.Err(); err != nil {
				return Match{}, err
			}
		}
		for j, nr := range n {
			if hr == nr {
				cur[j+1] = prev[j] + 1
				if cur[j+1] > best {
					best = cur[j+1]
					bestEnd = i + 1
				}
			} else {
				cur[j+1] = 0
			}
		}
		prev, cur = cur, prev
		if best == len(n) {
			// Nothing can beat a full needle match, and later ones are not leftmost.
			break
		}
	}

	if best == 0 {
		return Match{}, nil
	}
	start := bestEnd - best
	return Match{Start: start, End: bestEnd, Text: string(h[start:bestEnd])}, nil
}
