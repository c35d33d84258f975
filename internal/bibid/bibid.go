// Package bibid derives the canonical id of a book from its title, authors
// and publication year. Ids name files on disk and key stored records, so
// the algorithm must stay stable: changing it renames every book.
package bibid

import (
	"regexp"
	"strconv"
	"strings"
	"unicode"

	"github.com/mrlokans/bookclips/internal/slug"
)

// DefaultMaxWords is the longest title slug, in words, that goes into an id.
const DefaultMaxWords = 7

// DefaultStopWords are words a truncated title slug must not end on.
var DefaultStopWords = []string{
	"the", "and", "but", "or", "yet", "for", "with",
	"no", "nor", "not", "so", "a", "s", "that",
}

var parenthesized = regexp.MustCompile(`\(.*\)`)

// Builder holds the rules for turning book metadata into ids. The zero value
// is not usable; start from Default or NewBuilder.
type Builder struct {
	stopWords map[string]struct{}
	maxWords  int

	// KeepSubtitle keeps the text after the first colon of a title.
	KeepSubtitle bool
}

// NewBuilder returns a builder that truncates title slugs to maxWords words
// and backs off from any of stopWords at the cut.
func NewBuilder(maxWords int, stopWords []string) *Builder {
	if maxWords < 1 {
		maxWords = DefaultMaxWords
	}
	set := make(map[string]struct{}, len(stopWords))
	for _, w := range stopWords {
		set[w] = struct{}{}
	}
	return &Builder{stopWords: set, maxWords: maxWords}
}

// Default returns a builder with DefaultMaxWords and DefaultStopWords.
func Default() *Builder {
	return NewBuilder(DefaultMaxWords, DefaultStopWords)
}

// CanonicalID returns "<author>-<year>---<title>", dropping the author and
// year segments that are unknown:
//
//	CanonicalID("Influence", []string{"Cialdini, Robert B."}, 2006) == "cialdini-2006---influence"
//	CanonicalID("Influence", nil, 2006)                              == "2006---influence"
//	CanonicalID("Influence", nil, 0)                                 == "influence"
//
// Only the first author contributes. A year of 0 means unknown.
func (b *Builder) CanonicalID(title string, authors []string, year int) string {
	var id strings.Builder

	if len(authors) > 0 {
		if author := b.AuthorSlug(authors[0]); author != "" {
			id.WriteString(author)
			id.WriteByte('-')
		}
	}
	if year > 0 {
		id.WriteString(strconv.Itoa(year))
		id.WriteByte('-')
	}
	if id.Len() > 0 {
		id.WriteString("--")
	}
	id.WriteString(b.TitleSlug(title))

	return id.String()
}

// AuthorSlug returns the slug of the author's family name only. With a comma
// the family name is what precedes it ("Cialdini, Robert B."); otherwise it is
// the last word, splitting on spaces and periods ("Robert B.Cialdini").
func (b *Builder) AuthorSlug(author string) string {
	if family, _, found := strings.Cut(author, ","); found {
		return slug.Make(family)
	}

	tokens := strings.FieldsFunc(author, func(r rune) bool {
		return unicode.IsSpace(r) || r == '.'
	})
	if len(tokens) == 0 {
		return ""
	}
	return slug.Make(tokens[len(tokens)-1])
}

// TitleSlug drops the subtitle and any parenthesized aside, slugs the rest
// and truncates it with Truncate.
func (b *Builder) TitleSlug(title string) string {
	if !b.KeepSubtitle {
		title, _, _ = strings.Cut(title, ":")
	}
	title = strings.TrimSpace(parenthesized.ReplaceAllString(title, ""))
	return b.Truncate(slug.Make(title))
}

// Truncate cuts a slug longer than the builder's word limit. If the last kept
// word is a stop word the cut moves one word left, until it lands on a word
// that is not a stop word or only one word is left. Slugs within the limit
// are returned unchanged.
func (b *Builder) Truncate(s string) string {
	words := slug.Words(s)
	if len(words) <= b.maxWords {
		return s
	}

	length := b.maxWords
	for length > 1 && b.isStopWord(words[length-1]) {
		length--
	}
	return strings.Join(words[:length], "-")
}

func (b *Builder) isStopWord(w string) bool {
	_, ok := b.stopWords[w]
	return ok
}
