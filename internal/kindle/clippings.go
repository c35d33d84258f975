package kindle

import (
	"sort"
	"strings"
)

// Clippings is the parsed export: records grouped by raw book title, in the
// order they were exported. It is read-only once Parse returns.
type Clippings struct {
	books    map[string][]Record
	stats    ParseStats
	problems []error
}

func newClippings() *Clippings {
	return &Clippings{books: make(map[string][]Record)}
}

func (c *Clippings) add(title string, r Record) {
	c.books[title] = append(c.books[title], r)
}

func (c *Clippings) attachNote(title, note string) bool {
	records := c.books[title]
	if len(records) == 0 {
		return false
	}
	records[len(records)-1].Note = note
	return true
}

// Stats returns the counters collected while parsing.
func (c *Clippings) Stats() ParseStats {
	return c.stats
}

// Problems returns one error per chunk the parser skipped, in export order.
// Each wraps ErrMalformedRecord or ErrUnknownKind.
func (c *Clippings) Problems() []error {
	return c.problems
}

// Len returns the number of books with at least one record.
func (c *Clippings) Len() int {
	return len(c.books)
}

// Titles returns every book title in the export, sorted.
func (c *Clippings) Titles() []string {
	titles := make([]string, 0, len(c.books))
	for title := range c.books {
		titles = append(titles, title)
	}
	sort.Strings(titles)
	return titles
}

// FullTitle maps a title from another source (usually book metadata) to the
// title used in the export. It tries, in order: an exact match, the part
// before the first colon as a substring of an export title, and the same
// substring match ignoring case.
func (c *Clippings) FullTitle(title string) (string, bool) {
	if _, ok := c.books[title]; ok {
		return title, true
	}

	short, _, _ := strings.Cut(title, ":")
	short = strings.TrimSpace(short)
	if short == "" {
		return "", false
	}

	titles := c.Titles()
	for _, candidate := range titles {
		if strings.Contains(candidate, short) {
			return candidate, true
		}
	}

	lower := strings.ToLower(short)
	for _, candidate := range titles {
		if strings.Contains(strings.ToLower(candidate), lower) {
			return candidate, true
		}
	}

	return "", false
}

// Book returns the records for title, resolved through FullTitle. The slice
// is a copy and may be modified by the caller.
func (c *Clippings) Book(title string) []Record {
	full, ok := c.FullTitle(title)
	if !ok {
		return nil
	}
	records := c.books[full]
	out := make([]Record, len(records))
	copy(out, records)
	return out
}
