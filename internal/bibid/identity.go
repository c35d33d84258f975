package bibid

import (
	"errors"
	"fmt"
	"regexp"
	"strings"
)

// ErrIdentityIncomplete is reported when metadata lacks a title or an
// author. The id is still built, without the missing segment.
var ErrIdentityIncomplete = errors.New("book identity incomplete")

// Identity is what the metadata extractor knows about a book.
type Identity struct {
	Title   string
	Authors []string
	// Year of publication, 0 when unknown.
	Year int
	// Extra holds every other metadata field, uninterpreted.
	Extra map[string]string
}

// Validate returns an error wrapping ErrIdentityIncomplete that names the
// missing fields, or nil.
func (id Identity) Validate() error {
	var missing []string
	if strings.TrimSpace(id.Title) == "" {
		missing = append(missing, "title")
	}
	if len(id.Authors) == 0 || strings.TrimSpace(id.Authors[0]) == "" {
		missing = append(missing, "author")
	}
	if len(missing) == 0 {
		return nil
	}
	return fmt.Errorf("%w: missing %s", ErrIdentityIncomplete, strings.Join(missing, ", "))
}

// ID returns the canonical id of the identity under b.
func (b *Builder) ID(id Identity) string {
	return b.CanonicalID(id.Title, id.Authors, id.Year)
}

var bracketed = regexp.MustCompile(`\[[^\]]*\]`)

// ParseAuthors splits an author field as written by e-book tools into
// individual names in "Family, Given" form:
//
//	"Stuckey, Maggie & McGee, Rose Marie Nichols [Stuckey, Maggie]"
//	    -> ["Stuckey, Maggie", "McGee, Rose Marie Nichols"]
//	"Robert B. Cialdini" -> ["Cialdini, Robert B."]
//
// Bracketed sort keys are dropped. Names are separated by "&" or " and ".
func ParseAuthors(info string) []string {
	info = strings.TrimSpace(bracketed.ReplaceAllString(info, ""))
	if info == "" {
		return nil
	}

	var parts []string
	switch {
	case strings.Contains(info, "&"):
		parts = strings.Split(info, "&")
	case strings.Contains(info, " and "):
		parts = strings.Split(info, " and ")
	default:
		parts = []string{info}
	}

	authors := make([]string, 0, len(parts))
	for _, p := range parts {
		if name := familyFirst(strings.TrimSpace(p)); name != "" {
			authors = append(authors, name)
		}
	}
	return authors
}

// familyFirst rewrites "Given Family" as "Family, Given".
func familyFirst(name string) string {
	if name == "" || strings.Contains(name, ",") {
		return name
	}
	words := strings.Fields(name)
	if len(words) < 2 {
		return name
	}
	last := words[len(words)-1]
	return last + ", " + strings.Join(words[:len(words)-1], " ")
}
