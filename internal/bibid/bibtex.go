package bibid

import (
	"fmt"
	"strconv"
	"strings"
)

// bibtexExtraFields are copied from Identity.Extra into the entry, in order.
var bibtexExtraFields = []string{"isbn", "publisher", "url"}

// BibTeX renders a @book entry for the identity and returns it together with
// the canonical id used as the entry key.
func (b *Builder) BibTeX(id Identity) (entry string, canonicalID string) {
	canonicalID = b.ID(id)

	year := ""
	if id.Year > 0 {
		year = strconv.Itoa(id.Year)
	}

	fields := []string{
		canonicalID,
		fmt.Sprintf("title = {%s}", id.Title),
		fmt.Sprintf("author = {%s}", strings.Join(id.Authors, " and ")),
		fmt.Sprintf("year = {%s}", year),
	}
	for _, key := range bibtexExtraFields {
		if value, ok := id.Extra[key]; ok && value != "" {
			fields = append(fields, fmt.Sprintf("%s = {%s}", key, value))
		}
	}

	return "@book {" + strings.Join(fields, ",\n  ") + "\n}", canonicalID
}
