package calibre

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/mrlokans/bookclips/internal/bibid"
)

var (
	// "Author(s)           : Robert B. Cialdini [Cialdini, Robert B.]"
	metaLineSplit = regexp.MustCompile(`\s+:\s+`)
	yearPattern   = regexp.MustCompile(`\b(\d{4})\b`)
)

// ParseMeta parses the "Field : value" report printed by ebook-meta.
// Title, authors and the publication year are lifted into the identity;
// identifiers such as "isbn:978..., uuid:..." are split into Extra under
// their own names, and every other field is kept in Extra under its
// lowercased name.
func ParseMeta(report string) bibid.Identity {
	id := bibid.Identity{Extra: make(map[string]string)}

	for _, line := range strings.Split(report, "\n") {
		parts := metaLineSplit.Split(strings.TrimRight(line, "\r"), 2)
		if len(parts) != 2 {
			continue
		}
		field := strings.ToLower(strings.TrimSpace(parts[0]))
		value := strings.TrimSpace(parts[1])
		if field == "" || value == "" {
			continue
		}

		switch {
		case field == "title":
			id.Title = value
		case strings.Contains(field, "author"):
			id.Authors = bibid.ParseAuthors(value)
		case strings.Contains(field, "language"):
			id.Extra["language"] = value
		case strings.Contains(field, "identifier"):
			parseIdentifiers(value, id.Extra)
		case strings.Contains(field, "published"):
			if m := yearPattern.FindStringSubmatch(value); m != nil {
				id.Year, _ = strconv.Atoi(m[1])
			}
			id.Extra["published"] = value
		default:
			id.Extra[field] = value
		}
	}

	return id
}

func parseIdentifiers(value string, extra map[string]string) {
	identified := false
	for _, ident := range strings.Split(value, ",") {
		kind, content, ok := strings.Cut(strings.TrimSpace(ident), ":")
		if !ok || kind == "" {
			continue
		}
		extra[strings.ToLower(kind)] = content
		identified = true
	}
	if !identified {
		extra["identifier"] = value
	}
}
