package exporters

import (
	"context"

	"github.com/mrlokans/bookclips/internal/bibid"
	"github.com/mrlokans/bookclips/internal/kindle"
)

// Item is one clipping ready to be written, with the passage of the book
// text it was matched to. Anchor is empty when the book text was
// unavailable or nothing matched.
type Item struct {
	Record kindle.Record
	Anchor string
}

// Entry is everything known about one book after processing.
type Entry struct {
	CanonicalID    string
	Identity       bibid.Identity
	ClippingsTitle string
	BookPath       string
	TextPath       string
	Items          []Item
}

type WriteResult struct {
	Written int `json:"written"`
	Skipped int `json:"skipped"`
}

// Sink persists entries. Writing the same entry twice must not duplicate
// anything: implementations skip clippings whose text they already hold.
type Sink interface {
	Name() string
	Write(ctx context.Context, entry Entry) (WriteResult, error)
}
