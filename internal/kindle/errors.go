package kindle

import (
	"errors"
	"fmt"
)

var (
	// ErrMalformedRecord marks a chunk between separators that does not have
	// exactly three non-empty lines. The parser skips such chunks.
	ErrMalformedRecord = errors.New("malformed clipping record")

	// ErrUnknownKind is returned by ParseMetadata for lines that are neither
	// a highlight, a note nor a bookmark.
	ErrUnknownKind = errors.New("unknown clipping kind")

	// ErrTimestampUnparseable marks an "Added on" value that matched none of
	// the known layouts. The record is kept without a timestamp.
	ErrTimestampUnparseable = errors.New("unparseable clipping timestamp")

	// ErrOrphanNote is returned when a note has no earlier record for the same
	// book to attach to.
	ErrOrphanNote = errors.New("note without a preceding highlight")

	// ErrInvalidLocation is returned by ParseLocation.
	ErrInvalidLocation = errors.New("invalid location")
)

// OrphanNoteError carries the book and the position of the offending note.
type OrphanNoteError struct {
	Title  string
	Record int // 1-based index of the record in the export
	Text   string
}

func (e *OrphanNoteError) Error() string {
	return fmt.Sprintf("record %d of %q: %v", e.Record, e.Title, ErrOrphanNote)
}

func (e *OrphanNoteError) Unwrap() error {
	return ErrOrphanNote
}
