package kindle

import (
	"fmt"
	"io"
	"os"
	"strings"
)

// RecordSeparator is the line that separates records in an export.
const RecordSeparator = "=========="

// byteOrderMark is prepended by some devices and must go before splitting.
const byteOrderMark = "\ufeff"

// Record is one parsed clipping. Notes are not records of their own: their
// text lands in the Note field of the record they follow.
type Record struct {
	Text string
	Note string
	Metadata
}

// ParseStats counts what the parser tolerated while reading an export.
type ParseStats struct {
	// Records counts chunks between separators, skipped ones included.
	Records int
	// Skipped counts chunks without exactly three non-empty lines.
	Skipped int
	// UnknownKind counts chunks whose metadata line had no known marker.
	UnknownKind        int
	NotesAttached      int
	UnparsedTimestamps int
}

// Parse reads a whole clippings export and indexes its records by the book
// title exactly as it appears in the export. Malformed chunks are skipped;
// a note that has nothing to attach to aborts the parse with an
// *OrphanNoteError.
func Parse(raw []byte) (*Clippings, error) {
	content := strings.ReplaceAll(string(raw), byteOrderMark, "")
	content = strings.ReplaceAll(content, "\r\n", "\n")
	content = strings.ReplaceAll(content, "\r", "\n")

	clips := newClippings()

	for _, section := range strings.Split(content, RecordSeparator+"\n") {
		lines := nonEmptyLines(section)
		if len(lines) == 0 {
			continue
		}
		clips.stats.Records++

		if len(lines) != 3 {
			clips.stats.Skipped++
			clips.problems = append(clips.problems,
				fmt.Errorf("record %d: %w: %d lines", clips.stats.Records, ErrMalformedRecord, len(lines)))
			continue
		}

		title, metaLine, text := lines[0], lines[1], lines[2]
		meta, err := ParseMetadata(metaLine)
		if err != nil {
			clips.stats.UnknownKind++
			clips.problems = append(clips.problems, fmt.Errorf("record %d: %w", clips.stats.Records, err))
			continue
		}
		if meta.AddedAt == nil && hasAddedOn(metaLine) {
			clips.stats.UnparsedTimestamps++
		}

		if meta.Kind == KindNote {
			if !clips.attachNote(title, text) {
				return nil, &OrphanNoteError{Title: title, Record: clips.stats.Records, Text: text}
			}
			clips.stats.NotesAttached++
			continue
		}

		clips.add(title, Record{Text: text, Metadata: meta})
	}

	return clips, nil
}

// ParseReader reads r to the end and parses it.
func ParseReader(r io.Reader) (*Clippings, error) {
	raw, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("error reading clippings: %w", err)
	}
	return Parse(raw)
}

// ParseFile parses the export stored at path.
func ParseFile(path string) (*Clippings, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read clippings file: %w", err)
	}
	return Parse(raw)
}

// nonEmptyLines drops blank lines. The separator may be the very last line
// of a file with no trailing newline, so it is dropped here as well.
func nonEmptyLines(section string) []string {
	var lines []string
	for _, line := range strings.Split(section, "\n") {
		if line == "" || line == RecordSeparator {
			continue
		}
		lines = append(lines, line)
	}
	return lines
}
