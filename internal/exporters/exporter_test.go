package exporters

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mrlokans/bookclips/internal/bibid"
	"github.com/mrlokans/bookclips/internal/database"
	"github.com/mrlokans/bookclips/internal/entities"
	"github.com/mrlokans/bookclips/internal/kindle"
)

func highlight(text string, start, end int) kindle.Record {
	added := time.Date(2012, time.June, 5, 23, 43, 0, 0, time.UTC)
	return kindle.Record{
		Text: text,
		Metadata: kindle.Metadata{
			Kind:     kindle.KindHighlight,
			Location: &kindle.LocationRange{Start: start, End: end},
			AddedAt:  &added,
		},
	}
}

func bookmark(start int) kindle.Record {
	return kindle.Record{
		Metadata: kindle.Metadata{
			Kind:     kindle.KindBookmark,
			Location: &kindle.LocationRange{Start: start, End: start},
		},
	}
}

func testEntry(items ...Item) Entry {
	return Entry{
		CanonicalID:    "cialdini-2006---influence",
		Identity:       bibid.Identity{Title: "Influence", Authors: []string{"Cialdini, Robert B."}, Year: 2006},
		ClippingsTitle: "Influence (Robert B. Cialdini)",
		BookPath:       "/books/influence.mobi",
		TextPath:       "/texts/cialdini-2006---influence.txt",
		Items:          items,
	}
}

func testMarkdown(t *testing.T) *Markdown {
	t.Helper()
	m := NewMarkdown(filepath.Join(t.TempDir(), "notes"))
	m.now = func() time.Time { return time.Date(2024, time.March, 1, 10, 0, 0, 0, time.UTC) }
	return m
}

func TestMarkdownWrite(t *testing.T) {
	ctx := context.Background()

	t.Run("creates file with front matter and clippings", func(t *testing.T) {
		m := testMarkdown(t)
		first := highlight("the quick brown fox", 10, 12)
		first.Note = "check this"

		result, err := m.Write(ctx, testEntry(
			Item{Record: first, Anchor: "quick brown fox"},
			Item{Record: bookmark(40)},
			Item{Record: highlight("second passage", 50, 50)},
		))
		require.NoError(t, err)
		assert.Equal(t, WriteResult{Written: 2}, result)

		content, err := os.ReadFile(m.Path("cialdini-2006---influence"))
		require.NoError(t, err)
		out := string(content)

		assert.True(t, strings.HasPrefix(out, "---\n"))
		assert.Contains(t, out, "canonical_id: cialdini-2006---influence")
		assert.Contains(t, out, "title: Influence")
		assert.Contains(t, out, "year: 2006")
		assert.Contains(t, out, "# Influence\n")
		assert.Contains(t, out, "## Clippings added 2024-03-01")
		assert.Contains(t, out, "### The quick brown fox")
		assert.Contains(t, out, "- location: 10-12")
		assert.Contains(t, out, "- added: 2012-06-05 23:43")
		assert.Contains(t, out, "Check this\n")
		assert.Contains(t, out, "[Read more](file:///texts/cialdini-2006---influence.txt#:~:text=quick%20brown%20fox)")
		assert.Contains(t, out, "> The quick brown fox\n")
		assert.Contains(t, out, "> Second passage\n")
		assert.Contains(t, out, "- location: 50\n")
	})

	t.Run("second write appends only new clippings", func(t *testing.T) {
		m := testMarkdown(t)
		_, err := m.Write(ctx, testEntry(Item{Record: highlight("the quick brown fox", 10, 12)}))
		require.NoError(t, err)

		result, err := m.Write(ctx, testEntry(
			Item{Record: highlight("the quick brown fox", 10, 12)},
			Item{Record: highlight("a later passage", 90, 91)},
		))
		require.NoError(t, err)
		assert.Equal(t, WriteResult{Written: 1, Skipped: 1}, result)

		content, err := os.ReadFile(m.Path("cialdini-2006---influence"))
		require.NoError(t, err)
		out := string(content)
		assert.Equal(t, 1, strings.Count(out, "> The quick brown fox"))
		assert.Equal(t, 1, strings.Count(out, "canonical_id:"))
		assert.Contains(t, out, "> A later passage")
	})

	t.Run("nothing new leaves file untouched", func(t *testing.T) {
		m := testMarkdown(t)
		entry := testEntry(Item{Record: highlight("only one", 1, 1)})
		_, err := m.Write(ctx, entry)
		require.NoError(t, err)
		before, err := os.ReadFile(m.Path(entry.CanonicalID))
		require.NoError(t, err)

		result, err := m.Write(ctx, entry)
		require.NoError(t, err)
		assert.Equal(t, WriteResult{Skipped: 1}, result)

		after, err := os.ReadFile(m.Path(entry.CanonicalID))
		require.NoError(t, err)
		assert.Equal(t, before, after)
	})

	t.Run("no anchor means no link", func(t *testing.T) {
		m := testMarkdown(t)
		_, err := m.Write(ctx, testEntry(Item{Record: highlight("unanchored", 1, 1)}))
		require.NoError(t, err)

		content, err := os.ReadFile(m.Path("cialdini-2006---influence"))
		require.NoError(t, err)
		assert.NotContains(t, string(content), "Read more")
	})
}

func TestMarkdownWriteBlockSyntax(t *testing.T) {
	ctx := context.Background()

	texts := []string{
		"1. Never split the difference.",
		"2) second point",
		"- the map is not the territory",
		"* starred line",
		"+ plus line",
		"# of attempts matters more than talent",
		"> already quoted",
		"```fenced",
		"--- dashes",
		"<div> looks like html",
		"[1]: footnote style",
		"\\# escaped by hand",
		"12\\. hand escaped number",
		"first line\n- second line\n===",
	}

	for _, text := range texts {
		t.Run(text, func(t *testing.T) {
			m := testMarkdown(t)
			entry := testEntry(Item{Record: highlight(text, 1, 2)})

			result, err := m.Write(ctx, entry)
			require.NoError(t, err)
			require.Equal(t, WriteResult{Written: 1}, result)

			result, err = m.Write(ctx, entry)
			require.NoError(t, err)
			assert.Equal(t, WriteResult{Skipped: 1}, result)

			content, err := os.ReadFile(m.Path(entry.CanonicalID))
			require.NoError(t, err)
			quotes := ExtractQuotes(content)
			assert.Len(t, quotes, 1)
			assert.Contains(t, quotes, quoteKey(text))
		})
	}
}

func TestMarkdownWriteConcurrent(t *testing.T) {
	m := testMarkdown(t)
	entry := testEntry(
		Item{Record: highlight("the quick brown fox", 10, 12)},
		Item{Record: highlight("a later passage", 90, 91)},
	)

	const writers = 8
	results := make([]WriteResult, writers)
	var wg sync.WaitGroup
	for i := range writers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			result, err := m.Write(context.Background(), entry)
			assert.NoError(t, err)
			results[i] = result
		}()
	}
	wg.Wait()

	var total WriteResult
	for _, r := range results {
		total.Written += r.Written
		total.Skipped += r.Skipped
	}
	assert.Equal(t, WriteResult{Written: 2, Skipped: 2 * (writers - 1)}, total)

	content, err := os.ReadFile(m.Path(entry.CanonicalID))
	require.NoError(t, err)
	out := string(content)
	assert.Equal(t, 1, strings.Count(out, "canonical_id:"))
	assert.Equal(t, 1, strings.Count(out, "> The quick brown fox"))
	assert.Equal(t, 1, strings.Count(out, "> A later passage"))
}

func TestEscapeLine(t *testing.T) {
	tests := []struct {
		line    string
		escaped string
	}{
		{"plain", "plain"},
		{"# heading", "\\# heading"},
		{"1. item", "1\\. item"},
		{"3) item", "3\\) item"},
		{"1\\. item", "1\\\\. item"},
		{"\\x", "\\\\x"},
		{"2024 was a year", "2024 was a year"},
		{"", ""},
	}

	for _, tt := range tests {
		t.Run(tt.line, func(t *testing.T) {
			assert.Equal(t, tt.escaped, escapeLine(tt.line))
			assert.Equal(t, tt.line, unescapeLine(tt.escaped))
		})
	}
}

func TestExtractQuotes(t *testing.T) {
	source := []byte(`# Book

Some paragraph.

> First quote

text between

> Multi line
> quote with *emphasis*
`)
	quotes := ExtractQuotes(source)

	assert.Len(t, quotes, 2)
	assert.Contains(t, quotes, "First quote")
	assert.Contains(t, quotes, "Multi line\nquote with *emphasis*")
	assert.NotContains(t, quotes, "Some paragraph.")
}

func TestHeadline(t *testing.T) {
	assert.Equal(t, "one two three", headline("one  two\nthree"))
	assert.Equal(t, "a b c d e f g h i j", headline("a b c d e f g h i j k l"))
}

func TestAnchorLink(t *testing.T) {
	assert.Equal(t,
		"file:///texts/book.txt#:~:text=quick%20brown%2Dfox",
		AnchorLink("/texts/book.txt", "quick brown-fox"))
}

func TestDatabaseSink(t *testing.T) {
	db, err := database.NewDatabase(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	sink := NewDatabaseSink(db)
	ctx := context.Background()

	entry := testEntry(
		Item{Record: highlight("the quick brown fox", 10, 12), Anchor: "quick brown fox"},
		Item{Record: bookmark(40)},
	)
	entry.Identity.Extra = map[string]string{"isbn": "9780061241895", "publisher": "Collins"}

	result, err := sink.Write(ctx, entry)
	require.NoError(t, err)
	assert.Equal(t, WriteResult{Written: 2}, result)

	result, err = sink.Write(ctx, entry)
	require.NoError(t, err)
	assert.Equal(t, WriteResult{Skipped: 2}, result)

	book, err := db.GetBookByCanonicalID("cialdini-2006---influence")
	require.NoError(t, err)
	assert.Equal(t, "Cialdini, Robert B.", book.Authors)
	assert.Equal(t, "9780061241895", book.ISBN)
	assert.Equal(t, "Collins", book.Publisher)
	require.Len(t, book.Annotations, 2)
	assert.Equal(t, entities.AnnotationKindHighlight, book.Annotations[0].Kind)
	assert.Equal(t, "quick brown fox", book.Annotations[0].Anchor)
	assert.Equal(t, 10, book.Annotations[0].LocationStart)
	assert.Equal(t, 12, book.Annotations[0].LocationEnd)
	assert.Equal(t, entities.AnnotationKindBookmark, book.Annotations[1].Kind)
}

func TestDatabaseSinkConcurrent(t *testing.T) {
	db, err := database.NewDatabase(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	sink := NewDatabaseSink(db)
	entry := testEntry(
		Item{Record: highlight("the quick brown fox", 10, 12)},
		Item{Record: bookmark(40)},
	)

	const writers = 4
	results := make([]WriteResult, writers)
	var wg sync.WaitGroup
	for i := range writers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			result, err := sink.Write(context.Background(), entry)
			assert.NoError(t, err)
			results[i] = result
		}()
	}
	wg.Wait()

	written := 0
	for _, r := range results {
		written += r.Written
	}
	assert.Equal(t, 2, written)

	book, err := db.GetBookByCanonicalID(entry.CanonicalID)
	require.NoError(t, err)
	assert.Len(t, book.Annotations, 2)
}
