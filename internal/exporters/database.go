package exporters

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/mrlokans/bookclips/internal/database"
	"github.com/mrlokans/bookclips/internal/entities"
	"github.com/mrlokans/bookclips/internal/kindle"
)

// DatabaseSink stores entries as books and annotations in the database.
// Unlike the markdown sink it keeps bookmarks too. Writes are serialized so
// that two entries for the same book never race to create it.
type DatabaseSink struct {
	db *database.Database
	mu sync.Mutex
}

func NewDatabaseSink(db *database.Database) *DatabaseSink {
	return &DatabaseSink{db: db}
}

func (s *DatabaseSink) Name() string {
	return "database"
}

func (s *DatabaseSink) Write(ctx context.Context, entry Entry) (WriteResult, error) {
	if err := ctx.Err(); err != nil {
		return WriteResult{}, err
	}

	book := toBook(entry)
	s.mu.Lock()
	defer s.mu.Unlock()
	written, skipped, err := s.db.SaveBook(book)
	if err != nil {
		return WriteResult{}, fmt.Errorf("failed to save book %s: %w", entry.CanonicalID, err)
	}
	return WriteResult{Written: written, Skipped: skipped}, nil
}

func toBook(entry Entry) *entities.Book {
	id := entry.Identity
	book := &entities.Book{
		CanonicalID:     entry.CanonicalID,
		Title:           id.Title,
		ClippingsTitle:  entry.ClippingsTitle,
		Authors:         strings.Join(id.Authors, " and "),
		PublicationYear: id.Year,
		FilePath:        entry.BookPath,
		TextPath:        entry.TextPath,
	}
	if id.Extra != nil {
		book.ISBN = id.Extra["isbn"]
		book.Publisher = id.Extra["publisher"]
	}
	if book.Title == "" {
		book.Title = entry.ClippingsTitle
	}

	for _, item := range entry.Items {
		book.Annotations = append(book.Annotations, toAnnotation(item))
	}
	return book
}

func toAnnotation(item Item) entities.Annotation {
	r := item.Record
	a := entities.Annotation{
		Kind:    entities.AnnotationKindHighlight,
		Text:    strings.TrimSpace(r.Text),
		Note:    r.Note,
		Page:    r.Page,
		Anchor:  item.Anchor,
		AddedAt: r.AddedAt,
	}
	if r.Kind == kindle.KindBookmark {
		a.Kind = entities.AnnotationKindBookmark
	}
	if r.Location != nil {
		a.LocationStart = r.Location.Start
		a.LocationEnd = r.Location.End
	}
	return a
}
