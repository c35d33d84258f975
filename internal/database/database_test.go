package database

import (
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/mrlokans/bookclips/internal/entities"
)

// setupTestDB creates a fresh test database
func setupTestDB(t *testing.T) *Database {
	t.Helper()
	db, err := NewDatabase(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return db
}

func influence(texts ...string) *entities.Book {
	book := &entities.Book{
		CanonicalID:     "cialdini-2006---influence",
		Title:           "Influence",
		Authors:         "Cialdini, Robert B.",
		PublicationYear: 2006,
	}
	for _, text := range texts {
		book.Annotations = append(book.Annotations, entities.Annotation{
			Kind:          entities.AnnotationKindHighlight,
			Text:          text,
			LocationStart: 631,
			LocationEnd:   632,
		})
	}
	return book
}

func TestSaveBook(t *testing.T) {
	db := setupTestDB(t)

	t.Run("creates new book", func(t *testing.T) {
		book := influence("click, whirr", "reciprocation")
		written, skipped, err := db.SaveBook(book)
		require.NoError(t, err)
		assert.Equal(t, 2, written)
		assert.Equal(t, 0, skipped)
		assert.NotZero(t, book.ID)
	})

	t.Run("re-saving the same book adds nothing", func(t *testing.T) {
		written, skipped, err := db.SaveBook(influence("click, whirr", "reciprocation"))
		require.NoError(t, err)
		assert.Equal(t, 0, written)
		assert.Equal(t, 2, skipped)

		_, annotations, err := db.GetStats()
		require.NoError(t, err)
		assert.Equal(t, int64(2), annotations)
	})

	t.Run("appends only new annotations", func(t *testing.T) {
		written, skipped, err := db.SaveBook(influence("click, whirr", "social proof"))
		require.NoError(t, err)
		assert.Equal(t, 1, written)
		assert.Equal(t, 1, skipped)

		book, err := db.GetBookByCanonicalID("cialdini-2006---influence")
		require.NoError(t, err)
		require.Len(t, book.Annotations, 3)
		assert.Equal(t, "click, whirr", book.Annotations[0].Text)
		assert.Equal(t, "social proof", book.Annotations[2].Text)
	})

	t.Run("duplicates within one save are collapsed", func(t *testing.T) {
		book := influence("same", "same")
		book.CanonicalID = "anonymous---same"
		written, skipped, err := db.SaveBook(book)
		require.NoError(t, err)
		assert.Equal(t, 1, written)
		assert.Equal(t, 1, skipped)
	})

	t.Run("bookmarks are unique by location", func(t *testing.T) {
		book := influence()
		book.CanonicalID = "cialdini-2006---influence"
		for _, loc := range []int{100, 200, 100} {
			book.Annotations = append(book.Annotations, entities.Annotation{
				Kind:          entities.AnnotationKindBookmark,
				LocationStart: loc,
				LocationEnd:   loc,
			})
		}
		written, skipped, err := db.SaveBook(book)
		require.NoError(t, err)
		assert.Equal(t, 2, written)
		assert.Equal(t, 1, skipped)
	})

	t.Run("stats count books and annotations", func(t *testing.T) {
		books, annotations, err := db.GetStats()
		require.NoError(t, err)
		assert.Equal(t, int64(2), books)
		assert.Equal(t, int64(6), annotations)
	})
}

func TestGetBookByCanonicalID_NotFound(t *testing.T) {
	db := setupTestDB(t)
	_, err := db.GetBookByCanonicalID("nobody---nothing")
	assert.True(t, errors.Is(err, gorm.ErrRecordNotFound))
}

func TestImportRuns(t *testing.T) {
	db := setupTestDB(t)
	digest := Digest([]byte("==========\r\n"))
	assert.Len(t, digest, 64)
	assert.Equal(t, digest, Digest([]byte("==========\r\n")))

	last, err := db.LastCompletedRun("/clips.txt")
	require.NoError(t, err)
	assert.Nil(t, last)

	run, err := db.StartRun("/clips.txt", digest)
	require.NoError(t, err)
	assert.Len(t, run.ID, 26)
	assert.Equal(t, entities.RunStatusRunning, run.Status)

	run.BooksProcessed = 1
	require.NoError(t, db.FinishRun(run, []string{"no text for influence"}, nil))

	last, err = db.LastCompletedRun("/clips.txt")
	require.NoError(t, err)
	require.NotNil(t, last)
	assert.Equal(t, run.ID, last.ID)
	assert.Equal(t, digest, last.ClippingsDigest)
	assert.Equal(t, `["no text for influence"]`, last.Errors)

	time.Sleep(5 * time.Millisecond)
	failed, err := db.StartRun("/clips.txt", digest)
	require.NoError(t, err)
	require.NoError(t, db.FinishRun(failed, nil, errors.New("orphan note")))

	var stored entities.ImportRun
	require.NoError(t, db.DB.Where("id = ?", failed.ID).First(&stored).Error)
	assert.Equal(t, entities.RunStatusFailed, stored.Status)

	last, err = db.LastCompletedRun("/clips.txt")
	require.NoError(t, err)
	assert.Equal(t, run.ID, last.ID, "failed runs are not considered")
}
