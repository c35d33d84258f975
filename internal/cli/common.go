package cli

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log"
	"os"
	"os/signal"
	"path/filepath"
	"slices"
	"strings"
	"syscall"

	"github.com/mrlokans/bookclips/internal/backup"
	"github.com/mrlokans/bookclips/internal/database"
	"github.com/mrlokans/bookclips/internal/exporters"
	"github.com/mrlokans/bookclips/internal/kindle"
)

// bookExtensions are the file types expanded from a directory argument.
var bookExtensions = []string{".azw", ".azw3", ".epub", ".kfx", ".mobi", ".pdf"}

// loadedClippings is a parsed export together with where it came from.
type loadedClippings struct {
	Path   string
	Digest string
	Index  *kindle.Clippings
}

// loadClippings resolves the export (falling back to the backup copy),
// reads and parses it. A missing export yields an empty index with a
// warning. An orphan note aborts.
func loadClippings(primary, backupPath string, enabled bool) (*loadedClippings, error) {
	path, err := backup.Resolve(primary, backupPath, enabled)
	if errors.Is(err, backup.ErrNoClippings) {
		log.Printf("[CLIPS] Warning: %v; continuing without clippings", err)
		empty, _ := kindle.Parse(nil)
		return &loadedClippings{Index: empty}, nil
	}
	if err != nil {
		return nil, err
	}

	data, err := backup.ReadAll(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read clippings file: %w", err)
	}

	index, err := kindle.Parse(data)
	if err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", path, err)
	}

	stats := index.Stats()
	if stats.Skipped > 0 || stats.UnknownKind > 0 {
		log.Printf("[CLIPS] %s: skipped %d malformed and %d unrecognised records", path, stats.Skipped, stats.UnknownKind)
	}
	if stats.UnparsedTimestamps > 0 {
		log.Printf("[CLIPS] %s: %d timestamps could not be parsed", path, stats.UnparsedTimestamps)
	}

	return &loadedClippings{Path: path, Digest: database.Digest(data), Index: index}, nil
}

// expandBooks turns the command arguments into book files. Directories are
// walked for known e-book extensions. The result is sorted and free of
// duplicates.
func expandBooks(args []string) ([]string, error) {
	var books []string
	for _, arg := range args {
		info, err := os.Stat(arg)
		if err != nil {
			return nil, fmt.Errorf("book file not found: %s", arg)
		}
		if !info.IsDir() {
			books = append(books, arg)
			continue
		}

		err = filepath.WalkDir(arg, func(path string, d fs.DirEntry, err error) error {
			if err != nil {
				return err
			}
			if d.IsDir() {
				return nil
			}
			if slices.Contains(bookExtensions, strings.ToLower(filepath.Ext(path))) {
				books = append(books, path)
			}
			return nil
		})
		if err != nil {
			return nil, fmt.Errorf("failed to scan %s: %w", arg, err)
		}
	}

	slices.Sort(books)
	return slices.Compact(books), nil
}

// newSinks returns the sinks for an output directory and an optional
// database. Either may be absent.
func newSinks(outputDir string, db *database.Database) []exporters.Sink {
	var sinks []exporters.Sink
	if outputDir != "" {
		sinks = append(sinks, exporters.NewMarkdown(outputDir))
	}
	if db != nil {
		sinks = append(sinks, exporters.NewDatabaseSink(db))
	}
	return sinks
}

// openDatabase opens the database at path, or returns nil when path is empty.
func openDatabase(path string) (*database.Database, error) {
	if path == "" {
		return nil, nil
	}
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("failed to get absolute path for database: %w", err)
	}
	db, err := database.NewDatabase(abs)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize database: %w", err)
	}
	return db, nil
}

func signalContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
}
