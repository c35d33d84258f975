// Package interfaces documents the seams of the clippings pipeline.
//
// # Interface Categories
//
// ## Book Collaborators
//
//   - MetadataExtractor: Identity of a book file (internal/calibre/calibre.go)
//   - TextConverter: Plain-text rendition of a book file (internal/calibre/calibre.go)
//
// Both are implemented by calibre.Calibre, which runs ebook-meta and
// ebook-convert.
//
// ## Sinks
//
//   - Sink: Persists one book's clippings (internal/exporters/generic.go)
//
// Implementations: exporters.Markdown (one file per canonical id) and
// exporters.DatabaseSink (books and annotations tables). A sink must skip
// clippings it already holds, so that the pipeline can be re-run.
//
// ## Watch
//
//   - BookProcessor: Runs the pipeline for one book (internal/tasks/process_book.go)
//   - Enqueuer: Queues a task per book (internal/scheduler/watch.go)
//
// # Adding a New Sink
//
//  1. Implement Sink in internal/exporters/
//
//     type JSONLines struct {
//         Dir string
//     }
//
//     func (j *JSONLines) Name() string { return "jsonl" }
//     func (j *JSONLines) Write(ctx context.Context, entry Entry) (WriteResult, error)
//
//  2. Add it to newSinks in internal/cli/common.go
//
//  3. Add a compile-time check to checks.go:
//
//     var _ exporters.Sink = (*exporters.JSONLines)(nil)
package interfaces
