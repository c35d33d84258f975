// Package clipper runs the per-book pipeline: read the book's identity,
// build its canonical id, look its clippings up, anchor them in the book
// text and hand the result to the configured sinks.
package clipper

import (
	"context"
	"fmt"
	"log"
	"path/filepath"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/mrlokans/bookclips/internal/anchor"
	"github.com/mrlokans/bookclips/internal/bibid"
	"github.com/mrlokans/bookclips/internal/calibre"
	"github.com/mrlokans/bookclips/internal/exporters"
	"github.com/mrlokans/bookclips/internal/kindle"
)

const DefaultAnchorWorkers = 4

type Config struct {
	// AnchorWorkers bounds how many anchors of one book are resolved at once.
	AnchorWorkers int
	// AnchorTimeout is the budget for all anchors of one book, 0 for none.
	// Records not anchored in time are written without a link.
	AnchorTimeout time.Duration
	// TextDir holds the plain-text renditions, one <canonical id>.txt each.
	TextDir string
}

type Result struct {
	BooksProcessed     int      `json:"books_processed"`
	AnnotationsWritten int      `json:"annotations_written"`
	AnnotationsSkipped int      `json:"annotations_skipped"`
	Warnings           []string `json:"warnings,omitempty"`
}

func (r *Result) warn(format string, args ...any) {
	msg := fmt.Sprintf(format, args...)
	log.Printf("[CLIPS] Warning: %s", msg)
	r.Warnings = append(r.Warnings, msg)
}

func (r *Result) merge(other Result) {
	r.BooksProcessed += other.BooksProcessed
	r.AnnotationsWritten += other.AnnotationsWritten
	r.AnnotationsSkipped += other.AnnotationsSkipped
	r.Warnings = append(r.Warnings, other.Warnings...)
}

type Processor struct {
	config    Config
	clippings *kindle.Clippings
	extractor calibre.MetadataExtractor
	converter calibre.TextConverter
	builder   *bibid.Builder
	sinks     []exporters.Sink
}

// NewProcessor returns a processor over the given clippings. A nil index is
// treated as an empty one. A nil builder means bibid.Default().
func NewProcessor(
	cfg Config,
	clippings *kindle.Clippings,
	extractor calibre.MetadataExtractor,
	converter calibre.TextConverter,
	builder *bibid.Builder,
	sinks ...exporters.Sink,
) *Processor {
	if cfg.AnchorWorkers < 1 {
		cfg.AnchorWorkers = DefaultAnchorWorkers
	}
	if clippings == nil {
		clippings, _ = kindle.Parse(nil)
	}
	if builder == nil {
		builder = bibid.Default()
	}
	return &Processor{
		config:    cfg,
		clippings: clippings,
		extractor: extractor,
		converter: converter,
		builder:   builder,
		sinks:     sinks,
	}
}

// Run processes the book files in order. Per-book failures become warnings;
// only cancellation of ctx stops the run early.
func (p *Processor) Run(ctx context.Context, files []string) (Result, error) {
	var total Result
	for _, path := range files {
		if err := ctx.Err(); err != nil {
			return total, err
		}
		result, err := p.ProcessBook(ctx, path)
		total.merge(result)
		if err != nil {
			if ctx.Err() != nil {
				return total, ctx.Err()
			}
			total.warn("%s: %v", path, err)
		}
	}
	return total, nil
}

// ProcessBook runs the pipeline for a single book file. The returned error is
// non-nil only when the book could not be processed at all; partial
// problems are reported as warnings in the result.
func (p *Processor) ProcessBook(ctx context.Context, path string) (Result, error) {
	var result Result

	entry, err := p.Entry(ctx, path, &result)
	if err != nil {
		return result, err
	}

	for _, sink := range p.sinks {
		written, err := sink.Write(ctx, entry)
		if err != nil {
			result.warn("%s: %s sink: %v", entry.CanonicalID, sink.Name(), err)
			continue
		}
		result.AnnotationsWritten += written.Written
		result.AnnotationsSkipped += written.Skipped
		log.Printf("[CLIPS] %s: %s wrote %d, skipped %d", entry.CanonicalID, sink.Name(), written.Written, written.Skipped)
	}

	result.BooksProcessed++
	return result, nil
}

// Entry builds the sink input for one book without writing it anywhere.
func (p *Processor) Entry(ctx context.Context, path string, result *Result) (exporters.Entry, error) {
	identity, err := p.extractor.Extract(ctx, path)
	if err != nil {
		return exporters.Entry{}, fmt.Errorf("failed to read metadata: %w", err)
	}
	if err := identity.Validate(); err != nil {
		result.warn("%s: %v", path, err)
	}

	id := p.builder.ID(identity)
	entry := exporters.Entry{
		CanonicalID: id,
		Identity:    identity,
		BookPath:    path,
	}

	title := identity.Title
	if strings.TrimSpace(title) == "" {
		title = strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	}
	if full, ok := p.clippings.FullTitle(title); ok {
		entry.ClippingsTitle = full
	}
	records := p.clippings.Book(title)
	if len(records) == 0 {
		log.Printf("[CLIPS] %s: no clippings for %q", id, title)
		return entry, nil
	}

	text, err := p.loadText(ctx, path, id)
	if err != nil {
		if ctx.Err() != nil {
			return entry, ctx.Err()
		}
		result.warn("%s: %v", id, err)
	} else {
		entry.TextPath = p.textPath(id)
	}

	anchors, err := p.anchors(ctx, id, text, records, result)
	if err != nil {
		return entry, err
	}

	entry.Items = make([]exporters.Item, len(records))
	for i, r := range records {
		entry.Items[i] = exporters.Item{Record: r, Anchor: anchors[i]}
	}
	return entry, nil
}

func (p *Processor) textPath(id string) string {
	if p.config.TextDir == "" {
		return ""
	}
	return filepath.Join(p.config.TextDir, id+".txt")
}

func (p *Processor) loadText(ctx context.Context, path, id string) (string, error) {
	return calibre.LoadText(ctx, p.converter, path, p.textPath(id))
}

// anchors resolves one anchor per record, in record order. An empty text
// yields no anchors. Running out of the per-book budget leaves the remaining
// anchors empty; cancellation of the parent context is returned.
func (p *Processor) anchors(ctx context.Context, id, text string, records []kindle.Record, result *Result) ([]string, error) {
	anchors := make([]string, len(records))
	if text == "" {
		return anchors, nil
	}

	budget := ctx
	if p.config.AnchorTimeout > 0 {
		var cancel context.CancelFunc
		budget, cancel = context.WithTimeout(ctx, p.config.AnchorTimeout)
		defer cancel()
	}

	haystack := anchor.NewText(text)
	g, gctx := errgroup.WithContext(budget)
	g.SetLimit(p.config.AnchorWorkers)

	for i, r := range records {
		if r.Kind == kindle.KindBookmark || strings.TrimSpace(r.Text) == "" {
			continue
		}
		g.Go(func() error {
			found, ok, err := haystack.FindContext(gctx, r.Text)
			if err != nil {
				return err
			}
			if ok {
				anchors[i] = found
			}
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		result.warn("%s: anchor budget of %s exhausted, some clippings are unanchored", id, p.config.AnchorTimeout)
	}
	return anchors, nil
}
