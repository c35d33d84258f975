package interfaces

// Compile-time checks that the concrete types satisfy the interfaces they
// are wired through.

import (
	"github.com/mrlokans/bookclips/internal/calibre"
	"github.com/mrlokans/bookclips/internal/clipper"
	"github.com/mrlokans/bookclips/internal/exporters"
	"github.com/mrlokans/bookclips/internal/scheduler"
	"github.com/mrlokans/bookclips/internal/tasks"
)

// Book collaborators
var (
	_ calibre.MetadataExtractor = (*calibre.Calibre)(nil)
	_ calibre.TextConverter     = (*calibre.Calibre)(nil)
)

// Sinks
var (
	_ exporters.Sink = (*exporters.Markdown)(nil)
	_ exporters.Sink = (*exporters.DatabaseSink)(nil)
)

// Watch
var (
	_ tasks.BookProcessor = (*clipper.Processor)(nil)
	_ scheduler.Enqueuer  = (*tasks.Client)(nil)
)
