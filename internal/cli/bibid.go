package cli

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"

	"github.com/mrlokans/bookclips/internal/bibid"
	"github.com/mrlokans/bookclips/internal/calibre"
	"github.com/mrlokans/bookclips/internal/config"
)

// BibIDCommand prints the canonical id, or a BibTeX entry, of each book.
type BibIDCommand struct {
	MetaBin      string
	BibTeX       bool
	KeepSubtitle bool
	MaxWords     int

	Books []string

	extractor calibre.MetadataExtractor
	out       io.Writer
}

func NewBibIDCommand(cfg *config.Config) *BibIDCommand {
	return &BibIDCommand{
		MetaBin:  cfg.Calibre.MetaBin,
		MaxWords: bibid.DefaultMaxWords,
		out:      os.Stdout,
	}
}

func (cmd *BibIDCommand) ParseFlags(args []string) error {
	fs := flag.NewFlagSet("bibid", flag.ExitOnError)

	fs.StringVar(&cmd.MetaBin, "ebook-meta", cmd.MetaBin, "calibre ebook-meta binary")
	fs.BoolVar(&cmd.BibTeX, "bibtex", false, "Print a BibTeX entry instead of the bare id")
	fs.BoolVar(&cmd.KeepSubtitle, "keep-subtitle", false, "Keep the part of the title after a colon")
	fs.IntVar(&cmd.MaxWords, "max-words", cmd.MaxWords, "Maximum number of title words in the id")

	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: %s bibid [options] <book file or directory>...\n\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "Print the canonical id of each book, as in \"cialdini-2006---influence\".\n\n")
		fmt.Fprintf(os.Stderr, "Options:\n")
		fs.PrintDefaults()
	}

	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() == 0 {
		return fmt.Errorf("no book files given")
	}

	books, err := expandBooks(fs.Args())
	if err != nil {
		return err
	}
	cmd.Books = books
	return nil
}

func (cmd *BibIDCommand) Run() error {
	ctx, cancel := signalContext()
	defer cancel()
	return cmd.run(ctx)
}

func (cmd *BibIDCommand) run(ctx context.Context) error {
	extractor := cmd.extractor
	if extractor == nil {
		extractor = calibre.New(cmd.MetaBin, "")
	}
	builder := bibid.NewBuilder(cmd.MaxWords, bibid.DefaultStopWords)
	builder.KeepSubtitle = cmd.KeepSubtitle

	var failed int
	for _, path := range cmd.Books {
		identity, err := extractor.Extract(ctx, path)
		if err != nil {
			fmt.Fprintf(os.Stderr, "[ERROR] %s: %v\n", path, err)
			failed++
			continue
		}
		if err := identity.Validate(); err != nil {
			fmt.Fprintf(os.Stderr, "[WARN] %s: %v\n", path, err)
		}

		if cmd.BibTeX {
			entry, _ := builder.BibTeX(identity)
			fmt.Fprintln(cmd.out, entry)
			continue
		}
		fmt.Fprintf(cmd.out, "%s\t%s\n", builder.ID(identity), path)
	}

	if failed > 0 {
		return fmt.Errorf("%d of %d books could not be read", failed, len(cmd.Books))
	}
	return nil
}
