package cli

import (
	"flag"
	"fmt"
	"io"
	"os"

	"github.com/mrlokans/bookclips/internal/config"
	"github.com/mrlokans/bookclips/internal/kindle"
)

// TitlesCommand lists the book titles found in the clippings export, so
// that a title can be matched against the book files.
type TitlesCommand struct {
	ClippingsPath string
	BackupPath    string
	NoBackup      bool
	Verbose       bool

	out io.Writer
}

func NewTitlesCommand(cfg *config.Config) *TitlesCommand {
	return &TitlesCommand{
		ClippingsPath: cfg.Clippings.Path,
		BackupPath:    cfg.Clippings.BackupPath,
		NoBackup:      !cfg.Clippings.Backup,
		out:           os.Stdout,
	}
}

func (cmd *TitlesCommand) ParseFlags(args []string) error {
	fs := flag.NewFlagSet("titles", flag.ExitOnError)

	registerClippingsFlags(fs, &cmd.ClippingsPath, &cmd.BackupPath, &cmd.NoBackup)
	fs.BoolVar(&cmd.Verbose, "verbose", false, "Print record counts per kind and parse statistics")

	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: %s titles [options]\n\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "List the book titles in the clippings file with their clipping counts.\n\n")
		fmt.Fprintf(os.Stderr, "Options:\n")
		fs.PrintDefaults()
	}

	return fs.Parse(args)
}

func (cmd *TitlesCommand) Run() error {
	clips, err := loadClippings(cmd.ClippingsPath, cmd.BackupPath, !cmd.NoBackup)
	if err != nil {
		return err
	}
	printTitles(cmd.out, clips.Index, cmd.Verbose)
	return nil
}

func printTitles(w io.Writer, index *kindle.Clippings, verbose bool) {
	for _, title := range index.Titles() {
		records := index.Book(title)
		if !verbose {
			fmt.Fprintf(w, "%4d  %s\n", len(records), title)
			continue
		}

		var highlights, bookmarks, notes int
		for _, r := range records {
			switch r.Kind {
			case kindle.KindHighlight:
				highlights++
			case kindle.KindBookmark:
				bookmarks++
			}
			if r.Note != "" {
				notes++
			}
		}
		fmt.Fprintf(w, "%4d  %s (%d highlights, %d notes, %d bookmarks)\n",
			len(records), title, highlights, notes, bookmarks)
	}

	if verbose {
		stats := index.Stats()
		fmt.Fprintf(w, "\n%d records, %d skipped, %d unrecognised, %d notes attached, %d unparsed timestamps\n",
			stats.Records, stats.Skipped, stats.UnknownKind, stats.NotesAttached, stats.UnparsedTimestamps)
		for _, problem := range index.Problems() {
			fmt.Fprintf(w, "  skipped %v\n", problem)
		}
	}
}
