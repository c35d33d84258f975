package cli

import (
	"context"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"time"

	"github.com/mrlokans/bookclips/internal/bibid"
	"github.com/mrlokans/bookclips/internal/calibre"
	"github.com/mrlokans/bookclips/internal/clipper"
	"github.com/mrlokans/bookclips/internal/config"
	"github.com/mrlokans/bookclips/internal/database"
	"github.com/mrlokans/bookclips/internal/entities"
	"github.com/mrlokans/bookclips/internal/exporters"
)

// ClipsCommand writes the clippings of the given books to markdown files and
// the database.
type ClipsCommand struct {
	ClippingsPath string
	BackupPath    string
	NoBackup      bool
	OutputDir     string
	TextDir       string
	DatabasePath  string
	Workers       int
	AnchorTimeout time.Duration
	MetaBin       string
	ConvertBin    string
	SkipUnchanged bool
	Verbose       bool

	Books []string
}

func NewClipsCommand(cfg *config.Config) *ClipsCommand {
	return &ClipsCommand{
		ClippingsPath: cfg.Clippings.Path,
		BackupPath:    cfg.Clippings.BackupPath,
		NoBackup:      !cfg.Clippings.Backup,
		OutputDir:     cfg.Output.Dir,
		TextDir:       cfg.Output.TextDir,
		DatabasePath:  cfg.Database.Path,
		Workers:       cfg.Anchor.Workers,
		AnchorTimeout: cfg.Anchor.Timeout,
		MetaBin:       cfg.Calibre.MetaBin,
		ConvertBin:    cfg.Calibre.ConvertBin,
	}
}

// registerClippingsFlags adds the flags shared by commands that read the
// clippings export.
func registerClippingsFlags(fs *flag.FlagSet, clips, backupFile *string, noBackup *bool) {
	fs.StringVar(clips, "clips", *clips, "Path to the Kindle 'My Clippings.txt' file")
	fs.StringVar(backupFile, "backup-file", *backupFile, "File the clippings are backed up to (.xz to compress), read when -clips is missing")
	fs.BoolVar(noBackup, "no-backup", *noBackup, "Do not back up the clippings file")
}

func (cmd *ClipsCommand) registerPipelineFlags(fs *flag.FlagSet) {
	registerClippingsFlags(fs, &cmd.ClippingsPath, &cmd.BackupPath, &cmd.NoBackup)
	fs.StringVar(&cmd.OutputDir, "output", cmd.OutputDir, "Directory for markdown files, empty to disable")
	fs.StringVar(&cmd.TextDir, "text-dir", cmd.TextDir, "Directory for plain-text renditions of the books")
	fs.StringVar(&cmd.DatabasePath, "db", cmd.DatabasePath, "Path to the database, empty to disable")
	fs.IntVar(&cmd.Workers, "workers", cmd.Workers, "Anchors resolved concurrently per book")
	fs.DurationVar(&cmd.AnchorTimeout, "anchor-timeout", cmd.AnchorTimeout, "Time budget for the anchors of one book, 0 for none")
	fs.StringVar(&cmd.MetaBin, "ebook-meta", cmd.MetaBin, "calibre ebook-meta binary")
	fs.StringVar(&cmd.ConvertBin, "ebook-convert", cmd.ConvertBin, "calibre ebook-convert binary")
}

func (cmd *ClipsCommand) ParseFlags(args []string) error {
	fs := flag.NewFlagSet("clips", flag.ExitOnError)

	cmd.registerPipelineFlags(fs)
	fs.BoolVar(&cmd.SkipUnchanged, "skip-unchanged", false, "Do nothing when the clippings file is unchanged since the last successful run (requires -db)")
	fs.BoolVar(&cmd.Verbose, "verbose", false, "Print every warning")

	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: %s [clips] [options] <book file or directory>...\n\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "Write the Kindle clippings of each book to a markdown file named after\n")
		fmt.Fprintf(os.Stderr, "the book's canonical id, linking each clipping to the matching passage\n")
		fmt.Fprintf(os.Stderr, "of the book text. Running it again only appends new clippings.\n\n")
		fmt.Fprintf(os.Stderr, "Options:\n")
		fs.PrintDefaults()
		fmt.Fprintf(os.Stderr, "\nExamples:\n")
		fmt.Fprintf(os.Stderr, "  %s clips -output ~/notes/books ~/Books/influence.mobi\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "  %s clips -clips kindle-clippings.txt.xz -db \"\" ~/Books\n", os.Args[0])
	}

	if err := fs.Parse(args); err != nil {
		return err
	}

	if fs.NArg() == 0 {
		return fmt.Errorf("no book files given")
	}
	if cmd.SkipUnchanged && cmd.DatabasePath == "" {
		return fmt.Errorf("-skip-unchanged requires -db")
	}

	books, err := expandBooks(fs.Args())
	if err != nil {
		return err
	}
	cmd.Books = books
	return nil
}

// newProcessor builds a processor over the given clippings with the
// command's collaborators. Sinks are passed in so that concurrent processors
// can share them.
func (cmd *ClipsCommand) newProcessor(clips *loadedClippings, sinks []exporters.Sink) *clipper.Processor {
	cal := calibre.New(cmd.MetaBin, cmd.ConvertBin)
	return clipper.NewProcessor(
		clipper.Config{
			AnchorWorkers: cmd.Workers,
			AnchorTimeout: cmd.AnchorTimeout,
			TextDir:       cmd.TextDir,
		},
		clips.Index,
		cal,
		cal,
		bibid.Default(),
		sinks...,
	)
}

func (cmd *ClipsCommand) Run() error {
	ctx, cancel := signalContext()
	defer cancel()
	return cmd.run(ctx)
}

func (cmd *ClipsCommand) run(ctx context.Context) error {
	fmt.Println("Kindle Clippings")
	fmt.Println("================")

	clips, err := loadClippings(cmd.ClippingsPath, cmd.BackupPath, !cmd.NoBackup)
	if err != nil {
		return err
	}
	if clips.Path != "" {
		fmt.Printf("Clippings: %s (%d books)\n", clips.Path, clips.Index.Len())
	}

	db, err := openDatabase(cmd.DatabasePath)
	if err != nil {
		return err
	}
	if db != nil {
		defer db.Close()
	}

	if cmd.SkipUnchanged && clips.Path != "" {
		last, err := db.LastCompletedRun(clips.Path)
		if err != nil {
			return fmt.Errorf("failed to look up last run: %w", err)
		}
		if last != nil && last.ClippingsDigest == clips.Digest {
			fmt.Printf("Unchanged since run %s, nothing to do\n", last.ID)
			return nil
		}
	}

	processor := cmd.newProcessor(clips, newSinks(cmd.OutputDir, db))

	var run *entities.ImportRun
	if db != nil {
		run, err = db.StartRun(clips.Path, clips.Digest)
		if err != nil {
			return fmt.Errorf("failed to record run: %w", err)
		}
	}

	fmt.Printf("Processing %d books...\n\n", len(cmd.Books))
	result, runErr := processor.Run(ctx, cmd.Books)

	if run != nil {
		run.BooksProcessed = result.BooksProcessed
		run.AnnotationsWritten = result.AnnotationsWritten
		run.AnnotationsSkipped = result.AnnotationsSkipped
		if err := db.FinishRun(run, result.Warnings, runErr); err != nil {
			log.Printf("[CLIPS] Failed to record run %s: %v", run.ID, err)
		}
	}

	printResult(result, cmd.Verbose)
	printDatabaseStats(os.Stdout, db)
	if runErr != nil {
		return fmt.Errorf("run interrupted: %w", runErr)
	}
	return nil
}

// printDatabaseStats prints the database totals after a run. A nil db
// prints nothing.
func printDatabaseStats(w io.Writer, db *database.Database) {
	if db == nil {
		return
	}
	books, annotations, err := db.GetStats()
	if err != nil {
		log.Printf("[CLIPS] Failed to read database stats: %v", err)
		return
	}
	fmt.Fprintf(w, "Database: %d books, %d annotations\n", books, annotations)
}

func printResult(result clipper.Result, verbose bool) {
	fmt.Println("\n=== Summary ===")
	fmt.Printf("Books processed: %d\n", result.BooksProcessed)
	fmt.Printf("Clippings written: %d\n", result.AnnotationsWritten)
	fmt.Printf("Already present: %d\n", result.AnnotationsSkipped)

	if len(result.Warnings) == 0 {
		return
	}
	fmt.Printf("\n%d warnings\n", len(result.Warnings))
	if verbose {
		for _, w := range result.Warnings {
			fmt.Printf("  [WARN] %s\n", w)
		}
	}
}
