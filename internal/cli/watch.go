package cli

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"sync"
	"time"

	"github.com/mrlokans/bookclips/internal/backup"
	"github.com/mrlokans/bookclips/internal/config"
	"github.com/mrlokans/bookclips/internal/database"
	"github.com/mrlokans/bookclips/internal/kindle"
	"github.com/mrlokans/bookclips/internal/scheduler"
	"github.com/mrlokans/bookclips/internal/tasks"
)

// WatchCommand re-runs the clips pipeline on a schedule until interrupted.
type WatchCommand struct {
	ClipsCommand

	Schedule    string
	TaskWorkers int
	BookArgs    []string
}

func NewWatchCommand(cfg *config.Config) *WatchCommand {
	return &WatchCommand{
		ClipsCommand: *NewClipsCommand(cfg),
		Schedule:     cfg.Watch.Schedule,
		TaskWorkers:  cfg.Tasks.Workers,
	}
}

func (cmd *WatchCommand) ParseFlags(args []string) error {
	fs := flag.NewFlagSet("watch", flag.ExitOnError)

	cmd.registerPipelineFlags(fs)
	fs.StringVar(&cmd.Schedule, "schedule", cmd.Schedule, "Cron schedule of the runs (minute hour day month weekday)")
	fs.IntVar(&cmd.TaskWorkers, "task-workers", cmd.TaskWorkers, "Books processed concurrently")

	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: %s watch [options] <book file or directory>...\n\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "Run the clips command on a schedule. Directories are rescanned on every\n")
		fmt.Fprintf(os.Stderr, "run. A run is skipped when neither the clippings nor the books changed.\n\n")
		fmt.Fprintf(os.Stderr, "Options:\n")
		fs.PrintDefaults()
	}

	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() == 0 {
		return fmt.Errorf("no book files given")
	}
	if cmd.DatabasePath == "" {
		return fmt.Errorf("watch requires -db for its task queue")
	}
	if err := scheduler.ValidateSchedule(cmd.Schedule); err != nil {
		return fmt.Errorf("invalid -schedule %q: %w", cmd.Schedule, err)
	}

	cmd.BookArgs = fs.Args()
	if _, err := expandBooks(cmd.BookArgs); err != nil {
		return err
	}
	return nil
}

func (cmd *WatchCommand) Run() error {
	ctx, cancel := signalContext()
	defer cancel()

	db, err := openDatabase(cmd.DatabasePath)
	if err != nil {
		return err
	}
	defer db.Close()

	taskCfg := tasks.DefaultConfig()
	taskCfg.Workers = cmd.TaskWorkers
	queue, err := tasks.NewClient(cmd.DatabasePath, taskCfg)
	if err != nil {
		return err
	}
	defer queue.Close()

	cache := &clippingsCache{}
	sinks := newSinks(cmd.OutputDir, db)
	queue.Register(tasks.NewProcessBookQueue(func(_ context.Context, clippingsPath string) (tasks.BookProcessor, error) {
		clips, err := cache.load(clippingsPath)
		if err != nil {
			return nil, err
		}
		return cmd.newProcessor(clips, sinks), nil
	}))
	go queue.Start(ctx)

	watch := scheduler.NewWatchScheduler(scheduler.WatchConfig{
		Schedule:      cmd.Schedule,
		ClippingsPath: cmd.ClippingsPath,
		BackupPath:    cmd.BackupPath,
		Backup:        !cmd.NoBackup,
	}, queue, func() ([]string, error) {
		return expandBooks(cmd.BookArgs)
	})

	if _, err := watch.Tick(); err != nil {
		log.Printf("[WATCH] Initial run failed: %v", err)
	}
	if err := watch.Start(ctx); err != nil {
		return err
	}

	fmt.Printf("Watching %s on schedule '%s'. Press Ctrl+C to stop.\n", cmd.ClippingsPath, cmd.Schedule)
	<-ctx.Done()

	watch.Stop()
	stopCtx, stopCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer stopCancel()
	queue.Stop(stopCtx)
	return nil
}

// clippingsCache keeps the last parsed export so that the tasks of one tick
// do not parse the same file once per book.
type clippingsCache struct {
	mu      sync.Mutex
	current *loadedClippings
}

func (c *clippingsCache) load(path string) (*loadedClippings, error) {
	data, err := backup.ReadAll(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read clippings file: %w", err)
	}
	digest := database.Digest(data)

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.current != nil && c.current.Path == path && c.current.Digest == digest {
		return c.current, nil
	}

	index, err := kindle.Parse(data)
	if err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", path, err)
	}
	c.current = &loadedClippings{Path: path, Digest: digest, Index: index}
	return c.current, nil
}
