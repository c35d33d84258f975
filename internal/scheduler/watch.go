package scheduler

import (
	"context"
	"fmt"
	"log"
	"slices"
	"sync"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/mrlokans/bookclips/internal/backup"
	"github.com/mrlokans/bookclips/internal/database"
)

const DefaultSchedule = "*/30 * * * *"

var parser = cron.NewParser(cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow)

// ValidateSchedule checks a five-field cron expression.
func ValidateSchedule(schedule string) error {
	_, err := parser.Parse(schedule)
	return err
}

// NextRun returns the first time after now the schedule fires.
func NextRun(schedule string, now time.Time) (time.Time, error) {
	sched, err := parser.Parse(schedule)
	if err != nil {
		return time.Time{}, err
	}
	return sched.Next(now), nil
}

// Enqueuer queues one processing task per book file.
type Enqueuer interface {
	EnqueueBooks(clippingsPath string, books []string) ([]string, error)
}

// BookLister returns the book files to process. It is called on every tick
// so that new files are picked up.
type BookLister func() ([]string, error)

type WatchConfig struct {
	Schedule      string
	ClippingsPath string
	BackupPath    string
	Backup        bool
}

// WatchScheduler re-runs the pipeline on a cron schedule. A tick that sees
// the same clippings export and the same book files as the previous one
// enqueues nothing.
type WatchScheduler struct {
	config   WatchConfig
	enqueuer Enqueuer
	books    BookLister

	cron    *cron.Cron
	entryID cron.EntryID

	mu         sync.Mutex
	isRunning  bool
	lastDigest string
	lastBooks  []string
}

func NewWatchScheduler(cfg WatchConfig, enqueuer Enqueuer, books BookLister) *WatchScheduler {
	if cfg.Schedule == "" {
		cfg.Schedule = DefaultSchedule
	}
	return &WatchScheduler{
		config:   cfg,
		enqueuer: enqueuer,
		books:    books,
		cron:     cron.New(cron.WithParser(parser)),
	}
}

// Start schedules the watch job. It stops by itself when ctx is done.
func (s *WatchScheduler) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.isRunning {
		return nil
	}
	if err := ValidateSchedule(s.config.Schedule); err != nil {
		return fmt.Errorf("invalid cron schedule '%s': %w", s.config.Schedule, err)
	}

	entryID, err := s.cron.AddFunc(s.config.Schedule, func() {
		if _, err := s.Tick(); err != nil {
			log.Printf("[WATCH] Tick failed: %v", err)
		}
	})
	if err != nil {
		return fmt.Errorf("failed to schedule watch job: %w", err)
	}
	s.entryID = entryID

	s.cron.Start()
	s.isRunning = true

	next, _ := NextRun(s.config.Schedule, time.Now())
	log.Printf("[WATCH] Started with schedule '%s'. Next run: %v", s.config.Schedule, next)

	go func() {
		<-ctx.Done()
		s.Stop()
	}()

	return nil
}

// Stop waits for a running tick to finish and stops the schedule.
func (s *WatchScheduler) Stop() {
	s.mu.Lock()
	if !s.isRunning {
		s.mu.Unlock()
		return
	}
	s.isRunning = false
	s.mu.Unlock()

	<-s.cron.Stop().Done()
	log.Printf("[WATCH] Stopped")
}

func (s *WatchScheduler) IsRunning() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.isRunning
}

// Tick checks the export and the book files once and enqueues a task per
// book when either changed. It returns how many tasks were enqueued.
func (s *WatchScheduler) Tick() (int, error) {
	clippingsPath, err := backup.Resolve(s.config.ClippingsPath, s.config.BackupPath, s.config.Backup)
	if err != nil {
		return 0, err
	}
	data, err := backup.ReadAll(clippingsPath)
	if err != nil {
		return 0, fmt.Errorf("failed to read %s: %w", clippingsPath, err)
	}
	digest := database.Digest(data)

	books, err := s.books()
	if err != nil {
		return 0, fmt.Errorf("failed to list books: %w", err)
	}
	books = slices.Clone(books)
	slices.Sort(books)

	s.mu.Lock()
	unchanged := digest == s.lastDigest && slices.Equal(books, s.lastBooks)
	s.mu.Unlock()
	if unchanged {
		log.Printf("[WATCH] %s unchanged, nothing to do", clippingsPath)
		return 0, nil
	}

	ids, err := s.enqueuer.EnqueueBooks(clippingsPath, books)
	if err != nil {
		return 0, err
	}

	s.mu.Lock()
	s.lastDigest = digest
	s.lastBooks = books
	s.mu.Unlock()

	log.Printf("[WATCH] Enqueued %d books from %s", len(ids), clippingsPath)
	return len(ids), nil
}
