package tasks

import "time"

// Config tunes the queue that processes books for the watch command.
type Config struct {
	// Workers is how many books are processed at once.
	Workers int

	// ReleaseAfter hands a claimed book back to the queue when its task has
	// not finished by then, e.g. after a crash mid-conversion.
	ReleaseAfter time.Duration

	// CleanupInterval is how often finished process-book tasks are purged
	// from the tasks database.
	CleanupInterval time.Duration
}

// DefaultConfig processes two books at a time, the TASK_WORKERS default.
func DefaultConfig() Config {
	return Config{
		Workers:         2,
		ReleaseAfter:    15 * time.Minute,
		CleanupInterval: time.Hour,
	}
}
