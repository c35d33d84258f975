package tasks

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/mikestefanello/backlite"

	"github.com/mrlokans/bookclips/internal/clipper"
)

// BookProcessor runs the clippings pipeline for one book file.
type BookProcessor interface {
	ProcessBook(ctx context.Context, path string) (clipper.Result, error)
}

// ProcessorFactory returns a processor over the clippings export at
// clippingsPath as it is now. It is called once per task so that every run
// sees the latest export.
type ProcessorFactory func(ctx context.Context, clippingsPath string) (BookProcessor, error)

// ProcessBookTask re-runs the pipeline for a single book file.
type ProcessBookTask struct {
	BookPath      string `json:"book_path"`
	ClippingsPath string `json:"clippings_path"`
}

func (t ProcessBookTask) Config() backlite.QueueConfig {
	return backlite.QueueConfig{
		Name:        "process_book",
		MaxAttempts: 3,
		Backoff:     30 * time.Second,
		Timeout:     10 * time.Minute,
		Retention: &backlite.Retention{
			Duration:   24 * time.Hour,
			OnlyFailed: false,
			Data:       &backlite.RetainData{OnlyFailed: true},
		},
	}
}

// ProcessBookProcessor creates a processor function for ProcessBookTask.
func ProcessBookProcessor(factory ProcessorFactory) backlite.QueueProcessor[ProcessBookTask] {
	return func(ctx context.Context, task ProcessBookTask) error {
		if factory == nil {
			return fmt.Errorf("processor factory not configured")
		}

		processor, err := factory(ctx, task.ClippingsPath)
		if err != nil {
			return fmt.Errorf("prepare processor for %s: %w", task.BookPath, err)
		}

		result, err := processor.ProcessBook(ctx, task.BookPath)
		if err != nil {
			return fmt.Errorf("process book %s: %w", task.BookPath, err)
		}

		for _, w := range result.Warnings {
			log.Printf("[TASK] %s: warning: %s", task.BookPath, w)
		}
		log.Printf("[TASK] Processed %s: %d written, %d already present",
			task.BookPath, result.AnnotationsWritten, result.AnnotationsSkipped)
		return nil
	}
}

// NewProcessBookQueue creates a backlite queue for book processing tasks.
func NewProcessBookQueue(factory ProcessorFactory) backlite.Queue {
	return backlite.NewQueue(ProcessBookProcessor(factory))
}

// EnqueueBooks adds one ProcessBookTask per book file.
func (c *Client) EnqueueBooks(clippingsPath string, books []string) ([]string, error) {
	if len(books) == 0 {
		return nil, nil
	}
	tasks := make([]backlite.Task, 0, len(books))
	for _, path := range books {
		tasks = append(tasks, ProcessBookTask{BookPath: path, ClippingsPath: clippingsPath})
	}
	ids, err := c.Add(tasks...).Save()
	if err != nil {
		return nil, fmt.Errorf("enqueue %d books: %w", len(books), err)
	}
	return ids, nil
}
