package tasks

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/mikestefanello/backlite"
)

// CoverFetcher downloads a remote cover into the local cache. The covers
// cache implements it.
type CoverFetcher interface {
	GetCover(ctx context.Context, bookID uint, coverURL string) (string, error)
}

// PrefetchCoverTask warms the cover cache for one book so the first list
// render after an add doesn't block on the remote image host.
type PrefetchCoverTask struct {
	BookID   uint   `json:"book_id"`
	CoverURL string `json:"cover_url"`
}

// Config returns the queue configuration for cover prefetch tasks.
func (t PrefetchCoverTask) Config() backlite.QueueConfig {
	return backlite.QueueConfig{
		Name:        "prefetch_cover",
		MaxAttempts: 3,
		Backoff:     30 * time.Second,
		Timeout:     1 * time.Minute,
		Retention: &backlite.Retention{
			Duration:   24 * time.Hour,
			OnlyFailed: false,
			Data:       &backlite.RetainData{OnlyFailed: true},
		},
	}
}

// PrefetchCoverProcessor creates a processor function for PrefetchCoverTask.
func PrefetchCoverProcessor(fetcher CoverFetcher) backlite.QueueProcessor[PrefetchCoverTask] {
	return func(ctx context.Context, task PrefetchCoverTask) error {
		if fetcher == nil {
			return fmt.Errorf("cover fetcher not configured")
		}
		if task.CoverURL == "" {
			return nil
		}

		path, err := fetcher.GetCover(ctx, task.BookID, task.CoverURL)
		if err != nil {
			return fmt.Errorf("prefetch cover for book %d: %w", task.BookID, err)
		}

		log.Printf("[TASK] Cached cover for book %d at %s", task.BookID, path)
		return nil
	}
}

// NewPrefetchCoverQueue creates a backlite queue for cover prefetch tasks.
func NewPrefetchCoverQueue(fetcher CoverFetcher) backlite.Queue {
	return backlite.NewQueue(PrefetchCoverProcessor(fetcher))
}
