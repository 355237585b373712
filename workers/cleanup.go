package workers

import (
	"context"
	"log"
	"time"

	"price_radar/models"
	"price_radar/storage"
)

// CleanupWorker prunes archived offers past the retention age so the offers
// table does not grow without bound.
type CleanupWorker struct {
	store     storage.Store
	maxAge    time.Duration
	triggerCh chan struct{}
}

func NewCleanupWorker(store storage.Store, maxAge time.Duration) *CleanupWorker {
	return &CleanupWorker{
		store:     store,
		maxAge:    maxAge,
		triggerCh: make(chan struct{}, 1),
	}
}

// Trigger causes the worker to run immediately.
func (w *CleanupWorker) Trigger() {
	select {
	case w.triggerCh <- struct{}{}:
	default:
	}
}

// Run starts the cleanup loop.
func (w *CleanupWorker) Run(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			log.Println("Cleanup worker stopping")
			return
		case <-ticker.C:
			w.sweep(ctx)
		case <-w.triggerCh:
			log.Println("Cleanup worker triggered manually")
			w.sweep(ctx)
		}
	}
}

func (w *CleanupWorker) sweep(ctx context.Context) {
	deleted, err := w.store.DeleteOffersOlderThan(ctx, models.OfferStatusArchived, w.maxAge)
	if err != nil {
		log.Printf("Cleanup: delete error: %v", err)
		return
	}
	if deleted > 0 {
		log.Printf("Cleanup: deleted %d archived offers older than %s", deleted, w.maxAge)
	}
}
