package monitor

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"price_radar/fetch"
	"price_radar/models"
	"price_radar/search"
	"price_radar/services"
	"price_radar/storage"
)

var (
	// ErrNotActive rejects runs against paused or errored monitors.
	ErrNotActive = errors.New("monitor is not active")
	// ErrNoContent means every page fetch for the run failed, so there is
	// nothing to extract from and the run counts as failed.
	ErrNoContent = errors.New("no content fetched")
)

// Fetcher and ExtractorClient are the pipeline's seams to fetch and ai, kept
// as interfaces so tests can count calls without network.
type Fetcher interface {
	FetchMany(ctx context.Context, urls []string) []*fetch.Content
}

type ExtractorClient interface {
	ExtractOffers(ctx context.Context, markdown string, query models.StructuredQuery, sourceURL string, imageURLs []string) ([]models.ExtractedOffer, error)
}

// RunStats summarizes one monitor run.
type RunStats struct {
	URLsBuilt       int
	PagesFetched    int
	OffersExtracted int
	OffersKept      int
	OffersNew       int
}

// Pipeline executes a single monitor end to end: build search URLs, fetch
// pages, extract offers, filter, persist. One Pipeline is shared by all
// monitors; per-run state lives on the stack.
type Pipeline struct {
	builder   *search.Builder
	fetcher   Fetcher
	extractor ExtractorClient
	offers    *services.OfferService
	store     storage.Store
}

func NewPipeline(builder *search.Builder, fetcher Fetcher, extractor ExtractorClient, offers *services.OfferService, store storage.Store) *Pipeline {
	return &Pipeline{
		builder:   builder,
		fetcher:   fetcher,
		extractor: extractor,
		offers:    offers,
		store:     store,
	}
}

// Run executes the monitor once. The returned stats are valid even on error,
// reflecting how far the run got. Run records are best-effort: a failure to
// write one is logged, never fatal to the run itself.
func (p *Pipeline) Run(ctx context.Context, m *models.Monitor) (*RunStats, error) {
	stats := &RunStats{}

	if m.Status != models.MonitorStatusActive {
		return stats, fmt.Errorf("%w: monitor %s is %s", ErrNotActive, m.ID, m.Status)
	}

	run := p.startRun(ctx, m)

	urls := p.builder.BuildAll(m.Sites, m.Query)
	stats.URLsBuilt = len(urls)
	if len(urls) == 0 {
		err := fmt.Errorf("%w: no search URLs for sites %v", ErrNoContent, m.Sites)
		p.finishRun(ctx, run, stats, err)
		return stats, err
	}

	contents := p.fetcher.FetchMany(ctx, urls)
	stats.PagesFetched = len(contents)
	if len(contents) == 0 {
		err := fmt.Errorf("%w: all %d fetches failed", ErrNoContent, len(urls))
		p.finishRun(ctx, run, stats, err)
		return stats, err
	}

	var kept []models.ExtractedOffer
	for _, content := range contents {
		extracted, err := p.extractor.ExtractOffers(ctx, content.Markdown, m.Query, content.URL, content.Images)
		if err != nil {
			p.finishRun(ctx, run, stats, err)
			return stats, fmt.Errorf("extract from %s: %w", content.URL, err)
		}
		stats.OffersExtracted += len(extracted)
		kept = append(kept, Filter(extracted, m.Query)...)
	}
	stats.OffersKept = len(kept)

	result, err := p.offers.PersistBatch(ctx, m, kept)
	if result != nil {
		stats.OffersNew = result.Created
	}
	if err != nil {
		p.finishRun(ctx, run, stats, err)
		return stats, err
	}

	// Zero kept offers on a monitor with nothing stored means no coverage at
	// all; surface that. Kept-but-deduplicated offers are real coverage and
	// never trigger the placeholder.
	if len(kept) == 0 {
		if _, err := p.offers.EnsurePlaceholder(ctx, m); err != nil {
			log.Printf("Pipeline: placeholder for monitor %s failed: %v", m.ID, err)
		}
	}

	p.finishRun(ctx, run, stats, nil)
	log.Printf("Pipeline: monitor %s done: %d urls, %d pages, %d extracted, %d kept, %d new",
		m.ID, stats.URLsBuilt, stats.PagesFetched, stats.OffersExtracted, stats.OffersKept, stats.OffersNew)
	return stats, nil
}

func (p *Pipeline) startRun(ctx context.Context, m *models.Monitor) *models.MonitorRun {
	run := &models.MonitorRun{
		MonitorID: m.ID,
		StartedAt: time.Now(),
		Status:    models.RunStatusRunning,
	}
	if err := p.store.CreateMonitorRun(ctx, run); err != nil {
		log.Printf("Pipeline: failed to record run start for monitor %s: %v", m.ID, err)
		return nil
	}
	return run
}

func (p *Pipeline) finishRun(ctx context.Context, run *models.MonitorRun, stats *RunStats, runErr error) {
	if run == nil {
		return
	}

	now := time.Now()
	run.FinishedAt = &now
	run.URLsBuilt = stats.URLsBuilt
	run.PagesFetched = stats.PagesFetched
	run.OffersExtracted = stats.OffersExtracted
	run.OffersKept = stats.OffersKept
	run.OffersNew = stats.OffersNew

	if runErr != nil {
		run.Status = models.RunStatusFailed
		run.ErrorMessage = runErr.Error()
	} else {
		run.Status = models.RunStatusCompleted
	}

	if err := p.store.UpdateMonitorRun(ctx, run); err != nil {
		log.Printf("Pipeline: failed to record run finish for monitor %s: %v", run.MonitorID, err)
	}
}
