package fetch

import (
	"context"
	"log"
	"sync"
	"time"
)

// Gateway batches page fetches under a process-wide concurrency budget. All
// monitor pipelines share one Gateway, so the budget holds no matter how many
// monitors run at once. Failed URLs are logged and dropped from the result;
// there are no retries, the next scheduled run covers the gap.
type Gateway struct {
	scraper       Scraper
	maxConcurrent int
	batchDelay    time.Duration
	slots         chan struct{}
}

func NewGateway(scraper Scraper, maxConcurrent int, batchDelay time.Duration) *Gateway {
	if maxConcurrent < 1 {
		maxConcurrent = 1
	}
	return &Gateway{
		scraper:       scraper,
		maxConcurrent: maxConcurrent,
		batchDelay:    batchDelay,
		slots:         make(chan struct{}, maxConcurrent),
	}
}

// FetchMany fetches the given URLs in batches of at most maxConcurrent,
// pausing batchDelay between batches. Results keep input order, minus any
// URLs that failed.
func (g *Gateway) FetchMany(ctx context.Context, urls []string) []*Content {
	results := make([]*Content, len(urls))

	for start := 0; start < len(urls); start += g.maxConcurrent {
		end := start + g.maxConcurrent
		if end > len(urls) {
			end = len(urls)
		}

		var wg sync.WaitGroup
		for i := start; i < end; i++ {
			wg.Add(1)
			go func(i int) {
				defer wg.Done()
				results[i] = g.fetchOne(ctx, urls[i])
			}(i)
		}
		wg.Wait()

		if end < len(urls) && g.batchDelay > 0 {
			select {
			case <-ctx.Done():
				return compact(results)
			case <-time.After(g.batchDelay):
			}
		}
	}

	return compact(results)
}

func (g *Gateway) fetchOne(ctx context.Context, url string) *Content {
	select {
	case g.slots <- struct{}{}:
		defer func() { <-g.slots }()
	case <-ctx.Done():
		return nil
	}

	content, err := g.scraper.Fetch(ctx, url)
	if err != nil {
		log.Printf("Fetch: %s failed: %v", url, err)
		return nil
	}
	if content.Markdown == "" {
		log.Printf("Fetch: %s returned empty content, skipping", url)
		return nil
	}
	return content
}

func compact(results []*Content) []*Content {
	out := results[:0]
	for _, r := range results {
		if r != nil {
			out = append(out, r)
		}
	}
	return out
}
