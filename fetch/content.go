package fetch

import "context"

// Content is a fetched page reduced to what the extractor needs: cleaned
// markdown plus any image URLs discovered in the raw HTML.
type Content struct {
	URL      string
	Markdown string
	Images   []string
}

// Scraper turns one URL into page content. Implementations: the remote scrape
// API client and the local headless-browser fallback.
type Scraper interface {
	Fetch(ctx context.Context, url string) (*Content, error)
}
