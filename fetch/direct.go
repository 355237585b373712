package fetch

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

const directMaxBodyBytes = 4 << 20

// DirectClient fetches marketplace pages with plain GET requests, no
// rendering. Cheaper than the scrape service or a headless browser, but only
// works on sites that serve listings in the initial HTML. The injected client
// carries the proxy and redirect policy for target-site traffic.
type DirectClient struct {
	client *http.Client
}

func NewDirectClient(client *http.Client) *DirectClient {
	return &DirectClient{client: client}
}

func (c *DirectClient) Fetch(ctx context.Context, pageURL string) (*Content, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, pageURL, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("User-Agent", "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36")
	req.Header.Set("Accept", "text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8")
	req.Header.Set("Accept-Language", "en-US,en;q=0.9")

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("direct fetch failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("direct fetch returned %d for %s", resp.StatusCode, pageURL)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, directMaxBodyBytes))
	if err != nil {
		return nil, fmt.Errorf("failed to read page body: %w", err)
	}

	html := string(body)
	return &Content{
		URL:      pageURL,
		Markdown: pageText(html),
		Images:   ExtractImageURLs(html, pageURL),
	}, nil
}

// pageText strips markup down to visible text. Not real markdown, but the
// extractor only needs readable listing text.
func pageText(html string) string {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return ""
	}
	doc.Find("script, style, noscript").Remove()

	body := doc.Find("body")
	if body.Length() == 0 {
		return strings.TrimSpace(doc.Text())
	}

	var lines []string
	for _, line := range strings.Split(body.Text(), "\n") {
		if line = strings.TrimSpace(line); line != "" {
			lines = append(lines, line)
		}
	}
	return strings.Join(lines, "\n")
}
