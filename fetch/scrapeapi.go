package fetch

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"price_radar/config"
)

// ScrapeAPIClient fetches pages through a hosted scrape service that renders
// the page and returns cleaned markdown alongside the raw HTML.
type ScrapeAPIClient struct {
	endpoint string
	apiKey   string
	client   *http.Client
}

func NewScrapeAPIClient(cfg config.ScrapeConfig, client *http.Client) *ScrapeAPIClient {
	return &ScrapeAPIClient{
		endpoint: cfg.Endpoint,
		apiKey:   cfg.APIKey,
		client:   client,
	}
}

type scrapeRequest struct {
	URL     string   `json:"url"`
	Formats []string `json:"formats"`
}

type scrapeResponse struct {
	Success bool `json:"success"`
	Data    struct {
		Markdown string `json:"markdown"`
		HTML     string `json:"html"`
	} `json:"data"`
	Error string `json:"error"`
}

func (c *ScrapeAPIClient) Fetch(ctx context.Context, pageURL string) (*Content, error) {
	if c.apiKey == "" {
		return nil, fmt.Errorf("SCRAPE_API_KEY not set")
	}

	body, err := json.Marshal(scrapeRequest{
		URL:     pageURL,
		Formats: []string{"markdown", "html"},
	})
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("scrape request failed: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read scrape response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("scrape service returned %d: %s", resp.StatusCode, truncateForError(respBody))
	}

	var parsed scrapeResponse
	if err := json.Unmarshal(respBody, &parsed); err != nil {
		return nil, fmt.Errorf("failed to parse scrape response: %w", err)
	}
	if !parsed.Success {
		return nil, fmt.Errorf("scrape service error: %s", parsed.Error)
	}

	return &Content{
		URL:      pageURL,
		Markdown: parsed.Data.Markdown,
		Images:   ExtractImageURLs(parsed.Data.HTML, pageURL),
	}, nil
}

func truncateForError(body []byte) string {
	const max = 200
	if len(body) > max {
		return string(body[:max]) + "..."
	}
	return string(body)
}
