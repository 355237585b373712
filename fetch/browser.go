package fetch

import (
	"context"
	"fmt"
	"log"
	"strings"
	"sync"
	"time"

	"github.com/playwright-community/playwright-go"
)

const pageLoadTimeout = 30 * time.Second

// BrowserClient is the local fallback Scraper used when no scrape-service key
// is configured. It drives a headless Chromium and returns the page body text
// as markdown-ish plain text plus the rendered HTML's image URLs.
type BrowserClient struct {
	mu          sync.Mutex
	pw          *playwright.Playwright
	browser     playwright.Browser
	initialized bool
}

func NewBrowserClient() *BrowserClient {
	return &BrowserClient{}
}

func (c *BrowserClient) ensureBrowser() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.initialized {
		return nil
	}

	var err error
	c.pw, err = playwright.Run()
	if err != nil {
		return fmt.Errorf("failed to start playwright: %w", err)
	}

	c.browser, err = c.pw.Chromium.Launch(playwright.BrowserTypeLaunchOptions{
		Headless: playwright.Bool(true),
		Args: []string{
			"--disable-blink-features=AutomationControlled",
			"--disable-dev-shm-usage",
			"--no-sandbox",
		},
	})
	if err != nil {
		return fmt.Errorf("failed to launch browser: %w", err)
	}

	c.initialized = true
	return nil
}

func (c *BrowserClient) Fetch(ctx context.Context, pageURL string) (*Content, error) {
	if err := c.ensureBrowser(); err != nil {
		return nil, err
	}

	page, err := c.browser.NewPage()
	if err != nil {
		return nil, fmt.Errorf("failed to open page: %w", err)
	}
	defer page.Close()

	if _, err := page.Goto(pageURL, playwright.PageGotoOptions{
		WaitUntil: playwright.WaitUntilStateDomcontentloaded,
		Timeout:   playwright.Float(float64(pageLoadTimeout.Milliseconds())),
	}); err != nil {
		return nil, fmt.Errorf("navigation failed: %w", err)
	}

	// Give lazy listings a moment to render before reading the DOM.
	page.WaitForTimeout(1500)

	html, err := page.Content()
	if err != nil {
		return nil, fmt.Errorf("failed to read page content: %w", err)
	}

	text, err := page.InnerText("body")
	if err != nil {
		log.Printf("Browser: inner text failed for %s, falling back to raw HTML: %v", pageURL, err)
		text = html
	}

	return &Content{
		URL:      pageURL,
		Markdown: strings.TrimSpace(text),
		Images:   ExtractImageURLs(html, pageURL),
	}, nil
}

func (c *BrowserClient) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.browser != nil {
		c.browser.Close()
		c.browser = nil
	}
	if c.pw != nil {
		c.pw.Stop()
		c.pw = nil
	}
	c.initialized = false
}
