package httputil

import (
	"net/http"
	"net/url"
	"os"
	"time"
)

// Clients separates outbound traffic by destination: target marketplace pages
// get a short timeout and optional proxy, service APIs (scrape service, LLM,
// store) get a longer direct client. LLM calls can take a while on large
// extractions, hence the generous AI timeout.
type Clients struct {
	Scraping *http.Client // target sites / browser downloads
	API      *http.Client // scrape service, store
	AI       *http.Client // chat-completions endpoint
}

func NewClients() *Clients {
	scraping := &http.Client{
		Timeout: 15 * time.Second,
		CheckRedirect: func(req *http.Request, via []*http.Request) error {
			return http.ErrUseLastResponse
		},
	}

	if proxy := os.Getenv("SCRAPE_PROXY_URL"); proxy != "" {
		if proxyURL, err := url.Parse(proxy); err == nil {
			scraping.Transport = &http.Transport{Proxy: http.ProxyURL(proxyURL)}
		}
	}

	return &Clients{
		Scraping: scraping,
		API:      &http.Client{Timeout: 60 * time.Second},
		AI:       &http.Client{Timeout: 120 * time.Second},
	}
}
