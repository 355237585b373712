package fetch

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

const listingPage = `<html><head>
<style>body { color: red }</style>
<script>trackEverything();</script>
</head><body>
<h1>Bici da corsa usata</h1>
<p>Prezzo: 450 €</p>
<img src="/photos/bike.jpg" width="400">
<script>moreTracking();</script>
</body></html>`

func TestDirectClientFetch(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if ua := r.Header.Get("User-Agent"); !strings.Contains(ua, "Mozilla") {
			t.Errorf("unexpected User-Agent %q", ua)
		}
		w.Write([]byte(listingPage))
	}))
	defer srv.Close()

	c := NewDirectClient(srv.Client())
	content, err := c.Fetch(context.Background(), srv.URL+"/listing")
	if err != nil {
		t.Fatalf("Fetch: %v", err)
	}

	if !strings.Contains(content.Markdown, "Bici da corsa usata") {
		t.Errorf("page text missing heading: %q", content.Markdown)
	}
	if strings.Contains(content.Markdown, "trackEverything") {
		t.Errorf("script text leaked into page text: %q", content.Markdown)
	}
	if strings.Contains(content.Markdown, "color: red") {
		t.Errorf("style text leaked into page text: %q", content.Markdown)
	}
	if len(content.Images) != 1 || !strings.HasSuffix(content.Images[0], "/photos/bike.jpg") {
		t.Errorf("images = %v, want the listing photo", content.Images)
	}
}

func TestDirectClientNonOKStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "blocked", http.StatusForbidden)
	}))
	defer srv.Close()

	c := NewDirectClient(srv.Client())
	if _, err := c.Fetch(context.Background(), srv.URL); err == nil {
		t.Fatal("expected error on 403 response")
	}
}
