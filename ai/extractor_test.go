package ai

import (
	"context"
	"errors"
	"strings"
	"testing"
	"unicode/utf8"

	"price_radar/models"
)

const offersJSON = `[
	{"title": "Specialized Rockhopper 29", "price": 420, "currency": "EUR",
	 "url": "https://www.subito.it/sports/rockhopper-123.htm",
	 "snippet": "Ottime condizioni", "condition": "Used", "location": "Milano"},
	{"title": "Trek Marlin 7", "price": 390,
	 "snippet": ""},
	{"title": "", "price": 100},
	{"title": "Free bike frame", "price": 0}
]`

func TestExtractOffers(t *testing.T) {
	completer := &fakeCompleter{response: offersJSON}
	e := NewExtractor(completer, 0)

	offers, err := e.ExtractOffers(context.Background(), "page markdown",
		models.StructuredQuery{Item: "mountain bike"},
		"https://www.subito.it/search?q=mountain+bike", nil)
	if err != nil {
		t.Fatalf("ExtractOffers: %v", err)
	}

	if len(offers) != 2 {
		t.Fatalf("got %d offers, want 2 (empty title and zero price dropped)", len(offers))
	}

	first := offers[0]
	if first.Title != "Specialized Rockhopper 29" || first.Price != 420 {
		t.Errorf("first offer = %+v", first)
	}

	second := offers[1]
	if second.Currency != "EUR" {
		t.Errorf("missing currency should default to EUR, got %q", second.Currency)
	}
	if second.URL != "https://www.subito.it/search?q=mountain+bike" {
		t.Errorf("missing URL should fall back to source URL, got %q", second.URL)
	}
	if second.Snippet != second.Title {
		t.Errorf("empty snippet should fall back to title, got %q", second.Snippet)
	}
}

func TestExtractOffersFencedAndBareEquivalent(t *testing.T) {
	bare := &fakeCompleter{response: offersJSON}
	fenced := &fakeCompleter{response: "```json\n" + offersJSON + "\n```"}

	q := models.StructuredQuery{Item: "bike"}
	a, err := NewExtractor(bare, 0).ExtractOffers(context.Background(), "md", q, "https://s", nil)
	if err != nil {
		t.Fatal(err)
	}
	b, err := NewExtractor(fenced, 0).ExtractOffers(context.Background(), "md", q, "https://s", nil)
	if err != nil {
		t.Fatal(err)
	}

	if len(a) != len(b) {
		t.Fatalf("fenced and bare responses diverge: %d vs %d offers", len(a), len(b))
	}
	for i := range a {
		if a[i] != b[i] {
			t.Errorf("offer %d differs: %+v vs %+v", i, a[i], b[i])
		}
	}
}

func TestExtractOffersGarbageYieldsEmpty(t *testing.T) {
	completer := &fakeCompleter{response: "Sorry, I can't find any listings here."}
	e := NewExtractor(completer, 0)

	offers, err := e.ExtractOffers(context.Background(), "md",
		models.StructuredQuery{Item: "bike"}, "https://s", nil)
	if err != nil {
		t.Fatalf("malformed response must not be an error: %v", err)
	}
	if len(offers) != 0 {
		t.Errorf("got %d offers from garbage, want 0", len(offers))
	}
}

func TestExtractOffersTransportErrorPropagates(t *testing.T) {
	completer := &fakeCompleter{err: errors.New("connection refused")}
	e := NewExtractor(completer, 0)

	if _, err := e.ExtractOffers(context.Background(), "md",
		models.StructuredQuery{Item: "bike"}, "https://s", nil); err == nil {
		t.Fatal("expected transport error to propagate")
	}
}

func TestExtractOffersTruncatesLongContent(t *testing.T) {
	completer := &fakeCompleter{response: "[]"}
	e := NewExtractor(completer, 0)

	long := strings.Repeat("x", maxContentChars+5000)
	_, err := e.ExtractOffers(context.Background(), long,
		models.StructuredQuery{Item: "bike"}, "https://s", nil)
	if err != nil {
		t.Fatal(err)
	}

	if !strings.Contains(completer.lastUser, truncationMark) {
		t.Error("long content should carry the truncation marker")
	}
	if strings.Count(completer.lastUser, "x") > maxContentChars {
		t.Error("content was not truncated")
	}
}

func TestExtractOffersClampsFields(t *testing.T) {
	longTitle := strings.Repeat("t", 500)
	longSnippet := strings.Repeat("s", 500)
	completer := &fakeCompleter{response: `[{"title": "` + longTitle + `", "price": 10, "snippet": "` + longSnippet + `"}]`}
	e := NewExtractor(completer, 0)

	offers, err := e.ExtractOffers(context.Background(), "md",
		models.StructuredQuery{Item: "bike"}, "https://s", nil)
	if err != nil {
		t.Fatal(err)
	}
	if len(offers) != 1 {
		t.Fatalf("got %d offers", len(offers))
	}
	if len(offers[0].Title) != maxTitleLen {
		t.Errorf("title length = %d, want %d", len(offers[0].Title), maxTitleLen)
	}
	if len(offers[0].Snippet) != maxSnippetLen {
		t.Errorf("snippet length = %d, want %d", len(offers[0].Snippet), maxSnippetLen)
	}
}

func TestExtractOffersTruncationKeepsValidUTF8(t *testing.T) {
	// Clamp boundaries landing mid-rune must back off, not emit a broken byte.
	title := strings.Repeat("a", maxTitleLen-1) + "é"
	completer := &fakeCompleter{response: `[{"title": "` + title + `", "price": 10}]`}
	e := NewExtractor(completer, 0)

	offers, err := e.ExtractOffers(context.Background(), strings.Repeat("è", maxContentChars),
		models.StructuredQuery{Item: "bike"}, "https://s", nil)
	if err != nil {
		t.Fatal(err)
	}

	if !utf8.ValidString(completer.lastUser) {
		t.Error("truncated prompt content is not valid UTF-8")
	}
	if len(offers) != 1 {
		t.Fatalf("got %d offers", len(offers))
	}
	if !utf8.ValidString(offers[0].Title) {
		t.Errorf("clamped title is not valid UTF-8: %q", offers[0].Title)
	}
	if len(offers[0].Title) > maxTitleLen {
		t.Errorf("title length = %d, want <= %d", len(offers[0].Title), maxTitleLen)
	}
}

func TestExtractOffersMaxTokens(t *testing.T) {
	completer := &fakeCompleter{response: "[]"}
	e := NewExtractor(completer, 2048)

	if _, err := e.ExtractOffers(context.Background(), "md",
		models.StructuredQuery{Item: "bike"}, "https://s", nil); err != nil {
		t.Fatal(err)
	}
	if completer.lastMaxTokens != 2048 {
		t.Errorf("max tokens = %d, want 2048", completer.lastMaxTokens)
	}

	completer = &fakeCompleter{response: "[]"}
	e = NewExtractor(completer, 0)
	if _, err := e.ExtractOffers(context.Background(), "md",
		models.StructuredQuery{Item: "bike"}, "https://s", nil); err != nil {
		t.Fatal(err)
	}
	if completer.lastMaxTokens != defaultExtractorMaxTokens {
		t.Errorf("max tokens = %d, want default %d", completer.lastMaxTokens, defaultExtractorMaxTokens)
	}
}

func TestExtractOffersImageHintsCapped(t *testing.T) {
	completer := &fakeCompleter{response: "[]"}
	e := NewExtractor(completer, 0)

	var images []string
	for i := 0; i < 30; i++ {
		images = append(images, "https://cdn/img"+strings.Repeat("x", i)+".jpg")
	}

	_, err := e.ExtractOffers(context.Background(), "md",
		models.StructuredQuery{Item: "bike"}, "https://s", images)
	if err != nil {
		t.Fatal(err)
	}

	if strings.Contains(completer.lastUser, "21. ") {
		t.Error("prompt should list at most 20 image hints")
	}
	if !strings.Contains(completer.lastUser, "20. ") {
		t.Error("prompt should list the 20th image hint")
	}
}
