package ai

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"strings"
	"unicode/utf8"

	"price_radar/models"
)

const extractorSystemPrompt = "You are a precise data extraction assistant. " +
	"Extract product listings from marketplace content and return ONLY valid JSON. " +
	"No explanations, no markdown, just the JSON array."

const (
	// Pages can run to hundreds of KB of markdown; the listings are near the
	// top, so the tail is sacrificed to stay well inside the context window.
	maxContentChars = 30000
	truncationMark  = "\n... [truncated]"

	maxImageHints = 20
	maxTitleLen   = 200
	maxSnippetLen = 300

	defaultExtractorMaxTokens = 4096
)

// Extractor pulls structured offers out of fetched page content.
type Extractor struct {
	completer Completer
	maxTokens int
}

func NewExtractor(completer Completer, maxTokens int) *Extractor {
	if maxTokens <= 0 {
		maxTokens = defaultExtractorMaxTokens
	}
	return &Extractor{completer: completer, maxTokens: maxTokens}
}

// ExtractOffers returns the valid offers found in the content. A transport
// failure is an error; a malformed model response is not, it yields an empty
// slice since the next run gets another shot at the same page.
func (e *Extractor) ExtractOffers(ctx context.Context, markdown string, query models.StructuredQuery, sourceURL string, imageURLs []string) ([]models.ExtractedOffer, error) {
	content := markdown
	if len(content) > maxContentChars {
		content = truncate(content, maxContentChars) + truncationMark
	}

	prompt := buildExtractionPrompt(content, query, sourceURL, imageURLs)

	raw, err := e.completer.Complete(ctx, extractorSystemPrompt, prompt, e.maxTokens)
	if err != nil {
		return nil, fmt.Errorf("extraction completion failed: %w", err)
	}

	offers := parseOffers(raw, sourceURL)
	log.Printf("Extractor: %d offers from %s", len(offers), sourceURL)
	return offers, nil
}

func buildExtractionPrompt(content string, query models.StructuredQuery, sourceURL string, imageURLs []string) string {
	var b strings.Builder

	fmt.Fprintf(&b, "Extract product listings from the following marketplace content.\n\n")
	fmt.Fprintf(&b, "**Search Query:** %s\n", query.SearchTerm())

	var filters []string
	if query.PriceMax != nil && *query.PriceMax > 0 {
		filters = append(filters, fmt.Sprintf("- Maximum price: %.0f", *query.PriceMax))
	}
	if query.PriceMin != nil && *query.PriceMin > 0 {
		filters = append(filters, fmt.Sprintf("- Minimum price: %.0f", *query.PriceMin))
	}
	if query.Condition != "" {
		filters = append(filters, "- Condition: "+query.Condition)
	}
	if len(filters) > 0 {
		fmt.Fprintf(&b, "\n**Filters:**\n%s\n", strings.Join(filters, "\n"))
	}

	fmt.Fprintf(&b, "**Source:** %s\n", sourceURL)

	if len(imageURLs) > 0 {
		hints := imageURLs
		if len(hints) > maxImageHints {
			hints = hints[:maxImageHints]
		}
		fmt.Fprintf(&b, "\n**Available Images (%d found):**\n", len(imageURLs))
		for i, u := range hints {
			fmt.Fprintf(&b, "%d. %s\n", i+1, u)
		}
	}

	fmt.Fprintf(&b, `
**Instructions:**
1. Find ALL relevant product listings that match "%s"
2. For each listing, extract:
   - title: Product name/description
   - price: Numeric price value (extract number only)
   - currency: Currency code (e.g., "EUR", "USD")
   - url: Direct product URL (if found, otherwise use source URL)
   - snippet: Brief description (max 150 chars)
   - condition: Product condition if mentioned (e.g., "New", "Used", "Refurbished")
   - location: Seller location if mentioned
   - imageUrl: Match the most relevant image from the available images list above (use the full URL)
3. Return ONLY a JSON array of objects
4. If no listings found, return empty array []
5. Skip sponsored/ads listings
6. Focus on actual product offers

**Content to analyze:**

%s

**Output format (JSON array only, no markdown):**
[
  {
    "title": "Product Name",
    "price": 799.99,
    "currency": "EUR",
    "url": "https://...",
    "snippet": "Brief description...",
    "condition": "Used",
    "location": "Milan, Italy",
    "imageUrl": "https://..."
  }
]`, query.SearchTerm(), content)

	return b.String()
}

// parseOffers tolerates the usual model misbehavior: markdown fences, a bare
// object instead of an array, junk entries. Total garbage yields an empty
// slice.
func parseOffers(raw, sourceURL string) []models.ExtractedOffer {
	jsonText := stripCodeFence(raw)

	var parsed []models.ExtractedOffer
	if err := json.Unmarshal([]byte(jsonText), &parsed); err != nil {
		var single models.ExtractedOffer
		if err2 := json.Unmarshal([]byte(jsonText), &single); err2 != nil {
			log.Printf("Extractor: unusable model response: %v", err)
			return nil
		}
		parsed = []models.ExtractedOffer{single}
	}

	var valid []models.ExtractedOffer
	for _, o := range parsed {
		if strings.TrimSpace(o.Title) == "" || o.Price <= 0 {
			continue
		}
		o.Title = truncate(o.Title, maxTitleLen)
		if o.Currency == "" {
			o.Currency = "EUR"
		}
		if o.URL == "" {
			o.URL = sourceURL
		}
		if o.Snippet == "" {
			o.Snippet = o.Title
		}
		o.Snippet = truncate(o.Snippet, maxSnippetLen)
		valid = append(valid, o)
	}
	return valid
}

// truncate cuts s to at most max bytes without splitting a UTF-8 rune,
// backing off to the previous rune boundary when max lands mid-sequence.
func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	cut := max
	for cut > 0 && !utf8.RuneStart(s[cut]) {
		cut--
	}
	return s[:cut]
}
