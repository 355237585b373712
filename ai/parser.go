package ai

import (
	"context"
	"encoding/json"
	"fmt"
	"log"

	"price_radar/models"
)

const parserSystemPrompt = "You are a precise query parsing assistant. " +
	"Extract structured data from user queries and return ONLY valid JSON. " +
	"No explanations, no markdown, just the JSON object."

const parserMaxTokens = 1024

// Parser turns a natural-language monitor query into a structured one.
type Parser struct {
	completer Completer
}

func NewParser(completer Completer) *Parser {
	return &Parser{completer: completer}
}

// ParseQuery never fails outright: when the model response is unusable, it
// degrades to a query that searches the raw text verbatim, so a monitor can
// always be created.
func (p *Parser) ParseQuery(ctx context.Context, queryText string) (*models.StructuredQuery, error) {
	raw, err := p.completer.Complete(ctx, parserSystemPrompt, buildParsePrompt(queryText), parserMaxTokens)
	if err != nil {
		return nil, fmt.Errorf("query parse completion failed: %w", err)
	}

	var parsed models.StructuredQuery
	if err := json.Unmarshal([]byte(stripCodeFence(raw)), &parsed); err != nil {
		log.Printf("Parser: unusable model response for %q, degrading to literal query: %v", queryText, err)
		return &models.StructuredQuery{Item: queryText, Keywords: []string{queryText}}, nil
	}

	if parsed.Item == "" {
		parsed.Item = queryText
	}
	if canonical := models.NormalizeCondition(parsed.Condition); canonical != "" {
		parsed.Condition = canonical
	}

	return &parsed, nil
}

func buildParsePrompt(queryText string) string {
	return fmt.Sprintf(`Parse the following product search query into structured JSON.

**Query:** %s

**Instructions:**
1. Extract the main product/item being searched
2. Identify brand, model, or specific product details
3. Extract condition: "new", "used", or "refurbished"
4. Extract price constraints (min/max)
5. Extract location preferences
6. Extract shipping preferences
7. Extract any other relevant keywords

**Output format (JSON only, no markdown):**
{
  "item": "Main product description",
  "brand": "Brand name (if mentioned)",
  "model": "Model name (if mentioned)",
  "condition": "new|used|refurbished (if mentioned)",
  "price_min": numeric_value,
  "price_max": numeric_value,
  "location": "Location constraint (if mentioned)",
  "shipping": "local|national|international (if mentioned)",
  "keywords": ["additional", "search", "terms"]
}

**Examples:**

Query: "MacBook Pro M2, nuovo, max 2000€"
{
  "item": "MacBook Pro M2",
  "brand": "Apple",
  "model": "M2",
  "condition": "new",
  "price_max": 2000,
  "keywords": ["MacBook", "Pro", "M2"]
}

Query: "RTX 4080 usata sotto 800 euro"
{
  "item": "RTX 4080",
  "brand": "NVIDIA",
  "model": "4080",
  "condition": "used",
  "price_max": 800,
  "keywords": ["RTX", "4080", "graphics card"]
}

Now parse the query above and return ONLY the JSON object.`, queryText)
}
