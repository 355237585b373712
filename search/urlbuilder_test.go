package search

import (
	"net/url"
	"strings"
	"testing"

	"price_radar/config"
	"price_radar/models"
)

func testSites() map[string]*config.SiteConfig {
	return map[string]*config.SiteConfig{
		"ebay": {
			ID:             "ebay",
			Name:           "eBay",
			BaseURL:        "https://www.ebay.it/sch/i.html",
			QueryParam:     "_nkw",
			PriceMaxParam:  "_udhi",
			ConditionParam: "LH_ItemCondition",
			ConditionCodes: map[string]string{
				"new":         "1000",
				"used":        "3000",
				"refurbished": "2500",
			},
		},
		"amazon": {
			ID:               "amazon",
			Name:             "Amazon",
			BaseURL:          "https://www.amazon.it/s",
			QueryParam:       "k",
			PriceMaxParam:    "rh",
			PriceMaxTemplate: "p_36:0-%d",
			PriceMaxScale:    100,
		},
		"subito": {
			ID:         "subito",
			Name:       "Subito",
			BaseURL:    "https://www.subito.it/annunci-italia/vendita/usato/",
			QueryParam: "q",
		},
	}
}

func floatPtr(f float64) *float64 { return &f }

func TestBuildEbayURL(t *testing.T) {
	b := NewBuilder(testSites())

	raw, ok := b.Build("ebay", models.StructuredQuery{
		Item:      "mountain bike",
		Condition: "usato",
		PriceMax:  floatPtr(350),
	})
	if !ok {
		t.Fatal("ebay should be a known site")
	}

	u, err := url.Parse(raw)
	if err != nil {
		t.Fatalf("built URL does not parse: %v", err)
	}
	q := u.Query()

	if got := q.Get("_nkw"); got != "mountain bike" {
		t.Errorf("_nkw = %q, want %q", got, "mountain bike")
	}
	if got := q.Get("_udhi"); got != "350" {
		t.Errorf("_udhi = %q, want %q", got, "350")
	}
	if got := q.Get("LH_ItemCondition"); got != "3000" {
		t.Errorf("LH_ItemCondition = %q, want %q", got, "3000")
	}
}

func TestBuildPrefersBrandAndModel(t *testing.T) {
	b := NewBuilder(testSites())

	raw, _ := b.Build("subito", models.StructuredQuery{
		Item:  "bike",
		Brand: "Specialized",
		Model: "Rockhopper",
	})

	u, _ := url.Parse(raw)
	if got := u.Query().Get("q"); got != "Specialized Rockhopper" {
		t.Errorf("q = %q, want %q", got, "Specialized Rockhopper")
	}
}

func TestBuildAmazonScalesPriceToCents(t *testing.T) {
	b := NewBuilder(testSites())

	raw, _ := b.Build("amazon", models.StructuredQuery{
		Item:     "laptop",
		PriceMax: floatPtr(499.99),
	})

	u, _ := url.Parse(raw)
	if got := u.Query().Get("rh"); got != "p_36:0-49999" {
		t.Errorf("rh = %q, want %q", got, "p_36:0-49999")
	}
}

func TestBuildUnknownConditionOmitsParam(t *testing.T) {
	b := NewBuilder(testSites())

	raw, _ := b.Build("ebay", models.StructuredQuery{
		Item:      "camera",
		Condition: "mint-ish",
	})

	if strings.Contains(raw, "LH_ItemCondition") {
		t.Errorf("unknown condition should not set LH_ItemCondition: %s", raw)
	}
}

func TestBuildAllSkipsUnknownSites(t *testing.T) {
	b := NewBuilder(testSites())

	urls := b.BuildAll([]string{"ebay", "craigslist", "subito"}, models.StructuredQuery{Item: "desk"})
	if len(urls) != 2 {
		t.Fatalf("got %d urls, want 2 (unknown site skipped)", len(urls))
	}
	if !strings.HasPrefix(urls[0], "https://www.ebay.it/") {
		t.Errorf("first url should be ebay, got %s", urls[0])
	}
	if !strings.HasPrefix(urls[1], "https://www.subito.it/") {
		t.Errorf("second url should be subito, got %s", urls[1])
	}
}
