package search

import (
	"fmt"
	"net/url"
	"strings"

	"price_radar/config"
	"price_radar/models"
)

// Builder turns a structured query into per-site search URLs using the YAML
// site registry. Sites a monitor names that have no registry entry are
// skipped, not failed: one bad site name should not sink the whole run.
type Builder struct {
	sites map[string]*config.SiteConfig
}

func NewBuilder(sites map[string]*config.SiteConfig) *Builder {
	return &Builder{sites: sites}
}

// BuildAll returns one search URL per known site, in the order the monitor
// listed them.
func (b *Builder) BuildAll(siteIDs []string, query models.StructuredQuery) []string {
	var urls []string
	for _, id := range siteIDs {
		if u, ok := b.Build(id, query); ok {
			urls = append(urls, u)
		}
	}
	return urls
}

// Build constructs the search URL for a single site. ok is false when the
// site is not in the registry.
func (b *Builder) Build(siteID string, query models.StructuredQuery) (string, bool) {
	site, ok := b.sites[strings.ToLower(strings.TrimSpace(siteID))]
	if !ok {
		return "", false
	}

	params := url.Values{}
	params.Set(site.QueryParam, query.SearchTerm())

	for k, v := range site.FixedParams {
		params.Set(k, v)
	}

	if query.PriceMax != nil && *query.PriceMax > 0 && site.PriceMaxParam != "" {
		params.Set(site.PriceMaxParam, formatPriceMax(site, *query.PriceMax))
	}

	if site.ConditionParam != "" {
		canonical := models.NormalizeCondition(query.Condition)
		if code, ok := site.ConditionCodes[canonical]; ok && code != "" {
			params.Set(site.ConditionParam, code)
		}
	}

	return site.BaseURL + "?" + params.Encode(), true
}

func formatPriceMax(site *config.SiteConfig, priceMax float64) string {
	if site.PriceMaxScale > 1 {
		scaled := int(priceMax * float64(site.PriceMaxScale))
		if site.PriceMaxTemplate != "" {
			return fmt.Sprintf(site.PriceMaxTemplate, scaled)
		}
		return fmt.Sprintf("%d", scaled)
	}
	if site.PriceMaxTemplate != "" {
		return fmt.Sprintf(site.PriceMaxTemplate, int(priceMax))
	}
	return strings.TrimRight(strings.TrimRight(fmt.Sprintf("%.2f", priceMax), "0"), ".")
}
