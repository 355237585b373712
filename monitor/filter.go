package monitor

import (
	"strings"

	"price_radar/models"
)

// Filter drops extracted offers that violate the query's constraints. It is
// pure: absent query fields never exclude, and an offer that carries no
// condition signal passes the condition check rather than being guessed at.
// An offer that does state a condition must match the required class.
func Filter(offers []models.ExtractedOffer, query models.StructuredQuery) []models.ExtractedOffer {
	var kept []models.ExtractedOffer
	for _, o := range offers {
		if matches(o, query) {
			kept = append(kept, o)
		}
	}
	return kept
}

func matches(o models.ExtractedOffer, query models.StructuredQuery) bool {
	if query.PriceMin != nil && o.Price < *query.PriceMin {
		return false
	}
	if query.PriceMax != nil && o.Price > *query.PriceMax {
		return false
	}

	want := models.NormalizeCondition(query.Condition)
	if want != "" && strings.TrimSpace(o.Condition) != "" {
		// The offer committed to a condition: it must normalize into the
		// required class. Surface forms outside the synonym table count as a
		// mismatch, not as silence.
		if models.NormalizeCondition(o.Condition) != want {
			return false
		}
	}

	return true
}
