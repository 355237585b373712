package models

// StructuredQuery is the normalized constraint set derived from a user's
// free-text query. Produced by the AI query parser, embedded in a Monitor,
// and consumed by URL building and offer filtering. Treated as immutable.
type StructuredQuery struct {
	Item      string   `json:"item"`
	Brand     string   `json:"brand,omitempty"`
	Model     string   `json:"model,omitempty"`
	Condition string   `json:"condition,omitempty"` // new, used, refurbished
	PriceMin  *float64 `json:"price_min,omitempty"`
	PriceMax  *float64 `json:"price_max,omitempty"`
	Location  string   `json:"location,omitempty"`
	Shipping  string   `json:"shipping,omitempty"` // local, national, international
	Keywords  []string `json:"keywords,omitempty"`
}

// SearchTerm is the text sent to a site's search box: brand + model when both
// are known, otherwise the plain item description.
func (q *StructuredQuery) SearchTerm() string {
	if q.Brand != "" && q.Model != "" {
		return q.Brand + " " + q.Model
	}
	return q.Item
}
