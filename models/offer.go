package models

import (
	"time"

	"github.com/google/uuid"
)

// Offer is a listing discovered for a monitor, uniquely keyed by canonical URL
// across the whole store. Created only by the pipeline's persistence step;
// status transitions happen via user actions in the UI layer.
type Offer struct {
	ID         uuid.UUID  `json:"id" db:"id"`
	MonitorID  uuid.UUID  `json:"monitor_id" db:"monitor_id"`
	UserID     uuid.UUID  `json:"user_id" db:"user_id"`
	Title      string     `json:"title" db:"title"`
	Price      float64    `json:"price" db:"price"`
	Currency   string     `json:"currency" db:"currency"`
	URL        string     `json:"url" db:"url"`
	SiteName   string     `json:"site_name" db:"site_name"`
	Snippet    string     `json:"snippet" db:"snippet"`
	ImageURL   string     `json:"image_url" db:"image_url"`
	Condition  string     `json:"condition" db:"condition"`
	Location   string     `json:"location" db:"location"`
	Status     string     `json:"status" db:"status"` // new, archived, clicked
	FoundAt    time.Time  `json:"found_at" db:"found_at"`
	ArchivedAt *time.Time `json:"archived_at" db:"archived_at"`
	ClickedAt  *time.Time `json:"clicked_at" db:"clicked_at"`
}

// Offer status
const (
	OfferStatusNew      = "new"
	OfferStatusArchived = "archived"
	OfferStatusClicked  = "clicked"
)

// ExtractedOffer is the transient shape produced by the extraction engine
// before filtering and persistence.
type ExtractedOffer struct {
	Title     string  `json:"title"`
	Price     float64 `json:"price"`
	Currency  string  `json:"currency"`
	URL       string  `json:"url"`
	Snippet   string  `json:"snippet"`
	Condition string  `json:"condition,omitempty"`
	Location  string  `json:"location,omitempty"`
	ImageURL  string  `json:"imageUrl,omitempty"`
}

// BulkResult reports the outcome of a bulk offer insert.
type BulkResult struct {
	Created int         `json:"created"`
	Total   int         `json:"total"`
	IDs     []uuid.UUID `json:"ids"`
}
