package services

import (
	"context"
	"fmt"
	"log"
	"net/url"
	"strings"
	"time"

	"price_radar/identity"
	"price_radar/models"
	"price_radar/storage"
)

// placeholderHost is a reserved-by-RFC host, so placeholder offers can never
// collide with a real listing URL and re-runs dedup against the same row.
const placeholderHost = "placeholder.invalid"

// OfferService is the write path for offers. Canonicalization happens here so
// every caller deduplicates on the same URL form.
type OfferService struct {
	store storage.Store
}

func NewOfferService(store storage.Store) *OfferService {
	return &OfferService{store: store}
}

// Persist canonicalizes the offer URL and writes it through the store's atomic
// dedup insert. created is false when the URL was already known.
func (s *OfferService) Persist(ctx context.Context, m *models.Monitor, extracted models.ExtractedOffer) (bool, error) {
	offer := s.toOffer(m, extracted)
	created, err := s.store.CreateOffer(ctx, offer)
	if err != nil {
		return false, fmt.Errorf("persist offer %q: %w", offer.URL, err)
	}
	return created, nil
}

// PersistBatch writes a run's kept offers and reports how many were new.
func (s *OfferService) PersistBatch(ctx context.Context, m *models.Monitor, extracted []models.ExtractedOffer) (*models.BulkResult, error) {
	offers := make([]*models.Offer, 0, len(extracted))
	for _, e := range extracted {
		offers = append(offers, s.toOffer(m, e))
	}

	result, err := s.store.CreateOfferBulk(ctx, offers)
	if err != nil {
		return result, fmt.Errorf("persist offer batch: %w", err)
	}
	return result, nil
}

// EnsurePlaceholder creates one diagnostic offer for a monitor that finished a
// run with nothing new and nothing stored, so the user sees the monitor ran
// instead of a silently empty list. The fixed URL makes re-runs a dedup no-op.
func (s *OfferService) EnsurePlaceholder(ctx context.Context, m *models.Monitor) (bool, error) {
	count, err := s.store.CountOffersForMonitor(ctx, m.ID)
	if err != nil {
		return false, fmt.Errorf("count offers for monitor %s: %w", m.ID, err)
	}
	if count > 0 {
		return false, nil
	}

	created, err := s.store.CreateOffer(ctx, &models.Offer{
		MonitorID: m.ID,
		UserID:    m.UserID,
		Title:     fmt.Sprintf("No offers found yet for %q", m.Query.SearchTerm()),
		Price:     0.01,
		Currency:  "EUR",
		URL:       fmt.Sprintf("https://%s/monitors/%s", placeholderHost, m.ID),
		SiteName:  "system",
		Snippet:   "The monitor ran but no matching listings were found. It will keep checking on schedule.",
		Status:    models.OfferStatusNew,
		FoundAt:   time.Now(),
	})
	if err != nil {
		return false, fmt.Errorf("create placeholder offer: %w", err)
	}
	if created {
		log.Printf("Offers: placeholder created for monitor %s", m.ID)
	}
	return created, nil
}

func (s *OfferService) toOffer(m *models.Monitor, e models.ExtractedOffer) *models.Offer {
	canonical := identity.CanonicalURL(e.URL)
	return &models.Offer{
		MonitorID: m.ID,
		UserID:    m.UserID,
		Title:     e.Title,
		Price:     e.Price,
		Currency:  e.Currency,
		URL:       canonical,
		SiteName:  siteNameFromURL(canonical),
		Snippet:   e.Snippet,
		ImageURL:  e.ImageURL,
		Condition: models.NormalizeCondition(e.Condition),
		Location:  e.Location,
		Status:    models.OfferStatusNew,
		FoundAt:   time.Now(),
	}
}

func siteNameFromURL(raw string) string {
	u, err := url.Parse(raw)
	if err != nil || u.Host == "" {
		return "unknown"
	}
	return strings.TrimPrefix(u.Host, "www.")
}
