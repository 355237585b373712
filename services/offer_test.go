package services

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"price_radar/models"
)

type memStore struct {
	offers map[string]*models.Offer
}

func newMemStore() *memStore {
	return &memStore{offers: make(map[string]*models.Offer)}
}

func (s *memStore) GetDueMonitors(context.Context, int) ([]models.Monitor, error) { return nil, nil }
func (s *memStore) GetMonitorByID(context.Context, uuid.UUID) (*models.Monitor, error) {
	return nil, nil
}
func (s *memStore) UpdateMonitorRunOutcome(context.Context, uuid.UUID, bool, string) error {
	return nil
}

func (s *memStore) OfferExistsByURL(_ context.Context, url string) (bool, error) {
	_, ok := s.offers[url]
	return ok, nil
}

func (s *memStore) CreateOffer(_ context.Context, o *models.Offer) (bool, error) {
	if existing, ok := s.offers[o.URL]; ok {
		o.ID = existing.ID
		return false, nil
	}
	o.ID = uuid.New()
	s.offers[o.URL] = o
	return true, nil
}

func (s *memStore) CreateOfferBulk(ctx context.Context, offers []*models.Offer) (*models.BulkResult, error) {
	result := &models.BulkResult{Total: len(offers)}
	for _, o := range offers {
		created, err := s.CreateOffer(ctx, o)
		if err != nil {
			return result, err
		}
		if created {
			result.Created++
			result.IDs = append(result.IDs, o.ID)
		}
	}
	return result, nil
}

func (s *memStore) CountOffersForMonitor(_ context.Context, monitorID uuid.UUID) (int, error) {
	count := 0
	for _, o := range s.offers {
		if o.MonitorID == monitorID {
			count++
		}
	}
	return count, nil
}

func (s *memStore) DeleteOffersOlderThan(context.Context, string, time.Duration) (int64, error) {
	return 0, nil
}
func (s *memStore) CreateMonitorRun(context.Context, *models.MonitorRun) error { return nil }
func (s *memStore) UpdateMonitorRun(context.Context, *models.MonitorRun) error { return nil }
func (s *memStore) Close()                                                     {}

func testMonitor() *models.Monitor {
	return &models.Monitor{
		ID:     uuid.New(),
		UserID: uuid.New(),
		Query:  models.StructuredQuery{Item: "mountain bike"},
		Status: models.MonitorStatusActive,
	}
}

func TestPersistCanonicalizesAndDedups(t *testing.T) {
	store := newMemStore()
	svc := NewOfferService(store)
	m := testMonitor()

	extracted := models.ExtractedOffer{
		Title: "Rockhopper", Price: 420, Currency: "EUR",
		URL:       "https://WWW.Subito.it/bici/rockhopper-1.htm?utm_source=feed&fbclid=xyz#photos",
		Condition: "Usato",
	}

	created, err := svc.Persist(context.Background(), m, extracted)
	if err != nil {
		t.Fatalf("Persist: %v", err)
	}
	if !created {
		t.Fatal("first persist should create")
	}

	var stored *models.Offer
	for url, o := range store.offers {
		if strings.Contains(url, "utm_source") || strings.Contains(url, "#") {
			t.Errorf("URL not canonicalized: %q", url)
		}
		stored = o
	}
	if stored.SiteName != "subito.it" {
		t.Errorf("SiteName = %q, want derived from host", stored.SiteName)
	}
	if stored.Condition != "used" {
		t.Errorf("Condition = %q, want normalized %q", stored.Condition, "used")
	}

	// Same listing with different tracking params is the same offer.
	extracted.URL = "https://www.subito.it/bici/rockhopper-1.htm?utm_campaign=other"
	created, err = svc.Persist(context.Background(), m, extracted)
	if err != nil {
		t.Fatal(err)
	}
	if created {
		t.Error("second persist should dedup")
	}
	if len(store.offers) != 1 {
		t.Errorf("store has %d offers, want 1", len(store.offers))
	}
}

func TestPersistBatchCountsOnlyNew(t *testing.T) {
	store := newMemStore()
	svc := NewOfferService(store)
	m := testMonitor()

	batch := []models.ExtractedOffer{
		{Title: "A", Price: 10, URL: "https://site/a"},
		{Title: "B", Price: 20, URL: "https://site/b"},
		{Title: "A again", Price: 10, URL: "https://site/a"},
	}

	result, err := svc.PersistBatch(context.Background(), m, batch)
	if err != nil {
		t.Fatalf("PersistBatch: %v", err)
	}
	if result.Total != 3 || result.Created != 2 {
		t.Errorf("result = %+v, want total 3 created 2", result)
	}
	if len(result.IDs) != 2 {
		t.Errorf("IDs = %v", result.IDs)
	}
}

func TestEnsurePlaceholderOnlyWhenEmpty(t *testing.T) {
	store := newMemStore()
	svc := NewOfferService(store)
	m := testMonitor()

	created, err := svc.EnsurePlaceholder(context.Background(), m)
	if err != nil {
		t.Fatalf("EnsurePlaceholder: %v", err)
	}
	if !created {
		t.Fatal("empty monitor should get a placeholder")
	}

	for url, o := range store.offers {
		if !strings.Contains(url, "placeholder.invalid") {
			t.Errorf("placeholder URL = %q", url)
		}
		if o.SiteName != "system" {
			t.Errorf("placeholder SiteName = %q", o.SiteName)
		}
	}

	// Monitor now has an offer: no second placeholder.
	created, err = svc.EnsurePlaceholder(context.Background(), m)
	if err != nil {
		t.Fatal(err)
	}
	if created {
		t.Error("non-empty monitor must not get another placeholder")
	}
	if len(store.offers) != 1 {
		t.Errorf("store has %d offers, want 1", len(store.offers))
	}
}
