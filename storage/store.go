package storage

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"price_radar/models"
)

// ErrNotFound is returned when a requested monitor or offer does not exist.
var ErrNotFound = errors.New("not found")

// Store is the CRUD contract the pipeline consumes. Users, plans and monitor
// creation live behind it; the pipeline only selects due monitors, records
// run outcomes, and inserts deduplicated offers.
type Store interface {
	// Monitors
	GetDueMonitors(ctx context.Context, frequencyMinutes int) ([]models.Monitor, error)
	GetMonitorByID(ctx context.Context, id uuid.UUID) (*models.Monitor, error)
	UpdateMonitorRunOutcome(ctx context.Context, id uuid.UUID, success bool, errorMessage string) error

	// Offers. CreateOffer is the atomic dedup boundary: when an offer with the
	// same canonical URL exists, it returns created=false and fills o.ID with
	// the existing identity, without writing.
	OfferExistsByURL(ctx context.Context, url string) (bool, error)
	CreateOffer(ctx context.Context, o *models.Offer) (created bool, err error)
	CreateOfferBulk(ctx context.Context, offers []*models.Offer) (*models.BulkResult, error)
	CountOffersForMonitor(ctx context.Context, monitorID uuid.UUID) (int, error)
	DeleteOffersOlderThan(ctx context.Context, status string, age time.Duration) (int64, error)

	// Run records
	CreateMonitorRun(ctx context.Context, run *models.MonitorRun) error
	UpdateMonitorRun(ctx context.Context, run *models.MonitorRun) error

	Close()
}
