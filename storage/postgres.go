package storage

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"price_radar/models"
)

type PostgresStore struct {
	pool *pgxpool.Pool
}

func NewPostgresStore(ctx context.Context, connString string) (*PostgresStore, error) {
	config, err := pgxpool.ParseConfig(connString)
	if err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}

	config.MaxConns = 10
	config.MinConns = 2
	config.MaxConnLifetime = 30 * time.Minute
	config.MaxConnIdleTime = 5 * time.Minute

	pool, err := pgxpool.NewWithConfig(ctx, config)
	if err != nil {
		return nil, fmt.Errorf("create pool: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping: %w", err)
	}

	return &PostgresStore{pool: pool}, nil
}

func (s *PostgresStore) Close() {
	s.pool.Close()
}

func (s *PostgresStore) Pool() *pgxpool.Pool {
	return s.pool
}

// =============================================================================
// Monitors
// =============================================================================

const monitorColumns = `id, user_id, query_text, query_json, status, sites, frequency_minutes,
	last_run_at, last_error_at, last_error_message, created_at, updated_at`

func (s *PostgresStore) GetDueMonitors(ctx context.Context, frequencyMinutes int) ([]models.Monitor, error) {
	query := `
		SELECT ` + monitorColumns + `
		FROM monitors
		WHERE status = $1
		  AND frequency_minutes = $2
		  AND (last_run_at IS NULL OR last_run_at <= $3)
		ORDER BY last_run_at NULLS FIRST`

	cutoff := time.Now().Add(-time.Duration(frequencyMinutes) * time.Minute)
	rows, err := s.pool.Query(ctx, query, models.MonitorStatusActive, frequencyMinutes, cutoff)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var monitors []models.Monitor
	for rows.Next() {
		var m models.Monitor
		if err := scanMonitor(rows, &m); err != nil {
			return nil, err
		}
		monitors = append(monitors, m)
	}
	return monitors, rows.Err()
}

func (s *PostgresStore) GetMonitorByID(ctx context.Context, id uuid.UUID) (*models.Monitor, error) {
	query := `SELECT ` + monitorColumns + ` FROM monitors WHERE id = $1`

	var m models.Monitor
	err := scanMonitor(s.pool.QueryRow(ctx, query, id), &m)
	if err == pgx.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &m, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanMonitor(row rowScanner, m *models.Monitor) error {
	return row.Scan(
		&m.ID, &m.UserID, &m.QueryText, &m.Query, &m.Status, &m.Sites, &m.FrequencyMinutes,
		&m.LastRunAt, &m.LastErrorAt, &m.LastErrorMessage, &m.CreatedAt, &m.UpdatedAt,
	)
}

// UpdateMonitorRunOutcome always bumps last_run_at; a failed run additionally
// records the error and flips the monitor to error status. A successful run
// does not clear last_error_* — the fresh last_run_at alone marks recovery.
func (s *PostgresStore) UpdateMonitorRunOutcome(ctx context.Context, id uuid.UUID, success bool, errorMessage string) error {
	var query string
	var args []any

	if success {
		query = `
			UPDATE monitors
			SET last_run_at = NOW(), updated_at = NOW()
			WHERE id = $1`
		args = []any{id}
	} else {
		if errorMessage == "" {
			errorMessage = "unknown error"
		}
		query = `
			UPDATE monitors
			SET last_run_at = NOW(), last_error_at = NOW(), last_error_message = $2,
				status = $3, updated_at = NOW()
			WHERE id = $1`
		args = []any{id, errorMessage, models.MonitorStatusError}
	}

	tag, err := s.pool.Exec(ctx, query, args...)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// =============================================================================
// Offers
// =============================================================================

func (s *PostgresStore) OfferExistsByURL(ctx context.Context, url string) (bool, error) {
	var exists bool
	err := s.pool.QueryRow(ctx,
		`SELECT EXISTS (SELECT 1 FROM offers WHERE url = $1)`, url,
	).Scan(&exists)
	return exists, err
}

// CreateOffer inserts the offer unless its URL is already known. The
// ON CONFLICT clause makes check-then-insert a single atomic statement, so
// concurrent monitors discovering the same URL cannot race into two rows.
func (s *PostgresStore) CreateOffer(ctx context.Context, o *models.Offer) (bool, error) {
	if o.ID == uuid.Nil {
		o.ID = uuid.New()
	}
	if o.FoundAt.IsZero() {
		o.FoundAt = time.Now()
	}
	if o.Status == "" {
		o.Status = models.OfferStatusNew
	}

	query := `
		INSERT INTO offers (
			id, monitor_id, user_id, title, price, currency, url, site_name,
			snippet, image_url, condition, location, status, found_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)
		ON CONFLICT (url) DO NOTHING
		RETURNING id`

	err := s.pool.QueryRow(ctx, query,
		o.ID, o.MonitorID, o.UserID, o.Title, o.Price, o.Currency, o.URL, o.SiteName,
		o.Snippet, o.ImageURL, o.Condition, o.Location, o.Status, o.FoundAt,
	).Scan(&o.ID)

	if err == pgx.ErrNoRows {
		// Conflict: hand back the existing identity.
		if err := s.pool.QueryRow(ctx,
			`SELECT id FROM offers WHERE url = $1`, o.URL,
		).Scan(&o.ID); err != nil {
			return false, err
		}
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

func (s *PostgresStore) CreateOfferBulk(ctx context.Context, offers []*models.Offer) (*models.BulkResult, error) {
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

func (s *PostgresStore) CountOffersForMonitor(ctx context.Context, monitorID uuid.UUID) (int, error) {
	var count int
	err := s.pool.QueryRow(ctx,
		`SELECT COUNT(*) FROM offers WHERE monitor_id = $1`, monitorID,
	).Scan(&count)
	return count, err
}

func (s *PostgresStore) DeleteOffersOlderThan(ctx context.Context, status string, age time.Duration) (int64, error) {
	cutoff := time.Now().Add(-age)
	tag, err := s.pool.Exec(ctx,
		`DELETE FROM offers WHERE status = $1 AND found_at < $2`, status, cutoff,
	)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}

// =============================================================================
// Monitor runs
// =============================================================================

func (s *PostgresStore) CreateMonitorRun(ctx context.Context, run *models.MonitorRun) error {
	query := `
		INSERT INTO monitor_runs (monitor_id, started_at, status, urls_built, pages_fetched,
			offers_extracted, offers_kept, offers_new, error_message, metadata)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		RETURNING id`

	return s.pool.QueryRow(ctx, query,
		run.MonitorID, run.StartedAt, run.Status, run.URLsBuilt, run.PagesFetched,
		run.OffersExtracted, run.OffersKept, run.OffersNew, run.ErrorMessage, run.Metadata,
	).Scan(&run.ID)
}

func (s *PostgresStore) UpdateMonitorRun(ctx context.Context, run *models.MonitorRun) error {
	query := `
		UPDATE monitor_runs SET
			finished_at = $2, status = $3, urls_built = $4, pages_fetched = $5,
			offers_extracted = $6, offers_kept = $7, offers_new = $8,
			error_message = $9, metadata = $10
		WHERE id = $1`

	_, err := s.pool.Exec(ctx, query,
		run.ID, run.FinishedAt, run.Status, run.URLsBuilt, run.PagesFetched,
		run.OffersExtracted, run.OffersKept, run.OffersNew, run.ErrorMessage, run.Metadata,
	)
	return err
}
