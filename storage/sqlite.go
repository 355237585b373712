package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	_ "github.com/mattn/go-sqlite3"
	"price_radar/models"
)

// SQLiteStore implements the same Store contract on a local file, for
// single-node and development deployments without Postgres. The UNIQUE index
// on offers.url together with INSERT OR IGNORE keeps dedup atomic here too.
type SQLiteStore struct {
	db *sql.DB
}

func NewSQLiteStore(dbPath string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite3", dbPath+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, err
	}

	store := &SQLiteStore{db: db}
	if err := store.migrate(); err != nil {
		return nil, err
	}

	return store, nil
}

func (s *SQLiteStore) Close() {
	s.db.Close()
}

func (s *SQLiteStore) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS monitors (
		id TEXT PRIMARY KEY,
		user_id TEXT NOT NULL,
		query_text TEXT NOT NULL,
		query_json TEXT NOT NULL DEFAULT '{}',
		status TEXT NOT NULL DEFAULT 'active',
		sites TEXT NOT NULL DEFAULT '[]',
		frequency_minutes INTEGER NOT NULL DEFAULT 30,
		last_run_at DATETIME,
		last_error_at DATETIME,
		last_error_message TEXT NOT NULL DEFAULT '',
		created_at DATETIME DEFAULT CURRENT_TIMESTAMP,
		updated_at DATETIME DEFAULT CURRENT_TIMESTAMP
	);

	CREATE TABLE IF NOT EXISTS offers (
		id TEXT PRIMARY KEY,
		monitor_id TEXT NOT NULL,
		user_id TEXT NOT NULL,
		title TEXT NOT NULL,
		price REAL NOT NULL,
		currency TEXT NOT NULL,
		url TEXT NOT NULL UNIQUE,
		site_name TEXT NOT NULL,
		snippet TEXT NOT NULL DEFAULT '',
		image_url TEXT NOT NULL DEFAULT '',
		condition TEXT NOT NULL DEFAULT '',
		location TEXT NOT NULL DEFAULT '',
		status TEXT NOT NULL DEFAULT 'new',
		found_at DATETIME NOT NULL,
		archived_at DATETIME,
		clicked_at DATETIME,
		FOREIGN KEY (monitor_id) REFERENCES monitors(id)
	);

	CREATE INDEX IF NOT EXISTS idx_offers_monitor ON offers(monitor_id);
	CREATE INDEX IF NOT EXISTS idx_monitors_status ON monitors(status);

	CREATE TABLE IF NOT EXISTS monitor_runs (
		id INTEGER PRIMARY KEY,
		monitor_id TEXT NOT NULL,
		started_at DATETIME,
		finished_at DATETIME,
		status TEXT,
		urls_built INTEGER DEFAULT 0,
		pages_fetched INTEGER DEFAULT 0,
		offers_extracted INTEGER DEFAULT 0,
		offers_kept INTEGER DEFAULT 0,
		offers_new INTEGER DEFAULT 0,
		error_message TEXT DEFAULT '',
		metadata JSON
	);
	`
	_, err := s.db.Exec(schema)
	return err
}

// =============================================================================
// Monitors
// =============================================================================

func (s *SQLiteStore) GetDueMonitors(ctx context.Context, frequencyMinutes int) ([]models.Monitor, error) {
	cutoff := time.Now().Add(-time.Duration(frequencyMinutes) * time.Minute)

	rows, err := s.db.QueryContext(ctx, `
		SELECT id, user_id, query_text, query_json, status, sites, frequency_minutes,
			last_run_at, last_error_at, last_error_message, created_at, updated_at
		FROM monitors
		WHERE status = ? AND frequency_minutes = ?
		  AND (last_run_at IS NULL OR last_run_at <= ?)`,
		models.MonitorStatusActive, frequencyMinutes, cutoff)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var monitors []models.Monitor
	for rows.Next() {
		m, err := s.scanMonitor(rows)
		if err != nil {
			return nil, err
		}
		monitors = append(monitors, *m)
	}
	return monitors, rows.Err()
}

func (s *SQLiteStore) GetMonitorByID(ctx context.Context, id uuid.UUID) (*models.Monitor, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, user_id, query_text, query_json, status, sites, frequency_minutes,
			last_run_at, last_error_at, last_error_message, created_at, updated_at
		FROM monitors WHERE id = ?`, id.String())
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	if !rows.Next() {
		return nil, rows.Err()
	}
	return s.scanMonitor(rows)
}

func (s *SQLiteStore) scanMonitor(rows *sql.Rows) (*models.Monitor, error) {
	var m models.Monitor
	var id, userID, queryJSON, sites string

	if err := rows.Scan(
		&id, &userID, &m.QueryText, &queryJSON, &m.Status, &sites, &m.FrequencyMinutes,
		&m.LastRunAt, &m.LastErrorAt, &m.LastErrorMessage, &m.CreatedAt, &m.UpdatedAt,
	); err != nil {
		return nil, err
	}

	var err error
	if m.ID, err = uuid.Parse(id); err != nil {
		return nil, err
	}
	if m.UserID, err = uuid.Parse(userID); err != nil {
		return nil, err
	}
	if err := json.Unmarshal([]byte(queryJSON), &m.Query); err != nil {
		return nil, err
	}
	if err := json.Unmarshal([]byte(sites), &m.Sites); err != nil {
		return nil, err
	}
	return &m, nil
}

func (s *SQLiteStore) UpdateMonitorRunOutcome(ctx context.Context, id uuid.UUID, success bool, errorMessage string) error {
	now := time.Now()

	var res sql.Result
	var err error
	if success {
		res, err = s.db.ExecContext(ctx, `
			UPDATE monitors SET last_run_at = ?, updated_at = ? WHERE id = ?`,
			now, now, id.String())
	} else {
		if errorMessage == "" {
			errorMessage = "unknown error"
		}
		res, err = s.db.ExecContext(ctx, `
			UPDATE monitors SET last_run_at = ?, last_error_at = ?, last_error_message = ?,
				status = ?, updated_at = ? WHERE id = ?`,
			now, now, errorMessage, models.MonitorStatusError, now, id.String())
	}
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

// =============================================================================
// Offers
// =============================================================================

func (s *SQLiteStore) OfferExistsByURL(ctx context.Context, url string) (bool, error) {
	var exists bool
	err := s.db.QueryRowContext(ctx,
		`SELECT EXISTS (SELECT 1 FROM offers WHERE url = ?)`, url,
	).Scan(&exists)
	return exists, err
}

func (s *SQLiteStore) CreateOffer(ctx context.Context, o *models.Offer) (bool, error) {
	if o.ID == uuid.Nil {
		o.ID = uuid.New()
	}
	if o.FoundAt.IsZero() {
		o.FoundAt = time.Now()
	}
	if o.Status == "" {
		o.Status = models.OfferStatusNew
	}

	res, err := s.db.ExecContext(ctx, `
		INSERT OR IGNORE INTO offers (
			id, monitor_id, user_id, title, price, currency, url, site_name,
			snippet, image_url, condition, location, status, found_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		o.ID.String(), o.MonitorID.String(), o.UserID.String(), o.Title, o.Price, o.Currency,
		o.URL, o.SiteName, o.Snippet, o.ImageURL, o.Condition, o.Location, o.Status, o.FoundAt,
	)
	if err != nil {
		return false, err
	}

	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	if n == 0 {
		var existing string
		if err := s.db.QueryRowContext(ctx,
			`SELECT id FROM offers WHERE url = ?`, o.URL,
		).Scan(&existing); err != nil {
			return false, err
		}
		if o.ID, err = uuid.Parse(existing); err != nil {
			return false, err
		}
		return false, nil
	}
	return true, nil
}

func (s *SQLiteStore) CreateOfferBulk(ctx context.Context, offers []*models.Offer) (*models.BulkResult, error) {
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

func (s *SQLiteStore) CountOffersForMonitor(ctx context.Context, monitorID uuid.UUID) (int, error) {
	var count int
	err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM offers WHERE monitor_id = ?`, monitorID.String(),
	).Scan(&count)
	return count, err
}

func (s *SQLiteStore) DeleteOffersOlderThan(ctx context.Context, status string, age time.Duration) (int64, error) {
	cutoff := time.Now().Add(-age)
	res, err := s.db.ExecContext(ctx,
		`DELETE FROM offers WHERE status = ? AND found_at < ?`, status, cutoff,
	)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

// =============================================================================
// Monitor runs
// =============================================================================

func (s *SQLiteStore) CreateMonitorRun(ctx context.Context, run *models.MonitorRun) error {
	res, err := s.db.ExecContext(ctx, `
		INSERT INTO monitor_runs (monitor_id, started_at, status, urls_built, pages_fetched,
			offers_extracted, offers_kept, offers_new, error_message, metadata)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		run.MonitorID.String(), run.StartedAt, run.Status, run.URLsBuilt, run.PagesFetched,
		run.OffersExtracted, run.OffersKept, run.OffersNew, run.ErrorMessage, string(run.Metadata),
	)
	if err != nil {
		return err
	}
	run.ID, err = res.LastInsertId()
	return err
}

func (s *SQLiteStore) UpdateMonitorRun(ctx context.Context, run *models.MonitorRun) error {
	_, err := s.db.ExecContext(ctx, `
		UPDATE monitor_runs SET
			finished_at = ?, status = ?, urls_built = ?, pages_fetched = ?,
			offers_extracted = ?, offers_kept = ?, offers_new = ?,
			error_message = ?, metadata = ?
		WHERE id = ?`,
		run.FinishedAt, run.Status, run.URLsBuilt, run.PagesFetched,
		run.OffersExtracted, run.OffersKept, run.OffersNew,
		run.ErrorMessage, string(run.Metadata), run.ID,
	)
	return err
}
