package models

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// MonitorRun is an execution record for one monitor pipeline run.
type MonitorRun struct {
	ID              int64           `json:"id" db:"id"`
	MonitorID       uuid.UUID       `json:"monitor_id" db:"monitor_id"`
	StartedAt       time.Time       `json:"started_at" db:"started_at"`
	FinishedAt      *time.Time      `json:"finished_at" db:"finished_at"`
	Status          string          `json:"status" db:"status"` // running, completed, failed
	URLsBuilt       int             `json:"urls_built" db:"urls_built"`
	PagesFetched    int             `json:"pages_fetched" db:"pages_fetched"`
	OffersExtracted int             `json:"offers_extracted" db:"offers_extracted"`
	OffersKept      int             `json:"offers_kept" db:"offers_kept"`
	OffersNew       int             `json:"offers_new" db:"offers_new"`
	ErrorMessage    string          `json:"error_message" db:"error_message"`
	Metadata        json.RawMessage `json:"metadata" db:"metadata"`
}

// Run status
const (
	RunStatusRunning   = "running"
	RunStatusCompleted = "completed"
	RunStatusFailed    = "failed"
)
