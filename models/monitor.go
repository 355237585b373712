package models

import (
	"time"

	"github.com/google/uuid"
)

// Monitor is a saved search: the user's free-text query, its structured
// interpretation, and the run cadence. Created and mutated by the user-facing
// layer; the pipeline only updates run timestamps and error state.
type Monitor struct {
	ID               uuid.UUID       `json:"id" db:"id"`
	UserID           uuid.UUID       `json:"user_id" db:"user_id"`
	QueryText        string          `json:"query_text" db:"query_text"`
	Query            StructuredQuery `json:"query_json" db:"query_json"`
	Status           string          `json:"status" db:"status"` // active, paused, error
	Sites            []string        `json:"sites" db:"sites"`
	FrequencyMinutes int             `json:"frequency_minutes" db:"frequency_minutes"`
	LastRunAt        *time.Time      `json:"last_run_at" db:"last_run_at"`
	LastErrorAt      *time.Time      `json:"last_error_at" db:"last_error_at"`
	LastErrorMessage string          `json:"last_error_message" db:"last_error_message"`
	CreatedAt        time.Time       `json:"created_at" db:"created_at"`
	UpdatedAt        time.Time       `json:"updated_at" db:"updated_at"`
}

// Monitor status
const (
	MonitorStatusActive = "active"
	MonitorStatusPaused = "paused"
	MonitorStatusError  = "error"
)

// Due reports whether the monitor should run now given its frequency.
// A monitor that has never run is always due.
func (m *Monitor) Due(now time.Time) bool {
	if m.LastRunAt == nil {
		return true
	}
	return now.Sub(*m.LastRunAt) >= time.Duration(m.FrequencyMinutes)*time.Minute
}
