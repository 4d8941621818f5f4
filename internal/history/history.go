// Package history persists one record per restart session so operators
// can answer "when did it last restart, and how did it go" without
// trawling logs. Persistence is best-effort: a write failure never
// changes a session's outcome.
package history

import (
	"context"
	"time"
)

// Record is one completed restart session.
type Record struct {
	ID           int64     `json:"id"`
	StartedAt    time.Time `json:"started_at"`
	FinishedAt   time.Time `json:"finished_at"`
	Outcome      string    `json:"outcome"`
	KillAttempts int       `json:"kill_attempts"`
	PID          int       `json:"pid"`
	Detail       string    `json:"detail,omitempty"` // error text or log excerpt
}

// Store persists session records.
type Store interface {
	EnsureSchema(ctx context.Context) error
	RecordSession(ctx context.Context, rec Record) error
	Recent(ctx context.Context, limit int) ([]Record, error)
	Close() error
}
