// Package respawn restarts a single long-running chat-bot worker:
// validate the replacement artifact, kill every stale instance, clear
// leftover state, relaunch detached, and verify the newcomer's health.
package respawn

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/teleops/respawn/internal/config"
	"github.com/teleops/respawn/internal/history"
	"github.com/teleops/respawn/internal/history/factory"
	"github.com/teleops/respawn/internal/proctable"
	"github.com/teleops/respawn/internal/session"
)

// Re-export core types for external consumers.
// These are aliases so conversions are zero-cost.

type Config = config.Config

type Session = session.Session

type Outcome = session.Outcome

type SessionRecord = history.Record

const (
	OutcomeOK              = session.OutcomeOK
	OutcomePreflightFailed = session.OutcomePreflightFailed
	OutcomeResidual        = session.OutcomeResidual
	OutcomeLaunchFailed    = session.OutcomeLaunchFailed
	OutcomeDead            = session.OutcomeDead
	OutcomeFatalMarker     = session.OutcomeFatalMarker
)

// DefaultConfig returns the built-in configuration for the reference
// worker.
func DefaultConfig() Config { return config.Default() }

// LoadConfig reads a TOML config file over the defaults and normalizes
// paths. An empty path yields normalized defaults.
func LoadConfig(path string) (Config, error) {
	cfg, err := config.Load(path)
	if err != nil {
		return cfg, err
	}
	if err := cfg.Normalize(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

// Supervisor is a thin facade over the internal session runner, bound
// to the real OS process table.
type Supervisor struct {
	inner *session.Runner
	hist  history.Store
}

// New builds a Supervisor for cfg. The config must be normalized
// (LoadConfig does this). A history store is opened when configured.
func New(cfg Config, log *slog.Logger) (*Supervisor, error) {
	hist, err := factory.New(cfg.History.Type, cfg.History.DSN)
	if err != nil {
		return nil, fmt.Errorf("open history store: %w", err)
	}
	r := session.NewRunner(cfg, proctable.SystemTable{}, log)
	if hist != nil {
		if err := hist.EnsureSchema(context.Background()); err != nil {
			_ = hist.Close()
			return nil, fmt.Errorf("history schema: %w", err)
		}
		r.SetHistory(hist)
	}
	return &Supervisor{inner: r, hist: hist}, nil
}

// SetDryRun walks the sequence without side effects.
func (s *Supervisor) SetDryRun(v bool) { s.inner.DryRun = v }

// Run executes one restart session.
func (s *Supervisor) Run(ctx context.Context) *Session { return s.inner.Run(ctx) }

// History returns the configured history store, or nil when disabled.
func (s *Supervisor) History() history.Store { return s.hist }

// Close releases the history store if one is open.
func (s *Supervisor) Close() error {
	if s.hist == nil {
		return nil
	}
	return s.hist.Close()
}
