package postgres

import (
	"context"
	"database/sql"

	_ "github.com/jackc/pgx/v5/stdlib"

	"github.com/teleops/respawn/internal/history"
)

// DB implements history.Store for PostgreSQL via the pgx stdlib driver.
type DB struct {
	db *sql.DB
}

func New(dsn string) (*DB, error) {
	d, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, err
	}
	return &DB{db: d}, nil
}

func (p *DB) EnsureSchema(ctx context.Context) error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS restart_session(
			id BIGSERIAL PRIMARY KEY,
			started_at TIMESTAMPTZ NOT NULL,
			finished_at TIMESTAMPTZ NOT NULL,
			outcome TEXT NOT NULL,
			kill_attempts INTEGER NOT NULL,
			pid INTEGER NOT NULL,
			detail TEXT NULL
		);`,
		`CREATE INDEX IF NOT EXISTS idx_restart_session_started ON restart_session(started_at);`,
		`CREATE INDEX IF NOT EXISTS idx_restart_session_outcome ON restart_session(outcome);`,
	}
	for _, q := range stmts {
		if _, err := p.db.ExecContext(ctx, q); err != nil {
			return err
		}
	}
	return nil
}

func (p *DB) Close() error { return p.db.Close() }

func (p *DB) RecordSession(ctx context.Context, rec history.Record) error {
	var detail any
	if rec.Detail != "" {
		detail = rec.Detail
	}
	_, err := p.db.ExecContext(ctx, `
		INSERT INTO restart_session(started_at, finished_at, outcome, kill_attempts, pid, detail)
		VALUES($1, $2, $3, $4, $5, $6);`,
		rec.StartedAt.UTC(), rec.FinishedAt.UTC(), rec.Outcome, rec.KillAttempts, rec.PID, detail)
	return err
}

func (p *DB) Recent(ctx context.Context, limit int) ([]history.Record, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := p.db.QueryContext(ctx, `
		SELECT id, started_at, finished_at, outcome, kill_attempts, pid, COALESCE(detail, '')
		FROM restart_session ORDER BY id DESC LIMIT $1;`, limit)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()
	var out []history.Record
	for rows.Next() {
		var r history.Record
		if err := rows.Scan(&r.ID, &r.StartedAt, &r.FinishedAt, &r.Outcome, &r.KillAttempts, &r.PID, &r.Detail); err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, rows.Err()
}
