package history

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
)

// Schema is the DDL for the sessions and session_events tables. Applied
// idempotently on startup via [PostgresRecorder.Migrate].
const Schema = `
CREATE TABLE IF NOT EXISTS sessions (
    session_id    TEXT PRIMARY KEY,
    started_at    TIMESTAMPTZ NOT NULL,
    ended_at      TIMESTAMPTZ,
    exercise_type TEXT,
    summary       TEXT,
    avg_wpm       DOUBLE PRECISION,
    filler_rate   DOUBLE PRECISION,
    eye_contact   DOUBLE PRECISION
);
CREATE TABLE IF NOT EXISTS session_events (
    id         BIGSERIAL PRIMARY KEY,
    session_id TEXT NOT NULL,
    event_type TEXT NOT NULL,
    created_at TIMESTAMPTZ NOT NULL,
    payload    TEXT
);
CREATE INDEX IF NOT EXISTS idx_session_events_session ON session_events(session_id);
`

// PostgresRecorder is a [Recorder] backed by a pgx connection pool.
type PostgresRecorder struct {
	pool *pgxpool.Pool
}

var _ Recorder = (*PostgresRecorder)(nil)

// NewPostgresRecorder connects to the given database URL and ensures the
// schema exists.
func NewPostgresRecorder(ctx context.Context, databaseURL string) (*PostgresRecorder, error) {
	pool, err := pgxpool.New(ctx, databaseURL)
	if err != nil {
		return nil, fmt.Errorf("history: connect: %w", err)
	}
	r := &PostgresRecorder{pool: pool}
	if err := r.Migrate(ctx); err != nil {
		pool.Close()
		return nil, err
	}
	return r, nil
}

// Migrate executes the [Schema] DDL.
func (r *PostgresRecorder) Migrate(ctx context.Context) error {
	if _, err := r.pool.Exec(ctx, Schema); err != nil {
		return fmt.Errorf("history: migrate: %w", err)
	}
	return nil
}

func (r *PostgresRecorder) SessionStarted(ctx context.Context, sessionID string, startedAt time.Time, exerciseType string) {
	const query = `
		INSERT INTO sessions (session_id, started_at, exercise_type)
		VALUES ($1, $2, $3)
		ON CONFLICT (session_id) DO UPDATE
		SET started_at = EXCLUDED.started_at, exercise_type = EXCLUDED.exercise_type`
	if _, err := r.pool.Exec(ctx, query, sessionID, startedAt, exerciseType); err != nil {
		log.Printf("[history] session start write failed: %v", err)
	}
}

func (r *PostgresRecorder) ExerciseChanged(ctx context.Context, sessionID, exerciseType string) {
	const query = `UPDATE sessions SET exercise_type = $1 WHERE session_id = $2`
	if _, err := r.pool.Exec(ctx, query, exerciseType, sessionID); err != nil {
		log.Printf("[history] exercise write failed: %v", err)
	}
}

func (r *PostgresRecorder) FeedbackGiven(ctx context.Context, sessionID, snippet string, at time.Time) {
	const query = `
		INSERT INTO session_events (session_id, event_type, created_at, payload)
		VALUES ($1, 'feedback', $2, $3)`
	if _, err := r.pool.Exec(ctx, query, sessionID, at, snippet); err != nil {
		log.Printf("[history] feedback write failed: %v", err)
	}
}

func (r *PostgresRecorder) SessionFinished(ctx context.Context, sessionID string, endedAt time.Time, summary string, avgWPM, fillerRate, eyeContact float64) {
	const query = `
		UPDATE sessions
		SET ended_at = $1, summary = $2, avg_wpm = $3, filler_rate = $4, eye_contact = $5
		WHERE session_id = $6`
	if _, err := r.pool.Exec(ctx, query, endedAt, summary, avgWPM, fillerRate, eyeContact, sessionID); err != nil {
		log.Printf("[history] session finish write failed: %v", err)
	}
}

// Ping reports database reachability for health checks.
func (r *PostgresRecorder) Ping(ctx context.Context) error {
	return r.pool.Ping(ctx)
}

func (r *PostgresRecorder) Close() {
	r.pool.Close()
}
