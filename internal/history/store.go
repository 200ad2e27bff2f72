// Package history persists session summaries and feedback events. Writes
// are best-effort: a storage failure is logged and never aborts the live
// session it records.
package history

import (
	"context"
	"time"
)

// Recorder is the persistence collaborator consumed by the session layer.
type Recorder interface {
	// SessionStarted records (or re-records) a session row.
	SessionStarted(ctx context.Context, sessionID string, startedAt time.Time, exerciseType string)
	// ExerciseChanged updates the session's exercise type.
	ExerciseChanged(ctx context.Context, sessionID, exerciseType string)
	// FeedbackGiven appends one coach feedback event.
	FeedbackGiven(ctx context.Context, sessionID, snippet string, at time.Time)
	// SessionFinished closes the session row with its summary metrics.
	SessionFinished(ctx context.Context, sessionID string, endedAt time.Time, summary string, avgWPM, fillerRate, eyeContact float64)
	// Close releases underlying resources.
	Close()
}

// Noop is the Recorder used when no database is configured.
type Noop struct{}

var _ Recorder = Noop{}

func (Noop) SessionStarted(context.Context, string, time.Time, string) {}
func (Noop) ExerciseChanged(context.Context, string, string)           {}
func (Noop) FeedbackGiven(context.Context, string, string, time.Time)  {}
func (Noop) SessionFinished(context.Context, string, time.Time, string, float64, float64, float64) {
}
func (Noop) Close() {}
