package engine

import (
	"context"
	"time"

	"gymdesk/internal/domain/workout"
)

// ActiveSession is the server-held view of one in-progress session: the
// session record plus its fixed, ordered exercise logs.
type ActiveSession struct {
	Session workout.Session
	Logs    []workout.ExerciseLog
}

// SessionStore is the engine's view of session persistence. The store is the
// single source of truth across devices; the engine never mutates session id
// or start time locally.
type SessionStore interface {
	// GetActiveSession returns the member's not-yet-completed session, or
	// (nil, nil) when none exists.
	GetActiveSession(ctx context.Context, memberID string) (*ActiveSession, error)

	// StartSession creates a session and its exercise logs in one batch from
	// the plan day's ordered slots.
	StartSession(ctx context.Context, gymID, memberID, planID, dayID string) (ActiveSession, error)

	// StartExercise records the start time of one exercise log.
	StartExercise(ctx context.Context, logID string, at time.Time) error

	// CompleteExercise resolves one exercise log to completed or skipped.
	CompleteExercise(ctx context.Context, logID, status string, at time.Time, durationSeconds int) error

	// CompleteSession marks the session completed with its final duration and
	// returns the summary report. Completing an already-completed session
	// returns the existing report without error.
	CompleteSession(ctx context.Context, sessionID string, totalSeconds int) (workout.Report, error)

	// CancelSession discards an in-progress session without writing
	// completion data for unresolved logs.
	CancelSession(ctx context.Context, sessionID string) error
}

// TimerCache is the durable per-device snapshot surface. Any persistent
// per-device store satisfies this contract; the production implementation is
// a single-slot SQLite table.
type TimerCache interface {
	// Save overwrites the device's current snapshot.
	Save(ctx context.Context, snap workout.TimerSnapshot) error
	// Load returns the device's snapshot only if it belongs to sessionID,
	// else (nil, nil).
	Load(ctx context.Context, deviceID, sessionID string) (*workout.TimerSnapshot, error)
	// Clear removes the device's snapshot.
	Clear(ctx context.Context, deviceID string) error
}
