package timercache

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"gymdesk/internal/adapters/storage"
	"gymdesk/internal/application/engine"
	"gymdesk/internal/domain/workout"
)

const timeLayout = "2006-01-02T15:04:05Z07:00"

// SQLiteStore is the durable per-device timer snapshot slot. One row per
// device; Save overwrites, so the slot is last-write-wins.
type SQLiteStore struct {
	db storage.SQLDB
}

// Compile-time check that *SQLiteStore satisfies the engine port.
var _ engine.TimerCache = (*SQLiteStore)(nil)

// NewSQLiteStore creates a timer cache store.
func NewSQLiteStore(db storage.SQLDB) *SQLiteStore {
	return &SQLiteStore{db: db}
}

// Save overwrites the device's snapshot.
// PRE: snap has non-empty DeviceID and SessionID
// POST: The device slot holds exactly this snapshot
func (s *SQLiteStore) Save(ctx context.Context, snap workout.TimerSnapshot) error {
	active := 0
	if snap.ExerciseActive {
		active = 1
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO timer_snapshot (device_id, session_id, total_seconds, exercise_seconds, current_index, exercise_active, captured_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)
		 ON CONFLICT(device_id) DO UPDATE SET
		   session_id=excluded.session_id, total_seconds=excluded.total_seconds,
		   exercise_seconds=excluded.exercise_seconds, current_index=excluded.current_index,
		   exercise_active=excluded.exercise_active, captured_at=excluded.captured_at`,
		snap.DeviceID, snap.SessionID, snap.TotalSeconds, snap.ExerciseSeconds,
		snap.CurrentIndex, active, snap.CapturedAt.Format(timeLayout))
	return err
}

// Load returns the device's snapshot only if it belongs to sessionID.
// PRE: deviceID and sessionID are non-empty
// POST: Returns (nil, nil) for a missing slot or a session mismatch
func (s *SQLiteStore) Load(ctx context.Context, deviceID, sessionID string) (*workout.TimerSnapshot, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT device_id, session_id, total_seconds, exercise_seconds, current_index, exercise_active, captured_at
		 FROM timer_snapshot WHERE device_id = ?`, deviceID)

	var snap workout.TimerSnapshot
	var active int
	var capturedAt string
	err := row.Scan(&snap.DeviceID, &snap.SessionID, &snap.TotalSeconds,
		&snap.ExerciseSeconds, &snap.CurrentIndex, &active, &capturedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	snap.ExerciseActive = active != 0
	snap.CapturedAt, err = time.Parse(timeLayout, capturedAt)
	if err != nil {
		return nil, fmt.Errorf("failed to parse captured_at: %w", err)
	}

	if !snap.MatchesSession(sessionID) {
		return nil, nil
	}
	return &snap, nil
}

// Clear removes the device's snapshot.
// PRE: deviceID is non-empty
// POST: No snapshot remains for the device
func (s *SQLiteStore) Clear(ctx context.Context, deviceID string) error {
	_, err := s.db.ExecContext(ctx, "DELETE FROM timer_snapshot WHERE device_id = ?", deviceID)
	return err
}
