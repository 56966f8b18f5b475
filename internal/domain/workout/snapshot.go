package workout

import "time"

// TimerSnapshot is the durable per-device copy of in-progress timer state.
// It is superseded by every write and discarded entirely when its session
// completes or is cancelled. CapturedAt must always reflect the wall-clock
// time of the last write — it is used to compute elapsed time missed while
// the device was away, never trusted as an absolute duration on its own.
type TimerSnapshot struct {
	DeviceID        string
	SessionID       string
	TotalSeconds    int
	ExerciseSeconds int
	CurrentIndex    int
	ExerciseActive  bool
	CapturedAt      time.Time
}

// MatchesSession returns true if the snapshot belongs to the given session.
// Snapshots for a different or completed session are never applied.
func (s *TimerSnapshot) MatchesSession(sessionID string) bool {
	return sessionID != "" && s.SessionID == sessionID
}
