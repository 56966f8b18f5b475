package workout

import (
	"errors"
	"time"
)

// Exercise log status constants. The lifecycle is forward-only:
// pending -> completed or pending -> skipped. A log that has left pending
// never returns to it.
const (
	StatusPending   = "pending"
	StatusCompleted = "completed"
	StatusSkipped   = "skipped"
)

// Domain errors
var (
	ErrNoMember          = errors.New("session must be associated with a member")
	ErrNoStartTime       = errors.New("session start time must be set")
	ErrAlreadyResolved   = errors.New("exercise log is already resolved")
	ErrInvalidLogStatus  = errors.New("status must be completed or skipped")
	ErrNegativeDuration  = errors.New("duration cannot be negative")
	ErrSessionCompleted  = errors.New("session is already completed")
	ErrEmptyExerciseList = errors.New("session must have at least one exercise")
)

// Session is one continuous workout-execution attempt, bounded by start and
// completion or cancellation. ID and StartTime are server-assigned on
// creation and never mutated afterwards.
type Session struct {
	ID           string
	GymID        string
	MemberID     string
	PlanID       string
	DayID        string
	StartTime    time.Time
	Completed    bool
	TotalSeconds int // set once on completion
	CreatedAt    time.Time
}

// Validate checks if the Session has valid data.
// PRE: Session struct is populated
// POST: Returns nil if valid, error otherwise
func (s *Session) Validate() error {
	if s.MemberID == "" {
		return ErrNoMember
	}
	if s.StartTime.IsZero() {
		return ErrNoStartTime
	}
	return nil
}

// MarkCompleted records the terminal completion of the session.
// PRE: Session is not completed
// POST: Completed is true and TotalSeconds is set
func (s *Session) MarkCompleted(totalSeconds int) error {
	if s.Completed {
		return ErrSessionCompleted
	}
	if totalSeconds < 0 {
		return ErrNegativeDuration
	}
	s.Completed = true
	s.TotalSeconds = totalSeconds
	return nil
}

// ExerciseLog is the per-exercise record of progress within a session.
// Logs are created in one batch alongside the session and hold a fixed
// position in the ordered sequence.
type ExerciseLog struct {
	ID              string
	SessionID       string
	ExerciseID      string
	Position        int
	Status          string
	StartTime       time.Time
	EndTime         time.Time
	DurationSeconds int
}

// IsResolved returns true once the log has left pending.
// INVARIANT: ExerciseLog fields are not mutated
func (l *ExerciseLog) IsResolved() bool {
	return l.Status == StatusCompleted || l.Status == StatusSkipped
}

// Start records the moment the exercise began. Starting does not change
// Status — a started-but-unresolved exercise is still pending on the wire,
// the "active" notion lives only in the execution engine.
// PRE: log is pending
// POST: StartTime is set
func (l *ExerciseLog) Start(at time.Time) error {
	if l.IsResolved() {
		return ErrAlreadyResolved
	}
	l.StartTime = at
	return nil
}

// Resolve transitions the log to completed or skipped, recording end time
// and elapsed duration.
// PRE: log is pending, status is completed or skipped
// POST: Status, EndTime and DurationSeconds are set; transition is terminal
func (l *ExerciseLog) Resolve(status string, at time.Time, durationSeconds int) error {
	if l.IsResolved() {
		return ErrAlreadyResolved
	}
	if status != StatusCompleted && status != StatusSkipped {
		return ErrInvalidLogStatus
	}
	if durationSeconds < 0 {
		return ErrNegativeDuration
	}
	l.Status = status
	l.EndTime = at
	l.DurationSeconds = durationSeconds
	return nil
}

// Reopen reverts a resolved log to pending, discarding end time and
// duration. Used only to roll back a resolution the store rejected — the
// elapsed seconds are preserved by the caller, not here.
func (l *ExerciseLog) Reopen() {
	l.Status = StatusPending
	l.EndTime = time.Time{}
	l.DurationSeconds = 0
}

// FirstPendingIndex returns the position of the first pending log, or -1 if
// every log is resolved.
// PRE: logs are ordered by Position
func FirstPendingIndex(logs []ExerciseLog) int {
	for i := range logs {
		if !logs[i].IsResolved() {
			return i
		}
	}
	return -1
}
