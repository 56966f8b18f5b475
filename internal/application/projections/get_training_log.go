package projections

import (
	"context"
	"time"

	"gymdesk/internal/application/engine"
	"gymdesk/internal/domain/member"
	"gymdesk/internal/domain/workout"
)

// TrainingLogSessionStore defines the session store interface needed by the
// training log projection.
type TrainingLogSessionStore interface {
	ListCompleted(ctx context.Context, memberID string, limit, offset int) ([]engine.ActiveSession, error)
}

// TrainingLogMemberStore defines the member store interface needed by the
// training log projection.
type TrainingLogMemberStore interface {
	GetByID(ctx context.Context, id string) (member.Member, error)
}

// GetTrainingLogQuery carries input for the training log projection.
type GetTrainingLogQuery struct {
	MemberID string
	Limit    int
	Offset   int
}

// GetTrainingLogDeps holds dependencies for the training log projection.
type GetTrainingLogDeps struct {
	SessionStore TrainingLogSessionStore
	MemberStore  TrainingLogMemberStore
	Now          func() time.Time
}

// TrainingLogEntry represents a single completed session in the training log.
type TrainingLogEntry struct {
	SessionID      string
	Date           string // YYYY-MM-DD
	StartedAt      string // HH:MM
	PlanID         string
	DayID          string
	TotalSeconds   int
	ExercisesDone  int
	ExercisesSkip  int
	ExercisesTotal int
}

// TrainingLogResult carries the output of the training log projection.
type TrainingLogResult struct {
	MemberID      string
	MemberName    string
	TotalSessions int
	TotalSeconds  int
	CurrentStreak int    // consecutive weeks with at least one completed session
	LastWorkout   string // date of most recent completed session
	Entries       []TrainingLogEntry
}

// QueryGetTrainingLog computes the training log for a member from their
// completed workout sessions.
func QueryGetTrainingLog(ctx context.Context, query GetTrainingLogQuery, deps GetTrainingLogDeps) (TrainingLogResult, error) {
	m, err := deps.MemberStore.GetByID(ctx, query.MemberID)
	if err != nil {
		return TrainingLogResult{}, err
	}

	sessions, err := deps.SessionStore.ListCompleted(ctx, query.MemberID, query.Limit, query.Offset)
	if err != nil {
		return TrainingLogResult{}, err
	}

	result := TrainingLogResult{
		MemberID:   m.ID,
		MemberName: m.Name,
	}

	if len(sessions) == 0 {
		return result, nil
	}

	entries := make([]TrainingLogEntry, 0, len(sessions))
	totalSeconds := 0
	for _, s := range sessions {
		entry := TrainingLogEntry{
			SessionID:      s.Session.ID,
			Date:           s.Session.StartTime.Format("2006-01-02"),
			StartedAt:      s.Session.StartTime.Format("15:04"),
			PlanID:         s.Session.PlanID,
			DayID:          s.Session.DayID,
			TotalSeconds:   s.Session.TotalSeconds,
			ExercisesTotal: len(s.Logs),
		}
		for _, log := range s.Logs {
			switch log.Status {
			case workout.StatusCompleted:
				entry.ExercisesDone++
			case workout.StatusSkipped:
				entry.ExercisesSkip++
			}
		}
		totalSeconds += s.Session.TotalSeconds
		entries = append(entries, entry)
	}

	now := time.Now
	if deps.Now != nil {
		now = deps.Now
	}

	result.TotalSessions = len(sessions)
	result.TotalSeconds = totalSeconds
	result.Entries = entries
	// Sessions arrive newest first.
	result.LastWorkout = entries[0].Date
	result.CurrentStreak = calculateWeekStreak(sessions, now())

	return result, nil
}

// calculateWeekStreak counts consecutive ISO weeks (ending with the current
// week) that have at least one completed session.
func calculateWeekStreak(sessions []engine.ActiveSession, now time.Time) int {
	weekSet := make(map[[2]int]bool)
	for _, s := range sessions {
		y, w := s.Session.StartTime.ISOWeek()
		weekSet[[2]int{y, w}] = true
	}

	streak := 0
	for {
		y, w := now.ISOWeek()
		if !weekSet[[2]int{y, w}] {
			break
		}
		streak++
		now = now.AddDate(0, 0, -7)
	}
	return streak
}
