package workout

import "time"

// ReportLine summarizes one exercise log for the session report.
type ReportLine struct {
	ExerciseID      string `json:"exercise_id"`
	Position        int    `json:"position"`
	Status          string `json:"status"`
	DurationSeconds int    `json:"duration_seconds"`
}

// Report is the summary produced when a session completes.
type Report struct {
	SessionID      string       `json:"session_id"`
	StartTime      time.Time    `json:"start_time"`
	TotalSeconds   int          `json:"total_seconds"`
	CompletedCount int          `json:"completed_count"`
	SkippedCount   int          `json:"skipped_count"`
	Exercises      []ReportLine `json:"exercises"`
}

// BuildReport assembles the completion report for a session and its logs.
// PRE: logs are ordered by Position
// POST: Returns a report with one line per log and aggregate counts
func BuildReport(s Session, logs []ExerciseLog) Report {
	r := Report{
		SessionID:    s.ID,
		StartTime:    s.StartTime,
		TotalSeconds: s.TotalSeconds,
	}
	for _, l := range logs {
		r.Exercises = append(r.Exercises, ReportLine{
			ExerciseID:      l.ExerciseID,
			Position:        l.Position,
			Status:          l.Status,
			DurationSeconds: l.DurationSeconds,
		})
		switch l.Status {
		case StatusCompleted:
			r.CompletedCount++
		case StatusSkipped:
			r.SkippedCount++
		}
	}
	return r
}
