package engine

import "gymdesk/internal/domain/workout"

// ViewMode tags the workout view variants. Each variant carries its own
// data struct so the required fields are enforced by the type rather than
// optional-chained at use sites.
type ViewMode string

const (
	// ViewIdle — no session in progress on this device.
	ViewIdle ViewMode = "idle"
	// ViewExecuting — a session is running; timer state and logs are live.
	ViewExecuting ViewMode = "executing"
	// ViewSummary — the session just completed; the report is available.
	ViewSummary ViewMode = "summary"
)

// ExecutingView is the data required while a session runs.
type ExecutingView struct {
	Session workout.Session       `json:"session"`
	Logs    []workout.ExerciseLog `json:"logs"`
	Timer   TimerState            `json:"timer"`
}

// SummaryView is the data required once a session has completed.
type SummaryView struct {
	Report workout.Report `json:"report"`
}

// ViewState is the tagged variant over the session view. Exactly the field
// matching Mode is non-nil.
type ViewState struct {
	Mode      ViewMode       `json:"mode"`
	Executing *ExecutingView `json:"executing,omitempty"`
	Summary   *SummaryView   `json:"summary,omitempty"`
}
