package engine

import (
	"context"
	"log/slog"
	"sync"

	"gymdesk/internal/domain/workout"
)

// Phase is the session-level lifecycle state.
type Phase string

const (
	PhaseIdle       Phase = "idle"
	PhaseStarting   Phase = "starting"
	PhaseInProgress Phase = "in_progress"
	PhaseCompleting Phase = "completing"
	PhaseCompleted  Phase = "completed"
	PhaseCancelled  Phase = "cancelled"
)

// Deps bundles the collaborators a Runner needs.
type Deps struct {
	Store  SessionStore
	Cache  TimerCache
	Clock  Clock
	Ticker Ticker
}

// Runner owns the execution of one workout session on one device: the
// lifecycle state machine, the exercise cursor, and the timer counters.
//
// All entry points serialize behind one mutex — the Go rendition of the
// original single-threaded event loop. A tick can therefore never interleave
// with a transition, and a stray tick after cancel or completion is dropped
// by the phase guard before it can resurrect a cleared snapshot.
//
// Mutations against the store are optimistic: local state is applied first,
// the store confirms, and on rejection only the flags set by that action are
// reverted. Accrued counters survive rollback so no tracked time is lost.
type Runner struct {
	deviceID string
	gymID    string
	memberID string

	deps Deps

	mu      sync.Mutex
	phase   Phase
	session workout.Session
	logs    []workout.ExerciseLog
	timer   TimerState
	report  *workout.Report
}

// NewRunner creates an idle runner for one device.
// PRE: deps fields are all non-nil
func NewRunner(deviceID, gymID, memberID string, deps Deps) *Runner {
	return &Runner{
		deviceID: deviceID,
		gymID:    gymID,
		memberID: memberID,
		deps:     deps,
		phase:    PhaseIdle,
	}
}

// DeviceID returns the device key this runner is bound to.
func (r *Runner) DeviceID() string { return r.deviceID }

// MemberID returns the member this runner executes for.
func (r *Runner) MemberID() string { return r.memberID }

// detach stops the tick driver without touching the session in the store.
// Called by the registry when the device is handed to a different member.
func (r *Runner) detach() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.deps.Ticker.Stop()
}

// Phase returns the current lifecycle phase.
func (r *Runner) Phase() Phase {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.phase
}

// View returns the tagged view variant for the current phase.
func (r *Runner) View() ViewState {
	r.mu.Lock()
	defer r.mu.Unlock()
	switch r.phase {
	case PhaseCompleted:
		return ViewState{Mode: ViewSummary, Summary: &SummaryView{Report: *r.report}}
	case PhaseStarting, PhaseInProgress, PhaseCompleting:
		logs := make([]workout.ExerciseLog, len(r.logs))
		copy(logs, r.logs)
		return ViewState{Mode: ViewExecuting, Executing: &ExecutingView{
			Session: r.session,
			Logs:    logs,
			Timer:   r.timer,
		}}
	default:
		return ViewState{Mode: ViewIdle}
	}
}

// Start creates a new session from a plan day. The flip to in-progress is
// optimistic; a store rejection rolls back to idle.
// PRE: no session is in progress on this runner
// POST: session and logs adopted from the store, ticker running
func (r *Runner) Start(ctx context.Context, planID, dayID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.phase == PhaseStarting || r.phase == PhaseInProgress || r.phase == PhaseCompleting {
		return ErrSessionInProgress
	}

	r.resetLocked()
	r.phase = PhaseStarting

	active, err := r.deps.Store.StartSession(ctx, r.gymID, r.memberID, planID, dayID)
	if err != nil {
		r.phase = PhaseIdle
		slog.Warn("workout_event", "event", "session_start_rejected", "member_id", r.memberID, "plan_id", planID, "error", err)
		return err
	}

	// Adopt server-authoritative fields; counters stay at zero accrued so far.
	r.session = active.Session
	r.logs = active.Logs
	r.phase = PhaseInProgress
	r.saveSnapshotLocked(ctx)
	r.deps.Ticker.Start(r.Tick)

	slog.Info("workout_event", "event", "session_started", "session_id", r.session.ID, "member_id", r.memberID, "exercises", len(r.logs))
	return nil
}

// Resume reconciles server truth with the device snapshot and restarts the
// engine. With no active session on the server the runner stays idle. A
// session whose exercises are all resolved is completed immediately.
// POST: timer state persisted back to the cache before the first tick
func (r *Runner) Resume(ctx context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.phase == PhaseStarting || r.phase == PhaseInProgress || r.phase == PhaseCompleting {
		return ErrSessionInProgress
	}

	active, err := r.deps.Store.GetActiveSession(ctx, r.memberID)
	if err != nil {
		return err
	}
	if active == nil {
		r.resetLocked()
		return nil
	}

	snap, err := r.deps.Cache.Load(ctx, r.deviceID, active.Session.ID)
	if err != nil {
		// A broken cache degrades to the server-truth fallback.
		slog.Warn("workout_event", "event", "snapshot_load_failed", "device_id", r.deviceID, "error", err)
		snap = nil
	}

	now := r.deps.Clock.Now()
	res := Reconcile(*active, snap, now)

	r.resetLocked()
	r.session = active.Session
	r.logs = active.Logs
	r.timer = res.Timer
	r.phase = PhaseInProgress

	if res.AllResolved {
		slog.Info("workout_event", "event", "session_resume_all_resolved", "session_id", r.session.ID)
		return r.completeLocked(ctx)
	}

	r.saveSnapshotLocked(ctx)
	r.deps.Ticker.Start(r.Tick)

	slog.Info("workout_event", "event", "session_resumed",
		"session_id", r.session.ID,
		"total_seconds", r.timer.TotalSeconds,
		"current_index", r.timer.CurrentIndex,
		"from_snapshot", snap != nil)
	return nil
}

// Tick advances the counters by one second and writes the snapshot through.
// Ticks outside the in-progress phase are dropped.
func (r *Runner) Tick() {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.phase != PhaseInProgress {
		return
	}
	r.timer = r.timer.Tick()
	r.saveSnapshotLocked(context.Background())
}

// StartExercise activates the exercise at the current cursor. The activation
// is optimistic; a store rejection reverts exactly the flags it set.
// PRE: log is pending and is the one at the current index; no exercise active
// POST: exercise timer reset and running
func (r *Runner) StartExercise(ctx context.Context, logID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.phase != PhaseInProgress {
		return ErrNoSession
	}
	if r.timer.ExerciseActive {
		return ErrExerciseActive
	}
	log := r.currentLogLocked()
	if log == nil || log.ID != logID {
		return ErrNotCurrentExercise
	}
	if log.IsResolved() {
		return ErrExerciseResolved
	}

	now := r.deps.Clock.Now()
	prevTimer := r.timer
	prevStart := log.StartTime

	r.timer.ExerciseActive = true
	r.timer = r.timer.ResetExercise()
	_ = log.Start(now)

	if err := r.deps.Store.StartExercise(ctx, logID, now); err != nil {
		r.timer = prevTimer
		log.StartTime = prevStart
		slog.Warn("workout_event", "event", "exercise_start_rejected", "log_id", logID, "error", err)
		return err
	}

	r.saveSnapshotLocked(ctx)
	slog.Info("workout_event", "event", "exercise_started", "session_id", r.session.ID, "log_id", logID, "position", log.Position)
	return nil
}

// CompleteExercise resolves the active exercise as completed.
func (r *Runner) CompleteExercise(ctx context.Context, logID string) error {
	return r.resolveExercise(ctx, logID, workout.StatusCompleted)
}

// SkipExercise resolves the active exercise as skipped.
func (r *Runner) SkipExercise(ctx context.Context, logID string) error {
	return r.resolveExercise(ctx, logID, workout.StatusSkipped)
}

// resolveExercise records end time and duration for the active exercise and
// advances the cursor, completing the session when nothing pending remains.
// A store rejection rolls the log back to unresolved while preserving the
// elapsed exercise seconds, so tracked time is not lost.
func (r *Runner) resolveExercise(ctx context.Context, logID, status string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.phase != PhaseInProgress {
		return ErrNoSession
	}
	if !r.timer.ExerciseActive {
		return ErrNoActiveExercise
	}
	log := r.currentLogLocked()
	if log == nil || log.ID != logID {
		return ErrNotCurrentExercise
	}

	now := r.deps.Clock.Now()
	duration := r.timer.ExerciseSeconds
	if err := log.Resolve(status, now, duration); err != nil {
		return err
	}

	if err := r.deps.Store.CompleteExercise(ctx, logID, status, now, duration); err != nil {
		// Keep ExerciseActive and the accrued seconds; only the resolution
		// itself is undone.
		log.Reopen()
		slog.Warn("workout_event", "event", "exercise_resolve_rejected", "log_id", logID, "status", status, "error", err)
		return err
	}

	slog.Info("workout_event", "event", "exercise_resolved", "session_id", r.session.ID, "log_id", logID, "status", status, "duration_seconds", duration)

	// The log is resolved either way, so the exercise clock must stop now,
	// even if the completion write below fails and the session keeps ticking
	// until the retry.
	r.timer.ExerciseActive = false
	r.timer = r.timer.ResetExercise()

	next := r.nextPendingLocked()
	if next == -1 {
		return r.completeLocked(ctx)
	}
	r.timer.CurrentIndex = next
	r.saveSnapshotLocked(ctx)
	return nil
}

// Complete ends the session, automatically when the last exercise resolves
// or manually ("end workout early"). Idempotent: completing an
// already-completed session returns the same report and no error.
func (r *Runner) Complete(ctx context.Context) (workout.Report, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.phase == PhaseCompleted {
		return *r.report, nil
	}
	if r.phase != PhaseInProgress {
		return workout.Report{}, ErrNoSession
	}
	if err := r.completeLocked(ctx); err != nil {
		return workout.Report{}, err
	}
	return *r.report, nil
}

// completeLocked sends the final duration to the store, then clears the
// cache and stops the engine.
// PRE: r.mu held; phase is in_progress
func (r *Runner) completeLocked(ctx context.Context) error {
	r.phase = PhaseCompleting
	total := r.timer.TotalSeconds

	rep, err := r.deps.Store.CompleteSession(ctx, r.session.ID, total)
	if err != nil {
		r.phase = PhaseInProgress
		slog.Warn("workout_event", "event", "session_complete_rejected", "session_id", r.session.ID, "error", err)
		return err
	}

	r.deps.Ticker.Stop()
	if err := r.deps.Cache.Clear(ctx, r.deviceID); err != nil {
		slog.Warn("workout_event", "event", "snapshot_clear_failed", "device_id", r.deviceID, "error", err)
	}
	r.session.Completed = true
	r.session.TotalSeconds = total
	r.report = &rep
	r.phase = PhaseCompleted

	slog.Info("workout_event", "event", "session_completed", "session_id", r.session.ID, "total_seconds", total)
	return nil
}

// Cancel abandons an in-progress session. The ticker is stopped before
// storage is touched so a stray tick cannot resurrect the cleared snapshot.
// No completion data is written for unresolved logs.
// PRE: session is in progress
func (r *Runner) Cancel(ctx context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.phase != PhaseInProgress {
		return ErrNoSession
	}

	r.deps.Ticker.Stop()
	if err := r.deps.Store.CancelSession(ctx, r.session.ID); err != nil {
		// The session is still live; resume ticking.
		r.deps.Ticker.Start(r.Tick)
		slog.Warn("workout_event", "event", "session_cancel_rejected", "session_id", r.session.ID, "error", err)
		return err
	}
	if err := r.deps.Cache.Clear(ctx, r.deviceID); err != nil {
		slog.Warn("workout_event", "event", "snapshot_clear_failed", "device_id", r.deviceID, "error", err)
	}
	r.phase = PhaseCancelled

	slog.Info("workout_event", "event", "session_cancelled", "session_id", r.session.ID)
	return nil
}

// currentLogLocked returns the log at the cursor, or nil when out of range.
// PRE: r.mu held
func (r *Runner) currentLogLocked() *workout.ExerciseLog {
	if r.timer.CurrentIndex < 0 || r.timer.CurrentIndex >= len(r.logs) {
		return nil
	}
	return &r.logs[r.timer.CurrentIndex]
}

// nextPendingLocked returns the position of the first pending log after the
// cursor, or -1 when none remain.
// PRE: r.mu held
func (r *Runner) nextPendingLocked() int {
	for i := r.timer.CurrentIndex + 1; i < len(r.logs); i++ {
		if !r.logs[i].IsResolved() {
			return i
		}
	}
	return -1
}

// saveSnapshotLocked writes the timer state through to the device cache with
// the current wall-clock capture time. Best effort: a failed write is logged
// and the next tick retries.
// PRE: r.mu held
func (r *Runner) saveSnapshotLocked(ctx context.Context) {
	snap := workout.TimerSnapshot{
		DeviceID:        r.deviceID,
		SessionID:       r.session.ID,
		TotalSeconds:    r.timer.TotalSeconds,
		ExerciseSeconds: r.timer.ExerciseSeconds,
		CurrentIndex:    r.timer.CurrentIndex,
		ExerciseActive:  r.timer.ExerciseActive,
		CapturedAt:      r.deps.Clock.Now(),
	}
	if err := r.deps.Cache.Save(ctx, snap); err != nil {
		slog.Warn("workout_event", "event", "snapshot_save_failed", "device_id", r.deviceID, "error", err)
	}
}

// resetLocked returns the runner to a blank idle state.
// PRE: r.mu held
func (r *Runner) resetLocked() {
	r.phase = PhaseIdle
	r.session = workout.Session{}
	r.logs = nil
	r.timer = TimerState{}
	r.report = nil
}
