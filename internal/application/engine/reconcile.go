package engine

import (
	"time"

	"gymdesk/internal/domain/workout"
)

// ReconcileResult is the single authoritative in-memory timer state produced
// from the two possibly-inconsistent sources on mount/resume.
type ReconcileResult struct {
	Timer TimerState
	// AllResolved is true when every exercise log is already resolved — the
	// session has nothing left to execute and should be completed.
	AllResolved bool
}

// Reconcile merges a device snapshot with the server-held session into one
// consistent timer state.
//
// Two tiers: a snapshot matching the session is preferred — the time missed
// since its capture is added to the total counter and, if an exercise was
// active, to the exercise counter, so no time is double-counted. With no
// matching snapshot (different device, cleared storage) the state is rebuilt
// from server truth alone: total elapsed from the session start time, cursor
// at the first pending log, no exercise active. Either way the result is a
// plausible elapsed time, never a reset to zero.
//
// PRE: active.Logs are ordered by Position
// POST: result.Timer.CurrentIndex points at a pending log unless AllResolved
func Reconcile(active ActiveSession, snap *workout.TimerSnapshot, now time.Time) ReconcileResult {
	firstPending := workout.FirstPendingIndex(active.Logs)

	if snap != nil && snap.MatchesSession(active.Session.ID) {
		elapsed := int(now.Sub(snap.CapturedAt).Seconds())
		if elapsed < 0 {
			elapsed = 0
		}
		timer := TimerState{
			TotalSeconds:    snap.TotalSeconds + elapsed,
			ExerciseSeconds: snap.ExerciseSeconds,
			CurrentIndex:    snap.CurrentIndex,
			ExerciseActive:  snap.ExerciseActive,
		}
		if snap.ExerciseActive {
			timer.ExerciseSeconds += elapsed
		}

		// Duplicate resume: if the snapshot's cursor points at a log that is
		// already resolved, fast-forward to the first pending log.
		if timer.CurrentIndex >= len(active.Logs) ||
			(len(active.Logs) > 0 && active.Logs[timer.CurrentIndex].IsResolved()) {
			if firstPending == -1 {
				return ReconcileResult{Timer: timer, AllResolved: true}
			}
			timer.CurrentIndex = firstPending
			timer.ExerciseActive = false
			timer.ExerciseSeconds = 0
		}
		return ReconcileResult{Timer: timer}
	}

	// Server-truth fallback.
	elapsed := int(now.Sub(active.Session.StartTime).Seconds())
	if elapsed < 0 {
		elapsed = 0
	}
	timer := TimerState{
		TotalSeconds:    elapsed,
		ExerciseSeconds: 0,
		ExerciseActive:  false,
	}
	if firstPending == -1 {
		if n := len(active.Logs); n > 0 {
			timer.CurrentIndex = n - 1
		}
		return ReconcileResult{Timer: timer, AllResolved: true}
	}
	timer.CurrentIndex = firstPending
	return ReconcileResult{Timer: timer}
}
