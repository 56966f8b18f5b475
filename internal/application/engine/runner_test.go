package engine

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"gymdesk/internal/domain/workout"
)

// testClock is a settable Clock.
type testClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *testClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *testClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

// memCache is an in-memory TimerCache with failure injection.
type memCache struct {
	mu       sync.Mutex
	snaps    map[string]workout.TimerSnapshot
	saves    int
	clears   int
	failSave error
}

func newMemCache() *memCache {
	return &memCache{snaps: make(map[string]workout.TimerSnapshot)}
}

func (c *memCache) Save(_ context.Context, snap workout.TimerSnapshot) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.failSave != nil {
		return c.failSave
	}
	c.snaps[snap.DeviceID] = snap
	c.saves++
	return nil
}

func (c *memCache) Load(_ context.Context, deviceID, sessionID string) (*workout.TimerSnapshot, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	snap, ok := c.snaps[deviceID]
	if !ok || !snap.MatchesSession(sessionID) {
		return nil, nil
	}
	cp := snap
	return &cp, nil
}

func (c *memCache) Clear(_ context.Context, deviceID string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.snaps, deviceID)
	c.clears++
	return nil
}

// fakeStore is an in-memory SessionStore with per-operation failure injection.
type fakeStore struct {
	mu    sync.Mutex
	clock Clock
	seq   int

	sessions map[string]*workout.Session
	logs     map[string][]workout.ExerciseLog
	reports  map[string]workout.Report

	failStart            error
	failStartExercise    error
	failCompleteExercise error
	failCompleteSession  error
	failCancel           error

	completeSessionCalls int
}

func newFakeStore(clock Clock) *fakeStore {
	return &fakeStore{
		clock:    clock,
		sessions: make(map[string]*workout.Session),
		logs:     make(map[string][]workout.ExerciseLog),
		reports:  make(map[string]workout.Report),
	}
}

func (s *fakeStore) GetActiveSession(_ context.Context, memberID string) (*ActiveSession, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, sess := range s.sessions {
		if sess.MemberID == memberID && !sess.Completed {
			logs := make([]workout.ExerciseLog, len(s.logs[sess.ID]))
			copy(logs, s.logs[sess.ID])
			return &ActiveSession{Session: *sess, Logs: logs}, nil
		}
	}
	return nil, nil
}

func (s *fakeStore) StartSession(_ context.Context, gymID, memberID, planID, dayID string) (ActiveSession, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failStart != nil {
		return ActiveSession{}, s.failStart
	}
	s.seq++
	sess := &workout.Session{
		ID:        fmt.Sprintf("sess-%d", s.seq),
		GymID:     gymID,
		MemberID:  memberID,
		PlanID:    planID,
		DayID:     dayID,
		StartTime: s.clock.Now(),
	}
	var logs []workout.ExerciseLog
	for i := 0; i < 3; i++ {
		logs = append(logs, workout.ExerciseLog{
			ID:         fmt.Sprintf("%s-log-%d", sess.ID, i),
			SessionID:  sess.ID,
			ExerciseID: fmt.Sprintf("ex-%d", i),
			Position:   i,
			Status:     workout.StatusPending,
		})
	}
	s.sessions[sess.ID] = sess
	s.logs[sess.ID] = logs
	out := make([]workout.ExerciseLog, len(logs))
	copy(out, logs)
	return ActiveSession{Session: *sess, Logs: out}, nil
}

func (s *fakeStore) StartExercise(_ context.Context, logID string, at time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failStartExercise != nil {
		return s.failStartExercise
	}
	for sid, logs := range s.logs {
		for i := range logs {
			if logs[i].ID == logID {
				s.logs[sid][i].StartTime = at
				return nil
			}
		}
	}
	return errors.New("log not found")
}

func (s *fakeStore) CompleteExercise(_ context.Context, logID, status string, at time.Time, durationSeconds int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failCompleteExercise != nil {
		return s.failCompleteExercise
	}
	for sid, logs := range s.logs {
		for i := range logs {
			if logs[i].ID == logID {
				return s.logs[sid][i].Resolve(status, at, durationSeconds)
			}
		}
	}
	return errors.New("log not found")
}

func (s *fakeStore) CompleteSession(_ context.Context, sessionID string, totalSeconds int) (workout.Report, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failCompleteSession != nil {
		return workout.Report{}, s.failCompleteSession
	}
	s.completeSessionCalls++
	sess, ok := s.sessions[sessionID]
	if !ok {
		return workout.Report{}, errors.New("session not found")
	}
	if sess.Completed {
		return s.reports[sessionID], nil
	}
	if err := sess.MarkCompleted(totalSeconds); err != nil {
		return workout.Report{}, err
	}
	rep := workout.BuildReport(*sess, s.logs[sessionID])
	s.reports[sessionID] = rep
	return rep, nil
}

func (s *fakeStore) CancelSession(_ context.Context, sessionID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failCancel != nil {
		return s.failCancel
	}
	delete(s.sessions, sessionID)
	delete(s.logs, sessionID)
	return nil
}

// harness wires a runner with fakes; advancing seconds moves the clock and
// the ticker in lockstep, like real wall-clock seconds would.
type harness struct {
	clock  *testClock
	ticker *ManualTicker
	cache  *memCache
	store  *fakeStore
	runner *Runner
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	clock := &testClock{now: time.Date(2026, 3, 14, 9, 0, 0, 0, time.UTC)}
	ticker := &ManualTicker{}
	cache := newMemCache()
	store := newFakeStore(clock)
	runner := NewRunner("device-1", "gym-1", "member-1", Deps{
		Store: store, Cache: cache, Clock: clock, Ticker: ticker,
	})
	return &harness{clock: clock, ticker: ticker, cache: cache, store: store, runner: runner}
}

func (h *harness) elapse(seconds int) {
	for i := 0; i < seconds; i++ {
		h.clock.Advance(time.Second)
		h.ticker.Advance(1)
	}
}

func (h *harness) currentLogID(t *testing.T) string {
	t.Helper()
	v := h.runner.View()
	if v.Mode != ViewExecuting {
		t.Fatalf("expected executing view, got %s", v.Mode)
	}
	return v.Executing.Logs[v.Executing.Timer.CurrentIndex].ID
}

// TestRunner_EndToEnd walks a full 3-exercise session: complete after 10s,
// skip immediately, complete after 7s, then the session auto-completes.
func TestRunner_EndToEnd(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	if err := h.runner.Start(ctx, "plan-1", "day-1"); err != nil {
		t.Fatalf("start: %v", err)
	}
	if !h.ticker.Running() {
		t.Fatal("ticker not started")
	}

	h.elapse(5) // warm-up browsing before the first exercise

	// Exercise 1: 10 seconds, completed.
	if err := h.runner.StartExercise(ctx, h.currentLogID(t)); err != nil {
		t.Fatalf("start exercise 1: %v", err)
	}
	h.elapse(10)
	if err := h.runner.CompleteExercise(ctx, h.currentLogID(t)); err != nil {
		t.Fatalf("complete exercise 1: %v", err)
	}

	// Exercise 2: skipped immediately, duration 0.
	if err := h.runner.StartExercise(ctx, h.currentLogID(t)); err != nil {
		t.Fatalf("start exercise 2: %v", err)
	}
	if err := h.runner.SkipExercise(ctx, h.currentLogID(t)); err != nil {
		t.Fatalf("skip exercise 2: %v", err)
	}

	// Exercise 3: 7 seconds, completed — resolves the session.
	lastID := h.currentLogID(t)
	if err := h.runner.StartExercise(ctx, lastID); err != nil {
		t.Fatalf("start exercise 3: %v", err)
	}
	h.elapse(7)
	if err := h.runner.CompleteExercise(ctx, lastID); err != nil {
		t.Fatalf("complete exercise 3: %v", err)
	}

	if h.runner.Phase() != PhaseCompleted {
		t.Fatalf("phase = %s, want completed", h.runner.Phase())
	}
	v := h.runner.View()
	if v.Mode != ViewSummary {
		t.Fatalf("view = %s, want summary", v.Mode)
	}
	rep := v.Summary.Report
	if rep.TotalSeconds != 22 {
		t.Errorf("total = %d, want 22", rep.TotalSeconds)
	}
	if rep.CompletedCount != 2 || rep.SkippedCount != 1 {
		t.Errorf("counts = %d/%d, want 2/1", rep.CompletedCount, rep.SkippedCount)
	}
	if rep.Exercises[0].DurationSeconds != 10 {
		t.Errorf("exercise 1 duration = %d, want 10", rep.Exercises[0].DurationSeconds)
	}
	if rep.Exercises[1].DurationSeconds != 0 || rep.Exercises[1].Status != workout.StatusSkipped {
		t.Errorf("exercise 2 = %+v, want skipped/0s", rep.Exercises[1])
	}
	if rep.Exercises[2].DurationSeconds != 7 {
		t.Errorf("exercise 3 duration = %d, want 7", rep.Exercises[2].DurationSeconds)
	}

	if h.ticker.Running() {
		t.Error("ticker still running after completion")
	}
	if len(h.cache.snaps) != 0 {
		t.Error("snapshot not cleared after completion")
	}
}

// TestRunner_StartRejected verifies the optimistic start rolls back to idle.
func TestRunner_StartRejected(t *testing.T) {
	h := newHarness(t)
	h.store.failStart = errors.New("network down")

	err := h.runner.Start(context.Background(), "plan-1", "day-1")
	if err == nil {
		t.Fatal("expected error")
	}
	if h.runner.Phase() != PhaseIdle {
		t.Errorf("phase = %s, want idle after rollback", h.runner.Phase())
	}
	if h.runner.View().Mode != ViewIdle {
		t.Error("expected idle view after rollback")
	}
	if h.ticker.Running() {
		t.Error("ticker must not run after rejected start")
	}
}

// TestRunner_StartWhileInProgress verifies the double-start guard.
func TestRunner_StartWhileInProgress(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	if err := h.runner.Start(ctx, "plan-1", "day-1"); err != nil {
		t.Fatalf("start: %v", err)
	}
	if err := h.runner.Start(ctx, "plan-1", "day-1"); err != ErrSessionInProgress {
		t.Errorf("expected ErrSessionInProgress, got %v", err)
	}
}

// TestRunner_StartExerciseGuards verifies the local contract checks: only
// the exercise at the cursor can start, and never while another is active.
func TestRunner_StartExerciseGuards(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	if err := h.runner.Start(ctx, "plan-1", "day-1"); err != nil {
		t.Fatalf("start: %v", err)
	}

	if err := h.runner.StartExercise(ctx, "not-the-current-log"); err != ErrNotCurrentExercise {
		t.Errorf("expected ErrNotCurrentExercise, got %v", err)
	}

	cur := h.currentLogID(t)
	if err := h.runner.StartExercise(ctx, cur); err != nil {
		t.Fatalf("start exercise: %v", err)
	}
	if err := h.runner.StartExercise(ctx, cur); err != ErrExerciseActive {
		t.Errorf("expected ErrExerciseActive, got %v", err)
	}

	if err := h.runner.CompleteExercise(ctx, "not-the-current-log"); err != ErrNotCurrentExercise {
		t.Errorf("expected ErrNotCurrentExercise, got %v", err)
	}
}

// TestRunner_ResolveWithoutActive verifies completing with no active
// exercise is rejected locally.
func TestRunner_ResolveWithoutActive(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	if err := h.runner.Start(ctx, "plan-1", "day-1"); err != nil {
		t.Fatalf("start: %v", err)
	}
	if err := h.runner.CompleteExercise(ctx, h.currentLogID(t)); err != ErrNoActiveExercise {
		t.Errorf("expected ErrNoActiveExercise, got %v", err)
	}
}

// TestRunner_StartExerciseRejected verifies rollback reverts exactly the
// optimistic flags, leaving the total counter untouched.
func TestRunner_StartExerciseRejected(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	if err := h.runner.Start(ctx, "plan-1", "day-1"); err != nil {
		t.Fatalf("start: %v", err)
	}
	h.elapse(5)

	h.store.failStartExercise = errors.New("503")
	err := h.runner.StartExercise(ctx, h.currentLogID(t))
	if err == nil {
		t.Fatal("expected error")
	}

	v := h.runner.View()
	if v.Executing.Timer.ExerciseActive {
		t.Error("exercise flag not rolled back")
	}
	if v.Executing.Timer.TotalSeconds != 5 {
		t.Errorf("total = %d, rollback must not touch it", v.Executing.Timer.TotalSeconds)
	}
	if !v.Executing.Logs[0].StartTime.IsZero() {
		t.Error("log start time not rolled back")
	}

	// The action succeeds once the store recovers.
	h.store.failStartExercise = nil
	if err := h.runner.StartExercise(ctx, h.currentLogID(t)); err != nil {
		t.Fatalf("retry: %v", err)
	}
}

// TestRunner_ResolveRejected verifies a rejected completion rolls the log
// back to unresolved while preserving the elapsed exercise seconds.
func TestRunner_ResolveRejected(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	if err := h.runner.Start(ctx, "plan-1", "day-1"); err != nil {
		t.Fatalf("start: %v", err)
	}
	cur := h.currentLogID(t)
	if err := h.runner.StartExercise(ctx, cur); err != nil {
		t.Fatalf("start exercise: %v", err)
	}
	h.elapse(8)

	h.store.failCompleteExercise = errors.New("timeout")
	if err := h.runner.CompleteExercise(ctx, cur); err == nil {
		t.Fatal("expected error")
	}

	v := h.runner.View()
	if v.Executing.Logs[0].IsResolved() {
		t.Error("log resolution not rolled back")
	}
	if !v.Executing.Timer.ExerciseActive {
		t.Error("exercise must stay active so no time is lost")
	}
	if v.Executing.Timer.ExerciseSeconds != 8 {
		t.Errorf("exercise seconds = %d, want 8 preserved", v.Executing.Timer.ExerciseSeconds)
	}

	// Retry after recovery records the full elapsed duration.
	h.store.failCompleteExercise = nil
	h.elapse(2)
	if err := h.runner.CompleteExercise(ctx, cur); err != nil {
		t.Fatalf("retry: %v", err)
	}
	v = h.runner.View()
	if v.Executing.Logs[0].DurationSeconds != 10 {
		t.Errorf("duration = %d, want 10", v.Executing.Logs[0].DurationSeconds)
	}
}

// TestRunner_CompleteIdempotent verifies a second Complete returns the same
// report without error and without a second store write.
func TestRunner_CompleteIdempotent(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	if err := h.runner.Start(ctx, "plan-1", "day-1"); err != nil {
		t.Fatalf("start: %v", err)
	}
	h.elapse(30)

	rep1, err := h.runner.Complete(ctx)
	if err != nil {
		t.Fatalf("complete: %v", err)
	}
	rep2, err := h.runner.Complete(ctx)
	if err != nil {
		t.Fatalf("second complete must be a no-op success, got %v", err)
	}
	if rep1.SessionID != rep2.SessionID || rep1.TotalSeconds != rep2.TotalSeconds {
		t.Errorf("reports differ: %+v vs %+v", rep1, rep2)
	}
	if h.store.completeSessionCalls != 1 {
		t.Errorf("store completes = %d, want 1", h.store.completeSessionCalls)
	}
	if rep1.TotalSeconds != 30 {
		t.Errorf("total = %d, want 30", rep1.TotalSeconds)
	}
}

// TestRunner_CompleteRejected verifies the session stays live when the
// final write fails.
func TestRunner_CompleteRejected(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	if err := h.runner.Start(ctx, "plan-1", "day-1"); err != nil {
		t.Fatalf("start: %v", err)
	}
	h.store.failCompleteSession = errors.New("down")
	if _, err := h.runner.Complete(ctx); err == nil {
		t.Fatal("expected error")
	}
	if h.runner.Phase() != PhaseInProgress {
		t.Errorf("phase = %s, want in_progress", h.runner.Phase())
	}
	if !h.ticker.Running() {
		t.Error("ticker must keep running after rejected completion")
	}
}

// TestRunner_Cancel verifies cancellation stops the ticker before storage
// is cleared and that a stray tick cannot resurrect the snapshot.
func TestRunner_Cancel(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	if err := h.runner.Cancel(ctx); err != ErrNoSession {
		t.Errorf("cancel while idle: expected ErrNoSession, got %v", err)
	}

	if err := h.runner.Start(ctx, "plan-1", "day-1"); err != nil {
		t.Fatalf("start: %v", err)
	}
	h.elapse(4)
	if err := h.runner.Cancel(ctx); err != nil {
		t.Fatalf("cancel: %v", err)
	}
	if h.runner.Phase() != PhaseCancelled {
		t.Errorf("phase = %s, want cancelled", h.runner.Phase())
	}
	if h.ticker.Running() {
		t.Error("ticker still running")
	}
	if len(h.cache.snaps) != 0 {
		t.Error("snapshot not cleared")
	}

	// A stray tick after cancel must not write a snapshot back.
	h.runner.Tick()
	if len(h.cache.snaps) != 0 {
		t.Error("stray tick resurrected the snapshot")
	}
}

// TestRunner_CancelRejected verifies the ticker resumes when the store
// rejects the cancellation.
func TestRunner_CancelRejected(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	if err := h.runner.Start(ctx, "plan-1", "day-1"); err != nil {
		t.Fatalf("start: %v", err)
	}
	h.store.failCancel = errors.New("down")
	if err := h.runner.Cancel(ctx); err == nil {
		t.Fatal("expected error")
	}
	if h.runner.Phase() != PhaseInProgress {
		t.Errorf("phase = %s, want in_progress", h.runner.Phase())
	}
	if !h.ticker.Running() {
		t.Error("ticker must resume after rejected cancel")
	}
}

// TestRunner_SnapshotRoundTrip verifies the write-through snapshot matches
// the live timer after each tick.
func TestRunner_SnapshotRoundTrip(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	if err := h.runner.Start(ctx, "plan-1", "day-1"); err != nil {
		t.Fatalf("start: %v", err)
	}
	if err := h.runner.StartExercise(ctx, h.currentLogID(t)); err != nil {
		t.Fatalf("start exercise: %v", err)
	}
	h.elapse(3)

	v := h.runner.View()
	snap, err := h.cache.Load(ctx, "device-1", v.Executing.Session.ID)
	if err != nil || snap == nil {
		t.Fatalf("load: snap=%v err=%v", snap, err)
	}
	if snap.CurrentIndex != v.Executing.Timer.CurrentIndex ||
		snap.ExerciseActive != v.Executing.Timer.ExerciseActive {
		t.Errorf("snapshot cursor mismatch: %+v vs %+v", snap, v.Executing.Timer)
	}
	if diff := snap.TotalSeconds - v.Executing.Timer.TotalSeconds; diff < -1 || diff > 1 {
		t.Errorf("snapshot total %d outside tick granularity of live %d", snap.TotalSeconds, v.Executing.Timer.TotalSeconds)
	}
	if snap.CapturedAt != h.clock.Now() {
		t.Errorf("captured_at = %v, want last write time %v", snap.CapturedAt, h.clock.Now())
	}
}

// TestRunner_ReloadContinuity simulates a page reload with the cache
// intact: a fresh runner resumes on the same exercise with timer
// continuity, not reset to zero.
func TestRunner_ReloadContinuity(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	if err := h.runner.Start(ctx, "plan-1", "day-1"); err != nil {
		t.Fatalf("start: %v", err)
	}
	if err := h.runner.StartExercise(ctx, h.currentLogID(t)); err != nil {
		t.Fatalf("start exercise: %v", err)
	}
	h.elapse(10)

	// Reload: old runner is gone, 30 wall-clock seconds pass without ticks.
	h.clock.Advance(30 * time.Second)
	ticker2 := &ManualTicker{}
	runner2 := NewRunner("device-1", "gym-1", "member-1", Deps{
		Store: h.store, Cache: h.cache, Clock: h.clock, Ticker: ticker2,
	})
	if err := runner2.Resume(ctx); err != nil {
		t.Fatalf("resume: %v", err)
	}

	v := runner2.View()
	if v.Mode != ViewExecuting {
		t.Fatalf("view = %s, want executing", v.Mode)
	}
	if v.Executing.Timer.CurrentIndex != 0 || !v.Executing.Timer.ExerciseActive {
		t.Errorf("cursor not restored: %+v", v.Executing.Timer)
	}
	if v.Executing.Timer.TotalSeconds != 40 {
		t.Errorf("total = %d, want 40 (10 ticked + 30 away)", v.Executing.Timer.TotalSeconds)
	}
	if v.Executing.Timer.ExerciseSeconds != 40 {
		t.Errorf("exercise = %d, want 40", v.Executing.Timer.ExerciseSeconds)
	}
	if !ticker2.Running() {
		t.Error("ticker not restarted on resume")
	}
}

// TestRunner_ResumeServerFallback simulates a different device with no
// snapshot: state is rebuilt from server truth.
func TestRunner_ResumeServerFallback(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	if err := h.runner.Start(ctx, "plan-1", "day-1"); err != nil {
		t.Fatalf("start: %v", err)
	}
	cur := h.currentLogID(t)
	if err := h.runner.StartExercise(ctx, cur); err != nil {
		t.Fatalf("start exercise: %v", err)
	}
	h.elapse(10)
	if err := h.runner.CompleteExercise(ctx, cur); err != nil {
		t.Fatalf("complete exercise: %v", err)
	}

	h.clock.Advance(190 * time.Second)
	ticker2 := &ManualTicker{}
	runner2 := NewRunner("device-2", "gym-1", "member-1", Deps{
		Store: h.store, Cache: newMemCache(), Clock: h.clock, Ticker: ticker2,
	})
	if err := runner2.Resume(ctx); err != nil {
		t.Fatalf("resume: %v", err)
	}

	v := runner2.View()
	if v.Executing.Timer.TotalSeconds != 200 {
		t.Errorf("total = %d, want 200 from session start", v.Executing.Timer.TotalSeconds)
	}
	if v.Executing.Timer.CurrentIndex != 1 {
		t.Errorf("index = %d, want first pending (1)", v.Executing.Timer.CurrentIndex)
	}
	if v.Executing.Timer.ExerciseActive || v.Executing.Timer.ExerciseSeconds != 0 {
		t.Errorf("fallback must be inactive with zero exercise timer: %+v", v.Executing.Timer)
	}
}

// TestRunner_ResumeNoActiveSession stays idle when the server has nothing.
func TestRunner_ResumeNoActiveSession(t *testing.T) {
	h := newHarness(t)
	if err := h.runner.Resume(context.Background()); err != nil {
		t.Fatalf("resume: %v", err)
	}
	if h.runner.Phase() != PhaseIdle {
		t.Errorf("phase = %s, want idle", h.runner.Phase())
	}
	if h.ticker.Running() {
		t.Error("ticker must not run while idle")
	}
}

// TestRunner_ResumeAllResolved completes a session whose exercises were all
// resolved before the resume (e.g. finished on another device).
func TestRunner_ResumeAllResolved(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	if err := h.runner.Start(ctx, "plan-1", "day-1"); err != nil {
		t.Fatalf("start: %v", err)
	}
	for i := 0; i < 3; i++ {
		cur := h.currentLogID(t)
		if err := h.runner.StartExercise(ctx, cur); err != nil {
			t.Fatalf("start exercise %d: %v", i, err)
		}
		if i == 2 {
			// Resolve the last log directly in the store so the session
			// stays open with nothing pending.
			sid := h.runner.View().Executing.Session.ID
			h.store.mu.Lock()
			_ = h.store.logs[sid][2].Resolve(workout.StatusCompleted, h.clock.Now(), 0)
			h.store.mu.Unlock()
			break
		}
		if err := h.runner.SkipExercise(ctx, cur); err != nil {
			t.Fatalf("skip exercise %d: %v", i, err)
		}
	}

	h.cache.snaps = make(map[string]workout.TimerSnapshot) // cleared storage
	ticker2 := &ManualTicker{}
	runner2 := NewRunner("device-1", "gym-1", "member-1", Deps{
		Store: h.store, Cache: h.cache, Clock: h.clock, Ticker: ticker2,
	})
	if err := runner2.Resume(ctx); err != nil {
		t.Fatalf("resume: %v", err)
	}
	if runner2.Phase() != PhaseCompleted {
		t.Errorf("phase = %s, want completed", runner2.Phase())
	}
	if runner2.View().Mode != ViewSummary {
		t.Error("expected summary view")
	}
}

// TestRunner_LastExerciseResolvedCompleteFails verifies the exercise clock
// stops the moment the final log is resolved, even when the session
// completion write fails and the session keeps ticking until the retry.
func TestRunner_LastExerciseResolvedCompleteFails(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	if err := h.runner.Start(ctx, "plan-1", "day-1"); err != nil {
		t.Fatalf("start: %v", err)
	}

	// Resolve the first two exercises, leaving only the last one pending.
	for i := 0; i < 2; i++ {
		cur := h.currentLogID(t)
		if err := h.runner.StartExercise(ctx, cur); err != nil {
			t.Fatalf("start exercise %d: %v", i, err)
		}
		if err := h.runner.SkipExercise(ctx, cur); err != nil {
			t.Fatalf("skip exercise %d: %v", i, err)
		}
	}

	last := h.currentLogID(t)
	if err := h.runner.StartExercise(ctx, last); err != nil {
		t.Fatalf("start last exercise: %v", err)
	}
	h.elapse(6)

	h.store.failCompleteSession = errors.New("down")
	if err := h.runner.CompleteExercise(ctx, last); err == nil {
		t.Fatal("expected completion error")
	}
	if h.runner.Phase() != PhaseInProgress {
		t.Fatalf("phase = %s, want in_progress until the retry lands", h.runner.Phase())
	}

	// The log is resolved, so no exercise may keep accumulating time.
	h.elapse(10)
	v := h.runner.View()
	if v.Executing.Timer.ExerciseActive {
		t.Error("exercise clock still active against a resolved log")
	}
	if v.Executing.Timer.ExerciseSeconds != 0 {
		t.Errorf("exercise seconds = %d, want 0 after resolution", v.Executing.Timer.ExerciseSeconds)
	}
	if v.Executing.Timer.TotalSeconds != 16 {
		t.Errorf("total = %d, want 16 (session keeps ticking)", v.Executing.Timer.TotalSeconds)
	}
	if !v.Executing.Logs[2].IsResolved() || v.Executing.Logs[2].DurationSeconds != 6 {
		t.Errorf("last log = %+v, want resolved with 6s", v.Executing.Logs[2])
	}

	// Retry once the store recovers.
	h.store.failCompleteSession = nil
	rep, err := h.runner.Complete(ctx)
	if err != nil {
		t.Fatalf("retry complete: %v", err)
	}
	if rep.TotalSeconds != 16 {
		t.Errorf("report total = %d, want 16", rep.TotalSeconds)
	}
}

// TestRegistry_SameDeviceSameRunner verifies both tabs of one device share
// a runner, and terminal runners are released.
func TestRegistry_SameDeviceSameRunner(t *testing.T) {
	clock := &testClock{now: time.Date(2026, 3, 14, 9, 0, 0, 0, time.UTC)}
	store := newFakeStore(clock)
	reg := NewRegistry(store, newMemCache(), clock, func() Ticker { return &ManualTicker{} })

	r1 := reg.Runner("device-1", "gym-1", "member-1")
	r2 := reg.Runner("device-1", "gym-1", "member-1")
	if r1 != r2 {
		t.Fatal("expected the same runner for one device")
	}
	if reg.Runner("device-2", "gym-1", "member-1") == r1 {
		t.Fatal("expected distinct runners per device")
	}

	// In-progress runners survive release; idle ones are dropped.
	if err := r1.Start(context.Background(), "plan-1", "day-1"); err != nil {
		t.Fatalf("start: %v", err)
	}
	reg.Release("device-1")
	if reg.Runner("device-1", "gym-1", "member-1") != r1 {
		t.Error("in-progress runner must not be released")
	}
	reg.Release("device-2")
	if reg.Runner("device-2", "gym-1", "member-1") == nil {
		// new runner created after release; just ensure no panic
		t.Log("recreated runner after release")
	}
}

// TestRegistry_DeviceHandoffBetweenMembers verifies a shared device never
// hands one member's runner to another: the displaced runner is detached
// and the new member starts from their own state.
func TestRegistry_DeviceHandoffBetweenMembers(t *testing.T) {
	ctx := context.Background()
	clock := &testClock{now: time.Date(2026, 3, 14, 9, 0, 0, 0, time.UTC)}
	store := newFakeStore(clock)
	var tickers []*ManualTicker
	reg := NewRegistry(store, newMemCache(), clock, func() Ticker {
		tk := &ManualTicker{}
		tickers = append(tickers, tk)
		return tk
	})

	r1 := reg.Runner("device-1", "gym-1", "member-1")
	if err := r1.Start(ctx, "plan-1", "day-1"); err != nil {
		t.Fatalf("start: %v", err)
	}

	// Another member logs in on the same kiosk mid-session.
	r2 := reg.Runner("device-1", "gym-1", "member-2")
	if r2 == r1 {
		t.Fatal("another member must not receive the previous member's runner")
	}
	if r2.View().Mode != ViewIdle {
		t.Errorf("view = %s, the new member must not see the old session", r2.View().Mode)
	}
	if tickers[0].Running() {
		t.Error("displaced runner's ticker must be stopped")
	}

	// The first member's session survives in the store and reconciles when
	// they pick up again.
	active, err := store.GetActiveSession(ctx, "member-1")
	if err != nil || active == nil {
		t.Fatalf("member-1 session lost in handoff: active=%v err=%v", active, err)
	}
	r3 := reg.Runner("device-1", "gym-1", "member-1")
	if r3 == r1 || r3 == r2 {
		t.Fatal("handing the device back must create a fresh runner")
	}
	if err := r3.Resume(ctx); err != nil {
		t.Fatalf("resume: %v", err)
	}
	if r3.View().Mode != ViewExecuting {
		t.Errorf("view = %s, want the live session back after resume", r3.View().Mode)
	}
}
