package engine

import "testing"

// TestTick_TotalAlwaysAdvances verifies the total counter increases by
// exactly the number of ticks elapsed.
func TestTick_TotalAlwaysAdvances(t *testing.T) {
	s := TimerState{}
	for i := 0; i < 120; i++ {
		prev := s.TotalSeconds
		s = s.Tick()
		if s.TotalSeconds != prev+1 {
			t.Fatalf("tick %d: total went %d -> %d", i, prev, s.TotalSeconds)
		}
	}
	if s.TotalSeconds != 120 {
		t.Errorf("expected 120 after 120 ticks, got %d", s.TotalSeconds)
	}
}

// TestTick_ExerciseOnlyWhenActive verifies the exercise counter is gated on
// the active flag.
func TestTick_ExerciseOnlyWhenActive(t *testing.T) {
	s := TimerState{}
	for i := 0; i < 5; i++ {
		s = s.Tick()
	}
	if s.ExerciseSeconds != 0 {
		t.Errorf("exercise counter moved while inactive: %d", s.ExerciseSeconds)
	}

	s.ExerciseActive = true
	for i := 0; i < 7; i++ {
		s = s.Tick()
	}
	if s.ExerciseSeconds != 7 {
		t.Errorf("expected 7 exercise seconds, got %d", s.ExerciseSeconds)
	}
	if s.TotalSeconds != 12 {
		t.Errorf("expected 12 total seconds, got %d", s.TotalSeconds)
	}

	s.ExerciseActive = false
	s = s.Tick()
	if s.ExerciseSeconds != 7 {
		t.Errorf("exercise counter moved after deactivation: %d", s.ExerciseSeconds)
	}
}

// TestResetExercise only zeroes the per-exercise counter.
func TestResetExercise(t *testing.T) {
	s := TimerState{TotalSeconds: 100, ExerciseSeconds: 40, CurrentIndex: 2, ExerciseActive: true}
	s = s.ResetExercise()
	if s.ExerciseSeconds != 0 {
		t.Errorf("expected 0, got %d", s.ExerciseSeconds)
	}
	if s.TotalSeconds != 100 || s.CurrentIndex != 2 || !s.ExerciseActive {
		t.Errorf("reset touched unrelated fields: %+v", s)
	}
}
