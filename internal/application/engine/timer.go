package engine

// TimerState holds the two monotonically non-decreasing counters plus the
// exercise cursor. It is a value type: Tick is a pure function of the
// previous state, so timer behavior is testable without a scheduler.
type TimerState struct {
	TotalSeconds    int  `json:"total_seconds"`
	ExerciseSeconds int  `json:"exercise_seconds"`
	CurrentIndex    int  `json:"current_index"`
	ExerciseActive  bool `json:"exercise_active"`
}

// Tick advances the total counter by one second, and the exercise counter
// too when an exercise is active.
func (s TimerState) Tick() TimerState {
	s.TotalSeconds++
	if s.ExerciseActive {
		s.ExerciseSeconds++
	}
	return s
}

// ResetExercise zeroes the per-exercise counter. Called when an exercise
// becomes active and when it resolves.
func (s TimerState) ResetExercise() TimerState {
	s.ExerciseSeconds = 0
	return s
}
