package engine

import "errors"

// Contract errors. These reject illegal transitions locally, before any
// store call is made — callers should treat them as programming errors, not
// user-facing failures.
var (
	ErrSessionInProgress  = errors.New("a session is already in progress")
	ErrNoSession          = errors.New("no session is in progress")
	ErrExerciseActive     = errors.New("an exercise is already active")
	ErrNoActiveExercise   = errors.New("no exercise is active")
	ErrNotCurrentExercise = errors.New("exercise is not the current one")
	ErrExerciseResolved   = errors.New("exercise is already resolved")
)
