package engine

import "time"

// Clock provides wall-clock time to the execution engine. All elapsed-time
// math derives from Clock readings, never from counted ticks alone.
// The interface allows time to be fixed in tests.
type Clock interface {
	Now() time.Time
}

// RealClock provides actual system time.
type RealClock struct{}

// Now returns the current system time.
func (RealClock) Now() time.Time {
	return time.Now()
}
