package engine

import (
	"sync"
	"time"
)

// Ticker drives the engine's repeating 1-second callback. The engine itself
// never sleeps or schedules; the lifecycle manager starts and stops the
// ticker around the in-progress phase. Injecting the ticker lets tests
// advance virtual time deterministically.
type Ticker interface {
	// Start begins invoking fn once per interval until Stop is called.
	// Calling Start while running is a no-op.
	Start(fn func())
	// Stop halts the callback. Safe to call when not running. After Stop
	// returns, no new invocation of fn will begin.
	Stop()
}

// IntervalTicker runs the callback on a real time.Ticker goroutine.
type IntervalTicker struct {
	interval time.Duration

	mu   sync.Mutex
	stop chan struct{}
}

// NewIntervalTicker creates a ticker with the given interval.
// PRE: interval > 0
func NewIntervalTicker(interval time.Duration) *IntervalTicker {
	return &IntervalTicker{interval: interval}
}

// Start launches the background tick loop.
func (t *IntervalTicker) Start(fn func()) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.stop != nil {
		return
	}
	stop := make(chan struct{})
	t.stop = stop

	go func() {
		ticker := time.NewTicker(t.interval)
		defer ticker.Stop()
		for {
			select {
			case <-stop:
				return
			case <-ticker.C:
				fn()
			}
		}
	}()
}

// Stop halts the tick loop.
func (t *IntervalTicker) Stop() {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.stop == nil {
		return
	}
	close(t.stop)
	t.stop = nil
}

// ManualTicker is a Ticker whose time only advances when the test calls
// Advance. It never spawns a goroutine.
type ManualTicker struct {
	mu      sync.Mutex
	fn      func()
	running bool
	Started int // times Start was called
	Stopped int // times Stop was called
}

// Start records the callback and marks the ticker running.
func (t *ManualTicker) Start(fn func()) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.running {
		return
	}
	t.fn = fn
	t.running = true
	t.Started++
}

// Stop marks the ticker stopped.
func (t *ManualTicker) Stop() {
	t.mu.Lock()
	defer t.mu.Unlock()
	if !t.running {
		return
	}
	t.running = false
	t.Stopped++
}

// Running reports whether the ticker is currently started.
func (t *ManualTicker) Running() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.running
}

// Advance fires the callback n times, as n elapsed seconds would.
// Ticks while stopped are dropped, like a real ticker.
func (t *ManualTicker) Advance(n int) {
	for i := 0; i < n; i++ {
		t.mu.Lock()
		fn, running := t.fn, t.running
		t.mu.Unlock()
		if !running || fn == nil {
			return
		}
		fn()
	}
}
