package engine

import "sync"

// Registry hands out one Runner per device key. Two tabs on the same device
// share the single cache slot; because they resolve to the same Runner, the
// cross-tab race collapses to serialized calls on one mutex and the cache
// stays last-write-wins, matching its single-slot contract.
type Registry struct {
	store     SessionStore
	cache     TimerCache
	clock     Clock
	newTicker func() Ticker

	mu      sync.Mutex
	runners map[string]*Runner
}

// NewRegistry creates a registry. newTicker is called once per device to
// give each runner its own tick driver.
func NewRegistry(store SessionStore, cache TimerCache, clock Clock, newTicker func() Ticker) *Registry {
	return &Registry{
		store:     store,
		cache:     cache,
		clock:     clock,
		newTicker: newTicker,
		runners:   make(map[string]*Runner),
	}
}

// Runner returns the runner bound to deviceID, creating it on first use.
// A cached runner is only handed back to the member it was created for;
// when a different member authenticates on the same device, the old runner
// is detached and replaced so one member can never observe or drive
// another member's session. The displaced member's session stays live in
// the store and reconciles on their next resume.
// PRE: deviceID, gymID and memberID are non-empty
func (g *Registry) Runner(deviceID, gymID, memberID string) *Runner {
	g.mu.Lock()
	defer g.mu.Unlock()
	if r, ok := g.runners[deviceID]; ok {
		if r.MemberID() == memberID {
			return r
		}
		r.detach()
		delete(g.runners, deviceID)
	}
	r := NewRunner(deviceID, gymID, memberID, Deps{
		Store:  g.store,
		Cache:  g.cache,
		Clock:  g.clock,
		Ticker: g.newTicker(),
	})
	g.runners[deviceID] = r
	return r
}

// Release drops a runner whose session reached a terminal phase, freeing its
// ticker. Runners mid-session are kept.
func (g *Registry) Release(deviceID string) {
	g.mu.Lock()
	defer g.mu.Unlock()
	r, ok := g.runners[deviceID]
	if !ok {
		return
	}
	switch r.Phase() {
	case PhaseIdle, PhaseCompleted, PhaseCancelled:
		delete(g.runners, deviceID)
	}
}
