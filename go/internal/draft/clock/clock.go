// Package clock provides the per-session pick countdown. Exactly one
// countdown is active at a time; every arm or cancel bumps a generation
// counter so a fire that lost the race to a manual action can be detected
// and rejected by the session instead of silently applied.
package clock

import (
	"sync"
	"time"

	"github.com/jonboulle/clockwork"
)

// PickClock is a cancellable single-fire countdown.
type PickClock struct {
	clock clockwork.Clock

	mu    sync.Mutex
	timer clockwork.Timer
	gen   uint64
}

// New builds a PickClock on the given clock. Production wiring passes
// clockwork.NewRealClock(); tests pass a fake.
func New(c clockwork.Clock) *PickClock {
	return &PickClock{clock: c}
}

// Start arms the countdown for d, cancelling any previous countdown. When the
// countdown expires, fn is invoked once with the generation that armed it.
// The caller compares that generation against Generation() to detect stale
// fires.
func (p *PickClock) Start(d time.Duration, fn func(gen uint64)) (gen uint64, deadline time.Time) {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.stopLocked()
	p.gen++
	g := p.gen
	p.timer = p.clock.AfterFunc(d, func() { fn(g) })
	return g, p.clock.Now().Add(d)
}

// Cancel stops the active countdown, if any. Safe to call more than once and
// safe to race with a fire: the fire's generation no longer matches.
func (p *PickClock) Cancel() {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.stopLocked()
	p.gen++
}

// Generation returns the current arm/cancel generation.
func (p *PickClock) Generation() uint64 {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.gen
}

// Now exposes the underlying clock's current time.
func (p *PickClock) Now() time.Time {
	return p.clock.Now()
}

func (p *PickClock) stopLocked() {
	if p.timer != nil {
		p.timer.Stop()
		p.timer = nil
	}
}
