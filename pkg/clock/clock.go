// Package clock abstracts wall time and timers so that notification expiry
// and auto-refresh scheduling can be driven by simulated time in tests.
package clock

import (
	"sync"
	"time"
)

// Clock provides the current time and one-shot timers.
type Clock interface {
	Now() time.Time

	// AfterFunc calls f in its own goroutine (Real) or in the goroutine
	// advancing time (Fake) once d has elapsed.
	AfterFunc(d time.Duration, f func()) Timer
}

// Timer is a cancellable pending call. Stop reports whether the call was
// prevented from running.
type Timer interface {
	Stop() bool
}

// Real is the Clock backed by the time package.
type Real struct{}

// Now returns time.Now().
func (Real) Now() time.Time { return time.Now() }

// AfterFunc wraps time.AfterFunc.
func (Real) AfterFunc(d time.Duration, f func()) Timer {
	return time.AfterFunc(d, f)
}

// Every calls f each time interval elapses until the returned Timer is
// stopped. After Stop returns, f is not started again; a call already in
// progress is allowed to finish.
func Every(c Clock, interval time.Duration, f func()) Timer {
	p := &periodic{clock: c, interval: interval, fn: f}
	p.mu.Lock()
	p.arm()
	p.mu.Unlock()
	return p
}

type periodic struct {
	clock    Clock
	interval time.Duration
	fn       func()

	mu      sync.Mutex
	current Timer
	stopped bool
}

// arm schedules the next firing. Caller must hold p.mu.
func (p *periodic) arm() {
	p.current = p.clock.AfterFunc(p.interval, p.fire)
}

func (p *periodic) fire() {
	p.mu.Lock()
	if p.stopped {
		p.mu.Unlock()
		return
	}
	p.arm()
	p.mu.Unlock()

	p.fn()
}

func (p *periodic) Stop() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.stopped {
		return false
	}
	p.stopped = true
	if p.current != nil {
		p.current.Stop()
	}
	return true
}
