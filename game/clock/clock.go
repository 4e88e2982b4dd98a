// Package clock abstracts time so that game timers can run against the wall
// clock in production and against a manually advanced clock in tests.
package clock

import (
	"sync"
	"time"
)

// Timer is a pending callback that can be cancelled.
type Timer interface {
	// Stop prevents the callback from firing. It reports whether the call
	// stopped the timer before it fired.
	Stop() bool
}

// Clock schedules callbacks.
type Clock interface {
	Now() time.Time
	AfterFunc(d time.Duration, f func()) Timer
}

type realClock struct{}

// Real returns a Clock backed by the time package.
func Real() Clock {
	return realClock{}
}

func (realClock) Now() time.Time {
	return time.Now()
}

func (realClock) AfterFunc(d time.Duration, f func()) Timer {
	return time.AfterFunc(d, f)
}

// repeater re-arms itself on clk after every call to f until stopped.
type repeater struct {
	mu      sync.Mutex
	clk     Clock
	every   time.Duration
	f       func()
	timer   Timer
	stopped bool
}

// Every calls f every d on clk until the returned Timer is stopped. The first
// call happens after d.
func Every(clk Clock, d time.Duration, f func()) Timer {
	r := &repeater{clk: clk, every: d, f: f}
	r.mu.Lock()
	r.timer = clk.AfterFunc(d, r.fire)
	r.mu.Unlock()
	return r
}

func (r *repeater) fire() {
	r.mu.Lock()
	if r.stopped {
		r.mu.Unlock()
		return
	}
	r.mu.Unlock()

	r.f()

	r.mu.Lock()
	defer r.mu.Unlock()
	if !r.stopped {
		r.timer = r.clk.AfterFunc(r.every, r.fire)
	}
}

func (r *repeater) Stop() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.stopped {
		return false
	}
	r.stopped = true
	if r.timer != nil {
		r.timer.Stop()
	}
	return true
}
