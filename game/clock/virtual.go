package clock

import (
	"sort"
	"sync"
	"time"
)

// Virtual is a Clock that only moves when Advance is called. Callbacks run
// synchronously on the goroutine calling Advance, in deadline order, with
// ties broken by scheduling order.
type Virtual struct {
	mu      sync.Mutex
	now     time.Time
	seq     uint64
	pending []*virtualTimer
}

type virtualTimer struct {
	clock    *Virtual
	deadline time.Time
	seq      uint64
	f        func()
	done     bool
}

// NewVirtual creates a virtual clock starting at start.
func NewVirtual(start time.Time) *Virtual {
	return &Virtual{now: start}
}

// Now returns the current virtual time.
func (v *Virtual) Now() time.Time {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.now
}

// AfterFunc schedules f to run once the clock has advanced by d.
func (v *Virtual) AfterFunc(d time.Duration, f func()) Timer {
	v.mu.Lock()
	defer v.mu.Unlock()

	if d < 0 {
		d = 0
	}
	v.seq++
	t := &virtualTimer{clock: v, deadline: v.now.Add(d), seq: v.seq, f: f}
	v.pending = append(v.pending, t)
	return t
}

// Advance moves the clock forward by d, running every callback that falls
// due along the way. Callbacks scheduled by other callbacks run in the same
// call if their deadline is within the window.
func (v *Virtual) Advance(d time.Duration) {
	v.mu.Lock()
	target := v.now.Add(d)
	v.mu.Unlock()

	for {
		v.mu.Lock()
		next := v.popDue(target)
		if next == nil {
			v.now = target
			v.mu.Unlock()
			return
		}
		v.now = next.deadline
		v.mu.Unlock()

		next.f()
	}
}

// Pending returns the number of timers waiting to fire.
func (v *Virtual) Pending() int {
	v.mu.Lock()
	defer v.mu.Unlock()
	return len(v.pending)
}

// popDue removes and returns the earliest timer due at or before target.
// Callers must hold v.mu.
func (v *Virtual) popDue(target time.Time) *virtualTimer {
	if len(v.pending) == 0 {
		return nil
	}
	sort.SliceStable(v.pending, func(i, j int) bool {
		a, b := v.pending[i], v.pending[j]
		if !a.deadline.Equal(b.deadline) {
			return a.deadline.Before(b.deadline)
		}
		return a.seq < b.seq
	})
	first := v.pending[0]
	if first.deadline.After(target) {
		return nil
	}
	v.pending = v.pending[1:]
	first.done = true
	return first
}

func (t *virtualTimer) Stop() bool {
	v := t.clock
	v.mu.Lock()
	defer v.mu.Unlock()

	if t.done {
		return false
	}
	t.done = true
	for i, p := range v.pending {
		if p == t {
			v.pending = append(v.pending[:i], v.pending[i+1:]...)
			break
		}
	}
	return true
}
