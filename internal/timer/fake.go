package timer

import (
	"sync"
	"time"
)

// Fake is a deterministic Scheduler for tests: time only moves when the
// test calls Advance or Fire, and callbacks run on the calling goroutine.
type Fake struct {
	mu   sync.Mutex
	now  time.Duration
	seq  int
	pend []*fakeTask
}

type fakeTask struct {
	at        time.Duration
	seq       int
	fn        func()
	cancelled bool
}

func NewFake() *Fake { return &Fake{} }

func (f *Fake) Schedule(d time.Duration, fn func()) Handle {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.seq++
	t := &fakeTask{at: f.now + d, seq: f.seq, fn: fn}
	f.pend = append(f.pend, t)
	return t
}

func (f *Fake) Cancel(h Handle) {
	t, ok := h.(*fakeTask)
	if !ok {
		return
	}
	f.mu.Lock()
	t.cancelled = true
	f.mu.Unlock()
}

// Now is the fake clock reading.
func (f *Fake) Now() time.Duration {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.now
}

// Pending counts live (not yet fired, not cancelled) callbacks.
func (f *Fake) Pending() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	n := 0
	for _, t := range f.pend {
		if !t.cancelled {
			n++
		}
	}
	return n
}

// NextDelay reports the time until the earliest pending callback,
// ok=false when nothing is armed.
func (f *Fake) NextDelay() (time.Duration, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	t := f.earliest(0, false)
	if t == nil {
		return 0, false
	}
	d := t.at - f.now
	if d < 0 {
		d = 0
	}
	return d, true
}

// Fire runs the earliest pending callback regardless of its due time.
// Returns false when nothing is pending.
func (f *Fake) Fire() bool {
	f.mu.Lock()
	t := f.take(0, false)
	if t == nil {
		f.mu.Unlock()
		return false
	}
	if t.at > f.now {
		f.now = t.at
	}
	f.mu.Unlock()
	t.fn()
	return true
}

// Advance moves the clock forward by d, firing due callbacks in order —
// including ones scheduled while advancing.
func (f *Fake) Advance(d time.Duration) {
	f.mu.Lock()
	deadline := f.now + d
	for {
		t := f.take(deadline, true)
		if t == nil {
			break
		}
		if t.at > f.now {
			f.now = t.at
		}
		f.mu.Unlock()
		t.fn()
		f.mu.Lock()
	}
	f.now = deadline
	f.mu.Unlock()
}

// earliest finds the live task with the lowest (due, seq), optionally
// bounded by a deadline. Caller holds f.mu.
func (f *Fake) earliest(deadline time.Duration, bounded bool) *fakeTask {
	var best *fakeTask
	for _, t := range f.pend {
		if t.cancelled {
			continue
		}
		if bounded && t.at > deadline {
			continue
		}
		if best == nil || t.at < best.at || (t.at == best.at && t.seq < best.seq) {
			best = t
		}
	}
	return best
}

// take removes and returns the earliest live task. Caller holds f.mu.
func (f *Fake) take(deadline time.Duration, bounded bool) *fakeTask {
	best := f.earliest(deadline, bounded)
	if best == nil {
		return nil
	}
	keep := f.pend[:0]
	for _, t := range f.pend {
		if t != best && !t.cancelled {
			keep = append(keep, t)
		}
	}
	f.pend = keep
	return best
}
