package timer

import "time"

// Handle identifies one scheduled callback.
type Handle interface{}

// Scheduler is the one-shot timer capability injected into players so
// playback runs against the real clock in production and a fake one in
// tests.
type Scheduler interface {
	// Schedule runs fn once after d, on the scheduler's own goroutine.
	Schedule(d time.Duration, fn func()) Handle
	// Cancel revokes a pending handle. A callback that already fired may
	// still run; callers guard against that with their own bookkeeping.
	Cancel(h Handle)
}

// Wall schedules on the real clock via time.AfterFunc.
type Wall struct{}

func (Wall) Schedule(d time.Duration, fn func()) Handle {
	return time.AfterFunc(d, fn)
}

func (Wall) Cancel(h Handle) {
	if t, ok := h.(*time.Timer); ok {
		t.Stop()
	}
}
