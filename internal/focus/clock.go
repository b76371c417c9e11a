package focus

import "time"

// Clock abstracts wall-clock reads and one-shot timers so the debounce
// state machine is testable without real waits. Comparisons in this
// package always use Now() deltas rather than timer arrival, which keeps
// the behavior correct even when a throttled host delivers timers late.
type Clock interface {
	Now() time.Time
	// AfterFunc schedules fn after d and returns a handle that can cancel
	// the pending fire.
	AfterFunc(d time.Duration, fn func()) Timer
}

// Timer is a cancellable one-shot unit of work.
type Timer interface {
	// Stop cancels the pending fire. It reports whether the call
	// actually prevented the fire.
	Stop() bool
}

type realClock struct{}

func (realClock) Now() time.Time { return time.Now() }

func (realClock) AfterFunc(d time.Duration, fn func()) Timer {
	return time.AfterFunc(d, fn)
}

// RealClock returns the wall-clock implementation.
func RealClock() Clock { return realClock{} }
