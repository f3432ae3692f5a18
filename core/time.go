package core

import (
	"sync"
	"time"
)

var procStart = time.Now()

// NowMicros returns a monotonic microsecond tick, counted from process
// start. It is the default clock for TimeRef.
func NowMicros() int64 {
	return time.Since(procStart).Microseconds()
}

// TimeRef is the per-sink time reference used for interval measurement.
// Elapsed reads the time since the reference point and, when refresh is
// true, moves the reference point in the same critical section, so
// concurrent producers never observe a torn read-and-reset.
type TimeRef struct {
	mu   sync.Mutex
	last int64

	// Now overrides the clock; tests inject a deterministic one.
	// Nil means NowMicros.
	Now func() int64
}

func (r *TimeRef) now() int64 {
	if r.Now != nil {
		return r.Now()
	}
	return NowMicros()
}

// Elapsed returns the microseconds since the last reference point, updating
// the reference point when refresh is true.
func (r *TimeRef) Elapsed(refresh bool) int64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	t := r.now()
	res := t - r.last
	if refresh {
		r.last = t
	}
	return res
}

// Reset moves the reference point to the current time.
func (r *TimeRef) Reset() {
	r.Elapsed(true)
}
