// Package traceline is a non-blocking, multi-sink trace pipeline. A TraceLog
// fans every trace call out to its registered sinks: a synchronous console
// sink, an asynchronous actor sink, a JSON variant, or anything else that
// implements core.TraceSink.
//
// The TraceLog is an explicitly constructed service object. Build one at
// startup, register sinks on it, and hand it to every component that logs.
package traceline

import (
	"fmt"
	"os"
	"time"

	"github.com/traceline/traceline/core"
)

// TraceLog dispatches trace calls to an ordered set of sinks. All methods
// except TraceISR serialize through an internal lock; sinks receive calls in
// registration order. A TraceLog with no sinks ignores every call.
//
// TraceLog itself implements core.TraceSink, so hubs can be chained.
type TraceLog struct {
	lk    core.Lock
	sinks []core.TraceSink

	rebootDelay time.Duration
	restart     func()
}

// Option configures a TraceLog.
type Option func(*TraceLog)

// WithRestart replaces the process-restart hook invoked by reboot traces.
func WithRestart(fn func()) Option {
	return func(t *TraceLog) { t.restart = fn }
}

// WithSinks registers initial sinks in order.
func WithSinks(sinks ...core.TraceSink) Option {
	return func(t *TraceLog) { t.sinks = append(t.sinks, sinks...) }
}

// New creates an empty trace hub.
func New(opts ...Option) *TraceLog {
	t := &TraceLog{
		rebootDelay: time.Second,
		restart:     func() { os.Exit(1) },
	}
	t.lk.Init()
	for _, opt := range opts {
		opt(t)
	}
	return t
}

// Add registers a sink at the end of the dispatch order. Registering the
// same sink twice makes it receive every call twice.
func (t *TraceLog) Add(s core.TraceSink) {
	t.lk.Lock()
	t.sinks = append(t.sinks, s)
	t.lk.Unlock()
}

// Remove unregisters the first occurrence of s. Unknown sinks are ignored.
func (t *TraceLog) Remove(s core.TraceSink) {
	t.lk.Lock()
	defer t.lk.Unlock()
	for i, have := range t.sinks {
		if have == s {
			t.sinks = append(t.sinks[:i], t.sinks[i+1:]...)
			return
		}
	}
}

// Clear unregisters every sink.
func (t *TraceLog) Clear() {
	t.lk.Lock()
	t.sinks = nil
	t.lk.Unlock()
}

// Trace dispatches a scalar trace to every sink. When reboot is set the
// process restarts after dispatch; the delay gives async sinks a chance to
// flush.
func (t *TraceLog) Trace(msg string, code int32, level core.Level, reboot bool) {
	t.lk.Lock()
	for _, s := range t.sinks {
		s.Trace(msg, code, level, reboot)
	}
	t.lk.Unlock()
	if reboot {
		fmt.Println("trace reboot...")
		time.Sleep(t.rebootDelay)
		t.restart()
	}
}

// TraceISR dispatches an interrupt-context trace. It takes no lock and must
// never block; sinks handle it on their non-blocking path.
func (t *TraceLog) TraceISR(msg string, code int16) {
	for _, s := range t.sinks {
		s.TraceISR(msg, code)
	}
}

// TraceU8 dispatches an unsigned byte array trace.
func (t *TraceLog) TraceU8(msg string, data []uint8) {
	t.lk.Lock()
	defer t.lk.Unlock()
	for _, s := range t.sinks {
		s.TraceU8(msg, data)
	}
}

// TraceI8 dispatches a signed byte array trace.
func (t *TraceLog) TraceI8(msg string, data []int8) {
	t.lk.Lock()
	defer t.lk.Unlock()
	for _, s := range t.sinks {
		s.TraceI8(msg, data)
	}
}

// TraceU16 dispatches an unsigned 16-bit array trace.
func (t *TraceLog) TraceU16(msg string, data []uint16) {
	t.lk.Lock()
	defer t.lk.Unlock()
	for _, s := range t.sinks {
		s.TraceU16(msg, data)
	}
}

// TraceI16 dispatches a signed 16-bit array trace.
func (t *TraceLog) TraceI16(msg string, data []int16) {
	t.lk.Lock()
	defer t.lk.Unlock()
	for _, s := range t.sinks {
		s.TraceI16(msg, data)
	}
}

// TraceU32 dispatches an unsigned 32-bit array trace.
func (t *TraceLog) TraceU32(msg string, data []uint32) {
	t.lk.Lock()
	defer t.lk.Unlock()
	for _, s := range t.sinks {
		s.TraceU32(msg, data)
	}
}

// TraceI32 dispatches a signed 32-bit array trace.
func (t *TraceLog) TraceI32(msg string, data []int32) {
	t.lk.Lock()
	defer t.lk.Unlock()
	for _, s := range t.sinks {
		s.TraceI32(msg, data)
	}
}

// Log dispatches a plain string.
func (t *TraceLog) Log(s string) {
	t.lk.Lock()
	defer t.lk.Unlock()
	for _, sink := range t.sinks {
		sink.Log(s)
	}
}

// StartTime resets the interval reference point on every sink.
func (t *TraceLog) StartTime() {
	t.lk.Lock()
	defer t.lk.Unlock()
	for _, s := range t.sinks {
		s.StartTime()
	}
}

// StopTime dispatches an interval stop. div averages the elapsed time over
// that many iterations.
func (t *TraceLog) StopTime(s string, div uint32) {
	t.lk.Lock()
	defer t.lk.Unlock()
	for _, sink := range t.sinks {
		sink.StopTime(s, div)
	}
}

// Error traces at the error level.
func (t *TraceLog) Error(msg string, code int32) {
	t.Trace(msg, code, core.ErrorLevel, false)
}

// Warning traces at the warning level.
func (t *TraceLog) Warning(msg string, code int32) {
	t.Trace(msg, code, core.WarningLevel, false)
}

// Info traces at the info level.
func (t *TraceLog) Info(msg string, code int32) {
	t.Trace(msg, code, core.InfoLevel, false)
}

// Debug traces at the debug level.
func (t *TraceLog) Debug(msg string, code int32) {
	t.Trace(msg, code, core.DebugLevel, false)
}

// Reboot traces at the error level and restarts the process after dispatch.
func (t *TraceLog) Reboot(msg string, code int32) {
	t.Trace(msg, code, core.ErrorLevel, true)
}

// TDec traces a signed 16-bit array, rendered in decimal by the sinks.
func (t *TraceLog) TDec(msg string, data []int16) {
	t.TraceI16(msg, data)
}

// THex traces an unsigned 16-bit array, rendered in hex by the sinks.
func (t *TraceLog) THex(msg string, data []uint16) {
	t.TraceU16(msg, data)
}
