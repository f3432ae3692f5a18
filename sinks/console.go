package sinks

import (
	"fmt"
	"io"
	"os"
	"sync"
	"time"

	"github.com/traceline/traceline/core"
)

// PrintSink writes trace events synchronously to a console writer. It is
// the simple sink: every call formats and writes before returning, so it is
// suitable for startup code and tests but not for latency-sensitive
// callers — those register the async TraceTask instead.
type PrintSink struct {
	core.NopISR

	mu        sync.Mutex
	out       io.Writer
	ref       core.TimeRef
	forceUsec bool

	rebootDelay time.Duration
	restart     func()
}

// PrintOption configures a PrintSink.
type PrintOption func(*PrintSink)

// WithPrintWriter directs output to w instead of stdout.
func WithPrintWriter(w io.Writer) PrintOption {
	return func(s *PrintSink) { s.out = w }
}

// WithPrintMicroseconds pins the time header to microseconds.
func WithPrintMicroseconds() PrintOption {
	return func(s *PrintSink) { s.forceUsec = true }
}

// WithPrintRestart replaces the process-restart hook used by reboot traces.
func WithPrintRestart(fn func()) PrintOption {
	return func(s *PrintSink) { s.restart = fn }
}

// WithPrintClock replaces the sink's clock. Tests use it for deterministic
// headers.
func WithPrintClock(now func() int64) PrintOption {
	return func(s *PrintSink) { s.ref.Now = now }
}

// NewPrintSink creates a console sink writing to stdout.
func NewPrintSink(opts ...PrintOption) *PrintSink {
	s := &PrintSink{
		out:         os.Stdout,
		rebootDelay: time.Second,
		restart:     func() { os.Exit(1) },
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Trace formats a scalar event. A code equal to core.IgnoreCode suppresses
// output entirely. When reboot is true the sink prints the event and an
// abort marker, waits for the output to flush, and restarts the process.
func (s *PrintSink) Trace(msg string, code int32, level core.Level, reboot bool) {
	s.mu.Lock()
	res := s.ref.Elapsed(true)
	if code == core.IgnoreCode {
		s.mu.Unlock()
		return
	}
	hdr := formatHeader(uint64(res), 1, s.forceUsec)
	if msg == "" {
		fmt.Fprintf(s.out, "%s: %d\n", hdr, code)
	} else {
		fmt.Fprintf(s.out, "%s: %d:%s\n", hdr, code, msg)
	}
	if reboot {
		fmt.Fprintf(s.out, "abort\n")
		s.mu.Unlock()
		time.Sleep(s.rebootDelay)
		s.restart()
		return
	}
	s.mu.Unlock()
}

// TraceU8 prints unsigned bytes as comma-separated two-digit hex.
func (s *PrintSink) TraceU8(msg string, data []uint8) {
	s.array(msg, len(data), func(i int) string { return fmt.Sprintf("0x%02x", data[i]) })
}

// TraceI8 prints signed bytes as comma-separated decimal.
func (s *PrintSink) TraceI8(msg string, data []int8) {
	s.array(msg, len(data), func(i int) string { return fmt.Sprintf("%d", data[i]) })
}

// TraceU16 prints unsigned 16-bit elements as comma-separated four-digit hex.
func (s *PrintSink) TraceU16(msg string, data []uint16) {
	s.array(msg, len(data), func(i int) string { return fmt.Sprintf("0x%04x", data[i]) })
}

// TraceI16 prints signed 16-bit elements as comma-separated decimal.
func (s *PrintSink) TraceI16(msg string, data []int16) {
	s.array(msg, len(data), func(i int) string { return fmt.Sprintf("%d", data[i]) })
}

// TraceU32 prints unsigned 32-bit elements as comma-separated eight-digit hex.
func (s *PrintSink) TraceU32(msg string, data []uint32) {
	s.array(msg, len(data), func(i int) string { return fmt.Sprintf("0x%08x", data[i]) })
}

// TraceI32 prints signed 32-bit elements as comma-separated decimal.
func (s *PrintSink) TraceI32(msg string, data []int32) {
	s.array(msg, len(data), func(i int) string { return fmt.Sprintf("%d", data[i]) })
}

func (s *PrintSink) array(msg string, n int, elem func(int) string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	res := s.ref.Elapsed(true)
	hdr := formatHeader(uint64(res), 1, s.forceUsec)
	fmt.Fprintf(s.out, "%s%s %d:", hdr, msg, n)
	for i := 0; i < n; i++ {
		if i == 0 {
			fmt.Fprintf(s.out, " %s", elem(i))
		} else {
			fmt.Fprintf(s.out, ",%s", elem(i))
		}
	}
	fmt.Fprintf(s.out, "\n")
}

// Log prints a plain string as a zero-division interval.
func (s *PrintSink) Log(str string) {
	s.StopTime(str, 1)
}

// StartTime resets the sink's time reference.
func (s *PrintSink) StartTime() {
	s.ref.Reset()
}

// StopTime prints the elapsed time since the reference point, divided by
// div, labeled with str.
func (s *PrintSink) StopTime(str string, div uint32) {
	s.mu.Lock()
	defer s.mu.Unlock()
	res := s.ref.Elapsed(true)
	hdr := formatHeader(uint64(res), div, s.forceUsec)
	fmt.Fprintf(s.out, "%s %s\n", hdr, str)
}
