package sinks

import (
	"sync"

	"github.com/traceline/traceline/core"
)

// SinkCall is one recorded operation on a MemorySink.
type SinkCall struct {
	Op     string // "trace", "isr", "u8", "i8", "u16", "i16", "u32", "i32", "log", "start", "stop"
	Msg    string
	Code   int32
	Level  core.Level
	Reboot bool
	Div    uint32
	Data   any // copy of the traced slice for array ops, nil otherwise
}

// MemorySink records every operation for later inspection. Intended for
// testing dispatch order and payload integrity.
type MemorySink struct {
	mu    sync.Mutex
	calls []SinkCall
}

// NewMemorySink creates an empty recording sink.
func NewMemorySink() *MemorySink {
	return &MemorySink{}
}

// Calls returns a copy of the recorded operations in arrival order.
func (ms *MemorySink) Calls() []SinkCall {
	ms.mu.Lock()
	defer ms.mu.Unlock()
	out := make([]SinkCall, len(ms.calls))
	copy(out, ms.calls)
	return out
}

// Count returns the number of recorded operations.
func (ms *MemorySink) Count() int {
	ms.mu.Lock()
	defer ms.mu.Unlock()
	return len(ms.calls)
}

// Clear discards all recorded operations.
func (ms *MemorySink) Clear() {
	ms.mu.Lock()
	ms.calls = nil
	ms.mu.Unlock()
}

func (ms *MemorySink) record(c SinkCall) {
	ms.mu.Lock()
	ms.calls = append(ms.calls, c)
	ms.mu.Unlock()
}

func (ms *MemorySink) Trace(msg string, code int32, level core.Level, reboot bool) {
	ms.record(SinkCall{Op: "trace", Msg: msg, Code: code, Level: level, Reboot: reboot})
}

func (ms *MemorySink) TraceISR(msg string, code int16) {
	ms.record(SinkCall{Op: "isr", Msg: msg, Code: int32(code)})
}

func (ms *MemorySink) TraceU8(msg string, data []uint8) {
	ms.record(SinkCall{Op: "u8", Msg: msg, Data: append([]uint8(nil), data...)})
}

func (ms *MemorySink) TraceI8(msg string, data []int8) {
	ms.record(SinkCall{Op: "i8", Msg: msg, Data: append([]int8(nil), data...)})
}

func (ms *MemorySink) TraceU16(msg string, data []uint16) {
	ms.record(SinkCall{Op: "u16", Msg: msg, Data: append([]uint16(nil), data...)})
}

func (ms *MemorySink) TraceI16(msg string, data []int16) {
	ms.record(SinkCall{Op: "i16", Msg: msg, Data: append([]int16(nil), data...)})
}

func (ms *MemorySink) TraceU32(msg string, data []uint32) {
	ms.record(SinkCall{Op: "u32", Msg: msg, Data: append([]uint32(nil), data...)})
}

func (ms *MemorySink) TraceI32(msg string, data []int32) {
	ms.record(SinkCall{Op: "i32", Msg: msg, Data: append([]int32(nil), data...)})
}

func (ms *MemorySink) Log(s string) {
	ms.record(SinkCall{Op: "log", Msg: s})
}

func (ms *MemorySink) StartTime() {
	ms.record(SinkCall{Op: "start"})
}

func (ms *MemorySink) StopTime(s string, div uint32) {
	ms.record(SinkCall{Op: "stop", Msg: s, Div: div})
}
