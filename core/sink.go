package core

// TraceSink receives trace events and renders or stores them.
//
// Trace is the scalar entry point. The six array methods carry one slice
// each; unsigned elements conventionally render as fixed-width hex and
// signed elements as decimal, but the exact formatting belongs to the sink.
// A minimal implementation may forward its signed variants to the unsigned
// ones via AsU8/AsU16/AsU32.
//
// StartTime and StopTime bracket an interval measured against the sink's
// own time reference; Log reports a plain string, conventionally as
// StopTime(s, 1).
type TraceSink interface {
	// Trace reports a scalar event. A code equal to IgnoreCode suppresses
	// output. When reboot is true the sink renders the event as fatal; the
	// process restart itself is driven by the dispatch hub or the sink,
	// depending on which one owns the restart hook.
	Trace(msg string, code int32, level Level, reboot bool)

	// TraceISR is the interrupt-context variant. Implementations that
	// cannot run safely in that context do nothing; embed NopISR to get
	// that behavior.
	TraceISR(msg string, code int16)

	TraceU8(msg string, data []uint8)
	TraceI8(msg string, data []int8)
	TraceU16(msg string, data []uint16)
	TraceI16(msg string, data []int16)
	TraceU32(msg string, data []uint32)
	TraceI32(msg string, data []int32)

	// Log reports a plain string.
	Log(s string)

	// StartTime resets the sink's time reference.
	StartTime()

	// StopTime reports the elapsed time since the reference point, divided
	// by div, labeled with s.
	StopTime(s string, div uint32)
}

// NopISR provides the default no-op TraceISR implementation.
type NopISR struct{}

// TraceISR does nothing.
func (NopISR) TraceISR(msg string, code int16) {}

// AsU8 reinterprets signed bytes as unsigned, element by element.
func AsU8(data []int8) []uint8 {
	out := make([]uint8, len(data))
	for i, v := range data {
		out[i] = uint8(v)
	}
	return out
}

// AsU16 reinterprets signed 16-bit elements as unsigned.
func AsU16(data []int16) []uint16 {
	out := make([]uint16, len(data))
	for i, v := range data {
		out[i] = uint16(v)
	}
	return out
}

// AsU32 reinterprets signed 32-bit elements as unsigned.
func AsU32(data []int32) []uint32 {
	out := make([]uint32, len(data))
	for i, v := range data {
		out[i] = uint32(v)
	}
	return out
}
