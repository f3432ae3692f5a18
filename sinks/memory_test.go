package sinks

import (
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/traceline/traceline/core"
)

var (
	_ core.TraceSink = (*PrintSink)(nil)
	_ core.TraceSink = (*TraceTask)(nil)
	_ core.TraceSink = (*JSONTraceTask)(nil)
	_ core.TraceSink = (*MemorySink)(nil)
)

func TestMemorySinkRecordsEverything(t *testing.T) {
	ms := NewMemorySink()

	ms.Trace("m", 5, core.WarningLevel, true)
	ms.TraceISR("i", -2)
	ms.TraceU8("b", []uint8{1})
	ms.Log("l")
	ms.StartTime()
	ms.StopTime("s", 10)

	want := []SinkCall{
		{Op: "trace", Msg: "m", Code: 5, Level: core.WarningLevel, Reboot: true},
		{Op: "isr", Msg: "i", Code: -2},
		{Op: "u8", Msg: "b", Data: []uint8{1}},
		{Op: "log", Msg: "l"},
		{Op: "start"},
		{Op: "stop", Msg: "s", Div: 10},
	}
	if diff := cmp.Diff(want, ms.Calls()); diff != "" {
		t.Errorf("calls mismatch (-want +got):\n%s", diff)
	}
}

func TestMemorySinkCopiesData(t *testing.T) {
	ms := NewMemorySink()
	data := []uint16{1, 2}
	ms.TraceU16("w", data)
	data[0] = 99

	got := ms.Calls()[0].Data.([]uint16)
	if got[0] != 1 {
		t.Errorf("recorded data aliased the caller's slice: %v", got)
	}
}

func TestMemorySinkClear(t *testing.T) {
	ms := NewMemorySink()
	ms.Log("x")
	ms.Clear()
	if ms.Count() != 0 {
		t.Errorf("Count after Clear = %d", ms.Count())
	}
}
