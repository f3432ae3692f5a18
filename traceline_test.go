package traceline

import (
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"github.com/traceline/traceline/core"
	"github.com/traceline/traceline/sinks"
)

var _ core.TraceSink = (*TraceLog)(nil)

func TestFanOutOrder(t *testing.T) {
	first := sinks.NewMemorySink()
	second := sinks.NewMemorySink()
	hub := New(WithSinks(first, second))

	hub.Trace("hello", 5, core.InfoLevel, false)
	hub.TraceU16("w", []uint16{1, 2})
	hub.Log("plain")

	for name, sink := range map[string]*sinks.MemorySink{"first": first, "second": second} {
		calls := sink.Calls()
		if len(calls) != 3 {
			t.Fatalf("%s sink saw %d calls, want 3", name, len(calls))
		}
		want := []sinks.SinkCall{
			{Op: "trace", Msg: "hello", Code: 5, Level: core.InfoLevel},
			{Op: "u16", Msg: "w", Data: []uint16{1, 2}},
			{Op: "log", Msg: "plain"},
		}
		if diff := cmp.Diff(want, calls); diff != "" {
			t.Errorf("%s sink calls mismatch (-want +got):\n%s", name, diff)
		}
	}
}

// taggedSink appends its tag to a shared sequence on every scalar trace,
// exposing cross-sink dispatch order.
type taggedSink struct {
	*sinks.MemorySink
	tag string
	seq *[]string
}

func (s taggedSink) Trace(msg string, code int32, level core.Level, reboot bool) {
	*s.seq = append(*s.seq, s.tag)
	s.MemorySink.Trace(msg, code, level, reboot)
}

func TestRegistrationOrder(t *testing.T) {
	var seq []string
	hub := New()
	for _, tag := range []string{"a", "b", "c"} {
		hub.Add(taggedSink{MemorySink: sinks.NewMemorySink(), tag: tag, seq: &seq})
	}

	hub.Trace("m", 1, core.InfoLevel, false)
	hub.Trace("m", 2, core.InfoLevel, false)

	want := []string{"a", "b", "c", "a", "b", "c"}
	if diff := cmp.Diff(want, seq); diff != "" {
		t.Errorf("dispatch order mismatch (-want +got):\n%s", diff)
	}
}

func TestEachSinkCalledExactlyOnce(t *testing.T) {
	ms := sinks.NewMemorySink()
	hub := New()
	hub.Add(ms)

	hub.Trace("once", 1, core.ErrorLevel, false)
	if ms.Count() != 1 {
		t.Errorf("sink saw %d calls, want 1", ms.Count())
	}
}

func TestEmptyHubIsNoop(t *testing.T) {
	hub := New()
	hub.Trace("m", 1, core.InfoLevel, false)
	hub.TraceU8("b", []uint8{1})
	hub.Log("s")
	hub.StartTime()
	hub.StopTime("s", 1)
	hub.TraceISR("i", 0)
}

func TestRemove(t *testing.T) {
	keep := sinks.NewMemorySink()
	drop := sinks.NewMemorySink()
	hub := New(WithSinks(keep, drop))

	hub.Remove(drop)
	hub.Trace("m", 1, core.InfoLevel, false)

	if keep.Count() != 1 {
		t.Errorf("kept sink saw %d calls, want 1", keep.Count())
	}
	if drop.Count() != 0 {
		t.Errorf("removed sink saw %d calls, want 0", drop.Count())
	}

	// removing an unregistered sink is a no-op
	hub.Remove(drop)
	hub.Trace("m", 2, core.InfoLevel, false)
	if keep.Count() != 2 {
		t.Errorf("kept sink saw %d calls, want 2", keep.Count())
	}
}

func TestClear(t *testing.T) {
	ms := sinks.NewMemorySink()
	hub := New(WithSinks(ms))
	hub.Clear()
	hub.Trace("m", 1, core.InfoLevel, false)
	if ms.Count() != 0 {
		t.Errorf("cleared sink saw %d calls", ms.Count())
	}
}

func TestAllOperationsFanOut(t *testing.T) {
	ms := sinks.NewMemorySink()
	hub := New(WithSinks(ms))

	hub.TraceU8("a", []uint8{1})
	hub.TraceI8("b", []int8{-1})
	hub.TraceU16("c", []uint16{2})
	hub.TraceI16("d", []int16{-2})
	hub.TraceU32("e", []uint32{3})
	hub.TraceI32("f", []int32{-3})
	hub.StartTime()
	hub.StopTime("g", 4)
	hub.TraceISR("h", -7)

	ops := make([]string, 0, 9)
	for _, c := range ms.Calls() {
		ops = append(ops, c.Op)
	}
	want := []string{"u8", "i8", "u16", "i16", "u32", "i32", "start", "stop", "isr"}
	if diff := cmp.Diff(want, ops); diff != "" {
		t.Errorf("operations mismatch (-want +got):\n%s", diff)
	}
}

func TestConvenienceLevels(t *testing.T) {
	ms := sinks.NewMemorySink()
	hub := New(WithSinks(ms))

	hub.Error("e", 1)
	hub.Warning("w", 2)
	hub.Info("i", 3)
	hub.Debug("d", 4)

	calls := ms.Calls()
	wantLevels := []core.Level{core.ErrorLevel, core.WarningLevel, core.InfoLevel, core.DebugLevel}
	if len(calls) != len(wantLevels) {
		t.Fatalf("saw %d calls, want %d", len(calls), len(wantLevels))
	}
	for i, c := range calls {
		if c.Level != wantLevels[i] || c.Reboot {
			t.Errorf("call %d: level = %v reboot = %v", i, c.Level, c.Reboot)
		}
	}
}

func TestConvenienceArrays(t *testing.T) {
	ms := sinks.NewMemorySink()
	hub := New(WithSinks(ms))

	hub.TDec("d", []int16{-1})
	hub.THex("h", []uint16{0xab})

	calls := ms.Calls()
	if len(calls) != 2 || calls[0].Op != "i16" || calls[1].Op != "u16" {
		t.Errorf("calls = %+v", calls)
	}
}

func TestRebootRestartsAfterDispatch(t *testing.T) {
	ms := sinks.NewMemorySink()
	restarted := make(chan struct{})
	hub := New(WithSinks(ms), WithRestart(func() { close(restarted) }))
	hub.rebootDelay = time.Millisecond

	hub.Trace("fatal", 9, core.ErrorLevel, true)

	select {
	case <-restarted:
	case <-time.After(time.Second):
		t.Fatal("restart hook never invoked")
	}
	calls := ms.Calls()
	if len(calls) != 1 || !calls[0].Reboot {
		t.Errorf("sink calls before restart = %+v", calls)
	}
}

func TestHubChaining(t *testing.T) {
	ms := sinks.NewMemorySink()
	inner := New(WithSinks(ms))
	outer := New(WithSinks(inner))

	outer.Trace("m", 1, core.InfoLevel, false)
	if ms.Count() != 1 {
		t.Errorf("chained sink saw %d calls, want 1", ms.Count())
	}
}
