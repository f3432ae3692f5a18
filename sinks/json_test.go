package sinks

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/traceline/traceline/core"
)

func newTestJSONTask(t *testing.T, ticks ...int64) *JSONTraceTask {
	t.Helper()
	jt := NewJSONTraceTask(
		WithTaskClock(tickClock(ticks...)),
		WithTaskYield(0),
	)
	t.Cleanup(jt.Stop)
	return jt
}

func drainJSON(t *testing.T, jt *JSONTraceTask) {
	t.Helper()
	if !jt.WaitIdle(2 * time.Second) {
		t.Fatal("json trace task never went idle")
	}
}

func TestJSONScalar(t *testing.T) {
	jt := newTestJSONTask(t, 42)

	jt.Trace("oops", 42, core.WarningLevel, false)
	drainJSON(t, jt)

	want := `{"log":{"time":"(+42usec)","code":42,"level":2,"value":"oops"}}`
	if got := jt.Answer(); got != want {
		t.Errorf("Answer() = %s, want %s", got, want)
	}
}

func TestJSONPlain(t *testing.T) {
	jt := newTestJSONTask(t)

	jt.Log("ready")
	drainJSON(t, jt)

	if got, want := jt.Answer(), `{"log":{"value":"ready"}}`; got != want {
		t.Errorf("Answer() = %s, want %s", got, want)
	}
}

func TestJSONInterval(t *testing.T) {
	jt := newTestJSONTask(t, 100, 1100)

	jt.StartTime()
	jt.StopTime("loop", 100)
	drainJSON(t, jt)

	if got, want := jt.Answer(), `{"log":{"time":"(+10usec)","value":"loop"}}`; got != want {
		t.Errorf("Answer() = %s, want %s", got, want)
	}
}

func TestJSONUnsignedData(t *testing.T) {
	jt := newTestJSONTask(t, 42)

	jt.TraceU16("samples", []uint16{0x00ab, 0xcdef})
	drainJSON(t, jt)

	want := `{"log":{"time":"(+42usec)","value":"samples","data":"00abcdef"}}`
	if got := jt.Answer(); got != want {
		t.Errorf("Answer() = %s, want %s", got, want)
	}
}

func TestJSONSignedData(t *testing.T) {
	jt := newTestJSONTask(t, 42)

	jt.TraceI32("deltas", []int32{-7, 0, 12})
	drainJSON(t, jt)

	want := `{"log":{"time":"(+42usec)","value":"deltas","data":[-7,0,12]}}`
	if got := jt.Answer(); got != want {
		t.Errorf("Answer() = %s, want %s", got, want)
	}
}

func TestJSONISR(t *testing.T) {
	jt := newTestJSONTask(t)

	jt.TraceISR("tick", -3)
	drainJSON(t, jt)

	if got, want := jt.Answer(), `{"log":{"code":-3,"value":"tick"}}`; got != want {
		t.Errorf("Answer() = %s, want %s", got, want)
	}
}

func TestJSONAnswerReplaced(t *testing.T) {
	jt := newTestJSONTask(t, 1, 2)

	jt.Log("first")
	jt.Log("second")
	drainJSON(t, jt)

	if got, want := jt.Answer(), `{"log":{"value":"second"}}`; got != want {
		t.Errorf("Answer() = %s, want %s", got, want)
	}
}

func TestJSONEscaping(t *testing.T) {
	jt := newTestJSONTask(t)

	jt.Log(`say "hi"` + "\n\tdone\\")
	drainJSON(t, jt)

	got := jt.Answer()
	var doc struct {
		Log struct {
			Value string `json:"value"`
		} `json:"log"`
	}
	if err := json.Unmarshal([]byte(got), &doc); err != nil {
		t.Fatalf("Answer() is not valid JSON: %v\n%s", err, got)
	}
	if want := `say "hi"` + "\n\tdone\\"; doc.Log.Value != want {
		t.Errorf("value = %q, want %q", doc.Log.Value, want)
	}
}

func TestJSONEveryAnswerParses(t *testing.T) {
	jt := newTestJSONTask(t, 1, 2, 3, 4, 5, 6, 7, 8)

	calls := []func(){
		func() { jt.Trace("m", 1, core.ErrorLevel, false) },
		func() { jt.TraceU8("b", []uint8{1, 2}) },
		func() { jt.TraceI8("b", []int8{-1}) },
		func() { jt.TraceU32("d", []uint32{0xffffffff}) },
		func() { jt.TraceI16("w", []int16{-5}) },
		func() { jt.StopTime("s", 1) },
		func() { jt.Log("p") },
	}
	for i, call := range calls {
		call()
		drainJSON(t, jt)
		var v any
		if err := json.Unmarshal([]byte(jt.Answer()), &v); err != nil {
			t.Errorf("call %d produced invalid JSON: %v\n%s", i, err, jt.Answer())
		}
	}
}
