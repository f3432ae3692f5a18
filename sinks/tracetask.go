package sinks

import (
	"io"
	"os"
	"sync/atomic"
	"time"

	"github.com/traceline/traceline/core"
	"github.com/traceline/traceline/internal/wire"
	"github.com/traceline/traceline/selflog"
	"github.com/traceline/traceline/task"
)

// Element-count limits above which an array trace switches from the inline
// encoding (data copied into the message buffer) to the indirect encoding
// (data pinned and referenced by handle).
const (
	inlineLimit8  = 4096
	inlineLimit16 = 2048
	inlineLimit32 = 1024
)

// lowQueueHeadroom is the mailbox slack below which the consumer loop
// reports pressure through selflog.
const lowQueueHeadroom = 4

// TraceTask is the asynchronous trace sink: an actor that receives
// serialized trace events through its mailbox and performs the formatting
// and output work on its own goroutine, so callers on time-critical paths
// never wait on I/O.
//
// Producers capture the elapsed time, encode the event at fixed offsets via
// the wire package, and enqueue with zero wait; a full mailbox drops the
// event and reports it through selflog rather than blocking. The consumer
// loop decodes by message kind, renders, and yields briefly between
// messages.
type TraceTask struct {
	t      task.Task
	ref    core.TimeRef
	pin    wire.Pinboard
	render renderer

	forceUsec   bool
	autoReset   bool
	yield       time.Duration
	rebootDelay time.Duration
	restart     func()

	pending atomic.Int64
}

type traceTaskConfig struct {
	name      string
	queueLen  int
	stack     int
	priority  int
	cpu       int
	out       io.Writer
	forceUsec bool
	autoReset bool
	yield     time.Duration
	restart   func()
	clock     func() int64
}

// TraceTaskOption configures a TraceTask or its JSON variant.
type TraceTaskOption func(*traceTaskConfig)

// WithTaskName overrides the actor name.
func WithTaskName(name string) TraceTaskOption {
	return func(c *traceTaskConfig) { c.name = name }
}

// WithTaskQueueLength sets the mailbox capacity per lane.
func WithTaskQueueLength(n int) TraceTaskOption {
	return func(c *traceTaskConfig) { c.queueLen = n }
}

// WithTaskCore pins the actor to a CPU core hint.
func WithTaskCore(cpu int) TraceTaskOption {
	return func(c *traceTaskConfig) { c.cpu = cpu }
}

// WithTaskWriter directs rendered output to w instead of stdout.
func WithTaskWriter(w io.Writer) TraceTaskOption {
	return func(c *traceTaskConfig) { c.out = w }
}

// WithTaskMicroseconds pins the time header to microseconds.
func WithTaskMicroseconds() TraceTaskOption {
	return func(c *traceTaskConfig) { c.forceUsec = true }
}

// WithTaskAutoReset makes scalar and array traces move the time reference,
// not just interval stops.
func WithTaskAutoReset() TraceTaskOption {
	return func(c *traceTaskConfig) { c.autoReset = true }
}

// WithTaskYield sets the cooperative delay after each processed message.
// Zero disables the delay.
func WithTaskYield(d time.Duration) TraceTaskOption {
	return func(c *traceTaskConfig) { c.yield = d }
}

// WithTaskRestart replaces the process-restart hook used by reboot traces.
func WithTaskRestart(fn func()) TraceTaskOption {
	return func(c *traceTaskConfig) { c.restart = fn }
}

// WithTaskClock replaces the sink's clock.
func WithTaskClock(now func() int64) TraceTaskOption {
	return func(c *traceTaskConfig) { c.clock = now }
}

func newTraceTaskConfig(opts []TraceTaskOption) *traceTaskConfig {
	cfg := &traceTaskConfig{
		name:     "trace",
		queueLen: 30,
		stack:    3072,
		priority: 0,
		cpu:      task.NoAffinity,
		out:      os.Stdout,
		yield:    2 * time.Millisecond,
		restart:  func() { os.Exit(1) },
	}
	for _, opt := range opts {
		opt(cfg)
	}
	return cfg
}

// NewTraceTask creates and starts an async trace sink rendering plain text.
func NewTraceTask(opts ...TraceTaskOption) *TraceTask {
	cfg := newTraceTaskConfig(opts)
	return startTraceTask(cfg, &textRenderer{out: cfg.out})
}

func startTraceTask(cfg *traceTaskConfig, r renderer) *TraceTask {
	tt := &TraceTask{
		render:      r,
		forceUsec:   cfg.forceUsec,
		autoReset:   cfg.autoReset,
		yield:       cfg.yield,
		rebootDelay: 150 * time.Millisecond,
		restart:     cfg.restart,
	}
	tt.ref.Now = cfg.clock
	tt.t.Init(task.Config{
		Name:      cfg.name,
		StackSize: cfg.stack,
		Priority:  cfg.priority,
		Capacity:  cfg.queueLen,
		Core:      cfg.cpu,
	}, tt.run)
	return tt
}

// Stop shuts the actor down. Undelivered messages are discarded.
func (tt *TraceTask) Stop() {
	tt.t.Stop()
}

// WaitIdle blocks until every accepted message has been processed or the
// timeout elapses. Intended for tests and orderly shutdown.
func (tt *TraceTask) WaitIdle(timeout time.Duration) bool {
	deadline := time.Now().Add(timeout)
	for tt.pending.Load() != 0 {
		if time.Now().After(deadline) {
			return false
		}
		time.Sleep(time.Millisecond)
	}
	return true
}

// Trace serializes a scalar event and enqueues it. The elapsed timestamp is
// captured atomically against concurrent producers; the reference point
// moves only when the task was built with WithTaskAutoReset.
func (tt *TraceTask) Trace(msg string, code int32, level core.Level, reboot bool) {
	tm := tt.ref.Elapsed(tt.autoReset)
	if code == core.IgnoreCode {
		return
	}
	kind := wire.KindTraceString
	if reboot {
		kind = wire.KindTraceStringReboot
	}
	tt.send(kind, wire.EncodeScalar(wire.Scalar{
		Time:  uint64(tm),
		Code:  code,
		Level: byte(level),
		Msg:   msg,
	}))
}

// TraceISR packages the string and code directly into the message header
// and front-enqueues without blocking or allocating a payload buffer. The
// caller guarantees the string outlives processing; string values in Go
// make that inherent.
func (tt *TraceTask) TraceISR(msg string, code int16) {
	if tt.t.TrySendFront(task.Message{
		Kind:  wire.KindTraceISRString,
		Short: uint16(code),
		Text:  msg,
	}) {
		tt.pending.Add(1)
	}
}

// TraceU8 enqueues an unsigned byte array trace.
func (tt *TraceTask) TraceU8(msg string, data []uint8) {
	if len(data) > inlineLimit8 {
		tt.sendRef(wire.KindTraceRefU8, msg, uint32(len(data)), data)
		return
	}
	tt.sendInline(wire.KindTraceU8, msg, uint32(len(data)), append([]byte(nil), data...))
}

// TraceI8 enqueues a signed byte array trace.
func (tt *TraceTask) TraceI8(msg string, data []int8) {
	if len(data) > inlineLimit8 {
		tt.sendRef(wire.KindTraceRefI8, msg, uint32(len(data)), data)
		return
	}
	raw := make([]byte, len(data))
	for i, v := range data {
		raw[i] = byte(v)
	}
	tt.sendInline(wire.KindTraceI8, msg, uint32(len(data)), raw)
}

// TraceU16 enqueues an unsigned 16-bit array trace.
func (tt *TraceTask) TraceU16(msg string, data []uint16) {
	if len(data) > inlineLimit16 {
		tt.sendRef(wire.KindTraceRefU16, msg, uint32(len(data)), data)
		return
	}
	tt.sendInline(wire.KindTraceU16, msg, uint32(len(data)), wire.PackU16(data))
}

// TraceI16 enqueues a signed 16-bit array trace.
func (tt *TraceTask) TraceI16(msg string, data []int16) {
	if len(data) > inlineLimit16 {
		tt.sendRef(wire.KindTraceRefI16, msg, uint32(len(data)), data)
		return
	}
	tt.sendInline(wire.KindTraceI16, msg, uint32(len(data)), wire.PackU16(core.AsU16(data)))
}

// TraceU32 enqueues an unsigned 32-bit array trace.
func (tt *TraceTask) TraceU32(msg string, data []uint32) {
	if len(data) > inlineLimit32 {
		tt.sendRef(wire.KindTraceRefU32, msg, uint32(len(data)), data)
		return
	}
	tt.sendInline(wire.KindTraceU32, msg, uint32(len(data)), wire.PackU32(data))
}

// TraceI32 enqueues a signed 32-bit array trace.
func (tt *TraceTask) TraceI32(msg string, data []int32) {
	if len(data) > inlineLimit32 {
		tt.sendRef(wire.KindTraceRefI32, msg, uint32(len(data)), data)
		return
	}
	tt.sendInline(wire.KindTraceI32, msg, uint32(len(data)), wire.PackU32(core.AsU32(data)))
}

// Log enqueues a plain string.
func (tt *TraceTask) Log(s string) {
	tt.send(wire.KindPrintString, wire.EncodePlain(s))
}

// StartTime resets the time reference.
func (tt *TraceTask) StartTime() {
	tt.ref.Reset()
}

// StopTime enqueues an interval-stop event. The read-and-reset of the time
// reference is one atomic operation.
func (tt *TraceTask) StopTime(s string, div uint32) {
	tm := tt.ref.Elapsed(true)
	tt.send(wire.KindStopTime, wire.EncodeStop(wire.Stop{
		Time: uint64(tm),
		Div:  div,
		Msg:  s,
	}))
}

func (tt *TraceTask) sendInline(kind uint16, msg string, count uint32, raw []byte) {
	tm := tt.ref.Elapsed(tt.autoReset)
	tt.send(kind, wire.EncodeArray(wire.Array{
		Time:  uint64(tm),
		Count: count,
		Data:  raw,
		Msg:   msg,
	}))
}

func (tt *TraceTask) sendRef(kind uint16, msg string, count uint32, data any) {
	tm := tt.ref.Elapsed(tt.autoReset)
	h := tt.pin.Pin(data)
	if !tt.send(kind, wire.EncodeArrayRef(wire.ArrayRef{
		Time:   uint64(tm),
		Count:  count,
		Handle: h,
		Msg:    msg,
	})) {
		// failed enqueue must not leave the slice pinned
		tt.pin.Take(h)
	}
}

func (tt *TraceTask) send(kind uint16, buf []byte) bool {
	ok := tt.t.Send(task.Message{Kind: kind, Short: uint16(len(buf)), Body: buf}, 0)
	if ok {
		tt.pending.Add(1)
	}
	return ok
}

func (tt *TraceTask) header(elapsed uint64, div uint32) string {
	return formatHeader(elapsed, div, tt.forceUsec)
}

func (tt *TraceTask) run(t *task.Task) {
	lastFree := -1
	for {
		m, ok := t.Receive(task.Forever)
		if !ok {
			return
		}
		if !tt.dispatch(m) {
			selflog.Printf("[tracetask] %s: unknown message %d", t.Name(), m.Kind)
		}
		tt.pending.Add(-1)
		if tt.yield > 0 {
			time.Sleep(tt.yield)
		}
		if free := t.Mailbox().Cap() - t.Mailbox().Len(); free != lastFree {
			lastFree = free
			if free <= lowQueueHeadroom {
				selflog.Printf("[tracetask] %s: low mailbox headroom %d", t.Name(), free)
			}
		}
	}
}

func (tt *TraceTask) dispatch(m task.Message) bool {
	switch m.Kind {
	case wire.KindTraceISRString:
		tt.render.ISRString(m.Text, int16(m.Short))
		return true

	case wire.KindPrintString:
		tt.render.Plain(wire.DecodePlain(m.Body))
		return true

	case wire.KindStopTime:
		ev, err := wire.DecodeStop(m.Body)
		if err != nil {
			selflog.Printf("[tracetask] %v", err)
			return true
		}
		tt.render.Stop(tt.header(ev.Time, ev.Div), ev)
		return true

	case wire.KindTraceString, wire.KindTraceStringReboot:
		ev, err := wire.DecodeScalar(m.Body)
		if err != nil {
			selflog.Printf("[tracetask] %v", err)
			return true
		}
		tt.render.Scalar(tt.header(ev.Time, 1), ev)
		if m.Kind == wire.KindTraceStringReboot {
			time.Sleep(tt.rebootDelay)
			tt.restart()
		}
		return true
	}

	info, ok := wire.ArrayKind(m.Kind)
	if !ok {
		return false
	}
	if info.Indirect {
		tt.renderRef(m, info)
	} else {
		tt.renderInline(m, info)
	}
	return true
}

func (tt *TraceTask) renderInline(m task.Message, info wire.ArrayKindInfo) {
	a, err := wire.DecodeArray(m.Body, info.Width)
	if err != nil {
		selflog.Printf("[tracetask] %v", err)
		return
	}
	hdr := tt.header(a.Time, 1)
	n := int(a.Count)
	if info.Signed {
		var elem func(int) int64
		switch info.Width {
		case 1:
			elem = func(i int) int64 { return int64(int8(a.Data[i])) }
		case 2:
			elem = func(i int) int64 { return int64(int16(a.U16(i))) }
		default:
			elem = func(i int) int64 { return int64(int32(a.U32(i))) }
		}
		tt.render.ArrayDec(hdr, a.Msg, n, elem)
		return
	}
	var elem func(int) uint64
	switch info.Width {
	case 1:
		elem = func(i int) uint64 { return uint64(a.Data[i]) }
	case 2:
		elem = func(i int) uint64 { return uint64(a.U16(i)) }
	default:
		elem = func(i int) uint64 { return uint64(a.U32(i)) }
	}
	tt.render.ArrayHex(hdr, a.Msg, n, info.Width*2, elem)
}

func (tt *TraceTask) renderRef(m task.Message, info wire.ArrayKindInfo) {
	ev, err := wire.DecodeArrayRef(m.Body)
	if err != nil {
		selflog.Printf("[tracetask] %v", err)
		return
	}
	v, ok := tt.pin.Take(ev.Handle)
	if !ok {
		selflog.Printf("[tracetask] stale array handle %d", ev.Handle)
		return
	}
	hdr := tt.header(ev.Time, 1)
	n := int(ev.Count)
	switch data := v.(type) {
	case []uint8:
		n = min(n, len(data))
		tt.render.ArrayHex(hdr, ev.Msg, n, 2, func(i int) uint64 { return uint64(data[i]) })
	case []int8:
		n = min(n, len(data))
		tt.render.ArrayDec(hdr, ev.Msg, n, func(i int) int64 { return int64(data[i]) })
	case []uint16:
		n = min(n, len(data))
		tt.render.ArrayHex(hdr, ev.Msg, n, 4, func(i int) uint64 { return uint64(data[i]) })
	case []int16:
		n = min(n, len(data))
		tt.render.ArrayDec(hdr, ev.Msg, n, func(i int) int64 { return int64(data[i]) })
	case []uint32:
		n = min(n, len(data))
		tt.render.ArrayHex(hdr, ev.Msg, n, 8, func(i int) uint64 { return uint64(data[i]) })
	case []int32:
		n = min(n, len(data))
		tt.render.ArrayDec(hdr, ev.Msg, n, func(i int) int64 { return int64(data[i]) })
	default:
		selflog.Printf("[tracetask] array handle %d holds unsupported type %T", ev.Handle, v)
	}
}
