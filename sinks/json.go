package sinks

import (
	"strconv"
	"strings"
	"sync"

	"github.com/traceline/traceline/internal/wire"
)

// JSONTraceTask is the async trace sink with a JSON renderer. Instead of
// writing lines to an output stream, each processed message is rendered into
// a retained JSON document that the owner pulls with Answer. One object per
// application.
type JSONTraceTask struct {
	*TraceTask
	render *jsonRenderer
}

// NewJSONTraceTask creates and starts a JSON trace sink.
func NewJSONTraceTask(opts ...TraceTaskOption) *JSONTraceTask {
	cfg := newTraceTaskConfig(opts)
	if cfg.name == "trace" {
		cfg.name = "jtrace"
	}
	r := &jsonRenderer{}
	return &JSONTraceTask{
		TraceTask: startTraceTask(cfg, r),
		render:    r,
	}
}

// Answer returns the JSON document rendered from the most recently
// processed message, or the empty string if none has been processed yet.
func (jt *JSONTraceTask) Answer() string {
	jt.render.mu.Lock()
	defer jt.render.mu.Unlock()
	return jt.render.answer
}

// jsonRenderer renders each trace event into a single retained document of
// the shape {"log":{...}}. Unsigned arrays become one quoted hex string,
// signed arrays a numeric array.
type jsonRenderer struct {
	mu     sync.Mutex
	answer string
}

func (r *jsonRenderer) set(s string) {
	r.mu.Lock()
	r.answer = s
	r.mu.Unlock()
}

func (r *jsonRenderer) Scalar(hdr string, ev wire.Scalar) {
	var b strings.Builder
	openLogTime(&b, hdr)
	b.WriteString(`,"code":`)
	b.WriteString(strconv.FormatInt(int64(ev.Code), 10))
	b.WriteString(`,"level":`)
	b.WriteString(strconv.Itoa(int(ev.Level)))
	b.WriteString(`,"value":"`)
	writeJSONString(&b, ev.Msg)
	b.WriteString(`"}}`)
	r.set(b.String())
}

func (r *jsonRenderer) Stop(hdr string, ev wire.Stop) {
	var b strings.Builder
	openLogTime(&b, hdr)
	b.WriteString(`,"value":"`)
	writeJSONString(&b, ev.Msg)
	b.WriteString(`"}}`)
	r.set(b.String())
}

func (r *jsonRenderer) Plain(s string) {
	var b strings.Builder
	b.WriteString(`{"log":{"value":"`)
	writeJSONString(&b, s)
	b.WriteString(`"}}`)
	r.set(b.String())
}

func (r *jsonRenderer) ISRString(s string, code int16) {
	var b strings.Builder
	b.WriteString(`{"log":{"code":`)
	b.WriteString(strconv.Itoa(int(code)))
	b.WriteString(`,"value":"`)
	writeJSONString(&b, s)
	b.WriteString(`"}}`)
	r.set(b.String())
}

func (r *jsonRenderer) ArrayHex(hdr, msg string, n, digits int, elem func(i int) uint64) {
	var b strings.Builder
	openLogTime(&b, hdr)
	b.WriteString(`,"value":"`)
	writeJSONString(&b, msg)
	b.WriteString(`","data":"`)
	for i := 0; i < n; i++ {
		writeHex(&b, elem(i), digits)
	}
	b.WriteString(`"}}`)
	r.set(b.String())
}

func (r *jsonRenderer) ArrayDec(hdr, msg string, n int, elem func(i int) int64) {
	var b strings.Builder
	openLogTime(&b, hdr)
	b.WriteString(`,"value":"`)
	writeJSONString(&b, msg)
	b.WriteString(`","data":[`)
	for i := 0; i < n; i++ {
		if i > 0 {
			b.WriteByte(',')
		}
		b.WriteString(strconv.FormatInt(elem(i), 10))
	}
	b.WriteString(`]}}`)
	r.set(b.String())
}

func openLogTime(b *strings.Builder, hdr string) {
	b.WriteString(`{"log":{"time":"`)
	writeJSONString(b, hdr)
	b.WriteString(`"`)
}

// writeHex appends v as lowercase hex zero-padded to the given digit count.
func writeHex(b *strings.Builder, v uint64, digits int) {
	s := strconv.FormatUint(v, 16)
	for pad := digits - len(s); pad > 0; pad-- {
		b.WriteByte('0')
	}
	b.WriteString(s)
}

// writeJSONString appends s with the quote, backslash and control characters
// escaped. Trace strings are expected to be ASCII; anything else passes
// through unmodified.
func writeJSONString(b *strings.Builder, s string) {
	for i := 0; i < len(s); i++ {
		c := s[i]
		switch {
		case c == '"' || c == '\\':
			b.WriteByte('\\')
			b.WriteByte(c)
		case c == '\n':
			b.WriteString(`\n`)
		case c == '\t':
			b.WriteString(`\t`)
		case c == '\r':
			b.WriteString(`\r`)
		case c < 0x20:
			b.WriteString(`\u00`)
			writeHex(b, uint64(c), 2)
		default:
			b.WriteByte(c)
		}
	}
}
