package sinks

import (
	"fmt"
	"io"

	"github.com/traceline/traceline/internal/wire"
)

// renderer turns decoded trace messages into output. The async task decodes
// every mailbox message exactly once and hands the fields to its renderer,
// so the text and JSON variants differ only here.
type renderer interface {
	Scalar(hdr string, ev wire.Scalar)
	Stop(hdr string, ev wire.Stop)
	Plain(s string)
	ISRString(s string, code int16)

	// ArrayHex renders n unsigned elements as fixed-width hex, digits wide
	// each. ArrayDec renders n signed elements as decimal.
	ArrayHex(hdr, msg string, n int, digits int, elem func(i int) uint64)
	ArrayDec(hdr, msg string, n int, elem func(i int) int64)
}

// textRenderer writes plain formatted lines, the async counterpart of
// PrintSink's output.
type textRenderer struct {
	out io.Writer
}

func (r *textRenderer) Scalar(hdr string, ev wire.Scalar) {
	fmt.Fprintf(r.out, "%s: %d:%s\n", hdr, ev.Code, ev.Msg)
}

func (r *textRenderer) Stop(hdr string, ev wire.Stop) {
	fmt.Fprintf(r.out, "%s %s\n", hdr, ev.Msg)
}

func (r *textRenderer) Plain(s string) {
	fmt.Fprintf(r.out, "%s\n", s)
}

func (r *textRenderer) ISRString(s string, code int16) {
	fmt.Fprintf(r.out, "%d:%s\n", code, s)
}

func (r *textRenderer) ArrayHex(hdr, msg string, n, digits int, elem func(i int) uint64) {
	fmt.Fprintf(r.out, "%s%s %d: ", hdr, msg, n)
	for i := 0; i < n; i++ {
		fmt.Fprintf(r.out, "%0*x", digits, elem(i))
	}
	fmt.Fprintf(r.out, "\n")
}

func (r *textRenderer) ArrayDec(hdr, msg string, n int, elem func(i int) int64) {
	fmt.Fprintf(r.out, "%s%s %d: ", hdr, msg, n)
	for i := 0; i < n; i++ {
		if i == 0 {
			fmt.Fprintf(r.out, "%d", elem(i))
		} else {
			fmt.Fprintf(r.out, ",%d", elem(i))
		}
	}
	fmt.Fprintf(r.out, "\n")
}
