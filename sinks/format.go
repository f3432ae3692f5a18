package sinks

import "fmt"

// formatHeader renders the elapsed-time header "(+N<unit>)" shared by every
// sink. elapsed is in microseconds and is divided by div (interval
// averaging) before the unit is chosen by magnitude: below 10µs the value
// is shown in nanoseconds with sub-microsecond precision, below 10ms in
// microseconds, below 10s in milliseconds, otherwise in seconds.
// forceUsec pins the output to microseconds regardless of magnitude.
func formatHeader(elapsed uint64, div uint32, forceUsec bool) string {
	if div == 0 {
		div = 1
	}
	res := elapsed / uint64(div)
	if forceUsec {
		return fmt.Sprintf("(+%dusec)", res)
	}
	switch {
	case res >= 10000000:
		return fmt.Sprintf("(+%dsec)", res/1000000)
	case res >= 10000:
		return fmt.Sprintf("(+%dmsec)", res/1000)
	case res >= 10:
		return fmt.Sprintf("(+%dusec)", res)
	default:
		f := float64(elapsed) / float64(div)
		return fmt.Sprintf("(+%dnsec)", int64(f*1000))
	}
}
