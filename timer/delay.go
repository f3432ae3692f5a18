package timer

import (
	"time"

	"github.com/traceline/traceline/task"
)

// TimeoutCode is returned by DelayTimer.Wait when the notification never
// arrives.
const TimeoutCode = -1

// waitMargin is the extra slack Wait allows beyond the timer period before
// declaring a timeout.
const waitMargin = 10 * time.Millisecond

// DelayTimer is a one-shot delay delivered through task notification bits.
// It exists for code that wants a cancellable, notification-driven pause
// instead of a bare sleep: another goroutine notifying the same bits ends
// the wait early.
type DelayTimer struct {
	target *task.Task
	bits   uint32
}

// NewDelay creates a delay timer that notifies the given task with bits.
func NewDelay(target *task.Task, bits uint32) *DelayTimer {
	return &DelayTimer{target: target, bits: bits}
}

// Wait arms the timer for the given period and blocks until the
// notification arrives. Returns 0 on delivery and TimeoutCode if the wait
// expired without one.
func (d *DelayTimer) Wait(period time.Duration) int {
	tm := time.AfterFunc(period, func() { d.target.Notify(d.bits) })
	defer tm.Stop()
	if _, ok := d.target.NotifyWait(d.bits, period+waitMargin); ok {
		return 0
	}
	return TimeoutCode
}
