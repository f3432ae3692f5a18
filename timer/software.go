// Package timer provides time-based delivery into a task: a software timer
// that fires a notification or mailbox message when it expires, and a
// one-shot delay timer with a bounded wait.
package timer

import (
	"sync"
	"time"

	"github.com/traceline/traceline/task"
)

// Event selects how a SoftwareTimer delivers its expiry to the target task.
type Event int

const (
	// Notify sets notification bits on the target task.
	Notify Event = iota
	// SendBack enqueues a command message on the back lane.
	SendBack
	// SendFront enqueues a command message on the front lane.
	SendFront
)

// DefaultCmd is the message kind of timer command messages unless overridden.
const DefaultCmd uint16 = 10000

// SoftwareTimer delivers an event into a task when its period expires,
// one-shot or auto-reloading. Delivery never blocks; if the target mailbox
// is full the expiry is dropped.
type SoftwareTimer struct {
	target *task.Task
	event  Event
	kind   uint16
	bits   uint32

	mu         sync.Mutex
	tm         *time.Timer
	gen        uint64
	running    bool
	period     time.Duration
	autoReload bool
}

// TimerOption configures a SoftwareTimer.
type TimerOption func(*SoftwareTimer)

// WithCmd sets the message kind used by SendBack and SendFront delivery.
func WithCmd(kind uint16) TimerOption {
	return func(t *SoftwareTimer) { t.kind = kind }
}

// WithBits sets the notification bits used by Notify delivery.
func WithBits(bits uint32) TimerOption {
	return func(t *SoftwareTimer) { t.bits = bits }
}

// NewSoftware creates a stopped timer targeting the given task.
func NewSoftware(target *task.Task, event Event, opts ...TimerOption) *SoftwareTimer {
	t := &SoftwareTimer{
		target: target,
		event:  event,
		kind:   DefaultCmd,
		bits:   1,
	}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

// Start arms the timer. A running timer is restarted with the new period.
func (t *SoftwareTimer) Start(period time.Duration, autoReload bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.tm != nil {
		t.tm.Stop()
	}
	t.gen++
	t.running = true
	t.period = period
	t.autoReload = autoReload
	gen := t.gen
	t.tm = time.AfterFunc(period, func() { t.fire(gen) })
}

// Stop disarms the timer. An expiry already in flight is discarded.
func (t *SoftwareTimer) Stop() {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.tm != nil {
		t.tm.Stop()
	}
	t.gen++
	t.running = false
}

// IsRunning reports whether the timer is armed.
func (t *SoftwareTimer) IsRunning() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.running
}

func (t *SoftwareTimer) fire(gen uint64) {
	t.mu.Lock()
	if gen != t.gen {
		t.mu.Unlock()
		return
	}
	if t.autoReload {
		t.tm = time.AfterFunc(t.period, func() { t.fire(gen) })
	} else {
		t.running = false
	}
	t.mu.Unlock()

	switch t.event {
	case Notify:
		t.target.Notify(t.bits)
	case SendBack:
		t.target.TrySend(task.Message{Kind: t.kind})
	case SendFront:
		t.target.TrySendFront(task.Message{Kind: t.kind})
	}
}
