// Package task provides a message-passing actor: an independently scheduled
// unit of execution owning a bounded two-lane mailbox, processing messages
// sequentially. It is the base the async trace sinks are built on.
package task

import (
	"sync"
	"sync/atomic"
	"time"

	"github.com/traceline/traceline/selflog"
)

// Validation bounds for Config. Violations are programming errors and
// Init panics on them.
const (
	MaxNameLen   = 16
	MinStackSize = 512
	MaxPriority  = 25
)

// NoAffinity leaves the task unpinned.
const NoAffinity = -1

// Config describes a task before it starts. StackSize, Priority and Core
// are scheduling hints carried over from the platforms this package models;
// goroutines have no equivalents, but the values are validated and recorded
// so callers keep the same contract everywhere.
type Config struct {
	Name      string
	StackSize int
	Priority  int
	Capacity  int // mailbox capacity per lane
	Core      int // CPU affinity hint, NoAffinity for none
}

// Task is a message-passing actor. The zero value is Created; Init moves it
// to Running; Stop (or the run function returning) moves it to Terminated.
type Task struct {
	cfg  Config
	mbox *Mailbox

	stop     chan struct{}
	stopOnce sync.Once
	wg       sync.WaitGroup
	running  atomic.Bool

	// send-side notification
	notifyOnSend atomic.Uint32
	notifyBits   atomic.Uint32
	notifyCh     chan struct{}
}

// Init validates cfg, creates the mailbox and starts the actor goroutine
// running run. It must be called exactly once. Precondition violations
// (name too long, stack below minimum, priority out of range) panic.
func (t *Task) Init(cfg Config, run func(*Task)) {
	if len(cfg.Name) == 0 || len(cfg.Name) >= MaxNameLen {
		panic("task: name length out of range: " + cfg.Name)
	}
	if cfg.StackSize < MinStackSize {
		panic("task: stack size below minimum")
	}
	if cfg.Priority < 0 || cfg.Priority > MaxPriority {
		panic("task: priority out of range")
	}
	if cfg.Capacity <= 0 {
		cfg.Capacity = 1
	}
	if t.mbox != nil {
		panic("task: already initialized")
	}

	t.cfg = cfg
	t.mbox = NewMailbox(cfg.Capacity)
	t.stop = make(chan struct{})
	t.notifyCh = make(chan struct{}, 1)
	t.running.Store(true)

	t.wg.Add(1)
	go func() {
		defer t.wg.Done()
		defer t.running.Store(false)
		run(t)
	}()
}

// Name returns the configured task name.
func (t *Task) Name() string { return t.cfg.Name }

// IsRunning reports whether the actor goroutine is still executing.
func (t *Task) IsRunning() bool { return t.running.Load() }

// Mailbox exposes the task's mailbox for depth inspection.
func (t *Task) Mailbox() *Mailbox { return t.mbox }

// Stop aborts a blocked Receive and waits for the actor to return. Queued
// messages that the run function does not drain are discarded.
func (t *Task) Stop() {
	t.stopOnce.Do(func() { close(t.stop) })
	t.wg.Wait()
}

// Send enqueues msg at the back of the mailbox, waiting up to wait for
// space. On failure it reports through selflog and returns false; the
// message payload stays with the caller.
func (t *Task) Send(msg Message, wait time.Duration) bool {
	if !t.mbox.PushBack(msg, wait) {
		selflog.Printf("[task] %s: mailbox full, dropped message %d", t.cfg.Name, msg.Kind)
		return false
	}
	t.signal()
	return true
}

// SendFront enqueues msg into the priority lane, waiting up to wait.
func (t *Task) SendFront(msg Message, wait time.Duration) bool {
	if !t.mbox.PushFront(msg, wait) {
		selflog.Printf("[task] %s: mailbox full, dropped front message %d", t.cfg.Name, msg.Kind)
		return false
	}
	t.signal()
	return true
}

// TrySend enqueues msg without ever blocking. It is the variant safe to
// call from contexts that must not suspend.
func (t *Task) TrySend(msg Message) bool {
	if !t.mbox.TryPushBack(msg) {
		selflog.Printf("[task] %s: mailbox full, dropped message %d", t.cfg.Name, msg.Kind)
		return false
	}
	t.signal()
	return true
}

// TrySendFront enqueues msg into the priority lane without ever blocking.
func (t *Task) TrySendFront(msg Message) bool {
	if !t.mbox.TryPushFront(msg) {
		selflog.Printf("[task] %s: mailbox full, dropped front message %d", t.cfg.Name, msg.Kind)
		return false
	}
	t.signal()
	return true
}

// SendCmd sends a small body-less command message.
func (t *Task) SendCmd(kind, short uint16, param uint32, wait time.Duration) bool {
	return t.Send(Message{Kind: kind, Short: short, Param: param}, wait)
}

// Receive dequeues the next message, preferring the priority lane, waiting
// up to wait (0 = poll, Forever = block). It returns false on timeout or
// when the task is stopped.
func (t *Task) Receive(wait time.Duration) (Message, bool) {
	return t.mbox.Pop(wait, t.stop)
}

// SetNotifyOnSend makes every successful send also raise the given
// notification bits, in addition to the mailbox insertion. Zero disables.
func (t *Task) SetNotifyOnSend(bits uint32) {
	t.notifyOnSend.Store(bits)
}

func (t *Task) signal() {
	if bits := t.notifyOnSend.Load(); bits != 0 {
		t.Notify(bits)
	}
}

// Notify raises notification bits and wakes a waiter if one is blocked.
func (t *Task) Notify(bits uint32) {
	for {
		old := t.notifyBits.Load()
		if t.notifyBits.CompareAndSwap(old, old|bits) {
			break
		}
	}
	select {
	case t.notifyCh <- struct{}{}:
	default:
	}
}

// NotifyWait blocks until any bit of mask is raised or wait elapses,
// returning the raised bits (cleared from the pending set) and whether the
// wait succeeded.
func (t *Task) NotifyWait(mask uint32, wait time.Duration) (uint32, bool) {
	var deadline <-chan time.Time
	if wait >= 0 {
		tm := time.NewTimer(wait)
		defer tm.Stop()
		deadline = tm.C
	}
	for {
		if got := t.takeBits(mask); got != 0 {
			return got, true
		}
		select {
		case <-t.notifyCh:
		case <-deadline:
			return 0, false
		case <-t.stop:
			return 0, false
		}
	}
}

func (t *Task) takeBits(mask uint32) uint32 {
	for {
		old := t.notifyBits.Load()
		got := old & mask
		if got == 0 {
			return 0
		}
		if t.notifyBits.CompareAndSwap(old, old&^mask) {
			return got
		}
	}
}
