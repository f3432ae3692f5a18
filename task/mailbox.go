package task

import "time"

// Forever makes a send or receive block indefinitely.
const Forever = time.Duration(-1)

// Message is the unit of work passed between tasks. It is a tagged record:
// Kind selects the interpretation, Short and Param carry small inline
// values, Body carries an owned variable-length payload, and Text carries a
// string payload for messages that must not allocate on the sending side.
//
// A Body successfully handed to a mailbox belongs to the receiving task and
// is consumed exactly once; a failed send leaves it with the sender.
type Message struct {
	Kind  uint16
	Short uint16
	Param uint32
	Body  []byte
	Text  string
}

// NewMessage allocates a payload of the requested size and stamps the
// header: Kind is set to kind and Short to the payload length.
func NewMessage(kind uint16, size int) Message {
	return Message{Kind: kind, Short: uint16(size), Body: make([]byte, size)}
}

// Mailbox is a bounded queue with two lanes: a FIFO back lane and a
// front-priority lane. Receivers drain the front lane before the back lane
// whenever both hold messages, giving urgent messages (reboot traces,
// interrupt strings) a fast path past the FIFO order.
type Mailbox struct {
	front chan Message
	back  chan Message
}

// NewMailbox creates a mailbox. Each lane holds up to capacity messages.
func NewMailbox(capacity int) *Mailbox {
	return &Mailbox{
		front: make(chan Message, capacity),
		back:  make(chan Message, capacity),
	}
}

// PushBack appends m to the FIFO lane, waiting up to wait for space
// (0 = give up immediately, Forever = block).
func (mb *Mailbox) PushBack(m Message, wait time.Duration) bool {
	return push(mb.back, m, wait)
}

// PushFront inserts m into the priority lane, waiting up to wait for space.
func (mb *Mailbox) PushFront(m Message, wait time.Duration) bool {
	return push(mb.front, m, wait)
}

// TryPushBack appends m without ever blocking. Safe from any context.
func (mb *Mailbox) TryPushBack(m Message) bool {
	select {
	case mb.back <- m:
		return true
	default:
		return false
	}
}

// TryPushFront inserts m into the priority lane without ever blocking.
func (mb *Mailbox) TryPushFront(m Message) bool {
	select {
	case mb.front <- m:
		return true
	default:
		return false
	}
}

func push(lane chan Message, m Message, wait time.Duration) bool {
	select {
	case lane <- m:
		return true
	default:
	}
	switch {
	case wait == 0:
		return false
	case wait < 0:
		lane <- m
		return true
	default:
		t := time.NewTimer(wait)
		defer t.Stop()
		select {
		case lane <- m:
			return true
		case <-t.C:
			return false
		}
	}
}

// Pop removes the next message, preferring the front lane, waiting up to
// wait (0 = poll, Forever = block). The stop channel, when non-nil, aborts
// a blocked receive.
func (mb *Mailbox) Pop(wait time.Duration, stop <-chan struct{}) (Message, bool) {
	select {
	case m := <-mb.front:
		return m, true
	default:
	}
	switch {
	case wait == 0:
		select {
		case m := <-mb.front:
			return m, true
		case m := <-mb.back:
			return m, true
		default:
			return Message{}, false
		}
	case wait < 0:
		select {
		case m := <-mb.front:
			return m, true
		case m := <-mb.back:
			return m, true
		case <-stop:
			return Message{}, false
		}
	default:
		t := time.NewTimer(wait)
		defer t.Stop()
		select {
		case m := <-mb.front:
			return m, true
		case m := <-mb.back:
			return m, true
		case <-stop:
			return Message{}, false
		case <-t.C:
			return Message{}, false
		}
	}
}

// Len reports the number of queued messages across both lanes.
func (mb *Mailbox) Len() int {
	return len(mb.front) + len(mb.back)
}

// Cap reports the capacity of one lane.
func (mb *Mailbox) Cap() int {
	return cap(mb.back)
}
