package wire

import "sync"

// Pinboard keeps caller-owned array slices alive while an indirect-encoded
// message crosses the mailbox. The producer pins the slice and serializes
// the returned handle in place of a raw address; the consumer takes the
// slice back out, which unpins it. A slice is held until taken, so the
// lifetime hazard of the address-based encoding cannot occur.
type Pinboard struct {
	mu   sync.Mutex
	next uint32
	pins map[uint32]any
}

// Pin stores v and returns its handle. Handles are never zero.
func (p *Pinboard) Pin(v any) uint32 {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.pins == nil {
		p.pins = make(map[uint32]any)
	}
	p.next++
	if p.next == 0 {
		p.next = 1
	}
	p.pins[p.next] = v
	return p.next
}

// Take removes and returns the value pinned under h. The second result is
// false if the handle is unknown or already taken.
func (p *Pinboard) Take(h uint32) (any, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	v, ok := p.pins[h]
	if ok {
		delete(p.pins, h)
	}
	return v, ok
}

// Len reports the number of currently pinned values.
func (p *Pinboard) Len() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.pins)
}
