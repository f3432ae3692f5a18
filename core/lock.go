package core

import "sync"

// Lock is an optional mutex. Until Init is called both Lock and Unlock are
// no-ops, so a value embedding Lock is safe to use before its owner finishes
// construction. After Init it behaves as a plain blocking mutex: no timeout,
// no try-lock, no recursion.
type Lock struct {
	mu *sync.Mutex
}

// Init arms the lock. Calling Init more than once replaces the mutex; the
// caller must ensure no goroutine holds the old one.
func (l *Lock) Init() {
	l.mu = &sync.Mutex{}
}

// Lock blocks until the mutex is acquired, or does nothing if the lock was
// never initialized.
func (l *Lock) Lock() {
	if l.mu != nil {
		l.mu.Lock()
	}
}

// Unlock releases the mutex, or does nothing if the lock was never
// initialized.
func (l *Lock) Unlock() {
	if l.mu != nil {
		l.mu.Unlock()
	}
}
