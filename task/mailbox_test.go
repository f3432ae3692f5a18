package task

import (
	"testing"
	"time"
)

func TestMailboxFIFO(t *testing.T) {
	mb := NewMailbox(8)
	for i := 0; i < 5; i++ {
		if !mb.TryPushBack(Message{Kind: uint16(i)}) {
			t.Fatalf("push %d failed", i)
		}
	}
	for i := 0; i < 5; i++ {
		m, ok := mb.Pop(0, nil)
		if !ok {
			t.Fatalf("pop %d failed", i)
		}
		if m.Kind != uint16(i) {
			t.Errorf("pop %d: kind = %d", i, m.Kind)
		}
	}
}

func TestMailboxFrontPriority(t *testing.T) {
	mb := NewMailbox(8)
	mb.TryPushBack(Message{Kind: 1})
	mb.TryPushBack(Message{Kind: 2})
	mb.TryPushFront(Message{Kind: 99})

	m, ok := mb.Pop(0, nil)
	if !ok || m.Kind != 99 {
		t.Fatalf("first pop = %+v, %v; want front message 99", m, ok)
	}
	m, _ = mb.Pop(0, nil)
	if m.Kind != 1 {
		t.Errorf("second pop kind = %d, want 1", m.Kind)
	}
}

func TestMailboxOverflow(t *testing.T) {
	mb := NewMailbox(2)
	if !mb.PushBack(Message{Kind: 1}, 0) || !mb.PushBack(Message{Kind: 2}, 0) {
		t.Fatal("fills within capacity failed")
	}
	if mb.PushBack(Message{Kind: 3}, 0) {
		t.Error("push beyond capacity succeeded with zero wait")
	}
	if mb.PushBack(Message{Kind: 3}, 10*time.Millisecond) {
		t.Error("push beyond capacity succeeded after bounded wait")
	}
	if mb.Len() != 2 {
		t.Errorf("Len = %d, want 2", mb.Len())
	}
}

func TestMailboxPopTimeout(t *testing.T) {
	mb := NewMailbox(2)
	start := time.Now()
	if _, ok := mb.Pop(20*time.Millisecond, nil); ok {
		t.Error("pop of empty mailbox succeeded")
	}
	if elapsed := time.Since(start); elapsed < 15*time.Millisecond {
		t.Errorf("pop returned after %v, want ~20ms", elapsed)
	}
}

func TestMailboxBlockedPushUnblocks(t *testing.T) {
	mb := NewMailbox(1)
	mb.TryPushBack(Message{Kind: 1})

	done := make(chan bool)
	go func() {
		done <- mb.PushBack(Message{Kind: 2}, Forever)
	}()

	time.Sleep(5 * time.Millisecond)
	if _, ok := mb.Pop(0, nil); !ok {
		t.Fatal("pop failed")
	}
	select {
	case ok := <-done:
		if !ok {
			t.Error("blocked push reported failure")
		}
	case <-time.After(time.Second):
		t.Fatal("blocked push never completed")
	}
}

func TestMailboxPopStop(t *testing.T) {
	mb := NewMailbox(1)
	stop := make(chan struct{})
	done := make(chan bool)
	go func() {
		_, ok := mb.Pop(Forever, stop)
		done <- ok
	}()
	close(stop)
	select {
	case ok := <-done:
		if ok {
			t.Error("stopped pop reported a message")
		}
	case <-time.After(time.Second):
		t.Fatal("stopped pop never returned")
	}
}
