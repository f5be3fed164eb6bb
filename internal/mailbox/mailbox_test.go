package mailbox

import (
	"testing"
	"time"
)

func exactMatch(want interface{}) Matcher {
	return func(msg interface{}) (int, bool) {
		if msg == want {
			return 0, true
		}
		return -1, false
	}
}

func anyMatch() Matcher {
	return func(msg interface{}) (int, bool) { return 0, true }
}

func TestSelectiveReceiveSkipsNonMatchingInOrder(t *testing.T) {
	mb := New()
	mb.Push("A")
	mb.Push("B")
	mb.Push("C")

	msg, _, ok := mb.PopMatching(0, nil, exactMatch("C"))
	if !ok || msg != "C" {
		t.Fatalf("expected C, got %v ok=%v", msg, ok)
	}
	if mb.Len() != 2 {
		t.Fatalf("expected 2 remaining, got %d", mb.Len())
	}

	msg, _, ok = mb.PopMatching(0, nil, anyMatch())
	if !ok || msg != "A" {
		t.Fatalf("expected A (insertion order preserved), got %v", msg)
	}
	msg, _, ok = mb.PopMatching(0, nil, anyMatch())
	if !ok || msg != "B" {
		t.Fatalf("expected B, got %v", msg)
	}
}

func TestProbeReturnsImmediatelyWhenEmpty(t *testing.T) {
	mb := New()
	start := time.Now()
	_, _, ok := mb.PopMatching(0, nil, anyMatch())
	if ok {
		t.Fatal("expected no match on empty mailbox")
	}
	if time.Since(start) > 50*time.Millisecond {
		t.Fatal("zero timeout probe should not block")
	}
}

func TestPopMatchingBlocksUntilPush(t *testing.T) {
	mb := New()
	done := make(chan interface{}, 1)
	go func() {
		msg, _, ok := mb.PopMatching(Forever, nil, anyMatch())
		if ok {
			done <- msg
		} else {
			done <- nil
		}
	}()

	time.Sleep(20 * time.Millisecond)
	mb.Push("late")

	select {
	case msg := <-done:
		if msg != "late" {
			t.Fatalf("expected 'late', got %v", msg)
		}
	case <-time.After(time.Second):
		t.Fatal("PopMatching never woke up")
	}
}

func TestPopMatchingTimesOut(t *testing.T) {
	mb := New()
	start := time.Now()
	_, _, ok := mb.PopMatching(30*time.Millisecond, nil, anyMatch())
	if ok {
		t.Fatal("expected timeout")
	}
	if time.Since(start) < 25*time.Millisecond {
		t.Fatal("returned before the timeout elapsed")
	}
}

func TestPopMatchingAbort(t *testing.T) {
	mb := New()
	abort := make(chan struct{})
	close(abort)
	_, _, ok := mb.PopMatching(Forever, abort, anyMatch())
	if ok {
		t.Fatal("expected abort to short-circuit the wait")
	}
}

func TestNoMessageLostOrDuplicatedUnderConcurrentPush(t *testing.T) {
	mb := New()
	const n = 200
	for i := 0; i < n; i++ {
		go mb.Push(i)
	}
	seen := make(map[int]bool)
	for i := 0; i < n; i++ {
		msg, _, ok := mb.PopMatching(time.Second, nil, anyMatch())
		if !ok {
			t.Fatalf("expected a message on iteration %d", i)
		}
		v := msg.(int)
		if seen[v] {
			t.Fatalf("duplicate delivery of %d", v)
		}
		seen[v] = true
	}
	if mb.Len() != 0 {
		t.Fatalf("expected mailbox drained, got %d left", mb.Len())
	}
}
