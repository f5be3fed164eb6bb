// Package mailbox implements the FIFO message buffer owned by a single
// actor (C3): ordered delivery, and selective extraction that skips
// non-matching messages without reordering them.
package mailbox

import (
	"sync"
	"time"
)

// Forever, passed as a timeout, waits indefinitely. Zero probes without
// blocking. Any positive duration waits up to that long.
const Forever time.Duration = -1

// Matcher tries the patterns a caller installed against one message and
// reports the index of the first one that matches, if any. It is
// supplied by the actor package so this package stays ignorant of the
// shape-matching rules.
type Matcher func(msg interface{}) (patternIndex int, ok bool)

// Mailbox is an ordered, singly-owned buffer. Push is safe to call from
// any goroutine; PopMatching must only be called by the owning actor.
type Mailbox struct {
	mu    sync.Mutex
	queue []interface{}
	wake  chan struct{}
}

// New returns an empty mailbox.
func New() *Mailbox {
	return &Mailbox{wake: make(chan struct{}, 1)}
}

// Push appends msg and wakes a suspended PopMatching, if any. It never
// blocks and never loses a message.
func (m *Mailbox) Push(msg interface{}) {
	m.mu.Lock()
	m.queue = append(m.queue, msg)
	m.mu.Unlock()

	select {
	case m.wake <- struct{}{}:
	default:
	}
}

// Len reports the number of undelivered messages, mostly for state
// dumps and tests.
func (m *Mailbox) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.queue)
}

// PopMatching scans the mailbox in arrival order for the first message
// for which match returns ok; ties across messages are broken by
// insertion order, and match itself is expected to break ties across
// patterns by pattern order. The match is removed and returned along
// with the winning pattern index.
//
// If nothing matches, PopMatching suspends the caller until a Push
// occurs, abort fires, or timeout elapses (Forever waits indefinitely,
// zero probes once without blocking). On timeout or abort it returns
// ok=false and leaves the mailbox untouched.
func (m *Mailbox) PopMatching(timeout time.Duration, abort <-chan struct{}, match Matcher) (msg interface{}, patternIndex int, ok bool) {
	for {
		if msg, idx, found := m.tryPop(match); found {
			return msg, idx, true
		}

		if timeout == 0 {
			return nil, -1, false
		}

		var timer *time.Timer
		var after <-chan time.Time
		if timeout > 0 {
			timer = time.NewTimer(timeout)
			after = timer.C
		}

		select {
		case <-m.wake:
		case <-after:
			stop(timer)
			return nil, -1, false
		case <-abort:
			stop(timer)
			return nil, -1, false
		}
		stop(timer)
	}
}

func stop(t *time.Timer) {
	if t != nil {
		t.Stop()
	}
}

func (m *Mailbox) tryPop(match Matcher) (interface{}, int, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i, candidate := range m.queue {
		if idx, ok := match(candidate); ok {
			m.queue = append(m.queue[:i:i], m.queue[i+1:]...)
			return candidate, idx, true
		}
	}
	return nil, -1, false
}
