package waypoint

import (
	"sync"
	"time"
)

// Notify is a one-shot notification: the flag starts unset, Signal sets it
// irrevocably and wakes every waiter, and subsequent Signal calls are
// idempotent. Wait and WaitTimeout mask spurious wakeups by looping on the
// flag under the mutex.
//
// Pattern: the Go [sync.Cond] equivalent of a single-fire latch; unlike
// [sync.WaitGroup] it is re-readable (Wait after Signal returns
// immediately) and carries no count, only a boolean.
type Notify struct {
	mu   sync.Mutex
	cond *sync.Cond
	set  bool
}

// NewNotify returns a new, unset [Notify].
func NewNotify() *Notify {
	n := &Notify{}
	n.cond = sync.NewCond(&n.mu)
	return n
}

// Signal sets the flag and wakes every current and future waiter. Safe to
// call more than once; only the first call has any effect.
func (n *Notify) Signal() {
	n.mu.Lock()
	defer n.mu.Unlock()

	if n.set {
		return
	}
	n.set = true
	n.cond.Broadcast()
}

// Wait blocks until Signal has been called.
func (n *Notify) Wait() {
	n.mu.Lock()
	defer n.mu.Unlock()

	for !n.set {
		n.cond.Wait()
	}
}

// WaitTimeout blocks until Signal has been called or the given duration
// elapses, whichever comes first. It reports whether the flag was found
// set. The deadline is computed once, against a monotonic clock.
func (n *Notify) WaitTimeout(d time.Duration) bool {
	n.mu.Lock()
	defer n.mu.Unlock()

	if n.set {
		return true
	}

	deadline := time.Now().Add(d)

	// sync.Cond has no native timed wait, so a helper goroutine wakes the
	// condition variable once the deadline passes; the loop re-checks the
	// flag and the deadline on every wakeup to mask spurious signals.
	timedOut := make(chan struct{})
	timer := time.AfterFunc(d, func() {
		close(timedOut)
		n.mu.Lock()
		n.cond.Broadcast()
		n.mu.Unlock()
	})
	defer timer.Stop()

	for !n.set {
		select {
		case <-timedOut:
			if n.set {
				return true
			}
			return false
		default:
		}

		if !time.Now().Before(deadline) {
			return n.set
		}

		n.cond.Wait()
	}

	return true
}
