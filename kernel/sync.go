package kernel

import "github.com/NiHighlism/gophreads/intrusive"

// Semaphore is a counting semaphore whose waiter list is ordered so the
// highest-priority blocked thread wakes first, not FIFO (spec.md §4.8: "a
// semaphore wakes the highest-priority waiter, not the longest-waiting
// one"). It is the primitive Lock and Cond are both built on, matching the
// teacher's own habit of building a small synchronization vocabulary up from
// one primitive (eventloop's loop uses a mutex+cond pair the same way).
type Semaphore struct {
	value   int
	waiters *intrusive.List[*Thread]
}

// NewSemaphore constructs a semaphore with the given initial value.
func NewSemaphore(value int) *Semaphore {
	return &Semaphore{value: value, waiters: intrusive.NewList[*Thread]()}
}

// Down waits for the semaphore's value to be positive, then decrements it.
// Blocks the calling thread if necessary.
func (s *Semaphore) Down(k *Kernel) {
	k.CheckPreempt()
	self := k.CurrentThread()
	for {
		k.mu.Lock()
		if s.value > 0 {
			s.value--
			k.mu.Unlock()
			return
		}
		s.waiters.InsertOrdered(self.schedElem, func(a, b *Thread) bool { return a.priority > b.priority })
		k.mu.Unlock()
		k.Block()
	}
}

// Up increments the semaphore's value and, if any thread is waiting, wakes
// the highest-priority one, then yields if that waiter (or whatever else is
// now at the head of the ready structure) outranks the caller (spec.md
// §4.8's "up... yields if a higher-priority thread is now ready"; §5's
// wake-raises-readiness-above-current ordering guarantee). Priorities are
// compared at wake-up time, since donation can raise a waiter's priority
// after it was queued; among equals the earliest queued wins.
func (s *Semaphore) Up(k *Kernel) {
	k.mu.Lock()
	s.value++
	var woken *Thread
	var best *intrusive.Elem[*Thread]
	s.waiters.Do(func(e *intrusive.Elem[*Thread]) {
		if best == nil || e.Value.priority > best.Value.priority {
			best = e
		}
	})
	if best != nil {
		intrusive.Remove(best)
		woken = best.Value
	}
	k.mu.Unlock()

	if woken != nil {
		k.unblock(woken)
	}
	k.maybeYieldToReadyHead()
}
