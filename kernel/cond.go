package kernel

import "github.com/NiHighlism/gophreads/intrusive"

// condWaiter pairs a waiting thread with the private one-shot semaphore
// Signal wakes it through, the standard monitor-pattern condition variable
// (spec.md §4.8): Cond itself holds no state about which threads are
// blocked except this list, ordered so Signal always wakes the
// highest-priority waiter first.
type condWaiter struct {
	thread *Thread
	sema   *Semaphore
	elem   *intrusive.Elem[*condWaiter]
}

// Cond is a condition variable used together with a caller-held Lock, in
// the Mesa-semantics style spec.md §4.8 describes: Wait releases the lock,
// blocks, and reacquires it before returning.
type Cond struct {
	waiters *intrusive.List[*condWaiter]
}

// NewCond constructs an empty condition variable.
func NewCond() *Cond {
	return &Cond{waiters: intrusive.NewList[*condWaiter]()}
}

// Wait atomically releases l, blocks until signaled, and reacquires l
// before returning. l must be held by the calling thread.
func (c *Cond) Wait(k *Kernel, l *Lock) {
	k.CheckPreempt()
	self := k.CurrentThread()
	w := &condWaiter{thread: self, sema: NewSemaphore(0)}
	w.elem = &intrusive.Elem[*condWaiter]{Value: w}

	k.mu.Lock()
	c.waiters.InsertOrdered(w.elem, func(a, b *condWaiter) bool {
		return a.thread.priority > b.thread.priority
	})
	k.mu.Unlock()

	l.Release(k)
	w.sema.Down(k)
	l.Acquire(k)
}

// Signal wakes the highest-priority waiter, if any, comparing priorities at
// signal time. No-op if nobody is waiting.
func (c *Cond) Signal(k *Kernel) {
	k.mu.Lock()
	var e *intrusive.Elem[*condWaiter]
	c.waiters.Do(func(cur *intrusive.Elem[*condWaiter]) {
		if e == nil || cur.Value.thread.priority > e.Value.thread.priority {
			e = cur
		}
	})
	if e != nil {
		intrusive.Remove(e)
	}
	k.mu.Unlock()
	if e != nil {
		e.Value.sema.Up(k)
	}
}

// Broadcast wakes every current waiter, in priority order.
func (c *Cond) Broadcast(k *Kernel) {
	for {
		k.mu.Lock()
		e := c.waiters.PopFront()
		k.mu.Unlock()
		if e == nil {
			return
		}
		e.Value.sema.Up(k)
	}
}
