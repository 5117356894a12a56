package kernel

import "github.com/NiHighlism/gophreads/intrusive"

// MaxDonationDepth bounds the priority-donation chain walk (spec.md §4.8),
// guarding against a cycle in waitingOn/lockHeld (which a correct caller
// never constructs, but the walk must still terminate).
const MaxDonationDepth = 8

// Lock is a single-owner mutex with priority donation: a thread blocked on
// Acquire raises the current holder's effective priority to its own, and
// every lock that holder in turn awaits, to the bound set by
// MaxDonationDepth (spec.md §3, §4.8).
type Lock struct {
	sema   *Semaphore
	holder *Thread
}

// NewLock constructs an unheld lock.
func NewLock() *Lock {
	return &Lock{sema: NewSemaphore(1)}
}

// Acquire donates the caller's priority along the chain of lock holders
// blocking it, then waits for ownership (spec.md §4.8's worked examples).
func (l *Lock) Acquire(k *Kernel) {
	k.CheckPreempt()
	self := k.CurrentThread()

	k.mu.Lock()
	if !k.mlfqsEnabled && l.holder != nil && l.holder != self {
		self.waitingOn = l
		k.donateChain(self, l)
	}
	k.mu.Unlock()

	l.sema.Down(k)

	k.mu.Lock()
	l.holder = self
	self.waitingOn = nil
	self.lockHeld = l
	k.mu.Unlock()
}

// donateChain raises l's holder to self's priority and registers self as its
// direct donor, then keeps walking the chain of locks each subsequent holder
// is itself waiting on, raising every one of them directly to self's
// priority (never relayed through an intermediate holder's own bumped
// value) per spec.md §4.8's worked examples. Only the immediate link gets a
// donor-list entry: each thread owns exactly one donorElem, so it can be a
// registered donor of at most one holder at a time; a holder further up the
// chain was already linked to its own immediate waiter by that waiter's own
// earlier Acquire, and this walk raising its .priority in place is enough
// for that existing link to report the propagated value on release. Caller
// must hold k.mu.
func (k *Kernel) donateChain(self *Thread, l *Lock) {
	holder := l.holder
	if holder == nil {
		return
	}
	if holder.priority < self.priority {
		holder.priority = self.priority
		intrusive.Remove(self.donorElem)
		holder.donors.PushBack(self.donorElem)
		if holder.status == StatusReady {
			k.sched.requeue(holder)
		}
	}

	cur := holder.waitingOn
	for depth := 1; depth < MaxDonationDepth && cur != nil; depth++ {
		next := cur.holder
		if next == nil || next.priority >= self.priority {
			return
		}
		next.priority = self.priority
		if next.status == StatusReady {
			k.sched.requeue(next)
		}
		cur = next.waitingOn
	}
}

// Release drops ownership, recomputes the releasing thread's priority from
// whichever direct donors remain (or base priority if none), and wakes the
// next waiter if any; the yield-if-outranked check is Semaphore.Up's own
// responsibility (spec.md §4.8).
func (l *Lock) Release(k *Kernel) {
	self := k.CurrentThread()

	k.mu.Lock()
	l.holder = nil
	self.lockHeld = nil

	if !k.mlfqsEnabled {
		var stale []*Thread
		self.donors.Do(func(e *intrusive.Elem[*Thread]) {
			if e.Value.waitingOn == l {
				stale = append(stale, e.Value)
			}
		})
		for _, d := range stale {
			intrusive.Remove(d.donorElem)
		}

		newPriority := self.basePriority
		self.donors.Do(func(e *intrusive.Elem[*Thread]) {
			if e.Value.priority > newPriority {
				newPriority = e.Value.priority
			}
		})
		if newPriority != self.priority {
			self.priority = newPriority
			if self.status == StatusReady {
				k.sched.requeue(self)
			}
		}
	}
	k.mu.Unlock()

	l.sema.Up(k)
}

// HeldByCurrent reports whether the calling thread currently owns l.
func (l *Lock) HeldByCurrent(k *Kernel) bool {
	return l.holder == k.CurrentThread()
}
