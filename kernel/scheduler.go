package kernel

import "github.com/NiHighlism/gophreads/intrusive"

// scheduler is the ready-set abstraction both scheduler variants implement
// (spec.md §4.5). Callers must hold Kernel.mu for every method.
type scheduler interface {
	// enqueue inserts t, which must already be StatusReady, into the
	// scheduling structure.
	enqueue(t *Thread)
	// dequeue removes and returns the next thread to run, or nil if the
	// ready set is empty.
	dequeue() *Thread
	// remove unlinks t if it is currently present.
	remove(t *Thread)
	// requeue is called after t's priority changes while t is ready, to
	// re-establish the scheduler's ordering invariant.
	requeue(t *Thread)
	// peek returns the thread dequeue would return next, without removing
	// it, or nil if the ready set is empty.
	peek() *Thread
}

// rrScheduler implements priority round-robin: a single list kept in
// weakly-descending priority order, FIFO within a priority level
// (spec.md §4.5 "Non-MLFQS").
type rrScheduler struct {
	ready *intrusive.List[*Thread]
}

func newRRScheduler() *rrScheduler {
	return &rrScheduler{ready: intrusive.NewList[*Thread]()}
}

func rrLess(a, b *Thread) bool { return a.priority > b.priority }

func (s *rrScheduler) enqueue(t *Thread) {
	s.ready.InsertOrdered(t.schedElem, rrLess)
}

func (s *rrScheduler) dequeue() *Thread {
	e := s.ready.PopFront()
	if e == nil {
		return nil
	}
	return e.Value
}

func (s *rrScheduler) peek() *Thread {
	if e := s.ready.Front(); e != nil {
		return e.Value
	}
	return nil
}

func (s *rrScheduler) remove(t *Thread) {
	intrusive.Remove(t.schedElem)
}

func (s *rrScheduler) requeue(t *Thread) {
	if !t.schedElem.In() {
		return
	}
	intrusive.Remove(t.schedElem)
	s.enqueue(t)
}

// mlfqsScheduler implements the 64-bucket multi-level feedback queue:
// insertion always at the tail of the bucket for the thread's current
// priority, next-to-run scans from PRI_MAX down (spec.md §4.5 "MLFQS").
type mlfqsScheduler struct {
	buckets [PriMax + 1]*intrusive.List[*Thread]
}

func newMLFQSScheduler() *mlfqsScheduler {
	s := &mlfqsScheduler{}
	for i := range s.buckets {
		s.buckets[i] = intrusive.NewList[*Thread]()
	}
	return s
}

func (s *mlfqsScheduler) enqueue(t *Thread) {
	s.buckets[t.priority].PushBack(t.schedElem)
}

func (s *mlfqsScheduler) dequeue() *Thread {
	for p := PriMax; p >= PriMin; p-- {
		if e := s.buckets[p].PopFront(); e != nil {
			return e.Value
		}
	}
	return nil
}

func (s *mlfqsScheduler) peek() *Thread {
	for p := PriMax; p >= PriMin; p-- {
		if e := s.buckets[p].Front(); e != nil {
			return e.Value
		}
	}
	return nil
}

func (s *mlfqsScheduler) remove(t *Thread) {
	intrusive.Remove(t.schedElem)
}

// requeue moves t to the bucket for its (already updated) priority; used by
// the MLFQS recomputation pass (donation is off under MLFQS).
func (s *mlfqsScheduler) requeue(t *Thread) {
	if !t.schedElem.In() {
		return
	}
	intrusive.Remove(t.schedElem)
	s.enqueue(t)
}
