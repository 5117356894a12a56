package kernel

import "container/heap"

// sleepEntry is one pending timer_sleep deadline.
type sleepEntry struct {
	wakeAt uint64
	sema   *Semaphore
}

// sleepQueue is a min-heap of sleep deadlines, grounded on the teacher's own
// use of container/heap for its timer heap (eventloop/loop.go's timerHeap).
// Draining it is delegated to a dedicated thread (wakeupBody) rather than
// done inline in tick(), the same dirty-flag/housekeeping-thread indirection
// spec.md §9 requires be preserved for MLFQS recomputation, applied here to
// keep interrupt context O(1).
type sleepQueue struct {
	entries []*sleepEntry
}

func newSleepQueue() *sleepQueue { return &sleepQueue{} }

func (q *sleepQueue) Len() int            { return len(q.entries) }
func (q *sleepQueue) Less(i, j int) bool  { return q.entries[i].wakeAt < q.entries[j].wakeAt }
func (q *sleepQueue) Swap(i, j int)       { q.entries[i], q.entries[j] = q.entries[j], q.entries[i] }
func (q *sleepQueue) Push(x any)          { q.entries = append(q.entries, x.(*sleepEntry)) }
func (q *sleepQueue) Pop() any {
	old := q.entries
	n := len(old)
	e := old[n-1]
	q.entries = old[:n-1]
	return e
}

func (q *sleepQueue) dueLocked(now uint64) bool {
	return q.Len() > 0 && q.entries[0].wakeAt <= now
}

// Sleep blocks the calling thread for the given number of ticks. It is the
// public primitive system-call handlers use to implement timer_sleep; it
// exercises the same "wake-up thread" exclusion spec.md §4.7/§9 calls out.
func (k *Kernel) Sleep(ticks int) {
	k.CheckPreempt()
	if ticks <= 0 {
		return
	}
	sema := NewSemaphore(0)
	k.mu.Lock()
	wakeAt := k.tickCount + uint64(ticks)
	heap.Push(k.sleepQ, &sleepEntry{wakeAt: wakeAt, sema: sema})
	k.mu.Unlock()
	sema.Down(k)
}

// drainDueSleepers wakes every sleeper whose deadline has passed. Runs on
// the wake-up thread's own goroutine, outside interrupt context.
func (k *Kernel) drainDueSleepers() {
	for {
		k.mu.Lock()
		if !k.sleepQ.dueLocked(k.tickCount) {
			k.mu.Unlock()
			return
		}
		e := heap.Pop(k.sleepQ).(*sleepEntry)
		k.mu.Unlock()
		e.sema.Up(k)
	}
}

// wakeupBody is the wake-up thread's goroutine body: block, and on being
// woken by tick(), drain every sleeper whose deadline has passed.
func (k *Kernel) wakeupBody(self *Thread, _ any) {
	for {
		k.Block()
		k.drainDueSleepers()
	}
}
