package kernel

import "github.com/NiHighlism/gophreads/intrusive"

// Create allocates a thread, seeds it to run fn(self, arg), appends it to
// the all-threads list, and unblocks it to READY. If the new thread's
// priority strictly exceeds the caller's (and it isn't the idle thread),
// the caller yields immediately (spec.md §4.9).
func (k *Kernel) Create(name string, priority int, fn ThreadFunc, arg any) (*Thread, error) {
	if priority < PriMin || priority > PriMax {
		return nil, ErrInvalidPriority
	}
	page, err := k.pageAllocator.AllocPage(true)
	if err != nil {
		return nil, ErrOutOfMemory
	}

	t := k.newThreadLocked(priority, name, fn, arg)
	t.page = page
	t.Parent = k.current.Load()
	if t.Parent != nil {
		t.Parent.Children = append(t.Parent.Children, t)
	}

	k.mu.Lock()
	k.allThreads.PushBack(t.allElem)
	k.mu.Unlock()

	go k.runThread(t)

	k.log.Log(LogEntry{Level: LevelInfo, Category: "lifecycle", ThreadID: t.id,
		Message: "created", Fields: map[string]any{"name": name, "priority": priority}})

	k.unblock(t)

	cur := k.CurrentThread()
	if t.priority > cur.priority && t != k.idle {
		k.Yield()
	}
	return t, nil
}

// Block transitions the calling thread to BLOCKED and schedules away from
// it. Preconditions: not the idle thread's bootstrap, not re-entrant on an
// already-blocked thread (spec.md §4.9, §7 item 3).
func (k *Kernel) Block() {
	k.CheckPreempt()
	self := k.CurrentThread()
	k.mu.Lock()
	if self.status != StatusRunning {
		k.mu.Unlock()
		fatal("block called on a thread that is not RUNNING")
	}
	self.status = StatusBlocked
	k.mu.Unlock()
	k.schedule(self)
}

// unblock is the internal half of Unblock, reused by Semaphore.Up,
// Lock.Release, and the timer tick's housekeeping wake-up, none of which
// run on the target thread's own goroutine.
func (k *Kernel) unblock(t *Thread) {
	k.mu.Lock()
	if t.status != StatusBlocked {
		k.mu.Unlock()
		fatal("unblock called on a thread that is not BLOCKED: " + t.name)
	}
	t.status = StatusReady
	if t != k.idle {
		k.sched.enqueue(t)
	}
	k.mu.Unlock()
}

// Unblock makes a BLOCKED thread READY without yielding the caller
// (spec.md §4.9: "never preempts").
func (k *Kernel) Unblock(t *Thread) {
	k.unblock(t)
}

// Yield puts the current thread back on the ready structure and schedules.
// A no-op for the idle thread, and for a DYING thread (Exit's own schedule
// call switches away from it).
func (k *Kernel) Yield() {
	self := k.CurrentThread()
	if self == k.idle || self.status == StatusDying {
		return
	}
	k.mu.Lock()
	self.status = StatusReady
	k.sched.enqueue(self)
	k.mu.Unlock()
	k.schedule(self)
}

// Exit marks the calling thread DYING, runs the process-exit collaborator
// hook, removes it from the all-threads list, and schedules away from it.
// It never returns; the thread's page is freed by the next scheduled
// thread's post-switch tail.
func (k *Kernel) Exit() {
	self := k.CurrentThread()
	k.exitHook.ProcessExit(self)

	k.mu.Lock()
	self.status = StatusDying
	intrusive.Remove(self.allElem)
	intrusive.Remove(self.schedElem)
	k.mu.Unlock()

	self.exitSema.Up(k)

	k.log.Log(LogEntry{Level: LevelInfo, Category: "lifecycle", ThreadID: self.id, Message: "exit"})

	k.schedule(self)
	panic("unreachable: schedule never returns for a DYING thread")
}

// CheckPreempt is the hosted realization of "request a yield on interrupt
// return" (spec.md §4.6): Go cannot suspend another goroutine at an
// arbitrary point, so the running thread's own body must call this at its
// safe points. Every blocking primitive calls it on entry; a thread that
// never blocks must call it periodically itself to remain preemptible.
func (k *Kernel) CheckPreempt() {
	if !k.yieldPending.CompareAndSwap(true, false) {
		return
	}
	self := k.current.Load()
	if self != nil && self != k.idle {
		k.Yield()
	}
}

// SetPriority clamps p, updates the caller's base priority, and — unless an
// active donation is holding the effective priority above the new base —
// updates the effective priority too. Yields if the new head of the ready
// structure would outrank the caller. Disabled under MLFQS (spec.md §4.9,
// §9's resolution of the set-priority-vs-donation open question).
func (k *Kernel) SetPriority(p int) error {
	if k.mlfqsEnabled {
		return ErrSetPriorityUnderMLFQS
	}
	if p < PriMin {
		p = PriMin
	} else if p > PriMax {
		p = PriMax
	}

	self := k.CurrentThread()
	k.mu.Lock()
	self.basePriority = p
	donorOutranks := false
	self.donors.Do(func(e *intrusive.Elem[*Thread]) {
		if e.Value.priority > p {
			donorOutranks = true
		}
	})
	if !donorOutranks {
		self.priority = p
	}
	k.mu.Unlock()

	k.maybeYieldToReadyHead()
	return nil
}

// SetNice clamps n, sets the caller's niceness, immediately recomputes its
// priority, and yields if a higher-priority thread is ready. MLFQS-only
// (spec.md §4.9).
func (k *Kernel) SetNice(n int) error {
	if !k.mlfqsEnabled {
		return ErrSetNiceRequiresMLFQS
	}
	if n < NiceMin {
		n = NiceMin
	} else if n > NiceMax {
		n = NiceMax
	}

	self := k.CurrentThread()
	k.mu.Lock()
	self.nice = n
	self.priority = computeMLFQSPriority(self.recentCPU, n)
	k.mu.Unlock()

	k.maybeYieldToReadyHead()
	return nil
}

// maybeYieldToReadyHead yields if the scheduler's current head outranks the
// calling thread.
func (k *Kernel) maybeYieldToReadyHead() {
	self := k.CurrentThread()
	k.mu.Lock()
	front := k.sched.peek()
	outranks := front != nil && front.priority > self.priority
	k.mu.Unlock()
	if outranks {
		k.Yield()
	}
}

// GetPriority returns the calling thread's effective priority.
func (k *Kernel) GetPriority() int { return k.CurrentThread().priority }

// GetNice returns the calling thread's niceness.
func (k *Kernel) GetNice() int { return k.CurrentThread().nice }

// GetLoadAvg returns load_avg*100, rounded to nearest (spec.md §4.9).
func (k *Kernel) GetLoadAvg() int {
	k.mu.Lock()
	defer k.mu.Unlock()
	return k.loadAvg.Scaled100Round()
}

// GetRecentCPU returns the calling thread's recent_cpu*100, rounded to
// nearest (spec.md §4.9).
func (k *Kernel) GetRecentCPU() int {
	self := k.CurrentThread()
	k.mu.Lock()
	defer k.mu.Unlock()
	return self.recentCPU.Scaled100Round()
}

// WaitChild blocks until the child thread with the given id has exited,
// returning its exit status (spec.md §6: "a per-thread semaphore").
func (k *Kernel) WaitChild(id int) (int, error) {
	self := k.CurrentThread()
	var child *Thread
	for _, c := range self.Children {
		if c.id == id {
			child = c
			break
		}
	}
	if child == nil {
		return 0, ErrNoSuchChild
	}

	child.exitSema.Down(k)
	return child.ExitStatus, nil
}
