package kernel

import "runtime"

// runThread is the goroutine body every Thread (real or system) runs under.
// It is the hosted stand-in for the two pre-seeded stack frames of
// spec.md §4.4: the blocking receive on t.resume is the "switch frame" whose
// first wake looks identical to every later one, and everything from
// postSwitchTail onward is the "entry trampoline" that runs the thread's
// actual function and then exits.
func (k *Kernel) runThread(t *Thread) {
	<-t.resume
	k.postSwitchTail(t)
	if t.fn != nil {
		t.fn(t, t.arg)
	}
	k.Exit()
}

// nextToRun picks the thread schedule() should switch to: the scheduler's
// choice, or the idle thread if the ready set is empty (spec.md §4.5).
func (k *Kernel) nextToRun() *Thread {
	k.mu.Lock()
	next := k.sched.dequeue()
	k.mu.Unlock()
	if next == nil {
		return k.idle
	}
	return next
}

// schedule runs on self's own goroutine, with self's status already changed
// away from RUNNING by the caller (Block/Unblock-via-Yield/Exit). It is the
// hosted realization of switch_threads(prev, next) (spec.md §4.4): waking
// next's goroutine is "loading next's stack pointer and restoring its
// registers"; self parking on its own channel is "saving the callee-saved
// registers of prev onto prev's stack" (the Go runtime does this for us, by
// construction, when a goroutine blocks on a channel receive).
func (k *Kernel) schedule(self *Thread) {
	next := k.nextToRun()
	if next == self {
		k.postSwitchTail(self)
		return
	}

	if self.status == StatusDying {
		k.mu.Lock()
		k.pendingFree = self
		k.mu.Unlock()
	}

	next.resume <- struct{}{}

	if self.status == StatusDying {
		// This thread's function has already returned (or Exit was
		// called); its goroutine never runs again. The page is freed by
		// whichever thread's postSwitchTail observes k.pendingFree.
		runtime.Goexit()
	}

	<-self.resume
	k.postSwitchTail(self)
}

// postSwitchTail runs on the goroutine of whichever thread just gained
// control, immediately after waking (spec.md §4.5's "post-switch tail"): it
// marks the thread RUNNING, resets the time-slice counter, reactivates the
// address space, and frees the previous thread's page if it was DYING.
func (k *Kernel) postSwitchTail(self *Thread) {
	k.mu.Lock()
	dying := k.pendingFree
	k.pendingFree = nil
	self.status = StatusRunning
	k.threadTicks = 0
	k.mu.Unlock()

	k.current.Store(self)
	k.activator.Activate(self)

	if dying != nil && dying != self {
		k.freeThread(dying)
	}
}

// freeThread returns a DYING thread's page to the allocator. Called exactly
// once, by the next thread scheduled after it (spec.md §3's lifecycle
// note: "self-free would pull the stack out from under itself").
func (k *Kernel) freeThread(t *Thread) {
	if t.page != nil {
		k.pageAllocator.FreePage(t.page)
		t.page = nil
	}
}
