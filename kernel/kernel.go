// Package kernel implements the threading core of a small teaching
// operating system: thread lifecycle, two interchangeable CPU schedulers
// (priority round-robin with donation, and MLFQS), interrupt-driven
// timekeeping, and the synchronisation primitives the rest of a kernel
// would be built on.
//
// Go gives user code no raw stacks, no ABI-level context switch, and no way
// to suspend an arbitrary other goroutine, so every place the original
// design assumes those (context switch, "interrupts disabled") is
// re-expressed as the closest hosted analogue: one goroutine per Thread,
// parked on a channel when not RUNNING, and a single dispatch mutex
// standing in for "interrupts off" (see switch.go and kernel.mu).
package kernel

import (
	"runtime"
	"sync"
	"sync/atomic"

	"github.com/NiHighlism/gophreads/fixedpoint"
	"github.com/NiHighlism/gophreads/intrusive"
)

// Kernel owns every piece of scheduler state: the all-threads list, the
// active scheduler, timekeeping counters, and the dirty flags MLFQS
// recomputation consumes. The zero value is not usable; construct with New.
type Kernel struct {
	// mu is the single critical-section lock standing in for "interrupts
	// disabled" (spec.md §5, §9): every mutation of scheduler, donor, or
	// MLFQS state happens under mu, briefly, never held across a park/resume.
	mu sync.Mutex

	idLock sync.Mutex // dedicated id-allocator lock (spec.md §5)
	nextID int

	log Logger

	mlfqsEnabled bool
	timeSlice    int
	timerFreq    int

	sched scheduler

	allThreads *intrusive.List[*Thread]
	current    atomic.Pointer[Thread]

	idle         *Thread
	housekeeping *Thread
	wakeupThread *Thread
	idleWake     *idleWaker

	// Tick accounting (spec.md §4.6).
	tickCount     uint64
	threadTicks   int
	idleTicks     uint64
	kernelTicks   uint64
	recentCPUDirty bool
	priorityDirty  bool
	loadAvg        fixedpoint.FP

	yieldPending atomic.Bool

	pageAllocator PageAllocator
	activator     AddressSpaceActivator
	exitHook      ProcessExitHook

	sleepQ *sleepQueue

	// pendingFree is the most recently DYING thread, freed by whichever
	// thread's postSwitchTail runs next (spec.md §3, §4.5).
	pendingFree *Thread

	started bool
}

// New constructs a Kernel and its system threads (idle, the wake-up thread,
// and, if MLFQS is selected, the housekeeping thread). Each system thread
// starts BLOCKED with its goroutine parked until it is first scheduled, so
// the returned Kernel is ready for a TimerDriver to start ticking and for
// the caller to Create its first real thread.
func New(opts ...Option) *Kernel {
	o := defaultOptions()
	for _, opt := range opts {
		opt.apply(&o)
	}

	k := &Kernel{
		log:           o.logger,
		mlfqsEnabled:  o.mlfqs,
		timeSlice:     o.timeSlice,
		timerFreq:     o.timerFreq,
		allThreads:    intrusive.NewList[*Thread](),
		pageAllocator: o.pageAllocator,
		activator:     o.activator,
		exitHook:      o.exitHook,
	}
	if o.mlfqs {
		k.sched = newMLFQSScheduler()
	} else {
		k.sched = newRRScheduler()
	}
	k.sleepQ = newSleepQueue()

	// The initial thread: whichever goroutine called New becomes thread 1,
	// running, without ever having been through the Create/Unblock path.
	initial := k.newThreadLocked(PriDefault, "main", nil, nil)
	initial.status = StatusRunning
	k.allThreads.PushBack(initial.allElem)
	k.current.Store(initial)

	k.idle = k.spawnSystemThread("idle", PriMin, k.idleBody)
	k.waitBlocked(k.idle)

	if o.mlfqs {
		k.housekeeping = k.spawnSystemThread("housekeeping", PriMax, k.housekeepingBody)
		k.waitBlocked(k.housekeeping)
	}

	k.wakeupThread = k.spawnSystemThread("wakeup", PriDefault, k.wakeupBody)
	k.waitBlocked(k.wakeupThread)

	k.started = true
	return k
}

// newThreadLocked allocates thread bookkeeping (id, priority, nice,
// recent_cpu inherited from the creator per spec.md §4.7) without touching
// scheduler structures. fn/arg may be nil for the bootstrap "main" thread,
// which never runs a goroutine body of its own (it already has one: the
// caller of New).
func (k *Kernel) newThreadLocked(priority int, name string, fn ThreadFunc, arg any) *Thread {
	k.idLock.Lock()
	k.nextID++
	id := k.nextID
	k.idLock.Unlock()

	t := newThread(k, id, name, priority, fn, arg)
	if cur := k.current.Load(); cur != nil {
		t.nice = cur.nice
		t.recentCPU = cur.recentCPU
	}
	return t
}

// spawnSystemThread creates and starts a kernel-internal thread (idle,
// housekeeping, wake-up) that is not subject to Create's immediate-yield
// rule and is excluded from MLFQS's ready_count (spec.md §4.7, §9).
func (k *Kernel) spawnSystemThread(name string, priority int, fn ThreadFunc) *Thread {
	t := k.newThreadLocked(priority, name, fn, nil)
	k.mu.Lock()
	k.allThreads.PushBack(t.allElem)
	k.mu.Unlock()
	go k.runThread(t)
	return t
}

// waitBlocked spins until t's status reads BLOCKED. newThread creates every
// thread BLOCKED and runThread keeps its goroutine parked on resume until it
// is first scheduled, so for a freshly spawned system thread this returns on
// its first check.
func (k *Kernel) waitBlocked(t *Thread) {
	for {
		k.mu.Lock()
		blocked := t.status == StatusBlocked
		k.mu.Unlock()
		if blocked {
			return
		}
		runtime.Gosched()
	}
}

// CurrentThread returns the thread presently RUNNING, after checking its
// stack-overflow sentinel (spec.md §7 item 2).
func (k *Kernel) CurrentThread() *Thread {
	t := k.current.Load()
	t.checkMagic()
	return t
}

// ThreadByID looks up a live thread by id (spec.md §6).
func (k *Kernel) ThreadByID(id int) (*Thread, error) {
	k.mu.Lock()
	defer k.mu.Unlock()
	var found *Thread
	k.allThreads.Do(func(e *intrusive.Elem[*Thread]) {
		if found == nil && e.Value.id == id {
			found = e.Value
		}
	})
	if found == nil {
		return nil, ErrUnknownThread
	}
	return found, nil
}

// Foreach iterates the all-threads list, calling fn once per live thread
// (spec.md §4.9). Per spec, this must be called with scheduler state
// otherwise quiescent from the caller's perspective; it takes Kernel's
// dispatch lock for the duration of the walk.
func (k *Kernel) Foreach(fn func(t *Thread)) {
	k.mu.Lock()
	defer k.mu.Unlock()
	k.allThreads.Do(func(e *intrusive.Elem[*Thread]) { fn(e.Value) })
}

// isExcludedFromLoadAvg reports whether t is one of the three sentinel
// threads spec.md §4.7/§9 exclude from ready_count and recent_cpu
// recomputation: idle, housekeeping, and the wake-up thread exported by the
// timer-sleep facility.
func (k *Kernel) isExcludedFromLoadAvg(t *Thread) bool {
	return t == k.idle || t == k.housekeeping || t == k.wakeupThread
}
