package kernel

import (
	"github.com/NiHighlism/gophreads/fixedpoint"
	"github.com/NiHighlism/gophreads/intrusive"
)

// threadMagic is the sentinel word written into every live Thread and
// checked on every CurrentThread call (spec.md §3, §7 item 2). A real
// kernel checks this at the base of a stack page to catch overflow; the
// hosted analogue has no stack to overrun, so the check instead catches a
// Thread value that was copied, zeroed, or otherwise corrupted rather than
// obtained through the kernel's own constructors.
const threadMagic = 0xc0ffee42

// Status is a thread's execution state (spec.md §3).
type Status int

const (
	StatusBlocked Status = iota
	StatusReady
	StatusRunning
	StatusDying
)

// String renders the status for logging.
func (s Status) String() string {
	switch s {
	case StatusBlocked:
		return "BLOCKED"
	case StatusReady:
		return "READY"
	case StatusRunning:
		return "RUNNING"
	case StatusDying:
		return "DYING"
	default:
		return "UNKNOWN"
	}
}

// ThreadFunc is the body of a kernel thread. It receives the argument
// passed to Create and the thread's own handle.
type ThreadFunc func(self *Thread, arg any)

// Thread is the control block for one schedulable unit of execution.
// Instead of a 4KiB page holding a control block plus a raw kernel stack
// (spec.md §4.3), each Thread owns exactly one goroutine parked on resume
// whenever it is not RUNNING; see switch.go.
type Thread struct {
	magic uint32
	k     *Kernel

	id   int
	name string

	status Status

	basePriority int
	priority     int
	nice         int
	recentCPU    fixedpoint.FP

	// Donation bookkeeping (spec.md §3, §4.8).
	donors    *intrusive.List[*Thread]
	waitingOn *Lock
	lockHeld  *Lock

	// Link fields. allElem threads the all-threads list; schedElem threads
	// whichever single scheduling/wait structure the thread currently
	// belongs to (ready list/bucket, or a semaphore's waiter list) — never
	// both, per the "exactly one scheduling structure" invariant; donorElem
	// threads this thread's membership on some other thread's donor list.
	allElem   *intrusive.Elem[*Thread]
	schedElem *intrusive.Elem[*Thread]
	donorElem *intrusive.Elem[*Thread]

	// Context-switch plumbing (switch.go). Buffered so a resumer never
	// blocks handing off control.
	resume chan struct{}
	fn     ThreadFunc
	arg    any

	// Process attachments, opaque to the core (spec.md §3); page
	// directories and file tables are out of scope (spec.md §1).
	Parent     *Thread
	Children   []*Thread
	ExitStatus int
	UserData   any

	exitSema *Semaphore

	page *Page
}

func newThread(k *Kernel, id int, name string, priority int, fn ThreadFunc, arg any) *Thread {
	if len(name) > nameMaxBytes {
		name = name[:nameMaxBytes]
	}
	t := &Thread{
		magic:        threadMagic,
		k:            k,
		id:           id,
		name:         name,
		status:       StatusBlocked,
		basePriority: priority,
		priority:     priority,
		resume:       make(chan struct{}, 1),
		fn:           fn,
		arg:          arg,
		exitSema:     NewSemaphore(0),
	}
	t.donors = intrusive.NewList[*Thread]()
	t.allElem = &intrusive.Elem[*Thread]{Value: t}
	t.schedElem = &intrusive.Elem[*Thread]{Value: t}
	t.donorElem = &intrusive.Elem[*Thread]{Value: t}
	return t
}

// ID returns the thread's unique positive identifier.
func (t *Thread) ID() int { return t.id }

// Name returns the thread's (possibly truncated) name.
func (t *Thread) Name() string { return t.name }

// Status returns the thread's current execution state.
func (t *Thread) Status() Status { return t.status }

// Priority returns the thread's current effective priority, which may be
// elevated above BasePriority by donation.
func (t *Thread) Priority() int { return t.priority }

// BasePriority returns the priority last set by Create or SetPriority,
// unaffected by donation.
func (t *Thread) BasePriority() int { return t.basePriority }

// Nice returns the thread's niceness, meaningful only under MLFQS.
func (t *Thread) Nice() int { return t.nice }

// checkMagic panics with a FatalError if the thread's sentinel has been
// corrupted (spec.md §7 item 2: detected lazily, on any CurrentThread call).
func (t *Thread) checkMagic() {
	if t.magic != threadMagic {
		fatal("thread magic sentinel corrupted, likely stack overflow: " + t.name)
	}
}
