package kernel

// Boot-time configuration constants, spec.md §6.
const (
	PriMin     = 0
	PriDefault = 31
	PriMax     = 63

	NiceMin  = -20
	NiceInit = 0
	NiceMax  = 20

	// TimeSlice is the default number of ticks a thread may run before
	// preemption is requested.
	TimeSlice = 4
	// TimerFreq is the default cadence, in ticks, at which recent_cpu and
	// load_avg are recomputed under MLFQS.
	TimerFreq = 100

	nameMaxBytes = 16
)

// Page stands in for the 4KiB-aligned page a real kernel would allocate to
// back a thread's control block and stack (spec.md §4.3). The core never
// dereferences its contents; it is an opaque handle exchanged with
// PageAllocator.
type Page struct {
	id int
}

// PageAllocator is the out-of-scope collaborator described in spec.md §6.
// One page is requested per thread created.
type PageAllocator interface {
	AllocPage(zeroed bool) (*Page, error)
	FreePage(*Page)
}

type slicePageAllocator struct {
	next int
}

func newSlicePageAllocator() *slicePageAllocator {
	return &slicePageAllocator{}
}

// AllocPage never fails; it exists so PageAllocator's error path (and
// Create's ErrOutOfMemory propagation) is real and testable via a
// caller-supplied PageAllocator that simulates exhaustion.
func (a *slicePageAllocator) AllocPage(bool) (*Page, error) {
	a.next++
	return &Page{id: a.next}, nil
}

func (a *slicePageAllocator) FreePage(*Page) {}

// AddressSpaceActivator is the user-program collaborator invoked on every
// switch-in (spec.md §6). The default is a no-op, since address-space
// activation is explicitly out of scope (spec.md §1).
type AddressSpaceActivator interface {
	Activate(t *Thread)
}

type noOpAddressSpaceActivator struct{}

func (noOpAddressSpaceActivator) Activate(*Thread) {}

// ProcessExitHook is the user-program collaborator invoked once, before a
// thread is removed from the all-threads list by Exit (spec.md §6).
type ProcessExitHook interface {
	ProcessExit(t *Thread)
}

type noOpProcessExitHook struct{}

func (noOpProcessExitHook) ProcessExit(*Thread) {}
