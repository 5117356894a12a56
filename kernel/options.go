package kernel

// kernelOptions holds configuration gathered from Option values before New
// builds a Kernel. See spec.md §6's boot-time configuration block.
type kernelOptions struct {
	mlfqs         bool
	logger        Logger
	timeSlice     int
	timerFreq     int
	pageAllocator PageAllocator
	activator     AddressSpaceActivator
	exitHook      ProcessExitHook
}

func defaultOptions() kernelOptions {
	return kernelOptions{
		mlfqs:         false,
		logger:        NewNoOpLogger(),
		timeSlice:     TimeSlice,
		timerFreq:     TimerFreq,
		pageAllocator: newSlicePageAllocator(),
		activator:     noOpAddressSpaceActivator{},
		exitHook:      noOpProcessExitHook{},
	}
}

// Option configures a Kernel at construction time.
type Option interface {
	apply(*kernelOptions)
}

type optionFunc func(*kernelOptions)

func (f optionFunc) apply(o *kernelOptions) { f(o) }

// WithMLFQS selects the multi-level feedback queue scheduler (the `-o
// mlfqs` boot flag of spec.md §6). The default is priority round-robin.
func WithMLFQS(enabled bool) Option {
	return optionFunc(func(o *kernelOptions) { o.mlfqs = enabled })
}

// WithLogger installs a structured logger. The default discards everything.
func WithLogger(l Logger) Option {
	return optionFunc(func(o *kernelOptions) {
		if l != nil {
			o.logger = l
		}
	})
}

// WithTimeSlice overrides TimeSlice (4 ticks in spec.md §6); intended for
// tests that want to observe preemption without waiting for the default.
func WithTimeSlice(ticks int) Option {
	return optionFunc(func(o *kernelOptions) {
		if ticks > 0 {
			o.timeSlice = ticks
		}
	})
}

// WithTimerFrequency overrides TimerFreq (100Hz in spec.md §6); the cadence
// at which recent_cpu_dirty is raised.
func WithTimerFrequency(hz int) Option {
	return optionFunc(func(o *kernelOptions) {
		if hz > 0 {
			o.timerFreq = hz
		}
	})
}

// WithPageAllocator overrides the page allocator collaborator (spec.md §6).
func WithPageAllocator(p PageAllocator) Option {
	return optionFunc(func(o *kernelOptions) {
		if p != nil {
			o.pageAllocator = p
		}
	})
}

// WithAddressSpaceActivator overrides the user-program collaborator called
// on every switch-in (spec.md §6).
func WithAddressSpaceActivator(a AddressSpaceActivator) Option {
	return optionFunc(func(o *kernelOptions) {
		if a != nil {
			o.activator = a
		}
	})
}

// WithProcessExitHook overrides the user-program collaborator called before
// a thread is removed from the all-threads list on exit (spec.md §6).
func WithProcessExitHook(h ProcessExitHook) Option {
	return optionFunc(func(o *kernelOptions) {
		if h != nil {
			o.exitHook = h
		}
	})
}
