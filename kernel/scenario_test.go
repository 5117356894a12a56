package kernel

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Scenario 1: priority preemption. Main (pri 31) creates T (pri 40, records
// "T"), then records "M" itself. Creating a strictly-higher-priority thread
// yields immediately, so T must run to completion before Create returns.
func TestScenario_PriorityPreemption(t *testing.T) {
	k := newTestKernel(t)
	var trace []string

	_, err := k.Create("T", PriDefault+9, func(*Thread, any) {
		trace = append(trace, "T")
	}, nil)
	require.NoError(t, err)
	trace = append(trace, "M")

	assert.Equal(t, []string{"T", "M"}, trace)
}

// Scenario 2: donation chain. High (40) blocks on L1 held by Mid (30), which
// blocks on L2 held by Low (10). Low's effective priority reaches 40 while
// Mid waits; releasing L2 restores Mid to 40 (it is still a donor via L1);
// Mid releasing L1 in turn wakes High.
func TestScenario_DonationChain(t *testing.T) {
	k := newTestKernel(t, WithTimeSlice(1000))
	l1, l2 := NewLock(), NewLock()
	lowHasL2 := NewSemaphore(0)
	midHasL1 := NewSemaphore(0)
	releaseLow := NewSemaphore(0)
	highRan := NewSemaphore(0)
	allDone := NewSemaphore(0)

	var lowPriorityDuringWait, midPriorityAfterL2Released int

	_, err := k.Create("low", 10, func(*Thread, any) {
		l2.Acquire(k)
		lowHasL2.Up(k)
		releaseLow.Down(k)
		lowPriorityDuringWait = k.GetPriority()
		l2.Release(k)
		allDone.Up(k)
	}, nil)
	require.NoError(t, err)
	lowHasL2.Down(k)

	_, err = k.Create("mid", 30, func(*Thread, any) {
		l1.Acquire(k)
		midHasL1.Up(k)
		l2.Acquire(k)
		l2.Release(k)
		midPriorityAfterL2Released = k.GetPriority()
		l1.Release(k)
		allDone.Up(k)
	}, nil)
	require.NoError(t, err)
	midHasL1.Down(k)

	_, err = k.Create("high", 40, func(*Thread, any) {
		l1.Acquire(k)
		l1.Release(k)
		highRan.Up(k)
		allDone.Up(k)
	}, nil)
	require.NoError(t, err)

	releaseLow.Up(k)
	allDone.Down(k) // low
	allDone.Down(k) // mid
	allDone.Down(k) // high
	highRan.Down(k)

	assert.Equal(t, 40, lowPriorityDuringWait)
	// Mid is still donated-to by High (blocked on l1) even after l2 frees up.
	assert.Equal(t, 40, midPriorityAfterL2Released)
}

// Scenario 3: MLFQS decay. Two nice=0 CPU-bound threads, recomputed
// repeatedly (standing in for elapsed wall-clock seconds): their priorities
// must fall monotonically and their recent_cpu values converge.
func TestScenario_MLFQSDecay(t *testing.T) {
	k := New(WithMLFQS(true))
	a, err := k.Create("a", PriDefault, func(*Thread, any) {}, nil)
	require.NoError(t, err)
	b, err := k.Create("b", PriDefault, func(*Thread, any) {}, nil)
	require.NoError(t, err)

	k.mu.Lock()
	a.status, b.status = StatusReady, StatusReady
	k.sched.requeue(a)
	k.sched.requeue(b)
	k.mu.Unlock()

	// Create gave both threads PriDefault, which the first recomputation
	// replaces; the baseline is the MLFQS priority for their starting
	// recent_cpu and nice.
	lastA := computeMLFQSPriority(a.recentCPU, a.nice)
	lastB := computeMLFQSPriority(b.recentCPU, b.nice)
	for second := 0; second < 8; second++ {
		for tick := 0; tick < 4; tick++ {
			k.mu.Lock()
			a.recentCPU = a.recentCPU.AddInt(1)
			b.recentCPU = b.recentCPU.AddInt(1)
			k.priorityDirty = true
			if tick == 3 {
				k.recentCPUDirty = true
			}
			k.mu.Unlock()
			k.runMLFQSRecompute()
		}
		assert.LessOrEqual(t, a.priority, lastA)
		assert.LessOrEqual(t, b.priority, lastB)
		lastA, lastB = a.priority, b.priority
	}

	diff := a.recentCPU.Scaled100Round() - b.recentCPU.Scaled100Round()
	if diff < 0 {
		diff = -diff
	}
	assert.LessOrEqual(t, diff, 2)
}

// Scenario 4: load average tracking. Three CPU-bound runnable threads for 60
// simulated seconds: the driver itself (RUNNING, so it counts toward
// ready_count) plus two busy threads held ready. load_avg*100 must land
// within [180, 220].
func TestScenario_LoadAverageTracking(t *testing.T) {
	k := New(WithMLFQS(true))
	for i := 0; i < 2; i++ {
		th, err := k.Create("busy", PriDefault, func(*Thread, any) {}, nil)
		require.NoError(t, err)
		k.mu.Lock()
		th.status = StatusReady
		k.sched.requeue(th)
		k.mu.Unlock()
	}

	for second := 0; second < 60; second++ {
		k.mu.Lock()
		k.recentCPUDirty = true
		k.mu.Unlock()
		k.runMLFQSRecompute()
	}

	avg := k.GetLoadAvg()
	assert.GreaterOrEqual(t, avg, 180)
	assert.LessOrEqual(t, avg, 220)
}

// Scenario 5: waiter ordering. Semaphore at 0; A(20), B(35), C(15) call Down
// in that order; three Ups from the driver must wake them B, A, C.
func TestScenario_WaiterOrdering(t *testing.T) {
	k := newTestKernel(t, WithTimeSlice(1000))
	sema := NewSemaphore(0)
	ack := NewSemaphore(0)
	var order []string

	// The driver drops itself to PriMin first, so every thread created below
	// outranks it: Create switches to the new thread at once, and that thread
	// runs until it parks in sema.Down. A, B and C therefore call Down in that
	// order, and all three are in sema's waiter list before the first Up.
	require.NoError(t, k.SetPriority(PriMin))

	// registered is a dedicated, single-use semaphore per created thread: it
	// is Up'd exactly once, immediately before the thread parks in
	// sema.Down, and the driver Downs it right after Create, confirming the
	// thread got that far. A shared counting semaphore across threads can't
	// give that confirmation: an Up from one thread could satisfy a Down
	// meant to confirm another's arrival.
	mk := func(name string, priority int) {
		registered := NewSemaphore(0)
		_, err := k.Create(name, priority, func(*Thread, any) {
			registered.Up(k)
			sema.Down(k)
			order = append(order, name)
			ack.Up(k)
		}, nil)
		require.NoError(t, err)
		registered.Down(k)
	}

	mk("A", 20)
	mk("B", 35)
	mk("C", 15)

	sema.Up(k)
	ack.Down(k)
	sema.Up(k)
	ack.Down(k)
	sema.Up(k)
	ack.Down(k)

	assert.Equal(t, []string{"B", "A", "C"}, order)
}

// Scenario 6: exit-during-run. A thread whose function returns terminates
// cleanly, its exit status is observable via WaitChild, and it disappears
// from the all-threads list (no stale id survives it).
func TestScenario_ExitDuringRun(t *testing.T) {
	k := newTestKernel(t)
	child, err := k.Create("child", PriDefault, func(self *Thread, _ any) {
		self.ExitStatus = 7
	}, nil)
	require.NoError(t, err)

	status, err := k.WaitChild(child.ID())
	require.NoError(t, err)
	assert.Equal(t, 7, status)

	_, err = k.ThreadByID(child.ID())
	assert.ErrorIs(t, err, ErrUnknownThread)
}
