package kernel

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// These tests never let the driving goroutine (thread 1, the one that owns
// the *testing.T) block on a plain Go channel to wait for a kernel thread:
// the driver IS a kernel thread, so a raw channel read leaves it parked
// outside the scheduler's view, and nothing else ever gets chosen to run.
// Every wait below goes through a kernel primitive (a Semaphore) instead.

func TestSemaphore_DownBlocksUntilUp(t *testing.T) {
	k := newTestKernel(t)
	sema := NewSemaphore(0)
	done := NewSemaphore(0)

	_, err := k.Create("waiter", PriDefault, func(*Thread, any) {
		sema.Down(k)
		done.Up(k)
	}, nil)
	require.NoError(t, err)

	sema.Up(k)
	done.Down(k)
}

func TestSemaphore_WakesHighestPriorityWaiterFirst(t *testing.T) {
	k := newTestKernel(t)
	sema := NewSemaphore(0)
	ack := NewSemaphore(0)
	var order []string

	// Drop the driver below both waiters so each runs into sema.Down as soon
	// as it is created; both are then queued before the first Up.
	require.NoError(t, k.SetPriority(PriMin))

	_, err := k.Create("low", PriMin+1, func(*Thread, any) {
		sema.Down(k)
		order = append(order, "low")
		ack.Up(k)
	}, nil)
	require.NoError(t, err)

	_, err = k.Create("high", PriDefault+1, func(*Thread, any) {
		sema.Down(k)
		order = append(order, "high")
		ack.Up(k)
	}, nil)
	require.NoError(t, err)

	sema.Up(k)
	ack.Down(k)
	sema.Up(k)
	ack.Down(k)

	require.Len(t, order, 2)
	assert.Equal(t, "high", order[0])
	assert.Equal(t, "low", order[1])
}

func TestSemaphore_UpYieldsImmediatelyToWokenHigherPriorityWaiter(t *testing.T) {
	k := newTestKernel(t, WithTimeSlice(1000))
	sema := NewSemaphore(0)
	started := NewSemaphore(0)
	allDone := NewSemaphore(0)
	var order []string

	_, err := k.Create("high", PriMax, func(*Thread, any) {
		sema.Down(k)
		order = append(order, "high")
		allDone.Up(k)
	}, nil)
	require.NoError(t, err)

	_, err = k.Create("low", PriMin+1, func(*Thread, any) {
		started.Up(k)
		for i := 0; i < 3; i++ {
			if i == 1 {
				order = append(order, "low-before-up")
				sema.Up(k)
				// If Up didn't yield here, this append would run (and the
				// loop below would keep spinning on CheckPreempt alone)
				// before "high" ever got a chance to run.
				order = append(order, "low-after-up")
			}
			k.CheckPreempt()
		}
		allDone.Up(k)
	}, nil)
	require.NoError(t, err)

	started.Down(k)
	allDone.Down(k)
	allDone.Down(k)

	require.Len(t, order, 3)
	assert.Equal(t, "low-before-up", order[0])
	assert.Equal(t, "high", order[1])
	assert.Equal(t, "low-after-up", order[2])
}

func TestLock_MutualExclusion(t *testing.T) {
	k := newTestKernel(t)
	lock := NewLock()
	counter := 0
	const n = 8
	finished := NewSemaphore(0)

	for i := 0; i < n; i++ {
		_, err := k.Create("worker", PriDefault, func(*Thread, any) {
			lock.Acquire(k)
			counter++
			lock.Release(k)
			finished.Up(k)
		}, nil)
		require.NoError(t, err)
	}

	for i := 0; i < n; i++ {
		finished.Down(k)
	}
	assert.Equal(t, n, counter)
}

func TestCond_WaitReleasesAndReacquiresLock(t *testing.T) {
	k := newTestKernel(t)
	lock := NewLock()
	cond := NewCond()
	ready := false
	var heldAfterWake bool
	done := NewSemaphore(0)

	_, err := k.Create("waiter", PriDefault, func(*Thread, any) {
		lock.Acquire(k)
		for !ready {
			cond.Wait(k, lock)
		}
		heldAfterWake = lock.HeldByCurrent(k)
		lock.Release(k)
		done.Up(k)
	}, nil)
	require.NoError(t, err)

	_, err = k.Create("signaler", PriDefault, func(*Thread, any) {
		lock.Acquire(k)
		ready = true
		lock.Release(k)
		cond.Signal(k)
		done.Up(k)
	}, nil)
	require.NoError(t, err)

	done.Down(k)
	done.Down(k)
	assert.True(t, heldAfterWake)
}
