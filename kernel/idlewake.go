package kernel

import "golang.org/x/sys/unix"

// idleWaker is the non-blocking wake-pipe the idle thread halts on,
// grounded on the teacher's own event-loop wake mechanism (eventloop/loop.go
// uses an eventfd in the idle path, written without blocking by whichever
// goroutine needs to break it out). Here tick() writes a byte on every tick;
// both pipe ends are non-blocking, so the idle body polls the read end,
// sleeping briefly after each EAGAIN, until a byte arrives.
type idleWaker struct {
	r, w int
}

func newIdleWaker() (*idleWaker, error) {
	var fds [2]int
	if err := unix.Pipe2(fds[:], unix.O_NONBLOCK|unix.O_CLOEXEC); err != nil {
		return nil, err
	}
	return &idleWaker{r: fds[0], w: fds[1]}, nil
}

// nudge wakes a halted idle thread; safe to call from tick(), never blocks.
func (w *idleWaker) nudge() {
	_, _ = unix.Write(w.w, []byte{0})
}

// halt blocks until nudge is called at least once, draining anything
// buffered so repeated nudges don't pile up spurious wakes.
func (w *idleWaker) halt() {
	var buf [64]byte
	for {
		n, err := unix.Read(w.r, buf[:])
		if n > 0 {
			return
		}
		if err == unix.EAGAIN {
			// Nothing pending yet; the hosted stand-in for "wait for an
			// interrupt" has no real hardware wait, so yield the host
			// scheduler and retry rather than busy-spinning hot.
			unix.Nanosleep(&unix.Timespec{Nsec: int64(1e5)}, nil)
			continue
		}
		if err != nil {
			return
		}
	}
}

func (w *idleWaker) close() {
	_ = unix.Close(w.r)
	_ = unix.Close(w.w)
}

// idleBody is the thread scheduled whenever the ready set is empty
// (spec.md §4.5): it records itself exactly once, then loops forever
// blocking and halting, the hosted analogue of Pintos's idle thread calling
// intr_enable + asm("hlt").
func (k *Kernel) idleBody(self *Thread, _ any) {
	waker, err := newIdleWaker()
	if err != nil {
		fatal("idle: failed to create wake pipe: " + err.Error())
	}
	defer waker.close()

	k.mu.Lock()
	k.idleWake = waker
	k.mu.Unlock()

	for {
		k.Block()
		waker.halt()
	}
}
