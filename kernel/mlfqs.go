package kernel

import (
	"github.com/NiHighlism/gophreads/fixedpoint"
	"github.com/NiHighlism/gophreads/intrusive"
)

// computeMLFQSPriority implements spec.md §4.7:
//
//	priority = PRI_MAX - (recent_cpu / 4) - (nice * 2)
//
// clamped to [PriMin, PriMax].
func computeMLFQSPriority(recentCPU fixedpoint.FP, nice int) int {
	p := fixedpoint.FromInt(PriMax).
		Sub(recentCPU.DivInt(4)).
		Sub(fixedpoint.FromInt(nice * 2)).
		ToIntNearest()
	if p < PriMin {
		return PriMin
	}
	if p > PriMax {
		return PriMax
	}
	return p
}

// housekeepingBody is the dedicated PRI_MAX thread that performs every
// MLFQS recomputation outside interrupt context (spec.md §4.7, §9's
// dirty-flag/housekeeping-thread design note, which this preserves
// verbatim). It wakes whenever tick() has set recentCPUDirty or
// priorityDirty, does the O(n) work, and blocks again.
func (k *Kernel) housekeepingBody(self *Thread, _ any) {
	for {
		k.Block()
		k.runMLFQSRecompute()
	}
}

// runMLFQSRecompute performs whichever of the two periodic recomputations
// tick() flagged: load_avg+recent_cpu once per second, priority every fourth
// tick, each exactly per spec.md §4.7's formulas.
func (k *Kernel) runMLFQSRecompute() {
	k.mu.Lock()
	doRecentCPU := k.recentCPUDirty
	doPriority := k.priorityDirty
	k.recentCPUDirty = false
	k.priorityDirty = false
	k.mu.Unlock()

	if !doRecentCPU && !doPriority {
		return
	}

	if doRecentCPU {
		k.mu.Lock()
		ready := 0
		k.allThreads.Do(func(e *intrusive.Elem[*Thread]) {
			t := e.Value
			if k.isExcludedFromLoadAvg(t) {
				return
			}
			if t.status == StatusRunning || t.status == StatusReady {
				ready++
			}
		})

		// load_avg = (59/60)*load_avg + (1/60)*ready_threads
		fiftyNine60 := fixedpoint.FromRatio(59, 60)
		one60 := fixedpoint.FromRatio(1, 60)
		k.loadAvg = fiftyNine60.Mul(k.loadAvg).Add(one60.MulInt(ready))

		twoLoadAvg := k.loadAvg.MulInt(2)
		coeff := twoLoadAvg.Div(twoLoadAvg.AddInt(1))

		k.allThreads.Do(func(e *intrusive.Elem[*Thread]) {
			t := e.Value
			if k.isExcludedFromLoadAvg(t) {
				return
			}
			t.recentCPU = coeff.Mul(t.recentCPU).AddInt(t.nice)
		})
		k.mu.Unlock()
	}

	if !doPriority {
		return
	}

	k.mu.Lock()
	k.allThreads.Do(func(e *intrusive.Elem[*Thread]) {
		t := e.Value
		if k.isExcludedFromLoadAvg(t) {
			return
		}
		newPriority := computeMLFQSPriority(t.recentCPU, t.nice)
		if newPriority == t.priority {
			return
		}
		t.priority = newPriority
		if t.status == StatusReady {
			k.sched.requeue(t)
		}
	})
	k.mu.Unlock()

	k.maybeYieldToReadyHead()
}
