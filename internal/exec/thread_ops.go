package exec

import (
	"github.com/kolkov/interleave/internal/thread"
)

// Spawn creates a new user thread running f and returns its id. The
// new goroutine blocks immediately awaiting its first turn.
func Spawn(f func()) int {
	ex, _ := Current()
	t, err := ex.Threads.Spawn()
	if err != nil {
		ex.panicf("%v", err)
	}
	tid := t.ID
	ex.wg.Go(func() error {
		ex.Threads.AwaitTurn(tid)
		SetCurrent(ex, tid)
		runGuarded(ex, f)
		ThreadDone()
		return nil
	})
	return tid
}

// runGuarded runs f, converting a panic into an Execution-recorded
// failure so the first panic in any thread surfaces from Run.
func runGuarded(ex *Execution, f func()) {
	defer func() {
		if r := recover(); r != nil {
			ex.recordFailure(r)
		}
	}()
	f()
}

// Join blocks the calling thread until target has terminated.
func Join(target int) {
	ex, tid := Current()
	for {
		if ex.Threads.Get(target).State == thread.Terminated {
			return
		}
		t := ex.Threads.Get(tid)
		t.JoinTarget = target
		t.State = thread.Blocked
		if err := ex.branch(tid, thread.Operation{}); err != nil {
			ex.handleBranchErr(err)
			return
		}
	}
}

// ThreadDone transitions the calling thread to Terminated and wakes
// every thread blocked joining it.
func ThreadDone() {
	ex, tid := Current()
	t := ex.Threads.Get(tid)
	t.State = thread.Terminated
	for _, other := range ex.Threads.All() {
		if other.State == thread.Blocked && other.JoinTarget == tid {
			other.State = thread.Runnable
			other.JoinTarget = -1
		}
	}
	if err := ex.branch(tid, thread.Operation{}); err != nil {
		ex.handleBranchErr(err)
	}
}

// Park blocks the calling thread until a matching Unpark, consuming
// an already-pending notification immediately if present.
func Park() {
	ex, tid := Current()
	t := ex.Threads.Get(tid)
	if t.Notified {
		t.Notified = false
	} else {
		t.State = thread.Blocked
	}
	if err := ex.branch(tid, thread.Operation{}); err != nil {
		ex.handleBranchErr(err)
	}
}

// Unpark wakes target, or leaves a notification pending if target
// has not yet parked.
func Unpark(target int) {
	ex, tid := Current()
	t := ex.Threads.Get(target)
	t.Notified = true
	if t.State == thread.Blocked {
		t.State = thread.Runnable
	}
	if err := ex.branch(tid, thread.Operation{}); err != nil {
		ex.handleBranchErr(err)
	}
}

// YieldNow surrenders control for exactly one scheduling step.
func YieldNow() {
	ex, tid := Current()
	t := ex.Threads.Get(tid)
	t.State = thread.Yield
	t.LastYield = t.Causality.Clone()
	if err := ex.branch(tid, thread.Operation{}); err != nil {
		ex.handleBranchErr(err)
	}
}
