// Package dpor implements the Dynamic Partial Order Reduction
// backtrack-set computation driven by schedule() (spec §4.2, §4.6):
// for every thread with a pending operation, find the object's last
// accesses that operation depends on, and — unless that access
// already happens-before the pending thread's own DPOR clock — mark
// the schedule entry where that access was committed so the pending
// thread is also explored from there.
package dpor

import (
	"github.com/kolkov/interleave/internal/path"
	"github.com/kolkov/interleave/internal/store"
	"github.com/kolkov/interleave/internal/thread"
)

// MarkBacktracks walks every thread with a pending branch operation
// and backtracks the path wherever a prior dependent access on the
// same object is not already known to happen-before that thread.
func MarkBacktracks(threads []*thread.Thread, st *store.Store, p *path.Path, preemptionBound *int) {
	for _, t := range threads {
		if !t.Operation.Valid {
			continue
		}
		obj := st.Get(t.Operation.Ref)
		for _, a := range obj.LastDependentAccesses(t.Operation.Action) {
			if a.DporVV.LessOrEqual(t.DporVV) {
				continue // already ordered: not a race, no need to explore
			}
			p.Backtrack(a.PathID, t.ID, preemptionBound)
		}
	}
}

// CommitAccess folds the dependent accesses' DPOR clocks into the
// active thread's DPOR clock, bumps its own slot, and returns the
// Access record the object should remember for action.
func CommitAccess(active *thread.Thread, deps []store.Access, pathID int) store.Access {
	for _, a := range deps {
		active.DporVV.Join(a.DporVV)
	}
	active.DporVV.Inc(active.ID)
	return store.Access{PathID: pathID, DporVV: active.DporVV.Clone(), Valid: true}
}
