package exec

import (
	"github.com/kolkov/interleave/internal/cellmem"
	"github.com/kolkov/interleave/internal/location"
	"github.com/kolkov/interleave/internal/store"
)

// NewCell allocates a new interior-mutable cell state.
func NewCell(ex *Execution) store.Ref {
	site := location.Capture(4)
	return ex.Store.Alloc(store.KindCell, cellmem.NewState(ex.cfg.MaxThreads, site))
}

// CellWith runs f under a read access to ref, panicking on a detected
// data race. Branching is forbidden for the duration (spec §4.2's
// critical regions: cell-check paths must not yield).
func CellWith(ref store.Ref, f func()) {
	ex, tid := Current()
	t := ex.Threads.Get(tid)
	s := ex.Store.Get(ref).Data.(*cellmem.State)

	site := location.Capture(3)
	if err := s.EnterRead(t.Causality, site); err != nil {
		ex.panicf("%v", err)
	}
	ex.EnterCritical(tid)
	func() {
		defer ex.ExitCritical(tid)
		f()
	}()
	s.ExitRead(t.Causality)
}

// CellWithMut runs f under a write access to ref, panicking on a
// detected data race.
func CellWithMut(ref store.Ref, f func()) {
	ex, tid := Current()
	t := ex.Threads.Get(tid)
	s := ex.Store.Get(ref).Data.(*cellmem.State)

	site := location.Capture(3)
	if err := s.EnterWrite(t.Causality, site); err != nil {
		ex.panicf("%v", err)
	}
	ex.EnterCritical(tid)
	func() {
		defer ex.ExitCritical(tid)
		f()
	}()
	s.ExitWrite(t.Causality)
}

// CellWithDeferred records a read access against check without
// validating it immediately; call check.Check() later to run the
// race check as a separate step (spec §4.5's deferred variant).
func CellWithDeferred(ref store.Ref, check *cellmem.CausalCheck, f func()) {
	ex, tid := Current()
	t := ex.Threads.Get(tid)
	s := ex.Store.Get(ref).Data.(*cellmem.State)
	site := location.Capture(3)
	check.Defer(s, t.Causality, false, site)
	f()
}

// CellWithDeferredMut is CellWithDeferred's write-access counterpart.
func CellWithDeferredMut(ref store.Ref, check *cellmem.CausalCheck, f func()) {
	ex, tid := Current()
	t := ex.Threads.Get(tid)
	s := ex.Store.Get(ref).Data.(*cellmem.State)
	site := location.Capture(3)
	check.Defer(s, t.Causality, true, site)
	f()
}
