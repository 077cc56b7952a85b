package exec

import (
	"github.com/kolkov/interleave/internal/alloc"
	"github.com/kolkov/interleave/internal/location"
	"github.com/kolkov/interleave/internal/store"
)

// NewAllocation allocates a plain, non-ref-counted tracked allocation.
func NewAllocation(ex *Execution) store.Ref {
	site := location.Capture(4)
	return ex.Store.Alloc(store.KindAllocation, alloc.NewAllocation(site))
}

// DropAllocation marks ref as dropped, clearing the pending leak.
func DropAllocation(ref store.Ref) {
	ex, _ := Current()
	ex.Store.Get(ref).Data.(*alloc.State).MarkDropped()
}

// NewArc allocates a reference-counted allocation with one reference.
func NewArc(ex *Execution) store.Ref {
	site := location.Capture(4)
	return ex.Store.Alloc(store.KindAllocation, alloc.NewArc(ex.cfg.MaxThreads, site))
}

// ArcClone increments ref's reference count.
func ArcClone(ref store.Ref) {
	ex, _ := Current()
	ex.Store.Get(ref).Data.(*alloc.ArcState).RefInc()
}

// ArcDrop decrements ref's reference count, folding in the active
// thread's causality and, on the final decrement, acquiring the
// accumulated release chain (spec §4.7, §8 scenario 6).
func ArcDrop(ref store.Ref) (final bool) {
	ex, tid := Current()
	t := ex.Threads.Get(tid)
	return ex.Store.Get(ref).Data.(*alloc.ArcState).RefDec(t.Causality)
}
