// Package alloc implements leak detection for plain allocations and
// for reference-counted (Arc) allocations, including the final-
// release acquire-fence semantics spec §4.7/§8 scenario 6 describes:
// every ref-count decrement releases into a shared Synchronize packet,
// and the decrement that reaches zero acquires the accumulated chain,
// making every earlier thread's writes visible to whichever thread
// performs the final drop.
package alloc

import (
	"fmt"

	"github.com/kolkov/interleave/internal/causality"
	"github.com/kolkov/interleave/internal/location"
	"github.com/kolkov/interleave/internal/vv"
)

// State tracks a plain allocation (UnsafeCell-style box, no ref
// counting): it must be observed-dropped by the end of the iteration.
type State struct {
	Dropped     bool
	AllocatedAt location.Site
}

// NewAllocation records a fresh, not-yet-dropped allocation.
func NewAllocation(site location.Site) *State {
	return &State{AllocatedAt: site}
}

// MarkDropped records that the allocation's single owner dropped it.
func (s *State) MarkDropped() { s.Dropped = true }

// CheckLeak returns a descriptive error if the allocation was never
// dropped.
func (s *State) CheckLeak() error {
	if !s.Dropped {
		return fmt.Errorf("leak: allocation at %s was never dropped", s.AllocatedAt)
	}
	return nil
}

// ArcState tracks a reference-counted allocation.
type ArcState struct {
	RefCount    int
	Sync        causality.Synchronize
	AllocatedAt location.Site
}

// NewArc returns a fresh Arc state with one reference.
func NewArc(n int, site location.Site) *ArcState {
	return &ArcState{RefCount: 1, Sync: causality.New(n), AllocatedAt: site}
}

// RefInc increments the reference count for a clone.
func (a *ArcState) RefInc() {
	a.RefCount++
}

// RefDec releases active's causality into the shared chain and
// decrements the reference count. It reports whether this was the
// final decrement; on the final decrement it also folds the
// accumulated chain back into active — the acquire fence that makes
// every earlier dropper's writes visible to the final dropper.
func (a *ArcState) RefDec(active vv.VV) (final bool) {
	a.Sync.SyncStore(causality.Release, active)
	a.RefCount--
	if a.RefCount == 0 {
		active.Join(a.Sync.HappensBefore)
		return true
	}
	return false
}

// CheckLeak returns a descriptive error if the Arc still has live
// references at the end of the iteration.
func (a *ArcState) CheckLeak() error {
	if a.RefCount != 0 {
		return fmt.Errorf("leak: Arc allocated at %s leaked with refcount %d", a.AllocatedAt, a.RefCount)
	}
	return nil
}
