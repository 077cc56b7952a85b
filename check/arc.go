package check

import (
	"github.com/kolkov/interleave/internal/exec"
	"github.com/kolkov/interleave/internal/store"
)

// Arc is a modeled reference-counted allocation (spec §4.6): cloning
// increments the count, dropping decrements it, and the final drop
// acquires the accumulated release chain left by every prior drop —
// the template that makes leak/use-after-free detection sound.
type Arc[T any] struct {
	ref store.Ref
	val T
}

// NewArc allocates a new Arc wrapping initial with one reference.
func NewArc[T any](initial T) *Arc[T] {
	ex, _ := exec.Current()
	return &Arc[T]{ref: exec.NewArc(ex), val: initial}
}

// Clone increments the reference count and returns a new handle
// sharing the same allocation.
func (a *Arc[T]) Clone() *Arc[T] {
	exec.ArcClone(a.ref)
	return &Arc[T]{ref: a.ref, val: a.val}
}

// Get returns the wrapped value.
func (a *Arc[T]) Get() T { return a.val }

// Drop decrements the reference count, releasing this handle. It
// reports whether this was the final reference.
func (a *Arc[T]) Drop() (final bool) {
	return exec.ArcDrop(a.ref)
}

// Allocation is a modeled plain (non-ref-counted) tracked allocation,
// for leak-checking a single owned resource without Arc's sharing
// semantics.
type Allocation struct {
	ref store.Ref
}

// NewAllocation allocates a new tracked allocation.
func NewAllocation() *Allocation {
	ex, _ := exec.Current()
	return &Allocation{ref: exec.NewAllocation(ex)}
}

// Drop marks the allocation as released, clearing its pending leak.
func (a *Allocation) Drop() { exec.DropAllocation(a.ref) }
