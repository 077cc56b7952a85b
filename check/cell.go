package check

import (
	"github.com/kolkov/interleave/internal/cellmem"
	"github.com/kolkov/interleave/internal/exec"
	"github.com/kolkov/interleave/internal/store"
)

// Cell is a modeled interior-mutability cell (spec §4.5): With/WithMut
// record the access against the cell's race-check state, panicking on
// overlap.
type Cell[T any] struct {
	ref store.Ref
	val T
}

// NewCell allocates a new cell holding initial.
func NewCell[T any](initial T) *Cell[T] {
	ex, _ := exec.Current()
	return &Cell[T]{ref: exec.NewCell(ex), val: initial}
}

// With runs f with read-only access to the cell's value.
func (c *Cell[T]) With(f func(T)) {
	exec.CellWith(c.ref, func() { f(c.val) })
}

// WithMut runs f with mutable access to the cell's value.
func (c *Cell[T]) WithMut(f func(*T)) {
	exec.CellWithMut(c.ref, func() { f(&c.val) })
}

// CausalCheck batches a cell's race checks for validation at a later
// point rather than at each access (SPEC_FULL.md §12's deferred
// variant).
type CausalCheck struct {
	check cellmem.CausalCheck
}

// NewCausalCheck returns an empty deferred check.
func NewCausalCheck() *CausalCheck { return &CausalCheck{} }

// WithDeferred records a read access against check without validating
// it immediately.
func (c *Cell[T]) WithDeferred(check *CausalCheck, f func(T)) {
	exec.CellWithDeferred(c.ref, &check.check, func() { f(c.val) })
}

// WithMutDeferred records a write access against check without
// validating it immediately.
func (c *Cell[T]) WithMutDeferred(check *CausalCheck, f func(*T)) {
	exec.CellWithDeferredMut(c.ref, &check.check, func() { f(&c.val) })
}

// Check replays every access recorded since the last Check against
// its cell's state, panicking on the first race found.
func (check *CausalCheck) Check() {
	if err := check.check.Check(); err != nil {
		panic(err)
	}
}

// Join merges other's pending accesses into check, for a race check
// that must see more than one deferred access at once.
func (check *CausalCheck) Join(other *CausalCheck) {
	check.check.Join(&other.check)
}
