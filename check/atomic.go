package check

import (
	"github.com/kolkov/interleave/internal/exec"
	"github.com/kolkov/interleave/internal/store"
)

// Numeric bounds the type parameter accepted by Add/Sub — the
// integer-flavored atomics the host platform exposes.
type Numeric interface {
	~int | ~int32 | ~int64 | ~uint | ~uint32 | ~uint64 | ~uintptr
}

// Atomic is a modeled atomic cell (spec §4.3): every Load picks
// non-deterministically among the stores the active order admits,
// and every Store/RMW appends to that history.
type Atomic[T any] struct {
	ref store.Ref
}

// NewAtomic allocates a new atomic cell holding initial.
func NewAtomic[T any](initial T) *Atomic[T] {
	ex, _ := exec.Current()
	return &Atomic[T]{ref: exec.NewAtomic(ex, initial)}
}

// Load returns one admissible prior store's value under order.
func (a *Atomic[T]) Load(order Ordering) T {
	return exec.AtomicLoad[T](a.ref, order.internal())
}

// Store appends a new value to the history under order.
func (a *Atomic[T]) Store(v T, order Ordering) {
	exec.AtomicStore[T](a.ref, v, order.internal())
}

// Swap stores v and returns the value immediately prior to the swap.
func (a *Atomic[T]) Swap(v T, order Ordering) T {
	prev, _ := exec.AtomicRMW[T](a.ref, func(T) (T, bool) { return v, true }, order.internal(), order.internal())
	return prev
}

// CompareAndSwap stores new if the current value equals old, and
// reports whether the swap happened.
func CompareAndSwap[T comparable](a *Atomic[T], old, new T, successOrder, failureOrder Ordering) bool {
	_, ok := exec.AtomicRMW[T](a.ref, func(cur T) (T, bool) {
		if cur == old {
			return new, true
		}
		return cur, false
	}, successOrder.internal(), failureOrder.internal())
	return ok
}

// Add adds delta and returns the value immediately prior (fetch_add
// semantics).
func Add[T Numeric](a *Atomic[T], delta T, order Ordering) T {
	prev, _ := exec.AtomicRMW[T](a.ref, func(cur T) (T, bool) { return cur + delta, true }, order.internal(), order.internal())
	return prev
}

// Sub subtracts delta and returns the value immediately prior
// (fetch_sub semantics).
func Sub[T Numeric](a *Atomic[T], delta T, order Ordering) T {
	prev, _ := exec.AtomicRMW[T](a.ref, func(cur T) (T, bool) { return cur - delta, true }, order.internal(), order.internal())
	return prev
}

// Convenience aliases for the host platform's concrete atomic types.
type (
	AtomicU32   = Atomic[uint32]
	AtomicI32   = Atomic[int32]
	AtomicU64   = Atomic[uint64]
	AtomicI64   = Atomic[int64]
	AtomicUsize = Atomic[uintptr]
	AtomicBool  = Atomic[bool]
	AtomicPtr[T any] = Atomic[*T]
)

func NewAtomicU32(v uint32) *AtomicU32     { return NewAtomic(v) }
func NewAtomicI32(v int32) *AtomicI32      { return NewAtomic(v) }
func NewAtomicU64(v uint64) *AtomicU64     { return NewAtomic(v) }
func NewAtomicI64(v int64) *AtomicI64      { return NewAtomic(v) }
func NewAtomicUsize(v uintptr) *AtomicUsize { return NewAtomic(v) }
func NewAtomicBool(v bool) *AtomicBool     { return NewAtomic(v) }
func NewAtomicPtr[T any](v *T) *AtomicPtr[T] { return NewAtomic(v) }

// Fence applies a standalone memory fence with no backing atomic
// (SPEC_FULL.md §12).
func Fence(order Ordering) { exec.Fence(order.internal()) }
