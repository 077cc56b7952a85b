package check

import "github.com/kolkov/interleave/internal/exec"

// Thread is an opaque handle to a user thread, passed to Unpark and
// Join.
type Thread struct {
	id int
}

// JoinHandle is returned by Spawn; Join blocks until the spawned
// thread has terminated, mirroring the host's JoinHandle.
type JoinHandle struct {
	id int
}

// Spawn starts f on a new cooperatively-scheduled thread (spec §4.2)
// and returns a handle for joining it.
func Spawn(f func()) *JoinHandle {
	id := exec.Spawn(f)
	return &JoinHandle{id: id}
}

// Join blocks the calling thread until h's thread has terminated.
func (h *JoinHandle) Join() {
	exec.Join(h.id)
}

// Thread returns a handle to h's underlying thread, for use with
// Unpark.
func (h *JoinHandle) Thread() *Thread { return &Thread{id: h.id} }

// CurrentThread returns a handle to the calling thread.
func CurrentThread() *Thread {
	_, tid := exec.Current()
	return &Thread{id: tid}
}

// Park blocks the calling thread until a matching Unpark call,
// consuming an already-pending unpark token immediately if one is
// waiting (spec §5's park/unpark suspension point).
func Park() { exec.Park() }

// Unpark wakes t's thread, or leaves a token pending if t has not yet
// parked.
func Unpark(t *Thread) { exec.Unpark(t.id) }

// YieldNow surrenders control for exactly one scheduling step and
// records the thread's causality at the yield, which bounds how far
// back later atomic loads on this thread scan the store history
// (spec §4.3's yield-aware load set).
func YieldNow() { exec.YieldNow() }

// LocalKey is a per-thread storage slot, initialized lazily on first
// access by each thread (SPEC_FULL.md §11).
type LocalKey[T any] struct {
	init func() T
	vals map[int]T
}

// ThreadLocal declares a new thread-local slot; init runs once per
// thread, on that thread's first access.
func ThreadLocal[T any](init func() T) *LocalKey[T] {
	return &LocalKey[T]{init: init, vals: make(map[int]T)}
}

// With runs f with a reference to the calling thread's slot value,
// initializing it if this is the thread's first access.
func (k *LocalKey[T]) With(f func(*T)) {
	_, tid := exec.Current()
	v, ok := k.vals[tid]
	if !ok {
		v = k.init()
	}
	f(&v)
	k.vals[tid] = v
}
