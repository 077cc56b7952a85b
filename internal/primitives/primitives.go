// Package primitives implements the state records shared by Mutex,
// RwLock, Condvar, Notify and Channel (spec §4.4). Each is a plain
// data record mutated by internal/exec's branch-then-block-then-
// resume template; this package owns only the per-kind state
// transitions, not the scheduling around them.
package primitives

import (
	"github.com/kolkov/interleave/internal/causality"
	"github.com/kolkov/interleave/internal/vv"
)

// MutexState is a mock mutex's state.
type MutexState struct {
	Owner int // -1 if unlocked
	Sync  causality.Synchronize
}

// NewMutex returns an unlocked mutex state.
func NewMutex(n int) *MutexState { return &MutexState{Owner: -1, Sync: causality.New(n)} }

// IsLocked reports whether the mutex is currently held.
func (m *MutexState) IsLocked() bool { return m.Owner >= 0 }

// Acquire takes the lock for tid and applies the acquire side of the
// release/acquire chain against the prior holder's release.
func (m *MutexState) Acquire(tid int, active vv.VV) {
	m.Owner = tid
	m.Sync.SyncLoad(causality.Acquire, active)
}

// Release drops the lock and publishes active's causality for the
// next acquirer.
func (m *MutexState) Release(active vv.VV) {
	m.Owner = -1
	m.Sync.SyncStore(causality.Release, active)
}

// RwLockMode is the lock's current holding mode.
type RwLockMode int

const (
	Unheld RwLockMode = iota
	ReadHeld
	WriteHeld
)

// RwLockState is a mock reader-writer lock's state.
type RwLockState struct {
	Mode    RwLockMode
	Readers map[int]bool
	Writer  int
	Sync    causality.Synchronize
}

// NewRwLock returns an unheld rwlock state.
func NewRwLock(n int) *RwLockState {
	return &RwLockState{Mode: Unheld, Readers: map[int]bool{}, Writer: -1, Sync: causality.New(n)}
}

// CanRead reports whether a read acquire would currently succeed.
func (r *RwLockState) CanRead() bool { return r.Mode != WriteHeld }

// CanWrite reports whether a write acquire would currently succeed.
func (r *RwLockState) CanWrite() bool { return r.Mode == Unheld }

// AcquireRead registers tid as a reader and applies the acquire side.
func (r *RwLockState) AcquireRead(tid int, active vv.VV) {
	r.Mode = ReadHeld
	r.Readers[tid] = true
	r.Sync.SyncLoad(causality.Acquire, active)
}

// ReleaseRead drops tid's read hold, publishing its causality.
func (r *RwLockState) ReleaseRead(tid int, active vv.VV) {
	delete(r.Readers, tid)
	r.Sync.SyncStore(causality.Release, active)
	if len(r.Readers) == 0 {
		r.Mode = Unheld
	}
}

// AcquireWrite takes the exclusive hold for tid.
func (r *RwLockState) AcquireWrite(tid int, active vv.VV) {
	r.Mode = WriteHeld
	r.Writer = tid
	r.Sync.SyncLoad(causality.Acquire, active)
}

// ReleaseWrite drops the exclusive hold, publishing its causality.
func (r *RwLockState) ReleaseWrite(active vv.VV) {
	r.Mode = Unheld
	r.Writer = -1
	r.Sync.SyncStore(causality.Release, active)
}

// CondvarState is a mock condition variable's waiter queue. It has no
// Synchronize of its own: waking a waiter hands control back to the
// mutex re-acquire, which carries the causality.
type CondvarState struct {
	Waiters []int
}

// NewCondvar returns an empty condvar state.
func NewCondvar() *CondvarState { return &CondvarState{} }

// Enqueue appends tid to the waiter queue.
func (c *CondvarState) Enqueue(tid int) { c.Waiters = append(c.Waiters, tid) }

// NotifyOne pops and returns the oldest waiter, or -1 if none.
func (c *CondvarState) NotifyOne() int {
	if len(c.Waiters) == 0 {
		return -1
	}
	tid := c.Waiters[0]
	c.Waiters = c.Waiters[1:]
	return tid
}

// NotifyAll drains and returns every waiter.
func (c *CondvarState) NotifyAll() []int {
	out := c.Waiters
	c.Waiters = nil
	return out
}

// NotifyState is a mock Notify: a single-slot wake with spurious
// wakeup support (spec §4.4).
type NotifyState struct {
	Notified bool
	DidSpur  bool
	Sync     causality.Synchronize
}

// NewNotify returns a not-yet-notified Notify state.
func NewNotify(n int) *NotifyState { return &NotifyState{Sync: causality.New(n)} }

// Notify publishes active's causality and marks the slot notified.
func (w *NotifyState) Notify(active vv.VV) {
	w.Sync.SyncStore(causality.Release, active)
	w.Notified = true
}

// Consume clears the notified slot and acquires its causality.
func (w *NotifyState) Consume(active vv.VV) {
	w.Notified = false
	w.Sync.SyncLoad(causality.Acquire, active)
}

// ChannelState is a mock MPSC channel's state.
type ChannelState struct {
	MsgCount int
	Sync     causality.Synchronize
}

// NewChannel returns an empty channel state.
func NewChannel(n int) *ChannelState { return &ChannelState{Sync: causality.New(n)} }

// Send increments the message count and publishes active's causality.
func (c *ChannelState) Send(active vv.VV) {
	c.Sync.SyncStore(causality.Release, active)
	c.MsgCount++
}

// CanRecv reports whether a receive would currently succeed.
func (c *ChannelState) CanRecv() bool { return c.MsgCount > 0 }

// Recv decrements the message count and acquires the sender's
// causality. Panics if called when CanRecv is false; callers must
// branch-and-block first.
func (c *ChannelState) Recv(active vv.VV) {
	if c.MsgCount == 0 {
		panic("primitives: Recv called with no pending message")
	}
	c.Sync.SyncLoad(causality.Acquire, active)
	c.MsgCount--
}

// IsEmpty reports whether the channel has no pending messages, used
// by the leak check at the end of an iteration — a channel must be
// drained for the run to be considered clean.
func (c *ChannelState) IsEmpty() bool { return c.MsgCount == 0 }
