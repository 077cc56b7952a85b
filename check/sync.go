package check

import (
	"github.com/kolkov/interleave/internal/exec"
	"github.com/kolkov/interleave/internal/store"
)

// Mutex is a modeled mutual-exclusion lock guarding a value of type
// T, mirroring the host platform's Mutex<T> (spec §4.4).
type Mutex[T any] struct {
	ref store.Ref
	val T
}

// NewMutex allocates a new mutex guarding initial.
func NewMutex[T any](initial T) *Mutex[T] {
	ex, _ := exec.Current()
	return &Mutex[T]{ref: exec.NewMutex(ex), val: initial}
}

// MutexGuard is the value returned while a Mutex is held; dropping it
// (calling Unlock) releases the lock.
type MutexGuard[T any] struct {
	m *Mutex[T]
}

// Lock blocks until the mutex is free, then returns a guard granting
// access to the guarded value.
func (m *Mutex[T]) Lock() *MutexGuard[T] {
	exec.MutexLock(m.ref)
	return &MutexGuard[T]{m: m}
}

// TryLock attempts to acquire the mutex without blocking.
func (m *Mutex[T]) TryLock() (*MutexGuard[T], bool) {
	if !exec.MutexTryLock(m.ref) {
		return nil, false
	}
	return &MutexGuard[T]{m: m}, true
}

// Get returns the guarded value.
func (g *MutexGuard[T]) Get() T { return g.m.val }

// Set replaces the guarded value.
func (g *MutexGuard[T]) Set(v T) { g.m.val = v }

// Unlock releases the mutex.
func (g *MutexGuard[T]) Unlock() { exec.MutexUnlock(g.m.ref) }

// RwLock is a modeled reader-writer lock guarding a value of type T
// (spec §4.4).
type RwLock[T any] struct {
	ref store.Ref
	val T
}

// NewRwLock allocates a new rwlock guarding initial.
func NewRwLock[T any](initial T) *RwLock[T] {
	ex, _ := exec.Current()
	return &RwLock[T]{ref: exec.NewRwLock(ex), val: initial}
}

// RwLockReadGuard is held while a reader has access.
type RwLockReadGuard[T any] struct{ l *RwLock[T] }

// RwLockWriteGuard is held while the writer has access.
type RwLockWriteGuard[T any] struct{ l *RwLock[T] }

func (l *RwLock[T]) Read() *RwLockReadGuard[T] {
	exec.RwLockRead(l.ref)
	return &RwLockReadGuard[T]{l: l}
}

func (l *RwLock[T]) TryRead() (*RwLockReadGuard[T], bool) {
	if !exec.RwLockTryRead(l.ref) {
		return nil, false
	}
	return &RwLockReadGuard[T]{l: l}, true
}

func (l *RwLock[T]) Write() *RwLockWriteGuard[T] {
	exec.RwLockWrite(l.ref)
	return &RwLockWriteGuard[T]{l: l}
}

func (l *RwLock[T]) TryWrite() (*RwLockWriteGuard[T], bool) {
	if !exec.RwLockTryWrite(l.ref) {
		return nil, false
	}
	return &RwLockWriteGuard[T]{l: l}, true
}

func (g *RwLockReadGuard[T]) Get() T    { return g.l.val }
func (g *RwLockReadGuard[T]) Unlock()   { exec.RwLockUnlockRead(g.l.ref) }
func (g *RwLockWriteGuard[T]) Get() T   { return g.l.val }
func (g *RwLockWriteGuard[T]) Set(v T)  { g.l.val = v }
func (g *RwLockWriteGuard[T]) Unlock()  { exec.RwLockUnlockWrite(g.l.ref) }

// Condvar is a modeled condition variable, always used alongside a
// companion Mutex (spec §4.4).
type Condvar struct {
	ref store.Ref
}

// NewCondvar allocates a new condvar.
func NewCondvar() *Condvar {
	ex, _ := exec.Current()
	return &Condvar{ref: exec.NewCondvar(ex)}
}

// Wait releases m, blocks until notified, then re-acquires m before
// returning. Go methods can't carry their own type parameters, so
// this is a free function rather than a *Condvar method.
func Wait[T any](c *Condvar, m *Mutex[T]) {
	exec.CondvarWait(c.ref, m.ref)
}

// NotifyOne wakes the oldest waiter, if any.
func (c *Condvar) NotifyOne() { exec.CondvarNotifyOne(c.ref) }

// NotifyAll wakes every waiter.
func (c *Condvar) NotifyAll() { exec.CondvarNotifyAll(c.ref) }

// Notify is a single-slot wakeup primitive mirroring the host
// platform's Notify (spec §4.4): notify_one/notified, with a
// permitted spurious wakeup.
type Notify struct {
	ref store.Ref
}

// NewNotify allocates a new Notify.
func NewNotify() *Notify {
	ex, _ := exec.Current()
	return &Notify{ref: exec.NewNotify(ex)}
}

// Notified blocks until a matching Notify call (or a spurious
// wakeup).
func (n *Notify) Notified() { exec.NotifyWait(n.ref) }

// NotifyOne wakes a waiter if one is blocked, else leaves a permit.
func (n *Notify) NotifyOne() { exec.NotifySignal(n.ref) }

// Sender is the send half of a modeled unbounded MPSC channel (spec
// §4.4).
type Sender[T any] struct {
	ch *channel[T]
}

// Receiver is the receive half of a modeled unbounded MPSC channel.
type Receiver[T any] struct {
	ch *channel[T]
}

type channel[T any] struct {
	ref   store.Ref
	queue []T
}

// NewChannel allocates a new unbounded channel and returns its two
// halves.
func NewChannel[T any]() (Sender[T], Receiver[T]) {
	ex, _ := exec.Current()
	ch := &channel[T]{ref: exec.NewChannel(ex)}
	return Sender[T]{ch: ch}, Receiver[T]{ch: ch}
}

// Send enqueues v; always a branch point, never blocks (spec §4.4).
func (s Sender[T]) Send(v T) {
	s.ch.queue = append(s.ch.queue, v)
	exec.ChannelSend(s.ch.ref)
}

// Recv blocks until a message is available, then dequeues the oldest
// one sent.
func (r Receiver[T]) Recv() T {
	exec.ChannelRecv(r.ch.ref)
	v := r.ch.queue[0]
	r.ch.queue = r.ch.queue[1:]
	return v
}
