package exec

import (
	"github.com/kolkov/interleave/internal/primitives"
	"github.com/kolkov/interleave/internal/store"
	"github.com/kolkov/interleave/internal/thread"
)

// NewMutex allocates a new mutex and returns its reference.
func NewMutex(ex *Execution) store.Ref {
	return ex.Store.Alloc(store.KindMutex, primitives.NewMutex(ex.cfg.MaxThreads))
}

// MutexLock blocks until ref's mutex is free, then acquires it.
func MutexLock(ref store.Ref) {
	ex, tid := Current()
	t := ex.Threads.Get(tid)
	m := ex.Store.Get(ref).Data.(*primitives.MutexState)
	for {
		avail := !m.IsLocked()
		if err := ex.branchAcquire(tid, ref, store.ActionOpaque, avail); err != nil {
			ex.handleBranchErr(err)
			return
		}
		if !m.IsLocked() {
			m.Acquire(tid, t.Causality)
			return
		}
	}
}

// MutexTryLock attempts to acquire ref's mutex without blocking.
func MutexTryLock(ref store.Ref) bool {
	ex, tid := Current()
	t := ex.Threads.Get(tid)
	m := ex.Store.Get(ref).Data.(*primitives.MutexState)
	if err := ex.branchAcquire(tid, ref, store.ActionOpaque, true); err != nil {
		ex.handleBranchErr(err)
		return false
	}
	if m.IsLocked() {
		return false
	}
	m.Acquire(tid, t.Causality)
	return true
}

// MutexUnlock releases ref's mutex and wakes any blocked waiters.
func MutexUnlock(ref store.Ref) {
	ex, tid := Current()
	t := ex.Threads.Get(tid)
	m := ex.Store.Get(ref).Data.(*primitives.MutexState)
	if err := ex.branchAcquire(tid, ref, store.ActionOpaque, true); err != nil {
		ex.handleBranchErr(err)
	}
	m.Release(t.Causality)
	ex.wakeBlockedOn(ref)
}

// NewRwLock allocates a new rwlock and returns its reference.
func NewRwLock(ex *Execution) store.Ref {
	return ex.Store.Alloc(store.KindRwLock, primitives.NewRwLock(ex.cfg.MaxThreads))
}

func RwLockRead(ref store.Ref) {
	ex, tid := Current()
	t := ex.Threads.Get(tid)
	r := ex.Store.Get(ref).Data.(*primitives.RwLockState)
	for {
		avail := r.CanRead()
		if err := ex.branchAcquire(tid, ref, store.ActionOpaque, avail); err != nil {
			ex.handleBranchErr(err)
			return
		}
		if r.CanRead() {
			r.AcquireRead(tid, t.Causality)
			return
		}
	}
}

func RwLockTryRead(ref store.Ref) bool {
	ex, tid := Current()
	t := ex.Threads.Get(tid)
	r := ex.Store.Get(ref).Data.(*primitives.RwLockState)
	if err := ex.branchAcquire(tid, ref, store.ActionOpaque, true); err != nil {
		ex.handleBranchErr(err)
		return false
	}
	if !r.CanRead() {
		return false
	}
	r.AcquireRead(tid, t.Causality)
	return true
}

func RwLockUnlockRead(ref store.Ref) {
	ex, tid := Current()
	t := ex.Threads.Get(tid)
	r := ex.Store.Get(ref).Data.(*primitives.RwLockState)
	if err := ex.branchAcquire(tid, ref, store.ActionOpaque, true); err != nil {
		ex.handleBranchErr(err)
	}
	r.ReleaseRead(tid, t.Causality)
	ex.wakeBlockedOn(ref)
}

func RwLockWrite(ref store.Ref) {
	ex, tid := Current()
	t := ex.Threads.Get(tid)
	r := ex.Store.Get(ref).Data.(*primitives.RwLockState)
	for {
		avail := r.CanWrite()
		if err := ex.branchAcquire(tid, ref, store.ActionOpaque, avail); err != nil {
			ex.handleBranchErr(err)
			return
		}
		if r.CanWrite() {
			r.AcquireWrite(tid, t.Causality)
			return
		}
	}
}

func RwLockTryWrite(ref store.Ref) bool {
	ex, tid := Current()
	t := ex.Threads.Get(tid)
	r := ex.Store.Get(ref).Data.(*primitives.RwLockState)
	if err := ex.branchAcquire(tid, ref, store.ActionOpaque, true); err != nil {
		ex.handleBranchErr(err)
		return false
	}
	if !r.CanWrite() {
		return false
	}
	r.AcquireWrite(tid, t.Causality)
	return true
}

func RwLockUnlockWrite(ref store.Ref) {
	ex, tid := Current()
	t := ex.Threads.Get(tid)
	r := ex.Store.Get(ref).Data.(*primitives.RwLockState)
	if err := ex.branchAcquire(tid, ref, store.ActionOpaque, true); err != nil {
		ex.handleBranchErr(err)
	}
	r.ReleaseWrite(t.Causality)
	ex.wakeBlockedOn(ref)
}

// NewCondvar allocates a new condvar and returns its reference. It
// needs a companion mutex ref only at Wait time, per the host API.
func NewCondvar(ex *Execution) store.Ref {
	return ex.Store.Alloc(store.KindCondvar, primitives.NewCondvar())
}

// CondvarWait releases mutexRef, waits to be notified on condRef,
// then re-acquires mutexRef before returning.
func CondvarWait(condRef, mutexRef store.Ref) {
	ex, tid := Current()
	c := ex.Store.Get(condRef).Data.(*primitives.CondvarState)

	c.Enqueue(tid)
	MutexUnlock(mutexRef)

	t := ex.Threads.Get(tid)
	for _, w := range c.Waiters {
		if w == tid {
			t.State = thread.Blocked // not yet notified
		}
	}
	if err := ex.branch(tid, thread.Operation{Ref: condRef, Action: store.ActionOpaque, Valid: true}); err != nil {
		ex.handleBranchErr(err)
		return
	}

	MutexLock(mutexRef)
}

// CondvarNotifyOne wakes the oldest waiter, if any.
func CondvarNotifyOne(condRef store.Ref) {
	ex, tid := Current()
	c := ex.Store.Get(condRef).Data.(*primitives.CondvarState)
	if err := ex.branchAcquire(tid, condRef, store.ActionOpaque, true); err != nil {
		ex.handleBranchErr(err)
	}
	if w := c.NotifyOne(); w >= 0 {
		ex.Threads.Get(w).State = thread.Runnable
	}
}

// CondvarNotifyAll wakes every waiter.
func CondvarNotifyAll(condRef store.Ref) {
	ex, tid := Current()
	c := ex.Store.Get(condRef).Data.(*primitives.CondvarState)
	if err := ex.branchAcquire(tid, condRef, store.ActionOpaque, true); err != nil {
		ex.handleBranchErr(err)
	}
	for _, w := range c.NotifyAll() {
		ex.Threads.Get(w).State = thread.Runnable
	}
}

// NewNotify allocates a new Notify and returns its reference.
func NewNotify(ex *Execution) store.Ref {
	return ex.Store.Alloc(store.KindNotify, primitives.NewNotify(ex.cfg.MaxThreads))
}

// NotifyWait blocks until notified, admitting a spurious-wakeup
// branch per spec §4.4.
func NotifyWait(ref store.Ref) {
	ex, tid := Current()
	t := ex.Threads.Get(tid)
	n := ex.Store.Get(ref).Data.(*primitives.NotifyState)

	if err := ex.branchAcquire(tid, ref, store.ActionOpaque, true); err != nil {
		ex.handleBranchErr(err)
		return
	}

	if !n.DidSpur {
		spurious, err := ex.Path.BranchSpurious()
		if err != nil {
			ex.handleBranchErr(err)
			return
		}
		if spurious {
			n.DidSpur = true
			return
		}
	}

	if n.Notified {
		n.Consume(t.Causality)
		return
	}

	t.State = thread.Blocked
	if err := ex.branch(tid, thread.Operation{Ref: ref, Action: store.ActionOpaque, Valid: true}); err != nil {
		ex.handleBranchErr(err)
		return
	}
	n.Consume(t.Causality)
}

// NotifySignal notifies ref's Notify, waking a blocked waiter if any.
func NotifySignal(ref store.Ref) {
	ex, tid := Current()
	t := ex.Threads.Get(tid)
	n := ex.Store.Get(ref).Data.(*primitives.NotifyState)
	if err := ex.branchAcquire(tid, ref, store.ActionOpaque, true); err != nil {
		ex.handleBranchErr(err)
	}
	n.Notify(t.Causality)
	ex.wakeBlockedOn(ref)
}

// NewChannel allocates a new MPSC channel and returns its reference.
func NewChannel(ex *Execution) store.Ref {
	return ex.Store.Alloc(store.KindChannel, primitives.NewChannel(ex.cfg.MaxThreads))
}

// ChannelSend sends one message, always a branch but never blocking.
func ChannelSend(ref store.Ref) {
	ex, tid := Current()
	t := ex.Threads.Get(tid)
	c := ex.Store.Get(ref).Data.(*primitives.ChannelState)
	if err := ex.branchAcquire(tid, ref, store.ActionSend, true); err != nil {
		ex.handleBranchErr(err)
	}
	c.Send(t.Causality)
	ex.wakeBlockedOn(ref)
}

// ChannelRecv blocks until a message is available, then consumes one.
func ChannelRecv(ref store.Ref) {
	ex, tid := Current()
	t := ex.Threads.Get(tid)
	c := ex.Store.Get(ref).Data.(*primitives.ChannelState)
	for {
		avail := c.CanRecv()
		if err := ex.branchAcquire(tid, ref, store.ActionRecv, avail); err != nil {
			ex.handleBranchErr(err)
			return
		}
		if c.CanRecv() {
			c.Recv(t.Causality)
			return
		}
	}
}

// ChannelIsEmpty reports whether ref's channel has no pending
// messages, used by the leak check at the end of an iteration.
func ChannelIsEmpty(ex *Execution, ref store.Ref) bool {
	return ex.Store.Get(ref).Data.(*primitives.ChannelState).IsEmpty()
}
