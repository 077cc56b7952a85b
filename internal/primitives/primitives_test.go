package primitives

import (
	"testing"

	"github.com/kolkov/interleave/internal/vv"
)

func TestMutexAcquireReleaseCarriesCausality(t *testing.T) {
	m := NewMutex(2)
	if m.IsLocked() {
		t.Error("new mutex should be unlocked")
	}

	owner := vv.New(2)
	owner.Set(0, 1)
	m.Acquire(0, owner)
	if !m.IsLocked() {
		t.Error("mutex should be locked after Acquire")
	}
	m.Release(owner)
	if m.IsLocked() {
		t.Error("mutex should be unlocked after Release")
	}

	waiter := vv.New(2)
	m.Acquire(1, waiter)
	if waiter.Get(0) != 1 {
		t.Errorf("waiter's causality after Acquire = %d at slot 0, want 1 (from the releasing thread)", waiter.Get(0))
	}
}

func TestRwLockReadersCanShareWriterCannot(t *testing.T) {
	r := NewRwLock(3)
	if !r.CanRead() || !r.CanWrite() {
		t.Fatal("unheld rwlock should permit both read and write")
	}
	r.AcquireRead(0, vv.New(3))
	if !r.CanRead() {
		t.Error("a second reader should be admitted while read-held")
	}
	if r.CanWrite() {
		t.Error("a writer should not be admitted while read-held")
	}
	r.AcquireRead(1, vv.New(3))
	r.ReleaseRead(0, vv.New(3))
	if r.Mode != ReadHeld {
		t.Errorf("Mode = %v, want ReadHeld while reader 1 still holds", r.Mode)
	}
	r.ReleaseRead(1, vv.New(3))
	if r.Mode != Unheld {
		t.Errorf("Mode = %v, want Unheld once every reader releases", r.Mode)
	}
}

func TestRwLockWriteExcludesReaders(t *testing.T) {
	r := NewRwLock(2)
	r.AcquireWrite(0, vv.New(2))
	if r.CanRead() || r.CanWrite() {
		t.Error("write-held rwlock should admit neither readers nor writers")
	}
	r.ReleaseWrite(vv.New(2))
	if !r.CanRead() || !r.CanWrite() {
		t.Error("rwlock should be unheld after ReleaseWrite")
	}
}

func TestCondvarFIFOWaiterOrder(t *testing.T) {
	c := NewCondvar()
	c.Enqueue(1)
	c.Enqueue(2)
	if got := c.NotifyOne(); got != 1 {
		t.Errorf("NotifyOne() = %d, want 1 (oldest waiter)", got)
	}
	if got := c.NotifyOne(); got != 2 {
		t.Errorf("second NotifyOne() = %d, want 2", got)
	}
	if got := c.NotifyOne(); got != -1 {
		t.Errorf("NotifyOne() on an empty queue = %d, want -1", got)
	}
}

func TestCondvarNotifyAllDrains(t *testing.T) {
	c := NewCondvar()
	c.Enqueue(1)
	c.Enqueue(2)
	woken := c.NotifyAll()
	if len(woken) != 2 {
		t.Fatalf("NotifyAll() returned %v, want 2 waiters", woken)
	}
	if got := c.NotifyOne(); got != -1 {
		t.Errorf("queue should be empty after NotifyAll, NotifyOne() = %d", got)
	}
}

func TestNotifyReleaseAcquire(t *testing.T) {
	n := NewNotify(2)
	signaler := vv.New(2)
	signaler.Set(0, 2)
	n.Notify(signaler)
	if !n.Notified {
		t.Error("Notified should be true after Notify")
	}

	waiter := vv.New(2)
	n.Consume(waiter)
	if n.Notified {
		t.Error("Notified should be false after Consume")
	}
	if waiter.Get(0) != 2 {
		t.Errorf("waiter's causality after Consume = %d at slot 0, want 2", waiter.Get(0))
	}
}

func TestChannelSendRecvOrderingAndEmptyCheck(t *testing.T) {
	c := NewChannel(2)
	if !c.IsEmpty() {
		t.Error("new channel should be empty")
	}
	sender := vv.New(2)
	sender.Set(0, 1)
	c.Send(sender)
	if c.IsEmpty() || !c.CanRecv() {
		t.Error("channel should have a pending message after Send")
	}

	receiver := vv.New(2)
	c.Recv(receiver)
	if receiver.Get(0) != 1 {
		t.Errorf("receiver's causality after Recv = %d at slot 0, want 1", receiver.Get(0))
	}
	if !c.IsEmpty() {
		t.Error("channel should be empty after draining the only message")
	}
}

func TestChannelRecvOnEmptyPanics(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Error("Recv on an empty channel should panic")
		}
	}()
	c := NewChannel(1)
	c.Recv(vv.New(1))
}
