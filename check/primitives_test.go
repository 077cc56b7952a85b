package check_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/kolkov/interleave/check"
)

func TestChannelDeliversInOrder(t *testing.T) {
	check.Run(func() {
		tx, rx := check.NewChannel[int]()
		h := check.Spawn(func() {
			tx.Send(1)
			tx.Send(2)
		})
		first := rx.Recv()
		second := rx.Recv()
		assert.Equal(t, 1, first)
		assert.Equal(t, 2, second)
		h.Join()
	})
}

func TestRwLockAdmitsConcurrentReaders(t *testing.T) {
	check.Run(func() {
		l := check.NewRwLock(5)
		var handles [2]*check.JoinHandle
		for i := range handles {
			handles[i] = check.Spawn(func() {
				g := l.Read()
				assert.Equal(t, 5, g.Get())
				g.Unlock()
			})
		}
		for _, h := range handles {
			h.Join()
		}
	})
}

func TestNotifyWakesParkedThread(t *testing.T) {
	check.Run(func() {
		n := check.NewNotify()
		h := check.Spawn(func() {
			n.Notified()
		})
		n.NotifyOne()
		h.Join()
	})
}

func TestParkUnparkHandshake(t *testing.T) {
	check.Run(func() {
		h := check.Spawn(func() {
			check.Park()
		})
		check.Unpark(h.Thread())
		h.Join()
	})
}

func TestThreadLocalIsPerThread(t *testing.T) {
	check.Run(func() {
		key := check.ThreadLocal(func() int { return 0 })

		h := check.Spawn(func() {
			key.With(func(v *int) { *v = 99 })
		})
		h.Join()

		key.With(func(v *int) {
			assert.Equal(t, 0, *v, "each thread's slot is independent, unaffected by the other thread's write")
		})
	})
}

func TestAllocationDroppedBeforeIterationEndLeaksNothing(t *testing.T) {
	check.Run(func() {
		a := check.NewAllocation()
		a.Drop()
	})
}
