package causality

import (
	"testing"

	"github.com/kolkov/interleave/internal/vv"
)

func TestSyncStoreReleaseFoldsCausality(t *testing.T) {
	s := New(2)
	active := vv.New(2)
	active.Set(0, 5)
	s.SyncStore(Release, active)
	if s.HappensBefore.Get(0) != 5 {
		t.Errorf("Release store should fold active causality, got %d want 5", s.HappensBefore.Get(0))
	}
}

func TestSyncStoreRelaxedDoesNothing(t *testing.T) {
	s := New(2)
	active := vv.New(2)
	active.Set(0, 5)
	s.SyncStore(Relaxed, active)
	if s.HappensBefore.Get(0) != 0 {
		t.Errorf("Relaxed store should not fold causality, got %d want 0", s.HappensBefore.Get(0))
	}
}

func TestSyncLoadAcquireFoldsPacket(t *testing.T) {
	s := New(2)
	s.HappensBefore.Set(1, 7)
	active := vv.New(2)
	s.SyncLoad(Acquire, active)
	if active.Get(1) != 7 {
		t.Errorf("Acquire load should fold packet, got %d want 7", active.Get(1))
	}
}

func TestSyncLoadRelaxedDoesNothing(t *testing.T) {
	s := New(2)
	s.HappensBefore.Set(1, 7)
	active := vv.New(2)
	s.SyncLoad(Relaxed, active)
	if active.Get(1) != 0 {
		t.Errorf("Relaxed load should not fold packet, got %d want 0", active.Get(1))
	}
}

func TestReleaseAcquirePairTransfersCausality(t *testing.T) {
	packet := New(2)
	writer := vv.New(2)
	writer.Set(0, 3)
	packet.SyncStore(Release, writer)

	reader := vv.New(2)
	packet.SyncLoad(Acquire, reader)
	if !writer.LessOrEqual(reader) {
		t.Error("writer's causality should happen-before reader's after release/acquire")
	}
}

func TestFenceActsAsStoreThenLoad(t *testing.T) {
	packet := New(2)
	a := vv.New(2)
	a.Set(0, 1)
	Fence(Release, &packet, a)

	b := vv.New(2)
	Fence(Acquire, &packet, b)
	if b.Get(0) != 1 {
		t.Errorf("Acquire fence should observe prior Release fence, got %d want 1", b.Get(0))
	}
}

func TestOrderPredicates(t *testing.T) {
	cases := []struct {
		o          Order
		hasAcquire bool
		hasRelease bool
	}{
		{Relaxed, false, false},
		{Acquire, true, false},
		{Release, false, true},
		{AcqRel, true, true},
		{SeqCst, true, true},
	}
	for _, c := range cases {
		if got := c.o.HasAcquire(); got != c.hasAcquire {
			t.Errorf("%v.HasAcquire() = %v, want %v", c.o, got, c.hasAcquire)
		}
		if got := c.o.HasRelease(); got != c.hasRelease {
			t.Errorf("%v.HasRelease() = %v, want %v", c.o, got, c.hasRelease)
		}
	}
}
