package store

import (
	"testing"

	"github.com/kolkov/interleave/internal/vv"
)

func TestAllocAndGet(t *testing.T) {
	s := New()
	ref := s.Alloc(KindMutex, "payload")
	if ref.Kind != KindMutex || ref.Index != 0 {
		t.Errorf("Alloc returned %+v, want Kind=KindMutex Index=0", ref)
	}
	obj := s.Get(ref)
	if obj.Data.(string) != "payload" {
		t.Errorf("Get().Data = %v, want %q", obj.Data, "payload")
	}
}

func TestAllocIsSequential(t *testing.T) {
	s := New()
	r1 := s.Alloc(KindAtomic, 1)
	r2 := s.Alloc(KindAtomic, 2)
	if r1.Index != 0 || r2.Index != 1 {
		t.Errorf("refs = %+v, %+v, want sequential indices", r1, r2)
	}
	if len(s.All()) != 2 {
		t.Errorf("All() has %d objects, want 2", len(s.All()))
	}
}

func TestClearInvalidatesRefs(t *testing.T) {
	s := New()
	s.Alloc(KindCell, nil)
	s.Clear()
	if len(s.All()) != 0 {
		t.Errorf("All() after Clear has %d objects, want 0", len(s.All()))
	}
}

func TestLastDependentAccesses(t *testing.T) {
	s := New()
	ref := s.Alloc(KindAtomic, nil)
	obj := s.Get(ref)

	// No prior store/RMW recorded yet: a load has no dependencies.
	if deps := obj.LastDependentAccesses(ActionLoad); len(deps) != 0 {
		t.Errorf("LastDependentAccesses(Load) = %v before any store, want empty", deps)
	}

	obj.SetLastAccess(ActionStore, Access{PathID: 3, DporVV: vv.New(2)})
	deps := obj.LastDependentAccesses(ActionLoad)
	if len(deps) != 1 || deps[0].PathID != 3 {
		t.Errorf("LastDependentAccesses(Load) = %v, want one access with PathID 3", deps)
	}
}

func TestSetLastAccessMarksValid(t *testing.T) {
	s := New()
	ref := s.Alloc(KindChannel, nil)
	obj := s.Get(ref)
	obj.SetLastAccess(ActionSend, Access{PathID: 1})
	deps := obj.LastDependentAccesses(ActionRecv)
	if len(deps) != 1 || !deps[0].Valid {
		t.Errorf("access recorded via SetLastAccess should be Valid, got %v", deps)
	}
}
