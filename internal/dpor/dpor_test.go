package dpor

import (
	"testing"

	"github.com/kolkov/interleave/internal/path"
	"github.com/kolkov/interleave/internal/store"
	"github.com/kolkov/interleave/internal/thread"
	"github.com/kolkov/interleave/internal/vv"
)

func TestCommitAccessBumpsOwnSlotAndJoinsDeps(t *testing.T) {
	active := &thread.Thread{ID: 1, DporVV: vv.New(3)}
	dep := vv.New(3)
	dep.Set(0, 4)

	access := CommitAccess(active, []store.Access{{PathID: 2, DporVV: dep, Valid: true}}, 2)

	if active.DporVV.Get(0) != 4 {
		t.Errorf("DporVV[0] = %d, want 4 (joined from dependency)", active.DporVV.Get(0))
	}
	if active.DporVV.Get(1) != 1 {
		t.Errorf("DporVV[1] = %d, want 1 (own slot bumped)", active.DporVV.Get(1))
	}
	if access.PathID != 2 || !access.Valid {
		t.Errorf("returned access = %+v, want PathID 2 and Valid true", access)
	}
}

func TestMarkBacktracksSkipsAlreadyOrderedAccess(t *testing.T) {
	s := store.New()
	ref := s.Alloc(store.KindAtomic, nil)
	obj := s.Get(ref)

	ordered := vv.New(2)
	ordered.Set(0, 1)
	obj.SetLastAccess(store.ActionStore, store.Access{PathID: 0, DporVV: ordered})

	p := path.New(0)
	p.BranchThread(-1, []path.Candidate{{TID: 0, Runnable: true}, {TID: 1, Runnable: true}})

	pending := &thread.Thread{ID: 1, DporVV: vv.New(2)}
	pending.DporVV.Set(0, 5) // already dominates the recorded store's DporVV
	pending.Operation = thread.Operation{Ref: ref, Action: store.ActionLoad, Valid: true}

	MarkBacktracks([]*thread.Thread{pending}, s, p, nil)

	// Thread 1 stays Skip at entry 0, so Step has no alternative to explore.
	if p.Step() {
		t.Fatal("Step() found an alternative, want none (an already-ordered access must not request a backtrack)")
	}
}

func TestMarkBacktracksRequestsExplorationOnRace(t *testing.T) {
	s := store.New()
	ref := s.Alloc(store.KindAtomic, nil)
	obj := s.Get(ref)

	racing := vv.New(2)
	racing.Set(1, 1) // not ordered relative to thread 1's DporVV below

	p := path.New(0)
	p.BranchThread(-1, []path.Candidate{{TID: 0, Runnable: true}, {TID: 1, Runnable: true}})
	obj.SetLastAccess(store.ActionStore, store.Access{PathID: p.LastIndex(), DporVV: racing})

	pending := &thread.Thread{ID: 1, DporVV: vv.New(2)}
	pending.Operation = thread.Operation{Ref: ref, Action: store.ActionLoad, Valid: true}

	MarkBacktracks([]*thread.Thread{pending}, s, p, nil)

	// A genuine race should mark thread 1 Pending at the racing entry,
	// giving Step an alternative to promote and explore next iteration.
	if !p.Step() {
		t.Fatal("Step() should find the backtrack-requested alternative")
	}
	tid, err := p.BranchThread(-1, []path.Candidate{{TID: 0, Runnable: true}, {TID: 1, Runnable: true}})
	if err != nil {
		t.Fatalf("replay after backtrack errored: %v", err)
	}
	if tid != 1 {
		t.Errorf("replay chose thread %d, want 1 (the backtrack-requested thread)", tid)
	}
}
