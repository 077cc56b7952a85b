package exec

import (
	"github.com/kolkov/interleave/internal/atomicmem"
	"github.com/kolkov/interleave/internal/causality"
	"github.com/kolkov/interleave/internal/store"
	"github.com/kolkov/interleave/internal/thread"
	"github.com/kolkov/interleave/internal/vv"
)

// NewAtomic allocates a new Atomic Cell holding initial and returns
// its store reference.
func NewAtomic(ex *Execution, initial any) store.Ref {
	return ex.Store.Alloc(store.KindAtomic, atomicmem.NewHistory(initial, ex.cfg.MaxThreads))
}

// AtomicLoad performs an atomic load with the given memory order.
func AtomicLoad[T any](ref store.Ref, order causality.Order) T {
	ex, tid := Current()
	t := ex.Threads.Get(tid)
	if err := ex.branch(tid, thread.Operation{Ref: ref, Action: store.ActionLoad, Valid: true}); err != nil {
		ex.handleBranchErr(err)
	}
	t.Causality.Inc(tid)

	h := ex.Store.Get(ref).Data.(*atomicmem.History)
	admissible, err := h.Admissible(t.Causality, t.LastYield, order)
	if err != nil {
		ex.panicf("%v", err)
	}
	idx, err := ex.Path.BranchLoad(admissible)
	if err != nil {
		ex.handleBranchErr(err)
		idx = admissible[0]
	}

	entry := h.At(idx)
	entry.Sync.SyncLoad(order, t.Causality)
	if order == causality.SeqCst {
		t.Causality.Join(ex.SeqCstVV)
		ex.SeqCstVV.Join(t.Causality)
	}
	h.Touch(idx, tid, t.Causality.Get(tid))

	var zero T
	if entry.Value == nil {
		return zero
	}
	return entry.Value.(T)
}

// AtomicStore performs an atomic store with the given memory order.
func AtomicStore[T any](ref store.Ref, val T, order causality.Order) {
	ex, tid := Current()
	t := ex.Threads.Get(tid)
	if err := ex.branch(tid, thread.Operation{Ref: ref, Action: store.ActionStore, Valid: true}); err != nil {
		ex.handleBranchErr(err)
	}
	t.Causality.Inc(tid)

	h := ex.Store.Get(ref).Data.(*atomicmem.History)
	entry := &atomicmem.StoreEntry{Value: val, SeqCst: order == causality.SeqCst, FirstSeen: vv.New(t.Causality.Len())}
	entry.Sync = causality.New(t.Causality.Len())
	entry.Sync.SyncStore(order, t.Causality)
	if order == causality.SeqCst {
		ex.SeqCstVV.Join(t.Causality)
		t.Causality.Join(ex.SeqCstVV)
	}
	h.Append(entry)
}

// AtomicRMW performs a read-modify-write: f receives the latest
// stored value and returns the proposed new value plus whether the
// operation succeeds (modeling compare-exchange's success/failure
// split). On success a new store is appended with successOrder
// semantics and the value immediately prior to the RMW is returned,
// matching the host platform's fetch_* / compare_exchange return
// convention; on failure only an acquire per failureOrder is applied.
func AtomicRMW[T any](ref store.Ref, f func(T) (T, bool), successOrder, failureOrder causality.Order) (T, bool) {
	ex, tid := Current()
	t := ex.Threads.Get(tid)
	if err := ex.branch(tid, thread.Operation{Ref: ref, Action: store.ActionRMW, Valid: true}); err != nil {
		ex.handleBranchErr(err)
	}
	t.Causality.Inc(tid)

	h := ex.Store.Get(ref).Data.(*atomicmem.History)
	latest := h.At(h.Latest())
	old, _ := latest.Value.(T)

	newVal, ok := f(old)
	if !ok {
		latest.Sync.SyncLoad(failureOrder, t.Causality)
		return old, false
	}

	latest.Sync.SyncLoad(causality.Acquire, t.Causality)
	entry := &atomicmem.StoreEntry{Value: newVal, SeqCst: successOrder == causality.SeqCst, FirstSeen: vv.New(t.Causality.Len())}
	entry.Sync = causality.New(t.Causality.Len())
	entry.Sync.SyncStore(successOrder, t.Causality)
	if successOrder == causality.SeqCst {
		ex.SeqCstVV.Join(t.Causality)
		t.Causality.Join(ex.SeqCstVV)
	}
	h.Append(entry)
	return old, true
}
