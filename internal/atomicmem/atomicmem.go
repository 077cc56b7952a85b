// Package atomicmem implements the Atomic Cell's store history and
// the load-picker (spec §4.3, §4.3.1) — the algorithmic heart of the
// engine: given a loading thread's causality and the chosen memory
// order, compute the admissible set of store indices that thread is
// allowed to observe.
//
// Non-goal, carried forward from spec.md §1 and SPEC_FULL.md §9:
// load buffering (a thread observing its own later write before an
// earlier one completes) is not modeled. Every load picks from the
// committed, totally-ordered store history below; a thread never
// "sees around" its own program order.
package atomicmem

import (
	"fmt"

	"github.com/kolkov/interleave/internal/causality"
	"github.com/kolkov/interleave/internal/vv"
)

// MaxAdmissibleStores bounds the admissible set computed per load, a
// sanity cap against runaway store histories (spec §9).
const MaxAdmissibleStores = 256

// StoreEntry is one entry in an atomic's store history.
type StoreEntry struct {
	Value     any
	Sync      causality.Synchronize
	FirstSeen vv.VV
	SeqCst    bool
}

// History is the ordered, append-only sequence of stores for one
// atomic cell, starting with its initial value.
type History struct {
	stores []*StoreEntry
}

// NewHistory returns a history seeded with one initial store.
func NewHistory(initial any, n int) *History {
	return &History{stores: []*StoreEntry{{
		Value:     initial,
		Sync:      causality.New(n),
		FirstSeen: vv.New(n),
	}}}
}

// Len is the number of recorded stores.
func (h *History) Len() int { return len(h.stores) }

// Latest is the index of the most recent store.
func (h *History) Latest() int { return len(h.stores) - 1 }

// At returns the store entry at idx.
func (h *History) At(idx int) *StoreEntry { return h.stores[idx] }

// Append records a new store and returns its index.
func (h *History) Append(e *StoreEntry) int {
	h.stores = append(h.stores, e)
	return len(h.stores) - 1
}

// Admissible computes the load-picker's admissible set of store
// indices for a thread with the given causality and order, bounding
// the backward scan once a store already happens-before lastYield.
// The result is ordered most-recent-first so index 0 is the natural
// seed default.
func (h *History) Admissible(active, lastYield vv.VV, order causality.Order) ([]int, error) {
	n := len(h.stores)
	if n == 0 {
		return nil, fmt.Errorf("atomicmem: empty history")
	}
	latest := n - 1
	admissible := []int{latest}
	seen := map[int]bool{latest: true}

	latestSeqCst := -1
	if order == causality.SeqCst {
		for i := latest; i >= 0; i-- {
			if h.stores[i].SeqCst {
				latestSeqCst = i
				break
			}
		}
	}

	for i := latest - 1; i >= 0; i-- {
		s := h.stores[i]
		include := intersects(s.FirstSeen, active)
		if order == causality.SeqCst && latestSeqCst >= 0 && i <= latestSeqCst && s.SeqCst {
			include = true
		}
		if include && !seen[i] {
			admissible = append(admissible, i)
			seen[i] = true
		}
		if s.Sync.HappensBefore.LessOrEqual(lastYield) {
			break
		}
	}

	if len(admissible) > MaxAdmissibleStores {
		return nil, fmt.Errorf("atomicmem: admissible set exceeds %d stores", MaxAdmissibleStores)
	}
	return admissible, nil
}

// Touch records that tid has now observed the store at idx, the
// "first seen" update rule 5 of §4.3.1. No-op if already recorded.
func (h *History) Touch(idx, tid int, clock uint32) {
	fs := h.stores[idx].FirstSeen
	if fs.Get(tid) == 0 {
		fs.Set(tid, clock)
	}
}

func intersects(firstSeen, active vv.VV) bool {
	n := firstSeen.Len()
	if active.Len() < n {
		n = active.Len()
	}
	for i := 0; i < n; i++ {
		fs := firstSeen.Get(i)
		if fs > 0 && fs <= active.Get(i) {
			return true
		}
	}
	return false
}
