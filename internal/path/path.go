// Package path implements the non-deterministic decision log that
// drives depth-first replay across iterations of the model checker.
//
// Every branch point a primitive hits — choosing which thread runs
// next, which store an atomic load observes, whether a wait spuriously
// wakes — is recorded as one Entry. On the first visit to a given
// position the engine seeds the entry with every admissible choice;
// on later iterations it replays the choice recorded there, until
// Step advances the cursor to the next unexplored alternative.
package path

import (
	"errors"
	"fmt"
)

// Kind discriminates the three entry variants.
type Kind int

const (
	KindSchedule Kind = iota
	KindLoad
	KindSpurious
)

// ThreadTag is the per-thread state recorded in a Schedule entry.
type ThreadTag int

const (
	Disabled ThreadTag = iota // not runnable and not yielded
	Skip                      // runnable, enabled, not yet requested for exploration
	Yield                     // yielded this step; promotable to Active if nothing else runs
	Pending                   // enabled and requested for exploration by DPOR backtrack
	Active                    // the thread chosen to run at this entry
	Visited                   // previously chosen and already fully explored
)

// Schedule is a thread-selection branch point.
type Schedule struct {
	Threads     []ThreadTag
	Preemptions int
	Prev        int // index of the previous Schedule entry, or -1
}

// Load is an atomic-load branch point: which store index (into the
// atomic's store history) the load observed.
type Load struct {
	Values []int
	Cursor int
}

// Spurious is a Notify-wait branch point: whether the wait woke
// spuriously rather than via a real notification.
type Spurious struct {
	Value bool
}

// Entry is a tagged union over Schedule, Load and Spurious.
type Entry struct {
	Kind     Kind
	Schedule *Schedule
	Load     *Load
	Spurious *Spurious
}

var (
	// ErrNondeterministic is returned when, on replay, the branch kind
	// requested by a primitive does not match the kind recorded at the
	// current cursor position — the user program behaved differently
	// across two runs with the same recorded choices.
	ErrNondeterministic = errors.New("path: non-deterministic execution detected")
	// ErrDeadlock is returned by BranchThread when no thread is
	// runnable and not every thread has terminated.
	ErrDeadlock = errors.New("path: deadlock, no runnable thread")
	// ErrMaxBranches is returned once the entry count exceeds the
	// configured cap, guarding against spin loops that never block.
	ErrMaxBranches = errors.New("path: max branch count exceeded; increase the bound or remove a spin loop")
)

// Path holds the decision log and the replay cursor.
type Path struct {
	entries      []Entry
	pos          int
	maxBranches  int
	lastSchedule int // index of the most recently appended Schedule entry, or -1
}

// New returns an empty Path with the given branch-count cap.
func New(maxBranches int) *Path {
	return &Path{maxBranches: maxBranches, lastSchedule: -1}
}

// Pos is the current replay cursor.
func (p *Path) Pos() int { return p.pos }

// LastIndex is the entry index most recently consumed by a branch
// call (Pos()-1), used by the DPOR engine to tag an access with the
// path position that produced it.
func (p *Path) LastIndex() int { return p.pos - 1 }

// Len is the number of recorded entries.
func (p *Path) Len() int { return len(p.entries) }

// AtEnd reports whether the cursor has reached the end of the
// recorded entries — i.e. the next branch point will seed a fresh
// entry rather than replay one.
func (p *Path) AtEnd() bool { return p.pos >= len(p.entries) }

// Candidate describes one thread's liveness at a Schedule branch point.
type Candidate struct {
	TID      int
	Runnable bool // neither Blocked nor Terminated
	Yielded  bool // state == Yield
}

// BranchThread chooses the next thread to run. activeTID is the
// thread that was active immediately before this branch point, or -1
// if none (e.g. the very first branch of an iteration).
func (p *Path) BranchThread(activeTID int, candidates []Candidate) (int, error) {
	if p.pos < len(p.entries) {
		e := &p.entries[p.pos]
		if e.Kind != KindSchedule {
			return 0, fmt.Errorf("%w: expected Schedule at pos %d, have %v", ErrNondeterministic, p.pos, e.Kind)
		}
		p.pos++
		for tid, tag := range e.Schedule.Threads {
			if tag == Active {
				return tid, nil
			}
		}
		return 0, ErrDeadlock
	}

	tags := make([]ThreadTag, len(candidates))
	chosen := -1

	// Prefer keeping the previously active thread running if it still can.
	for _, c := range candidates {
		if c.TID == activeTID && c.Runnable {
			chosen = c.TID
			break
		}
	}
	if chosen < 0 {
		for _, c := range candidates {
			if c.Runnable && !c.Yielded {
				chosen = c.TID
				break
			}
		}
	}
	if chosen < 0 {
		for _, c := range candidates {
			if c.Yielded {
				chosen = c.TID
				break
			}
		}
	}

	for _, c := range candidates {
		switch {
		case c.TID == chosen:
			tags[c.TID] = Active
		case c.Yielded:
			tags[c.TID] = Yield
		case c.Runnable:
			tags[c.TID] = Skip
		default:
			tags[c.TID] = Disabled
		}
	}

	if chosen < 0 {
		return 0, ErrDeadlock
	}

	preemptions := 0
	prev := p.lastSchedule
	if prev >= 0 {
		prevSchedule := p.entries[prev].Schedule
		preemptions = prevSchedule.Preemptions
		if a := activeOf(prevSchedule); a >= 0 && a != chosen {
			preemptions++
		}
	}

	p.entries = append(p.entries, Entry{
		Kind:     KindSchedule,
		Schedule: &Schedule{Threads: tags, Preemptions: preemptions, Prev: prev},
	})
	p.lastSchedule = len(p.entries) - 1
	p.pos++

	if p.maxBranches > 0 && len(p.entries) > p.maxBranches {
		return 0, ErrMaxBranches
	}
	return chosen, nil
}

// BranchLoad records (or replays) which store index an atomic load
// observes. seed is the admissible set computed by the caller (see
// internal/atomicmem); the first element is the default choice on a
// fresh branch.
func (p *Path) BranchLoad(seed []int) (int, error) {
	if p.pos < len(p.entries) {
		e := &p.entries[p.pos]
		if e.Kind != KindLoad {
			return 0, fmt.Errorf("%w: expected Load at pos %d, have %v", ErrNondeterministic, p.pos, e.Kind)
		}
		p.pos++
		return e.Load.Values[e.Load.Cursor], nil
	}
	if len(seed) == 0 {
		return 0, fmt.Errorf("path: branch_load with empty admissible set")
	}
	p.entries = append(p.entries, Entry{Kind: KindLoad, Load: &Load{Values: seed, Cursor: 0}})
	p.pos++
	if p.maxBranches > 0 && len(p.entries) > p.maxBranches {
		return 0, ErrMaxBranches
	}
	return seed[0], nil
}

// BranchSpurious records (or replays) whether a Notify wait wakes
// spuriously. It is always seeded false on first visit.
func (p *Path) BranchSpurious() (bool, error) {
	if p.pos < len(p.entries) {
		e := &p.entries[p.pos]
		if e.Kind != KindSpurious {
			return false, fmt.Errorf("%w: expected Spurious at pos %d, have %v", ErrNondeterministic, p.pos, e.Kind)
		}
		p.pos++
		return e.Spurious.Value, nil
	}
	p.entries = append(p.entries, Entry{Kind: KindSpurious, Spurious: &Spurious{Value: false}})
	p.pos++
	if p.maxBranches > 0 && len(p.entries) > p.maxBranches {
		return false, ErrMaxBranches
	}
	return false, nil
}

// Backtrack marks threadID for exploration at the Schedule entry
// entryIndex (Skip -> Pending). If preemptionBound is non-nil, it
// additionally walks the Prev chain, conservatively marking the
// thread that was active across each preemption boundary, stopping
// once an entry's recorded preemption count reaches the bound.
func (p *Path) Backtrack(entryIndex, threadID int, preemptionBound *int) {
	if entryIndex < 0 || entryIndex >= len(p.entries) {
		return
	}
	s := p.entries[entryIndex].Schedule
	if s == nil {
		return
	}
	if threadID >= 0 && threadID < len(s.Threads) && s.Threads[threadID] == Skip {
		s.Threads[threadID] = Pending
	}
	if preemptionBound == nil {
		return
	}

	idx := entryIndex
	for idx >= 0 {
		cur := p.entries[idx].Schedule
		if cur.Preemptions >= *preemptionBound {
			return
		}
		prevIdx := cur.Prev
		if prevIdx < 0 {
			return
		}
		prev := p.entries[prevIdx].Schedule
		prevActive := activeOf(prev)
		curActive := activeOf(cur)
		if prevActive >= 0 && prevActive != curActive && curActive >= 0 && curActive < len(prev.Threads) {
			if prev.Threads[curActive] == Skip {
				prev.Threads[curActive] = Pending
			}
		}
		idx = prevIdx
	}
}

func activeOf(s *Schedule) int {
	for tid, tag := range s.Threads {
		if tag == Active {
			return tid
		}
	}
	return -1
}

// Step advances the path depth-first to the next unexplored
// alternative. It returns false once the entire tree is exhausted.
func (p *Path) Step() bool {
	for i := len(p.entries) - 1; i >= 0; i-- {
		e := &p.entries[i]
		switch e.Kind {
		case KindSchedule:
			s := e.Schedule
			for tid, tag := range s.Threads {
				if tag == Active {
					s.Threads[tid] = Visited
				}
			}
			promoted := -1
			for tid, tag := range s.Threads {
				if tag == Pending {
					promoted = tid
					break
				}
			}
			if promoted >= 0 {
				s.Threads[promoted] = Active
				p.truncateAfter(i)
				return true
			}
		case KindLoad:
			l := e.Load
			if l.Cursor+1 < len(l.Values) {
				l.Cursor++
				p.truncateAfter(i)
				return true
			}
		case KindSpurious:
			s := e.Spurious
			if !s.Value {
				s.Value = true
				p.truncateAfter(i)
				return true
			}
		}
	}
	p.entries = p.entries[:0]
	p.pos = 0
	p.lastSchedule = -1
	return false
}

func (p *Path) truncateAfter(i int) {
	p.entries = p.entries[:i+1]
	p.pos = 0
	p.lastSchedule = -1
	for j := i; j >= 0; j-- {
		if p.entries[j].Kind == KindSchedule {
			p.lastSchedule = j
			break
		}
	}
}

// RecentEvents returns a human-readable summary of the last n entries,
// for inclusion in panic/abort diagnostics.
func (p *Path) RecentEvents(n int) []string {
	start := len(p.entries) - n
	if start < 0 {
		start = 0
	}
	out := make([]string, 0, len(p.entries)-start)
	for i := start; i < len(p.entries); i++ {
		out = append(out, describeEntry(p.entries[i]))
	}
	return out
}

func describeEntry(e Entry) string {
	switch e.Kind {
	case KindSchedule:
		return fmt.Sprintf("schedule(active=%d)", activeOf(e.Schedule))
	case KindLoad:
		return fmt.Sprintf("load(store=%d)", e.Load.Values[e.Load.Cursor])
	case KindSpurious:
		return fmt.Sprintf("spurious(%v)", e.Spurious.Value)
	default:
		return "?"
	}
}
