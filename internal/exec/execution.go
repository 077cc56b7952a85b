// Package exec ties the Path, Object Store, Thread Set and DPOR
// engine together into the Execution loop (spec §4.7): run the user
// closure once, check for leaks, and step the path to the next
// unexplored alternative until the tree is exhausted or a bound is
// hit.
//
// The scheduler is goroutine-token-passing (SPEC_FULL.md §9): one
// goroutine per user thread, with exactly one holding the turn at a
// time via internal/thread's mutex+condvar. Every primitive entry
// point funnels through branch/branchAcquire below, which mirrors the
// branch-then-block-then-resume template spec §4.4 describes.
package exec

import (
	"errors"
	"fmt"
	"sync/atomic"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/kolkov/interleave/internal/causality"
	"github.com/kolkov/interleave/internal/diag"
	"github.com/kolkov/interleave/internal/dpor"
	"github.com/kolkov/interleave/internal/path"
	"github.com/kolkov/interleave/internal/store"
	"github.com/kolkov/interleave/internal/thread"
	"github.com/kolkov/interleave/internal/vv"
)

// Config configures one model-check run (the non-collaborator subset
// of spec §6's Builder fields; env-var parsing lives in the check
// package, a named collaborator).
type Config struct {
	MaxThreads         int
	MaxBranches        int
	MaxPermutations    int
	MaxDuration        time.Duration
	PreemptionBound    *int
	Location           bool
	Log                bool
	CheckpointInterval int
}

// DefaultConfig matches the original implementation's defaults.
func DefaultConfig() Config {
	return Config{
		MaxThreads:      4,
		MaxBranches:     1000,
		MaxPermutations: 0, // 0 == unbounded
	}
}

// Execution owns the Thread Set, Object Store, Path, SeqCst causality
// and lazy-static table for exactly one iteration at a time; it is
// reused (reset) across iterations.
type Execution struct {
	cfg Config
	log diag.Logger

	Threads  *thread.Set
	Store    *store.Store
	Path     *path.Path
	SeqCstVV vv.VV
	fence    causality.Synchronize

	lazy map[any]any

	iteration    int
	inconsistent bool
	failure      any

	wg *errgroup.Group
}

// recordFailure remembers the first panic raised by any user thread
// this iteration, so Run can re-raise it after every thread has
// unwound. Run still runs the leak check for that iteration and logs
// a leak it finds before the panic is rethrown.
func (ex *Execution) recordFailure(r any) {
	if ex.failure == nil {
		ex.failure = r
	}
}

var curPtr atomic.Pointer[current]

type current struct {
	ex  *Execution
	tid int
}

// SetCurrent installs the goroutine-local-equivalent active
// execution/thread pointer. Called by the scheduler immediately
// before handing a goroutine its turn.
func SetCurrent(ex *Execution, tid int) { curPtr.Store(&current{ex: ex, tid: tid}) }

// Current returns the active Execution and thread id. Panics if
// called outside a running iteration — spec §9's "asserted non-null
// on every primitive entry point".
func Current() (*Execution, int) {
	c := curPtr.Load()
	if c == nil {
		panic("exec: no active execution — primitive called outside a running iteration")
	}
	return c.ex, c.tid
}

// New returns a freshly-seeded Execution.
func New(cfg Config, log diag.Logger) *Execution {
	ex := &Execution{cfg: cfg, log: log}
	ex.reset()
	return ex
}

func (ex *Execution) reset() {
	ex.Threads = thread.NewSet(ex.cfg.MaxThreads)
	ex.Store = store.New()
	ex.Path = path.New(ex.cfg.MaxBranches)
	ex.SeqCstVV = vv.New(ex.cfg.MaxThreads)
	ex.fence = causality.New(ex.cfg.MaxThreads)
	ex.lazy = make(map[any]any)
	ex.inconsistent = false
}

// Config returns the Execution's configuration.
func (ex *Execution) Config() Config { return ex.cfg }

// Lazy returns the value registered under key, initializing it with
// init on first use this iteration. Mirrors the host platform's
// lazy_static!/OnceLock table, cleared every iteration along with
// everything else (spec §3 ownership list).
func (ex *Execution) Lazy(key any, init func() any) any {
	if v, ok := ex.lazy[key]; ok {
		return v
	}
	v := init()
	ex.lazy[key] = v
	return v
}

func (ex *Execution) panicf(format string, args ...any) {
	msg := fmt.Sprintf(format, args...)
	msg += fmt.Sprintf(" (iteration %d)", ex.iteration)
	if ex.cfg.Log {
		ex.log.Abort(msg, ex.Path.RecentEvents(40))
	}
	panic(msg)
}

func (ex *Execution) handleBranchErr(err error) {
	switch {
	case errors.Is(err, path.ErrDeadlock):
		ex.panicf("deadlock")
	case errors.Is(err, path.ErrMaxBranches):
		ex.panicf("max branch count exceeded; increase the bound or remove a spin loop")
	case errors.Is(err, path.ErrNondeterministic):
		ex.inconsistent = true
		if ex.cfg.Log {
			ex.log.Abort(err.Error(), ex.Path.RecentEvents(40))
		}
		// Let the current execution run to completion without further
		// branching, to avoid panic-while-panicking during destructors
		// (spec §4.1, §7 category 5).
	default:
		ex.panicf("%v", err)
	}
}

func buildCandidates(threads []*thread.Thread) []path.Candidate {
	out := make([]path.Candidate, len(threads))
	for i, t := range threads {
		out[i] = path.Candidate{
			TID:      t.ID,
			Runnable: t.State != thread.Blocked && t.State != thread.Terminated,
			Yielded:  t.State == thread.Yield,
		}
	}
	return out
}

// schedule is schedule() from spec §4.2: mark DPOR backtracks, choose
// the next thread, commit its pending access, and promote yields.
func (ex *Execution) schedule(tid int) (int, error) {
	if ex.inconsistent {
		// Run to completion without further branching once flagged.
		return tid, nil
	}

	all := ex.Threads.All()

	allDone := true
	for _, t := range all {
		if t.State != thread.Terminated {
			allDone = false
			break
		}
	}
	if allDone {
		return tid, nil
	}

	dpor.MarkBacktracks(all, ex.Store, ex.Path, ex.cfg.PreemptionBound)

	next, err := ex.Path.BranchThread(tid, buildCandidates(all))
	if err != nil {
		return 0, err
	}

	chosen := ex.Threads.Get(next)
	if chosen.Operation.Valid {
		obj := ex.Store.Get(chosen.Operation.Ref)
		deps := obj.LastDependentAccesses(chosen.Operation.Action)
		access := dpor.CommitAccess(chosen, deps, ex.Path.LastIndex())
		obj.SetLastAccess(chosen.Operation.Action, access)
		chosen.Operation.Valid = false
	}

	ex.Threads.PromoteYields()
	SetCurrent(ex, next)
	ex.Threads.SetActive(next)
	return next, nil
}

// branch is the common entry point for every suspension point spec
// §5 lists. op.Valid == false for branches with no backing object
// (park, unpark, yield, thread_done).
func (ex *Execution) branch(tid int, op thread.Operation) error {
	t := ex.Threads.Get(tid)
	if t.Critical {
		ex.panicf("branch attempted within a critical region")
	}
	t.Operation = op
	next, err := ex.schedule(tid)
	if err != nil {
		return err
	}
	// A terminated thread never gets the turn back; its goroutine just
	// returns.
	if next != tid && t.State != thread.Terminated {
		ex.Threads.AwaitTurn(tid)
	}
	return nil
}

// branchAcquire is branch() preceded by setting Blocked when the
// resource isn't currently available, per spec §4.4's shared template.
func (ex *Execution) branchAcquire(tid int, ref store.Ref, action store.Action, available bool) error {
	t := ex.Threads.Get(tid)
	if !available {
		t.State = thread.Blocked
	}
	return ex.branch(tid, thread.Operation{Ref: ref, Action: action, Valid: true})
}

// wakeBlockedOn promotes every thread blocked with a pending
// operation on ref back to Runnable — "wakes exactly the threads
// whose pending op is on this [object]" (spec §4.4).
func (ex *Execution) wakeBlockedOn(ref store.Ref) {
	for _, t := range ex.Threads.All() {
		if t.State == thread.Blocked && t.Operation.Valid && t.Operation.Ref == ref {
			t.State = thread.Runnable
		}
	}
}

// EnterCritical/ExitCritical bracket a region in which branching
// panics (spec §4.2's critical regions, used by cell-check paths that
// must not yield).
func (ex *Execution) EnterCritical(tid int) { ex.Threads.Get(tid).Critical = true }
func (ex *Execution) ExitCritical(tid int)  { ex.Threads.Get(tid).Critical = false }

// Fence applies a standalone memory fence against the Execution-wide
// fence packet (SPEC_FULL.md §12's supplemented fence(order)).
func Fence(order causality.Order) {
	ex, tid := Current()
	t := ex.Threads.Get(tid)
	causality.Fence(order, &ex.fence, t.Causality)
}

// ThreadOf returns the Thread record for tid.
func (ex *Execution) ThreadOf(tid int) *thread.Thread { return ex.Threads.Get(tid) }

// Iteration returns the current iteration index.
func (ex *Execution) Iteration() int { return ex.iteration }
