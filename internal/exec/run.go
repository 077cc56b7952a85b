package exec

import (
	"fmt"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/kolkov/interleave/internal/alloc"
	"github.com/kolkov/interleave/internal/causality"
	"github.com/kolkov/interleave/internal/primitives"
	"github.com/kolkov/interleave/internal/store"
	"github.com/kolkov/interleave/internal/thread"
	"github.com/kolkov/interleave/internal/vv"
)

// Run iterates the Execution loop (spec §4.7): run f on a fresh root
// thread, check for leaks, then step the path to the next unexplored
// alternative until the tree is exhausted or a configured bound stops
// exploration.
func (ex *Execution) Run(f func()) {
	start := time.Now()
	for {
		ex.iteration++
		if ex.cfg.Log {
			ex.log.Iteration(ex.iteration, ex.Path.Len())
		}

		ex.runOnce(f)

		if ex.failure != nil {
			if err := ex.checkLeaks(); err != nil && ex.cfg.Log {
				ex.log.Abort(err.Error(), ex.Path.RecentEvents(40))
			}
			panic(ex.failure)
		}
		if ex.inconsistent {
			ex.panicf("nondeterministic execution detected; aborting run")
		}
		if err := ex.checkLeaks(); err != nil {
			ex.panicf("%v", err)
		}

		if ex.cfg.MaxPermutations > 0 && ex.iteration >= ex.cfg.MaxPermutations {
			ex.log.Bound("max_permutations", ex.iteration)
			return
		}
		if ex.cfg.MaxDuration > 0 && time.Since(start) >= ex.cfg.MaxDuration {
			ex.log.Bound("max_duration", ex.iteration)
			return
		}

		if !ex.Path.Step() {
			ex.log.Exhausted(ex.iteration)
			return
		}
		ex.resetForNextIteration()
	}
}

func (ex *Execution) runOnce(f func()) {
	g := new(errgroup.Group)
	ex.wg = g
	g.Go(func() error {
		SetCurrent(ex, 0)
		ex.Threads.AwaitTurn(0)
		runGuarded(ex, f)
		ThreadDone()
		return nil
	})
	ex.Threads.SetActive(0)
	_ = g.Wait()
}

func (ex *Execution) resetForNextIteration() {
	ex.Threads = thread.NewSet(ex.cfg.MaxThreads)
	ex.Store = store.New()
	ex.SeqCstVV = vv.New(ex.cfg.MaxThreads)
	ex.fence = causality.New(ex.cfg.MaxThreads)
	ex.lazy = make(map[any]any)
	ex.failure = nil
}

func (ex *Execution) checkLeaks() error {
	for _, obj := range ex.Store.All() {
		switch d := obj.Data.(type) {
		case *alloc.State:
			if err := d.CheckLeak(); err != nil {
				return err
			}
		case *alloc.ArcState:
			if err := d.CheckLeak(); err != nil {
				return err
			}
		case *primitives.ChannelState:
			if !d.IsEmpty() {
				return fmt.Errorf("leak: channel still has pending, unreceived message(s)")
			}
		}
	}
	return nil
}
