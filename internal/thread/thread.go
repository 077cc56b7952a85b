// Package thread implements the Thread Set and the cooperative
// scheduler that sequentializes user threads: exactly one goroutine
// runs user code at a time, handed an exclusive "turn" by a condition
// variable the scheduler broadcasts on. This is the goroutine-
// token-passing rendering of the host-thread scheduling strategy (see
// SPEC_FULL.md §9): one goroutine per user thread, synchronized
// through a shared mutex + condvar instead of a stackful coroutine
// switch, since Go has no such primitive.
package thread

import (
	"sync"

	"github.com/kolkov/interleave/internal/store"
	"github.com/kolkov/interleave/internal/vv"
)

// State is a user thread's scheduling state.
type State int

const (
	Runnable State = iota
	Blocked
	Yield
	Terminated
)

func (s State) String() string {
	switch s {
	case Runnable:
		return "Runnable"
	case Blocked:
		return "Blocked"
	case Yield:
		return "Yield"
	case Terminated:
		return "Terminated"
	default:
		return "?"
	}
}

// Operation describes the branch a thread is about to make: a
// reference to the object it is operating on plus the action tag.
type Operation struct {
	Ref    store.Ref
	Action store.Action
	Valid  bool
}

// Thread is one user-visible thread.
type Thread struct {
	ID        int
	State     State
	Operation Operation
	Causality vv.VV
	DporVV    vv.VV
	Critical  bool
	LastYield vv.VV
	Notified  bool // for park/unpark
	JoinTarget int // tid this thread is blocked joining, or -1
}

func newThread(id, n int) *Thread {
	return &Thread{
		ID:         id,
		State:      Runnable,
		Causality:  vv.New(n),
		DporVV:     vv.New(n),
		LastYield:  vv.New(n),
		JoinTarget: -1,
	}
}

// IsRunnable reports whether t can be chosen to run next.
func (t *Thread) IsRunnable() bool { return t.State == Runnable || t.State == Yield }

// Set owns every Thread in the current iteration plus the goroutine
// turn-passing mechanism.
type Set struct {
	mu         sync.Mutex
	cond       *sync.Cond
	threads    []*Thread
	active     int // tid currently permitted to run, -1 if none
	maxThreads int
}

// NewSet returns a Set with capacity for maxThreads threads and one
// root thread already created (id 0).
func NewSet(maxThreads int) *Set {
	s := &Set{maxThreads: maxThreads, active: -1}
	s.cond = sync.NewCond(&s.mu)
	s.threads = append(s.threads, newThread(0, maxThreads))
	return s
}

// Len is the number of threads created so far this iteration.
func (s *Set) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.threads)
}

// Get returns the thread with the given id.
func (s *Set) Get(tid int) *Thread {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.threads[tid]
}

// Active returns the tid currently holding the turn, or -1.
func (s *Set) Active() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.active
}

// ErrTooManyThreads is returned by Spawn once maxThreads is reached.
type ErrTooManyThreads struct{ Max int }

func (e ErrTooManyThreads) Error() string {
	return "thread: spawn exceeds max_threads bound"
}

// Spawn creates a new thread and returns it, or ErrTooManyThreads.
func (s *Set) Spawn() (*Thread, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.threads) >= s.maxThreads {
		return nil, ErrTooManyThreads{Max: s.maxThreads}
	}
	t := newThread(len(s.threads), s.maxThreads)
	s.threads = append(s.threads, t)
	return t, nil
}

// All returns every thread created this iteration.
func (s *Set) All() []*Thread {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]*Thread, len(s.threads))
	copy(out, s.threads)
	return out
}

// AllTerminated reports whether every thread has reached Terminated.
func (s *Set) AllTerminated() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, t := range s.threads {
		if t.State != Terminated {
			return false
		}
	}
	return true
}

// AnyRunnable reports whether some thread can still make progress.
func (s *Set) AnyRunnable() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, t := range s.threads {
		if t.IsRunnable() {
			return true
		}
	}
	return false
}

// SetActive hands the turn to tid and wakes every goroutine blocked in
// AwaitTurn so the chosen one can proceed.
func (s *Set) SetActive(tid int) {
	s.mu.Lock()
	s.active = tid
	s.cond.Broadcast()
	s.mu.Unlock()
}

// AwaitTurn blocks the calling goroutine until tid holds the turn.
func (s *Set) AwaitTurn(tid int) {
	s.mu.Lock()
	for s.active != tid {
		s.cond.Wait()
	}
	s.mu.Unlock()
}

// PromoteYields clears every Yield thread back to Runnable. Called at
// the end of schedule() per spec §4.2: yield only surrenders control
// for one step.
func (s *Set) PromoteYields() {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, t := range s.threads {
		if t.State == Yield {
			t.State = Runnable
		}
	}
}
