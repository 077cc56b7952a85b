// Package store implements the Object Store: a typed arena of runtime
// state records addressed by stable (kind, index) references, plus
// the per-object access-tracking the DPOR engine reads to discover
// racing predecessors.
//
// References are stable for one iteration and reset between
// iterations; the Store is exclusively owned by one Execution.
package store

import "github.com/kolkov/interleave/internal/vv"

// Kind tags which primitive a Ref addresses.
type Kind int

const (
	KindAtomic Kind = iota
	KindMutex
	KindRwLock
	KindCondvar
	KindNotify
	KindChannel
	KindCell
	KindAllocation
)

// Ref is a stable handle into the Store.
type Ref struct {
	Kind  Kind
	Index int
}

// Action tags the kind of operation performed against an object, used
// to compute the dependency relation between accesses on the same
// object (spec §4.2).
type Action int

const (
	ActionLoad Action = iota
	ActionStore
	ActionRMW
	ActionOpaque // mutex/condvar/notify/cell/allocation: any two accesses are dependent
	ActionSend
	ActionRecv
)

// dependencies maps an action to the set of prior actions it is
// dependent on (i.e. which prior accesses must be accounted for by
// DPOR when this action is about to execute).
var dependencies = map[Action][]Action{
	ActionLoad:   {ActionStore, ActionRMW},
	ActionStore:  {ActionLoad, ActionStore, ActionRMW},
	ActionRMW:    {ActionLoad, ActionStore, ActionRMW},
	ActionOpaque: {ActionOpaque},
	ActionSend:   {ActionRecv},
	ActionRecv:   {ActionSend},
}

// Access records one operation's place in the path and its DPOR
// version vector, the data DPOR needs to decide whether a later
// racing operation must be explored on another thread.
type Access struct {
	PathID int
	DporVV vv.VV
	Valid  bool
}

// Object is one entry in the arena: an opaque per-kind payload plus
// the last-access bookkeeping the DPOR engine needs. The payload is
// stored by the owning package (atomicmem, primitives, cellmem,
// alloc) via Object.Data; Store itself is agnostic to its shape.
type Object struct {
	Kind Kind
	Data any
	last map[Action]Access
}

// LastDependentAccesses returns the most recent access recorded for
// every action that action depends on.
func (o *Object) LastDependentAccesses(action Action) []Access {
	deps := dependencies[action]
	out := make([]Access, 0, len(deps))
	for _, d := range deps {
		if a, ok := o.last[d]; ok && a.Valid {
			out = append(out, a)
		}
	}
	return out
}

// SetLastAccess records the committed access for action.
func (o *Object) SetLastAccess(action Action, a Access) {
	a.Valid = true
	if o.last == nil {
		o.last = make(map[Action]Access, 2)
	}
	o.last[action] = a
}

// Store is the typed arena. Exclusively owned by one Execution.
type Store struct {
	objects []*Object
}

// New returns an empty Store.
func New() *Store {
	return &Store{}
}

// Alloc creates a new object of the given kind with payload data and
// returns its stable reference.
func (s *Store) Alloc(kind Kind, data any) Ref {
	idx := len(s.objects)
	s.objects = append(s.objects, &Object{Kind: kind, Data: data})
	return Ref{Kind: kind, Index: idx}
}

// Get dereferences ref. Panics on an out-of-range reference, which
// would indicate a use-after-clear bug in the engine itself.
func (s *Store) Get(ref Ref) *Object {
	return s.objects[ref.Index]
}

// All returns every live object, used by leak checks at the end of an
// iteration.
func (s *Store) All() []*Object {
	return s.objects
}

// Clear empties the arena between iterations. References from the
// prior iteration become invalid.
func (s *Store) Clear() {
	s.objects = s.objects[:0]
}
