// Package causality implements Synchronize: the release/acquire
// causality-transfer packet attached to every atomic store, and to
// the release/acquire side of every mock synchronization primitive.
package causality

import "github.com/kolkov/interleave/internal/vv"

// Order is a memory ordering, mirroring the host platform's atomic
// memory-order enum.
type Order int

const (
	Relaxed Order = iota
	Acquire
	Release
	AcqRel
	SeqCst
)

// HasAcquire reports whether order's load side publishes into the
// observer's causality.
func (o Order) HasAcquire() bool { return o == Acquire || o == AcqRel || o == SeqCst }

// HasRelease reports whether order's store side folds in the active
// thread's causality.
func (o Order) HasRelease() bool { return o == Release || o == AcqRel || o == SeqCst }

func (o Order) String() string {
	switch o {
	case Relaxed:
		return "Relaxed"
	case Acquire:
		return "Acquire"
	case Release:
		return "Release"
	case AcqRel:
		return "AcqRel"
	case SeqCst:
		return "SeqCst"
	default:
		return "?"
	}
}

// Synchronize is the VV published by the store/release side of an
// atomic or primitive, folded back into a loading/acquiring thread's
// causality.
type Synchronize struct {
	HappensBefore vv.VV
}

// New returns a zeroed Synchronize packet sized for n threads.
func New(n int) Synchronize {
	return Synchronize{HappensBefore: vv.New(n)}
}

// SyncStore folds active's causality into the packet if order has a
// release component; relaxed stores do nothing.
func (s *Synchronize) SyncStore(order Order, active vv.VV) {
	if order.HasRelease() {
		s.HappensBefore.Join(active)
	}
}

// SyncLoad folds the packet into active's causality if order has an
// acquire component; relaxed loads do nothing.
func (s *Synchronize) SyncLoad(order Order, active vv.VV) {
	if order.HasAcquire() {
		active.Join(s.HappensBefore)
	}
}

// Fence applies a standalone memory fence (no backing atomic): it
// behaves like a store then a load against the same packet, so a
// Release fence publishes the active thread's causality and a
// following Acquire fence on another thread observes it.
func Fence(order Order, packet *Synchronize, active vv.VV) {
	packet.SyncStore(order, active)
	packet.SyncLoad(order, active)
}
