package check

import "github.com/kolkov/interleave/internal/causality"

// Ordering is the public memory-order enum, matching the host
// platform's atomic::Ordering (spec §4.3).
type Ordering int

const (
	Relaxed Ordering = iota
	Acquire
	Release
	AcqRel
	SeqCst
)

func (o Ordering) internal() causality.Order { return causality.Order(o) }

func (o Ordering) String() string { return o.internal().String() }
