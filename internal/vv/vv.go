// Package vv implements the per-thread logical clocks ("version
// vectors") used to compute happens-before across the engine.
//
// A version vector is an array of counters, one per thread, stable
// for the lifetime of one iteration. Unlike a live race detector's
// vector clock (which must scale to thousands of goroutines and so
// favors a sparse or epoch-packed representation), the model
// checker's thread count is small and static (MaxThreads, typically
// 4), so a plain dense slice is both simpler and faster here.
package vv

// VV is a version vector over a fixed number of threads.
type VV struct {
	clock []uint32
}

// New allocates a zeroed version vector sized for n threads.
func New(n int) VV {
	return VV{clock: make([]uint32, n)}
}

// Len reports the number of threads this vector tracks.
func (v VV) Len() int { return len(v.clock) }

// Get returns the counter for thread tid, or 0 if tid is out of range.
func (v VV) Get(tid int) uint32 {
	if tid < 0 || tid >= len(v.clock) {
		return 0
	}
	return v.clock[tid]
}

// Set assigns the counter for thread tid.
func (v VV) Set(tid int, val uint32) {
	v.clock[tid] = val
}

// Inc bumps the counter for thread tid by one and returns the new value.
func (v VV) Inc(tid int) uint32 {
	v.clock[tid]++
	return v.clock[tid]
}

// Clone returns an independent copy of v.
func (v VV) Clone() VV {
	c := make([]uint32, len(v.clock))
	copy(c, v.clock)
	return VV{clock: c}
}

// CopyFrom overwrites v's counters with other's. Both must have the
// same length.
func (v VV) CopyFrom(other VV) {
	copy(v.clock, other.clock)
}

// Join assigns v[i] = max(v[i], other[i]) for every i — the least
// upper bound of the two vectors.
func (v VV) Join(other VV) {
	n := len(v.clock)
	if len(other.clock) < n {
		n = len(other.clock)
	}
	for i := 0; i < n; i++ {
		if other.clock[i] > v.clock[i] {
			v.clock[i] = other.clock[i]
		}
	}
}

// LessOrEqual reports whether v ≤ other, i.e. every counter in v is
// no greater than the corresponding counter in other. This is the
// happens-before test: v.LessOrEqual(other) means the event that
// produced v happens-before (or is) the event that produced other.
func (v VV) LessOrEqual(other VV) bool {
	n := len(v.clock)
	if len(other.clock) > n {
		n = len(other.clock)
	}
	for i := 0; i < n; i++ {
		if v.Get(i) > other.Get(i) {
			return false
		}
	}
	return true
}

// HappensBefore is an alias for LessOrEqual, read as a relation
// between events rather than a vector comparison.
func (v VV) HappensBefore(other VV) bool { return v.LessOrEqual(other) }

// Concurrent reports whether neither vector happens-before the other.
func (v VV) Concurrent(other VV) bool {
	return !v.LessOrEqual(other) && !other.LessOrEqual(v)
}

// String renders the vector for diagnostics, e.g. "[0,2,1,0]".
func (v VV) String() string {
	buf := make([]byte, 0, 2+4*len(v.clock))
	buf = append(buf, '[')
	for i, c := range v.clock {
		if i > 0 {
			buf = append(buf, ',')
		}
		buf = appendUint(buf, uint64(c))
	}
	buf = append(buf, ']')
	return string(buf)
}

func appendUint(buf []byte, n uint64) []byte {
	if n == 0 {
		return append(buf, '0')
	}
	var tmp [20]byte
	i := len(tmp)
	for n > 0 {
		i--
		tmp[i] = byte('0' + n%10)
		n /= 10
	}
	return append(buf, tmp[i:]...)
}
