// Package cellmem implements the interior-mutability Cell (spec
// §4.5): per-cell read/write version tracking that panics on a data
// race, plus the deferred-check variant (spec §4.5 last paragraph;
// SPEC_FULL.md §12) that records a check at access time and runs it
// later as a separate step.
package cellmem

import (
	"fmt"

	"github.com/kolkov/interleave/internal/location"
	"github.com/kolkov/interleave/internal/vv"
)

// RaceError describes a detected data race on a cell.
type RaceError struct {
	Created location.Site
	Other   location.Site
	Current location.Site
	Kind    string // "read/write", "write/read" or "write/write"
}

func (e *RaceError) Error() string {
	return fmt.Sprintf("data race on cell created at %s: %s race between %s and %s",
		e.Created, e.Kind, e.Other, e.Current)
}

// State is one cell's causality-tracking record.
type State struct {
	ReadVV    vv.VV
	WriteVV   vv.VV
	Readers   int
	Writing   bool
	CreatedAt location.Site
	LastRead  location.Site
	LastWrite location.Site
}

// NewState returns a fresh cell state for n threads.
func NewState(n int, createdAt location.Site) *State {
	return &State{
		ReadVV:    vv.New(n),
		WriteVV:   vv.New(n),
		CreatedAt: createdAt,
	}
}

// CheckRead reports a race if another thread's write is not known to
// happen-before active.
func (s *State) CheckRead(active vv.VV) error {
	if !s.WriteVV.LessOrEqual(active) {
		return &RaceError{Created: s.CreatedAt, Other: s.LastWrite, Current: location.Capture(4), Kind: "read/write"}
	}
	return nil
}

// EnterRead validates and begins a read access at site.
func (s *State) EnterRead(active vv.VV, site location.Site) error {
	if err := s.CheckRead(active); err != nil {
		return err
	}
	s.Readers++
	s.LastRead = site
	return nil
}

// ExitRead folds the reading thread's causality into ReadVV.
func (s *State) ExitRead(active vv.VV) {
	s.ReadVV.Join(active)
	s.Readers--
}

// CheckWrite reports a race if any unsynchronized read or write is
// not known to happen-before active.
func (s *State) CheckWrite(active vv.VV) error {
	if !s.ReadVV.LessOrEqual(active) {
		return &RaceError{Created: s.CreatedAt, Other: s.LastRead, Current: location.Capture(4), Kind: "write/read"}
	}
	if !s.WriteVV.LessOrEqual(active) {
		return &RaceError{Created: s.CreatedAt, Other: s.LastWrite, Current: location.Capture(4), Kind: "write/write"}
	}
	return nil
}

// EnterWrite validates and begins a write access at site.
func (s *State) EnterWrite(active vv.VV, site location.Site) error {
	if err := s.CheckWrite(active); err != nil {
		return err
	}
	s.Writing = true
	s.LastWrite = site
	return nil
}

// ExitWrite folds the writing thread's causality into WriteVV.
func (s *State) ExitWrite(active vv.VV) {
	s.WriteVV.Join(active)
	s.Writing = false
}

// Deferred is one recorded-but-not-yet-checked access.
type Deferred struct {
	IsWrite  bool
	Snapshot vv.VV
	State    *State
	Site     location.Site
}

// CausalCheck accumulates deferred accesses so the caller can run the
// race check later, outside the critical region that captured it.
type CausalCheck struct {
	deferred []Deferred
}

// Defer records access (read or write) against state with the given
// causality snapshot, without checking it yet.
func (c *CausalCheck) Defer(state *State, active vv.VV, isWrite bool, site location.Site) {
	c.deferred = append(c.deferred, Deferred{
		IsWrite:  isWrite,
		Snapshot: active.Clone(),
		State:    state,
		Site:     site,
	})
}

// Check replays every deferred access in order, folding its causality
// into the cell state as it goes, and returns the first race found.
func (c *CausalCheck) Check() error {
	for _, d := range c.deferred {
		if d.IsWrite {
			if err := d.State.CheckWrite(d.Snapshot); err != nil {
				return err
			}
			d.State.WriteVV.Join(d.Snapshot)
			d.State.LastWrite = d.Site
		} else {
			if err := d.State.CheckRead(d.Snapshot); err != nil {
				return err
			}
			d.State.ReadVV.Join(d.Snapshot)
			d.State.LastRead = d.Site
		}
	}
	return nil
}

// Join merges other's pending deferred accesses into c, for a check
// whose result depends on more than one deferred access (e.g. two
// fields read through the same cell).
func (c *CausalCheck) Join(other *CausalCheck) {
	c.deferred = append(c.deferred, other.deferred...)
}
