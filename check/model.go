// Package check is the external-interface layer: the thin adapters
// exposing the permutation-exploring engine to user test code (spec
// §6). Everything here delegates to internal/exec; this package's own
// job is presenting a surface that mirrors the host platform's
// standard concurrency API.
package check

import (
	"os"
	"strconv"
	"time"

	"github.com/kolkov/interleave/internal/diag"
	"github.com/kolkov/interleave/internal/exec"
)

// Builder configures one model run (spec §6's Builder fields).
// CheckpointFile and CheckpointInterval are accepted, but no
// checkpoint is ever written or loaded.
type Builder struct {
	MaxThreads         int
	MaxBranches        int
	MaxPermutations    int
	MaxDuration        time.Duration
	PreemptionBound    *int
	CheckpointFile     string
	CheckpointInterval int
	Location           bool
	Log                bool
}

// NewBuilder returns a Builder seeded with the engine defaults,
// overridden by any recognized environment variable (spec §6):
// MAX_BRANCHES, MAX_PERMUTATIONS, MAX_DURATION (seconds),
// MAX_PREEMPTIONS, CHECKPOINT_FILE, CHECKPOINT_INTERVAL, LOCATION,
// LOG. An invalid value panics, matching "invalid values abort
// Builder construction".
func NewBuilder() Builder {
	b := Builder{
		MaxThreads:      4,
		MaxBranches:     1000,
		MaxPermutations: 0,
	}
	if v, ok := envInt("MAX_BRANCHES"); ok {
		b.MaxBranches = v
	}
	if v, ok := envInt("MAX_PERMUTATIONS"); ok {
		b.MaxPermutations = v
	}
	if v, ok := envInt("MAX_DURATION"); ok {
		b.MaxDuration = time.Duration(v) * time.Second
	}
	if v, ok := envInt("MAX_PREEMPTIONS"); ok {
		b.PreemptionBound = &v
	}
	b.CheckpointFile = os.Getenv("CHECKPOINT_FILE")
	if v, ok := envInt("CHECKPOINT_INTERVAL"); ok {
		b.CheckpointInterval = v
	}
	if v, ok := envBool("LOCATION"); ok {
		b.Location = v
	}
	if v, ok := envBool("LOG"); ok {
		b.Log = v
	}
	return b
}

func envInt(name string) (int, bool) {
	s := os.Getenv(name)
	if s == "" {
		return 0, false
	}
	v, err := strconv.Atoi(s)
	if err != nil {
		panic("check: invalid " + name + ": " + err.Error())
	}
	return v, true
}

func envBool(name string) (bool, bool) {
	s := os.Getenv(name)
	if s == "" {
		return false, false
	}
	v, err := strconv.ParseBool(s)
	if err != nil {
		panic("check: invalid " + name + ": " + err.Error())
	}
	return v, true
}

// Run executes f to exhaustion with the default Builder, panicking on
// the first violation it finds — "model(closure)" from spec §6.
func Run(f func()) {
	NewBuilder().Run(f)
}

// Run executes f to exhaustion with b's configuration.
func (b Builder) Run(f func()) {
	cfg := exec.Config{
		MaxThreads:         b.MaxThreads,
		MaxBranches:        b.MaxBranches,
		MaxPermutations:    b.MaxPermutations,
		MaxDuration:        b.MaxDuration,
		PreemptionBound:    b.PreemptionBound,
		Location:           b.Location,
		Log:                b.Log,
		CheckpointInterval: b.CheckpointInterval,
	}
	if cfg.MaxThreads <= 0 {
		cfg.MaxThreads = 4
	}
	log := diag.New(b.Log, nil)
	ex := exec.New(cfg, log)
	ex.Run(f)
}
