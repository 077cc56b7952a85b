// Package diag wraps the engine's cold-path structured logging: one
// event per iteration boundary, non-determinism abort, or leak panic.
// The hot path (scheduler, object store, load-picker) never logs; see
// SPEC_FULL.md §10 for the rationale behind using zerolog only here.
package diag

import (
	"io"
	"os"

	"github.com/rs/zerolog"
)

// Logger is the engine's cold-path diagnostics sink. The zero value
// is usable and discards everything, so a Builder with Log=false
// costs nothing beyond a disabled level check.
type Logger struct {
	z       zerolog.Logger
	enabled bool
}

// New returns a Logger writing to w (os.Stderr if w is nil) when
// enabled is true, and a fully-disabled logger otherwise.
func New(enabled bool, w io.Writer) Logger {
	if !enabled {
		return Logger{z: zerolog.Nop()}
	}
	if w == nil {
		w = os.Stderr
	}
	return Logger{
		z:       zerolog.New(w).With().Timestamp().Logger(),
		enabled: true,
	}
}

// Iteration logs the start of one model-check iteration.
func (l Logger) Iteration(n, branches int) {
	l.z.Debug().Int("iteration", n).Int("branches", branches).Msg("iteration")
}

// Abort logs a non-deterministic-execution abort with the recent
// event trace.
func (l Logger) Abort(reason string, recent []string) {
	l.z.Error().Str("reason", reason).Strs("recent", recent).Msg("nondeterministic execution")
}

// Exhausted logs that the path tree has been fully explored.
func (l Logger) Exhausted(iterations int) {
	l.z.Info().Int("iterations", iterations).Msg("exploration exhausted")
}

// Bound logs that a configured bound (branches/permutations/duration)
// stopped exploration before exhaustion.
func (l Logger) Bound(kind string, iterations int) {
	l.z.Warn().Str("bound", kind).Int("iterations", iterations).Msg("exploration bounded")
}
