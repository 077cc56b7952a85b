package diag

import (
	"bytes"
	"strings"
	"testing"
)

func TestDisabledLoggerWritesNothing(t *testing.T) {
	var buf bytes.Buffer
	l := New(false, &buf)
	l.Iteration(1, 0)
	l.Abort("test", nil)
	if buf.Len() != 0 {
		t.Errorf("disabled logger wrote %q, want nothing", buf.String())
	}
}

func TestEnabledLoggerEmitsStructuredEvents(t *testing.T) {
	var buf bytes.Buffer
	l := New(true, &buf)
	l.Exhausted(42)
	out := buf.String()
	if !strings.Contains(out, "42") {
		t.Errorf("Exhausted(42) output %q should contain the iteration count", out)
	}
	if !strings.Contains(out, "exploration exhausted") {
		t.Errorf("Exhausted output %q should contain the event message", out)
	}
}

func TestBoundLogsKindAndCount(t *testing.T) {
	var buf bytes.Buffer
	l := New(true, &buf)
	l.Bound("max_permutations", 7)
	out := buf.String()
	if !strings.Contains(out, "max_permutations") || !strings.Contains(out, "7") {
		t.Errorf("Bound output %q should contain both the bound kind and the count", out)
	}
}
