// Package location captures short stack traces for diagnostics:
// where a cell/allocation was created, and where a racing access
// happened. Grounded on the teacher's runtime.Callers-based capture
// (internal/race/detector/report.go's captureStackTrace), trimmed to
// skip frames inside this module itself.
package location

import (
	"runtime"
	"strings"
)

// Site is a captured call site, used in panic messages.
type Site struct {
	Function string
	File     string
	Line     int
}

func (s Site) String() string {
	if s.Function == "" {
		return "<unknown>"
	}
	return s.Function + " (" + s.File + ":" + itoa(s.Line) + ")"
}

// Capture walks up to depth frames above its caller, skipping frames
// whose package path is inside this module's internal/check packages
// so the reported site points at user code.
func Capture(depth int) Site {
	pcs := make([]uintptr, depth+8)
	n := runtime.Callers(3, pcs)
	if n == 0 {
		return Site{}
	}
	frames := runtime.CallersFrames(pcs[:n])
	for {
		frame, more := frames.Next()
		if !isInternal(frame.Function) {
			return Site{Function: frame.Function, File: frame.File, Line: frame.Line}
		}
		if !more {
			break
		}
	}
	return Site{}
}

func isInternal(fn string) bool {
	return strings.Contains(fn, "/interleave/internal/") || strings.Contains(fn, "/interleave/check.")
}

func itoa(n int) string {
	if n == 0 {
		return "0"
	}
	neg := n < 0
	if neg {
		n = -n
	}
	var buf [20]byte
	i := len(buf)
	for n > 0 {
		i--
		buf[i] = byte('0' + n%10)
		n /= 10
	}
	if neg {
		i--
		buf[i] = '-'
	}
	return string(buf[i:])
}
