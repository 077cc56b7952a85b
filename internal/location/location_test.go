package location

import "testing"

func TestCaptureSkipsInternalFrames(t *testing.T) {
	site := captureViaWrapper()
	if site.Function == "" {
		t.Fatal("Capture returned an empty site")
	}
	if isInternal(site.Function) {
		t.Errorf("Capture returned an internal frame: %s", site.Function)
	}
}

func captureViaWrapper() Site {
	return Capture(8)
}

func TestSiteStringFormatsFunctionFileLine(t *testing.T) {
	s := Site{Function: "pkg.Foo", File: "pkg/foo.go", Line: 42}
	want := "pkg.Foo (pkg/foo.go:42)"
	if got := s.String(); got != want {
		t.Errorf("String() = %q, want %q", got, want)
	}
}

func TestSiteStringEmptyIsUnknown(t *testing.T) {
	if got := (Site{}).String(); got != "<unknown>" {
		t.Errorf("String() on zero Site = %q, want %q", got, "<unknown>")
	}
}

func TestItoaHandlesZeroPositiveAndNegative(t *testing.T) {
	cases := map[int]string{0: "0", 7: "7", 42: "42", -13: "-13"}
	for n, want := range cases {
		if got := itoa(n); got != want {
			t.Errorf("itoa(%d) = %q, want %q", n, got, want)
		}
	}
}
