package buildinfo

import (
	"strings"
	"testing"
)

func TestString(t *testing.T) {
	s := String()
	if !strings.HasPrefix(s, "deshima-sensitivity 0.2.6 ") {
		t.Fatalf("unexpected version string %q", s)
	}
}
