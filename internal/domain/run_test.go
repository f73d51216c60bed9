package domain

import "testing"

func TestRunArtifactFailed(t *testing.T) {
	cases := []struct {
		name   string
		checks []CheckResult
		want   bool
	}{
		{"no checks", nil, false},
		{"all pass", []CheckResult{{Passed: true}, {Passed: true}}, false},
		{"one fails", []CheckResult{{Passed: true}, {Passed: false}}, true},
	}
	for _, c := range cases {
		run := RunArtifact{Checks: c.checks}
		if got := run.Failed(); got != c.want {
			t.Errorf("%s: Failed() = %v, want %v", c.name, got, c.want)
		}
	}
}
