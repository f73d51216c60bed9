package logger

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestSetup_WritesJSONToWorkspace(t *testing.T) {
	root := t.TempDir()
	cleanup, err := Setup(Config{Root: root})
	if err != nil {
		t.Fatalf("Setup: %v", err)
	}

	if err := IsReady(); err != nil {
		t.Fatalf("expected ready logger: %v", err)
	}
	want := filepath.Join(root, ".desim", "logs", "desim.log")
	if Path() != want {
		t.Fatalf("expected path %s, got %s", want, Path())
	}

	L().Info("run.finished", "rows", 3)
	L().Debug("hidden")
	if err := cleanup(); err != nil {
		t.Fatalf("cleanup: %v", err)
	}
	if IsReady() == nil {
		t.Fatalf("expected logger reset after cleanup")
	}

	b, err := os.ReadFile(want)
	if err != nil {
		t.Fatalf("read log: %v", err)
	}
	lines := strings.Split(strings.TrimSpace(string(b)), "\n")
	if len(lines) != 2 {
		t.Fatalf("expected 2 records (debug filtered), got %d:\n%s", len(lines), b)
	}

	var rec map[string]any
	if err := json.Unmarshal([]byte(lines[1]), &rec); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if rec["msg"] != "run.finished" || rec["rows"] != float64(3) || rec["version"] == nil {
		t.Fatalf("unexpected record: %v", rec)
	}
	if ts, _ := rec["time"].(string); !strings.HasSuffix(ts, "Z") {
		t.Fatalf("expected UTC timestamp, got %v", rec["time"])
	}
}

func TestSetup_DebugAndConsole(t *testing.T) {
	var console bytes.Buffer
	cleanup, err := Setup(Config{Root: t.TempDir(), Debug: true, Console: &console})
	if err != nil {
		t.Fatalf("Setup: %v", err)
	}
	defer cleanup()

	L().Debug("sweep.start", "points", 10)

	if !strings.Contains(console.String(), "msg=sweep.start") || !strings.Contains(console.String(), "points=10") {
		t.Fatalf("expected text record on console, got %q", console.String())
	}

	b, err := os.ReadFile(Path())
	if err != nil {
		t.Fatalf("read log: %v", err)
	}
	if !strings.Contains(string(b), `"source"`) {
		t.Fatalf("debug logs should carry source, got %s", b)
	}
}
