package cli

import (
	"bytes"
	"context"
	"encoding/csv"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/deshima-dev/desim/internal/buildinfo"
	"github.com/deshima-dev/desim/internal/domain"
	"github.com/deshima-dev/desim/internal/infra/yamlinstrument"
)

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	cmd := newRootCmd()
	var buf bytes.Buffer
	cmd.SetOut(&buf)
	cmd.SetErr(&buf)
	cmd.SetArgs(args)
	err := cmd.ExecuteContext(context.Background())
	return buf.String(), err
}

func newWorkspace(t *testing.T) string {
	t.Helper()
	root := t.TempDir()
	out, err := execute(t, "init", "--path", root)
	require.NoError(t, err, out)
	return root
}

// --- helpers ---

func TestLooksLikePath(t *testing.T) {
	cases := []struct {
		input string
		want  bool
	}{
		{"deshima", false},
		{"deshima.yaml", false},
		{"./deshima.yaml", true},
		{"instruments/deshima.yaml", true},
		{"/abs/path/deshima.yaml", true},
	}
	for _, c := range cases {
		if got := looksLikePath(c.input); got != c.want {
			t.Errorf("looksLikePath(%q) = %v, want %v", c.input, got, c.want)
		}
	}
}

func TestHasYAMLExt(t *testing.T) {
	cases := []struct {
		input string
		want  bool
	}{
		{"aste.yaml", true},
		{"aste.yml", true},
		{"ASTE.YAML", true},
		{"aste.json", false},
		{"aste", false},
		{"", false},
	}
	for _, c := range cases {
		if got := hasYAMLExt(c.input); got != c.want {
			t.Errorf("hasYAMLExt(%q) = %v, want %v", c.input, got, c.want)
		}
	}
}

func TestFileExists(t *testing.T) {
	tmp := t.TempDir()
	p := filepath.Join(tmp, "exists.txt")
	require.NoError(t, os.WriteFile(p, []byte("hi"), 0o644))

	assert.True(t, fileExists(p))
	assert.False(t, fileExists(filepath.Join(tmp, "not_there.txt")))
}

func TestInRoot(t *testing.T) {
	assert.Equal(t, filepath.Join("/ws", "data", "atm.csv"), inRoot("/ws", "data/atm.csv"))
	assert.Equal(t, "/abs/atm.csv", inRoot("/ws", "/abs/../abs/atm.csv"))
}

func TestResolveWorkspaceRoot_ExplicitPath(t *testing.T) {
	tmp := t.TempDir()
	got, err := resolveWorkspaceRoot(tmp)
	require.NoError(t, err)
	assert.Equal(t, tmp, got)
}

func TestResolveInstrumentPath(t *testing.T) {
	root := newWorkspace(t)
	ws := &workspaceCtx{root: root, cfg: domain.DefaultConfig(), instruments: yamlinstrument.NewLoader()}

	want := filepath.Join(root, "instruments", "deshima.yaml")

	for _, arg := range []string{"", "deshima", "deshima.yaml", "instruments/deshima.yaml"} {
		got, err := resolveInstrumentPath(ws, arg)
		require.NoError(t, err, arg)
		assert.Equal(t, want, got, arg)
	}

	_, err := resolveInstrumentPath(ws, "nope")
	require.Error(t, err)
	assert.True(t, domain.IsKind(err, domain.KindNotFound))
}

func TestResolveConditionsArg(t *testing.T) {
	ws := &workspaceCtx{root: "/ws", cfg: domain.DefaultConfig()}

	assert.Equal(t, "aste", resolveConditionsArg(ws, ""))
	assert.Equal(t, "fixed", resolveConditionsArg(ws, " fixed "))
	assert.Equal(t, filepath.Join("/ws", "conditions", "fixed.yaml"), resolveConditionsArg(ws, "fixed.yaml"))
	assert.Equal(t, filepath.Join("/ws", "site", "x.yaml"), resolveConditionsArg(ws, "site/x.yaml"))

	ws.cfg.Defaults.Conditions = ""
	assert.Equal(t, "", resolveConditionsArg(ws, ""))
}

// --- renderers ---

func sampleRun() domain.RunArtifact {
	start := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
	return domain.RunArtifact{
		ID:             "0b5c1f0e-5a4b-4c33-9d0e-0123456789ab",
		InstrumentName: "deshima",
		ConditionsName: "aste",
		Sweep:          domain.Sweep{Param: "F", Values: []float64{350e9, 360e9}},
		Table: domain.Table{Rows: []domain.Row{
			{F: 350e9, PWV: 1, EL: 60, MDLF: 1.5e-19},
			{F: 360e9, PWV: 1, EL: 60, MDLF: 1.6e-19},
		}},
		Checks: []domain.CheckResult{
			{Name: "MDLF<=1e-17", Passed: true, Message: "ok"},
			{Name: "eta_inst>=0.5", Passed: false, Message: "2 row(s) below 0.5", Violations: 2},
		},
		StartedAt:  start,
		FinishedAt: start.Add(250 * time.Millisecond),
	}
}

func TestPrintRun_JSON(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, printRun(&buf, sampleRun(), "json"))

	var got domain.RunArtifact
	require.NoError(t, json.Unmarshal(buf.Bytes(), &got))
	if diff := cmp.Diff(sampleRun(), got); diff != "" {
		t.Errorf("json round trip mismatch (-want +got):\n%s", diff)
	}
}

func TestPrintRun_CSV(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, printRun(&buf, sampleRun(), "csv"))

	recs, err := csv.NewReader(&buf).ReadAll()
	require.NoError(t, err)
	require.Len(t, recs, 3)
	assert.Equal(t, domain.Columns, recs[0])
	assert.Equal(t, "3.5e+11", recs[1][0])
	assert.Equal(t, "1.6e-19", recs[2][33])
}

func TestPrintRun_Pretty(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, printRun(&buf, sampleRun(), "pretty"))
	out := buf.String()

	for _, want := range []string{
		"Instrument: deshima",
		"Sweep:      F (2 points)",
		"Run ID:     0b5c1f0e",
		"F [GHz]",
		"350",
		"1.5e-19",
		"1 pass / 1 fail",
		"✗ eta_inst>=0.5",
	} {
		assert.Contains(t, out, want)
	}
}

func TestPrintRun_EmptyFormatIsPretty(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, printRun(&buf, domain.RunArtifact{}, ""))
	assert.Contains(t, buf.String(), "(single point)")
}

func TestPrintRun_UnknownFormat(t *testing.T) {
	var buf bytes.Buffer
	err := printRun(&buf, domain.RunArtifact{}, "xml")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "xml")
}

func TestCountCheckPassFail(t *testing.T) {
	pass, fail := countCheckPassFail(sampleRun().Checks)
	assert.Equal(t, 1, pass)
	assert.Equal(t, 1, fail)

	pass, fail = countCheckPassFail(nil)
	assert.Zero(t, pass)
	assert.Zero(t, fail)
}

func TestQueryJSON(t *testing.T) {
	raw, err := json.Marshal(sampleRun())
	require.NoError(t, err)

	v, err := queryJSON(raw, "$.instrument")
	require.NoError(t, err)
	assert.Equal(t, "deshima", v)

	v, err = queryJSON(raw, "$.table.rows[*].MDLF")
	require.NoError(t, err)
	assert.Equal(t, []any{1.5e-19, 1.6e-19}, v)

	_, err = queryJSON(raw, "$.nope")
	require.Error(t, err)
	assert.True(t, domain.IsKind(err, domain.KindInvalidConfig))
}

func TestPrintRunRefs(t *testing.T) {
	var buf bytes.Buffer
	printRunRefs(&buf, nil)
	assert.Contains(t, buf.String(), "no runs found")

	buf.Reset()
	printRunRefs(&buf, []domain.RunRef{{ID: "0123456789abcdef", Instrument: "deshima", Conditions: "aste", Points: 347}})
	out := buf.String()
	assert.Contains(t, out, "01234567")
	assert.NotContains(t, out, "0123456789abcdef")
	assert.Contains(t, out, "347")
}

// --- command structure ---

func TestRootCmd_RegistersSubcommands(t *testing.T) {
	cmd := newRootCmd()
	names := map[string]bool{}
	for _, sub := range cmd.Commands() {
		names[sub.Name()] = true
	}
	for _, expected := range []string{"init", "run", "validate", "instruments", "conditions", "runs", "atm", "serve", "version"} {
		assert.True(t, names[expected], "expected subcommand %q", expected)
	}
}

func TestRunCmd_Flags(t *testing.T) {
	cmd := runCmd()
	assert.Equal(t, "run", cmd.Use)
	for _, flag := range []string{"workspace", "instrument", "conditions", "set", "sweep", "no-save", "format", "workers"} {
		assert.NotNil(t, cmd.Flags().Lookup(flag), "expected --%s", flag)
	}
	assert.Equal(t, "i", cmd.Flags().Lookup("instrument").Shorthand)
	assert.Equal(t, "c", cmd.Flags().Lookup("conditions").Shorthand)
}

func TestServeCmd_Flags(t *testing.T) {
	cmd := serveCmd()
	for _, flag := range []string{"workspace", "addr", "rate-limit", "instrument", "conditions", "set"} {
		assert.NotNil(t, cmd.Flags().Lookup(flag), "expected --%s", flag)
	}
}

func TestInitCmd_Flags(t *testing.T) {
	cmd := initCmd()
	assert.NotNil(t, cmd.Flags().Lookup("path"))
	assert.NotNil(t, cmd.Flags().Lookup("force"))
}

// --- end to end over a scaffolded workspace ---

func TestVersion(t *testing.T) {
	out, err := execute(t, "version")
	require.NoError(t, err)
	assert.Equal(t, buildinfo.String()+"\n", out)
}

func TestRun_ChannelSweepCSV(t *testing.T) {
	root := newWorkspace(t)

	out, err := execute(t, "run", "-w", root, "-c", "fixed", "--no-save", "--format", "csv")
	require.NoError(t, err, out)

	recs, err := csv.NewReader(strings.NewReader(out)).ReadAll()
	require.NoError(t, err)
	assert.Len(t, recs, 1+347)
	assert.Equal(t, "0.9", recs[1][3])

	_, err = os.Stat(filepath.Join(root, "runs", "index.jsonl"))
	assert.True(t, os.IsNotExist(err), "no-save must not write the index")
}

func TestRun_SweepAndSet(t *testing.T) {
	root := newWorkspace(t)

	out, err := execute(t, "run", "-w", root, "-c", "fixed", "--no-save", "--format", "json",
		"--sweep", "pwv=0.5,1,2", "--set", "F=350e9", "--set", "snr=3")
	require.NoError(t, err, out)

	var run domain.RunArtifact
	require.NoError(t, json.Unmarshal([]byte(out), &run))
	require.Len(t, run.Table.Rows, 3)
	assert.Equal(t, "pwv", run.Sweep.Param)
	assert.Equal(t, 3.0, run.Params.SNR)
	for i, pwv := range []float64{0.5, 1, 2} {
		assert.Equal(t, pwv, run.Table.Rows[i].PWV)
		assert.Equal(t, 350e9, run.Table.Rows[i].F)
	}
}

func TestRun_FailedCheckIsAnError(t *testing.T) {
	root := newWorkspace(t)

	out, err := execute(t, "run", "-w", root, "-c", "fixed", "--no-save",
		"--sweep", "F=350e9", "--set", "snr=1e6")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed check")
	assert.Contains(t, out, "✗ MDLF")
}

func TestRun_UnknownParameter(t *testing.T) {
	root := newWorkspace(t)

	_, err := execute(t, "run", "-w", root, "-c", "fixed", "--no-save", "--set", "nope=1")
	require.Error(t, err)
	assert.True(t, domain.IsKind(err, domain.KindInvalidConfig))
}

func TestRun_SavedAndQueried(t *testing.T) {
	root := newWorkspace(t)

	out, err := execute(t, "run", "-w", root, "-c", "fixed", "--format", "json", "--sweep", "F=300e9,350e9")
	require.NoError(t, err, out)

	var run domain.RunArtifact
	require.NoError(t, json.Unmarshal([]byte(out), &run))
	require.NotEmpty(t, run.ID)

	out, err = execute(t, "runs", "list", "-w", root)
	require.NoError(t, err)
	assert.Contains(t, out, run.ID[:8])
	assert.Contains(t, out, "deshima")

	out, err = execute(t, "runs", "show", run.ID[:8], "-w", root, "--query", "$.conditions")
	require.NoError(t, err)
	assert.Equal(t, "\"fixed\"\n", out)

	out, err = execute(t, "runs", "show", run.ID, "-w", root, "--format", "csv")
	require.NoError(t, err)
	assert.Equal(t, 3, strings.Count(out, "\n"))
}

func TestValidate_OK(t *testing.T) {
	root := newWorkspace(t)

	out, err := execute(t, "validate", "-w", root, "-c", "fixed")
	require.NoError(t, err)
	assert.Equal(t, "OK\n", out)
}

func TestValidate_MissingAtmosphere(t *testing.T) {
	root := newWorkspace(t)

	_, err := execute(t, "validate", "-w", root, "-c", "aste")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "atmosphere")
}

func TestCatalogCommands(t *testing.T) {
	root := newWorkspace(t)

	out, err := execute(t, "instruments", "list", "-w", root)
	require.NoError(t, err)
	assert.Contains(t, out, "- deshima")

	out, err = execute(t, "conditions", "list", "-w", root)
	require.NoError(t, err)
	assert.Contains(t, out, "- aste")
	assert.Contains(t, out, "- fixed")

	out, err = execute(t, "instruments", "show", "-w", root)
	require.NoError(t, err)
	assert.Contains(t, out, "Band:       220-440 GHz")
	assert.Contains(t, out, "theta_maj_arcsec")
	assert.Contains(t, out, "MDLF <= 1e-17")
}

func TestAtmInfo_MissingTable(t *testing.T) {
	root := newWorkspace(t)

	_, err := execute(t, "atm", "info", "-w", root)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "desim atm fetch")
}

func TestAtmFetch_RejectsBadURL(t *testing.T) {
	root := newWorkspace(t)

	_, err := execute(t, "atm", "fetch", "ftp://example.org/atm.csv", "-w", root)
	require.Error(t, err)
	assert.True(t, domain.IsKind(err, domain.KindInvalidConfig))
}
