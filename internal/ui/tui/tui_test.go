package tui

import (
	"errors"
	"fmt"
	"path/filepath"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/deshima-dev/desim/internal/domain"
	"github.com/deshima-dev/desim/internal/infra/fsworkspace"
	"github.com/deshima-dev/desim/internal/infra/workspacefinder"
)

func TestUserMessage(t *testing.T) {
	cases := []struct {
		name string
		err  error
		want string
	}{
		{"nil", nil, ""},
		{"instrument", &domain.OpError{Op: "yamlinstrument.load", Kind: domain.KindNotFound}, "Instrument not found"},
		{"conditions", &domain.OpError{Op: "yamlconditions.load", Kind: domain.KindNotFound}, "Conditions not found"},
		{"atm", &domain.OpError{Op: "atmtable.load", Kind: domain.KindNotFound}, "Atmosphere table missing (desim atm fetch <url>)"},
		{"workspace", &domain.OpError{Op: "workspacefinder.findroot", Kind: domain.KindNotFound}, "Workspace not found"},
		{"param", domain.InvalidParam("paramset.validate", "eta_mb", "must be <= 1"), "Invalid parameter eta_mb"},
		{"range", domain.OutOfRange("atmtable.transmission", "pwv", "above 5"), "pwv outside the atmosphere table"},
		{"wrapped range", fmt.Errorf("atmosphere at 440 GHz: %w", domain.OutOfRange("atmtable.transmission", "F", "above 400")), "F outside the atmosphere table"},
		{"yaml line", &domain.OpError{
			Op:   "yamlinstrument.load",
			Kind: domain.KindInvalidConfig,
			Path: "/ws/instruments/bad.yaml",
			Err:  errors.New("yaml: line 7: did not find expected key"),
		}, "Invalid YAML at bad.yaml line 7"},
		{"execution", &domain.OpError{Op: "runstore.write", Kind: domain.KindExecution}, "Unexpected error (see logs)"},
		{"plain yaml", errors.New("yaml: line 3: mapping values are not allowed"), "Invalid YAML line 3"},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			assert.Equal(t, c.want, userMessage(c.err))
		})
	}
}

func TestClampString(t *testing.T) {
	assert.Equal(t, "", clampString("abc", 0))
	assert.Equal(t, "abc", clampString("abc", 3))
	assert.Equal(t, "ab…", clampString("abc", 2))
	assert.Equal(t, "η…", clampString("ηηη", 1))
}

func TestRenderRunSummary(t *testing.T) {
	run := domain.RunArtifact{
		ID:             "run-1",
		InstrumentName: "deshima",
		ConditionsName: "aste",
		Table: domain.Table{Rows: []domain.Row{
			{F: 300e9, MDLF: 2e-19},
			{F: 350e9, MDLF: 1e-19},
			{F: 400e9, MDLF: 5e-19},
		}},
		Checks: []domain.CheckResult{{Name: "MDLF.max", Passed: false, Message: "too high"}},
	}

	out := renderRunSummary(run)
	assert.Contains(t, out, "Rows:       3")
	assert.Contains(t, out, "Best MDLF:  1e-19 W/m^2 at 350 GHz")
	assert.Contains(t, out, "Worst MDLF: 5e-19 W/m^2 at 400 GHz")
	assert.Contains(t, out, "MDLF.max [FAIL] too high")
}

func TestRenderInstrument(t *testing.T) {
	minEta := 0.001
	inst := domain.Instrument{
		Name:   "deshima",
		Band:   domain.Band{FMinHz: 220e9, FMaxHz: 440e9},
		Params: domain.DefaultParams(),
		Checks: []domain.CheckSpec{{Column: "eta_inst", Min: &minEta}},
	}

	out := renderInstrument(inst)
	assert.Contains(t, out, "Band: 220-440 GHz")
	assert.Contains(t, out, "eta_inst >= 0.001")
}

func sized(t *testing.T) model {
	t.Helper()
	m := newModel(Deps{})
	next, _ := m.Update(tea.WindowSizeMsg{Width: 100, Height: 40})
	return next.(model)
}

func TestModel_QuitFromHome(t *testing.T) {
	m := sized(t)
	_, cmd := m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("q")})
	require.NotNil(t, cmd)
	assert.Equal(t, tea.QuitMsg{}, cmd())
}

func TestModel_RunNeedsWorkspace(t *testing.T) {
	m := sized(t)
	next, cmd := m.Update(tea.KeyMsg{Type: tea.KeyEnter})
	assert.Nil(t, cmd)

	got := next.(model)
	assert.Equal(t, screenHome, got.scr)
	assert.Contains(t, got.toast, "No workspace found")
}

func TestModel_RefsAndBack(t *testing.T) {
	m := sized(t)
	next, _ := m.Update(instrumentsLoadedMsg{root: "/ws", refs: []domain.InstrumentRef{
		{Name: "deshima", Path: "/ws/instruments/deshima.yaml"},
		{Name: "wide", Path: "/ws/instruments/wide.yaml"},
	}})
	got := next.(model)
	require.Equal(t, screenList, got.scr)
	assert.Equal(t, listInstruments, got.kind)
	assert.Len(t, got.picker.Items(), 2)
	assert.Contains(t, got.View(), "instruments/deshima.yaml")

	next, _ = got.Update(previewMsg{title: "deshima", preview: "Band: 220-440 GHz"})
	got = next.(model)
	require.Equal(t, screenDetail, got.scr)
	assert.Contains(t, got.View(), "Band: 220-440 GHz")

	next, _ = got.Update(tea.KeyMsg{Type: tea.KeyEsc})
	assert.Equal(t, screenList, next.(model).scr)
}

func TestModel_LoadErrorStaysHome(t *testing.T) {
	m := sized(t)
	next, _ := m.Update(runsLoadedMsg{err: &domain.OpError{Op: "runstore.list", Kind: domain.KindNotFound}})
	got := next.(model)
	assert.Equal(t, screenHome, got.scr)
	assert.Equal(t, "Run not found", got.toast)
}

func TestModel_RunnerDone(t *testing.T) {
	m := sized(t)
	m.running = true
	m.scr = screenRunning

	next, _ := m.Update(runnerDoneMsg{run: domain.RunArtifact{
		InstrumentName: "deshima",
		Table:          domain.Table{Rows: []domain.Row{{F: 350e9, MDLF: 1e-19}}},
		Checks:         []domain.CheckResult{{Name: "MDLF.max", Passed: false}},
	}})
	got := next.(model)
	assert.False(t, got.running)
	assert.Equal(t, screenDetail, got.scr)
	assert.Equal(t, "Run finished with failed checks", got.detailTitle)

	next, _ = got.Update(tea.KeyMsg{Type: tea.KeyEsc})
	assert.Equal(t, screenHome, next.(model).scr)
}

func TestStartRunAsync_FixedConditions(t *testing.T) {
	root := t.TempDir()
	require.NoError(t, fsworkspace.NewInitializer().Init(domain.WorkspaceSpec{Root: root}, false))

	ch, _ := startRunAsync(root, "", "fixed", nil, true)

	select {
	case msg := <-ch:
		require.NoError(t, msg.err)
		assert.Equal(t, "deshima", msg.run.InstrumentName)
		assert.Len(t, msg.run.Table.Rows, 347)
		assert.NotEmpty(t, msg.run.ID)
		assert.False(t, msg.run.Failed())
	case <-time.After(30 * time.Second):
		t.Fatal("run did not finish")
	}
}

func TestStartRunAsync_MissingAtmosphere(t *testing.T) {
	root := t.TempDir()
	require.NoError(t, fsworkspace.NewInitializer().Init(domain.WorkspaceSpec{Root: root}, false))

	ch, _ := startRunAsync(root, "", "", nil, false)

	msg := <-ch
	require.Error(t, msg.err)
	assert.Equal(t, "Atmosphere table missing (desim atm fetch <url>)", userMessage(msg.err))
}

type panicky struct{ inView bool }

func (p panicky) Init() tea.Cmd { return nil }
func (p panicky) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	if _, ok := msg.(tea.KeyMsg); ok {
		panic("boom")
	}
	return p, nil
}
func (p panicky) View() string {
	if p.inView {
		panic("boom")
	}
	return "ok"
}

func TestSafeModel_RecoversUpdateAndView(t *testing.T) {
	s := wrapSafe(panicky{}, nil)

	next, cmd := s.Update(tea.KeyMsg{Type: tea.KeyEnter})
	assert.Nil(t, cmd)
	sm := next.(safeModel)
	assert.Equal(t, 1, sm.panics)
	assert.Equal(t, "ok", sm.View())

	assert.Equal(t, panicMessage, wrapSafe(panicky{inView: true}, nil).View())
}

func TestSafeModel_ResetsAppModel(t *testing.T) {
	m := sized(t)
	m.running = true
	m.scr = screenRunning

	got := m.afterPanic().(model)
	assert.Equal(t, screenHome, got.scr)
	assert.False(t, got.running)
	assert.Equal(t, panicMessage, got.toast)
}

func TestRefreshWorkspace(t *testing.T) {
	root := t.TempDir()
	require.NoError(t, fsworkspace.NewInitializer().Init(domain.WorkspaceSpec{Root: root}, false))

	deps := Deps{
		WorkspaceLocator: workspacefinder.NewFinder(),
		Getwd:            func() (string, error) { return filepath.Join(root, "runs"), nil },
	}
	msg := cmdRefreshWorkspace(deps)().(workspaceRefreshedMsg)
	require.NoError(t, msg.err)
	assert.True(t, msg.found)
	assert.Equal(t, root, msg.root)

	msg = cmdRefreshWorkspace(Deps{Getwd: deps.Getwd})().(workspaceRefreshedMsg)
	assert.False(t, msg.found)
	assert.Error(t, msg.err)
}
