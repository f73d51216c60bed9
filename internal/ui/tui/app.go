package tui

import (
	"fmt"
	"path/filepath"
	"time"

	"github.com/charmbracelet/bubbles/list"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

type screen int

const (
	screenHome screen = iota
	screenList
	screenDetail
	screenRunning
)

type listKind int

const (
	listInstruments listKind = iota
	listConditions
	listRuns
)

const (
	itemRun         = "Run"
	itemInstruments = "Instruments"
	itemConditions  = "Conditions"
	itemRuns        = "Runs"
	itemInit        = "Init workspace"
	itemQuit        = "Quit"
)

type menuItem struct {
	title string
	desc  string
}

func (m menuItem) Title() string       { return m.title }
func (m menuItem) Description() string { return m.desc }
func (m menuItem) FilterValue() string { return m.title }

// refItem is one instrument, conditions file or saved run in the picker.
type refItem struct {
	title string
	desc  string
	value string
}

func (r refItem) Title() string       { return r.title }
func (r refItem) Description() string { return r.desc }
func (r refItem) FilterValue() string { return r.title }

type model struct {
	theme Theme
	deps  Deps

	scr    screen
	menu   list.Model
	picker list.Model
	kind   listKind

	detailTitle string
	detail      string
	back        screen

	spin    spinner.Model
	running bool

	toast string

	workspaceFound bool
	workspaceRoot  string
	cwd            string
}

func Run(deps Deps) error {
	m := wrapSafe(newModel(deps), deps.Logger)
	p := tea.NewProgram(m, tea.WithAltScreen())
	_, err := p.Run()
	return err
}

func newModel(deps Deps) model {
	t := DefaultTheme()

	items := []list.Item{
		menuItem{itemRun, "Compute the default instrument under the default conditions"},
		menuItem{itemInstruments, "Browse instruments, preview or run one"},
		menuItem{itemConditions, "Run the default instrument under other conditions"},
		menuItem{itemRuns, "Saved run artifacts"},
		menuItem{itemInit, "Scaffold desim.yaml, instruments and conditions here"},
		menuItem{itemQuit, "Exit desim"},
	}

	l := list.New(items, list.NewDefaultDelegate(), 0, 0)
	l.Title = "desim"
	l.SetShowStatusBar(false)
	l.SetFilteringEnabled(true)
	l.SetShowHelp(false)

	p := list.New(nil, list.NewDefaultDelegate(), 0, 0)
	p.SetShowStatusBar(false)
	p.SetShowHelp(false)

	sp := spinner.New(spinner.WithSpinner(spinner.Dot), spinner.WithStyle(t.Spinner))

	return model{
		theme:  t,
		deps:   deps,
		scr:    screenHome,
		menu:   l,
		picker: p,
		spin:   sp,
	}
}

func (m model) Init() tea.Cmd { return cmdRefreshWorkspace(m.deps) }

func (m model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		w, h := msg.Width, msg.Height
		m.menu.SetSize(w-4, h-10)
		m.picker.SetSize(w-4, h-10)
		return m, nil

	case workspaceRefreshedMsg:
		m.cwd = msg.cwd
		m.workspaceFound = msg.found
		m.workspaceRoot = msg.root
		return m, nil

	case initWorkspaceDoneMsg:
		if msg.err != nil {
			m.toast = userMessage(msg.err)
			return m, nil
		}
		m.toast = "Workspace initialized at " + msg.root
		return m, cmdRefreshWorkspace(m.deps)

	case instrumentsLoadedMsg:
		return m.showRefs(listInstruments, "Instruments", msg.err, func() []list.Item {
			out := make([]list.Item, 0, len(msg.refs))
			for _, r := range msg.refs {
				out = append(out, refItem{title: r.Name, desc: rel(msg.root, r.Path), value: r.Path})
			}
			return out
		})

	case conditionsLoadedMsg:
		return m.showRefs(listConditions, "Conditions", msg.err, func() []list.Item {
			out := make([]list.Item, 0, len(msg.refs))
			for _, r := range msg.refs {
				out = append(out, refItem{title: r.Name, desc: rel(msg.root, r.Path), value: r.Path})
			}
			return out
		})

	case runsLoadedMsg:
		return m.showRefs(listRuns, "Runs", msg.err, func() []list.Item {
			out := make([]list.Item, 0, len(msg.refs))
			for _, r := range msg.refs {
				out = append(out, refItem{
					title: r.StartedAt.Local().Format(time.DateTime) + "  " + r.Instrument,
					desc:  fmt.Sprintf("%s, %s, %d point(s)", clampString(r.ID, 8), r.Conditions, r.Points),
					value: r.ID,
				})
			}
			return out
		})

	case previewMsg:
		if msg.err != nil {
			m.toast = userMessage(msg.err)
			return m, nil
		}
		m.back = m.scr
		m.scr = screenDetail
		m.detailTitle = msg.title
		m.detail = msg.preview
		return m, nil

	case runnerDoneMsg:
		m.running = false
		m.back = screenHome
		m.scr = screenDetail
		m.detailTitle = "Run finished"
		if msg.run.Failed() {
			m.detailTitle = "Run finished with failed checks"
		}
		m.detail = renderRunSummary(msg.run)
		if msg.err != nil {
			m.toast = userMessage(msg.err)
			if len(msg.run.Table.Rows) == 0 {
				m.scr = screenHome
			}
		}
		return m, nil

	case spinner.TickMsg:
		if !m.running {
			return m, nil
		}
		var cmd tea.Cmd
		m.spin, cmd = m.spin.Update(msg)
		return m, cmd

	case tea.KeyMsg:
		if msg.String() == "ctrl+c" {
			return m, tea.Quit
		}
		if m.filtering() {
			break
		}

		switch msg.String() {
		case "q":
			if m.scr == screenHome {
				return m, tea.Quit
			}
			if m.scr != screenRunning {
				m.scr = screenHome
			}
			return m, nil

		case "esc", "b":
			switch m.scr {
			case screenDetail:
				m.scr = m.back
			case screenList:
				m.scr = screenHome
			}
			return m, nil

		case "enter":
			switch m.scr {
			case screenHome:
				return m.openMenuItem()
			case screenList:
				return m.openRef()
			}

		case "r":
			if m.scr == screenList && m.kind == listInstruments {
				if it, ok := m.picker.SelectedItem().(refItem); ok {
					return m.startRun(it.value, "")
				}
			}
		}
	}

	var cmd tea.Cmd
	switch m.scr {
	case screenHome:
		m.menu, cmd = m.menu.Update(msg)
	case screenList:
		m.picker, cmd = m.picker.Update(msg)
	}
	return m, cmd
}

func (m model) filtering() bool {
	switch m.scr {
	case screenHome:
		return m.menu.FilterState() == list.Filtering
	case screenList:
		return m.picker.FilterState() == list.Filtering
	}
	return false
}

func (m model) openMenuItem() (tea.Model, tea.Cmd) {
	it, ok := m.menu.SelectedItem().(menuItem)
	if !ok {
		return m, nil
	}
	m.toast = ""

	switch it.title {
	case itemQuit:
		return m, tea.Quit
	case itemInit:
		root := m.cwd
		if root == "" {
			root = "."
		}
		return m, cmdInitWorkspaceHere(m.deps, root)
	}

	if !m.workspaceFound {
		m.toast = "No workspace found. Choose " + itemInit + " first."
		return m, nil
	}

	switch it.title {
	case itemRun:
		return m.startRun("", "")
	case itemInstruments:
		return m, cmdLoadInstruments(m.workspaceRoot)
	case itemConditions:
		return m, cmdLoadConditions(m.workspaceRoot)
	case itemRuns:
		return m, cmdLoadRuns(m.workspaceRoot)
	}
	return m, nil
}

func (m model) openRef() (tea.Model, tea.Cmd) {
	it, ok := m.picker.SelectedItem().(refItem)
	if !ok {
		return m, nil
	}

	switch m.kind {
	case listInstruments:
		return m, cmdPreviewInstrument(it.value)
	case listConditions:
		return m.startRun("", it.value)
	case listRuns:
		return m, cmdPreviewRun(m.workspaceRoot, it.value)
	}
	return m, nil
}

func (m model) startRun(instrumentPath, conditions string) (tea.Model, tea.Cmd) {
	if m.running {
		return m, nil
	}
	_, listen := startRunAsync(m.workspaceRoot, instrumentPath, conditions, m.deps.Logger, m.deps.Debug)
	m.running = true
	m.scr = screenRunning
	m.toast = ""
	return m, tea.Batch(listen, m.spin.Tick)
}

func (m model) showRefs(kind listKind, title string, err error, items func() []list.Item) (tea.Model, tea.Cmd) {
	if err != nil {
		m.toast = userMessage(err)
		return m, nil
	}
	m.kind = kind
	m.picker.Title = title
	m.picker.ResetFilter()
	cmd := m.picker.SetItems(items())
	m.picker.Select(0)
	m.scr = screenList
	return m, cmd
}

func rel(root, path string) string {
	if r, err := filepath.Rel(root, path); err == nil {
		return r
	}
	return path
}

func (m model) View() string {
	wrap := lipgloss.NewStyle().Padding(1, 2)
	header := m.theme.Title.Render("desim") + "\n" +
		m.theme.Subtitle.Render("Sensitivity calculator for DESHIMA-type spectrometers") + "\n"

	var workspaceBanner string
	if m.workspaceFound {
		workspaceBanner = m.theme.Help.Render(fmt.Sprintf("Workspace: %s", m.workspaceRoot))
	} else {
		workspaceBanner = m.theme.Warning.Render(
			"⚠ No workspace found.\n\nCreate one with " + itemInit + ".",
		)
	}

	toast := ""
	if m.toast != "" {
		toast = "\n" + m.theme.Toast.Render(m.toast)
	}

	switch m.scr {
	case screenHome:
		help := m.theme.Help.Render("↑/↓ navigate • enter open • / search • q quit")
		return wrap.Render(header + "\n" + workspaceBanner + "\n\n" + m.theme.Card.Render(m.menu.View()) + toast + "\n" + help)

	case screenList:
		keys := "enter open • / search • esc back"
		switch m.kind {
		case listInstruments:
			keys = "enter preview • r run • / search • esc back"
		case listConditions:
			keys = "enter run default instrument • / search • esc back"
		}
		return wrap.Render(header + "\n" + workspaceBanner + "\n\n" + m.theme.Card.Render(m.picker.View()) + toast + "\n" + m.theme.Help.Render(keys))

	case screenRunning:
		card := m.theme.Card.Render(m.spin.View() + " Computing sensitivity...")
		return wrap.Render(header + "\n" + workspaceBanner + "\n\n" + card)

	case screenDetail:
		card := m.theme.Card.Render(
			fmt.Sprintf("%s\n\n%s\n%s",
				m.theme.Title.Render(m.detailTitle),
				m.detail,
				m.theme.Help.Render("esc/b back • q home"),
			),
		)
		return wrap.Render(header + "\n" + workspaceBanner + "\n\n" + card + toast)

	default:
		return wrap.Render(header + "\n" + "unknown state")
	}
}
