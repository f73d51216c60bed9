package tui

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/deshima-dev/desim/internal/domain"
	"github.com/deshima-dev/desim/internal/infra/atmtable"
	"github.com/deshima-dev/desim/internal/infra/runstore"
	"github.com/deshima-dev/desim/internal/infra/workspacefinder"
	"github.com/deshima-dev/desim/internal/infra/yamlconditions"
	"github.com/deshima-dev/desim/internal/infra/yamlinstrument"
	"github.com/deshima-dev/desim/internal/usecase"
)

func cmdRefreshWorkspace(deps Deps) tea.Cmd {
	return func() tea.Msg {
		wd, err := deps.workdir()
		if err != nil {
			return workspaceRefreshedMsg{cwd: "", found: false, err: fmt.Errorf("getwd: %w", err)}
		}
		if deps.WorkspaceLocator == nil {
			return workspaceRefreshedMsg{cwd: wd, found: false, err: errors.New("WorkspaceLocator is nil")}
		}

		root, findErr := deps.WorkspaceLocator.FindRoot(wd)
		if findErr != nil {
			return workspaceRefreshedMsg{cwd: wd, found: false, err: findErr}
		}

		return workspaceRefreshedMsg{cwd: wd, found: true, root: root, err: nil}
	}
}

func cmdInitWorkspaceHere(deps Deps, root string) tea.Cmd {
	return func() tea.Msg {
		if deps.WorkspaceInitializer == nil {
			return initWorkspaceDoneMsg{root: root, err: errors.New("WorkspaceInitializer is nil")}
		}

		abs, err := usecase.NewInitWorkspace(deps.WorkspaceInitializer).Execute(root, false)
		if err != nil {
			return initWorkspaceDoneMsg{root: root, err: err}
		}
		return initWorkspaceDoneMsg{root: abs}
	}
}

func instrumentLoader(cfg domain.Config) *yamlinstrument.Loader {
	return yamlinstrument.NewLoader(yamlinstrument.WithInstrumentsDir(cfg.Paths.InstrumentsDir))
}

func cmdLoadInstruments(root string) tea.Cmd {
	return func() tea.Msg {
		cfg, err := workspacefinder.LoadConfig(root)
		if err != nil {
			return instrumentsLoadedMsg{root: root, err: err}
		}

		refs, err := instrumentLoader(cfg).ListInstruments(root)
		return instrumentsLoadedMsg{root: root, refs: refs, err: err}
	}
}

func cmdLoadConditions(root string) tea.Cmd {
	return func() tea.Msg {
		cfg, err := workspacefinder.LoadConfig(root)
		if err != nil {
			return conditionsLoadedMsg{root: root, err: err}
		}

		loader := yamlconditions.NewLoader(root, yamlconditions.WithConditionsDir(cfg.Paths.ConditionsDir))
		refs, err := loader.ListConditions(root)
		return conditionsLoadedMsg{root: root, refs: refs, err: err}
	}
}

func cmdLoadRuns(root string) tea.Cmd {
	return func() tea.Msg {
		cfg, err := workspacefinder.LoadConfig(root)
		if err != nil {
			return runsLoadedMsg{root: root, err: err}
		}

		refs, err := runstore.NewJSONStore(root, cfg).ListRuns()
		return runsLoadedMsg{root: root, refs: refs, err: err}
	}
}

func cmdPreviewInstrument(path string) tea.Cmd {
	return func() tea.Msg {
		p := filepath.Clean(path)

		inst, err := yamlinstrument.NewLoader().LoadInstrument(p)
		if err != nil {
			return previewMsg{title: filepath.Base(p), err: err}
		}
		return previewMsg{title: inst.Name, preview: renderInstrument(inst)}
	}
}

func cmdPreviewRun(root, id string) tea.Cmd {
	return func() tea.Msg {
		cfg, err := workspacefinder.LoadConfig(root)
		if err != nil {
			return previewMsg{title: id, err: err}
		}

		run, err := runstore.NewJSONStore(root, cfg).LoadRun(id)
		if err != nil {
			return previewMsg{title: id, err: err}
		}
		return previewMsg{title: "Run " + clampString(run.ID, 8), preview: renderRunSummary(run)}
	}
}

func listenRunner(ch <-chan runnerDoneMsg) tea.Cmd {
	return func() tea.Msg {
		msg, ok := <-ch
		if !ok {
			return runnerDoneMsg{err: errors.New("runner channel closed")}
		}
		return msg
	}
}

// startRunAsync runs the default or selected instrument under the given
// conditions and saves the artifact. Empty arguments use the workspace defaults.
func startRunAsync(
	workspaceRoot, instrumentPath, conditions string,
	log *slog.Logger,
	debug bool,
) (chan runnerDoneMsg, tea.Cmd) {
	ch := make(chan runnerDoneMsg, 1)

	if log == nil {
		log = slog.Default()
	}

	go func() {
		defer close(ch)

		cfg, err := workspacefinder.LoadConfig(workspaceRoot)
		if err != nil {
			log.Error("tui.run.load_config.failed", "err", err)
			ch <- runnerDoneMsg{err: err}
			return
		}

		instruments := instrumentLoader(cfg)
		if instrumentPath == "" {
			instrumentPath = instruments.Resolve(workspaceRoot, cfg.Defaults.Instrument)
		}
		if conditions == "" {
			conditions = cfg.Defaults.Conditions
		}

		log.Info("tui.run.start",
			"workspace", workspaceRoot,
			"instrument_path", instrumentPath,
			"conditions", conditions,
			"debug", debug,
		)

		atmPath := cfg.Paths.Atmosphere
		if !filepath.IsAbs(atmPath) {
			atmPath = filepath.Join(workspaceRoot, atmPath)
		}

		uc := usecase.NewRunSensitivity(
			instruments,
			yamlconditions.NewLoader(workspaceRoot, yamlconditions.WithConditionsDir(cfg.Paths.ConditionsDir)),
			atmtable.NewLazy(atmPath, atmtable.WithChannelAirmass(cfg.Atmosphere.ChannelAirmass)),
			usecase.WithStore(runstore.NewJSONStore(workspaceRoot, cfg)),
			usecase.WithRunWorkers(cfg.Run.Workers),
			usecase.WithRunLogger(log),
		)

		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
		defer cancel()

		run, execErr := uc.Execute(ctx, usecase.RunRequest{
			InstrumentPath: instrumentPath,
			Conditions:     conditions,
		})
		if execErr != nil {
			log.Error("tui.run.failed", "err", execErr, "saved_id", run.ID)
		} else if debug {
			for _, c := range run.Checks {
				log.Debug("check", "name", c.Name, "passed", c.Passed, "message", c.Message)
			}
		}

		ch <- runnerDoneMsg{run: run, err: execErr}
	}()

	return ch, listenRunner(ch)
}
