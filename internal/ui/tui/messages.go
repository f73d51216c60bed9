package tui

import "github.com/deshima-dev/desim/internal/domain"

type workspaceRefreshedMsg struct {
	cwd   string
	found bool
	root  string
	err   error
}

type initWorkspaceDoneMsg struct {
	root string
	err  error
}

type instrumentsLoadedMsg struct {
	root string
	refs []domain.InstrumentRef
	err  error
}

type conditionsLoadedMsg struct {
	root string
	refs []domain.ConditionsRef
	err  error
}

type runsLoadedMsg struct {
	root string
	refs []domain.RunRef
	err  error
}

type previewMsg struct {
	title   string
	preview string
	err     error
}

type runnerDoneMsg struct {
	run domain.RunArtifact
	err error
}
