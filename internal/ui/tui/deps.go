package tui

import (
	"log/slog"
	"os"

	"github.com/deshima-dev/desim/internal/ports"
)

// Deps are the adapters the TUI needs from the CLI wiring.
type Deps struct {
	WorkspaceLocator     ports.WorkspaceLocator
	WorkspaceInitializer ports.WorkspaceInitializer

	Logger *slog.Logger
	Debug  bool

	// Getwd defaults to os.Getwd.
	Getwd func() (string, error)
}

func (d Deps) workdir() (string, error) {
	if d.Getwd != nil {
		return d.Getwd()
	}
	return os.Getwd()
}
