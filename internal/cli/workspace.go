package cli

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/deshima-dev/desim/internal/domain"
	"github.com/deshima-dev/desim/internal/infra/atmtable"
	"github.com/deshima-dev/desim/internal/infra/logger"
	"github.com/deshima-dev/desim/internal/infra/runstore"
	"github.com/deshima-dev/desim/internal/infra/workspacefinder"
	"github.com/deshima-dev/desim/internal/infra/yamlconditions"
	"github.com/deshima-dev/desim/internal/infra/yamlinstrument"
)

type workspaceCtx struct {
	root string
	cfg  domain.Config

	instruments *yamlinstrument.Loader
	conditions  *yamlconditions.Loader

	store *runstore.JSONStore
	atm   *atmtable.Lazy

	closeLog func() error
}

// loadWorkspace resolves the workspace, its config and adapters, and starts
// the file logger. Callers must call close.
func loadWorkspace(cmd *cobra.Command, workspaceFlag string) (*workspaceCtx, error) {
	return openWorkspace(cmd, workspaceFlag, nil)
}

func openWorkspace(cmd *cobra.Command, workspaceFlag string, console io.Writer) (*workspaceCtx, error) {
	root, err := resolveWorkspaceRoot(workspaceFlag)
	if err != nil {
		return nil, err
	}

	cfg, err := workspacefinder.LoadConfig(root)
	if err != nil && !domain.IsKind(err, domain.KindNotFound) {
		return nil, err
	}

	debug, _ := cmd.Flags().GetBool("debug")
	closeLog, _ := logger.Setup(logger.Config{Root: root, Debug: debug, Console: console})

	return &workspaceCtx{
		root: root,
		cfg:  cfg,
		instruments: yamlinstrument.NewLoader(
			yamlinstrument.WithInstrumentsDir(cfg.Paths.InstrumentsDir),
		),
		conditions: yamlconditions.NewLoader(
			root,
			yamlconditions.WithConditionsDir(cfg.Paths.ConditionsDir),
		),
		store:    runstore.NewJSONStore(root, cfg),
		atm:      atmtable.NewLazy(inRoot(root, cfg.Paths.Atmosphere), atmtable.WithChannelAirmass(cfg.Atmosphere.ChannelAirmass)),
		closeLog: closeLog,
	}, nil
}

func (ws *workspaceCtx) close() {
	if ws != nil && ws.closeLog != nil {
		_ = ws.closeLog()
	}
}

func resolveWorkspaceRoot(workspaceFlag string) (string, error) {
	w := strings.TrimSpace(workspaceFlag)
	if w != "" {
		abs, err := filepath.Abs(w)
		if err != nil {
			return "", fmt.Errorf("invalid workspace path: %w", err)
		}
		return abs, nil
	}

	wd, err := os.Getwd()
	if err != nil {
		return "", fmt.Errorf("get working directory: %w", err)
	}

	root, err := workspacefinder.NewFinder().FindRoot(wd)
	if err != nil {
		return "", fmt.Errorf("workspace not found from %q (tip: run `desim init`): %w", wd, err)
	}
	return root, nil
}

// resolveInstrumentPath maps a name, file name or path to an instrument file.
// An empty argument selects the workspace default.
func resolveInstrumentPath(ws *workspaceCtx, arg string) (string, error) {
	in := strings.TrimSpace(arg)
	if in == "" {
		in = ws.cfg.Defaults.Instrument
	}
	if in == "" {
		return "", fmt.Errorf("instrument is required (use --instrument or -i)")
	}

	if looksLikePath(in) {
		return inRoot(ws.root, in), nil
	}

	p := ws.instruments.Resolve(ws.root, in)
	if hasYAMLExt(in) {
		p = filepath.Join(ws.root, ws.cfg.Paths.InstrumentsDir, in)
	}
	if fileExists(p) {
		return p, nil
	}
	if !hasYAMLExt(in) {
		if alt := filepath.Join(ws.root, ws.cfg.Paths.InstrumentsDir, in+".yml"); fileExists(alt) {
			return alt, nil
		}
	}

	// Last resort: match by the "name" field.
	refs, err := ws.instruments.ListInstruments(ws.root)
	if err == nil {
		for _, r := range refs {
			if strings.EqualFold(r.Name, in) {
				return r.Path, nil
			}
		}
	}

	return "", &domain.OpError{
		Op:   "cli.instrument",
		Kind: domain.KindNotFound,
		Path: filepath.Join(ws.root, ws.cfg.Paths.InstrumentsDir),
		Err:  fmt.Errorf("instrument %q: %w", in, domain.ErrNotFound),
	}
}

// resolveConditionsArg returns what the conditions loader expects. Empty
// falls back to the workspace default; an empty default means built-in values.
func resolveConditionsArg(ws *workspaceCtx, arg string) string {
	in := strings.TrimSpace(arg)
	if in == "" {
		return ws.cfg.Defaults.Conditions
	}
	if looksLikePath(in) {
		return inRoot(ws.root, in)
	}
	if hasYAMLExt(in) {
		return filepath.Join(ws.root, ws.cfg.Paths.ConditionsDir, in)
	}
	return in
}

func inRoot(root, p string) string {
	if filepath.IsAbs(p) {
		return filepath.Clean(p)
	}
	return filepath.Join(root, p)
}

func looksLikePath(s string) bool {
	return strings.Contains(s, "/") || strings.Contains(s, string(filepath.Separator))
}

func hasYAMLExt(s string) bool {
	ext := strings.ToLower(filepath.Ext(s))
	return ext == ".yaml" || ext == ".yml"
}

func fileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}
