package workspacefinder

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/deshima-dev/desim/internal/domain"
)

// EnvWorkspace pins the workspace root, skipping the upward search.
const EnvWorkspace = EnvPrefix + "_WORKSPACE"

// Finder locates a desim workspace: the nearest directory at or above the
// start that holds desim.yaml, unless DESIM_WORKSPACE names one.
type Finder struct {
	ConfigFile string
	Getenv     func(string) string
}

func NewFinder() *Finder {
	return &Finder{ConfigFile: ConfigFile, Getenv: os.Getenv}
}

func (f *Finder) FindRoot(startDir string) (string, error) {
	if pinned := f.pinned(); pinned != "" {
		return f.checkPinned(pinned)
	}

	if strings.TrimSpace(startDir) == "" {
		return "", &domain.OpError{
			Op:   "workspacefinder.findroot",
			Kind: domain.KindInvalidConfig,
			Err:  errors.New("start directory is empty"),
		}
	}

	dir, err := startFrom(startDir)
	if err != nil {
		return "", err
	}

	for cur := dir; ; {
		if f.hasConfig(cur) {
			return cur, nil
		}
		parent := filepath.Dir(cur)
		if parent == cur {
			return "", &domain.OpError{
				Op:   "workspacefinder.findroot",
				Kind: domain.KindNotFound,
				Path: dir,
				Err:  fmt.Errorf("no %s in %s or any parent (run 'desim init'): %w", f.ConfigFile, dir, domain.ErrNotFound),
			}
		}
		cur = parent
	}
}

func (f *Finder) pinned() string {
	if f.Getenv == nil {
		return ""
	}
	return strings.TrimSpace(f.Getenv(EnvWorkspace))
}

func (f *Finder) checkPinned(dir string) (string, error) {
	abs, err := filepath.Abs(dir)
	if err != nil {
		return "", &domain.OpError{Op: "workspacefinder.findroot", Kind: domain.KindExecution, Path: dir, Err: err}
	}
	if !f.hasConfig(abs) {
		return "", &domain.OpError{
			Op:   "workspacefinder.findroot",
			Kind: domain.KindNotFound,
			Path: abs,
			Err:  fmt.Errorf("%s=%s has no %s: %w", EnvWorkspace, dir, f.ConfigFile, domain.ErrNotFound),
		}
	}
	return abs, nil
}

func (f *Finder) hasConfig(dir string) bool {
	info, err := os.Stat(filepath.Join(dir, f.ConfigFile))
	return err == nil && !info.IsDir()
}

// startFrom makes the start absolute; a file path starts at its directory.
func startFrom(p string) (string, error) {
	abs, err := filepath.Abs(p)
	if err != nil {
		return "", &domain.OpError{Op: "workspacefinder.findroot", Kind: domain.KindExecution, Path: p, Err: err}
	}
	if info, err := os.Stat(abs); err == nil && !info.IsDir() {
		abs = filepath.Dir(abs)
	}
	return filepath.Clean(abs), nil
}
