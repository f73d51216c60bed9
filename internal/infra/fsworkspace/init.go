package fsworkspace

import (
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/renameio/v2"

	"github.com/deshima-dev/desim/internal/domain"
	"github.com/deshima-dev/desim/internal/ports"
)

type Initializer struct {
	cfg domain.Config
}

func NewInitializer() *Initializer {
	return &Initializer{cfg: domain.DefaultConfig()}
}

var _ ports.WorkspaceInitializer = (*Initializer)(nil)

// Init creates the workspace directories and writes the templates.
// Existing files are kept unless force is set.
func (i *Initializer) Init(spec domain.WorkspaceSpec, force bool) error {
	root := filepath.Clean(spec.Root)

	dirs := []string{
		filepath.Join(root, i.cfg.Paths.InstrumentsDir),
		filepath.Join(root, i.cfg.Paths.ConditionsDir),
		filepath.Join(root, i.cfg.Paths.RunsDir),
		filepath.Join(root, filepath.Dir(i.cfg.Paths.Atmosphere)),
		filepath.Join(root, ".desim", "logs"),
	}

	for _, d := range dirs {
		if err := os.MkdirAll(d, 0o755); err != nil {
			return execErr(d, err)
		}
	}

	if err := ensureGitignore(root); err != nil {
		return execErr(filepath.Join(root, ".gitignore"), err)
	}

	return fs.WalkDir(templatesFS, "templates", func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}

		rel := strings.TrimPrefix(p, "templates/")
		dst := filepath.Join(root, filepath.FromSlash(rel))

		if !force {
			if _, statErr := os.Stat(dst); statErr == nil {
				return nil
			}
		}

		if err := os.MkdirAll(filepath.Dir(dst), 0o755); err != nil {
			return execErr(dst, err)
		}

		b, err := fs.ReadFile(templatesFS, p)
		if err != nil {
			return execErr(p, err)
		}

		if err := renameio.WriteFile(dst, b, 0o644); err != nil {
			return execErr(dst, err)
		}
		return nil
	})
}

func execErr(path string, err error) error {
	return &domain.OpError{
		Op:   "fsworkspace.init",
		Kind: domain.KindExecution,
		Path: path,
		Err:  err,
	}
}

const gitignoreHeader = "# desim"

// ignored lists generated paths: saved runs, logs and the downloaded
// atmosphere table.
var ignored = []string{"runs/", ".desim/", "data/atm.csv"}

// ensureGitignore appends the entries of ignored that .gitignore lacks.
// "runs", "/runs" and "/runs/" all count as present.
func ensureGitignore(root string) error {
	path := filepath.Join(root, ".gitignore")

	b, err := os.ReadFile(path)
	if err != nil && !os.IsNotExist(err) {
		return err
	}
	existing := string(b)

	present := map[string]bool{}
	for _, line := range strings.Split(existing, "\n") {
		present[normalizeIgnore(line)] = true
	}

	var add []string
	for _, e := range ignored {
		if !present[normalizeIgnore(e)] {
			add = append(add, e)
		}
	}
	if len(add) == 0 {
		return nil
	}

	var out strings.Builder
	out.WriteString(existing)
	if existing != "" {
		if !strings.HasSuffix(existing, "\n") {
			out.WriteByte('\n')
		}
		out.WriteByte('\n')
	}
	if !present[gitignoreHeader] {
		out.WriteString(gitignoreHeader + "\n")
	}
	out.WriteString(strings.Join(add, "\n") + "\n")

	return renameio.WriteFile(path, []byte(out.String()), 0o644)
}

func normalizeIgnore(line string) string {
	s := strings.TrimSpace(line)
	if strings.HasPrefix(s, "#") {
		return s
	}
	return strings.Trim(s, "/")
}
