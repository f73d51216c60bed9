package atmtable

import (
	"bytes"
	"os"
	"path/filepath"

	"github.com/google/renameio/v2"

	"github.com/deshima-dev/desim/internal/domain"
	"github.com/deshima-dev/desim/internal/ports"
)

// Installer writes downloaded tables after checking that they parse.
type Installer struct{}

var _ ports.AtmosphereInstaller = Installer{}

func (Installer) Install(dest string, data []byte) (domain.AtmosphereInfo, error) {
	t, err := Parse(bytes.NewReader(data))
	if err != nil {
		return domain.AtmosphereInfo{}, &domain.OpError{
			Op:   "atmtable.install",
			Kind: domain.KindInvalidConfig,
			Path: dest,
			Err:  err,
		}
	}

	if err := os.MkdirAll(filepath.Dir(dest), 0o755); err != nil {
		return domain.AtmosphereInfo{}, &domain.OpError{Op: "atmtable.install", Kind: domain.KindExecution, Path: dest, Err: err}
	}
	if err := renameio.WriteFile(dest, data, 0o644); err != nil {
		return domain.AtmosphereInfo{}, &domain.OpError{Op: "atmtable.install", Kind: domain.KindExecution, Path: dest, Err: err}
	}

	return t.Info(dest), nil
}

// Info summarizes the table coverage.
func (t *Table) Info(path string) domain.AtmosphereInfo {
	fLo, fHi := t.FrequencyRange()
	pLo, pHi := t.PWVRange()
	return domain.AtmosphereInfo{
		Path:   path,
		Rows:   len(t.freqs),
		FMinHz: fLo,
		FMaxHz: fHi,
		PWVMin: pLo,
		PWVMax: pHi,
	}
}
