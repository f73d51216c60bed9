package ports

import "github.com/deshima-dev/desim/internal/domain"

// AtmosphereInstaller checks a downloaded atmosphere table and writes it to dest.
type AtmosphereInstaller interface {
	Install(dest string, data []byte) (domain.AtmosphereInfo, error)
}
