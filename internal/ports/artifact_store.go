package ports

import "github.com/deshima-dev/desim/internal/domain"

// ArtifactStore persists run artifacts for reproducibility.
type ArtifactStore interface {
	SaveRun(run domain.RunArtifact) (id string, err error)
	ListRuns() ([]domain.RunRef, error)
	LoadRun(id string) (domain.RunArtifact, error)
}
