package ports

import "github.com/deshima-dev/desim/internal/domain"

// InstrumentLoader loads instrument descriptions from a source (e.g., filesystem).
type InstrumentLoader interface {
	LoadInstrument(path string) (domain.Instrument, error)
	ListInstruments(root string) ([]domain.InstrumentRef, error)
}
