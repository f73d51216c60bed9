package atmtable

import (
	"sync"

	"github.com/deshima-dev/desim/internal/ports"
)

// Lazy loads the table at path on first use, so runs that pin eta_atm
// never need the file.
type Lazy struct {
	path string
	opts []Option

	once  sync.Once
	table *Table
	err   error
}

func NewLazy(path string, opts ...Option) *Lazy {
	return &Lazy{path: path, opts: opts}
}

var _ ports.Atmosphere = (*Lazy)(nil)

func (l *Lazy) Transmission(fHz, pwvMM, elDeg, r float64) (float64, error) {
	t, err := l.Table()
	if err != nil {
		return 0, err
	}
	return t.Transmission(fHz, pwvMM, elDeg, r)
}

// Table returns the loaded table. A failed load is not retried.
func (l *Lazy) Table() (*Table, error) {
	l.once.Do(func() {
		l.table, l.err = Load(l.path, l.opts...)
	})
	return l.table, l.err
}

func (l *Lazy) Path() string { return l.path }
