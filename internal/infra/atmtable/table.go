// Package atmtable reads the ALMA atmospheric transmission model
// (https://almascience.eso.org/about-alma/atmosphere-model) exported as a
// whitespace-separated table: four preamble lines, a header "F <pwv>...",
// then one row per frequency in GHz with the zenith transmission for each
// precipitable water vapour column in mm.
package atmtable

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"sort"
	"strconv"
	"strings"
	"sync"

	"github.com/deshima-dev/desim/internal/domain"
	"github.com/deshima-dev/desim/internal/ports"
)

const (
	preambleLines = 4
	maxCached     = 64
)

// Table is an in-memory atmosphere model. It is safe for concurrent use.
type Table struct {
	freqs []float64   // GHz, strictly increasing
	pwvs  []float64   // mm, strictly increasing
	zen   [][]float64 // [freq][pwv] zenith transmission

	mu    sync.Mutex
	cache map[float64]*column

	channelAirmass bool
}

// Option configures a Table.
type Option func(*Table)

// WithChannelAirmass applies the elevation airmass to channel-averaged
// transmission (R > 0) too. Off by default: the channel mean is the zenith
// mean, matching deshima-sensitivity.
func WithChannelAirmass(on bool) Option {
	return func(t *Table) { t.channelAirmass = on }
}

var _ ports.Atmosphere = (*Table)(nil)

// Load reads a table from disk.
func Load(path string, opts ...Option) (*Table, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, &domain.OpError{
			Op:   "atmtable.load",
			Kind: domain.KindNotFound,
			Path: path,
			Err:  err,
		}
	}
	defer f.Close()

	t, err := Parse(f, opts...)
	if err != nil {
		return nil, &domain.OpError{
			Op:   "atmtable.load",
			Kind: domain.KindInvalidConfig,
			Path: path,
			Err:  err,
		}
	}
	return t, nil
}

// Parse reads a table from r.
func Parse(r io.Reader, opts ...Option) (*Table, error) {
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	line := 0
	for line < preambleLines && sc.Scan() {
		line++
	}

	var header []string
	for sc.Scan() {
		line++
		if fields := strings.Fields(sc.Text()); len(fields) > 0 {
			header = fields
			break
		}
	}
	if err := sc.Err(); err != nil {
		return nil, err
	}
	if len(header) < 2 {
		return nil, fmt.Errorf("line %d: header needs F and at least one pwv column", line)
	}
	if !strings.EqualFold(header[0], "F") {
		return nil, fmt.Errorf("line %d: first header column must be F, got %q", line, header[0])
	}

	pwvs := make([]float64, len(header)-1)
	for i, h := range header[1:] {
		v, err := strconv.ParseFloat(h, 64)
		if err != nil {
			return nil, fmt.Errorf("line %d: pwv column %q: %w", line, h, err)
		}
		pwvs[i] = v
	}
	order := sortedOrder(pwvs)

	var freqs []float64
	var zen [][]float64
	for sc.Scan() {
		line++
		fields := strings.Fields(sc.Text())
		if len(fields) == 0 {
			continue
		}
		if len(fields) != len(header) {
			return nil, fmt.Errorf("line %d: expected %d columns, got %d", line, len(header), len(fields))
		}

		row := make([]float64, len(fields))
		for i, s := range fields {
			v, err := strconv.ParseFloat(s, 64)
			if err != nil {
				return nil, fmt.Errorf("line %d: column %d: %w", line, i+1, err)
			}
			row[i] = v
		}
		if n := len(freqs); n > 0 && row[0] <= freqs[n-1] {
			return nil, fmt.Errorf("line %d: frequencies must be strictly increasing", line)
		}

		freqs = append(freqs, row[0])
		vals := make([]float64, len(order))
		for j, idx := range order {
			vals[j] = row[idx+1]
		}
		zen = append(zen, vals)
	}
	if err := sc.Err(); err != nil {
		return nil, err
	}
	if len(freqs) < 2 {
		return nil, fmt.Errorf("table needs at least two frequency rows, got %d", len(freqs))
	}

	sortedPWV := make([]float64, len(order))
	for j, idx := range order {
		sortedPWV[j] = pwvs[idx]
	}
	for j := 1; j < len(sortedPWV); j++ {
		if sortedPWV[j] == sortedPWV[j-1] {
			return nil, fmt.Errorf("duplicate pwv column %g", sortedPWV[j])
		}
	}

	t := &Table{
		freqs: freqs,
		pwvs:  sortedPWV,
		zen:   zen,
		cache: map[float64]*column{},
	}
	for _, opt := range opts {
		opt(t)
	}
	return t, nil
}

// FrequencyRange returns the tabulated frequency range in Hz.
func (t *Table) FrequencyRange() (lo, hi float64) {
	return t.freqs[0] * 1e9, t.freqs[len(t.freqs)-1] * 1e9
}

// PWVRange returns the tabulated pwv range in mm.
func (t *Table) PWVRange() (lo, hi float64) {
	return t.pwvs[0], t.pwvs[len(t.pwvs)-1]
}

func sortedOrder(vals []float64) []int {
	idx := make([]int, len(vals))
	for i := range idx {
		idx[i] = i
	}
	sort.SliceStable(idx, func(a, b int) bool { return vals[idx[a]] < vals[idx[b]] })
	return idx
}
