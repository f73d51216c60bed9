package atmtable

import (
	"fmt"
	"math"
	"sort"

	"gonum.org/v1/gonum/interp"
	"gonum.org/v1/gonum/stat"

	"github.com/deshima-dev/desim/internal/domain"
)

type predictor interface {
	Fit(xs, ys []float64) error
	Predict(x float64) float64
}

// column is the zenith transmission over the full frequency grid at one pwv.
type column struct {
	values []float64
	spline predictor
}

// Transmission returns the atmospheric transmission at elevation elDeg for
// a channel centred on fHz with resolving power r. For r == 0 the spectrum
// is sampled at fHz and corrected for airmass; otherwise the tabulated
// zenith points strictly inside F(1 ± 0.5/R) are averaged, with the airmass
// applied per sample only under WithChannelAirmass.
func (t *Table) Transmission(fHz, pwvMM, elDeg, r float64) (float64, error) {
	if elDeg <= 0 || elDeg > 90 {
		return 0, outOfRange("EL", fmt.Sprintf("elevation %g deg outside (0, 90]", elDeg))
	}
	if r < 0 {
		return 0, outOfRange("R", "must not be negative")
	}
	lo, hi := t.PWVRange()
	if pwvMM < lo || pwvMM > hi {
		return 0, outOfRange("pwv", fmt.Sprintf("%g mm outside table range [%g, %g]", pwvMM, lo, hi))
	}
	f := fHz / 1e9
	if f < t.freqs[0] || f > t.freqs[len(t.freqs)-1] {
		return 0, outOfRange("F", fmt.Sprintf("%g GHz outside table range [%g, %g]", f, t.freqs[0], t.freqs[len(t.freqs)-1]))
	}

	col, err := t.column(pwvMM)
	if err != nil {
		return 0, err
	}
	airmass := 1 / math.Sin(elDeg*math.Pi/180)

	if r == 0 {
		if col.spline == nil {
			return 0, &domain.OpError{Op: "atmtable.transmission", Kind: domain.KindExecution, Err: fmt.Errorf("no spline for pwv %g", pwvMM)}
		}
		return math.Pow(math.Abs(col.spline.Predict(f)), airmass), nil
	}

	chLo, chHi := f*(1-0.5/r), f*(1+0.5/r)
	start := sort.Search(len(t.freqs), func(i int) bool { return t.freqs[i] > chLo })
	power := 1.0
	if t.channelAirmass {
		power = airmass
	}
	var samples []float64
	for i := start; i < len(t.freqs) && t.freqs[i] < chHi; i++ {
		samples = append(samples, math.Pow(math.Abs(col.values[i]), power))
	}
	if len(samples) == 0 {
		return 0, outOfRange("R", fmt.Sprintf("no tabulated frequency inside channel %g-%g GHz", chLo, chHi))
	}
	return stat.Mean(samples, nil), nil
}

func (t *Table) column(pwv float64) (*column, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if c, ok := t.cache[pwv]; ok {
		return c, nil
	}

	values := make([]float64, len(t.freqs))
	for i, row := range t.zen {
		v, err := interpolate(t.pwvs, row, pwv)
		if err != nil {
			return nil, &domain.OpError{Op: "atmtable.pwv", Kind: domain.KindExecution, Err: err}
		}
		values[i] = v
	}

	spline := newPredictor(len(t.freqs))
	if err := spline.Fit(t.freqs, values); err != nil {
		return nil, &domain.OpError{Op: "atmtable.freq", Kind: domain.KindExecution, Err: err}
	}

	if len(t.cache) >= maxCached {
		t.cache = map[float64]*column{}
	}
	c := &column{values: values, spline: spline}
	t.cache[pwv] = c
	return c, nil
}

// interpolate evaluates ys(xs) at x with a natural cubic spline, falling
// back to linear interpolation for short series.
func interpolate(xs, ys []float64, x float64) (float64, error) {
	if len(xs) == 1 {
		return ys[0], nil
	}
	p := newPredictor(len(xs))
	if err := p.Fit(xs, ys); err != nil {
		return 0, err
	}
	return p.Predict(x), nil
}

func newPredictor(n int) predictor {
	if n < 3 {
		return &interp.PiecewiseLinear{}
	}
	return &interp.NaturalCubic{}
}

func outOfRange(name, msg string) error {
	return domain.OutOfRange("atmtable.transmission", name, msg)
}
