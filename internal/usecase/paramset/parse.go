package paramset

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"gonum.org/v1/gonum/floats"

	"github.com/deshima-dev/desim/internal/domain"
)

const maxSweepPoints = 100_000

// ParseAssignment parses "name=value". Boolean parameters accept true/false.
func ParseAssignment(s string) (string, float64, error) {
	name, raw, ok := strings.Cut(s, "=")
	name = strings.TrimSpace(name)
	raw = strings.TrimSpace(raw)
	if !ok || name == "" || raw == "" {
		return "", 0, domain.InvalidParam("paramset.parse", s, "expected name=value")
	}
	if _, known := registry[name]; !known {
		return "", 0, unknown(name)
	}

	v, err := parseValue(name, raw)
	if err != nil {
		return "", 0, err
	}
	return name, v, nil
}

// ParseSweep parses one of
//
//	name=v1,v2,v3
//	name=start:stop:count       (linear)
//	name=start:stop:count:log   (geometric)
func ParseSweep(s string) (domain.Sweep, error) {
	name, raw, ok := strings.Cut(s, "=")
	name = strings.TrimSpace(name)
	raw = strings.TrimSpace(raw)
	if !ok || name == "" || raw == "" {
		return domain.Sweep{}, domain.InvalidParam("paramset.sweep", s, "expected name=values")
	}
	if _, known := registry[name]; !known {
		return domain.Sweep{}, unknown(name)
	}

	if strings.Contains(raw, ":") {
		values, err := parseRange(name, raw)
		if err != nil {
			return domain.Sweep{}, err
		}
		return domain.Sweep{Param: name, Values: values}, nil
	}

	parts := strings.Split(raw, ",")
	values := make([]float64, 0, len(parts))
	for _, part := range parts {
		v, err := parseValue(name, strings.TrimSpace(part))
		if err != nil {
			return domain.Sweep{}, err
		}
		values = append(values, v)
	}
	return domain.Sweep{Param: name, Values: values}, nil
}

func parseRange(name, raw string) ([]float64, error) {
	parts := strings.Split(raw, ":")
	if len(parts) != 3 && len(parts) != 4 {
		return nil, domain.InvalidParam("paramset.sweep", name, "range must be start:stop:count[:log]")
	}

	start, err := parseValue(name, parts[0])
	if err != nil {
		return nil, err
	}
	stop, err := parseValue(name, parts[1])
	if err != nil {
		return nil, err
	}
	count, err := strconv.Atoi(strings.TrimSpace(parts[2]))
	if err != nil || count < 1 || count > maxSweepPoints {
		return nil, domain.InvalidParam("paramset.sweep", name, fmt.Sprintf("count must be 1..%d", maxSweepPoints))
	}

	logScale := false
	if len(parts) == 4 {
		switch strings.ToLower(strings.TrimSpace(parts[3])) {
		case "log":
			logScale = true
		case "lin", "linear":
		default:
			return nil, domain.InvalidParam("paramset.sweep", name, fmt.Sprintf("unknown scale %q", parts[3]))
		}
	}

	if logScale {
		if start <= 0 || stop <= 0 {
			return nil, domain.InvalidParam("paramset.sweep", name, "log range needs positive bounds")
		}
		return geomspace(start, stop, count), nil
	}
	return linspace(start, stop, count), nil
}

func parseValue(name, raw string) (float64, error) {
	if IsFlag(name) {
		b, err := strconv.ParseBool(raw)
		if err != nil {
			return 0, domain.InvalidParam("paramset.parse", name, fmt.Sprintf("expected true/false, got %q", raw))
		}
		if b {
			return 1, nil
		}
		return 0, nil
	}

	v, err := strconv.ParseFloat(raw, 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, domain.InvalidParam("paramset.parse", name, fmt.Sprintf("expected a number, got %q", raw))
	}
	return v, nil
}

func linspace(start, stop float64, n int) []float64 {
	if n == 1 {
		return []float64{start}
	}
	out := floats.Span(make([]float64, n), start, stop)
	out[n-1] = stop
	return out
}

func geomspace(start, stop float64, n int) []float64 {
	if n == 1 {
		return []float64{start}
	}
	out := make([]float64, n)
	ratio := math.Pow(stop/start, 1/float64(n-1))
	v := start
	for i := range out {
		out[i] = v
		v *= ratio
	}
	out[n-1] = stop
	return out
}

// Channels returns filterbank centre frequencies from fmin up to fmax,
// spaced by one resolution element (F_{i+1} = F_i (1 + 1/R)).
func Channels(fmin, fmax, r float64) ([]float64, error) {
	switch {
	case fmin <= 0 || fmax <= 0:
		return nil, domain.InvalidParam("paramset.channels", "band", "frequencies must be positive")
	case fmax < fmin:
		return nil, domain.InvalidParam("paramset.channels", "band", "f_max is below f_min")
	case r <= 0:
		return nil, domain.InvalidParam("paramset.channels", "R", "must be positive")
	}

	step := 1 + 1/r
	n := int(math.Floor(math.Log(fmax/fmin)/math.Log(step)+1e-9)) + 1
	if n > maxSweepPoints {
		return nil, domain.InvalidParam("paramset.channels", "band", fmt.Sprintf("%d channels exceeds %d", n, maxSweepPoints))
	}

	out := make([]float64, n)
	f := fmin
	for i := range out {
		out[i] = f
		f *= step
	}
	return out, nil
}
