package check

import (
	"fmt"
	"math"

	"github.com/deshima-dev/desim/internal/domain"
)

// Min checks that every row has column >= bound. NaN never passes.
func Min(column string, bound float64, tbl domain.Table) domain.CheckResult {
	return bounded(column+".min", column, ">=", bound, "below", tbl,
		func(v float64) bool { return v < bound },
		func(a, b float64) bool { return a < b })
}

// Max checks that every row has column <= bound. NaN never passes.
func Max(column string, bound float64, tbl domain.Table) domain.CheckResult {
	return bounded(column+".max", column, "<=", bound, "above", tbl,
		func(v float64) bool { return v > bound },
		func(a, b float64) bool { return a > b })
}

func bounded(name, column, op string, bound float64, side string, tbl domain.Table, violates func(float64) bool, worse func(a, b float64) bool) domain.CheckResult {
	w, violations, err := scan(column, tbl, violates, worse)
	if err != nil {
		return domain.CheckResult{Name: name, Passed: false, Message: err.Error()}
	}
	if violations == 0 {
		return domain.CheckResult{
			Name:    name,
			Passed:  true,
			Message: fmt.Sprintf("%s %s %g in %d row(s)", column, op, bound, len(tbl.Rows)),
		}
	}
	return domain.CheckResult{
		Name:   name,
		Passed: false,
		Message: fmt.Sprintf("expected %s %s %g, got %g at row %d (F=%.4g GHz); %d row(s) %s",
			column, op, bound, w.value, w.row, w.fHz/1e9, violations, side),
		Violations: violations,
	}
}

// Evaluate applies every check to the table, in declaration order.
func Evaluate(specs []domain.CheckSpec, tbl domain.Table) []domain.CheckResult {
	var out []domain.CheckResult
	for _, s := range specs {
		if s.Min != nil {
			out = append(out, Min(s.Column, *s.Min, tbl))
		}
		if s.Max != nil {
			out = append(out, Max(s.Column, *s.Max, tbl))
		}
	}
	return out
}

type violation struct {
	value float64
	row   int
	fHz   float64
}

// scan returns the worst violating row and the violation count. A NaN is
// a violation and ranks worst; the first NaN is kept.
func scan(column string, tbl domain.Table, violates func(float64) bool, worse func(a, b float64) bool) (violation, int, error) {
	if len(tbl.Rows) == 0 {
		return violation{}, 0, fmt.Errorf("%s: no rows to check", column)
	}

	var w violation
	violations := 0
	for i, r := range tbl.Rows {
		v, ok := r.Column(column)
		if !ok {
			return violation{}, 0, fmt.Errorf("unknown column %q", column)
		}
		nan := math.IsNaN(v)
		if !nan && !violates(v) {
			continue
		}
		if violations == 0 || replaces(v, w.value, worse) {
			w = violation{value: v, row: i, fHz: r.F}
		}
		violations++
	}
	return w, violations, nil
}

func replaces(v, cur float64, worse func(a, b float64) bool) bool {
	switch {
	case math.IsNaN(cur):
		return false
	case math.IsNaN(v):
		return true
	}
	return worse(v, cur)
}
