package tui

import (
	"fmt"
	"math"
	"strings"
	"unicode/utf8"

	"github.com/deshima-dev/desim/internal/domain"
)

func clampString(s string, maxLen int) string {
	if maxLen <= 0 {
		return ""
	}
	if utf8.RuneCountInString(s) <= maxLen {
		return s
	}
	var b strings.Builder
	b.Grow(len(s))

	n := 0
	for _, r := range s {
		if n >= maxLen {
			break
		}
		b.WriteRune(r)
		n++
	}
	return b.String() + "…"
}

func renderInstrument(inst domain.Instrument) string {
	var b strings.Builder

	if inst.Description != "" {
		b.WriteString(inst.Description)
		b.WriteString("\n\n")
	}

	if inst.Band.IsZero() {
		fmt.Fprintf(&b, "Single channel at %g GHz\n", inst.Params.F/1e9)
	} else {
		fmt.Fprintf(&b, "Band: %g-%g GHz, R = %g\n", inst.Band.FMinHz/1e9, inst.Band.FMaxHz/1e9, inst.Params.R)
	}
	fmt.Fprintf(&b, "Telescope: %g m, eta_mb %g\n", inst.Params.TelescopeDiameter, inst.Params.EtaMB)
	fmt.Fprintf(&b, "Beam: %.3g x %.3g arcsec\n",
		domain.RadToArcsec(inst.Params.ThetaMaj), domain.RadToArcsec(inst.Params.ThetaMin))

	if len(inst.Checks) > 0 {
		b.WriteString("\nChecks:\n")
		for _, c := range inst.Checks {
			b.WriteString("  - ")
			b.WriteString(c.Column)
			if c.Min != nil {
				fmt.Fprintf(&b, " >= %g", *c.Min)
			}
			if c.Max != nil {
				fmt.Fprintf(&b, " <= %g", *c.Max)
			}
			b.WriteString("\n")
		}
	}

	return b.String()
}

// renderRunSummary shows the best and worst MDLF channel and the checks.
func renderRunSummary(run domain.RunArtifact) string {
	var b strings.Builder

	fmt.Fprintf(&b, "Instrument: %s\nConditions: %s\n", run.InstrumentName, run.ConditionsName)
	if run.ID != "" {
		fmt.Fprintf(&b, "Run ID:     %s\n", run.ID)
	}
	fmt.Fprintf(&b, "Rows:       %d\n\n", len(run.Table.Rows))

	if best, worst, ok := mdlfExtremes(run.Table); ok {
		fmt.Fprintf(&b, "Best MDLF:  %.3g W/m^2 at %.4g GHz\n", best.MDLF, best.F/1e9)
		fmt.Fprintf(&b, "Worst MDLF: %.3g W/m^2 at %.4g GHz\n", worst.MDLF, worst.F/1e9)
	}

	if len(run.Checks) > 0 {
		b.WriteString("\nChecks:\n")
		for _, c := range run.Checks {
			status := "FAIL"
			if c.Passed {
				status = "PASS"
			}
			b.WriteString("  - ")
			b.WriteString(c.Name)
			b.WriteString(" [")
			b.WriteString(status)
			b.WriteString("] ")
			b.WriteString(c.Message)
			b.WriteString("\n")
		}
	}

	return b.String()
}

func mdlfExtremes(tbl domain.Table) (best, worst domain.Row, ok bool) {
	lo, hi := math.Inf(1), math.Inf(-1)
	for _, r := range tbl.Rows {
		if math.IsNaN(r.MDLF) {
			continue
		}
		if r.MDLF < lo {
			lo, best = r.MDLF, r
		}
		if r.MDLF > hi {
			hi, worst = r.MDLF, r
		}
		ok = true
	}
	return best, worst, ok
}
