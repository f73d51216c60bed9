package cli

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"

	"github.com/deshima-dev/desim/internal/domain"
)

// prettyColumns is the subset of row columns shown in pretty tables.
var prettyColumns = []string{
	"F", "PWV", "EL", "eta_atm", "eta_sw", "Tb_sky", "Pkid", "NEPinst", "NEFD_line", "MDLF",
}

func printRun(w io.Writer, run domain.RunArtifact, format string) error {
	switch format {
	case "json":
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(run)
	case "csv":
		return writeCSV(w, run.Table)
	case "pretty", "":
		printPrettyRun(w, run)
		return nil
	default:
		return fmt.Errorf("unsupported format %q (expected pretty|json|csv)", format)
	}
}

func printPrettyRun(w io.Writer, run domain.RunArtifact) {
	total := run.FinishedAt.Sub(run.StartedAt)
	if run.StartedAt.IsZero() || run.FinishedAt.IsZero() {
		total = 0
	}

	fmt.Fprintf(w, "Instrument: %s\n", run.InstrumentName)
	fmt.Fprintf(w, "Conditions: %s\n", run.ConditionsName)
	if run.Sweep.IsZero() {
		fmt.Fprintf(w, "Sweep:      (single point)\n")
	} else {
		fmt.Fprintf(w, "Sweep:      %s (%d points)\n", run.Sweep.Param, len(run.Sweep.Values))
	}
	fmt.Fprintf(w, "Started:    %s\n", run.StartedAt.Format(time.RFC3339))
	fmt.Fprintf(w, "Duration:   %s\n", total)
	if run.ID != "" {
		fmt.Fprintf(w, "Run ID:     %s\n", run.ID)
	}
	fmt.Fprintln(w)

	fmt.Fprintln(w, renderTable(run.Table))

	if len(run.Checks) == 0 {
		return
	}
	pass, fail := countCheckPassFail(run.Checks)
	fmt.Fprintf(w, "\nchecks: %d pass / %d fail\n", pass, fail)
	for _, c := range run.Checks {
		mark := "✓"
		if !c.Passed {
			mark = "✗"
		}
		fmt.Fprintf(w, "  %s %s: %s\n", mark, c.Name, c.Message)
	}
}

func renderTable(tbl domain.Table) string {
	headers := make([]string, len(prettyColumns))
	for i, c := range prettyColumns {
		headers[i] = c
		if c == "F" {
			headers[i] = "F [GHz]"
		}
	}

	rows := make([][]string, 0, len(tbl.Rows))
	for _, r := range tbl.Rows {
		cells := make([]string, len(prettyColumns))
		for i, c := range prettyColumns {
			v, _ := r.Column(c)
			if c == "F" {
				v /= 1e9
			}
			cells[i] = fmt.Sprintf("%.4g", v)
		}
		rows = append(rows, cells)
	}

	return table.New().
		Border(lipgloss.NormalBorder()).
		BorderStyle(lipgloss.NewStyle().Foreground(lipgloss.Color("63"))).
		Headers(headers...).
		Rows(rows...).
		String()
}

func writeCSV(w io.Writer, tbl domain.Table) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(domain.Columns); err != nil {
		return err
	}

	rec := make([]string, len(domain.Columns))
	for _, r := range tbl.Rows {
		for i, v := range r.Values() {
			rec[i] = strconv.FormatFloat(v, 'g', -1, 64)
		}
		if err := cw.Write(rec); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

func countCheckPassFail(in []domain.CheckResult) (pass int, fail int) {
	for _, c := range in {
		if c.Passed {
			pass++
		} else {
			fail++
		}
	}
	return pass, fail
}
