package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"time"

	"github.com/PaesslerAG/jsonpath"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/spf13/cobra"

	"github.com/deshima-dev/desim/internal/domain"
)

func runsCmd() *cobra.Command {
	c := &cobra.Command{
		Use:   "runs",
		Short: "Inspect saved run artifacts",
	}

	c.AddCommand(runsListCmd(), runsShowCmd())
	return c
}

func runsListCmd() *cobra.Command {
	var workspace string
	var limit int

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List saved runs, newest first",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ws, err := loadWorkspace(cmd, workspace)
			if err != nil {
				return err
			}
			defer ws.close()

			refs, err := ws.store.ListRuns()
			if err != nil {
				return err
			}
			if limit > 0 && len(refs) > limit {
				refs = refs[:limit]
			}

			printRunRefs(cmd.OutOrStdout(), refs)
			return nil
		},
	}

	cmd.Flags().StringVarP(&workspace, "workspace", "w", "", "Workspace root (optional; autodetected if omitted)")
	cmd.Flags().IntVarP(&limit, "limit", "n", 20, "Maximum runs to show (0 = all)")
	return cmd
}

func printRunRefs(w io.Writer, refs []domain.RunRef) {
	if len(refs) == 0 {
		fmt.Fprintln(w, "(no runs found)")
		return
	}

	rows := make([][]string, 0, len(refs))
	for _, r := range refs {
		rows = append(rows, []string{
			shortID(r.ID),
			r.StartedAt.Local().Format(time.DateTime),
			r.Instrument,
			r.Conditions,
			fmt.Sprint(r.Points),
		})
	}

	fmt.Fprintln(w, table.New().
		Border(lipgloss.NormalBorder()).
		Headers("ID", "STARTED", "INSTRUMENT", "CONDITIONS", "POINTS").
		Rows(rows...).
		String())
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}

func runsShowCmd() *cobra.Command {
	var workspace string
	var query string
	var format string

	cmd := &cobra.Command{
		Use:   "show <id>",
		Short: "Show a saved run (id, id prefix or file name)",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ws, err := loadWorkspace(cmd, workspace)
			if err != nil {
				return err
			}
			defer ws.close()

			out := cmd.OutOrStdout()

			if query == "" {
				run, err := ws.store.LoadRun(args[0])
				if err != nil {
					return err
				}
				return printRun(out, run, format)
			}

			raw, err := ws.store.RawRun(args[0])
			if err != nil {
				return err
			}
			v, err := queryJSON(raw, query)
			if err != nil {
				return err
			}
			enc := json.NewEncoder(out)
			enc.SetIndent("", "  ")
			return enc.Encode(v)
		},
	}

	cmd.Flags().StringVarP(&workspace, "workspace", "w", "", "Workspace root (optional; autodetected if omitted)")
	cmd.Flags().StringVarP(&query, "query", "q", "", "JSONPath expression evaluated on the artifact, e.g. $.table.rows[*].MDLF")
	cmd.Flags().StringVar(&format, "format", "pretty", "Output format without --query: pretty|json|csv")
	return cmd
}

func queryJSON(raw []byte, expr string) (any, error) {
	var doc any
	if err := json.Unmarshal(raw, &doc); err != nil {
		return nil, &domain.OpError{Op: "cli.runs.query", Kind: domain.KindExecution, Err: err}
	}

	v, err := jsonpath.Get(expr, doc)
	if err != nil {
		return nil, &domain.OpError{
			Op:   "cli.runs.query",
			Kind: domain.KindInvalidConfig,
			Err:  fmt.Errorf("query %q: %w", expr, err),
		}
	}
	return v, nil
}
