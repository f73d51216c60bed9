package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/deshima-dev/desim/internal/infra/logger"
	"github.com/deshima-dev/desim/internal/usecase"
)

func runCmd() *cobra.Command {
	var workspace string
	var instrument string
	var conditions string
	var set []string
	var sweep string
	var noSave bool
	var format string
	var workers int

	c := &cobra.Command{
		Use:   "run",
		Short: "Compute the sensitivity of an instrument under observing conditions",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ws, err := loadWorkspace(cmd, workspace)
			if err != nil {
				return err
			}
			defer ws.close()

			instPath, err := resolveInstrumentPath(ws, instrument)
			if err != nil {
				return err
			}

			if !cmd.Flags().Changed("format") {
				format = ws.cfg.Output.Format
			}
			if !cmd.Flags().Changed("workers") {
				workers = ws.cfg.Run.Workers
			}

			uc := usecase.NewRunSensitivity(ws.instruments, ws.conditions, ws.atm,
				usecase.WithStore(ws.store),
				usecase.WithRunWorkers(workers),
				usecase.WithRunLogger(logger.L()),
			)

			run, err := uc.Execute(cmdContext(cmd), usecase.RunRequest{
				InstrumentPath: instPath,
				Conditions:     resolveConditionsArg(ws, conditions),
				Set:            set,
				Sweep:          sweep,
				NoSave:         noSave,
			})
			if err != nil {
				// A failed save still leaves a computed table worth printing.
				if len(run.Table.Rows) > 0 {
					_ = printRun(cmd.OutOrStdout(), run, format)
				}
				return err
			}

			if err := printRun(cmd.OutOrStdout(), run, format); err != nil {
				return err
			}

			if _, fail := countCheckPassFail(run.Checks); fail > 0 {
				return fmt.Errorf("run failed (%d failed check(s))", fail)
			}
			return nil
		},
	}

	c.Flags().StringVarP(&workspace, "workspace", "w", "", "Workspace root (optional; autodetected if omitted)")
	c.Flags().StringVarP(&instrument, "instrument", "i", "", "Instrument name or path (defaults to the workspace default)")
	c.Flags().StringVarP(&conditions, "conditions", "c", "", "Conditions name or path (defaults to the workspace default)")
	c.Flags().StringArrayVar(&set, "set", nil, "Override a parameter, name=value (repeatable)")
	c.Flags().StringVar(&sweep, "sweep", "", "Sweep one parameter: name=v1,v2,... or name=start:stop:count[:log]")
	c.Flags().BoolVar(&noSave, "no-save", false, "Do not save run artifact under runs/")
	c.Flags().StringVar(&format, "format", "pretty", "Output format: pretty|json|csv")
	c.Flags().IntVar(&workers, "workers", 4, "Parallel sweep workers")
	return c
}
