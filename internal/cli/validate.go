package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/deshima-dev/desim/internal/usecase"
)

func validateCmd() *cobra.Command {
	var workspace string
	var instrument string
	var conditions string
	var set []string

	c := &cobra.Command{
		Use:   "validate",
		Short: "Validate an instrument and conditions (no calculation)",
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

			uc := usecase.NewValidateInstrument(ws.instruments, ws.conditions,
				usecase.WithAtmosphereProbe(ws.atm),
			)
			if err := uc.Execute(cmdContext(cmd), instPath, resolveConditionsArg(ws, conditions), set); err != nil {
				return err
			}

			fmt.Fprintln(cmd.OutOrStdout(), "OK")
			return nil
		},
	}

	c.Flags().StringVarP(&workspace, "workspace", "w", "", "Workspace root (optional; autodetected if omitted)")
	c.Flags().StringVarP(&instrument, "instrument", "i", "", "Instrument name or path (defaults to the workspace default)")
	c.Flags().StringVarP(&conditions, "conditions", "c", "", "Conditions name or path (defaults to the workspace default)")
	c.Flags().StringArrayVar(&set, "set", nil, "Override a parameter, name=value (repeatable)")
	return c
}
