package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/deshima-dev/desim/internal/buildinfo"
	"github.com/deshima-dev/desim/internal/infra/fsworkspace"
	"github.com/deshima-dev/desim/internal/usecase"
)

func initCmd() *cobra.Command {
	var path string
	var force bool

	c := &cobra.Command{
		Use:   "init",
		Short: "Create a desim workspace (desim.yaml, instruments, conditions)",
		RunE: func(cmd *cobra.Command, _ []string) error {
			uc := usecase.NewInitWorkspace(fsworkspace.NewInitializer())
			root, err := uc.Execute(path, force)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Initialized desim workspace at %s\n", root)
			fmt.Fprintln(out, "Next: desim atm fetch <url>   (or use -c fixed to pin eta_atm)")
			return nil
		},
	}

	c.Flags().StringVarP(&path, "path", "p", ".", "Directory to initialize")
	c.Flags().BoolVar(&force, "force", false, "Overwrite existing template files")
	return c
}

func versionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the version",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, _ []string) {
			fmt.Fprintln(cmd.OutOrStdout(), buildinfo.String())
		},
	}
}
