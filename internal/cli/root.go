package cli

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/deshima-dev/desim/internal/buildinfo"
	"github.com/deshima-dev/desim/internal/infra/fsworkspace"
	"github.com/deshima-dev/desim/internal/infra/logger"
	"github.com/deshima-dev/desim/internal/infra/workspacefinder"
	"github.com/deshima-dev/desim/internal/ui/tui"
)

// Execute runs the desim command line. Any error or failed check exits 1.
func Execute() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := newRootCmd().ExecuteContext(ctx)
	stop()
	if err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "desim",
		Short: "Sensitivity calculator for DESHIMA-type spectrometers",
		Long: buildinfo.String() + `

Computes NEP, NEFD and minimum detectable line flux of an integrated
superconducting spectrometer from instrument and observing-condition files
kept in a workspace (see 'desim init'). Without a subcommand desim opens an
interactive terminal UI.`,
		SilenceUsage: true,
		RunE:         runTUI,
	}

	cmd.PersistentFlags().Bool("debug", false, "verbose logging to .desim/logs/desim.log")

	cmd.AddCommand(
		initCmd(),
		runCmd(),
		validateCmd(),
		instrumentsCmd(),
		conditionsCmd(),
		runsCmd(),
		atmCmd(),
		serveCmd(),
		versionCmd(),
	)
	return cmd
}

// runTUI logs into the enclosing workspace when there is one; outside a
// workspace nothing is written until the user initializes one.
func runTUI(cmd *cobra.Command, _ []string) error {
	debug, _ := cmd.Flags().GetBool("debug")
	finder := workspacefinder.NewFinder()

	if wd, err := os.Getwd(); err == nil {
		if root, ferr := finder.FindRoot(wd); ferr == nil {
			if cleanup, lerr := logger.Setup(logger.Config{Root: root, Debug: debug}); lerr == nil {
				defer func() { _ = cleanup() }()
			}
		}
	}

	return tui.Run(tui.Deps{
		WorkspaceLocator:     finder,
		WorkspaceInitializer: fsworkspace.NewInitializer(),
		Logger:               logger.L(),
		Debug:                debug,
	})
}
