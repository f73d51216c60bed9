package cli

import (
	"fmt"
	"io"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/deshima-dev/desim/internal/domain"
	"github.com/deshima-dev/desim/internal/infra/atmtable"
	"github.com/deshima-dev/desim/internal/infra/httpclient"
	"github.com/deshima-dev/desim/internal/infra/logger"
	"github.com/deshima-dev/desim/internal/usecase"
)

func atmCmd() *cobra.Command {
	c := &cobra.Command{
		Use:   "atm",
		Short: "Manage the atmosphere transmission table",
	}

	c.AddCommand(atmFetchCmd(), atmInfoCmd())
	return c
}

func atmFetchCmd() *cobra.Command {
	var workspace string
	var dest string
	var timeout time.Duration

	cmd := &cobra.Command{
		Use:   "fetch <url>",
		Short: "Download an ALMA atmosphere model table into the workspace",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ws, err := loadWorkspace(cmd, workspace)
			if err != nil {
				return err
			}
			defer ws.close()

			target := ws.atm.Path()
			if dest != "" {
				target = inRoot(ws.root, dest)
			}

			uc := usecase.NewFetchAtmosphere(
				httpclient.NewDownloader(httpclient.WithTimeout(timeout)),
				atmtable.Installer{},
			)
			info, err := uc.Execute(cmdContext(cmd), args[0], target)
			if err != nil {
				logger.L().Error("atm.fetch.failed", "url", args[0], "err", err)
				return err
			}
			logger.L().Info("atm.fetch.ok", "url", args[0], "path", info.Path, "bytes", info.Bytes)

			printAtmInfo(cmd.OutOrStdout(), info)
			return nil
		},
	}

	cmd.Flags().StringVarP(&workspace, "workspace", "w", "", "Workspace root (optional; autodetected if omitted)")
	cmd.Flags().StringVar(&dest, "dest", "", "Destination path (defaults to paths.atmosphere)")
	cmd.Flags().DurationVar(&timeout, "timeout", 2*time.Minute, "Download timeout")
	return cmd
}

func atmInfoCmd() *cobra.Command {
	var workspace string

	cmd := &cobra.Command{
		Use:   "info",
		Short: "Show the coverage of the installed atmosphere table",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ws, err := loadWorkspace(cmd, workspace)
			if err != nil {
				return err
			}
			defer ws.close()

			t, err := ws.atm.Table()
			if err != nil {
				return fmt.Errorf("%w (tip: run `desim atm fetch <url>`)", err)
			}
			info := t.Info(ws.atm.Path())
			if st, err := os.Stat(info.Path); err == nil {
				info.Bytes = st.Size()
			}

			printAtmInfo(cmd.OutOrStdout(), info)
			return nil
		},
	}

	cmd.Flags().StringVarP(&workspace, "workspace", "w", "", "Workspace root (optional; autodetected if omitted)")
	return cmd
}

func printAtmInfo(w io.Writer, info domain.AtmosphereInfo) {
	fmt.Fprintf(w, "Path:       %s\n", info.Path)
	fmt.Fprintf(w, "Size:       %d bytes\n", info.Bytes)
	fmt.Fprintf(w, "Rows:       %d\n", info.Rows)
	fmt.Fprintf(w, "Frequency:  %g-%g GHz\n", info.FMinHz/1e9, info.FMaxHz/1e9)
	fmt.Fprintf(w, "PWV:        %g-%g mm\n", info.PWVMin, info.PWVMax)
}
