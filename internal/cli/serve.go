package cli

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/deshima-dev/desim/internal/infra/httpapi"
	"github.com/deshima-dev/desim/internal/infra/logger"
	"github.com/deshima-dev/desim/internal/usecase"
	"github.com/deshima-dev/desim/internal/usecase/sensitivity"
)

func serveCmd() *cobra.Command {
	var workspace string
	var addr string
	var rateLimit int
	var instrument string
	var conditions string
	var set []string

	c := &cobra.Command{
		Use:   "serve",
		Short: "Serve sensitivity calculations over HTTP",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ws, err := openWorkspace(cmd, workspace, cmd.ErrOrStderr())
			if err != nil {
				return err
			}
			defer ws.close()

			instPath, err := resolveInstrumentPath(ws, instrument)
			if err != nil {
				return err
			}
			base, err := usecase.ResolveParams(ws.instruments, ws.conditions, instPath, resolveConditionsArg(ws, conditions), set)
			if err != nil {
				return err
			}

			if !cmd.Flags().Changed("addr") {
				addr = ws.cfg.Serve.Addr
			}
			if !cmd.Flags().Changed("rate-limit") {
				rateLimit = ws.cfg.Serve.RateLimit
			}

			log := logger.L()
			calc := sensitivity.NewCalculator(ws.atm,
				sensitivity.WithWorkers(ws.cfg.Run.Workers),
				sensitivity.WithLogger(log),
			)
			srv := httpapi.New(calc, base,
				httpapi.WithLogger(log),
				httpapi.WithRateLimit(rateLimit),
			)

			ctx, stop := signal.NotifyContext(cmdContext(cmd), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return srv.Run(ctx, addr)
		},
	}

	c.Flags().StringVarP(&workspace, "workspace", "w", "", "Workspace root (optional; autodetected if omitted)")
	c.Flags().StringVar(&addr, "addr", "127.0.0.1:8350", "Listen address (defaults to serve.addr)")
	c.Flags().IntVar(&rateLimit, "rate-limit", 120, "Calculation requests per minute per client IP, 0 disables")
	c.Flags().StringVarP(&instrument, "instrument", "i", "", "Instrument providing the base parameters")
	c.Flags().StringVarP(&conditions, "conditions", "c", "", "Conditions providing the base parameters")
	c.Flags().StringArrayVar(&set, "set", nil, "Override a base parameter, name=value (repeatable)")
	return c
}

func cmdContext(cmd *cobra.Command) context.Context {
	if ctx := cmd.Context(); ctx != nil {
		return ctx
	}
	return context.Background()
}
