package main

import (
	"os"
	"os/signal"
	"syscall"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"

	"github.com/YuminosukeSato/housepredict/housing"
	"github.com/YuminosukeSato/housepredict/internal/metrics"
	"github.com/YuminosukeSato/housepredict/internal/server"
)

func newServeCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP prediction server",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := a.setup(os.Stdout); err != nil {
				return err
			}

			m := metrics.New()
			svc, err := a.service(housing.WithObserver(m))
			if err != nil {
				return err
			}
			m.SetModelsLoaded(svc.Ready())

			srv := server.New(a.cfg.Server, svc,
				server.WithLogger(a.logger),
				server.WithMetrics(m, prometheus.DefaultGatherer),
			)

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return srv.Run(ctx)
		},
	}
}
