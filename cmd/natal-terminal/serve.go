package main

import (
	"os"
	"os/signal"
	"syscall"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/ngmaloney/natal-terminal/internal/instrumentation"
	"github.com/ngmaloney/natal-terminal/internal/server"
)

func newServeCmd(a *app) *cobra.Command {
	var addr string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP chart API",
		Long: `Serves GET /v1/chart, GET /v1/ephemeris, the saved profile routes,
/healthz and Prometheus /metrics until interrupted.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if addr == "" {
				addr = a.cfg.HTTPAddr
			}

			reg := prometheus.NewRegistry()
			reg.MustRegister(
				collectors.NewGoCollector(),
				collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
			)
			metrics := instrumentation.NewMetrics(reg)

			provider, err := a.provider()
			if err != nil {
				return err
			}
			svc, err := a.profileService()
			if err != nil {
				return err
			}

			srv, err := server.New(server.Options{
				Calculator:     a.calculator(provider).WithRecorder(metrics),
				Provider:       provider,
				DefaultSystem:  a.cfg.System(),
				RequestTimeout: a.cfg.RequestTimeout(),
				Logger:         a.logger,
				Metrics:        metrics,
				Gatherer:       reg,
				Profiles:       svc,
			})
			if err != nil {
				return err
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			a.logger.Info("starting chart API",
				zap.String("addr", addr),
				zap.String("ephemeris", a.cfg.EphemerisSource),
				zap.String("house_system", a.cfg.System().String()))
			return srv.ListenAndServe(ctx, addr)
		},
	}

	cmd.Flags().StringVar(&addr, "addr", "", "Listen address (overrides NATAL_HTTP_ADDR)")
	return cmd
}
