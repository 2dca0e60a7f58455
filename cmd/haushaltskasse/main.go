package main

import (
	"context"
	"errors"
	"net/http"
	"os"

	"golang.org/x/sync/errgroup"

	"haushaltskasse/internal/cli"
	apphttp "haushaltskasse/internal/http"
	applog "haushaltskasse/internal/log"
	"haushaltskasse/internal/metrics"
)

func main() {
	cli.LoadEnvFile()
	cfg := cli.LoadAndValidateConfig()
	logger := cli.SetupLogger(cfg, applog.ComponentApp)

	ctx, cancel := cli.SignalContext(logger.Logger)
	defer cancel()

	res := cli.OpenBackend(ctx, logger.Logger, cfg)
	defer cli.Cleanup(logger.Logger, "backend", res.Cleanup)

	svc := cli.NewLedger(res, cfg)

	var m *metrics.Metrics
	if cfg.MetricsEnabled {
		m = metrics.New()
	}
	srv := apphttp.NewServer(":"+cfg.Port, svc, apphttp.Options{
		Logger:         logger,
		Metrics:        m,
		MetricsEnabled: cfg.MetricsEnabled,
	})

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		logger.InfoContext(ctx, "Starting haushaltskasse server",
			"port", cfg.Port,
			"backend", cfg.DataBackend,
			"events", res.Events != nil,
			"metrics", cfg.MetricsEnabled)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
		defer shutdownCancel()
		logger.InfoContext(shutdownCtx, "Shutting down server", applog.FieldOperation, applog.OpShutdown)
		return srv.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		logger.ErrorContext(ctx, "Server error", "error", err, "port", cfg.Port)
		cli.Cleanup(logger.Logger, "backend", res.Cleanup)
		os.Exit(1)
	}
	logger.InfoContext(ctx, "Server stopped gracefully")
}
