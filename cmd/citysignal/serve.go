package main

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"syscall"

	"github.com/couchcryptid/city-signal/internal/adapter/httpadapter"
	"github.com/robfig/cron/v3"
	"github.com/spf13/cobra"
)

func newServeCmd(flags *pathFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Serve health, metrics and results over HTTP, re-running on RUN_SCHEDULE",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, err := newApp(flags)
			if err != nil {
				return err
			}
			defer a.close()
			return serve(cmd.Context(), a)
		},
	}
}

func serve(parent context.Context, a *app) error {
	ctx, stop := signal.NotifyContext(parent, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	srv := httpadapter.NewServer(a.cfg.HTTPAddr, a.pipeline, a.logger)
	go func() {
		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			a.logger.Error("http server error", "error", err)
			stop()
		}
	}()

	// Readiness stays false until the first batch succeeds.
	go func() { _ = runBatch(ctx, a) }()

	var scheduler *cron.Cron
	if a.cfg.RunSchedule != "" {
		scheduler = cron.New()
		if _, err := scheduler.AddFunc(a.cfg.RunSchedule, func() { _ = runBatch(ctx, a) }); err != nil {
			return err
		}
		scheduler.Start()
		a.logger.Info("batch schedule enabled", "schedule", a.cfg.RunSchedule)
	}

	<-ctx.Done()
	a.logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), a.cfg.ShutdownTimeout)
	defer cancel()

	if scheduler != nil {
		// Wait for an in-flight scheduled batch, bounded by the shutdown timeout.
		select {
		case <-scheduler.Stop().Done():
		case <-shutdownCtx.Done():
		}
	}
	if err := srv.Shutdown(shutdownCtx); err != nil {
		a.logger.Error("http server shutdown error", "error", err)
	}

	a.logger.Info("shutdown complete")
	return nil
}
