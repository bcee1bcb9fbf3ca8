package main

import (
	"context"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
)

func newRunCmd(flags *pathFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "run",
		Short: "Run one analysis batch and publish the result",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, err := newApp(flags)
			if err != nil {
				return err
			}
			defer a.close()

			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()
			return runBatch(ctx, a)
		},
	}
}

func runBatch(ctx context.Context, a *app) error {
	res, err := a.pipeline.RunOnce(ctx)
	if err != nil {
		a.logger.Error("batch failed", "error", err)
		return err
	}
	a.logger.Info("batch complete",
		"run_id", res.RunID,
		"zone_strategy", res.ZoneStrategy,
		"anomalies", res.Stats.Anomalies,
		"verified", res.Stats.Verified,
		"rejections", res.Stats.Rejections,
	)
	return nil
}
