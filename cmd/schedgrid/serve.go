package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/spf13/cobra"

	"schedgrid/internal/config"
	"schedgrid/internal/ics"
	appLog "schedgrid/internal/log"
	"schedgrid/internal/web"
)

func newServeCmd(root *rootOptions) *cobra.Command {
	var listen string
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the view over HTTP and re-anchor it on the refresh schedule",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := root.load()
			if err != nil {
				return err
			}
			// --listen overrides the config file if provided.
			if listen != "" {
				cfg.Listen = listen
			}
			return runServe(cmd.Context(), cfg)
		},
	}
	cmd.Flags().StringVar(&listen, "listen", "", "HTTP listen address (overrides config if set)")
	return cmd
}

func runServe(parent context.Context, cfg *config.Config) error {
	appLog.Info("schedgrid starting", "version", version)
	appLog.Info("effective config", configFields(cfg)...)

	if parent == nil {
		parent = context.Background()
	}
	ctx, cancel := context.WithCancel(parent)
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(sigCh)
	go func() {
		select {
		case sig := <-sigCh:
			appLog.Info("signal received, shutting down", "signal", sig.String())
			cancel()
		case <-ctx.Done():
		}
	}()

	loc, err := cfg.Location()
	if err != nil {
		return err
	}
	srv, err := web.NewServer(cfg, ics.NewFetcher(cfg.CacheDir, nil), nil)
	if err != nil {
		return err
	}
	logRange("view ready", srv.View().Range.Start, srv.View().Range.End)

	sched := cron.New(cron.WithLocation(loc))
	if _, err := sched.AddFunc(cfg.RefreshCron, func() {
		view, err := srv.Refresh()
		if err != nil {
			appLog.Error("view refresh failed", err)
			return
		}
		logRange("view refreshed", view.Range.Start, view.Range.End)
	}); err != nil {
		return err
	}
	sched.Start()
	defer func() {
		<-sched.Stop().Done()
	}()

	err = srv.ListenAndServe(ctx)
	appLog.Info("schedgrid exiting")
	return err
}

// configFields lists the effective config as logger key/value pairs.
func configFields(cfg *config.Config) []any {
	return []any{
		"listen", cfg.Listen,
		"timezone", cfg.Timezone,
		"week_start", cfg.WeekStart,
		"interval_count", cfg.IntervalCount,
		"start_day_hour", cfg.StartDayHour,
		"end_day_hour", cfg.EndDayHour,
		"cell_duration", cfg.CellDuration,
		"refresh", cfg.RefreshCron,
		"ics_count", len(cfg.ICS),
	}
}

func logRange(msg string, start, end time.Time) {
	appLog.Info(msg, "range_start", start.Format(time.RFC3339), "range_end", end.Format(time.RFC3339))
}
