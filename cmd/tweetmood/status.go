package main

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/Alias1177/TweetMood/internal/poller"
	"github.com/Alias1177/TweetMood/internal/render"
)

func newStatusCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Check the prediction service once",
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()
			health := poller.HealthCheck(application.Client)(cmd.Context())
			info := poller.InfoCheck(application.Client)(cmd.Context())
			fmt.Fprintln(out, render.Status("service", health))
			fmt.Fprintln(out, render.Status("gpu", info))
			return nil
		},
	}
}

func newWatchCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "watch",
		Short: "Keep polling service health and capabilities until interrupted",
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()
			_, _, stop := application.StartPollers(
				func(s poller.Status) { fmt.Fprintln(out, render.Status("service", s)) },
				func(s poller.Status) { fmt.Fprintln(out, render.Status("gpu", s)) },
			)
			defer stop()

			quit := make(chan os.Signal, 1)
			signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
			defer signal.Stop(quit)

			select {
			case <-quit:
			case <-cmd.Context().Done():
			}
			return nil
		},
	}
}

func newTelemetryCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "telemetry",
		Short: "Run the service's telemetry connectivity test",
		RunE: func(cmd *cobra.Command, args []string) error {
			check, err := application.Client.TestTelemetry(cmd.Context())
			if err != nil {
				return err
			}
			level := poller.Online
			if !check.OK {
				level = poller.Offline
			}
			fmt.Fprintln(cmd.OutOrStdout(), render.Status("telemetry", poller.Status{Level: level, Message: check.Message}))
			return nil
		},
	}
}
