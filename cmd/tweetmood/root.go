package main

import (
	"github.com/spf13/cobra"

	"github.com/Alias1177/TweetMood/internal/app"
	"github.com/Alias1177/TweetMood/internal/config"
	"github.com/Alias1177/TweetMood/internal/logger"
)

// application is opened once per command run
var application *app.App

func newRootCmd() *cobra.Command {
	var verbose bool

	rootCmd := &cobra.Command{
		Use:           "tweetmood",
		Short:         "Analyze the sentiment of tweets",
		Long:          "tweetmood sends tweets to the sentiment prediction service, keeps a local history of the last analyses and collects feedback on predictions.",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			level := cfg.LogLevel
			if verbose {
				level = "debug"
			}
			// CLI всегда пишет логи в читаемом виде
			logger.Setup(level, true)

			application, err = app.New(cfg)
			return err
		},
		PersistentPostRunE: func(cmd *cobra.Command, args []string) error {
			if application == nil {
				return nil
			}
			return application.Close()
		},
	}

	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable debug logging")

	rootCmd.AddCommand(newPredictCmd())
	rootCmd.AddCommand(newBatchCmd())
	rootCmd.AddCommand(newHistoryCmd())
	rootCmd.AddCommand(newStatusCmd())
	rootCmd.AddCommand(newWatchCmd())
	rootCmd.AddCommand(newTelemetryCmd())
	rootCmd.AddCommand(newReplCmd())

	return rootCmd
}
