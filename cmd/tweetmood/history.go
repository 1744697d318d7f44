package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/Alias1177/TweetMood/internal/render"
)

func newHistoryCmd() *cobra.Command {
	var clearAll bool
	var reuse int64
	cmd := &cobra.Command{
		Use:   "history",
		Short: "Show the last analyses",
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()
			if clearAll {
				if err := application.History.Clear(); err != nil {
					return err
				}
				fmt.Fprintln(out, "History cleared.")
				return nil
			}

			if reuse != 0 {
				entry, ok := application.History.Find(reuse)
				if !ok {
					return fmt.Errorf("no history entry with id %d", reuse)
				}
				result, err := application.Orchestrator.Submit(cmd.Context(), entry.TweetText)
				if err != nil {
					return err
				}
				render.Result(out, entry.TweetText, result)
				return nil
			}

			render.History(out, application.History.Entries())
			return nil
		},
	}
	cmd.Flags().BoolVar(&clearAll, "clear", false, "delete the whole history")
	cmd.Flags().Int64Var(&reuse, "reuse", 0, "analyze the tweet of this history entry again")
	return cmd
}
