package main

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/Alias1177/TweetMood/internal/orchestrator"
	"github.com/Alias1177/TweetMood/internal/poller"
	"github.com/Alias1177/TweetMood/internal/render"
)

const replHelp = `Type a tweet to analyze it, or one of:
  :batch a | b | c   analyze several tweets
  :history           show the last analyses
  :reuse <id>        analyze a history entry again
  :clear             clear the history
  :status            show service status
  :quit              exit`

func newReplCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "repl",
		Short: "Interactive session with live service status",
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()
			in := bufio.NewReader(cmd.InOrStdin())

			health, info, stop := application.StartPollers(nil, nil)
			defer stop()

			fmt.Fprintln(out, replHelp)
			for {
				line, err := ask(in, out, color.New(color.FgCyan).Sprint("tweet> "))
				if err != nil {
					if errors.Is(err, io.EOF) {
						return nil
					}
					return err
				}
				if line == "" {
					continue
				}

				switch {
				case line == ":quit" || line == ":q":
					return nil
				case line == ":history":
					render.History(out, application.History.Entries())
				case line == ":clear":
					if err := application.History.Clear(); err != nil {
						return err
					}
					fmt.Fprintln(out, "History cleared.")
				case line == ":status":
					fmt.Fprintln(out, render.Status("service", health.Status()))
					fmt.Fprintln(out, render.Status("gpu", info.Status()))
				case strings.HasPrefix(line, ":reuse "):
					var id int64
					if _, err := fmt.Sscan(strings.TrimPrefix(line, ":reuse "), &id); err != nil {
						fmt.Fprintln(out, "usage: :reuse <id>")
						continue
					}
					entry, ok := application.History.Find(id)
					if !ok {
						fmt.Fprintf(out, "no history entry with id %d\n", id)
						continue
					}
					analyze(cmd, in, out, entry.TweetText)
				case strings.HasPrefix(line, ":batch"):
					texts := strings.Split(strings.TrimPrefix(line, ":batch"), "|")
					results, err := application.Orchestrator.SubmitBatch(cmd.Context(), texts)
					if err != nil {
						printError(out, application.Orchestrator.BatchState().Error, err)
						continue
					}
					printBatch(out, application.Orchestrator.BatchState().Texts, results)
				case strings.HasPrefix(line, ":"):
					fmt.Fprintln(out, replHelp)
				default:
					if health.Status().Level == poller.Offline {
						color.New(color.FgYellow).Fprintln(out, "The prediction service looks offline, trying anyway.")
					}
					analyze(cmd, in, out, line)
				}
			}
		},
	}
}

func analyze(cmd *cobra.Command, in *bufio.Reader, out io.Writer, text string) {
	result, err := application.Orchestrator.Submit(cmd.Context(), text)
	if err != nil {
		if !errors.Is(err, orchestrator.ErrSuperseded) {
			printError(out, application.Orchestrator.State().Error, err)
		}
		return
	}
	render.Result(out, text, result)
	if err := askFeedback(in, out, application.Feedback.Prompt(text, result)); err != nil {
		printError(out, "", err)
	}
}

// printError prefers the orchestrator's user facing message over the raw error
func printError(out io.Writer, message string, err error) {
	if message == "" {
		message = err.Error()
	}
	color.New(color.FgRed).Fprintln(out, message)
}
