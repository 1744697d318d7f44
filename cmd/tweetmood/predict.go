package main

import (
	"bufio"
	"fmt"
	"io"
	"strings"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/Alias1177/TweetMood/internal/feedback"
	"github.com/Alias1177/TweetMood/internal/model"
	"github.com/Alias1177/TweetMood/internal/render"
)

func newPredictCmd() *cobra.Command {
	var noFeedback bool
	cmd := &cobra.Command{
		Use:   "predict <tweet>",
		Short: "Predict the sentiment of one tweet",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			text := strings.Join(args, " ")
			result, err := application.Orchestrator.Submit(cmd.Context(), text)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			render.Result(out, strings.TrimSpace(text), result)
			if noFeedback {
				return nil
			}
			prompt := application.Feedback.Prompt(strings.TrimSpace(text), result)
			return askFeedback(bufio.NewReader(cmd.InOrStdin()), out, prompt)
		},
	}
	cmd.Flags().BoolVar(&noFeedback, "no-feedback", false, "do not ask whether the prediction was right")
	return cmd
}

func newBatchCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "batch <tweet>...",
		Short: "Predict the sentiment of several tweets at once",
		Long:  "Each argument is one tweet. The whole batch is rejected if any tweet is empty.",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			results, err := application.Orchestrator.SubmitBatch(cmd.Context(), args)
			if err != nil {
				return err
			}
			printBatch(cmd.OutOrStdout(), application.Orchestrator.BatchState().Texts, results)
			return nil
		},
	}
}

func printBatch(out io.Writer, texts []string, results []model.PredictionResult) {
	positive := 0
	for i, r := range results {
		render.BatchRow(out, i+1, texts[i], r)
		if r.Sentiment.IsPositive() {
			positive++
		}
	}
	fmt.Fprintf(out, "\n%d positive, %d negative\n", positive, len(results)-positive)
}

// askFeedback walks the user through the feedback prompt. An already judged
// prediction is not offered again.
func askFeedback(in *bufio.Reader, out io.Writer, prompt *feedback.Prompt) error {
	if prompt.State() == feedback.PromptSubmitted {
		fmt.Fprintln(out, "Feedback already recorded for this prediction.")
		return nil
	}

	answer, err := ask(in, out, "Was this prediction correct? [y/n/skip] ")
	if err != nil {
		return nil
	}

	switch strings.ToLower(answer) {
	case "y", "yes", "o", "oui":
		if _, err := prompt.Agree(); err != nil {
			return err
		}
	case "n", "no", "non":
		if err := prompt.Disagree(); err != nil {
			return err
		}
		for {
			corrected, err := ask(in, out, fmt.Sprintf("Correct sentiment (%s): ", strings.Join(feedback.CorrectedSentiments, "/")))
			if err != nil {
				prompt.Cancel()
				return nil
			}
			comments, _ := ask(in, out, "Comments (optional): ")
			if _, err := prompt.Submit(corrected, comments); err != nil {
				color.New(color.FgYellow).Fprintln(out, err)
				continue
			}
			break
		}
	default:
		return nil
	}

	color.New(color.FgGreen).Fprintln(out, "Thanks, feedback recorded.")
	return nil
}

func ask(in *bufio.Reader, out io.Writer, question string) (string, error) {
	fmt.Fprint(out, question)
	line, err := in.ReadString('\n')
	if err != nil && line == "" {
		return "", err
	}
	return strings.TrimSpace(line), nil
}
