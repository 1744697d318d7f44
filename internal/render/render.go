package render

import (
	"fmt"
	"io"
	"math"
	"strings"
	"time"

	"github.com/fatih/color"

	"github.com/Alias1177/TweetMood/internal/model"
	"github.com/Alias1177/TweetMood/internal/poller"
)

const barWidth = 20

var (
	positiveColor = color.New(color.FgGreen, color.Bold)
	negativeColor = color.New(color.FgRed, color.Bold)
	mutedColor    = color.New(color.Faint)
	warnColor     = color.New(color.FgYellow)
)

// Emoji picks a face for the sentiment, stronger as confidence grows
func Emoji(r model.PredictionResult) string {
	if r.Sentiment.IsPositive() {
		switch {
		case r.Confidence > 0.9:
			return "😄"
		case r.Confidence > 0.75:
			return "🙂"
		default:
			return "😐"
		}
	}
	switch {
	case r.Confidence > 0.9:
		return "😠"
	case r.Confidence > 0.75:
		return "🙁"
	default:
		return "😕"
	}
}

// Percent formats a confidence in [0,1] as a percentage with one decimal
func Percent(confidence float64) string {
	return fmt.Sprintf("%.1f%%", confidence*100)
}

// Bar draws confidence as a fixed width gauge
func Bar(confidence float64) string {
	c := math.Max(0, math.Min(1, confidence))
	filled := int(math.Round(c * barWidth))
	return "[" + strings.Repeat("█", filled) + strings.Repeat("░", barWidth-filled) + "]"
}

// Label colours the sentiment label
func Label(s model.Sentiment) string {
	if s.IsPositive() {
		return positiveColor.Sprint(string(s))
	}
	return negativeColor.Sprint(string(s))
}

// Result writes a full prediction block
func Result(w io.Writer, text string, r model.PredictionResult) {
	fmt.Fprintf(w, "%s  %s\n", Emoji(r), Label(r.Sentiment))
	fmt.Fprintf(w, "   confidence %s %s\n", Bar(r.Confidence), Percent(r.Confidence))
	fmt.Fprintf(w, "   raw score  %.4f\n", r.RawScore)
	fmt.Fprintf(w, "   %s\n", mutedColor.Sprintf("%q at %s", text, r.Timestamp.Local().Format(time.DateTime)))
}

// BatchRow writes one line of a batch result table
func BatchRow(w io.Writer, index int, text string, r model.PredictionResult) {
	fmt.Fprintf(w, "%2d. %s %-8s %6s  %s\n", index, Emoji(r), Label(r.Sentiment), Percent(r.Confidence), Truncate(text, 60))
}

// History writes the history list, most recent first
func History(w io.Writer, entries []model.HistoryEntry) {
	if len(entries) == 0 {
		fmt.Fprintln(w, mutedColor.Sprint("No analysis yet."))
		return
	}
	for _, e := range entries {
		fmt.Fprintf(w, "%d  %s %s %6s  %s  %s\n",
			e.ID, Emoji(e.Result), Label(e.Result.Sentiment), Percent(e.Result.Confidence),
			mutedColor.Sprint(e.Timestamp.Local().Format(time.DateTime)), Truncate(e.TweetText, 50))
	}
}

// Status renders a poller status as a coloured badge
func Status(name string, s poller.Status) string {
	var badge string
	switch s.Level {
	case poller.Online, poller.Available:
		badge = positiveColor.Sprint("● " + string(s.Level))
	case poller.Offline, poller.Unavailable:
		badge = negativeColor.Sprint("● " + string(s.Level))
	default:
		badge = warnColor.Sprint("○ " + string(s.Level))
	}
	if s.Message == "" {
		return fmt.Sprintf("%-8s %s", name, badge)
	}
	return fmt.Sprintf("%-8s %s  %s", name, badge, mutedColor.Sprint(s.Message))
}

// Truncate shortens text to at most n runes, ending with an ellipsis
func Truncate(text string, n int) string {
	runes := []rune(strings.Join(strings.Fields(text), " "))
	if len(runes) <= n {
		return string(runes)
	}
	if n <= 1 {
		return "…"
	}
	return string(runes[:n-1]) + "…"
}
