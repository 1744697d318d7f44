package model

import (
	"strings"
	"time"
)

// Sentiment is the label returned by the prediction service
type Sentiment string

const (
	Positive Sentiment = "Positif"
	Negative Sentiment = "Négatif"
)

// IsPositive reports whether the label is the positive class
func (s Sentiment) IsPositive() bool {
	return s == Positive
}

// PredictionResult stores the outcome of a single prediction
type PredictionResult struct {
	Sentiment  Sentiment `json:"sentiment"`
	Confidence float64   `json:"confidence"`
	RawScore   float64   `json:"raw_score"`
	Timestamp  time.Time `json:"timestamp"` // assigned at receipt when upstream omits it
}

// HistoryEntry is one (tweet, result) pair in the local history
type HistoryEntry struct {
	ID        int64            `json:"id"`
	TweetText string           `json:"tweet"`
	Result    PredictionResult `json:"result"`
	Timestamp time.Time        `json:"timestamp"`
}

// FeedbackRecord is a user's judgement of one prediction instance
type FeedbackRecord struct {
	FeedbackID          string    `json:"feedback_id"`
	TweetText           string    `json:"tweet_text"`
	PredictedSentiment  Sentiment `json:"predicted_sentiment"`
	Confidence          float64   `json:"confidence"`
	PredictionTimestamp time.Time `json:"prediction_timestamp"`
	IsCorrect           bool      `json:"is_correct"`
	CorrectedSentiment  string    `json:"corrected_sentiment,omitempty"`
	Comments            string    `json:"comments,omitempty"`
	SubmittedAt         time.Time `json:"submitted_at"`
}

// HealthStatus is the outcome of a health check. It never carries an error:
// an unreachable service is simply unhealthy.
type HealthStatus struct {
	Healthy bool   `json:"healthy"`
	Message string `json:"message"`
}

// ServiceInfo describes the runtime the prediction service runs on
type ServiceInfo struct {
	TFVersion string   `json:"tensorflow_version"`
	Devices   []string `json:"devices_available"`
	UsingGPU  bool     `json:"using_gpu"`
}

// HasGPU reports whether the service computes on a GPU, either explicitly
// or because one of its devices is a GPU.
func (i ServiceInfo) HasGPU() bool {
	if i.UsingGPU {
		return true
	}
	for _, d := range i.Devices {
		if strings.Contains(strings.ToLower(d), "gpu") {
			return true
		}
	}
	return false
}

// FeedbackAck is the service's answer to a feedback submission
type FeedbackAck struct {
	Accepted bool   `json:"accepted"`
	Message  string `json:"message,omitempty"`
}

// TelemetryCheck is the result of the service's telemetry connectivity test
type TelemetryCheck struct {
	OK      bool           `json:"ok"`
	Message string         `json:"message"`
	Details map[string]any `json:"details,omitempty"`
}
