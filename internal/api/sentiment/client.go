package sentiment

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/Alias1177/TweetMood/internal/failure"
	"github.com/Alias1177/TweetMood/internal/model"
	httpClient "github.com/Alias1177/TweetMood/internal/platform/http"
)

// Client is the prediction service API client
type Client struct {
	baseURL    string
	httpClient *httpClient.Client
	logger     zerolog.Logger
	now        func() time.Time
}

// ClientOptions holds options for creating a new prediction service client
type ClientOptions struct {
	BaseURL string
	HTTP    httpClient.ClientOptions
}

// NewClient creates a new prediction service client
func NewClient(options ClientOptions) *Client {
	return &Client{
		baseURL:    strings.TrimRight(options.BaseURL, "/"),
		httpClient: httpClient.NewClient(options.HTTP),
		logger:     log.With().Str("component", "sentiment_client").Logger(),
		now:        time.Now,
	}
}

type predictRequest struct {
	Text string `json:"text"`
}

type batchRequest struct {
	Texts []string `json:"texts"`
}

type predictionPayload struct {
	Sentiment  string  `json:"sentiment"`
	Confidence float64 `json:"confidence"`
	RawScore   float64 `json:"raw_score"`
	Timestamp  string  `json:"timestamp,omitempty"`
}

type batchResponse struct {
	Results []predictionPayload `json:"results"`
}

type feedbackRequest struct {
	TweetText          string  `json:"tweet_text"`
	Prediction         string  `json:"prediction"`
	Confidence         float64 `json:"confidence"`
	IsCorrect          bool    `json:"is_correct"`
	CorrectedSentiment string  `json:"corrected_sentiment,omitempty"`
	Comments           string  `json:"comments,omitempty"`
}

type messageResponse struct {
	Status  string `json:"status"`
	Message string `json:"message"`
}

// PredictOne asks the service for the sentiment of a single text
func (c *Client) PredictOne(ctx context.Context, text string) (model.PredictionResult, error) {
	if strings.TrimSpace(text) == "" {
		return model.PredictionResult{}, failure.NewValidation("text must not be empty")
	}

	var payload predictionPayload
	if err := c.postJSON(ctx, "/predict", predictRequest{Text: text}, &payload, true); err != nil {
		c.logger.Error().Err(err).Msg("Prediction failed")
		return model.PredictionResult{}, err
	}

	result, err := payload.toResult(c.now())
	if err != nil {
		return model.PredictionResult{}, err
	}

	c.logger.Debug().Str("sentiment", string(result.Sentiment)).Float64("confidence", result.Confidence).Msg("Prediction received")
	return result, nil
}

// PredictBatch asks the service for the sentiment of several texts at once.
// Results are positionally aligned with texts.
func (c *Client) PredictBatch(ctx context.Context, texts []string) ([]model.PredictionResult, error) {
	if len(texts) == 0 {
		return nil, failure.NewValidation("at least one text is required")
	}
	for i, t := range texts {
		if strings.TrimSpace(t) == "" {
			return nil, failure.NewValidation(fmt.Sprintf("text %d must not be empty", i+1))
		}
	}

	var payload batchResponse
	if err := c.postJSON(ctx, "/predict-batch", batchRequest{Texts: texts}, &payload, true); err != nil {
		c.logger.Error().Err(err).Int("count", len(texts)).Msg("Batch prediction failed")
		return nil, err
	}

	if len(payload.Results) != len(texts) {
		return nil, &failure.Error{
			Kind:    failure.Upstream,
			Message: fmt.Sprintf("expected %d results, got %d", len(texts), len(payload.Results)),
		}
	}

	receivedAt := c.now()
	results := make([]model.PredictionResult, 0, len(payload.Results))
	for _, p := range payload.Results {
		r, err := p.toResult(receivedAt)
		if err != nil {
			return nil, err
		}
		results = append(results, r)
	}

	c.logger.Debug().Int("count", len(results)).Msg("Batch prediction received")
	return results, nil
}

// CheckHealth never fails: any error maps to an unhealthy status
func (c *Client) CheckHealth(ctx context.Context) model.HealthStatus {
	var payload messageResponse
	err := c.getJSON(ctx, "/health", &payload, false)
	if err != nil {
		c.logger.Debug().Err(err).Msg("Health check failed")
		msg := "unable to reach the prediction service"
		if failure.Is(err, failure.Upstream) {
			msg = fmt.Sprintf("prediction service answered with status %d", failure.Status(err))
		}
		return model.HealthStatus{Healthy: false, Message: msg}
	}

	if payload.Message == "" {
		payload.Message = "prediction service is up"
	}
	return model.HealthStatus{Healthy: true, Message: payload.Message}
}

// GetServiceInfo fetches the runtime description of the prediction service
func (c *Client) GetServiceInfo(ctx context.Context) (model.ServiceInfo, error) {
	var info model.ServiceInfo
	if err := c.getJSON(ctx, "/info", &info, true); err != nil {
		return model.ServiceInfo{}, err
	}
	if info.TFVersion == "" {
		info.TFVersion = "unknown"
	}
	return info, nil
}

// SubmitFeedback mirrors a feedback record to the service. It is sent once:
// the endpoint is not idempotent.
func (c *Client) SubmitFeedback(ctx context.Context, record model.FeedbackRecord) (model.FeedbackAck, error) {
	req := feedbackRequest{
		TweetText:  record.TweetText,
		Prediction: string(record.PredictedSentiment),
		Confidence: record.Confidence,
		IsCorrect:  record.IsCorrect,
	}
	if !record.IsCorrect {
		req.CorrectedSentiment = record.CorrectedSentiment
		req.Comments = record.Comments
	}

	var payload messageResponse
	if err := c.postJSON(ctx, "/feedback", req, &payload, false); err != nil {
		c.logger.Warn().Err(err).Str("feedback_id", record.FeedbackID).Msg("Feedback submission failed")
		return model.FeedbackAck{Accepted: false}, err
	}

	return model.FeedbackAck{Accepted: true, Message: payload.Message}, nil
}

// TestTelemetry runs the service's telemetry connectivity check. Only a
// transport failure is returned as an error; an HTTP failure or a
// {"status":"error"} answer is reported in the check itself.
func (c *Client) TestTelemetry(ctx context.Context) (model.TelemetryCheck, error) {
	details := map[string]any{}
	err := c.getJSON(ctx, "/test-appinsights", &details, false)
	if err != nil && !failure.Is(err, failure.Upstream) {
		return model.TelemetryCheck{}, err
	}

	var statusErr *httpClient.HTTPStatusError
	if errors.As(err, &statusErr) {
		if jerr := json.Unmarshal(statusErr.Body, &details); jerr != nil {
			c.logger.Debug().Err(jerr).Msg("Telemetry error body is not JSON")
		}
	}

	status, _ := details["status"].(string)
	check := model.TelemetryCheck{OK: err == nil && status != "error", Details: details}
	if msg, ok := details["message"].(string); ok {
		check.Message = msg
	} else if err != nil {
		var fe *failure.Error
		errors.As(err, &fe)
		check.Message = fe.Message
	}
	return check, nil
}

func (c *Client) getJSON(ctx context.Context, path string, out any, retry bool) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return failure.NewTransport(fmt.Errorf("creating request: %w", err))
	}
	return c.do(ctx, req, out, retry)
}

func (c *Client) postJSON(ctx context.Context, path string, in, out any, retry bool) error {
	body, err := json.Marshal(in)
	if err != nil {
		return failure.NewValidation(fmt.Sprintf("encoding request: %v", err))
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(body))
	if err != nil {
		return failure.NewTransport(fmt.Errorf("creating request: %w", err))
	}
	req.Header.Set("Content-Type", "application/json")
	return c.do(ctx, req, out, retry)
}

func (c *Client) do(ctx context.Context, req *http.Request, out any, retry bool) error {
	req.Header.Set("Accept", "application/json")

	var resp *http.Response
	var err error
	if retry {
		resp, err = c.httpClient.DoRequest(ctx, req)
	} else {
		resp, err = c.httpClient.DoOnce(ctx, req)
	}
	if err != nil {
		var statusErr *httpClient.HTTPStatusError
		if errors.As(err, &statusErr) {
			fe := failure.NewUpstream(statusErr.StatusCode, upstreamMessage(statusErr.Body))
			fe.Err = statusErr
			return fe
		}
		return failure.NewTransport(err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return failure.NewTransport(fmt.Errorf("reading response body: %w", err))
	}

	if out == nil || len(bytes.TrimSpace(body)) == 0 {
		return nil
	}
	if err := json.Unmarshal(body, out); err != nil {
		c.logger.Error().Err(err).Str("response", string(body)).Msg("Error parsing JSON")
		return &failure.Error{Kind: failure.Upstream, Message: "malformed response from prediction service", HTTPStatus: resp.StatusCode, Err: err}
	}
	return nil
}

// upstreamMessage extracts the error text from a failed response. FastAPI
// puts it under "detail", either as a string or as a list of validation errors.
func upstreamMessage(body []byte) string {
	var payload struct {
		Detail  any    `json:"detail"`
		Message string `json:"message"`
		Error   string `json:"error"`
	}
	if err := json.Unmarshal(body, &payload); err != nil {
		return ""
	}

	switch d := payload.Detail.(type) {
	case string:
		return d
	case []any:
		if len(d) > 0 {
			if item, ok := d[0].(map[string]any); ok {
				if msg, ok := item["msg"].(string); ok {
					return msg
				}
			}
		}
	}
	if payload.Message != "" {
		return payload.Message
	}
	return payload.Error
}

func (p predictionPayload) toResult(receivedAt time.Time) (model.PredictionResult, error) {
	if p.Confidence < 0 || p.Confidence > 1 {
		return model.PredictionResult{}, &failure.Error{
			Kind:    failure.Upstream,
			Message: fmt.Sprintf("confidence %.4f outside [0,1]", p.Confidence),
		}
	}
	return model.PredictionResult{
		Sentiment:  model.Sentiment(p.Sentiment),
		Confidence: p.Confidence,
		RawScore:   p.RawScore,
		Timestamp:  parseTimestamp(p.Timestamp, receivedAt),
	}, nil
}

var timestampLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.999999999",
	"2006-01-02 15:04:05",
}

func parseTimestamp(value string, fallback time.Time) time.Time {
	if value == "" {
		return fallback
	}
	for _, layout := range timestampLayouts {
		if t, err := time.Parse(layout, value); err == nil {
			return t
		}
	}
	return fallback
}
