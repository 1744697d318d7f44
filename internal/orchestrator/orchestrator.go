package orchestrator

import (
	"context"
	"errors"
	"strings"
	"sync"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/Alias1177/TweetMood/internal/failure"
	"github.com/Alias1177/TweetMood/internal/model"
)

// ErrSuperseded is returned to the caller of a request whose result arrived
// after a newer submission. The result is not committed.
var ErrSuperseded = errors.New("superseded by a newer submission")

// Predictor is the part of the remote client the orchestrator drives
type Predictor interface {
	PredictOne(ctx context.Context, text string) (model.PredictionResult, error)
	PredictBatch(ctx context.Context, texts []string) ([]model.PredictionResult, error)
}

// Phase of the tracked request
type Phase int

const (
	Idle Phase = iota
	Pending
	Succeeded
	Failed
)

func (p Phase) String() string {
	switch p {
	case Idle:
		return "idle"
	case Pending:
		return "pending"
	case Succeeded:
		return "succeeded"
	case Failed:
		return "failed"
	default:
		return "unknown"
	}
}

// State is a snapshot of the single tracked request
type State struct {
	Phase      Phase
	Generation uint64
	Text       string
	Result     model.PredictionResult
	// Error is the user facing message, set when Phase is Failed or when the
	// last submission was rejected by validation
	Error string
	Err   error
}

// BatchState is a snapshot of the tracked batch request
type BatchState struct {
	Phase      Phase
	Generation uint64
	Texts      []string
	Results    []model.PredictionResult
	Error      string
	Err        error
}

// Event is emitted once when a single prediction enters Succeeded
type Event struct {
	Generation uint64
	Text       string
	Result     model.PredictionResult
}

// Orchestrator tracks at most one in-flight single prediction and one batch.
// A new submission supersedes the previous one: a response that belongs to an
// older generation is discarded.
type Orchestrator struct {
	client Predictor
	logger zerolog.Logger

	mu        sync.Mutex
	gen       uint64
	state     State
	batchGen  uint64
	batch     BatchState
	onSuccess func(Event)
}

func New(client Predictor) *Orchestrator {
	return &Orchestrator{
		client: client,
		logger: log.With().Str("component", "orchestrator").Logger(),
	}
}

// OnSuccess sets the single subscriber of success events, replacing any
// previous one. It is called outside the orchestrator's lock.
func (o *Orchestrator) OnSuccess(fn func(Event)) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.onSuccess = fn
}

func (o *Orchestrator) State() State {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.state
}

func (o *Orchestrator) BatchState() BatchState {
	o.mu.Lock()
	defer o.mu.Unlock()

	b := o.batch
	b.Texts = append([]string(nil), o.batch.Texts...)
	b.Results = append([]model.PredictionResult(nil), o.batch.Results...)
	return b
}

// Submit predicts the sentiment of text. Empty input never reaches the
// client. If another Submit starts before this one resolves, the result is
// dropped and ErrSuperseded returned.
func (o *Orchestrator) Submit(ctx context.Context, text string) (model.PredictionResult, error) {
	trimmed := strings.TrimSpace(text)

	o.mu.Lock()
	o.gen++
	gen := o.gen
	if trimmed == "" {
		err := failure.NewValidation("please enter a tweet to analyze")
		o.state = State{Phase: Idle, Generation: gen, Error: err.Message, Err: err}
		o.mu.Unlock()
		return model.PredictionResult{}, err
	}
	o.state = State{Phase: Pending, Generation: gen, Text: trimmed}
	o.mu.Unlock()

	o.logger.Debug().Uint64("generation", gen).Msg("Prediction submitted")
	result, err := o.client.PredictOne(ctx, trimmed)

	o.mu.Lock()
	if gen != o.gen {
		o.mu.Unlock()
		o.logger.Debug().Uint64("generation", gen).Msg("Discarding stale prediction")
		return model.PredictionResult{}, ErrSuperseded
	}

	if err != nil {
		o.state = State{Phase: Failed, Generation: gen, Text: trimmed, Error: userMessage(err), Err: err}
		o.mu.Unlock()
		o.logger.Warn().Err(err).Uint64("generation", gen).Msg("Prediction failed")
		return model.PredictionResult{}, err
	}

	o.state = State{Phase: Succeeded, Generation: gen, Text: trimmed, Result: result}
	handler := o.onSuccess
	o.mu.Unlock()

	if handler != nil {
		handler(Event{Generation: gen, Text: trimmed, Result: result})
	}
	return result, nil
}

// SubmitBatch predicts every text. One empty entry rejects the whole batch
// before any network call. Batch results are never written to history.
func (o *Orchestrator) SubmitBatch(ctx context.Context, texts []string) ([]model.PredictionResult, error) {
	trimmed := make([]string, len(texts))
	var verr *failure.Error
	if len(texts) == 0 {
		verr = failure.NewValidation("please enter at least one tweet")
	}
	for i, t := range texts {
		trimmed[i] = strings.TrimSpace(t)
		if trimmed[i] == "" && verr == nil {
			verr = failure.NewValidation("every tweet in a batch must be non-empty")
		}
	}

	o.mu.Lock()
	o.batchGen++
	gen := o.batchGen
	if verr != nil {
		o.batch = BatchState{Phase: Idle, Generation: gen, Error: verr.Message, Err: verr}
		o.mu.Unlock()
		return nil, verr
	}
	o.batch = BatchState{Phase: Pending, Generation: gen, Texts: trimmed}
	o.mu.Unlock()

	results, err := o.client.PredictBatch(ctx, trimmed)

	o.mu.Lock()
	defer o.mu.Unlock()
	if gen != o.batchGen {
		return nil, ErrSuperseded
	}
	if err != nil {
		o.batch = BatchState{Phase: Failed, Generation: gen, Texts: trimmed, Error: userMessage(err), Err: err}
		o.logger.Warn().Err(err).Int("count", len(trimmed)).Msg("Batch prediction failed")
		return nil, err
	}
	o.batch = BatchState{Phase: Succeeded, Generation: gen, Texts: trimmed, Results: results}
	return results, nil
}

// userMessage is the single retryable message shown for a failed request
func userMessage(err error) string {
	var fe *failure.Error
	if !errors.As(err, &fe) {
		return "prediction failed, please try again"
	}
	switch fe.Kind {
	case failure.Transport:
		return "could not reach the prediction service, please try again"
	case failure.Upstream:
		if fe.Message != "" {
			return "prediction service error: " + fe.Message
		}
		return "prediction service error, please try again"
	default:
		return fe.Message
	}
}
