package feedback

import (
	"errors"
	"sync"

	"github.com/Alias1177/TweetMood/internal/model"
)

// PromptState is where the user is in judging one prediction
type PromptState int

const (
	PromptNone PromptState = iota
	PromptNegative
	PromptSubmitted
)

func (s PromptState) String() string {
	switch s {
	case PromptNone:
		return "none"
	case PromptNegative:
		return "negative"
	case PromptSubmitted:
		return "submitted"
	default:
		return "unknown"
	}
}

var (
	ErrAlreadySubmitted = errors.New("feedback already submitted for this prediction")
	ErrNotCorrecting    = errors.New("no correction in progress")
)

// Prompt guards one prediction instance against a second feedback record
type Prompt struct {
	mu         sync.Mutex
	store      *Store
	tweetText  string
	prediction model.PredictionResult
	state      PromptState
}

// Prompt opens the feedback prompt for a prediction. An instance that was
// already judged starts in PromptSubmitted.
func (s *Store) Prompt(tweetText string, prediction model.PredictionResult) *Prompt {
	p := &Prompt{store: s, tweetText: tweetText, prediction: prediction}
	if s.HasFeedback(tweetText, prediction.Timestamp) {
		p.state = PromptSubmitted
	}
	return p
}

func (p *Prompt) State() PromptState {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.state
}

// Agree records that the prediction was right
func (p *Prompt) Agree() (model.FeedbackRecord, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.state == PromptSubmitted {
		return model.FeedbackRecord{}, ErrAlreadySubmitted
	}
	rec, err := p.store.RecordPositive(p.tweetText, p.prediction)
	if err != nil {
		return model.FeedbackRecord{}, err
	}
	p.state = PromptSubmitted
	return rec, nil
}

// Disagree opens the correction form
func (p *Prompt) Disagree() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.state == PromptSubmitted {
		return ErrAlreadySubmitted
	}
	p.state = PromptNegative
	return nil
}

// Cancel closes the correction form without recording anything
func (p *Prompt) Cancel() {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.state == PromptNegative {
		p.state = PromptNone
	}
}

// Submit records the correction. On a validation error the form stays open.
func (p *Prompt) Submit(correctedSentiment, comments string) (model.FeedbackRecord, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	switch p.state {
	case PromptSubmitted:
		return model.FeedbackRecord{}, ErrAlreadySubmitted
	case PromptNone:
		return model.FeedbackRecord{}, ErrNotCorrecting
	}

	rec, err := p.store.RecordNegative(p.tweetText, p.prediction, correctedSentiment, comments)
	if err != nil {
		return model.FeedbackRecord{}, err
	}
	p.state = PromptSubmitted
	return rec, nil
}
