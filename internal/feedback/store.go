package feedback

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/Alias1177/TweetMood/internal/failure"
	"github.com/Alias1177/TweetMood/internal/model"
	"github.com/Alias1177/TweetMood/internal/storage"
)

// Sentiments a user may give as a correction
var CorrectedSentiments = []string{"positive", "negative", "neutral", "mixed"}

const defaultMirrorTimeout = 10 * time.Second

// Mirror receives a copy of every local feedback record
type Mirror interface {
	SubmitFeedback(ctx context.Context, record model.FeedbackRecord) (model.FeedbackAck, error)
}

// Store is the local feedback ledger, keyed by feedback id. It does not
// prevent a second record for the same prediction; Prompt does.
type Store struct {
	mu            sync.Mutex
	kv            storage.KeyValue
	mirror        Mirror
	newID         func() string
	now           func() time.Time
	mirrorTimeout time.Duration
	pending       sync.WaitGroup
	logger        zerolog.Logger
}

// Option configures a Store
type Option func(*Store)

// WithIDGenerator replaces the uuid generator
func WithIDGenerator(fn func() string) Option {
	return func(s *Store) { s.newID = fn }
}

// WithClock replaces time.Now
func WithClock(fn func() time.Time) Option {
	return func(s *Store) { s.now = fn }
}

// WithMirrorTimeout bounds each remote mirror attempt
func WithMirrorTimeout(d time.Duration) Option {
	return func(s *Store) { s.mirrorTimeout = d }
}

// NewStore creates a ledger over kv. mirror may be nil.
func NewStore(kv storage.KeyValue, mirror Mirror, opts ...Option) *Store {
	s := &Store{
		kv:            kv,
		mirror:        mirror,
		newID:         uuid.NewString,
		now:           time.Now,
		mirrorTimeout: defaultMirrorTimeout,
		logger:        log.With().Str("component", "feedback").Logger(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// RecordPositive stores agreement with prediction
func (s *Store) RecordPositive(tweetText string, prediction model.PredictionResult) (model.FeedbackRecord, error) {
	return s.record(s.newRecord(tweetText, prediction, true))
}

// RecordNegative stores disagreement. correctedSentiment must be one of
// CorrectedSentiments; otherwise nothing is recorded.
func (s *Store) RecordNegative(tweetText string, prediction model.PredictionResult, correctedSentiment, comments string) (model.FeedbackRecord, error) {
	corrected := strings.ToLower(strings.TrimSpace(correctedSentiment))
	if corrected == "" {
		return model.FeedbackRecord{}, failure.NewValidation("a corrected sentiment is required")
	}
	if !isSupported(corrected) {
		return model.FeedbackRecord{}, failure.NewValidation(
			fmt.Sprintf("unsupported sentiment %q, expected one of %s", correctedSentiment, strings.Join(CorrectedSentiments, ", ")))
	}

	rec := s.newRecord(tweetText, prediction, false)
	rec.CorrectedSentiment = corrected
	rec.Comments = strings.TrimSpace(comments)
	return s.record(rec)
}

// HasFeedback reports whether the prediction instance (tweet text plus the
// prediction's own timestamp) was already judged
func (s *Store) HasFeedback(tweetText string, predictionTimestamp time.Time) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, rec := range s.read() {
		if rec.TweetText == tweetText && rec.PredictionTimestamp.Equal(predictionTimestamp) {
			return true
		}
	}
	return false
}

// Records returns the ledger ordered by submission time
func (s *Store) Records() []model.FeedbackRecord {
	s.mu.Lock()
	ledger := s.read()
	s.mu.Unlock()

	out := make([]model.FeedbackRecord, 0, len(ledger))
	for _, rec := range ledger {
		out = append(out, rec)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].SubmittedAt.Equal(out[j].SubmittedAt) {
			return out[i].FeedbackID < out[j].FeedbackID
		}
		return out[i].SubmittedAt.Before(out[j].SubmittedAt)
	})
	return out
}

// Wait blocks until every pending remote mirror has finished
func (s *Store) Wait() {
	s.pending.Wait()
}

func (s *Store) newRecord(tweetText string, prediction model.PredictionResult, correct bool) model.FeedbackRecord {
	return model.FeedbackRecord{
		FeedbackID:          s.newID(),
		TweetText:           tweetText,
		PredictedSentiment:  prediction.Sentiment,
		Confidence:          prediction.Confidence,
		PredictionTimestamp: prediction.Timestamp,
		IsCorrect:           correct,
		SubmittedAt:         s.now(),
	}
}

// record persists rec locally first, then mirrors it in the background.
// A mirror failure is only logged.
func (s *Store) record(rec model.FeedbackRecord) (model.FeedbackRecord, error) {
	s.mu.Lock()
	ledger := s.read()
	ledger[rec.FeedbackID] = rec
	err := s.write(ledger)
	s.mu.Unlock()

	if err != nil {
		s.logger.Error().Err(err).Str("feedback_id", rec.FeedbackID).Msg("Failed to persist feedback")
		return model.FeedbackRecord{}, failure.NewPersistence(err)
	}

	s.logger.Info().
		Str("feedback_id", rec.FeedbackID).
		Bool("is_correct", rec.IsCorrect).
		Msg("Feedback recorded")

	if s.mirror != nil {
		s.pending.Add(1)
		go s.mirrorRecord(rec)
	}
	return rec, nil
}

func (s *Store) mirrorRecord(rec model.FeedbackRecord) {
	defer s.pending.Done()

	ctx, cancel := context.WithTimeout(context.Background(), s.mirrorTimeout)
	defer cancel()

	if _, err := s.mirror.SubmitFeedback(ctx, rec); err != nil {
		s.logger.Warn().Err(err).Str("feedback_id", rec.FeedbackID).Msg("Feedback not mirrored to the prediction service")
		return
	}
	s.logger.Debug().Str("feedback_id", rec.FeedbackID).Msg("Feedback mirrored")
}

func (s *Store) read() map[string]model.FeedbackRecord {
	ledger := make(map[string]model.FeedbackRecord)

	raw, ok, err := s.kv.Get(storage.FeedbackKey)
	if err != nil {
		s.logger.Warn().Err(err).Msg("Failed to read feedback ledger, starting empty")
		return ledger
	}
	if !ok || raw == "" {
		return ledger
	}

	if err := json.Unmarshal([]byte(raw), &ledger); err != nil {
		s.logger.Warn().Err(err).Msg("Discarding corrupt feedback ledger")
		if err := s.kv.Remove(storage.FeedbackKey); err != nil {
			s.logger.Warn().Err(err).Msg("Failed to remove corrupt feedback ledger")
		}
		return make(map[string]model.FeedbackRecord)
	}
	return ledger
}

func (s *Store) write(ledger map[string]model.FeedbackRecord) error {
	data, err := json.Marshal(ledger)
	if err != nil {
		return err
	}
	return s.kv.Set(storage.FeedbackKey, string(data))
}

func isSupported(sentiment string) bool {
	for _, s := range CorrectedSentiments {
		if s == sentiment {
			return true
		}
	}
	return false
}
