package feedback

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Alias1177/TweetMood/internal/failure"
	"github.com/Alias1177/TweetMood/internal/model"
	"github.com/Alias1177/TweetMood/internal/storage"
)

type fakeMirror struct {
	mu      sync.Mutex
	records []model.FeedbackRecord
	err     error
}

func (m *fakeMirror) SubmitFeedback(_ context.Context, rec model.FeedbackRecord) (model.FeedbackAck, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.records = append(m.records, rec)
	if m.err != nil {
		return model.FeedbackAck{}, m.err
	}
	return model.FeedbackAck{Accepted: true}, nil
}

func (m *fakeMirror) received() []model.FeedbackRecord {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]model.FeedbackRecord(nil), m.records...)
}

var submittedAt = time.Date(2025, 3, 14, 10, 0, 0, 0, time.UTC)

func sequentialIDs() func() string {
	n := 0
	return func() string {
		n++
		return fmt.Sprintf("fb-%d", n)
	}
}

func newTestStore(kv storage.KeyValue, mirror Mirror) *Store {
	return NewStore(kv, mirror,
		WithIDGenerator(sequentialIDs()),
		WithClock(func() time.Time { return submittedAt }),
	)
}

func prediction() model.PredictionResult {
	return model.PredictionResult{
		Sentiment:  model.Positive,
		Confidence: 0.61,
		RawScore:   0.61,
		Timestamp:  time.Date(2025, 3, 14, 9, 59, 0, 0, time.UTC),
	}
}

func TestRecordPositive(t *testing.T) {
	mirror := &fakeMirror{}
	s := newTestStore(storage.NewMemory(), mirror)
	p := prediction()

	assert.False(t, s.HasFeedback("nice crew", p.Timestamp))

	rec, err := s.RecordPositive("nice crew", p)
	require.NoError(t, err)
	s.Wait()

	assert.Equal(t, "fb-1", rec.FeedbackID)
	assert.True(t, rec.IsCorrect)
	assert.Empty(t, rec.CorrectedSentiment)
	assert.Equal(t, submittedAt, rec.SubmittedAt)

	assert.True(t, s.HasFeedback("nice crew", p.Timestamp))
	assert.False(t, s.HasFeedback("nice crew", p.Timestamp.Add(time.Second)), "another prediction instance of the same text")
	assert.False(t, s.HasFeedback("other tweet", p.Timestamp))

	require.Len(t, mirror.received(), 1)
	assert.Equal(t, rec, mirror.received()[0])
}

func TestRecordNegative(t *testing.T) {
	tests := []struct {
		name      string
		corrected string
		wantErr   bool
		want      string
	}{
		{"supported label", "negative", false, "negative"},
		{"label is normalized", "  Neutral ", false, "neutral"},
		{"mixed", "mixed", false, "mixed"},
		{"missing correction", "", true, ""},
		{"unsupported label", "angry", true, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			kv := storage.NewMemory()
			s := newTestStore(kv, nil)

			rec, err := s.RecordNegative("delayed again", prediction(), tt.corrected, " sarcasm ")
			if tt.wantErr {
				assert.True(t, failure.Is(err, failure.Validation))
				assert.Empty(t, s.Records(), "no record on validation failure")
				return
			}
			require.NoError(t, err)
			assert.False(t, rec.IsCorrect)
			assert.Equal(t, tt.want, rec.CorrectedSentiment)
			assert.Equal(t, "sarcasm", rec.Comments)
		})
	}
}

func TestStoreAllowsDuplicateRecords(t *testing.T) {
	s := newTestStore(storage.NewMemory(), nil)
	p := prediction()

	_, err := s.RecordPositive("same", p)
	require.NoError(t, err)
	_, err = s.RecordPositive("same", p)
	require.NoError(t, err)

	records := s.Records()
	require.Len(t, records, 2)
	assert.Equal(t, "fb-1", records[0].FeedbackID)
	assert.Equal(t, "fb-2", records[1].FeedbackID)
}

func TestMirrorFailureKeepsLocalRecord(t *testing.T) {
	mirror := &fakeMirror{err: errors.New("service unavailable")}
	kv := storage.NewMemory()
	s := newTestStore(kv, mirror)

	rec, err := s.RecordPositive("offline", prediction())
	require.NoError(t, err)
	s.Wait()

	assert.Len(t, mirror.received(), 1)
	records := s.Records()
	require.Len(t, records, 1)
	assert.Equal(t, rec.FeedbackID, records[0].FeedbackID)
}

func TestLedgerSurvivesReloadAndCorruption(t *testing.T) {
	kv := storage.NewMemory()
	p := prediction()

	_, err := newTestStore(kv, nil).RecordPositive("persisted", p)
	require.NoError(t, err)
	assert.True(t, NewStore(kv, nil).HasFeedback("persisted", p.Timestamp))

	require.NoError(t, kv.Set(storage.FeedbackKey, "[[["))
	s := NewStore(kv, nil)
	assert.Empty(t, s.Records())
	_, ok, _ := kv.Get(storage.FeedbackKey)
	assert.False(t, ok)
}
