package app

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Alias1177/TweetMood/internal/config"
	"github.com/Alias1177/TweetMood/internal/orchestrator"
	"github.com/Alias1177/TweetMood/internal/poller"
	"github.com/Alias1177/TweetMood/internal/storage"
)

func fakeUpstream(t *testing.T, feedbackCalls *int32) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("/predict", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"sentiment":"Positif","confidence":0.93,"raw_score":4.12}`))
	})
	mux.HandleFunc("/feedback", func(w http.ResponseWriter, r *http.Request) {
		var body map[string]any
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		atomic.AddInt32(feedbackCalls, 1)
		w.Write([]byte(`{"status":"success"}`))
	})
	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"message":"ok"}`))
	})
	mux.HandleFunc("/info", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"tensorflow_version":"2.15.0","devices_available":["/device:CPU:0"],"using_gpu":false}`))
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func testConfig(upstream string) *config.Config {
	return &config.Config{
		UpstreamURL:     upstream,
		RequestTimeout:  2 * time.Second,
		RequestsPerSec:  50,
		MaxRetries:      0,
		MaxRetryTimeout: time.Second,
		StorageDriver:   "memory",
		HistoryLimit:    10,
		HealthInterval:  time.Hour,
		InfoInterval:    time.Hour,
	}
}

func TestPredictFlowsIntoHistoryAndFeedback(t *testing.T) {
	var feedbackCalls int32
	srv := fakeUpstream(t, &feedbackCalls)
	kv := storage.NewMemory()

	a := NewWithStore(testConfig(srv.URL), kv)

	result, err := a.Orchestrator.Submit(context.Background(), "I love this airline!")
	require.NoError(t, err)
	assert.Equal(t, orchestrator.Succeeded, a.Orchestrator.State().Phase)

	entries := a.History.Entries()
	require.Len(t, entries, 1)
	assert.Equal(t, "I love this airline!", entries[0].TweetText)

	prompt := a.Feedback.Prompt("I love this airline!", result)
	_, err = prompt.Agree()
	require.NoError(t, err)
	assert.True(t, a.Feedback.HasFeedback("I love this airline!", result.Timestamp))

	require.NoError(t, a.Close())
	assert.Equal(t, int32(1), atomic.LoadInt32(&feedbackCalls))

	// state survives a restart on the same store
	b := NewWithStore(testConfig(srv.URL), kv)
	assert.Len(t, b.History.Entries(), 1)
}

func TestStartPollers(t *testing.T) {
	var feedbackCalls int32
	srv := fakeUpstream(t, &feedbackCalls)
	a := NewWithStore(testConfig(srv.URL), storage.NewMemory())

	health, info, stop := a.StartPollers(nil, nil)
	defer stop()

	require.Eventually(t, func() bool { return health.Status().Level == poller.Online }, 2*time.Second, 10*time.Millisecond)
	require.Eventually(t, func() bool { return info.Status().Level == poller.Unavailable }, 2*time.Second, 10*time.Millisecond)
}

func TestNewWithUnknownDriver(t *testing.T) {
	cfg := testConfig("http://localhost:1")
	cfg.StorageDriver = "etcd"
	_, err := New(cfg)
	assert.Error(t, err)
}
