package app

import (
	"fmt"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/Alias1177/TweetMood/internal/api/sentiment"
	"github.com/Alias1177/TweetMood/internal/config"
	"github.com/Alias1177/TweetMood/internal/feedback"
	"github.com/Alias1177/TweetMood/internal/history"
	"github.com/Alias1177/TweetMood/internal/orchestrator"
	httpClient "github.com/Alias1177/TweetMood/internal/platform/http"
	"github.com/Alias1177/TweetMood/internal/poller"
	"github.com/Alias1177/TweetMood/internal/storage"
)

// App wires the client side components together
type App struct {
	Config       *config.Config
	Client       *sentiment.Client
	Store        storage.KeyValue
	History      *history.Store
	Feedback     *feedback.Store
	Orchestrator *orchestrator.Orchestrator

	recorder *history.Recorder
	logger   zerolog.Logger
}

// New opens local storage, loads the history and connects the orchestrator's
// success events to the history recorder
func New(cfg *config.Config) (*App, error) {
	kv, err := storage.Open(cfg)
	if err != nil {
		return nil, fmt.Errorf("opening %s storage: %w", cfg.StorageDriver, err)
	}
	return NewWithStore(cfg, kv), nil
}

// NewWithStore is New with an already opened store
func NewWithStore(cfg *config.Config, kv storage.KeyValue) *App {
	client := sentiment.NewClient(sentiment.ClientOptions{
		BaseURL: cfg.ClientURL(),
		HTTP: httpClient.ClientOptions{
			Timeout:         cfg.RequestTimeout,
			RequestsPerSec:  cfg.RequestsPerSec,
			MaxRetries:      cfg.MaxRetries,
			MaxRetryTimeout: cfg.MaxRetryTimeout,
		},
	})

	a := &App{
		Config:       cfg,
		Client:       client,
		Store:        kv,
		History:      history.NewStore(kv, cfg.HistoryLimit),
		Feedback:     feedback.NewStore(kv, client),
		Orchestrator: orchestrator.New(client),
		logger:       log.With().Str("component", "app").Logger(),
	}
	a.recorder = history.NewRecorder(a.History)
	a.Orchestrator.OnSuccess(a.recordSuccess)
	a.History.Load()

	return a
}

func (a *App) recordSuccess(e orchestrator.Event) {
	if _, err := a.recorder.Record(e.Generation, e.Text, e.Result); err != nil {
		a.logger.Warn().Err(err).Msg("Prediction not saved to history")
	}
}

// StartPollers starts the health and service info pollers. The returned
// function stops both.
func (a *App) StartPollers(onHealth, onInfo func(poller.Status)) (health, info *poller.Handle, stop func()) {
	health = poller.StartHealth(a.Client, a.Config.HealthInterval, onHealth)
	info = poller.StartInfo(a.Client, a.Config.InfoInterval, onInfo)
	return health, info, func() {
		health.Stop()
		info.Stop()
	}
}

// Close drains pending feedback mirrors and closes storage
func (a *App) Close() error {
	a.Feedback.Wait()
	return a.Store.Close()
}
