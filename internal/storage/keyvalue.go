package storage

import (
	"fmt"

	"github.com/Alias1177/TweetMood/internal/config"
)

// Keys used by the client stores
const (
	HistoryKey  = "tweetHistory"
	FeedbackKey = "feedbackHistory"
)

// KeyValue is a string-valued persistence capability. Values are opaque to
// the store; callers own the encoding.
type KeyValue interface {
	// Get returns the value and whether the key was present
	Get(key string) (string, bool, error)
	Set(key, value string) error
	Remove(key string) error
	Close() error
}

// Open returns the KeyValue selected by cfg.StorageDriver
func Open(cfg *config.Config) (KeyValue, error) {
	switch cfg.StorageDriver {
	case "memory":
		return NewMemory(), nil
	case "sqlite", "":
		return NewSQLite(cfg.SQLitePath)
	case "postgres":
		return NewPostgres(ConnectionParams{
			Host:     cfg.DB.Host,
			Port:     cfg.DB.Port,
			User:     cfg.DB.User,
			Password: cfg.DB.Password,
			DBName:   cfg.DB.DBName,
			SSLMode:  cfg.DB.SSLMode,
		})
	default:
		return nil, fmt.Errorf("unknown storage driver %q", cfg.StorageDriver)
	}
}
