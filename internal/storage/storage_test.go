package storage

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Alias1177/TweetMood/internal/config"
)

func exerciseKeyValue(t *testing.T, kv KeyValue) {
	t.Helper()

	_, ok, err := kv.Get(HistoryKey)
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, kv.Set(HistoryKey, `[{"id":1}]`))
	require.NoError(t, kv.Set(FeedbackKey, `{}`))
	require.NoError(t, kv.Set(HistoryKey, `[{"id":2}]`))

	v, ok, err := kv.Get(HistoryKey)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, `[{"id":2}]`, v)

	require.NoError(t, kv.Remove(HistoryKey))
	_, ok, err = kv.Get(HistoryKey)
	require.NoError(t, err)
	assert.False(t, ok)

	v, ok, err = kv.Get(FeedbackKey)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, `{}`, v)

	// removing a missing key is not an error
	assert.NoError(t, kv.Remove("missing"))
}

func TestMemory(t *testing.T) {
	exerciseKeyValue(t, NewMemory())
}

func TestSQLite(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "state.db")
	s, err := NewSQLite(path)
	require.NoError(t, err)
	defer s.Close()

	exerciseKeyValue(t, s)
}

func TestSQLiteSurvivesReopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "state.db")

	s, err := NewSQLite(path)
	require.NoError(t, err)
	require.NoError(t, s.Set(HistoryKey, "persisted"))
	require.NoError(t, s.Close())

	s, err = NewSQLite(path)
	require.NoError(t, err)
	defer s.Close()

	v, ok, err := s.Get(HistoryKey)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "persisted", v)
}

func TestOpen(t *testing.T) {
	tests := []struct {
		name    string
		driver  string
		wantErr bool
	}{
		{"memory", "memory", false},
		{"sqlite", "sqlite", false},
		{"unknown driver", "redis", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := &config.Config{
				StorageDriver: tt.driver,
				SQLitePath:    filepath.Join(t.TempDir(), "state.db"),
			}
			kv, err := Open(cfg)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.NoError(t, kv.Close())
		})
	}
}

func TestConnectionParamsDSN(t *testing.T) {
	p := ConnectionParams{Host: "db", Port: "5432", User: "tm", Password: "pw", DBName: "tweetmood", SSLMode: "disable"}
	assert.Equal(t, "host=db port=5432 user=tm password=pw dbname=tweetmood sslmode=disable", p.DSN())
}
