package history

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Alias1177/TweetMood/internal/model"
	"github.com/Alias1177/TweetMood/internal/storage"
)

func TestRecorderIsIdempotentPerGeneration(t *testing.T) {
	s := newTestStore(storage.NewMemory())
	r := NewRecorder(s)
	res := result(model.Positive, 0.93)

	added, err := r.Record(1, "I love this airline!", res)
	require.NoError(t, err)
	assert.True(t, added)

	// same event delivered again
	added, err = r.Record(1, "I love this airline!", res)
	require.NoError(t, err)
	assert.False(t, added)

	added, err = r.Record(3, "third tweet", res)
	require.NoError(t, err)
	assert.True(t, added)

	// a committed generation delivered after a newer one is still recorded
	added, err = r.Record(2, "second tweet", res)
	require.NoError(t, err)
	assert.True(t, added)

	added, err = r.Record(2, "second tweet", res)
	require.NoError(t, err)
	assert.False(t, added)

	entries := s.Entries()
	require.Len(t, entries, 3)
	assert.Equal(t, "second tweet", entries[0].TweetText)
	assert.Equal(t, "third tweet", entries[1].TweetText)
	assert.Equal(t, "I love this airline!", entries[2].TweetText)
}

func TestRecorderForgetsOldGenerations(t *testing.T) {
	s := NewStore(storage.NewMemory(), 200)
	r := NewRecorder(s)
	res := result(model.Negative, 0.8)

	for gen := uint64(1); gen <= recordedWindow+1; gen++ {
		_, err := r.Record(gen, "tweet", res)
		require.NoError(t, err)
	}

	assert.Len(t, r.seen, recordedWindow)
	assert.Len(t, r.order, recordedWindow)
	_, ok := r.seen[1]
	assert.False(t, ok)
}
