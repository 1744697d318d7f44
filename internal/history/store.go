package history

import (
	"encoding/json"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/Alias1177/TweetMood/internal/failure"
	"github.com/Alias1177/TweetMood/internal/model"
	"github.com/Alias1177/TweetMood/internal/storage"
)

// DefaultLimit is the number of entries kept when no limit is configured
const DefaultLimit = 10

// Store is the bounded, most-recent-first prediction history
type Store struct {
	mu      sync.Mutex
	kv      storage.KeyValue
	limit   int
	entries []model.HistoryEntry
	now     func() time.Time
	logger  zerolog.Logger
}

// NewStore creates a history store over kv. A limit below 1 means DefaultLimit.
func NewStore(kv storage.KeyValue, limit int) *Store {
	if limit < 1 {
		limit = DefaultLimit
	}
	return &Store{
		kv:     kv,
		limit:  limit,
		now:    time.Now,
		logger: log.With().Str("component", "history").Logger(),
	}
}

// Load reads the persisted list. Corrupt or unreadable content is discarded
// and the store starts empty.
func (s *Store) Load() []model.HistoryEntry {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.entries = s.read()
	return s.copyEntries()
}

// Append prepends entry, evicts anything beyond the limit and persists the
// whole list. A zero ID or Timestamp is filled in. The in-memory list is
// updated even when persisting fails.
func (s *Store) Append(entry model.HistoryEntry) (model.HistoryEntry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	// fresh read so a write from another process is not clobbered
	s.entries = s.read()

	if entry.Timestamp.IsZero() {
		entry.Timestamp = s.now()
	}
	if entry.ID == 0 {
		entry.ID = s.nextID(entry.Timestamp)
	}

	entries := make([]model.HistoryEntry, 0, len(s.entries)+1)
	entries = append(entries, entry)
	entries = append(entries, s.entries...)
	if len(entries) > s.limit {
		entries = entries[:s.limit]
	}
	s.entries = entries

	if err := s.write(); err != nil {
		s.logger.Error().Err(err).Int64("id", entry.ID).Msg("Failed to persist history")
		return entry, failure.NewPersistence(err)
	}
	return entry, nil
}

// Clear empties the list and removes the persisted value
func (s *Store) Clear() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.entries = nil
	if err := s.kv.Remove(storage.HistoryKey); err != nil {
		return failure.NewPersistence(err)
	}
	return nil
}

// Entries returns a copy of the current list, most recent first
func (s *Store) Entries() []model.HistoryEntry {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.copyEntries()
}

// Find returns the entry with the given id
func (s *Store) Find(id int64) (model.HistoryEntry, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, e := range s.entries {
		if e.ID == id {
			return e, true
		}
	}
	return model.HistoryEntry{}, false
}

// Limit returns the configured cap
func (s *Store) Limit() int {
	return s.limit
}

// nextID is time derived but strictly greater than the newest known id
func (s *Store) nextID(at time.Time) int64 {
	id := at.UnixMilli()
	if len(s.entries) > 0 && s.entries[0].ID >= id {
		id = s.entries[0].ID + 1
	}
	return id
}

func (s *Store) read() []model.HistoryEntry {
	raw, ok, err := s.kv.Get(storage.HistoryKey)
	if err != nil {
		s.logger.Warn().Err(err).Msg("Failed to read history, starting empty")
		return nil
	}
	if !ok || raw == "" {
		return nil
	}

	var entries []model.HistoryEntry
	if err := json.Unmarshal([]byte(raw), &entries); err != nil {
		s.logger.Warn().Err(err).Msg("Discarding corrupt history")
		if err := s.kv.Remove(storage.HistoryKey); err != nil {
			s.logger.Warn().Err(err).Msg("Failed to remove corrupt history")
		}
		return nil
	}

	if len(entries) > s.limit {
		entries = entries[:s.limit]
	}
	return entries
}

func (s *Store) write() error {
	data, err := json.Marshal(s.entries)
	if err != nil {
		return err
	}
	return s.kv.Set(storage.HistoryKey, string(data))
}

func (s *Store) copyEntries() []model.HistoryEntry {
	out := make([]model.HistoryEntry, len(s.entries))
	copy(out, s.entries)
	return out
}
