package history

import (
	"sync"

	"github.com/Alias1177/TweetMood/internal/model"
)

// recordedWindow is how many recent generations are remembered
const recordedWindow = 64

// Recorder turns prediction success events into history entries. Each
// generation is recorded at most once, so redelivering an event is harmless.
// Events may arrive out of generation order.
type Recorder struct {
	mu    sync.Mutex
	store *Store
	seen  map[uint64]struct{}
	order []uint64
}

func NewRecorder(store *Store) *Recorder {
	return &Recorder{store: store, seen: make(map[uint64]struct{})}
}

// Record appends (text, result) unless generation was already recorded.
// Generation 0 carries no identity and is always recorded.
// It reports whether an entry was added.
func (r *Recorder) Record(generation uint64, text string, result model.PredictionResult) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if generation != 0 {
		if _, ok := r.seen[generation]; ok {
			return false, nil
		}
		r.remember(generation)
	}

	_, err := r.store.Append(model.HistoryEntry{TweetText: text, Result: result})
	return true, err
}

func (r *Recorder) remember(generation uint64) {
	r.seen[generation] = struct{}{}
	r.order = append(r.order, generation)
	if len(r.order) > recordedWindow {
		delete(r.seen, r.order[0])
		r.order = r.order[1:]
	}
}
