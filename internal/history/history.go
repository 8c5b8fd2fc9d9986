package history

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/i474232898/city-weather/internal/store"
	"github.com/i474232898/city-weather/internal/weather"
)

const (
	// Key is the KV record holding the serialized history.
	Key = "weatherHistory"

	// DefaultLimit is the maximum number of entries kept.
	DefaultLimit = 10
)

// ErrClear is returned when the persisted history could not be removed.
var ErrClear = errors.New("could not clear search history")

// Entry is one recorded past search result. Field names match the
// persisted JSON record.
type Entry struct {
	City        string  `json:"city"`
	Temp        float64 `json:"temp"`
	Description string  `json:"description"`
	Icon        string  `json:"icon"`
	Timestamp   int64   `json:"timestamp"` // ms since epoch
}

// EntryFromReading builds the history entry for a successful lookup, keyed
// by the provider's canonical city name.
func EntryFromReading(r weather.Reading, now time.Time) Entry {
	return Entry{
		City:        r.City,
		Temp:        r.Temperature,
		Description: r.Description,
		Icon:        r.Icon,
		Timestamp:   now.UnixMilli(),
	}
}

// Prepend returns a new list with e first, any older entry for the same city
// (exact match) removed, truncated to limit. list is not modified.
func Prepend(list []Entry, e Entry, limit int) []Entry {
	if limit <= 0 {
		limit = DefaultLimit
	}

	out := make([]Entry, 0, limit)
	out = append(out, e)
	for _, item := range list {
		if len(out) >= limit {
			break
		}
		if item.City == e.City {
			continue
		}
		out = append(out, item)
	}
	return out
}

// Store is the capped, deduplicated, most-recent-first search history kept
// in a single KV record.
type Store struct {
	kv    store.KV
	limit int

	// mu serializes read-modify-write cycles within this process.
	mu  sync.Mutex
	now func() time.Time
}

// New creates a history Store over kv. limit <= 0 uses DefaultLimit.
func New(kv store.KV, limit int) *Store {
	if limit <= 0 {
		limit = DefaultLimit
	}
	return &Store{
		kv:    kv,
		limit: limit,
		now:   time.Now,
	}
}

// Limit reports the maximum number of entries kept.
func (s *Store) Limit() int { return s.limit }

// Read returns the current history, most recent first. Missing or unreadable
// data yields an empty list.
func (s *Store) Read(ctx context.Context) []Entry {
	list, err := s.load(ctx)
	if err != nil {
		log.Printf("history: failed to read %s: %v", Key, err)
		return []Entry{}
	}
	return list
}

// load is Read without the fallback: a missing or unreadable record is an
// empty list, while a backend failure is returned.
func (s *Store) load(ctx context.Context) ([]Entry, error) {
	raw, err := s.kv.Get(ctx, Key)
	if errors.Is(err, store.ErrNotFound) {
		return []Entry{}, nil
	}
	if err != nil {
		return nil, err
	}
	return s.decode(raw), nil
}

// decode parses the stored record entry by entry. Entries of a foreign shape,
// entries without a city and duplicates are dropped.
func (s *Store) decode(raw string) []Entry {
	var stored []json.RawMessage
	if err := json.Unmarshal([]byte(raw), &stored); err != nil {
		log.Printf("history: discarding unreadable %s record: %v", Key, err)
		return []Entry{}
	}

	seen := make(map[string]bool, len(stored))
	out := make([]Entry, 0, len(stored))
	for _, item := range stored {
		var e Entry
		if err := json.Unmarshal(item, &e); err != nil {
			log.Printf("history: skipping malformed entry: %v", err)
			continue
		}
		if e.City == "" || seen[e.City] {
			continue
		}
		seen[e.City] = true
		out = append(out, e)
		if len(out) == s.limit {
			break
		}
	}
	return out
}

// Record puts e at the front of the history. Persistence failures are logged
// and swallowed. When the current record cannot be read nothing is written,
// so a transient backend error never replaces the stored list.
func (s *Store) Record(ctx context.Context, e Entry) {
	if e.City == "" {
		log.Printf("history: ignoring entry without city")
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	current, err := s.load(ctx)
	if err != nil {
		log.Printf("warning: skipping search history update, read failed: %v", err)
		return
	}
	updated := Prepend(current, e, s.limit)

	data, err := json.Marshal(updated)
	if err != nil {
		log.Printf("history: failed to encode %s: %v", Key, err)
		return
	}
	if err := s.kv.Set(ctx, Key, string(data)); err != nil {
		log.Printf("warning: failed to persist search history: %v", err)
	}
}

// RecordReading implements weather.Recorder.
func (s *Store) RecordReading(ctx context.Context, r weather.Reading) {
	s.Record(ctx, EntryFromReading(r, s.now()))
}

// Clear removes the persisted history. Unlike Record, failures are returned
// so the user learns the history was not deleted.
func (s *Store) Clear(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.kv.Remove(ctx, Key); err != nil {
		log.Printf("ERROR: failed to clear search history: %v", err)
		return fmt.Errorf("%w: %v", ErrClear, err)
	}
	return nil
}
