package screen

import (
	"context"
	"sync"

	"github.com/i474232898/city-weather/internal/history"
)

// EmptyHistoryMessage is shown when there are no recent searches.
const EmptyHistoryMessage = "No hay búsquedas recientes."

// HistorySource is the part of the history store the history view needs.
type HistorySource interface {
	Read(ctx context.Context) []history.Entry
	Clear(ctx context.Context) error
}

// History is the recent-searches view. It holds a read-only snapshot that is
// refreshed every time the view gains focus.
type History struct {
	source HistorySource

	mu       sync.RWMutex
	snapshot []history.Entry
}

func NewHistory(source HistorySource) *History {
	return &History{source: source, snapshot: []history.Entry{}}
}

// Focus reloads the snapshot from the store and returns it.
func (h *History) Focus(ctx context.Context) []history.Entry {
	entries := h.source.Read(ctx)

	h.mu.Lock()
	h.snapshot = entries
	h.mu.Unlock()

	return h.Entries()
}

// Entries returns a copy of the last loaded snapshot.
func (h *History) Entries() []history.Entry {
	h.mu.RLock()
	defer h.mu.RUnlock()

	out := make([]history.Entry, len(h.snapshot))
	copy(out, h.snapshot)
	return out
}

// At returns the i-th entry (0-based) of the last snapshot.
func (h *History) At(i int) (history.Entry, bool) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	if i < 0 || i >= len(h.snapshot) {
		return history.Entry{}, false
	}
	return h.snapshot[i], true
}

// Clear deletes the whole history once the user confirmed. Store failures are
// returned so they can be shown; the snapshot is left untouched then.
func (h *History) Clear(ctx context.Context, confirmed bool) error {
	if !confirmed {
		return ErrNotConfirmed
	}
	if err := h.source.Clear(ctx); err != nil {
		return err
	}

	h.mu.Lock()
	h.snapshot = []history.Entry{}
	h.mu.Unlock()
	return nil
}

// Open returns the city to show when a history entry is selected.
func (h *History) Open(city string) (string, error) {
	return Submit(city)
}
