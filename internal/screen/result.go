package screen

import (
	"context"
	"log"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/i474232898/city-weather/internal/weather"
)

// ErrorMessage is what users see when a lookup fails.
const ErrorMessage = "No se pudo obtener el clima."

// Phase is the rendering state of the result view.
type Phase string

const (
	PhaseIdle    Phase = "idle"
	PhaseLoading Phase = "loading"
	PhaseError   Phase = "error"
	PhaseSuccess Phase = "success"
)

// State is a snapshot of the result view.
type State struct {
	Phase   Phase            `json:"phase"`
	City    string           `json:"city,omitempty"` // navigation target
	Reading *weather.Reading `json:"reading,omitempty"`
	Error   string           `json:"error,omitempty"`

	UpdatedAt time.Time `json:"updatedAt"`
}

// Lookuper fetches (and records) the weather for a city.
type Lookuper interface {
	Lookup(ctx context.Context, city string) (weather.Reading, error)
}

// Result is the result view for one display surface. Every navigation gets
// a fresh token; an outcome is applied only while its token is current, so a
// late response for an abandoned city never replaces a newer one.
type Result struct {
	lookup  Lookuper
	timeout time.Duration

	mu    sync.Mutex
	token string
	state State
}

// NewResult creates an idle result view. timeout bounds background fetches
// started by ShowAsync (<= 0 means 30s).
func NewResult(lookup Lookuper, timeout time.Duration) *Result {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &Result{
		lookup:  lookup,
		timeout: timeout,
		state:   State{Phase: PhaseIdle, UpdatedAt: time.Now().UTC()},
	}
}

// State returns the current snapshot.
func (r *Result) State() State {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.state
}

// Target returns the city currently displayed (or being loaded).
func (r *Result) Target() string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.state.City
}

func (r *Result) navigate(city string) (string, State) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.token = uuid.NewString()
	r.state = State{Phase: PhaseLoading, City: city, UpdatedAt: time.Now().UTC()}
	return r.token, r.state
}

// apply stores the outcome of the fetch started under token. It reports
// false when the view has navigated elsewhere in the meantime.
func (r *Result) apply(token, city string, reading weather.Reading, err error, keepOnError bool) (State, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if token != r.token {
		log.Printf("DEBUG: discarding stale weather response for %q (showing %q)", city, r.state.City)
		return r.state, false
	}

	now := time.Now().UTC()
	if err != nil {
		if keepOnError && r.state.Phase == PhaseSuccess {
			log.Printf("refresh failed for %q; keeping last good reading: %v", city, err)
			return r.state, true
		}
		r.state = State{Phase: PhaseError, City: city, Error: ErrorMessage, UpdatedAt: now}
		return r.state, true
	}

	rd := reading
	r.state = State{Phase: PhaseSuccess, City: city, Reading: &rd, UpdatedAt: now}
	return r.state, true
}

// Show navigates to city and blocks until the lookup finishes. The returned
// state is whatever is displayed afterwards; the bool reports whether this
// call's own outcome is the one displayed, which is false once a later
// navigation (even to the same city) superseded it.
func (r *Result) Show(ctx context.Context, city string) (State, bool) {
	token, _ := r.navigate(city)
	reading, err := r.lookup.Lookup(ctx, city)
	return r.apply(token, city, reading, err, false)
}

// ShowAsync navigates to city and runs the lookup in the background. It
// returns the loading state and a channel closed once the lookup finished.
func (r *Result) ShowAsync(city string) (State, <-chan struct{}) {
	token, st := r.navigate(city)
	done := make(chan struct{})

	go func() {
		defer close(done)

		ctx, cancel := context.WithTimeout(context.Background(), r.timeout)
		defer cancel()

		reading, err := r.lookup.Lookup(ctx, city)
		r.apply(token, city, reading, err, false)
	}()

	return st, done
}

// Refresh re-fetches the displayed city without leaving the current view.
// A failed refresh keeps the last good reading. It reports false when there
// is nothing to refresh or the view navigated away meanwhile.
func (r *Result) Refresh(ctx context.Context) (State, bool) {
	r.mu.Lock()
	token, city, phase := r.token, r.state.City, r.state.Phase
	r.mu.Unlock()

	if city == "" || phase == PhaseLoading {
		return r.State(), false
	}

	reading, err := r.lookup.Lookup(ctx, city)
	return r.apply(token, city, reading, err, true)
}
