package weather

import (
	"context"
	"errors"
)

// ErrFetch is returned (wrapped) for every failed lookup: no connectivity,
// non-2xx responses, unknown cities and malformed payloads alike.
var ErrFetch = errors.New("weather fetch failed")

// Provider abstracts a current-weather data source (e.g. OpenWeatherMap).
type Provider interface {
	Name() string
	Fetch(ctx context.Context, city string) (Reading, error)
}

// Recorder receives every successful reading. Recording is fire-and-forget.
type Recorder interface {
	RecordReading(ctx context.Context, r Reading)
}
