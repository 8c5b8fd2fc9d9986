package weather

import (
	"context"
	"fmt"
	"log"
	"time"
)

// Service fetches current weather from a provider and hands every successful
// reading to the recorder.
type Service struct {
	provider Provider
	recorder Recorder
	now      func() time.Time
}

// NewService creates a new Service. recorder may be nil.
func NewService(provider Provider, recorder Recorder) *Service {
	return &Service{
		provider: provider,
		recorder: recorder,
		now:      time.Now,
	}
}

// Lookup performs exactly one provider fetch for city. On success the reading
// is recorded once under the provider's canonical city name before returning.
func (s *Service) Lookup(ctx context.Context, city string) (Reading, error) {
	if s.provider == nil {
		log.Printf("ERROR: No provider available to fetch weather data for %q", city)
		return Reading{}, fmt.Errorf("%w: no weather provider configured", ErrFetch)
	}

	log.Printf("DEBUG: Lookup called for %q via %s", city, s.provider.Name())

	r, err := s.provider.Fetch(ctx, city)
	if err != nil {
		log.Printf("provider %s fetch failed for %q: %v", s.provider.Name(), city, err)
		return Reading{}, err
	}

	if r.FetchedAt.IsZero() {
		r.FetchedAt = s.now().UTC()
	}

	if s.recorder != nil {
		s.recorder.RecordReading(ctx, r)
	}
	return r, nil
}
