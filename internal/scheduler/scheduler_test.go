package scheduler

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/i474232898/city-weather/internal/screen"
	"github.com/i474232898/city-weather/internal/weather"
)

type countingLookup struct {
	calls int32
}

func (c *countingLookup) Lookup(ctx context.Context, city string) (weather.Reading, error) {
	atomic.AddInt32(&c.calls, 1)
	return weather.Reading{City: city}, nil
}

func TestRunOnceRefreshesDisplayedCity(t *testing.T) {
	l := &countingLookup{}
	idle := screen.NewResult(l, time.Second)
	shown := screen.NewResult(l, time.Second)
	shown.Show(context.Background(), "Lima")

	s := New(time.Minute, idle, shown)
	if n := s.RunOnce(context.Background()); n != 1 {
		t.Errorf("expected 1 updated view, got %d", n)
	}
	if calls := atomic.LoadInt32(&l.calls); calls != 2 {
		t.Errorf("expected 2 lookups (show + refresh), got %d", calls)
	}
}

func TestStartDisabled(t *testing.T) {
	s := New(0, screen.NewResult(&countingLookup{}, time.Second))
	if err := s.Start(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	s.Stop()
}

func TestStartRunsJob(t *testing.T) {
	l := &countingLookup{}
	r := screen.NewResult(l, time.Second)
	r.Show(context.Background(), "Lima")

	s := New(50*time.Millisecond, r)
	if err := s.Start(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	defer s.Stop()

	deadline := time.Now().Add(3 * time.Second)
	for time.Now().Before(deadline) {
		if atomic.LoadInt32(&l.calls) > 1 {
			return
		}
		time.Sleep(20 * time.Millisecond)
	}
	t.Fatal("scheduler did not refresh within timeout")
}
