package scheduler

import (
	"context"
	"log"
	"sync"
	"time"

	"github.com/go-co-op/gocron"

	"github.com/i474232898/city-weather/internal/screen"
)

// Refresher is a view that can re-fetch what it currently displays.
type Refresher interface {
	Refresh(ctx context.Context) (screen.State, bool)
}

// Scheduler periodically refreshes the weather shown on result views.
type Scheduler struct {
	scheduler *gocron.Scheduler
	targets   []Refresher
	interval  time.Duration
	timeout   time.Duration
}

// New creates a new Scheduler.
func New(interval time.Duration, targets ...Refresher) *Scheduler {
	s := gocron.NewScheduler(time.UTC)
	return &Scheduler{
		scheduler: s,
		targets:   targets,
		interval:  interval,
		timeout:   30 * time.Second,
	}
}

// Start schedules the periodic job and starts the underlying scheduler.
func (s *Scheduler) Start() error {
	if s.interval <= 0 {
		log.Println("scheduler: refresh disabled; nothing to schedule")
		return nil
	}
	if len(s.targets) == 0 {
		log.Println("scheduler: no views configured; nothing to schedule")
		return nil
	}

	_, err := s.scheduler.Every(s.interval).WaitForSchedule().SingletonMode().Do(func() {
		s.RunOnce(context.Background())
	})
	if err != nil {
		return err
	}

	s.scheduler.StartAsync()
	return nil
}

// RunOnce refreshes every target concurrently and waits for them. It returns
// how many views were actually updated.
func (s *Scheduler) RunOnce(parent context.Context) int {
	log.Println("scheduler: running weather refresh job")

	var (
		wg      sync.WaitGroup
		mu      sync.Mutex
		updated int
	)
	for _, t := range s.targets {
		t := t
		wg.Add(1)
		go func() {
			defer wg.Done()

			ctx, cancel := context.WithTimeout(parent, s.timeout)
			defer cancel()

			st, ok := t.Refresh(ctx)
			if !ok {
				return
			}
			if st.Phase == screen.PhaseError {
				log.Printf("scheduler: refresh failed for %s", st.City)
			}
			mu.Lock()
			updated++
			mu.Unlock()
		}()
	}
	wg.Wait()

	log.Printf("scheduler: completed weather refresh job (%d updated)", updated)
	return updated
}

// Stop stops the scheduler and cancels any future jobs.
func (s *Scheduler) Stop() {
	if s.scheduler != nil {
		s.scheduler.Stop()
	}
}
