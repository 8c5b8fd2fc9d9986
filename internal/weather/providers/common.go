package providers

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"time"

	"github.com/sony/gobreaker"
)

// BreakerConfig controls when the provider circuit breaker opens.
type BreakerConfig struct {
	// MaxFailures is the number of consecutive failed calls that opens the
	// breaker (<= 0 disables tripping).
	MaxFailures int
	// OpenTimeout is how long the breaker stays open before probing again.
	OpenTimeout time.Duration
}

// HTTPClientConfig holds the client outbound provider calls go through.
type HTTPClientConfig struct {
	Client *http.Client
}

var (
	errRateLimited  = errors.New("rate limited")
	errServerError  = errors.New("server error")
	errUnexpected   = errors.New("unexpected status code")
	errCircuitOpen  = errors.New("circuit breaker open")
	errNoHTTPClient = errors.New("http client not configured")
)

func newCircuitBreaker(name string, cfg BreakerConfig) *gobreaker.CircuitBreaker {
	timeout := cfg.OpenTimeout
	if timeout <= 0 {
		timeout = 1 * time.Minute
	}
	return gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        name,
		MaxRequests: 1,
		Interval:    1 * time.Minute,
		Timeout:     timeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return cfg.MaxFailures > 0 && counts.ConsecutiveFailures >= uint32(cfg.MaxFailures)
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			log.Printf("provider %s: circuit breaker %s -> %s", name, from, to)
		},
	})
}

// doRequest executes the request exactly once inside the circuit breaker.
// Transport errors, 429 and 5xx count against the breaker; other non-2xx
// responses are client errors (e.g. unknown city) and only fail this call.
func doRequest(
	ctx context.Context,
	cfg HTTPClientConfig,
	cb *gobreaker.CircuitBreaker,
	req *http.Request,
) (*http.Response, error) {
	if cfg.Client == nil {
		return nil, errNoHTTPClient
	}

	// Ensure the request obeys context cancellation.
	req = req.WithContext(ctx)

	result, err := cb.Execute(func() (interface{}, error) {
		resp, execErr := cfg.Client.Do(req)
		if execErr != nil {
			return nil, execErr
		}

		if resp.StatusCode == http.StatusTooManyRequests {
			drain(resp)
			return nil, errRateLimited
		}
		if resp.StatusCode >= 500 {
			drain(resp)
			return nil, fmt.Errorf("%w: %d", errServerError, resp.StatusCode)
		}

		return resp, nil
	})
	if err != nil {
		if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
			return nil, fmt.Errorf("%w: %v", errCircuitOpen, err)
		}
		return nil, err
	}

	resp, ok := result.(*http.Response)
	if !ok {
		return nil, fmt.Errorf("unexpected result type from circuit breaker")
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		drain(resp)
		return nil, fmt.Errorf("%w: %d", errUnexpected, resp.StatusCode)
	}
	return resp, nil
}

func drain(resp *http.Response) {
	_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 4096))
	resp.Body.Close()
}
