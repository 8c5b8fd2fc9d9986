package providers

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/i474232898/city-weather/internal/weather"
)

const limaResponse = `{
	"name": "Lima",
	"main": {"temp": 18.24, "feels_like": 17.9, "temp_min": 17.1, "temp_max": 19.3, "humidity": 82, "pressure": 1013},
	"weather": [{"main": "Clouds", "description": "nubes dispersas", "icon": "03d"}],
	"wind": {"speed": 0},
	"visibility": 10000,
	"sys": {"country": "PE", "sunrise": 1700000000, "sunset": 1700044000}
}`

func newTestProvider(serverURL string, maxFailures int) *OpenWeatherProvider {
	return NewOpenWeatherProvider(&http.Client{}, OpenWeatherConfig{
		APIKey:  "test-key",
		BaseURL: serverURL,
		Breaker: BreakerConfig{MaxFailures: maxFailures},
	})
}

func TestOpenWeatherFetch(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/data/2.5/weather" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		q := r.URL.Query()
		expected := map[string]string{
			"q":     "lima",
			"appid": "test-key",
			"units": "metric",
			"lang":  "es",
		}
		for k, v := range expected {
			if got := q.Get(k); got != v {
				t.Errorf("expected query %s=%q, got %q", k, v, got)
			}
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(limaResponse))
	}))
	defer server.Close()

	p := newTestProvider(server.URL, 5)
	r, err := p.Fetch(context.Background(), "  lima ")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if r.City != "Lima" {
		t.Errorf("expected canonical city Lima, got %q", r.City)
	}
	if r.Country != "PE" {
		t.Errorf("expected country PE, got %q", r.Country)
	}
	if r.Temperature != 18.24 || r.FeelsLike != 17.9 || r.TempMin != 17.1 || r.TempMax != 19.3 {
		t.Errorf("unexpected temperatures: %+v", r)
	}
	if r.Humidity != 82 || r.Pressure != 1013 {
		t.Errorf("unexpected humidity/pressure: %v/%v", r.Humidity, r.Pressure)
	}
	if r.WindSpeed != 0 {
		t.Errorf("expected calm wind, got %v", r.WindSpeed)
	}
	if r.Visibility != 10000 {
		t.Errorf("expected visibility 10000, got %v", r.Visibility)
	}
	if r.Description != "nubes dispersas" || r.Icon != "03d" {
		t.Errorf("unexpected condition %q/%q", r.Description, r.Icon)
	}
	if r.Sunrise != 1700000000 || r.Sunset != 1700044000 {
		t.Errorf("unexpected sun times %d/%d", r.Sunrise, r.Sunset)
	}
	if r.FetchedAt.IsZero() {
		t.Error("expected FetchedAt to be set")
	}
}

func TestOpenWeatherFetchFailures(t *testing.T) {
	tests := []struct {
		name   string
		status int
		body   string
	}{
		{name: "city not found", status: http.StatusNotFound, body: `{"cod":"404","message":"city not found"}`},
		{name: "unauthorized", status: http.StatusUnauthorized, body: `{"cod":401}`},
		{name: "server error", status: http.StatusInternalServerError, body: `oops`},
		{name: "rate limited", status: http.StatusTooManyRequests, body: ``},
		{name: "malformed json", status: http.StatusOK, body: `{"name": "Lima",`},
		{name: "missing name", status: http.StatusOK, body: strings.Replace(limaResponse, `"name": "Lima",`, ``, 1)},
		{name: "missing main", status: http.StatusOK, body: `{"name":"Lima","weather":[{"description":"d","icon":"01d"}],"wind":{"speed":1},"visibility":1,"sys":{"sunrise":1,"sunset":2}}`},
		{name: "missing feels_like", status: http.StatusOK, body: strings.Replace(limaResponse, `"feels_like": 17.9, `, ``, 1)},
		{name: "empty weather list", status: http.StatusOK, body: strings.Replace(limaResponse, `[{"main": "Clouds", "description": "nubes dispersas", "icon": "03d"}]`, `[]`, 1)},
		{name: "missing icon", status: http.StatusOK, body: strings.Replace(limaResponse, `, "icon": "03d"`, ``, 1)},
		{name: "missing wind speed", status: http.StatusOK, body: strings.Replace(limaResponse, `{"speed": 0}`, `{}`, 1)},
		{name: "missing visibility", status: http.StatusOK, body: strings.Replace(limaResponse, `"visibility": 10000,`, ``, 1)},
		{name: "missing sunset", status: http.StatusOK, body: strings.Replace(limaResponse, `, "sunset": 1700044000`, ``, 1)},
		{name: "humidity out of range", status: http.StatusOK, body: strings.Replace(limaResponse, `"humidity": 82`, `"humidity": 182`, 1)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				w.Write([]byte(tt.body))
			}))
			defer server.Close()

			p := newTestProvider(server.URL, 0)
			_, err := p.Fetch(context.Background(), "Lima")
			if !errors.Is(err, weather.ErrFetch) {
				t.Errorf("expected ErrFetch, got %v", err)
			}
		})
	}
}

func TestOpenWeatherFetchInputErrors(t *testing.T) {
	var hits int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&hits, 1)
	}))
	defer server.Close()

	p := newTestProvider(server.URL, 5)
	if _, err := p.Fetch(context.Background(), "   "); !errors.Is(err, weather.ErrFetch) {
		t.Errorf("expected ErrFetch for blank city, got %v", err)
	}

	noKey := NewOpenWeatherProvider(&http.Client{}, OpenWeatherConfig{BaseURL: server.URL})
	if _, err := noKey.Fetch(context.Background(), "Lima"); !errors.Is(err, weather.ErrFetch) {
		t.Errorf("expected ErrFetch without api key, got %v", err)
	}

	if n := atomic.LoadInt32(&hits); n != 0 {
		t.Errorf("expected no network calls, got %d", n)
	}
}

func TestOpenWeatherSingleAttempt(t *testing.T) {
	var hits int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&hits, 1)
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer server.Close()

	p := newTestProvider(server.URL, 0)
	if _, err := p.Fetch(context.Background(), "Lima"); err == nil {
		t.Fatal("expected error")
	}
	if n := atomic.LoadInt32(&hits); n != 1 {
		t.Errorf("expected exactly one attempt, got %d", n)
	}
}

func TestOpenWeatherCircuitBreaker(t *testing.T) {
	var hits int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&hits, 1)
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer server.Close()

	p := newTestProvider(server.URL, 2)
	for i := 0; i < 4; i++ {
		if _, err := p.Fetch(context.Background(), "Lima"); !errors.Is(err, weather.ErrFetch) {
			t.Fatalf("call %d: expected ErrFetch, got %v", i, err)
		}
	}

	if n := atomic.LoadInt32(&hits); n != 2 {
		t.Errorf("expected breaker to stop calls after 2 failures, got %d hits", n)
	}
}

func TestOpenWeatherNotFoundDoesNotTripBreaker(t *testing.T) {
	var hits int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&hits, 1)
		w.WriteHeader(http.StatusNotFound)
	}))
	defer server.Close()

	p := newTestProvider(server.URL, 2)
	for i := 0; i < 4; i++ {
		_, _ = p.Fetch(context.Background(), "Atlantis")
	}

	if n := atomic.LoadInt32(&hits); n != 4 {
		t.Errorf("expected every lookup to reach the provider, got %d hits", n)
	}
}
