package providers

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/sony/gobreaker"

	"github.com/i474232898/city-weather/internal/weather"
)

var validate = validator.New()

// OpenWeatherConfig configures the OpenWeatherMap current-weather client.
type OpenWeatherConfig struct {
	APIKey  string
	BaseURL string // scheme://host, without path
	Units   string
	Lang    string
	Breaker BreakerConfig
}

// OpenWeatherProvider implements the weather.Provider interface for OpenWeatherMap.
type OpenWeatherProvider struct {
	name    string
	apiKey  string
	baseURL string
	units   string
	lang    string
	httpCfg HTTPClientConfig
	circuit *gobreaker.CircuitBreaker
}

func NewOpenWeatherProvider(client *http.Client, cfg OpenWeatherConfig) *OpenWeatherProvider {
	base := strings.TrimRight(cfg.BaseURL, "/")
	if base == "" {
		base = "https://api.openweathermap.org"
	}
	units := cfg.Units
	if units == "" {
		units = "metric"
	}
	lang := cfg.Lang
	if lang == "" {
		lang = "es"
	}

	return &OpenWeatherProvider{
		name:    "openweathermap",
		apiKey:  cfg.APIKey,
		baseURL: base + "/data/2.5/weather",
		units:   units,
		lang:    lang,
		httpCfg: HTTPClientConfig{Client: client},
		circuit: newCircuitBreaker("openweather", cfg.Breaker),
	}
}

func (p *OpenWeatherProvider) Name() string {
	return p.name
}

// openWeatherPayload lists the fields a usable response must carry. Numeric
// fields are pointers so that an absent key fails validation while a real 0
// passes.
type openWeatherPayload struct {
	Name string `json:"name" validate:"required"`
	Main *struct {
		Temp      *float64 `json:"temp" validate:"required"`
		FeelsLike *float64 `json:"feels_like" validate:"required"`
		TempMin   *float64 `json:"temp_min" validate:"required"`
		TempMax   *float64 `json:"temp_max" validate:"required"`
		Humidity  *float64 `json:"humidity" validate:"required,min=0,max=100"`
		Pressure  *float64 `json:"pressure" validate:"required,gt=0"`
	} `json:"main" validate:"required"`
	Weather []struct {
		Description string `json:"description" validate:"required"`
		Icon        string `json:"icon" validate:"required"`
	} `json:"weather" validate:"required,min=1,dive"`
	Wind *struct {
		Speed *float64 `json:"speed" validate:"required,min=0"`
	} `json:"wind" validate:"required"`
	Visibility *float64 `json:"visibility" validate:"required,min=0"`
	Sys        *struct {
		Country string `json:"country"`
		Sunrise *int64 `json:"sunrise" validate:"required"`
		Sunset  *int64 `json:"sunset" validate:"required"`
	} `json:"sys" validate:"required"`
}

func (p *OpenWeatherProvider) Fetch(ctx context.Context, city string) (weather.Reading, error) {
	if p.apiKey == "" {
		return weather.Reading{}, fmt.Errorf("%w: openweather api key is not configured", weather.ErrFetch)
	}
	city = strings.TrimSpace(city)
	if city == "" {
		return weather.Reading{}, fmt.Errorf("%w: city name is empty", weather.ErrFetch)
	}

	values := url.Values{}
	values.Set("q", city)
	values.Set("appid", p.apiKey)
	values.Set("units", p.units)
	values.Set("lang", p.lang)

	u := fmt.Sprintf("%s?%s", p.baseURL, values.Encode())
	req, err := http.NewRequest(http.MethodGet, u, nil)
	if err != nil {
		return weather.Reading{}, fmt.Errorf("%w: %v", weather.ErrFetch, err)
	}

	resp, err := doRequest(ctx, p.httpCfg, p.circuit, req)
	if err != nil {
		return weather.Reading{}, fmt.Errorf("%w: %v", weather.ErrFetch, err)
	}
	defer resp.Body.Close()

	var payload openWeatherPayload
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return weather.Reading{}, fmt.Errorf("%w: decode response: %v", weather.ErrFetch, err)
	}
	if err := validate.Struct(payload); err != nil {
		return weather.Reading{}, fmt.Errorf("%w: invalid response: %v", weather.ErrFetch, err)
	}

	return weather.Reading{
		City:        payload.Name,
		Country:     payload.Sys.Country,
		Temperature: *payload.Main.Temp,
		FeelsLike:   *payload.Main.FeelsLike,
		TempMin:     *payload.Main.TempMin,
		TempMax:     *payload.Main.TempMax,
		Humidity:    *payload.Main.Humidity,
		Pressure:    *payload.Main.Pressure,
		WindSpeed:   *payload.Wind.Speed,
		Visibility:  *payload.Visibility,
		Description: payload.Weather[0].Description,
		Icon:        payload.Weather[0].Icon,
		Sunrise:     *payload.Sys.Sunrise,
		Sunset:      *payload.Sys.Sunset,
		FetchedAt:   time.Now().UTC(),
	}, nil
}
