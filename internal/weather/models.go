package weather

import (
	"time"
)

// Reading is the current weather for one city as reported by a provider.
// City is the provider's canonical name and may differ from the query.
type Reading struct {
	City    string `json:"city"`
	Country string `json:"country,omitempty"`

	Temperature float64 `json:"temperatureC"`
	FeelsLike   float64 `json:"feelsLikeC"`
	TempMin     float64 `json:"tempMinC"`
	TempMax     float64 `json:"tempMaxC"`

	Humidity   float64 `json:"humidityPercent"`
	Pressure   float64 `json:"pressureHpa"`
	WindSpeed  float64 `json:"windSpeed"`
	Visibility float64 `json:"visibilityM"`

	Description string `json:"description"`
	Icon        string `json:"icon"`

	Sunrise int64 `json:"sunrise"` // unix seconds
	Sunset  int64 `json:"sunset"`  // unix seconds

	FetchedAt time.Time `json:"fetchedAt"` // always UTC
}
