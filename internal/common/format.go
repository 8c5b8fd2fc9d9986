package common

import (
	"fmt"
	"strings"
	"time"
)

const iconBaseURL = "https://openweathermap.org/img/wn/"

// FormatTemp renders a temperature with one decimal, e.g. "18.2°C".
func FormatTemp(c float64) string {
	return fmt.Sprintf("%.1f°C", c)
}

// FormatVisibility converts meters to kilometers, e.g. "10 km".
func FormatVisibility(meters float64) string {
	return fmt.Sprintf("%g km", meters/1000)
}

// FormatClock renders a unix timestamp as "H:MM hs" in loc.
func FormatClock(unix int64, loc *time.Location) string {
	if loc == nil {
		loc = time.Local
	}
	t := time.Unix(unix, 0).In(loc)
	return fmt.Sprintf("%d:%02d hs", t.Hour(), t.Minute())
}

// IconURL returns the OpenWeatherMap image for an icon id at the given
// scale (2 for lists, 4 for the detailed view).
func IconURL(icon string, scale int) string {
	if icon == "" {
		return ""
	}
	if scale != 2 && scale != 4 {
		scale = 2
	}
	return fmt.Sprintf("%s%s@%dx.png", iconBaseURL, icon, scale)
}

// Capitalize upper-cases the first letter of a provider description.
func Capitalize(s string) string {
	if s == "" {
		return s
	}
	r := []rune(s)
	return strings.ToUpper(string(r[0])) + string(r[1:])
}
