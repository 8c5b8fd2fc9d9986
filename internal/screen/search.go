// Package screen holds the server-side view models of the app: the search
// form, the result view and the history list.
package screen

import (
	"errors"
	"strings"
)

var (
	// ErrEmptyCity is returned when a search is submitted without a city.
	ErrEmptyCity = errors.New("city name is required")
	// ErrNotConfirmed is returned when a destructive action lacks confirmation.
	ErrNotConfirmed = errors.New("action requires confirmation")
)

// Submit validates a search form input and returns the city to navigate to.
func Submit(input string) (string, error) {
	city := strings.TrimSpace(input)
	if city == "" {
		return "", ErrEmptyCity
	}
	return city, nil
}
