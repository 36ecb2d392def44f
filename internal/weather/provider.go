package weather

import (
	"context"
	"errors"
)

var (
	// ErrNotFound is returned when a user or tracked city does not exist.
	ErrNotFound = errors.New("not found")

	// ErrConflict is returned on duplicate registration: a username that is
	// already taken, or a city the user already tracks.
	ErrConflict = errors.New("already exists")

	// ErrUpstream indicates the external weather provider was unreachable
	// or returned data we could not parse.
	ErrUpstream = errors.New("weather provider unavailable")

	// ErrUnknownField is returned when a projection asks for a field name
	// no reading carries.
	ErrUnknownField = errors.New("unknown field")

	// ErrBadLocation is returned when a city is added without coordinates
	// and they cannot be resolved by geocoding.
	ErrBadLocation = errors.New("coordinates missing or unresolvable")
)

// Provider abstracts the external weather data source (e.g. Open-Meteo).
type Provider interface {
	Name() string

	// Current returns the present conditions at a location.
	Current(ctx context.Context, loc Location) (Reading, error)

	// Forecast returns the current day's hourly series for a location,
	// ordered by ascending timestamp.
	Forecast(ctx context.Context, loc Location) (ForecastSeries, error)
}
