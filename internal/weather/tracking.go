package weather

import "github.com/google/uuid"

// nsUser is the namespace for deriving user ids from usernames.
var nsUser = uuid.MustParse("8f9e3b1c-52d4-4a8e-9c0b-6d1f7a2e4b35")

// UserID deterministically derives a stable id from a username. The same
// username always maps to the same id; distinct usernames never collide.
func UserID(username string) string {
	return uuid.NewSHA1(nsUser, []byte(username)).String()
}

// User is a registered account with its set of tracked cities.
type User struct {
	ID       string `json:"user_id"`
	Username string `json:"username"`
}

// TrackedCity is a city a user has opted to monitor, identified by its
// coordinates, together with the most recently cached forecast series.
// Forecast is nil until the first successful fetch.
type TrackedCity struct {
	Name     string         `json:"name"`
	Location Location       `json:"location"`
	Forecast ForecastSeries `json:"forecast,omitempty"`
}

// TrackedRef identifies one (user, city) pair for the refresh cycle.
type TrackedRef struct {
	UserID   string
	City     string
	Location Location
}

// Store is the contract both the in-memory store and the SQLite store
// satisfy. Implementations must be safe for concurrent use by request
// handlers and the refresh scheduler. Records are independent: no operation
// spans more than one user.
type Store interface {
	// CreateUser persists a new user with an empty tracked-city set.
	// Returns ErrConflict when the username (or derived id) is taken.
	CreateUser(u User) error

	// GetUser returns ErrNotFound when no such user exists.
	GetUser(id string) (User, error)

	// AddCity creates a tracked city with no cached forecast. Returns
	// ErrNotFound for an unknown user and ErrConflict when the user
	// already tracks a city by that name.
	AddCity(userID, city string, loc Location) error

	// ListCities returns the user's tracked city names in insertion order.
	ListCities(userID string) ([]string, error)

	// GetCity returns ErrNotFound when the user or city is unknown.
	GetCity(userID, city string) (TrackedCity, error)

	// SetForecast replaces a city's cached series wholesale. Readers
	// observe either the previous or the new series, never a mix.
	SetForecast(userID, city string, fs ForecastSeries) error

	// RemoveCity untracks a city, dropping its cached forecast.
	RemoveCity(userID, city string) error

	// ListTracked enumerates every (user, city) pair across all users.
	ListTracked() ([]TrackedRef, error)
}
