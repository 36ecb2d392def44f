package store

import (
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/i474232898/weather-tracker/internal/weather"
)

func newUser(t *testing.T, s weather.Store, username string) weather.User {
	t.Helper()
	u := weather.User{ID: weather.UserID(username), Username: username}
	if err := s.CreateUser(u); err != nil {
		t.Fatalf("create user %q: %v", username, err)
	}
	return u
}

func TestCreateUserConflict(t *testing.T) {
	s := NewMemoryStore()

	u := newUser(t, s, "alice")
	err := s.CreateUser(weather.User{ID: u.ID, Username: "alice"})
	if !errors.Is(err, weather.ErrConflict) {
		t.Fatalf("expected ErrConflict, got %v", err)
	}

	got, err := s.GetUser(u.ID)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got.Username != "alice" {
		t.Fatalf("unexpected user: %+v", got)
	}
}

func TestUserIDDeterministic(t *testing.T) {
	if weather.UserID("alice") != weather.UserID("alice") {
		t.Fatal("same username must derive the same id")
	}
	if weather.UserID("alice") == weather.UserID("bob") {
		t.Fatal("distinct usernames must derive distinct ids")
	}
}

func TestAddCityConflictPreservesCoordinates(t *testing.T) {
	s := NewMemoryStore()
	u := newUser(t, s, "alice")

	orig := weather.Location{Lat: 48.85, Lon: 2.35}
	if err := s.AddCity(u.ID, "Paris", orig); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	err := s.AddCity(u.ID, "Paris", weather.Location{Lat: 1, Lon: 1})
	if !errors.Is(err, weather.ErrConflict) {
		t.Fatalf("expected ErrConflict, got %v", err)
	}

	tc, err := s.GetCity(u.ID, "Paris")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if tc.Location != orig {
		t.Fatalf("coordinates changed on conflicting add: %+v", tc.Location)
	}
}

func TestAddCityUnknownUser(t *testing.T) {
	s := NewMemoryStore()
	err := s.AddCity("missing", "Paris", weather.Location{})
	if !errors.Is(err, weather.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestListCitiesInsertionOrder(t *testing.T) {
	s := NewMemoryStore()
	u := newUser(t, s, "alice")

	names := []string{"Paris", "Berlin", "Amsterdam"}
	for _, name := range names {
		if err := s.AddCity(u.ID, name, weather.Location{}); err != nil {
			t.Fatalf("add %q: %v", name, err)
		}
	}

	got, err := s.ListCities(u.ID)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(got) != len(names) {
		t.Fatalf("expected %d cities, got %v", len(names), got)
	}
	for i := range names {
		if got[i] != names[i] {
			t.Fatalf("expected insertion order %v, got %v", names, got)
		}
	}
}

func TestRemoveCity(t *testing.T) {
	s := NewMemoryStore()
	u := newUser(t, s, "alice")

	if err := s.AddCity(u.ID, "Paris", weather.Location{}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := s.RemoveCity(u.ID, "Paris"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, err := s.GetCity(u.ID, "Paris"); !errors.Is(err, weather.ErrNotFound) {
		t.Fatalf("expected ErrNotFound after removal, got %v", err)
	}
	if err := s.RemoveCity(u.ID, "Paris"); !errors.Is(err, weather.ErrNotFound) {
		t.Fatalf("expected ErrNotFound on double removal, got %v", err)
	}
}

// TestSetForecastAtomicReplace hammers one city with whole-series writers
// while readers check they only ever observe a series from a single write.
func TestSetForecastAtomicReplace(t *testing.T) {
	s := NewMemoryStore()
	u := newUser(t, s, "alice")
	if err := s.AddCity(u.ID, "Paris", weather.Location{}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	series := func(gen float64) weather.ForecastSeries {
		base := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)
		fs := make(weather.ForecastSeries, 24)
		for i := range fs {
			fs[i] = weather.Reading{
				Timestamp:   base.Add(time.Duration(i) * time.Hour),
				Temperature: gen,
			}
		}
		return fs
	}

	done := make(chan struct{})
	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		for gen := 0; gen < 200; gen++ {
			if err := s.SetForecast(u.ID, "Paris", series(float64(gen))); err != nil {
				t.Errorf("set forecast: %v", err)
				return
			}
		}
		close(done)
	}()

	for i := 0; i < 4; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for {
				select {
				case <-done:
					return
				default:
				}
				tc, err := s.GetCity(u.ID, "Paris")
				if err != nil {
					t.Errorf("get city: %v", err)
					return
				}
				for _, r := range tc.Forecast {
					if r.Temperature != tc.Forecast[0].Temperature {
						t.Errorf("observed mixed series: %v vs %v",
							r.Temperature, tc.Forecast[0].Temperature)
						return
					}
				}
			}
		}()
	}
	wg.Wait()
}

func TestListTracked(t *testing.T) {
	s := NewMemoryStore()
	alice := newUser(t, s, "alice")
	bob := newUser(t, s, "bob")

	if err := s.AddCity(alice.ID, "Paris", weather.Location{Lat: 48.85, Lon: 2.35}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := s.AddCity(bob.ID, "Berlin", weather.Location{Lat: 52.52, Lon: 13.4}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	refs, err := s.ListTracked()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(refs) != 2 {
		t.Fatalf("expected 2 tracked refs, got %d", len(refs))
	}

	seen := make(map[string]weather.TrackedRef)
	for _, ref := range refs {
		seen[ref.City] = ref
	}
	if seen["Paris"].UserID != alice.ID || seen["Berlin"].UserID != bob.ID {
		t.Fatalf("tracked refs attributed to wrong users: %+v", refs)
	}
}
