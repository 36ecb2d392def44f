package store

import (
	"sync"

	"github.com/i474232898/weather-tracker/internal/weather"
)

// userRecord holds one user's state. order preserves city insertion order
// since map iteration would not.
type userRecord struct {
	user   weather.User
	order  []string
	cities map[string]*weather.TrackedCity
}

// MemoryStore is a concurrency-safe in-memory implementation of
// weather.Store. A single RWMutex guards all records; operations are short
// and never block on I/O, so finer-grained locking buys nothing here.
type MemoryStore struct {
	mu sync.RWMutex

	users  map[string]*userRecord // key: user id
	byName map[string]string      // username -> user id
}

// NewMemoryStore creates an empty MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		users:  make(map[string]*userRecord),
		byName: make(map[string]string),
	}
}

func (s *MemoryStore) CreateUser(u weather.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, taken := s.byName[u.Username]; taken {
		return weather.ErrConflict
	}
	if _, taken := s.users[u.ID]; taken {
		return weather.ErrConflict
	}

	s.users[u.ID] = &userRecord{
		user:   u,
		cities: make(map[string]*weather.TrackedCity),
	}
	s.byName[u.Username] = u.ID
	return nil
}

func (s *MemoryStore) GetUser(id string) (weather.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rec, ok := s.users[id]
	if !ok {
		return weather.User{}, weather.ErrNotFound
	}
	return rec.user, nil
}

func (s *MemoryStore) AddCity(userID, city string, loc weather.Location) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	rec, ok := s.users[userID]
	if !ok {
		return weather.ErrNotFound
	}
	if _, tracked := rec.cities[city]; tracked {
		return weather.ErrConflict
	}

	rec.cities[city] = &weather.TrackedCity{
		Name:     city,
		Location: loc,
	}
	rec.order = append(rec.order, city)
	return nil
}

func (s *MemoryStore) ListCities(userID string) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rec, ok := s.users[userID]
	if !ok {
		return nil, weather.ErrNotFound
	}

	out := make([]string, len(rec.order))
	copy(out, rec.order)
	return out, nil
}

func (s *MemoryStore) GetCity(userID, city string) (weather.TrackedCity, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rec, ok := s.users[userID]
	if !ok {
		return weather.TrackedCity{}, weather.ErrNotFound
	}
	tc, ok := rec.cities[city]
	if !ok {
		return weather.TrackedCity{}, weather.ErrNotFound
	}
	return *tc, nil
}

func (s *MemoryStore) SetForecast(userID, city string, fs weather.ForecastSeries) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	rec, ok := s.users[userID]
	if !ok {
		return weather.ErrNotFound
	}
	tc, ok := rec.cities[city]
	if !ok {
		return weather.ErrNotFound
	}

	// Whole-series replacement under the write lock; readers copy the
	// record out under the read lock, so they never see a partial series.
	tc.Forecast = fs
	return nil
}

func (s *MemoryStore) RemoveCity(userID, city string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	rec, ok := s.users[userID]
	if !ok {
		return weather.ErrNotFound
	}
	if _, tracked := rec.cities[city]; !tracked {
		return weather.ErrNotFound
	}

	delete(rec.cities, city)
	for i, name := range rec.order {
		if name == city {
			rec.order = append(rec.order[:i], rec.order[i+1:]...)
			break
		}
	}
	return nil
}

func (s *MemoryStore) ListTracked() ([]weather.TrackedRef, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []weather.TrackedRef
	for id, rec := range s.users {
		for _, name := range rec.order {
			out = append(out, weather.TrackedRef{
				UserID:   id,
				City:     name,
				Location: rec.cities[name].Location,
			})
		}
	}
	return out, nil
}
