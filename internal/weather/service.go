package weather

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"
)

// Geocoder resolves a city name to coordinates. Optional: when absent,
// cities must be added with explicit coordinates.
type Geocoder interface {
	Locate(city string) (Location, error)
}

// Service combines the tracking store, the external provider and the
// forecast cache into the operations the HTTP layer and the scheduler use.
type Service struct {
	store    Store
	provider Provider
	geo      Geocoder // may be nil
	log      *slog.Logger

	// fetchTimeout bounds a single provider call made on behalf of a
	// request or a refresh cycle entry.
	fetchTimeout time.Duration
}

// NewService creates a Service. geo may be nil.
func NewService(store Store, provider Provider, geo Geocoder, log *slog.Logger) *Service {
	if log == nil {
		log = slog.Default()
	}
	return &Service{
		store:        store,
		provider:     provider,
		geo:          geo,
		log:          log,
		fetchTimeout: 30 * time.Second,
	}
}

// RegisterUser derives a stable id from the username and persists the new
// user. Registering a taken username returns ErrConflict.
func (s *Service) RegisterUser(username string) (User, error) {
	u := User{
		ID:       UserID(username),
		Username: username,
	}
	if err := s.store.CreateUser(u); err != nil {
		return User{}, err
	}
	return u, nil
}

// TrackCity adds a city to the user's tracked set. When loc is nil the city
// name is geocoded; without a geocoder that is an ErrBadLocation. The first
// forecast is fetched immediately so the city has data without waiting for
// the next scheduled cycle; a failed prefetch is logged and retried by the
// scheduler, never surfaced to the caller.
func (s *Service) TrackCity(ctx context.Context, userID, city string, loc *Location) error {
	resolved, err := s.resolveLocation(city, loc)
	if err != nil {
		return err
	}

	if err := s.store.AddCity(userID, city, resolved); err != nil {
		return err
	}

	if err := s.refreshCity(ctx, TrackedRef{UserID: userID, City: city, Location: resolved}); err != nil {
		s.log.Warn("initial forecast fetch failed",
			"user", userID, "city", city, "error", err)
	}
	return nil
}

func (s *Service) resolveLocation(city string, loc *Location) (Location, error) {
	if loc != nil {
		return *loc, nil
	}
	if s.geo == nil {
		return Location{}, ErrBadLocation
	}
	resolved, err := s.geo.Locate(city)
	if err != nil {
		return Location{}, fmt.Errorf("%w: %v", ErrBadLocation, err)
	}
	return resolved, nil
}

// ListCities returns the user's tracked city names in insertion order.
func (s *Service) ListCities(userID string) ([]string, error) {
	return s.store.ListCities(userID)
}

// UntrackCity removes a city from the user's tracked set, dropping its
// cached forecast.
func (s *Service) UntrackCity(userID, city string) error {
	return s.store.RemoveCity(userID, city)
}

// CurrentWeather fetches present conditions directly from the provider.
// Never served from cache.
func (s *Service) CurrentWeather(ctx context.Context, loc Location) (Reading, error) {
	ctx, cancel := context.WithTimeout(ctx, s.fetchTimeout)
	defer cancel()
	return s.provider.Current(ctx, loc)
}

// ForecastAt answers a point-in-time lookup for a tracked city: the cached
// reading nearest-preceding t, projected down to the requested fields. When
// no series is cached yet it fetches one on demand.
func (s *Service) ForecastAt(ctx context.Context, userID, city string, t time.Time, fields []string) (Reading, map[string]float64, error) {
	tc, err := s.store.GetCity(userID, city)
	if err != nil {
		return Reading{}, nil, err
	}

	series := tc.Forecast
	if len(series) == 0 {
		fetchCtx, cancel := context.WithTimeout(ctx, s.fetchTimeout)
		series, err = s.provider.Forecast(fetchCtx, tc.Location)
		cancel()
		if err != nil {
			return Reading{}, nil, err
		}
		if err := s.store.SetForecast(userID, city, series); err != nil {
			return Reading{}, nil, err
		}
	}

	r, ok := series.At(t)
	if !ok {
		return Reading{}, nil, ErrNotFound
	}

	projected, err := Project(r, fields)
	if err != nil {
		return Reading{}, nil, err
	}
	return r, projected, nil
}

// RefreshAll runs one refresh cycle: re-fetch the forecast for every
// currently tracked city and replace its cached series. Cities refresh
// concurrently and independently; one city's failure is logged and its
// previous series kept until the next successful fetch.
func (s *Service) RefreshAll(ctx context.Context) error {
	refs, err := s.store.ListTracked()
	if err != nil {
		return err
	}

	var wg sync.WaitGroup
	for _, ref := range refs {
		wg.Add(1)
		go func(ref TrackedRef) {
			defer wg.Done()
			if err := s.refreshCity(ctx, ref); err != nil {
				s.log.Warn("forecast refresh failed",
					"user", ref.UserID, "city", ref.City, "error", err)
			}
		}(ref)
	}
	wg.Wait()
	return nil
}

func (s *Service) refreshCity(ctx context.Context, ref TrackedRef) error {
	ctx, cancel := context.WithTimeout(ctx, s.fetchTimeout)
	defer cancel()

	series, err := s.provider.Forecast(ctx, ref.Location)
	if err != nil {
		return err
	}
	return s.store.SetForecast(ref.UserID, ref.City, series)
}
