package weather

import (
	"fmt"
	"sort"
	"time"
)

// Location is a geographic point we can ask the provider about.
type Location struct {
	Lat float64 `json:"latitude"`
	Lon float64 `json:"longitude"`
}

// Key returns a canonical string key for indexing this location.
func (l Location) Key() string {
	return fmt.Sprintf("%.4f:%.4f", l.Lat, l.Lon)
}

// Reading is a point-in-time weather observation. All values are metric:
// temperature in °C, wind speed in m/s, pressure in hPa, precipitation in mm.
type Reading struct {
	Timestamp     time.Time `json:"timestamp"` // always UTC
	Temperature   float64   `json:"temperature"`
	Humidity      float64   `json:"humidity"`
	WindSpeed     float64   `json:"wind_speed"`
	Precipitation float64   `json:"precipitation"`
	Pressure      float64   `json:"pressure"`
}

// ForecastSeries is one day's worth of readings for a single tracked city,
// ordered by ascending timestamp. A series always comes from a single
// provider fetch and is replaced wholesale on refresh, never edited in place.
type ForecastSeries []Reading

// At returns the reading with the greatest timestamp not exceeding t
// (nearest-preceding-time policy). ok is false when t precedes the first
// reading or the series is empty.
func (fs ForecastSeries) At(t time.Time) (Reading, bool) {
	i := sort.Search(len(fs), func(i int) bool {
		return fs[i].Timestamp.After(t)
	})
	if i == 0 {
		return Reading{}, false
	}
	return fs[i-1], true
}

// Field names accepted by reading projections.
const (
	FieldTemperature   = "temperature"
	FieldHumidity      = "humidity"
	FieldWindSpeed     = "wind_speed"
	FieldPrecipitation = "precipitation"
	FieldPressure      = "pressure"
)

// Project extracts the requested fields from a reading. An unrecognized
// field name yields ErrUnknownField. An empty field list selects everything.
func Project(r Reading, fields []string) (map[string]float64, error) {
	all := map[string]float64{
		FieldTemperature:   r.Temperature,
		FieldHumidity:      r.Humidity,
		FieldWindSpeed:     r.WindSpeed,
		FieldPrecipitation: r.Precipitation,
		FieldPressure:      r.Pressure,
	}

	if len(fields) == 0 {
		return all, nil
	}

	out := make(map[string]float64, len(fields))
	for _, f := range fields {
		v, ok := all[f]
		if !ok {
			return nil, fmt.Errorf("%w: %q", ErrUnknownField, f)
		}
		out[f] = v
	}
	return out, nil
}
