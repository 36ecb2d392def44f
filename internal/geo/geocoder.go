// Package geo resolves city names to coordinates via the Google Geocoding
// API. It backs the optional coordinate-less form of city tracking.
package geo

import (
	"fmt"

	"github.com/kelvins/geocoder"

	"github.com/i474232898/weather-tracker/internal/weather"
)

// GoogleGeocoder implements weather.Geocoder on top of kelvins/geocoder.
type GoogleGeocoder struct{}

// NewGoogleGeocoder configures the shared geocoder API key and returns a
// ready geocoder. Returns nil when no key is configured, which disables
// coordinate-less tracking.
func NewGoogleGeocoder(apiKey string) *GoogleGeocoder {
	if apiKey == "" {
		return nil
	}
	geocoder.ApiKey = apiKey
	return &GoogleGeocoder{}
}

func (g *GoogleGeocoder) Locate(city string) (weather.Location, error) {
	loc, err := geocoder.Geocoding(geocoder.Address{City: city})
	if err != nil {
		return weather.Location{}, fmt.Errorf("geocode %q: %w", city, err)
	}
	return weather.Location{Lat: loc.Latitude, Lon: loc.Longitude}, nil
}
