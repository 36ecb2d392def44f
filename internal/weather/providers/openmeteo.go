package providers

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/sony/gobreaker"

	"github.com/i474232898/weather-tracker/internal/weather"
)

const currentVariables = "temperature_2m,relative_humidity_2m,wind_speed_10m,precipitation,surface_pressure"

// OpenMeteoProvider implements the weather.Provider interface for Open-Meteo.
// No API key is required.
type OpenMeteoProvider struct {
	name    string
	baseURL string
	client  *http.Client
	backoff backoffConfig
	circuit *gobreaker.CircuitBreaker
}

// NewOpenMeteoProvider creates a provider against the public Open-Meteo API.
// baseURL overrides the endpoint when non-empty.
func NewOpenMeteoProvider(client *http.Client, baseURL string) *OpenMeteoProvider {
	if baseURL == "" {
		baseURL = "https://api.open-meteo.com/v1/forecast"
	}
	return &OpenMeteoProvider{
		name:    "openmeteo",
		baseURL: baseURL,
		client:  client,
		backoff: defaultBackoff,
		circuit: newCircuitBreaker("openmeteo"),
	}
}

func (p *OpenMeteoProvider) Name() string {
	return p.name
}

// Current returns the present conditions at loc.
func (p *OpenMeteoProvider) Current(ctx context.Context, loc weather.Location) (weather.Reading, error) {
	resp, err := p.get(ctx, loc, url.Values{"current": {currentVariables}})
	if err != nil {
		return weather.Reading{}, fmt.Errorf("%w: %v", weather.ErrUpstream, err)
	}
	defer resp.Body.Close()

	var payload struct {
		Current struct {
			Time        int64   `json:"time"`
			Temperature float64 `json:"temperature_2m"`
			Humidity    float64 `json:"relative_humidity_2m"`
			WindSpeed   float64 `json:"wind_speed_10m"`
			Precip      float64 `json:"precipitation"`
			Pressure    float64 `json:"surface_pressure"`
		} `json:"current"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return weather.Reading{}, fmt.Errorf("%w: decode current: %v", weather.ErrUpstream, err)
	}

	ts := time.Unix(payload.Current.Time, 0).UTC()
	if payload.Current.Time == 0 {
		ts = time.Now().UTC()
	}

	return weather.Reading{
		Timestamp:     ts,
		Temperature:   payload.Current.Temperature,
		Humidity:      payload.Current.Humidity,
		WindSpeed:     payload.Current.WindSpeed,
		Precipitation: payload.Current.Precip,
		Pressure:      payload.Current.Pressure,
	}, nil
}

// Forecast returns the current day's hourly series for loc, ordered by
// ascending timestamp.
func (p *OpenMeteoProvider) Forecast(ctx context.Context, loc weather.Location) (weather.ForecastSeries, error) {
	resp, err := p.get(ctx, loc, url.Values{
		"hourly":        {currentVariables},
		"forecast_days": {"1"},
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", weather.ErrUpstream, err)
	}
	defer resp.Body.Close()

	var payload struct {
		Hourly struct {
			Time        []int64   `json:"time"`
			Temperature []float64 `json:"temperature_2m"`
			Humidity    []float64 `json:"relative_humidity_2m"`
			WindSpeed   []float64 `json:"wind_speed_10m"`
			Precip      []float64 `json:"precipitation"`
			Pressure    []float64 `json:"surface_pressure"`
		} `json:"hourly"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, fmt.Errorf("%w: decode hourly: %v", weather.ErrUpstream, err)
	}

	h := payload.Hourly
	if len(h.Time) == 0 {
		return nil, fmt.Errorf("%w: empty hourly series", weather.ErrUpstream)
	}

	series := make(weather.ForecastSeries, 0, len(h.Time))
	for i, t := range h.Time {
		r := weather.Reading{Timestamp: time.Unix(t, 0).UTC()}
		// The parallel arrays are the same length on well-formed
		// responses; guard anyway so a short array cannot panic.
		if i < len(h.Temperature) {
			r.Temperature = h.Temperature[i]
		}
		if i < len(h.Humidity) {
			r.Humidity = h.Humidity[i]
		}
		if i < len(h.WindSpeed) {
			r.WindSpeed = h.WindSpeed[i]
		}
		if i < len(h.Precip) {
			r.Precipitation = h.Precip[i]
		}
		if i < len(h.Pressure) {
			r.Pressure = h.Pressure[i]
		}
		series = append(series, r)
	}
	return series, nil
}

func (p *OpenMeteoProvider) get(ctx context.Context, loc weather.Location, extra url.Values) (*http.Response, error) {
	buildRequest := func() (*http.Request, error) {
		values := url.Values{}
		values.Set("latitude", strconv.FormatFloat(loc.Lat, 'f', -1, 64))
		values.Set("longitude", strconv.FormatFloat(loc.Lon, 'f', -1, 64))
		values.Set("wind_speed_unit", "ms")
		values.Set("timeformat", "unixtime")
		for k, vs := range extra {
			for _, v := range vs {
				values.Add(k, v)
			}
		}

		u := fmt.Sprintf("%s?%s", p.baseURL, values.Encode())
		return http.NewRequest(http.MethodGet, u, nil)
	}

	return doWithResilience(ctx, p.client, p.backoff, p.circuit, buildRequest)
}
