package httpapi

import (
	"errors"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"

	"github.com/i474232898/weather-tracker/internal/weather"
)

var validate = validator.New()

// RegisterRoutes wires the HTTP handlers into the Fiber app.
func RegisterRoutes(app *fiber.App, service *weather.Service) {
	app.Get("/weather/now", func(c *fiber.Ctx) error {
		loc, err := parseCoordinates(c.Query("lat"), c.Query("lon"))
		if err != nil {
			return fiber.NewError(fiber.StatusBadRequest, err.Error())
		}

		reading, err := service.CurrentWeather(c.Context(), loc)
		if err != nil {
			return mapError(err)
		}

		return c.JSON(fiber.Map{
			"location":    loc,
			"time":        reading.Timestamp,
			"temperature": reading.Temperature,
			"wind_speed":  reading.WindSpeed,
			"pressure":    reading.Pressure,
		})
	})

	app.Post("/register", func(c *fiber.Ctx) error {
		var req registerRequest
		if err := c.BodyParser(&req); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
		}
		if err := validate.Struct(req); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, err.Error())
		}

		u, err := service.RegisterUser(req.Username)
		if err != nil {
			return mapError(err)
		}

		return c.JSON(fiber.Map{"user_id": u.ID})
	})

	app.Post("/tracking/:user_id", func(c *fiber.Ctx) error {
		var req trackRequest
		if err := c.BodyParser(&req); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
		}
		if err := validate.Struct(req); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, err.Error())
		}

		var loc *weather.Location
		if req.Lat != nil && req.Lon != nil {
			loc = &weather.Location{Lat: *req.Lat, Lon: *req.Lon}
		} else if req.Lat != nil || req.Lon != nil {
			return fiber.NewError(fiber.StatusBadRequest, "lat and lon must be provided together")
		}

		if err := service.TrackCity(c.Context(), c.Params("user_id"), req.CityName, loc); err != nil {
			return mapError(err)
		}

		return c.SendStatus(fiber.StatusCreated)
	})

	app.Get("/tracking/:user_id", func(c *fiber.Ctx) error {
		cities, err := service.ListCities(c.Params("user_id"))
		if err != nil {
			return mapError(err)
		}
		return c.JSON(fiber.Map{"cities": cities})
	})

	app.Get("/tracking/:user_id/:city", func(c *fiber.Ctx) error {
		city, err := url.PathUnescape(c.Params("city"))
		if err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "invalid city name")
		}

		at, err := parseTimeOfDay(c.Query("time"))
		if err != nil {
			return fiber.NewError(fiber.StatusBadRequest, err.Error())
		}

		fields := splitFields(c.Query("fields"))

		reading, projected, err := service.ForecastAt(c.Context(), c.Params("user_id"), city, at, fields)
		if err != nil {
			return mapError(err)
		}

		return c.JSON(fiber.Map{
			"city":     city,
			"time":     reading.Timestamp,
			"readings": projected,
		})
	})

	app.Delete("/tracking/:user_id/:city", func(c *fiber.Ctx) error {
		city, err := url.PathUnescape(c.Params("city"))
		if err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "invalid city name")
		}
		if err := service.UntrackCity(c.Params("user_id"), city); err != nil {
			return mapError(err)
		}
		return c.SendStatus(fiber.StatusNoContent)
	})
}

// mapError translates service errors into HTTP status codes.
func mapError(err error) error {
	switch {
	case errors.Is(err, weather.ErrNotFound):
		return fiber.NewError(fiber.StatusNotFound, "not found")
	case errors.Is(err, weather.ErrConflict):
		return fiber.NewError(fiber.StatusConflict, "already exists")
	case errors.Is(err, weather.ErrUnknownField),
		errors.Is(err, weather.ErrBadLocation):
		return fiber.NewError(fiber.StatusBadRequest, err.Error())
	case errors.Is(err, weather.ErrUpstream):
		return fiber.NewError(fiber.StatusBadGateway, "weather provider unavailable")
	}
	return err
}

type registerRequest struct {
	Username string `json:"username" validate:"required"`
}

type trackRequest struct {
	CityName string   `json:"city_name" validate:"required"`
	Lat      *float64 `json:"lat" validate:"omitempty,gte=-90,lte=90"`
	Lon      *float64 `json:"lon" validate:"omitempty,gte=-180,lte=180"`
}

// coordinatesQuery holds validated geographic coordinates.
type coordinatesQuery struct {
	Lat float64 `validate:"gte=-90,lte=90"`
	Lon float64 `validate:"gte=-180,lte=180"`
}

func parseCoordinates(latStr, lonStr string) (weather.Location, error) {
	if latStr == "" || lonStr == "" {
		return weather.Location{}, errors.New("lat and lon query parameters are required")
	}

	lat, err := strconv.ParseFloat(latStr, 64)
	if err != nil {
		return weather.Location{}, errors.New("invalid lat")
	}
	lon, err := strconv.ParseFloat(lonStr, 64)
	if err != nil {
		return weather.Location{}, errors.New("invalid lon")
	}

	q := coordinatesQuery{Lat: lat, Lon: lon}
	if err := validate.Struct(q); err != nil {
		return weather.Location{}, err
	}

	return weather.Location{Lat: lat, Lon: lon}, nil
}

// parseTimeOfDay accepts "HH:MM" (resolved against today in UTC), RFC3339,
// or unix seconds. An empty value means now.
func parseTimeOfDay(s string) (time.Time, error) {
	if s == "" {
		return time.Now().UTC(), nil
	}
	if hm, err := time.Parse("15:04", s); err == nil {
		now := time.Now().UTC()
		return time.Date(now.Year(), now.Month(), now.Day(),
			hm.Hour(), hm.Minute(), 0, 0, time.UTC), nil
	}
	if ts, err := time.Parse(time.RFC3339, s); err == nil {
		return ts.UTC(), nil
	}
	if unix, err := strconv.ParseInt(s, 10, 64); err == nil {
		return time.Unix(unix, 0).UTC(), nil
	}
	return time.Time{}, errors.New("invalid time format; use HH:MM, RFC3339 or unix seconds")
}

func splitFields(s string) []string {
	if s == "" {
		return nil
	}
	parts := strings.Split(s, ",")
	out := parts[:0]
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
