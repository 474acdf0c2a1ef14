// SPDX-FileCopyrightText: The ridecast authors
//
// SPDX-License-Identifier: MIT

package api

import (
	"bytes"
	"encoding/json"
	"math"
	"strconv"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"

	"github.com/ridecast/ridecast/internal/feature"
	"github.com/ridecast/ridecast/internal/vartype"
)

var validate = validator.New()

// RegisterRoutes wires the HTTP handlers into the Fiber app.
func RegisterRoutes(app *fiber.App, backend Backend) {
	v1 := app.Group("/api/v1")

	v1.Get("/forecast", func(c *fiber.Ctx) error {
		views, err := backend.ForecastViews(c.UserContext())
		if err != nil {
			return err
		}
		days := make([]forecastDay, 0, len(views))
		for _, view := range views {
			days = append(days, forecastDay{
				Date:             view.Date.Format(feature.DateFormat),
				Precipitation:    view.Precipitation,
				TempMax:          view.TempMax,
				TempMin:          view.TempMin,
				Radiation:        view.Radiation,
				DayPrecipitation: view.DayPrecipitation,
				DayRealFeel:      optional(view.DayRealFeel),
				DayWind:          optional(view.DayWind),
				PrevCount:        view.PrevCount,
				Sunrise:          view.Sunrise,
				Sunset:           view.Sunset,
			})
		}
		return c.JSON(fiber.Map{"days": days})
	})

	v1.Post("/predict", func(c *fiber.Ctx) error {
		var req predictRequest
		if err := c.BodyParser(&req); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "invalid request body: "+err.Error())
		}
		result, err := backend.PredictInput(c.UserContext(), req.input())
		if err != nil {
			return err
		}
		return c.JSON(newPredictionResponse(result))
	})

	v1.Get("/predict/forecast", func(c *fiber.Ctx) error {
		var q forecastQuery
		if err := q.bind(c); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, err.Error())
		}
		result, err := backend.PredictForecast(c.UserContext(), q.Day)
		if err != nil {
			return err
		}
		return c.JSON(newPredictionResponse(result))
	})
}

// inputValue is a manual input field sent either as JSON string or as JSON number. Any
// other JSON value is kept as text so coercion reports it for its field.
type inputValue string

func (v *inputValue) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	switch {
	case bytes.Equal(data, []byte("null")):
		*v = ""
	case len(data) > 0 && data[0] == '"':
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*v = inputValue(s)
	default:
		*v = inputValue(data)
	}
	return nil
}

type predictRequest struct {
	Date             inputValue `json:"date"`
	Precipitation    inputValue `json:"prcp"`
	TempMax          inputValue `json:"tmax"`
	TempMin          inputValue `json:"tmin"`
	Radiation        inputValue `json:"rad"`
	DayPrecipitation inputValue `json:"day_precip"`
	DayRealFeel      inputValue `json:"day_real_feel"`
	DayWind          inputValue `json:"day_wind"`
	PrevCount        inputValue `json:"prev_count"`
}

func (r predictRequest) input() feature.Input {
	return feature.Input{
		Date:             string(r.Date),
		Precipitation:    string(r.Precipitation),
		TempMax:          string(r.TempMax),
		TempMin:          string(r.TempMin),
		Radiation:        string(r.Radiation),
		DayPrecipitation: string(r.DayPrecipitation),
		DayRealFeel:      string(r.DayRealFeel),
		DayWind:          string(r.DayWind),
		PrevCount:        string(r.PrevCount),
	}
}

type forecastDay struct {
	Date             string             `json:"date"`
	Precipitation    float64            `json:"prcp"`
	TempMax          float64            `json:"tmax"`
	TempMin          float64            `json:"tmin"`
	Radiation        float64            `json:"rad"`
	DayPrecipitation float64            `json:"day_precip"`
	DayRealFeel      vartype.VarFloat64 `json:"day_real_feel"`
	DayWind          vartype.VarFloat64 `json:"day_wind"`
	PrevCount        float64            `json:"prev_count"`
	Sunrise          time.Time          `json:"sunrise"`
	Sunset           time.Time          `json:"sunset"`
}

type featureVector struct {
	Columns []string             `json:"columns"`
	Values  []vartype.VarFloat64 `json:"values"`
}

type predictionResponse struct {
	Date       string             `json:"date"`
	Prediction float64            `json:"prediction"`
	PrevCount  float64            `json:"prev_count"`
	DeltaPct   vartype.VarFloat64 `json:"delta_pct"`
	Holiday    bool               `json:"holiday"`
	Features   featureVector      `json:"features"`
}

func newPredictionResponse(result feature.Result) predictionResponse {
	values := result.Vector.Values()
	features := featureVector{Columns: feature.Columns, Values: make([]vartype.VarFloat64, len(values))}
	for i, v := range values {
		features.Values[i] = optional(v)
	}
	var delta vartype.VarFloat64
	if d, ok := result.Delta(); ok {
		delta = vartype.NewVariable(d)
	}
	return predictionResponse{
		Date:       result.Date.Format(feature.DateFormat),
		Prediction: result.Prediction,
		PrevCount:  result.PrevCount,
		DeltaPct:   delta,
		Holiday:    result.Vector.Holiday,
		Features:   features,
	}
}

// forecastQuery holds query parameters for the forecast prediction endpoint.
type forecastQuery struct {
	Day int `validate:"gte=0,lt=2"`
}

func (q *forecastQuery) bind(c *fiber.Ctx) error {
	day, err := strconv.Atoi(c.Query("day", "0"))
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "day must be an integer")
	}
	q.Day = day
	return validate.Struct(q)
}

// optional turns a missing (non-finite) value into JSON null.
func optional(v float64) vartype.VarFloat64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return vartype.VarFloat64{}
	}
	return vartype.NewVariable(v)
}
