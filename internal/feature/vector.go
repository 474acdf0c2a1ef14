// SPDX-FileCopyrightText: The ridecast authors
//
// SPDX-License-Identifier: MIT

package feature

import (
	"fmt"
	"time"

	"github.com/ridecast/ridecast/internal/holiday"
	"github.com/ridecast/ridecast/internal/weather"
)

// Columns is the exact column order the ridership model was trained on.
var Columns = []string{
	"prcp", "tmax", "tmin", "rad", "day_precip", "day_real_feel", "day_wind",
	"year", "month", "dow", "dom", "hol", "prev_count",
}

// Vector is the model input for one day. Field order matches Columns.
type Vector struct {
	Precipitation    float64 `json:"prcp"`
	TempMax          float64 `json:"tmax"`
	TempMin          float64 `json:"tmin"`
	Radiation        float64 `json:"rad"`
	DayPrecipitation float64 `json:"day_precip"`
	DayRealFeel      float64 `json:"day_real_feel"`
	DayWind          float64 `json:"day_wind"`
	Year             int     `json:"year"`
	Month            int     `json:"month"`
	DayOfWeek        int     `json:"dow"`
	DayOfMonth       int     `json:"dom"`
	Holiday          bool    `json:"hol"`
	PrevCount        float64 `json:"prev_count"`
}

// Values flattens the vector positionally. The holiday flag becomes 1 or 0.
func (v Vector) Values() []float64 {
	var hol float64
	if v.Holiday {
		hol = 1
	}
	return []float64{
		v.Precipitation, v.TempMax, v.TempMin, v.Radiation, v.DayPrecipitation,
		v.DayRealFeel, v.DayWind, float64(v.Year), float64(v.Month), float64(v.DayOfWeek),
		float64(v.DayOfMonth), hol, v.PrevCount,
	}
}

// Derive builds the model vector of row. Calendar features come from the row's date
// with Monday as day 0; the holiday flag is looked up in cal.
func Derive(row weather.DailyFeatureRow, cal holiday.Calendar) Vector {
	date := row.Date
	return Vector{
		Precipitation:    row.Precipitation,
		TempMax:          row.TempMax,
		TempMin:          row.TempMin,
		Radiation:        row.Radiation,
		DayPrecipitation: row.DayPrecipitation,
		DayRealFeel:      row.DayRealFeel,
		DayWind:          row.DayWind,
		Year:             date.Year(),
		Month:            int(date.Month()),
		DayOfWeek:        weekday(date),
		DayOfMonth:       date.Day(),
		Holiday:          holiday.Contains(cal, date),
		PrevCount:        row.PrevCount,
	}
}

func weekday(t time.Time) int {
	return (int(t.Weekday()) + 6) % 7
}

// SchemaMismatchError means a vector does not have the shape the predictor was built
// for. It indicates a programming error and is raised as a panic at prediction time.
type SchemaMismatchError struct {
	Want int
	Got  int
}

func (e *SchemaMismatchError) Error() string {
	return fmt.Sprintf("feature schema mismatch: predictor expects %d features, got %d", e.Want, e.Got)
}

func mustMatchSchema(values []float64, want int) {
	if len(values) != want {
		panic(&SchemaMismatchError{Want: want, Got: len(values)})
	}
}
