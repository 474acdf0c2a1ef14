// SPDX-FileCopyrightText: Winni Neessen <wn@neessen.dev>
// SPDX-FileCopyrightText: The ridecast authors
//
// SPDX-License-Identifier: MIT

// Package weather turns hourly forecast observations into the daily feature rows the
// ridership model is trained on.
package weather

import (
	"context"
	"time"

	"github.com/ridecast/ridecast/internal/vartype"
)

// Provider is implemented by each weather API backend.
type Provider interface {
	Name() string
	// Hourly returns the hourly observations for all calendar days from start to end
	// (inclusive) in the provider's target time zone.
	Hourly(ctx context.Context, start, end time.Time) ([]Observation, error)
}

// Observation is a single hourly reading as delivered by a Provider. Any reading may be
// missing.
type Observation struct {
	Time                time.Time
	IsDaylight          vartype.VarBool
	Radiation           vartype.VarFloat64
	Precipitation       vartype.VarFloat64
	Temperature         vartype.VarFloat64
	ApparentTemperature vartype.VarFloat64
	WindSpeed           vartype.VarFloat64
}

// Complete reports whether every reading of the observation is present.
func (o Observation) Complete() bool {
	return !o.Time.IsZero() &&
		o.IsDaylight.IsSet() &&
		o.Radiation.IsSet() &&
		o.Precipitation.IsSet() &&
		o.Temperature.IsSet() &&
		o.ApparentTemperature.IsSet() &&
		o.WindSpeed.IsSet()
}

// DailyFeatureRow is the weather of one calendar day in the shape the model expects.
// DayRealFeel and DayWind are NaN for a day without any daylight hour.
type DailyFeatureRow struct {
	Date             time.Time
	Precipitation    float64
	TempMax          float64
	TempMin          float64
	Radiation        float64
	DayPrecipitation float64
	DayRealFeel      float64
	DayWind          float64
	PrevCount        float64
}

// Date truncates t to midnight of its calendar day in loc.
func Date(t time.Time, loc *time.Location) time.Time {
	t = t.In(loc)
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, loc)
}
