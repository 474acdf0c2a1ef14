// SPDX-FileCopyrightText: The ridecast authors
//
// SPDX-License-Identifier: MIT

package weather

import (
	"math"
	"sort"
	"time"
)

// dayAccumulator collects the running aggregates of one calendar day.
type dayAccumulator struct {
	date       time.Time
	hours      int
	tempMax    float64
	tempMin    float64
	radiation  float64
	precip     float64
	dayPrecip  float64
	feelSum    float64
	windSum    float64
	daylightHr int
}

func (a *dayAccumulator) add(o Observation) {
	temp := o.Temperature.Value()
	if a.hours == 0 || temp > a.tempMax {
		a.tempMax = temp
	}
	if a.hours == 0 || temp < a.tempMin {
		a.tempMin = temp
	}
	a.hours++
	a.radiation += o.Radiation.Value()
	a.precip += o.Precipitation.Value()

	// Night precipitation adds zero to the daytime sum, while night "feels like" and wind
	// readings are left out of the daytime means altogether.
	if !o.IsDaylight.Value() {
		return
	}
	a.daylightHr++
	a.dayPrecip += o.Precipitation.Value()
	a.feelSum += o.ApparentTemperature.Value()
	a.windSum += o.WindSpeed.Value()
}

func (a *dayAccumulator) row(prevCount float64) DailyFeatureRow {
	feel, wind := math.NaN(), math.NaN()
	if a.daylightHr > 0 {
		feel = a.feelSum / float64(a.daylightHr)
		wind = a.windSum / float64(a.daylightHr)
	}
	return DailyFeatureRow{
		Date:             a.date,
		Precipitation:    Round(a.precip),
		TempMax:          Round(a.tempMax),
		TempMin:          Round(a.tempMin),
		Radiation:        Round(a.radiation),
		DayPrecipitation: Round(a.dayPrecip),
		DayRealFeel:      Round(feel),
		DayWind:          Round(wind),
		PrevCount:        Round(prevCount),
	}
}

// Aggregate groups observations by calendar day in loc and collapses each day into a
// DailyFeatureRow. Incomplete observations are dropped, so a day without any complete hour
// does not appear in the result. Rows are sorted by date and every value is rounded to one
// decimal place.
func Aggregate(observations []Observation, loc *time.Location, prevCount float64) []DailyFeatureRow {
	days := make(map[time.Time]*dayAccumulator)
	for _, o := range observations {
		if !o.Complete() {
			continue
		}
		date := Date(o.Time, loc)
		acc, ok := days[date]
		if !ok {
			acc = &dayAccumulator{date: date}
			days[date] = acc
		}
		acc.add(o)
	}

	rows := make([]DailyFeatureRow, 0, len(days))
	for _, acc := range days {
		rows = append(rows, acc.row(prevCount))
	}
	sort.Slice(rows, func(i, j int) bool {
		return rows[i].Date.Before(rows[j].Date)
	})
	return rows
}

// Round rounds v to one decimal place, ties to even as the model's training data was
// rounded. NaN and infinities are returned unchanged.
func Round(v float64) float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return v
	}
	return math.RoundToEven(v*10) / 10
}
