// SPDX-FileCopyrightText: The ridecast authors
//
// SPDX-License-Identifier: MIT

// Package holiday answers which dates are public holidays.
package holiday

import (
	"slices"
	"time"

	"github.com/rickar/cal/v2"
	"github.com/rickar/cal/v2/us"
)

// Calendar returns the holidays between start and end, both inclusive and compared by
// calendar date only. The returned dates are midnight UTC and sorted ascending.
type Calendar interface {
	Holidays(start, end time.Time) []time.Time
}

// Federal is the US federal holiday calendar using observed dates: a holiday on a
// Saturday is observed on the Friday before, one on a Sunday on the Monday after.
type Federal struct {
	holidays []*cal.Holiday
}

// NewFederal returns the US federal holiday calendar.
func NewFederal() *Federal {
	return &Federal{holidays: []*cal.Holiday{
		us.NewYear,
		us.MlkDay,
		us.PresidentsDay,
		us.MemorialDay,
		us.Juneteenth,
		us.IndependenceDay,
		us.LaborDay,
		us.ColumbusDay,
		us.VeteransDay,
		us.ThanksgivingDay,
		us.ChristmasDay,
	}}
}

func (f *Federal) Holidays(start, end time.Time) []time.Time {
	from, to := dateOf(start), dateOf(end)
	if to.Before(from) {
		return nil
	}

	var dates []time.Time
	// An observed date may fall into the neighbouring year (New Year on a Saturday).
	for year := from.Year() - 1; year <= to.Year()+1; year++ {
		for _, h := range f.holidays {
			_, observed := h.Calc(year)
			if observed.IsZero() {
				continue
			}
			date := dateOf(observed)
			if date.Before(from) || date.After(to) {
				continue
			}
			dates = append(dates, date)
		}
	}
	slices.SortFunc(dates, func(a, b time.Time) int { return a.Compare(b) })
	return slices.CompactFunc(dates, func(a, b time.Time) bool { return a.Equal(b) })
}

// Contains reports whether date is a holiday of c, evaluating the single-date range
// [date, date].
func Contains(c Calendar, date time.Time) bool {
	return len(c.Holidays(date, date)) > 0
}

func dateOf(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}
