// SPDX-FileCopyrightText: The ridecast authors
//
// SPDX-License-Identifier: MIT

package weather

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/ridecast/ridecast/internal/logger"
)

// ForecastDays is the number of calendar days, starting tomorrow, a forecast covers.
const ForecastDays = 2

var (
	ErrNoObservations   = errors.New("no complete hourly observations in forecast range")
	ErrNoForecastForDay = errors.New("no forecast available for the requested day")
)

// FetchError is returned when a forecast could not be retrieved or was unusable. No
// partial data accompanies it.
type FetchError struct {
	Provider string
	Err      error
}

func (e *FetchError) Error() string {
	return fmt.Sprintf("failed to fetch forecast from %s: %s", e.Provider, e.Err)
}

func (e *FetchError) Unwrap() error {
	return e.Err
}

// Fetcher retrieves the hourly forecast for the upcoming days and aggregates it into
// daily feature rows.
type Fetcher struct {
	provider  Provider
	location  *time.Location
	prevCount float64
	logger    *logger.Logger
	now       func() time.Time
}

// NewFetcher returns a Fetcher for the given provider. location is the city's time zone
// and prevCount the placeholder previous-day count attached to every row.
func NewFetcher(provider Provider, location *time.Location, prevCount float64, log *logger.Logger) (*Fetcher, error) {
	if provider == nil {
		return nil, errors.New("weather provider is required")
	}
	if location == nil {
		return nil, errors.New("location is required")
	}
	if log == nil {
		return nil, errors.New("logger is required")
	}
	return &Fetcher{
		provider:  provider,
		location:  location,
		prevCount: prevCount,
		logger:    log,
		now:       time.Now,
	}, nil
}

// Range returns the first and last calendar day (midnight in the city's time zone) of a
// forecast requested at now.
func (f *Fetcher) Range(now time.Time) (time.Time, time.Time) {
	today := Date(now, f.location)
	return today.AddDate(0, 0, 1), today.AddDate(0, 0, ForecastDays)
}

// Fetch returns one DailyFeatureRow per forecast day, sorted by date.
func (f *Fetcher) Fetch(ctx context.Context) ([]DailyFeatureRow, error) {
	return f.FetchAt(ctx, f.now())
}

// FetchAt is Fetch with an explicit current time.
func (f *Fetcher) FetchAt(ctx context.Context, now time.Time) ([]DailyFeatureRow, error) {
	start, end := f.Range(now)
	log := f.logger.With("provider", f.provider.Name(), "start", start.Format(time.DateOnly),
		"end", end.Format(time.DateOnly))

	observations, err := f.provider.Hourly(ctx, start, end)
	if err != nil {
		return nil, &FetchError{Provider: f.provider.Name(), Err: err}
	}

	inRange := make([]Observation, 0, len(observations))
	for _, o := range observations {
		date := Date(o.Time, f.location)
		if date.Before(start) || date.After(end) {
			continue
		}
		inRange = append(inRange, o)
	}

	rows := Aggregate(inRange, f.location, f.prevCount)
	if len(rows) == 0 {
		return nil, &FetchError{Provider: f.provider.Name(), Err: ErrNoObservations}
	}
	log.Debug("aggregated hourly forecast", "observations", len(observations), "rows", len(rows))

	return rows, nil
}
