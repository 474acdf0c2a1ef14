// SPDX-FileCopyrightText: The ridecast authors
//
// SPDX-License-Identifier: MIT

package service

import (
	"context"
	"fmt"
	"slices"
	"time"

	"github.com/ridecast/ridecast/internal/logger"
	"github.com/ridecast/ridecast/internal/presenter"
	"github.com/ridecast/ridecast/internal/weather"
)

// forecastCache is replaced as a whole; a stored cache is never modified.
type forecastCache struct {
	start     time.Time
	rows      []weather.DailyFeatureRow
	fetchedAt time.Time
}

// Forecast returns the daily rows for tomorrow and the day after. The cached forecast is
// used while it still starts tomorrow; otherwise it is fetched synchronously.
func (s *Service) Forecast(ctx context.Context) ([]weather.DailyFeatureRow, error) {
	start, _ := s.fetcher.Range(s.now())

	s.forecastLock.RLock()
	cache := s.forecast
	s.forecastLock.RUnlock()
	if cache != nil && cache.start.Equal(start) {
		s.logger.Debug("using cached forecast", "fetched_at", cache.fetchedAt.Format(time.RFC3339),
			"age", s.now().Sub(cache.fetchedAt).Round(time.Second).String())
		return slices.Clone(cache.rows), nil
	}

	return s.refreshForecast(ctx)
}

// ForecastDay returns the forecast row of a single day, 0 being tomorrow.
func (s *Service) ForecastDay(ctx context.Context, day int) (weather.DailyFeatureRow, error) {
	if day < 0 || day >= weather.ForecastDays {
		return weather.DailyFeatureRow{}, fmt.Errorf("%w: day %d", weather.ErrNoForecastForDay, day)
	}
	rows, err := s.Forecast(ctx)
	if err != nil {
		return weather.DailyFeatureRow{}, err
	}
	start, _ := s.fetcher.Range(s.now())
	date := start.AddDate(0, 0, day)
	for _, row := range rows {
		if row.Date.Equal(date) {
			return row, nil
		}
	}
	return weather.DailyFeatureRow{}, fmt.Errorf("%w: %s", weather.ErrNoForecastForDay, date.Format(time.DateOnly))
}

// ForecastViews returns the forecast rows together with sunrise and sunset.
func (s *Service) ForecastViews(ctx context.Context) ([]presenter.ForecastView, error) {
	rows, err := s.Forecast(ctx)
	if err != nil {
		return nil, err
	}
	return s.presenter.ForecastViews(rows), nil
}

// refreshForecast fetches a new forecast and swaps it into the cache. On failure the
// previous cache stays in place.
func (s *Service) refreshForecast(ctx context.Context) ([]weather.DailyFeatureRow, error) {
	now := s.now()
	started := time.Now()
	rows, err := s.fetcher.FetchAt(ctx, now)
	s.metrics.fetchDuration.Observe(time.Since(started).Seconds())
	if err != nil {
		s.metrics.fetches.WithLabelValues(resultFailure).Inc()
		return nil, err
	}
	s.metrics.fetches.WithLabelValues(resultSuccess).Inc()

	start, _ := s.fetcher.Range(now)
	s.forecastLock.Lock()
	s.forecast = &forecastCache{start: start, rows: rows, fetchedAt: now}
	s.forecastLock.Unlock()
	s.metrics.lastRefresh.Set(float64(now.Unix()))

	return slices.Clone(rows), nil
}

func (s *Service) refreshJob(ctx context.Context) {
	rows, err := s.refreshForecast(ctx)
	if err != nil {
		s.logger.Error("failed to refresh forecast", logger.Err(err))
		return
	}
	s.logger.Debug("refreshed forecast", "rows", len(rows))
}
