// SPDX-FileCopyrightText: The ridecast authors
//
// SPDX-License-Identifier: MIT

package service

import (
	"context"

	"github.com/ridecast/ridecast/internal/feature"
	"github.com/ridecast/ridecast/internal/weather"
)

// Predict runs the model on a typed row.
func (s *Service) Predict(ctx context.Context, row weather.DailyFeatureRow) (feature.Result, error) {
	return s.predict(sourceRow, func() (feature.Result, error) {
		return s.builder.Predict(ctx, row)
	})
}

// PredictInput coerces manual input and runs the model on it.
func (s *Service) PredictInput(ctx context.Context, in feature.Input) (feature.Result, error) {
	return s.predict(sourceManual, func() (feature.Result, error) {
		result, err := s.builder.PredictInput(ctx, in)
		for _, ce := range feature.CoercionErrors(err) {
			s.metrics.coercionErrors.WithLabelValues(ce.Field).Inc()
		}
		return result, err
	})
}

// PredictForecast runs the model on a forecast day, 0 being tomorrow.
func (s *Service) PredictForecast(ctx context.Context, day int) (feature.Result, error) {
	row, err := s.ForecastDay(ctx, day)
	if err != nil {
		return feature.Result{}, err
	}
	return s.predict(sourceForecast, func() (feature.Result, error) {
		return s.builder.Predict(ctx, row)
	})
}

func (s *Service) predict(source string, fn func() (feature.Result, error)) (feature.Result, error) {
	result, err := fn()
	if err != nil {
		s.metrics.predictions.WithLabelValues(source, resultFailure).Inc()
		return feature.Result{}, err
	}
	s.metrics.predictions.WithLabelValues(source, resultSuccess).Inc()
	return result, nil
}
