// SPDX-FileCopyrightText: The ridecast authors
//
// SPDX-License-Identifier: MIT

// Package feature turns daily weather rows and manually entered values into the model
// feature vector and asks a Predictor for the expected ridership.
package feature

import (
	"context"
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/ridecast/ridecast/internal/holiday"
	"github.com/ridecast/ridecast/internal/logger"
	"github.com/ridecast/ridecast/internal/weather"
)

var ErrNonFinitePrediction = errors.New("predictor returned a non-finite value")

// Predictor is a trained regression model that maps one feature vector to the expected
// number of riders.
type Predictor interface {
	Predict(ctx context.Context, vector Vector) (float64, error)
}

// Sized is implemented by predictors that know how many features they were trained on.
type Sized interface {
	NFeatures() int
}

// Result is a single prediction together with its inputs.
type Result struct {
	Date       time.Time `json:"date"`
	Prediction float64   `json:"prediction"`
	PrevCount  float64   `json:"prev_count"`
	Vector     Vector    `json:"features"`
}

// Delta returns the relative change of the prediction against the previous count in
// percent. ok is false when the change is undefined: a zero or non-finite previous count
// or a non-finite prediction.
func (r Result) Delta() (delta float64, ok bool) {
	if r.PrevCount == 0 || !finite(r.PrevCount) || !finite(r.Prediction) {
		return 0, false
	}
	return (r.Prediction - r.PrevCount) / r.PrevCount * 100, true
}

// Builder derives model vectors and runs the predictor on them.
type Builder struct {
	calendar  holiday.Calendar
	predictor Predictor
	logger    *logger.Logger
}

func NewBuilder(cal holiday.Calendar, predictor Predictor, log *logger.Logger) (*Builder, error) {
	if cal == nil {
		return nil, errors.New("holiday calendar is required")
	}
	if predictor == nil {
		return nil, errors.New("predictor is required")
	}
	if log == nil {
		return nil, errors.New("logger is required")
	}
	if want := expectedFeatures(predictor); want != len(Columns) {
		return nil, &SchemaMismatchError{Want: want, Got: len(Columns)}
	}
	return &Builder{calendar: cal, predictor: predictor, logger: log}, nil
}

// expectedFeatures returns the vector length the predictor accepts.
func expectedFeatures(predictor Predictor) int {
	if sized, ok := predictor.(Sized); ok {
		return sized.NFeatures()
	}
	return len(Columns)
}

// Vector derives the model vector of row.
func (b *Builder) Vector(row weather.DailyFeatureRow) Vector {
	return Derive(row, b.calendar)
}

// Predict derives the vector of row and invokes the predictor exactly once.
func (b *Builder) Predict(ctx context.Context, row weather.DailyFeatureRow) (Result, error) {
	vector := b.Vector(row)
	mustMatchSchema(vector.Values(), expectedFeatures(b.predictor))

	prediction, err := b.predictor.Predict(ctx, vector)
	if err != nil {
		return Result{}, fmt.Errorf("failed to predict ridership: %w", err)
	}
	if !finite(prediction) {
		return Result{}, fmt.Errorf("%w: %f", ErrNonFinitePrediction, prediction)
	}
	b.logger.Debug("predicted ridership", "date", row.Date.Format(DateFormat),
		"prediction", prediction, "holiday", vector.Holiday)

	return Result{
		Date:       row.Date,
		Prediction: prediction,
		PrevCount:  row.PrevCount,
		Vector:     vector,
	}, nil
}

// PredictInput coerces manual input and predicts on it. Coercion failures are returned as
// joined CoercionErrors and the predictor is not called.
func (b *Builder) PredictInput(ctx context.Context, in Input) (Result, error) {
	row, err := Coerce(in)
	if err != nil {
		return Result{}, err
	}
	return b.Predict(ctx, row)
}

func finite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}
