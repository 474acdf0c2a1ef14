// SPDX-FileCopyrightText: The ridecast authors
//
// SPDX-License-Identifier: MIT

package model

import (
	"context"
	"fmt"

	"github.com/dmitryikh/leaves"

	"github.com/ridecast/ridecast/internal/feature"
	"github.com/ridecast/ridecast/internal/logger"
)

// ensemble is the subset of a leaves.Ensemble used for prediction.
type ensemble interface {
	NFeatures() int
	NEstimators() int
	PredictSingle(fvals []float64, nEstimators int) float64
}

// XGBoost evaluates an XGBoost gradient boosted tree model in-process. NaN features are
// treated as missing values.
type XGBoost struct {
	ensemble ensemble
	logger   *logger.Logger
}

// NewXGBoost loads the XGBoost binary model at path. Loading fails with a
// SchemaMismatchError when the model was not trained on the ridership feature vector.
func NewXGBoost(path string, log *logger.Logger) (*XGBoost, error) {
	model, err := leaves.XGEnsembleFromFile(path, false)
	if err != nil {
		return nil, fmt.Errorf("failed to load XGBoost model from %s: %w", path, err)
	}
	x, err := newXGBoost(model, log)
	if err != nil {
		return nil, fmt.Errorf("failed to load XGBoost model from %s: %w", path, err)
	}
	log.Info("loaded XGBoost model", "path", path, "features", model.NFeatures(),
		"estimators", model.NEstimators())
	return x, nil
}

func newXGBoost(model ensemble, log *logger.Logger) (*XGBoost, error) {
	if model.NFeatures() != len(feature.Columns) {
		return nil, &feature.SchemaMismatchError{Want: model.NFeatures(), Got: len(feature.Columns)}
	}
	return &XGBoost{ensemble: model, logger: log}, nil
}

func (x *XGBoost) NFeatures() int {
	return x.ensemble.NFeatures()
}

func (x *XGBoost) Predict(ctx context.Context, vector feature.Vector) (float64, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	return x.ensemble.PredictSingle(vector.Values(), 0), nil
}
