// SPDX-FileCopyrightText: The ridecast authors
//
// SPDX-License-Identifier: MIT

// Package model provides the ridership predictors.
package model

import (
	"fmt"
	"strings"

	"github.com/ridecast/ridecast/internal/config"
	"github.com/ridecast/ridecast/internal/feature"
	"github.com/ridecast/ridecast/internal/http"
	"github.com/ridecast/ridecast/internal/logger"
)

const (
	TypeXGBoost = "xgboost"
	TypeRemote  = "remote"
)

// New returns the predictor selected by the model type of the configuration.
func New(conf *config.Config, log *logger.Logger) (feature.Predictor, error) {
	switch strings.ToLower(conf.Model.Type) {
	case TypeXGBoost:
		model, err := NewXGBoost(conf.Model.Path, log)
		if err != nil {
			return nil, err
		}
		return model, nil
	case TypeRemote:
		model, err := NewRemote(http.New(log), conf.Model.Endpoint, conf.Model.Timeout, log)
		if err != nil {
			return nil, err
		}
		return model, nil
	default:
		return nil, fmt.Errorf("unsupported model type: %s", conf.Model.Type)
	}
}
