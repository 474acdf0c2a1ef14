// SPDX-FileCopyrightText: Winni Neessen <wn@neessen.dev>
// SPDX-FileCopyrightText: The ridecast authors
//
// SPDX-License-Identifier: MIT

package service

import (
	"fmt"
	"strings"

	"github.com/ridecast/ridecast/internal/config"
	"github.com/ridecast/ridecast/internal/feature"
	"github.com/ridecast/ridecast/internal/http"
	"github.com/ridecast/ridecast/internal/logger"
	"github.com/ridecast/ridecast/internal/model"
	"github.com/ridecast/ridecast/internal/weather"
	openmeteo "github.com/ridecast/ridecast/internal/weather/provider/open-meteo"
)

func selectWeatherProvider(conf *config.Config, log *logger.Logger) (provider weather.Provider, err error) {
	switch strings.ToLower(conf.Weather.Provider) {
	case "open-meteo":
		client := http.NewResilient(http.New(log), "open-meteo", http.RetryPolicy{
			MaxRetries:      conf.Weather.Retries,
			InitialInterval: conf.Weather.RetryInterval,
		})
		provider, err = openmeteo.New(client, log, openmeteo.Options{
			Endpoint:  conf.Weather.Endpoint,
			Latitude:  conf.City.Latitude,
			Longitude: conf.City.Longitude,
			Location:  conf.Location(),
			Timeout:   conf.Weather.Timeout,
		})
		if err != nil {
			return provider, fmt.Errorf("failed to create Open-Meteo weather provider: %w", err)
		}
	default:
		return nil, fmt.Errorf("unsupported weather provider: %s", conf.Weather.Provider)
	}
	return provider, nil
}

func selectPredictor(conf *config.Config, log *logger.Logger) (feature.Predictor, error) {
	predictor, err := model.New(conf, log)
	if err != nil {
		return nil, fmt.Errorf("failed to create %s model: %w", conf.Model.Type, err)
	}
	return predictor, nil
}
