// SPDX-FileCopyrightText: Winni Neessen <wn@neessen.dev>
// SPDX-FileCopyrightText: The ridecast authors
//
// SPDX-License-Identifier: MIT

package config

import (
	"log/slog"
	"testing"
	"time"
)

func TestNew(t *testing.T) {
	const (
		expectLogLevel        = slog.LevelInfo
		expectTimezone        = "America/New_York"
		expectLatitude        = 40.7761
		expectLongitude       = -73.8727
		expectPrevCount       = 17297
		expectWeatherTimeout  = time.Second * 10
		expectForecastRefresh = time.Hour
	)
	t.Run("new config with all defaults set", func(t *testing.T) {
		conf, err := New()
		if err != nil {
			t.Fatalf("failed to load config: %s", err)
		}
		if conf.LogLevel != expectLogLevel {
			t.Errorf("expected log level to be: %s, got %s", expectLogLevel, conf.LogLevel)
		}
		if conf.City.Timezone != expectTimezone {
			t.Errorf("expected timezone to be: %s, got %s", expectTimezone, conf.City.Timezone)
		}
		if conf.City.Latitude != expectLatitude || conf.City.Longitude != expectLongitude {
			t.Errorf("expected coordinates to be: %f/%f, got %f/%f", expectLatitude, expectLongitude,
				conf.City.Latitude, conf.City.Longitude)
		}
		if conf.Model.PrevCountDefault != expectPrevCount {
			t.Errorf("expected default previous count to be: %d, got %f", expectPrevCount,
				conf.Model.PrevCountDefault)
		}
		if conf.Weather.Timeout != expectWeatherTimeout {
			t.Errorf("expected weather timeout to be: %s, got %s", expectWeatherTimeout, conf.Weather.Timeout)
		}
		if conf.Weather.Retries != 0 {
			t.Errorf("expected weather retries to be disabled, got %d", conf.Weather.Retries)
		}
		if conf.Intervals.ForecastRefresh != expectForecastRefresh {
			t.Errorf("expected forecast refresh interval to be: %s, got %s", expectForecastRefresh,
				conf.Intervals.ForecastRefresh)
		}
		if conf.Templates.Prediction != DefaultPredictionTpl {
			t.Errorf("expected default prediction template, got %q", conf.Templates.Prediction)
		}
		if conf.Location().String() != expectTimezone {
			t.Errorf("expected location to be: %s, got %s", expectTimezone, conf.Location())
		}
	})
	t.Run("new config with values from env", func(t *testing.T) {
		t.Setenv("RIDECAST_WEATHER_RETRIES", "3")
		t.Setenv("RIDECAST_MODEL_TYPE", "remote")
		t.Setenv("RIDECAST_MODEL_ENDPOINT", "http://localhost:9000/predict")
		conf, err := New()
		if err != nil {
			t.Fatalf("failed to load config: %s", err)
		}
		if conf.Weather.Retries != 3 {
			t.Errorf("expected weather retries to be 3, got %d", conf.Weather.Retries)
		}
		if conf.Model.Type != "remote" {
			t.Errorf("expected model type to be remote, got %s", conf.Model.Type)
		}
	})

	invalid := []struct {
		name string
		env  map[string]string
	}{
		{"log level", map[string]string{"RIDECAST_LOGLEVEL": "invalid"}},
		{"latitude", map[string]string{"RIDECAST_CITY_LATITUDE": "91"}},
		{"longitude", map[string]string{"RIDECAST_CITY_LONGITUDE": "-181"}},
		{"timezone", map[string]string{"RIDECAST_CITY_TIMEZONE": "Mars/Olympus_Mons"}},
		{"negative retries", map[string]string{"RIDECAST_WEATHER_RETRIES": "-1"}},
		{"too many retries", map[string]string{"RIDECAST_WEATHER_RETRIES": "11"}},
		{"model type", map[string]string{"RIDECAST_MODEL_TYPE": "neural"}},
		{"remote without endpoint", map[string]string{"RIDECAST_MODEL_TYPE": "remote"}},
		{"negative previous count", map[string]string{"RIDECAST_MODEL_PREV_COUNT_DEFAULT": "-5"}},
		{"refresh interval", map[string]string{"RIDECAST_INTERVALS_FORECAST_REFRESH": "10s"}},
	}
	for _, tc := range invalid {
		t.Run("config validate "+tc.name, func(t *testing.T) {
			for k, v := range tc.env {
				t.Setenv(k, v)
			}
			if _, err := New(); err == nil {
				t.Error("expected config to fail, but didn't")
			}
		})
	}
}

func TestNewFromFile(t *testing.T) {
	t.Run("reading config from valid file succeeds", func(t *testing.T) {
		conf, err := NewFromFile("../../etc", "config.toml")
		if err != nil {
			t.Fatalf("failed to load config: %s", err)
		}
		if conf.City.Name != "New York" {
			t.Errorf("expected city name to be New York, got %s", conf.City.Name)
		}
		if conf.Model.Path != "model/xgb_v1.model" {
			t.Errorf("expected model path to be model/xgb_v1.model, got %s", conf.Model.Path)
		}
		if conf.Server.Addr != ":8080" {
			t.Errorf("expected server address to be :8080, got %s", conf.Server.Addr)
		}
	})
	t.Run("reading config from non-existent file fails", func(t *testing.T) {
		if _, err := NewFromFile("../../etc", "non-existent.toml"); err == nil {
			t.Error("expected config to fail, but didn't")
		}
	})
	t.Run("reading invalid config file fails", func(t *testing.T) {
		if _, err := NewFromFile("../../testdata", "invalid.toml"); err == nil {
			t.Error("expected config to fail, but didn't")
		}
	})
}

func TestConfig_Location(t *testing.T) {
	conf := new(Config)
	if conf.Location() != time.UTC {
		t.Errorf("expected unvalidated config to fall back to UTC, got %s", conf.Location())
	}
}
