// SPDX-FileCopyrightText: Winni Neessen <wn@neessen.dev>
// SPDX-FileCopyrightText: The ridecast authors
//
// SPDX-License-Identifier: MIT

package config

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/kkyr/fig"
)

const (
	configEnv = "RIDECAST"

	DefaultPredictionTpl = "{{loc \"Predicted riders\"}} {{.Date | dateFormat}}: {{intcomma .Prediction}} {{riderIcon .Prediction}}\n" +
		"{{loc \"Previous day\"}}: {{intcomma .PrevCount}}\n" +
		"{{loc \"Change\"}}: {{delta .}}"
	DefaultForecastTpl = "{{range .}}{{pad (dateFormat .Date) 12}}" +
		"{{pad (floatFormat .TempMax 1) 7}}{{pad (floatFormat .TempMin 1) 7}}" +
		"{{pad (floatFormat .Precipitation 1) 7}}{{pad (floatFormat .DayRealFeel 1) 7}}" +
		"{{pad (floatFormat .DayWind 1) 7}}{{timeFormat .Sunrise \"15:04\"}}-{{timeFormat .Sunset \"15:04\"}}\n{{end}}"

	// maxRetries limits the configurable retry count for the weather API.
	maxRetries = 10
)

// Config represents the application's configuration structure.
type Config struct {
	Locale   string     `fig:"locale"`
	LogLevel slog.Level `fig:"loglevel" default:"0"`

	// City is the single location ridership is forecast for.
	City struct {
		Name      string  `fig:"name" default:"New York"`
		Latitude  float64 `fig:"latitude" default:"40.7761"`
		Longitude float64 `fig:"longitude" default:"-73.8727"`
		Timezone  string  `fig:"timezone" default:"America/New_York"`
	} `fig:"city"`

	Weather struct {
		// Allowed values: open-meteo
		Provider      string        `fig:"provider" default:"open-meteo"`
		Endpoint      string        `fig:"endpoint" default:"https://api.open-meteo.com/v1/forecast"`
		Timeout       time.Duration `fig:"timeout" default:"10s"`
		Retries       int           `fig:"retries" default:"0"`
		RetryInterval time.Duration `fig:"retry_interval" default:"500ms"`
	} `fig:"weather"`

	Model struct {
		// Allowed values: xgboost, remote
		Type     string        `fig:"type" default:"xgboost"`
		Path     string        `fig:"path" default:"model/xgb_v1.model"`
		Endpoint string        `fig:"endpoint"`
		Timeout  time.Duration `fig:"timeout" default:"5s"`
		// PrevCountDefault is the historical daily-average ridership used when the
		// previous day's count of a forecast date is unknown.
		PrevCountDefault float64 `fig:"prev_count_default" default:"17297"`
	} `fig:"model"`

	Intervals struct {
		ForecastRefresh time.Duration `fig:"forecast_refresh" default:"1h"`
	} `fig:"intervals"`

	Server struct {
		Addr         string        `fig:"addr" default:":8080"`
		ReadTimeout  time.Duration `fig:"read_timeout" default:"10s"`
		WriteTimeout time.Duration `fig:"write_timeout" default:"10s"`
	} `fig:"server"`

	Templates struct {
		Prediction string `fig:"prediction"`
		Forecast   string `fig:"forecast"`
	} `fig:"templates"`

	location *time.Location
}

func NewFromFile(path, file string) (*Config, error) {
	conf := new(Config)
	_, err := os.Stat(filepath.Join(path, file))
	if err != nil {
		return conf, fmt.Errorf("failed to read Config: %w", err)
	}
	if err = fig.Load(conf, fig.Dirs(path), fig.File(file), fig.UseEnv(configEnv)); err != nil {
		return conf, fmt.Errorf("failed to load Config: %w", err)
	}

	return conf, conf.Validate()
}

func New() (*Config, error) {
	conf := new(Config)
	if err := fig.Load(conf, fig.AllowNoFile(), fig.UseEnv(configEnv)); err != nil {
		return conf, fmt.Errorf("failed to load Config: %w", err)
	}

	return conf, conf.Validate()
}

func (c *Config) Validate() error {
	if c.Locale == "" {
		c.Locale = getLocale()
	}
	if c.City.Latitude < -90 || c.City.Latitude > 90 {
		return fmt.Errorf("invalid city latitude: %f", c.City.Latitude)
	}
	if c.City.Longitude < -180 || c.City.Longitude > 180 {
		return fmt.Errorf("invalid city longitude: %f", c.City.Longitude)
	}
	loc, err := time.LoadLocation(c.City.Timezone)
	if err != nil {
		return fmt.Errorf("invalid city timezone %q: %w", c.City.Timezone, err)
	}
	c.location = loc

	if c.Weather.Timeout <= 0 {
		return fmt.Errorf("invalid weather timeout: %s", c.Weather.Timeout)
	}
	if c.Weather.Retries < 0 || c.Weather.Retries > maxRetries {
		return fmt.Errorf("invalid weather retries: %d", c.Weather.Retries)
	}
	if c.Weather.Retries > 0 && c.Weather.RetryInterval <= 0 {
		return fmt.Errorf("invalid weather retry interval: %s", c.Weather.RetryInterval)
	}

	switch strings.ToLower(c.Model.Type) {
	case "xgboost":
		if c.Model.Path == "" {
			return fmt.Errorf("xgboost model requires a model path")
		}
	case "remote":
		if c.Model.Endpoint == "" {
			return fmt.Errorf("remote model requires an endpoint")
		}
	default:
		return fmt.Errorf("invalid model type: %s", c.Model.Type)
	}
	if c.Model.PrevCountDefault < 0 {
		return fmt.Errorf("invalid default previous count: %f", c.Model.PrevCountDefault)
	}

	if c.Intervals.ForecastRefresh < time.Minute {
		return fmt.Errorf("invalid forecast refresh interval: %s", c.Intervals.ForecastRefresh)
	}
	if c.Templates.Prediction == "" {
		c.Templates.Prediction = DefaultPredictionTpl
	}
	if c.Templates.Forecast == "" {
		c.Templates.Forecast = DefaultForecastTpl
	}

	return nil
}

// Location returns the city's time zone. It is only valid after Validate succeeded.
func (c *Config) Location() *time.Location {
	if c.location == nil {
		return time.UTC
	}
	return c.location
}

func getLocale() string {
	locale := os.Getenv("LC_MESSAGES")
	if idx := strings.Index(locale, "."); idx != -1 {
		lang := locale[:idx]
		return strings.ReplaceAll(lang, "_", "-")
	}
	return locale
}
