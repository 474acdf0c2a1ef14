// SPDX-FileCopyrightText: Winni Neessen <wn@neessen.dev>
// SPDX-FileCopyrightText: The ridecast authors
//
// SPDX-License-Identifier: MIT

package openmeteo

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/ridecast/ridecast/internal/http"
	"github.com/ridecast/ridecast/internal/logger"
	"github.com/ridecast/ridecast/internal/vartype"
	"github.com/ridecast/ridecast/internal/weather"
)

const (
	name        = "open-meteo"
	apiEndpoint = "https://api.open-meteo.com/v1/forecast"
	apiTimeout  = time.Second * 10
	apiTimeFmt  = "2006-01-02T15:04"
)

var dataFields = []string{
	"temperature_2m", "apparent_temperature", "precipitation", "windspeed_10m",
	"direct_radiation", "is_day",
}

var ErrMalformedResponse = errors.New("malformed Open-Meteo response")

// Options holds the fixed request parameters of a provider.
type Options struct {
	Endpoint  string
	Latitude  float64
	Longitude float64
	Location  *time.Location
	Timeout   time.Duration
}

type OpenMeteo struct {
	opts Options
	log  *logger.Logger
	http *http.ResilientClient
}

type resTime struct {
	time.Time
}

// resBool decodes Open-Meteo's 0/1 flags. null leaves it unset.
type resBool struct {
	vartype.VarBool
}

type response struct {
	Latitude    float64 `json:"latitude"`
	Longitude   float64 `json:"longitude"`
	Timezone    string  `json:"timezone"`
	Error       bool    `json:"error"`
	Reason      string  `json:"reason"`
	HourlyUnits struct {
		Temperature   string `json:"temperature_2m"`
		Precipitation string `json:"precipitation"`
		WindSpeed     string `json:"windspeed_10m"`
	} `json:"hourly_units"`
	Hourly struct {
		Time                []resTime            `json:"time"`
		Temperature         []vartype.VarFloat64 `json:"temperature_2m"`
		ApparentTemperature []vartype.VarFloat64 `json:"apparent_temperature"`
		Precipitation       []vartype.VarFloat64 `json:"precipitation"`
		WindSpeed           []vartype.VarFloat64 `json:"windspeed_10m"`
		Radiation           []vartype.VarFloat64 `json:"direct_radiation"`
		IsDay               []resBool            `json:"is_day"`
	} `json:"hourly"`
}

func New(client *http.ResilientClient, log *logger.Logger, opts Options) (*OpenMeteo, error) {
	if client == nil {
		return nil, fmt.Errorf("http client is required")
	}
	if log == nil {
		return nil, fmt.Errorf("logger is required")
	}
	if opts.Location == nil {
		return nil, fmt.Errorf("location is required")
	}
	if opts.Endpoint == "" {
		opts.Endpoint = apiEndpoint
	}
	if opts.Timeout <= 0 {
		opts.Timeout = apiTimeout
	}

	return &OpenMeteo{opts: opts, http: client, log: log}, nil
}

func (o *OpenMeteo) Name() string {
	return name
}

// Hourly requests the hourly forecast for every calendar day between start and end in
// imperial units and the configured time zone.
func (o *OpenMeteo) Hourly(ctx context.Context, start, end time.Time) ([]weather.Observation, error) {
	res := new(response)
	loc := o.opts.Location

	query := url.Values{}
	query.Set("latitude", strconv.FormatFloat(o.opts.Latitude, 'f', -1, 64))
	query.Set("longitude", strconv.FormatFloat(o.opts.Longitude, 'f', -1, 64))
	query.Set("hourly", strings.Join(dataFields, ","))
	query.Set("temperature_unit", "fahrenheit")
	query.Set("windspeed_unit", "mph")
	query.Set("precipitation_unit", "inch")
	query.Set("timezone", loc.String())
	query.Set("start_date", start.In(loc).Format(time.DateOnly))
	query.Set("end_date", end.In(loc).Format(time.DateOnly))

	code, err := o.http.Get(ctx, o.opts.Endpoint, res, query, o.opts.Timeout)
	if err != nil {
		return nil, fmt.Errorf("failed to retrieve weather data from Open-Meteo API: %w", err)
	}
	if code != 200 {
		if res.Reason != "" {
			return nil, fmt.Errorf("Open-Meteo API returned non-positive response code: %d (%s)", code, res.Reason)
		}
		return nil, fmt.Errorf("Open-Meteo API returned non-positive response code: %d", code)
	}

	hourly := res.Hourly
	count := len(hourly.Time)
	for field, length := range map[string]int{
		"temperature_2m":       len(hourly.Temperature),
		"apparent_temperature": len(hourly.ApparentTemperature),
		"precipitation":        len(hourly.Precipitation),
		"windspeed_10m":        len(hourly.WindSpeed),
		"direct_radiation":     len(hourly.Radiation),
		"is_day":               len(hourly.IsDay),
	} {
		if length != count {
			return nil, fmt.Errorf("%w: %s has %d values for %d timestamps", ErrMalformedResponse,
				field, length, count)
		}
	}

	observations := make([]weather.Observation, 0, count)
	for i := range hourly.Time {
		t := hourly.Time[i].Time
		observations = append(observations, weather.Observation{
			Time:                time.Date(t.Year(), t.Month(), t.Day(), t.Hour(), t.Minute(), 0, 0, loc),
			IsDaylight:          hourly.IsDay[i].VarBool,
			Radiation:           hourly.Radiation[i],
			Precipitation:       hourly.Precipitation[i],
			Temperature:         hourly.Temperature[i],
			ApparentTemperature: hourly.ApparentTemperature[i],
			WindSpeed:           hourly.WindSpeed[i],
		})
	}
	o.log.Debug("received hourly forecast", "hours", count, "timezone", res.Timezone,
		"temperature_unit", res.HourlyUnits.Temperature)

	return observations, nil
}

func (r *resTime) UnmarshalJSON(b []byte) error {
	if len(b) == 0 {
		return fmt.Errorf("empty time")
	}
	if b[0] != '"' || len(b) < 2 {
		return fmt.Errorf("invalid time format: %s", string(b))
	}

	apiTime, err := time.Parse(apiTimeFmt, string(b[1:len(b)-1]))
	if err != nil {
		return fmt.Errorf("failed to parse time: %w", err)
	}
	r.Time = apiTime

	return nil
}

func (r *resBool) UnmarshalJSON(b []byte) error {
	switch string(b) {
	case "", "null":
		r.VarBool = vartype.VarBool{}
	case "0", "false":
		r.VarBool = vartype.NewVariable(false)
	case "1", "true":
		r.VarBool = vartype.NewVariable(true)
	default:
		return fmt.Errorf("invalid is_day value: %s", string(b))
	}
	return nil
}
