// SPDX-FileCopyrightText: The ridecast authors
//
// SPDX-License-Identifier: MIT

package feature

import (
	"errors"
	"fmt"
	"math"
	"reflect"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/ridecast/ridecast/internal/weather"
)

// DateFormat is the layout of Input.Date.
const DateFormat = time.DateOnly

var (
	ErrMissing     = errors.New("value is required")
	ErrNotNumeric  = errors.New("value is not a number")
	ErrNotFinite   = errors.New("value must be finite")
	ErrInvalidDate = errors.New("value is not a date in YYYY-MM-DD format")
)

// Input is a manually entered feature row. Every field is free text as typed by a user.
type Input struct {
	Date             string `json:"date" validate:"required,datetime=2006-01-02"`
	Precipitation    string `json:"prcp" validate:"required"`
	TempMax          string `json:"tmax" validate:"required"`
	TempMin          string `json:"tmin" validate:"required"`
	Radiation        string `json:"rad" validate:"required"`
	DayPrecipitation string `json:"day_precip" validate:"required"`
	DayRealFeel      string `json:"day_real_feel" validate:"required"`
	DayWind          string `json:"day_wind" validate:"required"`
	PrevCount        string `json:"prev_count" validate:"required"`
}

// CoercionError reports a single input field that could not be turned into its typed value.
type CoercionError struct {
	Field string
	Value string
	Err   error
}

func (e *CoercionError) Error() string {
	if e.Value == "" {
		return fmt.Sprintf("invalid %s: %s", e.Field, e.Err)
	}
	return fmt.Sprintf("invalid %s %q: %s", e.Field, e.Value, e.Err)
}

func (e *CoercionError) Unwrap() error {
	return e.Err
}

// CoercionErrors extracts every CoercionError contained in err.
func CoercionErrors(err error) []*CoercionError {
	switch e := err.(type) {
	case *CoercionError:
		return []*CoercionError{e}
	case interface{ Unwrap() []error }:
		var list []*CoercionError
		for _, inner := range e.Unwrap() {
			list = append(list, CoercionErrors(inner)...)
		}
		return list
	case interface{ Unwrap() error }:
		return CoercionErrors(e.Unwrap())
	}
	return nil
}

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(field reflect.StructField) string {
		name, _, _ := strings.Cut(field.Tag.Get("json"), ",")
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// Coerce turns the free-text input into a typed row. All failing fields are reported
// together as joined CoercionErrors; no field ever falls back to zero.
func Coerce(in Input) (weather.DailyFeatureRow, error) {
	var row weather.DailyFeatureRow
	in = trimmed(in)

	failed := make(map[string]error)
	if err := validate.Struct(in); err != nil {
		var verrs validator.ValidationErrors
		if !errors.As(err, &verrs) {
			return row, fmt.Errorf("failed to validate input: %w", err)
		}
		for _, fe := range verrs {
			switch fe.Tag() {
			case "required":
				failed[fe.Field()] = ErrMissing
			case "datetime":
				failed[fe.Field()] = ErrInvalidDate
			default:
				failed[fe.Field()] = fmt.Errorf("failed %s validation", fe.Tag())
			}
		}
	}

	var errs []error
	if err, ok := failed["date"]; ok {
		errs = append(errs, &CoercionError{Field: "date", Value: in.Date, Err: err})
	} else {
		date, err := time.Parse(DateFormat, in.Date)
		if err != nil {
			errs = append(errs, &CoercionError{Field: "date", Value: in.Date, Err: ErrInvalidDate})
		}
		row.Date = date
	}

	fields := []struct {
		name   string
		value  string
		target *float64
	}{
		{"prcp", in.Precipitation, &row.Precipitation},
		{"tmax", in.TempMax, &row.TempMax},
		{"tmin", in.TempMin, &row.TempMin},
		{"rad", in.Radiation, &row.Radiation},
		{"day_precip", in.DayPrecipitation, &row.DayPrecipitation},
		{"day_real_feel", in.DayRealFeel, &row.DayRealFeel},
		{"day_wind", in.DayWind, &row.DayWind},
		{"prev_count", in.PrevCount, &row.PrevCount},
	}
	for _, field := range fields {
		if err, ok := failed[field.name]; ok {
			errs = append(errs, &CoercionError{Field: field.name, Value: field.value, Err: err})
			continue
		}
		value, err := parseFloat(field.value)
		if err != nil {
			errs = append(errs, &CoercionError{Field: field.name, Value: field.value, Err: err})
			continue
		}
		*field.target = value
	}

	if len(errs) > 0 {
		return weather.DailyFeatureRow{}, errors.Join(errs...)
	}
	return row, nil
}

// InputFromRow renders a typed row back into its free-text form.
func InputFromRow(row weather.DailyFeatureRow) Input {
	format := func(v float64) string { return strconv.FormatFloat(v, 'f', -1, 64) }
	return Input{
		Date:             row.Date.Format(DateFormat),
		Precipitation:    format(row.Precipitation),
		TempMax:          format(row.TempMax),
		TempMin:          format(row.TempMin),
		Radiation:        format(row.Radiation),
		DayPrecipitation: format(row.DayPrecipitation),
		DayRealFeel:      format(row.DayRealFeel),
		DayWind:          format(row.DayWind),
		PrevCount:        format(row.PrevCount),
	}
}

func parseFloat(value string) (float64, error) {
	f, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return 0, ErrNotNumeric
	}
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, ErrNotFinite
	}
	return f, nil
}

func trimmed(in Input) Input {
	return Input{
		Date:             strings.TrimSpace(in.Date),
		Precipitation:    strings.TrimSpace(in.Precipitation),
		TempMax:          strings.TrimSpace(in.TempMax),
		TempMin:          strings.TrimSpace(in.TempMin),
		Radiation:        strings.TrimSpace(in.Radiation),
		DayPrecipitation: strings.TrimSpace(in.DayPrecipitation),
		DayRealFeel:      strings.TrimSpace(in.DayRealFeel),
		DayWind:          strings.TrimSpace(in.DayWind),
		PrevCount:        strings.TrimSpace(in.PrevCount),
	}
}
