// SPDX-FileCopyrightText: The ridecast authors
//
// SPDX-License-Identifier: MIT

package feature

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"math"
	"reflect"
	"testing"
	"time"

	"github.com/ridecast/ridecast/internal/holiday"
	"github.com/ridecast/ridecast/internal/logger"
	"github.com/ridecast/ridecast/internal/weather"
)

type sumPredictor struct {
	calls   int
	vectors []Vector
	err     error
}

func (p *sumPredictor) Predict(_ context.Context, vector Vector) (float64, error) {
	p.calls++
	p.vectors = append(p.vectors, vector)
	if p.err != nil {
		return 0, p.err
	}
	var sum float64
	for _, v := range vector.Values() {
		sum += v
	}
	return sum, nil
}

type sizedPredictor struct {
	sumPredictor
	features int
}

func (p *sizedPredictor) NFeatures() int { return p.features }

func testBuilder(t *testing.T, predictor Predictor) *Builder {
	t.Helper()
	builder, err := NewBuilder(holiday.NewFederal(), predictor, logger.NewLogger(slog.LevelDebug, io.Discard))
	if err != nil {
		t.Fatalf("failed to create builder: %s", err)
	}
	return builder
}

func testRow(date time.Time) weather.DailyFeatureRow {
	return weather.DailyFeatureRow{
		Date:             date,
		Precipitation:    0.2,
		TempMax:          86.4,
		TempMin:          70.2,
		Radiation:        2700,
		DayPrecipitation: 0.1,
		DayRealFeel:      91,
		DayWind:          7.6,
		PrevCount:        17297,
	}
}

func validInput() Input {
	return Input{
		Date:             "2023-07-04",
		Precipitation:    "0.2",
		TempMax:          "86.4",
		TempMin:          "70.2",
		Radiation:        "2700",
		DayPrecipitation: "0.1",
		DayRealFeel:      "91",
		DayWind:          "7.6",
		PrevCount:        "17297",
	}
}

func TestDerive(t *testing.T) {
	cal := holiday.NewFederal()
	t.Run("vector order is fixed", func(t *testing.T) {
		vec := Derive(testRow(time.Date(2023, 7, 4, 0, 0, 0, 0, time.UTC)), cal)
		want := []float64{0.2, 86.4, 70.2, 2700, 0.1, 91, 7.6, 2023, 7, 1, 4, 1, 17297}
		if !reflect.DeepEqual(vec.Values(), want) {
			t.Errorf("expected values %v, got %v", want, vec.Values())
		}
		if len(Columns) != len(want) {
			t.Errorf("expected %d columns, got %d", len(want), len(Columns))
		}
	})
	t.Run("column names match json tags in order", func(t *testing.T) {
		typ := reflect.TypeFor[Vector]()
		if typ.NumField() != len(Columns) {
			t.Fatalf("expected %d fields, got %d", len(Columns), typ.NumField())
		}
		for i, column := range Columns {
			if tag := typ.Field(i).Tag.Get("json"); tag != column {
				t.Errorf("field %d: expected column %s, got %s", i, column, tag)
			}
		}
	})
	t.Run("holiday flag", func(t *testing.T) {
		tests := []struct {
			date time.Time
			want bool
		}{
			{time.Date(2023, 7, 4, 0, 0, 0, 0, time.UTC), true},
			{time.Date(2023, 7, 5, 0, 0, 0, 0, time.UTC), false},
			{time.Date(2022, 12, 26, 0, 0, 0, 0, time.UTC), true},
		}
		for _, tc := range tests {
			t.Run(tc.date.Format(time.DateOnly), func(t *testing.T) {
				if got := Derive(testRow(tc.date), cal).Holiday; got != tc.want {
					t.Errorf("expected holiday=%t, got %t", tc.want, got)
				}
			})
		}
	})
	t.Run("day of week starts on monday", func(t *testing.T) {
		tests := []struct {
			date time.Time
			want int
		}{
			{time.Date(2023, 7, 3, 0, 0, 0, 0, time.UTC), 0},
			{time.Date(2023, 7, 8, 0, 0, 0, 0, time.UTC), 5},
			{time.Date(2023, 7, 9, 0, 0, 0, 0, time.UTC), 6},
		}
		for _, tc := range tests {
			if got := Derive(testRow(tc.date), cal).DayOfWeek; got != tc.want {
				t.Errorf("%s: expected dow %d, got %d", tc.date.Weekday(), tc.want, got)
			}
		}
	})
	t.Run("calendar features use the row's local date", func(t *testing.T) {
		loc, err := time.LoadLocation("America/New_York")
		if err != nil {
			t.Fatalf("failed to load location: %s", err)
		}
		vec := Derive(testRow(time.Date(2023, 12, 31, 0, 0, 0, 0, loc)), cal)
		if vec.Year != 2023 || vec.Month != 12 || vec.DayOfMonth != 31 || vec.DayOfWeek != 6 {
			t.Errorf("unexpected calendar features: %+v", vec)
		}
	})
}

func TestCoerce(t *testing.T) {
	t.Run("valid input", func(t *testing.T) {
		in := validInput()
		in.TempMax = " 86.4 "
		row, err := Coerce(in)
		if err != nil {
			t.Fatalf("failed to coerce input: %s", err)
		}
		want := testRow(time.Date(2023, 7, 4, 0, 0, 0, 0, time.UTC))
		if row != want {
			t.Errorf("expected %+v, got %+v", want, row)
		}
	})
	t.Run("invalid fields", func(t *testing.T) {
		tests := []struct {
			name   string
			modify func(*Input)
			field  string
			err    error
		}{
			{"non-numeric temperature", func(in *Input) { in.TempMax = "warm" }, "tmax", ErrNotNumeric},
			{"missing precipitation", func(in *Input) { in.Precipitation = "" }, "prcp", ErrMissing},
			{"blank previous count", func(in *Input) { in.PrevCount = "   " }, "prev_count", ErrMissing},
			{"not a number", func(in *Input) { in.DayWind = "NaN" }, "day_wind", ErrNotFinite},
			{"infinite radiation", func(in *Input) { in.Radiation = "+Inf" }, "rad", ErrNotFinite},
			{"missing date", func(in *Input) { in.Date = "" }, "date", ErrMissing},
			{"malformed date", func(in *Input) { in.Date = "07/04/2023" }, "date", ErrInvalidDate},
			{"impossible date", func(in *Input) { in.Date = "2023-02-30" }, "date", ErrInvalidDate},
		}
		for _, tc := range tests {
			t.Run(tc.name, func(t *testing.T) {
				in := validInput()
				tc.modify(&in)
				row, err := Coerce(in)
				if err == nil {
					t.Fatal("expected coercion to fail")
				}
				if row != (weather.DailyFeatureRow{}) {
					t.Errorf("expected empty row on failure, got %+v", row)
				}
				if !errors.Is(err, tc.err) {
					t.Errorf("expected %s, got %s", tc.err, err)
				}
				list := CoercionErrors(err)
				if len(list) != 1 {
					t.Fatalf("expected one coercion error, got %d: %s", len(list), err)
				}
				if list[0].Field != tc.field {
					t.Errorf("expected field %s, got %s", tc.field, list[0].Field)
				}
			})
		}
	})
	t.Run("all failing fields are reported", func(t *testing.T) {
		_, err := Coerce(Input{TempMax: "hot"})
		list := CoercionErrors(err)
		if len(list) != 9 {
			t.Fatalf("expected 9 coercion errors, got %d: %s", len(list), err)
		}
		fields := make(map[string]error)
		for _, ce := range list {
			fields[ce.Field] = ce.Err
		}
		if !errors.Is(fields["tmax"], ErrNotNumeric) {
			t.Errorf("expected tmax to be non-numeric, got %v", fields["tmax"])
		}
		if !errors.Is(fields["date"], ErrMissing) {
			t.Errorf("expected date to be missing, got %v", fields["date"])
		}
	})
}

func TestCoercionErrors(t *testing.T) {
	if list := CoercionErrors(nil); list != nil {
		t.Errorf("expected no errors for nil, got %v", list)
	}
	if list := CoercionErrors(errors.New("plain")); list != nil {
		t.Errorf("expected no errors for a plain error, got %v", list)
	}
	_, err := Coerce(Input{})
	wrapped := errors.Join(errors.New("context"), err)
	if list := CoercionErrors(wrapped); len(list) != 9 {
		t.Errorf("expected 9 coercion errors, got %d", len(list))
	}
	ce := &CoercionError{Field: "tmax", Value: "warm", Err: ErrNotNumeric}
	if ce.Error() != `invalid tmax "warm": value is not a number` {
		t.Errorf("unexpected error message: %s", ce.Error())
	}
}

func TestBuilder(t *testing.T) {
	t.Run("new builder requires dependencies", func(t *testing.T) {
		log := logger.NewLogger(slog.LevelInfo, io.Discard)
		if _, err := NewBuilder(nil, &sumPredictor{}, log); err == nil {
			t.Error("expected missing calendar to fail")
		}
		if _, err := NewBuilder(holiday.NewFederal(), nil, log); err == nil {
			t.Error("expected missing predictor to fail")
		}
		if _, err := NewBuilder(holiday.NewFederal(), &sumPredictor{}, nil); err == nil {
			t.Error("expected missing logger to fail")
		}
	})
	t.Run("predictor with a different feature count is rejected", func(t *testing.T) {
		_, err := NewBuilder(holiday.NewFederal(), &sizedPredictor{features: 12},
			logger.NewLogger(slog.LevelInfo, io.Discard))
		var mismatch *SchemaMismatchError
		if !errors.As(err, &mismatch) {
			t.Fatalf("expected schema mismatch, got %v", err)
		}
		if mismatch.Want != 12 || mismatch.Got != 13 {
			t.Errorf("unexpected mismatch: %+v", mismatch)
		}
	})
	t.Run("predictor schema is checked on every prediction", func(t *testing.T) {
		predictor := &sizedPredictor{features: len(Columns)}
		builder := testBuilder(t, predictor)
		if _, err := builder.Predict(t.Context(), testRow(time.Now())); err != nil {
			t.Fatalf("failed to predict: %s", err)
		}
		predictor.features = 14
		defer func() {
			mismatch, ok := recover().(*SchemaMismatchError)
			if !ok {
				t.Fatal("expected a SchemaMismatchError panic")
			}
			if mismatch.Want != 14 || mismatch.Got != 13 {
				t.Errorf("unexpected mismatch: %+v", mismatch)
			}
			if predictor.calls != 1 {
				t.Errorf("expected predictor not to be called on mismatch, got %d calls", predictor.calls)
			}
		}()
		_, _ = builder.Predict(t.Context(), testRow(time.Now()))
	})
	t.Run("predict is deterministic", func(t *testing.T) {
		predictor := &sumPredictor{}
		builder := testBuilder(t, predictor)
		row := testRow(time.Date(2023, 7, 4, 0, 0, 0, 0, time.UTC))
		first, err := builder.Predict(t.Context(), row)
		if err != nil {
			t.Fatalf("failed to predict: %s", err)
		}
		second, err := builder.Predict(t.Context(), row)
		if err != nil {
			t.Fatalf("failed to predict: %s", err)
		}
		if first != second {
			t.Errorf("expected identical results, got %+v and %+v", first, second)
		}
		if predictor.calls != 2 {
			t.Errorf("expected one predictor call per prediction, got %d", predictor.calls)
		}
		if first.PrevCount != 17297 || !first.Date.Equal(row.Date) {
			t.Errorf("unexpected result: %+v", first)
		}
	})
	t.Run("manual and forecast rows produce identical vectors", func(t *testing.T) {
		predictor := &sumPredictor{}
		builder := testBuilder(t, predictor)
		row := testRow(time.Date(2023, 7, 4, 0, 0, 0, 0, time.UTC))
		fromRow, err := builder.Predict(t.Context(), row)
		if err != nil {
			t.Fatalf("failed to predict: %s", err)
		}
		fromInput, err := builder.PredictInput(t.Context(), InputFromRow(row))
		if err != nil {
			t.Fatalf("failed to predict: %s", err)
		}
		if fromRow.Vector != fromInput.Vector || fromRow.Prediction != fromInput.Prediction {
			t.Errorf("expected identical results, got %+v and %+v", fromRow, fromInput)
		}
	})
	t.Run("coercion failure produces no prediction", func(t *testing.T) {
		predictor := &sumPredictor{}
		builder := testBuilder(t, predictor)
		in := validInput()
		in.TempMax = "warm"
		result, err := builder.PredictInput(t.Context(), in)
		var ce *CoercionError
		if !errors.As(err, &ce) {
			t.Fatalf("expected coercion error, got %v", err)
		}
		if result != (Result{}) {
			t.Errorf("expected empty result, got %+v", result)
		}
		if predictor.calls != 0 {
			t.Errorf("expected predictor not to be called, got %d calls", predictor.calls)
		}
	})
	t.Run("predictor errors are wrapped", func(t *testing.T) {
		predictor := &sumPredictor{err: errors.New("intentionally failing")}
		_, err := testBuilder(t, predictor).Predict(t.Context(), testRow(time.Now()))
		if !errors.Is(err, predictor.err) {
			t.Errorf("expected predictor error, got %v", err)
		}
	})
	t.Run("non-finite predictions are rejected", func(t *testing.T) {
		row := testRow(time.Date(2023, 1, 14, 0, 0, 0, 0, time.UTC))
		row.DayRealFeel = math.NaN()
		_, err := testBuilder(t, &sumPredictor{}).Predict(t.Context(), row)
		if !errors.Is(err, ErrNonFinitePrediction) {
			t.Errorf("expected %s, got %v", ErrNonFinitePrediction, err)
		}
	})
}

func TestMustMatchSchema(t *testing.T) {
	defer func() {
		r := recover()
		if r == nil {
			t.Fatal("expected a panic")
		}
		mismatch, ok := r.(*SchemaMismatchError)
		if !ok {
			t.Fatalf("expected SchemaMismatchError, got %T", r)
		}
		if mismatch.Want != 13 || mismatch.Got != 12 {
			t.Errorf("unexpected mismatch: %+v", mismatch)
		}
	}()
	mustMatchSchema(make([]float64, 12), 13)
}

func TestResult_Delta(t *testing.T) {
	tests := []struct {
		name       string
		prediction float64
		prevCount  float64
		want       float64
		ok         bool
	}{
		{"increase", 20000, 16000, 25, true},
		{"decrease", 8000, 16000, -50, true},
		{"zero previous count", 20000, 0, 0, false},
		{"negative zero previous count", 20000, math.Copysign(0, -1), 0, false},
		{"not a number previous count", 20000, math.NaN(), 0, false},
		{"infinite previous count", 20000, math.Inf(1), 0, false},
		{"not a number prediction", math.NaN(), 16000, 0, false},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			delta, ok := Result{Prediction: tc.prediction, PrevCount: tc.prevCount}.Delta()
			if ok != tc.ok {
				t.Fatalf("expected ok=%t, got %t", tc.ok, ok)
			}
			if delta != tc.want {
				t.Errorf("expected delta %f, got %f", tc.want, delta)
			}
		})
	}
}
