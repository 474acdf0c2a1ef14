// SPDX-FileCopyrightText: Winni Neessen <wn@neessen.dev>
// SPDX-FileCopyrightText: The ridecast authors
//
// SPDX-License-Identifier: MIT

//go:build linux || darwin

// Package main implements the ridecast ridership forecaster.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/vorlif/spreak"

	"github.com/ridecast/ridecast/internal/config"
	"github.com/ridecast/ridecast/internal/feature"
	"github.com/ridecast/ridecast/internal/i18n"
	"github.com/ridecast/ridecast/internal/logger"
	"github.com/ridecast/ridecast/internal/service"
	"github.com/ridecast/ridecast/internal/weather"
)

var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

const usage = `Usage: ridecast [-config FILE] <command> [flags]

Commands:
  serve      refresh the forecast on schedule and serve the HTTP API (default)
  forecast   print the weather forecast for tomorrow and the day after
  predict    predict ridership for a forecast day, optionally overriding fields with
             -day N -tmax 60, or for fully manual weather input
  version    print version information
`

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGTERM, syscall.SIGABRT, os.Interrupt)
	defer cancel()

	// Initialize Logger
	log := logger.New(slog.LevelError)

	// Optional .env file for RIDECAST_* overrides
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		log.Error("failed to load .env file", logger.Err(err))
		os.Exit(1)
	}

	confPath := flag.String("config", "", "path to the config file")
	flag.Usage = func() { _, _ = fmt.Fprint(flag.CommandLine.Output(), usage) }
	flag.Parse()

	command, args := "serve", flag.Args()
	if len(args) > 0 {
		command, args = args[0], args[1:]
	}
	if command == "version" {
		fmt.Printf("ridecast %s (commit: %s, built: %s)\n", version, commit, date)
		return
	}

	conf, err := loadConfig(*confPath)
	if err != nil {
		log.Error("failed to load config", logger.Err(err))
		os.Exit(1)
	}

	log = logger.New(conf.LogLevel)
	t, err := i18n.New(conf.Locale)
	if err != nil {
		log.Error("failed to initialize localizer", logger.Err(err))
		os.Exit(1)
	}

	serv, err := service.New(conf, log, t)
	if err != nil {
		log.Error("failed to initialize ridecast service", logger.Err(err))
		os.Exit(1)
	}

	switch command {
	case "serve":
		log.Info(t.Get("starting ridecast service"), slog.String("version", version),
			slog.String("commit", commit), slog.String("date", date))
		if err = serv.Run(ctx); err != nil {
			log.Error(t.Get("ridecast service failed"), logger.Err(err))
			os.Exit(1)
		}
		log.Info(t.Get("shutting down ridecast service"))
	case "forecast":
		out, err := serv.RenderForecast(ctx)
		if err != nil {
			log.Error("failed to fetch forecast", logger.Err(err))
			os.Exit(1)
		}
		fmt.Print(out)
	case "predict":
		os.Exit(predict(ctx, serv, t, args))
	default:
		_, _ = fmt.Fprintf(os.Stderr, "unknown command: %s\n\n%s", command, usage)
		os.Exit(2)
	}
}

// predict runs the predict command and returns the process exit code. Without field flags
// the forecast of -day is used. With -day and field flags the forecast row of that day is
// used with the given fields replaced. Field flags alone form a fully manual input.
func predict(ctx context.Context, serv *service.Service, t *spreak.Localizer, args []string) int {
	var over feature.Input
	overFields := inputFields(&over)
	flags := flag.NewFlagSet("predict", flag.ContinueOnError)
	day := flags.Int("day", 0, "forecast day to predict, 0 is tomorrow")
	for _, f := range inputFlags {
		flags.StringVar(overFields[f.name], f.name, "", f.usage)
	}
	if err := flags.Parse(args); err != nil {
		return 2
	}

	var daySet bool
	var overrides []string
	flags.Visit(func(f *flag.Flag) {
		if f.Name == "day" {
			daySet = true
			return
		}
		overrides = append(overrides, f.Name)
	})

	var (
		result feature.Result
		err    error
	)
	switch {
	case len(overrides) == 0:
		result, err = serv.PredictForecast(ctx, *day)
	case daySet:
		var row weather.DailyFeatureRow
		if row, err = serv.ForecastDay(ctx, *day); err != nil {
			break
		}
		in := feature.InputFromRow(row)
		fields := inputFields(&in)
		for _, name := range overrides {
			*fields[name] = *overFields[name]
		}
		result, err = serv.PredictInput(ctx, in)
	default:
		result, err = serv.PredictInput(ctx, over)
	}
	if err != nil {
		if fieldErrs := feature.CoercionErrors(err); len(fieldErrs) > 0 {
			_, _ = fmt.Fprintln(os.Stderr, t.Get("invalid input:"))
			for _, fieldErr := range fieldErrs {
				_, _ = fmt.Fprintf(os.Stderr, "  %s\n", fieldErr)
			}
			return 2
		}
		_, _ = fmt.Fprintf(os.Stderr, "%s: %s\n", t.Get("prediction failed"), err)
		return 1
	}

	out, err := serv.RenderPrediction(result)
	if err != nil {
		_, _ = fmt.Fprintf(os.Stderr, "%s: %s\n", t.Get("failed to render prediction"), err)
		return 1
	}
	fmt.Println(out)
	return 0
}

var inputFlags = []struct{ name, usage string }{
	{"date", "date of manual input (YYYY-MM-DD)"},
	{"prcp", "daily precipitation in inches"},
	{"tmax", "daily maximum temperature in °F"},
	{"tmin", "daily minimum temperature in °F"},
	{"rad", "daily direct radiation sum in W/m²"},
	{"day-precip", "daytime precipitation in inches"},
	{"day-real-feel", "mean daytime apparent temperature in °F"},
	{"day-wind", "mean daytime wind speed in mph"},
	{"prev-count", "ridership of the previous day"},
}

// inputFields maps the predict flag names to the fields of in.
func inputFields(in *feature.Input) map[string]*string {
	return map[string]*string{
		"date":          &in.Date,
		"prcp":          &in.Precipitation,
		"tmax":          &in.TempMax,
		"tmin":          &in.TempMin,
		"rad":           &in.Radiation,
		"day-precip":    &in.DayPrecipitation,
		"day-real-feel": &in.DayRealFeel,
		"day-wind":      &in.DayWind,
		"prev-count":    &in.PrevCount,
	}
}

// loadConfig reads the config from path, or from the default location, or falls back to
// the built-in defaults.
func loadConfig(path string) (*config.Config, error) {
	if path != "" {
		return config.NewFromFile(filepath.Dir(path), filepath.Base(path))
	}
	if dir, file := findConfigFile(); dir != "" && file != "" {
		return config.NewFromFile(dir, file)
	}
	return config.New()
}

func findConfigFile() (string, string) {
	homedir, err := os.UserHomeDir()
	if err != nil {
		return "", ""
	}
	exts := []string{"toml", "yaml", "yml", "json"}
	for _, ext := range exts {
		path := filepath.Join(homedir, ".config", "ridecast", "config."+ext)
		if _, err = os.Stat(path); err == nil {
			return filepath.Dir(path), filepath.Base(path)
		}
	}
	return "", ""
}
