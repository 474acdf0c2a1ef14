// SPDX-FileCopyrightText: The ridecast authors
//
// SPDX-License-Identifier: MIT

// Package api serves forecasts and ridership predictions over HTTP.
package api

import (
	"context"
	"errors"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/ridecast/ridecast/internal/feature"
	"github.com/ridecast/ridecast/internal/logger"
	"github.com/ridecast/ridecast/internal/presenter"
	"github.com/ridecast/ridecast/internal/weather"
)

const appName = "ridecast"

// Backend is the forecast and prediction core the API exposes.
type Backend interface {
	ForecastViews(ctx context.Context) ([]presenter.ForecastView, error)
	PredictInput(ctx context.Context, in feature.Input) (feature.Result, error)
	PredictForecast(ctx context.Context, day int) (feature.Result, error)
}

type Config struct {
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
}

// New returns the fiber app with all routes registered. gatherer is exposed on /metrics.
func New(backend Backend, gatherer prometheus.Gatherer, log *logger.Logger, conf Config) *fiber.App {
	app := fiber.New(fiber.Config{
		AppName:               appName,
		DisableStartupMessage: true,
		ReadTimeout:           conf.ReadTimeout,
		WriteTimeout:          conf.WriteTimeout,
		ErrorHandler:          errorHandler(log),
	})
	app.Use(recover.New())

	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": "ok", "service": appName})
	})
	app.Get("/metrics", adaptor.HTTPHandler(promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})))
	RegisterRoutes(app, backend)

	return app
}

// errorHandler maps domain errors to HTTP status codes. Every error response carries
// "error": true and a message; rejected input additionally lists the failing fields.
func errorHandler(log *logger.Logger) fiber.ErrorHandler {
	return func(c *fiber.Ctx, err error) error {
		code := fiber.StatusInternalServerError
		body := fiber.Map{"error": true, "message": err.Error()}

		var fiberErr *fiber.Error
		var fetchErr *weather.FetchError
		switch {
		case errors.As(err, &fiberErr):
			code = fiberErr.Code
		case len(feature.CoercionErrors(err)) > 0:
			code = fiber.StatusBadRequest
			fields := make(map[string]string)
			for _, ce := range feature.CoercionErrors(err) {
				fields[ce.Field] = ce.Err.Error()
			}
			body["message"] = "invalid input"
			body["fields"] = fields
		case errors.As(err, &fetchErr):
			code = fiber.StatusBadGateway
		case errors.Is(err, weather.ErrNoForecastForDay):
			code = fiber.StatusNotFound
		}

		if code >= fiber.StatusInternalServerError {
			log.Error("request failed", "method", c.Method(), "path", c.Path(), "status", code,
				logger.Err(err))
		}
		return c.Status(code).JSON(body)
	}
}
