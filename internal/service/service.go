// SPDX-FileCopyrightText: Winni Neessen <wn@neessen.dev>
// SPDX-FileCopyrightText: The ridecast authors
//
// SPDX-License-Identifier: MIT

package service

import (
	"context"
	"errors"
	"fmt"
	"os"
	"sync"
	"syscall"
	"time"

	"github.com/go-co-op/gocron/v2"
	"github.com/vorlif/spreak"

	"github.com/ridecast/ridecast/internal/api"
	"github.com/ridecast/ridecast/internal/config"
	"github.com/ridecast/ridecast/internal/feature"
	"github.com/ridecast/ridecast/internal/holiday"
	"github.com/ridecast/ridecast/internal/logger"
	"github.com/ridecast/ridecast/internal/presenter"
	"github.com/ridecast/ridecast/internal/weather"
)

const (
	refreshJobName  = "forecast_refresh_job"
	shutdownTimeout = time.Second * 10
)

type Service struct {
	config    *config.Config
	logger    *logger.Logger
	localizer *spreak.Localizer
	fetcher   *weather.Fetcher
	builder   *feature.Builder
	presenter *presenter.Presenter
	scheduler gocron.Scheduler
	metrics   *metrics
	signals   signalSource
	now       func() time.Time

	forecastLock sync.RWMutex
	forecast     *forecastCache
}

// New wires the configured weather provider and model into a Service.
func New(conf *config.Config, log *logger.Logger, t *spreak.Localizer) (*Service, error) {
	if log == nil {
		return nil, errors.New("logger is required")
	}
	provider, err := selectWeatherProvider(conf, log)
	if err != nil {
		return nil, err
	}
	predictor, err := selectPredictor(conf, log)
	if err != nil {
		return nil, err
	}
	return newService(conf, log, t, provider, predictor)
}

func newService(conf *config.Config, log *logger.Logger, t *spreak.Localizer, provider weather.Provider,
	predictor feature.Predictor,
) (*Service, error) {
	if log == nil {
		return nil, errors.New("logger is required")
	}
	fetcher, err := weather.NewFetcher(provider, conf.Location(), conf.Model.PrevCountDefault, log)
	if err != nil {
		return nil, fmt.Errorf("failed to create forecast fetcher: %w", err)
	}
	builder, err := feature.NewBuilder(holiday.NewFederal(), predictor, log)
	if err != nil {
		return nil, fmt.Errorf("failed to create feature builder: %w", err)
	}
	pres, err := presenter.New(conf, t)
	if err != nil {
		return nil, fmt.Errorf("failed to create presenter: %w", err)
	}
	scheduler, err := gocron.NewScheduler(gocron.WithLocation(conf.Location()))
	if err != nil {
		return nil, fmt.Errorf("failed to create scheduler: %w", err)
	}

	return &Service{
		config:    conf,
		logger:    log,
		localizer: t,
		fetcher:   fetcher,
		builder:   builder,
		presenter: pres,
		scheduler: scheduler,
		metrics:   newMetrics(),
		signals:   stdLibSignalSource{},
		now:       time.Now,
	}, nil
}

// Run refreshes the forecast on schedule and serves the HTTP API until ctx is cancelled.
func (s *Service) Run(ctx context.Context) error {
	if err := s.createScheduledJob(ctx, s.config.Intervals.ForecastRefresh, s.refreshJob,
		refreshJobName); err != nil {
		return err
	}
	s.scheduler.Start()

	sigChan := make(chan os.Signal, 1)
	s.signals.Notify(sigChan, syscall.SIGUSR1)
	defer s.signals.Stop(sigChan)
	go s.HandleRefreshSignal(ctx, sigChan)

	app := api.New(s, s.metrics.registry, s.logger, api.Config{
		ReadTimeout:  s.config.Server.ReadTimeout,
		WriteTimeout: s.config.Server.WriteTimeout,
	})
	errChan := make(chan error, 1)
	go func() {
		s.logger.Info("starting HTTP API", "addr", s.config.Server.Addr)
		errChan <- app.Listen(s.config.Server.Addr)
	}()

	var runErr error
	select {
	case <-ctx.Done():
	case err := <-errChan:
		runErr = fmt.Errorf("HTTP API stopped: %w", err)
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := app.ShutdownWithContext(shutdownCtx); err != nil {
		runErr = errors.Join(runErr, fmt.Errorf("failed to shut down HTTP API: %w", err))
	}
	if err := s.scheduler.Shutdown(); err != nil {
		runErr = errors.Join(runErr, fmt.Errorf("failed to shut down scheduler: %w", err))
	}
	return runErr
}

func (s *Service) createScheduledJob(ctx context.Context, interval time.Duration, task func(context.Context),
	jobName string,
) error {
	_, err := s.scheduler.NewJob(
		gocron.DurationJob(interval),
		gocron.NewTask(task),
		gocron.WithContext(ctx),
		gocron.WithSingletonMode(gocron.LimitModeReschedule),
		gocron.WithName(jobName),
		gocron.WithStartAt(gocron.WithStartImmediately()),
	)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", jobName, err)
	}
	return nil
}

// RenderForecast renders the current forecast with the forecast template.
func (s *Service) RenderForecast(ctx context.Context) (string, error) {
	rows, err := s.Forecast(ctx)
	if err != nil {
		return "", err
	}
	return s.presenter.RenderForecast(rows)
}

// RenderPrediction renders result with the prediction template.
func (s *Service) RenderPrediction(result feature.Result) (string, error) {
	return s.presenter.RenderPrediction(result)
}
