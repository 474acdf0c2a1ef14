// SPDX-FileCopyrightText: The ridecast authors
//
// SPDX-License-Identifier: MIT

package http

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/sony/gobreaker"

	"github.com/ridecast/ridecast/internal/logger"
)

// maxBackoff caps the exponential delay between two attempts.
const maxBackoff = time.Second * 5

var (
	ErrRateLimited = errors.New("rate limited")
	ErrServerError = errors.New("server error")
	ErrCircuitOpen = errors.New("circuit breaker open")
)

// RetryPolicy controls how often a failed request is repeated. The zero value performs
// exactly one attempt.
type RetryPolicy struct {
	MaxRetries      int
	InitialInterval time.Duration
}

// ResilientClient performs GET requests through a circuit breaker and retries transient
// failures (transport errors, HTTP 429 and 5xx) with exponential backoff.
type ResilientClient struct {
	client  *Client
	policy  RetryPolicy
	breaker *gobreaker.CircuitBreaker
	logger  *logger.Logger
	sleep   func(context.Context, time.Duration) error
}

// NewResilient wraps the given client. name identifies the circuit breaker in logs.
func NewResilient(client *Client, name string, policy RetryPolicy) *ResilientClient {
	rc := &ResilientClient{
		client: client,
		policy: policy,
		logger: client.logger,
		sleep:  sleepContext,
	}
	rc.breaker = gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        name,
		MaxRequests: 1,
		Interval:    time.Minute,
		Timeout:     time.Minute * 2,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= 5
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			rc.logger.Warn("circuit breaker changed state", "breaker", name,
				"from", from.String(), "to", to.String())
		},
	})
	return rc
}

// Get performs the request and JSON-decodes the response into target. Only HTTP 429 and 5xx
// responses are treated as errors; callers must check any other status code themselves.
func (r *ResilientClient) Get(ctx context.Context, endpoint string, target any, query url.Values, timeout time.Duration) (int, error) {
	var attempt int
	for {
		code, err := r.attempt(ctx, endpoint, target, query, timeout)
		if err == nil {
			return code, nil
		}
		if ctx.Err() != nil {
			return code, err
		}
		if !isTransient(err) || attempt >= r.policy.MaxRetries {
			return code, err
		}

		delay := r.policy.InitialInterval << attempt
		if delay > maxBackoff || delay <= 0 {
			delay = maxBackoff
		}
		r.logger.Debug("retrying request", "endpoint", endpoint, "attempt", attempt+1,
			"delay", delay.String(), logger.Err(err))
		if err = r.sleep(ctx, delay); err != nil {
			return code, err
		}
		attempt++
	}
}

func (r *ResilientClient) attempt(ctx context.Context, endpoint string, target any, query url.Values, timeout time.Duration) (int, error) {
	var code int
	_, err := r.breaker.Execute(func() (any, error) {
		var err error
		code, err = r.client.GetWithTimeout(ctx, endpoint, target, query, nil, timeout)
		switch {
		case code == http.StatusTooManyRequests:
			return nil, ErrRateLimited
		case code >= http.StatusInternalServerError:
			return nil, fmt.Errorf("%w: status %d", ErrServerError, code)
		case err != nil:
			return nil, err
		}
		return nil, nil
	})
	if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
		return code, fmt.Errorf("%w: %w", ErrCircuitOpen, err)
	}
	return code, err
}

// isTransient reports whether another attempt may succeed. It must only be called while the
// caller's context is still live, so an exceeded deadline stems from the per-attempt timeout.
func isTransient(err error) bool {
	switch {
	case errors.Is(err, ErrCircuitOpen), errors.Is(err, ErrNonPointerTarget):
		return false
	case errors.Is(err, context.Canceled):
		return false
	case errors.Is(err, ErrRateLimited), errors.Is(err, ErrServerError), errors.Is(err, context.DeadlineExceeded):
		return true
	}
	var urlErr *url.Error
	return errors.As(err, &urlErr)
}

func sleepContext(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
