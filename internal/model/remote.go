// SPDX-FileCopyrightText: The ridecast authors
//
// SPDX-License-Identifier: MIT

package model

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/ridecast/ridecast/internal/feature"
	"github.com/ridecast/ridecast/internal/http"
	"github.com/ridecast/ridecast/internal/logger"
)

var ErrPredictionCount = errors.New("model server must return exactly one prediction")

// Remote asks a model server for predictions. The request carries the feature columns and
// a single data row; missing values are sent as null.
type Remote struct {
	http     *http.Client
	endpoint string
	timeout  time.Duration
	logger   *logger.Logger
}

type remoteRequest struct {
	Columns []string     `json:"columns"`
	Data    [][]*float64 `json:"data"`
}

type remoteResponse struct {
	Predictions []float64 `json:"predictions"`
	Error       string    `json:"error,omitempty"`
}

func NewRemote(client *http.Client, endpoint string, timeout time.Duration, log *logger.Logger) (*Remote, error) {
	if client == nil {
		return nil, errors.New("http client is required")
	}
	if endpoint == "" {
		return nil, errors.New("model endpoint is required")
	}
	if log == nil {
		return nil, errors.New("logger is required")
	}
	if timeout <= 0 {
		timeout = http.DefaultTimeout
	}
	return &Remote{http: client, endpoint: endpoint, timeout: timeout, logger: log}, nil
}

func (r *Remote) Predict(ctx context.Context, vector feature.Vector) (float64, error) {
	values := vector.Values()
	row := make([]*float64, len(values))
	for i := range values {
		if math.IsNaN(values[i]) {
			continue
		}
		row[i] = &values[i]
	}

	body, err := json.Marshal(remoteRequest{Columns: feature.Columns, Data: [][]*float64{row}})
	if err != nil {
		return 0, fmt.Errorf("failed to encode prediction request: %w", err)
	}

	res := new(remoteResponse)
	code, err := r.http.PostWithTimeout(ctx, r.endpoint, res, bytes.NewReader(body), nil, r.timeout)
	if err != nil {
		return 0, fmt.Errorf("failed to request prediction from model server: %w", err)
	}
	if code != 200 {
		if res.Error != "" {
			return 0, fmt.Errorf("model server returned non-positive response code: %d (%s)", code, res.Error)
		}
		return 0, fmt.Errorf("model server returned non-positive response code: %d", code)
	}
	if len(res.Predictions) != 1 {
		return 0, fmt.Errorf("%w, got %d", ErrPredictionCount, len(res.Predictions))
	}

	return res.Predictions[0], nil
}
