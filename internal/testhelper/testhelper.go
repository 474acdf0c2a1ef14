// SPDX-FileCopyrightText: The ridecast authors
//
// SPDX-License-Identifier: MIT

// Package testhelper holds helpers shared by the package tests.
package testhelper

import (
	"bytes"
	"io"
	"net/http"
	"os"
	"testing"
)

const (
	// TestOnlineAPIURL is a reachable URL used by tests that need a real network round trip.
	TestOnlineAPIURL = "https://api.open-meteo.com/v1/forecast"

	integrationEnv = "PERFORM_ONLINE_TEST"
)

// MockRoundTripper lets tests replace the transport of an http.Client.
type MockRoundTripper struct {
	Fn func(*http.Request) (*http.Response, error)
}

func (m MockRoundTripper) RoundTrip(req *http.Request) (*http.Response, error) {
	return m.Fn(req)
}

// PerformIntegrationTests skips the calling test unless online tests are enabled.
func PerformIntegrationTests(t *testing.T) {
	t.Helper()
	if val := os.Getenv(integrationEnv); val != "true" {
		t.Skipf("skipping online test, set %s=true to enable", integrationEnv)
	}
}

// JSONResponse builds a response with the given status code and body.
func JSONResponse(code int, body []byte) *http.Response {
	return &http.Response{
		StatusCode: code,
		Body:       io.NopCloser(bytes.NewReader(body)),
		Header:     http.Header{"Content-Type": []string{"application/json"}},
	}
}

// FileResponse builds a 200 response from a fixture file.
func FileResponse(t *testing.T, path string) *http.Response {
	t.Helper()
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("failed to read fixture %s: %s", path, err)
	}
	return JSONResponse(http.StatusOK, data)
}
