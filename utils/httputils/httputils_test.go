// Copyright 2025 The Rota Fácil Authors
// SPDX-License-Identifier: Apache-2.0

package httputils

import (
	"bytes"
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/time/rate"
)

// dummyRoundTripper is useful to simulate a response.
type dummyRoundTripper struct {
	response *http.Response
}

func (d *dummyRoundTripper) RoundTrip(_ *http.Request) (*http.Response, error) {
	if d.response != nil {
		return d.response, nil
	}

	return nil, nil
}

//////////////////////////////////
// Test LoggingRoundTripper

// TestLoggingRoundTripper verifies that the LoggingRoundTripper logs both the request and
// the response (including timing information).
func TestLoggingRoundTripper(t *testing.T) {
	// Buffer to capture log output.
	var logBuffer bytes.Buffer

	// Set up a dummy transport that returns a dummy response.
	drt := &dummyRoundTripper{
		response: &http.Response{
			Status:     "200 OK",
			StatusCode: http.StatusOK,
			Header:     make(http.Header),
			Body:       io.NopCloser(strings.NewReader("response body")),
		},
	}

	lt := &LoggingRoundTripper{
		Transport: drt,
		Writer:    &logBuffer,
		DumpBody:  true, // include body in the dump
	}

	// Create a basic request.
	req, err := http.NewRequest(http.MethodGet, "http://example.com/abc?q=Rua+Goi%C3%A1s&key=SECRET", nil)
	if err != nil {
		t.Fatalf("failed to create request: %v", err)
	}

	// RoundTrip through our logging round tripper.
	_, err = lt.RoundTrip(req)
	if err != nil {
		t.Fatalf("RoundTrip returned error: %v", err)
	}

	// Check log contents.
	logContent := logBuffer.String()
	if strings.Contains(logContent, "SECRET") {
		t.Errorf("log leaks the API key. Got: %s", logContent)
	}

	if !strings.Contains(logContent, "> GET /abc") {
		t.Errorf("log does not contain request info. Got: %s", logContent)
	}

	if !strings.Contains(logContent, "< RESPONSE: [") {
		t.Errorf("log does not contain response header with timing info. Got: %s", logContent)
	}

	if !strings.Contains(logContent, "response body") {
		t.Errorf("log does not contain response body. Got: %s", logContent)
	}
}

//////////////////////////////////
// Test AppendRequestHeadersRoundTripper

// dummyHeadersRoundTripper is used to verify that the headers are added.
type dummyHeadersRoundTripper struct {
	lastRequest *http.Request
}

func (d *dummyHeadersRoundTripper) RoundTrip(req *http.Request) (*http.Response, error) {
	d.lastRequest = req

	return &http.Response{
		Status:     "200 OK",
		StatusCode: http.StatusOK,
		Header:     make(http.Header),
		Body:       io.NopCloser(strings.NewReader("")),
	}, nil
}

func TestAppendRequestHeadersRoundTripper(t *testing.T) {
	// Create a dummy transport that captures the request.
	dummy := &dummyHeadersRoundTripper{}

	// Wrap it with AppendRequestHeadersRoundTripper.
	headersToAdd := map[string]string{
		"X-Test-Header": "TestValue",
	}
	atr := &AppendRequestHeadersRoundTripper{
		Transport: dummy,
		Headers:   headersToAdd,
	}

	req, err := http.NewRequest(http.MethodPost, "http://example.org", nil)
	if err != nil {
		t.Fatalf("failed to create request: %v", err)
	}

	// Ensure the header is not originally set.
	if req.Header.Get("X-Test-Header") != "" {
		t.Fatalf("the test header should not be pre-set in the request")
	}

	// Issue the request.
	_, err = atr.RoundTrip(req)
	if err != nil {
		t.Fatalf("RoundTrip returned error: %v", err)
	}

	// Verify that our header was added.
	if dummy.lastRequest == nil {
		t.Fatalf("dummy transport did not receive any request")
	}

	if got := dummy.lastRequest.Header.Get("X-Test-Header"); got != "TestValue" {
		t.Errorf("expected header X-Test-Header to have value 'TestValue', but got '%s'", got)
	}
}

func TestRedact(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		{"GET /geocode/json?address=x&key=AIza123 HTTP/1.1", "GET /geocode/json?address=x&key=*** HTTP/1.1"},
		{"GET /v5/x.json?access_token=pk.abc&limit=1 HTTP/1.1", "GET /v5/x.json?access_token=***&limit=1 HTTP/1.1"},
		{"Authorization: Bearer abc", "Authorization: ***"},
		{"apikey: helloworld", "apikey: ***"},
		{"Content-Type: application/json", "Content-Type: application/json"},
		{"GET /search?q=monkey HTTP/1.1", "GET /search?q=monkey HTTP/1.1"},
	}

	for _, test := range tests {
		t.Run(test.input, func(t *testing.T) {
			assert.Equal(t, test.expected, redact(test.input))
		})
	}
}

func TestRateLimitRoundTripper(t *testing.T) {
	dummy := &dummyHeadersRoundTripper{}
	rl := &RateLimitRoundTripper{
		Transport: dummy,
		Limiter:   rate.NewLimiter(rate.Every(time.Hour), 1),
	}

	req, err := http.NewRequest(http.MethodGet, "http://example.org", nil)
	require.NoError(t, err)

	_, err = rl.RoundTrip(req)
	require.NoError(t, err)

	// the second request would wait an hour
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()

	_, err = rl.RoundTrip(req.WithContext(ctx))
	assert.Error(t, err)
}

func TestNewClient(t *testing.T) {
	var gotUA, gotHeader string

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotUA = r.Header.Get("User-Agent")
		gotHeader = r.Header.Get("X-Test-Header")
		_, _ = io.WriteString(w, "ok")
	}))
	defer srv.Close()

	var trace bytes.Buffer

	client := NewClient(ClientOptions{
		UserAgent: "rota-facil/test",
		Headers:   map[string]string{"X-Test-Header": "TestValue"},
		Trace:     &trace,
	})

	resp, err := client.Get(srv.URL + "/ping?key=SECRET")
	require.NoError(t, err)
	resp.Body.Close()

	assert.Equal(t, "rota-facil/test", gotUA)
	assert.Equal(t, "TestValue", gotHeader)
	assert.Contains(t, trace.String(), "> GET /ping?key=***")
	assert.Equal(t, 10*time.Second, client.Timeout)
}
