// Copyright 2025 The Rota Fácil Authors
// SPDX-License-Identifier: Apache-2.0

// Package httputils provides the HTTP plumbing shared by the OCR, geocoding
// and routing clients.
package httputils

import (
	"fmt"
	"io"
	"net/http"
	"net/http/httputil"
	"regexp"
	"strings"
	"time"

	"golang.org/x/time/rate"
)

/////////////////////////////////////////
/// RoundTrippers

// LoggingRoundTripper dumps every HTTP transaction to Writer, with API keys
// and credentials masked.
type LoggingRoundTripper struct {
	Transport http.RoundTripper
	Writer    io.Writer
	DumpBody  bool
}

var (
	secretParamRegex  = regexp.MustCompile(`(?i)\b((?:key|apikey|access_token|token)=)[^&\s]+`)
	secretHeaderRegex = regexp.MustCompile(`(?i)^(authorization|x-goog-api-key|apikey):.*$`)
)

func redact(line string) string {
	line = secretParamRegex.ReplaceAllString(line, "${1}***")

	return secretHeaderRegex.ReplaceAllString(line, "${1}: ***")
}

// abbreviate prefixes, redacts and truncates the dumped lines.
func abbreviate(lines []string, prefix rune) []string {
	const maxLines, maxChars = 2048, 512

	if len(lines) > maxLines {
		lines = append(lines[:maxLines], "…")
	}

	for i, line := range lines {
		line = fmt.Sprintf("%c %s", prefix, redact(strings.TrimRight(line, "\r")))
		if len(line) > maxChars {
			line = line[0:maxChars] + "…"
		}

		lines[i] = line
	}

	return lines
}

func (t *LoggingRoundTripper) dumpRequest(req *http.Request) error {
	dump, err := httputil.DumpRequestOut(req, t.DumpBody)
	if err != nil {
		return fmt.Errorf("tracing HTTP request: %w", err)
	}

	lines := abbreviate(strings.Split(string(dump), "\n"), '>')
	lines = append(lines, "")
	_, err = fmt.Fprint(t.Writer, strings.Join(lines, "\n"))

	return err
}

func (t *LoggingRoundTripper) dumpResponse(resp *http.Response, duration time.Duration) error {
	dump, err := httputil.DumpResponse(resp, t.DumpBody)
	if err != nil {
		return fmt.Errorf("tracing HTTP response: %w", err)
	}

	lines := abbreviate(strings.Split(string(dump), "\n"), '<')

	if _, err := fmt.Fprintf(t.Writer, "< RESPONSE: [%v]\n", duration); err != nil {
		return fmt.Errorf("tracing HTTP response: %w", err)
	}

	lines = append(lines, "")
	_, err = fmt.Fprint(t.Writer, strings.Join(lines, "\n"))

	return err
}

// RoundTrip implements the http.RoundTripper interface.
func (t *LoggingRoundTripper) RoundTrip(req *http.Request) (*http.Response, error) {
	if t.Writer == nil {
		return t.Transport.RoundTrip(req)
	}

	if err := t.dumpRequest(req); err != nil {
		return nil, err
	}

	start := time.Now()

	resp, err := t.Transport.RoundTrip(req)
	if err != nil {
		return nil, err
	}

	if err := t.dumpResponse(resp, time.Since(start)); err != nil {
		return nil, err
	}

	return resp, nil
}

// AppendRequestHeadersRoundTripper adds headers to the request.
type AppendRequestHeadersRoundTripper struct {
	Transport http.RoundTripper
	Headers   map[string]string
}

// RoundTrip implements the http.RoundTripper interface.
func (t *AppendRequestHeadersRoundTripper) RoundTrip(req *http.Request) (*http.Response, error) {
	req = req.Clone(req.Context())
	for k, v := range t.Headers {
		req.Header.Set(k, v)
	}

	return t.Transport.RoundTrip(req)
}

// RateLimitRoundTripper waits for Limiter before every request. Public
// Nominatim and Photon instances ban clients above one request per second.
type RateLimitRoundTripper struct {
	Transport http.RoundTripper
	Limiter   *rate.Limiter
}

// RoundTrip implements the http.RoundTripper interface.
func (t *RateLimitRoundTripper) RoundTrip(req *http.Request) (*http.Response, error) {
	if err := t.Limiter.Wait(req.Context()); err != nil {
		return nil, fmt.Errorf("waiting for rate limiter: %w", err)
	}

	return t.Transport.RoundTrip(req)
}

////////////////////////////////////////////////////

// ClientOptions configures NewClient.
type ClientOptions struct {
	Timeout           time.Duration
	UserAgent         string
	Headers           map[string]string
	RequestsPerSecond float64   // 0 disables the limiter
	Trace             io.Writer // nil disables the dump
	Transport         http.RoundTripper
}

// NewClient builds an http.Client with the round trippers stacked in the
// order rate limit, headers, trace.
func NewClient(opts ClientOptions) *http.Client {
	transport := opts.Transport
	if transport == nil {
		transport = http.DefaultTransport
	}

	transport = &LoggingRoundTripper{Transport: transport, Writer: opts.Trace}

	headers := map[string]string{}
	for k, v := range opts.Headers {
		headers[k] = v
	}

	if opts.UserAgent != "" {
		headers["User-Agent"] = opts.UserAgent
	}

	if len(headers) > 0 {
		transport = &AppendRequestHeadersRoundTripper{Transport: transport, Headers: headers}
	}

	if opts.RequestsPerSecond > 0 {
		transport = &RateLimitRoundTripper{
			Transport: transport,
			Limiter:   rate.NewLimiter(rate.Limit(opts.RequestsPerSecond), 1),
		}
	}

	timeout := opts.Timeout
	if timeout == 0 {
		timeout = 10 * time.Second
	}

	return &http.Client{Transport: transport, Timeout: timeout}
}
