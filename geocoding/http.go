// Copyright 2025 The Rota Fácil Authors
// SPDX-License-Identifier: Apache-2.0

package geocoding

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/clenio77/rota-facil/utils/httputils"
)

// UserAgent identifies the geocoding clients; Nominatim rejects requests
// without one.
const UserAgent = "rota-facil/1.0 (+https://github.com/clenio77/rota-facil)"

// ClientOptions configures the HTTP client of a provider.
type ClientOptions struct {
	Timeout           time.Duration
	RequestsPerSecond float64
	Trace             io.Writer
}

func newHTTPClient(opts ClientOptions) *http.Client {
	return httputils.NewClient(httputils.ClientOptions{
		Timeout:           opts.Timeout,
		UserAgent:         UserAgent,
		Headers:           map[string]string{"Accept-Language": "pt-BR,pt;q=0.9"},
		RequestsPerSecond: opts.RequestsPerSecond,
		Trace:             opts.Trace,
	})
}

// getJSON performs a GET and decodes the JSON body into v, classifying the
// failures as GeocodingError.
func getJSON(ctx context.Context, client *http.Client, provider, reqURL string, v any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return &GeocodingError{Type: ErrorTypeUnknown, Message: provider + ": URL inválida", Err: err}
	}

	resp, err := client.Do(req)
	if err != nil {
		return classifyTransportError(err, provider)
	}

	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return ClassifyHTTPError(resp.StatusCode, provider)
	}

	if err := json.NewDecoder(resp.Body).Decode(v); err != nil {
		return &GeocodingError{
			Type:    ErrorTypeUnknown,
			Message: provider + ": resposta inválida",
			Err:     fmt.Errorf("decoding response: %w", err),
		}
	}

	return nil
}
