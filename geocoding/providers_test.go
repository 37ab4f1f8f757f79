// Copyright 2025 The Rota Fácil Authors
// SPDX-License-Identifier: Apache-2.0

package geocoding

import (
	"context"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testQuery = "Rua Goiás, 100, 38400123, Uberlândia, MG, Brasil"

// newTestServer answers every request with body and records the last query.
func newTestServer(t *testing.T, status int, body string) (*httptest.Server, *url.URL) {
	t.Helper()

	var last url.URL

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		last = *r.URL

		assert.Equal(t, UserAgent, r.Header.Get("User-Agent"))
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_, _ = w.Write([]byte(body))
	}))
	t.Cleanup(srv.Close)

	return srv, &last
}

func TestGoogleMapsGeocoder(t *testing.T) {
	srv, last := newTestServer(t, http.StatusOK, `{
		"status": "OK",
		"results": [{
			"formatted_address": "R. Goiás, 100 - Centro, Uberlândia - MG, 38400-123, Brasil",
			"geometry": {"location": {"lat": -18.9146, "lng": -48.2754}, "location_type": "ROOFTOP"}
		}]
	}`)

	g := NewGoogleMapsGeocoder("secret", ClientOptions{})
	g.BaseURL = srv.URL

	got, err := g.Geocode(context.Background(), testQuery)
	require.NoError(t, err)

	expected := &Result{
		Lat:              -18.9146,
		Lng:              -48.2754,
		FormattedAddress: "R. Goiás, 100 - Centro, Uberlândia - MG, 38400-123, Brasil",
		Confidence:       1.0,
		Provider:         ProviderGoogle,
	}
	if diff := cmp.Diff(expected, got); diff != "" {
		t.Errorf("Geocode() mismatch (-want +got):\n%s", diff)
	}

	q := last.Query()
	assert.Equal(t, testQuery, q.Get("address"))
	assert.Equal(t, "secret", q.Get("key"))
	assert.Equal(t, "br", q.Get("region"))
	assert.Equal(t, "country:BR", q.Get("components"))
}

func TestGoogleMapsGeocoderStatus(t *testing.T) {
	tests := []struct {
		status   string
		wantType ErrorType
	}{
		{"ZERO_RESULTS", ErrorTypeNotFound},
		{"OVER_QUERY_LIMIT", ErrorTypeRateLimit},
		{"OVER_DAILY_LIMIT", ErrorTypeQuotaExceeded},
		{"REQUEST_DENIED", ErrorTypeQuotaExceeded},
		{"INVALID_REQUEST", ErrorTypeInvalidRequest},
		{"UNKNOWN_ERROR", ErrorTypeUnknown},
	}

	for _, tt := range tests {
		t.Run(tt.status, func(t *testing.T) {
			srv, _ := newTestServer(t, http.StatusOK, `{"status": "`+tt.status+`", "results": []}`)

			g := NewGoogleMapsGeocoder("secret", ClientOptions{})
			g.BaseURL = srv.URL

			_, err := g.Geocode(context.Background(), testQuery)
			require.Error(t, err)
			assert.Equal(t, tt.wantType, errorType(err))
			assert.Contains(t, err.Error(), tt.status)
		})
	}
}

func TestGoogleMapsGeocoderPartialMatch(t *testing.T) {
	srv, _ := newTestServer(t, http.StatusOK, `{
		"status": "OK",
		"results": [{
			"formatted_address": "Uberlândia - MG, Brasil",
			"partial_match": true,
			"geometry": {"location": {"lat": -18.9186, "lng": -48.2772}, "location_type": "APPROXIMATE"}
		}]
	}`)

	g := NewGoogleMapsGeocoder("secret", ClientOptions{})
	g.BaseURL = srv.URL

	got, err := g.Geocode(context.Background(), testQuery)
	require.NoError(t, err)
	assert.InDelta(t, 0.15, got.Confidence, 1e-9)
}

func TestNominatimGeocoder(t *testing.T) {
	srv, last := newTestServer(t, http.StatusOK, `[{
		"lat": "-18.9146",
		"lon": "-48.2754",
		"display_name": "100, Rua Goiás, Centro, Uberlândia, Minas Gerais, 38400-123, Brasil",
		"importance": 0.31
	}]`)

	g := NewNominatimGeocoder(ClientOptions{RequestsPerSecond: 100})
	g.BaseURL = srv.URL
	g.Email = "ops@example.com"

	got, err := g.Geocode(context.Background(), testQuery)
	require.NoError(t, err)

	assert.Equal(t, ProviderNominatim, got.Provider)
	assert.InDelta(t, -18.9146, got.Lat, 1e-9)
	assert.InDelta(t, -48.2754, got.Lng, 1e-9)
	assert.InDelta(t, 1.0, got.Confidence, 1e-9)

	q := last.Query()
	assert.Equal(t, testQuery, q.Get("q"))
	assert.Equal(t, "br", q.Get("countrycodes"))
	assert.Equal(t, "ops@example.com", q.Get("email"))
}

func TestNominatimGeocoderErrors(t *testing.T) {
	tests := []struct {
		name     string
		status   int
		body     string
		wantType ErrorType
	}{
		{"empty", http.StatusOK, `[]`, ErrorTypeNotFound},
		{"rate limited", http.StatusTooManyRequests, ``, ErrorTypeRateLimit},
		{"banned", http.StatusForbidden, ``, ErrorTypeQuotaExceeded},
		{"bad json", http.StatusOK, `{`, ErrorTypeUnknown},
		{"bad latitude", http.StatusOK, `[{"lat": "x", "lon": "-48.2"}]`, ErrorTypeUnknown},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv, _ := newTestServer(t, tt.status, tt.body)

			g := NewNominatimGeocoder(ClientOptions{RequestsPerSecond: 100})
			g.BaseURL = srv.URL

			_, err := g.Geocode(context.Background(), testQuery)
			require.Error(t, err)
			assert.Equal(t, tt.wantType, errorType(err))
		})
	}
}

func TestPhotonGeocoder(t *testing.T) {
	srv, last := newTestServer(t, http.StatusOK, `{
		"type": "FeatureCollection",
		"features": [
			{
				"geometry": {"type": "Point", "coordinates": [-56.16, -34.90]},
				"properties": {"name": "Rua Goiás", "countrycode": "UY"}
			},
			{
				"geometry": {"type": "Point", "coordinates": [-48.2754, -18.9146]},
				"properties": {
					"street": "Rua Goiás",
					"housenumber": "100",
					"district": "Centro",
					"city": "Uberlândia",
					"state": "Minas Gerais",
					"postcode": "38400-123",
					"countrycode": "BR"
				}
			}
		]
	}`)

	g := NewPhotonGeocoder(ClientOptions{RequestsPerSecond: 100})
	g.BaseURL = srv.URL

	got, err := g.Geocode(context.Background(), testQuery)
	require.NoError(t, err)

	expected := &Result{
		Lat:              -18.9146,
		Lng:              -48.2754,
		FormattedAddress: "Rua Goiás, 100, Centro, Uberlândia, Minas Gerais, 38400-123",
		Confidence:       1.0,
		Provider:         ProviderPhoton,
	}
	if diff := cmp.Diff(expected, got); diff != "" {
		t.Errorf("Geocode() mismatch (-want +got):\n%s", diff)
	}

	assert.Equal(t, "-74,-33.8,-28.8,5.3", last.Query().Get("bbox"))
}

func TestPhotonGeocoderOnlyForeignResults(t *testing.T) {
	srv, _ := newTestServer(t, http.StatusOK, `{"features": [
		{"geometry": {"coordinates": [-56.16, -34.90]}, "properties": {"name": "Goiás", "countrycode": "UY"}}
	]}`)

	g := NewPhotonGeocoder(ClientOptions{RequestsPerSecond: 100})
	g.BaseURL = srv.URL

	_, err := g.Geocode(context.Background(), testQuery)
	assert.True(t, IsNotFoundError(err))
}

func TestMapboxGeocoder(t *testing.T) {
	srv, last := newTestServer(t, http.StatusOK, `{
		"features": [{
			"center": [-48.2754, -18.9146],
			"place_name": "Rua Goiás 100, Uberlândia - Minas Gerais, 38400-123, Brasil",
			"relevance": 0.96
		}]
	}`)

	g := NewMapboxGeocoder("pk.token", ClientOptions{})
	g.BaseURL = srv.URL

	got, err := g.Geocode(context.Background(), testQuery)
	require.NoError(t, err)

	assert.Equal(t, ProviderMapbox, got.Provider)
	assert.InDelta(t, -18.9146, got.Lat, 1e-9)
	assert.InDelta(t, 0.96, got.Confidence, 1e-9)

	assert.True(t, strings.HasSuffix(last.Path, ".json"), last.Path)
	assert.Contains(t, last.Path, "Rua Goiás, 100")
	assert.Equal(t, "pk.token", last.Query().Get("access_token"))
	assert.Equal(t, "br", last.Query().Get("country"))
}

func TestMapboxGeocoderNoFeatures(t *testing.T) {
	srv, _ := newTestServer(t, http.StatusOK, `{"features": []}`)

	g := NewMapboxGeocoder("pk.token", ClientOptions{})
	g.BaseURL = srv.URL

	_, err := g.Geocode(context.Background(), testQuery)
	assert.True(t, IsNotFoundError(err))
}

func TestGeocodeEmptyQuery(t *testing.T) {
	for _, g := range []Geocoder{
		NewGoogleMapsGeocoder("k", ClientOptions{}),
		NewNominatimGeocoder(ClientOptions{}),
		NewPhotonGeocoder(ClientOptions{}),
		NewMapboxGeocoder("k", ClientOptions{}),
	} {
		_, err := g.Geocode(context.Background(), "  ")
		assert.Equal(t, ErrorTypeInvalidRequest, errorType(err))
	}
}
