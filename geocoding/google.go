// Copyright 2025 The Rota Fácil Authors
// SPDX-License-Identifier: Apache-2.0

package geocoding

import (
	"context"
	"net/http"
	"net/url"
)

// GoogleMapsGeocoder uses the Google Maps Geocoding API.
type GoogleMapsGeocoder struct {
	BaseURL    string
	apiKey     string
	httpClient *http.Client
}

// NewGoogleMapsGeocoder creates a new Google Maps geocoder.
func NewGoogleMapsGeocoder(apiKey string, opts ClientOptions) *GoogleMapsGeocoder {
	return &GoogleMapsGeocoder{
		BaseURL:    "https://maps.googleapis.com/maps/api/geocode/json",
		apiKey:     apiKey,
		httpClient: newHTTPClient(opts),
	}
}

type googleMapsResponse struct {
	Results []struct {
		Geometry struct {
			Location struct {
				Lat float64 `json:"lat"`
				Lng float64 `json:"lng"`
			} `json:"location"`
			LocationType string `json:"location_type"` // ROOFTOP, RANGE_INTERPOLATED, GEOMETRIC_CENTER, APPROXIMATE
		} `json:"geometry"`
		FormattedAddress string `json:"formatted_address"`
		PartialMatch     bool   `json:"partial_match"`
	} `json:"results"`
	Status       string `json:"status"` // OK, ZERO_RESULTS, etc.
	ErrorMessage string `json:"error_message"`
}

// googleConfidence maps location_type to a confidence.
var googleConfidence = map[string]float64{
	"ROOFTOP":            1.0,
	"RANGE_INTERPOLATED": 0.8,
	"GEOMETRIC_CENTER":   0.6,
	"APPROXIMATE":        0.3,
}

func googleStatusError(status, message string) error {
	e := &GeocodingError{Message: "google maps status: " + status}
	if message != "" {
		e.Message += " (" + message + ")"
	}

	switch status {
	case "OVER_QUERY_LIMIT":
		e.Type = ErrorTypeRateLimit
	case "OVER_DAILY_LIMIT", "REQUEST_DENIED":
		e.Type = ErrorTypeQuotaExceeded
	case "INVALID_REQUEST":
		e.Type = ErrorTypeInvalidRequest
	case "ZERO_RESULTS":
		e.Type = ErrorTypeNotFound
	}

	return e
}

// Geocode implements Geocoder.
func (g *GoogleMapsGeocoder) Geocode(ctx context.Context, query string) (*Result, error) {
	query, err := sanitizeQuery(query)
	if err != nil {
		return nil, err
	}

	params := url.Values{}
	params.Set("address", query)
	params.Set("key", g.apiKey)
	params.Set("region", "br")
	params.Set("language", "pt-BR")
	params.Set("components", "country:BR")

	var gmResp googleMapsResponse
	if err := getJSON(ctx, g.httpClient, ProviderGoogle, g.BaseURL+"?"+params.Encode(), &gmResp); err != nil {
		return nil, err
	}

	if gmResp.Status != "OK" {
		return nil, googleStatusError(gmResp.Status, gmResp.ErrorMessage)
	}

	if len(gmResp.Results) == 0 {
		return nil, notFound(ProviderGoogle, query)
	}

	result := gmResp.Results[0]

	confidence, ok := googleConfidence[result.Geometry.LocationType]
	if !ok {
		confidence = 0.3
	}

	if result.PartialMatch {
		confidence /= 2
	}

	return &Result{
		Lat:              result.Geometry.Location.Lat,
		Lng:              result.Geometry.Location.Lng,
		FormattedAddress: result.FormattedAddress,
		Confidence:       confidence,
		Provider:         ProviderGoogle,
	}, nil
}
