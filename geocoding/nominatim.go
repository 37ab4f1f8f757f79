// Copyright 2025 The Rota Fácil Authors
// SPDX-License-Identifier: Apache-2.0

package geocoding

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
)

// NominatimGeocoder uses the OpenStreetMap Nominatim search API. The public
// instance allows one request per second.
type NominatimGeocoder struct {
	BaseURL    string
	Email      string
	httpClient *http.Client
}

// NewNominatimGeocoder creates a Nominatim geocoder; a zero RequestsPerSecond
// becomes 1.
func NewNominatimGeocoder(opts ClientOptions) *NominatimGeocoder {
	if opts.RequestsPerSecond == 0 {
		opts.RequestsPerSecond = 1
	}

	return &NominatimGeocoder{
		BaseURL:    "https://nominatim.openstreetmap.org/search",
		httpClient: newHTTPClient(opts),
	}
}

type nominatimPlace struct {
	Lat         string  `json:"lat"`
	Lon         string  `json:"lon"`
	DisplayName string  `json:"display_name"`
	Importance  float64 `json:"importance"`
}

// Geocode implements Geocoder.
func (g *NominatimGeocoder) Geocode(ctx context.Context, query string) (*Result, error) {
	query, err := sanitizeQuery(query)
	if err != nil {
		return nil, err
	}

	params := url.Values{}
	params.Set("q", query)
	params.Set("format", "jsonv2")
	params.Set("limit", "1")
	params.Set("countrycodes", "br")

	if g.Email != "" {
		params.Set("email", g.Email)
	}

	var places []nominatimPlace
	if err := getJSON(ctx, g.httpClient, ProviderNominatim, g.BaseURL+"?"+params.Encode(), &places); err != nil {
		return nil, err
	}

	if len(places) == 0 {
		return nil, notFound(ProviderNominatim, query)
	}

	p := places[0]

	lat, err := strconv.ParseFloat(p.Lat, 64)
	if err != nil {
		return nil, &GeocodingError{Message: "nominatim: latitude inválida", Err: fmt.Errorf("parsing %q: %w", p.Lat, err)}
	}

	lng, err := strconv.ParseFloat(p.Lon, 64)
	if err != nil {
		return nil, &GeocodingError{Message: "nominatim: longitude inválida", Err: fmt.Errorf("parsing %q: %w", p.Lon, err)}
	}

	return &Result{
		Lat:              lat,
		Lng:              lng,
		FormattedAddress: p.DisplayName,
		Confidence:       matchScore(query, p.DisplayName),
		Provider:         ProviderNominatim,
	}, nil
}
