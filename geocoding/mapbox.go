// Copyright 2025 The Rota Fácil Authors
// SPDX-License-Identifier: Apache-2.0

package geocoding

import (
	"context"
	"net/http"
	"net/url"
)

// MapboxGeocoder uses the Mapbox Geocoding v5 API.
type MapboxGeocoder struct {
	BaseURL    string
	token      string
	httpClient *http.Client
}

// NewMapboxGeocoder creates a Mapbox geocoder.
func NewMapboxGeocoder(token string, opts ClientOptions) *MapboxGeocoder {
	return &MapboxGeocoder{
		BaseURL:    "https://api.mapbox.com/geocoding/v5/mapbox.places",
		token:      token,
		httpClient: newHTTPClient(opts),
	}
}

type mapboxResponse struct {
	Features []struct {
		Center    []float64 `json:"center"` // lng, lat
		PlaceName string    `json:"place_name"`
		Relevance float64   `json:"relevance"`
	} `json:"features"`
}

// Geocode implements Geocoder. The Mapbox relevance is used as confidence.
func (g *MapboxGeocoder) Geocode(ctx context.Context, query string) (*Result, error) {
	query, err := sanitizeQuery(query)
	if err != nil {
		return nil, err
	}

	params := url.Values{}
	params.Set("access_token", g.token)
	params.Set("country", "br")
	params.Set("language", "pt")
	params.Set("limit", "1")
	params.Set("types", "address,street,postcode")

	reqURL := g.BaseURL + "/" + url.PathEscape(query) + ".json?" + params.Encode()

	var resp mapboxResponse
	if err := getJSON(ctx, g.httpClient, ProviderMapbox, reqURL, &resp); err != nil {
		return nil, err
	}

	if len(resp.Features) == 0 || len(resp.Features[0].Center) < 2 {
		return nil, notFound(ProviderMapbox, query)
	}

	f := resp.Features[0]

	return &Result{
		Lat:              f.Center[1],
		Lng:              f.Center[0],
		FormattedAddress: f.PlaceName,
		Confidence:       f.Relevance,
		Provider:         ProviderMapbox,
	}, nil
}
