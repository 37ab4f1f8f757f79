// Copyright 2025 The Rota Fácil Authors
// SPDX-License-Identifier: Apache-2.0

package geocoding

import (
	"context"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/clenio77/rota-facil/spatial"
)

// PhotonGeocoder uses the komoot Photon API, an OpenStreetMap geocoder
// tolerant to typos.
type PhotonGeocoder struct {
	BaseURL    string
	httpClient *http.Client
}

// NewPhotonGeocoder creates a Photon geocoder; a zero RequestsPerSecond
// becomes 1.
func NewPhotonGeocoder(opts ClientOptions) *PhotonGeocoder {
	if opts.RequestsPerSecond == 0 {
		opts.RequestsPerSecond = 1
	}

	return &PhotonGeocoder{
		BaseURL:    "https://photon.komoot.io/api",
		httpClient: newHTTPClient(opts),
	}
}

type photonResponse struct {
	Features []struct {
		Geometry struct {
			Coordinates []float64 `json:"coordinates"` // lng, lat
		} `json:"geometry"`
		Properties struct {
			Name        string `json:"name"`
			Street      string `json:"street"`
			HouseNumber string `json:"housenumber"`
			District    string `json:"district"`
			City        string `json:"city"`
			State       string `json:"state"`
			Postcode    string `json:"postcode"`
			CountryCode string `json:"countrycode"`
		} `json:"properties"`
	} `json:"features"`
}

// Geocode implements Geocoder.
func (g *PhotonGeocoder) Geocode(ctx context.Context, query string) (*Result, error) {
	query, err := sanitizeQuery(query)
	if err != nil {
		return nil, err
	}

	b := spatial.BrazilBounds

	params := url.Values{}
	params.Set("q", query)
	params.Set("limit", "5")
	params.Set("bbox", strings.Join([]string{
		ftoa(b.MinLng), ftoa(b.MinLat), ftoa(b.MaxLng), ftoa(b.MaxLat),
	}, ","))

	var resp photonResponse
	if err := getJSON(ctx, g.httpClient, ProviderPhoton, g.BaseURL+"?"+params.Encode(), &resp); err != nil {
		return nil, err
	}

	for _, f := range resp.Features {
		p := f.Properties
		if !strings.EqualFold(p.CountryCode, "BR") || len(f.Geometry.Coordinates) < 2 {
			continue
		}

		street := p.Street
		if street == "" {
			street = p.Name
		}

		if p.HouseNumber != "" {
			street += ", " + p.HouseNumber
		}

		formatted := joinNonEmpty(street, p.District, p.City, p.State, p.Postcode)

		return &Result{
			Lat:              f.Geometry.Coordinates[1],
			Lng:              f.Geometry.Coordinates[0],
			FormattedAddress: formatted,
			Confidence:       matchScore(query, formatted),
			Provider:         ProviderPhoton,
		}, nil
	}

	return nil, notFound(ProviderPhoton, query)
}

func ftoa(f float64) string {
	return strconv.FormatFloat(f, 'f', -1, 64)
}

func joinNonEmpty(parts ...string) string {
	var ret []string

	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			ret = append(ret, p)
		}
	}

	return strings.Join(ret, ", ")
}
