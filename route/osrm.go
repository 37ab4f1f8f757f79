// Copyright 2025 The Rota Fácil Authors
// SPDX-License-Identifier: Apache-2.0

package route

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/clenio77/rota-facil/spatial"
	"github.com/clenio77/rota-facil/utils/httputils"
)

// ErrTooFewPoints is returned for routes with less than two points.
var ErrTooFewPoints = errors.New("a route needs at least two points")

// OSRMClient queries an OSRM routing server.
type OSRMClient struct {
	BaseURL    string
	Profile    string
	httpClient *http.Client
}

// NewOSRMClient creates a client for baseURL; the public demo server is used
// when it is empty.
func NewOSRMClient(baseURL string, trace io.Writer) *OSRMClient {
	if baseURL == "" {
		baseURL = "https://router.project-osrm.org"
	}

	return &OSRMClient{
		BaseURL: strings.TrimRight(baseURL, "/"),
		Profile: "driving",
		httpClient: httputils.NewClient(httputils.ClientOptions{
			Timeout:   30 * time.Second,
			UserAgent: "rota-facil/1.0",
			Trace:     trace,
		}),
	}
}

// Leg is the path between two consecutive points.
type Leg struct {
	Distance float64 `json:"distance"` // meters
	Duration float64 `json:"duration"` // seconds
}

// Directions is a road route through the given points.
type Directions struct {
	Distance float64 `json:"distance"` // meters
	Duration float64 `json:"duration"` // seconds
	Geometry string  `json:"geometry"` // encoded polyline
	Legs     []Leg   `json:"legs"`
}

type osrmRoute struct {
	Distance float64 `json:"distance"`
	Duration float64 `json:"duration"`
	Geometry string  `json:"geometry"`
	Legs     []Leg   `json:"legs"`
}

type osrmResponse struct {
	Code      string      `json:"code"`
	Message   string      `json:"message"`
	Routes    []osrmRoute `json:"routes"`
	Trips     []osrmRoute `json:"trips"`
	Waypoints []struct {
		WaypointIndex int `json:"waypoint_index"`
	} `json:"waypoints"`
}

func coordinates(points []spatial.Point) string {
	parts := make([]string, len(points))
	for i, p := range points {
		parts[i] = strconv.FormatFloat(p.Lng, 'f', 6, 64) + "," + strconv.FormatFloat(p.Lat, 'f', 6, 64)
	}

	return strings.Join(parts, ";")
}

func (c *OSRMClient) get(ctx context.Context, service string, points []spatial.Point, params url.Values) (*osrmResponse, error) {
	if len(points) < 2 {
		return nil, ErrTooFewPoints
	}

	reqURL := fmt.Sprintf("%s/%s/v1/%s/%s?%s", c.BaseURL, service, c.Profile, coordinates(points), params.Encode())

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("osrm request failed: %w", err)
	}

	defer resp.Body.Close()

	var parsed osrmResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return nil, fmt.Errorf("decoding osrm response (status %d): %w", resp.StatusCode, err)
	}

	if parsed.Code != "Ok" {
		return nil, fmt.Errorf("osrm %s: %s", parsed.Code, parsed.Message)
	}

	return &parsed, nil
}

// Route returns the road route visiting points in the given order.
func (c *OSRMClient) Route(ctx context.Context, points []spatial.Point) (*Directions, error) {
	params := url.Values{}
	params.Set("overview", "full")
	params.Set("geometries", "polyline")

	resp, err := c.get(ctx, "route", points, params)
	if err != nil {
		return nil, err
	}

	if len(resp.Routes) == 0 {
		return nil, errors.New("osrm returned no route")
	}

	r := resp.Routes[0]

	return &Directions{Distance: r.Distance, Duration: r.Duration, Geometry: r.Geometry, Legs: r.Legs}, nil
}

// Trip asks OSRM for the fastest open trip from the first point and returns
// the visiting position of every point together with the route.
func (c *OSRMClient) Trip(ctx context.Context, points []spatial.Point) ([]int, *Directions, error) {
	params := url.Values{}
	params.Set("source", "first")
	params.Set("roundtrip", "false")
	params.Set("destination", "any")
	params.Set("overview", "full")
	params.Set("geometries", "polyline")

	resp, err := c.get(ctx, "trip", points, params)
	if err != nil {
		return nil, nil, err
	}

	if len(resp.Trips) == 0 || len(resp.Waypoints) != len(points) {
		return nil, nil, errors.New("osrm returned no trip")
	}

	order := make([]int, len(points))
	for i, w := range resp.Waypoints {
		order[i] = w.WaypointIndex
	}

	r := resp.Trips[0]

	return order, &Directions{Distance: r.Distance, Duration: r.Duration, Geometry: r.Geometry, Legs: r.Legs}, nil
}
