// Copyright 2025 The Rota Fácil Authors
// SPDX-License-Identifier: Apache-2.0

// Package spatial holds the geographic primitives shared by geocoding and
// routing.
package spatial

import (
	"fmt"
	"math"

	"github.com/uber/h3-go/v4"
)

const earthRadius = 6371e3 // meters

// DefaultCellResolution is the H3 resolution used to group stops; a
// resolution 10 cell is about 65 meters wide, roughly one building block.
const DefaultCellResolution = 10

// Point is a WGS84 coordinate.
type Point struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

// String returns the WKT form of the point.
func (p Point) String() string {
	return fmt.Sprintf("POINT(%f %f)", p.Lng, p.Lat)
}

// HaversineDistance returns the great circle distance to other, in meters.
func (p Point) HaversineDistance(other Point) float64 {
	lat1 := p.Lat * math.Pi / 180
	lat2 := other.Lat * math.Pi / 180
	dLat := (other.Lat - p.Lat) * math.Pi / 180
	dLng := (other.Lng - p.Lng) * math.Pi / 180

	a := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(lat1)*math.Cos(lat2)*
			math.Sin(dLng/2)*math.Sin(dLng/2)
	c := 2 * math.Atan2(math.Sqrt(a), math.Sqrt(1-a))

	return earthRadius * c
}

// Cell returns the H3 cell of p at resolution res, or 0 when p or res are
// out of range.
func (p Point) Cell(res int) uint64 {
	cell, err := h3.LatLngToCell(h3.NewLatLng(p.Lat, p.Lng), res)
	if err != nil {
		return 0
	}

	return uint64(cell)
}

// CellCenter returns the center of an H3 cell.
func CellCenter(cell uint64) (Point, error) {
	ll, err := h3.Cell(cell).LatLng()
	if err != nil {
		return Point{}, fmt.Errorf("cell %x: %w", cell, err)
	}

	return Point{Lat: ll.Lat, Lng: ll.Lng}, nil
}

// Bounds is a latitude/longitude box.
type Bounds struct {
	MinLat, MaxLat float64
	MinLng, MaxLng float64
}

// BrazilBounds covers the Brazilian territory including its oceanic islands.
var BrazilBounds = Bounds{MinLat: -33.8, MaxLat: 5.3, MinLng: -74.0, MaxLng: -28.8}

// Contains reports whether p lies inside b.
func (b Bounds) Contains(p Point) bool {
	return p.Lat >= b.MinLat && p.Lat <= b.MaxLat && p.Lng >= b.MinLng && p.Lng <= b.MaxLng
}
