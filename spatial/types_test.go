// Copyright 2025 The Rota Fácil Authors
// SPDX-License-Identifier: Apache-2.0

package spatial

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	uberlandia = Point{Lat: -18.9186, Lng: -48.2772}
	uberaba    = Point{Lat: -19.7472, Lng: -47.9381}
)

func TestHaversineDistance(t *testing.T) {
	d := uberlandia.HaversineDistance(uberaba)
	// about 98 km in a straight line
	if d < 95e3 || d > 101e3 {
		t.Errorf("unexpected distance %f", d)
	}

	assert.InDelta(t, d, uberaba.HaversineDistance(uberlandia), 1e-6)
	assert.Zero(t, uberlandia.HaversineDistance(uberlandia))
}

func TestCell(t *testing.T) {
	cell := uberlandia.Cell(DefaultCellResolution)
	require.NotZero(t, cell)

	near := Point{Lat: uberlandia.Lat + 0.00001, Lng: uberlandia.Lng}
	assert.Equal(t, cell, near.Cell(DefaultCellResolution))
	assert.NotEqual(t, cell, uberaba.Cell(DefaultCellResolution))

	center, err := CellCenter(cell)
	require.NoError(t, err)
	assert.Less(t, center.HaversineDistance(uberlandia), 100.0)

	assert.Zero(t, uberlandia.Cell(42))
	assert.False(t, math.IsNaN(center.Lat))
}

func TestBrazilBounds(t *testing.T) {
	tests := []struct {
		name     string
		p        Point
		expected bool
	}{
		{"uberlandia", uberlandia, true},
		{"fernando de noronha", Point{Lat: -3.85, Lng: -32.42}, true},
		{"montevideo", Point{Lat: -34.90, Lng: -56.16}, false},
		{"null island", Point{}, false},
		{"lisboa", Point{Lat: 38.72, Lng: -9.14}, false},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			assert.Equal(t, test.expected, BrazilBounds.Contains(test.p))
		})
	}
}
