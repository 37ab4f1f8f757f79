// Copyright 2025 The Rota Fácil Authors
// SPDX-License-Identifier: Apache-2.0

package route

import (
	"context"
	"errors"

	"github.com/clenio77/rota-facil/manifest"
	"github.com/clenio77/rota-facil/spatial"
	"github.com/rs/zerolog/log"
)

var (
	errTripStart = errors.New("osrm trip does not start at the start point")
	errTripOrder = errors.New("osrm trip order is not a permutation of the stops")
)

// Plan is the visiting order of the stops of a manifest.
type Plan struct {
	Stops      []*Stop                  `json:"stops"`
	Unlocated  []*manifest.DeliveryItem `json:"unlocated,omitempty"`
	Distance   float64                  `json:"distance"`           // meters
	Duration   float64                  `json:"duration,omitempty"` // seconds, only with road directions
	Geometry   string                   `json:"geometry,omitempty"`
	RoadRouted bool                     `json:"road_routed"`
}

// Planner builds plans.
type Planner struct {
	Resolution    int         // H3 resolution of a stop, spatial.DefaultCellResolution when zero
	MergeDistance float64     // meters; stops closer than this are merged
	OSRM          *OSRMClient // optional road directions
}

// Plan groups the items into stops and orders them from start. When an OSRM
// client is set, the road trip service reorders the stops and replaces the
// straight-line distance; if the trip fails, the nearest-neighbour order is
// kept with road directions, and if those fail too the straight-line plan is
// returned.
func (p *Planner) Plan(ctx context.Context, start *spatial.Point, items []*manifest.DeliveryItem) *Plan {
	res := p.Resolution
	if res == 0 {
		res = spatial.DefaultCellResolution
	}

	stops, unlocated := GroupStops(items, res)
	if p.MergeDistance > 0 {
		stops = ClusterStops(stops, p.MergeDistance)
	}

	ordered, distance := Optimize(start, stops)
	plan := &Plan{Stops: ordered, Unlocated: unlocated, Distance: distance}

	if p.OSRM == nil || len(ordered) == 0 {
		return plan
	}

	offset := 0

	points := make([]spatial.Point, 0, len(ordered)+1)
	if start != nil {
		points = append(points, *start)
		offset = 1
	}

	for _, s := range ordered {
		points = append(points, s.Point)
	}

	if len(points) < 2 {
		return plan
	}

	trip, d, err := p.roadTrip(ctx, points, ordered, offset)
	if err == nil {
		plan.Stops = trip
		plan.setDirections(d)

		return plan
	}

	log.Debug().Err(err).Msg("road trip unavailable, keeping nearest-neighbour order")

	d, err = p.OSRM.Route(ctx, points)
	if err != nil {
		log.Warn().Err(err).Msg("road directions unavailable, keeping straight-line route")

		return plan
	}

	plan.setDirections(d)

	return plan
}

// roadTrip reorders stops by the OSRM trip over points, where the stops start
// at points[offset].
func (p *Planner) roadTrip(ctx context.Context, points []spatial.Point, stops []*Stop, offset int) ([]*Stop, *Directions, error) {
	order, d, err := p.OSRM.Trip(ctx, points)
	if err != nil {
		return nil, nil, err
	}

	if offset == 1 && order[0] != 0 {
		return nil, nil, errTripStart
	}

	ret := make([]*Stop, len(stops))

	for i, s := range stops {
		pos := order[i+offset] - offset
		if pos < 0 || pos >= len(ret) || ret[pos] != nil {
			return nil, nil, errTripOrder
		}

		ret[pos] = s
	}

	return ret, d, nil
}

func (plan *Plan) setDirections(d *Directions) {
	plan.Distance = d.Distance
	plan.Duration = d.Duration
	plan.Geometry = d.Geometry
	plan.RoadRouted = true
}
