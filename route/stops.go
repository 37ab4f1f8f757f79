// Copyright 2025 The Rota Fácil Authors
// SPDX-License-Identifier: Apache-2.0

// Package route orders the geocoded delivery items of a manifest into a
// driving route.
package route

import (
	"github.com/clenio77/rota-facil/manifest"
	"github.com/clenio77/rota-facil/spatial"
)

// Stop is a place where the courier parks and delivers one or more items.
type Stop struct {
	Point spatial.Point            `json:"point"`
	Cell  uint64                   `json:"h3_cell,string"`
	Items []*manifest.DeliveryItem `json:"items"`
}

// Sequence is the lowest manifest sequence among the items of s.
func (s *Stop) Sequence() int {
	seq := 0
	for _, item := range s.Items {
		if seq == 0 || item.Sequence < seq {
			seq = item.Sequence
		}
	}

	return seq
}

// centroid moves the stop to the mean position of its items.
func (s *Stop) centroid() {
	var lat, lng float64

	for _, item := range s.Items {
		lat += item.Coordinates.Lat
		lng += item.Coordinates.Lng
	}

	n := float64(len(s.Items))
	s.Point = spatial.Point{Lat: lat / n, Lng: lng / n}
}

// GroupStops merges the geocoded items falling in the same H3 cell at
// resolution res into one stop, in first-seen order. Items without
// coordinates are returned apart.
func GroupStops(items []*manifest.DeliveryItem, res int) (stops []*Stop, unlocated []*manifest.DeliveryItem) {
	byCell := map[uint64]*Stop{}

	for _, item := range items {
		if item.Coordinates == nil {
			unlocated = append(unlocated, item)

			continue
		}

		cell := item.Coordinates.Cell(res)

		s, ok := byCell[cell]
		if !ok || cell == 0 {
			s = &Stop{Cell: cell}
			stops = append(stops, s)

			if cell != 0 {
				byCell[cell] = s
			}
		}

		s.Items = append(s.Items, item)
	}

	for _, s := range stops {
		s.centroid()
	}

	return stops, unlocated
}

// ClusterStops merges stops closer than distanceThreshold meters, which
// GroupStops keeps apart when they straddle a cell border.
func ClusterStops(stops []*Stop, distanceThreshold float64) []*Stop {
	clusters := make([]*Stop, 0, len(stops))

	visited := make([]bool, len(stops))

	for i, s1 := range stops {
		if visited[i] {
			continue
		}

		cluster := []*Stop{s1}
		visited[i] = true

		for j, s2 := range stops {
			if visited[j] {
				continue
			}

			// Check distance against all members of the current cluster
			for _, member := range cluster {
				if s2.Point.HaversineDistance(member.Point) <= distanceThreshold {
					cluster = append(cluster, s2)
					visited[j] = true

					break
				}
			}
		}

		merged := &Stop{Cell: s1.Cell}
		for _, s := range cluster {
			merged.Items = append(merged.Items, s.Items...)
		}

		merged.centroid()
		clusters = append(clusters, merged)
	}

	return clusters
}
