// Copyright 2025 The Rota Fácil Authors
// SPDX-License-Identifier: Apache-2.0

// Package geocoding builds geocoder queries for delivery items and resolves
// them through a chain of providers.
package geocoding

import (
	"context"
	"errors"
	"sync"

	"github.com/clenio77/rota-facil/spatial"
	"github.com/rs/zerolog/log"
)

// Provider names.
const (
	ProviderGoogle    = "google_maps"
	ProviderNominatim = "nominatim"
	ProviderPhoton    = "photon"
	ProviderMapbox    = "mapbox"
)

// Result is a geocoding result from any provider.
type Result struct {
	Lat              float64 `json:"lat"`
	Lng              float64 `json:"lng"`
	FormattedAddress string  `json:"formatted_address"`
	Confidence       float64 `json:"confidence"` // 0 to 1
	Provider         string  `json:"provider"`
}

// Point returns the coordinates of r.
func (r *Result) Point() spatial.Point {
	return spatial.Point{Lat: r.Lat, Lng: r.Lng}
}

// Geocoder resolves a free-text query to coordinates.
type Geocoder interface {
	Geocode(ctx context.Context, query string) (*Result, error)
}

// Chain tries its geocoders in order and returns the first valid result.
// A result below MinConfidence is kept as a candidate while the next
// geocoders are tried; the most confident candidate wins when none passes.
//
// Not-found, rate-limit, timeout, network and out-of-bounds errors fall
// through to the next geocoder. An invalid request stops the chain, since the
// query itself is at fault. A geocoder that reports an exceeded quota is
// skipped for the rest of the chain's life.
type Chain struct {
	Geocoders     []Geocoder
	MinConfidence float64

	mu        sync.Mutex
	exhausted map[Geocoder]bool
}

// NewChain returns a chain over geocoders without a confidence threshold.
func NewChain(geocoders ...Geocoder) *Chain {
	return &Chain{Geocoders: geocoders}
}

func (c *Chain) isExhausted(g Geocoder) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	return c.exhausted[g]
}

func (c *Chain) exhaust(g Geocoder) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.exhausted == nil {
		c.exhausted = make(map[Geocoder]bool)
	}

	c.exhausted[g] = true
}

// Geocode implements Geocoder.
func (c *Chain) Geocode(ctx context.Context, query string) (*Result, error) {
	var (
		best *Result
		errs []error
	)

	for _, g := range c.Geocoders {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		if c.isExhausted(g) {
			continue
		}

		r, err := g.Geocode(ctx, query)
		if err == nil {
			err = validateResult(r)
		}

		if err != nil {
			switch {
			case errors.Is(err, context.Canceled):
				return nil, err
			case errorType(err) == ErrorTypeInvalidRequest:
				return nil, err
			case IsQuotaExceededError(err):
				log.Warn().Err(err).Msg("geocoder quota exceeded, disabling it")
				c.exhaust(g)
			default:
				log.Debug().Err(err).Str("query", query).Msg("geocoder failed, trying next")
			}

			errs = append(errs, err)

			continue
		}

		if r.Confidence >= c.MinConfidence {
			return r, nil
		}

		if best == nil || r.Confidence > best.Confidence {
			best = r
		}
	}

	if best != nil {
		return best, nil
	}

	if len(errs) == 0 && len(c.Geocoders) > 0 {
		return nil, &GeocodingError{Type: ErrorTypeQuotaExceeded, Message: "cota excedida em todos os geocodificadores"}
	}

	return nil, chainError(query, errs)
}

// chainError keeps the type of the error when every geocoder agrees on it.
func chainError(query string, errs []error) error {
	if len(errs) == 0 {
		return &GeocodingError{Type: ErrorTypeInvalidRequest, Message: "nenhum geocodificador configurado"}
	}

	kind := errorType(errs[0])
	for _, err := range errs[1:] {
		if errorType(err) != kind {
			kind = ErrorTypeUnknown

			break
		}
	}

	if kind == ErrorTypeNotFound {
		return &GeocodingError{Type: kind, Message: "endereço não encontrado: " + query, Err: errors.Join(errs...)}
	}

	return &GeocodingError{Type: kind, Message: "todos os geocodificadores falharam", Err: errors.Join(errs...)}
}
