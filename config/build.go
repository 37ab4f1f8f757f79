// Copyright 2025 The Rota Fácil Authors
// SPDX-License-Identifier: Apache-2.0

package config

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/clenio77/rota-facil/geocoding"
	"github.com/clenio77/rota-facil/manifest"
	"github.com/clenio77/rota-facil/ocr"
	"github.com/clenio77/rota-facil/route"
	"github.com/clenio77/rota-facil/utils/gcputils"
	"github.com/rs/zerolog/log"
)

var (
	ErrNoGeocoder    = errors.New("no geocoding provider available")
	ErrNoOCRProvider = errors.New("no OCR provider available")
)

// keyFromADC is replaced in tests.
var keyFromADC = gcputils.APIKeyFromADC

// googleAPIKey returns the configured key or the one found via ADC.
func (c *Config) googleAPIKey(ctx context.Context) (string, error) {
	if c.Geocoding.GoogleAPIKey != "" {
		return c.Geocoding.GoogleAPIKey, nil
	}

	name := c.Geocoding.KeyDisplayName
	if name == "" {
		name = gcputils.DefaultKeyDisplayName
	}

	log.Info().Msg("GOOGLE_MAPS_API_KEY is not set, trying Application Default Credentials")

	return keyFromADC(ctx, name)
}

// NewParser builds the manifest parser.
func (c *Config) NewParser() *manifest.Parser {
	return manifest.NewParser(c.Parser)
}

// NewGeocoder builds the provider chain in the configured order. Providers
// without credentials are skipped with a warning.
func (c *Config) NewGeocoder(ctx context.Context, trace io.Writer) (*geocoding.Chain, error) {
	opts := geocoding.ClientOptions{Timeout: c.Geocoding.Timeout, Trace: trace}
	chain := &geocoding.Chain{MinConfidence: c.Geocoding.MinConfidence}

	for _, name := range c.Geocoding.Providers {
		switch name {
		case geocoding.ProviderGoogle:
			key, err := c.googleAPIKey(ctx)
			if err != nil {
				log.Warn().Err(err).Msg("skipping Google Maps geocoder")

				continue
			}

			chain.Geocoders = append(chain.Geocoders, geocoding.NewGoogleMapsGeocoder(key, opts))
		case geocoding.ProviderMapbox:
			if c.Geocoding.MapboxToken == "" {
				log.Warn().Msg("MAPBOX_TOKEN is not set, skipping Mapbox geocoder")

				continue
			}

			chain.Geocoders = append(chain.Geocoders, geocoding.NewMapboxGeocoder(c.Geocoding.MapboxToken, opts))
		case geocoding.ProviderNominatim:
			g := geocoding.NewNominatimGeocoder(opts)
			g.Email = c.Geocoding.NominatimEmail

			if c.Geocoding.NominatimURL != "" {
				g.BaseURL = c.Geocoding.NominatimURL
			}

			chain.Geocoders = append(chain.Geocoders, g)
		case geocoding.ProviderPhoton:
			g := geocoding.NewPhotonGeocoder(opts)
			if c.Geocoding.PhotonURL != "" {
				g.BaseURL = c.Geocoding.PhotonURL
			}

			chain.Geocoders = append(chain.Geocoders, g)
		default:
			return nil, fmt.Errorf("unknown geocoding provider %q", name)
		}
	}

	if len(chain.Geocoders) == 0 {
		return nil, ErrNoGeocoder
	}

	return chain, nil
}

// NewCache returns a Redis cache when an address is configured, a memory
// cache otherwise. The returned function releases the cache.
func (c *Config) NewCache(ctx context.Context) (geocoding.Cache, func() error, error) {
	if c.Geocoding.Redis.Addr == "" {
		return geocoding.NewMemoryCache(), func() error { return nil }, nil
	}

	cache, err := geocoding.NewRedisCache(ctx, c.Geocoding.Redis)
	if err != nil {
		return nil, nil, err
	}

	return cache, cache.Close, nil
}

// NewEnricher builds the batch geocoder.
func (c *Config) NewEnricher(g geocoding.Geocoder, cache geocoding.Cache, progress bool) *geocoding.Enricher {
	return &geocoding.Enricher{
		Geocoder:   g,
		Cache:      cache,
		Fallback:   c.Location,
		MaxProcs:   c.Geocoding.MaxProcs,
		Retries:    c.Geocoding.Retries,
		RetryDelay: c.Geocoding.RetryDelay,
		Progress:   progress,
	}
}

type closer interface {
	Close() error
}

// NewOCR builds the OCR fallback in the configured order. Providers that
// cannot be created are skipped. The returned function releases them.
func (c *Config) NewOCR(ctx context.Context, trace io.Writer) (*ocr.Fallback, func() error, error) {
	fb := &ocr.Fallback{}

	var closers []closer

	for _, name := range c.OCR.Providers {
		switch name {
		case ocr.ProviderOCRSpace:
			if c.OCR.OCRSpaceKey == "" {
				log.Warn().Msg("OCR_SPACE_API_KEY is not set, skipping OCR.space")

				continue
			}

			fb.Providers = append(fb.Providers, ocr.NewOCRSpace(c.OCR.OCRSpaceKey, trace))
		case ocr.ProviderVision:
			v, err := ocr.NewVision(ctx, c.OCR.VisionAPIKey)
			if err != nil {
				log.Warn().Err(err).Msg("skipping Cloud Vision")

				continue
			}

			fb.Providers = append(fb.Providers, v)
		case ocr.ProviderTesseract:
			t, err := ocr.NewTesseract(c.OCR.Languages...)
			if err != nil {
				log.Debug().Err(err).Msg("skipping Tesseract")

				continue
			}

			fb.Providers = append(fb.Providers, t)
			closers = append(closers, t)
		default:
			return nil, nil, fmt.Errorf("unknown OCR provider %q", name)
		}
	}

	closeAll := func() error {
		var errs []error
		for _, c := range closers {
			errs = append(errs, c.Close())
		}

		return errors.Join(errs...)
	}

	if len(fb.Providers) == 0 {
		_ = closeAll()

		return nil, nil, ErrNoOCRProvider
	}

	return fb, closeAll, nil
}

// NewPlanner builds the route planner; road directions need an OSRM URL.
func (c *Config) NewPlanner(trace io.Writer) *route.Planner {
	p := &route.Planner{
		Resolution:    c.Routing.Resolution,
		MergeDistance: c.Routing.MergeDistance,
	}

	if c.Routing.OSRMURL != "" {
		p.OSRM = route.NewOSRMClient(c.Routing.OSRMURL, trace)
	}

	return p
}
