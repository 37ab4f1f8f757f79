// Copyright 2025 The Rota Fácil Authors
// SPDX-License-Identifier: Apache-2.0

package geocoding

import (
	"context"
	"errors"
	"os"
	"sync"
	"time"

	"github.com/clenio77/rota-facil/manifest"
	"github.com/mattn/go-isatty"
	"github.com/rs/zerolog/log"
	"github.com/schollz/progressbar/v3"
	"golang.org/x/sync/errgroup"
)

var errNoAddress = &GeocodingError{Type: ErrorTypeInvalidRequest, Message: "item sem endereço"}

// EnrichMetrics counts the outcome of one Enrich call.
type EnrichMetrics struct {
	Items    int `json:"items"`
	Geocoded int `json:"geocoded"`
	Cached   int `json:"cached"`
	Failed   int `json:"failed"`
}

// Enricher geocodes the items of a manifest.
type Enricher struct {
	Geocoder Geocoder
	Cache    Cache    // optional
	Fallback Location // used when the request has no valid location
	MaxProcs int      // concurrent requests, 4 when zero
	Progress bool     // show a progress bar when stderr is a terminal

	// Retries of a query that hit a rate limit or a timeout, waiting
	// RetryDelay (1s when zero) before the first one and doubling it after.
	Retries    int
	RetryDelay time.Duration
}

// Enrich sets exactly one of Coordinates or GeocodingError on every item.
// A failure on one item never stops the others; the returned error is only
// the context error.
func (e *Enricher) Enrich(ctx context.Context, items []*manifest.DeliveryItem, loc *Location) (*EnrichMetrics, error) {
	maxProcs := e.MaxProcs
	if maxProcs == 0 {
		maxProcs = 4
	}

	var bar *progressbar.ProgressBar
	if e.Progress && isatty.IsTerminal(os.Stderr.Fd()) {
		bar = progressbar.NewOptions(len(items),
			progressbar.OptionSetDescription("Geocodificando"),
			progressbar.OptionSetWriter(os.Stderr),
			progressbar.OptionShowCount(),
			progressbar.OptionClearOnFinish(),
		)
	}

	var (
		mu      sync.Mutex
		metrics = &EnrichMetrics{Items: len(items)}
	)

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(maxProcs)

	for _, item := range items {
		g.Go(func() error {
			cached, err := e.enrichItem(gctx, item, loc)

			mu.Lock()

			switch {
			case err != nil:
				metrics.Failed++
			case cached:
				metrics.Cached++
				metrics.Geocoded++
			default:
				metrics.Geocoded++
			}

			mu.Unlock()

			if bar != nil {
				_ = bar.Add(1)
			}

			return gctx.Err()
		})
	}

	err := g.Wait()

	log.Info().
		Int("items", metrics.Items).
		Int("geocoded", metrics.Geocoded).
		Int("cached", metrics.Cached).
		Int("failed", metrics.Failed).
		Msg("Geocoding complete")

	return metrics, err
}

// enrichItem geocodes one item and reports whether the result came from the
// cache.
func (e *Enricher) enrichItem(ctx context.Context, item *manifest.DeliveryItem, loc *Location) (bool, error) {
	if !item.HasAddress() && item.NormalizedAddress == "" {
		item.SetGeocodingError(errNoAddress)

		return false, errNoAddress
	}

	query := BuildQuery(item, loc, e.Fallback)
	key := CacheKey(query)

	if e.Cache != nil {
		r, err := e.Cache.Get(ctx, key)
		if err == nil {
			item.SetCoordinates(r.Point())

			return true, nil
		}

		if !errors.Is(err, ErrCacheMiss) {
			log.Warn().Err(err).Msg("geocoding cache unavailable")
		}
	}

	r, err := e.geocode(ctx, query)
	if err == nil {
		err = validateResult(r)
	}

	if err != nil {
		ev := log.Warn()
		if IsNotFoundError(err) {
			ev = log.Debug()
		}

		ev.Err(err).Int("sequence", item.Sequence).Str("query", query).Msg("geocoding failed")
		item.SetGeocodingError(err)

		return false, err
	}

	item.SetCoordinates(r.Point())

	if e.Cache != nil {
		if err := e.Cache.Set(ctx, key, r); err != nil {
			log.Warn().Err(err).Msg("caching geocoding result")
		}
	}

	return false, nil
}

// geocode retries rate-limited and timed out queries.
func (e *Enricher) geocode(ctx context.Context, query string) (*Result, error) {
	delay := e.RetryDelay
	if delay == 0 {
		delay = time.Second
	}

	for attempt := 0; ; attempt++ {
		r, err := e.Geocoder.Geocode(ctx, query)
		if err == nil || attempt >= e.Retries || !(IsRateLimitError(err) || IsTimeoutError(err)) {
			return r, err
		}

		log.Debug().Err(err).Int("attempt", attempt+1).Dur("delay", delay).Msg("retrying geocoding")

		t := time.NewTimer(delay)
		select {
		case <-ctx.Done():
			t.Stop()

			return nil, ctx.Err()
		case <-t.C:
		}

		delay *= 2
	}
}
