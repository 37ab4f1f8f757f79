// Copyright 2025 The Rota Fácil Authors
// SPDX-License-Identifier: Apache-2.0

package cmd

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/clenio77/rota-facil/geocoding"
	"github.com/clenio77/rota-facil/manifest"
	"github.com/clenio77/rota-facil/server"
	"github.com/clenio77/rota-facil/utils/textutils"
	_ "github.com/duckdb/duckdb-go/v2" // register duckdb driver
	"github.com/mattn/go-isatty"
	"github.com/rs/zerolog/log"
)

const (
	formatJSON = "json"
	formatTSV  = "tsv"
)

var errFormat = errors.New("unknown output format; use json or tsv")

// openRepository opens the DuckDB file of the configuration, creating the
// directory and the schema when needed.
func openRepository() (manifest.Repository, func() error, error) {
	if dir := filepath.Dir(cfg.DBPath); dir != "." {
		if err := os.MkdirAll(dir, 0o750); err != nil {
			return nil, nil, fmt.Errorf("creating db directory: %w", err)
		}
	}

	db, err := sql.Open("duckdb", cfg.DBPath)
	if err != nil {
		return nil, nil, fmt.Errorf("opening database: %w", err)
	}

	repo := manifest.NewSQLRepository(db)
	if err := repo.CreateSchema(); err != nil {
		_ = db.Close()

		return nil, nil, fmt.Errorf("creating schema: %w", err)
	}

	return repo, db.Close, nil
}

// newEnricher builds the geocoding chain and its cache.
func newEnricher(ctx context.Context) (*geocoding.Enricher, func() error, error) {
	g, err := cfg.NewGeocoder(ctx, traceWriter())
	if err != nil {
		return nil, nil, err
	}

	cache, closeCache, err := cfg.NewCache(ctx)
	if err != nil {
		return nil, nil, err
	}

	return cfg.NewEnricher(g, cache, true), closeCache, nil
}

// locationFor is the location of a manifest: the --city flag wins, then the
// manifest header; nil lets the enricher use the configured fallback.
func locationFor(h manifest.Header) *geocoding.Location {
	if rootOptions.City != "" {
		return &cfg.Location
	}

	return geocoding.HeaderLocation(h)
}

// readInput reads a text file, or stdin when no file is given, decoding its
// charset.
func readInput(stdin io.Reader, args []string) (string, error) {
	r := stdin

	if len(args) > 0 && args[0] != "-" {
		f, err := os.Open(args[0])
		if err != nil {
			return "", fmt.Errorf("opening input: %w", err)
		}
		defer f.Close()

		r = f
	} else if f, ok := stdin.(*os.File); ok && isatty.IsTerminal(f.Fd()) {
		fmt.Fprintln(os.Stderr, "Lendo da entrada padrão. Cole o texto da lista e tecle Ctrl+D.")
	}

	text, err := textutils.ReadText(r, "")
	if errors.Is(err, textutils.ErrCharsetMismatch) {
		log.Warn().Err(err).Msg("input has undecodable characters")

		return text, nil
	}

	return text, err
}

type pipelineOptions struct {
	Geocode bool
	Save    bool
	Scanned []string
	Format  string
}

// runPipeline parses text and optionally geocodes and stores the result.
func runPipeline(ctx context.Context, w io.Writer, opts *pipelineOptions, text string, info *server.OCRInfo) error {
	if opts.Format != formatJSON && opts.Format != formatTSV {
		return errFormat
	}

	m, metrics := cfg.NewParser().ParseWithMetrics(text, opts.Scanned)
	if !m.Recognized() {
		return manifest.ErrUnrecognizedManifest
	}

	resp := &server.ManifestResponse{Manifest: m, Metrics: metrics, OCR: info}

	if opts.Geocode {
		enricher, closeCache, err := newEnricher(ctx)
		if err != nil {
			return err
		}
		defer closeCache()

		if resp.Geocoding, err = enricher.Enrich(ctx, m.Items, locationFor(m.Header)); err != nil {
			return err
		}
	}

	if opts.Save {
		repo, closeDB, err := openRepository()
		if err != nil {
			return err
		}
		defer closeDB()

		id, err := repo.SaveManifest(m)
		if err != nil {
			return err
		}

		log.Info().Str("id", id).Int("items", len(m.Items)).Msg("manifest saved")
	}

	if flagged := m.Flagged(); len(flagged) > 0 {
		log.Warn().Int("flagged", len(flagged)).Msg("some items need a manual review")
	}

	return printManifest(w, opts.Format, resp)
}

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")

	return enc.Encode(v)
}

func flagsString(flags []manifest.Flag) string {
	s := make([]string, len(flags))
	for i, f := range flags {
		s[i] = string(f)
	}

	return strings.Join(s, ",")
}

// printItemsTSV prints one item per line: sequence, object code, CEP,
// address, coordinates or geocoding error, and flags.
func printItemsTSV(w io.Writer, items []*manifest.DeliveryItem) error {
	for _, item := range items {
		where := item.GeocodingError
		if item.Coordinates != nil {
			where = fmt.Sprintf("%.6f,%.6f", item.Coordinates.Lat, item.Coordinates.Lng)
		}

		if _, err := fmt.Fprintf(w, "%d\t%s\t%s\t%s\t%s\t%s\n",
			item.Sequence, item.ObjectCode, item.CEP, item.Address(), where, flagsString(item.Flags),
		); err != nil {
			return err
		}
	}

	return nil
}

func printManifest(w io.Writer, format string, resp *server.ManifestResponse) error {
	switch format {
	case formatJSON:
		return printJSON(w, resp)
	case formatTSV:
		return printItemsTSV(w, resp.Manifest.Items)
	}

	return errFormat
}
