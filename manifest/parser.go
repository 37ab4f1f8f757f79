// Copyright 2025 The Rota Fácil Authors
// SPDX-License-Identifier: Apache-2.0

package manifest

import (
	"github.com/rs/zerolog/log"
)

// ParserOptions tunes the parser.
type ParserOptions struct {
	// CarrierPrefixes are the two-letter service codes accepted by the last
	// boundary pattern. nil means DefaultCarrierPrefixes, an empty slice
	// disables the pattern.
	CarrierPrefixes []string `yaml:"carrier_prefixes"`
}

// Parser extracts manifests from OCR text. It holds no state between calls
// and is safe for concurrent use.
type Parser struct {
	patterns []boundaryPattern
}

// NewParser creates a Parser.
func NewParser(opts ParserOptions) *Parser {
	prefixes := opts.CarrierPrefixes
	if prefixes == nil {
		prefixes = DefaultCarrierPrefixes
	}

	return &Parser{patterns: newBoundaryPatterns(prefixes)}
}

// ParseMetrics tracks statistics about one parse.
type ParseMetrics struct {
	Lines      int `json:"lines"`
	Items      int `json:"items"`
	Duplicates int `json:"duplicates"`
	Ranges     int `json:"ranges"`
	Unresolved int `json:"unresolved"`
	Partial    int `json:"partial"`
	Repaired   int `json:"repaired"`
}

// Parse extracts the manifest of text. It never fails: a text without any
// object code yields a manifest with no items (see Manifest.Recognized), and
// items with missing fields are kept and flagged.
func (p *Parser) Parse(text string) *Manifest {
	m, _ := p.ParseWithMetrics(text, nil)

	return m
}

// ParseWithMetrics runs the whole pipeline and reports what it did.
func (p *Parser) ParseWithMetrics(text string, scanned []string) (*Manifest, *ParseMetrics) {
	metrics := &ParseMetrics{}

	lines := SegmentLines(text)
	metrics.Lines = len(lines)

	items := buildItems(p.patterns, lines)
	RepairObjectCodes(items, scanned)

	clean := ExtractCleanAddresses(text)
	metrics.Ranges = len(clean)

	items = Reconcile(items, clean)

	before := len(items)
	items = Deduplicate(items)
	metrics.Duplicates = before - len(items)

	for i, item := range items {
		finalize(item, i+1)

		if item.HasFlag(FlagPartial) {
			metrics.Partial++
		}

		if item.HasFlag(FlagRangeUnresolved) {
			metrics.Unresolved++
		}

		if item.HasFlag(FlagObjectCodeRepaired) {
			metrics.Repaired++
		}
	}

	metrics.Items = len(items)

	log.Debug().
		Int("lines", metrics.Lines).
		Int("items", metrics.Items).
		Int("duplicates", metrics.Duplicates).
		Int("unresolved", metrics.Unresolved).
		Msg("manifest parsed")

	return &Manifest{
		Header: ExtractHeader(text),
		Items:  items,
	}, metrics
}

// finalize sets the sentinels, the flags and the 1-based sequence.
func finalize(item *DeliveryItem, sequence int) {
	item.Sequence = sequence

	if !item.HasCEP() {
		item.CEP = CEPUnknown
	}

	if !item.HasAddress() || !item.HasCEP() {
		item.AddFlag(FlagPartial)
	} else {
		item.RemoveFlag(FlagPartial)
	}

	if IsValidObjectCode(item.ObjectCode) {
		item.RemoveFlag(FlagInvalidObjectCode)
	} else {
		item.AddFlag(FlagInvalidObjectCode)
	}
}
