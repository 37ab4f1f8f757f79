// Copyright 2025 The Rota Fácil Authors
// SPDX-License-Identifier: Apache-2.0

// Package manifest turns the OCR text of an ECT courier manifest into an
// ordered, deduplicated list of geocodable delivery items.
package manifest

import (
	"errors"
	"regexp"
	"slices"
	"time"

	"github.com/clenio77/rota-facil/spatial"
)

// CEPUnknown is the sentinel stored when no postal code could be read.
const CEPUnknown = "unknown"

// ErrUnrecognizedManifest is reported by callers when a text yields no items.
var ErrUnrecognizedManifest = errors.New("not a recognizable manifest")

// Flag marks a data quality issue on a single item. Flagged items are kept,
// so the caller can prompt for a manual correction.
type Flag string

// Item flags.
const (
	FlagPartial            Flag = "partial"
	FlagRangeUnresolved    Flag = "range_unresolved"
	FlagInvalidObjectCode  Flag = "invalid_object_code"
	FlagObjectCodeRepaired Flag = "object_code_repaired"
)

// RawLine is a single trimmed line of OCR output.
type RawLine struct {
	Index int    `json:"index"`
	Text  string `json:"text"`
}

// DeliveryItem is one parcel of the manifest.
type DeliveryItem struct {
	Sequence          int            `json:"sequence"`
	ListPosition      int            `json:"list_position,omitempty"` // number printed by the postal system
	ObjectCode        string         `json:"object_code"`             // e.g. 'AC 973 482 100 BR'
	RawAddressLine    string         `json:"raw_address_line,omitempty"`
	NormalizedAddress string         `json:"normalized_address,omitempty"` // e.g. 'Rua Rio Grande do Sul, 956'
	CEP               string         `json:"cep"`
	ARRequired        bool           `json:"ar_required"`
	DestinationHint   string         `json:"destination_hint,omitempty"`
	Coordinates       *spatial.Point `json:"coordinates,omitempty"`
	GeocodingError    string         `json:"geocoding_error,omitempty"`
	Flags             []Flag         `json:"flags,omitempty"`
}

// HasAddress reports whether an address line was captured.
func (item *DeliveryItem) HasAddress() bool {
	return item.RawAddressLine != ""
}

// HasCEP reports whether a postal code was captured.
func (item *DeliveryItem) HasCEP() bool {
	return item.CEP != "" && item.CEP != CEPUnknown
}

// Address returns the best address available for geocoding: the normalized
// one when set, the cleaned raw line otherwise.
func (item *DeliveryItem) Address() string {
	if item.NormalizedAddress != "" {
		return item.NormalizedAddress
	}

	return cleanAddressLine(item.RawAddressLine)
}

// HasFlag reports whether f is set.
func (item *DeliveryItem) HasFlag(f Flag) bool {
	return slices.Contains(item.Flags, f)
}

// AddFlag sets f once.
func (item *DeliveryItem) AddFlag(f Flag) {
	if !item.HasFlag(f) {
		item.Flags = append(item.Flags, f)
	}
}

// RemoveFlag clears f.
func (item *DeliveryItem) RemoveFlag(f Flag) {
	item.Flags = slices.DeleteFunc(item.Flags, func(x Flag) bool { return x == f })
	if len(item.Flags) == 0 {
		item.Flags = nil
	}
}

// SetCoordinates records a successful geocoding, clearing any previous error.
func (item *DeliveryItem) SetCoordinates(p spatial.Point) {
	item.Coordinates = &p
	item.GeocodingError = ""
}

// SetGeocodingError records a failed geocoding, clearing any coordinates.
func (item *DeliveryItem) SetGeocodingError(err error) {
	item.Coordinates = nil
	item.GeocodingError = err.Error()
}

// populated counts the fields that matter when two records compete.
func (item *DeliveryItem) populated() int {
	n := 0

	for _, ok := range []bool{
		item.ObjectCode != "",
		item.HasAddress(),
		item.NormalizedAddress != "",
		item.HasCEP(),
		item.ListPosition > 0,
		item.DestinationHint != "",
	} {
		if ok {
			n++
		}
	}

	return n
}

var cepPattern = regexp.MustCompile(`^[0-9]{8}$`)

var (
	errBadCEP        = errors.New("cep must be 8 digits")
	errNoObjectCode  = errors.New("missing object code")
	errBothGeocoding = errors.New("coordinates and geocoding error are mutually exclusive")
)

// Validate checks the item invariants.
func (item *DeliveryItem) Validate() error {
	if item.ObjectCode == "" {
		return errNoObjectCode
	}

	if item.CEP != CEPUnknown && !cepPattern.MatchString(item.CEP) {
		return errBadCEP
	}

	if item.Coordinates != nil && item.GeocodingError != "" {
		return errBothGeocoding
	}

	return nil
}

// Header is the manifest metadata printed once at the top of the list.
type Header struct {
	ListNumber string `json:"list_number,omitempty"`
	UnitCode   string `json:"unit_code,omitempty"`
	UnitName   string `json:"unit_name,omitempty"`
	District   string `json:"district,omitempty"`
	City       string `json:"city,omitempty"`
	State      string `json:"state,omitempty"`
}

// Manifest is an ordered sequence of delivery items plus its header.
type Manifest struct {
	ID        string          `json:"id,omitempty"`
	CreatedAt time.Time       `json:"created_at,omitzero"`
	Header    Header          `json:"header"`
	Items     []*DeliveryItem `json:"items"`
}

// Recognized is false when no object code was found in the whole text.
func (m *Manifest) Recognized() bool {
	return len(m.Items) > 0
}

// Flagged returns the items that need a manual review.
func (m *Manifest) Flagged() []*DeliveryItem {
	var ret []*DeliveryItem

	for _, item := range m.Items {
		if len(item.Flags) > 0 {
			ret = append(ret, item)
		}
	}

	return ret
}
