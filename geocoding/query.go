// Copyright 2025 The Rota Fácil Authors
// SPDX-License-Identifier: Apache-2.0

package geocoding

import (
	"strings"

	"github.com/clenio77/rota-facil/manifest"
	"github.com/clenio77/rota-facil/utils/textutils"
)

// Country is appended to every query.
const Country = "Brasil"

// Location is the city and state the courier works in.
type Location struct {
	City  string `json:"city" yaml:"city"`
	State string `json:"state" yaml:"state"`
}

// DefaultLocation is used when neither the user nor the configuration
// provide one.
var DefaultLocation = Location{City: "Uberlândia", State: "MG"}

// Resolve returns loc with its state normalized to a UF, or fallback when
// loc is nil, has no city or its state is not a Brazilian state.
func Resolve(loc *Location, fallback Location) Location {
	if loc != nil && strings.TrimSpace(loc.City) != "" {
		if uf, ok := NormalizeState(loc.State); ok {
			return Location{City: textutils.Squash(loc.City), State: uf}
		}
	}

	if uf, ok := NormalizeState(fallback.State); ok {
		fallback.State = uf
	}

	return fallback
}

// BuildQuery returns '<address>, <cep>, <city>, <UF>, Brasil' for item. The
// unknown CEP is left out and empty parts are skipped.
func BuildQuery(item *manifest.DeliveryItem, loc *Location, fallback Location) string {
	where := Resolve(loc, fallback)

	var parts []string

	cep := item.CEP
	if !item.HasCEP() {
		cep = ""
	}

	for _, p := range []string{item.Address(), cep, where.City, where.State, Country} {
		if p = strings.TrimSpace(p); p != "" {
			parts = append(parts, p)
		}
	}

	return strings.Join(parts, ", ")
}

// CacheKey is the folded form of a query.
func CacheKey(query string) string {
	return textutils.Fold(query)
}

// HeaderLocation returns the city and state printed on the manifest, or nil
// when the header has no city.
func HeaderLocation(h manifest.Header) *Location {
	if strings.TrimSpace(h.City) == "" {
		return nil
	}

	return &Location{City: h.City, State: h.State}
}
