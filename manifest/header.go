// Copyright 2025 The Rota Fácil Authors
// SPDX-License-Identifier: Apache-2.0

package manifest

import (
	"regexp"
	"strings"
)

var (
	listRegex     = regexp.MustCompile(`(?i)Lista\s*:\s*(\w+)`)
	unitRegex     = regexp.MustCompile(`(?i)Unidade\s*:\s*([0-9]+)\s*-\s*([^-\n]+)`)
	districtRegex = regexp.MustCompile(`(?i)Distrito\s*:\s*([0-9]+)`)
	// 'UBERLANDIA - MG/BR'; the city is optional
	stateRegex = regexp.MustCompile(`(?:([\pL][\pL .']*?)\s*-\s*)?\b([A-Z]{2})\s*/\s*([A-Z]{2})\b`)
)

// ExtractHeader reads the manifest metadata. It is independent of the item
// pass: each field is the first match in the whole text.
func ExtractHeader(text string) Header {
	text = normalizeLineEndings(text)

	var h Header

	if m := listRegex.FindStringSubmatch(text); m != nil {
		h.ListNumber = m[1]
	}

	if m := unitRegex.FindStringSubmatch(text); m != nil {
		h.UnitCode = m[1]
		h.UnitName = strings.Join(strings.Fields(m[2]), " ")
	}

	if m := districtRegex.FindStringSubmatch(text); m != nil {
		h.District = m[1]
	}

	if m := stateRegex.FindStringSubmatch(text); m != nil {
		h.City = strings.TrimSpace(m[1])
		h.State = m[2]
	}

	return h
}
