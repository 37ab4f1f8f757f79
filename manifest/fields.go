// Copyright 2025 The Rota Fácil Authors
// SPDX-License-Identifier: Apache-2.0

package manifest

import (
	"regexp"
	"strings"
)

var (
	// rua, avenida, alameda, travessa, praça, estrada, rodovia and their
	// abbreviations; short forms need the dot to avoid matching UFs like AL.
	streetKeywordRegex = regexp.MustCompile(
		`(?i)(?:^|[^\pL])(?:rua|r\.|avenida|av\.?|alameda|al\.|travessa|trav\.|tv\.|praça|praca|pça\.|pc\.|estrada|estr\.|rodovia|rod\.)(?:[^\pL]|$)`,
	)
	cepRegex = regexp.MustCompile(`(?:^|[^0-9])([0-9]{2})\.?([0-9]{3})-?([0-9]{3})(?:[^0-9]|$)`)
	// isolated X next to the hyphenated order suffix: '13- X' or 'X 13-'
	arRegex = regexp.MustCompile(`(?:[0-9]{1,3}\s*-\s*X\b)|(?:\bX\s+[0-9]{1,3}\s*-)`)
	// 'Uberlândia - MG/BR' footers
	destinationRegex = regexp.MustCompile(`^[^0-9,/]*\pL[^0-9,/]*\s-\s*[A-Za-z]{2}\s*/\s*[A-Za-z]{2,}\.?$`)
	cepLabelRegex    = regexp.MustCompile(`(?i)[,;\s]*\bCEP\b\s*:?\s*(?:[0-9]{2}\.?[0-9]{3}-?[0-9]{3})?`)
	trailingSepRegex = regexp.MustCompile(`[\s,;:\-]+$`)
)

// ExtractCEP returns the first 8-digit postal code of s, without separators.
func ExtractCEP(s string) (string, bool) {
	m := cepRegex.FindStringSubmatch(s)
	if m == nil {
		return "", false
	}

	return m[1] + m[2] + m[3], true
}

func isAddressLine(s string) bool {
	return strings.Contains(s, ",") || streetKeywordRegex.MatchString(s)
}

func isDestinationHint(s string) bool {
	return destinationRegex.MatchString(s)
}

// cleanAddressLine drops the CEP label and squashes spaces.
func cleanAddressLine(s string) string {
	s = cepLabelRegex.ReplaceAllString(s, " ")
	s = strings.Join(strings.Fields(s), " ")

	return trailingSepRegex.ReplaceAllString(s, "")
}

// extractFields fills the still-empty fields of item from one line. A field
// that is already set is never overwritten: OCR often repeats a garbled copy
// of the same field further down.
func extractFields(item *DeliveryItem, line string) {
	if line == "" {
		return
	}

	if isDestinationHint(line) {
		if item.DestinationHint == "" {
			item.DestinationHint = line
		}

		return
	}

	if !item.HasCEP() {
		if cep, ok := ExtractCEP(line); ok {
			item.CEP = cep
		}
	}

	if !item.ARRequired && arRegex.MatchString(line) {
		item.ARRequired = true
	}

	if !item.HasAddress() && isAddressLine(line) {
		item.RawAddressLine = line
	}
}
