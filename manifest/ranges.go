// Copyright 2025 The Rota Fácil Authors
// SPDX-License-Identifier: Apache-2.0

package manifest

import (
	"regexp"
	"sort"
	"strings"
)

// RangeVariant names one of the phrasings the postal system uses to print
// the addressable number range of a street.
type RangeVariant string

// Range phrasings, in priority order.
const (
	RangeFromTo          RangeVariant = "de_a"           // Rua X - de 240/241 a 1533/1534, 956 CEP: 38400650
	RangeFromToNoHyphen  RangeVariant = "de_a_sem_hifen" // Rua X de 10 a 200, 12 CEP: 38400650
	RangeUpTo            RangeVariant = "ate"            // Av. Y - até 1469/1470, 232 CEP: 38400734
	RangeUpToNoHyphen    RangeVariant = "ate_sem_hifen"  // Av. Y até 1469/1470, 232 CEP: 38400734
	RangeFromUpTo        RangeVariant = "de_ate"         // Rua X - de 2/3 até 100/101, 50 CEP: 38400650
	rangeManualFromTo    RangeVariant = "manual_de"
	rangeManualUpTo      RangeVariant = "manual_ate"
	rangeStreetExpr                   = `(?P<street>\pL[\pL0-9 .'ºª°]*?)`
	rangePairExpr                     = `[0-9]+\s*/\s*[0-9]+`
	rangeNumberExpr                   = `(?P<number>[0-9]+[A-Za-z]?)`
	rangeCEPExpr                      = `(?P<cep>[0-9]{2}\.?[0-9]{3}-?[0-9]{3})`
	rangeTailExpr                     = `(?:\s*,\s*` + rangeNumberExpr + `)?\s*,?\s*CEP\s*:?\s*` + rangeCEPExpr
)

// CleanAddress is a range address collapsed to the single delivery number.
type CleanAddress struct {
	Variant RangeVariant `json:"variant"`
	Street  string       `json:"street"`
	Number  string       `json:"number,omitempty"`
	CEP     string       `json:"cep,omitempty"`
	Start   int          `json:"-"`
	End     int          `json:"-"`
}

// Canonical returns 'Street, Number', or just the street when the number is
// missing.
func (c CleanAddress) Canonical() string {
	if c.Number == "" {
		return c.Street
	}

	return c.Street + ", " + c.Number
}

type rangePattern struct {
	Variant RangeVariant
	Regex   *regexp.Regexp
}

func rangeRegex(body string) *regexp.Regexp {
	return regexp.MustCompile(`(?i)` + rangeStreetExpr + body + rangeTailExpr)
}

var rangePatterns = []rangePattern{
	{RangeFromTo, rangeRegex(`\s*-\s*de\s+` + rangePairExpr + `\s+a\s+` + rangePairExpr)},
	{RangeFromToNoHyphen, rangeRegex(`\s+de\s+[0-9]+\s+a\s+[0-9]+`)},
	{RangeUpTo, rangeRegex(`\s*-\s*at[eé]\s+` + rangePairExpr)},
	{RangeUpToNoHyphen, rangeRegex(`\s+at[eé]\s+` + rangePairExpr)},
	{RangeFromUpTo, rangeRegex(`\s*-\s*de\s+` + rangePairExpr + `\s+at[eé]\s+` + rangePairExpr)},
}

// manualPatterns are anchored at the start of one raw address line and
// tolerate a missing CEP, which OCR often pushes to another line.
var manualPatterns = []rangePattern{
	{rangeManualFromTo, regexp.MustCompile(
		`(?i)^` + rangeStreetExpr + `\s*-\s*de\s+` + rangePairExpr + `\s+(?:a|at[eé])\s+` + rangePairExpr +
			`\s*,\s*` + rangeNumberExpr + `(?:\s*,?\s*CEP\s*:?\s*` + rangeCEPExpr + `)?`,
	)},
	{rangeManualUpTo, regexp.MustCompile(
		`(?i)^` + rangeStreetExpr + `\s*-\s*at[eé]\s+` + rangePairExpr +
			`\s*,\s*` + rangeNumberExpr + `(?:\s*,?\s*CEP\s*:?\s*` + rangeCEPExpr + `)?`,
	)},
}

var (
	slashPairRegex = regexp.MustCompile(`[0-9]+\s*/\s*[0-9]+`)
	fromToRegex    = regexp.MustCompile(`(?i)\bde\s+[0-9]+\s+a\s+[0-9]+`)
	digitsOnly     = strings.NewReplacer(".", "", "-", "")
)

// hasRangeMarkers reports whether s still shows range syntax: ' a ' or
// ' até ' together with a number pair.
func hasRangeMarkers(s string) bool {
	l := " " + strings.ToLower(strings.Join(strings.Fields(s), " ")) + " "
	if !strings.Contains(l, " a ") && !strings.Contains(l, " até ") && !strings.Contains(l, " ate ") {
		return false
	}

	return slashPairRegex.MatchString(s) || fromToRegex.MatchString(s)
}

func cleanAddressFrom(p rangePattern, s string, idx []int) CleanAddress {
	group := func(name string) string {
		i := p.Regex.SubexpIndex(name)
		if i < 0 || idx[2*i] < 0 {
			return ""
		}

		return s[idx[2*i]:idx[2*i+1]]
	}

	return CleanAddress{
		Variant: p.Variant,
		Street:  strings.Join(strings.Fields(group("street")), " "),
		Number:  strings.ToUpper(group("number")),
		CEP:     digitsOnly.Replace(group("cep")),
		Start:   idx[0],
		End:     idx[1],
	}
}

// ExtractCleanAddresses applies every range phrasing over the whole text and
// returns the matches in text order. It runs over the full text rather than
// per item because range phrasing is often split across OCR lines. A region
// already claimed by a higher-priority phrasing is not matched again.
func ExtractCleanAddresses(text string) []CleanAddress {
	text = normalizeLineEndings(text)

	var ret []CleanAddress

	overlaps := func(start, end int) bool {
		for _, c := range ret {
			if start < c.End && c.Start < end {
				return true
			}
		}

		return false
	}

	for _, p := range rangePatterns {
		for _, idx := range p.Regex.FindAllStringSubmatchIndex(text, -1) {
			if overlaps(idx[0], idx[1]) {
				continue
			}

			ret = append(ret, cleanAddressFrom(p, text, idx))
		}
	}

	sort.SliceStable(ret, func(i, j int) bool { return ret[i].Start < ret[j].Start })

	return ret
}

// matchRangeLine is the last-resort local fix on a single raw address line.
func matchRangeLine(line string) (CleanAddress, bool) {
	for _, patterns := range [][]rangePattern{rangePatterns, manualPatterns} {
		for _, p := range patterns {
			if idx := p.Regex.FindStringSubmatchIndex(line); idx != nil {
				return cleanAddressFrom(p, line, idx), true
			}
		}
	}

	return CleanAddress{}, false
}
