// Copyright 2025 The Rota Fácil Authors
// SPDX-License-Identifier: Apache-2.0

package manifest

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

// DefaultCarrierPrefixes are two-letter service codes seen on degraded
// manifests where the rest of the object code was not read.
var DefaultCarrierPrefixes = []string{"MI", "OY", "MJ"}

// boundaryKind tags which object-code pattern opened an item.
type boundaryKind string

const (
	boundaryCanonical  boundaryKind = "canonical"   // 013 AC 973 482 100 BR 13-
	boundaryNoSequence boundaryKind = "no_sequence" // AC 973 482 100 BR
	boundaryFragment   boundaryKind = "fragment"    // AC 973 482 10
	boundaryCarrier    boundaryKind = "carrier"     // MI 123…
)

type boundaryMatch struct {
	Kind         boundaryKind
	ObjectCode   string
	ListPosition int
	End          int // offset in the line right after the match
}

type boundaryPattern struct {
	Kind    boundaryKind
	Regex   *regexp.Regexp
	extract func(m []string) (code string, position int)
}

var (
	objectCodePattern  = regexp.MustCompile(`^[A-Z]{2} [0-9]{3} [0-9]{3} [0-9]{3} BR$`)
	objectCodeSearch   = regexp.MustCompile(`\b([A-Z]{2})\s*([0-9]{3})\s*([0-9]{3})\s*([0-9]{3})\s*(BR)\b`)
	nonDigitsOrLetters = regexp.MustCompile(`[^A-Z0-9]`)
)

func canonicalCode(letters, a, b, c string) string {
	return fmt.Sprintf("%s %s %s %s BR", strings.ToUpper(letters), a, b, c)
}

// IsValidObjectCode reports whether s is a normalized postal object code.
func IsValidObjectCode(s string) bool {
	return objectCodePattern.MatchString(s)
}

// NormalizeObjectCode returns the canonical 'AA 999 999 999 BR' form of a
// code read with arbitrary spacing or case, or "" when s holds no code.
func NormalizeObjectCode(s string) string {
	m := objectCodeSearch.FindStringSubmatch(strings.ToUpper(s))
	if m == nil {
		return ""
	}

	return canonicalCode(m[1], m[2], m[3], m[4])
}

// compactCode strips everything but letters and digits.
func compactCode(s string) string {
	return nonDigitsOrLetters.ReplaceAllString(strings.ToUpper(s), "")
}

func atoi(s string) int {
	n, err := strconv.Atoi(s)
	if err != nil {
		return 0
	}

	return n
}

// newBoundaryPatterns builds the ordered pattern table. Order is priority:
// the first pattern that matches a line decides the item's object code.
func newBoundaryPatterns(carrierPrefixes []string) []boundaryPattern {
	// full codes match in any case, fragments and carrier codes only in upper
	// case
	ret := []boundaryPattern{
		{
			Kind: boundaryCanonical,
			Regex: regexp.MustCompile(
				`(?i)^([0-9]{3})\s+([A-Z]{2})\s*([0-9]{3})\s*([0-9]{3})\s*([0-9]{3})\s*BR\s*([0-9]{1,3})\s*-`,
			),
			extract: func(m []string) (string, int) {
				return canonicalCode(m[2], m[3], m[4], m[5]), atoi(m[1])
			},
		},
		{
			// the sequence prefix was misread, the order suffix may survive
			Kind: boundaryNoSequence,
			Regex: regexp.MustCompile(
				`(?i)\b([A-Z]{2})\s*([0-9]{3})\s*([0-9]{3})\s*([0-9]{3})\s*BR\b(?:\s*([0-9]{1,3})\s*-)?`,
			),
			extract: func(m []string) (string, int) {
				return canonicalCode(m[1], m[2], m[3], m[4]), atoi(m[5])
			},
		},
		{
			Kind:  boundaryFragment,
			Regex: regexp.MustCompile(`\b([A-Z]{2})\s*([0-9]{3})\s*([0-9]{3})\s*([0-9]{2,3})\b`),
			extract: func(m []string) (string, int) {
				return strings.Join(m[1:5], " "), 0
			},
		},
	}

	var prefixes []string

	for _, p := range carrierPrefixes {
		p = strings.ToUpper(strings.TrimSpace(p))
		if len(p) == 2 {
			prefixes = append(prefixes, regexp.QuoteMeta(p))
		}
	}

	if len(prefixes) > 0 {
		ret = append(ret, boundaryPattern{
			Kind:  boundaryCarrier,
			Regex: regexp.MustCompile(`\b(` + strings.Join(prefixes, "|") + `)\s*([0-9][0-9 ]{2,})`),
			extract: func(m []string) (string, int) {
				return m[1] + " " + strings.Join(strings.Fields(m[2]), " "), 0
			},
		})
	}

	return ret
}

// detectBoundary evaluates the pattern table against a line.
func detectBoundary(patterns []boundaryPattern, line string) (*boundaryMatch, bool) {
	for _, p := range patterns {
		idx := p.Regex.FindStringSubmatchIndex(line)
		if idx == nil {
			continue
		}

		m := make([]string, len(idx)/2)
		for i := range m {
			if idx[2*i] >= 0 {
				m[i] = line[idx[2*i]:idx[2*i+1]]
			}
		}

		code, position := p.extract(m)

		return &boundaryMatch{
			Kind:         p.Kind,
			ObjectCode:   code,
			ListPosition: position,
			End:          idx[1],
		}, true
	}

	return nil, false
}
