// Copyright 2025 The Rota Fácil Authors
// SPDX-License-Identifier: Apache-2.0

package geocoding

import (
	"strings"
	"unicode"

	"github.com/clenio77/rota-facil/utils/textutils"
	"github.com/xrash/smetrics"
)

// minTokenSimilarity is the Jaro-Winkler score above which two words are
// taken as the same word misspelled.
const minTokenSimilarity = 0.88

func tokens(s string) []string {
	return strings.FieldsFunc(textutils.Fold(s), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
}

// matchScore rates how much of the street part of query, the text before
// its first comma plus the number, is present in the address a provider
// returned. Free-text geocoders fall back to the city centre on a miss and
// only this tells those results apart.
func matchScore(query, formatted string) float64 {
	parts := strings.SplitN(query, ",", 3)
	if len(parts) > 2 {
		parts = parts[:2]
	}

	want := tokens(strings.Join(parts, " "))
	got := tokens(formatted)

	if len(want) == 0 || len(got) == 0 {
		return 0
	}

	var total float64

	for _, w := range want {
		best := 0.0

		for _, g := range got {
			if s := smetrics.JaroWinkler(w, g, 0.7, 4); s > best {
				best = s
			}
		}

		if best >= minTokenSimilarity {
			total += best
		}
	}

	return total / float64(len(want))
}
