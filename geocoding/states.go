// Copyright 2025 The Rota Fácil Authors
// SPDX-License-Identifier: Apache-2.0

package geocoding

import (
	"sort"
	"strings"

	"github.com/agnivade/levenshtein"
	"github.com/clenio77/rota-facil/utils/textutils"
)

// State is a Brazilian federative unit.
type State struct {
	UF   string `json:"uf"`
	Name string `json:"name"`
}

// States lists the 27 federative units, sorted by UF.
var States = []State{
	{"AC", "Acre"},
	{"AL", "Alagoas"},
	{"AM", "Amazonas"},
	{"AP", "Amapá"},
	{"BA", "Bahia"},
	{"CE", "Ceará"},
	{"DF", "Distrito Federal"},
	{"ES", "Espírito Santo"},
	{"GO", "Goiás"},
	{"MA", "Maranhão"},
	{"MG", "Minas Gerais"},
	{"MS", "Mato Grosso do Sul"},
	{"MT", "Mato Grosso"},
	{"PA", "Pará"},
	{"PB", "Paraíba"},
	{"PE", "Pernambuco"},
	{"PI", "Piauí"},
	{"PR", "Paraná"},
	{"RJ", "Rio de Janeiro"},
	{"RN", "Rio Grande do Norte"},
	{"RO", "Rondônia"},
	{"RR", "Roraima"},
	{"RS", "Rio Grande do Sul"},
	{"SC", "Santa Catarina"},
	{"SE", "Sergipe"},
	{"SP", "São Paulo"},
	{"TO", "Tocantins"},
}

// minFuzzyLength is the shortest folded input tried against the fuzzy
// lookup; shorter names are too close to each other ('para' and 'parana').
const (
	minFuzzyLength   = 6
	maxFuzzyDistance = 2
)

var (
	statesByName = map[string]string{}
	statesByUF   = map[string]string{}
)

func init() {
	for _, s := range States {
		statesByName[textutils.Fold(s.Name)] = s.UF
		statesByUF[s.UF] = s.Name
	}
}

// NormalizeState maps a state name or UF to its two-letter code. The lookup
// ignores case, diacritics and extra spaces; OCR-garbled names of six letters
// or more are matched within a Levenshtein distance of two when a single
// state is the closest.
func NormalizeState(s string) (string, bool) {
	key := textutils.Fold(strings.Trim(s, " .,;-/"))
	if key == "" {
		return "", false
	}

	if uf := strings.ToUpper(key); len(uf) == 2 {
		if _, ok := statesByUF[uf]; ok {
			return uf, true
		}

		return "", false
	}

	if uf, ok := statesByName[key]; ok {
		return uf, true
	}

	if len(key) < minFuzzyLength {
		return "", false
	}

	best, bestDistance, tie := "", maxFuzzyDistance+1, false

	for name, uf := range statesByName {
		d := levenshtein.ComputeDistance(key, name)

		switch {
		case d < bestDistance:
			best, bestDistance, tie = uf, d, false
		case d == bestDistance && uf != best:
			tie = true
		}
	}

	if best == "" || tie {
		return "", false
	}

	return best, true
}

// StateName returns the full name of a UF.
func StateName(uf string) (string, bool) {
	name, ok := statesByUF[strings.ToUpper(uf)]

	return name, ok
}

// StateMatch is one candidate of SearchStates.
type StateMatch struct {
	State
	Distance int `json:"distance"`
}

// SearchStates ranks every state by its edit distance to s, closest first.
func SearchStates(s string) []StateMatch {
	key := textutils.Fold(s)

	ret := make([]StateMatch, 0, len(States))
	for _, st := range States {
		ret = append(ret, StateMatch{State: st, Distance: levenshtein.ComputeDistance(key, textutils.Fold(st.Name))})
	}

	sort.SliceStable(ret, func(i, j int) bool { return ret[i].Distance < ret[j].Distance })

	return ret
}
